package backup

import (
	"errors"
	"testing"
	"time"

	"github.com/minio/minio-go/v7"
)

func TestIsAbsent(t *testing.T) {
	if !isAbsent(minio.ErrorResponse{Code: "NoSuchKey"}) {
		t.Fatalf("NoSuchKey must read as absent")
	}
	if !isAbsent(errors.New("The specified key does not exist: NoSuchKey")) {
		t.Fatalf("wrapped NoSuchKey text must read as absent")
	}
	if isAbsent(errors.New("access denied")) {
		t.Fatalf("access denied is not absence")
	}
	if isAbsent(nil) {
		t.Fatalf("nil is not absence")
	}
}

func TestMaybePushRateLimited(t *testing.T) {
	// A recently pushed syncer must not touch the client at all; a nil client
	// would panic if it did.
	r := &RemoteSyncer{interval: time.Hour, lastPush: time.Now()}
	r.MaybePush(nil)
}
