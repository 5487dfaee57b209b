package backup

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"memobank/pkg/store"
)

// RemoteSyncer mirrors the catalog file to an S3-compatible bucket, for
// deployments without a durable local disk. One object, last writer wins:
// pull on startup, push after writes (rate limited) and on shutdown.
type RemoteSyncer struct {
	client   *minio.Client
	bucket   string
	object   string
	interval time.Duration

	mu       sync.Mutex
	lastPush time.Time
}

// NewRemoteSyncer connects to the remote store and ensures the bucket exists.
func NewRemoteSyncer(endpoint, accessKey, secretKey, bucket, object string, useSSL bool, interval time.Duration) (*RemoteSyncer, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init remote sync client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check sync bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create sync bucket: %w", err)
		}
	}
	return &RemoteSyncer{client: client, bucket: bucket, object: object, interval: interval}, nil
}

// Pull downloads the remote catalog over the local path. A missing remote
// object means a first run: the local file (or a fresh empty catalog) is
// authoritative and Pull is a no-op. Call before opening the catalog.
func (r *RemoteSyncer) Pull(ctx context.Context, localPath string) error {
	tmp := localPath + ".pull"
	err := r.client.FGetObject(ctx, r.bucket, r.object, tmp, minio.GetObjectOptions{})
	if err != nil {
		os.Remove(tmp)
		if isAbsent(err) {
			slog.Info("no remote catalog yet, starting fresh", "bucket", r.bucket, "object", r.object)
			return nil
		}
		return fmt.Errorf("pull catalog: %w", err)
	}
	if err := os.Rename(tmp, localPath); err != nil {
		return fmt.Errorf("pull catalog: %w", err)
	}
	slog.Info("catalog pulled from remote", "bucket", r.bucket, "object", r.object)
	return nil
}

// Push uploads the catalog file while holding its exclusion region.
func (r *RemoteSyncer) Push(ctx context.Context, catalog *store.Catalog) error {
	err := catalog.WithFileLock(lockTimeout, func() error {
		_, err := r.client.FPutObject(ctx, r.bucket, r.object, catalog.Path(),
			minio.PutObjectOptions{ContentType: "application/octet-stream"})
		return err
	})
	if err != nil {
		return fmt.Errorf("push catalog: %w", err)
	}
	r.mu.Lock()
	r.lastPush = time.Now()
	r.mu.Unlock()
	slog.Info("catalog pushed to remote", "bucket", r.bucket, "object", r.object)
	return nil
}

// MaybePush pushes only when the configured interval has elapsed since the
// last push. Meant to run as the catalog commit hook: cheap when recently
// pushed, and a push failure only logs so writes keep succeeding.
func (r *RemoteSyncer) MaybePush(catalog *store.Catalog) {
	r.mu.Lock()
	due := time.Since(r.lastPush) >= r.interval
	r.mu.Unlock()
	if !due {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := r.Push(ctx, catalog); err != nil {
		slog.Warn("deferred catalog push failed", "error", err)
	}
}

func isAbsent(err error) bool {
	if err == nil {
		return false
	}
	var minioErr minio.ErrorResponse
	if errors.As(err, &minioErr) {
		switch strings.ToLower(strings.TrimSpace(minioErr.Code)) {
		case "nosuchkey", "notfound":
			return true
		}
	}
	lower := strings.ToLower(err.Error())
	return strings.Contains(lower, "nosuchkey") || strings.Contains(lower, "not found")
}
