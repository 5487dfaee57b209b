package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// MinioStore keeps blobs in a MinIO/S3-compatible bucket. Locators use the
// s3:// scheme.
type MinioStore struct {
	client *minio.Client
	bucket string
}

// NewMinioStore connects to MinIO and ensures the bucket exists.
func NewMinioStore(endpoint, accessKey, secretKey, bucket string, useSSL bool) (*MinioStore, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("init minio client: %w", err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}
	return &MinioStore{client: client, bucket: bucket}, nil
}

// Save uploads the content and returns an s3:// locator.
func (m *MinioStore) Save(ctx context.Context, content []byte, suggestedName string) (string, error) {
	key := keyFor(uuid.NewString(), suggestedName)
	_, err := m.client.PutObject(ctx, m.bucket, key, bytes.NewReader(content), int64(len(content)),
		minio.PutObjectOptions{ContentType: "application/pdf"})
	if err != nil {
		return "", fmt.Errorf("%w: put object: %v", ErrWrite, err)
	}
	return SchemeS3 + "://" + key, nil
}

// Read downloads the object, normalizing minio's NoSuchKey to ErrNotFound.
func (m *MinioStore) Read(ctx context.Context, locator string) ([]byte, error) {
	key, err := m.key(locator)
	if err != nil {
		return nil, err
	}
	obj, err := m.client.GetObject(ctx, m.bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("get object %s: %w", locator, err)
	}
	defer obj.Close()
	data, err := io.ReadAll(obj)
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, locator)
		}
		return nil, fmt.Errorf("read object %s: %w", locator, err)
	}
	return data, nil
}

// Delete removes the object; reports whether it existed.
func (m *MinioStore) Delete(ctx context.Context, locator string) (bool, error) {
	key, err := m.key(locator)
	if err != nil {
		return false, err
	}
	if _, err := m.client.StatObject(ctx, m.bucket, key, minio.StatObjectOptions{}); err != nil {
		if isNoSuchKey(err) {
			return false, nil
		}
		return false, fmt.Errorf("stat object %s: %w", locator, err)
	}
	if err := m.client.RemoveObject(ctx, m.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return false, fmt.Errorf("delete object %s: %w", locator, err)
	}
	return true, nil
}

// DownloadURL generates a pre-signed GET URL.
func (m *MinioStore) DownloadURL(ctx context.Context, locator string, expiry time.Duration) (string, error) {
	key, err := m.key(locator)
	if err != nil {
		return "", err
	}
	url, err := m.client.PresignedGetObject(ctx, m.bucket, key, expiry, nil)
	if err != nil {
		return "", fmt.Errorf("presign get %s: %w", locator, err)
	}
	return url.String(), nil
}

func (m *MinioStore) key(locator string) (string, error) {
	scheme, key, err := SplitLocator(locator)
	if err != nil {
		return "", err
	}
	if scheme != SchemeS3 {
		return "", fmt.Errorf("%w: scheme %q not served by minio store", ErrInvalidLocator, scheme)
	}
	return key, nil
}

// isNoSuchKey reports whether err clearly means the object does not exist
// (S3/MinIO: NoSuchKey/NotFound). Some gateways wrap the response, so a
// string check backs up the typed one.
func isNoSuchKey(err error) bool {
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
	return strings.Contains(lower, "nosuchkey") ||
		strings.Contains(lower, "specified key does not exist") ||
		strings.Contains(lower, "not found")
}
