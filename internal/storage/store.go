package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrObjectExists is returned by Upload when the destination already
// holds an object and Upsert was not requested.
var ErrObjectExists = errors.New("storage: object already exists")

// UploadOptions controls how an object is written.
type UploadOptions struct {
	ContentType  string
	CacheControl string
	// Upsert allows overwriting an existing object. When false the
	// upload fails with ErrObjectExists if the key is taken.
	Upsert bool
}

// ObjectStore defines the interface for object storage operations.
// Buckets are logical namespaces; implementations decide how they map
// onto physical storage.
type ObjectStore interface {
	// Upload stores an object under bucket/path.
	Upload(ctx context.Context, bucket Bucket, path string, body io.Reader, opts UploadOptions) error

	// PublicURL returns the stable public URL for an object.
	PublicURL(bucket Bucket, path string) string

	// SignedURL returns a presigned URL valid for the given duration.
	SignedURL(ctx context.Context, bucket Bucket, path string, expiry time.Duration) (string, error)

	// Remove deletes the given objects from a bucket.
	Remove(ctx context.Context, bucket Bucket, paths []string) error
}
