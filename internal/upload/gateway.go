package upload

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/lootbay/lootbay/internal/storage"
)

// DefaultSignedURLExpiry is used when a caller asks for a signed URL
// without an explicit lifetime.
const DefaultSignedURLExpiry = time.Hour

// File is a single upload payload. Size and ContentType come from the
// client's multipart metadata; Validate checks them before any bytes
// move.
type File struct {
	Name        string
	Size        int64
	ContentType string
	Body        io.Reader
}

// Options controls where an upload lands.
type Options struct {
	Bucket storage.Bucket
	// Folder is an optional key prefix inside the bucket, e.g. a user
	// or listing ID.
	Folder string
	// FileName overrides the generated object name. Leave empty unless
	// the path must be deterministic (avatars).
	FileName string
	// Upsert allows replacing an existing object at the same path.
	Upsert bool
}

// Result reports the outcome of one upload. Failures are carried as
// data rather than returned as errors so a batch can report per-file
// outcomes without aborting.
type Result struct {
	Success bool
	URL     string
	Path    string
	Error   string
}

func failure(err error) Result {
	return Result{Error: err.Error()}
}

// Gateway validates uploads and moves them into object storage.
type Gateway struct {
	store           storage.ObjectStore
	log             *slog.Logger
	signedURLExpiry time.Duration
}

func NewGateway(store storage.ObjectStore, signedURLExpiry time.Duration) *Gateway {
	if signedURLExpiry <= 0 {
		signedURLExpiry = DefaultSignedURLExpiry
	}
	return &Gateway{
		store:           store,
		log:             slog.Default().With("component", "upload"),
		signedURLExpiry: signedURLExpiry,
	}
}

// UploadFile validates and stores a single file. The returned Result
// is always populated; check Success rather than a nil error.
func (g *Gateway) UploadFile(ctx context.Context, file File, kind Kind, opts Options) Result {
	if !opts.Bucket.Valid() {
		return failure(fmt.Errorf("unknown bucket %q", opts.Bucket))
	}

	if err := Validate(file, kind); err != nil {
		return failure(err)
	}

	name := opts.FileName
	if name == "" {
		name = GenerateFileName(file.Name)
	}
	path := name
	if opts.Folder != "" {
		path = strings.Trim(opts.Folder, "/") + "/" + name
	}

	err := g.store.Upload(ctx, opts.Bucket, path, file.Body, storage.UploadOptions{
		ContentType: file.ContentType,
		Upsert:      opts.Upsert,
	})
	if err != nil {
		if errors.Is(err, storage.ErrObjectExists) {
			return failure(fmt.Errorf("file already exists at %s", path))
		}
		g.log.Error("upload failed", "bucket", opts.Bucket, "path", path, "error", err)
		return failure(fmt.Errorf("upload failed: %w", err))
	}

	url, err := g.urlFor(ctx, opts.Bucket, path)
	if err != nil {
		g.log.Error("failed to build URL for uploaded file", "bucket", opts.Bucket, "path", path, "error", err)
		return failure(fmt.Errorf("upload succeeded but URL generation failed: %w", err))
	}

	return Result{Success: true, URL: url, Path: path}
}

// UploadFiles stores a batch concurrently. Results line up with the
// input order, and one file failing never affects the others.
func (g *Gateway) UploadFiles(ctx context.Context, files []File, kind Kind, opts Options) []Result {
	results := make([]Result, len(files))

	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file File) {
			defer wg.Done()
			results[i] = g.UploadFile(ctx, file, kind, opts)
		}(i, file)
	}
	wg.Wait()

	return results
}

// DeleteFile removes a single object.
func (g *Gateway) DeleteFile(ctx context.Context, bucket storage.Bucket, path string) error {
	return g.DeleteFiles(ctx, bucket, []string{path})
}

// DeleteFiles removes a set of objects from one bucket.
func (g *Gateway) DeleteFiles(ctx context.Context, bucket storage.Bucket, paths []string) error {
	if !bucket.Valid() {
		return fmt.Errorf("unknown bucket %q", bucket)
	}
	if len(paths) == 0 {
		return nil
	}
	if err := g.store.Remove(ctx, bucket, paths); err != nil {
		return fmt.Errorf("failed to delete files: %w", err)
	}
	return nil
}

// SignedURL returns a time-limited URL for an object. A non-positive
// expiry falls back to the gateway default.
func (g *Gateway) SignedURL(ctx context.Context, bucket storage.Bucket, path string, expiry time.Duration) (string, error) {
	if !bucket.Valid() {
		return "", fmt.Errorf("unknown bucket %q", bucket)
	}
	if expiry <= 0 {
		expiry = g.signedURLExpiry
	}
	return g.store.SignedURL(ctx, bucket, path, expiry)
}

// urlFor picks the right URL style for a bucket: signed for private
// namespaces, stable public otherwise.
func (g *Gateway) urlFor(ctx context.Context, bucket storage.Bucket, path string) (string, error) {
	if bucket.Private() {
		return g.store.SignedURL(ctx, bucket, path, g.signedURLExpiry)
	}
	return g.store.PublicURL(bucket, path), nil
}

// UploadAvatar stores a user's avatar at a deterministic path so a new
// upload replaces the old one.
func (g *Gateway) UploadAvatar(ctx context.Context, userID string, file File) Result {
	return g.UploadFile(ctx, file, KindImage, Options{
		Bucket:   storage.BucketAvatars,
		Folder:   userID,
		FileName: "avatar" + lowerExt(file.Name),
		Upsert:   true,
	})
}

// UploadListingImages stores a listing's gallery images.
func (g *Gateway) UploadListingImages(ctx context.Context, listingID string, files []File) []Result {
	return g.UploadFiles(ctx, files, KindImage, Options{
		Bucket: storage.BucketListings,
		Folder: listingID,
	})
}

// UploadMessageAttachment stores a conversation attachment. Buyers and
// sellers trade screenshots and receipts, so both images and documents
// are accepted; each file validates under its own category's size cap.
func (g *Gateway) UploadMessageAttachment(ctx context.Context, conversationID string, file File) Result {
	return g.UploadFile(ctx, file, KindForContentType(file.ContentType), Options{
		Bucket: storage.BucketMessages,
		Folder: conversationID,
	})
}

// UploadDisputeEvidence stores evidence files for a dispute. The
// bucket is private; results carry signed URLs. Images and documents
// each get their own category's size cap.
func (g *Gateway) UploadDisputeEvidence(ctx context.Context, disputeID string, files []File) []Result {
	results := make([]Result, len(files))
	var wg sync.WaitGroup
	for i, file := range files {
		wg.Add(1)
		go func(i int, file File) {
			defer wg.Done()
			results[i] = g.UploadFile(ctx, file, KindForContentType(file.ContentType), Options{
				Bucket: storage.BucketDisputes,
				Folder: disputeID,
			})
		}(i, file)
	}
	wg.Wait()
	return results
}

func lowerExt(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return strings.ToLower(name[i:])
	}
	return ""
}
