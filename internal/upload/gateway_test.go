package upload

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lootbay/lootbay/internal/storage"
)

// fakeStore is an in-memory ObjectStore for gateway tests.
type fakeStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	// failKeys forces Upload to error for specific bucket/path keys.
	failKeys map[string]bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		objects:  make(map[string][]byte),
		failKeys: make(map[string]bool),
	}
}

func (f *fakeStore) key(bucket storage.Bucket, path string) string {
	return bucket.String() + "/" + path
}

func (f *fakeStore) Upload(_ context.Context, bucket storage.Bucket, path string, body io.Reader, opts storage.UploadOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := f.key(bucket, path)
	if f.failKeys[key] {
		return fmt.Errorf("backend unavailable")
	}
	if _, exists := f.objects[key]; exists && !opts.Upsert {
		return storage.ErrObjectExists
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeStore) PublicURL(bucket storage.Bucket, path string) string {
	return "https://cdn.lootbay.test/" + f.key(bucket, path)
}

func (f *fakeStore) SignedURL(_ context.Context, bucket storage.Bucket, path string, expiry time.Duration) (string, error) {
	return fmt.Sprintf("%s?expires=%d", f.PublicURL(bucket, path), int(expiry.Seconds())), nil
}

func (f *fakeStore) Remove(_ context.Context, bucket storage.Bucket, paths []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range paths {
		delete(f.objects, f.key(bucket, p))
	}
	return nil
}

func pngFile(name string) File {
	return File{Name: name, Size: 1 << 10, ContentType: "image/png", Body: strings.NewReader("png-bytes")}
}

func TestGatewayUploadFile(t *testing.T) {
	ctx := context.Background()

	t.Run("success returns URL and path", func(t *testing.T) {
		store := newFakeStore()
		g := NewGateway(store, 0)

		res := g.UploadFile(ctx, pngFile("cover.png"), KindImage, Options{
			Bucket: storage.BucketListings,
			Folder: "listing-42",
		})

		require.True(t, res.Success, "error: %s", res.Error)
		assert.True(t, strings.HasPrefix(res.Path, "listing-42/"), "path %q", res.Path)
		assert.True(t, strings.HasSuffix(res.Path, ".png"), "path %q", res.Path)
		assert.Equal(t, "https://cdn.lootbay.test/listings/"+res.Path, res.URL)
	})

	t.Run("validation failure never reaches storage", func(t *testing.T) {
		store := newFakeStore()
		g := NewGateway(store, 0)

		res := g.UploadFile(ctx, File{Name: "big.png", Size: 20 << 20, ContentType: "image/png"}, KindImage, Options{
			Bucket: storage.BucketListings,
		})

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "maximum size is 5 MB")
		assert.Empty(t, store.objects)
	})

	t.Run("unknown bucket is rejected", func(t *testing.T) {
		g := NewGateway(newFakeStore(), 0)
		res := g.UploadFile(ctx, pngFile("a.png"), KindImage, Options{Bucket: storage.Bucket("stuff")})
		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "unknown bucket")
	})

	t.Run("existing object without upsert fails", func(t *testing.T) {
		store := newFakeStore()
		g := NewGateway(store, 0)

		opts := Options{Bucket: storage.BucketAvatars, Folder: "u1", FileName: "avatar.png"}
		first := g.UploadFile(ctx, pngFile("avatar.png"), KindImage, opts)
		require.True(t, first.Success)

		second := g.UploadFile(ctx, pngFile("avatar.png"), KindImage, opts)
		assert.False(t, second.Success)
		assert.Contains(t, second.Error, "already exists")
	})

	t.Run("upsert replaces existing object", func(t *testing.T) {
		store := newFakeStore()
		g := NewGateway(store, 0)

		res := g.UploadAvatar(ctx, "u1", pngFile("old.png"))
		require.True(t, res.Success)
		res = g.UploadAvatar(ctx, "u1", pngFile("new.png"))
		require.True(t, res.Success, "error: %s", res.Error)
		assert.Equal(t, "u1/avatar.png", res.Path)
	})

	t.Run("private bucket gets a signed URL", func(t *testing.T) {
		g := NewGateway(newFakeStore(), 30*time.Minute)
		res := g.UploadFile(ctx, File{Name: "proof.pdf", Size: 1 << 10, ContentType: "application/pdf", Body: strings.NewReader("pdf")}, KindAny, Options{
			Bucket: storage.BucketDisputes,
			Folder: "d1",
		})
		require.True(t, res.Success, "error: %s", res.Error)
		assert.Contains(t, res.URL, "expires=1800")
	})
}

func TestGatewayUploadFiles(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	g := NewGateway(store, 0)

	files := []File{
		pngFile("one.png"),
		{Name: "huge.png", Size: 20 << 20, ContentType: "image/png"},
		pngFile("three.png"),
	}

	results := g.UploadFiles(ctx, files, KindImage, Options{Bucket: storage.BucketListings, Folder: "l1"})

	require.Len(t, results, 3)
	assert.True(t, results[0].Success, "error: %s", results[0].Error)
	assert.False(t, results[1].Success)
	assert.Contains(t, results[1].Error, "maximum size")
	assert.True(t, results[2].Success, "error: %s", results[2].Error)
	assert.Len(t, store.objects, 2)
}

func TestGatewayDeleteFiles(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	g := NewGateway(store, 0)

	res := g.UploadFile(ctx, pngFile("a.png"), KindImage, Options{Bucket: storage.BucketListings, Folder: "l1"})
	require.True(t, res.Success)

	require.NoError(t, g.DeleteFile(ctx, storage.BucketListings, res.Path))
	assert.Empty(t, store.objects)

	require.NoError(t, g.DeleteFiles(ctx, storage.BucketListings, nil))
	err := g.DeleteFiles(ctx, storage.Bucket("nope"), []string{"x"})
	assert.ErrorContains(t, err, "unknown bucket")
}

func TestGatewaySignedURL(t *testing.T) {
	ctx := context.Background()
	g := NewGateway(newFakeStore(), 0)

	url, err := g.SignedURL(ctx, storage.BucketDocuments, "u1/tax.pdf", 0)
	require.NoError(t, err)
	assert.Contains(t, url, "expires=3600")

	url, err = g.SignedURL(ctx, storage.BucketDocuments, "u1/tax.pdf", 2*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, url, "expires=120")
}

func TestExtractPathFromURL(t *testing.T) {
	g := NewGateway(newFakeStore(), 0)

	tests := []struct {
		name   string
		url    string
		bucket storage.Bucket
		want   string
		ok     bool
	}{
		{
			name:   "plain public URL",
			url:    "https://cdn.lootbay.test/listings/l1/123-abc.png",
			bucket: storage.BucketListings,
			want:   "l1/123-abc.png",
			ok:     true,
		},
		{
			name:   "query string is ignored",
			url:    "https://cdn.lootbay.test/avatars/u1/avatar.png?expires=3600",
			bucket: storage.BucketAvatars,
			want:   "u1/avatar.png",
			ok:     true,
		},
		{
			name:   "wrong bucket base",
			url:    "https://cdn.lootbay.test/listings/l1/a.png",
			bucket: storage.BucketAvatars,
		},
		{
			name:   "foreign host",
			url:    "https://evil.example.com/listings/l1/a.png",
			bucket: storage.BucketListings,
		},
		{
			name:   "bare base with no path",
			url:    "https://cdn.lootbay.test/listings/",
			bucket: storage.BucketListings,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := g.ExtractPathFromURL(tt.url, tt.bucket)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileTypeFromURL(t *testing.T) {
	assert.Equal(t, KindImage, FileTypeFromURL("https://cdn.lootbay.test/listings/l1/a.webp"))
	assert.Equal(t, KindImage, FileTypeFromURL("https://cdn.lootbay.test/a/b.JPG?x=1"))
	assert.Equal(t, KindDocument, FileTypeFromURL("https://cdn.lootbay.test/documents/u1/w9.pdf"))
	assert.Equal(t, KindAny, FileTypeFromURL("https://cdn.lootbay.test/misc/archive.zip"))
	assert.Equal(t, KindAny, FileTypeFromURL("https://cdn.lootbay.test/misc/noext"))
}

func TestMixedAttachmentsValidatePerCategory(t *testing.T) {
	ctx := context.Background()

	pdf := func(name string, size int64) File {
		return File{Name: name, Size: size, ContentType: "application/pdf", Body: strings.NewReader("%PDF-")}
	}

	t.Run("message attachment pdf over the image cap is accepted", func(t *testing.T) {
		store := newFakeStore()
		g := NewGateway(store, 0)

		res := g.UploadMessageAttachment(ctx, "conv-1", pdf("receipt.pdf", 7<<20))

		require.True(t, res.Success, "error: %s", res.Error)
		assert.True(t, strings.HasSuffix(res.Path, ".pdf"), "path %q", res.Path)
	})

	t.Run("message attachment pdf over the document cap is rejected", func(t *testing.T) {
		g := NewGateway(newFakeStore(), 0)

		res := g.UploadMessageAttachment(ctx, "conv-1", pdf("huge.pdf", 12<<20))

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "maximum size is 10 MB")
	})

	t.Run("message attachment image keeps the image cap", func(t *testing.T) {
		g := NewGateway(newFakeStore(), 0)

		res := g.UploadMessageAttachment(ctx, "conv-1", File{
			Name: "shot.png", Size: 7 << 20, ContentType: "image/png",
		})

		assert.False(t, res.Success)
		assert.Contains(t, res.Error, "maximum size is 5 MB")
	})

	t.Run("dispute evidence mixes image and document caps per file", func(t *testing.T) {
		store := newFakeStore()
		g := NewGateway(store, 0)

		results := g.UploadDisputeEvidence(ctx, "purchase-9", []File{
			pngFile("proof.png"),
			pdf("chatlog.pdf", 8<<20),
			pdf("dump.pdf", 11<<20),
		})

		require.Len(t, results, 3)
		assert.True(t, results[0].Success, "error: %s", results[0].Error)
		assert.True(t, results[1].Success, "error: %s", results[1].Error)
		assert.False(t, results[2].Success)
		assert.Contains(t, results[2].Error, "maximum size is 10 MB")
	})
}
