package upload

import (
	"path"
	"strings"

	"github.com/lootbay/lootbay/internal/storage"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
}

var documentExtensions = map[string]bool{
	".pdf":  true,
	".doc":  true,
	".docx": true,
	".txt":  true,
}

// FileTypeFromURL classifies a stored file by its URL extension.
// Unrecognized extensions come back as KindAny.
func FileTypeFromURL(rawURL string) Kind {
	ext := strings.ToLower(path.Ext(stripQuery(rawURL)))
	switch {
	case imageExtensions[ext]:
		return KindImage
	case documentExtensions[ext]:
		return KindDocument
	}
	return KindAny
}

// ExtractPathFromURL recovers the object path from a public URL
// previously returned by an upload. URLs that don't match the store's
// base for the bucket yield ok=false; callers treat that as "not ours,
// nothing to delete".
func (g *Gateway) ExtractPathFromURL(rawURL string, bucket storage.Bucket) (string, bool) {
	base := strings.TrimSuffix(g.store.PublicURL(bucket, ""), "/")
	url := stripQuery(rawURL)

	if !strings.HasPrefix(url, base+"/") {
		return "", false
	}
	p := strings.TrimPrefix(url, base+"/")
	if p == "" {
		return "", false
	}
	return p, true
}

func stripQuery(rawURL string) string {
	if i := strings.IndexAny(rawURL, "?#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}
