package upload

import (
	"fmt"
	"sort"
	"strings"
)

// Constraints defines validation rules for one upload kind.
type Constraints struct {
	AllowedMimeTypes map[string]bool
	MaxSize          int64
}

var (
	imageConstraints = Constraints{
		AllowedMimeTypes: map[string]bool{
			"image/jpeg": true,
			"image/png":  true,
			"image/gif":  true,
			"image/webp": true,
		},
		MaxSize: 5 << 20, // 5MB
	}

	documentConstraints = Constraints{
		AllowedMimeTypes: map[string]bool{
			"application/pdf":    true,
			"application/msword": true,
			"application/vnd.openxmlformats-officedocument.wordprocessingml.document": true,
			"text/plain": true,
		},
		MaxSize: 10 << 20, // 10MB
	}
)

// ConstraintsFor returns the validation rules for an upload kind.
// KindAny takes the union of allowed types but keeps the stricter
// image size cap, since attachments of unknown type get no slack.
func ConstraintsFor(kind Kind) Constraints {
	switch kind {
	case KindImage:
		return imageConstraints
	case KindDocument:
		return documentConstraints
	case KindAny:
		merged := make(map[string]bool, len(imageConstraints.AllowedMimeTypes)+len(documentConstraints.AllowedMimeTypes))
		for t := range imageConstraints.AllowedMimeTypes {
			merged[t] = true
		}
		for t := range documentConstraints.AllowedMimeTypes {
			merged[t] = true
		}
		return Constraints{AllowedMimeTypes: merged, MaxSize: imageConstraints.MaxSize}
	}
	panic(fmt.Sprintf("upload: unknown kind %q", kind))
}

// KindForContentType picks the validation category for a mixed
// image-or-document upload. Image MIME types validate as images; every
// other type falls through to document, whose allow-list then rejects
// anything that is neither.
func KindForContentType(contentType string) Kind {
	if imageConstraints.AllowedMimeTypes[contentType] {
		return KindImage
	}
	return KindDocument
}

// Validate checks a file's size and declared MIME type against the
// rules for the given kind. A file exactly at the size cap is
// rejected; the cap is an exclusive bound.
func Validate(file File, kind Kind) error {
	c := ConstraintsFor(kind)

	if file.Size >= c.MaxSize {
		return fmt.Errorf("file too large: maximum size is %d MB", c.MaxSize>>20)
	}

	if !c.AllowedMimeTypes[file.ContentType] {
		allowed := make([]string, 0, len(c.AllowedMimeTypes))
		for t := range c.AllowedMimeTypes {
			allowed = append(allowed, t)
		}
		sort.Strings(allowed)
		return fmt.Errorf("invalid file type %q: allowed types are %s", file.ContentType, strings.Join(allowed, ", "))
	}

	return nil
}
