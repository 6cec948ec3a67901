package handler

import (
	"fmt"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/lootbay/lootbay/internal/upload"
)

// maxMultipartMemory bounds how much of a multipart body is buffered in
// memory before spilling to temp files.
const maxMultipartMemory = 32 << 20

// uploadFile adapts one multipart part into an upload payload. The
// returned close func must be called after the upload finishes.
func uploadFile(header *multipart.FileHeader) (upload.File, func(), error) {
	f, err := header.Open()
	if err != nil {
		return upload.File{}, nil, fmt.Errorf("failed to open uploaded file: %w", err)
	}
	file := upload.File{
		Name:        header.Filename,
		Size:        header.Size,
		ContentType: header.Header.Get("Content-Type"),
		Body:        f,
	}
	return file, func() { _ = f.Close() }, nil
}

// formFiles opens every part under a multipart field name.
func formFiles(r *http.Request, field string) ([]upload.File, func(), error) {
	if r.MultipartForm == nil {
		if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
			return nil, nil, fmt.Errorf("failed to parse multipart form: %w", err)
		}
	}

	headers := r.MultipartForm.File[field]
	files := make([]upload.File, 0, len(headers))
	closers := make([]func(), 0, len(headers))
	closeAll := func() {
		for _, c := range closers {
			c()
		}
	}

	for _, header := range headers {
		file, cls, err := uploadFile(header)
		if err != nil {
			closeAll()
			return nil, nil, err
		}
		files = append(files, file)
		closers = append(closers, cls)
	}
	return files, closeAll, nil
}

// safeRedirect keeps login redirects on-site. Anything that is not a
// plain local path falls back to def.
func safeRedirect(target, def string) string {
	if target == "" || !strings.HasPrefix(target, "/") || strings.HasPrefix(target, "//") {
		return def
	}
	return target
}
