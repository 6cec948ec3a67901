package upload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		file    File
		kind    Kind
		wantErr string
	}{
		{
			name: "valid image",
			file: File{Name: "photo.jpg", Size: 1 << 20, ContentType: "image/jpeg"},
			kind: KindImage,
		},
		{
			name:    "image at exact size cap is rejected",
			file:    File{Name: "photo.jpg", Size: 5 << 20, ContentType: "image/jpeg"},
			kind:    KindImage,
			wantErr: "maximum size is 5 MB",
		},
		{
			name:    "image over size cap",
			file:    File{Name: "photo.jpg", Size: 6 << 20, ContentType: "image/jpeg"},
			kind:    KindImage,
			wantErr: "maximum size is 5 MB",
		},
		{
			name: "image just under cap",
			file: File{Name: "photo.png", Size: 5<<20 - 1, ContentType: "image/png"},
			kind: KindImage,
		},
		{
			name:    "pdf is not an image",
			file:    File{Name: "contract.pdf", Size: 1 << 20, ContentType: "application/pdf"},
			kind:    KindImage,
			wantErr: `invalid file type "application/pdf"`,
		},
		{
			name: "valid document",
			file: File{Name: "contract.pdf", Size: 8 << 20, ContentType: "application/pdf"},
			kind: KindDocument,
		},
		{
			name:    "document over 10MB cap",
			file:    File{Name: "contract.pdf", Size: 10 << 20, ContentType: "application/pdf"},
			kind:    KindDocument,
			wantErr: "maximum size is 10 MB",
		},
		{
			name: "any accepts images",
			file: File{Name: "shot.webp", Size: 1 << 20, ContentType: "image/webp"},
			kind: KindAny,
		},
		{
			name: "any accepts documents",
			file: File{Name: "receipt.pdf", Size: 1 << 20, ContentType: "application/pdf"},
			kind: KindAny,
		},
		{
			name:    "any keeps the image size cap",
			file:    File{Name: "receipt.pdf", Size: 8 << 20, ContentType: "application/pdf"},
			kind:    KindAny,
			wantErr: "maximum size is 5 MB",
		},
		{
			name:    "executables are never allowed",
			file:    File{Name: "installer.exe", Size: 1 << 20, ContentType: "application/x-msdownload"},
			kind:    KindAny,
			wantErr: "invalid file type",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.file, tt.kind)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateErrorNamesAllowedTypes(t *testing.T) {
	err := Validate(File{Name: "x.bin", Size: 10, ContentType: "application/octet-stream"}, KindImage)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "image/jpeg")
	assert.Contains(t, err.Error(), "image/png")
	assert.Contains(t, err.Error(), "image/gif")
	assert.Contains(t, err.Error(), "image/webp")
}

func TestConstraintsForUnknownKindPanics(t *testing.T) {
	assert.Panics(t, func() { ConstraintsFor(Kind("archive")) })
}

func TestKindForContentType(t *testing.T) {
	assert.Equal(t, KindImage, KindForContentType("image/png"))
	assert.Equal(t, KindImage, KindForContentType("image/webp"))
	assert.Equal(t, KindDocument, KindForContentType("application/pdf"))
	assert.Equal(t, KindDocument, KindForContentType("text/plain"))
	// Unknown types classify as document so its allow-list rejects them.
	assert.Equal(t, KindDocument, KindForContentType("application/zip"))
}
