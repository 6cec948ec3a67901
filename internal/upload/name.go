package upload

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// GenerateFileName produces a collision-resistant object name from an
// original filename. The original's base name is discarded; only the
// extension survives, lowercased. Files without an extension get
// ".file" so the name still round-trips through extension-based type
// detection.
func GenerateFileName(original string) string {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(original), "."))
	if ext == "" {
		ext = "file"
	}

	buf := make([]byte, 8)
	_, _ = rand.Read(buf)

	return fmt.Sprintf("%d-%s.%s", time.Now().UnixNano(), hex.EncodeToString(buf), ext)
}
