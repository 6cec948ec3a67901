package upload

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateFileName(t *testing.T) {
	t.Run("keeps extension lowercased", func(t *testing.T) {
		name := GenerateFileName("Holiday Photo.JPG")
		assert.True(t, strings.HasSuffix(name, ".jpg"), "got %q", name)
		assert.NotContains(t, name, "Holiday")
	})

	t.Run("missing extension falls back to file", func(t *testing.T) {
		name := GenerateFileName("README")
		assert.True(t, strings.HasSuffix(name, ".file"), "got %q", name)
	})

	t.Run("names do not collide", func(t *testing.T) {
		seen := make(map[string]bool)
		for i := 0; i < 100; i++ {
			name := GenerateFileName("a.png")
			require.False(t, seen[name], "duplicate name %q", name)
			seen[name] = true
		}
	})
}
