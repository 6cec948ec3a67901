package markdown

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEscapesRawHTML(t *testing.T) {
	p := NewParser()

	html, err := p.Parse([]byte("Great item <script>alert(1)</script> **cheap**"))
	require.NoError(t, err)

	assert.NotContains(t, string(html), "<script>")
	assert.Contains(t, string(html), "<strong>cheap</strong>")
}

func TestParseRendersGFM(t *testing.T) {
	p := NewParser()

	html, err := p.Parse([]byte("- includes source files\n- ~~old price~~ new price"))
	require.NoError(t, err)

	assert.Contains(t, string(html), "<li>")
	assert.Contains(t, string(html), "<del>old price</del>")
}

func TestParseWithFrontmatter(t *testing.T) {
	p := NewParser()

	source := []byte(`---
title: Getting Started
category: basics
order: 1
---

# Welcome

Buy and sell digital goods.
`)

	html, meta, err := p.ParseWithFrontmatter(source)
	require.NoError(t, err)

	assert.Equal(t, "Getting Started", meta["title"])
	assert.Equal(t, "basics", meta["category"])
	assert.Contains(t, string(html), "Buy and sell digital goods.")
	assert.NotContains(t, string(html), "title:", "frontmatter should not leak into the body")
}

func TestParseWithFrontmatterMissingBlock(t *testing.T) {
	p := NewParser()

	html, meta, err := p.ParseWithFrontmatter([]byte("just a body"))
	require.NoError(t, err)

	assert.Empty(t, meta)
	assert.Contains(t, string(html), "just a body")
}
