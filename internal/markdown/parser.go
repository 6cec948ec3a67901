// Package markdown renders the two flavors of markdown Lootbay
// stores: seller-authored listing descriptions and the help-center
// articles shipped with the binary. Raw HTML in the source is escaped,
// which is what keeps seller input safe to render.
package markdown

import (
	"bytes"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldmarkhtml "github.com/yuin/goldmark/renderer/html"
	"go.abhg.dev/goldmark/frontmatter"
)

type Parser struct {
	md goldmark.Markdown
}

func NewParser() *Parser {
	return &Parser{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
				extension.Footnote,
				extension.Typographer,
				&frontmatter.Extender{},
			),
			goldmark.WithParserOptions(
				parser.WithAutoHeadingID(),
			),
			goldmark.WithRendererOptions(
				goldmarkhtml.WithHardWraps(),
				goldmarkhtml.WithXHTML(),
			),
		),
	}
}

// Parse renders a listing description to HTML.
func (p *Parser) Parse(source []byte) ([]byte, error) {
	var buf bytes.Buffer
	if err := p.md.Convert(source, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ParseWithFrontmatter renders a help article and returns its
// frontmatter fields (title, description, category, order) alongside
// the HTML body. Articles without frontmatter, or with frontmatter
// that does not decode, yield an empty meta map rather than an error
// so a single malformed article cannot take the help center down.
func (p *Parser) ParseWithFrontmatter(source []byte) (content []byte, meta map[string]any, err error) {
	ctx := parser.NewContext()
	var buf bytes.Buffer

	if err := p.md.Convert(source, &buf, parser.WithContext(ctx)); err != nil {
		return nil, nil, err
	}

	meta = map[string]any{}
	if data := frontmatter.Get(ctx); data != nil {
		if err := data.Decode(&meta); err != nil {
			meta = map[string]any{}
		}
	}
	return buf.Bytes(), meta, nil
}
