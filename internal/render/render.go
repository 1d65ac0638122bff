// Package render converts stored Markdown pages into sanitized HTML and
// turns [[wiki links]] into hyperlinks.
package render

import (
	"bytes"
	"html"
	"io"
	"regexp"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

// DefaultHighlightStyle is the chroma style used when none is configured.
const DefaultHighlightStyle = "github"

// Config holds renderer settings.
type Config struct {
	HighlightStyle string
}

// Renderer is an immutable Markdown pipeline. It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
	style  string
}

// New builds a Renderer from cfg.
func New(cfg Config) *Renderer {
	style := cfg.HighlightStyle
	if style == "" {
		style = DefaultHighlightStyle
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.Table,
			extension.Strikethrough,
			extension.Linkify,
			extension.Footnote,
			Superscript,
			Highlight,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(chromahtml.WithClasses(true)),
			),
			&linkAttributes{},
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
		),
		goldmark.WithRendererOptions(
			// Raw HTML is omitted unless WithUnsafe is set.
			goldhtml.WithHardWraps(),
		),
	)

	return &Renderer{md: md, policy: newPolicy(), style: style}
}

func newPolicy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowAttrs("class").Globally()
	p.AllowAttrs("target").Matching(regexp.MustCompile(`^_blank$`)).OnElements("a")
	p.AllowElements("sup", "mark", "del")
	return p
}

// Render converts Markdown source into HTML. It never fails: if conversion
// errors the escaped source is returned as preformatted text.
func (r *Renderer) Render(src []byte) string {
	var buf bytes.Buffer
	if err := r.md.Convert(src, &buf); err != nil {
		return "<pre>" + html.EscapeString(string(src)) + "</pre>"
	}
	return RewriteWikiLinks(r.policy.Sanitize(buf.String()))
}

// WriteHighlightCSS writes the stylesheet for highlighted code blocks.
func (r *Renderer) WriteHighlightCSS(w io.Writer) error {
	return chromahtml.New(chromahtml.WithClasses(true)).WriteCSS(w, styles.Get(r.style))
}
