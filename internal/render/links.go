package render

import (
	"html"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"

	"github.com/starford/tinywiki/internal/pathkey"
)

var wikiLinkRe = regexp.MustCompile(`\[\[(.*?)\]\]`)

// RewriteWikiLinks replaces every [[label]] token in the text of rendered
// HTML with an anchor to the page the label names. Markup inside tags,
// attribute values included, is left as is, as are tokens with a blank label
// and unterminated tokens.
func RewriteWikiLinks(doc string) string {
	var b strings.Builder
	b.Grow(len(doc))
	for doc != "" {
		lt := strings.IndexByte(doc, '<')
		if lt < 0 {
			b.WriteString(rewriteText(doc))
			break
		}
		b.WriteString(rewriteText(doc[:lt]))
		gt := strings.IndexByte(doc[lt:], '>')
		if gt < 0 {
			b.WriteString(doc[lt:])
			break
		}
		b.WriteString(doc[lt : lt+gt+1])
		doc = doc[lt+gt+1:]
	}
	return b.String()
}

func rewriteText(text string) string {
	return wikiLinkRe.ReplaceAllStringFunc(text, func(tok string) string {
		label := strings.TrimSpace(tok[2 : len(tok)-2])
		if label == "" {
			return tok
		}
		// label is already HTML-escaped by the converter; the href is built
		// from the text it displays.
		href := pathkey.LinkHref(html.UnescapeString(label))
		return `<a href="` + html.EscapeString(href) + `">` + label + `</a>`
	})
}

// linkAttributes sets rel and target on every Markdown link and autolink.
type linkAttributes struct{}

func (e *linkAttributes) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithASTTransformers(
		util.Prioritized(e, 100),
	))
}

func (e *linkAttributes) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch n.(type) {
		case *ast.Link, *ast.AutoLink:
			n.SetAttributeString("rel", []byte("nofollow"))
			n.SetAttributeString("target", []byte("_blank"))
		}
		return ast.WalkContinue, nil
	})
}
