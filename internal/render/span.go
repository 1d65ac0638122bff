package render

import (
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var (
	// KindSuperscript is the node kind of ^text^ spans.
	KindSuperscript = ast.NewNodeKind("Superscript")
	// KindHighlight is the node kind of ==text== spans.
	KindHighlight = ast.NewNodeKind("Highlight")
)

// Superscript renders ^text^ as <sup>text</sup>.
var Superscript goldmark.Extender = &spanExtension{char: '^', length: 1, kind: KindSuperscript, tag: "sup"}

// Highlight renders ==text== as <mark>text</mark>.
var Highlight goldmark.Extender = &spanExtension{char: '=', length: 2, kind: KindHighlight, tag: "mark"}

// Span is an inline node wrapping text between a pair of delimiters.
type Span struct {
	ast.BaseInline
	kind ast.NodeKind
}

// Kind implements ast.Node.
func (n *Span) Kind() ast.NodeKind { return n.kind }

// Dump implements ast.Node.
func (n *Span) Dump(source []byte, level int) {
	ast.DumpHelper(n, source, level, nil, nil)
}

// spanExtension is a delimiter-run inline syntax: exactly length copies of
// char open and close the span.
type spanExtension struct {
	char   byte
	length int
	kind   ast.NodeKind
	tag    string
}

func (e *spanExtension) Extend(m goldmark.Markdown) {
	m.Parser().AddOptions(parser.WithInlineParsers(
		util.Prioritized(&spanParser{e}, 500),
	))
	m.Renderer().AddOptions(renderer.WithNodeRenderers(
		util.Prioritized(&spanRenderer{e}, 500),
	))
}

type spanParser struct {
	*spanExtension
}

func (p *spanParser) Trigger() []byte { return []byte{p.char} }

func (p *spanParser) IsDelimiter(b byte) bool { return b == p.char }

func (p *spanParser) CanOpenCloser(opener, closer *parser.Delimiter) bool {
	return opener.Char == closer.Char
}

func (p *spanParser) OnMatch(consumes int) ast.Node {
	return &Span{kind: p.kind}
}

func (p *spanParser) Parse(parent ast.Node, block text.Reader, pc parser.Context) ast.Node {
	before := block.PrecendingCharacter()
	line, segment := block.PeekLine()
	node := parser.ScanDelimiter(line, before, p.length, p)
	if node == nil || node.OriginalLength != p.length || before == rune(p.char) {
		return nil
	}
	node.Segment = segment.WithStop(segment.Start + node.OriginalLength)
	block.Advance(node.OriginalLength)
	pc.PushDelimiter(node)
	return node
}

type spanRenderer struct {
	*spanExtension
}

func (r *spanRenderer) RegisterFuncs(reg renderer.NodeRendererFuncRegisterer) {
	reg.Register(r.kind, r.render)
}

func (r *spanRenderer) render(w util.BufWriter, _ []byte, _ ast.Node, entering bool) (ast.WalkStatus, error) {
	if entering {
		_, _ = w.WriteString("<" + r.tag + ">")
	} else {
		_, _ = w.WriteString("</" + r.tag + ">")
	}
	return ast.WalkContinue, nil
}
