package textproc

import (
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var markdown = goldmark.New()

// PlainText parses markdown and returns only its prose. Code blocks,
// raw HTML and link targets are dropped; headings, paragraphs and list
// items each become a sentence so the chunker pauses between them.
func PlainText(md string) string {
	src := []byte(md)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	walkProse(doc, src, &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func walkProse(n ast.Node, src []byte, b *strings.Builder) {
	switch n := n.(type) {
	case *ast.CodeBlock, *ast.FencedCodeBlock, *ast.HTMLBlock, *ast.RawHTML, *ast.ThematicBreak:
		return

	case *ast.Text:
		b.Write(n.Segment.Value(src))
		if n.SoftLineBreak() || n.HardLineBreak() {
			b.WriteByte(' ')
		}
		return

	case *ast.String:
		b.Write(n.Value)
		return

	case *ast.AutoLink:
		b.Write(n.Label(src))
		return

	case *ast.Heading, *ast.Paragraph, *ast.ListItem:
		// list items hold paragraphs or text blocks of their own
		walkChildren(n, src, b)
		endSentence(b)
		return
	}
	walkChildren(n, src, b)
	if n.Kind() == ast.KindTextBlock {
		endSentence(b)
	}
}

func walkChildren(n ast.Node, src []byte, b *strings.Builder) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		walkProse(c, src, b)
	}
}

// endSentence terminates the text written so far unless it already ends
// in punctuation.
func endSentence(b *strings.Builder) {
	s := strings.TrimRight(b.String(), " ")
	if s == "" {
		return
	}
	switch s[len(s)-1] {
	case '.', '!', '?', ':', ';':
		b.WriteByte(' ')
	default:
		b.Reset()
		b.WriteString(s)
		b.WriteString(". ")
	}
}
