package chunker

import (
	"strings"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// SplitMarkdown cuts markdown content at headings so chunks follow the
// document's own structure, then windows any section still larger than
// the chunk size. The heading stays at the top of its section so every
// chunk keeps its context. Chunk offsets are rune positions into the
// flattened plain-text rendition, sections joined by blank lines, not
// into the raw markdown. Content with no headings falls through to
// plain windowed splitting of the raw content.
func (c *Chunker) SplitMarkdown(content string) []Chunk {
	src := []byte(content)
	doc := goldmark.New().Parser().Parse(text.NewReader(src))

	var sections []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sections = append(sections, s)
		}
		current.Reset()
	}

	for node := doc.FirstChild(); node != nil; node = node.NextSibling() {
		if _, ok := node.(*ast.Heading); ok {
			flush()
		}
		block := blockText(node, src)
		if block == "" {
			continue
		}
		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(block)
	}
	flush()

	if len(sections) == 0 {
		return c.Split(content)
	}

	var chunks []Chunk
	base := 0
	for _, section := range sections {
		for _, chunk := range c.Split(section) {
			chunk.Start += base
			chunk.End += base
			chunks = append(chunks, chunk)
		}
		base += utf8.RuneCountInString(section) + 2
	}
	return chunks
}

// blockText renders a top-level block node as plain text, joining nested
// blocks (list items, quotes) with newlines.
func blockText(node ast.Node, src []byte) string {
	var sb strings.Builder
	_ = ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := n.(type) {
		case *ast.Text:
			sb.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				sb.WriteByte('\n')
			}
		case *ast.String:
			sb.Write(t.Value)
		case *ast.ListItem, *ast.Paragraph, *ast.TextBlock:
			if sb.Len() > 0 && !strings.HasSuffix(sb.String(), "\n") {
				sb.WriteByte('\n')
			}
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(sb.String())
}
