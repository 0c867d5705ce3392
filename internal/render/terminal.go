// ABOUTME: Renders assistant markdown as styled terminal text
// ABOUTME: Walks the goldmark AST and styles blocks with fatih/color

package render

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	east "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// Terminal converts markdown into text for a terminal. Output is plain when
// color.NoColor is set.
type Terminal struct {
	md goldmark.Markdown

	heading *color.Color
	code    *color.Color
	quote   *color.Color
	link    *color.Color
	bold    *color.Color
	italic  *color.Color
	strike  *color.Color
	rule    *color.Color
}

// NewTerminal creates a terminal renderer.
func NewTerminal() *Terminal {
	return &Terminal{
		md:      goldmark.New(goldmark.WithExtensions(extension.GFM)),
		heading: color.New(color.FgCyan, color.Bold),
		code:    color.New(color.FgYellow),
		quote:   color.New(color.Faint, color.Italic),
		link:    color.New(color.FgBlue, color.Underline),
		bold:    color.New(color.Bold),
		italic:  color.New(color.Italic),
		strike:  color.New(color.CrossedOut),
		rule:    color.New(color.Faint),
	}
}

// Render converts src to terminal text. Trailing newlines are trimmed.
func (t *Terminal) Render(src string) string {
	source := []byte(src)
	doc := t.md.Parser().Parse(text.NewReader(source))

	w := &termWriter{t: t, source: source}
	w.blocks(doc, "")
	return strings.TrimRight(w.buf.String(), "\n")
}

type termWriter struct {
	t      *Terminal
	source []byte
	buf    bytes.Buffer
}

// blocks renders each child block of n, separated by blank lines.
func (w *termWriter) blocks(n ast.Node, prefix string) {
	first := true
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if !first {
			w.buf.WriteString(strings.TrimRight(prefix, " "))
			w.buf.WriteString("\n")
		}
		first = false
		w.block(c, prefix)
	}
}

func (w *termWriter) block(n ast.Node, prefix string) {
	switch n := n.(type) {
	case *ast.Heading:
		line := strings.Repeat("#", n.Level) + " " + w.inlines(n)
		w.writeLines(prefix, w.t.heading.Sprint(line))

	case *ast.Paragraph, *ast.TextBlock:
		w.writeLines(prefix, w.inlines(n))

	case *ast.FencedCodeBlock:
		lang := string(n.Language(w.source))
		w.writeLines(prefix, w.t.rule.Sprint("```"+lang))
		w.codeLines(n, prefix)
		w.writeLines(prefix, w.t.rule.Sprint("```"))

	case *ast.CodeBlock:
		w.codeLines(n, prefix+"    ")

	case *ast.Blockquote:
		var inner termWriter
		inner.t, inner.source = w.t, w.source
		inner.blocks(n, "")
		quoted := strings.TrimRight(inner.buf.String(), "\n")
		w.writeLines(prefix+w.t.quote.Sprint("│ "), w.t.quote.Sprint(quoted))

	case *ast.List:
		w.list(n, prefix)

	case *ast.ThematicBreak:
		w.writeLines(prefix, w.t.rule.Sprint(strings.Repeat("─", 24)))

	case *ast.HTMLBlock:
		lines := n.Lines()
		for i := range lines.Len() {
			seg := lines.At(i)
			w.buf.WriteString(prefix)
			w.buf.Write(bytes.TrimRight(seg.Value(w.source), "\n"))
			w.buf.WriteString("\n")
		}

	case *east.Table:
		w.table(n, prefix)

	default:
		if n.Type() == ast.TypeBlock && n.HasChildren() {
			w.blocks(n, prefix)
		}
	}
}

func (w *termWriter) list(n *ast.List, prefix string) {
	num := n.Start
	if num == 0 {
		num = 1
	}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		if !n.IsTight && item != n.FirstChild() {
			w.buf.WriteString(strings.TrimRight(prefix, " "))
			w.buf.WriteString("\n")
		}
		marker := "• "
		if n.IsOrdered() {
			marker = strconv.Itoa(num) + ". "
			num++
		}

		var inner termWriter
		inner.t, inner.source = w.t, w.source
		if n.IsTight {
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				inner.block(c, "")
			}
		} else {
			inner.blocks(item, "")
		}

		indent := strings.Repeat(" ", len([]rune(marker)))
		body := strings.Split(strings.TrimRight(inner.buf.String(), "\n"), "\n")
		for i, line := range body {
			w.buf.WriteString(prefix)
			if i == 0 {
				w.buf.WriteString(marker)
			} else if line != "" {
				w.buf.WriteString(indent)
			}
			w.buf.WriteString(line)
			w.buf.WriteString("\n")
		}
	}
}

func (w *termWriter) table(n *east.Table, prefix string) {
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, w.inlines(cell))
		}
		line := "| " + strings.Join(cells, " | ") + " |"
		if _, ok := row.(*east.TableHeader); ok {
			w.writeLines(prefix, w.t.bold.Sprint(line))
			continue
		}
		w.writeLines(prefix, line)
	}
}

func (w *termWriter) codeLines(n ast.Node, prefix string) {
	lines := n.Lines()
	for i := range lines.Len() {
		seg := lines.At(i)
		w.buf.WriteString(prefix)
		w.buf.WriteString(w.t.code.Sprint(strings.TrimRight(string(seg.Value(w.source)), "\n")))
		w.buf.WriteString("\n")
	}
}

// writeLines writes s with prefix at the start of every line.
func (w *termWriter) writeLines(prefix, s string) {
	for line := range strings.SplitSeq(s, "\n") {
		w.buf.WriteString(prefix)
		w.buf.WriteString(line)
		w.buf.WriteString("\n")
	}
}

// inlines renders the inline children of n.
func (w *termWriter) inlines(n ast.Node) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		sb.WriteString(w.inline(c))
	}
	return sb.String()
}

func (w *termWriter) inline(n ast.Node) string {
	switch n := n.(type) {
	case *ast.Text:
		s := string(n.Segment.Value(w.source))
		if n.SoftLineBreak() || n.HardLineBreak() {
			s += "\n"
		}
		return s
	case *ast.String:
		return string(n.Value)
	case *ast.CodeSpan:
		return w.t.code.Sprint(w.plain(n))
	case *ast.Emphasis:
		if n.Level >= 2 {
			return w.t.bold.Sprint(w.inlines(n))
		}
		return w.t.italic.Sprint(w.inlines(n))
	case *ast.Link:
		label := w.inlines(n)
		dest := string(n.Destination)
		if label == dest || dest == "" {
			return w.t.link.Sprint(label)
		}
		return w.t.link.Sprint(label) + " (" + dest + ")"
	case *ast.AutoLink:
		return w.t.link.Sprint(string(n.URL(w.source)))
	case *ast.Image:
		return "[image: " + w.inlines(n) + "] (" + string(n.Destination) + ")"
	case *ast.RawHTML:
		var sb strings.Builder
		for i := range n.Segments.Len() {
			seg := n.Segments.At(i)
			sb.Write(seg.Value(w.source))
		}
		return sb.String()
	case *east.Strikethrough:
		return w.t.strike.Sprint(w.inlines(n))
	case *east.TaskCheckBox:
		if n.IsChecked {
			return "[x] "
		}
		return "[ ] "
	default:
		return w.inlines(n)
	}
}

// plain returns the raw text of n's descendants without styling.
func (w *termWriter) plain(n ast.Node) string {
	var sb strings.Builder
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		if t, ok := c.(*ast.Text); ok {
			sb.Write(t.Segment.Value(w.source))
			continue
		}
		sb.WriteString(w.plain(c))
	}
	return sb.String()
}
