// Package document lays out a chapter's render tree and draws it onto a
// canvas viewport.
package document

import (
	"strings"
	"unicode"

	"pageahead/html"
	"pageahead/render"
)

// Options controls the layout.
type Options struct {
	// MaxContentWidth caps the text column in cells. Zero uses the canvas width.
	MaxContentWidth int
	// Justify spreads wrapped paragraph lines to the full column.
	Justify bool
}

// DefaultOptions returns a justified 80-cell column.
func DefaultOptions() Options {
	return Options{MaxContentWidth: 80, Justify: true}
}

type textSpan struct {
	Text  string
	Style render.Style
}

// line is one laid-out row; x is relative to the left margin.
type line struct {
	x     int
	spans []textSpan
}

// Renderer converts a chapter tree to canvas output.
type Renderer struct {
	canvas       *render.Canvas
	opts         Options
	contentWidth int
	leftMargin   int
	top, height  int
	lines        []line
}

// NewRenderer creates a renderer drawing into the whole canvas.
func NewRenderer(c *render.Canvas, opts Options) *Renderer {
	r := &Renderer{canvas: c, opts: opts}
	r.SetViewport(0, c.Height())
	return r
}

// SetViewport restricts drawing to rows [top, top+height) and recomputes the
// column from the current canvas width. Call Layout again afterwards.
func (r *Renderer) SetViewport(top, height int) {
	r.top, r.height = top, height

	canvasWidth := r.canvas.Width()
	contentWidth := canvasWidth - 4 // minimal margins
	if r.opts.MaxContentWidth > 0 && contentWidth > r.opts.MaxContentWidth {
		contentWidth = r.opts.MaxContentWidth
	}
	if contentWidth < 10 {
		contentWidth = max(canvasWidth, 1)
	}
	r.contentWidth = contentWidth
	r.leftMargin = (canvasWidth - contentWidth) / 2
}

// ContentWidth returns the width of the text column.
func (r *Renderer) ContentWidth() int { return r.contentWidth }

// ViewportHeight returns the number of rows Render draws.
func (r *Renderer) ViewportHeight() int { return r.height }

// Layout wraps doc into lines and returns the total height in rows.
func (r *Renderer) Layout(doc *html.Node) int {
	r.lines = nil
	if doc != nil {
		for _, child := range doc.Children {
			r.layoutNode(child)
		}
	}
	// Drop the trailing blank separator
	for len(r.lines) > 0 && len(r.lines[len(r.lines)-1].spans) == 0 {
		r.lines = r.lines[:len(r.lines)-1]
	}
	return len(r.lines)
}

// ContentHeight returns the height of the last layout.
func (r *Renderer) ContentHeight() int { return len(r.lines) }

// MaxScroll is the largest useful scroll offset for the last layout.
func (r *Renderer) MaxScroll() int {
	return max(len(r.lines)-r.height, 0)
}

// Render draws the laid-out lines starting at scrollY into the viewport.
// Rows outside the viewport are left untouched.
func (r *Renderer) Render(scrollY int) {
	for row := 0; row < r.height; row++ {
		y := r.top + row
		r.canvas.DrawHLine(0, y, r.canvas.Width(), ' ', render.Style{})

		i := scrollY + row
		if i < 0 || i >= len(r.lines) {
			continue
		}
		x := r.leftMargin + r.lines[i].x
		for _, span := range r.lines[i].spans {
			x += r.canvas.WriteString(x, y, span.Text, span.Style)
		}
	}
}

// PlainLines returns the laid-out text without styling, for print mode.
func (r *Renderer) PlainLines() []string {
	out := make([]string, len(r.lines))
	for i, l := range r.lines {
		var sb strings.Builder
		sb.WriteString(strings.Repeat(" ", l.x))
		for _, span := range l.spans {
			sb.WriteString(span.Text)
		}
		out[i] = strings.TrimRight(sb.String(), " ")
	}
	return out
}

func (r *Renderer) emit(x int, spans ...textSpan) {
	r.lines = append(r.lines, line{x: x, spans: spans})
}

func (r *Renderer) blank() {
	r.emit(0)
}

func (r *Renderer) layoutNode(n *html.Node) {
	switch n.Type {
	case html.NodeTitle:
		r.layoutTitle(n.Text)
	case html.NodeHeading:
		for _, l := range render.WrapText(n.Text, r.contentWidth) {
			r.emit(0, textSpan{Text: l, Style: render.Style{Bold: true}})
		}
		r.blank()
	case html.NodeParagraph:
		r.layoutSpans(0, extractSpans(n, render.Style{}), r.contentWidth, r.opts.Justify)
		r.blank()
	case html.NodeBlockquote:
		r.layoutBlockquote(n)
	case html.NodeList:
		r.layoutList(n)
	}
}

func (r *Renderer) layoutTitle(text string) {
	bold := render.Style{Bold: true}
	wrapped := render.WrapText(text, r.contentWidth)
	widest := 0
	for _, l := range wrapped {
		w := render.StringWidth(l)
		widest = max(widest, w)
		r.emit((r.contentWidth-w)/2, textSpan{Text: l, Style: bold})
	}
	rule := strings.Repeat(string(render.Rule), widest)
	r.emit((r.contentWidth-widest)/2, textSpan{Text: rule, Style: render.Style{Dim: true}})
	r.blank()
}

func (r *Renderer) layoutSpans(x int, spans []textSpan, width int, justify bool) {
	for _, l := range wrapSpans(spans, width, justify) {
		r.emit(x, l...)
	}
}

func (r *Renderer) layoutBlockquote(n *html.Node) {
	dim := render.Style{Dim: true}
	bar := textSpan{Text: "│   ", Style: dim}
	for _, child := range n.Children {
		text := child.PlainText()
		for _, l := range render.WrapText(text, r.contentWidth-4) {
			r.emit(0, bar, textSpan{Text: l, Style: dim})
		}
	}
	r.blank()
}

func (r *Renderer) layoutList(n *html.Node) {
	for _, item := range n.Children {
		lines := wrapSpans(extractSpans(item, render.Style{}), r.contentWidth-2, false)
		for i, l := range lines {
			if i == 0 {
				r.emit(0, append([]textSpan{{Text: "• "}}, l...)...)
				continue
			}
			r.emit(2, l...)
		}
	}
	r.blank()
}

func extractSpans(n *html.Node, style render.Style) []textSpan {
	var spans []textSpan
	for _, child := range n.Children {
		switch child.Type {
		case html.NodeText:
			if child.Text != "" {
				spans = append(spans, textSpan{Text: child.Text, Style: style})
			}
		case html.NodeStrong:
			s := style
			s.Bold = true
			spans = append(spans, extractSpans(child, s)...)
		case html.NodeEmphasis:
			s := style
			s.Underline = true
			spans = append(spans, extractSpans(child, s)...)
		default:
			spans = append(spans, extractSpans(child, style)...)
		}
	}
	return spans
}

// wrapSpans wraps the concatenated span text and maps each wrapped rune back
// to its source style. Spaces that do not match the source are padding added
// by justification and stay unstyled.
func wrapSpans(spans []textSpan, width int, justify bool) [][]textSpan {
	var full strings.Builder
	var styles []render.Style
	for _, span := range spans {
		for _, ch := range span.Text {
			full.WriteRune(ch)
			styles = append(styles, span.Style)
		}
	}

	var wrapped []string
	if justify {
		wrapped = render.WrapAndJustify(full.String(), width)
	} else {
		wrapped = render.WrapText(full.String(), width)
	}

	src := []rune(full.String())
	pos := 0
	result := make([][]textSpan, 0, len(wrapped))

	for _, l := range wrapped {
		var out []textSpan
		push := func(ch rune, style render.Style) {
			if n := len(out); n > 0 && out[n-1].Style == style {
				out[n-1].Text += string(ch)
				return
			}
			out = append(out, textSpan{Text: string(ch), Style: style})
		}

		for _, ch := range l {
			// Skip source whitespace the wrapper collapsed
			for pos < len(src) && src[pos] != ch && unicode.IsSpace(src[pos]) {
				pos++
			}
			if pos < len(src) && src[pos] == ch {
				push(ch, styles[pos])
				pos++
				continue
			}
			push(ch, render.Style{})
		}
		result = append(result, out)
	}
	return result
}
