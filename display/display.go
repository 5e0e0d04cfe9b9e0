// Package display holds the page the reader is showing and draws it: the
// chapter text in a scrollable viewport, a status bar and a toolbar.
//
// The page is kept as a goquery document so that the content region can be
// swapped in place the way a browser swaps a DOM sub-tree.
package display

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/andybalholm/cascadia"

	"pageahead/document"
	"pageahead/gesture"
	"pageahead/html"
	"pageahead/render"
)

// ErrNoContentRegion is returned when the page or the new markup has no
// element matching the content selector.
var ErrNoContentRegion = errors.New("display: no content region")

// Options configures a Terminal.
type Options struct {
	ContentSelector string
	TitleSelector   string
	ShowStatus      bool
	Layout          document.Options
	// Surface names the toolbar in the activations it produces.
	Surface string
}

// DefaultOptions matches Legado chapter markup.
func DefaultOptions() Options {
	return Options{
		ContentSelector: "div[chapterindex]",
		TitleSelector:   "div.title",
		ShowStatus:      true,
		Layout:          document.DefaultOptions(),
		Surface:         "toolbar",
	}
}

// Toolbar control labels, left to right.
var Toolbar = []string{"‹ Prev", "Help", "Next ›"}

type button struct {
	x0, x1 int // [x0, x1)
}

// Terminal is a display drawing to a terminal-sized canvas. All methods are
// safe for concurrent use; every change redraws.
type Terminal struct {
	mu       sync.Mutex
	out      io.Writer
	opts     Options
	content  cascadia.Selector
	titleSel cascadia.Selector

	page    *goquery.Document
	region  *goquery.Selection
	tree    *html.Node
	heading string
	title   string
	scroll  int
	status  string

	overlay       *html.Node
	overlayScroll int

	canvas      *render.Canvas
	pageView    *document.Renderer
	overlayView *document.Renderer
	buttons     []button
}

// New creates a display of the given size writing frames to out.
func New(out io.Writer, width, height int, opts Options) (*Terminal, error) {
	content, err := cascadia.Compile(opts.ContentSelector)
	if err != nil {
		return nil, fmt.Errorf("content selector %q: %w", opts.ContentSelector, err)
	}
	titleSel, err := cascadia.Compile(opts.TitleSelector)
	if err != nil {
		return nil, fmt.Errorf("title selector %q: %w", opts.TitleSelector, err)
	}

	t := &Terminal{out: out, opts: opts, content: content, titleSel: titleSel}
	t.canvas = render.NewCanvas(width, height)
	t.pageView = document.NewRenderer(t.canvas, opts.Layout)
	t.overlayView = document.NewRenderer(t.canvas, opts.Layout)
	t.layoutLocked()
	return t, nil
}

// Show replaces the whole page with rawPage. A page without a content region
// is shown from its body.
func (t *Terminal) Show(rawPage string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawPage))
	if err != nil {
		return fmt.Errorf("parsing page: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	t.page = doc
	t.region = doc.FindMatcher(t.content).First()
	t.scroll = 0
	t.rebuildLocked()
	t.title = t.heading
	t.drawLocked()
	return nil
}

// ReplaceContent swaps the inner structure of the current content region for
// that of the first content region in rawMarkup, scrolls to the top and
// returns the new heading text.
func (t *Terminal) ReplaceContent(rawMarkup string) (string, error) {
	src, err := goquery.NewDocumentFromReader(strings.NewReader(rawMarkup))
	if err != nil {
		return "", fmt.Errorf("parsing content: %w", err)
	}
	incoming := src.FindMatcher(t.content).First()
	if incoming.Length() == 0 {
		return "", fmt.Errorf("%w in fetched markup", ErrNoContentRegion)
	}
	inner, err := incoming.Html()
	if err != nil {
		return "", fmt.Errorf("serialising content: %w", err)
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.region == nil || t.region.Length() == 0 {
		return "", fmt.Errorf("%w on the current page", ErrNoContentRegion)
	}
	t.region.SetHtml(inner)
	t.scroll = 0
	t.rebuildLocked()
	t.drawLocked()
	return t.heading, nil
}

// SetTitle sets the session title shown in the status bar.
func (t *Terminal) SetTitle(title string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.title = strings.TrimSpace(title)
	t.drawLocked()
}

// SetStatus sets the transient message shown in the status bar.
func (t *Terminal) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if status == t.status {
		return
	}
	t.status = status
	t.drawLocked()
}

// HasContentRegion reports whether the current page has a content region.
func (t *Terminal) HasContentRegion() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.region != nil && t.region.Length() > 0
}

// Heading returns the heading of the current content.
func (t *Terminal) Heading() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.heading
}

// Title returns the session title.
func (t *Terminal) Title() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.title
}

// ScrollOffset returns the first visible row of the page.
func (t *Terminal) ScrollOffset() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.scroll
}

// Scroll moves the page (or the overlay when one is open) by delta rows.
func (t *Terminal) Scroll(delta int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.overlay != nil {
		t.overlayScroll = clamp(t.overlayScroll+delta, 0, t.overlayView.MaxScroll())
	} else {
		t.scroll = clamp(t.scroll+delta, 0, t.pageView.MaxScroll())
	}
	t.drawLocked()
}

// PageDown scrolls by one viewport, keeping a line of context.
func (t *Terminal) PageDown() {
	t.mu.Lock()
	step := max(t.pageView.ViewportHeight()-1, 1)
	t.mu.Unlock()
	t.Scroll(step)
}

// ShowOverlay draws rawPage over the page until CloseOverlay. The page
// underneath keeps receiving content changes.
func (t *Terminal) ShowOverlay(rawPage string) error {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawPage))
	if err != nil {
		return fmt.Errorf("parsing overlay: %w", err)
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overlay = treeOf(doc.Selection)
	t.overlayScroll = 0
	t.overlayView.Layout(t.overlay)
	t.drawLocked()
	return nil
}

// CloseOverlay returns to the page.
func (t *Terminal) CloseOverlay() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.overlay = nil
	t.drawLocked()
}

// Resize adapts to a new terminal size.
func (t *Terminal) Resize(width, height int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.canvas.Resize(width, height)
	t.layoutLocked()
	t.scroll = clamp(t.scroll, 0, t.pageView.MaxScroll())
	t.overlayScroll = clamp(t.overlayScroll, 0, t.overlayView.MaxScroll())
	t.drawLocked()
}

// Redraw writes the current frame again.
func (t *Terminal) Redraw() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.drawLocked()
}

// ToolbarAt maps a click at (x, y) to a toolbar activation, or nil when the
// click is not on a control.
func (t *Terminal) ToolbarAt(x, y int) *gesture.Activation {
	t.mu.Lock()
	defer t.mu.Unlock()
	if y != t.canvas.Height()-1 {
		return nil
	}
	for i, b := range t.buttons {
		if x >= b.x0 && x < b.x1 {
			return &gesture.Activation{Surface: t.opts.Surface, Controls: Toolbar, Index: i}
		}
	}
	return nil
}

// Snapshot returns the current frame as plain text.
func (t *Terminal) Snapshot() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.canvas.PlainText()
}

// Chapter parses a page and returns the render tree of its content region
// and the heading, for printing without a terminal.
func Chapter(rawPage string, opts Options) (*html.Node, string, error) {
	content, err := cascadia.Compile(opts.ContentSelector)
	if err != nil {
		return nil, "", fmt.Errorf("content selector %q: %w", opts.ContentSelector, err)
	}
	titleSel, err := cascadia.Compile(opts.TitleSelector)
	if err != nil {
		return nil, "", fmt.Errorf("title selector %q: %w", opts.TitleSelector, err)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawPage))
	if err != nil {
		return nil, "", fmt.Errorf("parsing page: %w", err)
	}
	region := doc.FindMatcher(content).First()
	if region.Length() == 0 {
		return nil, "", ErrNoContentRegion
	}
	heading := strings.TrimSpace(region.FindMatcher(titleSel).First().Text())
	return treeOf(region), heading, nil
}

// rebuildLocked refreshes the render tree and heading from the page.
func (t *Terminal) rebuildLocked() {
	t.heading = ""
	switch {
	case t.region.Length() > 0:
		t.tree = treeOf(t.region)
		t.heading = strings.TrimSpace(t.region.FindMatcher(t.titleSel).First().Text())
	default:
		t.tree = treeOf(t.page.Selection)
		t.heading = strings.TrimSpace(t.page.Find("title").First().Text())
	}
	t.pageView.Layout(t.tree)
}

// treeOf builds a render tree from a region, or from the body of a document.
func treeOf(s *goquery.Selection) *html.Node {
	if body := s.Find("body"); body.Length() > 0 {
		s = body
	}
	if s.Length() == 0 {
		return html.FromNode(nil, html.DefaultOptions())
	}
	return html.FromNode(s.Nodes[0], html.DefaultOptions())
}

func (t *Terminal) layoutLocked() {
	reserved := 1 // toolbar
	if t.opts.ShowStatus {
		reserved++
	}
	height := max(t.canvas.Height()-reserved, 0)
	t.pageView.SetViewport(0, height)
	t.overlayView.SetViewport(0, height)
	t.pageView.Layout(t.tree)
	t.overlayView.Layout(t.overlay)
}

func (t *Terminal) drawLocked() {
	t.canvas.Clear()

	if t.overlay != nil {
		t.overlayView.Render(t.overlayScroll)
	} else {
		t.pageView.Render(t.scroll)
	}

	h := t.canvas.Height()
	if t.opts.ShowStatus && h >= 2 {
		t.drawStatusLocked(h - 2)
	}
	if h >= 1 {
		t.drawToolbarLocked(h - 1)
	}

	if t.out != nil {
		t.canvas.RenderTo(t.out)
	}
}

func (t *Terminal) drawStatusLocked(y int) {
	style := render.Style{Reverse: true}
	t.canvas.FillRow(y, style)

	left := " " + t.title
	right := t.status
	if right == "" && t.overlay == nil {
		if m := t.pageView.MaxScroll(); m > 0 {
			right = fmt.Sprintf("%d%%", t.scroll*100/m)
		}
	}
	right += " "

	w := t.canvas.Width()
	rw := render.StringWidth(right)
	t.canvas.WriteString(0, y, render.Truncate(left, max(w-rw-1, 0)), style)
	t.canvas.WriteString(max(w-rw, 0), y, right, style)
}

func (t *Terminal) drawToolbarLocked(y int) {
	labels := make([]string, len(Toolbar))
	total := 0
	for i, l := range Toolbar {
		labels[i] = "[" + l + "]"
		total += render.StringWidth(labels[i])
	}
	total += len(labels) - 1

	x := max((t.canvas.Width()-total)/2, 0)
	t.buttons = t.buttons[:0]
	for _, l := range labels {
		n := t.canvas.WriteString(x, y, l, render.Style{Bold: true})
		t.buttons = append(t.buttons, button{x0: x, x1: x + n})
		x += n + 1
	}
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
