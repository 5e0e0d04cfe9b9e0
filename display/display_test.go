package display

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func page(index int, title string, paragraphs ...string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, `<html><head><title>Reader</title></head><body><nav>menu</nav><div chapterindex="%d"><div class="title">%s</div>`, index, title)
	for _, p := range paragraphs {
		fmt.Fprintf(&sb, "<p>%s</p>", p)
	}
	sb.WriteString(`</div></body></html>`)
	return sb.String()
}

func newTerminal(t *testing.T, w, h int) (*Terminal, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	d, err := New(&out, w, h, DefaultOptions())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return d, &out
}

func TestShowAndReplaceContent(t *testing.T) {
	d, out := newTerminal(t, 60, 12)

	if d.HasContentRegion() {
		t.Fatal("no page shown yet")
	}
	if err := d.Show(page(3, "Chapter 3", "old text")); err != nil {
		t.Fatal(err)
	}
	if !d.HasContentRegion() || d.Heading() != "Chapter 3" || d.Title() != "Chapter 3" {
		t.Fatalf("unexpected state after Show: heading %q title %q", d.Heading(), d.Title())
	}

	out.Reset()
	heading, err := d.ReplaceContent(page(4, "  Chapter 4  ", "new text"))
	if err != nil {
		t.Fatalf("ReplaceContent: %v", err)
	}
	if heading != "Chapter 4" {
		t.Errorf("expected trimmed heading, got %q", heading)
	}
	if out.Len() == 0 {
		t.Error("ReplaceContent should redraw")
	}

	snap := d.Snapshot()
	if !strings.Contains(snap, "new text") || strings.Contains(snap, "old text") {
		t.Errorf("content not swapped:\n%s", snap)
	}
	if strings.Contains(snap, "menu") {
		t.Error("only the content region should be drawn")
	}
	// SetTitle is a separate step
	if d.Title() != "Chapter 3" {
		t.Errorf("ReplaceContent must not change the title, got %q", d.Title())
	}
	d.SetTitle("  Chapter 4 ")
	if d.Title() != "Chapter 4" {
		t.Errorf("SetTitle should trim, got %q", d.Title())
	}
}

func TestReplaceContentResetsScroll(t *testing.T) {
	d, _ := newTerminal(t, 40, 6)
	var long []string
	for i := 0; i < 30; i++ {
		long = append(long, fmt.Sprintf("paragraph %d", i))
	}
	d.Show(page(1, "One", long...))

	d.Scroll(10)
	if d.ScrollOffset() != 10 {
		t.Fatalf("expected offset 10, got %d", d.ScrollOffset())
	}
	if _, err := d.ReplaceContent(page(2, "Two", long...)); err != nil {
		t.Fatal(err)
	}
	if d.ScrollOffset() != 0 {
		t.Errorf("expected scroll reset to 0, got %d", d.ScrollOffset())
	}
}

func TestScrollClamps(t *testing.T) {
	d, _ := newTerminal(t, 40, 6)
	d.Show(page(1, "One", "a", "b", "c", "d", "e"))

	d.Scroll(-5)
	if d.ScrollOffset() != 0 {
		t.Errorf("scrolled above the top: %d", d.ScrollOffset())
	}
	d.Scroll(1000)
	// title + rule + blank + 5 paragraphs with separators = 12 rows, 4 visible
	if got := d.ScrollOffset(); got != 8 {
		t.Errorf("expected clamp at 8, got %d", got)
	}
}

func TestReplaceContentErrors(t *testing.T) {
	d, _ := newTerminal(t, 40, 8)

	if _, err := d.ReplaceContent(page(1, "One", "x")); !errors.Is(err, ErrNoContentRegion) {
		t.Errorf("expected ErrNoContentRegion before any page, got %v", err)
	}

	d.Show(`<html><body><h1>Welcome</h1></body></html>`)
	if d.HasContentRegion() {
		t.Error("landing page has no content region")
	}
	if _, err := d.ReplaceContent(page(1, "One", "x")); !errors.Is(err, ErrNoContentRegion) {
		t.Errorf("expected ErrNoContentRegion on a page without one, got %v", err)
	}

	d.Show(page(1, "One", "kept"))
	if _, err := d.ReplaceContent(`<html><body><p>error page</p></body></html>`); !errors.Is(err, ErrNoContentRegion) {
		t.Errorf("expected ErrNoContentRegion for markup without one, got %v", err)
	}
	if !strings.Contains(d.Snapshot(), "kept") {
		t.Error("a failed replace must leave the page alone")
	}
}

func TestToolbarAt(t *testing.T) {
	d, _ := newTerminal(t, 40, 10)
	d.Show(page(1, "One", "x"))

	snap := strings.Split(strings.TrimRight(d.Snapshot(), "\n"), "\n")
	bar := snap[len(snap)-1]
	if !strings.Contains(bar, "[‹ Prev] [Help] [Next ›]") {
		t.Fatalf("toolbar not drawn: %q", bar)
	}

	var hits []int
	for x := 0; x < 40; x++ {
		if a := d.ToolbarAt(x, 9); a != nil {
			if a.Surface != "toolbar" || len(a.Controls) != 3 {
				t.Fatalf("bad activation %+v", a)
			}
			if len(hits) == 0 || hits[len(hits)-1] != a.Index {
				hits = append(hits, a.Index)
			}
		}
	}
	if fmt.Sprint(hits) != "[0 1 2]" {
		t.Errorf("expected controls 0,1,2 left to right, got %v", hits)
	}
	if d.ToolbarAt(20, 3) != nil {
		t.Error("clicks off the toolbar row must not activate")
	}
}

func TestOverlay(t *testing.T) {
	d, _ := newTerminal(t, 40, 10)
	d.Show(page(1, "One", "chapter body"))

	d.ShowOverlay(`<html><body><h2>Keys</h2><ul><li>q quit</li></ul></body></html>`)
	if snap := d.Snapshot(); !strings.Contains(snap, "q quit") || strings.Contains(snap, "chapter body") {
		t.Errorf("overlay not drawn over the page:\n%s", snap)
	}

	// The page underneath still takes content
	if _, err := d.ReplaceContent(page(2, "Two", "second body")); err != nil {
		t.Fatal(err)
	}
	d.CloseOverlay()
	if snap := d.Snapshot(); !strings.Contains(snap, "second body") {
		t.Errorf("expected the replaced page after closing the overlay:\n%s", snap)
	}
}

func TestStatusBar(t *testing.T) {
	d, _ := newTerminal(t, 40, 10)
	d.Show(page(1, "One", "x"))
	d.SetStatus("loading")

	lines := strings.Split(strings.TrimRight(d.Snapshot(), "\n"), "\n")
	status := lines[len(lines)-2]
	if !strings.HasPrefix(status, " One") || !strings.HasSuffix(status, "loading") {
		t.Errorf("unexpected status bar %q", status)
	}
}

func TestConcurrentUse(t *testing.T) {
	d, _ := newTerminal(t, 40, 10)
	d.Show(page(0, "Zero", "x"))

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			d.ReplaceContent(page(i, fmt.Sprintf("Ch %d", i), "body"))
			d.Scroll(1)
			d.ToolbarAt(i, 9)
		}(i)
	}
	wg.Wait()
	if !d.HasContentRegion() {
		t.Error("content region lost under concurrent replaces")
	}
}

func TestChapter(t *testing.T) {
	tree, heading, err := Chapter(page(7, "Seven", "alpha", "beta"), DefaultOptions())
	if err != nil {
		t.Fatal(err)
	}
	if heading != "Seven" {
		t.Errorf("heading: got %q", heading)
	}
	if got := tree.PlainText(); got != "Sevenalphabeta" {
		t.Errorf("tree text: got %q", got)
	}

	if _, _, err := Chapter("<p>nothing</p>", DefaultOptions()); !errors.Is(err, ErrNoContentRegion) {
		t.Errorf("expected ErrNoContentRegion, got %v", err)
	}
}

func TestNewRejectsBadSelector(t *testing.T) {
	opts := DefaultOptions()
	opts.ContentSelector = "div["
	if _, err := New(nil, 10, 10, opts); err == nil {
		t.Error("expected a selector error")
	}
}
