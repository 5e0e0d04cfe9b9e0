// Package viewer is the reading application itself: it requests chapter
// pages from the reading service, shows them, and handles the reader's own
// keys and toolbar. It knows nothing about read-ahead; anything that wants to
// watch its traffic does so through the observed HTTP client it is given.
package viewer

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"pageahead/fetcher"
	"pageahead/gesture"
	"pageahead/logging"
	"pageahead/observer"
	"pageahead/session"
)

// Location markers.
const (
	LocationHome    = "#/"
	LocationHelp    = "#/help"
	locationChapter = "#/chapter/"
)

// ChapterLocation returns the location marker for a chapter.
func ChapterLocation(index int) string {
	return locationChapter + strconv.Itoa(index)
}

// Screen is what the viewer draws on.
type Screen interface {
	Show(rawPage string) error
	ShowOverlay(rawPage string) error
	CloseOverlay()
	Scroll(delta int)
	PageDown()
	SetStatus(status string)
	ToolbarAt(x, y int) *gesture.Activation
}

// Keys are the viewer's own bindings.
type Keys struct {
	Quit       gesture.Binding
	Advance    gesture.Binding
	Retreat    gesture.Binding
	ScrollDown gesture.Binding
	ScrollUp   gesture.Binding
	PageDown   gesture.Binding
	Reload     gesture.Binding
	Help       gesture.Binding
}

// DefaultKeys returns the stock bindings.
func DefaultKeys() Keys {
	return Keys{
		Quit:       gesture.Binding{Key: gesture.KeyRune, Rune: 'q'},
		Advance:    gesture.Binding{Key: gesture.KeyRight},
		Retreat:    gesture.Binding{Key: gesture.KeyLeft},
		ScrollDown: gesture.Binding{Key: gesture.KeyRune, Rune: 'j'},
		ScrollUp:   gesture.Binding{Key: gesture.KeyRune, Rune: 'k'},
		PageDown:   gesture.Binding{Key: gesture.KeyRune, Rune: ' '},
		Reload:     gesture.Binding{Key: gesture.KeyRune, Rune: 'r'},
		Help:       gesture.Binding{Key: gesture.KeyRune, Rune: '?'},
	}
}

// Viewer is the host reader.
type Viewer struct {
	client   *observer.Client
	endpoint session.Endpoint
	screen   Screen
	keys     Keys
	logger   *slog.Logger
	ctx      context.Context

	mu       sync.Mutex
	book     string
	index    int
	location string
	helpOpen bool
	quit     bool

	wg sync.WaitGroup
}

// New creates a viewer. A nil logger discards output.
func New(client *observer.Client, endpoint session.Endpoint, screen Screen, keys Keys, logger *slog.Logger) *Viewer {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Viewer{
		client:   client,
		endpoint: endpoint,
		screen:   screen,
		keys:     keys,
		logger:   logger,
		ctx:      context.Background(),
		index:    session.Unset,
		location: LocationHome,
	}
}

// WithContext sets the context of every request the viewer makes.
func (v *Viewer) WithContext(ctx context.Context) *Viewer {
	v.ctx = ctx
	return v
}

// Location returns the current location marker.
func (v *Viewer) Location() string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.location
}

// Position returns the chapter the viewer itself last opened.
func (v *Viewer) Position() (book string, index int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.book, v.index
}

// Quitting reports whether the quit key has been pressed.
func (v *Viewer) Quitting() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.quit
}

// Wait blocks until every chapter request the viewer started has been shown
// or has failed.
func (v *Viewer) Wait() {
	v.wg.Wait()
}

// Open requests a chapter and shows it when it arrives. It returns as soon
// as the request is sent.
func (v *Viewer) Open(book string, index int) error {
	if book == "" || index < 0 {
		return fmt.Errorf("open: invalid position %q/%d", book, index)
	}
	req, err := v.newRequest(book, index)
	if err != nil {
		return err
	}

	v.screen.SetStatus("loading…")
	results := v.client.Go(req)

	v.wg.Add(1)
	go func() {
		defer v.wg.Done()
		r := <-results
		v.finish(book, index, r.Response, r.Err)
	}()
	return nil
}

// Reload requests the current chapter again and waits for it.
func (v *Viewer) Reload() error {
	book, index := v.Position()
	if book == "" {
		return errors.New("reload: nothing open")
	}
	req, err := v.newRequest(book, index)
	if err != nil {
		return err
	}
	v.screen.SetStatus("reloading…")
	resp, err := v.client.Do(req)
	return v.finish(book, index, resp, err)
}

func (v *Viewer) newRequest(book string, index int) (*http.Request, error) {
	req, err := http.NewRequestWithContext(v.ctx, http.MethodGet, v.endpoint.Address(book, index), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	return req, nil
}

func (v *Viewer) finish(book string, index int, resp *http.Response, err error) error {
	if err == nil {
		err = v.show(resp)
	}
	if err != nil {
		v.logger.Error("chapter load failed", "index", index, "error", err)
		v.screen.SetStatus("load failed")
		return err
	}

	v.mu.Lock()
	v.book, v.index = book, index
	if !v.helpOpen {
		v.location = ChapterLocation(index)
	}
	v.mu.Unlock()

	v.screen.SetStatus("")
	v.logger.Debug("chapter shown", "index", index)
	return nil
}

func (v *Viewer) show(resp *http.Response) error {
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		io.Copy(io.Discard, resp.Body)
		return &fetcher.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading chapter: %w", err)
	}
	return v.screen.Show(string(body))
}

// HandleEvent is the viewer's own input handling. Register it below any
// handler that should see events first.
func (v *Viewer) HandleEvent(e *gesture.Event) {
	if e.DefaultPrevented() {
		return
	}
	if e.Control != nil {
		v.activate(e.Control)
		return
	}

	k := v.keys
	switch {
	case k.Quit.Matches(e):
		v.mu.Lock()
		v.quit = true
		v.mu.Unlock()
	case k.Help.Matches(e):
		v.toggleHelp()
	case e.Key == gesture.KeyEscape:
		v.closeHelp()
	case k.ScrollDown.Matches(e), e.Key == gesture.KeyDown:
		v.screen.Scroll(1)
	case k.ScrollUp.Matches(e), e.Key == gesture.KeyUp:
		v.screen.Scroll(-1)
	case k.PageDown.Matches(e):
		v.screen.PageDown()
	case k.Reload.Matches(e):
		if err := v.Reload(); err != nil {
			v.logger.Warn("reload failed", "error", err)
		}
	case k.Advance.Matches(e):
		v.step(1)
	case k.Retreat.Matches(e):
		v.step(-1)
	}
}

// hitTest attaches the toolbar control under a mouse press, so that every
// handler in the pipeline sees the same target.
func (v *Viewer) hitTest(e *gesture.Event) {
	if e.Mouse != nil && e.Control == nil {
		e.Control = v.screen.ToolbarAt(e.Mouse.X, e.Mouse.Y)
	}
}

func (v *Viewer) activate(a *gesture.Activation) {
	switch a.Index {
	case 0:
		v.step(-1)
	case 1:
		v.toggleHelp()
	case 2:
		v.step(1)
	}
}

// step is the viewer's own chapter navigation: a fresh request each time.
func (v *Viewer) step(delta int) {
	v.mu.Lock()
	book, index, help := v.book, v.index, v.helpOpen
	v.mu.Unlock()

	if help || book == "" || index+delta < 0 {
		return
	}
	if err := v.Open(book, index+delta); err != nil {
		v.logger.Warn("navigation failed", "error", err)
	}
}

func (v *Viewer) toggleHelp() {
	v.mu.Lock()
	open := v.helpOpen
	v.mu.Unlock()
	if open {
		v.closeHelp()
		return
	}

	if err := v.screen.ShowOverlay(v.helpPage()); err != nil {
		v.logger.Warn("help unavailable", "error", err)
		return
	}
	v.mu.Lock()
	v.helpOpen = true
	v.location = LocationHelp
	v.mu.Unlock()
}

func (v *Viewer) closeHelp() {
	v.mu.Lock()
	if !v.helpOpen {
		v.mu.Unlock()
		return
	}
	v.helpOpen = false
	v.location = LocationHome
	if v.index != session.Unset {
		v.location = ChapterLocation(v.index)
	}
	v.mu.Unlock()
	v.screen.CloseOverlay()
}

type helpRow struct {
	key  gesture.Binding
	what string
}

func (v *Viewer) helpPage() string {
	k := v.keys
	rows := []helpRow{
		{k.Advance, "next chapter"},
		{k.Retreat, "previous chapter"},
		{k.ScrollDown, "scroll down"},
		{k.ScrollUp, "scroll up"},
		{k.PageDown, "page down"},
		{k.Reload, "reload chapter"},
		{k.Help, "toggle this help"},
		{k.Quit, "quit"},
	}
	var sb strings.Builder
	sb.WriteString("<html><head><title>Help</title></head><body><h2>Keys</h2><ul>")
	for _, r := range rows {
		fmt.Fprintf(&sb, "<li><b>%s</b> %s</li>", html.EscapeString(bindingLabel(r.key)), r.what)
	}
	sb.WriteString("</ul><p>Click the toolbar buttons to move between chapters.</p></body></html>")
	return sb.String()
}

func bindingLabel(b gesture.Binding) string {
	switch b.Key {
	case gesture.KeyRune:
		if b.Rune == ' ' {
			return "space"
		}
		return string(b.Rune)
	case gesture.KeyCtrl:
		return "ctrl-" + string(rune('a'-1+b.Rune))
	}
	return b.Key.String()
}
