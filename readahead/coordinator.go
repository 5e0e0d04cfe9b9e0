// Package readahead speeds up sequential reading by keeping the next content
// unit in a single speculative slot and serving navigation from it.
//
// A Coordinator learns the book being read from the host's first content
// request (ObserveOutboundRequest), then answers Advance and Retreat
// gestures. At most one network operation issued by the coordinator is in
// flight at any time; gestures that arrive meanwhile are dropped.
package readahead

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"pageahead/logging"
	"pageahead/session"
)

// Fetcher loads one content unit.
type Fetcher interface {
	FetchContentUnit(ctx context.Context, baseResource string, index int) (string, error)
}

// Display shows content. ReplaceContent swaps the visible content region for
// the matching region of rawMarkup and returns the region's heading text.
type Display interface {
	ReplaceContent(rawMarkup string) (heading string, err error)
	SetTitle(title string)
}

// Coordinator owns a Session and drives the Fetcher and Display for it.
type Coordinator struct {
	session  *Session
	endpoint session.Endpoint
	fetcher  Fetcher
	display  Display
	logger   *slog.Logger
	ctx      context.Context
	onMove   func(session.Position)

	wg sync.WaitGroup
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = l }
}

// WithContext sets the context passed to every fetch.
func WithContext(ctx context.Context) Option {
	return func(c *Coordinator) { c.ctx = ctx }
}

// OnMove registers a callback run after the addressing state changes.
func OnMove(fn func(session.Position)) Option {
	return func(c *Coordinator) { c.onMove = fn }
}

// New creates a coordinator for content requests shaped like endpoint.
func New(endpoint session.Endpoint, f Fetcher, d Display, opts ...Option) *Coordinator {
	c := &Coordinator{
		session:  NewSession(),
		endpoint: endpoint,
		fetcher:  f,
		display:  d,
		logger:   logging.Discard(),
		ctx:      context.Background(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session returns the session state.
func (c *Coordinator) Session() *Session {
	return c.session
}

// Position returns a copy of the addressing state.
func (c *Coordinator) Position() session.Position {
	return c.session.Position()
}

// Wait blocks until every fetch started so far has settled.
func (c *Coordinator) Wait() {
	c.wg.Wait()
}

// ObserveOutboundRequest inspects one request address made by the host. The
// first address that parses as a content request commits the base resource
// and index and starts a prefetch of the following unit. Later calls do
// nothing. It runs on the host's request path, so the move callback and the
// prefetch both happen in the background.
func (c *Coordinator) ObserveOutboundRequest(address string) {
	s := c.session
	s.mu.Lock()
	discovered := s.position.BaseResource != ""
	s.mu.Unlock()
	if discovered {
		return
	}

	base, index, ok := c.endpoint.Parse(address)
	if !ok {
		return
	}

	s.mu.Lock()
	if s.position.BaseResource != "" {
		s.mu.Unlock()
		return
	}
	s.position.BaseResource = base
	s.position.CurrentIndex = index
	pos := s.position
	// Nothing can hold the flag before discovery: every operation that
	// takes it needs a base resource.
	s.inFlight = true
	s.mu.Unlock()

	c.logger.Info("interceptor: captured initial request", "index", index)
	c.logger.Log(c.ctx, logging.LevelSuccess, "state: session initialised", "base", base)
	c.spawn(func() {
		defer s.release()
		c.moved(pos)
		c.speculate(base, index+1)
	})
}

func (c *Coordinator) spawn(fn func()) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		fn()
	}()
}

func (c *Coordinator) render(content string, index int) {
	heading, err := c.display.ReplaceContent(content)
	if err != nil {
		c.logger.Warn("render: content not replaced", "index", index, "err", err)
		return
	}
	if title := strings.TrimSpace(heading); title != "" {
		c.display.SetTitle(title)
	}
	c.logger.Log(c.ctx, logging.LevelSuccess, "render: content displayed", "index", index)
}

func (c *Coordinator) moved(pos session.Position) {
	if c.onMove != nil {
		c.onMove(pos)
	}
}
