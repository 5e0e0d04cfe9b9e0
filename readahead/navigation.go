package readahead

import (
	"pageahead/logging"
)

// Advance moves to the next unit. A slot hit renders immediately and starts
// the next prefetch; a miss loads the unit and chains one prefetch after it.
// Nothing happens while another operation is in flight.
func (c *Coordinator) Advance() {
	s := c.session
	s.mu.Lock()
	if !s.position.Known() {
		s.mu.Unlock()
		c.logger.Debug("navigation: advance before discovery ignored")
		return
	}
	if s.inFlight {
		s.mu.Unlock()
		c.logger.Debug("navigation: busy, advance dropped")
		return
	}

	base := s.position.BaseResource
	next := s.position.CurrentIndex + 1
	s.inFlight = true

	if content, ok := s.consumeLocked(next); ok {
		s.position.CurrentIndex = next
		pos := s.position
		s.mu.Unlock()

		c.logger.Log(c.ctx, logging.LevelHijack, "cache hit: rendering without network", "index", next)
		c.render(content, next)
		c.moved(pos)
		c.spawn(func() {
			defer s.release()
			c.speculate(base, next+1)
		})
		return
	}
	s.mu.Unlock()

	c.logger.Log(c.ctx, logging.LevelHijack, "cache miss: loading", "index", next)
	c.spawn(func() {
		defer s.release()
		if c.load(base, next) {
			c.speculate(base, next+1)
		}
	})
}

// Retreat loads the previous unit. There is no backward cache, and the slot
// is left alone. At the first unit Retreat does nothing.
func (c *Coordinator) Retreat() {
	s := c.session
	s.mu.Lock()
	if !s.position.Known() {
		s.mu.Unlock()
		c.logger.Debug("navigation: retreat before discovery ignored")
		return
	}
	target := s.position.CurrentIndex - 1
	if target < 0 {
		s.mu.Unlock()
		return
	}
	if s.inFlight {
		s.mu.Unlock()
		c.logger.Debug("navigation: busy, retreat dropped")
		return
	}
	base := s.position.BaseResource
	s.inFlight = true
	s.mu.Unlock()

	c.spawn(func() {
		defer s.release()
		c.load(base, target)
	})
}

// load fetches target and renders it. The caller holds the in-flight flag.
// On failure the current index is left unchanged.
func (c *Coordinator) load(base string, target int) bool {
	c.logger.Info("load: fetching unit", "index", target)

	content, err := c.fetcher.FetchContentUnit(c.ctx, base, target)
	if err != nil {
		c.logger.Error("load: failed", "index", target, "err", err)
		return false
	}

	s := c.session
	s.mu.Lock()
	s.position.CurrentIndex = target
	pos := s.position
	s.mu.Unlock()

	c.render(content, target)
	c.moved(pos)
	return true
}
