package readahead

import (
	"pageahead/logging"
	"pageahead/session"
)

// Prefetch speculatively fetches target into the slot. It does nothing and
// returns false while another operation is in flight or before discovery.
// The fetch runs in the background; the in-flight flag is cleared when it
// settles, whether it succeeded or not.
func (c *Coordinator) Prefetch(target int) bool {
	s := c.session
	s.mu.Lock()
	if s.inFlight || s.position.BaseResource == "" || s.position.CurrentIndex < 0 || target < 0 {
		s.mu.Unlock()
		return false
	}
	s.inFlight = true
	base := s.position.BaseResource
	s.mu.Unlock()

	c.spawn(func() {
		defer s.release()
		c.speculate(base, target)
	})
	return true
}

// speculate fetches target into the slot. The caller holds the in-flight flag.
func (c *Coordinator) speculate(base string, target int) {
	c.logger.Info("prefetch: fetching next unit", "index", target)

	content, err := c.fetcher.FetchContentUnit(c.ctx, base, target)

	s := c.session
	s.mu.Lock()
	if err != nil {
		s.slot = emptySlot()
	} else {
		s.slot = slot{index: target, content: content}
	}
	s.mu.Unlock()

	if err != nil {
		c.logger.Error("prefetch: failed", "index", target, "err", err)
		return
	}
	c.logger.Log(c.ctx, logging.LevelSuccess, "prefetch: stored", "index", target)
}

// ConsumeIfMatch returns the slot content and empties the slot when it holds
// target. Any other target is a miss and leaves the slot as it is.
func (c *Coordinator) ConsumeIfMatch(target int) (string, bool) {
	s := c.session
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.consumeLocked(target)
}

func (s *Session) consumeLocked(target int) (string, bool) {
	if s.slot.index == session.Unset || s.slot.index != target {
		return "", false
	}
	content := s.slot.content
	s.slot = emptySlot()
	return content, true
}
