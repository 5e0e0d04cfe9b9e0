package readahead

import (
	"sync"

	"pageahead/session"
)

// slot is the single read-ahead entry. index is session.Unset when empty.
type slot struct {
	index   int
	content string
}

func emptySlot() slot { return slot{index: session.Unset} }

// Session is the mutable state of one reading session. Each field has one
// writer:
//
//	position.BaseResource  discovery, once
//	position.CurrentIndex  discovery once, then navigation
//	slot                   prefetch (store/reset) and ConsumeIfMatch (reset)
//	inFlight               every network-issuing operation
type Session struct {
	mu       sync.Mutex
	position session.Position
	slot     slot
	inFlight bool
}

// NewSession returns an undiscovered session with an empty slot.
func NewSession() *Session {
	return &Session{position: session.Empty(), slot: emptySlot()}
}

// Position returns a copy of the addressing state.
func (s *Session) Position() session.Position {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.position
}

// Busy reports whether a network operation is in flight.
func (s *Session) Busy() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inFlight
}

// SlotIndex returns the index held in the read-ahead slot, or session.Unset.
func (s *Session) SlotIndex() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.slot.index
}

// release clears the in-flight flag.
func (s *Session) release() {
	s.mu.Lock()
	s.inFlight = false
	s.mu.Unlock()
}
