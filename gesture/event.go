// Package gesture turns raw terminal input into events, dispatches them
// through a prioritized handler pipeline, and intercepts navigation
// gestures ahead of the host's own handlers.
package gesture

import "sort"

// Key identifies a decoded key.
type Key int

const (
	KeyNone Key = iota
	KeyRune
	KeyLeft
	KeyRight
	KeyUp
	KeyDown
	KeyEnter
	KeyEscape
	KeyCtrl
)

var keyNames = map[Key]string{
	KeyLeft:   "left",
	KeyRight:  "right",
	KeyUp:     "up",
	KeyDown:   "down",
	KeyEnter:  "enter",
	KeyEscape: "escape",
}

func (k Key) String() string {
	if name, ok := keyNames[k]; ok {
		return name
	}
	return "key"
}

// Mouse is a button press at a terminal cell (0-based).
type Mouse struct {
	X, Y   int
	Button int
}

// Activation is a press on one control of a control surface.
type Activation struct {
	Surface  string
	Controls []string // labels, in display order
	Index    int      // which control was pressed
}

// Event is one unit of user input travelling through a Pipeline.
type Event struct {
	Key   Key
	Rune  rune
	Mouse *Mouse
	// Control is set by the host when a mouse press lands on a control.
	Control *Activation

	defaultPrevented bool
	stopped          bool
}

// PreventDefault tells the host not to run its own behaviour for the event.
func (e *Event) PreventDefault() { e.defaultPrevented = true }

// StopPropagation stops the event reaching lower-priority handlers.
func (e *Event) StopPropagation() { e.stopped = true }

// DefaultPrevented reports whether PreventDefault was called.
func (e *Event) DefaultPrevented() bool { return e.defaultPrevented }

// PropagationStopped reports whether StopPropagation was called.
func (e *Event) PropagationStopped() bool { return e.stopped }

// Handler receives events.
type Handler interface {
	HandleEvent(e *Event)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(e *Event)

func (f HandlerFunc) HandleEvent(e *Event) { f(e) }

// Priorities for Register. Higher runs first.
const (
	PriorityCapture = 100
	PriorityHost    = 0
)

type entry struct {
	priority int
	handler  Handler
}

// Pipeline dispatches events to handlers in priority order. Handlers with
// equal priority run in registration order.
type Pipeline struct {
	entries []entry
}

// Register adds a handler at the given priority.
func (p *Pipeline) Register(priority int, h Handler) {
	p.entries = append(p.entries, entry{priority: priority, handler: h})
	sort.SliceStable(p.entries, func(i, j int) bool {
		return p.entries[i].priority > p.entries[j].priority
	})
}

// Dispatch delivers e to each handler until one stops propagation.
func (p *Pipeline) Dispatch(e *Event) {
	for _, en := range p.entries {
		en.handler.HandleEvent(e)
		if e.stopped {
			return
		}
	}
}
