package gesture

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"pageahead/logging"
)

// Intent is a normalised navigation gesture.
type Intent int

const (
	IntentNone Intent = iota
	IntentAdvance
	IntentRetreat
)

func (i Intent) String() string {
	switch i {
	case IntentAdvance:
		return "advance"
	case IntentRetreat:
		return "retreat"
	}
	return "none"
}

// Navigator receives intents.
type Navigator interface {
	Advance()
	Retreat()
}

// Locator reports the host's current location marker.
type Locator interface {
	Location() string
}

// Binding is a key the interceptor listens for.
type Binding struct {
	Key  Key
	Rune rune
}

// ParseBinding accepts a named key (left, right, up, down, enter) or a
// single character, control characters included.
func ParseBinding(s string) (Binding, error) {
	for k, name := range keyNames {
		if strings.EqualFold(s, name) {
			return Binding{Key: k}, nil
		}
	}
	if utf8.RuneCountInString(s) != 1 {
		return Binding{}, fmt.Errorf("invalid key binding %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r < 32 || r == 127 {
		return Binding{Key: KeyCtrl, Rune: r}, nil
	}
	return Binding{Key: KeyRune, Rune: r}, nil
}

// Matches reports whether e is this key.
func (b Binding) Matches(e *Event) bool {
	if b.Key == KeyNone || e.Key != b.Key {
		return false
	}
	if b.Key == KeyRune || b.Key == KeyCtrl {
		return e.Rune == b.Rune
	}
	return true
}

// InterceptorOptions configures an Interceptor.
type InterceptorOptions struct {
	ContextMarker  string // substring of the location that enables interception
	ControlSurface string // name of the recognised control surface
	Advance        Binding
	Retreat        Binding
}

// DefaultInterceptorOptions maps the arrow keys and the "toolbar" surface,
// active while the location mentions "chapter".
func DefaultInterceptorOptions() InterceptorOptions {
	return InterceptorOptions{
		ContextMarker:  "chapter",
		ControlSurface: "toolbar",
		Advance:        Binding{Key: KeyRight},
		Retreat:        Binding{Key: KeyLeft},
	}
}

// Interceptor is a capture-priority Handler that turns navigation gestures
// into Navigator calls and keeps the host from seeing them.
type Interceptor struct {
	nav    Navigator
	loc    Locator
	opts   InterceptorOptions
	logger *slog.Logger
}

// NewInterceptor creates an interceptor. A nil logger discards output.
func NewInterceptor(nav Navigator, loc Locator, opts InterceptorOptions, logger *slog.Logger) *Interceptor {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Interceptor{nav: nav, loc: loc, opts: opts, logger: logger}
}

// Classify maps an event to an intent without side effects. Of the controls
// on the recognised surface the first one retreats and the last advances.
func (i *Interceptor) Classify(e *Event) Intent {
	switch {
	case i.opts.Advance.Matches(e):
		return IntentAdvance
	case i.opts.Retreat.Matches(e):
		return IntentRetreat
	}

	c := e.Control
	if c == nil || c.Surface != i.opts.ControlSurface || len(c.Controls) == 0 {
		return IntentNone
	}
	switch c.Index {
	case 0:
		return IntentRetreat
	case len(c.Controls) - 1:
		return IntentAdvance
	}
	return IntentNone
}

// Active reports whether the host is in the content context.
func (i *Interceptor) Active() bool {
	return strings.Contains(i.loc.Location(), i.opts.ContextMarker)
}

func (i *Interceptor) HandleEvent(e *Event) {
	if !i.Active() {
		return
	}
	intent := i.Classify(e)
	if intent == IntentNone {
		return
	}

	e.PreventDefault()
	e.StopPropagation()
	i.logger.Log(context.Background(), logging.LevelHijack, "hijack: navigation intercepted", "intent", intent.String())

	switch intent {
	case IntentAdvance:
		i.nav.Advance()
	case IntentRetreat:
		i.nav.Retreat()
	}
}
