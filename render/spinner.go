package render

import "time"

// SpinnerStyle selects a spinner animation.
type SpinnerStyle int

const (
	// SpinnerBraille uses smooth braille dot animation
	SpinnerBraille SpinnerStyle = iota
	// SpinnerPulse uses a pulsing bar animation
	SpinnerPulse
)

var spinnerFrames = map[SpinnerStyle][]string{
	SpinnerBraille: {"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"},
	SpinnerPulse: {
		"[      ]", "[=     ]", "[==    ]", "[===   ]", "[====  ]", "[===== ]",
		"[======]", "[ =====]", "[  ====]", "[   ===]", "[    ==]", "[     =]",
	},
}

// Spinner is a frame-based busy indicator for the status line.
type Spinner struct {
	frames   []string
	frame    int
	lastTick time.Time
	interval time.Duration
}

// NewSpinner creates a new spinner with the given style.
func NewSpinner(style SpinnerStyle) *Spinner {
	frames, ok := spinnerFrames[style]
	if !ok {
		frames = []string{"|", "/", "-", "\\"}
	}
	return &Spinner{frames: frames, lastTick: time.Now(), interval: 80 * time.Millisecond}
}

// Tick advances the animation if enough time has passed.
// Returns true if the frame changed.
func (s *Spinner) Tick() bool {
	now := time.Now()
	if now.Sub(s.lastTick) < s.interval {
		return false
	}
	s.frame++
	s.lastTick = now
	return true
}

// Reset rewinds to the first frame.
func (s *Spinner) Reset() {
	s.frame = 0
	s.lastTick = time.Now()
}

// Frame returns the current animation frame.
func (s *Spinner) Frame() string {
	return s.frames[s.frame%len(s.frames)]
}
