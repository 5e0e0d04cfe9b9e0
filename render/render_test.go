package render

import (
	"strings"
	"testing"
	"time"
)

func TestWrapText(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		width    int
		expected []string
	}{
		{"no wrap needed", "hello world", 20, []string{"hello world"}},
		{"simple wrap", "hello world foo bar", 11, []string{"hello world", "foo bar"}},
		{"multiple lines", "one two three four five six", 10, []string{"one two", "three four", "five six"}},
		{"preserves newlines", "first\n\nsecond", 20, []string{"first", "", "second"}},
		{"long word breaks", "supercalifragilisticexpialidocious", 10, []string{"supercalif", "ragilistic", "expialidoc", "ious"}},
		{"broken tail keeps line open", "abcdefghijkl mn", 10, []string{"abcdefghij", "kl mn"}},
		{"cjk breaks by cell", "第一章開始了", 6, []string{"第一章", "開始了"}},
		{"cjk odd width", "第一章開始", 5, []string{"第一", "章開", "始"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := WrapText(tt.text, tt.width)
			if len(result) != len(tt.expected) {
				t.Errorf("got %d lines, expected %d lines\ngot: %v\nexpected: %v",
					len(result), len(tt.expected), result, tt.expected)
				return
			}
			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("line %d: got %q, expected %q", i, line, tt.expected[i])
				}
			}
		})
	}
}

func TestJustifyLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		width    int
		expected string
	}{
		{"two words", "hello world", 13, "hello   world"},
		{"gaps too wide stay ragged", "hello world", 20, "hello world         "},
		{"three words even", "one two three", 16, "one   two  three"},
		{"single word stays left", "hello", 10, "hello     "},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := JustifyLine(tt.line, tt.width)
			if result != tt.expected {
				t.Errorf("got %q (len=%d), expected %q (len=%d)",
					result, len(result), tt.expected, len(tt.expected))
			}
		})
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		width    int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello world", 8, "hello..."},
		{"hi", 2, "hi"},
		{"hello", 3, "hel"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			result := Truncate(tt.input, tt.width)
			if result != tt.expected {
				t.Errorf("Truncate(%q, %d) = %q, expected %q",
					tt.input, tt.width, result, tt.expected)
			}
		})
	}
}

func TestWrapAndJustify(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog"
	lines := WrapAndJustify(text, 20)

	for i := 0; i < len(lines)-1; i++ {
		if StringWidth(lines[i]) != 20 {
			t.Errorf("line %d has width %d, expected 20: %q", i, StringWidth(lines[i]), lines[i])
		}
	}

	rejoined := strings.Join(lines, " ")
	words := strings.Fields(rejoined)
	originalWords := strings.Fields(text)
	if len(words) != len(originalWords) {
		t.Errorf("word count mismatch: got %d, expected %d", len(words), len(originalWords))
	}
}

func TestCanvas(t *testing.T) {
	c := NewCanvas(10, 5)

	if c.Width() != 10 || c.Height() != 5 {
		t.Errorf("wrong dimensions: got %dx%d, expected 10x5", c.Width(), c.Height())
	}

	c.Set(0, 0, 'X', Style{})
	if c.Get(0, 0).Rune != 'X' {
		t.Error("Set/Get failed")
	}

	c.Set(-1, 0, 'Y', Style{})
	c.Set(100, 0, 'Y', Style{})
	if c.Get(-1, 0).Rune != ' ' {
		t.Error("out of bounds Set should be ignored")
	}
}

func TestCanvasWideRunes(t *testing.T) {
	c := NewCanvas(6, 1)
	n := c.WriteString(0, 0, "章a節", Style{})
	if n != 5 {
		t.Errorf("expected 5 cells used, got %d", n)
	}
	if c.Get(1, 0).Rune != 0 {
		t.Error("expected a continuation cell after a wide rune")
	}
	if got := c.PlainText(); got != "章a節\n" {
		t.Errorf("got %q", got)
	}

	// A wide rune that does not fit is dropped rather than split
	c.Clear()
	if n := c.WriteString(5, 0, "章", Style{}); n != 0 {
		t.Errorf("expected nothing written, got %d cells", n)
	}
}

func TestCanvasPlainTextTrims(t *testing.T) {
	c := NewCanvas(8, 4)
	c.WriteString(0, 0, "top", Style{Bold: true})
	c.WriteString(2, 1, "x", Style{})
	if got := c.PlainText(); got != "top\n  x\n" {
		t.Errorf("got %q", got)
	}
	if r := c.Render(); !strings.Contains(r, "\033[0;1m") {
		t.Error("expected a bold style sequence in rendered output")
	}
}

func TestSpinnerFrames(t *testing.T) {
	s := NewSpinner(SpinnerBraille)
	first := s.Frame()
	s.lastTick = s.lastTick.Add(-time.Second)
	if !s.Tick() {
		t.Fatal("expected the frame to advance")
	}
	if s.Frame() == first {
		t.Error("frame did not change")
	}
	if s.Tick() {
		t.Error("expected no advance within the interval")
	}
	s.Reset()
	if s.Frame() != first {
		t.Error("Reset should rewind to the first frame")
	}
}
