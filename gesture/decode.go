package gesture

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Decode splits one read from a raw-mode terminal into events. It knows
// CSI and SS3 arrow keys, SGR mouse presses, Enter, Escape, control bytes and
// UTF-8 runes. Unknown escape sequences are skipped, and so is an escape
// sequence cut off at the end of buf.
func Decode(buf []byte) []Event {
	events, _ := DecodeStream(buf)
	return events
}

// DecodeStream is Decode for input that arrives in pieces. When buf ends in
// the middle of an escape sequence the unfinished tail is returned as rest,
// to be prepended to the next read.
func DecodeStream(buf []byte) (events []Event, rest []byte) {
	for len(buf) > 0 {
		if unfinishedEscape(buf) {
			return events, buf
		}
		ev, n := decodeOne(buf)
		if n <= 0 {
			n = 1
		}
		if ev.Key != KeyNone || ev.Mouse != nil {
			events = append(events, ev)
		}
		buf = buf[n:]
	}
	return events, nil
}

// unfinishedEscape reports whether buf holds the start of a CSI or SS3
// sequence with no final byte yet. A lone ESC is a complete Escape key.
func unfinishedEscape(buf []byte) bool {
	if len(buf) < 2 || buf[0] != 27 {
		return false
	}
	switch buf[1] {
	case 'O':
		return len(buf) < 3
	case '[':
		for _, b := range buf[2:] {
			if b >= 0x40 && b <= 0x7E {
				return false
			}
		}
		return true
	}
	return false
}

func decodeOne(buf []byte) (Event, int) {
	switch b := buf[0]; {
	case b == 27:
		return decodeEscape(buf)
	case b == 13 || b == 10:
		return Event{Key: KeyEnter}, 1
	case b < 32 || b == 127:
		return Event{Key: KeyCtrl, Rune: rune(b)}, 1
	}

	r, size := utf8.DecodeRune(buf)
	if r == utf8.RuneError {
		return Event{}, size
	}
	return Event{Key: KeyRune, Rune: r}, size
}

func decodeEscape(buf []byte) (Event, int) {
	if len(buf) == 1 {
		return Event{Key: KeyEscape}, 1
	}
	if buf[1] != '[' && buf[1] != 'O' {
		// Alt+key or a stray escape: report the escape, let the rest decode
		return Event{Key: KeyEscape}, 1
	}
	if len(buf) < 3 {
		return Event{}, len(buf)
	}

	if buf[1] == '[' && buf[2] == '<' {
		return decodeSGRMouse(buf)
	}

	switch buf[2] {
	case 'A':
		return Event{Key: KeyUp}, 3
	case 'B':
		return Event{Key: KeyDown}, 3
	case 'C':
		return Event{Key: KeyRight}, 3
	case 'D':
		return Event{Key: KeyLeft}, 3
	}

	// Skip an unknown CSI sequence up to its final byte
	for i := 2; i < len(buf); i++ {
		if buf[i] >= 0x40 && buf[i] <= 0x7E {
			return Event{}, i + 1
		}
	}
	return Event{}, len(buf)
}

// decodeSGRMouse parses ESC [ < button ; x ; y (M|m). Only presses (M) of
// the primary button produce an event; coordinates become 0-based.
func decodeSGRMouse(buf []byte) (Event, int) {
	end := -1
	for i := 3; i < len(buf); i++ {
		if buf[i] == 'M' || buf[i] == 'm' {
			end = i
			break
		}
	}
	if end < 0 {
		return Event{}, len(buf)
	}

	parts := strings.Split(string(buf[3:end]), ";")
	if len(parts) != 3 || buf[end] != 'M' {
		return Event{}, end + 1
	}
	button, err1 := strconv.Atoi(parts[0])
	x, err2 := strconv.Atoi(parts[1])
	y, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil || button != 0 {
		return Event{}, end + 1
	}
	return Event{Mouse: &Mouse{X: x - 1, Y: y - 1, Button: button}}, end + 1
}
