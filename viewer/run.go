package viewer

import (
	"errors"
	"io"
	"os"

	"pageahead/gesture"
)

// maxPending bounds an unfinished escape sequence carried between reads.
const maxPending = 32

// Run reads input until the quit key, end of input or a read error, and
// dispatches every decoded event through p. An escape sequence split across
// reads is completed from the next read. tick, when set, runs after every
// read, including empty reads from a terminal in timed raw mode.
func (v *Viewer) Run(in io.Reader, p *gesture.Pipeline, tick func()) error {
	buf := make([]byte, 64)
	var pending []byte
	for !v.Quitting() {
		n, err := in.Read(buf)
		events, rest := gesture.DecodeStream(append(pending, buf[:n]...))
		pending = nil
		if len(rest) <= maxPending {
			pending = append(pending, rest...)
		}
		for _, ev := range events {
			v.hitTest(&ev)
			p.Dispatch(&ev)
			if v.Quitting() {
				return nil
			}
		}
		if tick != nil {
			tick()
		}
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				return nil
			}
			return err
		}
	}
	return nil
}
