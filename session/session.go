// Package session holds the addressing state of a reading session and
// persists the last position between runs.
package session

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
)

// Unset marks an index that has not been discovered yet.
const Unset = -1

// Position is the addressing state of a session: which collection is being
// paged through and which unit is on screen.
type Position struct {
	BaseResource string `json:"baseResource"`
	CurrentIndex int    `json:"currentIndex"`
	SessionID    string `json:"sessionId,omitempty"`
}

// Empty returns a position with nothing discovered.
func Empty() Position {
	return Position{CurrentIndex: Unset}
}

// Known reports whether the base resource and index have been committed.
func (p Position) Known() bool {
	return p.BaseResource != "" && p.CurrentIndex >= 0
}

// Path returns the session file path.
func Path() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "pageahead", "session.json"), nil
}

// Load reads the last saved position from disk.
func Load() (Position, error) {
	path, err := Path()
	if err != nil {
		return Empty(), err
	}
	return LoadFrom(path)
}

// LoadFrom reads a position from the given file.
func LoadFrom(path string) (Position, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Empty(), err
	}

	p := Empty()
	if err := json.Unmarshal(data, &p); err != nil {
		return Empty(), err
	}
	return p, nil
}

// Save writes the position to disk.
func Save(p Position) error {
	path, err := Path()
	if err != nil {
		return err
	}
	return SaveTo(path, p)
}

// SaveTo writes the position to the given file, creating parent directories.
func SaveTo(path string, p Position) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Clear forgets the saved position.
func Clear() error {
	path, err := Path()
	if err != nil {
		return err
	}
	return ClearFrom(path)
}

// ClearFrom removes the given session file. A missing file is not an error.
func ClearFrom(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
