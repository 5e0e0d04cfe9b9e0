// Package logging builds the slog logger used across pageahead. Level labels
// are coloured with lipgloss; attributes are written in logfmt order.
package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Extra levels between INFO and WARN.
const (
	LevelSuccess = slog.LevelInfo + 1
	LevelHijack  = slog.LevelInfo + 2
)

var levelStyles = map[slog.Level]lipgloss.Style{
	slog.LevelDebug: lipgloss.NewStyle().Foreground(lipgloss.Color("#888888")),
	slog.LevelInfo:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#0077c2")),
	LevelSuccess:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#28a745")),
	LevelHijack:     lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#9c27b0")),
	slog.LevelWarn:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ffc107")),
	slog.LevelError: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#dc3545")),
}

// LevelName returns the label printed for a level.
func LevelName(l slog.Level) string {
	switch l {
	case LevelSuccess:
		return "SUCCESS"
	case LevelHijack:
		return "HIJACK"
	}
	return l.String()
}

// ParseLevel maps a config string to a level. Unknown values yield INFO.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Handler is a slog.Handler that prints one line per record:
//
//	15:04:05 [SUCCESS] message key=value ...
type Handler struct {
	mu    *sync.Mutex
	w     io.Writer
	level slog.Leveler
	color bool
	attrs []slog.Attr
	group string
}

// NewHandler creates a handler writing to w. When color is false the level
// label is printed without escape sequences.
func NewHandler(w io.Writer, level slog.Leveler, color bool) *Handler {
	return &Handler{mu: &sync.Mutex{}, w: w, level: level, color: color}
}

func (h *Handler) Enabled(_ context.Context, l slog.Level) bool {
	return l >= h.level.Level()
}

func (h *Handler) Handle(_ context.Context, r slog.Record) error {
	var sb strings.Builder
	if !r.Time.IsZero() {
		sb.WriteString(r.Time.Format("15:04:05"))
		sb.WriteByte(' ')
	}

	label := "[" + LevelName(r.Level) + "]"
	if h.color {
		label = styleFor(r.Level).Render(label)
	}
	sb.WriteString(label)
	sb.WriteByte(' ')
	sb.WriteString(r.Message)

	for _, a := range h.attrs {
		writeAttr(&sb, "", a)
	}
	r.Attrs(func(a slog.Attr) bool {
		writeAttr(&sb, h.group, a)
		return true
	})
	sb.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := io.WriteString(h.w, sb.String())
	return err
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	h2 := *h
	h2.attrs = make([]slog.Attr, 0, len(h.attrs)+len(attrs))
	h2.attrs = append(h2.attrs, h.attrs...)
	for _, a := range attrs {
		if h.group != "" {
			a.Key = h.group + "." + a.Key
		}
		h2.attrs = append(h2.attrs, a)
	}
	return &h2
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	h2 := *h
	if h.group != "" {
		h2.group = h.group + "." + name
	} else {
		h2.group = name
	}
	return &h2
}

func styleFor(l slog.Level) lipgloss.Style {
	if s, ok := levelStyles[l]; ok {
		return s
	}
	if l >= slog.LevelError {
		return levelStyles[slog.LevelError]
	}
	return levelStyles[slog.LevelInfo]
}

func writeAttr(sb *strings.Builder, group string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Equal(slog.Attr{}) {
		return
	}
	key := a.Key
	if group != "" {
		key = group + "." + key
	}
	if a.Value.Kind() == slog.KindGroup {
		for _, ga := range a.Value.Group() {
			writeAttr(sb, key, ga)
		}
		return
	}
	val := a.Value.String()
	if strings.ContainsAny(val, " \t\"=") {
		val = fmt.Sprintf("%q", val)
	}
	sb.WriteByte(' ')
	sb.WriteString(key)
	sb.WriteByte('=')
	sb.WriteString(val)
}

// New returns a logger writing to w.
func New(w io.Writer, level slog.Level, color bool) *slog.Logger {
	return slog.New(NewHandler(w, level, color))
}

// OpenFile opens (appending) the log file at path, creating its directory.
func OpenFile(path string) (*os.File, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}
	return f, nil
}

// DefaultPath returns ~/.cache/pageahead/pageahead.log.
func DefaultPath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		dir = os.TempDir()
	}
	return filepath.Join(dir, "pageahead", "pageahead.log")
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(NewHandler(io.Discard, slog.LevelError+100, false))
}
