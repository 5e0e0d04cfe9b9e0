// Package render provides terminal rendering primitives: a cell canvas,
// width-aware wrapping and justification, and raw-mode terminal control.
package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// Cell represents a single character cell in the terminal. A zero Rune marks
// the right half of a wide character.
type Cell struct {
	Rune  rune
	Style Style
}

// Style represents text styling for a cell.
type Style struct {
	Bold      bool
	Dim       bool
	Underline bool
	Reverse   bool
	FgColor   int // ANSI foreground color code (0 = default, 32 = green, 33 = yellow, etc.)
}

// Rule is the rune of the rule drawn under chapter titles.
const Rule = '─'

// UnicodeWidth returns the display width of a rune in terminal cells.
func UnicodeWidth(r rune) int {
	return runewidth.RuneWidth(r)
}

// StringWidth returns the display width of a string in terminal cells.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// WrapText wraps text to fit within a given width in terminal cells. Words
// wider than the line, such as unspaced CJK sentences, are broken by cell.
func WrapText(text string, width int) []string {
	if width <= 0 {
		return nil
	}

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}

		var currentLine strings.Builder
		currentWidth := 0

		for _, word := range words {
			wordWidth := StringWidth(word)

			if currentWidth > 0 && currentWidth+1+wordWidth <= width {
				currentLine.WriteByte(' ')
				currentLine.WriteString(word)
				currentWidth += 1 + wordWidth
				continue
			}
			if currentWidth > 0 {
				lines = append(lines, currentLine.String())
				currentLine.Reset()
				currentWidth = 0
			}
			if wordWidth <= width {
				currentLine.WriteString(word)
				currentWidth = wordWidth
				continue
			}

			// Keep the tail of a broken word open so the next word can follow it
			parts := breakWord(word, width)
			lines = append(lines, parts[:len(parts)-1]...)
			tail := parts[len(parts)-1]
			currentLine.WriteString(tail)
			currentWidth = StringWidth(tail)
		}

		if currentWidth > 0 {
			lines = append(lines, currentLine.String())
		}
	}

	return lines
}

func breakWord(word string, maxWidth int) []string {
	var result []string
	var line strings.Builder
	lineWidth := 0

	for _, r := range word {
		w := UnicodeWidth(r)
		if lineWidth+w > maxWidth && lineWidth > 0 {
			result = append(result, line.String())
			line.Reset()
			lineWidth = 0
		}
		line.WriteRune(r)
		lineWidth += w
	}
	if line.Len() > 0 {
		result = append(result, line.String())
	}
	return result
}

// JustifyLine justifies a line of text to fit exactly within a width.
func JustifyLine(line string, width int) string {
	words := strings.Fields(line)
	if len(words) <= 1 {
		return padRight(line, width)
	}

	totalWordWidth := 0
	for _, w := range words {
		totalWordWidth += StringWidth(w)
	}

	totalSpaces := width - totalWordWidth
	gaps := len(words) - 1

	if totalSpaces < gaps {
		return padRight(line, width)
	}

	baseSpaces := totalSpaces / gaps

	// Gaps wider than three cells read worse than a ragged edge
	if baseSpaces > 3 {
		return padRight(line, width)
	}

	extraSpaces := totalSpaces % gaps

	var sb strings.Builder
	for i, word := range words {
		sb.WriteString(word)
		if i < gaps {
			spaces := baseSpaces
			if i < extraSpaces {
				spaces++
			}
			sb.WriteString(strings.Repeat(" ", spaces))
		}
	}

	return sb.String()
}

// TruncateToWidth truncates a string to fit within the specified width.
func TruncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}
	return runewidth.Truncate(s, maxWidth, "")
}

// WrapAndJustify wraps text and justifies all lines except the last.
func WrapAndJustify(text string, width int) []string {
	lines := WrapText(text, width)
	for i := 0; i < len(lines)-1; i++ {
		if strings.TrimSpace(lines[i]) != "" && StringWidth(lines[i]) < width {
			lines[i] = JustifyLine(lines[i], width)
		}
	}
	return lines
}

func padRight(s string, width int) string {
	return runewidth.FillRight(s, width)
}

// Truncate truncates a string adding an ellipsis if needed.
func Truncate(s string, width int) string {
	if StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return TruncateToWidth(s, width)
	}
	return runewidth.Truncate(s, width, "...")
}
