// Package render provides the terminal plumbing for the pager: raw and
// cooked input modes, screen control, text wrapping, and key events.
package render

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// StringWidth returns the display width of a string in terminal cells.
func StringWidth(s string) int {
	return runewidth.StringWidth(s)
}

// WrapText wraps text to fit within a given width in terminal cells.
// Existing newlines are preserved as paragraph boundaries.
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

		var current strings.Builder
		currentWidth := 0

		for _, word := range words {
			wordWidth := StringWidth(word)

			if currentWidth == 0 {
				if wordWidth > width {
					lines = append(lines, breakWord(word, width)...)
				} else {
					current.WriteString(word)
					currentWidth = wordWidth
				}
			} else if currentWidth+1+wordWidth <= width {
				current.WriteByte(' ')
				current.WriteString(word)
				currentWidth += 1 + wordWidth
			} else {
				lines = append(lines, current.String())
				current.Reset()
				if wordWidth > width {
					lines = append(lines, breakWord(word, width)...)
					currentWidth = 0
				} else {
					current.WriteString(word)
					currentWidth = wordWidth
				}
			}
		}

		if currentWidth > 0 {
			lines = append(lines, current.String())
		}
	}

	return lines
}

// breakWord splits a word wider than maxWidth at cell boundaries.
func breakWord(word string, maxWidth int) []string {
	var result []string
	runes := []rune(word)

	for len(runes) > 0 {
		var line strings.Builder
		lineWidth := 0

		for len(runes) > 0 {
			r := runes[0]
			w := runewidth.RuneWidth(r)
			if lineWidth+w > maxWidth {
				break
			}
			line.WriteRune(r)
			lineWidth += w
			runes = runes[1:]
		}

		if line.Len() > 0 {
			result = append(result, line.String())
		} else if len(runes) > 0 {
			line.WriteRune(runes[0])
			result = append(result, line.String())
			runes = runes[1:]
		}
	}

	return result
}

// TruncateToWidth truncates a string to fit within the specified width.
func TruncateToWidth(s string, maxWidth int) string {
	if maxWidth <= 0 {
		return ""
	}

	width := 0
	for i, r := range s {
		charWidth := runewidth.RuneWidth(r)
		if width+charWidth > maxWidth {
			return s[:i]
		}
		width += charWidth
	}

	return s
}

// Truncate truncates a string adding ellipsis if needed.
func Truncate(s string, width int) string {
	if StringWidth(s) <= width {
		return s
	}
	if width <= 3 {
		return TruncateToWidth(s, width)
	}
	return TruncateToWidth(s, width-3) + "..."
}

// StripANSI removes ANSI escape sequences from a string.
func StripANSI(s string) string {
	var sb strings.Builder
	inEscape := false

	for _, r := range s {
		if r == '\033' {
			inEscape = true
			continue
		}
		if inEscape {
			if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') {
				inEscape = false
			}
			continue
		}
		sb.WriteRune(r)
	}

	return sb.String()
}
