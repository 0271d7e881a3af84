// Package gemtext renders gemini document bodies into styled terminal
// lines and builds the per-document link table.
package gemtext

import (
	"fmt"
	"strings"

	"lantern/render"
)

// reset clears any style applied to a rendered line.
const reset = "\033[0m"

// StyleSet holds one ANSI style string per rendering category.
type StyleSet struct {
	Header1    string
	Header2    string
	Header3    string
	Quote      string
	LinkBullet string
	LinkText   string
	ListBullet string
	ListText   string
}

// Link is one entry in a document's link table. Indices start at 1 and
// increase in document order.
type Link struct {
	Index  int
	Target string
	Label  string
}

// Render converts a raw gemtext body into terminal lines wrapped to
// cols − 2×margin, plus the document's link table. Output order equals
// input order; wrapping never merges or reorders logical lines.
func Render(body []byte, cols, margin int, styles StyleSet) ([]string, []Link) {
	width := cols - 2*margin
	if width < 1 {
		width = 1
	}
	pad := strings.Repeat(" ", margin)

	var out []string
	var links []Link
	preformatted := false

	for _, line := range strings.Split(string(body), "\n") {
		line = strings.TrimRight(line, "\r")

		if strings.HasPrefix(line, "```") {
			preformatted = !preformatted
			continue
		}
		if preformatted {
			out = append(out, pad+line)
			continue
		}

		switch {
		case strings.HasPrefix(line, "### "):
			out = appendWrapped(out, strings.TrimPrefix(line, "### "), width, pad, styles.Header3)
		case strings.HasPrefix(line, "## "):
			out = appendWrapped(out, strings.TrimPrefix(line, "## "), width, pad, styles.Header2)
		case strings.HasPrefix(line, "# "):
			out = appendWrapped(out, strings.TrimPrefix(line, "# "), width, pad, styles.Header1)
		case strings.HasPrefix(line, "> "):
			out = appendWrapped(out, strings.TrimPrefix(line, "> "), width, pad, styles.Quote)
		case strings.HasPrefix(line, "=>"):
			var link Link
			out, link = renderLink(out, line, len(links)+1, width, pad, styles)
			if link.Index > 0 {
				links = append(links, link)
			}
		case strings.HasPrefix(line, "* "):
			out = appendBulleted(out, strings.TrimPrefix(line, "* "), "*", width, pad,
				styles.ListBullet, styles.ListText)
		default:
			out = appendWrapped(out, line, width, pad, "")
		}
	}

	return out, links
}

// appendWrapped wraps one logical line and emits each physical line with
// margin padding, the category style, and a reset suffix.
func appendWrapped(out []string, text string, width int, pad, style string) []string {
	for _, wrapped := range render.WrapText(text, width) {
		if style == "" {
			out = append(out, pad+wrapped)
		} else {
			out = append(out, pad+style+wrapped+reset)
		}
	}
	return out
}

// appendBulleted emits a bulleted line: the bullet in its own style, the
// text in another, continuation lines indented past the bullet.
func appendBulleted(out []string, text, bullet string, width int, pad, bulletStyle, textStyle string) []string {
	prefix := bulletStyle + bullet + reset + " "
	cont := strings.Repeat(" ", len(bullet)+1)
	textWidth := width - len(bullet) - 1
	if textWidth < 1 {
		textWidth = 1
	}
	for i, wrapped := range render.WrapText(text, textWidth) {
		if i == 0 {
			out = append(out, pad+prefix+textStyle+wrapped+reset)
		} else {
			out = append(out, pad+cont+textStyle+wrapped+reset)
		}
	}
	return out
}

// renderLink parses a => line, appends its display lines, and returns the
// link table entry. A line with no target after => renders as a plain
// paragraph and yields a zero entry.
func renderLink(out []string, line string, index, width int, pad string, styles StyleSet) ([]string, Link) {
	rest := strings.TrimSpace(strings.TrimPrefix(line, "=>"))
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return appendWrapped(out, line, width, pad, ""), Link{}
	}

	target := fields[0]
	label := target
	if len(fields) > 1 {
		label = strings.Join(fields[1:], " ")
	}

	bullet := fmt.Sprintf("[%d]", index)
	out = appendBulleted(out, label, bullet, width, pad, styles.LinkBullet, styles.LinkText)
	return out, Link{Index: index, Target: target, Label: label}
}
