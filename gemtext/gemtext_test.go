package gemtext

import (
	"strings"
	"testing"

	"lantern/render"
)

var testStyles = StyleSet{
	Header1:    "\033[1m",
	Header2:    "\033[1;4m",
	Header3:    "\033[4m",
	Quote:      "\033[3m",
	LinkBullet: "\033[36m",
	LinkText:   "\033[4;36m",
	ListBullet: "\033[33m",
	ListText:   "\033[0m",
}

func TestRenderLinkTable(t *testing.T) {
	body := []byte("# Title\n=> /a Link A\n=> /b\n* item\n")
	lines, links := Render(body, 80, 2, testStyles)

	expected := []Link{
		{Index: 1, Target: "/a", Label: "Link A"},
		{Index: 2, Target: "/b", Label: "/b"},
	}
	if len(links) != len(expected) {
		t.Fatalf("got %d links, expected %d: %+v", len(links), len(expected), links)
	}
	for i, link := range links {
		if link != expected[i] {
			t.Errorf("link %d: got %+v, expected %+v", i, link, expected[i])
		}
	}

	// Output preserves document order: title, two links, list item.
	plain := make([]string, len(lines))
	for i, l := range lines {
		plain[i] = render.StripANSI(l)
	}
	wants := []string{"Title", "[1] Link A", "[2] /b", "* item"}
	for i, want := range wants {
		if i >= len(plain) || strings.TrimSpace(plain[i]) != want {
			t.Errorf("line %d: got %q, expected %q", i, plain[i], want)
		}
	}
}

func TestRenderClassification(t *testing.T) {
	tests := []struct {
		name  string
		line  string
		style string
	}{
		{"header1", "# big", testStyles.Header1},
		{"header2", "## mid", testStyles.Header2},
		{"header3", "### small", testStyles.Header3},
		{"quote", "> said", testStyles.Quote},
		{"list", "* point", testStyles.ListText},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lines, _ := Render([]byte(tt.line), 80, 0, testStyles)
			if len(lines) != 1 {
				t.Fatalf("got %d lines, expected 1", len(lines))
			}
			if !strings.Contains(lines[0], tt.style) {
				t.Errorf("line %q missing style %q", lines[0], tt.style)
			}
			if !strings.HasSuffix(lines[0], "\033[0m") {
				t.Errorf("line %q missing reset suffix", lines[0])
			}
		})
	}
}

func TestRenderPlainParagraphUnstyled(t *testing.T) {
	lines, _ := Render([]byte("just text"), 80, 0, testStyles)
	if len(lines) != 1 || lines[0] != "just text" {
		t.Errorf("got %q, expected unstyled paragraph", lines)
	}
}

func TestRenderMargin(t *testing.T) {
	lines, _ := Render([]byte("text"), 80, 4, testStyles)
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "    text") {
		t.Errorf("got %q, expected four-cell left margin", lines)
	}
}

func TestRenderWrapWidth(t *testing.T) {
	// cols 20, margin 4: wrap width is 12.
	body := []byte("aaaa bbbb cccc dddd")
	lines, _ := Render(body, 20, 4, testStyles)
	for i, line := range lines {
		if w := render.StringWidth(render.StripANSI(line)); w > 20-4 {
			t.Errorf("line %d: width %d exceeds cols-margin: %q", i, w, line)
		}
	}
	if len(lines) < 2 {
		t.Errorf("expected wrapping into multiple lines, got %q", lines)
	}
}

func TestRenderPreformattedToggle(t *testing.T) {
	body := []byte("before\n```\nraw   spacing kept\n```\nafter")
	lines, _ := Render(body, 80, 2, testStyles)

	expected := []string{
		"  before",
		"  raw   spacing kept",
		"  after",
	}
	if len(lines) != len(expected) {
		t.Fatalf("got %d lines, expected %d: %q", len(lines), len(expected), lines)
	}
	for i, want := range expected {
		if lines[i] != want {
			t.Errorf("line %d: got %q, expected %q", i, lines[i], want)
		}
	}
}

func TestRenderPreformattedNoWrap(t *testing.T) {
	long := strings.Repeat("x", 50)
	body := []byte("```\n" + long + "\n```")
	lines, _ := Render(body, 20, 2, testStyles)
	if len(lines) != 1 {
		t.Fatalf("preformatted line was wrapped: %q", lines)
	}
	if lines[0] != "  "+long {
		t.Errorf("got %q, expected margin plus raw line", lines[0])
	}
}

func TestRenderLinkIndicesResetPerDocument(t *testing.T) {
	_, first := Render([]byte("=> /a\n=> /b"), 80, 0, testStyles)
	_, second := Render([]byte("=> /c"), 80, 0, testStyles)
	if len(second) != 1 || second[0].Index != 1 {
		t.Errorf("second document should restart at index 1, got %+v", second)
	}
	if len(first) != 2 || first[1].Index != 2 {
		t.Errorf("first document indices wrong: %+v", first)
	}
}

func TestRenderBareLinkMarker(t *testing.T) {
	// A => line with no target renders as text and adds no link.
	lines, links := Render([]byte("=>"), 80, 0, testStyles)
	if len(links) != 0 {
		t.Errorf("expected no links, got %+v", links)
	}
	if len(lines) != 1 {
		t.Errorf("expected the line to still render, got %q", lines)
	}
}

func TestRenderCRLFBody(t *testing.T) {
	lines, _ := Render([]byte("# a\r\ntext\r\n"), 80, 0, testStyles)
	for i, line := range lines {
		if strings.ContainsRune(line, '\r') {
			t.Errorf("line %d retains carriage return: %q", i, line)
		}
	}
}
