// Package pager drives the interactive view of a rendered page: scroll
// state, keybinding dispatch, line prompts, and the action handed back
// to the navigation loop.
package pager

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"lantern/bookmarks"
	"lantern/config"
	"lantern/gemtext"
	"lantern/render"
)

// ActionKind discriminates what the navigation loop should do next.
type ActionKind int

const (
	// ActionQuit terminates the browser.
	ActionQuit ActionKind = iota
	// ActionOpen navigates to the raw target in Action.Target.
	ActionOpen
	// ActionRefresh re-navigates to the current URL.
	ActionRefresh
	// ActionBack pops history and renavigates.
	ActionBack
	// ActionHome navigates to the configured homepage.
	ActionHome
	// ActionGoUp strips the last path segment of the current URL.
	ActionGoUp
	// ActionRedisplay re-enters the pager on the same page.
	ActionRedisplay
)

// Action is the pager's verdict for one command cycle.
type Action struct {
	Kind   ActionKind
	Target string
}

// Console switches the terminal between raw paging input and buffered,
// echoed line input.
type Console interface {
	EnterRawMode() error
	RestoreMode() error
}

// Pager displays one rendered page and blocks for commands. The input
// stream must already be in raw mode on entry; a command that needs a
// line of input restores cooked mode for that read and then exits the
// loop, leaving re-entry into raw mode to the caller.
type Pager struct {
	In   *bufio.Reader
	Out  io.Writer
	Term Console

	Rows int
	Cols int

	Keys          config.Keybindings
	ShowScrollPct bool
	ShowURL       bool

	lines   []string
	links   []gemtext.Link
	url     string
	charset string
	top     int

	bookmarks *bookmarks.Store
}

// SetPage replaces the displayed page wholesale and resets the scroll.
func (p *Pager) SetPage(lines []string, links []gemtext.Link, url, charset string) {
	p.lines = lines
	p.links = links
	p.url = url
	p.charset = charset
	p.top = 0
}

// SetBookmarks attaches the bookmark store used by the bookmark commands.
func (p *Pager) SetBookmarks(s *bookmarks.Store) {
	p.bookmarks = s
}

// Run draws the page and dispatches input until a command other than a
// scroll or an unrecognized key ends the loop.
func (p *Pager) Run() (Action, error) {
	p.draw()

	for {
		ev, err := render.ReadEvent(p.In)
		if err != nil {
			return Action{Kind: ActionQuit}, err
		}

		if ev.Kind == render.EscapeSequence {
			p.scroll(ev)
			continue
		}

		action, done, err := p.dispatch(ev.Key)
		if err != nil {
			return Action{Kind: ActionQuit}, err
		}
		if done {
			return action, nil
		}
	}
}

// scroll moves the view by one line, clamped at both ends. A clamped
// scroll consumes the event without redrawing.
func (p *Pager) scroll(ev render.Event) {
	visible := p.Rows - 1
	switch {
	case ev.IsScrollUp():
		if p.top > 0 {
			p.top--
			p.draw()
		}
	case ev.IsScrollDown():
		if p.top+visible < len(p.lines) {
			p.top++
			p.draw()
		}
	}
}

func (p *Pager) dispatch(key byte) (Action, bool, error) {
	kb := p.Keys
	switch {
	case config.MatchSingle(key, kb.Quit):
		return Action{Kind: ActionQuit}, true, nil

	case config.MatchSingle(key, kb.Open):
		target, err := p.promptLine("go to: ")
		if err != nil {
			return Action{}, false, err
		}
		if target == "" {
			return Action{Kind: ActionRedisplay}, true, nil
		}
		if !strings.Contains(target, "://") {
			target = "gemini://" + target
		}
		return Action{Kind: ActionOpen, Target: target}, true, nil

	case config.MatchSingle(key, kb.GotoLink):
		input, err := p.promptLine("link number: ")
		if err != nil {
			return Action{}, false, err
		}
		return Action{Kind: ActionOpen, Target: p.linkTarget(input)}, true, nil

	case config.MatchSingle(key, kb.Refresh):
		return Action{Kind: ActionRefresh}, true, nil

	case config.MatchSingle(key, kb.Back):
		return Action{Kind: ActionBack}, true, nil

	case config.MatchSingle(key, kb.Home):
		return Action{Kind: ActionHome}, true, nil

	case config.MatchSingle(key, kb.GoUp):
		return Action{Kind: ActionGoUp}, true, nil

	case config.MatchSingle(key, kb.SetBookmark):
		return p.setBookmark()

	case config.MatchSingle(key, kb.GotoBookmark):
		return p.gotoBookmark()

	case config.MatchSingle(key, kb.DeleteBookmark):
		return p.deleteBookmark()
	}

	// Unrecognized keys are consumed without ending the loop.
	return Action{}, false, nil
}

// linkTarget resolves a typed index against the link table. Anything
// unparsable or out of range yields an empty target, which the resolver
// treats as the current directory.
func (p *Pager) linkTarget(input string) string {
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > len(p.links) {
		return ""
	}
	return p.links[n-1].Target
}

func (p *Pager) setBookmark() (Action, bool, error) {
	if p.bookmarks == nil {
		return Action{Kind: ActionRedisplay}, true, nil
	}
	desc, err := p.promptLine("description (optional): ")
	if err != nil {
		return Action{}, false, err
	}
	p.bookmarks.Add(p.url, desc)
	if err := p.bookmarks.Save(); err != nil {
		fmt.Fprintf(p.Out, "\nsaving bookmarks: %v\n", err)
	}
	return Action{Kind: ActionRedisplay}, true, nil
}

func (p *Pager) gotoBookmark() (Action, bool, error) {
	if p.bookmarks == nil || p.bookmarks.Len() == 0 {
		return Action{Kind: ActionRedisplay}, true, nil
	}

	fmt.Fprint(p.Out, "\n")
	for i, b := range p.bookmarks.All() {
		fmt.Fprintf(p.Out, "%3d  %s %s\n", i+1, b.URL, b.Description)
	}

	input, err := p.promptLine("bookmark number: ")
	if err != nil {
		return Action{}, false, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(input))
	if err != nil || n < 1 || n > p.bookmarks.Len() {
		return Action{Kind: ActionRedisplay}, true, nil
	}
	return Action{Kind: ActionOpen, Target: p.bookmarks.All()[n-1].URL}, true, nil
}

func (p *Pager) deleteBookmark() (Action, bool, error) {
	if p.bookmarks != nil && p.url != "" {
		if removed := p.bookmarks.Delete(p.url); removed > 0 {
			if err := p.bookmarks.Save(); err != nil {
				fmt.Fprintf(p.Out, "\nsaving bookmarks: %v\n", err)
			}
		}
	}
	return Action{Kind: ActionRedisplay}, true, nil
}

// promptLine restores cooked input for one buffered, echoed read. The
// terminal stays cooked afterwards; the caller re-enters raw mode on the
// next pager entry.
func (p *Pager) promptLine(prompt string) (string, error) {
	if p.Term != nil {
		if err := p.Term.RestoreMode(); err != nil {
			return "", fmt.Errorf("leaving raw mode: %w", err)
		}
	}
	fmt.Fprint(p.Out, "\n"+prompt)

	line, err := p.In.ReadString('\n')
	if err != nil && line == "" {
		return "", fmt.Errorf("reading input line: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// draw repaints the visible window plus the status line.
func (p *Pager) draw() {
	var sb strings.Builder
	sb.WriteString(render.ClearScreen)
	sb.WriteString(render.CursorHome)

	visible := p.Rows - 1
	for i := p.top; i < len(p.lines) && i < p.top+visible; i++ {
		sb.WriteString(p.lines[i])
		sb.WriteByte('\n')
	}

	sb.WriteString(p.statusLine())
	io.WriteString(p.Out, sb.String())
}

// statusLine builds the bottom row: URL on the left, charset and scroll
// percentage on the right, all dim.
func (p *Pager) statusLine() string {
	var left, right string
	if p.ShowURL {
		left = render.Truncate(p.url, p.Cols-16)
	}

	if p.charset != "" {
		right = p.charset
	}
	visible := p.Rows - 1
	if p.ShowScrollPct && len(p.lines) > visible {
		maxTop := len(p.lines) - visible
		pct := p.top * 100 / maxTop
		right = fmt.Sprintf("%s %3d%%", right, pct)
	}

	gap := p.Cols - render.StringWidth(left) - render.StringWidth(right)
	if gap < 1 {
		gap = 1
	}
	return "\033[2m" + left + strings.Repeat(" ", gap) + right + "\033[0m"
}
