// Package session threads the browsing state through one explicit
// structure and runs the navigation state machine: resolve a target,
// fetch it, render the body, page it, and turn the pager's command into
// the next target.
package session

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"lantern/bookmarks"
	"lantern/config"
	"lantern/gemini"
	"lantern/gemtext"
	"lantern/history"
	"lantern/pager"
	"lantern/render"
	"lantern/visits"
)

// State names one phase of the navigation machine.
type State int

const (
	StateResolving State = iota
	StateFetching
	StateInputPrompt
	StateRendering
	StatePaging
	StateDone
)

// Fetcher performs one Gemini exchange. *gemini.Client satisfies it.
type Fetcher interface {
	Fetch(u gemini.URL, ctx *gemini.Context) (gemini.Outcome, error)
}

// Console is the terminal mode control the session and pager share.
type Console interface {
	EnterRawMode() error
	RestoreMode() error
	ReadSecret() (string, error)
}

// Session owns all mutable browsing state. Nothing here is process-wide;
// every component call receives what it needs from this structure.
type Session struct {
	Cfg       *config.Config
	Term      Console
	In        *bufio.Reader
	Out       io.Writer
	Client    Fetcher
	Bookmarks *bookmarks.Store
	Visits    *visits.Log // optional; nil disables recording
	Log       *slog.Logger

	Rows int
	Cols int

	history history.Stack
	ctx     *gemini.Context
	current gemini.URL

	// Current page, replaced wholesale on each fetch.
	lines   []string
	links   []gemtext.Link
	charset string

	state   State
	raw     string     // pending raw target for StateResolving
	target  gemini.URL // pending resolved target for StateFetching
	outcome gemini.Outcome
}

// ErrNoPage is returned when the very first navigation fails and there
// is nothing to fall back to.
var ErrNoPage = errors.New("no page to display")

// Run drives the state machine from a raw start URL until the user
// quits. Protocol-level conditions never escape as errors; the error
// return covers terminal failures and a failed first navigation.
func (s *Session) Run(startURL string) error {
	s.raw = startURL
	s.state = StateResolving
	return s.loop()
}

// ShowLocal renders an already-loaded gemtext body, bypassing the
// network, and enters the machine at the paging state.
func (s *Session) ShowLocal(name string, body []byte) error {
	s.lines, s.links = gemtext.Render(body, s.Cols, s.Cfg.Display.Margin, styleSet(s.Cfg))
	s.charset = "utf8"
	s.current = gemini.URL{Scheme: "file", Port: gemini.DefaultPort, Path: name}
	s.state = StatePaging
	return s.loop()
}

func (s *Session) loop() error {
	if s.Log == nil {
		s.Log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	for s.state != StateDone {
		var err error
		switch s.state {
		case StateResolving:
			s.target = gemini.Resolve(s.raw, s.ctx)
			s.Log.Debug("resolved", "raw", s.raw, "target", s.target.String())
			s.state = StateFetching
		case StateFetching:
			err = s.fetch()
		case StateInputPrompt:
			err = s.inputPrompt()
		case StateRendering:
			s.render()
		case StatePaging:
			err = s.page()
		}
		if err != nil {
			return err
		}
	}
	return nil
}

// fetch pushes the attempt, performs the exchange, and routes the
// outcome. The push happens before anything else: the stack always holds
// the attempted entry on top, known outcome or not.
func (s *Session) fetch() error {
	s.history.Push(s.target)

	if s.target.Scheme != "gemini" {
		s.Log.Debug("unsupported scheme", "url", s.target.String())
		s.message(fmt.Sprintf("%s:// is not supported, only gemini://", s.target.Scheme))
		return s.fallBack()
	}

	outcome, err := s.Client.Fetch(s.target, s.ctx)
	if err != nil {
		return fmt.Errorf("fetching %s: %w", s.target.String(), err)
	}
	s.Log.Debug("fetched", "url", s.target.String(), "status", outcome.Status)

	if s.Visits != nil {
		if err := s.Visits.Record(s.target.String(), outcome.Status, outcome.Meta); err != nil {
			s.Log.Debug("visit log failed", "error", err)
		}
	}

	switch outcome.Kind {
	case gemini.OutcomeGemtext, gemini.OutcomeRaw:
		s.outcome = outcome
		s.state = StateRendering

	case gemini.OutcomeInput:
		s.outcome = outcome
		s.state = StateInputPrompt

	case gemini.OutcomeRedirect:
		// The redirected attempt is its own push on the next pass.
		s.target = outcome.Target
		s.state = StateFetching

	case gemini.OutcomeCertRequired:
		return s.certRequired(outcome)

	case gemini.OutcomeFailure:
		return s.failure(outcome)
	}
	return nil
}

// failure reports a classified failure and recovers: acknowledge, then
// fall back through history.
func (s *Session) failure(o gemini.Outcome) error {
	switch o.Failure {
	case gemini.FailConnect:
		s.message("could not connect: " + o.Detail)
	case gemini.FailTemporary:
		s.message(fmt.Sprintf("server says try again later (%d): %s", o.Status, o.Detail))
	case gemini.FailPermanent:
		s.message(fmt.Sprintf("permanent failure (%d): %s", o.Status, o.Detail))
	case gemini.FailNotFound:
		s.message("page not found (51): " + o.Detail)
	case gemini.FailRefused:
		s.message(fmt.Sprintf("request refused (%d): %s", o.Status, o.Detail))
	case gemini.FailBadRequest:
		s.message("bad request (59): " + o.Detail)
	default:
		s.message("fetch failed: " + o.Detail)
	}

	if o.Failure == gemini.FailRefused || o.Failure == gemini.FailBadRequest {
		// Reported, no special recovery: return to the page on screen
		// when there is one.
		if len(s.lines) > 0 {
			s.state = StatePaging
			return nil
		}
	}
	return s.fallBack()
}

// certRequired explains how to register a certificate and offers a
// retry once the files are in place.
func (s *Session) certRequired(o gemini.Outcome) error {
	certDir, _ := config.CertDir()
	host := s.target.Host
	fmt.Fprintf(s.Out, "\n%s asks for a client certificate (%d): %s\n", host, o.Status, o.Detail)
	fmt.Fprintf(s.Out, "generate one with, for example:\n")
	fmt.Fprintf(s.Out, "  openssl req -x509 -newkey rsa:4096 -nodes -days 365 \\\n")
	fmt.Fprintf(s.Out, "    -keyout %s/%s.key -out %s/%s.crt\n", certDir, host, certDir, host)
	fmt.Fprintf(s.Out, "press r to retry, any other key to go back\n")

	key, err := s.readKey()
	if err != nil {
		return err
	}
	if key == 'r' {
		// The retry is a fresh attempt and gets its own push.
		s.state = StateFetching
		return nil
	}
	return s.fallBack()
}

// fallBack pops the failed attempt and the entry beneath it, then
// renavigates to the second popped entry. The renavigation fetch pushes
// it again, restoring the stack. With nothing to fall back to, the
// current page stays up when there is one; otherwise the session ends.
func (s *Session) fallBack() error {
	if entry, ok := s.history.Back(); ok {
		s.target = entry.URL()
		s.state = StateFetching
		return nil
	}
	if len(s.lines) > 0 {
		s.state = StatePaging
		return nil
	}
	s.state = StateDone
	return ErrNoPage
}

// inputPrompt handles status 10 and 11: read one line, visibly or not,
// and re-issue the same path with the percent-encoded answer as query.
func (s *Session) inputPrompt() error {
	if err := s.Term.RestoreMode(); err != nil {
		return fmt.Errorf("leaving raw mode: %w", err)
	}
	fmt.Fprintf(s.Out, "\n%s ", s.outcome.Prompt)

	var line string
	var err error
	if s.outcome.Sensitive {
		line, err = s.Term.ReadSecret()
		fmt.Fprintln(s.Out)
	} else {
		line, err = s.In.ReadString('\n')
	}
	if err != nil && line == "" {
		return fmt.Errorf("reading input: %w", err)
	}
	line = strings.TrimRight(line, "\r\n")

	next := s.target
	next.Query = gemini.EncodeQuery(line)
	s.target = next
	s.state = StateFetching
	return nil
}

// render formats the fetched body and updates the browsing context,
// exactly once per successful fetch.
func (s *Session) render() {
	if s.outcome.Kind == gemini.OutcomeGemtext {
		s.lines, s.links = gemtext.Render(s.outcome.Body, s.Cols, s.Cfg.Display.Margin, styleSet(s.Cfg))
	} else {
		// Non-gemtext bodies bypass the renderer.
		s.lines = strings.Split(strings.TrimRight(string(s.outcome.Body), "\n"), "\n")
		s.links = nil
	}
	s.charset = s.outcome.Charset

	s.current = s.target
	s.ctx = &gemini.Context{Host: s.current.Host, Path: s.current.Path}
	s.state = StatePaging
}

// page runs the pager and maps its action onto the next state.
func (s *Session) page() error {
	if err := s.Term.EnterRawMode(); err != nil {
		return fmt.Errorf("entering raw mode: %w", err)
	}

	p := &pager.Pager{
		In:            s.In,
		Out:           s.Out,
		Term:          s.Term,
		Rows:          s.Rows,
		Cols:          s.Cols,
		Keys:          s.Cfg.Keybindings,
		ShowScrollPct: s.Cfg.Display.ShowScrollPercentage,
		ShowURL:       s.Cfg.Display.ShowUrl,
	}
	p.SetPage(s.lines, s.links, s.current.String(), s.charset)
	p.SetBookmarks(s.Bookmarks)

	action, err := p.Run()
	if err != nil {
		return fmt.Errorf("paging: %w", err)
	}
	s.Log.Debug("pager action", "kind", int(action.Kind), "target", action.Target)

	switch action.Kind {
	case pager.ActionQuit:
		s.state = StateDone

	case pager.ActionOpen:
		s.raw = action.Target
		s.state = StateResolving

	case pager.ActionRefresh:
		s.target = s.current
		s.state = StateFetching

	case pager.ActionBack:
		if entry, ok := s.history.Back(); ok {
			s.target = entry.URL()
			s.state = StateFetching
		} else {
			s.message("nothing to go back to")
			s.state = StatePaging
		}

	case pager.ActionHome:
		s.raw = s.Cfg.General.Homepage
		s.state = StateResolving

	case pager.ActionGoUp:
		s.target = parentOf(s.current)
		s.state = StateFetching

	case pager.ActionRedisplay:
		s.state = StatePaging
	}
	return nil
}

// parentOf strips the last path segment, keeping the trailing slash of
// the remaining directory.
func parentOf(u gemini.URL) gemini.URL {
	p := strings.TrimSuffix(u.Path, "/")
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		p = p[:i+1]
	} else {
		p = ""
	}
	return gemini.URL{Scheme: u.Scheme, Host: u.Host, Port: u.Port, Path: p}
}

// message shows a notice and waits for a key.
func (s *Session) message(text string) {
	fmt.Fprintf(s.Out, "\n%s\npress any key to continue\n", text)
	s.readKey()
}

// readKey reads one raw key event, entering raw mode for it.
func (s *Session) readKey() (byte, error) {
	if err := s.Term.EnterRawMode(); err != nil {
		return 0, fmt.Errorf("entering raw mode: %w", err)
	}
	ev, err := render.ReadEvent(s.In)
	if err != nil {
		return 0, err
	}
	return ev.Key, nil
}

// styleSet converts configured style strings into the renderer's set.
func styleSet(cfg *config.Config) gemtext.StyleSet {
	return gemtext.StyleSet{
		Header1:    cfg.Styles.Header1,
		Header2:    cfg.Styles.Header2,
		Header3:    cfg.Styles.Header3,
		Quote:      cfg.Styles.Quote,
		LinkBullet: cfg.Styles.LinkBullet,
		LinkText:   cfg.Styles.LinkText,
		ListBullet: cfg.Styles.ListBullet,
		ListText:   cfg.Styles.ListText,
	}
}

// Depth exposes the history depth, for the status of back navigation.
func (s *Session) Depth() int {
	return s.history.Depth()
}

// CurrentURL returns the URL of the displayed page.
func (s *Session) CurrentURL() gemini.URL {
	return s.current
}
