// Lantern is a terminal browser for the Gemini protocol.
package main

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lantern/bookmarks"
	"lantern/certs"
	"lantern/config"
	"lantern/gemini"
	"lantern/gemtext"
	"lantern/render"
	"lantern/session"
	"lantern/visits"
)

const version = "1.0.0"

func main() {
	url := ""
	filePath := ""
	printMode := false
	initConfig := false
	showHistory := false

	args := os.Args[1:]
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "-p", "--print":
			printMode = true
		case "--init-config":
			initConfig = true
		case "-history", "--history":
			showHistory = true
		case "-f", "--file":
			if i+1 < len(args) {
				i++
				filePath = args[i]
			}
		case "-v", "--version":
			fmt.Println("lantern " + version)
			return
		case "-h", "--help":
			printUsage()
			return
		default:
			if url == "" {
				url = args[i]
			}
		}
	}

	// Generate default config and exit
	if initConfig {
		fmt.Print(config.DefaultTOML())
		return
	}

	if showHistory {
		if err := runHistory(); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if printMode {
		if err := runPrint(url); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(url, filePath); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Lantern - Terminal Gemini Browser

Usage: lantern [options] [url]

Options:
  -p, --print       Print page to stdout (one-shot mode)
  -f, --file FILE   Render a local gemtext file
  -history          Print recently visited pages
  --init-config     Output default config (redirect to ~/.config/lantern/config.toml)
  -v, --version     Show version
  -h, --help        Show this help

Examples:
  lantern                              Open the configured homepage
  lantern gemini://geminiprotocol.net  Open URL
  lantern -p gemini://example.org      Print page to stdout
  lantern -f notes.gmi                 Page a local file
  lantern --init-config > ~/.config/lantern/config.toml`)
}

// newClient builds the protocol client from configuration.
func newClient(cfg *config.Config) *gemini.Client {
	client := &gemini.Client{
		Timeout: time.Duration(cfg.Network.TimeoutSeconds) * time.Second,
	}
	if certDir, err := config.CertDir(); err == nil {
		client.Certs = certs.NewRegistry(certDir)
	}
	return client
}

// newLogger opens the debug log when enabled; otherwise all records are
// discarded.
func newLogger(cfg *config.Config) *slog.Logger {
	if !cfg.Log.DebugLog {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	path, err := config.DebugLogPath()
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return slog.New(slog.NewJSONHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func run(url, filePath string) error {
	// Load configuration (defaults + user overrides)
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Load bookmarks early; a missing file just means an empty store
	bookmarksPath, err := config.BookmarksPath()
	if err != nil {
		return fmt.Errorf("locating bookmarks: %w", err)
	}
	store, err := bookmarks.Load(bookmarksPath)
	if err != nil {
		return fmt.Errorf("loading bookmarks: %w", err)
	}

	// The visit log degrades silently to no recording
	var visitLog *visits.Log
	if cfg.Log.VisitLog {
		if path, err := config.VisitsPath(); err == nil {
			if l, err := visits.Open(path); err == nil {
				visitLog = l
				defer l.Close()
			}
		}
	}

	// Set up terminal
	width, height, err := render.TerminalSize()
	if err != nil {
		return fmt.Errorf("detecting terminal: %w", err)
	}

	term, err := render.NewTerminal(os.Stdin)
	if err != nil {
		return fmt.Errorf("initializing terminal: %w", err)
	}

	render.EnterAltScreen(os.Stdout)
	if err := term.EnterRawMode(); err != nil {
		render.ExitAltScreen(os.Stdout)
		return fmt.Errorf("entering raw mode: %w", err)
	}

	restore := func() {
		term.RestoreMode()
		render.ExitAltScreen(os.Stdout)
	}
	defer restore()

	// The terminal must be restored on every exit path, signals included
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		restore()
		os.Exit(1)
	}()

	s := &session.Session{
		Cfg:       cfg,
		Term:      term,
		In:        bufio.NewReader(os.Stdin),
		Out:       os.Stdout,
		Client:    newClient(cfg),
		Bookmarks: store,
		Visits:    visitLog,
		Log:       newLogger(cfg),
		Rows:      height,
		Cols:      width,
	}

	if filePath != "" {
		body, err := os.ReadFile(filePath)
		if err != nil {
			return fmt.Errorf("reading %s: %w", filePath, err)
		}
		return s.ShowLocal(filePath, body)
	}

	if url == "" {
		url = cfg.General.Homepage
	}
	return s.Run(url)
}

// runPrint fetches one page, renders it unstyled, and writes it to
// stdout. Redirects are followed; anything interactive is an error.
func runPrint(url string) error {
	if url == "" {
		return fmt.Errorf("print mode needs a URL")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	client := newClient(cfg)

	width := 80
	if w, _, err := render.TerminalSize(); err == nil {
		width = w
	}

	target := gemini.Resolve(url, nil)
	var ctx *gemini.Context

	for redirects := 0; ; redirects++ {
		if redirects > 5 {
			return fmt.Errorf("too many redirects")
		}

		outcome, err := client.Fetch(target, ctx)
		if err != nil {
			return err
		}

		switch outcome.Kind {
		case gemini.OutcomeGemtext:
			lines, _ := gemtext.Render(outcome.Body, width, cfg.Display.Margin, gemtext.StyleSet{})
			for _, line := range lines {
				fmt.Println(line)
			}
			return nil
		case gemini.OutcomeRaw:
			os.Stdout.Write(outcome.Body)
			return nil
		case gemini.OutcomeRedirect:
			ctx = &gemini.Context{Host: target.Host, Path: target.Path}
			target = outcome.Target
		case gemini.OutcomeInput:
			return fmt.Errorf("%s wants input: %s", target.String(), outcome.Prompt)
		case gemini.OutcomeCertRequired:
			return fmt.Errorf("%s requires a client certificate (%d)", target.Host, outcome.Status)
		case gemini.OutcomeFailure:
			return fmt.Errorf("fetching %s failed (%d): %s", target.String(), outcome.Status, outcome.Detail)
		}
	}
}

// runHistory prints the most recent visit log entries.
func runHistory() error {
	path, err := config.VisitsPath()
	if err != nil {
		return fmt.Errorf("locating visit log: %w", err)
	}
	log, err := visits.Open(path)
	if err != nil {
		return err
	}
	defer log.Close()

	recent, err := log.Recent(25)
	if err != nil {
		return err
	}
	printVisits(os.Stdout, recent)
	return nil
}

func printVisits(w io.Writer, recent []visits.Visit) {
	for _, v := range recent {
		fmt.Fprintf(w, "%s  %2d  %s\n", v.FetchedAt.Format("2006-01-02 15:04"), v.Status, v.URL)
	}
}
