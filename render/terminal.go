package render

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
	"golang.org/x/term"
)

// Terminal handles raw mode and screen control.
type Terminal struct {
	fd       int
	original unix.Termios
}

// NewTerminal creates a terminal controller for the given file.
func NewTerminal(f *os.File) (*Terminal, error) {
	fd := int(f.Fd())
	termios, err := unix.IoctlGetTermios(fd, ioctlGetTermios)
	if err != nil {
		return nil, fmt.Errorf("reading terminal attributes: %w", err)
	}
	return &Terminal{fd: fd, original: *termios}, nil
}

// EnterRawMode puts the terminal into raw mode for direct character input:
// unbuffered, non-echoing, one byte at a time.
func (t *Terminal) EnterRawMode() error {
	raw := t.original
	raw.Iflag &^= unix.BRKINT | unix.ICRNL | unix.INPCK | unix.ISTRIP | unix.IXON
	raw.Cflag |= unix.CS8
	raw.Lflag &^= unix.ECHO | unix.ICANON | unix.IEXTEN | unix.ISIG
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0
	return unix.IoctlSetTermios(t.fd, ioctlSetTermios, &raw)
}

// RestoreMode restores the original terminal mode. Line prompts rely on
// this to re-enable buffered, echoed input for a single read.
func (t *Terminal) RestoreMode() error {
	return unix.IoctlSetTermios(t.fd, ioctlSetTermios, &t.original)
}

// ReadSecret reads a line without echoing it, for sensitive input.
func (t *Terminal) ReadSecret() (string, error) {
	b, err := term.ReadPassword(t.fd)
	if err != nil {
		return "", fmt.Errorf("reading secret input: %w", err)
	}
	return string(b), nil
}

// TerminalSize returns the terminal dimensions in columns and rows.
func TerminalSize() (width, height int, err error) {
	ws, err := unix.IoctlGetWinsize(int(os.Stdout.Fd()), unix.TIOCGWINSZ)
	if err != nil {
		return 0, 0, fmt.Errorf("querying terminal size: %w", err)
	}
	return int(ws.Col), int(ws.Row), nil
}

const (
	ClearScreen    = "\033[2J"
	ClearLine      = "\033[2K"
	CursorHome     = "\033[H"
	CursorHide     = "\033[?25l"
	CursorShow     = "\033[?25h"
	AltScreenEnter = "\033[?1049h"
	AltScreenExit  = "\033[?1049l"
)

// EnterAltScreen switches to the alternate screen buffer.
func EnterAltScreen(f *os.File) {
	f.WriteString(AltScreenEnter + CursorHide + ClearScreen)
}

// ExitAltScreen returns to the main screen buffer.
func ExitAltScreen(f *os.File) {
	f.WriteString(CursorShow + AltScreenExit)
}
