// Package config provides configuration loading for Lantern using TOML.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Display settings
type Display struct {
	Margin               int  `json:"margin"` // Horizontal padding in cells
	ShowScrollPercentage bool `json:"showScrollPercentage"`
	ShowUrl              bool `json:"showUrl"`
}

// General browsing settings
type General struct {
	Homepage string `json:"homepage"`
}

// Network settings
type Network struct {
	TimeoutSeconds int `json:"timeoutSeconds"` // 0 disables the deadline
}

// Log settings
type Log struct {
	DebugLog bool `json:"debugLog"` // Append slog diagnostics to debug.log
	VisitLog bool `json:"visitLog"` // Record responses in visits.db
}

// Keybindings configuration, one single-character binding per command.
type Keybindings struct {
	Quit           string `json:"quit"`
	Open           string `json:"open"`
	GotoLink       string `json:"gotoLink"`
	Refresh        string `json:"refresh"`
	Back           string `json:"back"`
	Home           string `json:"home"`
	GoUp           string `json:"goUp"`
	SetBookmark    string `json:"setBookmark"`
	GotoBookmark   string `json:"gotoBookmark"`
	DeleteBookmark string `json:"deleteBookmark"`
}

// Styles holds one ANSI style string per rendering category.
type Styles struct {
	Header1    string `json:"header1"`
	Header2    string `json:"header2"`
	Header3    string `json:"header3"`
	Quote      string `json:"quote"`
	LinkBullet string `json:"linkBullet"`
	LinkText   string `json:"linkText"`
	ListBullet string `json:"listBullet"`
	ListText   string `json:"listText"`
}

// Config is the main configuration struct
type Config struct {
	Display     Display     `json:"display"`
	General     General     `json:"general"`
	Network     Network     `json:"network"`
	Log         Log         `json:"log"`
	Keybindings Keybindings `json:"keybindings"`
	Styles      Styles      `json:"styles"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Display: Display{
			Margin:               2,
			ShowScrollPercentage: true,
			ShowUrl:              true,
		},
		General: General{
			Homepage: "gemini://geminiprotocol.net/",
		},
		Network: Network{
			TimeoutSeconds: 30,
		},
		Log: Log{
			DebugLog: false,
			VisitLog: true,
		},
		Keybindings: Keybindings{
			Quit:           "q",
			Open:           "o",
			GotoLink:       "f",
			Refresh:        "r",
			Back:           "b",
			Home:           "h",
			GoUp:           "u",
			SetBookmark:    "m",
			GotoBookmark:   "'",
			DeleteBookmark: "x",
		},
		Styles: Styles{
			Header1:    "\033[1;36m",
			Header2:    "\033[1;34m",
			Header3:    "\033[4;34m",
			Quote:      "\033[3;32m",
			LinkBullet: "\033[35m",
			LinkText:   "\033[4;35m",
			ListBullet: "\033[33m",
			ListText:   "\033[0m",
		},
	}
}

// configDir returns the configuration directory path.
func configDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".config", "lantern"), nil
}

// ConfigPath returns the path to the user's config file.
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// BookmarksPath returns the path to the bookmark list.
func BookmarksPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "bookmarks"), nil
}

// CertDir returns the directory holding per-host client certificates.
func CertDir() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "certs"), nil
}

// VisitsPath returns the path to the visit log database.
func VisitsPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "visits.db"), nil
}

// DebugLogPath returns the path of the diagnostic log file.
func DebugLogPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "debug.log"), nil
}

// Load loads configuration, layering user config on top of defaults.
// Returns the default config if no user config exists. A config file that
// fails to parse is an error; malformed values are not validated beyond
// what the TOML decoder enforces.
func Load() (*Config, error) {
	cfg := Default()

	configPath, err := ConfigPath()
	if err != nil {
		return cfg, nil // Return defaults if we can't determine path
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil // Return defaults if no user config
	}

	userCfg, md, err := loadFromTOML(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
	}

	return merge(cfg, userCfg, md), nil
}

// loadFromTOML loads a TOML config file and returns the config along
// with the decoder metadata, which records which keys the file set.
func loadFromTOML(path string) (*Config, toml.MetaData, error) {
	var cfg Config
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, md, fmt.Errorf("parsing config TOML: %w", err)
	}
	return &cfg, md, nil
}

// merge layers user config on top of defaults. A value overrides only
// when its key appears in the file, so zero values like margin = 0,
// timeoutSeconds = 0 or visitLog = false are honored.
func merge(defaults, user *Config, md toml.MetaData) *Config {
	result := *defaults

	// Display
	if defined(md, "display", "margin") {
		result.Display.Margin = user.Display.Margin
	}
	if defined(md, "display", "showScrollPercentage") {
		result.Display.ShowScrollPercentage = user.Display.ShowScrollPercentage
	}
	if defined(md, "display", "showUrl") {
		result.Display.ShowUrl = user.Display.ShowUrl
	}

	// Log
	if defined(md, "log", "debugLog") {
		result.Log.DebugLog = user.Log.DebugLog
	}
	if defined(md, "log", "visitLog") {
		result.Log.VisitLog = user.Log.VisitLog
	}

	// General
	if user.General.Homepage != "" {
		result.General.Homepage = user.General.Homepage
	}

	// Network
	if defined(md, "network", "timeoutSeconds") {
		result.Network.TimeoutSeconds = user.Network.TimeoutSeconds
	}

	// Keybindings - override each if set
	mergeKeybinding(&result.Keybindings.Quit, user.Keybindings.Quit)
	mergeKeybinding(&result.Keybindings.Open, user.Keybindings.Open)
	mergeKeybinding(&result.Keybindings.GotoLink, user.Keybindings.GotoLink)
	mergeKeybinding(&result.Keybindings.Refresh, user.Keybindings.Refresh)
	mergeKeybinding(&result.Keybindings.Back, user.Keybindings.Back)
	mergeKeybinding(&result.Keybindings.Home, user.Keybindings.Home)
	mergeKeybinding(&result.Keybindings.GoUp, user.Keybindings.GoUp)
	mergeKeybinding(&result.Keybindings.SetBookmark, user.Keybindings.SetBookmark)
	mergeKeybinding(&result.Keybindings.GotoBookmark, user.Keybindings.GotoBookmark)
	mergeKeybinding(&result.Keybindings.DeleteBookmark, user.Keybindings.DeleteBookmark)

	// Styles - override each if set
	mergeKeybinding(&result.Styles.Header1, user.Styles.Header1)
	mergeKeybinding(&result.Styles.Header2, user.Styles.Header2)
	mergeKeybinding(&result.Styles.Header3, user.Styles.Header3)
	mergeKeybinding(&result.Styles.Quote, user.Styles.Quote)
	mergeKeybinding(&result.Styles.LinkBullet, user.Styles.LinkBullet)
	mergeKeybinding(&result.Styles.LinkText, user.Styles.LinkText)
	mergeKeybinding(&result.Styles.ListBullet, user.Styles.ListBullet)
	mergeKeybinding(&result.Styles.ListText, user.Styles.ListText)

	return &result
}

func mergeKeybinding(dst *string, src string) {
	if src != "" {
		*dst = src
	}
}

// defined reports whether the file set section.key. The decoder matches
// struct fields case-insensitively, so the presence check does too.
func defined(md toml.MetaData, section, key string) bool {
	for _, k := range md.Keys() {
		if len(k) == 2 && strings.EqualFold(k[0], section) && strings.EqualFold(k[1], key) {
			return true
		}
	}
	return false
}

// DefaultTOML returns the default configuration as a TOML string.
// Used for --init-config to generate a user config file.
func DefaultTOML() string {
	return `# Lantern configuration
# Save to ~/.config/lantern/config.toml and customize
# Only include settings you want to change from defaults

# Display settings
[display]
margin = 2                    # Horizontal padding in cells
showScrollPercentage = true   # Show scroll percentage in status bar
showUrl = true                # Show URL in status bar

# General browsing settings
[general]
homepage = "gemini://geminiprotocol.net/"

# Network settings
[network]
timeoutSeconds = 30           # Dial and read deadline (0 = no timeout)

# Log settings
[log]
debugLog = false              # Append diagnostics to ~/.config/lantern/debug.log
visitLog = true               # Record responses in ~/.config/lantern/visits.db

# Keybindings - one character per command
[keybindings]
quit = "q"
open = "o"                    # Prompt for a URL
gotoLink = "f"                # Prompt for a link number
refresh = "r"
back = "b"
home = "h"
goUp = "u"                    # Strip the last path segment
setBookmark = "m"
gotoBookmark = "'"
deleteBookmark = "x"

# ANSI styles per rendering category
[styles]
header1 = "\u001B[1;36m"
header2 = "\u001B[1;34m"
header3 = "\u001B[4;34m"
quote = "\u001B[3;32m"
linkBullet = "\u001B[35m"
linkText = "\u001B[4;35m"
listBullet = "\u001B[33m"
listText = "\u001B[0m"
`
}

// MatchSingle is a simple helper for single-char bindings.
func MatchSingle(input byte, binding string) bool {
	return len(binding) == 1 && input == binding[0]
}
