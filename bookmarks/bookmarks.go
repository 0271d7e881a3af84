// Package bookmarks provides the persistent bookmark list: plain text,
// one bookmark per line, URL first and an optional description after it.
package bookmarks

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Bookmark is one saved entry.
type Bookmark struct {
	URL         string
	Description string
}

// Store manages the bookmark collection. Uniqueness is not enforced.
type Store struct {
	path    string
	entries []Bookmark
}

// Load reads bookmarks from path. A missing file yields an empty store.
func Load(path string) (*Store, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading bookmarks: %w", err)
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		url, desc, _ := strings.Cut(line, " ")
		s.entries = append(s.entries, Bookmark{URL: url, Description: desc})
	}
	return s, nil
}

// Save writes the store back to disk, creating parent directories.
func (s *Store) Save() error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("creating bookmark directory: %w", err)
	}

	var sb strings.Builder
	for _, b := range s.entries {
		sb.WriteString(b.URL)
		if b.Description != "" {
			sb.WriteByte(' ')
			sb.WriteString(b.Description)
		}
		sb.WriteByte('\n')
	}
	if err := os.WriteFile(s.path, []byte(sb.String()), 0644); err != nil {
		return fmt.Errorf("writing bookmarks: %w", err)
	}
	return nil
}

// Add appends a bookmark. Duplicates are allowed.
func (s *Store) Add(url, description string) {
	s.entries = append(s.entries, Bookmark{URL: url, Description: description})
}

// Delete removes every bookmark whose URL matches the given prefix,
// case-insensitively, and returns how many were removed.
func (s *Store) Delete(urlPrefix string) int {
	prefix := strings.ToLower(urlPrefix)
	kept := s.entries[:0]
	removed := 0
	for _, b := range s.entries {
		if strings.HasPrefix(strings.ToLower(b.URL), prefix) {
			removed++
			continue
		}
		kept = append(kept, b)
	}
	s.entries = kept
	return removed
}

// All returns the bookmarks in insertion order.
func (s *Store) All() []Bookmark {
	return s.entries
}

// Len returns the number of bookmarks.
func (s *Store) Len() int {
	return len(s.entries)
}
