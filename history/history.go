// Package history keeps the in-memory stack of attempted navigations.
package history

import "lantern/gemini"

// Entry is the stored 4-tuple of a navigation target; the query is
// dropped on push.
type Entry struct {
	Scheme string
	Host   string
	Port   int
	Path   string
}

// URL converts the entry back into a fetchable target.
func (e Entry) URL() gemini.URL {
	return gemini.URL{Scheme: e.Scheme, Host: e.Host, Port: e.Port, Path: e.Path}
}

// Stack is an append-only stack of navigation attempts. Every attempt is
// pushed before its outcome is known, so the top entry is always the
// most recent attempt, successful or not.
type Stack struct {
	entries []Entry
}

// Push records a navigation attempt.
func (s *Stack) Push(u gemini.URL) {
	s.entries = append(s.entries, Entry{
		Scheme: u.Scheme,
		Host:   u.Host,
		Port:   u.Port,
		Path:   u.Path,
	})
}

// Pop removes and returns the top entry.
func (s *Stack) Pop() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	return top, true
}

// Back pops the current attempt and the entry beneath it, returning the
// latter as the renavigation target. The caller's subsequent fetch
// pushes that entry again, which is what restores the stack depth.
func (s *Stack) Back() (Entry, bool) {
	if _, ok := s.Pop(); !ok {
		return Entry{}, false
	}
	return s.Pop()
}

// Depth returns the number of stacked entries.
func (s *Stack) Depth() int {
	return len(s.entries)
}
