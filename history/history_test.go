package history

import (
	"fmt"
	"testing"

	"lantern/gemini"
)

func target(path string) gemini.URL {
	return gemini.URL{Scheme: "gemini", Host: "h", Port: 1965, Path: path}
}

func TestPushDropsQuery(t *testing.T) {
	var s Stack
	s.Push(gemini.URL{Scheme: "gemini", Host: "h", Port: 1965, Path: "p", Query: "secret"})
	e, ok := s.Pop()
	if !ok {
		t.Fatal("expected an entry")
	}
	if e != (Entry{Scheme: "gemini", Host: "h", Port: 1965, Path: "p"}) {
		t.Errorf("got %+v, expected query-free tuple", e)
	}
}

func TestBackReturnsPreviousAttempt(t *testing.T) {
	var s Stack
	s.Push(target("one"))
	s.Push(target("two"))
	s.Push(target("three"))

	e, ok := s.Back()
	if !ok {
		t.Fatal("expected a back target")
	}
	if e.Path != "two" {
		t.Errorf("got %q, expected the entry beneath the top", e.Path)
	}
	if s.Depth() != 1 {
		t.Errorf("depth: got %d, expected 1 after popping two", s.Depth())
	}
}

func TestBackRepushRestoresDepth(t *testing.T) {
	// After N attempts and one back, the renavigation fetch re-pushes the
	// exposed entry, leaving the stack one shallower than before.
	const n = 5
	var s Stack
	for i := 0; i < n; i++ {
		s.Push(target(fmt.Sprintf("page%d", i)))
	}

	e, ok := s.Back()
	if !ok {
		t.Fatal("expected a back target")
	}
	if e.Path != fmt.Sprintf("page%d", n-2) {
		t.Errorf("got %q, expected the page before the current one", e.Path)
	}

	s.Push(e.URL()) // the renavigation fetch pushes again
	if s.Depth() != n-1 {
		t.Errorf("depth after refetch: got %d, expected %d", s.Depth(), n-1)
	}
}

func TestBackOnShallowStack(t *testing.T) {
	var s Stack
	if _, ok := s.Back(); ok {
		t.Error("back on empty stack should fail")
	}

	s.Push(target("only"))
	if _, ok := s.Back(); ok {
		t.Error("back with a single entry should fail")
	}
	if s.Depth() != 0 {
		t.Errorf("depth: got %d, expected 0", s.Depth())
	}
}

func TestEntryURL(t *testing.T) {
	e := Entry{Scheme: "gemini", Host: "h", Port: 7000, Path: "a/b"}
	u := e.URL()
	if u.String() != "gemini://h:7000/a/b" {
		t.Errorf("got %q, expected round trip to URL", u.String())
	}
}
