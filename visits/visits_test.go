package visits

import (
	"path/filepath"
	"testing"
)

func openTestLog(t *testing.T) *Log {
	t.Helper()
	l, err := Open(filepath.Join(t.TempDir(), "visits.db"))
	if err != nil {
		t.Fatalf("opening log: %v", err)
	}
	t.Cleanup(func() { l.Close() })
	return l
}

func TestRecordAndRecent(t *testing.T) {
	l := openTestLog(t)

	if err := l.Record("gemini://a/", 20, "text/gemini"); err != nil {
		t.Fatalf("recording: %v", err)
	}
	if err := l.Record("gemini://b/", 51, "not found"); err != nil {
		t.Fatalf("recording: %v", err)
	}

	visits, err := l.Recent(10)
	if err != nil {
		t.Fatalf("querying: %v", err)
	}
	if len(visits) != 2 {
		t.Fatalf("got %d visits, expected 2", len(visits))
	}
	// Newest first.
	if visits[0].URL != "gemini://b/" || visits[0].Status != 51 {
		t.Errorf("newest visit: got %+v", visits[0])
	}
	if visits[1].Meta != "text/gemini" {
		t.Errorf("meta not stored: got %+v", visits[1])
	}
}

func TestRecentLimit(t *testing.T) {
	l := openTestLog(t)
	for i := 0; i < 5; i++ {
		if err := l.Record("gemini://x/", 20, ""); err != nil {
			t.Fatalf("recording: %v", err)
		}
	}

	visits, err := l.Recent(3)
	if err != nil {
		t.Fatalf("querying: %v", err)
	}
	if len(visits) != 3 {
		t.Errorf("got %d visits, expected limit of 3", len(visits))
	}
}

func TestRecentEmpty(t *testing.T) {
	l := openTestLog(t)
	visits, err := l.Recent(10)
	if err != nil {
		t.Fatalf("querying: %v", err)
	}
	if len(visits) != 0 {
		t.Errorf("got %d visits, expected none", len(visits))
	}
}
