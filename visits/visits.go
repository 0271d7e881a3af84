// Package visits records fetched responses in a local SQLite database.
package visits

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Visit is one recorded response.
type Visit struct {
	FetchedAt time.Time
	URL       string
	Status    int
	Meta      string
}

// Log is the persistent visit log.
type Log struct {
	db *sql.DB
}

// Open opens or creates the visit database at path.
func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("creating visit log directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening visit database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS visits (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		fetched_at TIMESTAMP NOT NULL,
		url TEXT NOT NULL,
		status INTEGER NOT NULL,
		meta TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_visits_fetched_at ON visits(fetched_at);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating visit schema: %w", err)
	}

	return &Log{db: db}, nil
}

// Record stores one response.
func (l *Log) Record(url string, status int, meta string) error {
	_, err := l.db.Exec(
		"INSERT INTO visits (fetched_at, url, status, meta) VALUES (?, ?, ?, ?)",
		time.Now(), url, status, meta,
	)
	if err != nil {
		return fmt.Errorf("recording visit: %w", err)
	}
	return nil
}

// Recent returns up to n visits, newest first.
func (l *Log) Recent(n int) ([]Visit, error) {
	rows, err := l.db.Query(
		"SELECT fetched_at, url, status, meta FROM visits ORDER BY id DESC LIMIT ?", n)
	if err != nil {
		return nil, fmt.Errorf("querying visits: %w", err)
	}
	defer rows.Close()

	var visits []Visit
	for rows.Next() {
		var v Visit
		var meta sql.NullString
		if err := rows.Scan(&v.FetchedAt, &v.URL, &v.Status, &meta); err != nil {
			return nil, fmt.Errorf("scanning visit: %w", err)
		}
		v.Meta = meta.String
		visits = append(visits, v)
	}
	return visits, rows.Err()
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}
