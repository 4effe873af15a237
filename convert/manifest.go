package convert

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// ManifestFile is the manifest's name inside the cache directory.
const ManifestFile = "manifest.db"

// Entry records one conversion.
type Entry struct {
	Source      string
	Derived     string
	Fingerprint Fingerprint
	ConvertedAt time.Time
}

// Manifest is the cache's record of what was converted from what.
type Manifest struct {
	db   *sql.DB
	path string
}

// OpenManifest opens (creating if needed) the manifest database at path.
func OpenManifest(path string) (*Manifest, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("create manifest directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open manifest: %w", err)
	}
	pragmas := []string{
		"PRAGMA busy_timeout=5000", // first, so later statements wait on locks
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("set %s: %w", p, err)
		}
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("init manifest schema: %w", err)
	}
	return &Manifest{db: db, path: path}, nil
}

// Close closes the database connection.
func (m *Manifest) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}

// Put records e, replacing any earlier entry for the same source.
func (m *Manifest) Put(ctx context.Context, e Entry) error {
	query := `INSERT OR REPLACE INTO conversions
		(source, derived, fingerprint, size, mtime, converted_at)
		VALUES (?, ?, ?, ?, ?, ?)`
	_, err := m.db.ExecContext(ctx, query,
		e.Source,
		e.Derived,
		e.Fingerprint.Sum,
		e.Fingerprint.Size,
		e.Fingerprint.ModTime.UnixNano(),
		e.ConvertedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("record conversion: %w", err)
	}
	return nil
}

// Get returns the entry for source, or (nil, nil) if none was recorded.
func (m *Manifest) Get(ctx context.Context, source string) (*Entry, error) {
	query := `SELECT source, derived, fingerprint, size, mtime, converted_at
		FROM conversions WHERE source = ?`
	e, err := scanEntry(m.db.QueryRowContext(ctx, query, source))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query conversion: %w", err)
	}
	return e, nil
}

// List returns every entry ordered by source path.
func (m *Manifest) List(ctx context.Context) ([]*Entry, error) {
	query := `SELECT source, derived, fingerprint, size, mtime, converted_at
		FROM conversions ORDER BY source`
	rows, err := m.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query conversions: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversion: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Delete forgets source.
func (m *Manifest) Delete(ctx context.Context, source string) error {
	if _, err := m.db.ExecContext(ctx, `DELETE FROM conversions WHERE source = ?`, source); err != nil {
		return fmt.Errorf("delete conversion: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*Entry, error) {
	var (
		e     Entry
		mtime int64
	)
	err := s.Scan(&e.Source, &e.Derived, &e.Fingerprint.Sum, &e.Fingerprint.Size, &mtime, &e.ConvertedAt)
	if err != nil {
		return nil, err
	}
	e.Fingerprint.ModTime = time.Unix(0, mtime)
	return &e, nil
}
