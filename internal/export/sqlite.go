package export

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteSource reads the archive written by the SQLite storage engine
type SQLiteSource struct {
	db *sql.DB
}

// NewSQLiteSource opens the archive at path
func NewSQLiteSource(path string) (*SQLiteSource, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %v: %w", path, err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to open %v: %w", path, err)
	}

	return &SQLiteSource{db: db}, nil
}

func (s *SQLiteSource) where(f Filter) (string, []any) {
	var clauses []string
	var args []any
	if f.SessionID != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, f.SessionID)
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "ts >= ?")
		args = append(args, f.Since.Unix())
	}
	if len(clauses) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Count returns the number of readings matching f
func (s *SQLiteSource) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := s.where(f)

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM readings"+where, args...).Scan(&count)
	return count, err
}

// Scan calls fn for every reading matching f, oldest first
func (s *SQLiteSource) Scan(ctx context.Context, f Filter, fn func(Record) error) error {
	where, args := s.where(f)

	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id, ts, temp, flag FROM readings"+where+" ORDER BY ts, id", args...)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r  Record
			ts int64
		)
		if err := rows.Scan(&r.SessionID, &ts, &r.Temp, &r.Flag); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		r.Time = time.Unix(ts, 0).UTC()
		if err := fn(r); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

// Close closes the database
func (s *SQLiteSource) Close() error {
	return s.db.Close()
}
