package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const timescaleTable = "livetemp_readings"

// TimescaleDBSource reads the hypertable written by the TimescaleDB storage engine
type TimescaleDBSource struct {
	pool *pgxpool.Pool
}

// NewTimescaleDBSource connects to the database named by connStr
func NewTimescaleDBSource(ctx context.Context, connStr string) (*TimescaleDBSource, error) {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &TimescaleDBSource{pool: pool}, nil
}

func (s *TimescaleDBSource) where(f Filter) (string, pgx.NamedArgs) {
	var clauses []string
	args := pgx.NamedArgs{}
	if f.SessionID != "" {
		clauses = append(clauses, "session_id = @session")
		args["session"] = f.SessionID
	}
	if !f.Since.IsZero() {
		clauses = append(clauses, "time >= @since")
		args["since"] = f.Since
	}
	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

// Count returns the number of readings matching f
func (s *TimescaleDBSource) Count(ctx context.Context, f Filter) (int64, error) {
	where, args := s.where(f)

	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM "+timescaleTable+where, args).Scan(&count)
	return count, err
}

// Scan calls fn for every reading matching f, oldest first
func (s *TimescaleDBSource) Scan(ctx context.Context, f Filter, fn func(Record) error) error {
	where, args := s.where(f)

	rows, err := s.pool.Query(ctx,
		"SELECT session_id::text, time, temp, flag FROM "+timescaleTable+where+" ORDER BY time", args)
	if err != nil {
		return fmt.Errorf("failed to execute query: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.SessionID, &r.Time, &r.Temp, &r.Flag); err != nil {
			return fmt.Errorf("failed to scan row: %w", err)
		}
		if err := fn(r); err != nil {
			return err
		}
	}

	if err := rows.Err(); err != nil {
		return fmt.Errorf("row iteration error: %w", err)
	}
	return nil
}

// Close releases the connection pool
func (s *TimescaleDBSource) Close() error {
	s.pool.Close()
	return nil
}
