// Package sqlite archives readings to a local SQLite database and prunes them on a schedule.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/livetemp/internal/storage"
	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

// Storage holds the configuration for a SQLite storage backend
type Storage struct {
	db        *sql.DB
	session   types.Session
	retention time.Duration
	scheduler *cron.Cron
	logger    *zap.SugaredLogger
	now       func() time.Time
}

// New opens (or creates) the database, runs migrations and registers the prune job
func New(c config.SQLiteData, session types.Session, logger *zap.SugaredLogger) (*Storage, error) {
	db, err := sql.Open("sqlite", c.Path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// WAL lets readers query the archive while the engine writes
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	s := &Storage{
		db:        db,
		session:   session,
		retention: c.Retention,
		scheduler: cron.New(),
		logger:    logger.Named("sqlite").With("path", c.Path),
		now:       time.Now,
	}

	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	if s.retention > 0 && c.PruneSchedule != "" {
		if _, err := s.scheduler.AddFunc(c.PruneSchedule, s.pruneExpired); err != nil {
			db.Close()
			return nil, fmt.Errorf("register prune job %q: %w", c.PruneSchedule, err)
		}
	}

	s.logger.Info("sqlite archive opened")
	return s, nil
}

func (s *Storage) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS readings (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			session_id TEXT    NOT NULL,
			ts         INTEGER NOT NULL,
			temp       REAL    NOT NULL,
			flag       TEXT    NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_readings_ts ON readings(ts)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// StartStorageEngine creates a goroutine loop to receive readings and write
// them to the archive
func (s *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Reading {
	s.logger.Info("starting SQLite storage engine...")
	readingChan := make(chan types.Reading, storage.ReadingBufferSize)
	s.scheduler.Start()

	wg.Add(1)
	go s.processReadings(ctx, wg, readingChan)
	return readingChan
}

func (s *Storage) processReadings(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.Reading) {
	defer wg.Done()
	defer s.Close()

	for {
		select {
		case r := <-rchan:
			if err := s.StoreReading(ctx, r); err != nil {
				s.logger.Errorw("could not store reading", "error", err)
			}
		case <-ctx.Done():
			s.logger.Info("cancellation request received.  Cancelling readings processor.")
			return
		}
	}
}

// StoreReading inserts one reading tagged with the current session
func (s *Storage) StoreReading(ctx context.Context, r types.Reading) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO readings (session_id, ts, temp, flag) VALUES (?, ?, ?, ?)`,
		s.session.ID.String(), r.Timestamp.Unix(), r.Value, string(r.Flag))
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

// Count returns the number of archived readings
func (s *Storage) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM readings`).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Prune deletes readings captured before the cutoff and returns how many were removed
func (s *Storage) Prune(ctx context.Context, before time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM readings WHERE ts < ?`, before.Unix())
	if err != nil {
		return 0, fmt.Errorf("prune readings: %w", err)
	}
	return res.RowsAffected()
}

func (s *Storage) pruneExpired() {
	cutoff := s.now().Add(-s.retention)
	n, err := s.Prune(context.Background(), cutoff)
	if err != nil {
		s.logger.Errorw("prune failed", "error", err)
		return
	}
	if n > 0 {
		s.logger.Infow("pruned expired readings", "deleted", n, "cutoff", cutoff)
	}
}

// Close stops the prune scheduler and closes the database
func (s *Storage) Close() error {
	<-s.scheduler.Stop().Done()
	return s.db.Close()
}
