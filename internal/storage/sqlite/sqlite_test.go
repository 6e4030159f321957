package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	"go.uber.org/zap"
)

func newTestStorage(t *testing.T, path string) *Storage {
	t.Helper()
	s, err := New(config.SQLiteData{
		Path:          path,
		Retention:     time.Hour,
		PruneSchedule: "@every 1h",
	}, types.NewSession(time.Now()), zap.NewNop().Sugar())
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return s
}

func TestStoreAndPrune(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, filepath.Join(t.TempDir(), "readings.db"))
	defer s.Close()

	base := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		r := types.Reading{
			Value:     70 + float64(i),
			Timestamp: base.Add(time.Duration(i) * time.Minute),
			Flag:      types.FlagCooler,
		}
		if err := s.StoreReading(ctx, r); err != nil {
			t.Fatalf("StoreReading() error: %v", err)
		}
	}

	n, err := s.Count(ctx)
	if err != nil || n != 5 {
		t.Fatalf("Count() = %d, %v; expected 5", n, err)
	}

	deleted, err := s.Prune(ctx, base.Add(2*time.Minute))
	if err != nil {
		t.Fatalf("Prune() error: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Prune() deleted %d, expected 2", deleted)
	}
	if n, _ := s.Count(ctx); n != 3 {
		t.Errorf("Count() after prune = %d, expected 3", n)
	}
}

func TestPruneExpiredUsesRetention(t *testing.T) {
	ctx := context.Background()
	s := newTestStorage(t, filepath.Join(t.TempDir(), "readings.db"))
	defer s.Close()

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	_ = s.StoreReading(ctx, types.Reading{Value: 80, Timestamp: now.Add(-2 * time.Hour)})
	_ = s.StoreReading(ctx, types.Reading{Value: 81, Timestamp: now.Add(-10 * time.Minute)})

	s.pruneExpired()

	if n, _ := s.Count(ctx); n != 1 {
		t.Errorf("Count() = %d after pruning a 1h retention, expected 1", n)
	}
}

func TestStorageEngineLoop(t *testing.T) {
	path := filepath.Join(t.TempDir(), "readings.db")
	s := newTestStorage(t, path)

	ctx, cancel := context.WithCancel(context.Background())
	var wg sync.WaitGroup
	c := s.StartStorageEngine(ctx, &wg)

	for i := 0; i < 3; i++ {
		c <- types.Reading{Value: 75, Timestamp: time.Now()}
	}

	// Wait for the engine to drain its channel before shutting it down
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if n, _ := s.Count(context.Background()); n == 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	cancel()
	wg.Wait()

	reopened := newTestStorage(t, path)
	defer reopened.Close()
	if n, err := reopened.Count(context.Background()); err != nil || n != 3 {
		t.Errorf("Count() after restart = %d, %v; expected 3", n, err)
	}
}

func TestInvalidPruneSchedule(t *testing.T) {
	_, err := New(config.SQLiteData{
		Path:          filepath.Join(t.TempDir(), "readings.db"),
		Retention:     time.Hour,
		PruneSchedule: "whenever",
	}, types.NewSession(time.Now()), zap.NewNop().Sugar())
	if err == nil {
		t.Error("expected an error for an invalid cron schedule")
	}
}
