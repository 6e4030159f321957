// Package timescaledb archives readings into a TimescaleDB hypertable through GORM.
package timescaledb

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/chrissnell/livetemp/internal/database"
	"github.com/chrissnell/livetemp/internal/storage"
	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const createHypertableSQL = `SELECT create_hypertable('livetemp_readings', 'time', if_not_exists => TRUE, migrate_data => TRUE)`

// ReadingRecord is the row layout of the readings hypertable
type ReadingRecord struct {
	Time      time.Time `gorm:"column:time;not null;index"`
	SessionID string    `gorm:"column:session_id;type:uuid;not null;index"`
	Temp      float64   `gorm:"column:temp;not null"`
	Flag      string    `gorm:"column:flag;not null;default:''"`
}

// TableName implements the GORM Tabler interface for ReadingRecord
func (ReadingRecord) TableName() string {
	return "livetemp_readings"
}

// NewReadingRecord converts a reading into a row for the given session
func NewReadingRecord(session types.Session, r types.Reading) ReadingRecord {
	return ReadingRecord{
		Time:      r.Timestamp.UTC(),
		SessionID: session.ID.String(),
		Temp:      r.Value,
		Flag:      string(r.Flag),
	}
}

// Storage holds the configuration for a TimescaleDB storage backend
type Storage struct {
	TimescaleDBConn *gorm.DB
	session         types.Session
	logger          *zap.SugaredLogger
}

// New sets up a new TimescaleDB storage backend
func New(ctx context.Context, c config.TimescaleDBData, session types.Session, logger *zap.SugaredLogger) (*Storage, error) {
	t := &Storage{
		session: session,
		logger:  logger.Named("timescaledb"),
	}

	var err error
	t.TimescaleDBConn, err = database.CreateConnection(ctx, c.ConnectionString)
	if err != nil {
		return nil, err
	}

	t.logger.Info("migrating readings table...")
	if err := t.TimescaleDBConn.WithContext(ctx).AutoMigrate(&ReadingRecord{}); err != nil {
		return nil, fmt.Errorf("could not migrate readings table: %w", err)
	}

	// Plain PostgreSQL works too, the table just stays a regular table
	t.logger.Info("creating hypertable...")
	if err := t.TimescaleDBConn.WithContext(ctx).Exec(createHypertableSQL).Error; err != nil {
		t.logger.Warnw("could not create hypertable; is the timescaledb extension installed?", "error", err)
	}

	return t, nil
}

// StartStorageEngine creates a goroutine loop to receive readings and send
// them off to TimescaleDB
func (t *Storage) StartStorageEngine(ctx context.Context, wg *sync.WaitGroup) chan<- types.Reading {
	t.logger.Info("starting TimescaleDB storage engine...")
	readingChan := make(chan types.Reading, storage.ReadingBufferSize)

	wg.Add(1)
	go t.processReadings(ctx, wg, readingChan)
	return readingChan
}

func (t *Storage) processReadings(ctx context.Context, wg *sync.WaitGroup, rchan <-chan types.Reading) {
	defer wg.Done()
	defer t.close()

	for {
		select {
		case r := <-rchan:
			if err := t.StoreReading(ctx, r); err != nil {
				t.logger.Errorw("could not store reading", "error", err)
			}
		case <-ctx.Done():
			t.logger.Info("cancellation request received.  Cancelling readings processor.")
			return
		}
	}
}

// StoreReading stores a reading value in TimescaleDB
func (t *Storage) StoreReading(ctx context.Context, r types.Reading) error {
	rec := NewReadingRecord(t.session, r)
	return t.TimescaleDBConn.WithContext(ctx).Create(&rec).Error
}

func (t *Storage) close() {
	if sqlDB, err := t.TimescaleDBConn.DB(); err == nil {
		sqlDB.Close()
	}
}
