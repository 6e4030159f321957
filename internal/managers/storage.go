// Package managers wires the configured storage engines to the sampler.
package managers

import (
	"context"
	"fmt"
	"sync"

	"github.com/chrissnell/livetemp/internal/storage"
	"github.com/chrissnell/livetemp/internal/storage/mqtt"
	"github.com/chrissnell/livetemp/internal/storage/sqlite"
	"github.com/chrissnell/livetemp/internal/storage/timescaledb"
	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	"go.uber.org/zap"
)

// StorageManager holds our active storage backends
type StorageManager struct {
	Engines            []StorageEngine
	ReadingDistributor chan types.Reading

	ctx     context.Context
	wg      *sync.WaitGroup
	session types.Session
	logger  *zap.SugaredLogger
}

// StorageEngine holds a backend storage engine's interface as well as
// a channel for passing readings to the engine
type StorageEngine struct {
	Name   string
	Engine storage.StorageEngineInterface
	C      chan<- types.Reading
}

// NewStorageManager creates a StorageManager object, populated with all configured StorageEngines
func NewStorageManager(ctx context.Context, wg *sync.WaitGroup, c config.StorageData, session types.Session, logger *zap.SugaredLogger) (*StorageManager, error) {
	s := newStorageManager(ctx, wg, session, logger)

	if c.SQLite != nil {
		engine, err := sqlite.New(*c.SQLite, session, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add SQLite storage backend: %w", err)
		}
		s.AddEngine("sqlite", engine)
	}

	if c.TimescaleDB != nil {
		engine, err := timescaledb.New(ctx, *c.TimescaleDB, session, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add TimescaleDB storage backend: %w", err)
		}
		s.AddEngine("timescaledb", engine)
	}

	if c.MQTT != nil {
		engine, err := mqtt.New(*c.MQTT, session, logger)
		if err != nil {
			return nil, fmt.Errorf("could not add MQTT storage backend: %w", err)
		}
		s.AddEngine("mqtt", engine)
	}

	// Start our reading distributor to distribute received readings to storage
	// backends
	s.wg.Add(1)
	go s.startReadingDistributor()

	return s, nil
}

func newStorageManager(ctx context.Context, wg *sync.WaitGroup, session types.Session, logger *zap.SugaredLogger) *StorageManager {
	return &StorageManager{
		// Initialize our channel for passing readings to the reading distributor
		ReadingDistributor: make(chan types.Reading, 20),
		ctx:                ctx,
		wg:                 wg,
		session:            session,
		logger:             logger.Named("storage"),
	}
}

// GetReadingDistributor returns the reading distributor channel
func (s *StorageManager) GetReadingDistributor() chan types.Reading {
	return s.ReadingDistributor
}

// AddEngine starts an engine and adds it to the fan-out list.  Engines must be
// added before the distributor starts.
func (s *StorageManager) AddEngine(name string, engine storage.StorageEngineInterface) {
	s.Engines = append(s.Engines, StorageEngine{
		Name:   name,
		Engine: engine,
		C:      engine.StartStorageEngine(s.ctx, s.wg),
	})
	s.logger.Infof("storage engine [%s] enabled", name)
}

// startReadingDistributor receives readings from the sampler and fans them out to the various
// storage backends
func (s *StorageManager) startReadingDistributor() {
	defer s.wg.Done()

	for {
		select {
		case r := <-s.ReadingDistributor:
			for _, e := range s.Engines {
				// A stalled engine loses readings; it never holds up the others
				select {
				case e.C <- r:
				default:
					s.logger.Warnw("storage engine is not keeping up; reading dropped",
						"engine", e.Name, "timestamp", r.FormattedTimestamp())
				}
			}
		case <-s.ctx.Done():
			return
		}
	}
}
