// Package sampler drives the periodic generation of simulated readings.
package sampler

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chrissnell/livetemp/internal/history"
	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	"go.uber.org/zap"
)

// State is the sampler's position in its two-state cycle
type State int32

const (
	// Idle is waiting for the next tick
	Idle State = iota
	// Sampling is generating and appending a reading
	Sampling
)

func (s State) String() string {
	if s == Sampling {
		return "sampling"
	}
	return "idle"
}

// Observer is notified after every reading is appended
type Observer interface {
	ObserveReading(r types.Reading, historyLen int)
}

// Sampler appends one generated reading to the history per interval
type Sampler struct {
	ctx                context.Context
	cancel             context.CancelFunc
	wg                 *sync.WaitGroup
	interval           time.Duration
	generator          *Generator
	history            *history.History
	ReadingDistributor chan<- types.Reading
	observer           Observer
	logger             *zap.SugaredLogger
	state              atomic.Int32
	ticks              atomic.Uint64
	dropped            atomic.Uint64
}

// New creates a Sampler.  distributor and observer may be nil.
func New(ctx context.Context, wg *sync.WaitGroup, c config.SamplerData, gen *Generator, h *history.History, distributor chan<- types.Reading, observer Observer, logger *zap.SugaredLogger) *Sampler {
	samplerCtx, cancel := context.WithCancel(ctx)

	interval := c.Interval
	if interval <= 0 {
		interval = config.DefaultInterval
	}

	return &Sampler{
		ctx:                samplerCtx,
		cancel:             cancel,
		wg:                 wg,
		interval:           interval,
		generator:          gen,
		history:            h,
		ReadingDistributor: distributor,
		observer:           observer,
		logger:             logger.Named("sampler"),
	}
}

// Start launches the sampling loop.  The first reading is taken immediately.
func (s *Sampler) Start() error {
	s.logger.Infow("Starting sampler",
		"interval", s.interval,
		"min", s.generator.Min,
		"max", s.generator.Max,
		"capacity", s.history.Capacity())

	s.wg.Add(1)
	go s.sampleLoop()

	return nil
}

// Stop ends the sampling loop
func (s *Sampler) Stop() error {
	s.logger.Info("Stopping sampler")
	s.cancel()
	return nil
}

// Interval returns the sampling period
func (s *Sampler) Interval() time.Duration {
	return s.interval
}

// State reports whether the sampler is idle or sampling
func (s *Sampler) State() State {
	return State(s.state.Load())
}

// Ticks returns the number of readings produced so far
func (s *Sampler) Ticks() uint64 {
	return s.ticks.Load()
}

// Dropped returns the number of readings the storage distributor could not take
func (s *Sampler) Dropped() uint64 {
	return s.dropped.Load()
}

func (s *Sampler) sampleLoop() {
	defer s.wg.Done()

	s.Tick()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			s.logger.Info("Sample loop stopped")
			return
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick performs one Idle -> Sampling -> Idle cycle and returns the new reading
func (s *Sampler) Tick() types.Reading {
	s.state.Store(int32(Sampling))
	defer s.state.Store(int32(Idle))

	r := s.generator.Next()
	s.history.Append(r)
	s.ticks.Add(1)

	if s.observer != nil {
		s.observer.ObserveReading(r, s.history.Len())
	}

	s.logger.Debugw("sampled reading", "temp", r.Value, "timestamp", r.FormattedTimestamp(), "flag", r.Flag)

	// Storage is best-effort: a backed-up distributor drops the reading rather
	// than stall the tick
	if s.ReadingDistributor != nil {
		select {
		case s.ReadingDistributor <- r:
		case <-s.ctx.Done():
		default:
			s.dropped.Add(1)
			s.logger.Warnw("storage distributor full; reading not archived", "timestamp", r.FormattedTimestamp())
		}
	}

	return r
}
