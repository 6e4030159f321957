// Package app assembles the sampler, the reading history, storage and the
// dashboard server into one running process.
package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/chrissnell/livetemp/internal/controllers/restserver"
	"github.com/chrissnell/livetemp/internal/history"
	"github.com/chrissnell/livetemp/internal/log"
	"github.com/chrissnell/livetemp/internal/managers"
	"github.com/chrissnell/livetemp/internal/metrics"
	"github.com/chrissnell/livetemp/internal/sampler"
	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	"go.uber.org/zap"
)

// App represents the main application
type App struct {
	config *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		config: cfg,
		logger: logger,
	}
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	var wg sync.WaitGroup

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	session := types.NewSession(time.Now())
	a.logger.Infow("starting session", "session_id", session.ID.String())

	h := history.New(a.config.History.Capacity)
	m := metrics.New()

	// Initialize the storage manager
	storageManager, err := managers.NewStorageManager(ctx, &wg, a.config.Storage, session, a.logger)
	if err != nil {
		cancel()
		wg.Wait()
		return err
	}

	// Initialize the sampler
	gen := sampler.NewGenerator(a.config.Sampler)
	s := sampler.New(ctx, &wg, a.config.Sampler, gen, h, storageManager.GetReadingDistributor(), m, a.logger)

	// Initialize the dashboard server
	rest, err := restserver.NewController(ctx, &wg, a.config, h, s, m, session, a.logger)
	if err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("could not create REST server: %w", err)
	}
	if err := rest.StartController(); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("could not start REST server: %w", err)
	}

	if err := s.Start(); err != nil {
		cancel()
		wg.Wait()
		return fmt.Errorf("could not start sampler: %w", err)
	}

	log.Info("Application started successfully")

	// Set up signal handling
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigs)

	// Wait for shutdown signal
	select {
	case <-sigs:
		log.Info("shutdown signal received, initiating graceful shutdown...")
	case <-ctx.Done():
		log.Info("context cancelled, shutting down...")
	}

	// Cancel context to signal all goroutines to stop
	cancel()

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	wg.Wait()
	log.Infof("shutdown complete after %d readings", s.Ticks())

	return nil
}
