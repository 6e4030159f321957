package restserver

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/chrissnell/livetemp/internal/history"
	"github.com/chrissnell/livetemp/internal/log"
	"github.com/chrissnell/livetemp/internal/metrics"
	"github.com/chrissnell/livetemp/internal/sampler"
	"github.com/chrissnell/livetemp/internal/types"
	"github.com/chrissnell/livetemp/pkg/config"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"go.uber.org/zap"
)

const shutdownTimeout = 5 * time.Second

// SamplerStatus is the view of the sampler the status endpoint reports on
type SamplerStatus interface {
	State() sampler.State
	Ticks() uint64
	Interval() time.Duration
}

// Controller represents the REST server controller
type Controller struct {
	ctx           context.Context
	wg            *sync.WaitGroup
	restConfig    config.RESTServerData
	dashboard     config.DashboardData
	samplerConfig config.SamplerData
	Server        http.Server
	FS            fs.FS
	history       *history.History
	status        SamplerStatus
	metrics       *metrics.Metrics
	session       types.Session
	logger        *zap.SugaredLogger
	handlers      *Handlers
	now           func() time.Time
}

// NewController creates a new REST server controller
func NewController(ctx context.Context, wg *sync.WaitGroup, cfg *config.ConfigData, h *history.History, status SamplerStatus, m *metrics.Metrics, session types.Session, logger *zap.SugaredLogger) (*Controller, error) {
	if h == nil {
		return nil, fmt.Errorf("REST server requires a reading history")
	}

	ctrl := &Controller{
		ctx:           ctx,
		wg:            wg,
		restConfig:    cfg.RESTServer,
		dashboard:     cfg.Dashboard,
		samplerConfig: cfg.Sampler,
		history:       h,
		status:        status,
		metrics:       m,
		session:       session,
		logger:        logger.Named("restserver"),
		now:           time.Now,
	}

	rc := &ctrl.restConfig

	// If a ListenAddr was not provided, listen on all interfaces
	if rc.ListenAddr == "" {
		ctrl.logger.Info("rest.listen-addr not provided; defaulting to 0.0.0.0 (all interfaces)")
		rc.ListenAddr = config.DefaultListenAddr
	}

	// Set default HTTP port if not specified
	if rc.HTTPPort == 0 {
		ctrl.logger.Infof("rest.http-port not provided; defaulting to %d", config.DefaultHTTPPort)
		rc.HTTPPort = config.DefaultHTTPPort
	}

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	// Set up filesystem for assets
	ctrl.FS = GetAssets()

	ctrl.Server.Addr = fmt.Sprintf("%v:%v", rc.ListenAddr, rc.HTTPPort)
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadHeaderTimeout = 10 * time.Second

	return ctrl, nil
}

// StartController starts the REST server
func (c *Controller) StartController() error {
	c.logger.Infow("Starting REST server controller...", "addr", c.Server.Addr)
	c.wg.Add(2)

	go func() {
		defer c.wg.Done()

		var err error
		if c.restConfig.TLSCertPath != "" && c.restConfig.TLSKeyPath != "" {
			err = c.Server.ListenAndServeTLS(c.restConfig.TLSCertPath, c.restConfig.TLSKeyPath)
		} else {
			err = c.Server.ListenAndServe()
		}
		if err != http.ErrServerClosed {
			c.logger.Errorf("REST server error: %v", err)
		}
	}()

	go func() {
		defer c.wg.Done()
		<-c.ctx.Done()
		c.logger.Info("Shutting down the REST server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := c.Server.Shutdown(shutdownCtx); err != nil {
			c.logger.Warnf("REST server shutdown: %v", err)
		}
	}()

	return nil
}

// setupRouter configures the HTTP router with all endpoints and wraps it in the
// common middleware
func (c *Controller) setupRouter() http.Handler {
	router := mux.NewRouter()

	// API endpoints
	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/history", c.handlers.GetHistory).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/latest", c.handlers.GetLatest).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/plot", c.handlers.GetPlot).Methods(http.MethodGet, http.MethodHead)
	api.HandleFunc("/status", c.handlers.GetStatus).Methods(http.MethodGet, http.MethodHead)
	api.PathPrefix("/").HandlerFunc(c.handlers.NotFound)

	if c.metrics != nil {
		router.Handle("/metrics", c.metrics.Handler())
	}

	// Template endpoints
	router.HandleFunc("/", c.handlers.ServeIndexTemplate)
	router.HandleFunc("/js/dashboard.js", c.handlers.ServeDashboardJS)

	// Static file serving.  Templates live alongside the stylesheets in the asset
	// tree, so only the css subtree is exposed.
	router.PathPrefix("/css/").Handler(http.FileServer(http.FS(c.FS)))

	logged := handlers.CustomLoggingHandler(io.Discard, router, c.logRequest)
	compressed := handlers.CompressHandler(logged)
	return handlers.RecoveryHandler(
		handlers.RecoveryLogger(zap.NewStdLog(c.logger.Desugar())),
	)(compressed)
}

// logRequest is the access-log formatter: one zap line plus a request counter per request
func (c *Controller) logRequest(_ io.Writer, p handlers.LogFormatterParams) {
	log.LogHTTPRequest(log.HTTPLogEntry{
		Timestamp:  p.TimeStamp,
		Method:     p.Request.Method,
		Path:       p.URL.Path,
		Status:     p.StatusCode,
		Duration:   time.Since(p.TimeStamp),
		Size:       p.Size,
		RemoteAddr: p.Request.RemoteAddr,
		UserAgent:  p.Request.UserAgent(),
	})

	if c.metrics != nil {
		c.metrics.ObserveHTTPRequest(routeLabel(p.URL.Path), p.StatusCode)
	}
}

// routeLabel bounds the cardinality of the path label
func routeLabel(path string) string {
	switch path {
	case "/", "/api/history", "/api/latest", "/api/plot", "/api/status", "/metrics", "/js/dashboard.js":
		return path
	}
	return "other"
}
