// Package server wires the scraper, storage, planner, and HTTP API into a
// running service with scheduled background refreshes.
package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/bwalsh/vt-nutrition/internal/api"
	"github.com/bwalsh/vt-nutrition/internal/config"
	"github.com/bwalsh/vt-nutrition/internal/logger"
	"github.com/bwalsh/vt-nutrition/internal/mealplan"
	"github.com/bwalsh/vt-nutrition/internal/menu"
	"github.com/bwalsh/vt-nutrition/internal/scraper"
	"github.com/bwalsh/vt-nutrition/internal/storage"
)

// DefaultRefreshInterval is how often the background scheduler re-scrapes.
const DefaultRefreshInterval = 24 * time.Hour

// shutdownTimeout bounds how long in-flight requests get to finish.
const shutdownTimeout = 10 * time.Second

// Server owns the current snapshot and serves it over HTTP. Snapshot
// replacement is atomic under an RWMutex; scrapes are serialized so only
// one runs at a time regardless of how it was triggered.
type Server struct {
	cfg     *config.Config
	store   *storage.Storage
	scraper *scraper.Scraper
	planner *mealplan.Planner

	mu       sync.RWMutex
	snapshot *menu.Snapshot

	// scrapeMu is try-locked, never blocked on: a refresh that arrives
	// while a scrape runs is rejected, not queued.
	scrapeMu sync.Mutex

	engine *gin.Engine
}

// New builds a fully wired server from configuration.
func New(cfg *config.Config) (*Server, error) {
	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	s := &Server{
		cfg:     cfg,
		store:   store,
		scraper: scraper.New(cfg),
		planner: mealplan.NewPlanner(cfg),
	}

	gin.SetMode(gin.ReleaseMode)
	s.engine = gin.New()
	s.engine.Use(gin.Recovery())
	s.engine.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-API-Key"},
		MaxAge:       12 * time.Hour,
	}))

	api.NewHandler(s, s.planner, cfg.AdminAPIKey).RegisterRoutes(s.engine)

	return s, nil
}

// Current returns the latest snapshot, or nil before the first load.
func (s *Server) Current() *menu.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

// setSnapshot installs a new snapshot for all readers.
func (s *Server) setSnapshot(snapshot *menu.Snapshot) {
	s.mu.Lock()
	s.snapshot = snapshot
	s.mu.Unlock()
}

// Refresh runs a full scrape, persists the result, and installs it as the
// current snapshot. Returns api.ErrRefreshBusy if a scrape is already in
// flight. A persistence failure is logged but does not discard the fresh
// data.
func (s *Server) Refresh() (*menu.Snapshot, error) {
	if !s.scrapeMu.TryLock() {
		return nil, api.ErrRefreshBusy
	}
	defer s.scrapeMu.Unlock()

	snapshot := s.scraper.ScrapeAll()

	if err := s.store.SaveSnapshot(snapshot); err != nil {
		logger.Error("persisting snapshot failed", logger.Fields{
			"path": s.store.SnapshotPath(),
		}, err)
	}

	s.setSnapshot(snapshot)
	return snapshot, nil
}

// EnsureData makes sure a snapshot is available before serving: it loads
// the persisted one if present, otherwise scrapes fresh.
func (s *Server) EnsureData() error {
	snapshot, err := s.store.LoadSnapshot()
	if err != nil {
		logger.Warn("loading persisted snapshot failed, scraping fresh", logger.Fields{
			"path": s.store.SnapshotPath(),
		})
	}

	if snapshot != nil {
		logger.Info("loaded persisted dining data", logger.Fields{
			"halls":        snapshot.HallCount(),
			"total_items":  snapshot.TotalItems(),
			"last_updated": snapshot.LastUpdated,
		})
		s.setSnapshot(snapshot)
		return nil
	}

	logger.Info("no persisted dining data, running initial scrape", nil)
	if _, err := s.Refresh(); err != nil {
		return fmt.Errorf("initial scrape: %w", err)
	}
	return nil
}

// startScheduler refreshes dining data on a fixed interval until stop is
// closed. An interval refresh that collides with a manual one is skipped.
func (s *Server) startScheduler(stop <-chan struct{}, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				logger.Info("scheduled dining data refresh starting", nil)
				if _, err := s.Refresh(); err != nil {
					logger.Warn("scheduled refresh skipped", logger.Fields{
						"reason": err.Error(),
					})
				}
			case <-stop:
				return
			}
		}
	}()
}

// Run loads initial data, starts the refresh scheduler, and serves HTTP
// until SIGINT or SIGTERM, then shuts down gracefully.
func (s *Server) Run() error {
	if err := s.EnsureData(); err != nil {
		return err
	}

	stop := make(chan struct{})
	s.startScheduler(stop, DefaultRefreshInterval)
	defer close(stop)

	srv := &http.Server{
		Addr:    ":" + s.cfg.Port,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", logger.Fields{"port": s.cfg.Port})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	case sig := <-quit:
		logger.Info("shutting down", logger.Fields{"signal": sig.String()})
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}

	logger.Info("server stopped", nil)
	return nil
}

// Engine exposes the router for handler tests.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}
