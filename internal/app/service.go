package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"sensorwatch/internal/clock"
	"sensorwatch/internal/config"
	"sensorwatch/internal/engine"
	"sensorwatch/internal/fetch"
	"sensorwatch/internal/logging"
	"sensorwatch/internal/notiflog"
	"sensorwatch/internal/notify"
	"sensorwatch/internal/poll"
	"sensorwatch/internal/rules"
	"sensorwatch/internal/settings"
	"sensorwatch/internal/storage"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Service composes runtime dependencies and process lifecycle.
// Params: config snapshot and shared runtime components.
// Returns: runnable sensorwatch service.
type Service struct {
	cfg        config.Config
	logger     *slog.Logger
	closeLog   func()
	store      storage.Store
	ruleStore  *rules.Store
	log        *notiflog.Log
	settings   *settings.Store
	dispatcher *notify.Dispatcher
	manager    *Manager
	poller     *poll.Poller
	httpSrv    *http.Server
	readyFlag  atomic.Bool
	clock      clock.Clock
}

// NewService builds service instance from config source.
// Params: config source and clock implementation.
// Returns: initialized service or setup error.
func NewService(source config.ConfigSource, clk clock.Clock) (*Service, error) {
	cfg, err := config.LoadSnapshot(source)
	if err != nil {
		return nil, err
	}

	logger, closeLog, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	store, err := storage.NewFileStore(cfg.Storage.Dir, logger)
	if err != nil {
		closeLog()
		return nil, err
	}

	service, err := assemble(cfg, logger, closeLog, store, clk)
	if err != nil {
		closeLog()
		return nil, err
	}
	return service, nil
}

// assemble wires stores, engine, delivery, and polling from one backend.
// Params: validated config, logger/cleanup, storage backend, and clock.
// Returns: composed service or component setup error.
func assemble(cfg config.Config, logger *slog.Logger, closeLog func(), store storage.Store, clk clock.Clock) (*Service, error) {
	ruleStore, err := rules.NewStore(store, logger, cfg.Service.SeedDefaultRules)
	if err != nil {
		return nil, err
	}
	log, err := notiflog.NewLog(store, logger, cfg.Storage.LogMaxEntries)
	if err != nil {
		return nil, err
	}
	settingsStore, err := settings.NewStore(store, logger, config.DefaultSettingsFromConfig(cfg))
	if err != nil {
		return nil, err
	}

	dispatcher := notify.NewDispatcher(cfg.Notify, logger)
	factory := engine.NewFactory(cfg.DedupWindow(), clk, log)
	manager := NewManager(ruleStore, factory, log, dispatcher, logger)

	client := fetch.NewClient(cfg.API, logger)
	current := settingsStore.Get()
	poller := poll.New(client, manager, logger, settingsStore.RefreshInterval(), cfg.Poll.LatestCount)
	poller.SetPaused(!current.AutoRefresh)
	settingsStore.AddListener(poller)

	service := &Service{
		cfg:        cfg,
		logger:     logger,
		closeLog:   closeLog,
		store:      store,
		ruleStore:  ruleStore,
		log:        log,
		settings:   settingsStore,
		dispatcher: dispatcher,
		manager:    manager,
		poller:     poller,
		clock:      clk,
	}
	service.buildHTTPServer()
	return service, nil
}

// buildHTTPServer prepares health/ready/metrics listener when enabled.
// Params: none.
// Returns: none; disabled HTTP leaves httpSrv nil.
func (s *Service) buildHTTPServer() {
	if !s.cfg.HTTP.Enabled {
		return
	}

	mux := http.NewServeMux()
	mux.HandleFunc(s.cfg.HTTP.HealthPath, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc(s.cfg.HTTP.ReadyPath, func(w http.ResponseWriter, _ *http.Request) {
		if !s.readyFlag.Load() {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle(s.cfg.HTTP.MetricsPath, promhttp.Handler())

	s.httpSrv = &http.Server{
		Addr:              s.cfg.HTTP.Listen,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

// Manager exposes the evaluation pipeline for embedding callers.
// Params: none.
// Returns: manager instance.
func (s *Service) Manager() *Manager {
	return s.manager
}

// Rules exposes the rule store for embedding callers.
// Params: none.
// Returns: rule store instance.
func (s *Service) Rules() *rules.Store {
	return s.ruleStore
}

// Notifications exposes the notification log for embedding callers.
// Params: none.
// Returns: notification log instance.
func (s *Service) Notifications() *notiflog.Log {
	return s.log
}

// Settings exposes the settings store for embedding callers.
// Params: none.
// Returns: settings store instance.
func (s *Service) Settings() *settings.Store {
	return s.settings
}

// Run starts service lifecycle and blocks until shutdown signal.
// Params: root context for service runtime.
// Returns: terminal run error.
func (s *Service) Run(ctx context.Context) error {
	shutdownCtx, shutdownCancel := context.WithCancel(ctx)
	defer shutdownCancel()

	errChan := make(chan error, 1)
	if s.httpSrv != nil {
		go func() {
			s.logger.Info("http server starting", "listen", s.cfg.HTTP.Listen)
			err := s.httpSrv.ListenAndServe()
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				errChan <- err
			}
		}()
	}

	pollDone := make(chan struct{})
	go func() {
		defer close(pollDone)
		if err := s.poller.Run(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			s.logger.Error("poll loop stopped", "error", err.Error())
		}
	}()

	s.readyFlag.Store(true)
	s.logger.Info("service started",
		"name", s.cfg.Service.Name,
		"interval", s.settings.RefreshInterval().String(),
		"channels", s.dispatcher.Channels())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case <-ctx.Done():
		runErr = ctx.Err()
	case err := <-errChan:
		runErr = err
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	}

	s.readyFlag.Store(false)
	shutdownCancel()
	<-pollDone
	s.shutdown()
	return runErr
}

// shutdown releases service resources in reverse construction order.
// Params: none.
// Returns: none; close errors are logged.
func (s *Service) shutdown() {
	if s.httpSrv != nil {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.httpSrv.Shutdown(closeCtx); err != nil {
			s.logger.Warn("http server shutdown failed", "error", err.Error())
		}
		cancel()
	}
	s.settings.RemoveListener(s.poller)
	if err := s.dispatcher.Close(); err != nil {
		s.logger.Warn("dispatcher close failed", "error", err.Error())
	}
	if err := s.store.Close(); err != nil {
		s.logger.Warn("state store close failed", "error", err.Error())
	}
	s.logger.Info("service stopped")
	if s.closeLog != nil {
		s.closeLog()
	}
}
