package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"

	httpcontroller "github.com/KarpovAlexandrGo/task-api/internal/controller/http"
	"github.com/KarpovAlexandrGo/task-api/internal/usecase"
	"github.com/KarpovAlexandrGo/task-api/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type App struct {
	Server *http.Server
	cfg    Config
	wg     sync.WaitGroup
	store  Store
}

func NewApp() (*App, error) {
	cfg, err := LoadConfig()
	if err != nil {
		return nil, err
	}
	logger.Configure(cfg.LogLevel, cfg.LogFormat)

	store, err := openStore(context.Background(), cfg)
	if err != nil {
		return nil, err
	}

	return New(cfg, store), nil
}

// New собирает приложение поверх уже открытого хранилища.
func New(cfg Config, store Store) *App {
	taskUseCase := usecase.NewTaskUseCase(store)

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	router := httpcontroller.NewRouter(taskUseCase, httpcontroller.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		Registry:       registry,
	})

	server := &http.Server{
		Addr:    ":" + cfg.HTTPPort,
		Handler: router,
	}

	return &App{
		Server: server,
		cfg:    cfg,
		store:  store,
	}
}

func (a *App) Run() error {
	defer func() {
		if err := a.store.Close(context.Background()); err != nil {
			logger.Log.WithError(err).Error("Failed to close store")
		}
	}()

	serverCtx, serverStopCtx := context.WithCancel(context.Background())
	defer serverStopCtx()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer signal.Stop(sig)

	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		select {
		case <-sig:
		case <-serverCtx.Done():
			return
		}
		logger.Log.Info("Shutdown signal received")

		shutdownCtx, cancel := context.WithTimeout(serverCtx, a.cfg.ShutdownTimeout)
		defer cancel()

		if err := a.Server.Shutdown(shutdownCtx); err != nil {
			if errors.Is(err, context.DeadlineExceeded) {
				logger.Log.Error("Graceful shutdown timed out")
			}
			logger.Log.WithError(err).Error("HTTP server shutdown failed")
		}
	}()

	logger.Log.Info("Starting server on " + a.Server.Addr)
	if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		serverStopCtx()
		a.wg.Wait()
		return fmt.Errorf("server failed: %w", err)
	}

	a.wg.Wait()
	logger.Log.Info("Server stopped gracefully")
	return nil
}
