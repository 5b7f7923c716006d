package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirerelay-server/internal/auth"
	"github.com/vovakirdan/wirerelay-server/internal/config"
	"github.com/vovakirdan/wirerelay-server/internal/core"
	"github.com/vovakirdan/wirerelay-server/internal/metrics"
	"github.com/vovakirdan/wirerelay-server/internal/store"
	"github.com/vovakirdan/wirerelay-server/internal/store/badgerstore"
	"github.com/vovakirdan/wirerelay-server/internal/store/memory"
	"github.com/vovakirdan/wirerelay-server/internal/store/sqlite"
	transporthttp "github.com/vovakirdan/wirerelay-server/internal/transport/http"
)

// App wires together storage, core, and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	store           store.Store
	log             *zerolog.Logger
}

// New constructs the application with the provided configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	if cfg.JWT.Secret == "" {
		return nil, errors.New("jwt secret must be configured")
	}

	st, err := openStore(cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("init store: %w", err)
	}

	registry := prometheus.NewRegistry()
	m := metrics.New(registry)

	authService := auth.NewService(st, &auth.JWTConfig{
		Secret:   []byte(cfg.JWT.Secret),
		Issuer:   cfg.JWT.Issuer,
		Audience: cfg.JWT.Audience,
		TTL:      cfg.JWT.TTL,
	})
	binder := core.NewBinder(authService)
	hub := core.NewHub(st, logger, m)

	server := transporthttp.NewServer(hub, binder, authService, m, registry, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		store:           st,
		log:             logger,
	}, nil
}

// openStore picks the storage backend named by the config.
func openStore(cfg config.Storage, logger *zerolog.Logger) (store.Store, error) {
	switch cfg.Driver {
	case "sqlite":
		st, err := sqlite.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", "sqlite").Str("path", cfg.Path).Msg("store opened")
		return st, nil

	case "badger":
		st, err := badgerstore.New(cfg.Path)
		if err != nil {
			return nil, err
		}
		logger.Info().Str("driver", "badger").Str("path", cfg.Path).Msg("store opened")
		return st, nil

	case "memory":
		logger.Warn().Str("driver", "memory").Msg("store opened; messages will not survive a restart")
		return memory.New(), nil

	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// Run starts the HTTP server and blocks until context cancellation or a
// fatal error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	go a.hub.Run(ctx)

	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup closes the store and other resources.
func (a *App) cleanup() {
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
