// Package app manages the mirror bot's lifecycle: it wires dependencies,
// takes the single-operator lock, recovers interrupted executions, derives
// exchange credentials, and runs the activity poller until shutdown.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/averyls/mirrorbot/internal/config"
	"github.com/averyls/mirrorbot/internal/domain"
)

// lockTTL bounds how long a crashed process can block a replacement. Clean
// shutdowns release the lock immediately.
const lockTTL = time.Hour

// App is the root application object. It owns the configuration, logger, and
// a list of cleanup functions that are called in reverse order on shutdown.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	closers []func()
}

// New creates an App from the given configuration and logger.
func New(cfg *config.Config, logger *slog.Logger) *App {
	return &App{
		cfg:    cfg,
		logger: logger.With(slog.String("component", "app")),
	}
}

// Run is the main entry point. It wires dependencies, performs startup
// recovery, and blocks until the context is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.logger.InfoContext(ctx, "starting mirror bot",
		slog.String("leader", a.cfg.Leader.UserAddress),
		slog.String("log_level", a.cfg.LogLevel))

	deps, cleanup, err := Wire(ctx, a.cfg, a.logger)
	if err != nil {
		return fmt.Errorf("app: wire dependencies: %w", err)
	}
	a.closers = append(a.closers, cleanup)

	// One mirroring process per operator wallet. A second instance pointed
	// at the same wallet would double every order.
	unlock, err := deps.LockManager.Acquire(ctx, "mirror:"+deps.SelfAddress, lockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return fmt.Errorf("app: another instance is already mirroring with wallet %s", deps.SelfAddress)
		}
		return fmt.Errorf("app: acquire operator lock: %w", err)
	}
	a.closers = append(a.closers, unlock)

	// Finalize executions the previous process left mid-flight so they are
	// never retried against the exchange.
	aborted, err := deps.ActivityStore.AbortInterrupted(ctx)
	if err != nil {
		return fmt.Errorf("app: recover interrupted executions: %w", err)
	}
	if aborted > 0 {
		a.logger.WarnContext(ctx, "finalized interrupted executions", slog.Int64("count", aborted))
	}

	if err := deps.Clob.DeriveAPIKey(ctx); err != nil {
		return fmt.Errorf("app: derive exchange credentials: %w", err)
	}
	a.logger.InfoContext(ctx, "exchange credentials derived", slog.String("wallet", deps.SelfAddress))

	if err := deps.Poller.Initialize(ctx); err != nil {
		return fmt.Errorf("app: initialize poller: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return deps.Poller.Run(gctx)
	})

	return g.Wait()
}

// Close tears down all resources in reverse registration order. It is safe
// to call multiple times; subsequent calls are no-ops.
func (a *App) Close() {
	a.logger.Info("shutting down")
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}
