package app

import (
	"context"
	"errors"
	"fmt"
	"os"

	"go.trai.ch/jsbook/internal/adapters/server"
	"go.trai.ch/jsbook/internal/engine/bundler"
	"go.trai.ch/jsbook/internal/engine/preview"
	"go.trai.ch/zerr"
)

// ServeOptions configuration for the Serve method.
type ServeOptions struct {
	Addr string
}

// Serve runs the HTTP server until ctx is done or the server goes idle.
func (a *App) Serve(ctx context.Context, opts ServeOptions) error {
	p, err := a.open(ctx, ".", "quiet")
	if err != nil {
		return err
	}
	defer p.stop()

	addr := opts.Addr
	if addr == "" {
		addr = p.cfg.Server.Addr
	}

	renderer := preview.NewRenderer(p.cfg.Preview.Scripts, p.cache, a.fetcher, a.logger)
	srv := server.New(
		server.NewLifecycle(p.cfg.Server.IdleTimeout),
		bundler.NewSessions(p.bundler),
		renderer,
		a.logger,
	)
	return srv.Serve(ctx, addr)
}

// Clean removes the persistent module cache.
func (a *App) Clean(_ context.Context) error {
	cfg, err := a.configLoader.Load(".")
	if err != nil {
		return zerr.Wrap(err, "failed to load configuration")
	}

	a.logger.Info(fmt.Sprintf("removing module cache %s...", cfg.Cache.Dir))
	if err := os.RemoveAll(cfg.Cache.Dir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return zerr.With(zerr.Wrap(err, "failed to remove module cache"), "dir", cfg.Cache.Dir)
	}
	a.logger.Info("removed module cache")
	return nil
}
