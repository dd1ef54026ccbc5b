// Package app implements the application layer for jsbook.
package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.trai.ch/jsbook/internal/adapters/cache"
	"go.trai.ch/jsbook/internal/adapters/detector"
	"go.trai.ch/jsbook/internal/adapters/linear"
	"go.trai.ch/jsbook/internal/adapters/telemetry"
	"go.trai.ch/jsbook/internal/adapters/watcher"
	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/jsbook/internal/engine/bundler"
	"go.trai.ch/zerr"
)

// App represents the main application logic.
type App struct {
	configLoader ports.ConfigLoader
	fetcher      ports.Fetcher
	logger       ports.Logger
	tracer       ports.Tracer
	newWatcher   func() (ports.Watcher, error)
	stdin        io.Reader
	stdout       io.Writer
	stderr       io.Writer
}

// New creates a new App instance.
func New(loader ports.ConfigLoader, fetcher ports.Fetcher, log ports.Logger, tracer ports.Tracer) *App {
	return &App{
		configLoader: loader,
		fetcher:      fetcher,
		logger:       log,
		tracer:       tracer,
		newWatcher: func() (ports.Watcher, error) {
			return watcher.NewWatcher(watcher.DefaultDebounceWindow)
		},
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
	}
}

// WithIO replaces the standard streams used by the App.
// This is primarily used for testing.
func (a *App) WithIO(stdin io.Reader, stdout, stderr io.Writer) *App {
	a.stdin = stdin
	a.stdout = stdout
	a.stderr = stderr
	return a
}

// WithWatcherFactory replaces how Watch creates its file watcher.
func (a *App) WithWatcherFactory(fn func() (ports.Watcher, error)) *App {
	a.newWatcher = fn
	return a
}

// logModes is implemented by loggers whose output format can change at runtime.
type logModes interface {
	SetJSON(enable bool)
	SetDebug(enable bool)
}

// SetLogMode switches the logger to JSON output or debug level when it supports it.
func (a *App) SetLogMode(jsonOutput, debug bool) {
	if l, ok := a.logger.(logModes); ok {
		l.SetJSON(jsonOutput)
		l.SetDebug(debug)
	}
}

// pipeline is the compile stack for one command invocation.
type pipeline struct {
	cfg     *domain.Config
	cache   ports.ModuleCache
	bundler *bundler.Bundler
	stop    func()
}

// open loads the configuration found from dir and assembles the compile stack.
func (a *App) open(ctx context.Context, dir, progress string) (*pipeline, error) {
	cfg, err := a.configLoader.Load(dir)
	if err != nil {
		return nil, zerr.Wrap(err, "failed to load configuration")
	}

	store, err := cache.Open(cfg.Cache)
	if err != nil {
		return nil, err
	}
	a.logger.Debug(fmt.Sprintf("module cache: %s (persist=%t)", cfg.Cache.Dir, cfg.Cache.Persist))

	tracer, stop := a.progressTracer(ctx, progress)
	return &pipeline{
		cfg:     cfg,
		cache:   store,
		bundler: bundler.New(cfg, store, a.fetcher, tracer, a.logger),
		stop:    stop,
	}, nil
}

// progressTracer returns the tracer for the resolved progress mode.
// In linear mode spans are printed to stderr as they finish.
func (a *App) progressTracer(ctx context.Context, flag string) (ports.Tracer, func()) {
	mode := detector.ResolveMode(detector.DetectEnvironment(), flag)
	if mode != detector.ModeLinear {
		return a.tracer, func() {}
	}

	renderer := linear.NewRenderer(a.stderr)
	_ = renderer.Start(ctx)
	tp := telemetry.NewRendererProvider(renderer)

	return telemetry.NewOTelTracerFrom(tp, telemetry.InstrumentationName), func() {
		_ = tp.Shutdown(context.Background())
		_ = renderer.Stop()
	}
}
