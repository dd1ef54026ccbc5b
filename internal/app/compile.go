package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/engine/bundler"
	"go.trai.ch/jsbook/internal/ui/style"
	"go.trai.ch/zerr"
)

// StdinInput selects standard input as the compile source.
const StdinInput = "-"

// CompileOptions configuration for the Compile method.
type CompileOptions struct {
	Input    string
	Output   string
	Solid    bool
	Deps     bool
	Progress string
}

func (o CompileOptions) runtime() domain.Runtime {
	if o.Solid {
		return domain.RuntimeSolid
	}
	return domain.RuntimeReact
}

// Compile bundles a single source file.
// The script goes to Output, or to stdout when Output is empty.
func (a *App) Compile(ctx context.Context, opts CompileOptions) error {
	source, err := a.readSource(opts.Input)
	if err != nil {
		return err
	}

	p, err := a.open(ctx, ".", opts.Progress)
	if err != nil {
		return err
	}
	defer p.stop()

	out, graph := p.bundler.CompileWithGraph(ctx, domain.BuildInput{Source: source, Runtime: opts.runtime()})
	if !out.OK() {
		return zerr.Wrap(errors.New(out.Err), domain.ErrCompileFailed.Error())
	}

	if opts.Deps && opts.Output == "" {
		return a.printGraph(graph)
	}

	if err := a.writeOutput(opts.Output, out.Code); err != nil {
		return err
	}
	if opts.Deps {
		return a.printGraph(graph)
	}
	return nil
}

// WatchOptions configuration for the Watch method.
type WatchOptions struct {
	Input    string
	Output   string
	Solid    bool
	Progress string
}

// Watch compiles Input and recompiles it whenever it changes, until ctx is done.
// A build overtaken by a newer one is discarded.
func (a *App) Watch(ctx context.Context, opts WatchOptions) error {
	if opts.Input == "" || opts.Input == StdinInput {
		return domain.ErrWatchInputRequired
	}

	p, err := a.open(ctx, ".", opts.Progress)
	if err != nil {
		return err
	}
	defer p.stop()

	w, err := a.newWatcher()
	if err != nil {
		return err
	}
	if err := w.Start(ctx, opts.Input); err != nil {
		return err
	}
	defer func() { _ = w.Stop() }()

	go func() {
		<-ctx.Done()
		_ = w.Stop()
	}()

	session := bundler.NewSession(p.bundler)
	rt := CompileOptions{Solid: opts.Solid}.runtime()

	var (
		wg      sync.WaitGroup
		writeMu sync.Mutex
	)
	rebuild := func() {
		wg.Go(func() {
			source, err := a.readSource(opts.Input)
			if err != nil {
				a.logger.Error(err)
				return
			}

			out, current := session.Compile(ctx, domain.BuildInput{Source: source, Runtime: rt})
			if !current {
				a.logger.Debug("discarding superseded build")
				return
			}
			if !out.OK() {
				a.logger.Error(zerr.Wrap(errors.New(out.Err), domain.ErrCompileFailed.Error()))
				return
			}

			writeMu.Lock()
			defer writeMu.Unlock()
			if err := a.writeOutput(opts.Output, out.Code); err != nil {
				a.logger.Error(err)
				return
			}
			a.logger.Info(fmt.Sprintf("compiled %s", opts.Input))
		})
	}

	rebuild()
	for range w.Changes() {
		rebuild()
	}
	wg.Wait()

	return nil
}

func (a *App) readSource(input string) (string, error) {
	if input == "" || input == StdinInput {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return "", zerr.Wrap(err, "failed to read standard input")
		}
		return string(data), nil
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, "failed to read source file"), "path", input)
	}
	return string(data), nil
}

func (a *App) writeOutput(path, code string) error {
	if path == "" {
		_, err := io.WriteString(a.stdout, code)
		return err
	}
	if err := os.WriteFile(path, []byte(code), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write output"), "path", path)
	}
	return nil
}

func (a *App) printGraph(graph *bundler.Graph) error {
	if graph == nil {
		return nil
	}

	var b strings.Builder
	for _, module := range graph.Modules() {
		b.WriteString(module)
		b.WriteByte('\n')
		for _, imp := range graph.Imports(module) {
			fmt.Fprintf(&b, "  %s %s\n", style.Arrow, imp)
		}
	}
	_, err := io.WriteString(a.stdout, b.String())
	return err
}
