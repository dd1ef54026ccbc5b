package bundler

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/zerr"
)

// defaultDefines are substituted into every bundle.
var defaultDefines = map[string]string{
	"process.env.NODE_ENV": `"production"`,
	"global":               "window",
}

// Bundler compiles cell sources into single scripts.
type Bundler struct {
	providers domain.Providers
	timeout   time.Duration
	define    map[string]string
	remote    *Remote
	tracer    ports.Tracer
	logger    ports.Logger
}

// New creates a Bundler for cfg.
func New(
	cfg *domain.Config,
	cache ports.ModuleCache,
	fetcher ports.Fetcher,
	tracer ports.Tracer,
	logger ports.Logger,
) *Bundler {
	define := maps.Clone(defaultDefines)
	maps.Copy(define, cfg.Build.Define)

	return &Bundler{
		providers: cfg.Providers,
		timeout:   cfg.Build.Timeout,
		define:    define,
		remote:    NewRemote(cache, fetcher, logger),
		tracer:    tracer,
		logger:    logger,
	}
}

// Compile bundles in into one script.
// Every failure is reported through BuildOutput.Err.
func (b *Bundler) Compile(ctx context.Context, in domain.BuildInput) domain.BuildOutput {
	out, _ := b.CompileWithGraph(ctx, in)
	return out
}

// CompileWithGraph is Compile that also returns the module graph of a successful build.
func (b *Bundler) CompileWithGraph(ctx context.Context, in domain.BuildInput) (domain.BuildOutput, *Graph) {
	if b.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, b.timeout)
		defer cancel()
	}

	ctx, span := b.tracer.Start(ctx, "compile")
	defer span.End()
	span.SetAttribute(ports.AttrRuntime, string(in.RuntimeOrDefault()))

	code, metafile, err := b.build(ctx, in)
	if err != nil {
		span.RecordError(err)
		b.logger.Debug(fmt.Sprintf("compile failed: %v", err))
		return domain.BuildOutput{Err: err.Error()}, nil
	}

	graph, err := ParseGraph(metafile)
	if err != nil {
		b.logger.Warn(fmt.Sprintf("failed to read module graph: %v", err))
	}
	return domain.BuildOutput{Code: code}, graph
}

type buildResult struct {
	result api.BuildResult
	err    error
}

func (b *Bundler) build(ctx context.Context, in domain.BuildInput) (string, string, error) {
	var (
		resolveOverrides []ResolveRule
		loadOverrides    []LoadRule
	)
	if in.UseAlternateRuntime() {
		transformed, err := TransformSolid(in.Source)
		if err != nil {
			return "", "", err
		}
		resolveOverrides, loadOverrides = solidRules(b.providers, transformed)
	}

	p := &pipeline{
		ctx:      ctx,
		tracer:   b.tracer,
		resolver: NewResolver(b.providers, resolveOverrides...),
		loader:   NewLoader(b.remote, in.Source, loadOverrides...),
	}

	// esbuild cannot be interrupted; an abandoned run finishes in the background.
	done := make(chan buildResult, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- buildResult{err: zerr.With(zerr.New("bundler panicked"), "panic", fmt.Sprint(r))}
			}
		}()
		done <- buildResult{result: api.Build(b.options(p))}
	}()

	select {
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", "", zerr.With(domain.ErrCompileTimeout, "timeout", b.timeout.String())
		}
		return "", "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			return "", "", res.err
		}
		return collect(res.result)
	}
}

func (b *Bundler) options(p *pipeline) api.BuildOptions {
	return api.BuildOptions{
		EntryPoints: []string{domain.EntryName},
		Bundle:      true,
		Write:       false,
		Metafile:    true,
		Format:      api.FormatIIFE,
		Platform:    api.PlatformBrowser,
		Define:      b.define,
		LogLevel:    api.LogLevelSilent,
		Plugins:     []api.Plugin{p.plugin()},
	}
}

// collect extracts the single output script from result.
func collect(result api.BuildResult) (string, string, error) {
	if len(result.Errors) > 0 {
		return "", "", buildFailure(result.Errors)
	}
	if len(result.OutputFiles) == 0 || len(result.OutputFiles[0].Contents) == 0 {
		return "", "", domain.ErrEmptyOutput
	}
	return string(result.OutputFiles[0].Contents), result.Metafile, nil
}

// diagnosticsError carries esbuild's formatted messages as its text.
type diagnosticsError struct {
	text string
}

func (e *diagnosticsError) Error() string {
	return e.text
}

func buildFailure(msgs []api.Message) error {
	noun := "errors"
	if len(msgs) == 1 {
		noun = "error"
	}
	return &diagnosticsError{text: fmt.Sprintf("Build failed with %d %s:\n%s", len(msgs), noun, formatMessages(msgs))}
}

func formatMessage(msg api.Message) string {
	if msg.Location == nil {
		return "ERROR: " + msg.Text
	}
	return fmt.Sprintf("%s:%d:%d: ERROR: %s",
		msg.Location.File, msg.Location.Line, msg.Location.Column, msg.Text)
}
