package bundler

import (
	"context"
	"fmt"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/zerr"
)

const pluginName = "jsbook"

// pipeline routes every esbuild resolve and load through the rule chains.
type pipeline struct {
	ctx      context.Context
	tracer   ports.Tracer
	resolver *Resolver
	loader   *Loader
}

func (p *pipeline) plugin() api.Plugin {
	return api.Plugin{
		Name: pluginName,
		Setup: func(build api.PluginBuild) {
			build.OnResolve(api.OnResolveOptions{Filter: ".*"}, p.onResolve)
			build.OnLoad(api.OnLoadOptions{Filter: ".*"}, p.onLoad)
		},
	}
}

func (p *pipeline) onResolve(args api.OnResolveArgs) (result api.OnResolveResult, err error) {
	_, span := p.tracer.Start(p.ctx, "resolve "+args.Path)
	defer span.End()
	defer recoverInto(&err, span)

	mod, err := p.resolver.Resolve(ResolveRequest{
		Specifier:  args.Path,
		Importer:   args.Importer,
		Namespace:  domain.Namespace(args.Namespace),
		ResolveDir: args.ResolveDir,
	})
	if err != nil {
		span.RecordError(err)
		return api.OnResolveResult{}, err
	}

	span.SetAttribute("namespace", string(mod.Namespace))
	span.SetAttribute(ports.AttrProvider, domain.ProviderFor(mod.Namespace).String())
	return api.OnResolveResult{Path: mod.Path, Namespace: string(mod.Namespace)}, nil
}

func (p *pipeline) onLoad(args api.OnLoadArgs) (result api.OnLoadResult, err error) {
	ctx, span := p.tracer.Start(p.ctx, "load "+args.Path)
	defer span.End()
	defer recoverInto(&err, span)

	loaded, rule, err := p.loader.Load(ctx, domain.ResolvedModule{
		Path:      args.Path,
		Namespace: domain.Namespace(args.Namespace),
	})
	span.SetAttribute(ports.AttrRule, rule)
	span.SetAttribute(ports.AttrCacheHit, rule == RuleCache)
	if err != nil {
		span.RecordError(err)
		return api.OnLoadResult{}, zerr.Wrap(err, args.Path)
	}

	result = api.OnLoadResult{
		Contents: &loaded.Contents,
		Loader:   esbuildLoader(loaded.Loader),
	}
	if loaded.ResolveDir != "" {
		result.ResolveDir = loaded.ResolveDir
	}
	return result, nil
}

// recoverInto turns a panic in a plugin callback into a build error.
func recoverInto(err *error, span ports.Span) {
	r := recover()
	if r == nil {
		return
	}
	*err = zerr.With(domain.ErrPluginPanicked, "panic", fmt.Sprint(r))
	span.RecordError(*err)
}

func esbuildLoader(kind domain.LoaderKind) api.Loader {
	switch kind {
	case domain.LoaderJS:
		return api.LoaderJS
	case domain.LoaderText:
		return api.LoaderText
	default:
		return api.LoaderJSX
	}
}
