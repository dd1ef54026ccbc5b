// Package bundler compiles a cell into one self-contained script with esbuild.
// Imports are resolved against CDN providers and loaded through the module cache.
package bundler

import (
	"net/url"
	"regexp"
	"strings"

	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/zerr"
)

// ResolveRequest is an import specifier and the context of the module importing it.
type ResolveRequest struct {
	Specifier string
	Importer  string
	// Namespace is the namespace of the importer.
	Namespace  domain.Namespace
	ResolveDir string
}

// ResolveRule is one entry of the ordered resolution chain.
// Resolve may return nil to defer to the next rule whose Filter matches.
type ResolveRule struct {
	Name    string
	Filter  *regexp.Regexp
	Resolve func(req ResolveRequest) (*domain.ResolvedModule, error)
}

// Resolver evaluates its rules in order; the first rule that resolves wins.
type Resolver struct {
	rules []ResolveRule
}

var (
	entryFilter    = regexp.MustCompile(`^index\.jsx$`)
	relativeFilter = regexp.MustCompile(`^\.+/`)
	anyFilter      = regexp.MustCompile(`.*`)
)

// NewResolver creates the default chain for providers.
// Overrides are evaluated before the default rules.
func NewResolver(providers domain.Providers, overrides ...ResolveRule) *Resolver {
	rules := make([]ResolveRule, 0, len(overrides)+3)
	rules = append(rules, overrides...)
	rules = append(rules,
		ResolveRule{Name: "entry", Filter: entryFilter, Resolve: resolveEntry},
		ResolveRule{Name: "relative", Filter: relativeFilter, Resolve: relativeResolver(providers)},
		ResolveRule{Name: "provider", Filter: anyFilter, Resolve: providerResolver(providers)},
	)
	return &Resolver{rules: rules}
}

// Resolve maps req to a module path and namespace.
func (r *Resolver) Resolve(req ResolveRequest) (domain.ResolvedModule, error) {
	if req.Specifier == "" {
		return domain.ResolvedModule{}, zerr.With(domain.ErrResolutionFailed, "reason", "empty specifier")
	}

	for _, rule := range r.rules {
		if !rule.Filter.MatchString(req.Specifier) {
			continue
		}
		mod, err := rule.Resolve(req)
		if err != nil {
			return domain.ResolvedModule{}, zerr.With(err, "rule", rule.Name)
		}
		if mod != nil {
			return *mod, nil
		}
	}

	return domain.ResolvedModule{}, zerr.With(domain.ErrResolutionFailed, "specifier", req.Specifier)
}

func resolveEntry(req ResolveRequest) (*domain.ResolvedModule, error) {
	return &domain.ResolvedModule{Path: req.Specifier, Namespace: domain.NamespaceEntry}, nil
}

// relativeResolver re-roots a relative specifier on the importer's provider.
func relativeResolver(providers domain.Providers) func(ResolveRequest) (*domain.ResolvedModule, error) {
	return func(req ResolveRequest) (*domain.ResolvedModule, error) {
		provider := domain.ProviderFor(req.Namespace)
		resolved, err := joinRelative(providers.BaseURL(provider), req.ResolveDir, req.Specifier)
		if err != nil {
			return nil, err
		}
		return &domain.ResolvedModule{Path: resolved, Namespace: provider.Namespace()}, nil
	}
}

// providerResolver roots a bare or absolute-path specifier on the importer's provider.
// Absolute URLs are kept as they are.
func providerResolver(providers domain.Providers) func(ResolveRequest) (*domain.ResolvedModule, error) {
	return func(req ResolveRequest) (*domain.ResolvedModule, error) {
		if isAbsoluteURL(req.Specifier) {
			u, err := url.Parse(req.Specifier)
			if err != nil {
				return nil, zerr.With(zerr.Wrap(err, domain.ErrResolutionFailed.Error()), "specifier", req.Specifier)
			}
			return &domain.ResolvedModule{Path: u.String(), Namespace: providerForHost(providers, u).Namespace()}, nil
		}

		provider := domain.ProviderFor(req.Namespace)
		return &domain.ResolvedModule{
			Path:      joinBare(providers.BaseURL(provider), req.Specifier),
			Namespace: provider.Namespace(),
		}, nil
	}
}

// joinRelative resolves spec against base + resolveDir + "/".
func joinRelative(base, resolveDir, spec string) (string, error) {
	dir := strings.Trim(resolveDir, "/")
	root := strings.TrimRight(base, "/") + "/"
	if dir != "" {
		root += dir + "/"
	}

	baseURL, err := url.Parse(root)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrResolutionFailed.Error()), "base", root)
	}
	ref, err := url.Parse(spec)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, domain.ErrResolutionFailed.Error()), "specifier", spec)
	}
	return baseURL.ResolveReference(ref).String(), nil
}

// joinBare concatenates base and spec verbatim with a single separating slash.
func joinBare(base, spec string) string {
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(spec, "/")
}

func isAbsoluteURL(spec string) bool {
	return strings.HasPrefix(spec, "https://") || strings.HasPrefix(spec, "http://")
}

func providerForHost(providers domain.Providers, u *url.URL) domain.Provider {
	if skypack, err := url.Parse(providers.Skypack); err == nil && skypack.Host == u.Host {
		return domain.ProviderSkypack
	}
	return domain.ProviderUnpkg
}
