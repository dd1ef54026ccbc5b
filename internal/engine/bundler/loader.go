package bundler

import (
	"context"
	"fmt"
	"net/url"
	"path"
	"regexp"
	"strings"
	"time"

	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/sync/singleflight"
)

// Rule names reported on load spans.
const (
	RuleEntry      = "entry"
	RuleCache      = "cache"
	RuleStylesheet = "stylesheet"
	RuleFetch      = "fetch"
)

// LoadRule is one entry of the ordered load chain.
// An empty Namespace matches every namespace. Load may return nil to defer to the next rule.
type LoadRule struct {
	Name      string
	Filter    *regexp.Regexp
	Namespace domain.Namespace
	Load      func(ctx context.Context, mod domain.ResolvedModule) (*domain.LoadResult, error)
}

func (r LoadRule) matches(mod domain.ResolvedModule) bool {
	if r.Namespace != "" && r.Namespace != mod.Namespace {
		return false
	}
	return r.Filter.MatchString(mod.Path)
}

// Loader evaluates its rules in order; the first rule that returns a result wins.
type Loader struct {
	rules []LoadRule
}

var stylesheetFilter = regexp.MustCompile(`\.css$`)

// NewLoader creates the default chain serving source as the entry module.
// Overrides are evaluated before the default rules.
func NewLoader(remote *Remote, source string, overrides ...LoadRule) *Loader {
	rules := make([]LoadRule, 0, len(overrides)+4)
	rules = append(rules, overrides...)
	rules = append(rules,
		LoadRule{
			Name:      RuleEntry,
			Filter:    entryFilter,
			Namespace: domain.NamespaceEntry,
			Load: func(context.Context, domain.ResolvedModule) (*domain.LoadResult, error) {
				return &domain.LoadResult{Loader: domain.LoaderJSX, Contents: source}, nil
			},
		},
		LoadRule{Name: RuleCache, Filter: anyFilter, Load: remote.cached},
		LoadRule{Name: RuleStylesheet, Filter: stylesheetFilter, Load: remote.stylesheet},
		LoadRule{Name: RuleFetch, Filter: anyFilter, Load: remote.module},
	)
	return &Loader{rules: rules}
}

// Load returns the contents of mod and the name of the rule that produced them.
func (l *Loader) Load(ctx context.Context, mod domain.ResolvedModule) (domain.LoadResult, string, error) {
	for _, rule := range l.rules {
		if !rule.matches(mod) {
			continue
		}
		result, err := rule.Load(ctx, mod)
		if err != nil {
			return domain.LoadResult{}, rule.Name, err
		}
		if result != nil {
			return *result, rule.Name, nil
		}
	}

	return domain.LoadResult{}, "", zerr.With(domain.ErrNoLoader, "path", mod.Path)
}

// sharedFetchTimeout bounds a download that no build is waiting on any more.
const sharedFetchTimeout = 2 * time.Minute

// Remote loads network modules through the module cache.
// It is shared by every build so concurrent loads of one path share a single fetch.
type Remote struct {
	cache   ports.ModuleCache
	fetcher ports.Fetcher
	logger  ports.Logger
	group   singleflight.Group
}

// NewRemote creates a Remote.
func NewRemote(cache ports.ModuleCache, fetcher ports.Fetcher, logger ports.Logger) *Remote {
	return &Remote{cache: cache, fetcher: fetcher, logger: logger}
}

func (r *Remote) cached(ctx context.Context, mod domain.ResolvedModule) (*domain.LoadResult, error) {
	if mod.Namespace == domain.NamespaceEntry {
		return nil, nil
	}

	result, err := r.cache.Get(ctx, mod.Path)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("ignoring unreadable cache entry for %s: %v", mod.Path, err))
		return nil, nil
	}
	return result, nil
}

func (r *Remote) stylesheet(ctx context.Context, mod domain.ResolvedModule) (*domain.LoadResult, error) {
	return r.fetch(ctx, mod.Path, func(body string) string {
		return StyleScript(body)
	})
}

func (r *Remote) module(ctx context.Context, mod domain.ResolvedModule) (*domain.LoadResult, error) {
	return r.fetch(ctx, mod.Path, func(body string) string {
		return body
	})
}

// fetch downloads key once, even under concurrent callers, and stores the result in the cache.
// The download is detached from the caller that started it, so a cancelled build
// never fails another build waiting on the same path.
func (r *Remote) fetch(ctx context.Context, key string, contents func(string) string) (*domain.LoadResult, error) {
	ch := r.group.DoChan(key, func() (v any, err error) {
		defer func() {
			if p := recover(); p != nil {
				err = zerr.With(domain.ErrPluginPanicked, "panic", fmt.Sprint(p))
			}
		}()

		fetchCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedFetchTimeout)
		defer cancel()

		res, err := r.fetcher.FetchText(fetchCtx, key)
		if err != nil {
			return nil, err
		}

		result := domain.LoadResult{
			Loader:     domain.LoaderJSX,
			Contents:   contents(res.Body),
			ResolveDir: resolveDirOf(res.FinalURL, key),
		}

		if err := r.cache.Set(fetchCtx, key, result); err != nil {
			r.logger.Warn(fmt.Sprintf("failed to cache %s: %v", key, err))
		}
		return &result, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		result := *res.Val.(*domain.LoadResult)
		return &result, nil
	}
}

// resolveDirOf returns the directory part of the path of finalURL.
// It falls back to requested when the fetcher reported no usable URL.
func resolveDirOf(finalURL, requested string) string {
	u, err := url.Parse(finalURL)
	if err != nil || finalURL == "" {
		u, err = url.Parse(requested)
		if err != nil {
			return "/"
		}
	}
	if u.Path == "" {
		return "/"
	}
	return path.Dir(u.Path)
}

var styleEscaper = strings.NewReplacer(
	"\r", "",
	"\n", "",
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
)

// StyleScript returns a script that appends css to the document head.
func StyleScript(css string) string {
	return "const style = document.createElement('style');\n" +
		"style.innerText = '" + styleEscaper.Replace(css) + "';\n" +
		"document.head.appendChild(style);\n"
}
