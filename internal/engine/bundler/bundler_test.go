package bundler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/evanw/esbuild/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/jsbook/internal/adapters/cache"
	"go.trai.ch/jsbook/internal/adapters/fetch"
	"go.trai.ch/jsbook/internal/adapters/telemetry"
	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/jsbook/internal/core/ports/mocks"
	"go.trai.ch/jsbook/internal/engine/bundler"
	"go.uber.org/mock/gomock"
)

// cdn is an httptest server standing in for a package provider.
type cdn struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func newCDN(t *testing.T, routes map[string]string) *cdn {
	t.Helper()

	c := &cdn{hits: make(map[string]int)}
	c.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.hits[r.URL.Path]++
		c.mu.Unlock()

		body, ok := routes[r.URL.Path]
		switch {
		case !ok:
			http.NotFound(w, r)
		case strings.HasPrefix(body, "redirect:"):
			http.Redirect(w, r, strings.TrimPrefix(body, "redirect:"), http.StatusFound)
		default:
			_, _ = w.Write([]byte(body))
		}
	}))
	t.Cleanup(c.Close)
	return c
}

func (c *cdn) hitsFor(path string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits[path]
}

func (c *cdn) total() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, hits := range c.hits {
		n += hits
	}
	return n
}

type fixture struct {
	bundler *bundler.Bundler
	unpkg   *cdn
	skypack *cdn
	store   *cache.Memory
}

func newFixture(t *testing.T, tracer ports.Tracer, unpkgRoutes, skypackRoutes map[string]string) *fixture {
	t.Helper()

	unpkg := newCDN(t, unpkgRoutes)
	skypack := newCDN(t, skypackRoutes)

	cfg := domain.DefaultConfig(t.TempDir())
	cfg.Providers = domain.Providers{Unpkg: unpkg.URL, Skypack: skypack.URL}
	cfg.Build.Define = map[string]string{"__APP__": `"demo"`}

	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()

	store := cache.NewMemory()
	b := bundler.New(cfg, store, fetch.NewClientWith(unpkg.Client()), tracer, mockLogger)
	return &fixture{bundler: b, unpkg: unpkg, skypack: skypack, store: store}
}

var reactRoutes = map[string]string{
	"/react":                 "redirect:/react@18.2.0/index.js",
	"/react@18.2.0/index.js": `export * from "./util.js";`,
	"/react@18.2.0/util.js":  `export const value = 4242;`,
	"/bulma/css/bulma.css":   "body{color:red}",
}

func TestBundler_CompileWithoutImports(t *testing.T) {
	f := newFixture(t, telemetry.NewNoOpTracer(), nil, nil)

	out := f.bundler.Compile(context.Background(), domain.BuildInput{Source: "const x = 1; console.log(x);"})

	assert.True(t, out.OK(), out.Err)
	assert.NotEmpty(t, out.Code)
	assert.Empty(t, out.Err)
	assert.Zero(t, f.unpkg.total())
}

func TestBundler_CompileFollowsRelativeImports(t *testing.T) {
	f := newFixture(t, telemetry.NewNoOpTracer(), reactRoutes, nil)
	in := domain.BuildInput{Source: `import { value } from "react"; console.log(value);`}

	out, graph := f.bundler.CompileWithGraph(context.Background(), in)
	require.True(t, out.OK(), out.Err)
	assert.Contains(t, out.Code, "4242")
	assert.Equal(t, 1, f.unpkg.hitsFor("/react@18.2.0/util.js"))
	assert.Zero(t, f.skypack.total())

	require.NotNil(t, graph)
	modules := graph.Modules()
	require.Len(t, modules, 3)

	var entry string
	for _, m := range modules {
		if strings.HasSuffix(m, domain.EntryName) {
			entry = m
		}
	}
	require.NotEmpty(t, entry)
	assert.Len(t, graph.Imports(entry), 1)

	hitsBefore := f.unpkg.total()
	again := f.bundler.Compile(context.Background(), in)
	require.True(t, again.OK(), again.Err)
	assert.Equal(t, out.Code, again.Code)
	assert.Equal(t, hitsBefore, f.unpkg.total(), "second compile must be served from the cache")
	assert.Equal(t, 2, f.store.Len())
}

func TestBundler_CompileStylesheet(t *testing.T) {
	f := newFixture(t, telemetry.NewNoOpTracer(), reactRoutes, nil)

	out := f.bundler.Compile(context.Background(), domain.BuildInput{Source: `import "bulma/css/bulma.css";`})

	require.True(t, out.OK(), out.Err)
	assert.Contains(t, out.Code, "body{color:red}")
	assert.Contains(t, out.Code, "document.head.appendChild")
}

func TestBundler_CompileDefines(t *testing.T) {
	f := newFixture(t, telemetry.NewNoOpTracer(), nil, nil)

	out := f.bundler.Compile(context.Background(), domain.BuildInput{
		Source: `console.log(process.env.NODE_ENV, typeof global, __APP__);`,
	})

	require.True(t, out.OK(), out.Err)
	assert.Contains(t, out.Code, `"production"`)
	assert.Contains(t, out.Code, "window")
	assert.Contains(t, out.Code, `"demo"`)
}

func TestBundler_CompileSyntaxError(t *testing.T) {
	f := newFixture(t, telemetry.NewNoOpTracer(), nil, nil)

	out := f.bundler.Compile(context.Background(), domain.BuildInput{Source: "const x = {;"})

	assert.Empty(t, out.Code)
	assert.Contains(t, out.Err, "Build failed with 1 error")
	assert.Contains(t, out.Err, domain.EntryName)
}

func TestBundler_CompileMissingPackage(t *testing.T) {
	f := newFixture(t, telemetry.NewNoOpTracer(), nil, nil)

	out := f.bundler.Compile(context.Background(), domain.BuildInput{Source: `import x from "missing-pkg"; console.log(x);`})

	assert.Empty(t, out.Code)
	assert.Contains(t, out.Err, domain.ErrNetworkFailure.Error())
	assert.Contains(t, out.Err, "missing-pkg")
	assert.Zero(t, f.store.Len())
}

func TestBundler_CompileSolid(t *testing.T) {
	skypackRoutes := map[string]string{
		"/solid-js/h/jsx-runtime": `export function jsx(type, props) { return [type, props]; }`,
	}
	f := newFixture(t, telemetry.NewNoOpTracer(), nil, skypackRoutes)

	out := f.bundler.Compile(context.Background(), domain.BuildInput{
		Source:  `const App = () => <div>hi</div>; console.log(App());`,
		Runtime: domain.RuntimeSolid,
	})

	require.True(t, out.OK(), out.Err)
	assert.Contains(t, out.Code, "function jsx")
	assert.Equal(t, 1, f.skypack.hitsFor("/solid-js/h/jsx-runtime"))
	assert.Zero(t, f.unpkg.total())
}

func TestBundler_CompileSolidUnbalanced(t *testing.T) {
	f := newFixture(t, telemetry.NewNoOpTracer(), nil, nil)

	out := f.bundler.Compile(context.Background(), domain.BuildInput{
		Source:  "function App() { return <div>;",
		Runtime: domain.RuntimeSolid,
	})

	assert.Empty(t, out.Code)
	assert.NotEmpty(t, out.Err)
	assert.Contains(t, out.Err, domain.ErrTransformFailed.Error())
	assert.Zero(t, f.skypack.total())
}

func TestBundler_CompileTimeout(t *testing.T) {
	cfg := domain.DefaultConfig(t.TempDir())
	cfg.Build.Timeout = 50 * time.Millisecond

	unblock := make(chan struct{})
	t.Cleanup(func() { close(unblock) })
	blocking := fetcherFunc(func(context.Context, string) (ports.FetchResult, error) {
		<-unblock
		return ports.FetchResult{}, domain.ErrNetworkFailure
	})

	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()
	mockLogger.EXPECT().Warn(gomock.Any()).AnyTimes()

	b := bundler.New(cfg, cache.NewMemory(), blocking, telemetry.NewNoOpTracer(), mockLogger)
	out := b.Compile(context.Background(), domain.BuildInput{Source: `import "react";`})

	assert.Empty(t, out.Code)
	assert.Contains(t, out.Err, domain.ErrCompileTimeout.Error())
}

func TestBundler_PluginPanicBecomesError(t *testing.T) {
	cfg := domain.DefaultConfig(t.TempDir())

	panicking := fetcherFunc(func(context.Context, string) (ports.FetchResult, error) {
		panic("boom")
	})

	ctrl := gomock.NewController(t)
	mockLogger := mocks.NewMockLogger(ctrl)
	mockLogger.EXPECT().Debug(gomock.Any()).AnyTimes()

	b := bundler.New(cfg, cache.NewMemory(), panicking, telemetry.NewNoOpTracer(), mockLogger)
	out := b.Compile(context.Background(), domain.BuildInput{Source: `import "react";`})

	assert.Empty(t, out.Code)
	assert.Contains(t, out.Err, "plugin panicked")
}

func TestBundler_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	f := newFixture(t, telemetry.NewOTelTracerFrom(tp, "test"), reactRoutes, nil)
	in := domain.BuildInput{Source: `import { value } from "react"; console.log(value);`}

	require.True(t, f.bundler.Compile(context.Background(), in).OK())
	require.True(t, f.bundler.Compile(context.Background(), in).OK())

	byName := make(map[string][]sdktrace.ReadOnlySpan)
	for _, span := range recorder.Ended() {
		byName[span.Name()] = append(byName[span.Name()], span)
	}

	require.Len(t, byName["compile"], 2)
	assert.Contains(t, byName["compile"][0].Attributes(), attribute.String("runtime", "react"))
	require.Len(t, byName["resolve index.jsx"], 2)
	require.Len(t, byName["resolve react"], 2)
	assert.Contains(t, byName["resolve react"][0].Attributes(), attribute.String("provider", "unpkg"))

	loads := byName["load "+f.unpkg.URL+"/react"]
	require.Len(t, loads, 2)
	assert.Contains(t, loads[0].Attributes(), attribute.Bool("cache_hit", false))
	assert.Contains(t, loads[1].Attributes(), attribute.Bool("cache_hit", true))

	compileID := byName["compile"][0].SpanContext().SpanID()
	assert.Equal(t, compileID, byName["resolve index.jsx"][0].Parent().SpanID())
}

func TestCollect_EmptyOutput(t *testing.T) {
	_, _, err := bundler.Collect(api.BuildResult{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrEmptyOutput)

	_, _, err = bundler.Collect(api.BuildResult{OutputFiles: []api.OutputFile{{Path: "<stdout>"}}})
	assert.ErrorIs(t, err, domain.ErrEmptyOutput)

	code, _, err := bundler.Collect(api.BuildResult{OutputFiles: []api.OutputFile{{Contents: []byte("x")}}})
	require.NoError(t, err)
	assert.Equal(t, "x", code)
}
