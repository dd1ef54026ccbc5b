// Package preview renders the document a compiled cell runs in.
package preview

import (
	"context"
	"fmt"
	"html/template"
	"io"
	"regexp"

	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
	"go.trai.ch/zerr"
)

// ErrRenderFailed is returned when the preview document cannot be written.
var ErrRenderFailed = zerr.New("failed to render preview")

// Document is the content of one preview.
type Document struct {
	Title string
	Code  string
	Err   string
	// Inline embeds Code in the document. Otherwise the host posts it to the frame.
	Inline bool
}

// Renderer writes preview documents.
type Renderer struct {
	scripts []string
	cache   ports.ModuleCache
	fetcher ports.Fetcher
	logger  ports.Logger
}

// NewRenderer creates a Renderer that inlines scripts into every document.
// Script bodies are fetched once and kept in cache.
func NewRenderer(scripts []string, cache ports.ModuleCache, fetcher ports.Fetcher, logger ports.Logger) *Renderer {
	return &Renderer{scripts: scripts, cache: cache, fetcher: fetcher, logger: logger}
}

type templateData struct {
	Title   string
	Err     string
	Code    template.JS
	Inline  bool
	Scripts []template.JS
}

// Render writes doc to w.
func (r *Renderer) Render(ctx context.Context, w io.Writer, doc Document) error {
	scripts, err := r.loadScripts(ctx)
	if err != nil {
		return err
	}

	data := templateData{
		Title:   doc.Title,
		Err:     doc.Err,
		Inline:  doc.Inline && doc.Code != "",
		Code:    scriptText(doc.Code),
		Scripts: scripts,
	}
	if data.Title == "" {
		data.Title = "jsbook preview"
	}

	if err := documentTemplate.Execute(w, data); err != nil {
		return zerr.Wrap(err, ErrRenderFailed.Error())
	}
	return nil
}

func (r *Renderer) loadScripts(ctx context.Context) ([]template.JS, error) {
	scripts := make([]template.JS, 0, len(r.scripts))
	for _, src := range r.scripts {
		body, err := r.loadScript(ctx, src)
		if err != nil {
			return nil, err
		}
		scripts = append(scripts, scriptText(body))
	}
	return scripts, nil
}

// CacheKey returns the module cache key of a preview script.
// The prefix keeps text entries apart from modules fetched from the same URL.
func CacheKey(src string) string {
	return cacheKeyPrefix + src
}

const cacheKeyPrefix = "preview:"

func (r *Renderer) loadScript(ctx context.Context, src string) (string, error) {
	key := CacheKey(src)
	cached, err := r.cache.Get(ctx, key)
	if err != nil {
		r.logger.Warn(fmt.Sprintf("ignoring unreadable cache entry for %s: %v", src, err))
	}
	if cached != nil {
		return cached.Contents, nil
	}

	res, err := r.fetcher.FetchText(ctx, src)
	if err != nil {
		return "", zerr.With(zerr.Wrap(err, ErrRenderFailed.Error()), "script", src)
	}

	if err := r.cache.Set(ctx, key, domain.LoadResult{Loader: domain.LoaderText, Contents: res.Body}); err != nil {
		r.logger.Warn(fmt.Sprintf("failed to cache %s: %v", src, err))
	}
	return res.Body, nil
}

var scriptCloser = regexp.MustCompile(`(?i)</(script)`)

// scriptText marks s as trusted script text after escaping closing script tags.
func scriptText(s string) template.JS {
	return template.JS(scriptCloser.ReplaceAllString(s, `<\/$1`)) //nolint:gosec // compiled user code is meant to run
}

var documentTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html>
  <head>
    <meta charset="utf-8">
    <title>{{.Title}}</title>
  </head>
  <body>
    <div id="root"></div>
    <script>
      const handleError = (err) => {
        const root = document.querySelector('#root');
        root.innerHTML = '<div style="color:red"><h4>Runtime Error</h4>' + err + '</div>';
        console.error(err);
      };

      window.addEventListener('error', (event) => {
        event.preventDefault();
        handleError(event.error);
      });

      window.addEventListener('message', (event) => {
        try {
          eval(event.data);
        } catch (err) {
          handleError(err);
        }
      });
{{- if .Err}}

      handleError({{.Err}});
{{- end}}
    </script>
{{- range .Scripts}}
    <script>{{.}}</script>
{{- end}}
{{- if .Inline}}
    <script>{{.Code}}</script>
{{- end}}
  </body>
</html>
`))
