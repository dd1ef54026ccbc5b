package app

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync/atomic"

	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/engine/preview"
	"go.trai.ch/zerr"
	"golang.org/x/sync/errgroup"
)

// DefaultOutDir is the output directory of `jsbook build`, relative to the notebook.
const DefaultOutDir = "dist"

// BuildOptions configuration for the Build method.
type BuildOptions struct {
	Notebook string
	OutDir   string
	Progress string
}

// Build compiles every code cell of a notebook concurrently.
// Each cell produces <id>.js and a standalone <id>.html preview.
func (a *App) Build(ctx context.Context, opts BuildOptions) error {
	nb, err := a.configLoader.LoadNotebook(opts.Notebook)
	if err != nil {
		return zerr.Wrap(err, "failed to load notebook")
	}

	p, err := a.open(ctx, filepath.Dir(nb.Path), opts.Progress)
	if err != nil {
		return err
	}
	defer p.stop()

	outDir := opts.OutDir
	if outDir == "" {
		outDir = filepath.Join(filepath.Dir(nb.Path), DefaultOutDir)
	}
	if err := os.MkdirAll(outDir, domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to create output directory"), "dir", outDir)
	}

	renderer := preview.NewRenderer(p.cfg.Preview.Scripts, p.cache, a.fetcher, a.logger)
	cells := nb.CodeCells()

	var failed atomic.Int32
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.NumCPU())
	for _, cell := range cells {
		g.Go(func() error {
			out := p.bundler.Compile(ctx, cell.Input())
			if !out.OK() {
				failed.Add(1)
				a.logger.Warn(fmt.Sprintf("cell %s failed to compile:\n%s", cell.ID, out.Err))
			} else if err := writeArtifact(outDir, cell.ID+".js", []byte(out.Code)); err != nil {
				return err
			}

			var page bytes.Buffer
			doc := preview.Document{Title: cell.ID, Code: out.Code, Err: out.Err, Inline: true}
			if err := renderer.Render(ctx, &page, doc); err != nil {
				return zerr.With(err, "cell", cell.ID)
			}
			return writeArtifact(outDir, cell.ID+".html", page.Bytes())
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	if n := failed.Load(); n > 0 {
		return zerr.With(domain.ErrCompileFailed, "failed_cells", n)
	}

	a.logger.Info(fmt.Sprintf("built %d cells into %s", len(cells), outDir))
	return nil
}

func writeArtifact(dir, name string, data []byte) error {
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, "failed to write output"), "path", path)
	}
	return nil
}
