package bundler

import (
	"context"
	"regexp"
	"strings"

	"github.com/evanw/esbuild/pkg/api"
	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/zerr"
)

// SolidImportSource is the JSX import source of the Solid runtime.
const SolidImportSource = "solid-js/h"

var solidFilter = regexp.MustCompile(`^solid-js`)

// TransformSolid compiles the JSX in source for the Solid runtime.
func TransformSolid(source string) (string, error) {
	result := api.Transform(source, api.TransformOptions{
		Loader:          api.LoaderJSX,
		JSX:             api.JSXAutomatic,
		JSXImportSource: SolidImportSource,
		Format:          api.FormatESModule,
		Sourcefile:      domain.EntryName,
	})
	if len(result.Errors) > 0 {
		return "", zerr.Wrap(&diagnosticsError{text: formatMessages(result.Errors)}, domain.ErrTransformFailed.Error())
	}
	return string(result.Code), nil
}

// solidRules returns the resolve and load overrides serving transformed as the entry.
// Solid packages are always served from the skypack provider.
func solidRules(providers domain.Providers, transformed string) ([]ResolveRule, []LoadRule) {
	resolve := ResolveRule{
		Name:   "solid",
		Filter: solidFilter,
		Resolve: func(req ResolveRequest) (*domain.ResolvedModule, error) {
			return &domain.ResolvedModule{
				Path:      joinBare(providers.Skypack, req.Specifier),
				Namespace: domain.NamespaceSkypack,
			}, nil
		},
	}

	load := LoadRule{
		Name:      "solid",
		Filter:    entryFilter,
		Namespace: domain.NamespaceEntry,
		Load: func(context.Context, domain.ResolvedModule) (*domain.LoadResult, error) {
			return &domain.LoadResult{Loader: domain.LoaderJS, Contents: transformed}, nil
		},
	}

	return []ResolveRule{resolve}, []LoadRule{load}
}

// formatMessages renders esbuild messages as "file:line:col: text" lines.
func formatMessages(msgs []api.Message) string {
	lines := make([]string, 0, len(msgs))
	for _, msg := range msgs {
		lines = append(lines, formatMessage(msg))
	}
	return strings.Join(lines, "\n")
}
