package bundler

import (
	"encoding/json"
	"errors"
	"slices"

	"github.com/dominikbraun/graph"
	"go.trai.ch/zerr"
)

// ErrMetafileInvalid is returned when esbuild's metafile cannot be decoded.
var ErrMetafileInvalid = zerr.New("invalid metafile")

type metafile struct {
	Inputs map[string]metafileInput `json:"inputs"`
}

type metafileInput struct {
	Bytes   int              `json:"bytes"`
	Imports []metafileImport `json:"imports"`
}

type metafileImport struct {
	Path     string `json:"path"`
	Kind     string `json:"kind"`
	External bool   `json:"external,omitempty"`
	Original string `json:"original,omitempty"`
}

// Graph is the module import graph of a build.
// Vertices are "namespace:path" keys as reported by esbuild.
type Graph struct {
	g graph.Graph[string, string]
}

// ParseGraph builds the import graph described by an esbuild metafile.
func ParseGraph(raw string) (*Graph, error) {
	var meta metafile
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, zerr.Wrap(err, ErrMetafileInvalid.Error())
	}

	g := graph.New(graph.StringHash, graph.Directed())
	for input := range meta.Inputs {
		if err := addVertex(g, input); err != nil {
			return nil, err
		}
	}
	for input, details := range meta.Inputs {
		for _, imp := range details.Imports {
			if err := addVertex(g, imp.Path); err != nil {
				return nil, err
			}
			if err := g.AddEdge(input, imp.Path); err != nil && !errors.Is(err, graph.ErrEdgeAlreadyExists) {
				return nil, zerr.With(zerr.Wrap(err, ErrMetafileInvalid.Error()), "import", imp.Path)
			}
		}
	}

	return &Graph{g: g}, nil
}

func addVertex(g graph.Graph[string, string], v string) error {
	if err := g.AddVertex(v); err != nil && !errors.Is(err, graph.ErrVertexAlreadyExists) {
		return zerr.With(zerr.Wrap(err, ErrMetafileInvalid.Error()), "module", v)
	}
	return nil
}

// Modules returns every module in the graph, sorted.
func (m *Graph) Modules() []string {
	adjacency, err := m.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	modules := make([]string, 0, len(adjacency))
	for module := range adjacency {
		modules = append(modules, module)
	}
	slices.Sort(modules)
	return modules
}

// Imports returns the modules imported directly by module, sorted.
func (m *Graph) Imports(module string) []string {
	adjacency, err := m.g.AdjacencyMap()
	if err != nil {
		return nil
	}
	imports := make([]string, 0, len(adjacency[module]))
	for target := range adjacency[module] {
		imports = append(imports, target)
	}
	slices.Sort(imports)
	return imports
}
