package bundler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/jsbook/internal/engine/bundler"
)

const sampleMetafile = `{
  "inputs": {
    "entry:index.jsx": {
      "bytes": 52,
      "imports": [
        {"path": "unpkg:https://unpkg.com/react", "kind": "import-statement", "original": "react"},
        {"path": "unpkg:https://unpkg.com/bulma/css/bulma.css", "kind": "import-statement", "original": "bulma/css/bulma.css"}
      ]
    },
    "unpkg:https://unpkg.com/react": {
      "bytes": 30,
      "imports": [
        {"path": "unpkg:https://unpkg.com/react@18.2.0/util.js", "kind": "import-statement", "original": "./util.js"},
        {"path": "unpkg:https://unpkg.com/react@18.2.0/util.js", "kind": "require-call", "original": "./util.js"}
      ]
    },
    "unpkg:https://unpkg.com/react@18.2.0/util.js": {"bytes": 20, "imports": []},
    "unpkg:https://unpkg.com/bulma/css/bulma.css": {"bytes": 90, "imports": []}
  },
  "outputs": {}
}`

func TestParseGraph(t *testing.T) {
	graph, err := bundler.ParseGraph(sampleMetafile)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"entry:index.jsx",
		"unpkg:https://unpkg.com/bulma/css/bulma.css",
		"unpkg:https://unpkg.com/react",
		"unpkg:https://unpkg.com/react@18.2.0/util.js",
	}, graph.Modules())

	assert.Equal(t, []string{
		"unpkg:https://unpkg.com/bulma/css/bulma.css",
		"unpkg:https://unpkg.com/react",
	}, graph.Imports("entry:index.jsx"))
	assert.Equal(t, []string{"unpkg:https://unpkg.com/react@18.2.0/util.js"}, graph.Imports("unpkg:https://unpkg.com/react"))
	assert.Empty(t, graph.Imports("unpkg:https://unpkg.com/react@18.2.0/util.js"))
}

func TestParseGraph_Invalid(t *testing.T) {
	_, err := bundler.ParseGraph("{not json")
	require.Error(t, err)
	assert.ErrorContains(t, err, bundler.ErrMetafileInvalid.Error())
}
