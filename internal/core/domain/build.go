package domain

import "go.trai.ch/zerr"

// Runtime selects the UI runtime a cell is previewed with.
type Runtime string

const (
	// RuntimeReact compiles JSX with the bundler defaults.
	RuntimeReact Runtime = "react"
	// RuntimeSolid rewrites the entry for Solid before bundling.
	RuntimeSolid Runtime = "solid"
)

// ParseRuntime converts a configuration value to a Runtime.
// The empty string selects RuntimeReact.
func ParseRuntime(s string) (Runtime, error) {
	switch Runtime(s) {
	case "", RuntimeReact:
		return RuntimeReact, nil
	case RuntimeSolid:
		return RuntimeSolid, nil
	default:
		return "", zerr.With(ErrUnknownRuntime, "runtime", s)
	}
}

// BuildInput is the source of one cell and the runtime it targets.
type BuildInput struct {
	Source  string
	Runtime Runtime
}

// RuntimeOrDefault returns the runtime of the input, with the empty value read as RuntimeReact.
func (in BuildInput) RuntimeOrDefault() Runtime {
	if in.Runtime == "" {
		return RuntimeReact
	}
	return in.Runtime
}

// UseAlternateRuntime reports whether the entry must go through the runtime transform.
func (in BuildInput) UseAlternateRuntime() bool {
	return in.RuntimeOrDefault() == RuntimeSolid
}

// BuildOutput holds either a compiled script or an error message, never both.
type BuildOutput struct {
	Code string `json:"code,omitempty"`
	Err  string `json:"err,omitempty"`
}

// OK reports whether the build produced code.
func (o BuildOutput) OK() bool {
	return o.Err == "" && o.Code != ""
}
