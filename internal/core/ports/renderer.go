package ports

import (
	"context"
	"time"
)

// Renderer presents pipeline progress.
// Spans started by the Tracer are reported here by the telemetry bridge.
//
//go:generate mockgen -source=renderer.go -destination=mocks/mock_renderer.go -package=mocks
type Renderer interface {
	// Start initializes the renderer.
	Start(ctx context.Context) error

	// Stop flushes buffered output.
	Stop() error

	// OnStepStart is called when a span begins.
	// spanID: unique identifier for this step
	// parentID: spanID of the parent step (empty if root)
	OnStepStart(spanID, parentID, name string, startTime time.Time)

	// OnStepComplete is called when a span ends.
	OnStepComplete(spanID string, outcome StepOutcome)
}

// StepOutcome describes how a step ended.
// Rule, Provider and CacheHit are copied from the span attributes of the same names.
type StepOutcome struct {
	EndTime  time.Time
	Err      error
	Rule     string
	Provider string
	CacheHit bool
}

// Detail returns a short note on how the step was served, or "" when there is nothing to say.
func (o StepOutcome) Detail() string {
	switch {
	case o.CacheHit:
		return "cached"
	case o.Rule != "":
		return o.Rule
	default:
		return o.Provider
	}
}
