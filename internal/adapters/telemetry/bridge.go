package telemetry

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.trai.ch/jsbook/internal/core/ports"
)

// errStepFailed stands in for an error status recorded without a description.
var errStepFailed = errors.New("step failed")

// Bridge is an sdktrace.SpanProcessor that reports pipeline steps to a Renderer.
// Resolve and load attributes set by the bundler travel with the step outcome.
type Bridge struct {
	renderer ports.Renderer
}

// NewBridge returns a new Bridge.
func NewBridge(renderer ports.Renderer) *Bridge {
	return &Bridge{renderer: renderer}
}

// OnStart reports the span as a step nested under its parent span.
func (b *Bridge) OnStart(parent context.Context, s sdktrace.ReadWriteSpan) {
	if b.renderer == nil || !s.SpanContext().IsValid() {
		return
	}

	var parentID string
	if sc := trace.SpanContextFromContext(parent); sc.IsValid() {
		parentID = sc.SpanID().String()
	}
	b.renderer.OnStepStart(s.SpanContext().SpanID().String(), parentID, s.Name(), s.StartTime())
}

// OnEnd reports the outcome of the span.
func (b *Bridge) OnEnd(s sdktrace.ReadOnlySpan) {
	if b.renderer == nil || !s.SpanContext().IsValid() {
		return
	}
	b.renderer.OnStepComplete(s.SpanContext().SpanID().String(), outcomeOf(s))
}

func outcomeOf(s sdktrace.ReadOnlySpan) ports.StepOutcome {
	outcome := ports.StepOutcome{EndTime: s.EndTime()}

	if status := s.Status(); status.Code == codes.Error {
		outcome.Err = errStepFailed
		if status.Description != "" {
			outcome.Err = errors.New(status.Description)
		}
	}

	for _, kv := range s.Attributes() {
		switch kv.Key {
		case ports.AttrRule:
			outcome.Rule = kv.Value.AsString()
		case ports.AttrProvider:
			outcome.Provider = kv.Value.AsString()
		case ports.AttrCacheHit:
			outcome.CacheHit = kv.Value.Type() == attribute.BOOL && kv.Value.AsBool()
		}
	}
	return outcome
}

// ForceFlush does nothing.
func (b *Bridge) ForceFlush(_ context.Context) error {
	return nil
}

// Shutdown does nothing.
func (b *Bridge) Shutdown(_ context.Context) error {
	return nil
}
