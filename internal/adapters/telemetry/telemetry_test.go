package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/jsbook/internal/adapters/telemetry"
	"go.trai.ch/jsbook/internal/core/domain"
	"go.trai.ch/jsbook/internal/core/ports"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = telemetry.NoOpSpan{}
	var _ sdktrace.SpanProcessor = (*telemetry.Bridge)(nil)
}

func TestOTelTracer_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	tracer := telemetry.NewOTelTracerFrom(tp, "test")

	ctx, parent := tracer.Start(context.Background(), "compile")
	parent.SetAttribute("runtime", string(domain.RuntimeSolid))
	parent.SetAttribute("cells", 3)
	parent.SetAttribute("cache_hit", true)
	parent.SetAttribute("namespace", domain.ProviderSkypack)

	_, child := tracer.Start(ctx, "load https://unpkg.com/react")
	child.RecordError(errors.New("failed to fetch module"))
	child.RecordError(nil)
	child.End()
	parent.End()

	ended := recorder.Ended()
	require.Len(t, ended, 2)

	load, compile := ended[0], ended[1]
	assert.Equal(t, "load https://unpkg.com/react", load.Name())
	assert.Equal(t, codes.Error, load.Status().Code)
	assert.Equal(t, "failed to fetch module", load.Status().Description)
	assert.Equal(t, compile.SpanContext().SpanID(), load.Parent().SpanID())

	assert.Equal(t, "compile", compile.Name())
	assert.Contains(t, compile.Attributes(), attribute.String("runtime", "solid"))
	assert.Contains(t, compile.Attributes(), attribute.Int("cells", 3))
	assert.Contains(t, compile.Attributes(), attribute.Bool("cache_hit", true))
	assert.Contains(t, compile.Attributes(), attribute.String("namespace", "skypack"))
}

func TestNoOpTracer_Start(t *testing.T) {
	tracer := telemetry.NewNoOpTracer()

	ctx := context.Background()
	got, span := tracer.Start(ctx, "compile")
	assert.Equal(t, ctx, got)

	span.SetAttribute("key", "value")
	span.RecordError(errors.New("ignored"))
	span.End()
}
