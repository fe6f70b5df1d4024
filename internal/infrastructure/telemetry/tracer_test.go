package telemetry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zaptest"

	"github.com/inventree/backend/internal/infrastructure/telemetry"
)

func TestNewTracerProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	tp, err := telemetry.NewTracerProvider(ctx, telemetry.TracingConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		SamplingRatio:     1.0,
		ServiceName:       "inventree-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, tp.IsEnabled())
	assert.NotNil(t, tp.Tracer("test"))
	assert.NoError(t, tp.Shutdown(ctx))
}

func TestSampler(t *testing.T) {
	traceID := trace.TraceID{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff}
	params := sdktrace.SamplingParameters{TraceID: traceID, Name: "span"}

	assert.Equal(t, sdktrace.RecordAndSample, telemetry.Sampler(1).ShouldSample(params).Decision)
	assert.Equal(t, sdktrace.RecordAndSample, telemetry.Sampler(2).ShouldSample(params).Decision)
	assert.Equal(t, sdktrace.Drop, telemetry.Sampler(0).ShouldSample(params).Decision)
	assert.Equal(t, sdktrace.Drop, telemetry.Sampler(-1).ShouldSample(params).Decision)
	assert.Contains(t, telemetry.Sampler(0.25).Description(), "TraceIDRatioBased")
}
