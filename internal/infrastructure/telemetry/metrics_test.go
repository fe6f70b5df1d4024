package telemetry_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/inventree/backend/internal/infrastructure/telemetry"
)

func disabledProvider(t *testing.T) *telemetry.MeterProvider {
	t.Helper()
	mp, err := telemetry.NewMeterProvider(context.Background(), telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ServiceName:       "inventree-test",
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	return mp
}

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()
	cfg := telemetry.MetricsConfig{
		Enabled:           false,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    60 * time.Second,
		ServiceName:       "inventree-test",
	}

	mp, err := telemetry.NewMeterProvider(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.Equal(t, cfg.ServiceName, mp.Config().ServiceName)
	assert.NoError(t, mp.ForceFlush(ctx))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewMeterProvider_Enabled(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping exporter test in short mode")
	}
	ctx := context.Background()

	// The gRPC exporter connects lazily, so construction succeeds without a collector.
	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           true,
		CollectorEndpoint: "localhost:14317",
		ExportInterval:    time.Second,
		ServiceName:       "inventree-test",
		ServiceVersion:    "test",
		Insecure:          true,
	}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.True(t, mp.IsEnabled())

	shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = mp.Shutdown(shutdownCtx)
}

func TestMeterProvider_Meter(t *testing.T) {
	mp := disabledProvider(t)
	assert.NotNil(t, mp.Meter("inventree"))
}

func TestCounter(t *testing.T) {
	mp := disabledProvider(t)
	ctx := context.Background()

	counter, err := telemetry.NewCounter(mp.Meter("test"), "orders_total", "Orders", "{orders}")
	require.NoError(t, err)

	counter.Inc(ctx, telemetry.AttrOrderKind.String("sales_order"))
	counter.Add(ctx, 5, telemetry.AttrOrderKind.String("purchase_order"))
}

func TestHistogram(t *testing.T) {
	mp := disabledProvider(t)
	ctx := context.Background()

	histogram, err := telemetry.NewHistogram(mp.Meter("test"), telemetry.HistogramOpts{
		Name:        "http_server_request_duration_seconds",
		Description: "HTTP server request duration",
		Unit:        "s",
		Boundaries:  telemetry.HTTPDurationBuckets,
	})
	require.NoError(t, err)

	histogram.Record(ctx, 0.05, telemetry.AttrHTTPMethod.String("POST"))
	histogram.RecordDuration(ctx, 250*time.Millisecond, telemetry.AttrHTTPRoute.String("/api/v1/order/po/:id/receive"))

	plain, err := telemetry.NewHistogram(mp.Meter("test"), telemetry.HistogramOpts{Name: "plain"})
	require.NoError(t, err)
	plain.Record(ctx, 1)
}

func TestGauge(t *testing.T) {
	mp := disabledProvider(t)

	gauge, err := telemetry.NewGauge(mp.Meter("test"), "open_orders", "Open orders", "{orders}")
	require.NoError(t, err)
	gauge.Record(context.Background(), 42, telemetry.AttrOrderKind.String("return_order"))
}

func TestCommonAttributes(t *testing.T) {
	assert.Equal(t, "http.method", string(telemetry.AttrHTTPMethod))
	assert.Equal(t, "http.status_code", string(telemetry.AttrHTTPStatusCode))
	assert.Equal(t, "http.route", string(telemetry.AttrHTTPRoute))
	assert.Equal(t, "order_kind", string(telemetry.AttrOrderKind))
	assert.Equal(t, "event_type", string(telemetry.AttrEventType))
}

func TestDefaultBuckets(t *testing.T) {
	assert.Equal(t, []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}, telemetry.HTTPDurationBuckets)
	assert.IsIncreasing(t, telemetry.BatchSizeBuckets)
}
