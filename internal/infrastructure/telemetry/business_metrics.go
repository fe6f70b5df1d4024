package telemetry

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// BusinessMetrics records order fulfillment activity: order lifecycle
// transitions, receipts, allocations and overdue notifications.
type BusinessMetrics struct {
	meter  metric.Meter
	logger *zap.Logger

	orderCreatedTotal  *Counter
	orderEventTotal    *Counter
	itemsReceivedTotal *Counter
	allocationTotal    *Counter
	overdueTotal       *Counter
	batchSize          *Histogram

	openOrders *Gauge

	stopChan    chan struct{}
	stopOnce    sync.Once
	collectOnce sync.Once

	orderProvider OrderMetricsProvider
}

// OrderMetricsProvider supplies point-in-time order counts for periodic collection.
type OrderMetricsProvider interface {
	// CountOpenOrders returns the number of open orders per order kind
	CountOpenOrders(ctx context.Context) (map[string]int64, error)
}

// BusinessMetricsConfig holds configuration for business metrics.
type BusinessMetricsConfig struct {
	Meter           metric.Meter
	Logger          *zap.Logger
	CollectInterval time.Duration // Default: 5 minutes
	OrderProvider   OrderMetricsProvider
}

// NewBusinessMetrics creates a new BusinessMetrics instance.
func NewBusinessMetrics(cfg BusinessMetricsConfig) (*BusinessMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	bm := &BusinessMetrics{
		meter:         cfg.Meter,
		logger:        logger,
		stopChan:      make(chan struct{}),
		orderProvider: cfg.OrderProvider,
	}

	counters := []struct {
		dst              **Counter
		name, desc, unit string
	}{
		{&bm.orderCreatedTotal, "inventree_order_created_total", "Total number of orders created", "{orders}"},
		{&bm.orderEventTotal, "inventree_order_event_total", "Total number of order lifecycle events", "{events}"},
		{&bm.itemsReceivedTotal, "inventree_items_received_total", "Total number of stock items received against orders", "{items}"},
		{&bm.allocationTotal, "inventree_allocation_total", "Total number of sales order allocations created", "{allocations}"},
		{&bm.overdueTotal, "inventree_order_overdue_total", "Total number of overdue order notifications", "{orders}"},
	}
	for _, c := range counters {
		counter, err := NewCounter(cfg.Meter, c.name, c.desc, c.unit)
		if err != nil {
			return nil, err
		}
		*c.dst = counter
	}

	var err error
	bm.batchSize, err = NewHistogram(cfg.Meter, HistogramOpts{
		Name:        "inventree_batch_size",
		Description: "Number of entries processed per receipt or allocation batch",
		Unit:        "{entries}",
		Boundaries:  BatchSizeBuckets,
	})
	if err != nil {
		return nil, err
	}

	bm.openOrders, err = NewGauge(cfg.Meter, "inventree_open_orders", "Current number of open orders", "{orders}")
	if err != nil {
		return nil, err
	}

	return bm, nil
}

// RecordOrderCreated records an order creation.
func (bm *BusinessMetrics) RecordOrderCreated(ctx context.Context, kind string) {
	bm.orderCreatedTotal.Inc(ctx, AttrOrderKind.String(kind))
}

// RecordOrderEvent records a lifecycle event raised by an order.
func (bm *BusinessMetrics) RecordOrderEvent(ctx context.Context, kind, eventType string) {
	bm.orderEventTotal.Inc(ctx,
		AttrOrderKind.String(kind),
		AttrEventType.String(eventType),
	)
}

// RecordItemsReceived records stock items received against a purchase or return order.
func (bm *BusinessMetrics) RecordItemsReceived(ctx context.Context, kind string, count int64) {
	bm.itemsReceivedTotal.Add(ctx, count, AttrOrderKind.String(kind))
	bm.batchSize.Record(ctx, float64(count), AttrOrderKind.String(kind))
}

// RecordAllocations records allocations created in one batch.
func (bm *BusinessMetrics) RecordAllocations(ctx context.Context, count int64) {
	bm.allocationTotal.Add(ctx, count)
	bm.batchSize.Record(ctx, float64(count), AttrOrderKind.String("sales_order"))
}

// RecordOverdue records overdue notifications raised for an order kind.
func (bm *BusinessMetrics) RecordOverdue(ctx context.Context, kind string, count int64) {
	if count == 0 {
		return
	}
	bm.overdueTotal.Add(ctx, count, AttrOrderKind.String(kind))
}

// RecordOpenOrders records the current number of open orders of a kind.
func (bm *BusinessMetrics) RecordOpenOrders(ctx context.Context, kind string, count int64) {
	bm.openOrders.Record(ctx, count, AttrOrderKind.String(kind))
}

// StartPeriodicCollection starts periodic collection of gauge metrics.
// This is non-blocking - use Stop() to stop collection.
func (bm *BusinessMetrics) StartPeriodicCollection(ctx context.Context, interval time.Duration) {
	bm.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go bm.runPeriodicCollection(ctx, interval)
	})
}

func (bm *BusinessMetrics) runPeriodicCollection(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	bm.collectOrderMetrics(ctx)

	for {
		select {
		case <-bm.stopChan:
			bm.logger.Info("Stopping periodic business metrics collection")
			return
		case <-ctx.Done():
			bm.logger.Info("Context cancelled, stopping periodic business metrics collection")
			return
		case <-ticker.C:
			bm.collectOrderMetrics(ctx)
		}
	}
}

func (bm *BusinessMetrics) collectOrderMetrics(ctx context.Context) {
	if bm.orderProvider == nil {
		bm.logger.Debug("No order provider configured, skipping order metrics collection")
		return
	}
	counts, err := bm.orderProvider.CountOpenOrders(ctx)
	if err != nil {
		bm.logger.Warn("Failed to count open orders", zap.Error(err))
		return
	}
	for kind, n := range counts {
		bm.RecordOpenOrders(ctx, kind, n)
	}
}

// Stop stops the periodic collection.
func (bm *BusinessMetrics) Stop() {
	bm.stopOnce.Do(func() {
		close(bm.stopChan)
	})
}

// ErrMeterNil is returned when meter is nil.
var ErrMeterNil = &MetricsError{Op: "NewBusinessMetrics", Err: "meter cannot be nil"}

// MetricsError represents a metrics-related error.
type MetricsError struct {
	Op  string
	Err string
}

func (e *MetricsError) Error() string {
	return e.Op + ": " + e.Err
}
