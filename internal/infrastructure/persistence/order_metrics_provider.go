package persistence

import (
	"context"

	"gorm.io/gorm"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/infrastructure/persistence/models"
	"github.com/inventree/backend/internal/infrastructure/telemetry"
)

// OrderMetricsProvider counts outstanding orders for the open orders gauge
type OrderMetricsProvider struct {
	db *gorm.DB
}

// NewOrderMetricsProvider creates a new OrderMetricsProvider
func NewOrderMetricsProvider(db *gorm.DB) *OrderMetricsProvider {
	return &OrderMetricsProvider{db: db}
}

// CountOpenOrders returns the number of open orders keyed by order kind
func (p *OrderMetricsProvider) CountOpenOrders(ctx context.Context) (map[string]int64, error) {
	counts := make(map[string]int64, 3)
	queries := []struct {
		kind     order.Kind
		model    any
		statuses any
	}{
		{order.KindPurchaseOrder, &models.PurchaseOrderModel{}, order.PurchaseOrderOpenStatuses},
		{order.KindSalesOrder, &models.SalesOrderModel{}, order.SalesOrderOpenStatuses},
		{order.KindReturnOrder, &models.ReturnOrderModel{}, order.ReturnOrderOpenStatuses},
	}
	for _, q := range queries {
		var n int64
		if err := p.db.WithContext(ctx).Model(q.model).Where("status IN ?", q.statuses).Count(&n).Error; err != nil {
			return nil, err
		}
		counts[string(q.kind)] = n
	}
	return counts, nil
}

var _ telemetry.OrderMetricsProvider = (*OrderMetricsProvider)(nil)
