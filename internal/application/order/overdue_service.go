package order

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/infrastructure/telemetry"
)

// OverdueService notifies responsible users about orders which passed
// their target date. It is meant to run once per day.
type OverdueService struct {
	baseService
	now func() time.Time
}

// NewOverdueService creates a new OverdueService
func NewOverdueService(deps Dependencies) *OverdueService {
	return &OverdueService{baseService: newBaseService(deps), now: time.Now}
}

// OverdueResult counts the notifications raised by one check
type OverdueResult struct {
	PurchaseOrders int `json:"purchase_orders"`
	SalesOrders    int `json:"sales_orders"`
}

// Check finds open purchase and sales orders whose target date was
// yesterday and raises an overdue event for each of them
func (s *OverdueService) Check(ctx context.Context) (*OverdueResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "overdue", "check")
	defer span.End()

	date := order.Yesterday(s.now())
	var (
		result OverdueResult
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		pos, err := repos.PurchaseOrders().FindOpenByTargetDate(ctx, date)
		if err != nil {
			return err
		}
		for i := range pos {
			events = append(events, order.NewOverdueEvent(&pos[i]))
		}
		result.PurchaseOrders = len(pos)

		sos, err := repos.SalesOrders().FindOpenByTargetDate(ctx, date)
		if err != nil {
			return err
		}
		for i := range sos {
			events = append(events, order.NewOverdueEvent(&sos[i]))
		}
		result.SalesOrders = len(sos)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if result.PurchaseOrders+result.SalesOrders > 0 {
		s.logger.Info("Overdue orders found",
			zap.Time("target_date", date),
			zap.Int("purchase_orders", result.PurchaseOrders),
			zap.Int("sales_orders", result.SalesOrders),
		)
	}
	if s.metrics != nil {
		s.metrics.RecordOverdue(ctx, string(order.KindPurchaseOrder), int64(result.PurchaseOrders))
		s.metrics.RecordOverdue(ctx, string(order.KindSalesOrder), int64(result.SalesOrders))
	}
	s.publish(ctx, events)
	return &result, nil
}
