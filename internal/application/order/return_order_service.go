package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
	"github.com/inventree/backend/internal/infrastructure/telemetry"
)

// ReturnOrderService handles return order business operations
type ReturnOrderService struct {
	baseService
}

// NewReturnOrderService creates a new ReturnOrderService
func NewReturnOrderService(deps Dependencies) *ReturnOrderService {
	return &ReturnOrderService{baseService: newBaseService(deps)}
}

// Create creates a new return order for items held by the customer
func (s *ReturnOrderService) Create(ctx context.Context, req CreateReturnOrderRequest) (*ReturnOrderResponse, error) {
	var ro *order.ReturnOrder
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders := repos.ReturnOrders()
		reference, refInt, err := resolveReference(s.settings.ReturnOrderReferencePattern, req.Reference,
			func() (int64, error) { return orders.MaxReferenceInt(ctx) })
		if err != nil {
			return err
		}
		if err := checkUniqueReference(func() error {
			_, err := orders.FindByReference(ctx, reference)
			return err
		}); err != nil {
			return err
		}

		ro, err = order.NewReturnOrder(reference, req.CustomerID, req.CreatedBy)
		if err != nil {
			return err
		}
		ro.ReferenceInt = refInt
		ro.CustomerReference = req.CustomerReference
		req.HeaderRequest.apply(&ro.Header)

		for i, itemID := range req.StockItemIDs {
			if err := s.addLine(ctx, repos, ro, itemID); err != nil {
				return prefixed(err, i)
			}
		}
		return orders.Save(ctx, ro)
	})
	if err != nil {
		return nil, err
	}

	s.recordCreated(ctx, order.KindReturnOrder)
	resp := ToReturnOrderResponse(ro)
	return &resp, nil
}

func (s *ReturnOrderService) addLine(ctx context.Context, repos TransactionalRepositories, ro *order.ReturnOrder, itemID uuid.UUID) error {
	item, err := repos.StockItems().FindByID(ctx, itemID)
	if err != nil {
		return lookup(err, "item", "Stock item")
	}
	_, err = ro.AddLine(item)
	return err
}

// GetByID retrieves a return order by ID
func (s *ReturnOrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*ReturnOrderResponse, error) {
	var resp ReturnOrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		ro, err := repos.ReturnOrders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		resp = ToReturnOrderResponse(ro)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List retrieves return orders matching the filter
func (s *ReturnOrderService) List(ctx context.Context, filter ListFilter) ([]ReturnOrderResponse, int64, error) {
	var (
		items []ReturnOrderResponse
		total int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		f := filter.toShared()
		orders, err := repos.ReturnOrders().FindAll(ctx, f)
		if err != nil {
			return err
		}
		total, err = repos.ReturnOrders().Count(ctx, f)
		if err != nil {
			return err
		}
		items = make([]ReturnOrderResponse, len(orders))
		for i := range orders {
			items[i] = ToReturnOrderResponse(&orders[i])
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// AddLine adds a customer held stock item to the order
func (s *ReturnOrderService) AddLine(ctx context.Context, orderID, stockItemID uuid.UUID) (*ReturnOrderResponse, error) {
	return s.mutate(ctx, orderID, func(repos TransactionalRepositories, ro *order.ReturnOrder) error {
		return s.addLine(ctx, repos, ro, stockItemID)
	})
}

// SetOutcome records the decision taken for a returned line
func (s *ReturnOrderService) SetOutcome(ctx context.Context, orderID, lineID uuid.UUID, outcome int) (*ReturnOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, ro *order.ReturnOrder) error {
		return ro.SetOutcome(lineID, order.ReturnOrderLineOutcome(outcome))
	})
}

// Issue moves the order into progress
func (s *ReturnOrderService) Issue(ctx context.Context, orderID uuid.UUID) (*ReturnOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, ro *order.ReturnOrder) error {
		return ro.Issue()
	})
}

// Complete closes the order
func (s *ReturnOrderService) Complete(ctx context.Context, orderID uuid.UUID, acceptIncomplete bool) (*ReturnOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, ro *order.ReturnOrder) error {
		return ro.Complete(acceptIncomplete)
	})
}

// Cancel cancels the order
func (s *ReturnOrderService) Cancel(ctx context.Context, orderID uuid.UUID) (*ReturnOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, ro *order.ReturnOrder) error {
		return ro.Cancel()
	})
}

func (s *ReturnOrderService) mutate(ctx context.Context, orderID uuid.UUID, fn func(TransactionalRepositories, *order.ReturnOrder) error) (*ReturnOrderResponse, error) {
	var (
		ro     *order.ReturnOrder
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ro, err = repos.ReturnOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(repos, ro); err != nil {
			return err
		}
		if err := repos.ReturnOrders().Save(ctx, ro); err != nil {
			return err
		}
		events = drain(ro)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransitions(ctx, events)
	s.publish(ctx, events)
	resp := ToReturnOrderResponse(ro)
	return &resp, nil
}

// ReceiveItems brings returned items back into stock at a location. The
// items take the configured received status, quarantined by default.
func (s *ReturnOrderService) ReceiveItems(ctx context.Context, orderID uuid.UUID, req ReceiveReturnItemsRequest, userID *uuid.UUID) (*ReturnOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "return_order", "receive_items",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(req.Items)))
	defer span.End()

	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("items", "Line items must be provided")
	}

	var (
		ro     *order.ReturnOrder
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		ro, err = repos.ReturnOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := ro.CheckReceivable(); err != nil {
			return err
		}
		loc, err := repos.Locations().FindByID(ctx, req.LocationID)
		if err != nil {
			return lookup(err, "location", "Location")
		}
		if !loc.CanHoldStock() {
			return shared.NewValidationError("location", "Stock items cannot be located into structural stock locations")
		}

		seen := make(map[uuid.UUID]struct{}, len(req.Items))
		for i, entry := range req.Items {
			if _, dup := seen[entry.LineItemID]; dup {
				return prefixed(shared.NewValidationError("item", "Line item has already been received"), i)
			}
			seen[entry.LineItemID] = struct{}{}

			line, err := ro.ReceiveLine(entry.LineItemID)
			if err != nil {
				return prefixed(err, i)
			}
			if err := s.returnItem(ctx, repos, ro, line, loc, userID); err != nil {
				return prefixed(modelError(err, ""), i)
			}
		}

		if err := repos.ReturnOrders().Save(ctx, ro); err != nil {
			return err
		}
		events = drain(ro)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Received items against return order",
		zap.String("reference", ro.Reference),
		zap.Int("lines", len(req.Items)),
	)
	if s.metrics != nil {
		s.metrics.RecordItemsReceived(ctx, string(order.KindReturnOrder), int64(len(req.Items)))
	}
	s.recordTransitions(ctx, events)
	s.publish(ctx, events)
	resp := ToReturnOrderResponse(ro)
	return &resp, nil
}

func (s *ReturnOrderService) returnItem(ctx context.Context, repos TransactionalRepositories, ro *order.ReturnOrder,
	line *order.ReturnOrderLineItem, loc *stock.Location, userID *uuid.UUID) error {
	item, err := repos.StockItems().FindByIDForUpdate(ctx, line.StockItemID)
	if err != nil {
		return err
	}
	if err := item.ReturnToStock(loc, s.settings.ReturnOrderReceivedStatus); err != nil {
		return err
	}
	if err := repos.StockItems().Save(ctx, item); err != nil {
		return err
	}
	entry := stock.NewTrackingEntry(item.ID, stock.HistoryReturnedAgainstReturnOrder, userID, map[string]any{
		"location":    loc.ID.String(),
		"returnorder": ro.ID.String(),
		"customer":    ro.CustomerID.String(),
	})
	if err := repos.Tracking().Save(ctx, entry); err != nil {
		return fmt.Errorf("failed to record return history: %w", err)
	}
	return nil
}
