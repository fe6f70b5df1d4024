package order

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
	"github.com/inventree/backend/internal/infrastructure/telemetry"
)

// SalesOrderService handles sales order business operations
type SalesOrderService struct {
	baseService
}

// NewSalesOrderService creates a new SalesOrderService
func NewSalesOrderService(deps Dependencies) *SalesOrderService {
	return &SalesOrderService{baseService: newBaseService(deps)}
}

// Create creates a new sales order, with a first shipment when configured
func (s *SalesOrderService) Create(ctx context.Context, req CreateSalesOrderRequest) (*SalesOrderResponse, error) {
	var so *order.SalesOrder
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders := repos.SalesOrders()
		reference, refInt, err := resolveReference(s.settings.SalesOrderReferencePattern, req.Reference,
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

		so, err = order.NewSalesOrder(reference, req.CustomerID, req.CreatedBy)
		if err != nil {
			return err
		}
		so.ReferenceInt = refInt
		so.CustomerReference = req.CustomerReference
		req.HeaderRequest.apply(&so.Header)

		for i, lr := range req.Lines {
			if err := s.addLine(ctx, repos, so, lr); err != nil {
				if ve := shared.AsValidationError(err, ""); ve != nil {
					return ve.Prefix(fmt.Sprintf("lines.%d", i))
				}
				return err
			}
		}
		if s.settings.SalesOrderDefaultShipment {
			if _, err := so.AddShipment(""); err != nil {
				return err
			}
		}
		return orders.Save(ctx, so)
	})
	if err != nil {
		return nil, err
	}

	s.recordCreated(ctx, order.KindSalesOrder)
	resp := ToSalesOrderResponse(so, nil)
	return &resp, nil
}

func (s *SalesOrderService) addLine(ctx context.Context, repos TransactionalRepositories, so *order.SalesOrder, req SalesOrderLineRequest) error {
	part, err := repos.Parts().FindByID(ctx, req.PartID)
	if err != nil {
		return lookup(err, "part", "Part")
	}
	if !part.Salable {
		return shared.NewValidationError("part", "Part is not salable")
	}
	line, err := so.AddLine(part.ID, req.Quantity, req.SalePrice)
	if err != nil {
		return err
	}
	line.TargetDate = req.TargetDate
	line.Reference = req.Reference
	line.Notes = req.Notes
	return nil
}

// GetByID retrieves a sales order with allocation totals per line
func (s *SalesOrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*SalesOrderResponse, error) {
	var resp SalesOrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		so, err := repos.SalesOrders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		allocs, err := repos.Allocations().ListByOrder(ctx, so.ID)
		if err != nil {
			return err
		}
		resp = ToSalesOrderResponse(so, allocs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List retrieves sales orders matching the filter
func (s *SalesOrderService) List(ctx context.Context, filter ListFilter) ([]SalesOrderResponse, int64, error) {
	var (
		items []SalesOrderResponse
		total int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		f := filter.toShared()
		orders, err := repos.SalesOrders().FindAll(ctx, f)
		if err != nil {
			return err
		}
		total, err = repos.SalesOrders().Count(ctx, f)
		if err != nil {
			return err
		}
		items = make([]SalesOrderResponse, len(orders))
		for i := range orders {
			items[i] = ToSalesOrderResponse(&orders[i], nil)
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListAllocations returns the allocations held against an order
func (s *SalesOrderService) ListAllocations(ctx context.Context, orderID uuid.UUID) ([]AllocationResponse, error) {
	var out []AllocationResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.SalesOrders().FindByID(ctx, orderID); err != nil {
			return err
		}
		allocs, err := repos.Allocations().ListByOrder(ctx, orderID)
		if err != nil {
			return err
		}
		out = ToAllocationResponses(allocs)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// AddLine adds a line item to an open sales order
func (s *SalesOrderService) AddLine(ctx context.Context, orderID uuid.UUID, req SalesOrderLineRequest) (*SalesOrderResponse, error) {
	return s.mutate(ctx, orderID, func(repos TransactionalRepositories, so *order.SalesOrder) error {
		return s.addLine(ctx, repos, so, req)
	})
}

// RemoveLine removes a line item, releasing its allocations
func (s *SalesOrderService) RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, orderID, func(repos TransactionalRepositories, so *order.SalesOrder) error {
		if err := so.RemoveLine(lineID); err != nil {
			return err
		}
		allocs, err := repos.Allocations().ListByLine(ctx, lineID)
		if err != nil {
			return err
		}
		return deleteAllocations(ctx, repos, allocs)
	})
}

// AddShipment opens a new shipment on the order
func (s *SalesOrderService) AddShipment(ctx context.Context, orderID uuid.UUID, reference string) (*SalesOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, so *order.SalesOrder) error {
		_, err := so.AddShipment(reference)
		return err
	})
}

// Issue moves the order into production
func (s *SalesOrderService) Issue(ctx context.Context, orderID uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, so *order.SalesOrder) error {
		return so.Issue()
	})
}

// Complete closes the order. Forced completion releases allocations still
// sitting on open shipments.
func (s *SalesOrderService) Complete(ctx context.Context, orderID uuid.UUID, acceptIncomplete bool, userID *uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, orderID, func(repos TransactionalRepositories, so *order.SalesOrder) error {
		pending := so.PendingShipments()
		if err := so.Complete(acceptIncomplete, s.settings.SalesOrderShipComplete, userID); err != nil {
			return err
		}
		return releaseShipments(ctx, repos, pending)
	})
}

// Cancel cancels the order and releases its unshipped allocations
func (s *SalesOrderService) Cancel(ctx context.Context, orderID uuid.UUID) (*SalesOrderResponse, error) {
	return s.mutate(ctx, orderID, func(repos TransactionalRepositories, so *order.SalesOrder) error {
		if err := so.Cancel(); err != nil {
			return err
		}
		return releaseShipments(ctx, repos, so.PendingShipments())
	})
}

func releaseShipments(ctx context.Context, repos TransactionalRepositories, shipments []*order.Shipment) error {
	for _, sh := range shipments {
		allocs, err := repos.Allocations().ListByShipment(ctx, sh.ID)
		if err != nil {
			return err
		}
		if err := deleteAllocations(ctx, repos, allocs); err != nil {
			return err
		}
	}
	return nil
}

func deleteAllocations(ctx context.Context, repos TransactionalRepositories, allocs []order.SalesOrderAllocation) error {
	for _, a := range allocs {
		if err := repos.Allocations().Delete(ctx, a.ID); err != nil {
			return err
		}
	}
	return nil
}

func (s *SalesOrderService) mutate(ctx context.Context, orderID uuid.UUID, fn func(TransactionalRepositories, *order.SalesOrder) error) (*SalesOrderResponse, error) {
	var (
		so     *order.SalesOrder
		allocs []order.SalesOrderAllocation
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		so, err = repos.SalesOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(repos, so); err != nil {
			return err
		}
		if err := repos.SalesOrders().Save(ctx, so); err != nil {
			return err
		}
		allocs, err = repos.Allocations().ListByOrder(ctx, so.ID)
		if err != nil {
			return err
		}
		events = drain(so)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransitions(ctx, events)
	s.publish(ctx, events)
	resp := ToSalesOrderResponse(so, allocs)
	return &resp, nil
}

// AllocateItems allocates stock items against lines of the order on one
// shipment. Entries are processed in order and the batch is all-or-nothing.
func (s *SalesOrderService) AllocateItems(ctx context.Context, orderID uuid.UUID, req AllocateItemsRequest) ([]AllocationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_order", "allocate_items",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(req.Items)))
	defer span.End()

	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("items", "Allocation items must be provided")
	}

	var (
		so      *order.SalesOrder
		created []order.SalesOrderAllocation
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		so, err = repos.SalesOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		for i, entry := range req.Items {
			item, err := repos.StockItems().FindByIDForUpdate(ctx, entry.StockItemID)
			if err != nil {
				return prefixed(lookup(err, "stock_item", "Stock item"), i)
			}
			alloc, err := s.allocate(ctx, repos, so, entry.LineItemID, req.ShipmentID, item, entry.Quantity)
			if err != nil {
				return prefixed(err, i)
			}
			created = append(created, *alloc)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recordAllocations(ctx, so, created)
	return ToAllocationResponses(created), nil
}

// AllocateSerials resolves a serial number expression to stock items of the
// line's part and allocates one of each.
func (s *SalesOrderService) AllocateSerials(ctx context.Context, orderID uuid.UUID, req AllocateSerialsRequest) ([]AllocationResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_order", "allocate_serials",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID))
	defer span.End()

	var (
		so      *order.SalesOrder
		created []order.SalesOrderAllocation
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		so, err = repos.SalesOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		line, err := so.Line(req.LineItemID)
		if err != nil {
			return err
		}
		// bound the serial expansion by what the line can still take
		lineAllocs, err := repos.Allocations().ListByLine(ctx, line.ID)
		if err != nil {
			return err
		}
		if remaining := order.LineUnallocated(line, lineAllocs); decimal.NewFromInt(int64(req.Quantity)).GreaterThan(remaining) {
			return shared.NewKindError(shared.KindOverAllocation, "quantity",
				fmt.Sprintf("Quantity exceeds unallocated line quantity (%s)", remaining))
		}
		latest, err := repos.StockItems().LatestSerial(ctx, line.PartID)
		if err != nil {
			return err
		}
		serials, err := stock.ExtractSerialNumbers(req.SerialNumbers, req.Quantity, latest)
		if err != nil {
			return err
		}

		var (
			items     []*stock.StockItem
			missing   []string
			allocated []string
		)
		for _, serial := range serials {
			found, err := repos.StockItems().FindSerialized(ctx, line.PartID, serial)
			if err != nil {
				return err
			}
			if len(found) == 0 {
				missing = append(missing, serial)
				continue
			}
			item, err := repos.StockItems().FindByIDForUpdate(ctx, found[0].ID)
			if err != nil {
				return err
			}
			open, err := repos.Allocations().OpenQuantitiesForStockItem(ctx, item.ID)
			if err != nil {
				return err
			}
			if len(open) > 0 {
				allocated = append(allocated, serial)
				continue
			}
			items = append(items, item)
		}
		if len(missing) > 0 {
			return shared.NewValidationError(stock.SerialNumbersField,
				"No match found for the following serial numbers: "+strings.Join(missing, ","))
		}
		if len(allocated) > 0 {
			return shared.NewKindError(shared.KindOverAllocation, stock.SerialNumbersField,
				"The following serial numbers are already allocated: "+strings.Join(allocated, ","))
		}

		one := decimal.NewFromInt(1)
		for _, item := range items {
			alloc, err := s.allocate(ctx, repos, so, line.ID, req.ShipmentID, item, one)
			if err != nil {
				return err
			}
			created = append(created, *alloc)
		}
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.recordAllocations(ctx, so, created)
	return ToAllocationResponses(created), nil
}

// allocate computes availability from the locked item and persists the allocation
func (s *SalesOrderService) allocate(ctx context.Context, repos TransactionalRepositories, so *order.SalesOrder,
	lineID, shipmentID uuid.UUID, item *stock.StockItem, quantity decimal.Decimal) (*order.SalesOrderAllocation, error) {
	salesAllocated, err := repos.Allocations().OpenQuantitiesForStockItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	builds, err := repos.BuildAllocations().ListByStockItem(ctx, item.ID)
	if err != nil {
		return nil, err
	}
	lineAllocs, err := repos.Allocations().ListByLine(ctx, lineID)
	if err != nil {
		return nil, err
	}

	alloc, err := order.Allocate(order.AllocationRequest{
		Order:         so,
		LineID:        lineID,
		ShipmentID:    shipmentID,
		Item:          item,
		Quantity:      quantity,
		Availability:  stock.NewAvailability(item, salesAllocated, builds),
		LineAllocated: order.TotalAllocated(lineAllocs),
	})
	if err != nil {
		return nil, err
	}
	if err := repos.Allocations().Save(ctx, alloc); err != nil {
		return nil, err
	}
	return alloc, nil
}

func (s *SalesOrderService) recordAllocations(ctx context.Context, so *order.SalesOrder, created []order.SalesOrderAllocation) {
	s.logger.Info("Allocated stock to sales order",
		zap.String("reference", so.Reference),
		zap.Int("allocations", len(created)),
	)
	if s.metrics != nil {
		s.metrics.RecordAllocations(ctx, int64(len(created)))
	}
	if len(created) == 0 || s.publisher == nil {
		return
	}
	e := order.NewAllocatedEvent(so, len(created))
	s.publish(ctx, []shared.DomainEvent{e})
}

// CompleteShipment ships a shipment: every allocated quantity leaves stock
// and is handed to the customer.
func (s *SalesOrderService) CompleteShipment(ctx context.Context, shipmentID uuid.UUID, req CompleteShipmentRequest, userID *uuid.UUID) (*ShipmentResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sales_order", "complete_shipment",
		telemetry.WithAttribute(telemetry.SpanAttrShipmentID, shipmentID))
	defer span.End()

	var (
		shipment *order.Shipment
		events   []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		owner, err := repos.SalesOrders().FindByShipmentID(ctx, shipmentID)
		if err != nil {
			return err
		}
		so, err := repos.SalesOrders().FindByIDForUpdate(ctx, owner.ID)
		if err != nil {
			return err
		}
		allocs, err := repos.Allocations().ListByShipment(ctx, shipmentID)
		if err != nil {
			return err
		}

		shipment, err = so.CompleteShipment(shipmentID, len(allocs), order.ShipmentCompletion{
			ShipmentDate:   req.ShipmentDate,
			DeliveryDate:   req.DeliveryDate,
			TrackingNumber: req.TrackingNumber,
			InvoiceNumber:  req.InvoiceNumber,
			Link:           req.Link,
			ShippedBy:      userID,
		})
		if err != nil {
			return err
		}

		slices.SortFunc(allocs, func(a, b order.SalesOrderAllocation) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
		for i := range allocs {
			if err := s.shipAllocation(ctx, repos, so, &allocs[i], userID); err != nil {
				return modelError(err, "")
			}
		}

		if err := repos.SalesOrders().Save(ctx, so); err != nil {
			return err
		}
		events = drain(so)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Shipment completed",
		zap.String("shipment_id", shipmentID.String()),
		zap.String("reference", shipment.Reference),
	)
	s.recordTransitions(ctx, events)
	s.publish(ctx, events)
	resp := ToShipmentResponse(shipment)
	return &resp, nil
}

// shipAllocation consumes the stock behind one allocation
func (s *SalesOrderService) shipAllocation(ctx context.Context, repos TransactionalRepositories, so *order.SalesOrder, alloc *order.SalesOrderAllocation, userID *uuid.UUID) error {
	item, err := repos.StockItems().FindByIDForUpdate(ctx, alloc.StockItemID)
	if err != nil {
		return err
	}
	target, err := item.AllocateToCustomer(so.CustomerID, so.ID, alloc.Quantity)
	if err != nil {
		return err
	}

	if target != item {
		if err := repos.StockItems().Save(ctx, item); err != nil {
			return err
		}
		split := stock.NewTrackingEntry(target.ID, stock.HistorySplitFromParent, userID, map[string]any{
			"stockitem": item.ID.String(),
			"quantity":  alloc.Quantity.String(),
		})
		if err := repos.Tracking().Save(ctx, split); err != nil {
			return err
		}
	}
	if err := repos.StockItems().Save(ctx, target); err != nil {
		return err
	}
	shipped := stock.NewTrackingEntry(target.ID, stock.HistoryShippedAgainstSalesOrder, userID, map[string]any{
		"customer":   so.CustomerID.String(),
		"salesorder": so.ID.String(),
		"quantity":   alloc.Quantity.String(),
	})
	if err := repos.Tracking().Save(ctx, shipped); err != nil {
		return err
	}

	// The allocation follows the stock that actually left.
	alloc.StockItemID = target.ID
	if err := repos.Allocations().Save(ctx, alloc); err != nil {
		return err
	}
	return so.RecordShipped(alloc.LineID, alloc.Quantity)
}

// prefixed nests a validation error under items.N
func prefixed(err error, index int) error {
	if ve := shared.AsValidationError(err, ""); ve != nil {
		return ve.Prefix(fmt.Sprintf("items.%d", index))
	}
	return err
}
