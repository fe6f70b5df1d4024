package order

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
	"github.com/inventree/backend/internal/infrastructure/telemetry"
)

// PurchaseOrderService handles purchase order business operations
type PurchaseOrderService struct {
	baseService
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(deps Dependencies) *PurchaseOrderService {
	return &PurchaseOrderService{baseService: newBaseService(deps)}
}

// Create creates a new purchase order
func (s *PurchaseOrderService) Create(ctx context.Context, req CreatePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	var po *order.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		orders := repos.PurchaseOrders()
		reference, refInt, err := resolveReference(s.settings.PurchaseOrderReferencePattern, req.Reference,
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

		po, err = order.NewPurchaseOrder(reference, req.SupplierID, req.CreatedBy)
		if err != nil {
			return err
		}
		po.ReferenceInt = refInt
		po.SupplierReference = req.SupplierReference
		po.DestinationID = req.DestinationID
		req.HeaderRequest.apply(&po.Header)

		for i, lr := range req.Lines {
			if err := s.addLine(ctx, repos, po, lr); err != nil {
				if ve := shared.AsValidationError(err, ""); ve != nil {
					return ve.Prefix(fmt.Sprintf("lines.%d", i))
				}
				return err
			}
		}
		return orders.Save(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	s.recordCreated(ctx, order.KindPurchaseOrder)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

func (s *PurchaseOrderService) addLine(ctx context.Context, repos TransactionalRepositories, po *order.PurchaseOrder, req PurchaseOrderLineRequest) error {
	sp, err := repos.SupplierParts().FindByID(ctx, req.SupplierPartID)
	if err != nil {
		return lookup(err, "part", "Supplier part")
	}
	line, err := po.AddLine(sp, req.Quantity, req.PurchasePrice)
	if err != nil {
		return err
	}
	line.DestinationID = req.DestinationID
	line.TargetDate = req.TargetDate
	line.Reference = req.Reference
	line.Notes = req.Notes
	return nil
}

// GetByID retrieves a purchase order by ID
func (s *PurchaseOrderService) GetByID(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	var resp PurchaseOrderResponse
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		po, err := repos.PurchaseOrders().FindByID(ctx, orderID)
		if err != nil {
			return err
		}
		resp = ToPurchaseOrderResponse(po)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// List retrieves purchase orders matching the filter
func (s *PurchaseOrderService) List(ctx context.Context, filter ListFilter) ([]PurchaseOrderResponse, int64, error) {
	var (
		items []PurchaseOrderResponse
		total int64
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		f := filter.toShared()
		orders, err := repos.PurchaseOrders().FindAll(ctx, f)
		if err != nil {
			return err
		}
		total, err = repos.PurchaseOrders().Count(ctx, f)
		if err != nil {
			return err
		}
		items = make([]PurchaseOrderResponse, len(orders))
		for i := range orders {
			items[i] = ToPurchaseOrderResponse(&orders[i])
		}
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// AddLine adds a line item to a pending purchase order
func (s *PurchaseOrderService) AddLine(ctx context.Context, orderID uuid.UUID, req PurchaseOrderLineRequest) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, orderID, func(repos TransactionalRepositories, po *order.PurchaseOrder) error {
		return s.addLine(ctx, repos, po, req)
	})
}

// RemoveLine removes a line item from a pending purchase order
func (s *PurchaseOrderService) RemoveLine(ctx context.Context, orderID, lineID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, po *order.PurchaseOrder) error {
		return po.RemoveLine(lineID)
	})
}

// Place issues the order to the supplier
func (s *PurchaseOrderService) Place(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, po *order.PurchaseOrder) error {
		return po.Place()
	})
}

// Complete closes the order, optionally accepting unreceived lines
func (s *PurchaseOrderService) Complete(ctx context.Context, orderID uuid.UUID, acceptIncomplete bool) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, po *order.PurchaseOrder) error {
		return po.Complete(acceptIncomplete)
	})
}

// Cancel cancels the order
func (s *PurchaseOrderService) Cancel(ctx context.Context, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	return s.mutate(ctx, orderID, func(_ TransactionalRepositories, po *order.PurchaseOrder) error {
		return po.Cancel()
	})
}

func (s *PurchaseOrderService) mutate(ctx context.Context, orderID uuid.UUID, fn func(TransactionalRepositories, *order.PurchaseOrder) error) (*PurchaseOrderResponse, error) {
	var (
		po     *order.PurchaseOrder
		events []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := fn(repos, po); err != nil {
			return err
		}
		if err := repos.PurchaseOrders().Save(ctx, po); err != nil {
			return err
		}
		events = drain(po)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recordTransitions(ctx, events)
	s.publish(ctx, events)
	resp := ToPurchaseOrderResponse(po)
	return &resp, nil
}

// receiptPlan is one validated entry of a receipt batch
type receiptPlan struct {
	line         *order.PurchaseOrderLineItem
	supplierPart *stock.SupplierPart
	part         *stock.Part
	quantity     decimal.Decimal
	baseQuantity decimal.Decimal
	location     *stock.Location
	serials      []string
	barcodeHash  string
	batch        string
	status       stock.StockStatus
}

// ReceiveItems receives a batch of line items into stock. Every entry is
// validated before anything is written; any failure leaves the database
// untouched.
func (s *PurchaseOrderService) ReceiveItems(ctx context.Context, orderID uuid.UUID, req ReceiveItemsRequest, userID *uuid.UUID) (*ReceiveResult, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "receive_items",
		telemetry.WithAttribute(telemetry.SpanAttrOrderID, orderID),
		telemetry.WithAttribute(telemetry.SpanAttrItemCount, len(req.Items)))
	defer span.End()

	var (
		po      *order.PurchaseOrder
		created []*stock.StockItem
		events  []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		var err error
		po, err = repos.PurchaseOrders().FindByIDForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if err := po.CheckReceivable(); err != nil {
			return err
		}

		plans, err := s.planReceipt(ctx, repos, po, req)
		if err != nil {
			return err
		}

		for i, p := range plans {
			items, err := s.applyReceipt(ctx, repos, po, p, userID)
			if err != nil {
				if ve := shared.AsValidationError(modelError(err, ""), ""); ve != nil {
					return ve.Prefix(fmt.Sprintf("items.%d", i))
				}
				return err
			}
			created = append(created, items...)
		}

		po.RecordReceipt(len(created), userID)
		if s.settings.PurchaseOrderAutoComplete && po.IsFullyReceived() {
			if err := po.Complete(false); err != nil {
				return modelError(err, "")
			}
		}
		if err := repos.PurchaseOrders().Save(ctx, po); err != nil {
			return err
		}
		events = drain(po)
		return nil
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("Received items against purchase order",
		zap.String("reference", po.Reference),
		zap.Int("lines", len(req.Items)),
		zap.Int("stock_items", len(created)),
	)
	if s.metrics != nil {
		s.metrics.RecordItemsReceived(ctx, string(order.KindPurchaseOrder), int64(len(created)))
	}
	s.recordTransitions(ctx, events)
	s.publish(ctx, events)

	result := &ReceiveResult{
		Order:      ToPurchaseOrderResponse(po),
		StockItems: make([]StockItemResponse, len(created)),
	}
	for i, item := range created {
		result.StockItems[i] = ToStockItemResponse(item)
	}
	return result, nil
}

// planReceipt validates every entry and collects all errors keyed by entry index
func (s *PurchaseOrderService) planReceipt(ctx context.Context, repos TransactionalRepositories, po *order.PurchaseOrder, req ReceiveItemsRequest) ([]receiptPlan, error) {
	if len(req.Items) == 0 {
		return nil, shared.NewValidationError("items", "Line items must be provided")
	}

	errs := &shared.ValidationError{Kind: shared.KindValidation}
	plans := make([]receiptPlan, 0, len(req.Items))
	barcodes := make(map[string]int)
	serialsByPart := make(map[uuid.UUID]map[string]struct{})
	pending := make(map[uuid.UUID]decimal.Decimal)
	locations := make(map[uuid.UUID]*stock.Location)

	for i, item := range req.Items {
		prefix := fmt.Sprintf("items.%d", i)
		fail := func(field, msg string) {
			errs.Add(prefix+"."+field, msg)
		}

		line, err := po.Line(item.LineItemID)
		if err != nil {
			errs.Merge(shared.AsValidationError(err, "line_item").Prefix(prefix))
			continue
		}
		p := receiptPlan{line: line, quantity: item.Quantity, batch: item.Batch, status: stock.StockStatusOK}

		if item.Quantity.LessThanOrEqual(decimal.Zero) {
			fail("quantity", "Quantity must be greater than zero")
			continue
		}
		already := pending[line.ID]
		if already.Add(item.Quantity).GreaterThan(line.Outstanding()) {
			fail("quantity", fmt.Sprintf("Quantity exceeds outstanding quantity (%s)", line.Outstanding()))
		}
		pending[line.ID] = already.Add(item.Quantity)

		if item.Status != nil {
			p.status = stock.StockStatus(*item.Status)
			if !p.status.IsValid() {
				fail("status", "Invalid stock status")
			}
		}

		locID := firstID(item.LocationID, line.DestinationID, po.DestinationID, req.LocationID)
		if locID == nil {
			fail("location", "Destination location must be specified")
		} else {
			loc, ok := locations[*locID]
			if !ok {
				loc, err = repos.Locations().FindByID(ctx, *locID)
				if err != nil {
					if ve := shared.AsValidationError(lookup(err, "location", "Location"), ""); ve != nil {
						errs.Merge(ve.Prefix(prefix))
						continue
					}
					return nil, err
				}
				locations[*locID] = loc
			}
			if !loc.CanHoldStock() {
				fail("location", "Stock items cannot be located into structural stock locations")
			}
			p.location = loc
		}

		if item.Barcode != "" {
			p.barcodeHash = stock.HashBarcode(item.Barcode)
			if first, dup := barcodes[p.barcodeHash]; dup {
				fail("barcode", fmt.Sprintf("Supplied barcode values must be unique (duplicates items.%d)", first))
			} else {
				barcodes[p.barcodeHash] = i
				inUse, err := repos.StockItems().ExistsBarcodeHash(ctx, p.barcodeHash)
				if err != nil {
					return nil, err
				}
				if inUse {
					fail("barcode", "Barcode is already in use")
				}
			}
		}

		p.supplierPart, err = repos.SupplierParts().FindByID(ctx, line.SupplierPartID)
		if err != nil {
			return nil, err
		}
		p.part, err = repos.Parts().FindByID(ctx, p.supplierPart.PartID)
		if err != nil {
			return nil, err
		}
		p.baseQuantity = p.supplierPart.BaseQuantity(item.Quantity)

		isInteger := p.baseQuantity.Equal(p.baseQuantity.Truncate(0))
		if p.part.Trackable && !isInteger {
			fail("quantity", "An integer quantity must be provided for trackable parts")
			continue
		}

		if item.SerialNumbers != "" {
			if !isInteger {
				fail("serial_numbers", "Serial numbers require an integer quantity")
				continue
			}
			latest, err := repos.StockItems().LatestSerial(ctx, p.part.ID)
			if err != nil {
				return nil, err
			}
			serials, err := stock.ExtractSerialNumbers(item.SerialNumbers, int(p.baseQuantity.IntPart()), latest)
			if err != nil {
				if ve := shared.AsValidationError(err, stock.SerialNumbersField); ve != nil {
					errs.Merge(ve.Prefix(prefix))
					continue
				}
				return nil, err
			}

			seen := serialsByPart[p.part.ID]
			if seen == nil {
				seen = make(map[string]struct{})
				serialsByPart[p.part.ID] = seen
			}
			for _, serial := range serials {
				if _, dup := seen[serial]; dup {
					fail("serial_numbers", fmt.Sprintf("Duplicate serial: %s", serial))
					continue
				}
				seen[serial] = struct{}{}
				existing, err := repos.StockItems().FindSerialized(ctx, p.part.ID, serial)
				if err != nil {
					return nil, err
				}
				if len(existing) > 0 {
					fail("serial_numbers", fmt.Sprintf("Serial number %s already exists", serial))
				}
			}
			if p.barcodeHash != "" && len(serials) > 1 {
				fail("barcode", "Barcode can only be assigned to a single stock item")
			}
			p.serials = serials
		}

		plans = append(plans, p)
	}

	if errs.HasErrors() {
		return nil, errs
	}
	return plans, nil
}

// applyReceipt writes the stock produced by one planned entry
func (s *PurchaseOrderService) applyReceipt(ctx context.Context, repos TransactionalRepositories, po *order.PurchaseOrder, p receiptPlan, userID *uuid.UUID) ([]*stock.StockItem, error) {
	if _, err := po.ReceiveLine(p.line.ID, p.quantity); err != nil {
		return nil, err
	}

	var items []*stock.StockItem
	if len(p.serials) > 0 {
		for _, serial := range p.serials {
			item, err := stock.NewSerializedStockItem(p.part.ID, serial, nil)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
	} else {
		item, err := stock.NewStockItem(p.part.ID, p.baseQuantity, nil)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	poID := po.ID
	spID := p.supplierPart.ID
	for _, item := range items {
		if err := item.MoveTo(p.location); err != nil {
			return nil, err
		}
		item.SupplierPartID = &spID
		item.PurchaseOrderID = &poID
		item.Batch = p.batch
		item.Status = p.status
		item.PurchasePrice = p.line.PurchasePrice
		item.BarcodeHash = p.barcodeHash
		if err := item.Validate(); err != nil {
			return nil, err
		}
		if err := repos.StockItems().Save(ctx, item); err != nil {
			return nil, err
		}

		entry := stock.NewTrackingEntry(item.ID, stock.HistoryReceivedAgainstPurchaseOrder, userID, map[string]any{
			"quantity":      item.Quantity.String(),
			"location":      p.location.ID.String(),
			"purchaseorder": po.ID.String(),
		})
		if err := repos.Tracking().Save(ctx, entry); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func firstID(ids ...*uuid.UUID) *uuid.UUID {
	for _, id := range ids {
		if id != nil && *id != uuid.Nil {
			return id
		}
	}
	return nil
}

func (s *baseService) recordCreated(ctx context.Context, kind order.Kind) {
	if s.metrics != nil {
		s.metrics.RecordOrderCreated(ctx, string(kind))
	}
}
