package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
)

// SalesOrderAllocation reserves a quantity of a stock item for a sales order
// line, to leave on a particular shipment.
type SalesOrderAllocation struct {
	ID          uuid.UUID
	LineID      uuid.UUID
	ShipmentID  uuid.UUID
	StockItemID uuid.UUID
	Quantity    decimal.Decimal
	CreatedAt   time.Time
}

// AllocationRequest is everything needed to decide a single allocation.
// Availability must be computed from a locked read of the stock item.
type AllocationRequest struct {
	Order         *SalesOrder
	LineID        uuid.UUID
	ShipmentID    uuid.UUID
	Item          *stock.StockItem
	Quantity      decimal.Decimal
	Availability  stock.Availability
	LineAllocated decimal.Decimal
}

// Allocate validates a request against the ledger rules and returns the
// allocation to persist. The stock item quantity is not changed.
func Allocate(req AllocationRequest) (*SalesOrderAllocation, error) {
	o := req.Order
	if err := o.checkOpen(); err != nil {
		return nil, err
	}
	line, err := o.Line(req.LineID)
	if err != nil {
		return nil, err
	}
	shipment, err := o.Shipment(req.ShipmentID)
	if err != nil {
		return nil, err
	}
	if shipment.IsShipped() {
		return nil, shared.NewKindError(shared.KindShipmentClosed, "shipment", "Shipment has already been shipped")
	}

	item := req.Item
	if item == nil {
		return nil, shared.NewValidationError("stock_item", "Stock item has not been assigned")
	}
	if item.PartID != line.PartID {
		return nil, shared.NewValidationError("stock_item", "Cannot allocate stock item to a line with a different part")
	}
	if !item.InStock() {
		return nil, shared.NewValidationError("stock_item", "Stock item is not in stock")
	}

	q := req.Quantity
	if q.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("quantity", "Allocation quantity must be greater than zero")
	}
	if item.IsSerialized() && !q.Equal(decimal.NewFromInt(1)) {
		return nil, shared.NewKindError(shared.KindQuantityMismatch, "quantity", "Quantity must be 1 for serialized stock item")
	}
	if q.GreaterThan(item.Quantity) {
		return nil, shared.NewKindError(shared.KindOverAllocation, "quantity", "Allocation quantity cannot exceed stock quantity")
	}
	if free := req.Availability.Unallocated(); q.GreaterThan(free) {
		return nil, shared.NewKindError(shared.KindOverAllocation, "quantity",
			fmt.Sprintf("Available quantity (%s) exceeded", free))
	}
	if req.LineAllocated.Add(q).GreaterThan(line.Quantity) {
		return nil, shared.NewKindError(shared.KindOverAllocation, "quantity",
			fmt.Sprintf("Allocated quantity exceeds line item quantity (%s)", line.Quantity))
	}

	return &SalesOrderAllocation{
		ID:          uuid.New(),
		LineID:      line.ID,
		ShipmentID:  shipment.ID,
		StockItemID: item.ID,
		Quantity:    q,
		CreatedAt:   time.Now(),
	}, nil
}

// TotalAllocated sums allocation quantities
func TotalAllocated(allocations []SalesOrderAllocation) decimal.Decimal {
	total := decimal.Zero
	for _, a := range allocations {
		total = total.Add(a.Quantity)
	}
	return total
}

// LineUnallocated returns what remains to be allocated for a line
func LineUnallocated(line *SalesOrderLineItem, allocations []SalesOrderAllocation) decimal.Decimal {
	free := line.Quantity.Sub(TotalAllocated(allocations))
	if free.IsNegative() {
		return decimal.Zero
	}
	return free
}

// IsFullyAllocated reports whether allocations cover the line quantity
func IsFullyAllocated(line *SalesOrderLineItem, allocations []SalesOrderAllocation) bool {
	return TotalAllocated(allocations).GreaterThanOrEqual(line.Quantity)
}
