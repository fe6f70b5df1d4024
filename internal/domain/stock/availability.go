package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// BuildAllocation reserves stock for a build order. This service only reads
// them; they reduce what sales orders may allocate.
type BuildAllocation struct {
	ID          uuid.UUID
	BuildID     uuid.UUID
	StockItemID uuid.UUID
	Quantity    decimal.Decimal
}

// Availability is a snapshot of what is reserved against one stock item
type Availability struct {
	Quantity       decimal.Decimal
	SalesAllocated decimal.Decimal
	BuildAllocated decimal.Decimal
}

// NewAvailability sums the open sales allocations and build allocations of item
func NewAvailability(item *StockItem, salesAllocated []decimal.Decimal, builds []BuildAllocation) Availability {
	a := Availability{
		Quantity:       item.Quantity,
		SalesAllocated: decimal.Sum(decimal.Zero, salesAllocated...),
		BuildAllocated: decimal.Zero,
	}
	for _, b := range builds {
		a.BuildAllocated = a.BuildAllocated.Add(b.Quantity)
	}
	return a
}

// Allocated returns the total reserved quantity
func (a Availability) Allocated() decimal.Decimal {
	return a.SalesAllocated.Add(a.BuildAllocated)
}

// Unallocated is the quantity still free to allocate, never below zero
func (a Availability) Unallocated() decimal.Decimal {
	free := a.Quantity.Sub(a.Allocated())
	if free.IsNegative() {
		return decimal.Zero
	}
	return free
}

// IsOverAllocated reports whether reservations exceed the physical quantity
func (a Availability) IsOverAllocated() bool {
	return a.Allocated().GreaterThan(a.Quantity)
}
