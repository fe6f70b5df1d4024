package stock

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventree/backend/internal/domain/shared"
)

// StockItem is a physical quantity of one part at one location.
// A serialized item always has a quantity of exactly one.
type StockItem struct {
	shared.BaseAggregateRoot
	PartID          uuid.UUID
	SupplierPartID  *uuid.UUID
	ParentID        *uuid.UUID
	Quantity        decimal.Decimal
	Serial          string
	SerialInt       int64
	LocationID      *uuid.UUID
	Status          StockStatus
	Batch           string
	BarcodeHash     string
	PurchaseOrderID *uuid.UUID
	SalesOrderID    *uuid.UUID
	CustomerID      *uuid.UUID
	PurchasePrice   decimal.Decimal
}

// NewStockItem creates an untracked stock item
func NewStockItem(partID uuid.UUID, quantity decimal.Decimal, locationID *uuid.UUID) (*StockItem, error) {
	if partID == uuid.Nil {
		return nil, shared.NewValidationError("part", "Part must be specified")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("quantity", "Quantity must be greater than zero")
	}
	return &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PartID:            partID,
		Quantity:          quantity,
		LocationID:        locationID,
		Status:            StockStatusOK,
	}, nil
}

// NewSerializedStockItem creates a stock item of quantity one carrying serial
func NewSerializedStockItem(partID uuid.UUID, serial string, locationID *uuid.UUID) (*StockItem, error) {
	if serial == "" {
		return nil, shared.NewValidationError(SerialNumbersField, "Serial number cannot be empty")
	}
	item, err := NewStockItem(partID, decimal.NewFromInt(1), locationID)
	if err != nil {
		return nil, err
	}
	item.Serial = serial
	item.SerialInt = SerialInt(serial)
	return item, nil
}

// IsSerialized reports whether the item carries a serial number
func (i *StockItem) IsSerialized() bool {
	return i.Serial != ""
}

// InStock reports whether the item is physically held and usable
func (i *StockItem) InStock() bool {
	return i.CustomerID == nil && i.Status.IsAvailable() && i.Quantity.GreaterThan(decimal.Zero)
}

// Validate checks item invariants before persistence
func (i *StockItem) Validate() error {
	errs := &shared.ValidationError{Kind: shared.KindValidation}
	if i.Quantity.IsNegative() {
		errs.Add("quantity", "Quantity cannot be negative")
	}
	if i.IsSerialized() && !i.Quantity.Equal(decimal.NewFromInt(1)) {
		errs.Add("quantity", "Quantity must be 1 for item with a serial number")
	}
	if !i.Status.IsValid() {
		errs.Add("status", "Invalid stock status")
	}
	if errs.HasErrors() {
		return errs
	}
	return nil
}

// AssignBarcode stores the hash of the scanned barcode data
func (i *StockItem) AssignBarcode(data string) {
	if data == "" {
		i.BarcodeHash = ""
		return
	}
	i.BarcodeHash = HashBarcode(data)
	i.touch()
}

// MoveTo places the item at a location
func (i *StockItem) MoveTo(location *Location) error {
	if location == nil {
		return shared.NewValidationError("location", "Destination location must be specified")
	}
	if !location.CanHoldStock() {
		return shared.NewValidationError("location", "Stock items cannot be located into structural stock locations")
	}
	id := location.ID
	i.LocationID = &id
	i.touch()
	return nil
}

// AllocateToCustomer hands quantity of this item to a customer against a sales
// order. Taking the whole quantity reassigns the item itself; a partial
// quantity is split into a new item which is returned.
func (i *StockItem) AllocateToCustomer(customerID, salesOrderID uuid.UUID, quantity decimal.Decimal) (*StockItem, error) {
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("quantity", "Quantity must be greater than zero")
	}
	if quantity.GreaterThan(i.Quantity) {
		return nil, shared.NewKindError(shared.KindOverAllocation, "quantity", "Quantity exceeds available stock quantity")
	}

	target := i
	if quantity.LessThan(i.Quantity) {
		target = i.split(quantity)
	}
	target.CustomerID = &customerID
	target.SalesOrderID = &salesOrderID
	target.LocationID = nil
	target.touch()
	return target, nil
}

// ReturnToStock brings a customer item back into inventory
func (i *StockItem) ReturnToStock(location *Location, status StockStatus) error {
	if err := i.MoveTo(location); err != nil {
		return err
	}
	i.CustomerID = nil
	i.SalesOrderID = nil
	i.Status = status
	return nil
}

func (i *StockItem) split(quantity decimal.Decimal) *StockItem {
	parentID := i.ID
	child := &StockItem{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		PartID:            i.PartID,
		SupplierPartID:    i.SupplierPartID,
		ParentID:          &parentID,
		Quantity:          quantity,
		LocationID:        i.LocationID,
		Status:            i.Status,
		Batch:             i.Batch,
		PurchaseOrderID:   i.PurchaseOrderID,
		PurchasePrice:     i.PurchasePrice,
	}
	i.Quantity = i.Quantity.Sub(quantity)
	i.touch()
	return child
}

func (i *StockItem) touch() {
	i.UpdatedAt = time.Now()
}
