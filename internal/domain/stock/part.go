package stock

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventree/backend/internal/domain/shared"
)

// Part is the catalogue entry stock items are instances of.
// Trackable parts are managed by serial number.
type Part struct {
	ID          uuid.UUID
	Name        string
	IPN         string
	Description string
	Trackable   bool
	Active      bool
	Salable     bool
	Purchasable bool
}

// NewPart creates an active part
func NewPart(name string, trackable bool) (*Part, error) {
	if name == "" {
		return nil, shared.NewValidationError("name", "Part name is required")
	}
	return &Part{
		ID:          uuid.New(),
		Name:        name,
		Trackable:   trackable,
		Active:      true,
		Salable:     true,
		Purchasable: true,
	}, nil
}

// SupplierPart links a part to a supplier, with the pack size used to convert
// purchase quantities into base quantities.
type SupplierPart struct {
	ID         uuid.UUID
	PartID     uuid.UUID
	SupplierID uuid.UUID
	SKU        string
	Pack       decimal.Decimal
}

// NewSupplierPart creates a supplier part with a pack size of one
func NewSupplierPart(partID, supplierID uuid.UUID, sku string) *SupplierPart {
	return &SupplierPart{
		ID:         uuid.New(),
		PartID:     partID,
		SupplierID: supplierID,
		SKU:        sku,
		Pack:       decimal.NewFromInt(1),
	}
}

// BaseQuantity converts a purchase quantity into part units
func (s *SupplierPart) BaseQuantity(quantity decimal.Decimal) decimal.Decimal {
	if s.Pack.IsZero() || s.Pack.IsNegative() {
		return quantity
	}
	return quantity.Mul(s.Pack)
}
