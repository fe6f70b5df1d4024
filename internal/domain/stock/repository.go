package stock

import (
	"context"

	"github.com/google/uuid"
)

// StockItemRepository persists stock items
type StockItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*StockItem, error)
	// FindByIDForUpdate re-reads the item holding a row lock until the
	// surrounding transaction ends
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*StockItem, error)
	FindByBarcodeHash(ctx context.Context, hash string) (*StockItem, error)
	// FindSerialized returns items of part with the given serial and quantity one
	FindSerialized(ctx context.Context, partID uuid.UUID, serial string) ([]StockItem, error)
	// LatestSerial returns the highest serial assigned for part, or ""
	LatestSerial(ctx context.Context, partID uuid.UUID) (string, error)
	ExistsBarcodeHash(ctx context.Context, hash string) (bool, error)
	Save(ctx context.Context, item *StockItem) error
}

// PartRepository persists parts
type PartRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Part, error)
	Save(ctx context.Context, part *Part) error
}

// SupplierPartRepository persists supplier parts
type SupplierPartRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SupplierPart, error)
	Save(ctx context.Context, sp *SupplierPart) error
}

// LocationRepository persists stock locations
type LocationRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Location, error)
	Save(ctx context.Context, location *Location) error
}

// TrackingRepository persists stock history
type TrackingRepository interface {
	Save(ctx context.Context, entry *TrackingEntry) error
	ListByStockItem(ctx context.Context, itemID uuid.UUID) ([]TrackingEntry, error)
}

// BuildAllocationRepository reads build order reservations
type BuildAllocationRepository interface {
	ListByStockItem(ctx context.Context, itemID uuid.UUID) ([]BuildAllocation, error)
	Save(ctx context.Context, allocation *BuildAllocation) error
}
