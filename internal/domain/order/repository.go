package order

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventree/backend/internal/domain/shared"
)

// PurchaseOrderRepository persists purchase orders with their lines
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	// FindByIDForUpdate loads the order holding a row lock on it
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*PurchaseOrder, error)
	FindByReference(ctx context.Context, reference string) (*PurchaseOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]PurchaseOrder, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	// FindOpenByTargetDate returns open orders whose target date is date
	FindOpenByTargetDate(ctx context.Context, date time.Time) ([]PurchaseOrder, error)
	MaxReferenceInt(ctx context.Context) (int64, error)
	Save(ctx context.Context, order *PurchaseOrder) error
}

// SalesOrderRepository persists sales orders with their lines and shipments
type SalesOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*SalesOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*SalesOrder, error)
	FindByReference(ctx context.Context, reference string) (*SalesOrder, error)
	// FindByShipmentID returns the order owning a shipment
	FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) (*SalesOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]SalesOrder, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	FindOpenByTargetDate(ctx context.Context, date time.Time) ([]SalesOrder, error)
	MaxReferenceInt(ctx context.Context) (int64, error)
	Save(ctx context.Context, order *SalesOrder) error
}

// AllocationRepository persists sales order allocations
type AllocationRepository interface {
	ListByLine(ctx context.Context, lineID uuid.UUID) ([]SalesOrderAllocation, error)
	ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]SalesOrderAllocation, error)
	ListByOrder(ctx context.Context, orderID uuid.UUID) ([]SalesOrderAllocation, error)
	// OpenQuantitiesForStockItem returns the quantities of allocations of
	// the item whose shipment has not shipped
	OpenQuantitiesForStockItem(ctx context.Context, itemID uuid.UUID) ([]decimal.Decimal, error)
	Save(ctx context.Context, allocation *SalesOrderAllocation) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// ReturnOrderRepository persists return orders with their lines
type ReturnOrderRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReturnOrder, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*ReturnOrder, error)
	FindByReference(ctx context.Context, reference string) (*ReturnOrder, error)
	FindAll(ctx context.Context, filter shared.Filter) ([]ReturnOrder, error)
	Count(ctx context.Context, filter shared.Filter) (int64, error)
	MaxReferenceInt(ctx context.Context) (int64, error)
	Save(ctx context.Context, order *ReturnOrder) error
}
