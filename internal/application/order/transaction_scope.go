package order

import (
	"context"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/stock"
)

// TransactionScope runs a unit of work inside one database transaction.
// If fn returns an error or panics, every write made through repos is rolled back.
type TransactionScope interface {
	Execute(ctx context.Context, fn func(repos TransactionalRepositories) error) error
}

// TransactionalRepositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type TransactionalRepositories interface {
	PurchaseOrders() order.PurchaseOrderRepository
	SalesOrders() order.SalesOrderRepository
	Allocations() order.AllocationRepository
	ReturnOrders() order.ReturnOrderRepository
	StockItems() stock.StockItemRepository
	Parts() stock.PartRepository
	SupplierParts() stock.SupplierPartRepository
	Locations() stock.LocationRepository
	Tracking() stock.TrackingRepository
	BuildAllocations() stock.BuildAllocationRepository
}
