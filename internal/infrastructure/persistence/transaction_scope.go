package persistence

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	apporder "github.com/inventree/backend/internal/application/order"
	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/stock"
)

// GormTransactionScope implements TransactionScope using GORM transactions.
type GormTransactionScope struct {
	db        *gorm.DB
	isolation sql.IsolationLevel
}

// NewGormTransactionScope creates a scope running at the given isolation level.
// sql.LevelDefault leaves the choice to the database.
func NewGormTransactionScope(db *gorm.DB, isolation sql.IsolationLevel) *GormTransactionScope {
	return &GormTransactionScope{db: db, isolation: isolation}
}

// Execute runs fn within a database transaction. The transaction is rolled
// back when fn returns an error or panics.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos apporder.TransactionalRepositories) error) error {
	var opts []*sql.TxOptions
	if s.isolation != sql.LevelDefault {
		opts = append(opts, &sql.TxOptions{Isolation: s.isolation})
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&gormTransactionalRepositories{tx: tx})
	}, opts...)
}

// gormTransactionalRepositories hands out repositories bound to one transaction
type gormTransactionalRepositories struct {
	tx *gorm.DB
}

func (r *gormTransactionalRepositories) PurchaseOrders() order.PurchaseOrderRepository {
	return NewGormPurchaseOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) SalesOrders() order.SalesOrderRepository {
	return NewGormSalesOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) Allocations() order.AllocationRepository {
	return NewGormAllocationRepository(r.tx)
}

func (r *gormTransactionalRepositories) ReturnOrders() order.ReturnOrderRepository {
	return NewGormReturnOrderRepository(r.tx)
}

func (r *gormTransactionalRepositories) StockItems() stock.StockItemRepository {
	return NewGormStockItemRepository(r.tx)
}

func (r *gormTransactionalRepositories) Parts() stock.PartRepository {
	return NewGormPartRepository(r.tx)
}

func (r *gormTransactionalRepositories) SupplierParts() stock.SupplierPartRepository {
	return NewGormSupplierPartRepository(r.tx)
}

func (r *gormTransactionalRepositories) Locations() stock.LocationRepository {
	return NewGormLocationRepository(r.tx)
}

func (r *gormTransactionalRepositories) Tracking() stock.TrackingRepository {
	return NewGormTrackingRepository(r.tx)
}

func (r *gormTransactionalRepositories) BuildAllocations() stock.BuildAllocationRepository {
	return NewGormBuildAllocationRepository(r.tx)
}

var (
	_ apporder.TransactionScope          = (*GormTransactionScope)(nil)
	_ apporder.TransactionalRepositories = (*gormTransactionalRepositories)(nil)
)
