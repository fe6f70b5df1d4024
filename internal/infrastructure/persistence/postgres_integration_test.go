//go:build integration

package persistence

import (
	"context"
	"database/sql"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apporder "github.com/inventree/backend/internal/application/order"
	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
	"github.com/inventree/backend/internal/infrastructure/migration"
)

// migrationsDir resolves the repository migrations directory from this file
func migrationsDir(t *testing.T) string {
	t.Helper()
	_, filename, _, ok := runtime.Caller(0)
	require.True(t, ok)
	return filepath.Join(filepath.Dir(filename), "..", "..", "..", "migrations")
}

// newPostgresDB starts a disposable PostgreSQL container and applies the SQL migrations
func newPostgresDB(t *testing.T) *gorm.DB {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("orders_test"),
		tcpostgres.WithUsername("postgres"),
		tcpostgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "Failed to start PostgreSQL container")
	t.Cleanup(func() {
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("Warning: Failed to terminate container: %v", err)
		}
	})

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	db, err := gorm.Open(gormpostgres.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(8)
	t.Cleanup(func() { _ = sqlDB.Close() })

	m, err := migration.New(sqlDB, migrationsDir(t), zap.NewNop())
	require.NoError(t, err)
	require.NoError(t, m.Up())
	version, dirty, err := m.Version()
	require.NoError(t, err)
	require.False(t, dirty)
	require.NotZero(t, version)

	return db
}

func TestPostgres_MigrationsMatchModels(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()

	part, err := stock.NewPart("Bolt", false)
	require.NoError(t, err)
	require.NoError(t, NewGormPartRepository(db).Save(ctx, part))
	loc, err := stock.NewLocation("Store", nil)
	require.NoError(t, err)
	require.NoError(t, NewGormLocationRepository(db).Save(ctx, loc))
	item, err := stock.NewStockItem(part.ID, decimal.NewFromInt(5), &loc.ID)
	require.NoError(t, err)
	require.NoError(t, NewGormStockItemRepository(db).Save(ctx, item))

	scope := NewGormTransactionScope(db, sql.LevelReadCommitted)
	deps := apporder.Dependencies{Scope: scope, Settings: order.DefaultSettings()}
	deps.Settings.SalesOrderDefaultShipment = true

	po, err := apporder.NewPurchaseOrderService(deps).Create(ctx, apporder.CreatePurchaseOrderRequest{SupplierID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, "PO-0001", po.Reference)

	so, err := apporder.NewSalesOrderService(deps).Create(ctx, apporder.CreateSalesOrderRequest{
		CustomerID: uuid.New(),
		Lines:      []apporder.SalesOrderLineRequest{{PartID: part.ID, Quantity: decimal.NewFromInt(2)}},
	})
	require.NoError(t, err)
	require.Len(t, so.Shipments, 1)

	ro, err := apporder.NewReturnOrderService(deps).Create(ctx, apporder.CreateReturnOrderRequest{CustomerID: uuid.New()})
	require.NoError(t, err)
	assert.Equal(t, "RMA-0001", ro.Reference)
}

func TestPostgres_ConcurrentAllocationLocksStock(t *testing.T) {
	db := newPostgresDB(t)
	ctx := context.Background()

	part, err := stock.NewPart("Bolt", false)
	require.NoError(t, err)
	require.NoError(t, NewGormPartRepository(db).Save(ctx, part))
	item, err := stock.NewStockItem(part.ID, decimal.NewFromInt(10), nil)
	require.NoError(t, err)
	require.NoError(t, NewGormStockItemRepository(db).Save(ctx, item))

	deps := apporder.Dependencies{
		Scope:    NewGormTransactionScope(db, sql.LevelReadCommitted),
		Settings: order.DefaultSettings(),
	}
	deps.Settings.SalesOrderDefaultShipment = true
	svc := apporder.NewSalesOrderService(deps)

	const workers = 8
	orders := make([]*apporder.SalesOrderResponse, workers)
	for i := range orders {
		orders[i], err = svc.Create(ctx, apporder.CreateSalesOrderRequest{
			CustomerID: uuid.New(),
			Lines:      []apporder.SalesOrderLineRequest{{PartID: part.ID, Quantity: decimal.NewFromInt(3)}},
		})
		require.NoError(t, err)
	}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for _, so := range orders {
		wg.Add(1)
		go func(so *apporder.SalesOrderResponse) {
			defer wg.Done()
			_, err := svc.AllocateItems(ctx, so.ID, apporder.AllocateItemsRequest{
				ShipmentID: so.Shipments[0].ID,
				Items: []apporder.AllocateItemRequest{{
					LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: decimal.NewFromInt(3),
				}},
			})
			if err != nil {
				assert.ErrorIs(t, err, shared.ErrOverAllocation)
				return
			}
			mu.Lock()
			succeeded++
			mu.Unlock()
		}(so)
	}
	wg.Wait()

	assert.Equal(t, 3, succeeded)
	open, err := NewGormAllocationRepository(db).OpenQuantitiesForStockItem(ctx, item.ID)
	require.NoError(t, err)
	allocated := decimal.Sum(decimal.Zero, open...)
	assert.True(t, allocated.Equal(decimal.NewFromInt(9)), "allocated %s", allocated)
}
