package order_test

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	apporder "github.com/inventree/backend/internal/application/order"
	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
	"github.com/inventree/backend/internal/infrastructure/persistence"
	"github.com/inventree/backend/internal/infrastructure/persistence/models"
)

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func (p *recordingPublisher) Publish(_ context.Context, events ...shared.DomainEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, events...)
	return nil
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, e := range p.events {
		out[i] = e.EventType()
	}
	return out
}

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mock.Mock
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	args := m.Called(ctx, events)
	return args.Error(0)
}

type fixture struct {
	t         *testing.T
	ctx       context.Context
	db        *gorm.DB
	publisher *recordingPublisher
	settings  order.Settings
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 logger.Default.LogMode(logger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	return &fixture{
		t:         t,
		ctx:       context.Background(),
		db:        db,
		publisher: &recordingPublisher{},
		settings:  order.DefaultSettings(),
	}
}

func (f *fixture) deps() apporder.Dependencies {
	return apporder.Dependencies{
		Scope:     persistence.NewGormTransactionScope(f.db, sql.LevelDefault),
		Settings:  f.settings,
		Publisher: f.publisher,
	}
}

func (f *fixture) part(name string, trackable bool) *stock.Part {
	f.t.Helper()
	p, err := stock.NewPart(name, trackable)
	require.NoError(f.t, err)
	require.NoError(f.t, persistence.NewGormPartRepository(f.db).Save(f.ctx, p))
	return p
}

func (f *fixture) supplierPart(partID, supplierID uuid.UUID, pack int64) *stock.SupplierPart {
	f.t.Helper()
	sp := stock.NewSupplierPart(partID, supplierID, "SKU-"+partID.String()[:8])
	sp.Pack = decimal.NewFromInt(pack)
	require.NoError(f.t, persistence.NewGormSupplierPartRepository(f.db).Save(f.ctx, sp))
	return sp
}

func (f *fixture) location(name string, structural bool) *stock.Location {
	f.t.Helper()
	loc, err := stock.NewLocation(name, nil)
	require.NoError(f.t, err)
	loc.Structural = structural
	require.NoError(f.t, persistence.NewGormLocationRepository(f.db).Save(f.ctx, loc))
	return loc
}

func (f *fixture) item(partID uuid.UUID, qty int64, loc *stock.Location) *stock.StockItem {
	f.t.Helper()
	item, err := stock.NewStockItem(partID, decimal.NewFromInt(qty), &loc.ID)
	require.NoError(f.t, err)
	require.NoError(f.t, persistence.NewGormStockItemRepository(f.db).Save(f.ctx, item))
	return item
}

func (f *fixture) serialized(partID uuid.UUID, serial string, loc *stock.Location) *stock.StockItem {
	f.t.Helper()
	item, err := stock.NewSerializedStockItem(partID, serial, &loc.ID)
	require.NoError(f.t, err)
	require.NoError(f.t, persistence.NewGormStockItemRepository(f.db).Save(f.ctx, item))
	return item
}

func (f *fixture) barcoded(partID uuid.UUID, barcode string, loc *stock.Location) *stock.StockItem {
	f.t.Helper()
	item, err := stock.NewStockItem(partID, decimal.NewFromInt(1), &loc.ID)
	require.NoError(f.t, err)
	item.AssignBarcode(barcode)
	require.NoError(f.t, persistence.NewGormStockItemRepository(f.db).Save(f.ctx, item))
	return item
}

func (f *fixture) reload(id uuid.UUID) *stock.StockItem {
	f.t.Helper()
	item, err := persistence.NewGormStockItemRepository(f.db).FindByID(f.ctx, id)
	require.NoError(f.t, err)
	return item
}

func (f *fixture) history(id uuid.UUID) []stock.TrackingEntry {
	f.t.Helper()
	entries, err := persistence.NewGormTrackingRepository(f.db).ListByStockItem(f.ctx, id)
	require.NoError(f.t, err)
	return entries
}

func (f *fixture) countItems() int64 {
	f.t.Helper()
	var n int64
	require.NoError(f.t, f.db.Model(&models.StockItemModel{}).Count(&n).Error)
	return n
}

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}
