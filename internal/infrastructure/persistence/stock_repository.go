package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
	"github.com/inventree/backend/internal/infrastructure/persistence/models"
)

// GormStockItemRepository implements StockItemRepository using GORM
type GormStockItemRepository struct {
	db *gorm.DB
}

// NewGormStockItemRepository creates a new GormStockItemRepository
func NewGormStockItemRepository(db *gorm.DB) *GormStockItemRepository {
	return &GormStockItemRepository{db: db}
}

// FindByID finds a stock item by its ID
func (r *GormStockItemRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.StockItem, error) {
	var model models.StockItemModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByIDForUpdate finds a stock item with SELECT ... FOR UPDATE
func (r *GormStockItemRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*stock.StockItem, error) {
	var model models.StockItemModel
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindByBarcodeHash finds the stock item carrying a barcode
func (r *GormStockItemRepository) FindByBarcodeHash(ctx context.Context, hash string) (*stock.StockItem, error) {
	var model models.StockItemModel
	if err := r.db.WithContext(ctx).First(&model, "barcode_hash = ?", hash).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindSerialized finds single-quantity items of a part with the given serial
func (r *GormStockItemRepository) FindSerialized(ctx context.Context, partID uuid.UUID, serial string) ([]stock.StockItem, error) {
	var rows []models.StockItemModel
	if err := r.db.WithContext(ctx).
		Where("part_id = ? AND serial = ? AND quantity = ?", partID, serial, 1).
		Order("created_at").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]stock.StockItem, len(rows))
	for i := range rows {
		items[i] = *rows[i].ToDomain()
	}
	return items, nil
}

// LatestSerial returns the serial with the highest numeric value for a part
func (r *GormStockItemRepository) LatestSerial(ctx context.Context, partID uuid.UUID) (string, error) {
	var serials []string
	if err := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("part_id = ? AND serial <> ''", partID).
		Order("serial_int DESC, serial DESC").
		Limit(1).
		Pluck("serial", &serials).Error; err != nil {
		return "", err
	}
	if len(serials) == 0 {
		return "", nil
	}
	return serials[0], nil
}

// ExistsBarcodeHash checks whether any item already uses a barcode
func (r *GormStockItemRepository) ExistsBarcodeHash(ctx context.Context, hash string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.StockItemModel{}).
		Where("barcode_hash = ?", hash).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a stock item
func (r *GormStockItemRepository) Save(ctx context.Context, item *stock.StockItem) error {
	return stockItemConflict(r.db.WithContext(ctx).Save(models.StockItemModelFromDomain(item)).Error, item)
}

// stockItemConflict turns a unique index failure on stock_items into a
// validation error on the field that index guards.
func stockItemConflict(err error, item *stock.StockItem) error {
	index, ok := uniqueViolation(err)
	if !ok {
		return err
	}
	switch {
	case strings.Contains(index, "barcode_hash"):
		return shared.NewValidationError("barcode", "Barcode is already in use")
	case strings.Contains(index, "serial"):
		return shared.NewValidationError(stock.SerialNumbersField, fmt.Sprintf("Serial number %s already exists", item.Serial))
	}
	return err
}

// uniqueViolation reports whether err is a unique constraint failure and
// returns the violated index (postgres) or the driver message (sqlite).
func uniqueViolation(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.ConstraintName, pgErr.Code == "23505"
	}
	if msg := err.Error(); strings.Contains(msg, "UNIQUE constraint failed") {
		return msg, true
	}
	return "", false
}

// GormPartRepository implements PartRepository using GORM
type GormPartRepository struct {
	db *gorm.DB
}

// NewGormPartRepository creates a new GormPartRepository
func NewGormPartRepository(db *gorm.DB) *GormPartRepository {
	return &GormPartRepository{db: db}
}

// FindByID finds a part by its ID
func (r *GormPartRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Part, error) {
	var model models.PartModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a part
func (r *GormPartRepository) Save(ctx context.Context, part *stock.Part) error {
	return r.db.WithContext(ctx).Save(models.PartModelFromDomain(part)).Error
}

// GormSupplierPartRepository implements SupplierPartRepository using GORM
type GormSupplierPartRepository struct {
	db *gorm.DB
}

// NewGormSupplierPartRepository creates a new GormSupplierPartRepository
func NewGormSupplierPartRepository(db *gorm.DB) *GormSupplierPartRepository {
	return &GormSupplierPartRepository{db: db}
}

// FindByID finds a supplier part by its ID
func (r *GormSupplierPartRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.SupplierPart, error) {
	var model models.SupplierPartModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a supplier part
func (r *GormSupplierPartRepository) Save(ctx context.Context, sp *stock.SupplierPart) error {
	return r.db.WithContext(ctx).Save(models.SupplierPartModelFromDomain(sp)).Error
}

// GormLocationRepository implements LocationRepository using GORM
type GormLocationRepository struct {
	db *gorm.DB
}

// NewGormLocationRepository creates a new GormLocationRepository
func NewGormLocationRepository(db *gorm.DB) *GormLocationRepository {
	return &GormLocationRepository{db: db}
}

// FindByID finds a location by its ID
func (r *GormLocationRepository) FindByID(ctx context.Context, id uuid.UUID) (*stock.Location, error) {
	var model models.LocationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// Save creates or updates a location
func (r *GormLocationRepository) Save(ctx context.Context, location *stock.Location) error {
	return r.db.WithContext(ctx).Save(models.LocationModelFromDomain(location)).Error
}

// GormTrackingRepository implements TrackingRepository using GORM
type GormTrackingRepository struct {
	db *gorm.DB
}

// NewGormTrackingRepository creates a new GormTrackingRepository
func NewGormTrackingRepository(db *gorm.DB) *GormTrackingRepository {
	return &GormTrackingRepository{db: db}
}

// Save stores a tracking entry
func (r *GormTrackingRepository) Save(ctx context.Context, entry *stock.TrackingEntry) error {
	return r.db.WithContext(ctx).Save(models.TrackingEntryModelFromDomain(entry)).Error
}

// ListByStockItem lists the history of an item, oldest first
func (r *GormTrackingRepository) ListByStockItem(ctx context.Context, itemID uuid.UUID) ([]stock.TrackingEntry, error) {
	var rows []models.TrackingEntryModel
	if err := r.db.WithContext(ctx).
		Where("stock_item_id = ?", itemID).
		Order("date, id").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	entries := make([]stock.TrackingEntry, len(rows))
	for i := range rows {
		entries[i] = rows[i].ToDomain()
	}
	return entries, nil
}

// GormBuildAllocationRepository implements BuildAllocationRepository using GORM
type GormBuildAllocationRepository struct {
	db *gorm.DB
}

// NewGormBuildAllocationRepository creates a new GormBuildAllocationRepository
func NewGormBuildAllocationRepository(db *gorm.DB) *GormBuildAllocationRepository {
	return &GormBuildAllocationRepository{db: db}
}

// ListByStockItem lists build reservations of an item
func (r *GormBuildAllocationRepository) ListByStockItem(ctx context.Context, itemID uuid.UUID) ([]stock.BuildAllocation, error) {
	var rows []models.BuildAllocationModel
	if err := r.db.WithContext(ctx).Where("stock_item_id = ?", itemID).Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]stock.BuildAllocation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// Save stores a build allocation
func (r *GormBuildAllocationRepository) Save(ctx context.Context, allocation *stock.BuildAllocation) error {
	return r.db.WithContext(ctx).Save(models.BuildAllocationModelFromDomain(allocation)).Error
}

// Ensure the GORM repositories implement their domain interfaces
var (
	_ stock.StockItemRepository       = (*GormStockItemRepository)(nil)
	_ stock.PartRepository            = (*GormPartRepository)(nil)
	_ stock.SupplierPartRepository    = (*GormSupplierPartRepository)(nil)
	_ stock.LocationRepository        = (*GormLocationRepository)(nil)
	_ stock.TrackingRepository        = (*GormTrackingRepository)(nil)
	_ stock.BuildAllocationRepository = (*GormBuildAllocationRepository)(nil)
)
