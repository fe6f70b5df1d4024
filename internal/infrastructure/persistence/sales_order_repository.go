package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/infrastructure/persistence/models"
)

// GormSalesOrderRepository implements SalesOrderRepository using GORM
type GormSalesOrderRepository struct {
	db *gorm.DB
}

// NewGormSalesOrderRepository creates a new GormSalesOrderRepository
func NewGormSalesOrderRepository(db *gorm.DB) *GormSalesOrderRepository {
	return &GormSalesOrderRepository{db: db}
}

// FindByID finds a sales order by its ID
func (r *GormSalesOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.SalesOrder, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// FindByIDForUpdate finds a sales order and locks its row
func (r *GormSalesOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.SalesOrder, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// FindByReference finds a sales order by reference
func (r *GormSalesOrderRepository) FindByReference(ctx context.Context, reference string) (*order.SalesOrder, error) {
	return r.first(r.db.WithContext(ctx), "reference = ?", reference)
}

// FindByShipmentID finds the sales order owning a shipment
func (r *GormSalesOrderRepository) FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) (*order.SalesOrder, error) {
	var shipment models.ShipmentModel
	if err := r.db.WithContext(ctx).Select("order_id").First(&shipment, "id = ?", shipmentID).Error; err != nil {
		return nil, notFound(err)
	}
	return r.FindByID(ctx, shipment.OrderID)
}

func (r *GormSalesOrderRepository) first(query *gorm.DB, cond string, arg any) (*order.SalesOrder, error) {
	var model models.SalesOrderModel
	err := query.
		Preload("Lines").
		Preload("Shipments", func(db *gorm.DB) *gorm.DB { return db.Order("reference") }).
		First(&model, cond, arg).Error
	if err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds sales orders with filtering
func (r *GormSalesOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.SalesOrder, error) {
	var orderModels []models.SalesOrderModel
	query := r.db.WithContext(ctx).Model(&models.SalesOrderModel{})
	query = applyOrderFilter(query, filter, order.SalesOrderOpenStatuses)
	if err := query.Preload("Lines").Preload("Shipments").Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]order.SalesOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// Count counts sales orders matching filter
func (r *GormSalesOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.SalesOrderModel{})
	query = applyOrderFilterWithoutPagination(query, filter, order.SalesOrderOpenStatuses)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindOpenByTargetDate finds open sales orders due on date
func (r *GormSalesOrderRepository) FindOpenByTargetDate(ctx context.Context, date time.Time) ([]order.SalesOrder, error) {
	var orderModels []models.SalesOrderModel
	query := r.db.WithContext(ctx).Where("status IN ?", order.SalesOrderOpenStatuses)
	if err := whereTargetDate(query, date).Order("reference_int").Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]order.SalesOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// MaxReferenceInt returns the highest numeric reference in use
func (r *GormSalesOrderRepository) MaxReferenceInt(ctx context.Context) (int64, error) {
	return maxReferenceInt(r.db.WithContext(ctx).Model(&models.SalesOrderModel{}))
}

// Save creates or updates a sales order with its lines and shipments.
// Allocations belong to AllocationRepository and are not touched here.
func (r *GormSalesOrderRepository) Save(ctx context.Context, so *order.SalesOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.SalesOrderModelFromDomain(so)
		if err := tx.Omit("Lines", "Shipments").Save(model).Error; err != nil {
			return err
		}

		lineIDs := make([]uuid.UUID, len(so.Lines))
		for i, line := range so.Lines {
			lineIDs[i] = line.ID
		}
		if err := deleteChildrenNotIn(tx, &models.SalesOrderLineModel{}, "order_id", so.ID, lineIDs); err != nil {
			return err
		}
		for i := range so.Lines {
			so.Lines[i].OrderID = so.ID
			if err := tx.Save(models.SalesOrderLineModelFromDomain(&so.Lines[i])).Error; err != nil {
				return err
			}
		}

		shipmentIDs := make([]uuid.UUID, len(so.Shipments))
		for i, s := range so.Shipments {
			shipmentIDs[i] = s.ID
		}
		if err := deleteChildrenNotIn(tx, &models.ShipmentModel{}, "order_id", so.ID, shipmentIDs); err != nil {
			return err
		}
		for i := range so.Shipments {
			so.Shipments[i].OrderID = so.ID
			if err := tx.Save(models.ShipmentModelFromDomain(&so.Shipments[i])).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// GormAllocationRepository implements AllocationRepository using GORM
type GormAllocationRepository struct {
	db *gorm.DB
}

// NewGormAllocationRepository creates a new GormAllocationRepository
func NewGormAllocationRepository(db *gorm.DB) *GormAllocationRepository {
	return &GormAllocationRepository{db: db}
}

// ListByLine lists allocations against a line item
func (r *GormAllocationRepository) ListByLine(ctx context.Context, lineID uuid.UUID) ([]order.SalesOrderAllocation, error) {
	return r.list(r.db.WithContext(ctx).Where("line_id = ?", lineID))
}

// ListByShipment lists allocations assigned to a shipment
func (r *GormAllocationRepository) ListByShipment(ctx context.Context, shipmentID uuid.UUID) ([]order.SalesOrderAllocation, error) {
	return r.list(r.db.WithContext(ctx).Where("shipment_id = ?", shipmentID))
}

// ListByOrder lists every allocation of a sales order
func (r *GormAllocationRepository) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]order.SalesOrderAllocation, error) {
	return r.list(r.db.WithContext(ctx).
		Where("line_id IN (?)", r.db.Model(&models.SalesOrderLineModel{}).Select("id").Where("order_id = ?", orderID)))
}

func (r *GormAllocationRepository) list(query *gorm.DB) ([]order.SalesOrderAllocation, error) {
	var rows []models.SalesOrderAllocationModel
	if err := query.Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make([]order.SalesOrderAllocation, len(rows))
	for i := range rows {
		out[i] = rows[i].ToDomain()
	}
	return out, nil
}

// OpenQuantitiesForStockItem returns quantities of unshipped allocations of an item
func (r *GormAllocationRepository) OpenQuantitiesForStockItem(ctx context.Context, itemID uuid.UUID) ([]decimal.Decimal, error) {
	var quantities []decimal.Decimal
	err := r.db.WithContext(ctx).
		Table("sales_order_allocations AS a").
		Joins("JOIN sales_order_shipments AS s ON s.id = a.shipment_id").
		Where("a.stock_item_id = ? AND s.shipment_date IS NULL", itemID).
		Pluck("a.quantity", &quantities).Error
	if err != nil {
		return nil, err
	}
	return quantities, nil
}

// Save creates or updates an allocation
func (r *GormAllocationRepository) Save(ctx context.Context, allocation *order.SalesOrderAllocation) error {
	return r.db.WithContext(ctx).Save(models.SalesOrderAllocationModelFromDomain(allocation)).Error
}

// Delete removes an allocation
func (r *GormAllocationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SalesOrderAllocationModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure the GORM repositories implement their domain interfaces
var (
	_ order.SalesOrderRepository = (*GormSalesOrderRepository)(nil)
	_ order.AllocationRepository = (*GormAllocationRepository)(nil)
)
