package persistence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/infrastructure/persistence/models"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID finds a purchase order by its ID
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.PurchaseOrder, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// FindByIDForUpdate finds a purchase order and locks its row
func (r *GormPurchaseOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.PurchaseOrder, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// FindByReference finds a purchase order by reference
func (r *GormPurchaseOrderRepository) FindByReference(ctx context.Context, reference string) (*order.PurchaseOrder, error) {
	return r.first(r.db.WithContext(ctx), "reference = ?", reference)
}

func (r *GormPurchaseOrderRepository) first(query *gorm.DB, cond string, arg any) (*order.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := query.Preload("Lines").First(&model, cond, arg).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds purchase orders with filtering
func (r *GormPurchaseOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.PurchaseOrder, error) {
	var orderModels []models.PurchaseOrderModel
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{})
	query = applyOrderFilter(query, filter, order.PurchaseOrderOpenStatuses)
	if err := query.Preload("Lines").Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]order.PurchaseOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// Count counts purchase orders matching filter
func (r *GormPurchaseOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{})
	query = applyOrderFilterWithoutPagination(query, filter, order.PurchaseOrderOpenStatuses)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// FindOpenByTargetDate finds open purchase orders due on date
func (r *GormPurchaseOrderRepository) FindOpenByTargetDate(ctx context.Context, date time.Time) ([]order.PurchaseOrder, error) {
	var orderModels []models.PurchaseOrderModel
	query := r.db.WithContext(ctx).Where("status IN ?", order.PurchaseOrderOpenStatuses)
	if err := whereTargetDate(query, date).Order("reference_int").Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]order.PurchaseOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// MaxReferenceInt returns the highest numeric reference in use
func (r *GormPurchaseOrderRepository) MaxReferenceInt(ctx context.Context) (int64, error) {
	return maxReferenceInt(r.db.WithContext(ctx).Model(&models.PurchaseOrderModel{}))
}

// Save creates or updates a purchase order with its lines
func (r *GormPurchaseOrderRepository) Save(ctx context.Context, po *order.PurchaseOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.PurchaseOrderModelFromDomain(po)
		if err := tx.Omit("Lines").Save(model).Error; err != nil {
			return err
		}

		currentLineIDs := make([]uuid.UUID, len(po.Lines))
		for i, line := range po.Lines {
			currentLineIDs[i] = line.ID
		}
		if err := deleteChildrenNotIn(tx, &models.PurchaseOrderLineModel{}, "order_id", po.ID, currentLineIDs); err != nil {
			return err
		}

		for i := range po.Lines {
			po.Lines[i].OrderID = po.ID
			if err := tx.Save(models.PurchaseOrderLineModelFromDomain(&po.Lines[i])).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// deleteChildrenNotIn removes child rows of parent whose id is not in keep
func deleteChildrenNotIn(tx *gorm.DB, model any, parentColumn string, parentID uuid.UUID, keep []uuid.UUID) error {
	if len(keep) > 0 {
		return tx.Where(parentColumn+" = ? AND id NOT IN ?", parentID, keep).Delete(model).Error
	}
	return tx.Where(parentColumn+" = ?", parentID).Delete(model).Error
}

// Ensure GormPurchaseOrderRepository implements PurchaseOrderRepository
var _ order.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
