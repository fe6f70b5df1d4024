package persistence

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/infrastructure/persistence/models"
)

// GormReturnOrderRepository implements ReturnOrderRepository using GORM
type GormReturnOrderRepository struct {
	db *gorm.DB
}

// NewGormReturnOrderRepository creates a new GormReturnOrderRepository
func NewGormReturnOrderRepository(db *gorm.DB) *GormReturnOrderRepository {
	return &GormReturnOrderRepository{db: db}
}

// FindByID finds a return order by its ID
func (r *GormReturnOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.ReturnOrder, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// FindByIDForUpdate finds a return order and locks its row
func (r *GormReturnOrderRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*order.ReturnOrder, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// FindByReference finds a return order by reference
func (r *GormReturnOrderRepository) FindByReference(ctx context.Context, reference string) (*order.ReturnOrder, error) {
	return r.first(r.db.WithContext(ctx), "reference = ?", reference)
}

func (r *GormReturnOrderRepository) first(query *gorm.DB, cond string, arg any) (*order.ReturnOrder, error) {
	var model models.ReturnOrderModel
	if err := query.Preload("Lines").First(&model, cond, arg).Error; err != nil {
		return nil, notFound(err)
	}
	return model.ToDomain(), nil
}

// FindAll finds return orders with filtering
func (r *GormReturnOrderRepository) FindAll(ctx context.Context, filter shared.Filter) ([]order.ReturnOrder, error) {
	var orderModels []models.ReturnOrderModel
	query := r.db.WithContext(ctx).Model(&models.ReturnOrderModel{})
	query = applyOrderFilter(query, filter, order.ReturnOrderOpenStatuses)
	if err := query.Preload("Lines").Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]order.ReturnOrder, len(orderModels))
	for i := range orderModels {
		orders[i] = *orderModels[i].ToDomain()
	}
	return orders, nil
}

// Count counts return orders matching filter
func (r *GormReturnOrderRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.ReturnOrderModel{})
	query = applyOrderFilterWithoutPagination(query, filter, order.ReturnOrderOpenStatuses)
	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// MaxReferenceInt returns the highest numeric reference in use
func (r *GormReturnOrderRepository) MaxReferenceInt(ctx context.Context) (int64, error) {
	return maxReferenceInt(r.db.WithContext(ctx).Model(&models.ReturnOrderModel{}))
}

// Save creates or updates a return order with its lines
func (r *GormReturnOrderRepository) Save(ctx context.Context, ro *order.ReturnOrder) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		model := models.ReturnOrderModelFromDomain(ro)
		if err := tx.Omit("Lines").Save(model).Error; err != nil {
			return err
		}

		lineIDs := make([]uuid.UUID, len(ro.Lines))
		for i, line := range ro.Lines {
			lineIDs[i] = line.ID
		}
		if err := deleteChildrenNotIn(tx, &models.ReturnOrderLineModel{}, "order_id", ro.ID, lineIDs); err != nil {
			return err
		}
		for i := range ro.Lines {
			ro.Lines[i].OrderID = ro.ID
			if err := tx.Save(models.ReturnOrderLineModelFromDomain(&ro.Lines[i])).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Ensure GormReturnOrderRepository implements ReturnOrderRepository
var _ order.ReturnOrderRepository = (*GormReturnOrderRepository)(nil)
