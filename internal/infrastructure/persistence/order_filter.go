package persistence

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/inventree/backend/internal/domain/shared"
)

// applyOrderFilter applies status, outstanding, search, sort and pagination.
// openStatuses is the slice of status values treated as outstanding.
func applyOrderFilter(query *gorm.DB, filter shared.Filter, openStatuses any) *gorm.DB {
	query = applyOrderFilterWithoutPagination(query, filter, openStatuses)

	sortField := ValidateSortField(filter.OrderBy, OrderSortFields, "reference_int")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	query = query.Order(sortField + " " + sortOrder)

	if filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.PageSize)
	}
	return query
}

func applyOrderFilterWithoutPagination(query *gorm.DB, filter shared.Filter, openStatuses any) *gorm.DB {
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("LOWER(reference) LIKE LOWER(?) OR LOWER(description) LIKE LOWER(?)", pattern, pattern)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}
	if outstanding, ok := filter.Filters["outstanding"].(bool); ok {
		if outstanding {
			query = query.Where("status IN ?", openStatuses)
		} else {
			query = query.Where("status NOT IN ?", openStatuses)
		}
	}
	return query
}

// whereTargetDate matches rows whose target date falls on the calendar day of date
func whereTargetDate(query *gorm.DB, date time.Time) *gorm.DB {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	return query.Where("target_date >= ? AND target_date < ?", start, start.Add(24*time.Hour))
}

// maxReferenceInt returns the largest reference_int stored in table
func maxReferenceInt(query *gorm.DB) (int64, error) {
	var max int64
	if err := query.Select("COALESCE(MAX(reference_int), 0)").Scan(&max).Error; err != nil {
		return 0, err
	}
	return max, nil
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.ErrNotFound
	}
	return err
}
