package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
)

func newPurchaseOrder(t *testing.T, ref string, n int64) *order.PurchaseOrder {
	t.Helper()
	po, err := order.NewPurchaseOrder(ref, uuid.New(), nil)
	require.NoError(t, err)
	po.ReferenceInt = n
	return po
}

func TestGormPurchaseOrderRepository_SaveAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()

	part := seedPart(t, db, "Resistor", false)
	po := newPurchaseOrder(t, "PO-0001", 1)
	sp := stock.NewSupplierPart(part.ID, po.SupplierID, "R-10K")
	sp.Pack = decimal.NewFromInt(100)

	po.Description = "Passives restock"
	target := time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)
	po.SetTargetDate(&target)
	first, err := po.AddLine(sp, decimal.NewFromInt(5), decimal.RequireFromString("0.12"))
	require.NoError(t, err)
	firstID := first.ID
	_, err = po.AddLine(sp, decimal.NewFromInt(2), decimal.Zero)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, po))

	t.Run("loads lines by id and reference", func(t *testing.T) {
		found, err := repo.FindByID(ctx, po.ID)
		require.NoError(t, err)
		assert.Equal(t, "PO-0001", found.Reference)
		assert.Equal(t, "Passives restock", found.Description)
		assert.Equal(t, order.PurchaseOrderStatusPending, found.Status)
		require.NotNil(t, found.TargetDate)
		assert.True(t, target.Equal(*found.TargetDate))
		require.Len(t, found.Lines, 2)

		byRef, err := repo.FindByReference(ctx, "PO-0001")
		require.NoError(t, err)
		assert.Equal(t, po.ID, byRef.ID)
	})

	t.Run("removed lines are deleted on save", func(t *testing.T) {
		found, err := repo.FindByID(ctx, po.ID)
		require.NoError(t, err)
		require.NoError(t, found.RemoveLine(firstID))
		require.NoError(t, repo.Save(ctx, found))

		reloaded, err := repo.FindByIDForUpdate(ctx, po.ID)
		require.NoError(t, err)
		require.Len(t, reloaded.Lines, 1)
		assert.NotEqual(t, firstID, reloaded.Lines[0].ID)
	})

	t.Run("missing order maps to ErrNotFound", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)

		_, err = repo.FindByReference(ctx, "PO-9999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormPurchaseOrderRepository_Queries(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormPurchaseOrderRepository(db)
	ctx := context.Background()

	due := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	other := due.AddDate(0, 0, 1)

	pending := newPurchaseOrder(t, "PO-0001", 1)
	pending.SetTargetDate(&due)
	pending.Description = "Cables"

	placed := newPurchaseOrder(t, "PO-0007", 7)
	placed.SetTargetDate(&due)
	placed.Status = order.PurchaseOrderStatusPlaced

	complete := newPurchaseOrder(t, "PO-0003", 3)
	complete.SetTargetDate(&due)
	complete.Status = order.PurchaseOrderStatusComplete

	later := newPurchaseOrder(t, "PO-0004", 4)
	later.SetTargetDate(&other)

	for _, po := range []*order.PurchaseOrder{pending, placed, complete, later} {
		require.NoError(t, repo.Save(ctx, po))
	}

	t.Run("max reference int", func(t *testing.T) {
		n, err := repo.MaxReferenceInt(ctx)
		require.NoError(t, err)
		assert.Equal(t, int64(7), n)
	})

	t.Run("max reference int of empty table is zero", func(t *testing.T) {
		n, err := NewGormPurchaseOrderRepository(newTestDB(t)).MaxReferenceInt(ctx)
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("open orders due on a date", func(t *testing.T) {
		orders, err := repo.FindOpenByTargetDate(ctx, due.Add(15*time.Hour))
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "PO-0001", orders[0].Reference)
		assert.Equal(t, "PO-0007", orders[1].Reference)
	})

	t.Run("outstanding filter and count", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "reference_int"
		filter.OrderDir = "asc"
		filter.Filters["outstanding"] = true

		orders, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, orders, 3)
		assert.Equal(t, "PO-0001", orders[0].Reference)

		count, err := repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		filter.Filters["outstanding"] = false
		count, err = repo.Count(ctx, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("search and status filters", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.Search = "cab"
		orders, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, pending.ID, orders[0].ID)

		filter = shared.DefaultFilter()
		filter.Filters["status"] = int(order.PurchaseOrderStatusPlaced)
		orders, err = repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, orders, 1)
		assert.Equal(t, placed.ID, orders[0].ID)
	})

	t.Run("pagination", func(t *testing.T) {
		filter := shared.DefaultFilter()
		filter.OrderBy = "reference_int"
		filter.OrderDir = "asc"
		filter.PageSize = 2
		filter.Page = 2
		orders, err := repo.FindAll(ctx, filter)
		require.NoError(t, err)
		require.Len(t, orders, 2)
		assert.Equal(t, "PO-0004", orders[0].Reference)
		assert.Equal(t, "PO-0007", orders[1].Reference)
	})
}
