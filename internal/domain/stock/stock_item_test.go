package stock

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/inventree/backend/internal/domain/shared"
)

func createTestLocation(t *testing.T) *Location {
	loc, err := NewLocation("Shelf A", nil)
	require.NoError(t, err)
	return loc
}

func TestNewStockItem(t *testing.T) {
	loc := createTestLocation(t)

	item, err := NewStockItem(uuid.New(), decimal.NewFromInt(10), &loc.ID)
	require.NoError(t, err)
	assert.Equal(t, StockStatusOK, item.Status)
	assert.False(t, item.IsSerialized())
	assert.True(t, item.InStock())

	_, err = NewStockItem(uuid.New(), decimal.Zero, nil)
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = NewStockItem(uuid.Nil, decimal.NewFromInt(1), nil)
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestNewSerializedStockItem(t *testing.T) {
	item, err := NewSerializedStockItem(uuid.New(), "SN-0042", nil)
	require.NoError(t, err)
	assert.True(t, item.IsSerialized())
	assert.True(t, item.Quantity.Equal(decimal.NewFromInt(1)))
	assert.Equal(t, int64(42), item.SerialInt)
	assert.NoError(t, item.Validate())

	item.Quantity = decimal.NewFromInt(2)
	assert.ErrorIs(t, item.Validate(), shared.ErrValidation)
}

func TestStockItem_MoveTo(t *testing.T) {
	item, err := NewStockItem(uuid.New(), decimal.NewFromInt(1), nil)
	require.NoError(t, err)

	loc := createTestLocation(t)
	require.NoError(t, item.MoveTo(loc))
	assert.Equal(t, loc.ID, *item.LocationID)

	loc.Structural = true
	err = item.MoveTo(loc)
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrValidation)
	assert.Error(t, item.MoveTo(nil))
}

func TestStockItem_AllocateToCustomer(t *testing.T) {
	loc := createTestLocation(t)
	customerID, orderID := uuid.New(), uuid.New()

	t.Run("whole item is reassigned", func(t *testing.T) {
		item, err := NewStockItem(uuid.New(), decimal.NewFromInt(5), &loc.ID)
		require.NoError(t, err)

		got, err := item.AllocateToCustomer(customerID, orderID, decimal.NewFromInt(5))
		require.NoError(t, err)
		assert.Same(t, item, got)
		assert.Equal(t, customerID, *got.CustomerID)
		assert.Nil(t, got.LocationID)
		assert.False(t, got.InStock())
	})

	t.Run("partial quantity splits", func(t *testing.T) {
		item, err := NewStockItem(uuid.New(), decimal.NewFromInt(5), &loc.ID)
		require.NoError(t, err)

		got, err := item.AllocateToCustomer(customerID, orderID, decimal.NewFromInt(2))
		require.NoError(t, err)
		assert.NotEqual(t, item.ID, got.ID)
		assert.Equal(t, item.ID, *got.ParentID)
		assert.True(t, got.Quantity.Equal(decimal.NewFromInt(2)))
		assert.True(t, item.Quantity.Equal(decimal.NewFromInt(3)))
		assert.Nil(t, item.CustomerID)
		assert.Equal(t, orderID, *got.SalesOrderID)
	})

	t.Run("more than held", func(t *testing.T) {
		item, err := NewStockItem(uuid.New(), decimal.NewFromInt(1), &loc.ID)
		require.NoError(t, err)

		_, err = item.AllocateToCustomer(customerID, orderID, decimal.NewFromInt(2))
		assert.ErrorIs(t, err, shared.ErrOverAllocation)
	})
}

func TestStockItem_ReturnToStock(t *testing.T) {
	loc := createTestLocation(t)
	item, err := NewSerializedStockItem(uuid.New(), "100", nil)
	require.NoError(t, err)
	_, err = item.AllocateToCustomer(uuid.New(), uuid.New(), decimal.NewFromInt(1))
	require.NoError(t, err)

	require.NoError(t, item.ReturnToStock(loc, StockStatusQuarantined))
	assert.Nil(t, item.CustomerID)
	assert.Nil(t, item.SalesOrderID)
	assert.Equal(t, StockStatusQuarantined, item.Status)
	assert.False(t, item.InStock())
}

func TestHashBarcode(t *testing.T) {
	a := HashBarcode("  ABC-123\x00 ")
	b := HashBarcode("ABC-123")
	assert.Equal(t, a, b)
	assert.Len(t, a, 64)
	assert.NotEqual(t, a, HashBarcode("ABC-124"))
}

func TestSupplierPart_BaseQuantity(t *testing.T) {
	sp := NewSupplierPart(uuid.New(), uuid.New(), "SKU-1")
	assert.True(t, sp.BaseQuantity(decimal.NewFromInt(3)).Equal(decimal.NewFromInt(3)))

	sp.Pack = decimal.NewFromInt(10)
	assert.True(t, sp.BaseQuantity(decimal.NewFromFloat(2.5)).Equal(decimal.NewFromInt(25)))
}

func TestAvailability(t *testing.T) {
	item, err := NewStockItem(uuid.New(), decimal.NewFromInt(10), nil)
	require.NoError(t, err)

	a := NewAvailability(item,
		[]decimal.Decimal{decimal.NewFromInt(3), decimal.NewFromInt(2)},
		[]BuildAllocation{{Quantity: decimal.NewFromInt(1)}},
	)
	assert.True(t, a.SalesAllocated.Equal(decimal.NewFromInt(5)))
	assert.True(t, a.BuildAllocated.Equal(decimal.NewFromInt(1)))
	assert.True(t, a.Unallocated().Equal(decimal.NewFromInt(4)))
	assert.False(t, a.IsOverAllocated())

	over := NewAvailability(item, []decimal.Decimal{decimal.NewFromInt(12)}, nil)
	assert.True(t, over.Unallocated().IsZero())
	assert.True(t, over.IsOverAllocated())
}
