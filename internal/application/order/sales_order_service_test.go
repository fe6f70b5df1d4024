package order_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apporder "github.com/inventree/backend/internal/application/order"
	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
	"github.com/inventree/backend/internal/infrastructure/persistence"
)

func newSalesOrder(t *testing.T, f *fixture, svc *apporder.SalesOrderService, lines ...apporder.SalesOrderLineRequest) *apporder.SalesOrderResponse {
	t.Helper()
	so, err := svc.Create(f.ctx, apporder.CreateSalesOrderRequest{CustomerID: uuid.New(), Lines: lines})
	require.NoError(t, err)
	return so
}

func salesFixture(t *testing.T) (*fixture, *apporder.SalesOrderService) {
	f := newFixture(t)
	f.settings.SalesOrderDefaultShipment = true
	return f, apporder.NewSalesOrderService(f.deps())
}

func TestSalesOrderService_Create(t *testing.T) {
	f, svc := salesFixture(t)
	bolt := f.part("Bolt", false)

	so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("5"), SalePrice: dec("1.50")})
	assert.Equal(t, "SO-0001", so.Reference)
	require.Len(t, so.Shipments, 1)
	assert.Equal(t, "1", so.Shipments[0].Reference)
	require.Len(t, so.Lines, 1)
	assert.True(t, so.Lines[0].Allocated.IsZero())

	hidden := f.part("Internal", false)
	hidden.Salable = false
	require.NoError(t, persistence.NewGormPartRepository(f.db).Save(f.ctx, hidden))

	_, err := svc.Create(f.ctx, apporder.CreateSalesOrderRequest{
		CustomerID: uuid.New(),
		Lines:      []apporder.SalesOrderLineRequest{{PartID: hidden.ID, Quantity: dec("1")}},
	})
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "Part is not salable", ve.Message("lines.0.part"))

	withShipment, err := svc.AddShipment(f.ctx, so.ID, "")
	require.NoError(t, err)
	require.Len(t, withShipment.Shipments, 2)
	assert.Equal(t, "2", withShipment.Shipments[1].Reference)

	_, err = svc.AddShipment(f.ctx, so.ID, "2")
	require.ErrorAs(t, err, &ve)
	assert.Contains(t, ve.Message("reference"), "already exists")
}

func TestSalesOrderService_AllocateItems(t *testing.T) {
	t.Run("reserves stock without moving it", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		bolt := f.part("Bolt", false)
		item := f.item(bolt.ID, 10, store)
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("6")})

		allocs, err := svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: so.Shipments[0].ID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec("4")}},
		})
		require.NoError(t, err)
		require.Len(t, allocs, 1)
		assert.True(t, allocs[0].Quantity.Equal(dec("4")))
		assert.True(t, f.reload(item.ID).Quantity.Equal(dec("10")))

		got, err := svc.GetByID(f.ctx, so.ID)
		require.NoError(t, err)
		assert.True(t, got.Lines[0].Allocated.Equal(dec("4")))
		assert.Contains(t, f.publisher.types(), order.EventTypeSalesOrderAllocated)
	})

	t.Run("enforces line and stock limits", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		bolt := f.part("Bolt", false)
		item := f.item(bolt.ID, 10, store)
		first := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("6")})
		second := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("8")})

		allocate := func(so *apporder.SalesOrderResponse, qty string) error {
			_, err := svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
				ShipmentID: so.Shipments[0].ID,
				Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec(qty)}},
			})
			return err
		}

		require.NoError(t, allocate(first, "4"))

		err := allocate(first, "3")
		var ve *shared.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.ErrorIs(t, err, shared.ErrOverAllocation)
		assert.Equal(t, "Allocated quantity exceeds line item quantity (6)", ve.Message("items.0.quantity"))

		err = allocate(second, "7")
		require.ErrorAs(t, err, &ve)
		assert.ErrorIs(t, err, shared.ErrInsufficientStock)
		assert.Equal(t, "Available quantity (6) exceeded", ve.Message("items.0.quantity"))

		require.NoError(t, allocate(second, "6"))
		err = allocate(first, "0.5")
		assert.ErrorIs(t, err, shared.ErrOverAllocation)
	})

	t.Run("build allocations reduce availability", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		bolt := f.part("Bolt", false)
		item := f.item(bolt.ID, 5, store)
		require.NoError(t, persistence.NewGormBuildAllocationRepository(f.db).Save(f.ctx, &stock.BuildAllocation{
			ID: uuid.New(), BuildID: uuid.New(), StockItemID: item.ID, Quantity: dec("4"),
		}))
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("5")})

		_, err := svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: so.Shipments[0].ID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec("2")}},
		})
		var ve *shared.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Available quantity (1) exceeded", ve.Message("items.0.quantity"))
	})

	t.Run("batch is all or nothing", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		bolt := f.part("Bolt", false)
		nut := f.part("Nut", false)
		bolts := f.item(bolt.ID, 10, store)
		nuts := f.item(nut.ID, 10, store)
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("5")})

		_, err := svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: so.Shipments[0].ID,
			Items: []apporder.AllocateItemRequest{
				{LineItemID: so.Lines[0].ID, StockItemID: bolts.ID, Quantity: dec("2")},
				{LineItemID: so.Lines[0].ID, StockItemID: nuts.ID, Quantity: dec("2")},
			},
		})
		var ve *shared.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Cannot allocate stock item to a line with a different part", ve.Message("items.1.stock_item"))

		allocs, err := svc.ListAllocations(f.ctx, so.ID)
		require.NoError(t, err)
		assert.Empty(t, allocs)
	})

	t.Run("serialized stock takes exactly one", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		widget := f.part("Widget", true)
		item := f.serialized(widget.ID, "100", store)
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: widget.ID, Quantity: dec("5")})

		_, err := svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: so.Shipments[0].ID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec("2")}},
		})
		assert.ErrorIs(t, err, shared.ErrQuantityMismatch)
	})

	t.Run("unknown stock item", func(t *testing.T) {
		f, svc := salesFixture(t)
		bolt := f.part("Bolt", false)
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("5")})

		_, err := svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: so.Shipments[0].ID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: uuid.New(), Quantity: dec("1")}},
		})
		var ve *shared.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Stock item does not exist", ve.Message("items.0.stock_item"))
	})
}

func TestSalesOrderService_AllocateSerials(t *testing.T) {
	f, svc := salesFixture(t)
	store := f.location("Store", false)
	widget := f.part("Widget", true)
	for _, s := range []string{"1", "2", "3", "4", "5"} {
		f.serialized(widget.ID, s, store)
	}
	first := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: widget.ID, Quantity: dec("3")})
	second := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: widget.ID, Quantity: dec("3")})

	allocs, err := svc.AllocateSerials(f.ctx, first.ID, apporder.AllocateSerialsRequest{
		LineItemID:    first.Lines[0].ID,
		ShipmentID:    first.Shipments[0].ID,
		Quantity:      3,
		SerialNumbers: "1-3",
	})
	require.NoError(t, err)
	assert.Len(t, allocs, 3)

	_, err = svc.AllocateSerials(f.ctx, second.ID, apporder.AllocateSerialsRequest{
		LineItemID:    second.Lines[0].ID,
		ShipmentID:    second.Shipments[0].ID,
		Quantity:      2,
		SerialNumbers: "3,4",
	})
	var ve *shared.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.ErrorIs(t, err, shared.ErrOverAllocation)
	assert.Equal(t, "The following serial numbers are already allocated: 3", ve.Message(stock.SerialNumbersField))

	_, err = svc.AllocateSerials(f.ctx, second.ID, apporder.AllocateSerialsRequest{
		LineItemID:    second.Lines[0].ID,
		ShipmentID:    second.Shipments[0].ID,
		Quantity:      2,
		SerialNumbers: "4,99",
	})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "No match found for the following serial numbers: 99", ve.Message(stock.SerialNumbersField))

	allocs, err = svc.ListAllocations(f.ctx, second.ID)
	require.NoError(t, err)
	assert.Empty(t, allocs)

	t.Run("quantity beyond the unallocated line is rejected before expansion", func(t *testing.T) {
		single := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: widget.ID, Quantity: dec("1")})
		_, err := svc.AllocateSerials(f.ctx, single.ID, apporder.AllocateSerialsRequest{
			LineItemID:    single.Lines[0].ID,
			ShipmentID:    single.Shipments[0].ID,
			Quantity:      100000,
			SerialNumbers: "1+",
		})
		var ve *shared.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.ErrorIs(t, err, shared.ErrOverAllocation)
		assert.Contains(t, ve.Message("quantity"), "exceeds unallocated line quantity")
		assert.Empty(t, ve.Message(stock.SerialNumbersField))

		allocs, err := svc.ListAllocations(f.ctx, single.ID)
		require.NoError(t, err)
		assert.Empty(t, allocs)
	})
}

func TestSalesOrderService_CompleteShipment(t *testing.T) {
	t.Run("splits partial stock to the customer", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		bolt := f.part("Bolt", false)
		item := f.item(bolt.ID, 10, store)
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("4")})
		shipmentID := so.Shipments[0].ID

		_, err := svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: shipmentID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec("4")}},
		})
		require.NoError(t, err)

		userID := uuid.New()
		shipment, err := svc.CompleteShipment(f.ctx, shipmentID, apporder.CompleteShipmentRequest{TrackingNumber: "TRK-1"}, &userID)
		require.NoError(t, err)
		assert.NotNil(t, shipment.ShipmentDate)
		assert.Equal(t, "TRK-1", shipment.TrackingNumber)

		assert.True(t, f.reload(item.ID).Quantity.Equal(dec("6")))

		allocs, err := svc.ListAllocations(f.ctx, so.ID)
		require.NoError(t, err)
		require.Len(t, allocs, 1)
		shipped := f.reload(allocs[0].StockItemID)
		assert.NotEqual(t, item.ID, shipped.ID)
		assert.True(t, shipped.Quantity.Equal(dec("4")))
		require.NotNil(t, shipped.CustomerID)
		assert.Equal(t, so.CustomerID, *shipped.CustomerID)
		assert.Nil(t, shipped.LocationID)
		assert.Equal(t, item.ID, *shipped.ParentID)

		history := f.history(shipped.ID)
		require.Len(t, history, 2)
		assert.Equal(t, stock.HistorySplitFromParent, history[0].Code)
		assert.Equal(t, stock.HistoryShippedAgainstSalesOrder, history[1].Code)

		got, err := svc.GetByID(f.ctx, so.ID)
		require.NoError(t, err)
		assert.True(t, got.Lines[0].Shipped.Equal(dec("4")))
		assert.Contains(t, f.publisher.types(), order.EventTypeSalesOrderShipmentShipped)

		_, err = svc.CompleteShipment(f.ctx, shipmentID, apporder.CompleteShipmentRequest{}, nil)
		assert.ErrorIs(t, err, shared.ErrShipmentClosed)

		_, err = svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: shipmentID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec("1")}},
		})
		assert.ErrorIs(t, err, shared.ErrShipmentClosed)
	})

	t.Run("hands over the whole item", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		bolt := f.part("Bolt", false)
		item := f.item(bolt.ID, 3, store)
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("3")})

		_, err := svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: so.Shipments[0].ID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec("3")}},
		})
		require.NoError(t, err)
		_, err = svc.CompleteShipment(f.ctx, so.Shipments[0].ID, apporder.CompleteShipmentRequest{}, nil)
		require.NoError(t, err)

		shipped := f.reload(item.ID)
		assert.True(t, shipped.Quantity.Equal(dec("3")))
		require.NotNil(t, shipped.CustomerID)
		require.Len(t, f.history(item.ID), 1)
	})

	t.Run("requires allocations", func(t *testing.T) {
		f, svc := salesFixture(t)
		so := newSalesOrder(t, f, svc)

		_, err := svc.CompleteShipment(f.ctx, so.Shipments[0].ID, apporder.CompleteShipmentRequest{}, nil)
		var ve *shared.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Shipment has no allocated stock items", ve.Message("shipment"))

		_, err = svc.CompleteShipment(f.ctx, uuid.New(), apporder.CompleteShipmentRequest{}, nil)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestSalesOrderService_Lifecycle(t *testing.T) {
	t.Run("issue ship and complete", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		bolt := f.part("Bolt", false)
		item := f.item(bolt.ID, 5, store)
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("2")})

		issued, err := svc.Issue(f.ctx, so.ID)
		require.NoError(t, err)
		assert.Equal(t, int(order.SalesOrderStatusInProgress), issued.Status)

		_, err = svc.Complete(f.ctx, so.ID, false, nil)
		var ve *shared.ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, "Order cannot be completed as there are open shipments", ve.Message("accept_incomplete"))

		_, err = svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: so.Shipments[0].ID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec("2")}},
		})
		require.NoError(t, err)
		_, err = svc.CompleteShipment(f.ctx, so.Shipments[0].ID, apporder.CompleteShipmentRequest{}, nil)
		require.NoError(t, err)

		shipped, err := svc.Complete(f.ctx, so.ID, false, nil)
		require.NoError(t, err)
		assert.Equal(t, int(order.SalesOrderStatusShipped), shipped.Status)
		assert.NotNil(t, shipped.ShipmentDate)

		done, err := svc.Complete(f.ctx, so.ID, false, nil)
		require.NoError(t, err)
		assert.Equal(t, int(order.SalesOrderStatusComplete), done.Status)
		assert.NotNil(t, done.CompleteDate)
	})

	t.Run("ship complete skips shipped status", func(t *testing.T) {
		f, _ := salesFixture(t)
		f.settings.SalesOrderShipComplete = true
		svc := apporder.NewSalesOrderService(f.deps())
		so := newSalesOrder(t, f, svc)
		_, err := svc.Issue(f.ctx, so.ID)
		require.NoError(t, err)

		done, err := svc.Complete(f.ctx, so.ID, true, nil)
		require.NoError(t, err)
		assert.Equal(t, int(order.SalesOrderStatusComplete), done.Status)
	})

	t.Run("forced completion releases open allocations", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		bolt := f.part("Bolt", false)
		item := f.item(bolt.ID, 5, store)
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("2")})
		_, err := svc.Issue(f.ctx, so.ID)
		require.NoError(t, err)
		_, err = svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: so.Shipments[0].ID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec("2")}},
		})
		require.NoError(t, err)

		_, err = svc.Complete(f.ctx, so.ID, true, nil)
		require.NoError(t, err)
		allocs, err := svc.ListAllocations(f.ctx, so.ID)
		require.NoError(t, err)
		assert.Empty(t, allocs)
	})

	t.Run("cancel releases allocations", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		bolt := f.part("Bolt", false)
		item := f.item(bolt.ID, 5, store)
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("2")})
		_, err := svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: so.Shipments[0].ID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec("2")}},
		})
		require.NoError(t, err)

		cancelled, err := svc.Cancel(f.ctx, so.ID)
		require.NoError(t, err)
		assert.Equal(t, int(order.SalesOrderStatusCancelled), cancelled.Status)
		allocs, err := svc.ListAllocations(f.ctx, so.ID)
		require.NoError(t, err)
		assert.Empty(t, allocs)

		_, err = svc.AddLine(f.ctx, so.ID, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("1")})
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})

	t.Run("remove line drops its allocations", func(t *testing.T) {
		f, svc := salesFixture(t)
		store := f.location("Store", false)
		bolt := f.part("Bolt", false)
		item := f.item(bolt.ID, 5, store)
		so := newSalesOrder(t, f, svc, apporder.SalesOrderLineRequest{PartID: bolt.ID, Quantity: dec("2")})
		_, err := svc.AllocateItems(f.ctx, so.ID, apporder.AllocateItemsRequest{
			ShipmentID: so.Shipments[0].ID,
			Items:      []apporder.AllocateItemRequest{{LineItemID: so.Lines[0].ID, StockItemID: item.ID, Quantity: dec("1")}},
		})
		require.NoError(t, err)

		updated, err := svc.RemoveLine(f.ctx, so.ID, so.Lines[0].ID)
		require.NoError(t, err)
		assert.Empty(t, updated.Lines)
		allocs, err := svc.ListAllocations(f.ctx, so.ID)
		require.NoError(t, err)
		assert.Empty(t, allocs)
	})
}
