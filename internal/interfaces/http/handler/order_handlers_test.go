package handler_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	orderapp "github.com/inventree/backend/internal/application/order"
	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/stock"
	"github.com/inventree/backend/internal/infrastructure/config"
	"github.com/inventree/backend/internal/infrastructure/persistence"
	"github.com/inventree/backend/internal/infrastructure/persistence/models"
	"github.com/inventree/backend/internal/interfaces/http/dto"
	"github.com/inventree/backend/internal/interfaces/http/handler"
	"github.com/inventree/backend/internal/interfaces/http/router"
)

type envelope[T any] struct {
	Success bool           `json:"success"`
	Data    T              `json:"data"`
	Error   *dto.ErrorInfo `json:"error"`
	Meta    *dto.Meta      `json:"meta"`
}

type apiEnv struct {
	t      *testing.T
	ctx    context.Context
	db     *gorm.DB
	engine *gin.Engine
}

func newAPIEnv(t *testing.T) *apiEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:                 gormlogger.Default.LogMode(gormlogger.Silent),
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.AllModels()...))

	settings := order.DefaultSettings()
	settings.SalesOrderDefaultShipment = true
	deps := orderapp.Dependencies{
		Scope:    persistence.NewGormTransactionScope(db, sql.LevelDefault),
		Settings: settings,
	}

	engine, err := router.NewEngine(config.HTTPConfig{}, zap.NewNop(), nil)
	require.NoError(t, err)
	router.NewRouter(engine).Register(
		handler.NewPurchaseOrderHandler(orderapp.NewPurchaseOrderService(deps)),
		handler.NewSalesOrderHandler(orderapp.NewSalesOrderService(deps)),
		handler.NewReturnOrderHandler(orderapp.NewReturnOrderService(deps)),
		handler.NewSystemHandler("test", "dev", sqlDB, nil),
	).Setup()

	return &apiEnv{t: t, ctx: context.Background(), db: db, engine: engine}
}

func (e *apiEnv) do(method, path string, body any, headers ...string) *httptest.ResponseRecorder {
	e.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(e.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, "/api/v1"+path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	e.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) envelope[T] {
	t.Helper()
	var out envelope[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func (e *apiEnv) part(name string, trackable bool) *stock.Part {
	e.t.Helper()
	p, err := stock.NewPart(name, trackable)
	require.NoError(e.t, err)
	require.NoError(e.t, persistence.NewGormPartRepository(e.db).Save(e.ctx, p))
	return p
}

func (e *apiEnv) supplierPart(partID, supplierID uuid.UUID) *stock.SupplierPart {
	e.t.Helper()
	sp := stock.NewSupplierPart(partID, supplierID, "SKU-"+partID.String()[:8])
	require.NoError(e.t, persistence.NewGormSupplierPartRepository(e.db).Save(e.ctx, sp))
	return sp
}

func (e *apiEnv) location(name string) *stock.Location {
	e.t.Helper()
	loc, err := stock.NewLocation(name, nil)
	require.NoError(e.t, err)
	require.NoError(e.t, persistence.NewGormLocationRepository(e.db).Save(e.ctx, loc))
	return loc
}

func (e *apiEnv) item(partID uuid.UUID, qty int64, loc *stock.Location) *stock.StockItem {
	e.t.Helper()
	item, err := stock.NewStockItem(partID, decimal.NewFromInt(qty), &loc.ID)
	require.NoError(e.t, err)
	require.NoError(e.t, persistence.NewGormStockItemRepository(e.db).Save(e.ctx, item))
	return item
}

func (e *apiEnv) serialized(partID uuid.UUID, serial string, loc *stock.Location) *stock.StockItem {
	e.t.Helper()
	item, err := stock.NewSerializedStockItem(partID, serial, &loc.ID)
	require.NoError(e.t, err)
	require.NoError(e.t, persistence.NewGormStockItemRepository(e.db).Save(e.ctx, item))
	return item
}

func TestPurchaseOrderAPI_ReceiveFlow(t *testing.T) {
	env := newAPIEnv(t)
	store := env.location("Store")
	bolt := env.part("Bolt", false)
	supplierID := uuid.New()
	sp := env.supplierPart(bolt.ID, supplierID)
	userID := uuid.New()

	w := env.do(http.MethodPost, "/purchase-orders", map[string]any{
		"supplier":    supplierID,
		"destination": store.ID,
		"lines":       []map[string]any{{"part": sp.ID, "quantity": "10", "purchase_price": "0.25"}},
	}, handler.UserIDHeader, userID.String())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	po := decode[orderapp.PurchaseOrderResponse](t, w).Data
	assert.Equal(t, "PO-0001", po.Reference)
	assert.Equal(t, int(order.PurchaseOrderStatusPending), po.Status)
	require.NotNil(t, po.CreatedBy)
	assert.Equal(t, userID, *po.CreatedBy)
	require.Len(t, po.Lines, 1)
	lineID := po.Lines[0].ID

	w = env.do(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/place", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int(order.PurchaseOrderStatusPlaced), decode[orderapp.PurchaseOrderResponse](t, w).Data.Status)

	t.Run("rejects bad quantities with field keys", func(t *testing.T) {
		w := env.do(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/receive", map[string]any{
			"items": []map[string]any{{"line_item": lineID, "quantity": "0"}},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		resp := decode[any](t, w)
		assert.Equal(t, dto.ErrCodeValidation, resp.Error.Code)
		assert.Equal(t, []string{"Quantity must be greater than zero"}, resp.Error.Fields["items.0.quantity"])
	})

	t.Run("rejects a missing line reference at the edge", func(t *testing.T) {
		w := env.do(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/receive", map[string]any{
			"items": []map[string]any{{"quantity": "1"}},
		})
		require.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, decode[any](t, w).Error.Fields, "items.0.line_item")
	})

	w = env.do(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/receive", map[string]any{
		"items": []map[string]any{{"line_item": lineID, "quantity": "4", "batch_code": "B-1"}},
	}, handler.UserIDHeader, userID.String())
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	result := decode[orderapp.ReceiveResult](t, w).Data
	require.Len(t, result.StockItems, 1)
	assert.True(t, result.StockItems[0].Quantity.Equal(decimal.NewFromInt(4)))
	assert.Equal(t, "B-1", result.StockItems[0].Batch)
	assert.True(t, result.Order.Lines[0].Received.Equal(decimal.NewFromInt(4)))

	w = env.do(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/complete", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[any](t, w)
	assert.Equal(t, dto.ErrCodeInvalidState, resp.Error.Code)
	assert.Contains(t, resp.Error.Fields, "accept_incomplete")

	w = env.do(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/complete", map[string]any{"accept_incomplete": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int(order.PurchaseOrderStatusComplete), decode[orderapp.PurchaseOrderResponse](t, w).Data.Status)

	w = env.do(http.MethodPost, "/purchase-orders/"+po.ID.String()+"/cancel", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPurchaseOrderAPI_ListAndLookup(t *testing.T) {
	env := newAPIEnv(t)

	for range 3 {
		w := env.do(http.MethodPost, "/purchase-orders", map[string]any{"supplier": uuid.New()})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	}

	w := env.do(http.MethodGet, "/purchase-orders?page_size=2", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]orderapp.PurchaseOrderResponse](t, w)
	assert.Len(t, list.Data, 2)
	require.NotNil(t, list.Meta)
	assert.Equal(t, int64(3), list.Meta.Total)
	assert.Equal(t, 2, list.Meta.TotalPages)
	assert.Equal(t, "PO-0003", list.Data[0].Reference)

	w = env.do(http.MethodGet, "/purchase-orders/"+uuid.NewString(), nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodGet, "/purchase-orders/not-a-uuid", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(http.MethodPost, "/purchase-orders", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[any](t, w).Error.Fields, "supplier")

	w = env.do(http.MethodPost, "/purchase-orders", map[string]any{"supplier": uuid.New()}, handler.UserIDHeader, "nobody")
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSalesOrderAPI_AllocateAndShip(t *testing.T) {
	env := newAPIEnv(t)
	store := env.location("Store")
	bolt := env.part("Bolt", false)
	item := env.item(bolt.ID, 10, store)

	w := env.do(http.MethodPost, "/sales-orders", map[string]any{
		"customer": uuid.New(),
		"lines":    []map[string]any{{"part": bolt.ID, "quantity": "6"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	so := decode[orderapp.SalesOrderResponse](t, w).Data
	assert.Equal(t, "SO-0001", so.Reference)
	require.Len(t, so.Shipments, 1)
	shipmentID := so.Shipments[0].ID
	lineID := so.Lines[0].ID

	allocate := func(qty string) *httptest.ResponseRecorder {
		return env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/allocate", map[string]any{
			"shipment": shipmentID,
			"items":    []map[string]any{{"line_item": lineID, "stock_item": item.ID, "quantity": qty}},
		})
	}

	w = allocate("4")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	allocs := decode[[]orderapp.AllocationResponse](t, w).Data
	require.Len(t, allocs, 1)
	assert.True(t, allocs[0].Quantity.Equal(decimal.NewFromInt(4)))

	w = allocate("3")
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp := decode[any](t, w)
	assert.Equal(t, dto.ErrCodeOverAllocation, resp.Error.Code)
	assert.Equal(t, []string{"Allocated quantity exceeds line item quantity (6)"}, resp.Error.Fields["items.0.quantity"])

	w = env.do(http.MethodGet, "/sales-orders/"+so.ID.String()+"/allocations", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decode[[]orderapp.AllocationResponse](t, w).Data, 1)

	w = env.do(http.MethodGet, "/sales-orders/"+so.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[orderapp.SalesOrderResponse](t, w).Data.Lines[0].Allocated.Equal(decimal.NewFromInt(4)))

	userID := uuid.New()
	w = env.do(http.MethodPost, "/shipments/"+shipmentID.String()+"/complete", map[string]any{
		"tracking_number": "TRK-1",
	}, handler.UserIDHeader, userID.String())
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	shipment := decode[orderapp.ShipmentResponse](t, w).Data
	assert.NotNil(t, shipment.ShipmentDate)
	assert.Equal(t, "TRK-1", shipment.TrackingNumber)

	w = env.do(http.MethodPost, "/shipments/"+shipmentID.String()+"/complete", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeShipmentClosed, decode[any](t, w).Error.Code)

	w = allocate("1")
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeShipmentClosed, decode[any](t, w).Error.Code)

	w = env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/shipments", map[string]any{})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, decode[orderapp.SalesOrderResponse](t, w).Data.Shipments, 2)
}

func TestSalesOrderAPI_AllocateSerials(t *testing.T) {
	env := newAPIEnv(t)
	store := env.location("Store")
	widget := env.part("Widget", true)
	for _, serial := range []string{"1", "2", "3"} {
		env.serialized(widget.ID, serial, store)
	}

	w := env.do(http.MethodPost, "/sales-orders", map[string]any{
		"customer": uuid.New(),
		"lines":    []map[string]any{{"part": widget.ID, "quantity": "3"}},
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	so := decode[orderapp.SalesOrderResponse](t, w).Data

	w = env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/allocate-serials", map[string]any{
		"line_item":      so.Lines[0].ID,
		"quantity":       2,
		"serial_numbers": "1-2",
		"shipment":       so.Shipments[0].ID,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Len(t, decode[[]orderapp.AllocationResponse](t, w).Data, 2)

	w = env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/allocate-serials", map[string]any{
		"line_item":      so.Lines[0].ID,
		"quantity":       1,
		"serial_numbers": "3,4",
		"shipment":       so.Shipments[0].ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[any](t, w).Error.Fields, "serial_numbers")

	w = env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/allocate-serials", map[string]any{
		"line_item":      so.Lines[0].ID,
		"quantity":       2,
		"serial_numbers": "3+",
		"shipment":       so.Shipments[0].ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	errInfo := decode[any](t, w).Error
	assert.Equal(t, dto.ErrCodeOverAllocation, errInfo.Code)
	assert.Contains(t, errInfo.Fields, "quantity")

	w = env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/allocate-serials", map[string]any{
		"line_item":      so.Lines[0].ID,
		"quantity":       20000000,
		"serial_numbers": "1+",
		"shipment":       so.Shipments[0].ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[any](t, w).Error.Fields, "quantity")

	w = env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/allocate-serials", map[string]any{
		"line_item": so.Lines[0].ID,
		"quantity":  0,
		"shipment":  so.Shipments[0].ID,
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	fields := decode[any](t, w).Error.Fields
	assert.Contains(t, fields, "quantity")
	assert.Contains(t, fields, "serial_numbers")
}

func TestSalesOrderAPI_Lifecycle(t *testing.T) {
	env := newAPIEnv(t)
	bolt := env.part("Bolt", false)

	w := env.do(http.MethodPost, "/sales-orders", map[string]any{"customer": uuid.New()})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	so := decode[orderapp.SalesOrderResponse](t, w).Data

	w = env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/lines", map[string]any{"part": bolt.ID, "quantity": "2"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	lines := decode[orderapp.SalesOrderResponse](t, w).Data.Lines
	require.Len(t, lines, 1)

	w = env.do(http.MethodDelete, "/sales-orders/"+so.ID.String()+"/lines/"+lines[0].ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Empty(t, decode[orderapp.SalesOrderResponse](t, w).Data.Lines)

	w = env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/issue", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int(order.SalesOrderStatusInProgress), decode[orderapp.SalesOrderResponse](t, w).Data.Status)

	w = env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, int(order.SalesOrderStatusCancelled), decode[orderapp.SalesOrderResponse](t, w).Data.Status)

	w = env.do(http.MethodPost, "/sales-orders/"+so.ID.String()+"/issue", nil)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, dto.ErrCodeInvalidState, decode[any](t, w).Error.Code)
}

func TestReturnOrderAPI_Basics(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(http.MethodPost, "/return-orders", map[string]any{"customer": uuid.New(), "customer_reference": "CUST-9"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	ro := decode[orderapp.ReturnOrderResponse](t, w).Data
	assert.Equal(t, "RMA-0001", ro.Reference)
	assert.Equal(t, "CUST-9", ro.CustomerReference)

	w = env.do(http.MethodGet, "/return-orders/"+ro.ID.String(), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = env.do(http.MethodGet, "/return-orders", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[[]orderapp.ReturnOrderResponse](t, w).Meta.Total)

	w = env.do(http.MethodPost, "/return-orders/"+ro.ID.String()+"/lines", map[string]any{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[any](t, w).Error.Fields, "item")

	w = env.do(http.MethodPost, "/return-orders/"+ro.ID.String()+"/receive", map[string]any{
		"items": []map[string]any{{"item": uuid.New()}},
	})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[any](t, w).Error.Fields, "location")

	w = env.do(http.MethodPut, "/return-orders/"+ro.ID.String()+"/lines/nope/outcome", map[string]any{"outcome": 20})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSystemAPI_Health(t *testing.T) {
	env := newAPIEnv(t)

	w := env.do(http.MethodGet, "/system/health", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"database":"up"`)
}
