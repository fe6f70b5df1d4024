package handler

import (
	"github.com/gin-gonic/gin"

	orderapp "github.com/inventree/backend/internal/application/order"
)

// SalesOrderHandler handles sales order, allocation and shipment endpoints
type SalesOrderHandler struct {
	BaseHandler
	service *orderapp.SalesOrderService
}

// NewSalesOrderHandler creates a new SalesOrderHandler
func NewSalesOrderHandler(service *orderapp.SalesOrderService) *SalesOrderHandler {
	return &SalesOrderHandler{service: service}
}

// AddShipmentRequest opens a shipment. An empty reference is auto-numbered.
type AddShipmentRequest struct {
	Reference string `json:"reference" binding:"max=100"`
}

// RegisterRoutes implements router.RouteRegistrar
func (h *SalesOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/sales-orders")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.GET("/:id/allocations", h.ListAllocations)
	g.POST("/:id/lines", h.AddLine)
	g.DELETE("/:id/lines/:line_id", h.RemoveLine)
	g.POST("/:id/shipments", h.AddShipment)
	g.POST("/:id/issue", h.Issue)
	g.POST("/:id/complete", h.Complete)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/allocate", h.AllocateItems)
	g.POST("/:id/allocate-serials", h.AllocateSerials)

	rg.POST("/shipments/:id/complete", h.CompleteShipment)
}

// Create handles POST /sales-orders
func (h *SalesOrderHandler) Create(c *gin.Context) {
	var req orderapp.CreateSalesOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	req.CreatedBy = userID

	resp, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List handles GET /sales-orders
func (h *SalesOrderHandler) List(c *gin.Context) {
	var filter orderapp.ListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	orders, total, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, size := pageOf(filter)
	h.SuccessWithMeta(c, orders, total, page, size)
}

// GetByID handles GET /sales-orders/:id
func (h *SalesOrderHandler) GetByID(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.GetByID(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListAllocations handles GET /sales-orders/:id/allocations
func (h *SalesOrderHandler) ListAllocations(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	allocs, err := h.service.ListAllocations(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, allocs)
}

// AddLine handles POST /sales-orders/:id/lines
func (h *SalesOrderHandler) AddLine(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.SalesOrderLineRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.AddLine(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// RemoveLine handles DELETE /sales-orders/:id/lines/:line_id
func (h *SalesOrderHandler) RemoveLine(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.parseID(c, "line_id")
	if !ok {
		return
	}
	resp, err := h.service.RemoveLine(c.Request.Context(), id, lineID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddShipment handles POST /sales-orders/:id/shipments
func (h *SalesOrderHandler) AddShipment(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req AddShipmentRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.service.AddShipment(c.Request.Context(), id, req.Reference)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Issue handles POST /sales-orders/:id/issue
func (h *SalesOrderHandler) Issue(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.Issue(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Complete handles POST /sales-orders/:id/complete
func (h *SalesOrderHandler) Complete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req CompleteOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp, err := h.service.Complete(c.Request.Context(), id, req.AcceptIncomplete, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel handles POST /sales-orders/:id/cancel
func (h *SalesOrderHandler) Cancel(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.Cancel(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AllocateItems handles POST /sales-orders/:id/allocate
func (h *SalesOrderHandler) AllocateItems(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.AllocateItemsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	allocs, err := h.service.AllocateItems(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, allocs)
}

// AllocateSerials handles POST /sales-orders/:id/allocate-serials
func (h *SalesOrderHandler) AllocateSerials(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.AllocateSerialsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	allocs, err := h.service.AllocateSerials(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, allocs)
}

// CompleteShipment handles POST /shipments/:id/complete
func (h *SalesOrderHandler) CompleteShipment(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.CompleteShipmentRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp, err := h.service.CompleteShipment(c.Request.Context(), id, req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
