package handler

import (
	"github.com/gin-gonic/gin"

	orderapp "github.com/inventree/backend/internal/application/order"
)

// PurchaseOrderHandler handles purchase order API endpoints
type PurchaseOrderHandler struct {
	BaseHandler
	service *orderapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a new PurchaseOrderHandler
func NewPurchaseOrderHandler(service *orderapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{service: service}
}

// CompleteOrderRequest is the optional body of a complete call
type CompleteOrderRequest struct {
	AcceptIncomplete bool `json:"accept_incomplete"`
}

// RegisterRoutes implements router.RouteRegistrar
func (h *PurchaseOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/purchase-orders")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.POST("/:id/lines", h.AddLine)
	g.DELETE("/:id/lines/:line_id", h.RemoveLine)
	g.POST("/:id/place", h.Place)
	g.POST("/:id/complete", h.Complete)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/receive", h.ReceiveItems)
}

// Create handles POST /purchase-orders
func (h *PurchaseOrderHandler) Create(c *gin.Context) {
	var req orderapp.CreatePurchaseOrderRequest
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

// List handles GET /purchase-orders
func (h *PurchaseOrderHandler) List(c *gin.Context) {
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

// GetByID handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) GetByID(c *gin.Context) {
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

// AddLine handles POST /purchase-orders/:id/lines
func (h *PurchaseOrderHandler) AddLine(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.PurchaseOrderLineRequest
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

// RemoveLine handles DELETE /purchase-orders/:id/lines/:line_id
func (h *PurchaseOrderHandler) RemoveLine(c *gin.Context) {
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

// Place handles POST /purchase-orders/:id/place
func (h *PurchaseOrderHandler) Place(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	resp, err := h.service.Place(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Complete handles POST /purchase-orders/:id/complete
func (h *PurchaseOrderHandler) Complete(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req CompleteOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	resp, err := h.service.Complete(c.Request.Context(), id, req.AcceptIncomplete)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel handles POST /purchase-orders/:id/cancel
func (h *PurchaseOrderHandler) Cancel(c *gin.Context) {
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

// ReceiveItems handles POST /purchase-orders/:id/receive
func (h *PurchaseOrderHandler) ReceiveItems(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.ReceiveItemsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.service.ReceiveItems(c.Request.Context(), id, req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}
