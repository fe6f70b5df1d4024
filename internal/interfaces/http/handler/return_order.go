package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	orderapp "github.com/inventree/backend/internal/application/order"
)

// ReturnOrderHandler handles return order API endpoints
type ReturnOrderHandler struct {
	BaseHandler
	service *orderapp.ReturnOrderService
}

// NewReturnOrderHandler creates a new ReturnOrderHandler
func NewReturnOrderHandler(service *orderapp.ReturnOrderService) *ReturnOrderHandler {
	return &ReturnOrderHandler{service: service}
}

// AddReturnLineRequest adds a customer-held stock item to a return order
type AddReturnLineRequest struct {
	StockItemID uuid.UUID `json:"item" binding:"required"`
}

// RegisterRoutes implements router.RouteRegistrar
func (h *ReturnOrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	g := rg.Group("/return-orders")
	g.POST("", h.Create)
	g.GET("", h.List)
	g.GET("/:id", h.GetByID)
	g.POST("/:id/lines", h.AddLine)
	g.PUT("/:id/lines/:line_id/outcome", h.SetOutcome)
	g.POST("/:id/issue", h.Issue)
	g.POST("/:id/complete", h.Complete)
	g.POST("/:id/cancel", h.Cancel)
	g.POST("/:id/receive", h.ReceiveItems)
}

// Create handles POST /return-orders
func (h *ReturnOrderHandler) Create(c *gin.Context) {
	var req orderapp.CreateReturnOrderRequest
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

// List handles GET /return-orders
func (h *ReturnOrderHandler) List(c *gin.Context) {
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

// GetByID handles GET /return-orders/:id
func (h *ReturnOrderHandler) GetByID(c *gin.Context) {
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

// AddLine handles POST /return-orders/:id/lines
func (h *ReturnOrderHandler) AddLine(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req AddReturnLineRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.AddLine(c.Request.Context(), id, req.StockItemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// SetOutcome handles PUT /return-orders/:id/lines/:line_id/outcome
func (h *ReturnOrderHandler) SetOutcome(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	lineID, ok := h.parseID(c, "line_id")
	if !ok {
		return
	}
	var req orderapp.SetOutcomeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.service.SetOutcome(c.Request.Context(), id, lineID, req.Outcome)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Issue handles POST /return-orders/:id/issue
func (h *ReturnOrderHandler) Issue(c *gin.Context) {
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

// Complete handles POST /return-orders/:id/complete
func (h *ReturnOrderHandler) Complete(c *gin.Context) {
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

// Cancel handles POST /return-orders/:id/cancel
func (h *ReturnOrderHandler) Cancel(c *gin.Context) {
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

// ReceiveItems handles POST /return-orders/:id/receive
func (h *ReturnOrderHandler) ReceiveItems(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req orderapp.ReceiveReturnItemsRequest
	if !h.bindJSON(c, &req) {
		return
	}
	userID, err := getUserID(c)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	resp, err := h.service.ReceiveItems(c.Request.Context(), id, req, userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
