package order

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
)

// ============================================
// Common
// ============================================

// HeaderRequest holds the optional header fields accepted on order creation
type HeaderRequest struct {
	Reference     string     `json:"reference"`
	Description   string     `json:"description"`
	Link          string     `json:"link"`
	TargetDate    *time.Time `json:"target_date"`
	ResponsibleID *uuid.UUID `json:"responsible"`
	ProjectCode   string     `json:"project_code"`
	ContactID     *uuid.UUID `json:"contact"`
	AddressID     *uuid.UUID `json:"address"`
	Notes         string     `json:"notes"`
	CreatedBy     *uuid.UUID `json:"-"`
}

func (r HeaderRequest) apply(h *order.Header) {
	h.Description = r.Description
	h.Link = r.Link
	h.SetTargetDate(r.TargetDate)
	h.ResponsibleID = r.ResponsibleID
	h.ProjectCode = r.ProjectCode
	h.ContactID = r.ContactID
	h.AddressID = r.AddressID
	h.Notes = r.Notes
}

// ListFilter narrows order listings
type ListFilter struct {
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
	Status      *int   `form:"status"`
	Search      string `form:"search"`
	Outstanding *bool  `form:"outstanding"`
}

func (f ListFilter) toShared() shared.Filter {
	filter := shared.DefaultFilter()
	if f.Page > 0 {
		filter.Page = f.Page
	}
	if f.PageSize > 0 {
		filter.PageSize = min(f.PageSize, 100)
	}
	filter.OrderBy = "reference_int"
	filter.Search = f.Search
	if f.Status != nil {
		filter.Filters["status"] = *f.Status
	}
	if f.Outstanding != nil {
		filter.Filters["outstanding"] = *f.Outstanding
	}
	return filter
}

// HeaderResponse is the common part of every order response
type HeaderResponse struct {
	ID            uuid.UUID  `json:"id"`
	Reference     string     `json:"reference"`
	Status        int        `json:"status"`
	StatusLabel   string     `json:"status_text"`
	Description   string     `json:"description,omitempty"`
	Link          string     `json:"link,omitempty"`
	CreationDate  time.Time  `json:"creation_date"`
	TargetDate    *time.Time `json:"target_date,omitempty"`
	IssueDate     *time.Time `json:"issue_date,omitempty"`
	CompleteDate  *time.Time `json:"complete_date,omitempty"`
	ResponsibleID *uuid.UUID `json:"responsible,omitempty"`
	CreatedBy     *uuid.UUID `json:"created_by,omitempty"`
	ProjectCode   string     `json:"project_code,omitempty"`
	Notes         string     `json:"notes,omitempty"`
	Overdue       bool       `json:"overdue"`
}

func toHeaderResponse(o order.OrderKind) HeaderResponse {
	h := o.OrderHeader()
	return HeaderResponse{
		ID:            o.GetID(),
		Reference:     h.Reference,
		Status:        o.StatusCode(),
		StatusLabel:   o.StatusLabel(),
		Description:   h.Description,
		Link:          h.Link,
		CreationDate:  o.GetCreatedAt(),
		TargetDate:    h.TargetDate,
		IssueDate:     h.IssueDate,
		CompleteDate:  h.CompleteDate,
		ResponsibleID: h.ResponsibleID,
		CreatedBy:     h.CreatedBy,
		ProjectCode:   h.ProjectCode,
		Notes:         h.Notes,
		Overdue:       o.IsOverdue(time.Now()),
	}
}

// ============================================
// Purchase orders
// ============================================

// CreatePurchaseOrderRequest creates a purchase order
type CreatePurchaseOrderRequest struct {
	HeaderRequest
	SupplierID        uuid.UUID                  `json:"supplier" binding:"required"`
	SupplierReference string                     `json:"supplier_reference"`
	DestinationID     *uuid.UUID                 `json:"destination"`
	Lines             []PurchaseOrderLineRequest `json:"lines" binding:"omitempty,dive"`
}

// PurchaseOrderLineRequest adds a line to a purchase order
type PurchaseOrderLineRequest struct {
	SupplierPartID uuid.UUID       `json:"part" binding:"required"`
	Quantity       decimal.Decimal `json:"quantity" binding:"required"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	DestinationID  *uuid.UUID      `json:"destination"`
	TargetDate     *time.Time      `json:"target_date"`
	Reference      string          `json:"reference"`
	Notes          string          `json:"notes"`
}

// ReceiveItemsRequest receives a batch of line items against a purchase order
type ReceiveItemsRequest struct {
	Items      []ReceiveLineRequest `json:"items" binding:"dive"`
	LocationID *uuid.UUID           `json:"location"`
}

// ReceiveLineRequest is one entry of a receipt batch
type ReceiveLineRequest struct {
	LineItemID    uuid.UUID       `json:"line_item" binding:"required"`
	Quantity      decimal.Decimal `json:"quantity" binding:"required"`
	LocationID    *uuid.UUID      `json:"location"`
	Batch         string          `json:"batch_code"`
	SerialNumbers string          `json:"serial_numbers"`
	Status        *int            `json:"status"`
	Barcode       string          `json:"barcode"`
}

// PurchaseOrderResponse is the API representation of a purchase order
type PurchaseOrderResponse struct {
	HeaderResponse
	SupplierID        uuid.UUID                   `json:"supplier"`
	SupplierReference string                      `json:"supplier_reference,omitempty"`
	DestinationID     *uuid.UUID                  `json:"destination,omitempty"`
	LineItems         int                         `json:"line_items"`
	CompletedLines    int                         `json:"completed_lines"`
	Lines             []PurchaseOrderLineResponse `json:"lines"`
}

// PurchaseOrderLineResponse is the API representation of a purchase order line
type PurchaseOrderLineResponse struct {
	ID             uuid.UUID       `json:"id"`
	SupplierPartID uuid.UUID       `json:"part"`
	PartID         uuid.UUID       `json:"base_part"`
	Quantity       decimal.Decimal `json:"quantity"`
	Received       decimal.Decimal `json:"received"`
	DestinationID  *uuid.UUID      `json:"destination,omitempty"`
	PurchasePrice  decimal.Decimal `json:"purchase_price"`
	Reference      string          `json:"reference,omitempty"`
}

// ToPurchaseOrderResponse converts the aggregate into its response
func ToPurchaseOrderResponse(po *order.PurchaseOrder) PurchaseOrderResponse {
	resp := PurchaseOrderResponse{
		HeaderResponse:    toHeaderResponse(po),
		SupplierID:        po.SupplierID,
		SupplierReference: po.SupplierReference,
		DestinationID:     po.DestinationID,
		LineItems:         len(po.Lines),
		CompletedLines:    len(po.Lines) - po.PendingLineCount(),
		Lines:             make([]PurchaseOrderLineResponse, len(po.Lines)),
	}
	for i, l := range po.Lines {
		resp.Lines[i] = PurchaseOrderLineResponse{
			ID:             l.ID,
			SupplierPartID: l.SupplierPartID,
			PartID:         l.PartID,
			Quantity:       l.Quantity,
			Received:       l.Received,
			DestinationID:  l.DestinationID,
			PurchasePrice:  l.PurchasePrice,
			Reference:      l.Reference,
		}
	}
	return resp
}

// ReceiveResult reports the outcome of a receipt batch
type ReceiveResult struct {
	Order      PurchaseOrderResponse `json:"order"`
	StockItems []StockItemResponse   `json:"stock_items"`
}

// StockItemResponse is the API representation of a stock item
type StockItemResponse struct {
	ID           uuid.UUID       `json:"pk"`
	PartID       uuid.UUID       `json:"part"`
	Quantity     decimal.Decimal `json:"quantity"`
	Serial       string          `json:"serial,omitempty"`
	LocationID   *uuid.UUID      `json:"location,omitempty"`
	Status       int             `json:"status"`
	StatusLabel  string          `json:"status_text"`
	Batch        string          `json:"batch,omitempty"`
	CustomerID   *uuid.UUID      `json:"customer,omitempty"`
	SalesOrderID *uuid.UUID      `json:"sales_order,omitempty"`
}

// ToStockItemResponse converts a stock item into its response
func ToStockItemResponse(item *stock.StockItem) StockItemResponse {
	return StockItemResponse{
		ID:           item.ID,
		PartID:       item.PartID,
		Quantity:     item.Quantity,
		Serial:       item.Serial,
		LocationID:   item.LocationID,
		Status:       int(item.Status),
		StatusLabel:  item.Status.String(),
		Batch:        item.Batch,
		CustomerID:   item.CustomerID,
		SalesOrderID: item.SalesOrderID,
	}
}

// ============================================
// Sales orders
// ============================================

// CreateSalesOrderRequest creates a sales order
type CreateSalesOrderRequest struct {
	HeaderRequest
	CustomerID        uuid.UUID               `json:"customer" binding:"required"`
	CustomerReference string                  `json:"customer_reference"`
	Lines             []SalesOrderLineRequest `json:"lines" binding:"omitempty,dive"`
}

// SalesOrderLineRequest adds a line to a sales order
type SalesOrderLineRequest struct {
	PartID     uuid.UUID       `json:"part" binding:"required"`
	Quantity   decimal.Decimal `json:"quantity" binding:"required"`
	SalePrice  decimal.Decimal `json:"sale_price"`
	TargetDate *time.Time      `json:"target_date"`
	Reference  string          `json:"reference"`
	Notes      string          `json:"notes"`
}

// AllocateItemsRequest allocates stock items to lines on one shipment
type AllocateItemsRequest struct {
	ShipmentID uuid.UUID             `json:"shipment" binding:"required"`
	Items      []AllocateItemRequest `json:"items" binding:"dive"`
}

// AllocateItemRequest is one entry of an allocation batch
type AllocateItemRequest struct {
	LineItemID  uuid.UUID       `json:"line_item" binding:"required"`
	StockItemID uuid.UUID       `json:"stock_item" binding:"required"`
	Quantity    decimal.Decimal `json:"quantity" binding:"required"`
}

// AllocateSerialsRequest allocates serialized stock by serial number expression
type AllocateSerialsRequest struct {
	LineItemID    uuid.UUID `json:"line_item" binding:"required"`
	Quantity      int       `json:"quantity" binding:"required,gt=0,max=10000"`
	SerialNumbers string    `json:"serial_numbers" binding:"required"`
	ShipmentID    uuid.UUID `json:"shipment" binding:"required"`
}

// CompleteShipmentRequest carries the details recorded when a shipment leaves
type CompleteShipmentRequest struct {
	ShipmentDate   *time.Time `json:"shipment_date"`
	DeliveryDate   *time.Time `json:"delivery_date"`
	TrackingNumber string     `json:"tracking_number"`
	InvoiceNumber  string     `json:"invoice_number"`
	Link           string     `json:"link"`
}

// SalesOrderResponse is the API representation of a sales order
type SalesOrderResponse struct {
	HeaderResponse
	CustomerID        uuid.UUID                `json:"customer"`
	CustomerReference string                   `json:"customer_reference,omitempty"`
	ShipmentDate      *time.Time               `json:"shipment_date,omitempty"`
	LineItems         int                      `json:"line_items"`
	CompletedLines    int                      `json:"completed_lines"`
	Lines             []SalesOrderLineResponse `json:"lines"`
	Shipments         []ShipmentResponse       `json:"shipments"`
}

// SalesOrderLineResponse is the API representation of a sales order line
type SalesOrderLineResponse struct {
	ID        uuid.UUID       `json:"id"`
	PartID    uuid.UUID       `json:"part"`
	Quantity  decimal.Decimal `json:"quantity"`
	Shipped   decimal.Decimal `json:"shipped"`
	Allocated decimal.Decimal `json:"allocated"`
	SalePrice decimal.Decimal `json:"sale_price"`
	Reference string          `json:"reference,omitempty"`
}

// ShipmentResponse is the API representation of a shipment
type ShipmentResponse struct {
	ID             uuid.UUID  `json:"pk"`
	Reference      string     `json:"reference"`
	ShipmentDate   *time.Time `json:"shipment_date,omitempty"`
	DeliveryDate   *time.Time `json:"delivery_date,omitempty"`
	TrackingNumber string     `json:"tracking_number,omitempty"`
	InvoiceNumber  string     `json:"invoice_number,omitempty"`
	Link           string     `json:"link,omitempty"`
}

// AllocationResponse is the API representation of an allocation
type AllocationResponse struct {
	ID          uuid.UUID       `json:"pk"`
	LineID      uuid.UUID       `json:"line"`
	ShipmentID  uuid.UUID       `json:"shipment"`
	StockItemID uuid.UUID       `json:"item"`
	Quantity    decimal.Decimal `json:"quantity"`
}

// ToSalesOrderResponse converts the aggregate into its response. allocations
// may be nil when allocation totals are not needed.
func ToSalesOrderResponse(so *order.SalesOrder, allocations []order.SalesOrderAllocation) SalesOrderResponse {
	byLine := make(map[uuid.UUID][]order.SalesOrderAllocation)
	for _, a := range allocations {
		byLine[a.LineID] = append(byLine[a.LineID], a)
	}

	resp := SalesOrderResponse{
		HeaderResponse:    toHeaderResponse(so),
		CustomerID:        so.CustomerID,
		CustomerReference: so.CustomerReference,
		ShipmentDate:      so.ShipmentDate,
		LineItems:         len(so.Lines),
		CompletedLines:    len(so.Lines) - so.PendingLineCount(),
		Lines:             make([]SalesOrderLineResponse, len(so.Lines)),
		Shipments:         make([]ShipmentResponse, len(so.Shipments)),
	}
	for i, l := range so.Lines {
		resp.Lines[i] = SalesOrderLineResponse{
			ID:        l.ID,
			PartID:    l.PartID,
			Quantity:  l.Quantity,
			Shipped:   l.Shipped,
			Allocated: order.TotalAllocated(byLine[l.ID]),
			SalePrice: l.SalePrice,
			Reference: l.Reference,
		}
	}
	for i, s := range so.Shipments {
		resp.Shipments[i] = ToShipmentResponse(&s)
	}
	return resp
}

// ToShipmentResponse converts a shipment into its response
func ToShipmentResponse(s *order.Shipment) ShipmentResponse {
	return ShipmentResponse{
		ID:             s.ID,
		Reference:      s.Reference,
		ShipmentDate:   s.ShipmentDate,
		DeliveryDate:   s.DeliveryDate,
		TrackingNumber: s.TrackingNumber,
		InvoiceNumber:  s.InvoiceNumber,
		Link:           s.Link,
	}
}

// ToAllocationResponses converts allocations into responses
func ToAllocationResponses(allocs []order.SalesOrderAllocation) []AllocationResponse {
	out := make([]AllocationResponse, len(allocs))
	for i, a := range allocs {
		out[i] = AllocationResponse{
			ID:          a.ID,
			LineID:      a.LineID,
			ShipmentID:  a.ShipmentID,
			StockItemID: a.StockItemID,
			Quantity:    a.Quantity,
		}
	}
	return out
}

// ============================================
// Return orders
// ============================================

// CreateReturnOrderRequest creates a return order
type CreateReturnOrderRequest struct {
	HeaderRequest
	CustomerID        uuid.UUID   `json:"customer" binding:"required"`
	CustomerReference string      `json:"customer_reference"`
	StockItemIDs      []uuid.UUID `json:"items"`
}

// ReceiveReturnItemsRequest receives returned items into a location
type ReceiveReturnItemsRequest struct {
	Items      []ReceiveReturnLineRequest `json:"items" binding:"dive"`
	LocationID uuid.UUID                  `json:"location" binding:"required"`
}

// ReceiveReturnLineRequest is one entry of a return receipt batch
type ReceiveReturnLineRequest struct {
	LineItemID uuid.UUID `json:"item" binding:"required"`
}

// ReturnOrderResponse is the API representation of a return order
type ReturnOrderResponse struct {
	HeaderResponse
	CustomerID        uuid.UUID                 `json:"customer"`
	CustomerReference string                    `json:"customer_reference,omitempty"`
	Lines             []ReturnOrderLineResponse `json:"lines"`
}

// ReturnOrderLineResponse is the API representation of a return order line
type ReturnOrderLineResponse struct {
	ID           uuid.UUID  `json:"id"`
	StockItemID  uuid.UUID  `json:"item"`
	Outcome      int        `json:"outcome"`
	ReceivedDate *time.Time `json:"received_date,omitempty"`
}

// ToReturnOrderResponse converts the aggregate into its response
func ToReturnOrderResponse(ro *order.ReturnOrder) ReturnOrderResponse {
	resp := ReturnOrderResponse{
		HeaderResponse:    toHeaderResponse(ro),
		CustomerID:        ro.CustomerID,
		CustomerReference: ro.CustomerReference,
		Lines:             make([]ReturnOrderLineResponse, len(ro.Lines)),
	}
	for i, l := range ro.Lines {
		resp.Lines[i] = ReturnOrderLineResponse{
			ID:           l.ID,
			StockItemID:  l.StockItemID,
			Outcome:      int(l.Outcome),
			ReceivedDate: l.ReceivedDate,
		}
	}
	return resp
}

// SetOutcomeRequest records the decision for a returned line
type SetOutcomeRequest struct {
	Outcome int `json:"outcome" binding:"required"`
}
