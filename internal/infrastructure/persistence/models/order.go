package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventree/backend/internal/domain/order"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	AggregateModel
	OrderHeaderModel
	SupplierID        uuid.UUID                 `gorm:"type:uuid;not null;index"`
	SupplierReference string                    `gorm:"type:varchar(64)"`
	Status            order.PurchaseOrderStatus `gorm:"not null;default:10;index"`
	DestinationID     *uuid.UUID                `gorm:"type:uuid"`
	ReceivedBy        *uuid.UUID                `gorm:"type:uuid"`
	Lines             []PurchaseOrderLineModel  `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// ToDomain converts the persistence model to a domain PurchaseOrder
func (m *PurchaseOrderModel) ToDomain() *order.PurchaseOrder {
	po := &order.PurchaseOrder{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Header:            m.OrderHeaderModel.ToDomain(),
		SupplierID:        m.SupplierID,
		SupplierReference: m.SupplierReference,
		Status:            m.Status,
		DestinationID:     m.DestinationID,
		ReceivedBy:        m.ReceivedBy,
		Lines:             make([]order.PurchaseOrderLineItem, len(m.Lines)),
	}
	for i := range m.Lines {
		po.Lines[i] = m.Lines[i].ToDomain()
	}
	return po
}

// PurchaseOrderModelFromDomain creates a persistence model from a domain PurchaseOrder.
// Lines are not copied; repositories save them separately.
func PurchaseOrderModelFromDomain(po *order.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		SupplierID:        po.SupplierID,
		SupplierReference: po.SupplierReference,
		Status:            po.Status,
		DestinationID:     po.DestinationID,
		ReceivedBy:        po.ReceivedBy,
	}
	m.FromDomainAggregateRoot(po.BaseAggregateRoot)
	m.OrderHeaderModel.FromDomain(po.Header)
	return m
}

// PurchaseOrderLineModel is the persistence model for a purchase order line item.
type PurchaseOrderLineModel struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID        uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierPartID uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartID         uuid.UUID       `gorm:"type:uuid;not null"`
	Quantity       decimal.Decimal `gorm:"type:decimal(15,5);not null"`
	Received       decimal.Decimal `gorm:"type:decimal(15,5);not null;default:0"`
	DestinationID  *uuid.UUID      `gorm:"type:uuid"`
	TargetDate     *time.Time
	PurchasePrice  decimal.Decimal `gorm:"type:decimal(19,6);not null;default:0"`
	Reference      string          `gorm:"type:varchar(100)"`
	Notes          string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (PurchaseOrderLineModel) TableName() string {
	return "purchase_order_lines"
}

// ToDomain converts the persistence model to a domain line item
func (m *PurchaseOrderLineModel) ToDomain() order.PurchaseOrderLineItem {
	return order.PurchaseOrderLineItem{
		ID:             m.ID,
		OrderID:        m.OrderID,
		SupplierPartID: m.SupplierPartID,
		PartID:         m.PartID,
		Quantity:       m.Quantity,
		Received:       m.Received,
		DestinationID:  m.DestinationID,
		TargetDate:     m.TargetDate,
		PurchasePrice:  m.PurchasePrice,
		Reference:      m.Reference,
		Notes:          m.Notes,
	}
}

// PurchaseOrderLineModelFromDomain creates a persistence model from a domain line item
func PurchaseOrderLineModelFromDomain(l *order.PurchaseOrderLineItem) *PurchaseOrderLineModel {
	return &PurchaseOrderLineModel{
		ID:             l.ID,
		OrderID:        l.OrderID,
		SupplierPartID: l.SupplierPartID,
		PartID:         l.PartID,
		Quantity:       l.Quantity,
		Received:       l.Received,
		DestinationID:  l.DestinationID,
		TargetDate:     l.TargetDate,
		PurchasePrice:  l.PurchasePrice,
		Reference:      l.Reference,
		Notes:          l.Notes,
	}
}

// SalesOrderModel is the persistence model for the SalesOrder aggregate root.
type SalesOrderModel struct {
	AggregateModel
	OrderHeaderModel
	CustomerID        uuid.UUID              `gorm:"type:uuid;not null;index"`
	CustomerReference string                 `gorm:"type:varchar(64)"`
	Status            order.SalesOrderStatus `gorm:"not null;default:10;index"`
	ShipmentDate      *time.Time
	ShippedBy         *uuid.UUID            `gorm:"type:uuid"`
	Lines             []SalesOrderLineModel `gorm:"foreignKey:OrderID;references:ID"`
	Shipments         []ShipmentModel       `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (SalesOrderModel) TableName() string {
	return "sales_orders"
}

// ToDomain converts the persistence model to a domain SalesOrder
func (m *SalesOrderModel) ToDomain() *order.SalesOrder {
	so := &order.SalesOrder{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Header:            m.OrderHeaderModel.ToDomain(),
		CustomerID:        m.CustomerID,
		CustomerReference: m.CustomerReference,
		Status:            m.Status,
		ShipmentDate:      m.ShipmentDate,
		ShippedBy:         m.ShippedBy,
		Lines:             make([]order.SalesOrderLineItem, len(m.Lines)),
		Shipments:         make([]order.Shipment, len(m.Shipments)),
	}
	for i := range m.Lines {
		so.Lines[i] = m.Lines[i].ToDomain()
	}
	for i := range m.Shipments {
		so.Shipments[i] = m.Shipments[i].ToDomain()
	}
	return so
}

// SalesOrderModelFromDomain creates a persistence model from a domain SalesOrder.
// Lines and shipments are saved separately.
func SalesOrderModelFromDomain(so *order.SalesOrder) *SalesOrderModel {
	m := &SalesOrderModel{
		CustomerID:        so.CustomerID,
		CustomerReference: so.CustomerReference,
		Status:            so.Status,
		ShipmentDate:      so.ShipmentDate,
		ShippedBy:         so.ShippedBy,
	}
	m.FromDomainAggregateRoot(so.BaseAggregateRoot)
	m.OrderHeaderModel.FromDomain(so.Header)
	return m
}

// SalesOrderLineModel is the persistence model for a sales order line item.
type SalesOrderLineModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	OrderID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	PartID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity   decimal.Decimal `gorm:"type:decimal(15,5);not null"`
	Shipped    decimal.Decimal `gorm:"type:decimal(15,5);not null;default:0"`
	TargetDate *time.Time
	SalePrice  decimal.Decimal `gorm:"type:decimal(19,6);not null;default:0"`
	Reference  string          `gorm:"type:varchar(100)"`
	Notes      string          `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (SalesOrderLineModel) TableName() string {
	return "sales_order_lines"
}

// ToDomain converts the persistence model to a domain line item
func (m *SalesOrderLineModel) ToDomain() order.SalesOrderLineItem {
	return order.SalesOrderLineItem{
		ID:         m.ID,
		OrderID:    m.OrderID,
		PartID:     m.PartID,
		Quantity:   m.Quantity,
		Shipped:    m.Shipped,
		TargetDate: m.TargetDate,
		SalePrice:  m.SalePrice,
		Reference:  m.Reference,
		Notes:      m.Notes,
	}
}

// SalesOrderLineModelFromDomain creates a persistence model from a domain line item
func SalesOrderLineModelFromDomain(l *order.SalesOrderLineItem) *SalesOrderLineModel {
	return &SalesOrderLineModel{
		ID:         l.ID,
		OrderID:    l.OrderID,
		PartID:     l.PartID,
		Quantity:   l.Quantity,
		Shipped:    l.Shipped,
		TargetDate: l.TargetDate,
		SalePrice:  l.SalePrice,
		Reference:  l.Reference,
		Notes:      l.Notes,
	}
}

// ShipmentModel is the persistence model for a sales order shipment.
type ShipmentModel struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key"`
	OrderID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_shipment_order_reference,priority:1"`
	Reference      string     `gorm:"type:varchar(100);not null;uniqueIndex:idx_shipment_order_reference,priority:2"`
	ShipmentDate   *time.Time `gorm:"index"`
	DeliveryDate   *time.Time
	TrackingNumber string     `gorm:"type:varchar(100)"`
	InvoiceNumber  string     `gorm:"type:varchar(100)"`
	Link           string     `gorm:"type:varchar(2000)"`
	CheckedBy      *uuid.UUID `gorm:"type:uuid"`
	ShippedBy      *uuid.UUID `gorm:"type:uuid"`
	Notes          string     `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "sales_order_shipments"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() order.Shipment {
	return order.Shipment{
		ID:             m.ID,
		OrderID:        m.OrderID,
		Reference:      m.Reference,
		ShipmentDate:   m.ShipmentDate,
		DeliveryDate:   m.DeliveryDate,
		TrackingNumber: m.TrackingNumber,
		InvoiceNumber:  m.InvoiceNumber,
		Link:           m.Link,
		CheckedBy:      m.CheckedBy,
		ShippedBy:      m.ShippedBy,
		Notes:          m.Notes,
	}
}

// ShipmentModelFromDomain creates a persistence model from a domain Shipment
func ShipmentModelFromDomain(s *order.Shipment) *ShipmentModel {
	return &ShipmentModel{
		ID:             s.ID,
		OrderID:        s.OrderID,
		Reference:      s.Reference,
		ShipmentDate:   s.ShipmentDate,
		DeliveryDate:   s.DeliveryDate,
		TrackingNumber: s.TrackingNumber,
		InvoiceNumber:  s.InvoiceNumber,
		Link:           s.Link,
		CheckedBy:      s.CheckedBy,
		ShippedBy:      s.ShippedBy,
		Notes:          s.Notes,
	}
}

// SalesOrderAllocationModel is the persistence model for a stock allocation.
type SalesOrderAllocationModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	LineID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	ShipmentID  uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    decimal.Decimal `gorm:"type:decimal(15,5);not null"`
	CreatedAt   time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (SalesOrderAllocationModel) TableName() string {
	return "sales_order_allocations"
}

// ToDomain converts the persistence model to a domain allocation
func (m *SalesOrderAllocationModel) ToDomain() order.SalesOrderAllocation {
	return order.SalesOrderAllocation{
		ID:          m.ID,
		LineID:      m.LineID,
		ShipmentID:  m.ShipmentID,
		StockItemID: m.StockItemID,
		Quantity:    m.Quantity,
		CreatedAt:   m.CreatedAt,
	}
}

// SalesOrderAllocationModelFromDomain creates a persistence model from a domain allocation
func SalesOrderAllocationModelFromDomain(a *order.SalesOrderAllocation) *SalesOrderAllocationModel {
	return &SalesOrderAllocationModel{
		ID:          a.ID,
		LineID:      a.LineID,
		ShipmentID:  a.ShipmentID,
		StockItemID: a.StockItemID,
		Quantity:    a.Quantity,
		CreatedAt:   a.CreatedAt,
	}
}

// ReturnOrderModel is the persistence model for the ReturnOrder aggregate root.
type ReturnOrderModel struct {
	AggregateModel
	OrderHeaderModel
	CustomerID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	CustomerReference string                  `gorm:"type:varchar(64)"`
	Status            order.ReturnOrderStatus `gorm:"not null;default:10;index"`
	Lines             []ReturnOrderLineModel  `gorm:"foreignKey:OrderID;references:ID"`
}

// TableName returns the table name for GORM
func (ReturnOrderModel) TableName() string {
	return "return_orders"
}

// ToDomain converts the persistence model to a domain ReturnOrder
func (m *ReturnOrderModel) ToDomain() *order.ReturnOrder {
	ro := &order.ReturnOrder{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Header:            m.OrderHeaderModel.ToDomain(),
		CustomerID:        m.CustomerID,
		CustomerReference: m.CustomerReference,
		Status:            m.Status,
		Lines:             make([]order.ReturnOrderLineItem, len(m.Lines)),
	}
	for i := range m.Lines {
		ro.Lines[i] = m.Lines[i].ToDomain()
	}
	return ro
}

// ReturnOrderModelFromDomain creates a persistence model from a domain ReturnOrder
func ReturnOrderModelFromDomain(ro *order.ReturnOrder) *ReturnOrderModel {
	m := &ReturnOrderModel{
		CustomerID:        ro.CustomerID,
		CustomerReference: ro.CustomerReference,
		Status:            ro.Status,
	}
	m.FromDomainAggregateRoot(ro.BaseAggregateRoot)
	m.OrderHeaderModel.FromDomain(ro.Header)
	return m
}

// ReturnOrderLineModel is the persistence model for a return order line item.
type ReturnOrderLineModel struct {
	ID           uuid.UUID                    `gorm:"type:uuid;primary_key"`
	OrderID      uuid.UUID                    `gorm:"type:uuid;not null;index"`
	StockItemID  uuid.UUID                    `gorm:"type:uuid;not null;index"`
	Quantity     decimal.Decimal              `gorm:"type:decimal(15,5);not null"`
	Outcome      order.ReturnOrderLineOutcome `gorm:"not null;default:10"`
	ReceivedDate *time.Time
	Price        decimal.Decimal `gorm:"type:decimal(19,6);not null;default:0"`
	TargetDate   *time.Time
	Reference    string `gorm:"type:varchar(100)"`
	Notes        string `gorm:"type:varchar(500)"`
}

// TableName returns the table name for GORM
func (ReturnOrderLineModel) TableName() string {
	return "return_order_lines"
}

// ToDomain converts the persistence model to a domain line item
func (m *ReturnOrderLineModel) ToDomain() order.ReturnOrderLineItem {
	return order.ReturnOrderLineItem{
		ID:           m.ID,
		OrderID:      m.OrderID,
		StockItemID:  m.StockItemID,
		Quantity:     m.Quantity,
		Outcome:      m.Outcome,
		ReceivedDate: m.ReceivedDate,
		Price:        m.Price,
		TargetDate:   m.TargetDate,
		Reference:    m.Reference,
		Notes:        m.Notes,
	}
}

// ReturnOrderLineModelFromDomain creates a persistence model from a domain line item
func ReturnOrderLineModelFromDomain(l *order.ReturnOrderLineItem) *ReturnOrderLineModel {
	return &ReturnOrderLineModel{
		ID:           l.ID,
		OrderID:      l.OrderID,
		StockItemID:  l.StockItemID,
		Quantity:     l.Quantity,
		Outcome:      l.Outcome,
		ReceivedDate: l.ReceivedDate,
		Price:        l.Price,
		TargetDate:   l.TargetDate,
		Reference:    l.Reference,
		Notes:        l.Notes,
	}
}
