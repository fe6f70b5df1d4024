package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventree/backend/internal/domain/stock"
)

// PartModel is the persistence model for a part.
type PartModel struct {
	ID          uuid.UUID `gorm:"type:uuid;primary_key"`
	Name        string    `gorm:"type:varchar(100);not null;index"`
	IPN         string    `gorm:"type:varchar(100);index"`
	Description string    `gorm:"type:varchar(250)"`
	Trackable   bool      `gorm:"not null;default:false"`
	Active      bool      `gorm:"not null"`
	Salable     bool      `gorm:"not null"`
	Purchasable bool      `gorm:"not null"`
}

// TableName returns the table name for GORM
func (PartModel) TableName() string {
	return "parts"
}

// ToDomain converts the persistence model to a domain Part
func (m *PartModel) ToDomain() *stock.Part {
	return &stock.Part{
		ID:          m.ID,
		Name:        m.Name,
		IPN:         m.IPN,
		Description: m.Description,
		Trackable:   m.Trackable,
		Active:      m.Active,
		Salable:     m.Salable,
		Purchasable: m.Purchasable,
	}
}

// PartModelFromDomain creates a persistence model from a domain Part
func PartModelFromDomain(p *stock.Part) *PartModel {
	return &PartModel{
		ID:          p.ID,
		Name:        p.Name,
		IPN:         p.IPN,
		Description: p.Description,
		Trackable:   p.Trackable,
		Active:      p.Active,
		Salable:     p.Salable,
		Purchasable: p.Purchasable,
	}
}

// SupplierPartModel is the persistence model for a supplier part.
type SupplierPartModel struct {
	ID         uuid.UUID       `gorm:"type:uuid;primary_key"`
	PartID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	SupplierID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU        string          `gorm:"type:varchar(100);not null"`
	Pack       decimal.Decimal `gorm:"type:decimal(15,5);not null;default:1"`
}

// TableName returns the table name for GORM
func (SupplierPartModel) TableName() string {
	return "supplier_parts"
}

// ToDomain converts the persistence model to a domain SupplierPart
func (m *SupplierPartModel) ToDomain() *stock.SupplierPart {
	return &stock.SupplierPart{
		ID:         m.ID,
		PartID:     m.PartID,
		SupplierID: m.SupplierID,
		SKU:        m.SKU,
		Pack:       m.Pack,
	}
}

// SupplierPartModelFromDomain creates a persistence model from a domain SupplierPart
func SupplierPartModelFromDomain(s *stock.SupplierPart) *SupplierPartModel {
	return &SupplierPartModel{
		ID:         s.ID,
		PartID:     s.PartID,
		SupplierID: s.SupplierID,
		SKU:        s.SKU,
		Pack:       s.Pack,
	}
}

// LocationModel is the persistence model for a stock location.
type LocationModel struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key"`
	Name        string     `gorm:"type:varchar(100);not null"`
	Description string     `gorm:"type:varchar(250)"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	Structural  bool       `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (LocationModel) TableName() string {
	return "stock_locations"
}

// ToDomain converts the persistence model to a domain Location
func (m *LocationModel) ToDomain() *stock.Location {
	return &stock.Location{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		ParentID:    m.ParentID,
		Structural:  m.Structural,
	}
}

// LocationModelFromDomain creates a persistence model from a domain Location
func LocationModelFromDomain(l *stock.Location) *LocationModel {
	return &LocationModel{
		ID:          l.ID,
		Name:        l.Name,
		Description: l.Description,
		ParentID:    l.ParentID,
		Structural:  l.Structural,
	}
}

// StockItemModel is the persistence model for the StockItem aggregate root.
type StockItemModel struct {
	AggregateModel
	PartID          uuid.UUID         `gorm:"type:uuid;not null;index:idx_stock_item_part_serial,unique,where:serial <> '',priority:1"`
	SupplierPartID  *uuid.UUID        `gorm:"type:uuid"`
	ParentID        *uuid.UUID        `gorm:"type:uuid;index"`
	Quantity        decimal.Decimal   `gorm:"type:decimal(15,5);not null"`
	Serial          string            `gorm:"type:varchar(100);index:idx_stock_item_part_serial,unique,where:serial <> '',priority:2"`
	SerialInt       int64             `gorm:"not null;default:0"`
	LocationID      *uuid.UUID        `gorm:"type:uuid;index"`
	Status          stock.StockStatus `gorm:"not null;default:10"`
	Batch           string            `gorm:"type:varchar(100)"`
	BarcodeHash     string            `gorm:"type:varchar(128);uniqueIndex:idx_stock_items_barcode_hash,where:barcode_hash <> ''"`
	PurchaseOrderID *uuid.UUID        `gorm:"type:uuid"`
	SalesOrderID    *uuid.UUID        `gorm:"type:uuid"`
	CustomerID      *uuid.UUID        `gorm:"type:uuid;index"`
	PurchasePrice   decimal.Decimal   `gorm:"type:decimal(19,6);not null;default:0"`
}

// TableName returns the table name for GORM
func (StockItemModel) TableName() string {
	return "stock_items"
}

// ToDomain converts the persistence model to a domain StockItem
func (m *StockItemModel) ToDomain() *stock.StockItem {
	return &stock.StockItem{
		BaseAggregateRoot: m.ToAggregateRoot(),
		PartID:            m.PartID,
		SupplierPartID:    m.SupplierPartID,
		ParentID:          m.ParentID,
		Quantity:          m.Quantity,
		Serial:            m.Serial,
		SerialInt:         m.SerialInt,
		LocationID:        m.LocationID,
		Status:            m.Status,
		Batch:             m.Batch,
		BarcodeHash:       m.BarcodeHash,
		PurchaseOrderID:   m.PurchaseOrderID,
		SalesOrderID:      m.SalesOrderID,
		CustomerID:        m.CustomerID,
		PurchasePrice:     m.PurchasePrice,
	}
}

// StockItemModelFromDomain creates a persistence model from a domain StockItem
func StockItemModelFromDomain(i *stock.StockItem) *StockItemModel {
	m := &StockItemModel{
		PartID:          i.PartID,
		SupplierPartID:  i.SupplierPartID,
		ParentID:        i.ParentID,
		Quantity:        i.Quantity,
		Serial:          i.Serial,
		SerialInt:       i.SerialInt,
		LocationID:      i.LocationID,
		Status:          i.Status,
		Batch:           i.Batch,
		BarcodeHash:     i.BarcodeHash,
		PurchaseOrderID: i.PurchaseOrderID,
		SalesOrderID:    i.SalesOrderID,
		CustomerID:      i.CustomerID,
		PurchasePrice:   i.PurchasePrice,
	}
	m.FromDomainAggregateRoot(i.BaseAggregateRoot)
	return m
}

// TrackingEntryModel is the persistence model for a stock history entry.
type TrackingEntryModel struct {
	ID          uuid.UUID         `gorm:"type:uuid;primary_key"`
	StockItemID uuid.UUID         `gorm:"type:uuid;not null;index"`
	Code        stock.HistoryCode `gorm:"not null;default:0"`
	Date        time.Time         `gorm:"not null;index"`
	UserID      *uuid.UUID        `gorm:"type:uuid"`
	Notes       string            `gorm:"type:varchar(512)"`
	Deltas      map[string]any    `gorm:"type:jsonb;serializer:json"`
}

// TableName returns the table name for GORM
func (TrackingEntryModel) TableName() string {
	return "stock_tracking"
}

// ToDomain converts the persistence model to a domain TrackingEntry
func (m *TrackingEntryModel) ToDomain() stock.TrackingEntry {
	deltas := m.Deltas
	if deltas == nil {
		deltas = map[string]any{}
	}
	return stock.TrackingEntry{
		ID:          m.ID,
		StockItemID: m.StockItemID,
		Code:        m.Code,
		Date:        m.Date,
		UserID:      m.UserID,
		Notes:       m.Notes,
		Deltas:      deltas,
	}
}

// TrackingEntryModelFromDomain creates a persistence model from a domain TrackingEntry
func TrackingEntryModelFromDomain(e *stock.TrackingEntry) *TrackingEntryModel {
	return &TrackingEntryModel{
		ID:          e.ID,
		StockItemID: e.StockItemID,
		Code:        e.Code,
		Date:        e.Date,
		UserID:      e.UserID,
		Notes:       e.Notes,
		Deltas:      e.Deltas,
	}
}

// BuildAllocationModel is the persistence model for a build order allocation.
type BuildAllocationModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primary_key"`
	BuildID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockItemID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    decimal.Decimal `gorm:"type:decimal(15,5);not null"`
}

// TableName returns the table name for GORM
func (BuildAllocationModel) TableName() string {
	return "build_allocations"
}

// ToDomain converts the persistence model to a domain BuildAllocation
func (m *BuildAllocationModel) ToDomain() stock.BuildAllocation {
	return stock.BuildAllocation{
		ID:          m.ID,
		BuildID:     m.BuildID,
		StockItemID: m.StockItemID,
		Quantity:    m.Quantity,
	}
}

// BuildAllocationModelFromDomain creates a persistence model from a domain BuildAllocation
func BuildAllocationModelFromDomain(a *stock.BuildAllocation) *BuildAllocationModel {
	return &BuildAllocationModel{
		ID:          a.ID,
		BuildID:     a.BuildID,
		StockItemID: a.StockItemID,
		Quantity:    a.Quantity,
	}
}

// AllModels returns every model for auto-migration in tests and single-node deployments
func AllModels() []any {
	return []any{
		&PartModel{},
		&SupplierPartModel{},
		&LocationModel{},
		&StockItemModel{},
		&TrackingEntryModel{},
		&BuildAllocationModel{},
		&PurchaseOrderModel{},
		&PurchaseOrderLineModel{},
		&SalesOrderModel{},
		&SalesOrderLineModel{},
		&ShipmentModel{},
		&SalesOrderAllocationModel{},
		&ReturnOrderModel{},
		&ReturnOrderLineModel{},
	}
}
