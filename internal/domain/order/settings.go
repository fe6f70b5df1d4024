package order

import "github.com/inventree/backend/internal/domain/stock"

// Settings carries the behaviour switches the order services consult.
// It is built once from configuration and passed in explicitly.
type Settings struct {
	PurchaseOrderReferencePattern string
	SalesOrderReferencePattern    string
	ReturnOrderReferencePattern   string

	// PurchaseOrderAutoComplete completes a purchase order as soon as every
	// line has been received
	PurchaseOrderAutoComplete bool

	// SalesOrderShipComplete moves a completed sales order straight to
	// COMPLETE rather than SHIPPED
	SalesOrderShipComplete bool

	// SalesOrderDefaultShipment creates an initial shipment with each new sales order
	SalesOrderDefaultShipment bool

	// ReturnOrderReceivedStatus is applied to stock received against a return order
	ReturnOrderReceivedStatus stock.StockStatus
}

// DefaultSettings returns the settings used when nothing is configured
func DefaultSettings() Settings {
	return Settings{
		PurchaseOrderReferencePattern: "PO-{ref:04d}",
		SalesOrderReferencePattern:    "SO-{ref:04d}",
		ReturnOrderReferencePattern:   "RMA-{ref:04d}",
		ReturnOrderReceivedStatus:     stock.StockStatusQuarantined,
	}
}

// ReferencePattern returns the configured pattern for an order kind
func (s Settings) ReferencePattern(kind Kind) string {
	switch kind {
	case KindPurchaseOrder:
		return s.PurchaseOrderReferencePattern
	case KindSalesOrder:
		return s.SalesOrderReferencePattern
	case KindReturnOrder:
		return s.ReturnOrderReferencePattern
	}
	return ""
}
