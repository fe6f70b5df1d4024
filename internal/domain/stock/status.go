package stock

// StockStatus is the numeric status code carried by every stock item
type StockStatus int

const (
	StockStatusOK          StockStatus = 10
	StockStatusAttention   StockStatus = 50
	StockStatusDamaged     StockStatus = 55
	StockStatusDestroyed   StockStatus = 60
	StockStatusRejected    StockStatus = 65
	StockStatusLost        StockStatus = 70
	StockStatusQuarantined StockStatus = 75
	StockStatusReturned    StockStatus = 85
)

var stockStatusLabels = map[StockStatus]string{
	StockStatusOK:          "OK",
	StockStatusAttention:   "Attention needed",
	StockStatusDamaged:     "Damaged",
	StockStatusDestroyed:   "Destroyed",
	StockStatusRejected:    "Rejected",
	StockStatusLost:        "Lost",
	StockStatusQuarantined: "Quarantined",
	StockStatusReturned:    "Returned",
}

// IsValid checks if the status code is known
func (s StockStatus) IsValid() bool {
	_, ok := stockStatusLabels[s]
	return ok
}

// String returns the human readable label
func (s StockStatus) String() string {
	if label, ok := stockStatusLabels[s]; ok {
		return label
	}
	return "Unknown"
}

// IsAvailable reports whether stock in this status can be allocated or sold
func (s StockStatus) IsAvailable() bool {
	switch s {
	case StockStatusOK, StockStatusAttention, StockStatusDamaged:
		return true
	}
	return false
}

// HistoryCode identifies the kind of stock tracking entry
type HistoryCode int

const (
	HistoryLegacy                       HistoryCode = 0
	HistoryCreated                      HistoryCode = 1
	HistoryEdited                       HistoryCode = 5
	HistoryAssignedSerial               HistoryCode = 6
	HistoryStockLocationChanged         HistoryCode = 20
	HistorySplitFromParent              HistoryCode = 40
	HistoryShippedAgainstSalesOrder     HistoryCode = 60
	HistoryReceivedAgainstPurchaseOrder HistoryCode = 70
	HistoryReturnedAgainstReturnOrder   HistoryCode = 80
)

var historyLabels = map[HistoryCode]string{
	HistoryLegacy:                       "Legacy stock tracking entry",
	HistoryCreated:                      "Stock item created",
	HistoryEdited:                       "Edited stock item",
	HistoryAssignedSerial:               "Assigned serial number",
	HistoryStockLocationChanged:         "Location changed",
	HistorySplitFromParent:              "Split from parent item",
	HistoryShippedAgainstSalesOrder:     "Shipped to customer",
	HistoryReceivedAgainstPurchaseOrder: "Received against purchase order",
	HistoryReturnedAgainstReturnOrder:   "Returned against return order",
}

// String returns the human readable label
func (c HistoryCode) String() string {
	if label, ok := historyLabels[c]; ok {
		return label
	}
	return "Unknown"
}
