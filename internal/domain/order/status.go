package order

import "slices"

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus int

const (
	PurchaseOrderStatusPending   PurchaseOrderStatus = 10
	PurchaseOrderStatusPlaced    PurchaseOrderStatus = 20
	PurchaseOrderStatusComplete  PurchaseOrderStatus = 30
	PurchaseOrderStatusCancelled PurchaseOrderStatus = 40
	PurchaseOrderStatusLost      PurchaseOrderStatus = 50
	PurchaseOrderStatusReturned  PurchaseOrderStatus = 60
)

var purchaseOrderStatusLabels = map[PurchaseOrderStatus]string{
	PurchaseOrderStatusPending:   "Pending",
	PurchaseOrderStatusPlaced:    "Placed",
	PurchaseOrderStatusComplete:  "Complete",
	PurchaseOrderStatusCancelled: "Cancelled",
	PurchaseOrderStatusLost:      "Lost",
	PurchaseOrderStatusReturned:  "Returned",
}

var purchaseOrderTransitions = map[PurchaseOrderStatus][]PurchaseOrderStatus{
	PurchaseOrderStatusPending: {PurchaseOrderStatusPlaced, PurchaseOrderStatusCancelled},
	PurchaseOrderStatusPlaced: {
		PurchaseOrderStatusComplete,
		PurchaseOrderStatusCancelled,
		PurchaseOrderStatusLost,
		PurchaseOrderStatusReturned,
	},
}

// IsValid checks if the status is a known value
func (s PurchaseOrderStatus) IsValid() bool {
	_, ok := purchaseOrderStatusLabels[s]
	return ok
}

// String returns the status label
func (s PurchaseOrderStatus) String() string {
	return purchaseOrderStatusLabels[s]
}

// CanTransitionTo checks if the status can transition to the target status
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	return slices.Contains(purchaseOrderTransitions[s], target)
}

// IsOpen reports whether the order is still outstanding
func (s PurchaseOrderStatus) IsOpen() bool {
	return s == PurchaseOrderStatusPending || s == PurchaseOrderStatusPlaced
}

// IsTerminal reports whether no further transitions are possible
func (s PurchaseOrderStatus) IsTerminal() bool {
	return len(purchaseOrderTransitions[s]) == 0
}

// CanReceive checks if goods can be received in this status
func (s PurchaseOrderStatus) CanReceive() bool {
	return s == PurchaseOrderStatusPlaced
}

// SalesOrderStatus represents the status of a sales order
type SalesOrderStatus int

const (
	SalesOrderStatusPending    SalesOrderStatus = 10
	SalesOrderStatusInProgress SalesOrderStatus = 15
	SalesOrderStatusShipped    SalesOrderStatus = 20
	SalesOrderStatusComplete   SalesOrderStatus = 30
	SalesOrderStatusCancelled  SalesOrderStatus = 40
	SalesOrderStatusLost       SalesOrderStatus = 50
	SalesOrderStatusReturned   SalesOrderStatus = 60
)

var salesOrderStatusLabels = map[SalesOrderStatus]string{
	SalesOrderStatusPending:    "Pending",
	SalesOrderStatusInProgress: "In Progress",
	SalesOrderStatusShipped:    "Shipped",
	SalesOrderStatusComplete:   "Complete",
	SalesOrderStatusCancelled:  "Cancelled",
	SalesOrderStatusLost:       "Lost",
	SalesOrderStatusReturned:   "Returned",
}

var salesOrderTransitions = map[SalesOrderStatus][]SalesOrderStatus{
	SalesOrderStatusPending: {SalesOrderStatusInProgress, SalesOrderStatusCancelled},
	SalesOrderStatusInProgress: {
		SalesOrderStatusShipped,
		SalesOrderStatusComplete,
		SalesOrderStatusCancelled,
	},
	SalesOrderStatusShipped: {
		SalesOrderStatusComplete,
		SalesOrderStatusLost,
		SalesOrderStatusReturned,
	},
}

// IsValid checks if the status is a known value
func (s SalesOrderStatus) IsValid() bool {
	_, ok := salesOrderStatusLabels[s]
	return ok
}

// String returns the status label
func (s SalesOrderStatus) String() string {
	return salesOrderStatusLabels[s]
}

// CanTransitionTo checks if the status can transition to the target status
func (s SalesOrderStatus) CanTransitionTo(target SalesOrderStatus) bool {
	return slices.Contains(salesOrderTransitions[s], target)
}

// IsOpen reports whether stock may still be allocated and shipped
func (s SalesOrderStatus) IsOpen() bool {
	return s == SalesOrderStatusPending || s == SalesOrderStatusInProgress
}

// IsTerminal reports whether no further transitions are possible
func (s SalesOrderStatus) IsTerminal() bool {
	return len(salesOrderTransitions[s]) == 0
}

// ReturnOrderStatus represents the status of a return order
type ReturnOrderStatus int

const (
	ReturnOrderStatusPending    ReturnOrderStatus = 10
	ReturnOrderStatusInProgress ReturnOrderStatus = 20
	ReturnOrderStatusComplete   ReturnOrderStatus = 30
	ReturnOrderStatusCancelled  ReturnOrderStatus = 40
)

var returnOrderStatusLabels = map[ReturnOrderStatus]string{
	ReturnOrderStatusPending:    "Pending",
	ReturnOrderStatusInProgress: "In Progress",
	ReturnOrderStatusComplete:   "Complete",
	ReturnOrderStatusCancelled:  "Cancelled",
}

var returnOrderTransitions = map[ReturnOrderStatus][]ReturnOrderStatus{
	ReturnOrderStatusPending:    {ReturnOrderStatusInProgress, ReturnOrderStatusCancelled},
	ReturnOrderStatusInProgress: {ReturnOrderStatusComplete, ReturnOrderStatusCancelled},
}

// IsValid checks if the status is a known value
func (s ReturnOrderStatus) IsValid() bool {
	_, ok := returnOrderStatusLabels[s]
	return ok
}

// String returns the status label
func (s ReturnOrderStatus) String() string {
	return returnOrderStatusLabels[s]
}

// CanTransitionTo checks if the status can transition to the target status
func (s ReturnOrderStatus) CanTransitionTo(target ReturnOrderStatus) bool {
	return slices.Contains(returnOrderTransitions[s], target)
}

// IsOpen reports whether the order is still outstanding
func (s ReturnOrderStatus) IsOpen() bool {
	return s == ReturnOrderStatusPending || s == ReturnOrderStatusInProgress
}

// IsTerminal reports whether no further transitions are possible
func (s ReturnOrderStatus) IsTerminal() bool {
	return len(returnOrderTransitions[s]) == 0
}

// ReturnOrderLineOutcome records what happens to a returned item
type ReturnOrderLineOutcome int

const (
	ReturnOutcomePending ReturnOrderLineOutcome = 10
	ReturnOutcomeReturn  ReturnOrderLineOutcome = 20
	ReturnOutcomeRepair  ReturnOrderLineOutcome = 30
	ReturnOutcomeReplace ReturnOrderLineOutcome = 40
	ReturnOutcomeRefund  ReturnOrderLineOutcome = 50
	ReturnOutcomeReject  ReturnOrderLineOutcome = 60
)

// IsValid checks if the outcome is a known value
func (o ReturnOrderLineOutcome) IsValid() bool {
	return o >= ReturnOutcomePending && o <= ReturnOutcomeReject && o%10 == 0
}

// Open status groups, used by queries which filter outstanding orders
var (
	PurchaseOrderOpenStatuses = []PurchaseOrderStatus{PurchaseOrderStatusPending, PurchaseOrderStatusPlaced}
	SalesOrderOpenStatuses    = []SalesOrderStatus{SalesOrderStatusPending, SalesOrderStatusInProgress}
	ReturnOrderOpenStatuses   = []ReturnOrderStatus{ReturnOrderStatusPending, ReturnOrderStatusInProgress}
)
