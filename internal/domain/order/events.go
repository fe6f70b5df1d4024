package order

import (
	"github.com/google/uuid"

	"github.com/inventree/backend/internal/domain/shared"
)

// Event types. These double as plugin event names.
const (
	EventTypePurchaseOrderPlaced    = "purchaseorder.placed"
	EventTypePurchaseOrderCompleted = "purchaseorder.completed"
	EventTypePurchaseOrderCancelled = "purchaseorder.cancelled"
	EventTypePurchaseOrderReceived  = "purchaseorder.received"

	EventTypeSalesOrderIssued          = "salesorder.issued"
	EventTypeSalesOrderShipped         = "salesorder.shipped"
	EventTypeSalesOrderCompleted       = "salesorder.completed"
	EventTypeSalesOrderCancelled       = "salesorder.cancelled"
	EventTypeSalesOrderAllocated       = "salesorder.allocated"
	EventTypeSalesOrderShipmentShipped = "salesordershipment.completed"

	EventTypeReturnOrderIssued    = "returnorder.placed"
	EventTypeReturnOrderReceived  = "returnorder.received"
	EventTypeReturnOrderCompleted = "returnorder.completed"
	EventTypeReturnOrderCancelled = "returnorder.cancelled"

	EventTypeOverduePurchaseOrder = "order.overdue_purchase_order"
	EventTypeOverdueSalesOrder    = "order.overdue_sales_order"
)

// OrderEvent is raised on order state changes. It is delivered to the
// notification sink when it has targets and always to the plugin event bus.
type OrderEvent struct {
	shared.BaseDomainEvent
	OrderKind Kind           `json:"order_kind"`
	Reference string         `json:"reference"`
	Status    int            `json:"status"`
	Targets   []uuid.UUID    `json:"targets,omitempty"`
	Message   string         `json:"message,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
	kwargName string
}

// NotificationTargets implements shared.Notifiable
func (e *OrderEvent) NotificationTargets() []uuid.UUID {
	return e.Targets
}

// PluginEventName implements shared.PluginEvent
func (e *OrderEvent) PluginEventName() string {
	return e.Type
}

// PluginKwargs implements shared.PluginEvent
func (e *OrderEvent) PluginKwargs() map[string]any {
	key := e.kwargName
	if key == "" {
		key = "id"
	}
	kwargs := map[string]any{key: e.AggID.String()}
	for k, v := range e.Extra {
		kwargs[k] = v
	}
	return kwargs
}

func newOrderEvent(eventType string, o OrderKind, notify bool, message string) *OrderEvent {
	h := o.OrderHeader()
	e := &OrderEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, string(o.Kind()), o.GetID()),
		OrderKind:       o.Kind(),
		Reference:       h.Reference,
		Status:          o.StatusCode(),
		Message:         message,
	}
	if notify {
		e.Targets = h.NotificationTargets()
	}
	return e
}

// NewOverdueEvent builds the notification raised when an order passes its target date
func NewOverdueEvent(o OrderKind) *OrderEvent {
	eventType, kwarg, label := EventTypeOverduePurchaseOrder, "purchase_order", "Purchase order"
	if o.Kind() == KindSalesOrder {
		eventType, kwarg, label = EventTypeOverdueSalesOrder, "sales_order", "Sales order"
	}
	e := newOrderEvent(eventType, o, true, label+" "+o.OrderHeader().Reference+" is now overdue")
	e.kwargName = kwarg
	return e
}

// NewAllocatedEvent is raised after stock has been allocated against a sales order
func NewAllocatedEvent(o *SalesOrder, count int) *OrderEvent {
	e := newOrderEvent(EventTypeSalesOrderAllocated, o, false, "")
	e.Extra = map[string]any{"allocations": count}
	return e
}
