package event

import (
	"context"
	"fmt"
	"slices"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
)

// Handler names, used as idempotency scopes
const (
	NotificationHandlerName = "notification"
	PluginHandlerName       = "plugin"
)

var overdueEventTypes = []string{
	order.EventTypeOverduePurchaseOrder,
	order.EventTypeOverdueSalesOrder,
}

// NotificationHandler forwards Notifiable events with at least one target to a NotificationSink
type NotificationHandler struct {
	sink          shared.NotificationSink
	notifyOverdue bool
}

// NewNotificationHandler creates a notification handler. When notifyOverdue
// is false, overdue events are not turned into notifications.
func NewNotificationHandler(sink shared.NotificationSink, notifyOverdue bool) *NotificationHandler {
	return &NotificationHandler{sink: sink, notifyOverdue: notifyOverdue}
}

// EventTypes subscribes to every event
func (h *NotificationHandler) EventTypes() []string {
	return nil
}

// Handle implements shared.EventHandler
func (h *NotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	n, ok := event.(shared.Notifiable)
	if !ok {
		return nil
	}
	targets := n.NotificationTargets()
	if len(targets) == 0 {
		return nil
	}
	if !h.notifyOverdue && slices.Contains(overdueEventTypes, event.EventType()) {
		return nil
	}

	notification := shared.Notification{
		Category: event.EventType(),
		Targets:  targets,
		Context: map[string]any{
			"aggregate_type": event.AggregateType(),
			"aggregate_id":   event.AggregateID().String(),
		},
	}
	if oe, ok := event.(*order.OrderEvent); ok {
		notification.Message = oe.Message
		notification.Context["reference"] = oe.Reference
		notification.Context["status"] = oe.Status
	}
	if err := h.sink.Notify(ctx, notification); err != nil {
		return fmt.Errorf("notify %s: %w", event.EventType(), err)
	}
	return nil
}

// PluginEventHandler forwards PluginEvent events to a PluginEventSink
type PluginEventHandler struct {
	sink    shared.PluginEventSink
	enabled bool
}

// NewPluginEventHandler creates a plugin event handler
func NewPluginEventHandler(sink shared.PluginEventSink, enabled bool) *PluginEventHandler {
	return &PluginEventHandler{sink: sink, enabled: enabled}
}

// EventTypes subscribes to every event
func (h *PluginEventHandler) EventTypes() []string {
	return nil
}

// Handle implements shared.EventHandler
func (h *PluginEventHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	if !h.enabled {
		return nil
	}
	pe, ok := event.(shared.PluginEvent)
	if !ok {
		return nil
	}
	if err := h.sink.Trigger(ctx, pe.PluginEventName(), pe.PluginKwargs()); err != nil {
		return fmt.Errorf("trigger plugin event %s: %w", pe.PluginEventName(), err)
	}
	return nil
}

var (
	_ shared.EventHandler = (*NotificationHandler)(nil)
	_ shared.EventHandler = (*PluginEventHandler)(nil)
)
