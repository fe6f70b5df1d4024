package shared

import (
	"context"

	"github.com/google/uuid"
)

// Notification is a message addressed to a set of users
type Notification struct {
	Category string         `json:"category"`
	Targets  []uuid.UUID    `json:"targets"`
	Message  string         `json:"message"`
	Context  map[string]any `json:"context,omitempty"`
}

// NotificationSink delivers notifications to users. Delivery is best effort.
type NotificationSink interface {
	Notify(ctx context.Context, n Notification) error
}

// PluginEventSink forwards named events to installed plugins
type PluginEventSink interface {
	Trigger(ctx context.Context, name string, kwargs map[string]any) error
}
