package event

import (
	"context"

	"go.uber.org/zap"

	"github.com/inventree/backend/internal/domain/shared"
)

// LogNotificationSink writes notifications to the log. It is the default
// sink when no delivery channel is configured.
type LogNotificationSink struct {
	logger *zap.Logger
}

// NewLogNotificationSink creates a log-backed notification sink
func NewLogNotificationSink(logger *zap.Logger) *LogNotificationSink {
	return &LogNotificationSink{logger: logger.Named("notification")}
}

// Notify implements shared.NotificationSink
func (s *LogNotificationSink) Notify(_ context.Context, n shared.Notification) error {
	targets := make([]string, len(n.Targets))
	for i, t := range n.Targets {
		targets[i] = t.String()
	}
	s.logger.Info("Notification",
		zap.String("category", n.Category),
		zap.Strings("targets", targets),
		zap.String("message", n.Message),
		zap.Any("context", n.Context),
	)
	return nil
}

// LogPluginEventSink writes plugin events to the log
type LogPluginEventSink struct {
	logger *zap.Logger
}

// NewLogPluginEventSink creates a log-backed plugin event sink
func NewLogPluginEventSink(logger *zap.Logger) *LogPluginEventSink {
	return &LogPluginEventSink{logger: logger.Named("plugin")}
}

// Trigger implements shared.PluginEventSink
func (s *LogPluginEventSink) Trigger(_ context.Context, name string, kwargs map[string]any) error {
	s.logger.Info("Plugin event", zap.String("event", name), zap.Any("kwargs", kwargs))
	return nil
}

var (
	_ shared.NotificationSink = (*LogNotificationSink)(nil)
	_ shared.PluginEventSink  = (*LogPluginEventSink)(nil)
)
