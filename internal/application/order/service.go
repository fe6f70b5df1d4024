package order

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/inventree/backend/internal/domain/order"
	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/infrastructure/telemetry"
)

// Dependencies are shared by all order services
type Dependencies struct {
	Scope     TransactionScope
	Settings  order.Settings
	Publisher shared.EventPublisher
	Metrics   *telemetry.BusinessMetrics
	Logger    *zap.Logger
}

type baseService struct {
	scope     TransactionScope
	settings  order.Settings
	publisher shared.EventPublisher
	metrics   *telemetry.BusinessMetrics
	logger    *zap.Logger
}

func newBaseService(deps Dependencies) baseService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return baseService{
		scope:     deps.Scope,
		settings:  deps.Settings,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		logger:    logger,
	}
}

// publish hands events to the bus after commit. Delivery failures are logged
// and never reach the caller.
func (s *baseService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish order events", zap.Int("count", len(events)), zap.Error(err))
	}
}

func (s *baseService) recordTransitions(ctx context.Context, events []shared.DomainEvent) {
	if s.metrics == nil {
		return
	}
	for _, e := range events {
		s.metrics.RecordOrderEvent(ctx, e.AggregateType(), e.EventType())
	}
}

// drain removes and returns the pending events of an aggregate
func drain(agg shared.AggregateRoot) []shared.DomainEvent {
	events := agg.GetDomainEvents()
	agg.ClearDomainEvents()
	return events
}

// resolveReference validates or generates the reference for a new order
func resolveReference(pattern string, requested string, maxExisting func() (int64, error)) (string, int64, error) {
	p, err := order.ParseReferencePattern(pattern)
	if err != nil {
		return "", 0, err
	}
	if requested == "" {
		n, err := maxExisting()
		if err != nil {
			return "", 0, err
		}
		requested = p.Next(n)
	}
	if err := p.Validate(requested); err != nil {
		return "", 0, err
	}
	return requested, p.ExtractInt(requested), nil
}

// checkUniqueReference fails when find locates an existing order
func checkUniqueReference(find func() error) error {
	err := find()
	if err == nil {
		return shared.NewValidationError("reference", "Order with this reference already exists")
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}

// lookup converts a missing related record into a field validation error
func lookup(err error, field, label string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return shared.NewValidationError(field, fmt.Sprintf("%s does not exist", label))
	}
	return err
}

// modelError converts domain errors raised while mutating into validation
// errors. Infrastructure errors pass through.
func modelError(err error, field string) error {
	if errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if ve := shared.AsValidationError(err, field); ve != nil {
		return ve
	}
	return err
}
