package shared

import (
	"time"

	"github.com/google/uuid"
)

// Record is the identity every stored row carries. Orders, stock items and
// their lines all embed one.
type Record struct {
	ID        uuid.UUID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewRecord stamps a fresh ID with matching created and updated times
func NewRecord() Record {
	now := time.Now()
	return Record{ID: uuid.New(), CreatedAt: now, UpdatedAt: now}
}

func (r *Record) GetID() uuid.UUID        { return r.ID }
func (r *Record) GetCreatedAt() time.Time { return r.CreatedAt }

// AggregateRoot is a record that owns a consistency boundary and buffers the
// events raised while it was mutated. The application layer drains the buffer
// after the transaction that saved the aggregate commits.
type AggregateRoot interface {
	GetID() uuid.UUID
	GetCreatedAt() time.Time
	AddDomainEvent(event DomainEvent)
	GetDomainEvents() []DomainEvent
	ClearDomainEvents()
}

// BaseAggregateRoot implements AggregateRoot. Version is the optimistic
// locking column; pending events are never persisted.
type BaseAggregateRoot struct {
	Record
	Version int
	pending []DomainEvent
}

// NewBaseAggregateRoot starts a new aggregate at version 1
func NewBaseAggregateRoot() BaseAggregateRoot {
	return BaseAggregateRoot{Record: NewRecord(), Version: 1}
}

func (a *BaseAggregateRoot) AddDomainEvent(event DomainEvent) {
	a.pending = append(a.pending, event)
}

// GetDomainEvents returns the buffered events in the order they were raised
func (a *BaseAggregateRoot) GetDomainEvents() []DomainEvent {
	return a.pending
}

func (a *BaseAggregateRoot) ClearDomainEvents() {
	a.pending = nil
}
