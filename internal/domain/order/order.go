package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/inventree/backend/internal/domain/shared"
)

// Kind tags the order variants
type Kind string

const (
	KindPurchaseOrder Kind = "purchase_order"
	KindSalesOrder    Kind = "sales_order"
	KindReturnOrder   Kind = "return_order"
)

// OrderKind is the behaviour shared by purchase, sales and return orders
type OrderKind interface {
	shared.AggregateRoot
	Kind() Kind
	OrderHeader() *Header
	StatusCode() int
	StatusLabel() string
	IsOpen() bool
	IsOverdue(now time.Time) bool
}

// Header holds the fields common to every order kind
type Header struct {
	Reference     string
	ReferenceInt  int64
	Description   string
	Link          string
	TargetDate    *time.Time
	IssueDate     *time.Time
	CompleteDate  *time.Time
	CreatedBy     *uuid.UUID
	ResponsibleID *uuid.UUID
	ProjectCode   string
	ContactID     *uuid.UUID
	AddressID     *uuid.UUID
	Notes         string
}

func newHeader(reference string, createdBy *uuid.UUID) (Header, error) {
	if reference == "" {
		return Header{}, shared.NewValidationError("reference", "Reference is required")
	}
	return Header{Reference: reference, CreatedBy: createdBy}, nil
}

// OrderHeader returns the common order fields
func (h *Header) OrderHeader() *Header {
	return h
}

// SetTargetDate sets the expected completion date
func (h *Header) SetTargetDate(date *time.Time) {
	if date == nil {
		h.TargetDate = nil
		return
	}
	d := dateOnly(*date)
	h.TargetDate = &d
}

// NotificationTargets returns the users interested in this order
func (h *Header) NotificationTargets() []uuid.UUID {
	var targets []uuid.UUID
	if h.CreatedBy != nil {
		targets = append(targets, *h.CreatedBy)
	}
	if h.ResponsibleID != nil && (h.CreatedBy == nil || *h.ResponsibleID != *h.CreatedBy) {
		targets = append(targets, *h.ResponsibleID)
	}
	return targets
}

// pastTarget reports whether the target date is before today
func (h *Header) pastTarget(now time.Time) bool {
	if h.TargetDate == nil {
		return false
	}
	return dateOnly(*h.TargetDate).Before(dateOnly(now))
}

// BecameOverdue reports whether the target date was exactly yesterday
func BecameOverdue(o OrderKind, now time.Time) bool {
	h := o.OrderHeader()
	if !o.IsOpen() || h.TargetDate == nil {
		return false
	}
	return dateOnly(*h.TargetDate).Equal(Yesterday(now))
}

// Yesterday returns the calendar date before now
func Yesterday(now time.Time) time.Time {
	return dateOnly(now).AddDate(0, 0, -1)
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func stamp() *time.Time {
	now := time.Now()
	return &now
}

func stateError(msg string) error {
	return shared.NewKindError(shared.KindState, shared.NonFieldErrors, msg)
}
