package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
)

// ReturnOrder brings stock back from a customer
type ReturnOrder struct {
	shared.BaseAggregateRoot
	Header
	CustomerID        uuid.UUID
	CustomerReference string
	Status            ReturnOrderStatus
	Lines             []ReturnOrderLineItem
}

// ReturnOrderLineItem is one customer-held stock item expected back
type ReturnOrderLineItem struct {
	ID           uuid.UUID
	OrderID      uuid.UUID
	StockItemID  uuid.UUID
	Quantity     decimal.Decimal
	Outcome      ReturnOrderLineOutcome
	ReceivedDate *time.Time
	Price        decimal.Decimal
	TargetDate   *time.Time
	Reference    string
	Notes        string
}

// IsReceived reports whether the item has arrived back
func (l *ReturnOrderLineItem) IsReceived() bool {
	return l.ReceivedDate != nil
}

// NewReturnOrder creates a pending return order
func NewReturnOrder(reference string, customerID uuid.UUID, createdBy *uuid.UUID) (*ReturnOrder, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer", "Customer must be specified")
	}
	header, err := newHeader(reference, createdBy)
	if err != nil {
		return nil, err
	}
	return &ReturnOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Header:            header,
		CustomerID:        customerID,
		Status:            ReturnOrderStatusPending,
		Lines:             make([]ReturnOrderLineItem, 0),
	}, nil
}

// Kind implements OrderKind
func (o *ReturnOrder) Kind() Kind { return KindReturnOrder }

// StatusCode implements OrderKind
func (o *ReturnOrder) StatusCode() int { return int(o.Status) }

// StatusLabel implements OrderKind
func (o *ReturnOrder) StatusLabel() string { return o.Status.String() }

// IsOpen implements OrderKind
func (o *ReturnOrder) IsOpen() bool { return o.Status.IsOpen() }

// IsOverdue reports whether an open order has passed its target date
func (o *ReturnOrder) IsOverdue(now time.Time) bool {
	return o.IsOpen() && o.pastTarget(now)
}

// AddLine adds a stock item held by the order's customer
func (o *ReturnOrder) AddLine(item *stock.StockItem) (*ReturnOrderLineItem, error) {
	if !o.IsOpen() {
		return nil, stateError("Order is not open")
	}
	if item == nil {
		return nil, shared.NewValidationError("item", "Stock item must be specified")
	}
	if item.CustomerID == nil || *item.CustomerID != o.CustomerID {
		return nil, shared.NewValidationError("item", "Stock item is not assigned to this customer")
	}
	for i := range o.Lines {
		if o.Lines[i].StockItemID == item.ID {
			return nil, shared.NewValidationError("item", "Stock item is already included on this order")
		}
	}
	o.Lines = append(o.Lines, ReturnOrderLineItem{
		ID:          uuid.New(),
		OrderID:     o.ID,
		StockItemID: item.ID,
		Quantity:    item.Quantity,
		Outcome:     ReturnOutcomePending,
	})
	o.touch()
	return &o.Lines[len(o.Lines)-1], nil
}

// Line returns the line item belonging to this order
func (o *ReturnOrder) Line(lineID uuid.UUID) (*ReturnOrderLineItem, error) {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i], nil
		}
	}
	return nil, shared.NewValidationError("item", "Line item does not match return order")
}

// SetOutcome records the decision taken for a returned line
func (o *ReturnOrder) SetOutcome(lineID uuid.UUID, outcome ReturnOrderLineOutcome) error {
	if !outcome.IsValid() {
		return shared.NewValidationError("outcome", "Invalid outcome")
	}
	line, err := o.Line(lineID)
	if err != nil {
		return err
	}
	line.Outcome = outcome
	o.touch()
	return nil
}

// Issue moves a pending order into progress
func (o *ReturnOrder) Issue() error {
	if !o.Status.CanTransitionTo(ReturnOrderStatusInProgress) {
		return stateError(fmt.Sprintf("Cannot issue order in %s status", o.Status))
	}
	o.Status = ReturnOrderStatusInProgress
	o.IssueDate = stamp()
	o.touch()
	o.AddDomainEvent(newOrderEvent(EventTypeReturnOrderIssued, o, true,
		fmt.Sprintf("Return order %s has been issued", o.Reference)))
	return nil
}

// CheckReceivable verifies items may be received against this order
func (o *ReturnOrder) CheckReceivable() error {
	if o.Status != ReturnOrderStatusInProgress {
		return stateError("Items can only be received against orders which are in progress")
	}
	return nil
}

// ReceiveLine marks a line as received
func (o *ReturnOrder) ReceiveLine(lineID uuid.UUID) (*ReturnOrderLineItem, error) {
	if err := o.CheckReceivable(); err != nil {
		return nil, err
	}
	line, err := o.Line(lineID)
	if err != nil {
		return nil, err
	}
	if line.IsReceived() {
		return nil, shared.NewValidationError("item", "Line item has already been received")
	}
	line.ReceivedDate = stamp()
	o.touch()

	e := newOrderEvent(EventTypeReturnOrderReceived, o, false, "")
	e.Extra = map[string]any{"line_item": line.ID.String(), "stock_item": line.StockItemID.String()}
	o.AddDomainEvent(e)
	return line, nil
}

// PendingLineCount returns lines not yet received
func (o *ReturnOrder) PendingLineCount() int {
	n := 0
	for i := range o.Lines {
		if !o.Lines[i].IsReceived() {
			n++
		}
	}
	return n
}

// Complete closes the order
func (o *ReturnOrder) Complete(acceptIncomplete bool) error {
	if !o.Status.CanTransitionTo(ReturnOrderStatusComplete) {
		return stateError(fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}
	if !acceptIncomplete && o.PendingLineCount() > 0 {
		return shared.NewKindError(shared.KindState, "accept_incomplete", "Order has incomplete line items")
	}
	o.Status = ReturnOrderStatusComplete
	o.CompleteDate = stamp()
	o.touch()
	o.AddDomainEvent(newOrderEvent(EventTypeReturnOrderCompleted, o, true,
		fmt.Sprintf("Return order %s has been completed", o.Reference)))
	return nil
}

// Cancel cancels an open order
func (o *ReturnOrder) Cancel() error {
	if !o.Status.CanTransitionTo(ReturnOrderStatusCancelled) {
		return stateError("Order cannot be cancelled")
	}
	o.Status = ReturnOrderStatusCancelled
	o.touch()
	o.AddDomainEvent(newOrderEvent(EventTypeReturnOrderCancelled, o, true,
		fmt.Sprintf("Return order %s has been cancelled", o.Reference)))
	return nil
}

func (o *ReturnOrder) touch() {
	o.UpdatedAt = time.Now()
}
