package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventree/backend/internal/domain/shared"
	"github.com/inventree/backend/internal/domain/stock"
)

// PurchaseOrder is an order placed with a supplier for incoming stock
type PurchaseOrder struct {
	shared.BaseAggregateRoot
	Header
	SupplierID        uuid.UUID
	SupplierReference string
	Status            PurchaseOrderStatus
	DestinationID     *uuid.UUID
	ReceivedBy        *uuid.UUID
	Lines             []PurchaseOrderLineItem
}

// PurchaseOrderLineItem is one supplier part requested on a purchase order
type PurchaseOrderLineItem struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	SupplierPartID uuid.UUID
	PartID         uuid.UUID
	Quantity       decimal.Decimal
	Received       decimal.Decimal
	DestinationID  *uuid.UUID
	TargetDate     *time.Time
	PurchasePrice  decimal.Decimal
	Reference      string
	Notes          string
}

// Outstanding returns the quantity still to be received
func (l *PurchaseOrderLineItem) Outstanding() decimal.Decimal {
	out := l.Quantity.Sub(l.Received)
	if out.IsNegative() {
		return decimal.Zero
	}
	return out
}

// IsCompleted reports whether the full quantity has arrived
func (l *PurchaseOrderLineItem) IsCompleted() bool {
	return l.Received.GreaterThanOrEqual(l.Quantity)
}

// NewPurchaseOrder creates a pending purchase order
func NewPurchaseOrder(reference string, supplierID uuid.UUID, createdBy *uuid.UUID) (*PurchaseOrder, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError("supplier", "Supplier must be specified")
	}
	header, err := newHeader(reference, createdBy)
	if err != nil {
		return nil, err
	}
	return &PurchaseOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Header:            header,
		SupplierID:        supplierID,
		Status:            PurchaseOrderStatusPending,
		Lines:             make([]PurchaseOrderLineItem, 0),
	}, nil
}

// Kind implements OrderKind
func (o *PurchaseOrder) Kind() Kind { return KindPurchaseOrder }

// StatusCode implements OrderKind
func (o *PurchaseOrder) StatusCode() int { return int(o.Status) }

// StatusLabel implements OrderKind
func (o *PurchaseOrder) StatusLabel() string { return o.Status.String() }

// IsOpen implements OrderKind
func (o *PurchaseOrder) IsOpen() bool { return o.Status.IsOpen() }

// IsOverdue reports whether an open order has passed its target date
func (o *PurchaseOrder) IsOverdue(now time.Time) bool {
	return o.IsOpen() && o.pastTarget(now)
}

// AddLine adds a supplier part to a pending order
func (o *PurchaseOrder) AddLine(sp *stock.SupplierPart, quantity, price decimal.Decimal) (*PurchaseOrderLineItem, error) {
	if o.Status != PurchaseOrderStatusPending {
		return nil, stateError("Line items can only be added to pending orders")
	}
	if sp == nil {
		return nil, shared.NewValidationError("part", "Supplier part must be specified")
	}
	if sp.SupplierID != o.SupplierID {
		return nil, shared.NewValidationError("part", "Supplier must match purchase order")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("quantity", "Quantity must be greater than zero")
	}

	o.Lines = append(o.Lines, PurchaseOrderLineItem{
		ID:             uuid.New(),
		OrderID:        o.ID,
		SupplierPartID: sp.ID,
		PartID:         sp.PartID,
		Quantity:       quantity,
		Received:       decimal.Zero,
		PurchasePrice:  price,
	})
	o.touch()
	return &o.Lines[len(o.Lines)-1], nil
}

// RemoveLine removes a line which has not received anything
func (o *PurchaseOrder) RemoveLine(lineID uuid.UUID) error {
	if o.Status != PurchaseOrderStatusPending {
		return stateError("Line items can only be removed from pending orders")
	}
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			if o.Lines[i].Received.GreaterThan(decimal.Zero) {
				return shared.NewValidationError("line_item", "Cannot remove a line item which has received stock")
			}
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			o.touch()
			return nil
		}
	}
	return shared.NewValidationError("line_item", "Line item does not match purchase order")
}

// Line returns the line item belonging to this order
func (o *PurchaseOrder) Line(lineID uuid.UUID) (*PurchaseOrderLineItem, error) {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i], nil
		}
	}
	return nil, shared.NewValidationError("line_item", "Line item does not match purchase order")
}

// Place sends the order to the supplier
func (o *PurchaseOrder) Place() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusPlaced) {
		return stateError(fmt.Sprintf("Cannot place order in %s status", o.Status))
	}
	o.Status = PurchaseOrderStatusPlaced
	o.IssueDate = stamp()
	o.touch()
	o.AddDomainEvent(newOrderEvent(EventTypePurchaseOrderPlaced, o, true,
		fmt.Sprintf("Purchase order %s has been placed", o.Reference)))
	return nil
}

// CheckReceivable verifies goods may be received against this order
func (o *PurchaseOrder) CheckReceivable() error {
	if !o.Status.CanReceive() {
		return stateError("Purchase order must be placed to receive items")
	}
	return nil
}

// ReceiveLine books quantity against a line
func (o *PurchaseOrder) ReceiveLine(lineID uuid.UUID, quantity decimal.Decimal) (*PurchaseOrderLineItem, error) {
	if err := o.CheckReceivable(); err != nil {
		return nil, err
	}
	line, err := o.Line(lineID)
	if err != nil {
		return nil, err
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("quantity", "Quantity must be greater than zero")
	}
	if quantity.GreaterThan(line.Outstanding()) {
		return nil, shared.NewValidationError("quantity",
			fmt.Sprintf("Quantity exceeds outstanding quantity (%s)", line.Outstanding()))
	}
	line.Received = line.Received.Add(quantity)
	o.touch()
	return line, nil
}

// IsFullyReceived reports whether every line is complete
func (o *PurchaseOrder) IsFullyReceived() bool {
	return o.PendingLineCount() == 0
}

// PendingLineCount returns the number of lines still awaiting stock
func (o *PurchaseOrder) PendingLineCount() int {
	n := 0
	for i := range o.Lines {
		if !o.Lines[i].IsCompleted() {
			n++
		}
	}
	return n
}

// Complete closes the order. Unless acceptIncomplete is set every line
// must have been fully received.
func (o *PurchaseOrder) Complete(acceptIncomplete bool) error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusComplete) {
		return stateError(fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}
	if !acceptIncomplete && !o.IsFullyReceived() {
		return shared.NewKindError(shared.KindState, "accept_incomplete", "Order has incomplete line items")
	}
	o.Status = PurchaseOrderStatusComplete
	o.CompleteDate = stamp()
	o.touch()
	o.AddDomainEvent(newOrderEvent(EventTypePurchaseOrderCompleted, o, true,
		fmt.Sprintf("Purchase order %s has been completed", o.Reference)))
	return nil
}

// Cancel cancels a pending or placed order
func (o *PurchaseOrder) Cancel() error {
	if !o.Status.CanTransitionTo(PurchaseOrderStatusCancelled) {
		return stateError("Order cannot be cancelled")
	}
	o.Status = PurchaseOrderStatusCancelled
	o.touch()
	o.AddDomainEvent(newOrderEvent(EventTypePurchaseOrderCancelled, o, true,
		fmt.Sprintf("Purchase order %s has been cancelled", o.Reference)))
	return nil
}

// RecordReceipt raises the event summarising one receipt batch
func (o *PurchaseOrder) RecordReceipt(itemCount int, receivedBy *uuid.UUID) {
	o.ReceivedBy = receivedBy
	e := newOrderEvent(EventTypePurchaseOrderReceived, o, false, "")
	e.Extra = map[string]any{"items": itemCount}
	o.AddDomainEvent(e)
}

func (o *PurchaseOrder) touch() {
	o.UpdatedAt = time.Now()
}
