package order

import (
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/inventree/backend/internal/domain/shared"
)

// SalesOrder is an order from a customer fulfilled from stock via shipments
type SalesOrder struct {
	shared.BaseAggregateRoot
	Header
	CustomerID        uuid.UUID
	CustomerReference string
	Status            SalesOrderStatus
	ShipmentDate      *time.Time
	ShippedBy         *uuid.UUID
	Lines             []SalesOrderLineItem
	Shipments         []Shipment
}

// SalesOrderLineItem is one part requested on a sales order
type SalesOrderLineItem struct {
	ID         uuid.UUID
	OrderID    uuid.UUID
	PartID     uuid.UUID
	Quantity   decimal.Decimal
	Shipped    decimal.Decimal
	TargetDate *time.Time
	SalePrice  decimal.Decimal
	Reference  string
	Notes      string
}

// IsCompleted reports whether the full quantity has shipped
func (l *SalesOrderLineItem) IsCompleted() bool {
	return l.Shipped.GreaterThanOrEqual(l.Quantity)
}

// Shipment groups allocations that leave together
type Shipment struct {
	ID             uuid.UUID
	OrderID        uuid.UUID
	Reference      string
	ShipmentDate   *time.Time
	DeliveryDate   *time.Time
	TrackingNumber string
	InvoiceNumber  string
	Link           string
	CheckedBy      *uuid.UUID
	ShippedBy      *uuid.UUID
	Notes          string
}

// IsShipped reports whether the shipment has left
func (s *Shipment) IsShipped() bool {
	return s.ShipmentDate != nil
}

// CheckCanComplete verifies a shipment with allocationCount allocations may ship
func (s *Shipment) CheckCanComplete(allocationCount int) error {
	if s.IsShipped() {
		return shared.NewKindError(shared.KindShipmentClosed, "shipment", "Shipment has already been shipped")
	}
	if allocationCount == 0 {
		return shared.NewValidationError("shipment", "Shipment has no allocated stock items")
	}
	return nil
}

// ShipmentCompletion carries the optional details recorded when a shipment leaves
type ShipmentCompletion struct {
	ShipmentDate   *time.Time
	DeliveryDate   *time.Time
	TrackingNumber string
	InvoiceNumber  string
	Link           string
	ShippedBy      *uuid.UUID
}

// NewSalesOrder creates a pending sales order
func NewSalesOrder(reference string, customerID uuid.UUID, createdBy *uuid.UUID) (*SalesOrder, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("customer", "Customer must be specified")
	}
	header, err := newHeader(reference, createdBy)
	if err != nil {
		return nil, err
	}
	return &SalesOrder{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Header:            header,
		CustomerID:        customerID,
		Status:            SalesOrderStatusPending,
		Lines:             make([]SalesOrderLineItem, 0),
		Shipments:         make([]Shipment, 0),
	}, nil
}

// Kind implements OrderKind
func (o *SalesOrder) Kind() Kind { return KindSalesOrder }

// StatusCode implements OrderKind
func (o *SalesOrder) StatusCode() int { return int(o.Status) }

// StatusLabel implements OrderKind
func (o *SalesOrder) StatusLabel() string { return o.Status.String() }

// IsOpen implements OrderKind
func (o *SalesOrder) IsOpen() bool { return o.Status.IsOpen() }

// IsOverdue reports whether an open order has passed its target date
func (o *SalesOrder) IsOverdue(now time.Time) bool {
	return o.IsOpen() && o.pastTarget(now)
}

func (o *SalesOrder) checkOpen() error {
	if !o.IsOpen() {
		return stateError("Order is not open")
	}
	return nil
}

// AddLine adds a part to an open order
func (o *SalesOrder) AddLine(partID uuid.UUID, quantity, price decimal.Decimal) (*SalesOrderLineItem, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}
	if partID == uuid.Nil {
		return nil, shared.NewValidationError("part", "Part must be specified")
	}
	if quantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewValidationError("quantity", "Quantity must be greater than zero")
	}
	o.Lines = append(o.Lines, SalesOrderLineItem{
		ID:        uuid.New(),
		OrderID:   o.ID,
		PartID:    partID,
		Quantity:  quantity,
		Shipped:   decimal.Zero,
		SalePrice: price,
	})
	o.touch()
	return &o.Lines[len(o.Lines)-1], nil
}

// RemoveLine removes a line with nothing shipped
func (o *SalesOrder) RemoveLine(lineID uuid.UUID) error {
	if err := o.checkOpen(); err != nil {
		return err
	}
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			if o.Lines[i].Shipped.GreaterThan(decimal.Zero) {
				return shared.NewValidationError("line_item", "Cannot remove a line item which has shipped stock")
			}
			o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
			o.touch()
			return nil
		}
	}
	return shared.NewValidationError("line_item", "Line item is not associated with this order")
}

// Line returns the line item belonging to this order
func (o *SalesOrder) Line(lineID uuid.UUID) (*SalesOrderLineItem, error) {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i], nil
		}
	}
	return nil, shared.NewValidationError("line_item", "Line item is not associated with this order")
}

// Shipment returns the shipment belonging to this order
func (o *SalesOrder) Shipment(shipmentID uuid.UUID) (*Shipment, error) {
	for i := range o.Shipments {
		if o.Shipments[i].ID == shipmentID {
			return &o.Shipments[i], nil
		}
	}
	return nil, shared.NewValidationError("shipment", "Shipment is not associated with this order")
}

// AddShipment opens a new shipment. An empty reference is numbered automatically.
func (o *SalesOrder) AddShipment(reference string) (*Shipment, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}
	if reference == "" {
		reference = strconv.Itoa(len(o.Shipments) + 1)
	}
	for i := range o.Shipments {
		if o.Shipments[i].Reference == reference {
			return nil, shared.NewValidationError("reference", "Shipment with this reference already exists for this order")
		}
	}
	o.Shipments = append(o.Shipments, Shipment{
		ID:        uuid.New(),
		OrderID:   o.ID,
		Reference: reference,
	})
	o.touch()
	return &o.Shipments[len(o.Shipments)-1], nil
}

// PendingShipments returns the shipments which have not left yet
func (o *SalesOrder) PendingShipments() []*Shipment {
	var pending []*Shipment
	for i := range o.Shipments {
		if !o.Shipments[i].IsShipped() {
			pending = append(pending, &o.Shipments[i])
		}
	}
	return pending
}

// PendingLineCount returns the number of lines not yet fully shipped
func (o *SalesOrder) PendingLineCount() int {
	n := 0
	for i := range o.Lines {
		if !o.Lines[i].IsCompleted() {
			n++
		}
	}
	return n
}

// Issue moves a pending order into production
func (o *SalesOrder) Issue() error {
	if !o.Status.CanTransitionTo(SalesOrderStatusInProgress) {
		return stateError(fmt.Sprintf("Cannot issue order in %s status", o.Status))
	}
	o.Status = SalesOrderStatusInProgress
	o.IssueDate = stamp()
	o.touch()
	o.AddDomainEvent(newOrderEvent(EventTypeSalesOrderIssued, o, true,
		fmt.Sprintf("Sales order %s has been issued", o.Reference)))
	return nil
}

// CompleteShipment marks a shipment as shipped. Stock consumption and line
// quantities are handled by the caller through RecordShipped.
func (o *SalesOrder) CompleteShipment(shipmentID uuid.UUID, allocationCount int, details ShipmentCompletion) (*Shipment, error) {
	if err := o.checkOpen(); err != nil {
		return nil, err
	}
	shipment, err := o.Shipment(shipmentID)
	if err != nil {
		return nil, err
	}
	if err := shipment.CheckCanComplete(allocationCount); err != nil {
		return nil, err
	}

	shipment.ShipmentDate = details.ShipmentDate
	if shipment.ShipmentDate == nil {
		shipment.ShipmentDate = stamp()
	}
	shipment.DeliveryDate = details.DeliveryDate
	shipment.ShippedBy = details.ShippedBy
	if details.TrackingNumber != "" {
		shipment.TrackingNumber = details.TrackingNumber
	}
	if details.InvoiceNumber != "" {
		shipment.InvoiceNumber = details.InvoiceNumber
	}
	if details.Link != "" {
		shipment.Link = details.Link
	}
	o.touch()

	e := newOrderEvent(EventTypeSalesOrderShipmentShipped, o, false, "")
	e.Extra = map[string]any{"shipment": shipment.ID.String()}
	o.AddDomainEvent(e)
	return shipment, nil
}

// RecordShipped adds shipped quantity to a line
func (o *SalesOrder) RecordShipped(lineID uuid.UUID, quantity decimal.Decimal) error {
	line, err := o.Line(lineID)
	if err != nil {
		return err
	}
	line.Shipped = line.Shipped.Add(quantity)
	o.touch()
	return nil
}

// CanComplete checks whether the order may be closed
func (o *SalesOrder) CanComplete(acceptIncomplete bool) error {
	switch o.Status {
	case SalesOrderStatusComplete:
		return stateError("Order is already complete")
	case SalesOrderStatusCancelled:
		return stateError("Order is already cancelled")
	case SalesOrderStatusInProgress, SalesOrderStatusShipped:
	default:
		return stateError(fmt.Sprintf("Cannot complete order in %s status", o.Status))
	}
	if acceptIncomplete {
		return nil
	}
	if len(o.PendingShipments()) > 0 {
		return shared.NewKindError(shared.KindState, "accept_incomplete",
			"Order cannot be completed as there are open shipments")
	}
	if o.PendingLineCount() > 0 {
		return shared.NewKindError(shared.KindState, "accept_incomplete",
			"Order cannot be completed as there are incomplete line items")
	}
	return nil
}

// Complete closes the order. An in-progress order becomes SHIPPED, or
// COMPLETE directly when shipComplete is set; a shipped order becomes COMPLETE.
func (o *SalesOrder) Complete(acceptIncomplete, shipComplete bool, userID *uuid.UUID) error {
	if err := o.CanComplete(acceptIncomplete); err != nil {
		return err
	}

	now := stamp()
	target := SalesOrderStatusShipped
	if shipComplete || o.Status == SalesOrderStatusShipped {
		target = SalesOrderStatusComplete
	}
	if o.Status == SalesOrderStatusInProgress {
		o.ShipmentDate = now
		o.ShippedBy = userID
	}
	o.Status = target

	eventType := EventTypeSalesOrderShipped
	if target == SalesOrderStatusComplete {
		o.CompleteDate = now
		eventType = EventTypeSalesOrderCompleted
	}
	o.touch()
	o.AddDomainEvent(newOrderEvent(eventType, o, true,
		fmt.Sprintf("Sales order %s is now %s", o.Reference, target)))
	return nil
}

// Cancel cancels an open order
func (o *SalesOrder) Cancel() error {
	if !o.Status.CanTransitionTo(SalesOrderStatusCancelled) {
		return stateError("Order cannot be cancelled")
	}
	o.Status = SalesOrderStatusCancelled
	o.touch()
	o.AddDomainEvent(newOrderEvent(EventTypeSalesOrderCancelled, o, true,
		fmt.Sprintf("Sales order %s has been cancelled", o.Reference)))
	return nil
}

func (o *SalesOrder) touch() {
	o.UpdatedAt = time.Now()
}
