package order

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPurchaseOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     PurchaseOrderStatus
		to       PurchaseOrderStatus
		canTrans bool
	}{
		{PurchaseOrderStatusPending, PurchaseOrderStatusPlaced, true},
		{PurchaseOrderStatusPending, PurchaseOrderStatusCancelled, true},
		{PurchaseOrderStatusPending, PurchaseOrderStatusComplete, false},
		{PurchaseOrderStatusPlaced, PurchaseOrderStatusComplete, true},
		{PurchaseOrderStatusPlaced, PurchaseOrderStatusLost, true},
		{PurchaseOrderStatusPlaced, PurchaseOrderStatusReturned, true},
		{PurchaseOrderStatusPlaced, PurchaseOrderStatusPending, false},
		{PurchaseOrderStatusComplete, PurchaseOrderStatusCancelled, false},
		{PurchaseOrderStatusCancelled, PurchaseOrderStatusPlaced, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestSalesOrderStatus_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     SalesOrderStatus
		to       SalesOrderStatus
		canTrans bool
	}{
		{SalesOrderStatusPending, SalesOrderStatusInProgress, true},
		{SalesOrderStatusPending, SalesOrderStatusShipped, false},
		{SalesOrderStatusInProgress, SalesOrderStatusShipped, true},
		{SalesOrderStatusInProgress, SalesOrderStatusComplete, true},
		{SalesOrderStatusShipped, SalesOrderStatusComplete, true},
		{SalesOrderStatusShipped, SalesOrderStatusCancelled, false},
		{SalesOrderStatusComplete, SalesOrderStatusCancelled, false},
	}

	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestStatus_TerminalAndOpen(t *testing.T) {
	assert.True(t, PurchaseOrderStatusComplete.IsTerminal())
	assert.True(t, PurchaseOrderStatusLost.IsTerminal())
	assert.False(t, PurchaseOrderStatusPlaced.IsTerminal())
	assert.True(t, PurchaseOrderStatusPlaced.IsOpen())
	assert.True(t, PurchaseOrderStatusPlaced.CanReceive())
	assert.False(t, PurchaseOrderStatusPending.CanReceive())

	assert.True(t, SalesOrderStatusCancelled.IsTerminal())
	assert.False(t, SalesOrderStatusShipped.IsOpen())

	assert.True(t, ReturnOrderStatusComplete.IsTerminal())
	assert.True(t, ReturnOrderStatusInProgress.IsOpen())
	assert.False(t, ReturnOrderStatus(99).IsValid())
	assert.True(t, ReturnOutcomeRefund.IsValid())
	assert.False(t, ReturnOrderLineOutcome(25).IsValid())
}
