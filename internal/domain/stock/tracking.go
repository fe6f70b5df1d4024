package stock

import (
	"time"

	"github.com/google/uuid"
)

// TrackingEntry records one event in the history of a stock item
type TrackingEntry struct {
	ID          uuid.UUID
	StockItemID uuid.UUID
	Code        HistoryCode
	Date        time.Time
	UserID      *uuid.UUID
	Notes       string
	Deltas      map[string]any
}

// NewTrackingEntry creates a history entry for a stock item
func NewTrackingEntry(itemID uuid.UUID, code HistoryCode, userID *uuid.UUID, deltas map[string]any) *TrackingEntry {
	if deltas == nil {
		deltas = map[string]any{}
	}
	return &TrackingEntry{
		ID:          uuid.New(),
		StockItemID: itemID,
		Code:        code,
		Date:        time.Now(),
		UserID:      userID,
		Deltas:      deltas,
	}
}
