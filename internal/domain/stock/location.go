package stock

import (
	"github.com/google/uuid"

	"github.com/inventree/backend/internal/domain/shared"
)

// Location is a place stock items live. Structural locations only group
// other locations and cannot hold stock directly.
type Location struct {
	ID          uuid.UUID
	Name        string
	Description string
	ParentID    *uuid.UUID
	Structural  bool
}

// NewLocation creates a stock location
func NewLocation(name string, parentID *uuid.UUID) (*Location, error) {
	if name == "" {
		return nil, shared.NewValidationError("name", "Location name is required")
	}
	return &Location{ID: uuid.New(), Name: name, ParentID: parentID}, nil
}

// CanHoldStock reports whether items may be placed here
func (l *Location) CanHoldStock() bool {
	return !l.Structural
}
