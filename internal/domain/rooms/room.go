package rooms

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/money"
)

var (
	ErrRoomNotFound     = errors.New("rooms: room not found")
	ErrPropertyNotFound = errors.New("rooms: property has no rooms")
	ErrInvalidRoom      = errors.New("rooms: invalid room")
)

type RoomID string

type PropertyID string

// PhysicalRoom is one concrete, individually occupiable room of a property.
type PhysicalRoom struct {
	ID          RoomID
	PropertyID  PropertyID
	TypeID      string
	TypeName    string
	Name        string
	Description string
	Capacity    int
	BasePrice   money.Money
	Rules       []pricing.AdjustmentRule
	Active      bool
}

func (r PhysicalRoom) Validate() error {
	if strings.TrimSpace(string(r.ID)) == "" {
		return fmt.Errorf("%w: id required", ErrInvalidRoom)
	}
	if strings.TrimSpace(string(r.PropertyID)) == "" {
		return fmt.Errorf("%w: %s has no property", ErrInvalidRoom, r.ID)
	}
	if r.Capacity < 0 {
		return fmt.Errorf("%w: %s capacity %d", ErrInvalidRoom, r.ID, r.Capacity)
	}
	if r.BasePrice.Currency == "" || r.BasePrice.IsNegative() {
		return fmt.Errorf("%w: %s base price %s", ErrInvalidRoom, r.ID, r.BasePrice)
	}
	if err := pricing.ValidateRules(r.Rules); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrInvalidRoom, r.ID, err)
	}
	return nil
}

// DisplayName falls back to the type name when the room carries none.
func (r PhysicalRoom) DisplayName() string {
	if name := strings.TrimSpace(r.Name); name != "" {
		return name
	}
	if name := strings.TrimSpace(r.TypeName); name != "" {
		return name
	}
	return "Room"
}

// SearchFilter narrows the cross-property room listing. Zero values mean no constraint.
type SearchFilter struct {
	PropertyID PropertyID
	TypeID     string
	MinPrice   *money.Money
	MaxPrice   *money.Money
}

type Repository interface {
	ByProperty(ctx context.Context, id PropertyID) ([]PhysicalRoom, error)
	ByID(ctx context.Context, id RoomID) (PhysicalRoom, error)
	// Search returns active rooms only.
	Search(ctx context.Context, filter SearchFilter) ([]PhysicalRoom, error)
	Save(ctx context.Context, room PhysicalRoom) error
}
