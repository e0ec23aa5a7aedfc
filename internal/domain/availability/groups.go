package availability

import (
	"context"
	"errors"
	"fmt"

	"stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
)

var ErrInconsistentResult = errors.New("availability: inconsistent availability result")

// GroupAvailability is a room type group plus the instances that are free for the queried stay.
type GroupAvailability struct {
	Group                rooms.RoomTypeGroup
	AvailableCount       int
	AvailableInstanceIDs []rooms.RoomID
}

// NewGroupAvailability checks that free is a duplicate-free subset of the group's instances.
func NewGroupAvailability(group rooms.RoomTypeGroup, free []rooms.RoomID) (GroupAvailability, error) {
	ga := GroupAvailability{
		Group:                group,
		AvailableCount:       len(free),
		AvailableInstanceIDs: append([]rooms.RoomID(nil), free...),
	}
	if err := ga.Validate(); err != nil {
		return GroupAvailability{}, err
	}
	return ga, nil
}

func (a GroupAvailability) Validate() error {
	if a.AvailableCount != len(a.AvailableInstanceIDs) {
		return fmt.Errorf("%w: %s count %d with %d ids", ErrInconsistentResult, a.Group.ID, a.AvailableCount, len(a.AvailableInstanceIDs))
	}
	if a.AvailableCount > a.Group.TotalInstances {
		return fmt.Errorf("%w: %s has %d free of %d", ErrInconsistentResult, a.Group.ID, a.AvailableCount, a.Group.TotalInstances)
	}
	seen := make(map[rooms.RoomID]struct{}, len(a.AvailableInstanceIDs))
	for _, id := range a.AvailableInstanceIDs {
		if !a.Group.Has(id) {
			return fmt.Errorf("%w: %s is not part of %s", ErrInconsistentResult, id, a.Group.ID)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: %s listed twice", ErrInconsistentResult, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Bookable is true when at least one instance is free.
func (a GroupAvailability) Bookable() bool {
	return a.AvailableCount > 0
}

// FitsParty is display information only. A party larger than one room may still book several.
func (a GroupAvailability) FitsParty(partySize int) bool {
	return partySize <= 0 || a.Group.Capacity >= partySize
}

// BookableGroups keeps groups with free instances, preserving order. Capacity never filters.
func BookableGroups(groups []GroupAvailability) []GroupAvailability {
	out := make([]GroupAvailability, 0, len(groups))
	for _, g := range groups {
		if g.Bookable() {
			out = append(out, g)
		}
	}
	return out
}

// FreeCapacity sums the capacity of every free instance across groups.
func FreeCapacity(groups []GroupAvailability) int {
	total := 0
	for _, g := range groups {
		total += g.Group.Capacity * g.AvailableCount
	}
	return total
}

// ResolveGroups computes free instances per group from already loaded calendars.
// Without a stay every instance counts as free. Rooms with no calendar are free.
func ResolveGroups(groups []rooms.RoomTypeGroup, calendars map[rooms.RoomID]*AvailabilityCalendar, stay *daterange.DateRange) ([]GroupAvailability, error) {
	out := make([]GroupAvailability, 0, len(groups))
	for _, group := range groups {
		free := make([]rooms.RoomID, 0, len(group.InstanceIDs))
		for _, id := range group.InstanceIDs {
			if stay == nil || calendars[id].IsFree(*stay) {
				free = append(free, id)
			}
		}
		ga, err := NewGroupAvailability(group, free)
		if err != nil {
			return nil, err
		}
		out = append(out, ga)
	}
	return out, nil
}

// Query asks for the groups of one property for an optional stay.
type Query struct {
	PropertyID rooms.PropertyID
	Stay       *daterange.DateRange
	PartySize  int
}

// Resolver produces room groups with embedded availability for a property.
type Resolver interface {
	Resolve(ctx context.Context, q Query) ([]GroupAvailability, error)
}
