package rooms

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/money"
)

var (
	ErrInvalidGroup  = errors.New("rooms: invalid room group")
	ErrGroupNotFound = errors.New("rooms: room group not found")
)

type GroupID string

// RoomTypeGroup is one kind of interchangeable room at a property.
type RoomTypeGroup struct {
	ID             GroupID
	PropertyID     PropertyID
	Name           string
	Description    string
	Capacity       int
	BasePrice      money.Money
	TotalInstances int
	Rules          []pricing.AdjustmentRule
	InstanceIDs    []RoomID
}

func (g RoomTypeGroup) Validate() error {
	if g.TotalInstances < 1 {
		return fmt.Errorf("%w: %s has no instances", ErrInvalidGroup, g.ID)
	}
	if len(g.InstanceIDs) != g.TotalInstances {
		return fmt.Errorf("%w: %s lists %d ids for %d instances", ErrInvalidGroup, g.ID, len(g.InstanceIDs), g.TotalInstances)
	}
	if g.BasePrice.IsNegative() {
		return fmt.Errorf("%w: %s base price %s", ErrInvalidGroup, g.ID, g.BasePrice)
	}
	return nil
}

// Has reports whether id is one of the group's instances.
func (g RoomTypeGroup) Has(id RoomID) bool {
	for _, candidate := range g.InstanceIDs {
		if candidate == id {
			return true
		}
	}
	return false
}

var trailingNumber = regexp.MustCompile(`(?i)\s*(?:\b(?:n°|nº|no\.?|nro\.?)|#)?\s*\d+$`)

// BaseName strips trailing numbering, so "Double 2" and "Double #3" share "Double".
func BaseName(name string) string {
	trimmed := strings.TrimSpace(name)
	base := strings.TrimSpace(trailingNumber.ReplaceAllString(trimmed, ""))
	if base == "" {
		return trimmed
	}
	return base
}

// GroupKey identifies rooms that are interchangeable for booking purposes.
func GroupKey(room PhysicalRoom) string {
	return string(room.PropertyID) + "|" + room.TypeID + "|" + strings.ToLower(BaseName(room.DisplayName()))
}

// GroupRooms folds active rooms into room type groups. Group order follows the first
// appearance of each type in the input after sorting rooms by id. The group id is the
// id of its first room; pricing data is taken from that room.
func GroupRooms(all []PhysicalRoom) []RoomTypeGroup {
	active := make([]PhysicalRoom, 0, len(all))
	for _, room := range all {
		if room.Active {
			active = append(active, room)
		}
	}
	sort.SliceStable(active, func(i, j int) bool { return active[i].ID < active[j].ID })

	index := make(map[string]int)
	groups := make([]RoomTypeGroup, 0)
	for _, room := range active {
		key := GroupKey(room)
		pos, ok := index[key]
		if !ok {
			index[key] = len(groups)
			groups = append(groups, RoomTypeGroup{
				ID:          GroupID(room.ID),
				PropertyID:  room.PropertyID,
				Name:        BaseName(room.DisplayName()),
				Description: room.Description,
				Capacity:    room.Capacity,
				BasePrice:   room.BasePrice,
				Rules:       append([]pricing.AdjustmentRule(nil), room.Rules...),
			})
			pos = len(groups) - 1
		}
		groups[pos].InstanceIDs = append(groups[pos].InstanceIDs, room.ID)
		groups[pos].TotalInstances++
	}
	return groups
}

// FindGroup looks a group up by id.
func FindGroup(groups []RoomTypeGroup, id GroupID) (RoomTypeGroup, bool) {
	for _, g := range groups {
		if g.ID == id {
			return g, true
		}
	}
	return RoomTypeGroup{}, false
}
