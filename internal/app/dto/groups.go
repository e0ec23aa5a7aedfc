package dto

import (
	"stayquote/internal/domain/availability"
	"stayquote/internal/domain/rooms"
)

type RoomGroup struct {
	ID                   string           `json:"id"`
	PropertyID           string           `json:"property_id"`
	Name                 string           `json:"name"`
	Description          string           `json:"description,omitempty"`
	Capacity             int              `json:"capacity"`
	BasePrice            Money            `json:"base_price"`
	TotalInstances       int              `json:"total_instances"`
	Rules                []AdjustmentRule `json:"rules"`
	AvailableCount       int              `json:"available_count"`
	AvailableInstanceIDs []string         `json:"available_instance_ids"`
	Remaining            int              `json:"remaining"`
	Bookable             bool             `json:"bookable"`
	FitsParty            bool             `json:"fits_party"`
}

type RoomGroupCollection struct {
	PropertyID   string      `json:"property_id"`
	CheckIn      string      `json:"check_in,omitempty"`
	CheckOut     string      `json:"check_out,omitempty"`
	PartySize    int         `json:"party_size,omitempty"`
	Groups       []RoomGroup `json:"groups"`
	FreeCapacity int         `json:"free_capacity"`
	CanHostParty bool        `json:"can_host_party"`
}

func MapRoomGroup(g availability.GroupAvailability, partySize int) RoomGroup {
	return RoomGroup{
		ID:                   string(g.Group.ID),
		PropertyID:           string(g.Group.PropertyID),
		Name:                 g.Group.Name,
		Description:          g.Group.Description,
		Capacity:             g.Group.Capacity,
		BasePrice:            MapMoney(g.Group.BasePrice),
		TotalInstances:       g.Group.TotalInstances,
		Rules:                MapRules(g.Group.Rules),
		AvailableCount:       g.AvailableCount,
		AvailableInstanceIDs: roomIDs(g.AvailableInstanceIDs),
		Remaining:            g.AvailableCount,
		Bookable:             g.Bookable(),
		FitsParty:            g.FitsParty(partySize),
	}
}

func MapRoomGroups(groups []availability.GroupAvailability, partySize int) []RoomGroup {
	out := make([]RoomGroup, 0, len(groups))
	for _, g := range groups {
		out = append(out, MapRoomGroup(g, partySize))
	}
	return out
}

func roomIDs(ids []rooms.RoomID) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		out = append(out, string(id))
	}
	return out
}
