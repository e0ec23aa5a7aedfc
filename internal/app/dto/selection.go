package dto

import (
	"stayquote/internal/domain/quote"
	"stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
)

type SelectedRoom struct {
	SelectionID  string `json:"selection_id"`
	InstanceID   string `json:"instance_id"`
	GroupID      string `json:"group_id"`
	Label        string `json:"label"`
	DisplayIndex int    `json:"display_index"`
	BasePrice    Money  `json:"base_price"`
}

type Session struct {
	ID         string         `json:"id"`
	PropertyID string         `json:"property_id"`
	CheckIn    string         `json:"check_in,omitempty"`
	CheckOut   string         `json:"check_out,omitempty"`
	PartySize  int            `json:"party_size"`
	Generation int64          `json:"generation"`
	State      string         `json:"state"`
	Groups     []RoomGroup    `json:"groups"`
	Selection  []SelectedRoom `json:"selection"`
	Version    int64          `json:"version"`
}

func MapSelected(items []selection.SelectedRoomInstance) []SelectedRoom {
	out := make([]SelectedRoom, 0, len(items))
	for _, item := range items {
		out = append(out, SelectedRoom{
			SelectionID:  string(item.SelectionID),
			InstanceID:   string(item.InstanceID),
			GroupID:      string(item.GroupID),
			Label:        item.Label(),
			DisplayIndex: item.DisplayIndex,
			BasePrice:    MapMoney(item.BasePrice),
		})
	}
	return out
}

// MapSession renders the session with the groups of its current snapshot. Remaining counts
// subtract what the session already holds.
func MapSession(s *selection.Session) Session {
	out := Session{
		ID:         string(s.ID),
		PropertyID: string(s.PropertyID),
		PartySize:  s.Search.PartySize,
		Generation: s.Generation,
		State:      string(s.State()),
		Groups:     MapRoomGroups(s.Snapshot, s.Search.PartySize),
		Selection:  MapSelected(s.Items),
		Version:    s.Version,
	}
	for i := range out.Groups {
		if left, err := s.RemainingAvailable(s.Snapshot[i].Group.ID); err == nil {
			out.Groups[i].Remaining = left
		}
	}
	if s.Search.Stay != nil {
		out.CheckIn = daterange.FormatDay(s.Search.Stay.CheckIn)
		out.CheckOut = daterange.FormatDay(s.Search.Stay.CheckOut)
	}
	return out
}

type QuoteLine struct {
	SelectionID string   `json:"selection_id"`
	Label       string   `json:"label"`
	InstanceID  string   `json:"instance_id"`
	Schedule    Schedule `json:"schedule"`
}

type Quote struct {
	CheckIn  string      `json:"check_in"`
	CheckOut string      `json:"check_out"`
	Nights   int         `json:"nights"`
	Rooms    []QuoteLine `json:"rooms"`
	Subtotal Money       `json:"subtotal"`
	Tax      Money       `json:"tax"`
	Total    Money       `json:"total"`
}

func MapQuote(q quote.ReservationQuote) Quote {
	lines := make([]QuoteLine, 0, len(q.Rooms))
	for _, line := range q.Rooms {
		sched := MapSchedule(line.Schedule)
		sched.GroupID = string(line.Room.GroupID)
		lines = append(lines, QuoteLine{
			SelectionID: string(line.SelectionID),
			Label:       line.Label,
			InstanceID:  string(line.Room.InstanceID),
			Schedule:    sched,
		})
	}
	return Quote{
		CheckIn:  daterange.FormatDay(q.Stay.CheckIn),
		CheckOut: daterange.FormatDay(q.Stay.CheckOut),
		Nights:   q.Nights,
		Rooms:    lines,
		Subtotal: MapMoney(q.Subtotal),
		Tax:      MapMoney(q.Tax),
		Total:    MapMoney(q.Total),
	}
}

type Checkout struct {
	SessionID   string   `json:"session_id"`
	PropertyID  string   `json:"property_id"`
	InstanceIDs []string `json:"instance_ids"`
	PartySize   int      `json:"party_size"`
	Quote       Quote    `json:"quote"`
	Query       string   `json:"query"`
	URL         string   `json:"url,omitempty"`
}

func MapCheckout(h quote.Handoff, baseURL string) Checkout {
	query := h.Query().Encode()
	out := Checkout{
		SessionID:   string(h.SessionID),
		PropertyID:  string(h.PropertyID),
		InstanceIDs: roomIDs(h.InstanceIDs),
		PartySize:   h.PartySize,
		Quote:       MapQuote(h.Quote),
		Query:       query,
	}
	if baseURL != "" {
		out.URL = baseURL + "?" + query
	}
	return out
}

type SelectionChange struct {
	Added   []SelectedRoom `json:"added"`
	Session Session        `json:"session"`
}
