package dto

import (
	"stayquote/internal/domain/availability"
	"stayquote/internal/domain/shared/daterange"
)

type CalendarBlock struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	Reference string `json:"reference,omitempty"`
}

type Calendar struct {
	RoomID   string          `json:"room_id"`
	Blocks   []CalendarBlock `json:"blocks"`
	FreeDays []string        `json:"free_days,omitempty"`
}

// MapCalendar renders the blocks of cal and, when window is set, its free nights.
func MapCalendar(cal *availability.AvailabilityCalendar, window *daterange.DateRange) Calendar {
	if cal == nil {
		return Calendar{Blocks: []CalendarBlock{}}
	}
	blocks := make([]CalendarBlock, 0, len(cal.Blocks))
	for _, b := range cal.Blocks {
		blocks = append(blocks, CalendarBlock{
			From:      daterange.FormatDay(b.Range.CheckIn),
			To:        daterange.FormatDay(b.Range.CheckOut),
			Reason:    string(b.Reason),
			Reference: b.Reference,
		})
	}
	out := Calendar{RoomID: string(cal.RoomID), Blocks: blocks}
	if window != nil {
		for _, d := range cal.FreeNights(*window) {
			out.FreeDays = append(out.FreeDays, daterange.FormatDay(d))
		}
	}
	return out
}

// MonthlyRoom is one room with at least one free night in the month.
type MonthlyRoom struct {
	RoomID        string   `json:"room_id"`
	Name          string   `json:"name"`
	TypeName      string   `json:"type_name"`
	Capacity      int      `json:"capacity"`
	BasePrice     Money    `json:"base_price"`
	AvailableDays []string `json:"available_days"`
	DaysInMonth   int      `json:"days_in_month"`
}

type MonthlyAvailability struct {
	PropertyID string        `json:"property_id"`
	Year       int           `json:"year"`
	Month      int           `json:"month"`
	Rooms      []MonthlyRoom `json:"rooms"`
	Total      int           `json:"total"`
}
