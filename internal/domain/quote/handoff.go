package quote

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"stayquote/internal/domain/rooms"
	"stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

// Handoff is what the checkout step receives. The checkout re-validates availability and
// recomputes the charge before any money moves.
type Handoff struct {
	SessionID   selection.SessionID
	PropertyID  rooms.PropertyID
	InstanceIDs []rooms.RoomID
	Stay        daterange.DateRange
	PartySize   int
	Quote       ReservationQuote
}

// PrepareHandoff freezes a session into a checkout handoff.
func PrepareHandoff(s *selection.Session) (Handoff, error) {
	q, err := ForSession(s)
	if err != nil {
		return Handoff{}, err
	}
	ids := make([]rooms.RoomID, 0, len(s.Items))
	for _, item := range s.Items {
		ids = append(ids, item.InstanceID)
	}
	return Handoff{
		SessionID:   s.ID,
		PropertyID:  s.PropertyID,
		InstanceIDs: ids,
		Stay:        q.Stay,
		PartySize:   s.Search.PartySize,
		Quote:       q,
	}, nil
}

// Query renders the handoff as plain query parameters.
func (h Handoff) Query() url.Values {
	ids := make([]string, 0, len(h.InstanceIDs))
	for _, id := range h.InstanceIDs {
		ids = append(ids, string(id))
	}
	v := url.Values{}
	v.Set("property", string(h.PropertyID))
	v.Set("rooms", strings.Join(ids, ","))
	v.Set("check_in", daterange.FormatDay(h.Stay.CheckIn))
	v.Set("check_out", daterange.FormatDay(h.Stay.CheckOut))
	v.Set("guests", strconv.Itoa(h.PartySize))
	v.Set("nights", strconv.Itoa(h.Quote.Nights))
	v.Set("subtotal", h.Quote.Subtotal.Amount.StringFixed(money.CentPlaces))
	v.Set("tax", h.Quote.Tax.Amount.StringFixed(money.CentPlaces))
	v.Set("total", h.Quote.Total.Amount.StringFixed(money.CentPlaces))
	v.Set("currency", h.Quote.Total.Currency)
	return v
}

// HandoffPrepared is recorded when a session hands off to checkout.
type HandoffPrepared struct {
	SessionID   string
	PropertyID  string
	InstanceIDs []string
	CheckIn     string
	CheckOut    string
	PartySize   int
	Total       string
	Currency    string
	At          time.Time
}

func (e HandoffPrepared) EventName() string     { return "checkout.handoff_prepared" }
func (e HandoffPrepared) AggregateID() string   { return e.SessionID }
func (e HandoffPrepared) OccurredAt() time.Time { return e.At }

func (h Handoff) Event(at time.Time) HandoffPrepared {
	ids := make([]string, 0, len(h.InstanceIDs))
	for _, id := range h.InstanceIDs {
		ids = append(ids, string(id))
	}
	return HandoffPrepared{
		SessionID:   string(h.SessionID),
		PropertyID:  string(h.PropertyID),
		InstanceIDs: ids,
		CheckIn:     daterange.FormatDay(h.Stay.CheckIn),
		CheckOut:    daterange.FormatDay(h.Stay.CheckOut),
		PartySize:   h.PartySize,
		Total:       h.Quote.Total.Amount.StringFixed(money.CentPlaces),
		Currency:    h.Quote.Total.Currency,
		At:          at.UTC(),
	}
}
