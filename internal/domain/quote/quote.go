package quote

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

var ErrNegativeTotal = errors.New("quote: negative amount")

// TaxRate is applied to the subtotal. The tax is rounded to whole currency units.
var TaxRate = decimal.RequireFromString("0.21")

// TaxPlaces is the precision of the tax line.
const TaxPlaces int32 = 0

// RoomLine is the priced stay of one selected room.
type RoomLine struct {
	SelectionID selection.SelectionID
	Label       string
	Room        selection.SelectedRoomInstance
	Schedule    pricing.Schedule
}

// ReservationQuote is a preview of what the stay costs. It carries no authority.
type ReservationQuote struct {
	Stay     daterange.DateRange
	Nights   int
	Rooms    []RoomLine
	Subtotal money.Money
	Tax      money.Money
	Total    money.Money
}

// Aggregate prices every selected room with its own base price and rules and sums the result.
func Aggregate(selected []selection.SelectedRoomInstance, checkIn, checkOut time.Time) (ReservationQuote, error) {
	if len(selected) == 0 {
		return ReservationQuote{}, selection.ErrEmptySelection
	}
	stay, err := daterange.New(checkIn, checkOut)
	if err != nil {
		return ReservationQuote{}, fmt.Errorf("%w: %v", selection.ErrMissingDateRange, err)
	}

	currency := selected[0].BasePrice.Currency
	q := ReservationQuote{
		Stay:     stay,
		Nights:   pricing.NightCount(stay.CheckIn, stay.CheckOut),
		Rooms:    make([]RoomLine, 0, len(selected)),
		Subtotal: money.Zero(currency),
	}
	for _, room := range selected {
		schedule := pricing.ComputeSchedule(room.BasePrice, stay.CheckIn, stay.CheckOut, room.Rules)
		subtotal, err := q.Subtotal.Add(schedule.Total)
		if err != nil {
			return ReservationQuote{}, fmt.Errorf("quote: room %s: %w", room.InstanceID, err)
		}
		q.Subtotal = subtotal
		q.Rooms = append(q.Rooms, RoomLine{
			SelectionID: room.SelectionID,
			Label:       room.Label(),
			Room:        room,
			Schedule:    schedule,
		})
	}

	q.Tax = q.Subtotal.Mul(TaxRate).Round(TaxPlaces)
	total, err := q.Subtotal.Add(q.Tax)
	if err != nil {
		return ReservationQuote{}, err
	}
	q.Total = total
	if q.Subtotal.IsNegative() || q.Total.IsNegative() {
		return ReservationQuote{}, ErrNegativeTotal
	}
	return q, nil
}

// ForSession quotes a session that has reached ReadyToQuote.
func ForSession(s *selection.Session) (ReservationQuote, error) {
	if err := s.ReadyToQuote(); err != nil {
		return ReservationQuote{}, err
	}
	return Aggregate(s.Selected(), s.Search.Stay.CheckIn, s.Search.Stay.CheckOut)
}
