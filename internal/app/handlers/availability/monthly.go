package availability

import (
	"context"
	"errors"
	"fmt"
	"time"

	"stayquote/internal/app/dto"
	"stayquote/internal/app/handlers/support"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/uow"
	domainrooms "stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
)

const (
	monthCalendarKey       = "availability.room_month"
	monthlyAvailabilityKey = "availability.property_month"

	MonthLayout = "2006-01"
)

var ErrInvalidMonth = errors.New("availability: month must look like YYYY-MM")

// ParseMonth turns "2024-03" into the window of that month's nights.
func ParseMonth(raw string) (daterange.DateRange, error) {
	t, err := time.Parse(MonthLayout, raw)
	if err != nil {
		return daterange.DateRange{}, fmt.Errorf("%w: %q", ErrInvalidMonth, raw)
	}
	return daterange.Month(t.Year(), t.Month()), nil
}

// MonthCalendarQuery returns the blocks and free nights of one physical room in a month.
type MonthCalendarQuery struct {
	RoomID string
	Month  string
}

func (q MonthCalendarQuery) Key() string { return monthCalendarKey }

func (q MonthCalendarQuery) Validate() error {
	if q.RoomID == "" {
		return domainrooms.ErrRoomNotFound
	}
	_, err := ParseMonth(q.Month)
	return err
}

type MonthCalendarHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *MonthCalendarHandler) Handle(ctx context.Context, q MonthCalendarQuery) (dto.Calendar, error) {
	window, err := ParseMonth(q.Month)
	if err != nil {
		return dto.Calendar{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Calendar{}, err
	}
	defer support.Done(cleanup)

	if _, err := unit.Rooms().ByID(ctx, domainrooms.RoomID(q.RoomID)); err != nil {
		return dto.Calendar{}, err
	}
	cal, err := unit.Calendars().Calendar(ctx, domainrooms.RoomID(q.RoomID))
	if err != nil {
		return dto.Calendar{}, err
	}
	out := dto.MapCalendar(cal, &window)
	out.RoomID = q.RoomID
	return out, nil
}

// MonthlyAvailabilityQuery lists the active rooms of a property that have at least one free
// night in the month.
type MonthlyAvailabilityQuery struct {
	PropertyID string
	Month      string
}

func (q MonthlyAvailabilityQuery) Key() string { return monthlyAvailabilityKey }

func (q MonthlyAvailabilityQuery) Validate() error {
	if q.PropertyID == "" {
		return domainrooms.ErrPropertyNotFound
	}
	_, err := ParseMonth(q.Month)
	return err
}

type MonthlyAvailabilityHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *MonthlyAvailabilityHandler) Handle(ctx context.Context, q MonthlyAvailabilityQuery) (dto.MonthlyAvailability, error) {
	window, err := ParseMonth(q.Month)
	if err != nil {
		return dto.MonthlyAvailability{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.MonthlyAvailability{}, err
	}
	defer support.Done(cleanup)

	all, err := unit.Rooms().ByProperty(ctx, domainrooms.PropertyID(q.PropertyID))
	if err != nil {
		return dto.MonthlyAvailability{}, err
	}
	active := make([]domainrooms.PhysicalRoom, 0, len(all))
	ids := make([]domainrooms.RoomID, 0, len(all))
	for _, r := range all {
		if r.Active {
			active = append(active, r)
			ids = append(ids, r.ID)
		}
	}
	if len(active) == 0 {
		return dto.MonthlyAvailability{}, fmt.Errorf("%w: %s", domainrooms.ErrPropertyNotFound, q.PropertyID)
	}
	calendars, err := unit.Calendars().Calendars(ctx, ids)
	if err != nil {
		return dto.MonthlyAvailability{}, err
	}

	out := dto.MonthlyAvailability{
		PropertyID: q.PropertyID,
		Year:       window.CheckIn.Year(),
		Month:      int(window.CheckIn.Month()),
		Rooms:      []dto.MonthlyRoom{},
	}
	for _, r := range active {
		free := calendars[r.ID].FreeNights(window)
		if len(free) == 0 {
			continue
		}
		days := make([]string, 0, len(free))
		for _, d := range free {
			days = append(days, daterange.FormatDay(d))
		}
		out.Rooms = append(out.Rooms, dto.MonthlyRoom{
			RoomID:        string(r.ID),
			Name:          r.DisplayName(),
			TypeName:      r.TypeName,
			Capacity:      r.Capacity,
			BasePrice:     dto.MapMoney(r.BasePrice),
			AvailableDays: days,
			DaysInMonth:   window.Nights(),
		})
	}
	out.Total = len(out.Rooms)
	return out, nil
}

var (
	_ queries.Handler[MonthCalendarQuery, dto.Calendar]                    = (*MonthCalendarHandler)(nil)
	_ queries.Handler[MonthlyAvailabilityQuery, dto.MonthlyAvailability] = (*MonthlyAvailabilityHandler)(nil)
)
