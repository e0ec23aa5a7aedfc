package availability

import (
	"time"

	"stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
)

type CalendarBlocked struct {
	RoomID string
	Range  daterange.DateRange
	Reason BlockReason
	At     time.Time
}

func (e CalendarBlocked) EventName() string     { return "calendar.blocked" }
func (e CalendarBlocked) AggregateID() string   { return e.RoomID }
func (e CalendarBlocked) OccurredAt() time.Time { return e.At }

type CalendarReleased struct {
	RoomID string
	Range  daterange.DateRange
	Reason BlockReason
	At     time.Time
}

func (e CalendarReleased) EventName() string     { return "calendar.released" }
func (e CalendarReleased) AggregateID() string   { return e.RoomID }
func (e CalendarReleased) OccurredAt() time.Time { return e.At }

type CalendarOverbookingPrevented struct {
	RoomID string
	Range  daterange.DateRange
	At     time.Time
}

func (e CalendarOverbookingPrevented) EventName() string     { return "calendar.overbooking_prevented" }
func (e CalendarOverbookingPrevented) AggregateID() string   { return e.RoomID }
func (e CalendarOverbookingPrevented) OccurredAt() time.Time { return e.At }

func CalendarBlockedEvent(id rooms.RoomID, r daterange.DateRange, reason BlockReason, at time.Time) CalendarBlocked {
	return CalendarBlocked{RoomID: string(id), Range: r, Reason: reason, At: at}
}

func CalendarReleasedEvent(id rooms.RoomID, r daterange.DateRange, reason BlockReason, at time.Time) CalendarReleased {
	return CalendarReleased{RoomID: string(id), Range: r, Reason: reason, At: at}
}

func CalendarOverbookingPreventedEvent(id rooms.RoomID, r daterange.DateRange, at time.Time) CalendarOverbookingPrevented {
	return CalendarOverbookingPrevented{RoomID: string(id), Range: r, At: at}
}
