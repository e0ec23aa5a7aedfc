package availability

import (
	"context"
	"errors"
	"time"

	"stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/events"
)

var (
	ErrOverlappingRange = errors.New("availability: range overlaps with an existing block")
	ErrRangeNotFound    = errors.New("availability: range not found")
	ErrConcurrentUpdate = errors.New("availability: calendar was modified concurrently")
)

type BlockReason string

const (
	ReasonReservation BlockReason = "RESERVATION"
	ReasonMaintenance BlockReason = "MAINTENANCE"
)

// Block marks a physical room as occupied for a half-open range of nights.
type Block struct {
	Range     daterange.DateRange
	Reason    BlockReason
	Reference string
	CreatedAt time.Time
}

// AvailabilityCalendar lists the occupied ranges of one physical room.
type AvailabilityCalendar struct {
	RoomID  rooms.RoomID
	Blocks  []Block
	Version int64
	events.EventRecorder
}

type Repository interface {
	// Calendar returns an empty calendar for rooms that were never blocked.
	Calendar(ctx context.Context, id rooms.RoomID) (*AvailabilityCalendar, error)
	// Calendars loads several rooms in one round trip; missing rooms map to empty calendars.
	Calendars(ctx context.Context, ids []rooms.RoomID) (map[rooms.RoomID]*AvailabilityCalendar, error)
	// Save fails with ErrConcurrentUpdate when the stored version differs from calendar.Version.
	Save(ctx context.Context, calendar *AvailabilityCalendar) error
}

func NewCalendar(id rooms.RoomID) *AvailabilityCalendar {
	return &AvailabilityCalendar{RoomID: id}
}

// IsFree reports whether no block overlaps r. A stay ending on a block's first night is free.
func (c *AvailabilityCalendar) IsFree(r daterange.DateRange) bool {
	if c == nil {
		return true
	}
	for _, block := range c.Blocks {
		if block.Range.Overlaps(r) {
			return false
		}
	}
	return true
}

// Reserve blocks r for a reservation. Repeating the same reference and range is a no-op.
func (c *AvailabilityCalendar) Reserve(r daterange.DateRange, reference string, now time.Time) error {
	for _, block := range c.Blocks {
		if block.Reference == reference && block.Range == r {
			return nil
		}
	}
	if !c.IsFree(r) {
		c.Record(CalendarOverbookingPreventedEvent(c.RoomID, r, now))
		return ErrOverlappingRange
	}
	c.Blocks = append(c.Blocks, Block{Range: r, Reason: ReasonReservation, Reference: reference, CreatedAt: now.UTC()})
	c.Record(CalendarBlockedEvent(c.RoomID, r, ReasonReservation, now))
	return nil
}

func (c *AvailabilityCalendar) BlockRange(r daterange.DateRange, reason BlockReason, reference string, now time.Time) error {
	if reason == "" {
		reason = ReasonMaintenance
	}
	if !c.IsFree(r) {
		return ErrOverlappingRange
	}
	c.Blocks = append(c.Blocks, Block{Range: r, Reason: reason, Reference: reference, CreatedAt: now.UTC()})
	c.Record(CalendarBlockedEvent(c.RoomID, r, reason, now))
	return nil
}

func (c *AvailabilityCalendar) Release(reference string, now time.Time) error {
	idx := -1
	for i, block := range c.Blocks {
		if block.Reference == reference {
			idx = i
			break
		}
	}
	if idx == -1 {
		return ErrRangeNotFound
	}
	removed := c.Blocks[idx]
	c.Blocks = append(c.Blocks[:idx], c.Blocks[idx+1:]...)
	c.Record(CalendarReleasedEvent(c.RoomID, removed.Range, removed.Reason, now))
	return nil
}

// FreeNights lists the nights inside window that no block covers.
func (c *AvailabilityCalendar) FreeNights(window daterange.DateRange) []time.Time {
	var out []time.Time
	for _, d := range window.Days() {
		night := daterange.DateRange{CheckIn: d, CheckOut: d.AddDate(0, 0, 1)}
		if c.IsFree(night) {
			out = append(out, d)
		}
	}
	return out
}
