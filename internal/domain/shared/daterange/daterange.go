package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DayLayout is the civil date format used for stay boundaries and season rules.
const DayLayout = "2006-01-02"

var (
	ErrInvalidRange = errors.New("daterange: checkout must be after checkin")
	ErrInvalidDay   = errors.New("daterange: day must use YYYY-MM-DD")
)

// DateRange represents a half-open interval [checkIn, checkOut) of civil days.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// Day drops the clock part of t, keeping the civil date as seen in t's own location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a YYYY-MM-DD string into a UTC midnight.
func ParseDay(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, ErrInvalidDay
	}
	t, err := time.Parse(DayLayout, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDay, raw)
	}
	return t, nil
}

// FormatDay renders the civil date of t.
func FormatDay(t time.Time) string {
	return Day(t).Format(DayLayout)
}

func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDay(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDay(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

// Month returns the range covering every night of the given month.
func Month(year int, month time.Month) DateRange {
	start := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	return DateRange{CheckIn: start, CheckOut: start.AddDate(0, 1, 0)}
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

func (dr DateRange) IsZero() bool {
	return dr.CheckIn.IsZero() && dr.CheckOut.IsZero()
}

// Nights counts whole days between check-in and check-out, never negative.
func (dr DateRange) Nights() int {
	n := int(dr.CheckOut.Sub(dr.CheckIn) / (24 * time.Hour))
	if n < 0 {
		return 0
	}
	return n
}

// Days lists every night of the stay; the check-out day is excluded.
func (dr DateRange) Days() []time.Time {
	start, end := Day(dr.CheckIn), Day(dr.CheckOut)
	if !end.After(start) {
		return nil
	}
	out := make([]time.Time, 0, int(end.Sub(start)/(24*time.Hour)))
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		out = append(out, d)
	}
	return out
}

func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) Contains(other DateRange) bool {
	return !other.CheckIn.Before(dr.CheckIn) && !other.CheckOut.After(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = Day(t)
	return !t.Before(dr.CheckIn) && t.Before(dr.CheckOut)
}

func (dr DateRange) Adjacent(other DateRange) bool {
	return dr.CheckOut.Equal(other.CheckIn) || dr.CheckIn.Equal(other.CheckOut)
}

func (dr DateRange) String() string {
	return FormatDay(dr.CheckIn) + ".." + FormatDay(dr.CheckOut)
}
