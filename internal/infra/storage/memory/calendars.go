package memory

import (
	"context"
	"sync"

	domainavailability "stayquote/internal/domain/availability"
	domainrooms "stayquote/internal/domain/rooms"
)

// CalendarRepository stores room calendars with optimistic versioning.
type CalendarRepository struct {
	mu    sync.RWMutex
	items map[domainrooms.RoomID]*domainavailability.AvailabilityCalendar
}

func NewCalendarRepository() *CalendarRepository {
	return &CalendarRepository{items: make(map[domainrooms.RoomID]*domainavailability.AvailabilityCalendar)}
}

func cloneCalendar(c *domainavailability.AvailabilityCalendar) *domainavailability.AvailabilityCalendar {
	return &domainavailability.AvailabilityCalendar{
		RoomID:  c.RoomID,
		Blocks:  append([]domainavailability.Block(nil), c.Blocks...),
		Version: c.Version,
	}
}

func (r *CalendarRepository) Calendar(ctx context.Context, id domainrooms.RoomID) (*domainavailability.AvailabilityCalendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if cal, ok := r.items[id]; ok {
		return cloneCalendar(cal), nil
	}
	return domainavailability.NewCalendar(id), nil
}

func (r *CalendarRepository) Calendars(ctx context.Context, ids []domainrooms.RoomID) (map[domainrooms.RoomID]*domainavailability.AvailabilityCalendar, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[domainrooms.RoomID]*domainavailability.AvailabilityCalendar, len(ids))
	for _, id := range ids {
		if cal, ok := r.items[id]; ok {
			out[id] = cloneCalendar(cal)
			continue
		}
		out[id] = domainavailability.NewCalendar(id)
	}
	return out, nil
}

// Save rejects a calendar whose version is behind the stored one.
func (r *CalendarRepository) Save(ctx context.Context, cal *domainavailability.AvailabilityCalendar) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current := int64(0)
	if stored, ok := r.items[cal.RoomID]; ok {
		current = stored.Version
	}
	if current != cal.Version {
		return domainavailability.ErrConcurrentUpdate
	}
	cal.Version++
	r.items[cal.RoomID] = cloneCalendar(cal)
	return nil
}

var _ domainavailability.Repository = (*CalendarRepository)(nil)
