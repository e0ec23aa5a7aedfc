package availability

import (
	"context"
	"fmt"

	"stayquote/internal/app/handlers/support"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainrooms "stayquote/internal/domain/rooms"
)

// LocalResolver answers availability from the repositories of a unit of work. Calendars of
// every room of the property are fetched in a single batch.
type LocalResolver struct {
	UoWFactory uow.UoWFactory
}

func (r LocalResolver) Resolve(ctx context.Context, q domainavailability.Query) ([]domainavailability.GroupAvailability, error) {
	if q.Stay != nil {
		if err := q.Stay.Validate(); err != nil {
			return nil, err
		}
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, r.UoWFactory)
	if err != nil {
		return nil, err
	}
	defer support.Done(cleanup)

	all, err := unit.Rooms().ByProperty(ctx, q.PropertyID)
	if err != nil {
		return nil, err
	}
	groups := domainrooms.GroupRooms(all)
	if len(groups) == 0 {
		return nil, fmt.Errorf("%w: %s", domainrooms.ErrPropertyNotFound, q.PropertyID)
	}

	calendars := map[domainrooms.RoomID]*domainavailability.AvailabilityCalendar{}
	if q.Stay != nil {
		var ids []domainrooms.RoomID
		for _, g := range groups {
			ids = append(ids, g.InstanceIDs...)
		}
		calendars, err = unit.Calendars().Calendars(ctx, ids)
		if err != nil {
			return nil, err
		}
	}
	return domainavailability.ResolveGroups(groups, calendars, q.Stay)
}

var _ domainavailability.Resolver = LocalResolver{}
