package availability

import (
	"context"
	"errors"

	"stayquote/internal/app/dto"
	"stayquote/internal/app/queries"
	domainavailability "stayquote/internal/domain/availability"
	domainrooms "stayquote/internal/domain/rooms"
	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
)

const resolveGroupsKey = "availability.room_groups"

var ErrPartialDates = errors.New("availability: check-in and check-out must be given together")

// ResolveGroupsQuery lists the room type groups of a property with their free instances.
type ResolveGroupsQuery struct {
	PropertyID         string
	CheckIn            string
	CheckOut           string
	PartySize          int
	IncludeUnavailable bool
}

func (q ResolveGroupsQuery) Key() string { return resolveGroupsKey }

func (q ResolveGroupsQuery) Validate() error {
	if q.PropertyID == "" {
		return domainrooms.ErrPropertyNotFound
	}
	if q.PartySize < 0 {
		return domainselection.ErrInvalidPartySize
	}
	_, err := StayFromStrings(q.CheckIn, q.CheckOut)
	return err
}

// StayFromStrings turns optional query dates into a stay. Both empty means no stay.
func StayFromStrings(checkIn, checkOut string) (*daterange.DateRange, error) {
	if checkIn == "" && checkOut == "" {
		return nil, nil
	}
	if checkIn == "" || checkOut == "" {
		return nil, ErrPartialDates
	}
	dr, err := daterange.Parse(checkIn, checkOut)
	if err != nil {
		return nil, err
	}
	return &dr, nil
}

type ResolveGroupsHandler struct {
	Resolver domainavailability.Resolver
}

func (h *ResolveGroupsHandler) Handle(ctx context.Context, q ResolveGroupsQuery) (dto.RoomGroupCollection, error) {
	stay, err := StayFromStrings(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.RoomGroupCollection{}, err
	}
	groups, err := h.Resolver.Resolve(ctx, domainavailability.Query{
		PropertyID: domainrooms.PropertyID(q.PropertyID),
		Stay:       stay,
		PartySize:  q.PartySize,
	})
	if err != nil {
		return dto.RoomGroupCollection{}, err
	}

	shown := groups
	if !q.IncludeUnavailable {
		shown = domainavailability.BookableGroups(groups)
	}
	free := domainavailability.FreeCapacity(groups)
	out := dto.RoomGroupCollection{
		PropertyID:   q.PropertyID,
		PartySize:    q.PartySize,
		Groups:       dto.MapRoomGroups(shown, q.PartySize),
		FreeCapacity: free,
		CanHostParty: free >= q.PartySize,
	}
	if stay != nil {
		out.CheckIn = daterange.FormatDay(stay.CheckIn)
		out.CheckOut = daterange.FormatDay(stay.CheckOut)
	}
	return out, nil
}

var _ queries.Handler[ResolveGroupsQuery, dto.RoomGroupCollection] = (*ResolveGroupsHandler)(nil)
