package availability

import (
	"context"
	"errors"
	"sort"

	"stayquote/internal/app/dto"
	"stayquote/internal/app/handlers/support"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	"stayquote/internal/domain/pricing"
	domainrooms "stayquote/internal/domain/rooms"
	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

const (
	searchRoomsKey = "availability.search_rooms"

	DefaultPageLimit = 10
	MaxPageLimit     = 100
)

var ErrInvalidPriceBounds = errors.New("availability: min price is above max price")

// SearchRoomsQuery lists free physical rooms across properties. Price bounds apply to the
// base price; Currency is the currency of those bounds.
type SearchRoomsQuery struct {
	CheckIn    string
	CheckOut   string
	PartySize  int
	PropertyID string
	TypeID     string
	MinPrice   string
	MaxPrice   string
	Currency   string
	Page       int
	Limit      int
}

func (q SearchRoomsQuery) Key() string { return searchRoomsKey }

func (q SearchRoomsQuery) Validate() error {
	if q.PartySize < 0 {
		return domainselection.ErrInvalidPartySize
	}
	if _, err := StayFromStrings(q.CheckIn, q.CheckOut); err != nil {
		return err
	}
	lo, hi, err := q.bounds()
	if err != nil {
		return err
	}
	if lo != nil && hi != nil && hi.LessThan(*lo) {
		return ErrInvalidPriceBounds
	}
	return nil
}

func (q SearchRoomsQuery) bounds() (*money.Money, *money.Money, error) {
	parse := func(raw string) (*money.Money, error) {
		if raw == "" {
			return nil, nil
		}
		m, err := money.Parse(raw, q.Currency)
		if err != nil {
			return nil, err
		}
		return &m, nil
	}
	lo, err := parse(q.MinPrice)
	if err != nil {
		return nil, nil, err
	}
	hi, err := parse(q.MaxPrice)
	if err != nil {
		return nil, nil, err
	}
	return lo, hi, nil
}

func (q SearchRoomsQuery) page() (int, int) {
	page, limit := q.Page, q.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return page, limit
}

type SearchRoomsHandler struct {
	UoWFactory uow.UoWFactory
}

// candidate is a room moving through the filter pipeline.
type candidate struct {
	room       domainrooms.PhysicalRoom
	calculated *money.Money
}

type roomFilter func([]candidate) []candidate

func freeDuring(stay *daterange.DateRange, calendars map[domainrooms.RoomID]*domainavailability.AvailabilityCalendar) roomFilter {
	return func(in []candidate) []candidate {
		if stay == nil {
			return in
		}
		out := in[:0]
		for _, c := range in {
			if calendars[c.room.ID].IsFree(*stay) {
				out = append(out, c)
			}
		}
		return out
	}
}

func withCalculatedPrice(stay *daterange.DateRange) roomFilter {
	return func(in []candidate) []candidate {
		if stay == nil {
			return in
		}
		for i := range in {
			avg := pricing.ComputeSchedule(in[i].room.BasePrice, stay.CheckIn, stay.CheckOut, in[i].room.Rules).Average()
			in[i].calculated = &avg
		}
		return in
	}
}

func (h *SearchRoomsHandler) Handle(ctx context.Context, q SearchRoomsQuery) (dto.RoomSearchResult, error) {
	stay, err := StayFromStrings(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.RoomSearchResult{}, err
	}
	lo, hi, err := q.bounds()
	if err != nil {
		return dto.RoomSearchResult{}, err
	}

	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.RoomSearchResult{}, err
	}
	defer support.Done(cleanup)

	found, err := unit.Rooms().Search(ctx, domainrooms.SearchFilter{
		PropertyID: domainrooms.PropertyID(q.PropertyID),
		TypeID:     q.TypeID,
		MinPrice:   lo,
		MaxPrice:   hi,
	})
	if err != nil {
		return dto.RoomSearchResult{}, err
	}

	calendars := map[domainrooms.RoomID]*domainavailability.AvailabilityCalendar{}
	if stay != nil && len(found) > 0 {
		ids := make([]domainrooms.RoomID, 0, len(found))
		for _, r := range found {
			ids = append(ids, r.ID)
		}
		if calendars, err = unit.Calendars().Calendars(ctx, ids); err != nil {
			return dto.RoomSearchResult{}, err
		}
	}

	candidates := make([]candidate, 0, len(found))
	for _, r := range found {
		candidates = append(candidates, candidate{room: r})
	}
	for _, filter := range []roomFilter{freeDuring(stay, calendars), withCalculatedPrice(stay)} {
		candidates = filter(candidates)
	}

	page, limit := q.page()
	total := len(candidates)
	result := dto.RoomSearchResult{
		Items:      []dto.RoomSearchItem{},
		Properties: summarize(candidates),
		Meta: dto.PageMeta{
			Total:      total,
			Page:       page,
			Limit:      limit,
			TotalPages: (total + limit - 1) / limit,
		},
	}
	// pages past the end are empty; checked before multiplying so huge pages cannot overflow
	start := total
	if page-1 < (total+limit-1)/limit {
		start = (page - 1) * limit
	}
	end := start + limit
	if end > total {
		end = total
	}
	for _, c := range candidates[start:end] {
		result.Items = append(result.Items, mapCandidate(c, q.PartySize))
	}
	return result, nil
}

func mapCandidate(c candidate, partySize int) dto.RoomSearchItem {
	item := dto.RoomSearchItem{
		ID:         string(c.room.ID),
		PropertyID: string(c.room.PropertyID),
		TypeID:     c.room.TypeID,
		TypeName:   c.room.TypeName,
		Name:       c.room.DisplayName(),
		Capacity:   c.room.Capacity,
		BasePrice:  dto.MapMoney(c.room.BasePrice),
		Rules:      dto.MapRules(c.room.Rules),
		FitsParty:  partySize <= 0 || c.room.Capacity >= partySize,
	}
	if c.calculated != nil {
		calc := dto.MapMoney(*c.calculated)
		item.CalculatedPrice = &calc
	}
	return item
}

// summarize counts free rooms per property and finds the cheapest one. The calculated
// price wins over the base price when it is positive.
func summarize(candidates []candidate) []dto.PropertySummary {
	type acc struct {
		count int
		from  money.Money
	}
	byProperty := map[domainrooms.PropertyID]*acc{}
	for _, c := range candidates {
		price := c.room.BasePrice
		if c.calculated != nil && c.calculated.Amount.IsPositive() {
			price = *c.calculated
		}
		a, ok := byProperty[c.room.PropertyID]
		if !ok {
			byProperty[c.room.PropertyID] = &acc{count: 1, from: price}
			continue
		}
		a.count++
		if price.LessThan(a.from) {
			a.from = price
		}
	}
	out := make([]dto.PropertySummary, 0, len(byProperty))
	for id, a := range byProperty {
		out = append(out, dto.PropertySummary{
			PropertyID:     string(id),
			RoomsAvailable: a.count,
			FromPrice:      dto.MapMoney(a.from),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PropertyID < out[j].PropertyID })
	return out
}

var _ queries.Handler[SearchRoomsQuery, dto.RoomSearchResult] = (*SearchRoomsHandler)(nil)
