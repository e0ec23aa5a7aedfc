package pricing

import (
	"context"
	"fmt"

	"stayquote/internal/app/dto"
	"stayquote/internal/app/handlers/support"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/uow"
	domainpricing "stayquote/internal/domain/pricing"
	domainrooms "stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
)

const getScheduleKey = "pricing.schedule"

// GetScheduleQuery prices every night of a stay for one room type group.
type GetScheduleQuery struct {
	PropertyID string
	GroupID    string
	CheckIn    string
	CheckOut   string
}

func (q GetScheduleQuery) Key() string { return getScheduleKey }

func (q GetScheduleQuery) Validate() error {
	if q.PropertyID == "" {
		return domainrooms.ErrPropertyNotFound
	}
	if q.GroupID == "" {
		return fmt.Errorf("%w: group id required", domainrooms.ErrInvalidGroup)
	}
	_, err := daterange.Parse(q.CheckIn, q.CheckOut)
	return err
}

type GetScheduleHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *GetScheduleHandler) Handle(ctx context.Context, q GetScheduleQuery) (dto.Schedule, error) {
	stay, err := daterange.Parse(q.CheckIn, q.CheckOut)
	if err != nil {
		return dto.Schedule{}, err
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.Schedule{}, err
	}
	defer support.Done(cleanup)

	all, err := unit.Rooms().ByProperty(ctx, domainrooms.PropertyID(q.PropertyID))
	if err != nil {
		return dto.Schedule{}, err
	}
	group, ok := domainrooms.FindGroup(domainrooms.GroupRooms(all), domainrooms.GroupID(q.GroupID))
	if !ok {
		return dto.Schedule{}, fmt.Errorf("%w: %s", domainrooms.ErrGroupNotFound, q.GroupID)
	}
	out := dto.MapSchedule(domainpricing.ComputeSchedule(group.BasePrice, stay.CheckIn, stay.CheckOut, group.Rules))
	out.GroupID = string(group.ID)
	return out, nil
}

var _ queries.Handler[GetScheduleQuery, dto.Schedule] = (*GetScheduleHandler)(nil)
