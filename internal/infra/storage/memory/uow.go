package memory

import (
	"context"
	"errors"

	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainrooms "stayquote/internal/domain/rooms"
	domainselection "stayquote/internal/domain/selection"
)

// Factory wires in-memory repositories into a unit-of-work boundary.
type Factory struct {
	RoomsRepo     domainrooms.Repository
	CalendarsRepo domainavailability.Repository
	SessionsRepo  domainselection.Repository
}

// ErrFactoryMisconfigured indicates missing repositories.
var ErrFactoryMisconfigured = errors.New("memory: unit of work factory misconfigured")

// Begin starts a lightweight boundary. Writes are visible immediately; repositories guard
// concurrent updates with versions instead of isolation.
func (f Factory) Begin(ctx context.Context, opts uow.TxOptions) (uow.UnitOfWork, error) {
	if f.RoomsRepo == nil || f.CalendarsRepo == nil || f.SessionsRepo == nil {
		return nil, ErrFactoryMisconfigured
	}
	return &Unit{rooms: f.RoomsRepo, calendars: f.CalendarsRepo, sessions: f.SessionsRepo}, nil
}

// Unit is a uow.UnitOfWork backed by in-memory stores.
type Unit struct {
	rooms     domainrooms.Repository
	calendars domainavailability.Repository
	sessions  domainselection.Repository
}

func (u *Unit) Rooms() domainrooms.Repository {
	return u.rooms
}

func (u *Unit) Calendars() domainavailability.Repository {
	return u.calendars
}

func (u *Unit) Sessions() domainselection.Repository {
	return u.sessions
}

func (u *Unit) Commit(ctx context.Context) error {
	return nil
}

func (u *Unit) Rollback(ctx context.Context) error {
	return nil
}
