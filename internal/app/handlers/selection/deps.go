package selection

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"stayquote/internal/app/outbox"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainrooms "stayquote/internal/domain/rooms"
	domainselection "stayquote/internal/domain/selection"
)

// Deps is shared by every session handler.
type Deps struct {
	Resolver domainavailability.Resolver
	Outbox   outbox.Outbox
	Encoder  outbox.EventEncoder
	Logger   *slog.Logger
	Now      func() time.Time
	// NewSessionID defaults to random UUIDs.
	NewSessionID func() domainselection.SessionID
	// SelectionIDs defaults to random UUIDs.
	SelectionIDs domainselection.IDGenerator
}

func (d Deps) now() time.Time {
	if d.Now != nil {
		return d.Now().UTC()
	}
	return time.Now().UTC()
}

func (d Deps) logger() *slog.Logger {
	if d.Logger != nil {
		return d.Logger
	}
	return slog.Default()
}

func (d Deps) sessionID() domainselection.SessionID {
	if d.NewSessionID != nil {
		return d.NewSessionID()
	}
	return domainselection.SessionID(uuid.NewString())
}

func (d Deps) load(ctx context.Context, unit uow.UnitOfWork, id string) (*domainselection.Session, error) {
	s, err := unit.Sessions().Get(ctx, domainselection.SessionID(id))
	if err != nil {
		return nil, err
	}
	s.UseIDGenerator(d.SelectionIDs)
	return s, nil
}

// save persists s and moves its pending events into the outbox.
func (d Deps) save(ctx context.Context, unit uow.UnitOfWork, s *domainselection.Session) error {
	if err := unit.Sessions().Save(ctx, s); err != nil {
		return err
	}
	return outbox.RecordPending(ctx, d.Outbox, d.Encoder, s)
}

// mutate loads the session, applies fn and saves it. A concurrent write is retried once
// against a fresh copy.
func (d Deps) mutate(ctx context.Context, id string, fn func(*domainselection.Session) error) (*domainselection.Session, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return nil, uow.ErrUnitOfWorkMissing
	}
	var lastErr error
	for attempt := 0; attempt < 2; attempt++ {
		s, err := d.load(ctx, unit, id)
		if err != nil {
			return nil, err
		}
		if err := fn(s); err != nil {
			return nil, err
		}
		lastErr = d.save(ctx, unit, s)
		if lastErr == nil {
			return s, nil
		}
		if !errors.Is(lastErr, domainselection.ErrConcurrentUpdate) {
			return nil, lastErr
		}
		d.logger().WarnContext(ctx, "session changed concurrently, retrying", slog.String("session_id", id))
	}
	return nil, lastErr
}

// resolve asks for the groups of the session's current search. Only a property without
// rooms is fatal; other resolver failures leave the session without a snapshot.
func (d Deps) resolve(ctx context.Context, s *domainselection.Session) ([]domainavailability.GroupAvailability, bool, error) {
	if d.Resolver == nil {
		return nil, false, nil
	}
	groups, err := d.Resolver.Resolve(ctx, domainavailability.Query{
		PropertyID: s.PropertyID,
		Stay:       s.Search.Stay,
		PartySize:  s.Search.PartySize,
	})
	if err == nil {
		return groups, true, nil
	}
	if errors.Is(err, domainrooms.ErrPropertyNotFound) || errors.Is(err, context.Canceled) {
		return nil, false, err
	}
	d.logger().WarnContext(ctx, "availability unavailable, continuing without snapshot",
		slog.String("session_id", string(s.ID)),
		slog.String("property_id", string(s.PropertyID)),
		slog.Any("error", err),
	)
	return nil, false, nil
}

// refresh resolves availability for generation and applies it if the session still
// carries that generation.
func (d Deps) refresh(ctx context.Context, s *domainselection.Session, generation int64) error {
	groups, ok, err := d.resolve(ctx, s)
	if err != nil || !ok {
		return err
	}
	return d.apply(ctx, s, generation, groups)
}

// apply stores groups resolved under generation. Results for a superseded search are
// logged and dropped.
func (d Deps) apply(ctx context.Context, s *domainselection.Session, generation int64, groups []domainavailability.GroupAvailability) error {
	err := s.ApplySnapshot(generation, groups, d.now())
	if errors.Is(err, domainselection.ErrStaleSnapshot) {
		d.logger().InfoContext(ctx, "discarding availability for superseded search",
			slog.String("session_id", string(s.ID)),
			slog.Int64("generation", generation),
			slog.Int64("current", s.Generation),
		)
		return nil
	}
	return err
}
