package selection

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appavailability "stayquote/internal/app/handlers/availability"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainrooms "stayquote/internal/domain/rooms"
	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/money"
	"stayquote/internal/infra/storage/memory"
)

type resolverFunc func(ctx context.Context, q domainavailability.Query) ([]domainavailability.GroupAvailability, error)

func (f resolverFunc) Resolve(ctx context.Context, q domainavailability.Query) ([]domainavailability.GroupAvailability, error) {
	return f(ctx, q)
}

type env struct {
	factory  memory.Factory
	sessions *memory.SessionRepository
	box      *memory.Outbox
	deps     Deps
}

func newEnv(t *testing.T) *env {
	t.Helper()
	rooms := memory.NewRoomRepository(
		domainrooms.PhysicalRoom{ID: "d1", PropertyID: "hotel", TypeID: "dbl", Name: "Double 1", Capacity: 2, BasePrice: money.Must("1000", "ARS"), Active: true},
		domainrooms.PhysicalRoom{ID: "d2", PropertyID: "hotel", TypeID: "dbl", Name: "Double 2", Capacity: 2, BasePrice: money.Must("1000", "ARS"), Active: true},
		domainrooms.PhysicalRoom{ID: "s1", PropertyID: "hotel", TypeID: "ste", Name: "Suite", Capacity: 4, BasePrice: money.Must("2500", "ARS"), Active: true},
	)
	sessions := memory.NewSessionRepository(0)
	e := &env{
		factory:  memory.Factory{RoomsRepo: rooms, CalendarsRepo: memory.NewCalendarRepository(), SessionsRepo: sessions},
		sessions: sessions,
		box:      memory.NewOutbox(nil),
	}
	n := 0
	e.deps = Deps{
		Resolver: appavailability.LocalResolver{UoWFactory: e.factory},
		Outbox:   e.box,
		Logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:      func() time.Time { return time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC) },
		NewSessionID: func() domainselection.SessionID {
			return "sess-1"
		},
		SelectionIDs: func() domainselection.SelectionID {
			n++
			return domainselection.SelectionID(fmt.Sprintf("sel-%d", n))
		},
	}
	return e
}

func (e *env) ctx(t *testing.T) context.Context {
	t.Helper()
	unit, err := e.factory.Begin(context.Background(), uow.TxOptions{})
	require.NoError(t, err)
	return uow.ContextWithUnitOfWork(context.Background(), unit)
}

func (e *env) start(t *testing.T, in, out string, party int) {
	t.Helper()
	_, err := (&StartSessionHandler{Deps: e.deps}).Handle(e.ctx(t), StartSessionCommand{PropertyID: "hotel", CheckIn: in, CheckOut: out, PartySize: party})
	require.NoError(t, err)
}

func TestStartSession_ResolvesGroups(t *testing.T) {
	e := newEnv(t)
	out, err := (&StartSessionHandler{Deps: e.deps}).Handle(e.ctx(t), StartSessionCommand{
		PropertyID: "hotel", CheckIn: "2024-03-04", CheckOut: "2024-03-06", PartySize: 3,
	})
	require.NoError(t, err)

	assert.Equal(t, "sess-1", out.ID)
	assert.Equal(t, string(domainselection.StateNoSelection), out.State)
	require.Len(t, out.Groups, 2)
	assert.Equal(t, 2, out.Groups[0].Remaining)
	assert.False(t, out.Groups[0].FitsParty)
	assert.Equal(t, int64(1), out.Version)

	records := e.box.Records()
	require.Len(t, records, 1)
	assert.Equal(t, "selection.session_started", records[0].Name)
}

func TestStartSession_UnknownPropertyIsHardFailure(t *testing.T) {
	e := newEnv(t)
	_, err := (&StartSessionHandler{Deps: e.deps}).Handle(e.ctx(t), StartSessionCommand{PropertyID: "ghost"})
	assert.ErrorIs(t, err, domainrooms.ErrPropertyNotFound)
}

func TestStartSession_DegradesWhenResolverFails(t *testing.T) {
	e := newEnv(t)
	e.deps.Resolver = resolverFunc(func(context.Context, domainavailability.Query) ([]domainavailability.GroupAvailability, error) {
		return nil, errors.New("connection refused")
	})
	out, err := (&StartSessionHandler{Deps: e.deps}).Handle(e.ctx(t), StartSessionCommand{PropertyID: "hotel"})
	require.NoError(t, err)
	assert.Empty(t, out.Groups)

	_, err = (&AddInstancesHandler{Deps: e.deps}).Handle(e.ctx(t), AddInstancesCommand{SessionID: "sess-1", GroupID: "d1", Quantity: 1})
	assert.ErrorIs(t, err, domainselection.ErrNoSnapshot)
}

func TestAddAndRemoveInstances(t *testing.T) {
	e := newEnv(t)
	e.start(t, "2024-03-04", "2024-03-06", 2)
	add := &AddInstancesHandler{Deps: e.deps}

	change, err := add.Handle(e.ctx(t), AddInstancesCommand{SessionID: "sess-1", GroupID: "d1", Quantity: 2})
	require.NoError(t, err)
	require.Len(t, change.Added, 2)
	assert.Equal(t, "Double #2", change.Added[1].Label)
	assert.Equal(t, 0, change.Session.Groups[0].Remaining)
	assert.Equal(t, string(domainselection.StateReadyToQuote), change.Session.State)

	_, err = add.Handle(e.ctx(t), AddInstancesCommand{SessionID: "sess-1", GroupID: "d1", Quantity: 1})
	assert.ErrorIs(t, err, domainselection.ErrInsufficientAvailability)

	removed, err := (&RemoveInstanceHandler{Deps: e.deps}).Handle(e.ctx(t), RemoveInstanceCommand{SessionID: "sess-1", SelectionID: "sel-1"})
	require.NoError(t, err)
	assert.Len(t, removed.Selection, 1)
	assert.Equal(t, 1, removed.Groups[0].Remaining)

	again, err := (&RemoveInstanceHandler{Deps: e.deps}).Handle(e.ctx(t), RemoveInstanceCommand{SessionID: "sess-1", SelectionID: "sel-1"})
	require.NoError(t, err)
	assert.Len(t, again.Selection, 1)

	cleared, err := (&ClearSelectionHandler{Deps: e.deps}).Handle(e.ctx(t), ClearSelectionCommand{SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Empty(t, cleared.Selection)
}

func TestChangeSearch_ResetsSelectionAndReresolves(t *testing.T) {
	e := newEnv(t)
	e.start(t, "2024-03-04", "2024-03-06", 2)
	_, err := (&AddInstancesHandler{Deps: e.deps}).Handle(e.ctx(t), AddInstancesCommand{SessionID: "sess-1", GroupID: "s1", Quantity: 1})
	require.NoError(t, err)

	out, err := (&ChangeSearchHandler{Deps: e.deps}).Handle(e.ctx(t), ChangeSearchCommand{
		SessionID: "sess-1", CheckIn: "2024-04-01", CheckOut: "2024-04-03", PartySize: 4,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(2), out.Generation)
	assert.Empty(t, out.Selection)
	assert.Len(t, out.Groups, 2)
	assert.Equal(t, "2024-04-01", out.CheckIn)
}

func TestChangeSearch_DropsResultsOfSupersededSearch(t *testing.T) {
	e := newEnv(t)
	e.start(t, "2024-03-04", "2024-03-06", 2)
	local := e.deps.Resolver
	raced := false
	e.deps.Resolver = resolverFunc(func(ctx context.Context, q domainavailability.Query) ([]domainavailability.GroupAvailability, error) {
		groups, err := local.Resolve(ctx, q)
		if raced {
			return groups, err
		}
		raced = true
		// A newer search lands while this one is still resolving.
		s, getErr := e.sessions.Get(ctx, "sess-1")
		require.NoError(t, getErr)
		_, changeErr := s.ChangeSearch(domainselection.Search{PartySize: 1}, time.Now())
		require.NoError(t, changeErr)
		require.NoError(t, e.sessions.Save(ctx, s))
		return groups, err
	})

	out, err := (&ChangeSearchHandler{Deps: e.deps}).Handle(e.ctx(t), ChangeSearchCommand{
		SessionID: "sess-1", CheckIn: "2024-04-01", CheckOut: "2024-04-03", PartySize: 2,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(3), out.Generation)
	assert.Empty(t, out.Groups, "results of generation 2 must not attach to generation 3")
	assert.Equal(t, 1, out.PartySize)
}

func TestGetQuoteAndCheckout(t *testing.T) {
	e := newEnv(t)
	e.start(t, "2024-03-04", "2024-03-06", 2)
	_, err := (&GetQuoteHandler{UoWFactory: e.factory}).Handle(context.Background(), GetQuoteQuery{SessionID: "sess-1"})
	assert.ErrorIs(t, err, domainselection.ErrEmptySelection)

	_, err = (&AddInstancesHandler{Deps: e.deps}).Handle(e.ctx(t), AddInstancesCommand{SessionID: "sess-1", GroupID: "d1", Quantity: 1})
	require.NoError(t, err)

	q, err := (&GetQuoteHandler{UoWFactory: e.factory}).Handle(context.Background(), GetQuoteQuery{SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, 2, q.Nights)
	assert.Equal(t, "2000.00", q.Subtotal.Amount)
	assert.Equal(t, "420.00", q.Tax.Amount)
	assert.Equal(t, "2420.00", q.Total.Amount)

	checkout, err := (&PrepareCheckoutHandler{Deps: e.deps, CheckoutURL: "https://pay.example/checkout"}).Handle(e.ctx(t), PrepareCheckoutCommand{SessionID: "sess-1"})
	require.NoError(t, err)
	assert.Equal(t, []string{"d1"}, checkout.InstanceIDs)
	assert.Contains(t, checkout.Query, "rooms=d1")
	assert.Contains(t, checkout.URL, "https://pay.example/checkout?")

	records := e.box.Records()
	assert.Equal(t, "checkout.handoff_prepared", records[len(records)-1].Name)
}

func TestPrepareCheckout_RequiresDates(t *testing.T) {
	e := newEnv(t)
	e.start(t, "", "", 2)
	_, err := (&AddInstancesHandler{Deps: e.deps}).Handle(e.ctx(t), AddInstancesCommand{SessionID: "sess-1", GroupID: "d1", Quantity: 1})
	require.NoError(t, err)

	_, err = (&PrepareCheckoutHandler{Deps: e.deps}).Handle(e.ctx(t), PrepareCheckoutCommand{SessionID: "sess-1"})
	assert.ErrorIs(t, err, domainselection.ErrMissingDateRange)
}

func TestGetSession_NotFound(t *testing.T) {
	e := newEnv(t)
	_, err := (&GetSessionHandler{UoWFactory: e.factory}).Handle(context.Background(), GetSessionQuery{SessionID: "nope"})
	assert.ErrorIs(t, err, domainselection.ErrSessionNotFound)
}
