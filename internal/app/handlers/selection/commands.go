package selection

import (
	"context"
	"fmt"
	"log/slog"

	"stayquote/internal/app/commands"
	"stayquote/internal/app/dto"
	appavailability "stayquote/internal/app/handlers/availability"
	"stayquote/internal/app/outbox"
	"stayquote/internal/app/uow"
	"stayquote/internal/domain/quote"
	domainrooms "stayquote/internal/domain/rooms"
	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/events"
)

const (
	startSessionKey    = "selection.start"
	changeSearchKey    = "selection.change_search"
	addInstancesKey    = "selection.add_instances"
	removeInstanceKey  = "selection.remove_instance"
	clearSelectionKey  = "selection.clear"
	prepareCheckoutKey = "selection.prepare_checkout"
)

func parseSearch(checkIn, checkOut string, partySize int) (domainselection.Search, error) {
	stay, err := appavailability.StayFromStrings(checkIn, checkOut)
	if err != nil {
		return domainselection.Search{}, err
	}
	search := domainselection.Search{Stay: stay, PartySize: partySize}
	return search, search.Validate()
}

// StartSessionCommand opens a selection session at a property and resolves its groups.
type StartSessionCommand struct {
	PropertyID string
	CheckIn    string
	CheckOut   string
	PartySize  int
	RequestKey string
}

func (c StartSessionCommand) Key() string            { return startSessionKey }
func (c StartSessionCommand) IdempotencyKey() string { return c.RequestKey }
func (c StartSessionCommand) ResultPrototype() any   { return &dto.Session{} }

func (c StartSessionCommand) Validate() error {
	if c.PropertyID == "" {
		return domainrooms.ErrPropertyNotFound
	}
	_, err := parseSearch(c.CheckIn, c.CheckOut, c.PartySize)
	return err
}

type StartSessionHandler struct {
	Deps
}

func (h *StartSessionHandler) Handle(ctx context.Context, cmd StartSessionCommand) (dto.Session, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.Session{}, uow.ErrUnitOfWorkMissing
	}
	search, err := parseSearch(cmd.CheckIn, cmd.CheckOut, cmd.PartySize)
	if err != nil {
		return dto.Session{}, err
	}
	s, err := domainselection.NewSession(h.sessionID(), domainrooms.PropertyID(cmd.PropertyID), search, h.now())
	if err != nil {
		return dto.Session{}, err
	}
	s.UseIDGenerator(h.SelectionIDs)
	if err := h.refresh(ctx, s, s.Generation); err != nil {
		return dto.Session{}, err
	}
	if err := h.save(ctx, unit, s); err != nil {
		return dto.Session{}, err
	}
	h.logger().InfoContext(ctx, "selection session started",
		slog.String("session_id", string(s.ID)),
		slog.String("property_id", string(s.PropertyID)),
		slog.Bool("resolved", s.HasSnapshot),
	)
	return dto.MapSession(s), nil
}

// ChangeSearchCommand replaces the dates or party size. The current selection is dropped.
type ChangeSearchCommand struct {
	SessionID string
	CheckIn   string
	CheckOut  string
	PartySize int
}

func (c ChangeSearchCommand) Key() string { return changeSearchKey }

func (c ChangeSearchCommand) Validate() error {
	if c.SessionID == "" {
		return domainselection.ErrSessionNotFound
	}
	_, err := parseSearch(c.CheckIn, c.CheckOut, c.PartySize)
	return err
}

type ChangeSearchHandler struct {
	Deps
}

func (h *ChangeSearchHandler) Handle(ctx context.Context, cmd ChangeSearchCommand) (dto.Session, error) {
	search, err := parseSearch(cmd.CheckIn, cmd.CheckOut, cmd.PartySize)
	if err != nil {
		return dto.Session{}, err
	}
	var generation int64
	changed, err := h.mutate(ctx, cmd.SessionID, func(s *domainselection.Session) error {
		generation, err = s.ChangeSearch(search, h.now())
		return err
	})
	if err != nil {
		return dto.Session{}, err
	}

	groups, ok, err := h.resolve(ctx, changed)
	if err != nil {
		return dto.Session{}, err
	}
	if !ok {
		return dto.MapSession(changed), nil
	}
	// Another request may have changed the search while we were resolving.
	s, err := h.mutate(ctx, cmd.SessionID, func(s *domainselection.Session) error {
		return h.apply(ctx, s, generation, groups)
	})
	if err != nil {
		return dto.Session{}, err
	}
	return dto.MapSession(s), nil
}

// AddInstancesCommand selects Quantity free rooms of a group.
type AddInstancesCommand struct {
	SessionID string
	GroupID   string
	Quantity  int
}

func (c AddInstancesCommand) Key() string { return addInstancesKey }

func (c AddInstancesCommand) Validate() error {
	if c.SessionID == "" {
		return domainselection.ErrSessionNotFound
	}
	if c.GroupID == "" {
		return domainselection.ErrUnknownGroup
	}
	if c.Quantity <= 0 {
		return domainselection.ErrInvalidQuantity
	}
	return nil
}

type AddInstancesHandler struct {
	Deps
}

func (h *AddInstancesHandler) Handle(ctx context.Context, cmd AddInstancesCommand) (dto.SelectionChange, error) {
	var added []domainselection.SelectedRoomInstance
	s, err := h.mutate(ctx, cmd.SessionID, func(s *domainselection.Session) error {
		if !s.HasSnapshot {
			if err := h.refresh(ctx, s, s.Generation); err != nil {
				return err
			}
		}
		var err error
		added, err = s.AddInstances(domainrooms.GroupID(cmd.GroupID), cmd.Quantity, h.now())
		if err != nil {
			return err
		}
		return s.CheckSelection()
	})
	if err != nil {
		return dto.SelectionChange{}, err
	}
	return dto.SelectionChange{Added: dto.MapSelected(added), Session: dto.MapSession(s)}, nil
}

// RemoveInstanceCommand drops one selected room. Unknown ids succeed.
type RemoveInstanceCommand struct {
	SessionID   string
	SelectionID string
}

func (c RemoveInstanceCommand) Key() string { return removeInstanceKey }

type RemoveInstanceHandler struct {
	Deps
}

func (h *RemoveInstanceHandler) Handle(ctx context.Context, cmd RemoveInstanceCommand) (dto.Session, error) {
	s, err := h.mutate(ctx, cmd.SessionID, func(s *domainselection.Session) error {
		s.RemoveInstance(domainselection.SelectionID(cmd.SelectionID), h.now())
		return nil
	})
	if err != nil {
		return dto.Session{}, err
	}
	return dto.MapSession(s), nil
}

type ClearSelectionCommand struct {
	SessionID string
}

func (c ClearSelectionCommand) Key() string { return clearSelectionKey }

type ClearSelectionHandler struct {
	Deps
}

func (h *ClearSelectionHandler) Handle(ctx context.Context, cmd ClearSelectionCommand) (dto.Session, error) {
	s, err := h.mutate(ctx, cmd.SessionID, func(s *domainselection.Session) error {
		s.ClearAll(h.now())
		return nil
	})
	if err != nil {
		return dto.Session{}, err
	}
	return dto.MapSession(s), nil
}

// PrepareCheckoutCommand freezes a ready session into checkout query parameters.
type PrepareCheckoutCommand struct {
	SessionID  string
	RequestKey string
}

func (c PrepareCheckoutCommand) Key() string            { return prepareCheckoutKey }
func (c PrepareCheckoutCommand) IdempotencyKey() string { return c.RequestKey }
func (c PrepareCheckoutCommand) ResultPrototype() any   { return &dto.Checkout{} }

type PrepareCheckoutHandler struct {
	Deps
	// CheckoutURL is where the handoff query is appended, if set.
	CheckoutURL string
}

func (h *PrepareCheckoutHandler) Handle(ctx context.Context, cmd PrepareCheckoutCommand) (dto.Checkout, error) {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return dto.Checkout{}, uow.ErrUnitOfWorkMissing
	}
	s, err := h.load(ctx, unit, cmd.SessionID)
	if err != nil {
		return dto.Checkout{}, err
	}
	handoff, err := quote.PrepareHandoff(s)
	if err != nil {
		return dto.Checkout{}, err
	}
	ev := handoff.Event(h.now())
	if err := outbox.RecordDomainEvents(ctx, h.Outbox, h.Encoder, []events.DomainEvent{ev}); err != nil {
		return dto.Checkout{}, fmt.Errorf("selection: record handoff: %w", err)
	}
	h.logger().InfoContext(ctx, "checkout handoff prepared",
		slog.String("session_id", cmd.SessionID),
		slog.Int("rooms", len(handoff.InstanceIDs)),
		slog.String("total", ev.Total),
	)
	return dto.MapCheckout(handoff, h.CheckoutURL), nil
}

var (
	_ commands.Handler[StartSessionCommand, dto.Session]         = (*StartSessionHandler)(nil)
	_ commands.Handler[ChangeSearchCommand, dto.Session]         = (*ChangeSearchHandler)(nil)
	_ commands.Handler[AddInstancesCommand, dto.SelectionChange] = (*AddInstancesHandler)(nil)
	_ commands.Handler[RemoveInstanceCommand, dto.Session]       = (*RemoveInstanceHandler)(nil)
	_ commands.Handler[ClearSelectionCommand, dto.Session]       = (*ClearSelectionHandler)(nil)
	_ commands.Handler[PrepareCheckoutCommand, dto.Checkout]     = (*PrepareCheckoutHandler)(nil)
)
