package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"stayquote/internal/domain/availability"
	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/events"
	"stayquote/internal/domain/shared/money"
)

var (
	ErrInsufficientAvailability = errors.New("selection: insufficient availability")
	ErrInvalidQuantity          = errors.New("selection: quantity must be positive")
	ErrUnknownGroup             = errors.New("selection: unknown room group")
	ErrNoSnapshot               = errors.New("selection: availability not resolved for current search")
	ErrStaleSnapshot            = errors.New("selection: availability result belongs to an outdated search")
	ErrEmptySelection           = errors.New("selection: no rooms selected")
	ErrMissingDateRange         = errors.New("selection: stay dates are required")
	ErrInvalidPartySize         = errors.New("selection: party size cannot be negative")
	ErrSessionNotFound          = errors.New("selection: session not found")
	ErrConcurrentUpdate         = errors.New("selection: session was modified concurrently")
	ErrCorruptSelection         = errors.New("selection: selected instance is not available")
)

type SessionID string

type SelectionID string

type State string

const (
	StateNoSelection  State = "NO_SELECTION"
	StateHasSelection State = "HAS_SELECTION"
	StateReadyToQuote State = "READY_TO_QUOTE"
)

// IDGenerator issues selection ids. It must never return the same id twice.
type IDGenerator func() SelectionID

func UUIDGenerator() SelectionID {
	return SelectionID(uuid.NewString())
}

// Search holds what the shopper asked for. Stay is nil until dates are chosen.
type Search struct {
	Stay      *daterange.DateRange
	PartySize int
}

func (s Search) Validate() error {
	if s.PartySize < 0 {
		return ErrInvalidPartySize
	}
	if s.Stay != nil {
		return s.Stay.Validate()
	}
	return nil
}

// SelectedRoomInstance is one physical room the shopper picked.
type SelectedRoomInstance struct {
	SelectionID  SelectionID
	InstanceID   rooms.RoomID
	GroupID      rooms.GroupID
	GroupName    string
	DisplayIndex int
	BasePrice    money.Money
	Rules        []pricing.AdjustmentRule
}

// Label is display text such as "Double #2".
func (s SelectedRoomInstance) Label() string {
	return fmt.Sprintf("%s #%d", s.GroupName, s.DisplayIndex)
}

// Session is one shopper's in-progress booking attempt at a property.
// Generation grows every time the search changes; availability resolved for an older
// generation is rejected.
type Session struct {
	ID          SessionID
	PropertyID  rooms.PropertyID
	Search      Search
	Generation  int64
	HasSnapshot bool
	Snapshot    []availability.GroupAvailability
	Items       []SelectedRoomInstance
	Version     int64
	CreatedAt   time.Time
	UpdatedAt   time.Time

	newID IDGenerator
	events.EventRecorder
}

type Repository interface {
	Get(ctx context.Context, id SessionID) (*Session, error)
	// Save fails with ErrConcurrentUpdate when the stored version differs from session.Version.
	Save(ctx context.Context, session *Session) error
	Delete(ctx context.Context, id SessionID) error
}

func NewSession(id SessionID, property rooms.PropertyID, search Search, now time.Time) (*Session, error) {
	if err := search.Validate(); err != nil {
		return nil, err
	}
	now = now.UTC()
	s := &Session{
		ID:         id,
		PropertyID: property,
		Search:     search,
		Generation: 1,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	s.Record(SessionStarted{SessionID: string(id), PropertyID: string(property), At: now})
	return s, nil
}

// UseIDGenerator swaps the selection id source; nil restores UUIDs.
func (s *Session) UseIDGenerator(gen IDGenerator) {
	s.newID = gen
}

func (s *Session) nextID() SelectionID {
	if s.newID == nil {
		return UUIDGenerator()
	}
	return s.newID()
}

// ChangeSearch starts a new generation. The snapshot and the selection are dropped because
// instance ids drawn for the old search may not be free for the new one.
func (s *Session) ChangeSearch(search Search, now time.Time) (int64, error) {
	if err := search.Validate(); err != nil {
		return s.Generation, err
	}
	s.Search = search
	s.Generation++
	s.HasSnapshot = false
	s.Snapshot = nil
	s.Items = nil
	s.UpdatedAt = now.UTC()
	s.Record(SearchChanged{SessionID: string(s.ID), Generation: s.Generation, At: s.UpdatedAt})
	return s.Generation, nil
}

// ApplySnapshot stores availability resolved for generation. Results for older generations
// are discarded with ErrStaleSnapshot.
func (s *Session) ApplySnapshot(generation int64, groups []availability.GroupAvailability, now time.Time) error {
	if generation != s.Generation {
		return fmt.Errorf("%w: got %d, current %d", ErrStaleSnapshot, generation, s.Generation)
	}
	for _, g := range groups {
		if err := g.Validate(); err != nil {
			return err
		}
	}
	s.Snapshot = append([]availability.GroupAvailability(nil), groups...)
	s.HasSnapshot = true
	s.UpdatedAt = now.UTC()
	return nil
}

func (s *Session) group(id rooms.GroupID) (availability.GroupAvailability, error) {
	if !s.HasSnapshot {
		return availability.GroupAvailability{}, ErrNoSnapshot
	}
	for _, g := range s.Snapshot {
		if g.Group.ID == id {
			return g, nil
		}
	}
	return availability.GroupAvailability{}, fmt.Errorf("%w: %s", ErrUnknownGroup, id)
}

func (s *Session) selectedFrom(id rooms.GroupID) int {
	n := 0
	for _, item := range s.Items {
		if item.GroupID == id {
			n++
		}
	}
	return n
}

// RemainingAvailable is the group's free count minus what is already selected from it.
func (s *Session) RemainingAvailable(id rooms.GroupID) (int, error) {
	g, err := s.group(id)
	if err != nil {
		return 0, err
	}
	return g.AvailableCount - s.selectedFrom(id), nil
}

// AddInstances selects quantity free instances of a group, all or nothing.
func (s *Session) AddInstances(id rooms.GroupID, quantity int, now time.Time) ([]SelectedRoomInstance, error) {
	if quantity <= 0 {
		return nil, ErrInvalidQuantity
	}
	g, err := s.group(id)
	if err != nil {
		return nil, err
	}
	remaining := g.AvailableCount - s.selectedFrom(id)
	if quantity > remaining {
		return nil, fmt.Errorf("%w: %d requested, %d left in %s", ErrInsufficientAvailability, quantity, remaining, g.Group.Name)
	}

	used := make(map[rooms.RoomID]struct{}, len(s.Items))
	for _, item := range s.Items {
		used[item.InstanceID] = struct{}{}
	}
	added := make([]SelectedRoomInstance, 0, quantity)
	for _, instance := range g.AvailableInstanceIDs {
		if len(added) == quantity {
			break
		}
		if _, taken := used[instance]; taken {
			continue
		}
		added = append(added, SelectedRoomInstance{
			SelectionID:  s.nextID(),
			InstanceID:   instance,
			GroupID:      g.Group.ID,
			GroupName:    g.Group.Name,
			DisplayIndex: len(added) + 1,
			BasePrice:    g.Group.BasePrice,
			Rules:        append([]pricing.AdjustmentRule(nil), g.Group.Rules...),
		})
	}
	if len(added) != quantity {
		return nil, fmt.Errorf("%w: %s", ErrCorruptSelection, g.Group.ID)
	}

	s.Items = append(s.Items, added...)
	s.UpdatedAt = now.UTC()
	return added, nil
}

// RemoveInstance drops one selected room. Unknown ids are ignored.
func (s *Session) RemoveInstance(id SelectionID, now time.Time) bool {
	for i, item := range s.Items {
		if item.SelectionID == id {
			s.Items = append(s.Items[:i:i], s.Items[i+1:]...)
			s.UpdatedAt = now.UTC()
			return true
		}
	}
	return false
}

func (s *Session) ClearAll(now time.Time) {
	s.Items = nil
	s.UpdatedAt = now.UTC()
}

func (s *Session) Selected() []SelectedRoomInstance {
	return append([]SelectedRoomInstance(nil), s.Items...)
}

func (s *Session) State() State {
	if len(s.Items) == 0 {
		return StateNoSelection
	}
	if s.Search.Stay == nil || s.Search.Stay.Validate() != nil {
		return StateHasSelection
	}
	return StateReadyToQuote
}

// ReadyToQuote explains why the session cannot proceed to a quote, if it cannot.
func (s *Session) ReadyToQuote() error {
	if s.Search.Stay == nil || s.Search.Stay.Validate() != nil {
		return ErrMissingDateRange
	}
	if len(s.Items) == 0 {
		return ErrEmptySelection
	}
	return nil
}

// CheckSelection verifies that every selected instance is free in its group and picked once.
func (s *Session) CheckSelection() error {
	seen := make(map[rooms.RoomID]struct{}, len(s.Items))
	for _, item := range s.Items {
		if _, dup := seen[item.InstanceID]; dup {
			return fmt.Errorf("%w: %s selected twice", ErrCorruptSelection, item.InstanceID)
		}
		seen[item.InstanceID] = struct{}{}
		g, err := s.group(item.GroupID)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrCorruptSelection, err)
		}
		found := false
		for _, id := range g.AvailableInstanceIDs {
			if id == item.InstanceID {
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", ErrCorruptSelection, item.InstanceID)
		}
	}
	return nil
}
