package selection

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayquote/internal/domain/availability"
	"stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

var now = time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)

func counterIDs() IDGenerator {
	n := 0
	return func() SelectionID {
		n++
		return SelectionID(fmt.Sprintf("sel-%d", n))
	}
}

func groupAvailability(t *testing.T, id string, total int, free ...string) availability.GroupAvailability {
	t.Helper()
	g := rooms.RoomTypeGroup{
		ID:             rooms.GroupID(id),
		Name:           "Double",
		Capacity:       2,
		BasePrice:      money.Must("1000", "ARS"),
		TotalInstances: total,
	}
	for i := 1; i <= total; i++ {
		g.InstanceIDs = append(g.InstanceIDs, rooms.RoomID(fmt.Sprintf("%s-%d", id, i)))
	}
	ids := make([]rooms.RoomID, 0, len(free))
	for _, f := range free {
		ids = append(ids, rooms.RoomID(f))
	}
	ga, err := availability.NewGroupAvailability(g, ids)
	require.NoError(t, err)
	return ga
}

func newSession(t *testing.T, withDates bool) *Session {
	t.Helper()
	search := Search{PartySize: 2}
	if withDates {
		dr, err := daterange.Parse("2024-03-08", "2024-03-10")
		require.NoError(t, err)
		search.Stay = &dr
	}
	s, err := NewSession("sess-1", "hotel-1", search, now)
	require.NoError(t, err)
	s.UseIDGenerator(counterIDs())
	require.NoError(t, s.ApplySnapshot(s.Generation, []availability.GroupAvailability{
		groupAvailability(t, "dbl", 3, "dbl-1", "dbl-3"),
	}, now))
	return s
}

func TestAddInstances_DrawsFirstUnusedIDs(t *testing.T) {
	s := newSession(t, true)

	added, err := s.AddInstances("dbl", 1, now)
	require.NoError(t, err)
	require.Len(t, added, 1)
	assert.Equal(t, rooms.RoomID("dbl-1"), added[0].InstanceID)
	assert.Equal(t, 1, added[0].DisplayIndex)
	assert.Equal(t, "Double #1", added[0].Label())

	added, err = s.AddInstances("dbl", 1, now)
	require.NoError(t, err)
	assert.Equal(t, rooms.RoomID("dbl-3"), added[0].InstanceID)
	assert.Equal(t, SelectionID("sel-2"), added[0].SelectionID)

	assert.NoError(t, s.CheckSelection())
	remaining, err := s.RemainingAvailable("dbl")
	require.NoError(t, err)
	assert.Equal(t, 0, remaining)
}

func TestAddInstances_InsufficientAvailabilityLeavesStateUntouched(t *testing.T) {
	s := newSession(t, true)
	_, err := s.AddInstances("dbl", 1, now)
	require.NoError(t, err)
	before := s.Selected()
	updated := s.UpdatedAt

	_, err = s.AddInstances("dbl", 2, now.Add(time.Minute))

	assert.ErrorIs(t, err, ErrInsufficientAvailability)
	assert.Equal(t, before, s.Selected())
	assert.Equal(t, updated, s.UpdatedAt)
}

func TestAddInstances_RejectsBadInput(t *testing.T) {
	s := newSession(t, true)

	_, err := s.AddInstances("dbl", 0, now)
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = s.AddInstances("suite", 1, now)
	assert.ErrorIs(t, err, ErrUnknownGroup)
}

func TestAddInstances_BatchDisplayIndexes(t *testing.T) {
	s := newSession(t, true)
	added, err := s.AddInstances("dbl", 2, now)
	require.NoError(t, err)

	require.Len(t, added, 2)
	assert.Equal(t, 1, added[0].DisplayIndex)
	assert.Equal(t, 2, added[1].DisplayIndex)
	assert.NotEqual(t, added[0].SelectionID, added[1].SelectionID)
}

func TestRemoveInstance(t *testing.T) {
	s := newSession(t, true)
	added, err := s.AddInstances("dbl", 2, now)
	require.NoError(t, err)
	afterAdd, _ := s.RemainingAvailable("dbl")

	assert.False(t, s.RemoveInstance("missing", now))
	assert.Len(t, s.Items, 2)

	assert.True(t, s.RemoveInstance(added[0].SelectionID, now))
	afterRemove, _ := s.RemainingAvailable("dbl")
	assert.Equal(t, afterAdd+1, afterRemove)

	again, err := s.AddInstances("dbl", 1, now)
	require.NoError(t, err)
	assert.Equal(t, rooms.RoomID("dbl-1"), again[0].InstanceID)
	assert.NoError(t, s.CheckSelection())
}

func TestClearAll(t *testing.T) {
	s := newSession(t, true)
	_, err := s.AddInstances("dbl", 2, now)
	require.NoError(t, err)

	s.ClearAll(now)

	assert.Empty(t, s.Items)
	assert.Equal(t, StateNoSelection, s.State())
}

func TestStateMachine(t *testing.T) {
	s := newSession(t, false)
	assert.Equal(t, StateNoSelection, s.State())
	assert.ErrorIs(t, s.ReadyToQuote(), ErrMissingDateRange)

	_, err := s.AddInstances("dbl", 1, now)
	require.NoError(t, err)
	assert.Equal(t, StateHasSelection, s.State())
	assert.ErrorIs(t, s.ReadyToQuote(), ErrMissingDateRange)

	dated := newSession(t, true)
	assert.ErrorIs(t, dated.ReadyToQuote(), ErrEmptySelection)
	_, err = dated.AddInstances("dbl", 1, now)
	require.NoError(t, err)
	assert.Equal(t, StateReadyToQuote, dated.State())
	assert.NoError(t, dated.ReadyToQuote())
}

func TestChangeSearch_DiscardsSnapshotAndStaleResults(t *testing.T) {
	s := newSession(t, true)
	_, err := s.AddInstances("dbl", 1, now)
	require.NoError(t, err)
	oldGen := s.Generation

	dr, err := daterange.Parse("2024-04-01", "2024-04-03")
	require.NoError(t, err)
	gen, err := s.ChangeSearch(Search{Stay: &dr, PartySize: 3}, now)
	require.NoError(t, err)

	assert.Equal(t, oldGen+1, gen)
	assert.Empty(t, s.Items)
	assert.False(t, s.HasSnapshot)
	_, err = s.AddInstances("dbl", 1, now)
	assert.ErrorIs(t, err, ErrNoSnapshot)

	stale := s.ApplySnapshot(oldGen, []availability.GroupAvailability{groupAvailability(t, "dbl", 3, "dbl-2")}, now)
	assert.ErrorIs(t, stale, ErrStaleSnapshot)
	assert.False(t, s.HasSnapshot)

	require.NoError(t, s.ApplySnapshot(gen, []availability.GroupAvailability{groupAvailability(t, "dbl", 3, "dbl-2")}, now))
	added, err := s.AddInstances("dbl", 1, now)
	require.NoError(t, err)
	assert.Equal(t, rooms.RoomID("dbl-2"), added[0].InstanceID)
}

func TestChangeSearch_RejectsNegativeParty(t *testing.T) {
	s := newSession(t, true)
	gen := s.Generation

	_, err := s.ChangeSearch(Search{PartySize: -1}, now)

	assert.ErrorIs(t, err, ErrInvalidPartySize)
	assert.Equal(t, gen, s.Generation)
}

func TestNewSession_RecordsStart(t *testing.T) {
	s := newSession(t, false)
	evs := s.PendingEvents()
	require.Len(t, evs, 1)
	assert.Equal(t, "selection.session_started", evs[0].EventName())
	assert.Equal(t, "sess-1", evs[0].AggregateID())
}

func TestUUIDGenerator_Unique(t *testing.T) {
	seen := make(map[SelectionID]struct{})
	for i := 0; i < 1000; i++ {
		id := UUIDGenerator()
		_, dup := seen[id]
		require.False(t, dup)
		seen[id] = struct{}{}
	}
}
