package reservations

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/IBM/sarama"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainrooms "stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/infra/storage/memory"
)

type fixture struct {
	calendars *memory.CalendarRepository
	box       *memory.Outbox
	handler   *Handler
}

func newFixture() *fixture {
	f := &fixture{calendars: memory.NewCalendarRepository(), box: memory.NewOutbox(nil)}
	f.handler = &Handler{
		UoWFactory: memory.Factory{
			RoomsRepo:     memory.NewRoomRepository(),
			CalendarsRepo: f.calendars,
			SessionsRepo:  memory.NewSessionRepository(0),
		},
		Inbox:  memory.NewInbox(),
		Outbox: f.box,
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:    func() time.Time { return time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) },
	}
	return f
}

func event(t *testing.T, id, kind string, data map[string]any) []byte {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"specversion": "1.0", "id": id, "type": kind, "data": data})
	require.NoError(t, err)
	return raw
}

func stay(t *testing.T, in, out string) daterange.DateRange {
	t.Helper()
	dr, err := daterange.Parse(in, out)
	require.NoError(t, err)
	return dr
}

func (f *fixture) free(t *testing.T, room, in, out string) bool {
	t.Helper()
	cal, err := f.calendars.Calendar(context.Background(), domainrooms.RoomID(room))
	require.NoError(t, err)
	return cal.IsFree(stay(t, in, out))
}

func TestApply_CreatedBlocksEveryRoom(t *testing.T) {
	f := newFixture()
	raw := event(t, "e1", "reservation.created.v1", map[string]any{
		"reservation_id": "res-1", "room_ids": []string{"d1", "s1"}, "check_in": "2024-03-04", "check_out": "2024-03-06",
	})

	require.NoError(t, f.handler.Handle(context.Background(), &sarama.ConsumerMessage{Value: raw}))

	assert.False(t, f.free(t, "d1", "2024-03-05", "2024-03-07"))
	assert.False(t, f.free(t, "s1", "2024-03-04", "2024-03-05"))
	assert.True(t, f.free(t, "d1", "2024-03-06", "2024-03-08"))
	records := f.box.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "calendar.blocked", records[0].Name)
}

func TestApply_RedeliveryIsIgnored(t *testing.T) {
	f := newFixture()
	raw := event(t, "e1", "reservation.created", map[string]any{
		"reservation_id": "res-1", "room_id": "d1", "check_in": "2024-03-04", "check_out": "2024-03-06",
	})
	require.NoError(t, f.handler.Apply(context.Background(), raw))
	require.NoError(t, f.handler.Apply(context.Background(), raw))

	cal, err := f.calendars.Calendar(context.Background(), "d1")
	require.NoError(t, err)
	assert.Len(t, cal.Blocks, 1)
	assert.Equal(t, int64(1), cal.Version)
}

func TestApply_CancelledReleases(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.handler.Apply(context.Background(), event(t, "e1", "reservation.created", map[string]any{
		"reservation_id": "res-1", "room_id": "d1", "check_in": "2024-03-04", "check_out": "2024-03-06",
	})))
	require.NoError(t, f.handler.Apply(context.Background(), event(t, "e2", "reservation.cancelled", map[string]any{
		"reservation_id": "res-1", "room_id": "d1",
	})))

	assert.True(t, f.free(t, "d1", "2024-03-04", "2024-03-06"))

	// cancelling something never reserved is not an error
	require.NoError(t, f.handler.Apply(context.Background(), event(t, "e3", "reservation.cancelled", map[string]any{
		"reservation_id": "res-9", "room_id": "d2",
	})))
}

func TestApply_OverlapIsRecordedNotRetried(t *testing.T) {
	f := newFixture()
	require.NoError(t, f.handler.Apply(context.Background(), event(t, "e1", "reservation.created", map[string]any{
		"reservation_id": "res-1", "room_id": "d1", "check_in": "2024-03-04", "check_out": "2024-03-06",
	})))

	err := f.handler.Apply(context.Background(), event(t, "e2", "reservation.created", map[string]any{
		"reservation_id": "res-2", "room_id": "d1", "check_in": "2024-03-05", "check_out": "2024-03-07",
	}))
	require.NoError(t, err)

	records := f.box.Records()
	require.Len(t, records, 2)
	assert.Equal(t, "calendar.overbooking_prevented", records[1].Name)
}

func TestApply_DropsMalformedAndForeignEvents(t *testing.T) {
	f := newFixture()

	assert.NoError(t, f.handler.Apply(context.Background(), []byte("not json")))
	assert.NoError(t, f.handler.Apply(context.Background(), event(t, "e1", "payment.captured", map[string]any{"x": 1})))
	assert.NoError(t, f.handler.Apply(context.Background(), event(t, "e2", "reservation.created", map[string]any{
		"reservation_id": "res-1", "check_in": "2024-03-04", "check_out": "2024-03-06",
	})))
	assert.NoError(t, f.handler.Apply(context.Background(), event(t, "e3", "reservation.created", map[string]any{
		"reservation_id": "res-1", "room_id": "d1", "check_in": "2024-03-06", "check_out": "2024-03-04",
	})))

	assert.Empty(t, f.box.Records())
	assert.True(t, f.free(t, "d1", "2024-03-01", "2024-03-31"))
}
