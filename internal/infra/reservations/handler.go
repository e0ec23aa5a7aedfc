// Package reservations keeps room calendars in step with the booking system. Reservations
// are created and cancelled elsewhere; their events arrive as CloudEvents over Kafka.
package reservations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/IBM/sarama"

	"stayquote/internal/app/outbox"
	"stayquote/internal/app/uow"
	domainavailability "stayquote/internal/domain/availability"
	domainrooms "stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
)

const (
	TypeCreated   = "reservation.created"
	TypeCancelled = "reservation.cancelled"
)

var ErrMalformedEvent = errors.New("reservations: malformed event")

// Inbox deduplicates redelivered events.
type Inbox interface {
	Seen(ctx context.Context, eventID string) (bool, error)
}

type envelope struct {
	ID   string          `json:"id"`
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

type reservation struct {
	ReservationID string   `json:"reservation_id"`
	RoomID        string   `json:"room_id"`
	RoomIDs       []string `json:"room_ids"`
	CheckIn       string   `json:"check_in"`
	CheckOut      string   `json:"check_out"`
}

func (r reservation) rooms() []domainrooms.RoomID {
	seen := make(map[string]struct{})
	var out []domainrooms.RoomID
	for _, id := range append([]string{r.RoomID}, r.RoomIDs...) {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, domainrooms.RoomID(id))
	}
	return out
}

type Handler struct {
	UoWFactory uow.UoWFactory
	Inbox      Inbox
	Outbox     outbox.Outbox
	Encoder    outbox.EventEncoder
	Logger     *slog.Logger
	Now        func() time.Time
}

func (h *Handler) Handle(ctx context.Context, msg *sarama.ConsumerMessage) error {
	return h.Apply(ctx, msg.Value)
}

// Apply blocks or releases calendar ranges for one event. Malformed and unknown events are
// logged and acknowledged; only storage failures are returned so the broker redelivers.
func (h *Handler) Apply(ctx context.Context, raw []byte) error {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		h.logger().WarnContext(ctx, "reservation event dropped", "error", err)
		return nil
	}
	kind := strings.TrimSuffix(env.Type, ".v1")
	if kind != TypeCreated && kind != TypeCancelled {
		return nil
	}
	var res reservation
	if err := json.Unmarshal(env.Data, &res); err != nil || env.ID == "" || res.ReservationID == "" || len(res.rooms()) == 0 {
		h.logger().WarnContext(ctx, "reservation event dropped", "event_id", env.ID, "type", env.Type, "error", ErrMalformedEvent)
		return nil
	}
	var stay daterange.DateRange
	if kind == TypeCreated {
		var err error
		if stay, err = daterange.Parse(res.CheckIn, res.CheckOut); err != nil {
			h.logger().WarnContext(ctx, "reservation event dropped", "event_id", env.ID, "error", err)
			return nil
		}
	}

	_, txCtx, finish, err := uow.Begin(ctx, h.UoWFactory, uow.TxOptions{})
	if err != nil {
		return err
	}
	err = h.apply(txCtx, env.ID, kind, res, stay)
	if finish != nil {
		err = finish(err)
	}
	if err != nil {
		return err
	}
	if h.Outbox != nil {
		return h.Outbox.Flush(ctx)
	}
	return nil
}

func (h *Handler) apply(ctx context.Context, eventID, kind string, res reservation, stay daterange.DateRange) error {
	unit, ok := uow.FromContext(ctx)
	if !ok {
		return uow.ErrUnitOfWorkMissing
	}
	if h.Inbox != nil {
		seen, err := h.Inbox.Seen(ctx, eventID)
		if err != nil {
			return err
		}
		if seen {
			h.logger().DebugContext(ctx, "reservation event already applied", "event_id", eventID)
			return nil
		}
	}
	ids := res.rooms()
	calendars, err := unit.Calendars().Calendars(ctx, ids)
	if err != nil {
		return err
	}
	now := h.now()
	sources := make([]outbox.Source, 0, len(ids))
	for _, id := range ids {
		cal := calendars[id]
		if cal == nil {
			cal = domainavailability.NewCalendar(id)
		}
		sources = append(sources, cal)
		changed, err := h.change(ctx, cal, kind, res.ReservationID, stay, now)
		if err != nil {
			return err
		}
		if !changed {
			continue
		}
		if err := unit.Calendars().Save(ctx, cal); err != nil {
			return fmt.Errorf("reservations: save %s: %w", id, err)
		}
	}
	return outbox.RecordPending(ctx, h.Outbox, h.Encoder, sources...)
}

// change reports whether the calendar needs saving.
func (h *Handler) change(ctx context.Context, cal *domainavailability.AvailabilityCalendar, kind, reference string, stay daterange.DateRange, now time.Time) (bool, error) {
	switch kind {
	case TypeCreated:
		before := len(cal.Blocks)
		err := cal.Reserve(stay, reference, now)
		if errors.Is(err, domainavailability.ErrOverlappingRange) {
			h.logger().WarnContext(ctx, "reservation overlaps existing block",
				"room_id", cal.RoomID,
				"reservation_id", reference,
				"range", stay.String(),
			)
			return false, nil
		}
		return err == nil && len(cal.Blocks) != before, err
	default:
		err := cal.Release(reference, now)
		if errors.Is(err, domainavailability.ErrRangeNotFound) {
			return false, nil
		}
		return err == nil, err
	}
}

func (h *Handler) now() time.Time {
	if h.Now != nil {
		return h.Now().UTC()
	}
	return time.Now().UTC()
}

func (h *Handler) logger() *slog.Logger {
	if h.Logger != nil {
		return h.Logger
	}
	return slog.Default()
}
