package fixtures

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/shopspring/decimal"

	domainavailability "stayquote/internal/domain/availability"
	domainpricing "stayquote/internal/domain/pricing"
	domainrooms "stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

type Room struct {
	ID          string  `json:"id"`
	PropertyID  string  `json:"property_id"`
	TypeID      string  `json:"type_id"`
	TypeName    string  `json:"type_name"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Capacity    int     `json:"capacity"`
	BasePrice   string  `json:"base_price"`
	Currency    string  `json:"currency"`
	Active      *bool   `json:"active"`
	Rules       []Rule  `json:"rules"`
	Blocks      []Block `json:"blocks"`
}

type Rule struct {
	Kind    string          `json:"kind"`
	Percent decimal.Decimal `json:"percent"`
	Active  bool            `json:"active"`
	From    string          `json:"from"`
	To      string          `json:"to"`
}

type Block struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Reason    string `json:"reason"`
	Reference string `json:"reference"`
}

// Decode reads a JSON array of rooms.
func Decode(data []byte) ([]Room, error) {
	var out []Room
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return out, nil
}

// ToDomain converts a fixture into a validated room. Unknown rule kinds are rejected.
func (r Room) ToDomain(defaultCurrency string) (domainrooms.PhysicalRoom, error) {
	currency := r.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	price, err := money.Parse(r.BasePrice, currency)
	if err != nil {
		return domainrooms.PhysicalRoom{}, fmt.Errorf("room %s: %w", r.ID, err)
	}
	rules := make([]domainpricing.AdjustmentRule, 0, len(r.Rules))
	for _, fr := range r.Rules {
		kind, err := domainpricing.ParseRuleKind(fr.Kind)
		if err != nil {
			return domainrooms.PhysicalRoom{}, fmt.Errorf("room %s: %w", r.ID, err)
		}
		rules = append(rules, domainpricing.AdjustmentRule{Kind: kind, Percent: fr.Percent, Active: fr.Active, From: fr.From, To: fr.To})
	}
	room := domainrooms.PhysicalRoom{
		ID:          domainrooms.RoomID(r.ID),
		PropertyID:  domainrooms.PropertyID(r.PropertyID),
		TypeID:      r.TypeID,
		TypeName:    r.TypeName,
		Name:        r.Name,
		Description: r.Description,
		Capacity:    r.Capacity,
		BasePrice:   price,
		Rules:       rules,
		Active:      r.Active == nil || *r.Active,
	}
	return room, room.Validate()
}

// Load imports rooms and their blocks from path. A missing file is not an error.
func Load(ctx context.Context, path, currency string, rooms domainrooms.Repository, calendars domainavailability.Repository, logger *slog.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Info("room fixtures file not found, skipping", "path", path)
			return 0, nil
		}
		return 0, fmt.Errorf("read fixtures: %w", err)
	}
	items, err := Decode(data)
	if err != nil {
		return 0, err
	}

	now := time.Now().UTC()
	imported := 0
	for _, fx := range items {
		room, err := fx.ToDomain(currency)
		if err != nil {
			logger.Error("fixture invalid", "room_id", fx.ID, "error", err)
			continue
		}
		if err := rooms.Save(ctx, room); err != nil {
			return imported, fmt.Errorf("store room %s: %w", room.ID, err)
		}
		if len(fx.Blocks) > 0 {
			if err := seedBlocks(ctx, calendars, room.ID, fx.Blocks, now); err != nil {
				logger.Error("cannot seed calendar", "room_id", room.ID, "error", err)
			}
		}
		imported++
	}
	logger.Info("room fixtures imported", "count", imported, "path", path)
	return imported, nil
}

func seedBlocks(ctx context.Context, calendars domainavailability.Repository, id domainrooms.RoomID, blocks []Block, now time.Time) error {
	cal, err := calendars.Calendar(ctx, id)
	if err != nil {
		return err
	}
	for _, b := range blocks {
		dr, err := daterange.Parse(b.From, b.To)
		if err != nil {
			return err
		}
		reason := domainavailability.BlockReason(b.Reason)
		if reason == domainavailability.ReasonReservation {
			err = cal.Reserve(dr, b.Reference, now)
		} else {
			err = cal.BlockRange(dr, reason, b.Reference, now)
		}
		if err != nil && !errors.Is(err, domainavailability.ErrOverlappingRange) {
			return err
		}
	}
	cal.ClearEvents()
	return calendars.Save(ctx, cal)
}
