// Package records holds the persisted shape of rooms, calendars and sessions. The same
// documents are written as BSON to Mongo and as JSON to Redis.
package records

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	domainavailability "stayquote/internal/domain/availability"
	"stayquote/internal/domain/pricing"
	domainrooms "stayquote/internal/domain/rooms"
	domainselection "stayquote/internal/domain/selection"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

// Money keeps the amount as a decimal string so no float ever touches a price.
type Money struct {
	Amount   string `bson:"amount" json:"amount"`
	Currency string `bson:"currency" json:"currency"`
}

func FromMoney(m money.Money) Money {
	return Money{Amount: m.Amount.String(), Currency: m.Currency}
}

func (m Money) ToDomain() (money.Money, error) {
	return money.Parse(m.Amount, m.Currency)
}

type Rule struct {
	Kind    string `bson:"kind" json:"kind"`
	Percent string `bson:"percent" json:"percent"`
	Active  bool   `bson:"active" json:"active"`
	From    string `bson:"from,omitempty" json:"from,omitempty"`
	To      string `bson:"to,omitempty" json:"to,omitempty"`
}

func FromRules(rules []pricing.AdjustmentRule) []Rule {
	out := make([]Rule, 0, len(rules))
	for _, r := range rules {
		out = append(out, Rule{Kind: string(r.Kind), Percent: r.Percent.String(), Active: r.Active, From: r.From, To: r.To})
	}
	return out
}

func RulesToDomain(in []Rule) ([]pricing.AdjustmentRule, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]pricing.AdjustmentRule, 0, len(in))
	for _, r := range in {
		kind, err := pricing.ParseRuleKind(r.Kind)
		if err != nil {
			return nil, err
		}
		pct, err := decimal.NewFromString(r.Percent)
		if err != nil {
			return nil, fmt.Errorf("records: rule percent %q: %w", r.Percent, err)
		}
		out = append(out, pricing.AdjustmentRule{Kind: kind, Percent: pct, Active: r.Active, From: r.From, To: r.To})
	}
	return out, nil
}

type Room struct {
	ID          string `bson:"_id" json:"id"`
	PropertyID  string `bson:"property_id" json:"property_id"`
	TypeID      string `bson:"type_id" json:"type_id"`
	TypeName    string `bson:"type_name" json:"type_name"`
	Name        string `bson:"name" json:"name"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	Capacity    int    `bson:"capacity" json:"capacity"`
	BasePrice   Money  `bson:"base_price" json:"base_price"`
	// PriceValue mirrors BasePrice for range filters.
	PriceValue float64 `bson:"price_value" json:"-"`
	Rules      []Rule  `bson:"rules" json:"rules"`
	Active     bool    `bson:"active" json:"active"`
}

func FromRoom(r domainrooms.PhysicalRoom) Room {
	value, _ := r.BasePrice.Amount.Float64()
	return Room{
		ID:          string(r.ID),
		PropertyID:  string(r.PropertyID),
		TypeID:      r.TypeID,
		TypeName:    r.TypeName,
		Name:        r.Name,
		Description: r.Description,
		Capacity:    r.Capacity,
		BasePrice:   FromMoney(r.BasePrice),
		PriceValue:  value,
		Rules:       FromRules(r.Rules),
		Active:      r.Active,
	}
}

func (r Room) ToDomain() (domainrooms.PhysicalRoom, error) {
	price, err := r.BasePrice.ToDomain()
	if err != nil {
		return domainrooms.PhysicalRoom{}, fmt.Errorf("records: room %s: %w", r.ID, err)
	}
	rules, err := RulesToDomain(r.Rules)
	if err != nil {
		return domainrooms.PhysicalRoom{}, fmt.Errorf("records: room %s: %w", r.ID, err)
	}
	return domainrooms.PhysicalRoom{
		ID:          domainrooms.RoomID(r.ID),
		PropertyID:  domainrooms.PropertyID(r.PropertyID),
		TypeID:      r.TypeID,
		TypeName:    r.TypeName,
		Name:        r.Name,
		Description: r.Description,
		Capacity:    r.Capacity,
		BasePrice:   price,
		Rules:       rules,
		Active:      r.Active,
	}, nil
}

// Range is a half-open stay stored as calendar days.
type Range struct {
	CheckIn  string `bson:"check_in" json:"check_in"`
	CheckOut string `bson:"check_out" json:"check_out"`
}

func FromRange(dr daterange.DateRange) Range {
	return Range{CheckIn: daterange.FormatDay(dr.CheckIn), CheckOut: daterange.FormatDay(dr.CheckOut)}
}

func (r Range) ToDomain() (daterange.DateRange, error) {
	return daterange.Parse(r.CheckIn, r.CheckOut)
}

type Block struct {
	Range     Range     `bson:"range" json:"range"`
	Reason    string    `bson:"reason" json:"reason"`
	Reference string    `bson:"reference,omitempty" json:"reference,omitempty"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}

type Calendar struct {
	RoomID  string  `bson:"_id" json:"room_id"`
	Blocks  []Block `bson:"blocks" json:"blocks"`
	Version int64   `bson:"version" json:"version"`
}

func FromCalendar(c *domainavailability.AvailabilityCalendar) Calendar {
	out := Calendar{RoomID: string(c.RoomID), Version: c.Version, Blocks: make([]Block, 0, len(c.Blocks))}
	for _, b := range c.Blocks {
		out.Blocks = append(out.Blocks, Block{Range: FromRange(b.Range), Reason: string(b.Reason), Reference: b.Reference, CreatedAt: b.CreatedAt})
	}
	return out
}

func (c Calendar) ToDomain() (*domainavailability.AvailabilityCalendar, error) {
	cal := domainavailability.NewCalendar(domainrooms.RoomID(c.RoomID))
	cal.Version = c.Version
	for _, b := range c.Blocks {
		dr, err := b.Range.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("records: calendar %s: %w", c.RoomID, err)
		}
		cal.Blocks = append(cal.Blocks, domainavailability.Block{
			Range:     dr,
			Reason:    domainavailability.BlockReason(b.Reason),
			Reference: b.Reference,
			CreatedAt: b.CreatedAt.UTC(),
		})
	}
	return cal, nil
}

type Group struct {
	ID             string   `bson:"id" json:"id"`
	PropertyID     string   `bson:"property_id" json:"property_id"`
	Name           string   `bson:"name" json:"name"`
	Description    string   `bson:"description,omitempty" json:"description,omitempty"`
	Capacity       int      `bson:"capacity" json:"capacity"`
	BasePrice      Money    `bson:"base_price" json:"base_price"`
	TotalInstances int      `bson:"total_instances" json:"total_instances"`
	Rules          []Rule   `bson:"rules" json:"rules"`
	InstanceIDs    []string `bson:"instance_ids" json:"instance_ids"`
	AvailableIDs   []string `bson:"available_ids" json:"available_ids"`
}

type Item struct {
	SelectionID  string `bson:"selection_id" json:"selection_id"`
	InstanceID   string `bson:"instance_id" json:"instance_id"`
	GroupID      string `bson:"group_id" json:"group_id"`
	GroupName    string `bson:"group_name" json:"group_name"`
	DisplayIndex int    `bson:"display_index" json:"display_index"`
	BasePrice    Money  `bson:"base_price" json:"base_price"`
	Rules        []Rule `bson:"rules" json:"rules"`
}

type Session struct {
	ID          string    `bson:"_id" json:"id"`
	PropertyID  string    `bson:"property_id" json:"property_id"`
	Stay        *Range    `bson:"stay,omitempty" json:"stay,omitempty"`
	PartySize   int       `bson:"party_size" json:"party_size"`
	Generation  int64     `bson:"generation" json:"generation"`
	HasSnapshot bool      `bson:"has_snapshot" json:"has_snapshot"`
	Snapshot    []Group   `bson:"snapshot" json:"snapshot"`
	Items       []Item    `bson:"items" json:"items"`
	Version     int64     `bson:"version" json:"version"`
	CreatedAt   time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time `bson:"updated_at" json:"updated_at"`
	// ExpiresAt drives the Mongo TTL index.
	ExpiresAt time.Time `bson:"expires_at,omitempty" json:"-"`
}

func ids[T ~string](in []T) []string {
	out := make([]string, 0, len(in))
	for _, id := range in {
		out = append(out, string(id))
	}
	return out
}

func roomIDs(in []string) []domainrooms.RoomID {
	out := make([]domainrooms.RoomID, 0, len(in))
	for _, id := range in {
		out = append(out, domainrooms.RoomID(id))
	}
	return out
}

func FromSession(s *domainselection.Session) Session {
	out := Session{
		ID:          string(s.ID),
		PropertyID:  string(s.PropertyID),
		PartySize:   s.Search.PartySize,
		Generation:  s.Generation,
		HasSnapshot: s.HasSnapshot,
		Snapshot:    make([]Group, 0, len(s.Snapshot)),
		Items:       make([]Item, 0, len(s.Items)),
		Version:     s.Version,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
	if s.Search.Stay != nil {
		stay := FromRange(*s.Search.Stay)
		out.Stay = &stay
	}
	for _, ga := range s.Snapshot {
		g := ga.Group
		out.Snapshot = append(out.Snapshot, Group{
			ID:             string(g.ID),
			PropertyID:     string(g.PropertyID),
			Name:           g.Name,
			Description:    g.Description,
			Capacity:       g.Capacity,
			BasePrice:      FromMoney(g.BasePrice),
			TotalInstances: g.TotalInstances,
			Rules:          FromRules(g.Rules),
			InstanceIDs:    ids(g.InstanceIDs),
			AvailableIDs:   ids(ga.AvailableInstanceIDs),
		})
	}
	for _, item := range s.Items {
		out.Items = append(out.Items, Item{
			SelectionID:  string(item.SelectionID),
			InstanceID:   string(item.InstanceID),
			GroupID:      string(item.GroupID),
			GroupName:    item.GroupName,
			DisplayIndex: item.DisplayIndex,
			BasePrice:    FromMoney(item.BasePrice),
			Rules:        FromRules(item.Rules),
		})
	}
	return out
}

// ToDomain rebuilds the aggregate. Snapshot groups go through NewGroupAvailability so a
// corrupted document cannot smuggle an inconsistent result into a session.
func (d Session) ToDomain() (*domainselection.Session, error) {
	s := &domainselection.Session{
		ID:          domainselection.SessionID(d.ID),
		PropertyID:  domainrooms.PropertyID(d.PropertyID),
		Search:      domainselection.Search{PartySize: d.PartySize},
		Generation:  d.Generation,
		HasSnapshot: d.HasSnapshot,
		Version:     d.Version,
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}
	if d.Stay != nil {
		dr, err := d.Stay.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("records: session %s: %w", d.ID, err)
		}
		s.Search.Stay = &dr
	}
	for _, g := range d.Snapshot {
		price, err := g.BasePrice.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("records: session %s group %s: %w", d.ID, g.ID, err)
		}
		rules, err := RulesToDomain(g.Rules)
		if err != nil {
			return nil, fmt.Errorf("records: session %s group %s: %w", d.ID, g.ID, err)
		}
		ga, err := domainavailability.NewGroupAvailability(domainrooms.RoomTypeGroup{
			ID:             domainrooms.GroupID(g.ID),
			PropertyID:     domainrooms.PropertyID(g.PropertyID),
			Name:           g.Name,
			Description:    g.Description,
			Capacity:       g.Capacity,
			BasePrice:      price,
			TotalInstances: g.TotalInstances,
			Rules:          rules,
			InstanceIDs:    roomIDs(g.InstanceIDs),
		}, roomIDs(g.AvailableIDs))
		if err != nil {
			return nil, fmt.Errorf("records: session %s: %w", d.ID, err)
		}
		s.Snapshot = append(s.Snapshot, ga)
	}
	for _, item := range d.Items {
		price, err := item.BasePrice.ToDomain()
		if err != nil {
			return nil, fmt.Errorf("records: session %s item %s: %w", d.ID, item.SelectionID, err)
		}
		rules, err := RulesToDomain(item.Rules)
		if err != nil {
			return nil, fmt.Errorf("records: session %s item %s: %w", d.ID, item.SelectionID, err)
		}
		s.Items = append(s.Items, domainselection.SelectedRoomInstance{
			SelectionID:  domainselection.SelectionID(item.SelectionID),
			InstanceID:   domainrooms.RoomID(item.InstanceID),
			GroupID:      domainrooms.GroupID(item.GroupID),
			GroupName:    item.GroupName,
			DisplayIndex: item.DisplayIndex,
			BasePrice:    price,
			Rules:        rules,
		})
	}
	return s, nil
}
