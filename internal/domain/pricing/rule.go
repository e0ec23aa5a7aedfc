package pricing

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"stayquote/internal/domain/shared/daterange"
)

var (
	ErrInvalidRule    = errors.New("pricing: invalid adjustment rule")
	ErrUnknownKind    = errors.New("pricing: unknown rule kind")
	ErrNegativePrice  = errors.New("pricing: rule would produce a non-positive price")
	ErrNegativeAmount = errors.New("pricing: base price cannot be negative")
)

type RuleKind string

const (
	KindSeason  RuleKind = "SEASON"
	KindWeekend RuleKind = "WEEKEND"
)

var kindAliases = map[string]RuleKind{
	"SEASON":         KindSeason,
	"TEMPORADA":      KindSeason,
	"TEMPORADA_ALTA": KindSeason,
	"TEMPORADA_BAJA": KindSeason,
	"WEEKEND":        KindWeekend,
	"FINDE":          KindWeekend,
	"FIN_DE_SEMANA":  KindWeekend,
}

// ParseRuleKind maps stored kind names, including legacy aliases, onto a RuleKind.
func ParseRuleKind(raw string) (RuleKind, error) {
	kind, ok := kindAliases[strings.ToUpper(strings.TrimSpace(raw))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, raw)
	}
	return kind, nil
}

// AdjustmentRule is a percentage change attached to a room type.
// From and To are inclusive YYYY-MM-DD bounds and only matter for SEASON rules.
type AdjustmentRule struct {
	Kind    RuleKind
	Percent decimal.Decimal
	Active  bool
	From    string
	To      string
}

var hundred = decimal.NewFromInt(100)

// Validate rejects rules that could never be priced safely. It runs when rules are authored or loaded.
func (r AdjustmentRule) Validate() error {
	switch r.Kind {
	case KindSeason:
		if _, err := daterange.ParseDay(r.From); err != nil {
			return fmt.Errorf("%w: season from: %v", ErrInvalidRule, err)
		}
		if _, err := daterange.ParseDay(r.To); err != nil {
			return fmt.Errorf("%w: season to: %v", ErrInvalidRule, err)
		}
		if r.From > r.To {
			return fmt.Errorf("%w: season %s after %s", ErrInvalidRule, r.From, r.To)
		}
	case KindWeekend:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownKind, r.Kind)
	}
	if r.Percent.LessThanOrEqual(hundred.Neg()) {
		return fmt.Errorf("%w: %s%%", ErrNegativePrice, r.Percent.String())
	}
	return nil
}

// Label is the human readable tag attached to a night when the rule fires.
func (r AdjustmentRule) Label() string {
	sign := "+"
	if r.Percent.IsNegative() {
		sign = "-"
	}
	pct := r.Percent.Abs().String() + "%"
	switch r.Kind {
	case KindSeason:
		return "Season " + sign + pct
	case KindWeekend:
		return "Weekend " + sign + pct
	default:
		return string(r.Kind) + " " + sign + pct
	}
}

// covers compares YYYY-MM-DD strings lexicographically, bounds inclusive.
func (r AdjustmentRule) covers(day string) bool {
	if r.From == "" || r.To == "" {
		return false
	}
	return r.From <= day && day <= r.To
}

func (r AdjustmentRule) factor() decimal.Decimal {
	return hundred.Add(r.Percent).Div(hundred)
}

// ValidateRules checks every rule in list order and reports the first failure with its index.
func ValidateRules(rules []AdjustmentRule) error {
	for i, rule := range rules {
		if err := rule.Validate(); err != nil {
			return fmt.Errorf("rule %d: %w", i, err)
		}
	}
	return nil
}
