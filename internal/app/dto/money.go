package dto

import (
	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/money"
)

// Money is rendered with two decimals so clients never see float noise.
type Money struct {
	Amount   string `json:"amount"`
	Currency string `json:"currency"`
}

func MapMoney(m money.Money) Money {
	return Money{Amount: m.Amount.StringFixed(money.CentPlaces), Currency: m.Currency}
}

type AdjustmentRule struct {
	Kind    string `json:"kind"`
	Percent string `json:"percent"`
	Active  bool   `json:"active"`
	From    string `json:"from,omitempty"`
	To      string `json:"to,omitempty"`
	Label   string `json:"label"`
}

func MapRules(rules []pricing.AdjustmentRule) []AdjustmentRule {
	out := make([]AdjustmentRule, 0, len(rules))
	for _, r := range rules {
		out = append(out, AdjustmentRule{
			Kind:    string(r.Kind),
			Percent: r.Percent.String(),
			Active:  r.Active,
			From:    r.From,
			To:      r.To,
			Label:   r.Label(),
		})
	}
	return out
}
