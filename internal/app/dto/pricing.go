package dto

import (
	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/daterange"
)

type NightlyPrice struct {
	Date         string   `json:"date"`
	Price        Money    `json:"price"`
	AppliedRules []string `json:"applied_rules"`
}

type Schedule struct {
	GroupID string         `json:"group_id,omitempty"`
	Nights  []NightlyPrice `json:"nights"`
	Total   Money          `json:"total"`
	Average Money          `json:"average"`
}

func MapSchedule(s pricing.Schedule) Schedule {
	nights := make([]NightlyPrice, 0, len(s.Nights))
	for _, n := range s.Nights {
		applied := n.AppliedRules
		if applied == nil {
			applied = []string{}
		}
		nights = append(nights, NightlyPrice{
			Date:         daterange.FormatDay(n.Date),
			Price:        MapMoney(n.Price),
			AppliedRules: applied,
		})
	}
	return Schedule{Nights: nights, Total: MapMoney(s.Total), Average: MapMoney(s.Average())}
}

type PriceRange struct {
	Min      string `json:"min"`
	Max      string `json:"max"`
	Currency string `json:"currency"`
}
