package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

// NightlyPrice is the price of one night together with the labels of the rules that fired.
type NightlyPrice struct {
	Date         time.Time
	Price        money.Money
	AppliedRules []string
}

// Schedule is a per-night breakdown of a stay.
type Schedule struct {
	Nights []NightlyPrice
	Total  money.Money
}

// IsWeekendDay reports whether d falls on Friday, Saturday or Sunday.
func IsWeekendDay(d time.Time) bool {
	switch daterange.Day(d).Weekday() {
	case time.Friday, time.Saturday, time.Sunday:
		return true
	}
	return false
}

// ComputeNightlyPrice stacks the rules over base for one civil day.
// Every matching active SEASON rule compounds in list order, then at most one WEEKEND rule
// (the first active one) applies on weekend days. The result is rounded to cents once.
func ComputeNightlyPrice(base money.Money, day time.Time, rules []AdjustmentRule) NightlyPrice {
	day = daterange.Day(day)
	key := day.Format(daterange.DayLayout)
	price := base
	var labels []string

	for _, rule := range rules {
		if !rule.Active || rule.Kind != KindSeason || !rule.covers(key) {
			continue
		}
		price = price.Mul(rule.factor())
		labels = append(labels, rule.Label())
	}

	if IsWeekendDay(day) {
		for _, rule := range rules {
			if !rule.Active || rule.Kind != KindWeekend {
				continue
			}
			price = price.Mul(rule.factor())
			labels = append(labels, rule.Label())
			break
		}
	}

	return NightlyPrice{Date: day, Price: price.RoundCents(), AppliedRules: labels}
}

// NightCount is the number of whole days between check-in and check-out, clamped at zero.
func NightCount(checkIn, checkOut time.Time) int {
	return daterange.DateRange{CheckIn: daterange.Day(checkIn), CheckOut: daterange.Day(checkOut)}.Nights()
}

// ComputeSchedule prices every night in [checkIn, checkOut). The total is the exact sum of the
// rounded nightly prices.
func ComputeSchedule(base money.Money, checkIn, checkOut time.Time, rules []AdjustmentRule) Schedule {
	stay := daterange.DateRange{CheckIn: daterange.Day(checkIn), CheckOut: daterange.Day(checkOut)}
	days := stay.Days()
	schedule := Schedule{
		Nights: make([]NightlyPrice, 0, len(days)),
		Total:  money.Zero(base.Currency),
	}
	for _, day := range days {
		night := ComputeNightlyPrice(base, day, rules)
		schedule.Nights = append(schedule.Nights, night)
		schedule.Total.Amount = schedule.Total.Amount.Add(night.Price.Amount)
	}
	return schedule
}

// Average is the mean nightly price rounded to cents; zero for an empty schedule.
func (s Schedule) Average() money.Money {
	if len(s.Nights) == 0 {
		return s.Total
	}
	return money.Money{
		Amount:   s.Total.Amount.DivRound(decimal.NewFromInt(int64(len(s.Nights))), money.CentPlaces),
		Currency: s.Total.Currency,
	}
}

// Bounds returns the cheapest and dearest night; ok is false for an empty schedule.
func (s Schedule) Bounds() (lowest, highest money.Money, ok bool) {
	if len(s.Nights) == 0 {
		return money.Money{}, money.Money{}, false
	}
	lowest, highest = s.Nights[0].Price, s.Nights[0].Price
	for _, night := range s.Nights[1:] {
		if night.Price.LessThan(lowest) {
			lowest = night.Price
		}
		if highest.LessThan(night.Price) {
			highest = night.Price
		}
	}
	return lowest, highest, true
}
