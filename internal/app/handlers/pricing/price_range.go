package pricing

import (
	"context"

	"github.com/shopspring/decimal"

	"stayquote/internal/app/dto"
	"stayquote/internal/app/handlers/support"
	"stayquote/internal/app/queries"
	"stayquote/internal/app/uow"
	domainpricing "stayquote/internal/domain/pricing"
	domainrooms "stayquote/internal/domain/rooms"
	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

const priceRangeKey = "pricing.range"

// Fallback bounds for the price filter when no active room has a usable price.
var (
	DefaultMinPrice = decimal.NewFromInt(5000)
	DefaultMaxPrice = decimal.NewFromInt(50000)
)

// PriceRangeQuery finds the cheapest and dearest nightly price over active rooms. Without
// dates the base prices are used.
type PriceRangeQuery struct {
	CheckIn  string
	CheckOut string
	Currency string
}

func (q PriceRangeQuery) Key() string { return priceRangeKey }

func (q PriceRangeQuery) Validate() error {
	if q.CheckIn == "" && q.CheckOut == "" {
		return nil
	}
	_, err := daterange.Parse(q.CheckIn, q.CheckOut)
	return err
}

type PriceRangeHandler struct {
	UoWFactory uow.UoWFactory
}

func (h *PriceRangeHandler) Handle(ctx context.Context, q PriceRangeQuery) (dto.PriceRange, error) {
	var stay *daterange.DateRange
	if q.CheckIn != "" || q.CheckOut != "" {
		dr, err := daterange.Parse(q.CheckIn, q.CheckOut)
		if err != nil {
			return dto.PriceRange{}, err
		}
		stay = &dr
	}
	unit, ctx, cleanup, err := support.BeginReadOnlyUnit(ctx, h.UoWFactory)
	if err != nil {
		return dto.PriceRange{}, err
	}
	defer support.Done(cleanup)

	active, err := unit.Rooms().Search(ctx, domainrooms.SearchFilter{})
	if err != nil {
		return dto.PriceRange{}, err
	}

	var prices []money.Money
	for _, r := range active {
		if q.Currency != "" && r.BasePrice.Currency != q.Currency {
			continue
		}
		if stay == nil {
			prices = append(prices, r.BasePrice)
			continue
		}
		for _, night := range domainpricing.ComputeSchedule(r.BasePrice, stay.CheckIn, stay.CheckOut, r.Rules).Nights {
			prices = append(prices, night.Price)
		}
	}
	return bounds(prices, q.Currency), nil
}

func bounds(prices []money.Money, currency string) dto.PriceRange {
	lo, hi := decimal.Zero, decimal.Zero
	for i, p := range prices {
		if currency == "" {
			currency = p.Currency
		}
		if i == 0 || p.Amount.LessThan(lo) {
			lo = p.Amount
		}
		if i == 0 || p.Amount.GreaterThan(hi) {
			hi = p.Amount
		}
	}
	if lo.IsZero() {
		lo = DefaultMinPrice
	}
	if hi.IsZero() {
		hi = DefaultMaxPrice
	}
	return dto.PriceRange{
		Min:      lo.StringFixed(money.CentPlaces),
		Max:      hi.StringFixed(money.CentPlaces),
		Currency: currency,
	}
}

var _ queries.Handler[PriceRangeQuery, dto.PriceRange] = (*PriceRangeHandler)(nil)
