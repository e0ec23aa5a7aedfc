package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayquote/internal/domain/shared/daterange"
	"stayquote/internal/domain/shared/money"
)

func day(t *testing.T, raw string) time.Time {
	t.Helper()
	d, err := daterange.ParseDay(raw)
	require.NoError(t, err)
	return d
}

func season(pct string, from, to string) AdjustmentRule {
	return AdjustmentRule{Kind: KindSeason, Percent: decimal.RequireFromString(pct), Active: true, From: from, To: to}
}

func weekend(pct string) AdjustmentRule {
	return AdjustmentRule{Kind: KindWeekend, Percent: decimal.RequireFromString(pct), Active: true}
}

func assertAmount(t *testing.T, want string, got money.Money) {
	t.Helper()
	assert.Truef(t, decimal.RequireFromString(want).Equal(got.Amount), "want %s, got %s", want, got.Amount.String())
}

func TestIsWeekendDay(t *testing.T) {
	cases := map[string]bool{
		"2024-03-01": true,  // Friday
		"2024-03-02": true,  // Saturday
		"2024-03-03": true,  // Sunday
		"2024-03-04": false, // Monday
		"2024-03-07": false, // Thursday
	}
	for raw, want := range cases {
		assert.Equal(t, want, IsWeekendDay(day(t, raw)), raw)
	}
}

func TestComputeSchedule_SingleSeasonCoversStay(t *testing.T) {
	base := money.Must("1000", "ARS")
	rules := []AdjustmentRule{season("10", "2024-03-01", "2024-03-31")}

	schedule := ComputeSchedule(base, day(t, "2024-03-04"), day(t, "2024-03-07"), rules)

	require.Len(t, schedule.Nights, 3)
	for _, night := range schedule.Nights {
		assertAmount(t, "1100.00", night.Price)
		assert.Equal(t, []string{"Season +10%"}, night.AppliedRules)
	}
	assertAmount(t, "3300", schedule.Total)
}

func TestComputeNightlyPrice_SeasonsCompound(t *testing.T) {
	base := money.Must("1000", "ARS")
	rules := []AdjustmentRule{
		season("10", "2024-03-01", "2024-03-31"),
		season("5", "2024-03-05", "2024-03-05"),
	}

	night := ComputeNightlyPrice(base, day(t, "2024-03-05"), rules)

	assertAmount(t, "1155.00", night.Price)
	assert.Equal(t, []string{"Season +10%", "Season +5%"}, night.AppliedRules)
}

func TestComputeSchedule_WeekendRule(t *testing.T) {
	base := money.Must("1000", "ARS")
	rules := []AdjustmentRule{weekend("15")}

	schedule := ComputeSchedule(base, day(t, "2024-03-01"), day(t, "2024-03-03"), rules)

	require.Len(t, schedule.Nights, 2)
	assertAmount(t, "1150", schedule.Nights[0].Price)
	assertAmount(t, "1150", schedule.Nights[1].Price)
	assertAmount(t, "2300.00", schedule.Total)
}

func TestComputeNightlyPrice_OnlyFirstActiveWeekendRule(t *testing.T) {
	base := money.Must("1000", "ARS")
	inactive := weekend("80")
	inactive.Active = false
	rules := []AdjustmentRule{inactive, weekend("15"), weekend("50")}

	night := ComputeNightlyPrice(base, day(t, "2024-03-02"), rules)

	assertAmount(t, "1150", night.Price)
	assert.Equal(t, []string{"Weekend +15%"}, night.AppliedRules)

	weekday := ComputeNightlyPrice(base, day(t, "2024-03-04"), rules)
	assertAmount(t, "1000", weekday.Price)
	assert.Empty(t, weekday.AppliedRules)
}

func TestComputeNightlyPrice_SeasonThenWeekend(t *testing.T) {
	base := money.Must("1000", "ARS")
	rules := []AdjustmentRule{weekend("20"), season("10", "2024-03-01", "2024-03-01")}

	night := ComputeNightlyPrice(base, day(t, "2024-03-01"), rules)

	assertAmount(t, "1320", night.Price)
	assert.Equal(t, []string{"Season +10%", "Weekend +20%"}, night.AppliedRules)
}

func TestComputeNightlyPrice_SeasonBoundsInclusive(t *testing.T) {
	base := money.Must("200", "ARS")
	rules := []AdjustmentRule{season("50", "2024-07-10", "2024-07-12")}

	assertAmount(t, "200", ComputeNightlyPrice(base, day(t, "2024-07-09"), rules).Price)
	assertAmount(t, "300", ComputeNightlyPrice(base, day(t, "2024-07-10"), rules).Price)
	assertAmount(t, "300", ComputeNightlyPrice(base, day(t, "2024-07-12"), rules).Price)
	assertAmount(t, "200", ComputeNightlyPrice(base, day(t, "2024-07-13"), rules).Price)
}

func TestComputeNightlyPrice_InactiveSeasonIgnored(t *testing.T) {
	rule := season("10", "2024-01-01", "2024-12-31")
	rule.Active = false

	night := ComputeNightlyPrice(money.Must("1000", "ARS"), day(t, "2024-03-05"), []AdjustmentRule{rule})

	assertAmount(t, "1000", night.Price)
	assert.Empty(t, night.AppliedRules)
}

func TestComputeNightlyPrice_RoundsToCents(t *testing.T) {
	night := ComputeNightlyPrice(money.Must("99.99", "ARS"), day(t, "2024-03-05"), []AdjustmentRule{
		season("7.5", "2024-03-01", "2024-03-31"),
	})
	assertAmount(t, "107.49", night.Price)
}

func TestComputeSchedule_TotalMatchesSumOfNights(t *testing.T) {
	base := money.Must("333.33", "ARS")
	rules := []AdjustmentRule{
		season("12.5", "2024-02-25", "2024-03-03"),
		season("3", "2024-03-01", "2024-03-10"),
		weekend("7"),
	}

	schedule := ComputeSchedule(base, day(t, "2024-02-26"), day(t, "2024-03-09"), rules)

	require.Len(t, schedule.Nights, 12)
	sum := decimal.Zero
	for _, night := range schedule.Nights {
		assert.Equal(t, night.Price.Amount.String(), night.Price.Amount.Round(2).String())
		sum = sum.Add(night.Price.Amount)
	}
	assert.True(t, sum.Equal(schedule.Total.Amount))
}

func TestComputeSchedule_EmptyWhenCheckoutNotAfterCheckin(t *testing.T) {
	schedule := ComputeSchedule(money.Must("1000", "ARS"), day(t, "2024-03-05"), day(t, "2024-03-05"), nil)
	assert.Empty(t, schedule.Nights)
	assert.True(t, schedule.Total.IsZero())
	assert.Equal(t, "ARS", schedule.Total.Currency)

	assert.Equal(t, 0, NightCount(day(t, "2024-03-05"), day(t, "2024-03-01")))
	assert.Equal(t, 4, NightCount(day(t, "2024-03-01"), day(t, "2024-03-05")))
}

func TestSchedule_AverageAndBounds(t *testing.T) {
	schedule := ComputeSchedule(money.Must("1000", "ARS"), day(t, "2024-03-06"), day(t, "2024-03-09"), []AdjustmentRule{weekend("15")})

	assertAmount(t, "1050", schedule.Average())
	low, high, ok := schedule.Bounds()
	require.True(t, ok)
	assertAmount(t, "1000", low)
	assertAmount(t, "1150", high)
}
