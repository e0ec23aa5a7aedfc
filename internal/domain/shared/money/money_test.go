package money

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	m, err := Parse("1250.5", "ars")
	require.NoError(t, err)
	assert.Equal(t, "ARS", m.Currency)
	assert.Equal(t, "1250.50 ARS", m.String())

	_, err = Parse("abc", "ARS")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = Parse("10", "PESO")
	assert.ErrorIs(t, err, ErrInvalidCurrency)
}

func TestAdd_CurrencyMismatch(t *testing.T) {
	_, err := Must("10", "ARS").Add(Must("10", "USD"))
	assert.ErrorIs(t, err, ErrCurrencyMismatch)
}

func TestRoundCents_HalfAwayFromZero(t *testing.T) {
	assert.True(t, Must("10.005", "ARS").RoundCents().Amount.Equal(decimal.RequireFromString("10.01")))
	assert.True(t, Must("10.004", "ARS").RoundCents().Amount.Equal(decimal.RequireFromString("10.00")))
	assert.True(t, Must("1155.0000001", "ARS").RoundCents().Amount.Equal(decimal.NewFromInt(1155)))
}

func TestSum(t *testing.T) {
	total, err := Sum("ARS", Must("1150", "ARS"), Must("1150", "ARS"), Must("0.01", "ARS"))
	require.NoError(t, err)
	assert.Equal(t, "2300.01 ARS", total.String())

	empty, err := Sum("ARS")
	require.NoError(t, err)
	assert.True(t, empty.IsZero())
}
