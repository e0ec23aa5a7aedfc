package records

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainavailability "stayquote/internal/domain/availability"
	"stayquote/internal/domain/pricing"
)

func TestSession_RejectsInconsistentSnapshot(t *testing.T) {
	doc := Session{
		ID:         "sess-1",
		PropertyID: "hotel",
		Generation: 1,
		Snapshot: []Group{{
			ID: "d1", Name: "Double", Capacity: 2, TotalInstances: 1,
			BasePrice:    Money{Amount: "1000", Currency: "ARS"},
			InstanceIDs:  []string{"d1"},
			AvailableIDs: []string{"d1", "d9"},
		}},
	}

	_, err := doc.ToDomain()
	assert.ErrorIs(t, err, domainavailability.ErrInconsistentResult)
}

func TestRules_AcceptLegacyKinds(t *testing.T) {
	rules, err := RulesToDomain([]Rule{{Kind: "temporada_alta", Percent: "12.5", Active: true, From: "2024-12-20", To: "2025-01-05"}})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, pricing.KindSeason, rules[0].Kind)
	assert.Equal(t, "12.5", rules[0].Percent.String())

	_, err = RulesToDomain([]Rule{{Kind: "HAPPY_HOUR", Percent: "5"}})
	assert.ErrorIs(t, err, pricing.ErrUnknownKind)

	_, err = RulesToDomain([]Rule{{Kind: "WEEKEND", Percent: "ten"}})
	assert.Error(t, err)
}

func TestCalendar_KeepsHalfOpenRanges(t *testing.T) {
	doc := Calendar{RoomID: "d1", Version: 3, Blocks: []Block{{Range: Range{CheckIn: "2024-03-04", CheckOut: "2024-03-06"}, Reason: "RESERVATION", Reference: "res-1"}}}

	cal, err := doc.ToDomain()
	require.NoError(t, err)

	assert.Equal(t, int64(3), cal.Version)
	assert.Equal(t, doc, FromCalendar(cal))

	doc.Blocks[0].Range.CheckOut = "2024-03-04"
	_, err = doc.ToDomain()
	assert.Error(t, err)
}
