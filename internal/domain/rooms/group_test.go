package rooms

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayquote/internal/domain/pricing"
	"stayquote/internal/domain/shared/money"
)

func room(id, typeID, name, price string) PhysicalRoom {
	return PhysicalRoom{
		ID:         RoomID(id),
		PropertyID: "hotel-1",
		TypeID:     typeID,
		Name:       name,
		Capacity:   2,
		BasePrice:  money.Must(price, "ARS"),
		Active:     true,
	}
}

func TestBaseName(t *testing.T) {
	assert.Equal(t, "Double", BaseName("Double 2"))
	assert.Equal(t, "Double", BaseName("Double #12"))
	assert.Equal(t, "Cabaña", BaseName("Cabaña N° 3"))
	assert.Equal(t, "Suite Deluxe", BaseName("Suite Deluxe"))
	assert.Equal(t, "101", BaseName("101"))
	assert.Equal(t, "Casino", BaseName("Casino 5"))
}

func TestGroupRooms_GroupsByTypeAndBaseName(t *testing.T) {
	rooms := []PhysicalRoom{
		room("r3", "t-double", "Double 2", "1000"),
		room("r1", "t-double", "Double 1", "1000"),
		room("r2", "t-suite", "Suite", "2500"),
		room("r4", "t-double", "Double 3", "1000"),
	}
	rooms[1].Rules = []pricing.AdjustmentRule{{Kind: pricing.KindWeekend, Percent: decimal.NewFromInt(15), Active: true}}

	groups := GroupRooms(rooms)

	require.Len(t, groups, 2)
	double := groups[0]
	assert.Equal(t, GroupID("r1"), double.ID)
	assert.Equal(t, "Double", double.Name)
	assert.Equal(t, 3, double.TotalInstances)
	assert.Equal(t, []RoomID{"r1", "r3", "r4"}, double.InstanceIDs)
	assert.Len(t, double.Rules, 1)
	assert.NoError(t, double.Validate())

	suite := groups[1]
	assert.Equal(t, GroupID("r2"), suite.ID)
	assert.Equal(t, 1, suite.TotalInstances)
	assert.True(t, suite.Has("r2"))
	assert.False(t, suite.Has("r1"))
}

func TestGroupRooms_SkipsInactiveRooms(t *testing.T) {
	inactive := room("r2", "t-double", "Double 2", "1000")
	inactive.Active = false

	groups := GroupRooms([]PhysicalRoom{room("r1", "t-double", "Double 1", "1000"), inactive})

	require.Len(t, groups, 1)
	assert.Equal(t, []RoomID{"r1"}, groups[0].InstanceIDs)
}

func TestGroupRooms_DifferentTypesSameNameStaySeparate(t *testing.T) {
	groups := GroupRooms([]PhysicalRoom{
		room("r1", "t-a", "Standard", "1000"),
		room("r2", "t-b", "Standard", "1200"),
	})
	assert.Len(t, groups, 2)
}

func TestRoomTypeGroup_Validate(t *testing.T) {
	g := RoomTypeGroup{ID: "g", BasePrice: money.Must("10", "ARS")}
	assert.ErrorIs(t, g.Validate(), ErrInvalidGroup)

	g.TotalInstances = 2
	g.InstanceIDs = []RoomID{"a"}
	assert.ErrorIs(t, g.Validate(), ErrInvalidGroup)

	g.InstanceIDs = []RoomID{"a", "b"}
	g.BasePrice = money.Must("-1", "ARS")
	assert.ErrorIs(t, g.Validate(), ErrInvalidGroup)
}

func TestPhysicalRoom_Validate(t *testing.T) {
	r := room("r1", "t", "Double 1", "1000")
	assert.NoError(t, r.Validate())

	r.Rules = []pricing.AdjustmentRule{{Kind: pricing.KindSeason, Percent: decimal.NewFromInt(10), Active: true, From: "2024-02-01", To: "2024-01-01"}}
	assert.ErrorIs(t, r.Validate(), ErrInvalidRoom)

	r.Rules = nil
	r.BasePrice = money.Must("-5", "ARS")
	assert.ErrorIs(t, r.Validate(), ErrInvalidRoom)

	assert.Equal(t, "Double 1", r.DisplayName())
	assert.Equal(t, "Room", PhysicalRoom{}.DisplayName())
}
