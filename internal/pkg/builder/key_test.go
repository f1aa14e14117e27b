package builder

import (
	"testing"

	"gotest.tools/assert"
)

func TestKeyName(t *testing.T) {
	agg := AggregatorScope().Key(FieldTotalLoad, 3)
	assert.Equal(t, agg.Name(), "totalLoad_3")

	hh := HouseholdScope("HH_7").Key(FieldNetLoad, 0)
	assert.Equal(t, hh.Name(), "HH_7_netLoad_0")

	dev := DeviceScope("HH_7", "bat_7").Key("soc", 12)
	assert.Equal(t, dev.Name(), "HH_7_bat_7_soc_12")
}

func TestCycleKeyName(t *testing.T) {
	scope := DeviceScope("HH_2", "shift_dw_2")

	withCycle := scope.CycleKey("u", 1, 5)
	assert.Equal(t, withCycle.Name(), "HH_2_shift_dw_2_u_1_5")

	// cycle zero keeps the flat name but remains a distinct key
	zeroCycle := scope.CycleKey("u", 0, 5)
	assert.Equal(t, zeroCycle.Name(), "HH_2_shift_dw_2_u_5")
	assert.Assert(t, withCycle != zeroCycle)
}

func TestScopeIdentity(t *testing.T) {
	a := DeviceScope("HH_0", "load_0").Key("pwr", 1)
	b := DeviceScope("HH_0", "load_0").Key("pwr", 1)
	assert.Equal(t, a, b)

	c := DeviceScope("HH_1", "load_0").Key("pwr", 1)
	assert.Assert(t, a != c)
}
