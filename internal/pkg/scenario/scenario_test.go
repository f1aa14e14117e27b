package scenario

import (
	"strings"
	"testing"

	"github.com/ohowland/dres_core/internal/pkg/aggregator"
	"github.com/ohowland/dres_core/internal/pkg/milp/virtualmilp"
	"gotest.tools/assert"
)

func testProfiles(horizon int) Profiles {
	load := make([]float64, horizon)
	pv := make([]float64, horizon)
	temp := make([]float64, horizon)
	for t := 0; t < horizon; t++ {
		load[t] = 1
		pv[t] = 1
		temp[t] = 10
	}
	return Profiles{LoadNorm: load, PVNorm: pv, Temperature: temp}
}

func allRates() OwnershipRates {
	return OwnershipRates{PV: 1, Dishwasher: 1, ClothesWasher: 1, ClothesDryer: 1, Heating: 1}
}

func TestReadOwnershipRates(t *testing.T) {
	rates, err := ReadOwnershipRates("scenario_test_config.json")
	assert.NilError(t, err)

	assertRates := OwnershipRates{0.5, 0.6, 0.9, 0.7, 0.4}
	assert.Assert(t, rates == assertRates)
}

func TestDefaultDeviceParams(t *testing.T) {
	params := DefaultDeviceParams()
	assert.Equal(t, params.DWCycleLength, 2)
	assert.Equal(t, params.CDCycleLength, 3)
	assert.Equal(t, params.EVPwrMax, 7.7)
	assert.Equal(t, params.BatSOCMax, 13.5)
	assert.Equal(t, params.NetLoadMax, 10.0)
}

func TestGenerateRejectsBadInput(t *testing.T) {
	_, err := Generate(0, 24, testProfiles(24), allRates(), DefaultDeviceParams(), 1)
	assert.Assert(t, err != nil)

	_, err = Generate(2, 24, testProfiles(12), allRates(), DefaultDeviceParams(), 1)
	assert.Assert(t, err != nil)
}

func TestGenerateIsDeterministic(t *testing.T) {
	first, err := Generate(5, 24, testProfiles(24), DefaultOwnershipRates(), DefaultDeviceParams(), 42)
	assert.NilError(t, err)
	second, err := Generate(5, 24, testProfiles(24), DefaultOwnershipRates(), DefaultDeviceParams(), 42)
	assert.NilError(t, err)

	assert.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Label(), second[i].Label())
		d1 := first[i].Devices()
		d2 := second[i].Devices()
		assert.Equal(t, len(d1), len(d2))
		for j := range d1 {
			assert.Equal(t, d1[j].Label(), d2[j].Label())
		}
	}
}

func TestGenerateSeedsDiffer(t *testing.T) {
	first, err := Generate(8, 24, testProfiles(24), DefaultOwnershipRates(), DefaultDeviceParams(), 1)
	assert.NilError(t, err)
	second, err := Generate(8, 24, testProfiles(24), DefaultOwnershipRates(), DefaultDeviceParams(), 2)
	assert.NilError(t, err)

	// identical device fleets across every household would mean the seed is
	// ignored
	same := true
	for i := range first {
		d1 := first[i].Devices()
		d2 := second[i].Devices()
		if len(d1) != len(d2) {
			same = false
			break
		}
		for j := range d1 {
			if d1[j].Label() != d2[j].Label() {
				same = false
				break
			}
		}
	}
	assert.Assert(t, !same)
}

func TestZeroRatesGiveBareHouseholds(t *testing.T) {
	households, err := Generate(3, 24, testProfiles(24), OwnershipRates{}, DefaultDeviceParams(), 7)
	assert.NilError(t, err)

	for _, hh := range households {
		devices := hh.Devices()
		assert.Equal(t, len(devices), 1)
		assert.Assert(t, strings.HasPrefix(devices[0].Label(), "load_"))
	}
}

func TestFullRatesGiveFullFleets(t *testing.T) {
	households, err := Generate(2, 24, testProfiles(24), allRates(), DefaultDeviceParams(), 7)
	assert.NilError(t, err)

	// load, PV, dishwasher, washer, dryer, EV, heating, battery
	for _, hh := range households {
		assert.Equal(t, len(hh.Devices()), 8)
	}
}

func TestGeneratedInstanceAssembles(t *testing.T) {
	n, horizon := 4, 24
	households, err := Generate(n, horizon, testProfiles(horizon), allRates(), DefaultDeviceParams(), 3)
	assert.NilError(t, err)

	price := make([]float64, horizon)
	for t2 := range price {
		price[t2] = 1
	}
	loadMin, loadMax := TotalLoadBounds(n, horizon)

	model := virtualmilp.New()
	ctx, err := aggregator.Assemble(model, households, aggregator.Config{
		Horizon:      horizon,
		DeltaT:       1.0,
		Binaries:     true,
		Price:        price,
		TotalLoadMin: loadMin,
		TotalLoadMax: loadMax,
	})
	assert.NilError(t, err)

	assert.Assert(t, model.NumVariables() > 0)
	assert.Assert(t, model.NumConstraints() > 0)
	assert.Assert(t, model.NumBinaries() > 0)
	assert.Equal(t, ctx.NumVariables(), model.NumVariables())
	assert.Equal(t, ctx.NumConstraints(), model.NumConstraints())
}

func TestTotalLoadBounds(t *testing.T) {
	min, max := TotalLoadBounds(24, 4)
	assert.Equal(t, len(min), 4)
	assert.Equal(t, len(max), 4)
	for ts := range min {
		assert.Equal(t, min[ts], 0.0)
		assert.Equal(t, max[ts], 180.0)
	}
}
