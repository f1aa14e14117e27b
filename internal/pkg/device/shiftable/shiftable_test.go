package shiftable

import (
	"errors"
	"testing"

	"github.com/ohowland/dres_core/internal/pkg/builder"
	"github.com/ohowland/dres_core/internal/pkg/device"
	"github.com/ohowland/dres_core/internal/pkg/milp"
	"github.com/ohowland/dres_core/internal/pkg/milp/virtualmilp"
	"gotest.tools/assert"
)

func testConfig() Config {
	return Config{
		Label:     "TEST_dw",
		TStartMin: []int{0, 2},
		TStartMax: []int{2, 4},
		Cycles:    [][]float64{{2, 2}, {3}},
	}
}

func newTestContext(t *testing.T, horizon int, dt float64, binaries bool) (*builder.Context, *virtualmilp.Model) {
	model := virtualmilp.New()
	ctx, err := builder.New(model, horizon, dt, binaries)
	assert.NilError(t, err)

	hh := builder.HouseholdScope("HH_TEST")
	for _, ts := range ctx.Window() {
		_, err := ctx.DeclareConstraint(hh.Key(builder.FieldLinkNetLoad, ts),
			milp.Constraint{Sense: milp.Equal, RHS: 0})
		assert.NilError(t, err)
	}
	return ctx, model
}

func TestNewRejectsBadParameters(t *testing.T) {
	paramErr := &device.ParameterError{}

	bad := testConfig()
	bad.Cycles = nil
	_, err := New(bad)
	assert.Assert(t, errors.As(err, &paramErr))

	bad = testConfig()
	bad.TStartMin = []int{0}
	_, err = New(bad)
	assert.Assert(t, errors.As(err, &paramErr))

	bad = testConfig()
	bad.Cycles[1] = []float64{}
	_, err = New(bad)
	assert.Assert(t, errors.As(err, &paramErr))

	bad = testConfig()
	bad.TStartMin[0] = -1
	_, err = New(bad)
	assert.Assert(t, errors.As(err, &paramErr))

	bad = testConfig()
	bad.TStartMax[0] = bad.TStartMin[0] - 1
	_, err = New(bad)
	assert.Assert(t, errors.As(err, &paramErr))
}

func TestDurations(t *testing.T) {
	sl, err := New(testConfig())
	assert.NilError(t, err)
	d := sl.Durations()
	assert.Equal(t, len(d), 2)
	assert.Equal(t, d[0], 2)
	assert.Equal(t, d[1], 1)
}

func TestStartExactlyOnce(t *testing.T) {
	ctx, model := newTestContext(t, 6, 1.0, true)
	sl, err := New(testConfig())
	assert.NilError(t, err)
	assert.NilError(t, sl.Contribute(ctx, "HH_TEST"))

	scope := builder.DeviceScope("HH_TEST", "TEST_dw")

	idx, err := ctx.Constraint(scope.Key(fieldStartUp, 0))
	assert.NilError(t, err)
	row, err := model.Row(idx)
	assert.NilError(t, err)
	assert.Equal(t, row.Sense, milp.Equal)
	assert.Equal(t, row.RHS, 1.0)
	assert.Equal(t, len(row.Ind), 3)
	for _, v := range row.Val {
		assert.Equal(t, v, 1.0)
	}
}

func TestNetPowerReconstruction(t *testing.T) {
	ctx, model := newTestContext(t, 6, 1.0, true)
	sl, err := New(testConfig())
	assert.NilError(t, err)
	assert.NilError(t, sl.Contribute(ctx, "HH_TEST"))

	scope := builder.DeviceScope("HH_TEST", "TEST_dw")

	// t = 1: cycle 0 runs here if started at 0 or 1; cycle 1 cannot start yet
	idx, err := ctx.Constraint(scope.Key(fieldNetPower, 1))
	assert.NilError(t, err)
	row, err := model.Row(idx)
	assert.NilError(t, err)

	pwr1, err := ctx.Variable(scope.Key(fieldPwr, 1))
	assert.NilError(t, err)
	assert.Equal(t, len(row.Ind), 3)
	assert.Equal(t, row.Ind[0], pwr1)
	assert.Equal(t, row.Val[0], 1.0)
	assert.Equal(t, row.Val[1], -2.0)
	assert.Equal(t, row.Val[2], -2.0)

	// t = 3: the tail of cycle 0 started at 2, or cycle 1 started at 3
	idx, err = ctx.Constraint(scope.Key(fieldNetPower, 3))
	assert.NilError(t, err)
	row, err = model.Row(idx)
	assert.NilError(t, err)

	u02, err := ctx.Variable(scope.CycleKey(fieldU, 0, 2))
	assert.NilError(t, err)
	u13, err := ctx.Variable(scope.CycleKey(fieldU, 1, 3))
	assert.NilError(t, err)

	assert.Equal(t, len(row.Ind), 3)
	assert.Equal(t, row.Ind[1], u02)
	assert.Equal(t, row.Val[1], -2.0)
	assert.Equal(t, row.Ind[2], u13)
	assert.Equal(t, row.Val[2], -3.0)
}

func TestCycleSequencing(t *testing.T) {
	ctx, model := newTestContext(t, 6, 1.0, true)
	sl, err := New(testConfig())
	assert.NilError(t, err)
	assert.NilError(t, sl.Contribute(ctx, "HH_TEST"))

	scope := builder.DeviceScope("HH_TEST", "TEST_dw")

	idx, err := ctx.Constraint(scope.Key(fieldCycleStart, 1))
	assert.NilError(t, err)
	row, err := model.Row(idx)
	assert.NilError(t, err)
	assert.Equal(t, row.Sense, milp.GreaterEqual)
	assert.Equal(t, row.RHS, 2.0)

	// start times of cycle 0 weigh in negative, cycle 1 positive
	assert.Equal(t, len(row.Ind), 6)
	assert.Equal(t, row.Val[0], -0.0)
	assert.Equal(t, row.Val[1], -1.0)
	assert.Equal(t, row.Val[2], -2.0)
	assert.Equal(t, row.Val[3], 2.0)
	assert.Equal(t, row.Val[4], 3.0)
	assert.Equal(t, row.Val[5], 4.0)
}

func TestInfeasibleStartWindow(t *testing.T) {
	ctx, _ := newTestContext(t, 4, 1.0, true)
	sl, err := New(testConfig())
	assert.NilError(t, err)

	// cycle 1 may start at step 4 but the horizon ends there
	err = sl.Contribute(ctx, "HH_TEST")
	paramErr := &device.ParameterError{}
	assert.Assert(t, errors.As(err, &paramErr))
}

func TestLinkContribution(t *testing.T) {
	ctx, model := newTestContext(t, 6, 1.0, true)
	sl, err := New(testConfig())
	assert.NilError(t, err)
	assert.NilError(t, sl.Contribute(ctx, "HH_TEST"))

	hh := builder.HouseholdScope("HH_TEST")
	scope := builder.DeviceScope("HH_TEST", "TEST_dw")
	for _, ts := range ctx.Window() {
		idx, err := ctx.Constraint(hh.Key(builder.FieldLinkNetLoad, ts))
		assert.NilError(t, err)
		row, err := model.Row(idx)
		assert.NilError(t, err)

		pwr, err := ctx.Variable(scope.Key(fieldPwr, ts))
		assert.NilError(t, err)
		assert.Equal(t, len(row.Ind), 1)
		assert.Equal(t, row.Ind[0], pwr)
		assert.Equal(t, row.Val[0], 1.0)
	}
}
