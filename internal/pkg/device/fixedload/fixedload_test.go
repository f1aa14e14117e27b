package fixedload

import (
	"errors"
	"testing"

	"github.com/ohowland/dres_core/internal/pkg/builder"
	"github.com/ohowland/dres_core/internal/pkg/device"
	"github.com/ohowland/dres_core/internal/pkg/milp"
	"github.com/ohowland/dres_core/internal/pkg/milp/virtualmilp"
	"gotest.tools/assert"
)

func newTestContext(t *testing.T, horizon int) (*builder.Context, *virtualmilp.Model) {
	model := virtualmilp.New()
	ctx, err := builder.New(model, horizon, 1.0, true)
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

	_, err := New(Config{Label: "", Load: []float64{1}})
	assert.Assert(t, errors.As(err, &paramErr))

	_, err = New(Config{Label: "TEST_load"})
	assert.Assert(t, errors.As(err, &paramErr))
}

func TestLoadFoldsIntoLinkRHS(t *testing.T) {
	ctx, model := newTestContext(t, 3)
	fl, err := New(Config{Label: "TEST_load", Load: []float64{1.5, 0, 2.25}})
	assert.NilError(t, err)
	assert.NilError(t, fl.Contribute(ctx, "HH_TEST"))

	hh := builder.HouseholdScope("HH_TEST")
	want := []float64{-1.5, 0, -2.25}
	for _, ts := range ctx.Window() {
		idx, err := ctx.Constraint(hh.Key(builder.FieldLinkNetLoad, ts))
		assert.NilError(t, err)
		rhs, err := model.ConstraintRHS([]int{idx})
		assert.NilError(t, err)
		assert.Equal(t, rhs[0], want[ts])
	}
}

func TestRepeatedContributionsAccumulate(t *testing.T) {
	ctx, model := newTestContext(t, 1)

	fl1, err := New(Config{Label: "TEST_load_1", Load: []float64{1}})
	assert.NilError(t, err)
	fl2, err := New(Config{Label: "TEST_load_2", Load: []float64{2}})
	assert.NilError(t, err)

	assert.NilError(t, fl1.Contribute(ctx, "HH_TEST"))
	assert.NilError(t, fl2.Contribute(ctx, "HH_TEST"))

	idx, err := ctx.Constraint(builder.HouseholdScope("HH_TEST").Key(builder.FieldLinkNetLoad, 0))
	assert.NilError(t, err)
	rhs, err := model.ConstraintRHS([]int{idx})
	assert.NilError(t, err)
	assert.Equal(t, rhs[0], -3.0)
}

func TestContributeWithoutLinkRows(t *testing.T) {
	model := virtualmilp.New()
	ctx, err := builder.New(model, 2, 1.0, true)
	assert.NilError(t, err)

	fl, err := New(Config{Label: "TEST_load", Load: []float64{1, 1}})
	assert.NilError(t, err)

	err = fl.Contribute(ctx, "HH_TEST")
	unknown := &builder.UnknownKeyError{}
	assert.Assert(t, errors.As(err, &unknown))
}

func TestHorizonMismatch(t *testing.T) {
	ctx, _ := newTestContext(t, 3)
	fl, err := New(Config{Label: "TEST_load", Load: []float64{1, 1}})
	assert.NilError(t, err)

	err = fl.Contribute(ctx, "HH_TEST")
	paramErr := &device.ParameterError{}
	assert.Assert(t, errors.As(err, &paramErr))
}

func TestNoVariablesDeclared(t *testing.T) {
	ctx, model := newTestContext(t, 2)
	fl, err := New(Config{Label: "TEST_load", Load: []float64{1, 1}})
	assert.NilError(t, err)
	assert.NilError(t, fl.Contribute(ctx, "HH_TEST"))

	assert.Equal(t, model.NumVariables(), 0)
	assert.Equal(t, ctx.NumVariables(), 0)
}
