/*
curtailable.go Curtailable load or generation, e.g. rooftop PV. The power at
each step is a known profile scaled by a decision fraction; since the profile
is constant the product is linear. Generation is represented as negative load,
so the power variable is unbounded below.
*/

package curtailable

import (
	"encoding/json"
	"fmt"

	"github.com/ohowland/dres_core/internal/pkg/builder"
	"github.com/ohowland/dres_core/internal/pkg/device"
	"github.com/ohowland/dres_core/internal/pkg/milp"
)

const (
	fieldPwr builder.Field = "pwr"
	fieldU   builder.Field = "u"

	fieldCurtail builder.Field = "curtail"
)

// Config holds the curtailable load's parameters. Binary selects all-or-
// nothing curtailment; when false (or when the assembly run relaxes
// binaries) the curtailment fraction is continuous in [0,1].
type Config struct {
	Label  string    `json:"Label"`
	Load   []float64 `json:"Load"`
	Binary bool      `json:"Binary"`
}

// Load is a curtailable load or generator.
type Load struct {
	config Config
}

// New returns a configured curtailable load.
func New(cfg Config) (*Load, error) {
	if cfg.Label == "" {
		return nil, &device.ParameterError{Device: "curtailable", Reason: "empty label"}
	}
	if len(cfg.Load) == 0 {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "empty load profile"}
	}
	return &Load{config: cfg}, nil
}

// NewFromJSON returns a curtailable load configured from raw JSON.
func NewFromJSON(jsonConfig []byte) (*Load, error) {
	cfg := Config{}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return nil, err
	}
	return New(cfg)
}

// Label is an accessor for the device label.
func (d *Load) Label() string {
	return d.config.Label
}

// Contribute adds the curtailment sub-model to the household.
func (d *Load) Contribute(ctx *builder.Context, household string) error {
	cfg := d.config
	if len(cfg.Load) != ctx.Horizon() {
		return &device.ParameterError{
			Device: cfg.Label,
			Reason: fmt.Sprintf("load profile length %d != horizon %d", len(cfg.Load), ctx.Horizon()),
		}
	}

	hh := builder.HouseholdScope(household)
	scope := builder.DeviceScope(household, cfg.Label)
	window := ctx.Window()

	// power, +1 into the household link row; unbounded below for generation
	pwrKeys := make([]builder.Key, len(window))
	pwrVars := make([]milp.Variable, len(window))
	for _, t := range window {
		link, err := ctx.Constraint(hh.Key(builder.FieldLinkNetLoad, t))
		if err != nil {
			return err
		}
		pwrKeys[t] = scope.Key(fieldPwr, t)
		pwrVars[t] = milp.Variable{
			Lower:  milp.NegInf(),
			Upper:  milp.Inf(),
			Type:   milp.Continuous,
			Column: milp.SparsePair{Ind: []int{link}, Val: []float64{1}},
		}
	}
	if _, err := ctx.DeclareVariables(pwrKeys, pwrVars); err != nil {
		return err
	}

	// curtailment fraction; binary only if both the device and the run ask
	uType := milp.Continuous
	if cfg.Binary && ctx.Binaries() {
		uType = milp.Binary
	}
	uKeys := make([]builder.Key, len(window))
	uVars := make([]milp.Variable, len(window))
	for _, t := range window {
		uKeys[t] = scope.Key(fieldU, t)
		uVars[t] = milp.Variable{Lower: 0, Upper: 1, Type: uType}
	}
	if _, err := ctx.DeclareVariables(uKeys, uVars); err != nil {
		return err
	}

	// pwr_t = load_t * u_t
	curtKeys := make([]builder.Key, len(window))
	curtCtrs := make([]milp.Constraint, len(window))
	for _, t := range window {
		pwr, err := ctx.Variable(scope.Key(fieldPwr, t))
		if err != nil {
			return err
		}
		u, err := ctx.Variable(scope.Key(fieldU, t))
		if err != nil {
			return err
		}
		curtKeys[t] = scope.Key(fieldCurtail, t)
		curtCtrs[t] = milp.Constraint{
			Sense: milp.Equal,
			RHS:   0,
			Expr:  milp.SparsePair{Ind: []int{pwr, u}, Val: []float64{1, -cfg.Load[t]}},
		}
	}
	if _, err := ctx.DeclareConstraints(curtKeys, curtCtrs); err != nil {
		return err
	}

	return nil
}
