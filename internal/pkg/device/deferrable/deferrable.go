/*
deferrable.go Deferrable load, e.g. electric vehicle charging. The total
energy drawn over the window is bounded in both directions, and the per-step
power window is indicator-coupled with time-varying bounds so availability
hours can be encoded directly in the PwrMin/PwrMax arrays.
*/

package deferrable

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

	fieldETotMin builder.Field = "E_tot_min"
	fieldETotMax builder.Field = "E_tot_max"
	fieldPwrMin  builder.Field = "pwr_min"
	fieldPwrMax  builder.Field = "pwr_max"
)

// Config holds the deferrable load's parameters. PwrMin and PwrMax are
// indexed by time step and must match the assembly window.
type Config struct {
	Label     string    `json:"Label"`
	EnergyMin float64   `json:"EnergyMin"`
	EnergyMax float64   `json:"EnergyMax"`
	PwrMin    []float64 `json:"PwrMin"`
	PwrMax    []float64 `json:"PwrMax"`
}

// Load is a deferrable load.
type Load struct {
	config Config
}

// New returns a configured deferrable load.
func New(cfg Config) (*Load, error) {
	if cfg.Label == "" {
		return nil, &device.ParameterError{Device: "deferrable", Reason: "empty label"}
	}
	if cfg.EnergyMax < cfg.EnergyMin {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "energy bounds out of order"}
	}
	if len(cfg.PwrMin) != len(cfg.PwrMax) {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "power bound array lengths differ"}
	}
	for t := range cfg.PwrMin {
		if cfg.PwrMax[t] < cfg.PwrMin[t] {
			return nil, &device.ParameterError{
				Device: cfg.Label,
				Reason: fmt.Sprintf("power bounds out of order at step %d", t),
			}
		}
	}
	return &Load{config: cfg}, nil
}

// NewFromJSON returns a deferrable load configured from raw JSON.
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

// Contribute adds the deferrable sub-model to the household.
func (d *Load) Contribute(ctx *builder.Context, household string) error {
	cfg := d.config
	if len(cfg.PwrMin) != ctx.Horizon() {
		return &device.ParameterError{
			Device: cfg.Label,
			Reason: fmt.Sprintf("power bound array length %d != horizon %d", len(cfg.PwrMin), ctx.Horizon()),
		}
	}

	hh := builder.HouseholdScope(household)
	scope := builder.DeviceScope(household, cfg.Label)
	window := ctx.Window()
	dt := ctx.DeltaT()

	// power, +1 into the household link row; sign constrained only through
	// the indicator bounds
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

	// on/off indicator
	uKeys := make([]builder.Key, len(window))
	uVars := make([]milp.Variable, len(window))
	for _, t := range window {
		uKeys[t] = scope.Key(fieldU, t)
		uVars[t] = milp.Variable{Lower: 0, Upper: 1, Type: ctx.IndicatorType()}
	}
	if _, err := ctx.DeclareVariables(uKeys, uVars); err != nil {
		return err
	}

	// total energy requirement over the whole window
	pwrIdx := make([]int, len(window))
	dtVal := make([]float64, len(window))
	for _, t := range window {
		idx, err := ctx.Variable(scope.Key(fieldPwr, t))
		if err != nil {
			return err
		}
		pwrIdx[t] = idx
		dtVal[t] = dt
	}
	eKeys := []builder.Key{
		scope.Key(fieldETotMin, 0),
		scope.Key(fieldETotMax, 0),
	}
	eCtrs := []milp.Constraint{
		{
			Sense: milp.GreaterEqual,
			RHS:   cfg.EnergyMin,
			Expr:  milp.SparsePair{Ind: pwrIdx, Val: dtVal},
		},
		{
			Sense: milp.LessEqual,
			RHS:   cfg.EnergyMax,
			Expr:  milp.SparsePair{Ind: pwrIdx, Val: dtVal},
		},
	}
	if _, err := ctx.DeclareConstraints(eKeys, eCtrs); err != nil {
		return err
	}

	// indicator-coupled per-step power window
	minKeys := make([]builder.Key, len(window))
	minCtrs := make([]milp.Constraint, len(window))
	maxKeys := make([]builder.Key, len(window))
	maxCtrs := make([]milp.Constraint, len(window))
	for _, t := range window {
		u, err := ctx.Variable(scope.Key(fieldU, t))
		if err != nil {
			return err
		}
		minKeys[t] = scope.Key(fieldPwrMin, t)
		minCtrs[t] = milp.Constraint{
			Sense: milp.LessEqual,
			RHS:   0,
			Expr:  milp.SparsePair{Ind: []int{pwrIdx[t], u}, Val: []float64{-1, cfg.PwrMin[t]}},
		}
		maxKeys[t] = scope.Key(fieldPwrMax, t)
		maxCtrs[t] = milp.Constraint{
			Sense: milp.LessEqual,
			RHS:   0,
			Expr:  milp.SparsePair{Ind: []int{pwrIdx[t], u}, Val: []float64{1, -cfg.PwrMax[t]}},
		}
	}
	if _, err := ctx.DeclareConstraints(minKeys, minCtrs); err != nil {
		return err
	}
	if _, err := ctx.DeclareConstraints(maxKeys, maxCtrs); err != nil {
		return err
	}

	return nil
}
