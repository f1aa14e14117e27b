/*
thermal.go Thermal load, e.g. space heating. A first-order RC model: the
indoor temperature relaxes toward the exterior temperature at a rate set by
the conduction coefficient and heat capacity, and is driven by heater power.
The recurrence is linear, so it enters the model as one equality row per step
with the exterior-temperature term folded into the right-hand side.
*/

package thermal

import (
	"encoding/json"
	"fmt"

	"github.com/ohowland/dres_core/internal/pkg/builder"
	"github.com/ohowland/dres_core/internal/pkg/device"
	"github.com/ohowland/dres_core/internal/pkg/milp"
)

const (
	fieldPwr   builder.Field = "pwr"
	fieldTemp  builder.Field = "temp"
	fieldOnInd builder.Field = "on_ind"

	fieldPwrThMin builder.Field = "pwr_th_min"
	fieldPwrThMax builder.Field = "pwr_th_max"
	fieldTempExch builder.Field = "temp_exch"
)

// Config holds the thermal load's parameters. Temperature arrays are indexed
// by time step and must match the assembly window.
type Config struct {
	Label     string    `json:"Label"`
	TempMin   []float64 `json:"TempMin"`
	TempMax   []float64 `json:"TempMax"`
	TempExt   []float64 `json:"TempExt"`
	TempInit  float64   `json:"TempInit"`
	PwrThMin  float64   `json:"PwrThMin"`
	PwrThMax  float64   `json:"PwrThMax"`
	HeatCpty  float64   `json:"HeatCpty"`
	ThEff     float64   `json:"ThEff"`
	CondCoeff float64   `json:"CondCoeff"`
}

// Load is a thermostatically controlled load.
type Load struct {
	config Config
}

// New returns a configured thermal load.
func New(cfg Config) (*Load, error) {
	if cfg.Label == "" {
		return nil, &device.ParameterError{Device: "thermal", Reason: "empty label"}
	}
	if cfg.PwrThMin < 0 || cfg.PwrThMax < cfg.PwrThMin {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "thermal power bounds out of order"}
	}
	if cfg.HeatCpty <= 0 {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "heat capacity must be positive"}
	}
	if cfg.ThEff <= 0 {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "thermal efficiency must be positive"}
	}
	if cfg.CondCoeff <= 0 {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "conduction coefficient must be positive"}
	}
	if len(cfg.TempMin) != len(cfg.TempMax) || len(cfg.TempMin) != len(cfg.TempExt) {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "temperature array lengths differ"}
	}
	for t := range cfg.TempMin {
		if cfg.TempMax[t] < cfg.TempMin[t] {
			return nil, &device.ParameterError{
				Device: cfg.Label,
				Reason: fmt.Sprintf("temperature bounds out of order at step %d", t),
			}
		}
	}
	return &Load{config: cfg}, nil
}

// NewFromJSON returns a thermal load configured from raw JSON.
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

// Contribute adds the thermal sub-model to the household.
func (d *Load) Contribute(ctx *builder.Context, household string) error {
	cfg := d.config
	if len(cfg.TempMin) != ctx.Horizon() {
		return &device.ParameterError{
			Device: cfg.Label,
			Reason: fmt.Sprintf("temperature array length %d != horizon %d", len(cfg.TempMin), ctx.Horizon()),
		}
	}

	hh := builder.HouseholdScope(household)
	scope := builder.DeviceScope(household, cfg.Label)
	window := ctx.Window()
	dt := ctx.DeltaT()

	// thermal power, +1 into the household link row
	pwrKeys := make([]builder.Key, len(window))
	pwrVars := make([]milp.Variable, len(window))
	for _, t := range window {
		link, err := ctx.Constraint(hh.Key(builder.FieldLinkNetLoad, t))
		if err != nil {
			return err
		}
		pwrKeys[t] = scope.Key(fieldPwr, t)
		pwrVars[t] = milp.Variable{
			Lower:  0,
			Upper:  milp.Inf(),
			Type:   milp.Continuous,
			Column: milp.SparsePair{Ind: []int{link}, Val: []float64{1}},
		}
	}
	if _, err := ctx.DeclareVariables(pwrKeys, pwrVars); err != nil {
		return err
	}

	// indoor temperature, bounded by the comfort band
	tempKeys := make([]builder.Key, len(window))
	tempVars := make([]milp.Variable, len(window))
	for _, t := range window {
		tempKeys[t] = scope.Key(fieldTemp, t)
		tempVars[t] = milp.Variable{Lower: cfg.TempMin[t], Upper: cfg.TempMax[t], Type: milp.Continuous}
	}
	if _, err := ctx.DeclareVariables(tempKeys, tempVars); err != nil {
		return err
	}

	// on/off indicator
	onKeys := make([]builder.Key, len(window))
	onVars := make([]milp.Variable, len(window))
	for _, t := range window {
		onKeys[t] = scope.Key(fieldOnInd, t)
		onVars[t] = milp.Variable{Lower: 0, Upper: 1, Type: ctx.IndicatorType()}
	}
	if _, err := ctx.DeclareVariables(onKeys, onVars); err != nil {
		return err
	}

	// indicator-coupled power bounds
	minKeys := make([]builder.Key, len(window))
	minCtrs := make([]milp.Constraint, len(window))
	maxKeys := make([]builder.Key, len(window))
	maxCtrs := make([]milp.Constraint, len(window))
	for _, t := range window {
		pwr, err := ctx.Variable(scope.Key(fieldPwr, t))
		if err != nil {
			return err
		}
		on, err := ctx.Variable(scope.Key(fieldOnInd, t))
		if err != nil {
			return err
		}
		minKeys[t] = scope.Key(fieldPwrThMin, t)
		minCtrs[t] = milp.Constraint{
			Sense: milp.LessEqual,
			RHS:   0,
			Expr:  milp.SparsePair{Ind: []int{pwr, on}, Val: []float64{-1, cfg.PwrThMin}},
		}
		maxKeys[t] = scope.Key(fieldPwrThMax, t)
		maxCtrs[t] = milp.Constraint{
			Sense: milp.LessEqual,
			RHS:   0,
			Expr:  milp.SparsePair{Ind: []int{pwr, on}, Val: []float64{1, -cfg.PwrThMax}},
		}
	}
	if _, err := ctx.DeclareConstraints(minKeys, minCtrs); err != nil {
		return err
	}
	if _, err := ctx.DeclareConstraints(maxKeys, maxCtrs); err != nil {
		return err
	}

	// heat exchange recurrence:
	//   temp_t = (1 - dt*mu/C)*temp_{t-1} + dt*(mu/C)*tempExt_t + dt*(eta/C)*pwr_t
	// with temp_{-1} = tempInit folded into the rhs at t=0
	muC := cfg.CondCoeff / cfg.HeatCpty
	etaC := cfg.ThEff / cfg.HeatCpty

	exchKeys := make([]builder.Key, len(window))
	exchCtrs := make([]milp.Constraint, len(window))
	for _, t := range window {
		temp, err := ctx.Variable(scope.Key(fieldTemp, t))
		if err != nil {
			return err
		}
		pwr, err := ctx.Variable(scope.Key(fieldPwr, t))
		if err != nil {
			return err
		}

		exchKeys[t] = scope.Key(fieldTempExch, t)
		if t == 0 {
			exchCtrs[t] = milp.Constraint{
				Sense: milp.Equal,
				RHS:   cfg.TempInit + dt*muC*(cfg.TempExt[0]-cfg.TempInit),
				Expr: milp.SparsePair{
					Ind: []int{temp, pwr},
					Val: []float64{1, -dt * etaC},
				},
			}
			continue
		}

		prev, err := ctx.Variable(scope.Key(fieldTemp, t-1))
		if err != nil {
			return err
		}
		exchCtrs[t] = milp.Constraint{
			Sense: milp.Equal,
			RHS:   dt * muC * cfg.TempExt[t],
			Expr: milp.SparsePair{
				Ind: []int{temp, prev, pwr},
				Val: []float64{1, -(1 - dt*muC), -dt * etaC},
			},
		}
	}
	if _, err := ctx.DeclareConstraints(exchKeys, exchCtrs); err != nil {
		return err
	}

	return nil
}
