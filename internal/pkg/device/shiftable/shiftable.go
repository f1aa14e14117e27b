/*
shiftable.go Uninterruptible (shiftable) load, e.g. a dishwasher run. Each
cycle is a fixed-duration, fixed-profile run that must start exactly once
inside its allowed window and run to completion. One start indicator exists
per (cycle, feasible start time) pair; the device's net power at any step is
the superposition of every cycle's profile shifted to its chosen start,
reconstructed through those indicators. Consecutive cycles are ordered by a
linear constraint on the indicator-weighted start times, which is valid since
exactly one indicator per cycle is active.
*/

package shiftable

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

	fieldStartUp    builder.Field = "start_up"
	fieldNetPower   builder.Field = "net_power"
	fieldCycleStart builder.Field = "cycle_start"
)

// Config holds the shiftable load's parameters. Cycles[k] is the load profile
// of the k-th cycle; TStartMin[k] and TStartMax[k] bound its start time.
type Config struct {
	Label     string      `json:"Label"`
	TStartMin []int       `json:"TStartMin"`
	TStartMax []int       `json:"TStartMax"`
	Cycles    [][]float64 `json:"Cycles"`
}

// Load is a shiftable, non-preemptible load.
type Load struct {
	config    Config
	durations []int
}

// New returns a configured shiftable load.
func New(cfg Config) (*Load, error) {
	if cfg.Label == "" {
		return nil, &device.ParameterError{Device: "shiftable", Reason: "empty label"}
	}
	if len(cfg.Cycles) == 0 {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "no cycles"}
	}
	if len(cfg.TStartMin) != len(cfg.Cycles) || len(cfg.TStartMax) != len(cfg.Cycles) {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "start window arrays do not match cycle count"}
	}

	durations := make([]int, len(cfg.Cycles))
	for k, cycle := range cfg.Cycles {
		if len(cycle) == 0 {
			return nil, &device.ParameterError{
				Device: cfg.Label,
				Reason: fmt.Sprintf("cycle %d has empty profile", k),
			}
		}
		if cfg.TStartMin[k] < 0 {
			return nil, &device.ParameterError{
				Device: cfg.Label,
				Reason: fmt.Sprintf("cycle %d min start time is negative", k),
			}
		}
		if cfg.TStartMax[k] < cfg.TStartMin[k] {
			return nil, &device.ParameterError{
				Device: cfg.Label,
				Reason: fmt.Sprintf("cycle %d start window is out of order", k),
			}
		}
		durations[k] = len(cycle)
	}

	return &Load{config: cfg, durations: durations}, nil
}

// NewFromJSON returns a shiftable load configured from raw JSON.
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

// Durations returns the length of each cycle, in time steps.
func (d *Load) Durations() []int {
	out := make([]int, len(d.durations))
	copy(out, d.durations)
	return out
}

// Contribute adds the shiftable sub-model to the household.
func (d *Load) Contribute(ctx *builder.Context, household string) error {
	cfg := d.config

	// every cycle must be able to finish inside the horizon
	for k := range cfg.Cycles {
		if cfg.TStartMax[k]+d.durations[k] > ctx.Horizon() {
			return &device.ParameterError{
				Device: cfg.Label,
				Reason: fmt.Sprintf("cycle %d cannot finish within horizon %d", k, ctx.Horizon()),
			}
		}
	}

	hh := builder.HouseholdScope(household)
	scope := builder.DeviceScope(household, cfg.Label)
	window := ctx.Window()

	// power, +1 into the household link row
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

	// one start indicator per (cycle, feasible start time)
	uKeys := make([]builder.Key, 0)
	uVars := make([]milp.Variable, 0)
	for k := range cfg.Cycles {
		for t := cfg.TStartMin[k]; t <= cfg.TStartMax[k]; t++ {
			uKeys = append(uKeys, scope.CycleKey(fieldU, k, t))
			uVars = append(uVars, milp.Variable{Lower: 0, Upper: 1, Type: ctx.IndicatorType()})
		}
	}
	if _, err := ctx.DeclareVariables(uKeys, uVars); err != nil {
		return err
	}

	// exactly one start per cycle
	startKeys := make([]builder.Key, len(cfg.Cycles))
	startCtrs := make([]milp.Constraint, len(cfg.Cycles))
	for k := range cfg.Cycles {
		ind := make([]int, 0, cfg.TStartMax[k]-cfg.TStartMin[k]+1)
		val := make([]float64, 0, cfg.TStartMax[k]-cfg.TStartMin[k]+1)
		for t := cfg.TStartMin[k]; t <= cfg.TStartMax[k]; t++ {
			u, err := ctx.Variable(scope.CycleKey(fieldU, k, t))
			if err != nil {
				return err
			}
			ind = append(ind, u)
			val = append(val, 1)
		}
		startKeys[k] = scope.Key(fieldStartUp, k)
		startCtrs[k] = milp.Constraint{
			Sense: milp.Equal,
			RHS:   1,
			Expr:  milp.SparsePair{Ind: ind, Val: val},
		}
	}
	if _, err := ctx.DeclareConstraints(startKeys, startCtrs); err != nil {
		return err
	}

	// net power reconstruction:
	//   pwr_t = sum over (k,d) with t-d inside cycle k's window of cycle[k][d]*u[k,t-d]
	netKeys := make([]builder.Key, len(window))
	netCtrs := make([]milp.Constraint, len(window))
	for _, t := range window {
		pwr, err := ctx.Variable(scope.Key(fieldPwr, t))
		if err != nil {
			return err
		}
		ind := []int{pwr}
		val := []float64{1}
		for k, cycle := range cfg.Cycles {
			for dOff := 0; dOff < d.durations[k]; dOff++ {
				start := t - dOff
				if start < cfg.TStartMin[k] || start > cfg.TStartMax[k] {
					continue
				}
				u, err := ctx.Variable(scope.CycleKey(fieldU, k, start))
				if err != nil {
					return err
				}
				ind = append(ind, u)
				val = append(val, -cycle[dOff])
			}
		}
		netKeys[t] = scope.Key(fieldNetPower, t)
		netCtrs[t] = milp.Constraint{
			Sense: milp.Equal,
			RHS:   0,
			Expr:  milp.SparsePair{Ind: ind, Val: val},
		}
	}
	if _, err := ctx.DeclareConstraints(netKeys, netCtrs); err != nil {
		return err
	}

	// cycle k cannot start before cycle k-1 has finished; the weighted sums
	// equal the chosen start times because exactly one indicator per cycle
	// is active
	if len(cfg.Cycles) > 1 {
		seqKeys := make([]builder.Key, 0, len(cfg.Cycles)-1)
		seqCtrs := make([]milp.Constraint, 0, len(cfg.Cycles)-1)
		for k := 1; k < len(cfg.Cycles); k++ {
			ind := make([]int, 0)
			val := make([]float64, 0)
			for t := cfg.TStartMin[k-1]; t <= cfg.TStartMax[k-1]; t++ {
				u, err := ctx.Variable(scope.CycleKey(fieldU, k-1, t))
				if err != nil {
					return err
				}
				ind = append(ind, u)
				val = append(val, -float64(t))
			}
			for t := cfg.TStartMin[k]; t <= cfg.TStartMax[k]; t++ {
				u, err := ctx.Variable(scope.CycleKey(fieldU, k, t))
				if err != nil {
					return err
				}
				ind = append(ind, u)
				val = append(val, float64(t))
			}
			seqKeys = append(seqKeys, scope.Key(fieldCycleStart, k))
			seqCtrs = append(seqCtrs, milp.Constraint{
				Sense: milp.GreaterEqual,
				RHS:   float64(d.durations[k-1]),
				Expr:  milp.SparsePair{Ind: ind, Val: val},
			})
		}
		if _, err := ctx.DeclareConstraints(seqKeys, seqCtrs); err != nil {
			return err
		}
	}

	return nil
}
