/*
aggregator.go Top-level assembly of the demand-response MILP. The aggregator
owns the system total-load variable per time step (bounded, price-weighted in
the objective) and the link row -totalLoad + sum(household net loads) = 0.
Households attach in list order; any error aborts the whole build, since a
partially assembled MILP is not independently meaningful.
*/

package aggregator

import (
	"encoding/json"
	"fmt"
	"io/ioutil"

	"github.com/ohowland/dres_core/internal/pkg/builder"
	"github.com/ohowland/dres_core/internal/pkg/household"
	"github.com/ohowland/dres_core/internal/pkg/milp"
)

// Config holds the aggregator-level parameters of one assembly run. Price,
// TotalLoadMin and TotalLoadMax are indexed by time step.
type Config struct {
	Horizon      int       `json:"Horizon"`
	DeltaT       float64   `json:"DeltaT"`
	Binaries     bool      `json:"Binaries"`
	Price        []float64 `json:"Price"`
	TotalLoadMin []float64 `json:"TotalLoadMin"`
	TotalLoadMax []float64 `json:"TotalLoadMax"`
}

// ReadConfig loads an assembly configuration from a JSON file.
func ReadConfig(configPath string) (Config, error) {
	jsonConfig, err := ioutil.ReadFile(configPath)
	if err != nil {
		return Config{}, err
	}
	cfg := Config{}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (cfg Config) validate() error {
	if cfg.Horizon < 1 {
		return fmt.Errorf("aggregator: horizon must be positive, got %d", cfg.Horizon)
	}
	if cfg.DeltaT <= 0 {
		return fmt.Errorf("aggregator: deltaT must be positive, got %g", cfg.DeltaT)
	}
	if len(cfg.Price) != cfg.Horizon {
		return fmt.Errorf("aggregator: price length %d != horizon %d", len(cfg.Price), cfg.Horizon)
	}
	if len(cfg.TotalLoadMin) != cfg.Horizon {
		return fmt.Errorf("aggregator: total load min length %d != horizon %d", len(cfg.TotalLoadMin), cfg.Horizon)
	}
	if len(cfg.TotalLoadMax) != cfg.Horizon {
		return fmt.Errorf("aggregator: total load max length %d != horizon %d", len(cfg.TotalLoadMax), cfg.Horizon)
	}
	for t := 0; t < cfg.Horizon; t++ {
		if cfg.TotalLoadMax[t] < cfg.TotalLoadMin[t] {
			return fmt.Errorf("aggregator: total load bounds out of order at step %d", t)
		}
	}
	return nil
}

// Assemble builds the full MILP onto m: aggregator structures first, then
// each household and its devices in order. The returned context holds the
// populated index registries.
func Assemble(m milp.Model, households []*household.Household, cfg Config) (*builder.Context, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	ctx, err := builder.New(m, cfg.Horizon, cfg.DeltaT, cfg.Binaries)
	if err != nil {
		return nil, err
	}

	agg := builder.AggregatorScope()
	window := ctx.Window()

	// total load, bounded per step, objective deltaT*price
	totKeys := make([]builder.Key, len(window))
	totVars := make([]milp.Variable, len(window))
	for _, t := range window {
		totKeys[t] = agg.Key(builder.FieldTotalLoad, t)
		totVars[t] = milp.Variable{
			Lower: cfg.TotalLoadMin[t],
			Upper: cfg.TotalLoadMax[t],
			Obj:   cfg.DeltaT * cfg.Price[t],
			Type:  milp.Continuous,
		}
	}
	if _, err := ctx.DeclareVariables(totKeys, totVars); err != nil {
		return nil, err
	}

	// -totalLoad + sum(household net loads) = 0, populated by household
	// column contributions
	linkKeys := make([]builder.Key, len(window))
	linkCtrs := make([]milp.Constraint, len(window))
	for _, t := range window {
		tot, err := ctx.Variable(agg.Key(builder.FieldTotalLoad, t))
		if err != nil {
			return nil, err
		}
		linkKeys[t] = agg.Key(builder.FieldLinkTotal, t)
		linkCtrs[t] = milp.Constraint{
			Sense: milp.Equal,
			RHS:   0,
			Expr:  milp.SparsePair{Ind: []int{tot}, Val: []float64{-1}},
		}
	}
	if _, err := ctx.DeclareConstraints(linkKeys, linkCtrs); err != nil {
		return nil, err
	}

	for _, h := range households {
		if err := h.Attach(ctx); err != nil {
			return nil, err
		}
	}

	return ctx, nil
}

// Summary describes one assembled instance for persistence or streaming.
type Summary struct {
	PID         string  `json:"PID" bson:"pid"`
	Households  int     `json:"Households" bson:"households"`
	Horizon     int     `json:"Horizon" bson:"horizon"`
	DeltaT      float64 `json:"DeltaT" bson:"deltaT"`
	Binaries    bool    `json:"Binaries" bson:"binaries"`
	Variables   int     `json:"Variables" bson:"variables"`
	Constraints int     `json:"Constraints" bson:"constraints"`
}

// Summarize reports the registry-level shape of an assembled instance.
func Summarize(ctx *builder.Context, households int) Summary {
	return Summary{
		PID:         ctx.PID().String(),
		Households:  households,
		Horizon:     ctx.Horizon(),
		DeltaT:      ctx.DeltaT(),
		Binaries:    ctx.Binaries(),
		Variables:   ctx.NumVariables(),
		Constraints: ctx.NumConstraints(),
	}
}
