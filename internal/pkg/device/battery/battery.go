/*
battery.go Battery energy storage. Storage dynamics with asymmetric
round-trip efficiency (losses on both legs) and continuous exponential
self-discharge calibrated by half-life. Charge and discharge are coupled to
their indicators, so the power bounds need no big-M terms, and simultaneous
charge/discharge is excluded by a single packing row.
*/

package battery

import (
	"encoding/json"
	"math"

	"github.com/ohowland/dres_core/internal/pkg/builder"
	"github.com/ohowland/dres_core/internal/pkg/device"
	"github.com/ohowland/dres_core/internal/pkg/milp"
)

const (
	fieldPwrChg builder.Field = "pwr_chg"
	fieldPwrDis builder.Field = "pwr_dis"
	fieldSOC    builder.Field = "soc"
	fieldChgInd builder.Field = "chg_ind"
	fieldDisInd builder.Field = "dis_ind"

	fieldEnerCons  builder.Field = "ener_cons"
	fieldPwrChgMin builder.Field = "pwr_chg_min"
	fieldPwrChgMax builder.Field = "pwr_chg_max"
	fieldPwrDisMin builder.Field = "pwr_dis_min"
	fieldPwrDisMax builder.Field = "pwr_dis_max"
	fieldCstrBin   builder.Field = "cstr_bin"
)

// Config holds the battery's physical parameters. HalfLife is the number of
// hours for the battery to lose half its stored energy through self-discharge
// alone (1 percent per month is roughly 50000 hours).
type Config struct {
	Label     string  `json:"Label"`
	PwrChgMin float64 `json:"PwrChgMin"`
	PwrChgMax float64 `json:"PwrChgMax"`
	PwrDisMin float64 `json:"PwrDisMin"`
	PwrDisMax float64 `json:"PwrDisMax"`
	SOCMin    float64 `json:"SOCMin"`
	SOCMax    float64 `json:"SOCMax"`
	SOCInit   float64 `json:"SOCInit"`
	EffChg    float64 `json:"EffChg"`
	EffDis    float64 `json:"EffDis"`
	HalfLife  float64 `json:"HalfLife"`
}

// Battery is a battery energy storage system.
type Battery struct {
	config Config
}

// New returns a configured battery.
func New(cfg Config) (*Battery, error) {
	if cfg.Label == "" {
		return nil, &device.ParameterError{Device: "battery", Reason: "empty label"}
	}
	if cfg.PwrChgMin < 0 || cfg.PwrChgMax < cfg.PwrChgMin {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "charging power bounds out of order"}
	}
	if cfg.PwrDisMin < 0 || cfg.PwrDisMax < cfg.PwrDisMin {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "discharging power bounds out of order"}
	}
	if cfg.SOCMax < cfg.SOCMin {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "soc bounds out of order"}
	}
	if cfg.SOCInit < cfg.SOCMin || cfg.SOCInit > cfg.SOCMax {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "initial soc outside soc bounds"}
	}
	if cfg.EffChg <= 0 || cfg.EffChg > 1 || cfg.EffDis <= 0 || cfg.EffDis > 1 {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "efficiencies must lie in (0, 1]"}
	}
	if cfg.HalfLife <= 0 {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "half-life must be positive"}
	}
	return &Battery{config: cfg}, nil
}

// NewFromJSON returns a battery configured from raw JSON.
func NewFromJSON(jsonConfig []byte) (*Battery, error) {
	cfg := Config{}
	if err := json.Unmarshal(jsonConfig, &cfg); err != nil {
		return nil, err
	}
	return New(cfg)
}

// Label is an accessor for the device label.
func (d *Battery) Label() string {
	return d.config.Label
}

// Contribute adds the battery sub-model to the household.
func (d *Battery) Contribute(ctx *builder.Context, household string) error {
	cfg := d.config
	hh := builder.HouseholdScope(household)
	scope := builder.DeviceScope(household, cfg.Label)
	window := ctx.Window()
	dt := ctx.DeltaT()

	// charging power, +1 into the household link row; bounds are handled by
	// the charging indicator
	chgKeys := make([]builder.Key, len(window))
	chgVars := make([]milp.Variable, len(window))
	for _, t := range window {
		link, err := ctx.Constraint(hh.Key(builder.FieldLinkNetLoad, t))
		if err != nil {
			return err
		}
		chgKeys[t] = scope.Key(fieldPwrChg, t)
		chgVars[t] = milp.Variable{
			Lower:  0,
			Upper:  milp.Inf(),
			Type:   milp.Continuous,
			Column: milp.SparsePair{Ind: []int{link}, Val: []float64{1}},
		}
	}
	if _, err := ctx.DeclareVariables(chgKeys, chgVars); err != nil {
		return err
	}

	// discharging power, -1 into the household link row
	disKeys := make([]builder.Key, len(window))
	disVars := make([]milp.Variable, len(window))
	for _, t := range window {
		link, err := ctx.Constraint(hh.Key(builder.FieldLinkNetLoad, t))
		if err != nil {
			return err
		}
		disKeys[t] = scope.Key(fieldPwrDis, t)
		disVars[t] = milp.Variable{
			Lower:  0,
			Upper:  milp.Inf(),
			Type:   milp.Continuous,
			Column: milp.SparsePair{Ind: []int{link}, Val: []float64{-1}},
		}
	}
	if _, err := ctx.DeclareVariables(disKeys, disVars); err != nil {
		return err
	}

	// state of charge
	socKeys := make([]builder.Key, len(window))
	socVars := make([]milp.Variable, len(window))
	for _, t := range window {
		socKeys[t] = scope.Key(fieldSOC, t)
		socVars[t] = milp.Variable{Lower: cfg.SOCMin, Upper: cfg.SOCMax, Type: milp.Continuous}
	}
	if _, err := ctx.DeclareVariables(socKeys, socVars); err != nil {
		return err
	}

	// charge/discharge indicators
	for _, field := range []builder.Field{fieldChgInd, fieldDisInd} {
		keys := make([]builder.Key, len(window))
		vars := make([]milp.Variable, len(window))
		for _, t := range window {
			keys[t] = scope.Key(field, t)
			vars[t] = milp.Variable{Lower: 0, Upper: 1, Type: ctx.IndicatorType()}
		}
		if _, err := ctx.DeclareVariables(keys, vars); err != nil {
			return err
		}
	}

	// conservation of energy:
	//   soc_t = eta*soc_{t-1} + dt*effChg*pwrChg_t - dt/effDis*pwrDis_t
	// with soc_{-1} folded into the rhs at t=0
	eta := math.Exp(-math.Ln2 * dt / cfg.HalfLife)

	enerKeys := make([]builder.Key, len(window))
	enerCtrs := make([]milp.Constraint, len(window))
	for _, t := range window {
		soc, err := ctx.Variable(scope.Key(fieldSOC, t))
		if err != nil {
			return err
		}
		chg, err := ctx.Variable(scope.Key(fieldPwrChg, t))
		if err != nil {
			return err
		}
		dis, err := ctx.Variable(scope.Key(fieldPwrDis, t))
		if err != nil {
			return err
		}

		enerKeys[t] = scope.Key(fieldEnerCons, t)
		if t == 0 {
			enerCtrs[t] = milp.Constraint{
				Sense: milp.Equal,
				RHS:   eta * cfg.SOCInit,
				Expr: milp.SparsePair{
					Ind: []int{soc, chg, dis},
					Val: []float64{1, -dt * cfg.EffChg, dt / cfg.EffDis},
				},
			}
			continue
		}

		prev, err := ctx.Variable(scope.Key(fieldSOC, t-1))
		if err != nil {
			return err
		}
		enerCtrs[t] = milp.Constraint{
			Sense: milp.Equal,
			RHS:   0,
			Expr: milp.SparsePair{
				Ind: []int{soc, prev, chg, dis},
				Val: []float64{1, -eta, -dt * cfg.EffChg, dt / cfg.EffDis},
			},
		}
	}
	if _, err := ctx.DeclareConstraints(enerKeys, enerCtrs); err != nil {
		return err
	}

	// indicator-coupled power bounds:
	//   ind*pwrMin <= pwr <= ind*pwrMax
	bounds := []struct {
		pwr      builder.Field
		ind      builder.Field
		min, max builder.Field
		lo, hi   float64
	}{
		{fieldPwrChg, fieldChgInd, fieldPwrChgMin, fieldPwrChgMax, cfg.PwrChgMin, cfg.PwrChgMax},
		{fieldPwrDis, fieldDisInd, fieldPwrDisMin, fieldPwrDisMax, cfg.PwrDisMin, cfg.PwrDisMax},
	}
	for _, b := range bounds {
		minKeys := make([]builder.Key, len(window))
		minCtrs := make([]milp.Constraint, len(window))
		maxKeys := make([]builder.Key, len(window))
		maxCtrs := make([]milp.Constraint, len(window))
		for _, t := range window {
			pwr, err := ctx.Variable(scope.Key(b.pwr, t))
			if err != nil {
				return err
			}
			ind, err := ctx.Variable(scope.Key(b.ind, t))
			if err != nil {
				return err
			}
			minKeys[t] = scope.Key(b.min, t)
			minCtrs[t] = milp.Constraint{
				Sense: milp.LessEqual,
				RHS:   0,
				Expr:  milp.SparsePair{Ind: []int{pwr, ind}, Val: []float64{-1, b.lo}},
			}
			maxKeys[t] = scope.Key(b.max, t)
			maxCtrs[t] = milp.Constraint{
				Sense: milp.LessEqual,
				RHS:   0,
				Expr:  milp.SparsePair{Ind: []int{pwr, ind}, Val: []float64{1, -b.hi}},
			}
		}
		if _, err := ctx.DeclareConstraints(minKeys, minCtrs); err != nil {
			return err
		}
		if _, err := ctx.DeclareConstraints(maxKeys, maxCtrs); err != nil {
			return err
		}
	}

	// cannot charge and discharge simultaneously
	binKeys := make([]builder.Key, len(window))
	binCtrs := make([]milp.Constraint, len(window))
	for _, t := range window {
		chg, err := ctx.Variable(scope.Key(fieldChgInd, t))
		if err != nil {
			return err
		}
		dis, err := ctx.Variable(scope.Key(fieldDisInd, t))
		if err != nil {
			return err
		}
		binKeys[t] = scope.Key(fieldCstrBin, t)
		binCtrs[t] = milp.Constraint{
			Sense: milp.LessEqual,
			RHS:   1,
			Expr:  milp.SparsePair{Ind: []int{chg, dis}, Val: []float64{1, 1}},
		}
	}
	if _, err := ctx.DeclareConstraints(binKeys, binCtrs); err != nil {
		return err
	}

	return nil
}

// Eta returns the per-step self-discharge decay factor for a step of dt
// hours: after HalfLife hours of no charge or discharge the stored energy
// halves.
func (d *Battery) Eta(dt float64) float64 {
	return math.Exp(-math.Ln2 * dt / d.config.HalfLife)
}
