/*
fixedload.go Uncontrollable load. A fixed profile contributes no decision
variables; its consumption is folded into the right-hand side of the
household's net-load linking constraints. The link row reads
-netLoad + sum(device powers) = 0, so a fixed draw of L[t] shifts the RHS
to -L[t].
*/

package fixedload

import (
	"encoding/json"
	"fmt"

	"github.com/ohowland/dres_core/internal/pkg/builder"
	"github.com/ohowland/dres_core/internal/pkg/device"
)

// Config holds the fixed load's parameters.
type Config struct {
	Label string    `json:"Label"`
	Load  []float64 `json:"Load"`
}

// Load is a fixed, uncontrollable load profile.
type Load struct {
	config Config
}

// New returns a configured fixed load.
func New(cfg Config) (*Load, error) {
	if cfg.Label == "" {
		return nil, &device.ParameterError{Device: "fixedload", Reason: "empty label"}
	}
	if len(cfg.Load) == 0 {
		return nil, &device.ParameterError{Device: cfg.Label, Reason: "empty load profile"}
	}
	return &Load{config: cfg}, nil
}

// NewFromJSON returns a fixed load configured from raw JSON.
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

// Contribute subtracts the load profile from the household's net-load link
// rows. The rows must already exist; an out-of-order call fails with
// UnknownKeyError before anything is mutated.
func (d *Load) Contribute(ctx *builder.Context, household string) error {
	if len(d.config.Load) != ctx.Horizon() {
		return &device.ParameterError{
			Device: d.config.Label,
			Reason: fmt.Sprintf("load profile length %d != horizon %d", len(d.config.Load), ctx.Horizon()),
		}
	}

	hh := builder.HouseholdScope(household)
	for _, t := range ctx.Window() {
		if _, err := ctx.Constraint(hh.Key(builder.FieldLinkNetLoad, t)); err != nil {
			return err
		}
	}

	for _, t := range ctx.Window() {
		if err := ctx.ShiftRHS(hh.Key(builder.FieldLinkNetLoad, t), -d.config.Load[t]); err != nil {
			return err
		}
	}
	return nil
}
