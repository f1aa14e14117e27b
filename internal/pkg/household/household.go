/*
household.go A household owns an ordered set of devices and one net-load
variable/constraint pair per time step. The link row -netLoad + sum(device
powers) = 0 is declared before any device contributes; each device then joins
it through a column contribution when its power variable is declared. Device
ordering affects index numbering only, never the model's feasible set.
*/

package household

import (
	"github.com/google/uuid"
	"github.com/ohowland/dres_core/internal/pkg/builder"
	"github.com/ohowland/dres_core/internal/pkg/device"
	"github.com/ohowland/dres_core/internal/pkg/milp"
)

// Household is one resource: a label, a loose net-load cap, and its devices.
type Household struct {
	pid        uuid.UUID
	label      string
	netLoadMax float64
	devices    []device.Device
}

// New returns a configured household. Device labels must be unique within
// the household so registry keys cannot collide.
func New(label string, netLoadMax float64, devices ...device.Device) (*Household, error) {
	if label == "" {
		return nil, &device.ParameterError{Device: "household", Reason: "empty label"}
	}

	seen := make(map[string]bool)
	for _, d := range devices {
		if seen[d.Label()] {
			return nil, &device.ParameterError{Device: label, Reason: "duplicate device label " + d.Label()}
		}
		seen[d.Label()] = true
	}

	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}

	return &Household{pid, label, netLoadMax, devices}, nil
}

// PID is an accessor for the household's process id.
func (h *Household) PID() uuid.UUID {
	return h.pid
}

// Label is an accessor for the household label.
func (h *Household) Label() string {
	return h.label
}

// Devices returns the household's devices in contribution order.
func (h *Household) Devices() []device.Device {
	out := make([]device.Device, len(h.devices))
	copy(out, h.devices)
	return out
}

// Attach declares the household's net-load structures and contributes its
// devices in list order. The aggregator's total-load link rows must already
// exist.
func (h *Household) Attach(ctx *builder.Context) error {
	agg := builder.AggregatorScope()
	hh := builder.HouseholdScope(h.label)
	window := ctx.Window()

	// net load, +1 into the system link row
	netKeys := make([]builder.Key, len(window))
	netVars := make([]milp.Variable, len(window))
	for _, t := range window {
		link, err := ctx.Constraint(agg.Key(builder.FieldLinkTotal, t))
		if err != nil {
			return err
		}
		netKeys[t] = hh.Key(builder.FieldNetLoad, t)
		netVars[t] = milp.Variable{
			Lower:  milp.NegInf(),
			Upper:  h.netLoadMax,
			Type:   milp.Continuous,
			Column: milp.SparsePair{Ind: []int{link}, Val: []float64{1}},
		}
	}
	if _, err := ctx.DeclareVariables(netKeys, netVars); err != nil {
		return err
	}

	// -netLoad + sum(device powers) = 0, populated by device column
	// contributions as they declare their power variables
	linkKeys := make([]builder.Key, len(window))
	linkCtrs := make([]milp.Constraint, len(window))
	for _, t := range window {
		net, err := ctx.Variable(hh.Key(builder.FieldNetLoad, t))
		if err != nil {
			return err
		}
		linkKeys[t] = hh.Key(builder.FieldLinkNetLoad, t)
		linkCtrs[t] = milp.Constraint{
			Sense: milp.Equal,
			RHS:   0,
			Expr:  milp.SparsePair{Ind: []int{net}, Val: []float64{-1}},
		}
	}
	if _, err := ctx.DeclareConstraints(linkKeys, linkCtrs); err != nil {
		return err
	}

	for _, d := range h.devices {
		if err := d.Contribute(ctx, h.label); err != nil {
			return err
		}
	}
	return nil
}
