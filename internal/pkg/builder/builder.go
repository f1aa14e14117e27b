/*
builder.go Assembly context for residential demand-response MILP instances.
The Context owns the variable and constraint index registries and is the only
mutation path into the underlying model: devices receive it by reference,
declare their structure through it, and look up linking rows declared by
earlier assembly steps. Assembly is strictly sequential; the Context is not
safe for concurrent use.
*/

package builder

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ohowland/dres_core/internal/pkg/milp"
)

// Context threads the shared registries, the model, and the run-wide
// assembly settings through every contribution call.
type Context struct {
	pid      uuid.UUID
	model    milp.Model
	vars     map[Key]int
	ctrs     map[Key]int
	window   []int
	deltaT   float64
	binaries bool
}

// New returns a Context over model for the time window [0, horizon) with
// step duration deltaT hours. binaries selects binary indicator variables;
// when false every indicator is relaxed to [0,1] continuous.
func New(model milp.Model, horizon int, deltaT float64, binaries bool) (*Context, error) {
	if horizon < 1 {
		return nil, fmt.Errorf("builder: horizon must be positive, got %d", horizon)
	}
	if deltaT <= 0 {
		return nil, fmt.Errorf("builder: deltaT must be positive, got %g", deltaT)
	}

	pid, err := uuid.NewUUID()
	if err != nil {
		return nil, err
	}

	window := make([]int, horizon)
	for t := range window {
		window[t] = t
	}

	return &Context{
		pid:      pid,
		model:    model,
		vars:     make(map[Key]int),
		ctrs:     make(map[Key]int),
		window:   window,
		deltaT:   deltaT,
		binaries: binaries,
	}, nil
}

// PID is an accessor for the assembly run's process id.
func (c *Context) PID() uuid.UUID {
	return c.pid
}

// Window returns the time steps 0..T-1.
func (c *Context) Window() []int {
	return c.window
}

// Horizon returns T, the number of time steps.
func (c *Context) Horizon() int {
	return len(c.window)
}

// DeltaT returns the wall-clock duration of one step, in hours.
func (c *Context) DeltaT() float64 {
	return c.deltaT
}

// Binaries reports whether binary requirements are enforced this run.
func (c *Context) Binaries() bool {
	return c.binaries
}

// IndicatorType returns the variable type for on/off indicators under the
// run's binaries setting.
func (c *Context) IndicatorType() milp.VarType {
	if c.binaries {
		return milp.Binary
	}
	return milp.Continuous
}

// DeclareVariables declares one variable per key, in order. Variable names
// are derived from the keys; any name set on the inputs is overwritten.
func (c *Context) DeclareVariables(keys []Key, vars []milp.Variable) ([]int, error) {
	if len(keys) != len(vars) {
		return nil, fmt.Errorf("builder: %d keys for %d variables", len(keys), len(vars))
	}
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		if _, ok := c.vars[k]; ok || seen[k] {
			return nil, &DuplicateKeyError{Kind: "variable", Key: k}
		}
		seen[k] = true
	}
	for i := range vars {
		vars[i].Name = keys[i].Name()
	}

	indices, err := c.model.AddVariables(vars)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		c.vars[k] = indices[i]
	}
	return indices, nil
}

// DeclareVariable declares a single variable.
func (c *Context) DeclareVariable(key Key, v milp.Variable) (int, error) {
	indices, err := c.DeclareVariables([]Key{key}, []milp.Variable{v})
	if err != nil {
		return 0, err
	}
	return indices[0], nil
}

// DeclareConstraints declares one constraint per key, in order.
func (c *Context) DeclareConstraints(keys []Key, ctrs []milp.Constraint) ([]int, error) {
	if len(keys) != len(ctrs) {
		return nil, fmt.Errorf("builder: %d keys for %d constraints", len(keys), len(ctrs))
	}
	seen := make(map[Key]bool, len(keys))
	for _, k := range keys {
		if _, ok := c.ctrs[k]; ok || seen[k] {
			return nil, &DuplicateKeyError{Kind: "constraint", Key: k}
		}
		seen[k] = true
	}
	for i := range ctrs {
		ctrs[i].Name = keys[i].Name()
	}

	indices, err := c.model.AddConstraints(ctrs)
	if err != nil {
		return nil, err
	}
	for i, k := range keys {
		c.ctrs[k] = indices[i]
	}
	return indices, nil
}

// DeclareConstraint declares a single constraint.
func (c *Context) DeclareConstraint(key Key, ctr milp.Constraint) (int, error) {
	indices, err := c.DeclareConstraints([]Key{key}, []milp.Constraint{ctr})
	if err != nil {
		return 0, err
	}
	return indices[0], nil
}

// Variable returns the model index of a declared variable.
func (c *Context) Variable(key Key) (int, error) {
	idx, ok := c.vars[key]
	if !ok {
		return 0, &UnknownKeyError{Kind: "variable", Key: key}
	}
	return idx, nil
}

// Constraint returns the model index of a declared constraint.
func (c *Context) Constraint(key Key) (int, error) {
	idx, ok := c.ctrs[key]
	if !ok {
		return 0, &UnknownKeyError{Kind: "constraint", Key: key}
	}
	return idx, nil
}

// NumVariables returns the number of declared variables.
func (c *Context) NumVariables() int {
	return len(c.vars)
}

// NumConstraints returns the number of declared constraints.
func (c *Context) NumConstraints() int {
	return len(c.ctrs)
}

// ShiftRHS adds delta to the right-hand side of a declared constraint. This
// is the only sanctioned RHS mutation; it fails with UnknownKeyError if the
// constraint does not exist yet.
func (c *Context) ShiftRHS(key Key, delta float64) error {
	idx, err := c.Constraint(key)
	if err != nil {
		return err
	}
	rhs, err := c.model.ConstraintRHS([]int{idx})
	if err != nil {
		return err
	}
	return c.model.SetConstraintRHS([]milp.RHSUpdate{{Index: idx, Value: rhs[0] + delta}})
}
