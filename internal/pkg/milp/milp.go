/*
milp.go Types describing the mixed-integer linear programming capability
consumed during model assembly. The package defines what a modeling backend
must accept; it does not solve anything itself.
*/

package milp

import "math"

// Sense identifies the direction of a linear constraint.
type Sense byte

const (
	Equal        Sense = 'E'
	LessEqual    Sense = 'L'
	GreaterEqual Sense = 'G'
)

// VarType identifies the domain of a decision variable.
type VarType byte

const (
	Continuous VarType = 'C'
	Binary     VarType = 'B'
)

// Inf returns positive infinity, the conventional "no bound" marker.
func Inf() float64 {
	return math.Inf(1)
}

// NegInf returns negative infinity.
func NegInf() float64 {
	return math.Inf(-1)
}

// SparsePair is a sparse vector: parallel index and value slices.
type SparsePair struct {
	Ind []int
	Val []float64
}

// Variable declares one column of the model. Column carries coefficients
// contributed retroactively into constraints that already exist, so a new
// variable can join an earlier linking row without a second pass.
type Variable struct {
	Name   string
	Lower  float64
	Upper  float64
	Obj    float64
	Type   VarType
	Column SparsePair
}

// Constraint declares one row of the model over existing variables.
type Constraint struct {
	Name  string
	Sense Sense
	RHS   float64
	Expr  SparsePair
}

// RHSUpdate rewrites the right-hand side of one constraint.
type RHSUpdate struct {
	Index int
	Value float64
}

// Model is the modeling backend interface. Add methods return the assigned
// indices in declaration order. Implementations own storage and, eventually,
// the solve; assembly code only declares.
type Model interface {
	AddVariables(vars []Variable) ([]int, error)
	AddConstraints(ctrs []Constraint) ([]int, error)
	ConstraintRHS(indices []int) ([]float64, error)
	SetConstraintRHS(updates []RHSUpdate) error
}
