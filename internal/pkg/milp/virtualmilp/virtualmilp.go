/*
virtualmilp.go In-memory implementation of the milp.Model interface. It stands
in for an external solver backend the same way the virtual assets stand in for
hardware: it records every declaration and exposes the stored model for
inspection, but it never solves.
*/

package virtualmilp

import (
	"fmt"
	"io"
	"math"

	"github.com/ohowland/dres_core/internal/pkg/milp"
)

// Column is one stored variable declaration.
type Column struct {
	Name  string
	Lower float64
	Upper float64
	Obj   float64
	Type  milp.VarType
}

// Row is one stored constraint declaration.
type Row struct {
	Name  string
	Sense milp.Sense
	RHS   float64
	Ind   []int
	Val   []float64
}

// Model accumulates columns and rows. Assembly is single-threaded, so the
// structure carries no lock.
type Model struct {
	cols []Column
	rows []Row
}

// New returns an empty model.
func New() *Model {
	return &Model{
		cols: make([]Column, 0),
		rows: make([]Row, 0),
	}
}

// AddVariables appends columns and applies their retroactive coefficients to
// existing rows.
func (m *Model) AddVariables(vars []milp.Variable) ([]int, error) {
	indices := make([]int, len(vars))
	for i, v := range vars {
		idx := len(m.cols)
		m.cols = append(m.cols, Column{v.Name, v.Lower, v.Upper, v.Obj, v.Type})

		if len(v.Column.Ind) != len(v.Column.Val) {
			return nil, fmt.Errorf("virtualmilp: variable %v column ind/val length mismatch", v.Name)
		}
		for j, row := range v.Column.Ind {
			if row < 0 || row >= len(m.rows) {
				return nil, fmt.Errorf("virtualmilp: variable %v contributes to undeclared row %v", v.Name, row)
			}
			m.rows[row].Ind = append(m.rows[row].Ind, idx)
			m.rows[row].Val = append(m.rows[row].Val, v.Column.Val[j])
		}
		indices[i] = idx
	}
	return indices, nil
}

// AddConstraints appends rows over existing columns.
func (m *Model) AddConstraints(ctrs []milp.Constraint) ([]int, error) {
	indices := make([]int, len(ctrs))
	for i, c := range ctrs {
		if len(c.Expr.Ind) != len(c.Expr.Val) {
			return nil, fmt.Errorf("virtualmilp: constraint %v expr ind/val length mismatch", c.Name)
		}
		for _, col := range c.Expr.Ind {
			if col < 0 || col >= len(m.cols) {
				return nil, fmt.Errorf("virtualmilp: constraint %v references undeclared column %v", c.Name, col)
			}
		}
		ind := make([]int, len(c.Expr.Ind))
		val := make([]float64, len(c.Expr.Val))
		copy(ind, c.Expr.Ind)
		copy(val, c.Expr.Val)

		indices[i] = len(m.rows)
		m.rows = append(m.rows, Row{c.Name, c.Sense, c.RHS, ind, val})
	}
	return indices, nil
}

// ConstraintRHS reads right-hand sides by row index.
func (m *Model) ConstraintRHS(indices []int) ([]float64, error) {
	rhs := make([]float64, len(indices))
	for i, idx := range indices {
		if idx < 0 || idx >= len(m.rows) {
			return nil, fmt.Errorf("virtualmilp: rhs read of undeclared row %v", idx)
		}
		rhs[i] = m.rows[idx].RHS
	}
	return rhs, nil
}

// SetConstraintRHS rewrites right-hand sides by row index.
func (m *Model) SetConstraintRHS(updates []milp.RHSUpdate) error {
	for _, u := range updates {
		if u.Index < 0 || u.Index >= len(m.rows) {
			return fmt.Errorf("virtualmilp: rhs write to undeclared row %v", u.Index)
		}
		m.rows[u.Index].RHS = u.Value
	}
	return nil
}

// NumVariables returns the number of declared columns.
func (m *Model) NumVariables() int {
	return len(m.cols)
}

// NumConstraints returns the number of declared rows.
func (m *Model) NumConstraints() int {
	return len(m.rows)
}

// NumBinaries returns the number of columns declared binary.
func (m *Model) NumBinaries() int {
	n := 0
	for _, c := range m.cols {
		if c.Type == milp.Binary {
			n++
		}
	}
	return n
}

// Columns returns a copy of the stored columns.
func (m *Model) Columns() []Column {
	cols := make([]Column, len(m.cols))
	copy(cols, m.cols)
	return cols
}

// Rows returns a copy of the stored rows, expressions included.
func (m *Model) Rows() []Row {
	rows := make([]Row, len(m.rows))
	for i, r := range m.rows {
		ind := make([]int, len(r.Ind))
		val := make([]float64, len(r.Val))
		copy(ind, r.Ind)
		copy(val, r.Val)
		rows[i] = Row{r.Name, r.Sense, r.RHS, ind, val}
	}
	return rows
}

// Column returns one stored column.
func (m *Model) Column(idx int) (Column, error) {
	if idx < 0 || idx >= len(m.cols) {
		return Column{}, fmt.Errorf("virtualmilp: column %v not declared", idx)
	}
	return m.cols[idx], nil
}

// Row returns one stored row with copied expression slices.
func (m *Model) Row(idx int) (Row, error) {
	if idx < 0 || idx >= len(m.rows) {
		return Row{}, fmt.Errorf("virtualmilp: row %v not declared", idx)
	}
	r := m.rows[idx]
	ind := make([]int, len(r.Ind))
	val := make([]float64, len(r.Val))
	copy(ind, r.Ind)
	copy(val, r.Val)
	return Row{r.Name, r.Sense, r.RHS, ind, val}, nil
}

// writeTerm emits one linear term with a sign-separated coefficient, the form
// LP readers expect.
func writeTerm(w io.Writer, first bool, val float64, name string) {
	switch {
	case first:
		fmt.Fprintf(w, " %g %s", val, name)
	case val < 0:
		fmt.Fprintf(w, " - %g %s", -val, name)
	default:
		fmt.Fprintf(w, " + %g %s", val, name)
	}
}

// WriteLP writes the stored model in LP text format.
func (m *Model) WriteLP(w io.Writer) error {
	if _, err := fmt.Fprintln(w, "Minimize"); err != nil {
		return err
	}
	fmt.Fprint(w, " obj:")
	first := true
	for _, c := range m.cols {
		if c.Obj == 0 {
			continue
		}
		writeTerm(w, first, c.Obj, c.Name)
		first = false
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Subject To")
	for _, r := range m.rows {
		fmt.Fprintf(w, " %s:", r.Name)
		for j, col := range r.Ind {
			writeTerm(w, j == 0, r.Val[j], m.cols[col].Name)
		}
		switch r.Sense {
		case milp.Equal:
			fmt.Fprintf(w, " = %g\n", r.RHS)
		case milp.LessEqual:
			fmt.Fprintf(w, " <= %g\n", r.RHS)
		case milp.GreaterEqual:
			fmt.Fprintf(w, " >= %g\n", r.RHS)
		}
	}

	fmt.Fprintln(w, "Bounds")
	for _, c := range m.cols {
		lowerInf := math.IsInf(c.Lower, -1)
		upperInf := math.IsInf(c.Upper, 1)
		switch {
		case lowerInf && upperInf:
			fmt.Fprintf(w, " %s free\n", c.Name)
		case lowerInf:
			fmt.Fprintf(w, " -inf <= %s <= %g\n", c.Name, c.Upper)
		case upperInf:
			fmt.Fprintf(w, " %g <= %s <= +inf\n", c.Lower, c.Name)
		default:
			fmt.Fprintf(w, " %g <= %s <= %g\n", c.Lower, c.Name, c.Upper)
		}
	}

	fmt.Fprintln(w, "Binaries")
	for _, c := range m.cols {
		if c.Type == milp.Binary {
			fmt.Fprintf(w, " %s\n", c.Name)
		}
	}

	_, err := fmt.Fprintln(w, "End")
	return err
}
