package gridprop

import (
	"strings"

	"github.com/strata-data/gridprop/errors"
)

// PolygonSet is a map-view region used to restrict cell operations. Contains
// reports whether the point (x, y) falls inside the region.
type PolygonSet interface {
	Contains(x, y float64) bool
}

// PolygonFunc adapts a containment function to the PolygonSet interface.
type PolygonFunc func(x, y float64) bool

// Contains calls f(x, y).
func (f PolygonFunc) Contains(x, y float64) bool { return f(x, y) }

// Op is an arithmetic operation applied by OperationPolygons.
type Op string

const (
	OpAdd Op = "add"
	OpSub Op = "sub"
	OpMul Op = "mul"
	OpDiv Op = "div"
	OpSet Op = "set"
)

// ValidOps are the operations OperationPolygons accepts.
var ValidOps = []Op{OpAdd, OpSub, OpMul, OpDiv, OpSet}

// IsValid reports whether o is a supported operation.
func (o Op) IsValid() bool {
	for _, v := range ValidOps {
		if o == v {
			return true
		}
	}
	return false
}

func validOpsString() string {
	strs := make([]string, len(ValidOps))
	for i, v := range ValidOps {
		strs[i] = string(v)
	}
	return strings.Join(strs, ", ")
}

// OperationPolygons applies op with the given operand to every defined cell
// whose center falls inside ps (inside=true) or outside it (inside=false).
// Masked cells and cells without coordinates are untouched. The property
// must have a geometry attached; calling without one is a precondition
// error. Division by zero is rejected up front and the values are left
// unchanged. Discrete properties truncate results toward zero.
func (p *GridProperty) OperationPolygons(ps PolygonSet, value float64, op Op, inside bool) error {
	if p.geom == nil {
		return errors.NewPreconditionError("property %q has no geometry; polygon operations need cell coordinates", p.name)
	}
	if ps == nil {
		return errors.NewValueError("nil polygon set")
	}
	if !op.IsValid() {
		return errors.NewValueError("invalid operation %q, valid entries are: %s", string(op), validOpsString())
	}
	if op == OpDiv && value == 0 {
		return errors.NewValueError("division by zero, property %q left unchanged", p.name)
	}
	for i := 0; i < p.ncol; i++ {
		for j := 0; j < p.nrow; j++ {
			for k := 0; k < p.nlay; k++ {
				idx := p.flatIndex(i, j, k)
				if p.mask[idx] {
					continue
				}
				x, y, ok := p.geom.CellPoint(i, j, k)
				if !ok {
					continue
				}
				if ps.Contains(x, y) != inside {
					continue
				}
				p.applyOp(idx, value, op)
			}
		}
	}
	return nil
}

func (p *GridProperty) applyOp(idx int, value float64, op Op) {
	if p.discrete {
		p.ivals[idx] = int32(opResult(float64(p.ivals[idx]), value, op))
		return
	}
	p.fvals[idx] = opResult(p.fvals[idx], value, op)
}

func opResult(cell, value float64, op Op) float64 {
	switch op {
	case OpAdd:
		return cell + value
	case OpSub:
		return cell - value
	case OpMul:
		return cell * value
	case OpDiv:
		return cell / value
	case OpSet:
		return value
	}
	return cell
}

// AddInside adds value to defined cells inside ps.
func (p *GridProperty) AddInside(ps PolygonSet, value float64) error {
	return p.OperationPolygons(ps, value, OpAdd, true)
}

// AddOutside adds value to defined cells outside ps.
func (p *GridProperty) AddOutside(ps PolygonSet, value float64) error {
	return p.OperationPolygons(ps, value, OpAdd, false)
}

// SubInside subtracts value from defined cells inside ps.
func (p *GridProperty) SubInside(ps PolygonSet, value float64) error {
	return p.OperationPolygons(ps, value, OpSub, true)
}

// SubOutside subtracts value from defined cells outside ps.
func (p *GridProperty) SubOutside(ps PolygonSet, value float64) error {
	return p.OperationPolygons(ps, value, OpSub, false)
}

// MulInside multiplies defined cells inside ps by value.
func (p *GridProperty) MulInside(ps PolygonSet, value float64) error {
	return p.OperationPolygons(ps, value, OpMul, true)
}

// MulOutside multiplies defined cells outside ps by value.
func (p *GridProperty) MulOutside(ps PolygonSet, value float64) error {
	return p.OperationPolygons(ps, value, OpMul, false)
}

// DivInside divides defined cells inside ps by value.
func (p *GridProperty) DivInside(ps PolygonSet, value float64) error {
	return p.OperationPolygons(ps, value, OpDiv, true)
}

// DivOutside divides defined cells outside ps by value.
func (p *GridProperty) DivOutside(ps PolygonSet, value float64) error {
	return p.OperationPolygons(ps, value, OpDiv, false)
}

// SetInside assigns value to defined cells inside ps.
func (p *GridProperty) SetInside(ps PolygonSet, value float64) error {
	return p.OperationPolygons(ps, value, OpSet, true)
}

// SetOutside assigns value to defined cells outside ps.
func (p *GridProperty) SetOutside(ps PolygonSet, value float64) error {
	return p.OperationPolygons(ps, value, OpSet, false)
}
