package gridprop

import (
	"math"

	"github.com/strata-data/gridprop/errors"
	"github.com/strata-data/gridprop/internal/monitoring"
)

// ContinuousToDiscrete converts the property to discrete storage in place.
// Defined values truncate toward zero; the code table is rebuilt labeling
// each distinct value with its decimal representation. Defined values
// outside the int32 range become undefined, with one logged summary line.
// Converting an already-discrete property is a logged no-op.
func (p *GridProperty) ContinuousToDiscrete() {
	if p.discrete {
		monitoring.Logf("gridprop: property %q is already discrete, no conversion", p.name)
		return
	}
	ivals := make([]int32, len(p.fvals))
	outOfRange := 0
	for idx, v := range p.fvals {
		if p.mask[idx] {
			ivals[idx] = UndefInt
			continue
		}
		if v > math.MaxInt32 || v < math.MinInt32 {
			ivals[idx] = UndefInt
			p.mask[idx] = true
			outOfRange++
			continue
		}
		ivals[idx] = int32(v)
	}
	if outOfRange > 0 {
		monitoring.Logf("gridprop: property %q: %d values outside int32 range marked undefined during conversion",
			p.name, outOfRange)
	}
	p.ivals = ivals
	p.fvals = nil
	p.discrete = true
	p.dtype = Int32
	p.MaskUndefined()
	p.codes = identityCodes(p.ivals, p.mask)
}

// DiscreteToContinuous converts the property to continuous storage in
// place, widening defined values to float64 and dropping the code table.
// Converting an already-continuous property is a logged no-op.
func (p *GridProperty) DiscreteToContinuous() {
	if !p.discrete {
		monitoring.Logf("gridprop: property %q is already continuous, no conversion", p.name)
		return
	}
	fvals := make([]float64, len(p.ivals))
	for idx, v := range p.ivals {
		if p.mask[idx] {
			fvals[idx] = Undef
			continue
		}
		fvals[idx] = float64(v)
	}
	p.fvals = fvals
	p.ivals = nil
	p.discrete = false
	p.dtype = Float64
	p.codes = nil
}

// SetValuesAuto assigns a flat C-order slice, detecting the property kind
// from the element type: float slices make the property continuous, integer
// slices make it discrete (rebuilding an identity code table). Count
// mismatches are shape errors and leave the property unchanged. Prefer the
// typed setters when the kind is known.
func (p *GridProperty) SetValuesAuto(values any) error {
	switch v := values.(type) {
	case []float64:
		return p.setAutoFloat64s(v)
	case []float32:
		return p.setAutoFloat64s(widenFloat32s(v))
	case []int32:
		return p.setAutoInt32s(v)
	case []int:
		return p.setAutoInt32s(narrowInts(v))
	default:
		return errors.NewValueError("unsupported values type %T, valid entries are: []float64, []float32, []int32, []int", values)
	}
}

func (p *GridProperty) setAutoFloat64s(vals []float64) error {
	if len(vals) != p.Len() {
		return errors.NewShapeError("got %d values, want %d for dimensions (%d, %d, %d)",
			len(vals), p.Len(), p.ncol, p.nrow, p.nlay)
	}
	if !p.discrete {
		return p.SetFloat64s(vals)
	}
	monitoring.Logf("gridprop: property %q converted to continuous by float value assignment", p.name)
	p.fvals = append([]float64(nil), vals...)
	p.ivals = nil
	p.discrete = false
	p.dtype = Float64
	p.codes = nil
	p.mask = make([]bool, len(vals))
	p.MaskUndefined()
	return nil
}

func (p *GridProperty) setAutoInt32s(vals []int32) error {
	if len(vals) != p.Len() {
		return errors.NewShapeError("got %d values, want %d for dimensions (%d, %d, %d)",
			len(vals), p.Len(), p.ncol, p.nrow, p.nlay)
	}
	if p.discrete {
		return p.SetInt32s(vals)
	}
	monitoring.Logf("gridprop: property %q converted to discrete by integer value assignment", p.name)
	p.ivals = append([]int32(nil), vals...)
	p.fvals = nil
	p.discrete = true
	p.dtype = Int32
	p.mask = make([]bool, len(vals))
	p.MaskUndefined()
	p.codes = identityCodes(p.ivals, p.mask)
	return nil
}
