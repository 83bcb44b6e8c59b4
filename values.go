package gridprop

import (
	"fmt"

	"github.com/strata-data/gridprop/errors"
)

// flatIndex maps 0-based (i, j, k) to the C-order storage index.
func (p *GridProperty) flatIndex(i, j, k int) int {
	return (i*p.nrow+j)*p.nlay + k
}

func (p *GridProperty) inBounds(i, j, k int) bool {
	return i >= 0 && i < p.ncol && j >= 0 && j < p.nrow && k >= 0 && k < p.nlay
}

// Dimensions returns (ncol, nrow, nlay).
func (p *GridProperty) Dimensions() (int, int, int) {
	return p.ncol, p.nrow, p.nlay
}

// Len returns the total cell count ncol*nrow*nlay.
func (p *GridProperty) Len() int {
	return p.ncol * p.nrow * p.nlay
}

// At returns the value at 0-based (i, j, k) and whether the cell is defined.
// Discrete values are widened to float64. Out-of-range indices panic, like
// slice indexing; use LookupIJK for validated batch access.
func (p *GridProperty) At(i, j, k int) (float64, bool) {
	if !p.inBounds(i, j, k) {
		panic(fmt.Sprintf("gridprop: index (%d, %d, %d) out of range for dimensions (%d, %d, %d)",
			i, j, k, p.ncol, p.nrow, p.nlay))
	}
	idx := p.flatIndex(i, j, k)
	if p.mask[idx] {
		return 0, false
	}
	if p.discrete {
		return float64(p.ivals[idx]), true
	}
	return p.fvals[idx], true
}

// SetAt writes v at 0-based (i, j, k) and marks the cell defined. Discrete
// properties truncate v toward zero. Out-of-range indices panic.
func (p *GridProperty) SetAt(i, j, k int, v float64) {
	if !p.inBounds(i, j, k) {
		panic(fmt.Sprintf("gridprop: index (%d, %d, %d) out of range for dimensions (%d, %d, %d)",
			i, j, k, p.ncol, p.nrow, p.nlay))
	}
	idx := p.flatIndex(i, j, k)
	if p.discrete {
		p.ivals[idx] = int32(v)
	} else {
		p.fvals[idx] = v
	}
	p.mask[idx] = false
}

// SetFloat64s replaces the values of a continuous property from a flat
// C-order slice. The slice is copied, the mask resets to all-defined and
// undef sentinels are re-masked. Count mismatches are shape errors; calling
// on a discrete property is a value error.
func (p *GridProperty) SetFloat64s(vals []float64) error {
	if p.discrete {
		return errors.NewValueError("cannot assign float values to a discrete property; convert first or use SetValuesAuto")
	}
	if len(vals) != p.Len() {
		return errors.NewShapeError("got %d values, want %d for dimensions (%d, %d, %d)",
			len(vals), p.Len(), p.ncol, p.nrow, p.nlay)
	}
	p.fvals = append([]float64(nil), vals...)
	p.mask = make([]bool, len(vals))
	p.MaskUndefined()
	return nil
}

// SetInt32s replaces the values of a discrete property from a flat C-order
// slice, with the same contract as SetFloat64s. The code table is left
// untouched; conversions and kind-flipping assignments rebuild it.
func (p *GridProperty) SetInt32s(vals []int32) error {
	if !p.discrete {
		return errors.NewValueError("cannot assign integer values to a continuous property; convert first or use SetValuesAuto")
	}
	if len(vals) != p.Len() {
		return errors.NewShapeError("got %d values, want %d for dimensions (%d, %d, %d)",
			len(vals), p.Len(), p.ncol, p.nrow, p.nlay)
	}
	p.ivals = append([]int32(nil), vals...)
	p.mask = make([]bool, len(vals))
	p.MaskUndefined()
	return nil
}

// MaskUndefined masks every cell whose stored value exceeds the undef limit
// for the property kind. Idempotent; already-masked cells stay masked.
func (p *GridProperty) MaskUndefined() {
	if p.discrete {
		for idx, v := range p.ivals {
			if v > UndefIntLimit {
				p.mask[idx] = true
			}
		}
		return
	}
	for idx, v := range p.fvals {
		if v > UndefLimit {
			p.mask[idx] = true
		}
	}
}

// Crop restricts the property in place to an inclusive 1-based subrange per
// axis, keeping values and mask for the retained cells. Invalid ranges
// (reversed, zero or out of bounds) are value errors and leave the property
// unchanged.
func (p *GridProperty) Crop(iRange, jRange, kRange [2]int) error {
	if err := checkCropRange("column", iRange, p.ncol); err != nil {
		return err
	}
	if err := checkCropRange("row", jRange, p.nrow); err != nil {
		return err
	}
	if err := checkCropRange("layer", kRange, p.nlay); err != nil {
		return err
	}

	ncol := iRange[1] - iRange[0] + 1
	nrow := jRange[1] - jRange[0] + 1
	nlay := kRange[1] - kRange[0] + 1
	n := ncol * nrow * nlay

	mask := make([]bool, 0, n)
	var fvals []float64
	var ivals []int32
	if p.discrete {
		ivals = make([]int32, 0, n)
	} else {
		fvals = make([]float64, 0, n)
	}
	for i := iRange[0] - 1; i < iRange[1]; i++ {
		for j := jRange[0] - 1; j < jRange[1]; j++ {
			for k := kRange[0] - 1; k < kRange[1]; k++ {
				idx := p.flatIndex(i, j, k)
				mask = append(mask, p.mask[idx])
				if p.discrete {
					ivals = append(ivals, p.ivals[idx])
				} else {
					fvals = append(fvals, p.fvals[idx])
				}
			}
		}
	}

	p.ncol, p.nrow, p.nlay = ncol, nrow, nlay
	p.mask = mask
	p.fvals = fvals
	p.ivals = ivals
	return nil
}

func checkCropRange(axis string, r [2]int, dim int) error {
	if r[0] < 1 || r[1] > dim || r[0] > r[1] {
		return errors.NewValueError("invalid %s range (%d, %d) for dimension %d", axis, r[0], r[1], dim)
	}
	return nil
}

// DenseFloat64s returns a fresh flat C-order copy of a continuous property
// with masked cells replaced by fill (default Undef). The result never
// aliases internal storage.
func (p *GridProperty) DenseFloat64s(fill ...float64) ([]float64, error) {
	if p.discrete {
		return nil, errors.NewValueError("property %q is discrete, use DenseInt32s", p.name)
	}
	fv := Undef
	if len(fill) > 0 {
		fv = fill[0]
	}
	out := make([]float64, len(p.fvals))
	copy(out, p.fvals)
	for idx, masked := range p.mask {
		if masked {
			out[idx] = fv
		}
	}
	return out, nil
}

// DenseInt32s is the discrete counterpart of DenseFloat64s, with masked
// cells replaced by fill (default UndefInt).
func (p *GridProperty) DenseInt32s(fill ...int32) ([]int32, error) {
	if !p.discrete {
		return nil, errors.NewValueError("property %q is continuous, use DenseFloat64s", p.name)
	}
	fv := UndefInt
	if len(fill) > 0 {
		fv = fill[0]
	}
	out := make([]int32, len(p.ivals))
	copy(out, p.ivals)
	for idx, masked := range p.mask {
		if masked {
			out[idx] = fv
		}
	}
	return out, nil
}

// ActiveFloat64s returns the defined cell values in C order, widened to
// float64 for discrete properties. The result is a fresh slice.
func (p *GridProperty) ActiveFloat64s() []float64 {
	out := make([]float64, 0, p.Len())
	for idx, masked := range p.mask {
		if masked {
			continue
		}
		if p.discrete {
			out = append(out, float64(p.ivals[idx]))
		} else {
			out = append(out, p.fvals[idx])
		}
	}
	return out
}

// ActiveInt32s returns the defined cell values of a discrete property in C
// order. Continuous properties are a value error.
func (p *GridProperty) ActiveInt32s() ([]int32, error) {
	if !p.discrete {
		return nil, errors.NewValueError("property %q is continuous, use ActiveFloat64s", p.name)
	}
	out := make([]int32, 0, len(p.ivals))
	for idx, masked := range p.mask {
		if !masked {
			out = append(out, p.ivals[idx])
		}
	}
	return out, nil
}

// NDefined returns the count of defined (unmasked) cells.
func (p *GridProperty) NDefined() int {
	n := 0
	for _, masked := range p.mask {
		if !masked {
			n++
		}
	}
	return n
}
