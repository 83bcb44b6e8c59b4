package gridprop

import (
	"math"

	"github.com/strata-data/gridprop/errors"
	"github.com/strata-data/gridprop/internal/monitoring"
)

// ActiveIndices returns the flat C-order indices of the defined cells. The
// result is recomputed on every call so it tracks mask mutations.
func (p *GridProperty) ActiveIndices() []int {
	out := make([]int, 0, p.Len())
	for idx, masked := range p.mask {
		if !masked {
			out = append(out, idx)
		}
	}
	return out
}

// DeriveActnum returns a discrete property over the same dimensions holding
// 1 for defined cells and 0 for undefined ones, with code table
// {0: "0", 1: "1"}. With maskZeros the inactive cells are masked in the
// result as well. The geometry link is carried over.
func (p *GridProperty) DeriveActnum(name string, maskZeros bool) *GridProperty {
	n := p.Len()
	act := &GridProperty{
		name:     name,
		ncol:     p.ncol,
		nrow:     p.nrow,
		nlay:     p.nlay,
		discrete: true,
		dtype:    Int32,
		ivals:    make([]int32, n),
		mask:     make([]bool, n),
		codes:    CodeTable{0: "0", 1: "1"},
		geom:     p.geom,
	}
	for idx, masked := range p.mask {
		if masked {
			act.mask[idx] = maskZeros
		} else {
			act.ivals[idx] = 1
		}
	}
	return act
}

// LookupIJK returns the property values at a batch of (i, j, k) index
// triplets given as float slices, as produced by well-path sampling. The
// slices must have equal length. NaN components pass through as NaN
// results and undefined cells also yield NaN. indexBase selects 0- or
// 1-based indexing. Any out-of-range index degrades the whole call to a nil
// result with a logged warning rather than an error.
func (p *GridProperty) LookupIJK(is, js, ks []float64, indexBase int) ([]float64, error) {
	if len(js) != len(is) || len(ks) != len(is) {
		return nil, errors.NewShapeError("index slices have lengths %d, %d, %d, want equal",
			len(is), len(js), len(ks))
	}
	if indexBase != 0 && indexBase != 1 {
		return nil, errors.NewValueError("index base must be 0 or 1, got %d", indexBase)
	}

	out := make([]float64, len(is))
	for n := range is {
		if math.IsNaN(is[n]) || math.IsNaN(js[n]) || math.IsNaN(ks[n]) {
			out[n] = math.NaN()
			continue
		}
		i := int(math.Trunc(is[n])) - indexBase
		j := int(math.Trunc(js[n])) - indexBase
		k := int(math.Trunc(ks[n])) - indexBase
		if !p.inBounds(i, j, k) {
			monitoring.Logf("gridprop: property %q: lookup index (%g, %g, %g) out of range for dimensions (%d, %d, %d), no result",
				p.name, is[n], js[n], ks[n], p.ncol, p.nrow, p.nlay)
			return nil, nil
		}
		if v, ok := p.At(i, j, k); ok {
			out[n] = v
		} else {
			out[n] = math.NaN()
		}
	}
	return out, nil
}
