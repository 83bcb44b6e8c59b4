package gridprop

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/strata-data/gridprop/errors"
)

// Summary holds descriptive statistics over the defined cells of a
// property. Discrete values are widened to float64.
type Summary struct {
	N      int
	Mean   float64
	StdDev float64
	Min    float64
	Max    float64
	P10    float64
	P50    float64
	P90    float64
}

// Stats computes descriptive statistics over the defined cells. A property
// with no defined cells is a value error. StdDev is 0 for a single cell.
func (p *GridProperty) Stats() (Summary, error) {
	vals := p.ActiveFloat64s()
	if len(vals) == 0 {
		return Summary{}, errors.NewValueError("property %q has no defined cells", p.name)
	}
	sort.Float64s(vals)

	s := Summary{
		N:    len(vals),
		Mean: stat.Mean(vals, nil),
		Min:  vals[0],
		Max:  vals[len(vals)-1],
		P10:  stat.Quantile(0.10, stat.Empirical, vals, nil),
		P50:  stat.Quantile(0.50, stat.Empirical, vals, nil),
		P90:  stat.Quantile(0.90, stat.Empirical, vals, nil),
	}
	if len(vals) > 1 {
		s.StdDev = stat.StdDev(vals, nil)
	}
	return s, nil
}
