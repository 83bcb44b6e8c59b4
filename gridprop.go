// Package gridprop implements the data model for 3D geological grid
// properties used in subsurface reservoir modeling: a masked, typed,
// shape-fixed array representing a single physical or categorical attribute
// (porosity, facies, pressure) over a structured grid.
//
// A property is either continuous (float64 storage) or discrete (int32
// storage plus a CodeTable of category labels). It may borrow a reference to
// an external Geometry for spatial operations, supports crop/mask/convert
// mutations, polygon-restricted arithmetic, active-cell index mapping, and
// file import/export through the roff and Eclipse-style codecs.
package gridprop

import (
	"github.com/strata-data/gridprop/errors"
)

// GridProperty is a single grid attribute over a structured 3D grid.
// Values are stored flat in C order (index (i*nrow+j)*nlay + k) at canonical
// width, with a parallel mask marking undefined cells. Not safe for
// concurrent mutation; see the package documentation.
type GridProperty struct {
	name    string
	date    string // resolved restart date (YYYYMMDD), empty when not applicable
	filesrc string

	ncol, nrow, nlay int

	discrete bool
	dtype    DType
	fvals    []float64 // continuous storage, nil when discrete
	ivals    []int32   // discrete storage, nil when continuous
	mask     []bool    // true = undefined
	codes    CodeTable // discrete only

	geom Geometry // borrowed, may be nil
}

// Params carries the optional construction arguments for New.
type Params struct {
	// Name is the property name; empty defaults to "unknown".
	Name string
	// Date is the property date (YYYYMMDD) for time-dependent attributes.
	Date string
	// Discrete selects integer storage plus a code table.
	Discrete bool
	// Values is an optional flat C-order slice: []float64 or []float32 for
	// continuous, []int32 or []int for discrete. Nil fills the self-test
	// pattern (constant 99 with a small masked corner block).
	Values any
	// Codes is an optional code table; discrete properties only.
	Codes CodeTable
}

// DefaultParams returns the construction defaults.
func DefaultParams() Params {
	return Params{Name: "unknown"}
}

// New constructs a property with fixed dimensions. Dimensions must be
// positive. When params.Values is provided its element count must equal
// ncol*nrow*nlay and its element kind must match params.Discrete; the
// kind-detecting assignment path is SetValuesAuto.
func New(ncol, nrow, nlay int, params Params) (*GridProperty, error) {
	if ncol <= 0 || nrow <= 0 || nlay <= 0 {
		return nil, errors.NewValueError("dimensions must be positive, got (%d, %d, %d)", ncol, nrow, nlay)
	}
	name := params.Name
	if name == "" {
		name = "unknown"
	}
	p := &GridProperty{
		name:     name,
		date:     params.Date,
		ncol:     ncol,
		nrow:     nrow,
		nlay:     nlay,
		discrete: params.Discrete,
		dtype:    canonicalDType(params.Discrete),
	}

	if params.Values == nil {
		p.fillTestPattern()
	} else if err := p.assignTyped(params.Values); err != nil {
		return nil, err
	}

	if params.Codes != nil {
		if err := p.SetCodes(params.Codes); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// fillTestPattern fills every cell with 99 and masks a small corner block
// (i in [0,3], j == 0, k in [0,1], clamped to the dimensions). Demo default
// for freshly constructed properties, not a production fill.
func (p *GridProperty) fillTestPattern() {
	n := p.Len()
	p.mask = make([]bool, n)
	if p.discrete {
		p.ivals = make([]int32, n)
		for idx := range p.ivals {
			p.ivals[idx] = 99
		}
	} else {
		p.fvals = make([]float64, n)
		for idx := range p.fvals {
			p.fvals[idx] = 99.0
		}
	}
	for i := 0; i < p.ncol && i < 4; i++ {
		for k := 0; k < p.nlay && k < 2; k++ {
			idx := p.flatIndex(i, 0, k)
			if p.discrete {
				p.ivals[idx] = UndefInt
			} else {
				p.fvals[idx] = Undef
			}
		}
	}
	p.MaskUndefined()
}

// assignTyped assigns a flat slice whose element kind must match the
// property kind. Mismatched kinds are rejected; SetValuesAuto is the
// explicit kind-detecting path.
func (p *GridProperty) assignTyped(values any) error {
	switch v := values.(type) {
	case []float64:
		if p.discrete {
			return errors.NewValueError("float values given for a discrete property; use SetValuesAuto for kind detection")
		}
		return p.SetFloat64s(v)
	case []float32:
		if p.discrete {
			return errors.NewValueError("float values given for a discrete property; use SetValuesAuto for kind detection")
		}
		return p.SetFloat64s(widenFloat32s(v))
	case []int32:
		if !p.discrete {
			return errors.NewValueError("integer values given for a continuous property; use SetValuesAuto for kind detection")
		}
		return p.SetInt32s(v)
	case []int:
		if !p.discrete {
			return errors.NewValueError("integer values given for a continuous property; use SetValuesAuto for kind detection")
		}
		return p.SetInt32s(narrowInts(v))
	default:
		return errors.NewValueError("unsupported values type %T, valid entries are: []float64, []float32, []int32, []int", values)
	}
}

// Name returns the property name.
func (p *GridProperty) Name() string { return p.name }

// SetName sets the property name.
func (p *GridProperty) SetName(name string) { p.name = name }

// Date returns the property date (YYYYMMDD), empty when not applicable.
func (p *GridProperty) Date() string { return p.date }

// SetDate sets the property date.
func (p *GridProperty) SetDate(date string) { p.date = date }

// FileSrc returns the provenance of the property values: the path it was
// imported from, with " (copy)" appended for copies.
func (p *GridProperty) FileSrc() string { return p.filesrc }

// IsDiscrete reports whether the property holds integer category codes.
func (p *GridProperty) IsDiscrete() bool { return p.discrete }

// Copy returns a deep copy of the property. Storage, mask and code table
// are duplicated; the geometry link is carried as the same borrowed
// reference. The copy's provenance gains a " (copy)" suffix.
func (p *GridProperty) Copy() *GridProperty {
	cp := &GridProperty{
		name:     p.name,
		date:     p.date,
		filesrc:  p.filesrc + " (copy)",
		ncol:     p.ncol,
		nrow:     p.nrow,
		nlay:     p.nlay,
		discrete: p.discrete,
		dtype:    p.dtype,
		codes:    p.codes.Clone(),
		geom:     p.geom,
	}
	cp.mask = append([]bool(nil), p.mask...)
	if p.discrete {
		cp.ivals = append([]int32(nil), p.ivals...)
	} else {
		cp.fvals = append([]float64(nil), p.fvals...)
	}
	return cp
}

func widenFloat32s(v []float32) []float64 {
	out := make([]float64, len(v))
	for idx, f := range v {
		out[idx] = float64(f)
	}
	return out
}

func narrowInts(v []int) []int32 {
	out := make([]int32, len(v))
	for idx, n := range v {
		out[idx] = int32(n)
	}
	return out
}
