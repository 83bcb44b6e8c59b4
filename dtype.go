package gridprop

import (
	"github.com/strata-data/gridprop/errors"
)

// Undefined-value sentinels. Codecs without native masking encode masked
// cells as the sentinel; the limit sits slightly below it so float rounding
// on the way through a file never un-masks a cell.
const (
	// Undef is the sentinel for undefined cells in continuous properties.
	Undef = 1e33
	// UndefLimit is the masking threshold for continuous properties.
	UndefLimit = 9.9e32
	// UndefInt is the sentinel for undefined cells in discrete properties.
	UndefInt int32 = 2000000000
	// UndefIntLimit is the masking threshold for discrete properties.
	UndefIntLimit int32 = 1999999999
)

// DType is the declared storage-width tag of a property. In-memory values
// are always held at canonical width (float64 for continuous, int32 for
// discrete); codecs carry the tag as metadata and restore it on import.
type DType string

// DType constants
const (
	Float64 DType = "float64"
	Float32 DType = "float32"
	Int32   DType = "int32"
	UInt16  DType = "uint16"
	UInt8   DType = "uint8"
)

// ValidContinuousDTypes contains the dtype tags a continuous property accepts.
var ValidContinuousDTypes = []DType{Float64, Float32}

// ValidDiscreteDTypes contains the dtype tags a discrete property accepts.
var ValidDiscreteDTypes = []DType{Int32, UInt16, UInt8}

// IsValidFor checks whether the dtype belongs to the allowed set for the
// given property kind.
func (d DType) IsValidFor(discrete bool) bool {
	for _, v := range validDTypes(discrete) {
		if d == v {
			return true
		}
	}
	return false
}

func validDTypes(discrete bool) []DType {
	if discrete {
		return ValidDiscreteDTypes
	}
	return ValidContinuousDTypes
}

// validDTypesString returns a comma-separated allowed set for error messages.
func validDTypesString(discrete bool) string {
	if discrete {
		return "int32, uint16, uint8"
	}
	return "float64, float32"
}

// canonicalDType returns the canonical storage width for a property kind.
func canonicalDType(discrete bool) DType {
	if discrete {
		return Int32
	}
	return Float64
}

// dtypeRange returns the representable value range for discrete narrowing
// tags. Int32 is canonical and unconstrained here.
func dtypeRange(d DType) (lo, hi int32, constrained bool) {
	switch d {
	case UInt8:
		return 0, 255, true
	case UInt16:
		return 0, 65535, true
	default:
		return 0, 0, false
	}
}

// SetDType re-tags the property's declared storage width. The tag must
// belong to the current kind's allowed set, and for narrowing discrete tags
// every defined value must be representable in the target width.
func (p *GridProperty) SetDType(d DType) error {
	if !d.IsValidFor(p.discrete) {
		return errors.NewValueError("dtype %q not allowed for %s property, valid entries are: %s",
			d, p.kindName(), validDTypesString(p.discrete))
	}
	if lo, hi, constrained := dtypeRange(d); constrained {
		for idx, v := range p.ivals {
			if p.mask[idx] {
				continue
			}
			if v < lo || v > hi {
				return errors.NewValueError("value %d at flat index %d does not fit dtype %q", v, idx, d)
			}
		}
	}
	p.dtype = d
	return nil
}

// DType returns the property's declared storage-width tag.
func (p *GridProperty) DType() DType {
	return p.dtype
}

func (p *GridProperty) kindName() string {
	if p.discrete {
		return "discrete"
	}
	return "continuous"
}
