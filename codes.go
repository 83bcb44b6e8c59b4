package gridprop

import (
	"sort"
	"strconv"

	"github.com/strata-data/gridprop/errors"
)

// CodeTable maps discrete category codes to display labels, e.g.
// {1: "sand", 2: "shale"}.
type CodeTable map[int32]string

// Clone returns a copy of the table. Nil stays nil.
func (c CodeTable) Clone() CodeTable {
	if c == nil {
		return nil
	}
	out := make(CodeTable, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// SortedCodes returns the codes in ascending order.
func (c CodeTable) SortedCodes() []int32 {
	out := make([]int32, 0, len(c))
	for k := range c {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Label returns the label for code and whether it is present.
func (c CodeTable) Label(code int32) (string, bool) {
	label, ok := c[code]
	return label, ok
}

// identityCodes builds a table labeling each distinct value with its own
// decimal representation, e.g. {1: "1", 4: "4"}.
func identityCodes(values []int32, mask []bool) CodeTable {
	out := make(CodeTable)
	for idx, v := range values {
		if mask[idx] {
			continue
		}
		if _, ok := out[v]; !ok {
			out[v] = strconv.Itoa(int(v))
		}
	}
	return out
}

// Codes returns a copy of the code table; nil for continuous properties.
func (p *GridProperty) Codes() CodeTable {
	return p.codes.Clone()
}

// SetCodes replaces the code table of a discrete property with a copy of c.
// Continuous properties are a value error.
func (p *GridProperty) SetCodes(c CodeTable) error {
	if !p.discrete {
		return errors.NewValueError("property %q is continuous and carries no code table", p.name)
	}
	p.codes = c.Clone()
	return nil
}
