package gridprop

import (
	"sort"
	"sync"

	"github.com/strata-data/gridprop/errors"
)

// Geometry is the grid a property can borrow spatial context from. A
// property never owns its geometry; callers keep the geometry alive for as
// long as linked properties use it.
type Geometry interface {
	// Dimensions returns (ncol, nrow, nlay).
	Dimensions() (int, int, int)
	// CellPoint returns the map-view (x, y) of the cell center at 0-based
	// (i, j, k), with ok=false for out-of-range indices.
	CellPoint(i, j, k int) (x, y float64, ok bool)
	// RegisterProperty records p in the geometry's property registry,
	// replacing any previous entry with the same name.
	RegisterProperty(p *GridProperty)
}

// Geometry returns the linked geometry, nil when none is attached.
func (p *GridProperty) Geometry() Geometry { return p.geom }

// SetGeometry links the property to g, or detaches it when g is nil. The
// geometry dimensions must match the property. Linking does not register
// the property with the geometry; import does both.
func (p *GridProperty) SetGeometry(g Geometry) error {
	if g == nil {
		p.geom = nil
		return nil
	}
	ncol, nrow, nlay := g.Dimensions()
	if ncol != p.ncol || nrow != p.nrow || nlay != p.nlay {
		return errors.NewShapeError("geometry dimensions (%d, %d, %d) do not match property dimensions (%d, %d, %d)",
			ncol, nrow, nlay, p.ncol, p.nrow, p.nlay)
	}
	p.geom = g
	return nil
}

// UniformGridParams carries the map-view placement of a UniformGrid.
// Zero increments default to 1.0.
type UniformGridParams struct {
	XOri, YOri float64
	XInc, YInc float64
}

// UniformGrid is a regular axis-aligned grid geometry: cell (i, j) centers
// at (XOri+(i+0.5)*XInc, YOri+(j+0.5)*YInc) for every layer. It keeps a
// registry of linked properties. Safe for concurrent use.
type UniformGrid struct {
	ncol, nrow, nlay int
	xori, yori       float64
	xinc, yinc       float64

	mu    sync.RWMutex
	props map[string]*GridProperty
}

// NewUniformGrid constructs a grid geometry with the given dimensions.
// Dimensions must be positive and increments non-negative.
func NewUniformGrid(ncol, nrow, nlay int, params UniformGridParams) (*UniformGrid, error) {
	if ncol <= 0 || nrow <= 0 || nlay <= 0 {
		return nil, errors.NewValueError("dimensions must be positive, got (%d, %d, %d)", ncol, nrow, nlay)
	}
	if params.XInc < 0 || params.YInc < 0 {
		return nil, errors.NewValueError("increments must be non-negative, got (%g, %g)", params.XInc, params.YInc)
	}
	xinc, yinc := params.XInc, params.YInc
	if xinc == 0 {
		xinc = 1.0
	}
	if yinc == 0 {
		yinc = 1.0
	}
	return &UniformGrid{
		ncol:  ncol,
		nrow:  nrow,
		nlay:  nlay,
		xori:  params.XOri,
		yori:  params.YOri,
		xinc:  xinc,
		yinc:  yinc,
		props: make(map[string]*GridProperty),
	}, nil
}

// Dimensions returns (ncol, nrow, nlay).
func (g *UniformGrid) Dimensions() (int, int, int) {
	return g.ncol, g.nrow, g.nlay
}

// CellPoint returns the map-view center of cell (i, j, k).
func (g *UniformGrid) CellPoint(i, j, k int) (float64, float64, bool) {
	if i < 0 || i >= g.ncol || j < 0 || j >= g.nrow || k < 0 || k >= g.nlay {
		return 0, 0, false
	}
	x := g.xori + (float64(i)+0.5)*g.xinc
	y := g.yori + (float64(j)+0.5)*g.yinc
	return x, y, true
}

// RegisterProperty records p under its name, replacing any previous entry.
func (g *UniformGrid) RegisterProperty(p *GridProperty) {
	if p == nil {
		return
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	g.props[p.Name()] = p
}

// PropertyByName returns the registered property with the given name.
func (g *UniformGrid) PropertyByName(name string) (*GridProperty, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	p, ok := g.props[name]
	return p, ok
}

// PropertyNames returns the registered property names in sorted order.
func (g *UniformGrid) PropertyNames() []string {
	g.mu.RLock()
	defer g.mu.RUnlock()
	names := make([]string, 0, len(g.props))
	for name := range g.props {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
