// Package testutil provides shared test fixtures for grid property tests.
//
// This package centralises common test helpers to reduce code duplication
// across test files and improve test maintainability.
package testutil

// RectPolygon is an axis-aligned rectangle polygon set for tests.
type RectPolygon struct {
	XMin, YMin, XMax, YMax float64
}

// Contains reports whether (x, y) falls inside the rectangle, inclusive of
// the edges.
func (r RectPolygon) Contains(x, y float64) bool {
	return x >= r.XMin && x <= r.XMax && y >= r.YMin && y <= r.YMax
}

// Ramp returns n float64 values start, start+step, ...
func Ramp(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

// IntRamp returns n int32 values start, start+step, ...
func IntRamp(n int, start, step int32) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = start + int32(i)*step
	}
	return out
}

// Const returns n copies of v.
func Const(n int, v float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}

// IntConst returns n copies of v.
func IntConst(n int, v int32) []int32 {
	out := make([]int32, n)
	for i := range out {
		out[i] = v
	}
	return out
}
