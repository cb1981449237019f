// Package field provides the basic value containers shared by the gridded
// post-processing operations: 2D fields aligned to a grid, 1D vectors aligned
// to a point set, and the missing-value conventions used throughout.
package field

import (
	"math"
)

// MissingValue is the sentinel marking absent data in fields and vectors.
// Arithmetic on it is undefined; use IsValid before touching a value.
var MissingValue = math.NaN()

// Vec2 is a rectangular matrix of values indexed [y][x]. All rows must have
// equal length.
type Vec2 [][]float64

// Vec is an ordered sequence of values, typically aligned to a point set.
type Vec []float64

// IVec is an ordered sequence of integer indices.
type IVec []int

// IsValid reports whether x carries real data rather than the missing-value
// sentinel.
func IsValid(x float64) bool {
	return !math.IsNaN(x)
}

// InitVec2 allocates an nY by nX field initialised to zero.
func InitVec2(nY, nX int) Vec2 {
	output := make(Vec2, nY)
	for y := range output {
		output[y] = make([]float64, nX)
	}
	return output
}

// InitVec2Value allocates an nY by nX field with every cell set to value.
func InitVec2Value(nY, nX int, value float64) Vec2 {
	output := InitVec2(nY, nX)
	for y := range output {
		for x := range output[y] {
			output[y][x] = value
		}
	}
	return output
}

// Size returns the dimensions of the field as (nY, nX). An empty field has
// size (0, 0).
func (v Vec2) Size() (int, int) {
	if len(v) == 0 {
		return 0, 0
	}
	return len(v), len(v[0])
}

// IsRectangular reports whether every row has the same length as the first.
func (v Vec2) IsRectangular() bool {
	if len(v) == 0 {
		return true
	}
	nX := len(v[0])
	for y := 1; y < len(v); y++ {
		if len(v[y]) != nX {
			return false
		}
	}
	return true
}

// Copy returns an independently allocated copy of the field.
func (v Vec2) Copy() Vec2 {
	output := make(Vec2, len(v))
	for y := range v {
		output[y] = make([]float64, len(v[y]))
		copy(output[y], v[y])
	}
	return output
}
