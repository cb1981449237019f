// Package structure provides the correlation kernels that parameterise the
// optimal interpolation error covariances. A structure function maps a pair
// of locations to a correlation in [0, 1] that decreases with horizontal
// distance, elevation difference, and land-area-fraction difference.
package structure

import (
	"math"

	"github.com/khintz/gridpp/pkg/field"
	"github.com/khintz/gridpp/pkg/spatial"
)

// DefaultMinRho is the correlation at which the Barnes kernel is truncated
// when no explicit cutoff is configured.
const DefaultMinRho = 0.0013

// StructureFunction is a correlation kernel together with its localization
// radius. Implementations are immutable and safe for concurrent use; Clone
// produces an independently owned copy for callers that want to decouple
// lifetimes.
type StructureFunction interface {
	// Corr returns the correlation between two locations, in [0, 1].
	Corr(p1, p2 spatial.Point) float64

	// CorrBackground returns the correlation used between a gridpoint and
	// an observation when evaluating the background increment. It equals
	// Corr for every kernel except cross-validation.
	CorrBackground(p1, p2 spatial.Point) float64

	// LocalizationDistance returns an upper bound in metres on the distance
	// at which Corr can be non-zero for pairs involving p.
	LocalizationDistance(p spatial.Point) float64

	// Clone returns a deep copy with an independent lifetime.
	Clone() StructureFunction
}

// barnesRho is the Gaussian correlation factor for a single dimension. A
// missing or zero length disables the factor; a missing distance zeroes it.
func barnesRho(dist, length float64) float64 {
	if !field.IsValid(length) || length == 0 {
		// Disabled
		return 1
	}
	if !field.IsValid(dist) {
		return 0
	}
	v := dist / length
	return math.Exp(-0.5 * v * v)
}

// cressmanRho is the Cressman correlation factor for a single dimension,
// with the same disabling conventions as barnesRho.
func cressmanRho(dist, length float64) float64 {
	if !field.IsValid(length) || length == 0 {
		// Disabled
		return 1
	}
	if !field.IsValid(dist) {
		return 0
	}
	if dist >= length || -dist >= length {
		return 0
	}
	return (length*length - dist*dist) / (length*length + dist*dist)
}
