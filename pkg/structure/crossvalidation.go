package structure

import (
	"fmt"

	"github.com/khintz/gridpp/pkg/field"
	"github.com/khintz/gridpp/pkg/spatial"
)

// CrossValidation wraps another kernel and zeroes the background correlation
// for pairs closer than a cutoff distance. Running the analysis with a
// cross-validation kernel excludes each observation from its own
// neighbourhood, which is the standard way to score analysis skill against
// the observations themselves.
type CrossValidation struct {
	structure StructureFunction
	dist      float64
}

// NewCrossValidation wraps a kernel with a horizontal cutoff distance in
// metres. The wrapped kernel is cloned.
func NewCrossValidation(structure StructureFunction, dist float64) (*CrossValidation, error) {
	if !field.IsValid(dist) || dist < 0 {
		return nil, fmt.Errorf("%w: cross-validation distance must be >= 0", field.ErrInvalidArgument)
	}
	return &CrossValidation{
		structure: structure.Clone(),
		dist:      dist,
	}, nil
}

// Corr delegates to the wrapped kernel.
func (s *CrossValidation) Corr(p1, p2 spatial.Point) float64 {
	return s.structure.Corr(p1, p2)
}

// CorrBackground returns zero when the pair is within the cutoff distance
// and delegates otherwise.
func (s *CrossValidation) CorrBackground(p1, p2 spatial.Point) float64 {
	hdist := spatial.CalcDistanceFast(p1, p2)
	if hdist <= s.dist {
		return 0
	}
	return s.structure.CorrBackground(p1, p2)
}

// LocalizationDistance delegates to the wrapped kernel.
func (s *CrossValidation) LocalizationDistance(p spatial.Point) float64 {
	return s.structure.LocalizationDistance(p)
}

// Clone returns a deep copy preserving the cutoff distance.
func (s *CrossValidation) Clone() StructureFunction {
	return &CrossValidation{
		structure: s.structure.Clone(),
		dist:      s.dist,
	}
}
