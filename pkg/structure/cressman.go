package structure

import (
	"fmt"

	"github.com/khintz/gridpp/pkg/field"
	"github.com/khintz/gridpp/pkg/spatial"
)

// CressmanStructure is the classical Cressman correlation kernel
// (L² − d²)/(L² + d²) with a hard cutoff at the length scale, applied per
// dimension with the same length conventions as the Barnes kernel.
type CressmanStructure struct {
	h float64
	v float64
	w float64
}

// NewCressmanStructure creates a Cressman kernel with horizontal, vertical
// and land-area-fraction length scales. A zero v or w disables that
// dimension.
func NewCressmanStructure(h, v, w float64) (*CressmanStructure, error) {
	if !field.IsValid(h) || h < 0 {
		return nil, fmt.Errorf("%w: h must be >= 0", field.ErrInvalidArgument)
	}
	if !field.IsValid(v) || v < 0 {
		return nil, fmt.Errorf("%w: v must be >= 0", field.ErrInvalidArgument)
	}
	if !field.IsValid(w) || w < 0 {
		return nil, fmt.Errorf("%w: w must be >= 0", field.ErrInvalidArgument)
	}
	return &CressmanStructure{h: h, v: v, w: w}, nil
}

// Corr returns the product of the Cressman factors for the configured
// dimensions.
func (s *CressmanStructure) Corr(p1, p2 spatial.Point) float64 {
	hdist := spatial.CalcDistanceFast(p1, p2)
	rho := cressmanRho(hdist, s.h)
	if field.IsValid(p1.Elev) && field.IsValid(p2.Elev) {
		vdist := p1.Elev - p2.Elev
		rho *= cressmanRho(vdist, s.v)
	}
	if field.IsValid(p1.LAF) && field.IsValid(p2.LAF) {
		lafdist := p1.LAF - p2.LAF
		rho *= cressmanRho(lafdist, s.w)
	}
	return rho
}

// CorrBackground is identical to Corr.
func (s *CressmanStructure) CorrBackground(p1, p2 spatial.Point) float64 {
	return s.Corr(p1, p2)
}

// LocalizationDistance returns the horizontal length scale, beyond which the
// horizontal factor is zero.
func (s *CressmanStructure) LocalizationDistance(p spatial.Point) float64 {
	return s.h
}

// Clone returns a deep copy of the kernel.
func (s *CressmanStructure) Clone() StructureFunction {
	clone := *s
	return &clone
}
