package structure

import (
	"fmt"
	"math"

	"github.com/khintz/gridpp/pkg/field"
	"github.com/khintz/gridpp/pkg/spatial"
)

// BarnesStructure is a Gaussian correlation kernel with separate length
// scales for horizontal distance (h, metres), elevation difference
// (v, metres), and land-area-fraction difference (w). The scalar form uses
// one length triple everywhere; the spatial form looks lengths up at the
// nearest cell of a carrier grid.
type BarnesStructure struct {
	grid      *spatial.Grid
	h         field.Vec2
	v         field.Vec2
	w         field.Vec2
	minRho    float64
	isSpatial bool
}

// NewBarnesStructure creates a kernel with fixed length scales. A zero or
// missing v or w disables that dimension. hmax, when valid, sets the
// localization cutoff to exactly hmax metres; otherwise the default minimum
// correlation applies.
func NewBarnesStructure(h, v, w, hmax float64) (*BarnesStructure, error) {
	if field.IsValid(hmax) && hmax < 0 {
		return nil, fmt.Errorf("%w: hmax must be >= 0", field.ErrInvalidArgument)
	}
	if !field.IsValid(h) || h < 0 {
		return nil, fmt.Errorf("%w: h must be >= 0", field.ErrInvalidArgument)
	}
	if !field.IsValid(v) || v < 0 {
		return nil, fmt.Errorf("%w: v must be >= 0", field.ErrInvalidArgument)
	}
	if !field.IsValid(w) || w < 0 {
		return nil, fmt.Errorf("%w: w must be >= 0", field.ErrInvalidArgument)
	}

	minRho := DefaultMinRho
	if field.IsValid(hmax) && h > 0 {
		r := hmax / h
		minRho = math.Exp(-0.5 * r * r)
	}
	return &BarnesStructure{
		h:      field.Vec2{{h}},
		v:      field.Vec2{{v}},
		w:      field.Vec2{{w}},
		minRho: minRho,
	}, nil
}

// NewBarnesStructureSpatial creates a kernel whose length scales vary across
// the carrier grid. For a pair of locations the lengths are looked up at the
// cell nearest the first location. The length fields must match the grid
// shape.
func NewBarnesStructureSpatial(grid *spatial.Grid, h, v, w field.Vec2, minRho float64) (*BarnesStructure, error) {
	if grid == nil {
		return nil, fmt.Errorf("%w: carrier grid is required", field.ErrInvalidArgument)
	}
	if !field.IsValid(minRho) || minRho <= 0 || minRho >= 1 {
		return nil, fmt.Errorf("%w: minRho must be in (0, 1)", field.ErrInvalidArgument)
	}
	nY, nX := grid.Size()
	for _, f := range []struct {
		name   string
		values field.Vec2
	}{{"h", h}, {"v", v}, {"w", w}} {
		fy, fx := f.values.Size()
		if !f.values.IsRectangular() || fy != nY || fx != nX {
			return nil, fmt.Errorf("%w: %s length field is %dx%d, carrier grid is %dx%d",
				field.ErrShapeMismatch, f.name, fy, fx, nY, nX)
		}
		for y := range f.values {
			for x := range f.values[y] {
				if field.IsValid(f.values[y][x]) && f.values[y][x] < 0 {
					return nil, fmt.Errorf("%w: %s length at (%d,%d) must be >= 0", field.ErrInvalidArgument, f.name, y, x)
				}
			}
		}
	}
	return &BarnesStructure{
		grid:      grid,
		h:         h,
		v:         v,
		w:         w,
		minRho:    minRho,
		isSpatial: true,
	}, nil
}

// lengths returns the (h, v, w) triple governing a pair whose first member
// is p. Spatial kernels use the single-point lookup at p's nearest cell;
// averaging with the second member is deliberately not done.
func (s *BarnesStructure) lengths(p spatial.Point) (float64, float64, float64) {
	if !s.isSpatial {
		return s.h[0][0], s.v[0][0], s.w[0][0]
	}
	y, x, err := s.grid.GetNearestNeighbour(p.Lat, p.Lon)
	if err != nil {
		return field.MissingValue, field.MissingValue, field.MissingValue
	}
	return s.h[y][x], s.v[y][x], s.w[y][x]
}

// Corr returns the product of the Gaussian factors for the configured
// dimensions, short-circuiting to zero beyond the localization distance.
func (s *BarnesStructure) Corr(p1, p2 spatial.Point) float64 {
	hdist := spatial.CalcDistanceFast(p1, p2)
	if hdist > s.LocalizationDistance(p1) {
		return 0
	}
	h, v, w := s.lengths(p1)
	rho := barnesRho(hdist, h)
	if field.IsValid(p1.Elev) && field.IsValid(p2.Elev) {
		vdist := p1.Elev - p2.Elev
		rho *= barnesRho(vdist, v)
	}
	if field.IsValid(p1.LAF) && field.IsValid(p2.LAF) {
		lafdist := p1.LAF - p2.LAF
		rho *= barnesRho(lafdist, w)
	}
	return rho
}

// CorrBackground is identical to Corr.
func (s *BarnesStructure) CorrBackground(p1, p2 spatial.Point) float64 {
	return s.Corr(p1, p2)
}

// LocalizationDistance returns the distance at which the horizontal factor
// drops to the configured minimum correlation.
func (s *BarnesStructure) LocalizationDistance(p spatial.Point) float64 {
	h, _, _ := s.lengths(p)
	if !field.IsValid(h) {
		return 0
	}
	return math.Sqrt(-2*math.Log(s.minRho)) * h
}

// Clone returns a deep copy of the kernel. The carrier grid and length
// fields are immutable and shared.
func (s *BarnesStructure) Clone() StructureFunction {
	clone := *s
	return &clone
}
