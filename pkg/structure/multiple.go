package structure

import (
	"github.com/khintz/gridpp/pkg/spatial"
)

// MultipleStructure composes three independently chosen kernels, one per
// coordinate axis, into a tensor-product correlation. Each sub-kernel sees a
// point pair that differs only along its own axis, so mixing, say, a Barnes
// horizontal kernel with a Cressman elevation kernel is well defined.
type MultipleStructure struct {
	structureH StructureFunction
	structureV StructureFunction
	structureW StructureFunction
}

// NewMultipleStructure creates a tensor-product kernel from a horizontal, an
// elevation, and a land-area-fraction kernel. The arguments are cloned.
func NewMultipleStructure(structureH, structureV, structureW StructureFunction) *MultipleStructure {
	return &MultipleStructure{
		structureH: structureH.Clone(),
		structureV: structureV.Clone(),
		structureW: structureW.Clone(),
	}
}

// Corr multiplies the three sub-kernel correlations, each evaluated on a
// partial pair that varies along one axis only.
func (s *MultipleStructure) Corr(p1, p2 spatial.Point) float64 {
	p1h := spatial.Point{Lat: p1.Lat, Lon: p1.Lon, Elev: p1.Elev, LAF: p1.LAF, Type: p1.Type}
	p2h := spatial.Point{Lat: p2.Lat, Lon: p2.Lon, Elev: p1.Elev, LAF: p1.LAF, Type: p1.Type}
	p1v := spatial.Point{Lat: p1.Lat, Lon: p1.Lon, Elev: p1.Elev, LAF: p1.LAF, Type: p1.Type}
	p2v := spatial.Point{Lat: p1.Lat, Lon: p1.Lon, Elev: p2.Elev, LAF: p1.LAF, Type: p1.Type}
	p1w := spatial.Point{Lat: p1.Lat, Lon: p1.Lon, Elev: p1.Elev, LAF: p1.LAF, Type: p1.Type}
	p2w := spatial.Point{Lat: p1.Lat, Lon: p1.Lon, Elev: p1.Elev, LAF: p2.LAF, Type: p1.Type}
	corrH := s.structureH.Corr(p1h, p2h)
	corrV := s.structureV.Corr(p1v, p2v)
	corrW := s.structureW.Corr(p1w, p2w)
	return corrH * corrV * corrW
}

// CorrBackground is identical to Corr.
func (s *MultipleStructure) CorrBackground(p1, p2 spatial.Point) float64 {
	return s.Corr(p1, p2)
}

// LocalizationDistance delegates to the horizontal sub-kernel.
func (s *MultipleStructure) LocalizationDistance(p spatial.Point) float64 {
	return s.structureH.LocalizationDistance(p)
}

// Clone returns a deep copy with independently cloned sub-kernels.
func (s *MultipleStructure) Clone() StructureFunction {
	return NewMultipleStructure(s.structureH, s.structureV, s.structureW)
}
