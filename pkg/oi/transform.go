package oi

import (
	"fmt"

	"github.com/khintz/gridpp/pkg/field"
	"github.com/khintz/gridpp/pkg/spatial"
	"github.com/khintz/gridpp/pkg/structure"
	"github.com/khintz/gridpp/pkg/transform"
)

// OptimalInterpolationTransform runs the analysis in a transformed space:
// background and observations are mapped forward, the analysis is computed
// with error ratios psigma²/bsigma², and the result is mapped back. Missing
// values pass through untouched.
func OptimalInterpolationTransform(bgrid *spatial.Grid, background field.Vec2, bsigma float64,
	points *spatial.Points, pobs, psigma, pbackground field.Vec,
	sf structure.StructureFunction, maxPoints int, t transform.Transform) (field.Vec2, error) {

	if !field.IsValid(bsigma) || bsigma <= 0 {
		return nil, fmt.Errorf("%w: background sigma must be > 0", field.ErrInvalidArgument)
	}
	nS := points.Size()
	if len(pobs) != nS {
		return nil, fmt.Errorf("%w: %d observations for %d points", field.ErrShapeMismatch, len(pobs), nS)
	}
	if len(psigma) != nS {
		return nil, fmt.Errorf("%w: %d observation sigmas for %d points", field.ErrShapeMismatch, len(psigma), nS)
	}
	if len(pbackground) != nS {
		return nil, fmt.Errorf("%w: %d background values for %d points", field.ErrShapeMismatch, len(pbackground), nS)
	}

	backgroundT := background.Copy()
	for y := range backgroundT {
		for x := range backgroundT[y] {
			if field.IsValid(backgroundT[y][x]) {
				backgroundT[y][x] = t.Forward(backgroundT[y][x])
			}
		}
	}

	pobsT := make(field.Vec, nS)
	pbackgroundT := make(field.Vec, nS)
	pratios := make(field.Vec, nS)
	for s := 0; s < nS; s++ {
		pobsT[s] = pobs[s]
		if field.IsValid(pobsT[s]) {
			pobsT[s] = t.Forward(pobsT[s])
		}
		pbackgroundT[s] = pbackground[s]
		if field.IsValid(pbackgroundT[s]) {
			pbackgroundT[s] = t.Forward(pbackgroundT[s])
		}
		pratios[s] = psigma[s] * psigma[s] / (bsigma * bsigma)
	}

	analysis, err := OptimalInterpolation(bgrid, backgroundT, points, pobsT, pratios, pbackgroundT, sf, maxPoints)
	if err != nil {
		return nil, err
	}

	for y := range analysis {
		for x := range analysis[y] {
			if field.IsValid(analysis[y][x]) {
				analysis[y][x] = t.Backward(analysis[y][x])
			}
		}
	}
	return analysis, nil
}
