// Package oi implements the optimal interpolation analysis update: a
// per-gridpoint Bayesian least-squares blend of a gridded background with
// irregularly scattered observations, parameterised by a correlation
// structure function.
package oi

import (
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/mat"

	"github.com/khintz/gridpp/pkg/field"
	"github.com/khintz/gridpp/pkg/spatial"
	"github.com/khintz/gridpp/pkg/structure"
)

// Log receives solver diagnostics. Replace it to route logging elsewhere.
var Log logrus.FieldLogger = logrus.StandardLogger()

var numWorkers = runtime.NumCPU()

// SetWorkers sets how many goroutines the solvers spread the grid across.
// Values below one reset to the number of CPUs.
func SetWorkers(n int) {
	if n < 1 {
		n = runtime.NumCPU()
	}
	numWorkers = n
}

// OptimalInterpolation blends the background field with point observations
// and returns the analysis field, leaving all inputs untouched.
//
// pobs holds the observed values, pratios the ratio of observation to
// background error variance, and pbackground the background interpolated to
// the observation sites; all three are aligned to points. maxPoints caps
// how many observations a single gridpoint may use, with zero meaning
// unlimited. Gridpoints with no usable observations keep their background
// value.
func OptimalInterpolation(bgrid *spatial.Grid, background field.Vec2,
	points *spatial.Points, pobs, pratios, pbackground field.Vec,
	sf structure.StructureFunction, maxPoints int) (field.Vec2, error) {

	start := time.Now()

	if maxPoints < 0 {
		return nil, fmt.Errorf("%w: max points must be >= 0", field.ErrInvalidArgument)
	}
	nY, nX := bgrid.Size()
	if by, bx := background.Size(); by != nY || bx != nX {
		return nil, fmt.Errorf("%w: background field is %dx%d, grid is %dx%d",
			field.ErrShapeMismatch, by, bx, nY, nX)
	}
	if len(pobs) != points.Size() {
		return nil, fmt.Errorf("%w: %d observations for %d points",
			field.ErrShapeMismatch, len(pobs), points.Size())
	}
	if len(pratios) != points.Size() {
		return nil, fmt.Errorf("%w: %d error ratios for %d points",
			field.ErrShapeMismatch, len(pratios), points.Size())
	}
	if len(pbackground) != points.Size() {
		return nil, fmt.Errorf("%w: %d background values for %d points",
			field.ErrShapeMismatch, len(pbackground), points.Size())
	}

	// Remove stations outside the domain and remap the per-site vectors to
	// the filtered ordering.
	indices := points.GetInDomainIndices(bgrid)
	points0, err := points.GetInDomain(bgrid)
	if err != nil {
		return nil, err
	}
	nS := points0.Size()
	pobs0 := make(field.Vec, nS)
	pratios0 := make(field.Vec, nS)
	pbackground0 := make(field.Vec, nS)
	for s := 0; s < nS; s++ {
		if indices[s] < 0 || indices[s] >= points.Size() {
			return nil, fmt.Errorf("%w: domain filter produced site index %d of %d",
				field.ErrIndexOutOfRange, indices[s], points.Size())
		}
		pobs0[s] = pobs[indices[s]]
		pratios0[s] = pratios[indices[s]]
		pbackground0[s] = pbackground[indices[s]]
	}

	Log.WithFields(logrus.Fields{
		"observations": nS,
		"grid":         fmt.Sprintf("%dx%d", nY, nX),
	}).Debug("optimal interpolation")

	output := field.InitVec2(nY, nX)
	if nS == 0 {
		for y := 0; y < nY; y++ {
			copy(output[y], background[y])
		}
		return output, nil
	}

	// The outer grid loop is embarrassingly parallel: workers read only
	// immutable inputs and each writes its own rows of the output. Every
	// worker holds an independent clone of the structure function.
	rowsPerWorker := (nY + numWorkers - 1) / numWorkers
	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		startY := w * rowsPerWorker
		endY := (w + 1) * rowsPerWorker
		if endY > nY {
			endY = nY
		}
		if startY >= nY {
			continue
		}

		wg.Add(1)
		go func(startY, endY int) {
			defer wg.Done()
			solver := newGridpointSolver(sf.Clone(), maxPoints)
			for y := startY; y < endY; y++ {
				for x := 0; x < nX; x++ {
					output[y][x] = solver.analyse(bgrid.Point(y, x), background[y][x],
						points0, pobs0, pratios0, pbackground0)
				}
			}
		}(startY, endY)
	}
	wg.Wait()

	Log.WithFields(logrus.Fields{
		"duration": time.Since(start),
	}).Debug("optimal interpolation done")
	return output, nil
}

// gridpointSolver carries the per-worker state for the local analysis:
// a private structure-function clone and scratch buffers reused across
// gridpoints.
type gridpointSolver struct {
	sf        structure.StructureFunction
	maxPoints int

	candidates []candidate
	retained   []candidate
}

// candidate pairs a filtered site index with its gridpoint correlation.
type candidate struct {
	rho   float64
	index int
}

func newGridpointSolver(sf structure.StructureFunction, maxPoints int) *gridpointSolver {
	return &gridpointSolver{sf: sf, maxPoints: maxPoints}
}

// analyse computes the analysis value for a single gridpoint. Degenerate
// neighbourhoods fall back to the background value; they are not errors.
func (s *gridpointSolver) analyse(gp spatial.Point, background float64,
	points *spatial.Points, pobs, pratios, pbackground field.Vec) float64 {

	// Find observations within the localization radius.
	radius := s.sf.LocalizationDistance(gp)
	localIndices := points.GetNeighbours(gp.Lat, gp.Lon, radius)
	if len(localIndices) == 0 {
		return background
	}
	// The index returns neighbours in traversal order; sort so candidate
	// ordering, and with it tie-breaking, is independent of tree layout.
	sort.Ints(localIndices)

	// Correlate the gridpoint against each candidate and drop the ones the
	// kernel gives no weight.
	s.candidates = s.candidates[:0]
	for _, index := range localIndices {
		rho := s.sf.CorrBackground(points.Point(index), gp)
		if rho > 0 {
			s.candidates = append(s.candidates, candidate{rho: rho, index: index})
		}
	}

	// Keep only the best candidates when a cap is set. The stable ascending
	// sort leaves the strongest correlations in the top suffix, so ties
	// resolve deterministically towards the original ordering.
	s.retained = s.retained[:0]
	if s.maxPoints > 0 && len(s.candidates) > s.maxPoints {
		sort.SliceStable(s.candidates, func(i, j int) bool {
			return s.candidates[i].rho < s.candidates[j].rho
		})
		for i := 0; i < s.maxPoints; i++ {
			s.retained = append(s.retained, s.candidates[len(s.candidates)-1-i])
		}
	} else {
		s.retained = append(s.retained, s.candidates...)
	}

	n := len(s.retained)
	if n == 0 {
		return background
	}

	// Assemble the local system: G holds gridpoint-to-site correlations,
	// P site-to-site correlations with unit diagonal, R the diagonal error
	// variance ratios.
	g := mat.NewVecDense(n, nil)
	innovation := mat.NewVecDense(n, nil)
	pr := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		ci := s.retained[i]
		g.SetVec(i, ci.rho)
		innovation.SetVec(i, pobs[ci.index]-pbackground[ci.index])
		pr.SetSym(i, i, 1+pratios[ci.index])
		pi := points.Point(ci.index)
		for j := i + 1; j < n; j++ {
			pr.SetSym(i, j, s.sf.Corr(pi, points.Point(s.retained[j].index)))
		}
	}

	// The system is symmetric positive-definite as long as the off-diagonal
	// correlations stay below one or the ratios stay positive. Duplicate
	// observations with zero noise break that; fall back to the background
	// when the factorisation rejects the matrix.
	var chol mat.Cholesky
	if ok := chol.Factorize(pr); !ok {
		return background
	}
	weights := mat.NewVecDense(n, nil)
	if err := chol.SolveVecTo(weights, innovation); err != nil {
		return background
	}
	return background + mat.Dot(g, weights)
}
