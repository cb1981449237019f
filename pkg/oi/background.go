package oi

import (
	"fmt"

	"github.com/khintz/gridpp/pkg/field"
	"github.com/khintz/gridpp/pkg/spatial"
)

// BackgroundAtPoints samples the background field at each observation site
// by nearest-neighbour lookup, optionally correcting for the elevation
// difference between the site and its grid cell with a linear gradient in
// units per metre. Pass zero or a missing gradient to disable the
// correction. This is the standard way to produce the pbackground input to
// OptimalInterpolation.
func BackgroundAtPoints(background field.Vec2, grid *spatial.Grid,
	points *spatial.Points, elevGradient float64) (field.Vec, error) {

	nY, nX := grid.Size()
	if by, bx := background.Size(); by != nY || bx != nX {
		return nil, fmt.Errorf("%w: background field is %dx%d, grid is %dx%d",
			field.ErrShapeMismatch, by, bx, nY, nX)
	}

	lats := points.Lats()
	lons := points.Lons()
	elevs := points.Elevs()
	gelevs := grid.Elevs()

	output := make(field.Vec, points.Size())
	for i := range output {
		y, x, err := grid.GetNearestNeighbour(lats[i], lons[i])
		if err != nil {
			return nil, err
		}
		output[i] = background[y][x]
		if field.IsValid(elevGradient) && elevGradient != 0 {
			nnElev := gelevs[y][x]
			if field.IsValid(nnElev) && field.IsValid(elevs[i]) && field.IsValid(output[i]) {
				output[i] += elevGradient * (elevs[i] - nnElev)
			}
		}
	}
	return output, nil
}
