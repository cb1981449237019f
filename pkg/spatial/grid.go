package spatial

import (
	"fmt"

	"github.com/khintz/gridpp/pkg/field"
)

// Grid is an immutable nY by nX mesh with per-cell coordinates, elevation
// and land-area fraction, plus a spatial index over the cell centres.
type Grid struct {
	lats  field.Vec2
	lons  field.Vec2
	elevs field.Vec2
	lafs  field.Vec2
	ctype CoordinateType
	index *KDTree
	nY    int
	nX    int

	minLat, maxLat float64
	minLon, maxLon float64
}

// NewGrid creates a grid from per-cell coordinate fields. elevs and lafs may
// be nil, in which case every cell gets the missing value. All fields must
// be rectangular and of equal shape.
func NewGrid(lats, lons, elevs, lafs field.Vec2, ctype CoordinateType) (*Grid, error) {
	nY, nX := lats.Size()
	if nY == 0 || nX == 0 {
		return nil, fmt.Errorf("%w: grid must have at least one cell", field.ErrInvalidArgument)
	}
	if !lats.IsRectangular() {
		return nil, fmt.Errorf("%w: latitude field is ragged", field.ErrShapeMismatch)
	}
	if err := checkGridField(lons, nY, nX, "longitude"); err != nil {
		return nil, err
	}
	if elevs == nil {
		elevs = field.InitVec2Value(nY, nX, field.MissingValue)
	} else if err := checkGridField(elevs, nY, nX, "elevation"); err != nil {
		return nil, err
	}
	if lafs == nil {
		lafs = field.InitVec2Value(nY, nX, field.MissingValue)
	} else if err := checkGridField(lafs, nY, nX, "land-area fraction"); err != nil {
		return nil, err
	}

	g := &Grid{
		lats:  lats,
		lons:  lons,
		elevs: elevs,
		lafs:  lafs,
		ctype: ctype,
		nY:    nY,
		nX:    nX,
	}

	flatLats := make(field.Vec, 0, nY*nX)
	flatLons := make(field.Vec, 0, nY*nX)
	g.minLat, g.maxLat = lats[0][0], lats[0][0]
	g.minLon, g.maxLon = lons[0][0], lons[0][0]
	for y := 0; y < nY; y++ {
		for x := 0; x < nX; x++ {
			lat := lats[y][x]
			lon := lons[y][x]
			flatLats = append(flatLats, lat)
			flatLons = append(flatLons, lon)
			if lat < g.minLat {
				g.minLat = lat
			}
			if lat > g.maxLat {
				g.maxLat = lat
			}
			if lon < g.minLon {
				g.minLon = lon
			}
			if lon > g.maxLon {
				g.maxLon = lon
			}
		}
	}
	g.index = NewKDTree(flatLats, flatLons, ctype)
	return g, nil
}

func checkGridField(f field.Vec2, nY, nX int, name string) error {
	if !f.IsRectangular() {
		return fmt.Errorf("%w: %s field is ragged", field.ErrShapeMismatch, name)
	}
	if fy, fx := f.Size(); fy != nY || fx != nX {
		return fmt.Errorf("%w: %s field is %dx%d, expected %dx%d", field.ErrShapeMismatch, name, fy, fx, nY, nX)
	}
	return nil
}

// NewRegularGrid creates a grid with evenly spaced latitudes and longitudes
// starting at (lat0, lon0), without elevation or land-area fraction data.
func NewRegularGrid(nY, nX int, lat0, lon0, dLat, dLon float64) (*Grid, error) {
	lats := field.InitVec2(nY, nX)
	lons := field.InitVec2(nY, nX)
	for y := 0; y < nY; y++ {
		for x := 0; x < nX; x++ {
			lats[y][x] = lat0 + float64(y)*dLat
			lons[y][x] = lon0 + float64(x)*dLon
		}
	}
	return NewGrid(lats, lons, nil, nil, Geodetic)
}

// Size returns the grid dimensions as (nY, nX).
func (g *Grid) Size() (int, int) {
	return g.nY, g.nX
}

// Lats returns the per-cell latitude field. Treat it as read-only.
func (g *Grid) Lats() field.Vec2 { return g.lats }

// Lons returns the per-cell longitude field.
func (g *Grid) Lons() field.Vec2 { return g.lons }

// Elevs returns the per-cell elevation field.
func (g *Grid) Elevs() field.Vec2 { return g.elevs }

// Lafs returns the per-cell land-area fraction field.
func (g *Grid) Lafs() field.Vec2 { return g.lafs }

// CoordinateType returns the coordinate interpretation of the grid.
func (g *Grid) CoordinateType() CoordinateType { return g.ctype }

// Bounds returns the coordinate extent of the grid as
// (minLat, maxLat, minLon, maxLon).
func (g *Grid) Bounds() (float64, float64, float64, float64) {
	return g.minLat, g.maxLat, g.minLon, g.maxLon
}

// Point assembles the full point tuple for cell (y, x).
func (g *Grid) Point(y, x int) Point {
	return Point{
		Lat:  g.lats[y][x],
		Lon:  g.lons[y][x],
		Elev: g.elevs[y][x],
		LAF:  g.lafs[y][x],
		Type: g.ctype,
	}
}

// GetNearestNeighbour returns the (y, x) indices of the cell closest to the
// query position.
func (g *Grid) GetNearestNeighbour(lat, lon float64) (int, int, error) {
	index := g.index.NearestNeighbour(lat, lon)
	if index < 0 || index >= g.nY*g.nX {
		return 0, 0, fmt.Errorf("%w: nearest-neighbour lookup returned %d for a %dx%d grid",
			field.ErrIndexOutOfRange, index, g.nY, g.nX)
	}
	return index / g.nX, index % g.nX, nil
}
