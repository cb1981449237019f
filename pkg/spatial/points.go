package spatial

import (
	"fmt"

	"github.com/khintz/gridpp/pkg/field"
)

// Points is an ordered, immutable collection of observation sites with an
// embedded spatial index. All per-site vectors share the same ordering.
type Points struct {
	lats  field.Vec
	lons  field.Vec
	elevs field.Vec
	lafs  field.Vec
	ctype CoordinateType
	index *KDTree
}

// NewPoints creates a point collection from per-site coordinate vectors.
// elevs and lafs may be nil, in which case every site gets the missing
// value. All non-nil vectors must have the same length.
func NewPoints(lats, lons, elevs, lafs field.Vec, ctype CoordinateType) (*Points, error) {
	n := len(lats)
	if len(lons) != n {
		return nil, fmt.Errorf("%w: lats size %d, lons size %d", field.ErrShapeMismatch, n, len(lons))
	}
	if elevs == nil {
		elevs = make(field.Vec, n)
		for i := range elevs {
			elevs[i] = field.MissingValue
		}
	} else if len(elevs) != n {
		return nil, fmt.Errorf("%w: lats size %d, elevs size %d", field.ErrShapeMismatch, n, len(elevs))
	}
	if lafs == nil {
		lafs = make(field.Vec, n)
		for i := range lafs {
			lafs[i] = field.MissingValue
		}
	} else if len(lafs) != n {
		return nil, fmt.Errorf("%w: lats size %d, lafs size %d", field.ErrShapeMismatch, n, len(lafs))
	}
	return &Points{
		lats:  lats,
		lons:  lons,
		elevs: elevs,
		lafs:  lafs,
		ctype: ctype,
		index: NewKDTree(lats, lons, ctype),
	}, nil
}

// Size returns the number of sites.
func (p *Points) Size() int {
	return len(p.lats)
}

// Lats returns the per-site latitudes. The slice is shared; treat it as
// read-only.
func (p *Points) Lats() field.Vec { return p.lats }

// Lons returns the per-site longitudes.
func (p *Points) Lons() field.Vec { return p.lons }

// Elevs returns the per-site elevations.
func (p *Points) Elevs() field.Vec { return p.elevs }

// Lafs returns the per-site land-area fractions.
func (p *Points) Lafs() field.Vec { return p.lafs }

// CoordinateType returns the coordinate interpretation of the collection.
func (p *Points) CoordinateType() CoordinateType { return p.ctype }

// Point assembles the full point tuple for site i.
func (p *Points) Point(i int) Point {
	return Point{
		Lat:  p.lats[i],
		Lon:  p.lons[i],
		Elev: p.elevs[i],
		LAF:  p.lafs[i],
		Type: p.ctype,
	}
}

// GetNeighbours returns the indices of all sites within radius metres of
// the query position.
func (p *Points) GetNeighbours(lat, lon, radius float64) field.IVec {
	return p.index.Neighbours(lat, lon, radius)
}

// GetNearestNeighbour returns the index of the site closest to the query
// position, or -1 when the collection is empty.
func (p *Points) GetNearestNeighbour(lat, lon float64) int {
	return p.index.NearestNeighbour(lat, lon)
}

// GetInDomainIndices returns the indices of the sites that fall inside the
// grid's coordinate bounds, preserving the collection order.
func (p *Points) GetInDomainIndices(grid *Grid) field.IVec {
	minLat, maxLat, minLon, maxLon := grid.Bounds()
	indices := make(field.IVec, 0, len(p.lats))
	for i := range p.lats {
		if p.lats[i] < minLat || p.lats[i] > maxLat {
			continue
		}
		if p.lons[i] < minLon || p.lons[i] > maxLon {
			continue
		}
		indices = append(indices, i)
	}
	return indices
}

// GetInDomain returns the subset of sites inside the grid's bounds as a new
// collection with its own spatial index. Use GetInDomainIndices to map the
// subset ordering back to this collection.
func (p *Points) GetInDomain(grid *Grid) (*Points, error) {
	indices := p.GetInDomainIndices(grid)
	lats := make(field.Vec, len(indices))
	lons := make(field.Vec, len(indices))
	elevs := make(field.Vec, len(indices))
	lafs := make(field.Vec, len(indices))
	for i, index := range indices {
		lats[i] = p.lats[index]
		lons[i] = p.lons[index]
		elevs[i] = p.elevs[index]
		lafs[i] = p.lafs[index]
	}
	return NewPoints(lats, lons, elevs, lafs, p.ctype)
}
