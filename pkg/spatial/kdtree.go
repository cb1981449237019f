package spatial

import (
	"math"

	"gonum.org/v1/gonum/spatial/kdtree"

	"github.com/khintz/gridpp/pkg/field"
)

// site is a single indexed location lifted into the 3D Euclidean space the
// k-d tree partitions. Geodetic points are placed on the earth-centred
// sphere so that chord distances order the same way as great-circle
// distances; Cartesian points keep their planar coordinates with z = 0.
type site struct {
	x, y, z float64
	index   int
}

// Compare implements the kdtree.Comparable interface.
func (s site) Compare(c kdtree.Comparable, d kdtree.Dim) float64 {
	q := c.(site)
	switch d {
	case 0:
		return s.x - q.x
	case 1:
		return s.y - q.y
	case 2:
		return s.z - q.z
	default:
		panic("illegal dimension")
	}
}

// Dims returns the number of dimensions for the k-d tree.
func (s site) Dims() int { return 3 }

// Distance returns the squared Euclidean distance between two sites.
func (s site) Distance(c kdtree.Comparable) float64 {
	q := c.(site)
	dx := s.x - q.x
	dy := s.y - q.y
	dz := s.z - q.z
	return dx*dx + dy*dy + dz*dz
}

// sites is a collection of site that satisfies kdtree.Interface.
type sites []site

func (p sites) Index(i int) kdtree.Comparable         { return p[i] }
func (p sites) Len() int                              { return len(p) }
func (p sites) Slice(start, end int) kdtree.Interface { return p[start:end] }

// Pivot implements the kdtree.Interface method.
func (p sites) Pivot(d kdtree.Dim) int {
	return kdtree.Partition(sitePlane{sites: p, Dim: d}, kdtree.MedianOfRandoms(sitePlane{sites: p, Dim: d}, 100))
}

// sitePlane implements sort.Interface and kdtree.SortSlicer for sites.
type sitePlane struct {
	sites
	kdtree.Dim
}

func (p sitePlane) Less(i, j int) bool {
	switch p.Dim {
	case 0:
		return p.sites[i].x < p.sites[j].x
	case 1:
		return p.sites[i].y < p.sites[j].y
	case 2:
		return p.sites[i].z < p.sites[j].z
	default:
		panic("illegal dimension")
	}
}

func (p sitePlane) Slice(start, end int) kdtree.SortSlicer {
	return sitePlane{sites: p.sites[start:end], Dim: p.Dim}
}

func (p sitePlane) Swap(i, j int) {
	p.sites[i], p.sites[j] = p.sites[j], p.sites[i]
}

// KDTree is a spatial index over a fixed set of locations supporting
// nearest-neighbour and radius queries. It is immutable after construction
// and safe for concurrent queries.
type KDTree struct {
	tree  *kdtree.Tree
	ctype CoordinateType
	size  int
}

// NewKDTree builds an index over the given coordinates. The coordinate
// interpretation follows ctype for every location.
func NewKDTree(lats, lons []float64, ctype CoordinateType) *KDTree {
	t := &KDTree{ctype: ctype, size: len(lats)}
	if len(lats) == 0 {
		return t
	}
	data := make(sites, len(lats))
	for i := range lats {
		x, y, z := t.coords(lats[i], lons[i])
		data[i] = site{x: x, y: y, z: z, index: i}
	}
	t.tree = kdtree.New(data, true)
	return t
}

// coords lifts a latitude/longitude pair into the tree's 3D space.
func (t *KDTree) coords(lat, lon float64) (float64, float64, float64) {
	if t.ctype == Cartesian {
		return lon, lat, 0
	}
	latr := deg2rad(lat)
	lonr := deg2rad(lon)
	x := RadiusEarth * math.Cos(latr) * math.Cos(lonr)
	y := RadiusEarth * math.Cos(latr) * math.Sin(lonr)
	z := RadiusEarth * math.Sin(latr)
	return x, y, z
}

// chordRadius converts a search radius along the sphere into the equivalent
// straight-line chord radius used inside the tree.
func (t *KDTree) chordRadius(radius float64) float64 {
	if t.ctype == Cartesian {
		return radius
	}
	arc := radius / RadiusEarth
	if arc >= math.Pi {
		return 2 * RadiusEarth
	}
	return 2 * RadiusEarth * math.Sin(arc/2)
}

// Size returns the number of indexed locations.
func (t *KDTree) Size() int {
	return t.size
}

// Neighbours returns the indices of all locations within radius metres of
// the query position. The result order is unspecified.
func (t *KDTree) Neighbours(lat, lon, radius float64) field.IVec {
	if t.tree == nil || radius < 0 {
		return field.IVec{}
	}
	x, y, z := t.coords(lat, lon)
	chord := t.chordRadius(radius)
	keeper := kdtree.NewDistKeeper(chord * chord)
	t.tree.NearestSet(keeper, site{x: x, y: y, z: z})

	indices := make(field.IVec, 0, keeper.Len())
	for _, item := range keeper.Heap {
		// Skip the sentinel value
		if item.Comparable == nil {
			continue
		}
		indices = append(indices, item.Comparable.(site).index)
	}
	return indices
}

// NearestNeighbour returns the index of the location closest to the query
// position, or -1 when the index is empty.
func (t *KDTree) NearestNeighbour(lat, lon float64) int {
	if t.tree == nil {
		return -1
	}
	x, y, z := t.coords(lat, lon)
	got, _ := t.tree.Nearest(site{x: x, y: y, z: z})
	if got == nil {
		return -1
	}
	return got.(site).index
}
