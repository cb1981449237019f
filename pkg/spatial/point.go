// Package spatial provides the geographic primitives for the post-processing
// engine: points, point collections, grids, great-circle distances, and the
// k-d tree index used for neighbourhood queries.
package spatial

import (
	"math"

	"github.com/khintz/gridpp/pkg/field"
)

// RadiusEarth is the mean earth radius in metres.
const RadiusEarth = 6.371e6

// CoordinateType describes how a point's coordinates are interpreted.
type CoordinateType int

const (
	// Geodetic coordinates are degrees latitude and longitude on the sphere.
	Geodetic CoordinateType = iota
	// Cartesian coordinates are metres in a flat plane, with Lon as x and
	// Lat as y.
	Cartesian
)

// Point is an immutable location carrying the coordinates the correlation
// kernels operate on: position, elevation in metres, and land-area fraction
// in [0, 1].
type Point struct {
	Lat  float64
	Lon  float64
	Elev float64
	LAF  float64
	Type CoordinateType
}

// NewPoint creates a point with missing elevation and land-area fraction.
func NewPoint(lat, lon float64) Point {
	return Point{Lat: lat, Lon: lon, Elev: field.MissingValue, LAF: field.MissingValue}
}

func deg2rad(deg float64) float64 {
	return deg * math.Pi / 180
}

// CalcDistance returns the great-circle distance between two points in
// metres. Cartesian points use the Euclidean distance instead.
func CalcDistance(p1, p2 Point) float64 {
	if p1.Type == Cartesian || p2.Type == Cartesian {
		dx := p1.Lon - p2.Lon
		dy := p1.Lat - p2.Lat
		return math.Sqrt(dx*dx + dy*dy)
	}
	lat1 := deg2rad(p1.Lat)
	lat2 := deg2rad(p2.Lat)
	lon1 := deg2rad(p1.Lon)
	lon2 := deg2rad(p2.Lon)
	ratio := math.Cos(lat1)*math.Cos(lon1)*math.Cos(lat2)*math.Cos(lon2) +
		math.Cos(lat1)*math.Sin(lon1)*math.Cos(lat2)*math.Sin(lon2) +
		math.Sin(lat1)*math.Sin(lat2)
	if ratio > 1 {
		ratio = 1
	} else if ratio < -1 {
		ratio = -1
	}
	return RadiusEarth * math.Acos(ratio)
}

// CalcDistanceFast returns an equirectangular approximation of the
// great-circle distance in metres. It is accurate for the short distances
// the correlation kernels care about and much cheaper than CalcDistance.
func CalcDistanceFast(p1, p2 Point) float64 {
	if p1.Type == Cartesian || p2.Type == Cartesian {
		dx := p1.Lon - p2.Lon
		dy := p1.Lat - p2.Lat
		return math.Sqrt(dx*dx + dy*dy)
	}
	lat1 := deg2rad(p1.Lat)
	lat2 := deg2rad(p2.Lat)
	lon1 := deg2rad(p1.Lon)
	lon2 := deg2rad(p2.Lon)
	dx := math.Cos((lat1+lat2)/2) * (lon1 - lon2)
	dy := lat1 - lat2
	return RadiusEarth * math.Sqrt(dx*dx+dy*dy)
}
