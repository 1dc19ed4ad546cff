// Package geometry provides the planar distance helpers used for hit-testing
// pointer positions against locations and paths on the map.
package geometry

import (
	"gonum.org/v1/gonum/spatial/r2"
)

// Point is a position in map pixel space.
type Point = r2.Vec

// Pt is shorthand for building a Point.
func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

// Distance returns the Euclidean distance between p and q.
func Distance(p, q Point) float64 {
	return r2.Norm(r2.Sub(p, q))
}

// PointToSegmentDistance returns the shortest distance from p to the segment [a, b].
// A degenerate segment (a == b) is treated as a point.
func PointToSegmentDistance(p, a, b Point) float64 {
	ab := r2.Sub(b, a)
	lenSq := r2.Dot(ab, ab)
	if lenSq == 0 {
		return Distance(p, a)
	}

	// Project p onto the segment and clamp to its end points
	t := r2.Dot(r2.Sub(p, a), ab) / lenSq
	switch {
	case t < 0:
		t = 0
	case t > 1:
		t = 1
	}

	proj := r2.Add(a, r2.Scale(t, ab))
	return Distance(p, proj)
}
