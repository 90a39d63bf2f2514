// Package geometry provides the spatial primitives shared by the interaction
// detectors: 3-D points, pairwise distance matrices, centroids and Delaunay
// triangulation.
package geometry

import (
	"math"

	"github.com/turtacn/proteingraph/pkg/errors"
)

// Point is a position in Ångström space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
	Z float64 `json:"z" yaml:"z"`
}

// Sub returns p - q.
func (p Point) Sub(q Point) Point { return Point{p.X - q.X, p.Y - q.Y, p.Z - q.Z} }

// Add returns p + q.
func (p Point) Add(q Point) Point { return Point{p.X + q.X, p.Y + q.Y, p.Z + q.Z} }

// Scale returns p * s.
func (p Point) Scale(s float64) Point { return Point{p.X * s, p.Y * s, p.Z * s} }

// Dot returns the scalar product of p and q.
func (p Point) Dot(q Point) float64 { return p.X*q.X + p.Y*q.Y + p.Z*q.Z }

// Cross returns the vector product p × q.
func (p Point) Cross(q Point) Point {
	return Point{
		p.Y*q.Z - p.Z*q.Y,
		p.Z*q.X - p.X*q.Z,
		p.X*q.Y - p.Y*q.X,
	}
}

// Norm2 returns the squared length of p.
func (p Point) Norm2() float64 { return p.Dot(p) }

// Euclidean returns the straight-line distance between a and b.
func Euclidean(a, b Point) float64 {
	return math.Sqrt(a.Sub(b).Norm2())
}

// Centroid returns the mean position of points.
func Centroid(points []Point) (Point, error) {
	if len(points) == 0 {
		return Point{}, errors.New(errors.ErrCodeEmptySubset, "centroid of empty point set")
	}
	var c Point
	for _, p := range points {
		c = c.Add(p)
	}
	return c.Scale(1 / float64(len(points))), nil
}
