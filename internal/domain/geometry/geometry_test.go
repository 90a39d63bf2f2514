package geometry

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/proteingraph/pkg/errors"
)

func TestEuclidean(t *testing.T) {
	assert.InDelta(t, 5.0, Euclidean(Point{0, 0, 0}, Point{3, 4, 0}), 1e-12)
	assert.InDelta(t, math.Sqrt(3), Euclidean(Point{1, 1, 1}, Point{2, 2, 2}), 1e-12)
	assert.Zero(t, Euclidean(Point{1, 2, 3}, Point{1, 2, 3}))
}

func TestCentroid(t *testing.T) {
	c, err := Centroid([]Point{{0, 0, 0}, {2, 0, 0}, {2, 2, 0}, {0, 2, 0}})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, c.X, 1e-12)
	assert.InDelta(t, 1.0, c.Y, 1e-12)
	assert.InDelta(t, 0.0, c.Z, 1e-12)

	_, err = Centroid(nil)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptySubset))
}

func TestDistanceMatrix_SinglePoint(t *testing.T) {
	m, err := NewDistanceMatrix([]Point{{1, 2, 3}})
	require.NoError(t, err)
	assert.Equal(t, 1, m.Len())
	assert.Zero(t, m.At(0, 0))
	assert.Empty(t, m.Within(0, 100))
}

func TestDistanceMatrix_EmptyIsInputShapeError(t *testing.T) {
	_, err := NewDistanceMatrix(nil)
	require.Error(t, err)
	assert.True(t, errors.IsCode(err, errors.ErrCodeEmptySubset))
}

func TestDistanceMatrix_SymmetricZeroDiagonal(t *testing.T) {
	pts := []Point{{0, 0, 0}, {3, 4, 0}, {0, 0, 2}, {1, 1, 1}}
	m, err := NewDistanceMatrix(pts)
	require.NoError(t, err)

	for i := range pts {
		assert.Zero(t, m.At(i, i))
		for j := range pts {
			assert.Equal(t, m.At(i, j), m.At(j, i))
			assert.InDelta(t, Euclidean(pts[i], pts[j]), m.At(i, j), 1e-12)
		}
	}
}

func TestDistanceMatrix_WithinIsClosed(t *testing.T) {
	pts := []Point{{0, 0, 0}, {4.5, 0, 0}, {0, 7, 0}, {0, 0, 9}}
	m, err := NewDistanceMatrix(pts)
	require.NoError(t, err)

	pairs := m.Within(4.5, 7.0)
	assert.Contains(t, pairs, Pair{I: 0, J: 1})
	assert.Contains(t, pairs, Pair{I: 0, J: 2})
	assert.NotContains(t, pairs, Pair{I: 0, J: 3})
	for _, p := range pairs {
		assert.Less(t, p.I, p.J)
	}
}

func TestDistanceMatrix_ParallelMatchesSerial(t *testing.T) {
	pts := make([]Point, parallelRows+7)
	for i := range pts {
		f := float64(i)
		pts[i] = Point{math.Sin(f) * 20, math.Cos(f) * 20, f * 0.1}
	}
	m, err := NewDistanceMatrix(pts)
	require.NoError(t, err)
	require.Equal(t, len(pts), m.Len())

	for _, ij := range [][2]int{{0, 1}, {3, 500}, {518, 2}, {100, 100}} {
		assert.InDelta(t, Euclidean(pts[ij[0]], pts[ij[1]]), m.At(ij[0], ij[1]), 1e-9)
	}
}

func TestDelaunay3D_SingleTetrahedron(t *testing.T) {
	pts := []Point{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}}
	tri, err := Delaunay3D(pts)
	require.NoError(t, err)
	require.Len(t, tri.Tetrahedra, 1)
	assert.Equal(t, [4]int{0, 1, 2, 3}, tri.Tetrahedra[0])
	assert.Len(t, tri.Edges(), 6)
}

func TestDelaunay3D_InteriorPoint(t *testing.T) {
	pts := []Point{
		{0, 0, 0}, {4, 0, 0}, {0, 4, 0}, {0, 0, 4},
		{0.8, 0.9, 1.0},
	}
	tri, err := Delaunay3D(pts)
	require.NoError(t, err)
	assert.Len(t, tri.Tetrahedra, 4)

	edges := tri.Edges()
	assert.Len(t, edges, 10)
	for i := 0; i < 4; i++ {
		assert.Contains(t, edges, Pair{I: i, J: 4})
	}
}

func TestDelaunay3D_Degenerate(t *testing.T) {
	_, err := Delaunay3D([]Point{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}})
	assert.True(t, errors.IsCode(err, errors.ErrCodeDegenerateTriangulation))

	flat := []Point{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {1, 1.3, 0}, {2, 0.4, 0}}
	_, err = Delaunay3D(flat)
	assert.True(t, errors.IsCode(err, errors.ErrCodeDegenerateTriangulation))
}

// emptySphereEdges collects the edges of every tetrahedron whose circumsphere
// holds no other point.
func emptySphereEdges(pts []Point) []Pair {
	seen := make(map[Pair]struct{})
	n := len(pts)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				for l := k + 1; l < n; l++ {
					v := [4]int{i, j, k, l}
					if math.Abs(signedVolume(pts, v)) < 1e-9 {
						continue
					}
					t := newTetra(pts, v)
					empty := true
					for m := 0; m < n && empty; m++ {
						if m == i || m == j || m == k || m == l {
							continue
						}
						if pts[m].Sub(t.center).Norm2() < t.r2*(1-1e-9) {
							empty = false
						}
					}
					if !empty {
						continue
					}
					for a := 0; a < 4; a++ {
						for b := a + 1; b < 4; b++ {
							seen[Pair{I: v[a], J: v[b]}] = struct{}{}
						}
					}
				}
			}
		}
	}
	out := make([]Pair, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	return out
}

// helixTrace mimics a jittered alpha-helix backbone.
func helixTrace(rng *rand.Rand, n int) []Point {
	pts := make([]Point, n)
	for k := range pts {
		theta := float64(k) * 100 * math.Pi / 180
		pts[k] = Point{
			X: 2.3*math.Cos(theta) + 0.3*rng.NormFloat64(),
			Y: 2.3*math.Sin(theta) + 0.3*rng.NormFloat64(),
			Z: 1.5*float64(k) + 0.3*rng.NormFloat64(),
		}
	}
	return pts
}

func TestDelaunay3D_MatchesEmptySphere(t *testing.T) {
	for seed := int64(1); seed <= 30; seed++ {
		pts := helixTrace(rand.New(rand.NewSource(seed)), 25)

		tri, err := Delaunay3D(pts)
		require.NoError(t, err, "seed %d", seed)
		assert.ElementsMatch(t, emptySphereEdges(pts), tri.Edges(), "seed %d", seed)
	}
}

func TestDelaunay3D_KeepsHullSlivers(t *testing.T) {
	// 0-3 are nearly coplanar; the tall apex leaves their sliver on the hull
	pts := []Point{
		{0, 0, 0}, {10, 0, 0}, {10, 10, 0.1}, {0, 10, 0},
		{5, 5, 12},
	}
	tri, err := Delaunay3D(pts)
	require.NoError(t, err)
	assert.Contains(t, tri.Tetrahedra, [4]int{0, 1, 2, 3})
	assert.Contains(t, tri.Edges(), Pair{I: 0, J: 2})
	assert.ElementsMatch(t, emptySphereEdges(pts), tri.Edges())
}

func TestDelaunay3D_DuplicatePoint(t *testing.T) {
	pts := []Point{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}, {1, 0, 0}}
	tri, err := Delaunay3D(pts)
	require.NoError(t, err)
	assert.Equal(t, [][4]int{{0, 1, 2, 3}}, tri.Tetrahedra)
}
