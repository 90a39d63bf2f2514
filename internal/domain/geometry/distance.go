package geometry

import (
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/proteingraph/pkg/errors"
)

// parallelRows is the subset size from which rows are filled concurrently.
const parallelRows = 512

// Pair is an unordered pair of row indices with I < J.
type Pair struct {
	I, J int
}

// DistanceMatrix is the symmetric matrix of pairwise Euclidean distances over
// an ordered point subset. Row i corresponds to the i-th point of the subset.
// It is read-only once built.
type DistanceMatrix struct {
	sym *mat.SymDense
}

// NewDistanceMatrix computes all pairwise distances over points. An empty
// subset is an input-shape error.
func NewDistanceMatrix(points []Point) (*DistanceMatrix, error) {
	n := len(points)
	if n == 0 {
		return nil, errors.New(errors.ErrCodeEmptySubset, "distance matrix over empty atom subset")
	}

	data := make([]float64, n*n)
	fill := func(i int) {
		row := data[i*n : (i+1)*n]
		for j := i + 1; j < n; j++ {
			row[j] = Euclidean(points[i], points[j])
		}
	}

	if n < parallelRows {
		for i := 0; i < n; i++ {
			fill(i)
		}
	} else {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i := 0; i < n; i++ {
			i := i
			g.Go(func() error {
				fill(i)
				return nil
			})
		}
		_ = g.Wait()
	}

	// SymDense reads the upper triangle only.
	return &DistanceMatrix{sym: mat.NewSymDense(n, data)}, nil
}

// Len returns the number of rows.
func (m *DistanceMatrix) Len() int {
	return m.sym.SymmetricDim()
}

// At returns the distance between rows i and j.
func (m *DistanceMatrix) At(i, j int) float64 {
	return m.sym.At(i, j)
}

// Within returns every pair i < j whose distance lies in the closed interval
// [lo, hi], ordered by i then j.
func (m *DistanceMatrix) Within(lo, hi float64) []Pair {
	n := m.Len()
	var out []Pair
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := m.sym.At(i, j)
			if d >= lo && d <= hi {
				out = append(out, Pair{I: i, J: j})
			}
		}
	}
	return out
}
