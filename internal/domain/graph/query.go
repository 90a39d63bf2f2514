package graph

import (
	"gonum.org/v1/gonum/mat"

	"github.com/turtacn/proteingraph/pkg/errors"
)

// Feature matrix kinds.
const (
	FeatureKindNode = "node"
	FeatureKindEdge = "edge"
)

// FeatureMatrix returns one feature row per node (kind "node") or per edge
// (kind "edge"), in the order of Nodes or Edges. Every row must be encoded.
func (g *Graph) FeatureMatrix(kind string) ([][]float64, error) {
	switch kind {
	case FeatureKindNode:
		nodes := g.Nodes()
		out := make([][]float64, len(nodes))
		for i, n := range nodes {
			if n.Features == nil {
				return nil, notEncoded(n.ID)
			}
			out[i] = n.Features
		}
		return out, nil
	case FeatureKindEdge:
		edges := g.Edges()
		out := make([][]float64, len(edges))
		for i, e := range edges {
			if e.Features == nil {
				return nil, notEncoded(e.Key.String())
			}
			out[i] = e.Features
		}
		return out, nil
	}
	return nil, errors.New(errors.ErrCodeInvalidFeatureKind, "feature kind must be node or edge").WithDetail(kind)
}

// FeatureDense returns the feature matrix of kind as a dense matrix. A graph
// with no rows of that kind yields an empty-subset error.
func (g *Graph) FeatureDense(kind string) (*mat.Dense, error) {
	rows, err := g.FeatureMatrix(kind)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, errors.New(errors.ErrCodeEmptySubset, "feature matrix has no rows").WithDetail(kind)
	}
	width := len(rows[0])
	data := make([]float64, 0, len(rows)*width)
	for _, r := range rows {
		if len(r) != width {
			return nil, errors.New(errors.ErrCodeValidation, "feature rows differ in width").WithDetail(kind)
		}
		data = append(data, r...)
	}
	return mat.NewDense(len(rows), width, data), nil
}

func notEncoded(id string) error {
	return errors.New(errors.ErrCodeValidation, "features have not been encoded").WithDetail(id)
}
