package interaction

import (
	"context"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
	"github.com/turtacn/proteingraph/internal/domain/graph"
)

type delaunayDetector struct{}

// Delaunay links every pair of residues sharing an edge of the 3-D Delaunay
// tessellation of their Cα atoms. Residues without a Cα take no part.
func Delaunay() Detector { return delaunayDetector{} }

func (delaunayDetector) Name() string { return graph.Delaunay.String() }

func (delaunayDetector) Detect(ctx context.Context, in *Input) ([]Contribution, error) {
	var (
		ids    []string
		points []geometry.Point
	)
	for _, r := range in.Index.Residues() {
		if !r.HasCA {
			continue
		}
		ids = append(ids, r.NodeID)
		points = append(points, r.Position)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tri, err := geometry.Delaunay3D(points)
	if err != nil {
		return nil, err
	}
	c := newPairCollector()
	for _, e := range tri.Edges() {
		c.add(ids[e.I], ids[e.J])
	}
	return c.contributions(graph.Delaunay), nil
}

