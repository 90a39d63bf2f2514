package interaction

import (
	"context"
	"sort"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/domain/structure"
	"github.com/turtacn/proteingraph/pkg/types/protein"
)

// Aromatic ring centroid separation window in ångström, inclusive.
const (
	AromaticMin = 4.5
	AromaticMax = 7.0
)

type aromaticDetector struct{}

// Aromatic links aromatic residues whose ring centroids lie between 4.5 and
// 7.0 Å apart.
func Aromatic() Detector { return aromaticDetector{} }

func (aromaticDetector) Name() string { return graph.Aromatic.String() }

func (aromaticDetector) Detect(ctx context.Context, in *Input) ([]Contribution, error) {
	ids, centroids, err := RingCentroids(in.Atoms)
	if err != nil || len(ids) == 0 {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	dm, err := geometry.NewDistanceMatrix(centroids)
	if err != nil {
		return nil, err
	}
	c := newPairCollector()
	for _, p := range dm.Within(AromaticMin, AromaticMax) {
		c.add(ids[p.I], ids[p.J])
	}
	return c.contributions(graph.Aromatic), nil
}

// RingCentroids returns, sorted by node id, the centroid of the ring atoms of
// every aromatic residue in t. Residues with no ring atoms are skipped.
func RingCentroids(t *structure.AtomTable) ([]string, []geometry.Point, error) {
	rings := make(map[string][]geometry.Point)
	for _, a := range t.Atoms() {
		if !protein.AromaticResidues.Has(a.ResidueName) {
			continue
		}
		names, _ := protein.RingAtoms(a.ResidueName)
		if !names.Has(a.AtomName) {
			continue
		}
		rings[a.NodeID] = append(rings[a.NodeID], a.Position())
	}

	ids := make([]string, 0, len(rings))
	for id := range rings {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	centroids := make([]geometry.Point, len(ids))
	for i, id := range ids {
		c, err := geometry.Centroid(rings[id])
		if err != nil {
			return nil, nil, err
		}
		centroids[i] = c
	}
	return ids, centroids, nil
}
