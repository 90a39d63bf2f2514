package interaction

import (
	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/pkg/types/protein"
)

// ionicDetector proposes charged residue pairs within 6 Å and, once merged,
// strips the ionic label from pairs that are not oppositely charged.
type ionicDetector struct {
	thresholdDetector
}

// Ionic links charged residues whose side chains come within 6 Å. Pairs that
// are not one positive and one negative residue are removed by Prune.
func Ionic() Detector {
	return &ionicDetector{thresholdDetector{
		name:   graph.Ionic.String(),
		kind:   graph.Ionic,
		passes: []pass{{residues: protein.IonicResidues, cutoff: IonicCutoff}},
	}}
}

// Prune removes the ionic label from every edge whose endpoints are not
// oppositely charged. Edges left without labels are deleted.
func (d *ionicDetector) Prune(g *graph.Graph) error {
	for _, e := range g.EdgesByKind(graph.Ionic) {
		u, err := g.Node(e.Key.U)
		if err != nil {
			return err
		}
		v, err := g.Node(e.Key.V)
		if err != nil {
			return err
		}
		if crossMatch(u.ResidueName, v.ResidueName, protein.PositiveResidues, protein.NegativeResidues) {
			continue
		}
		if err := g.RemoveKind(e.Key.U, e.Key.V, graph.Ionic); err != nil {
			return err
		}
	}
	return nil
}
