package interaction

import (
	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/domain/structure"
	"github.com/turtacn/proteingraph/pkg/types/protein"
)

// BackboneContributions links every residue to its sequence neighbour at
// position+1 in the same chain when both residues are canonical. Walking the
// +1 direction from every residue covers the -1 direction as well.
func BackboneContributions(idx *structure.ResidueIndex) []Contribution {
	var out []Contribution
	kinds := graph.NewKindSet(graph.Backbone)
	for _, chain := range idx.Chains() {
		for _, pos := range idx.Positions(chain) {
			cur, _ := idx.Lookup(chain, pos)
			next, ok := idx.Lookup(chain, pos+1)
			if !ok {
				continue
			}
			if !protein.IsCanonical(cur.Name) || !protein.IsCanonical(next.Name) {
				continue
			}
			out = append(out, Contribution{A: cur.NodeID, B: next.NodeID, Kinds: kinds})
		}
	}
	return out
}

// AddBackbone commits the backbone edges of idx into g.
func AddBackbone(g *graph.Graph, idx *structure.ResidueIndex) error {
	return Commit(g, BackboneContributions(idx))
}
