package structure

import (
	"sort"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
)

// Residue is one distinct (chain, number, name) tuple of the table.
type Residue struct {
	ChainID   string
	Number    int
	Name      string
	NodeID    string
	Position  geometry.Point // Cα, or the mean of all atoms when HasCA is false
	HasCA     bool
	AtomCount int
}

// ResidueIndex maps chain → position → residue for the ATOM rows of a table.
type ResidueIndex struct {
	residues []*Residue
	byNode   map[string]*Residue
	chains   map[string]map[int]*Residue
}

// NewResidueIndex groups the ATOM rows of t by residue. When two residue
// names share a chain position the first one seen owns the position.
func NewResidueIndex(t *AtomTable) *ResidueIndex {
	idx := &ResidueIndex{
		byNode: make(map[string]*Residue),
		chains: make(map[string]map[int]*Residue),
	}
	sums := make(map[string]geometry.Point)
	for _, a := range t.atoms {
		if a.RecordType != RecordATOM {
			continue
		}
		r, ok := idx.byNode[a.NodeID]
		if !ok {
			r = &Residue{
				ChainID: a.ChainID,
				Number:  a.ResidueNumber,
				Name:    a.ResidueName,
				NodeID:  a.NodeID,
			}
			idx.byNode[a.NodeID] = r
			idx.residues = append(idx.residues, r)

			positions, ok := idx.chains[a.ChainID]
			if !ok {
				positions = make(map[int]*Residue)
				idx.chains[a.ChainID] = positions
			}
			if _, taken := positions[a.ResidueNumber]; !taken {
				positions[a.ResidueNumber] = r
			}
		}
		r.AtomCount++
		sums[a.NodeID] = sums[a.NodeID].Add(a.Position())
		if a.AtomName == "CA" && !r.HasCA {
			r.HasCA = true
			r.Position = a.Position()
		}
	}
	for _, r := range idx.residues {
		if !r.HasCA {
			r.Position = sums[r.NodeID].Scale(1 / float64(r.AtomCount))
		}
	}
	return idx
}

// Len returns the number of distinct residues.
func (idx *ResidueIndex) Len() int { return len(idx.residues) }

// Residues returns all residues in order of first appearance.
func (idx *ResidueIndex) Residues() []Residue {
	out := make([]Residue, len(idx.residues))
	for i, r := range idx.residues {
		out[i] = *r
	}
	return out
}

// ByNode returns the residue with the given node id.
func (idx *ResidueIndex) ByNode(nodeID string) (Residue, bool) {
	r, ok := idx.byNode[nodeID]
	if !ok {
		return Residue{}, false
	}
	return *r, true
}

// Lookup returns the residue at position pos of chain.
func (idx *ResidueIndex) Lookup(chainID string, pos int) (Residue, bool) {
	r, ok := idx.chains[chainID][pos]
	if !ok {
		return Residue{}, false
	}
	return *r, true
}

// Chains returns the chain ids, sorted.
func (idx *ResidueIndex) Chains() []string {
	out := make([]string, 0, len(idx.chains))
	for c := range idx.chains {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// Positions returns the residue numbers present in chain, ascending.
func (idx *ResidueIndex) Positions(chainID string) []int {
	positions := idx.chains[chainID]
	out := make([]int, 0, len(positions))
	for p := range positions {
		out = append(out, p)
	}
	sort.Ints(out)
	return out
}
