// Package interaction detects residue-residue interactions in an atom table
// and merges them into a residue graph.
//
// Detectors are pure: they read an Input and return Contributions. Only the
// Engine writes to the graph, through Commit, so detectors can run
// concurrently without coordinating on edges.
package interaction

import (
	"context"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/domain/structure"
	"github.com/turtacn/proteingraph/pkg/errors"
	"github.com/turtacn/proteingraph/pkg/types/protein"
)

// Contribution is one residue pair and the kinds a detector assigns to it.
type Contribution struct {
	A, B  string
	Kinds graph.KindSet
}

// Input is the read-only view every detector receives.
type Input struct {
	// Atoms holds the ATOM rows of the structure.
	Atoms *structure.AtomTable
	// RGroup holds the side-chain subset of Atoms.
	RGroup *structure.AtomTable
	// Index groups Atoms by residue.
	Index *structure.ResidueIndex
}

// NewInput derives the R-group subset and residue index from the ATOM rows of
// table. A table without ATOM rows or without side-chain atoms is rejected.
func NewInput(table *structure.AtomTable) (*Input, error) {
	if err := table.Validate(); err != nil {
		return nil, err
	}
	atoms := table.OnlyATOM()
	if atoms.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEmptySubset, "structure has no ATOM records")
	}
	rgroup := atoms.RGroup()
	if rgroup.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEmptySubset, "structure has no side-chain atoms")
	}
	return &Input{
		Atoms:  atoms,
		RGroup: rgroup,
		Index:  structure.NewResidueIndex(atoms),
	}, nil
}

// Detector finds residue pairs satisfying one interaction rule.
type Detector interface {
	Name() string
	Detect(ctx context.Context, in *Input) ([]Contribution, error)
}

// Pruner is implemented by detectors that must strip their own label from
// edges failing a post-hoc check once contributions are merged.
type Pruner interface {
	Prune(g *graph.Graph) error
}

// pairCollector accumulates unique residue pairs in first-seen order.
type pairCollector struct {
	seen  map[graph.EdgeKey]struct{}
	pairs []graph.EdgeKey
}

func newPairCollector() *pairCollector {
	return &pairCollector{seen: make(map[graph.EdgeKey]struct{})}
}

// add records a-b unless it is a self-pair or a duplicate.
func (c *pairCollector) add(a, b string) {
	key, err := graph.NewEdgeKey(a, b)
	if err != nil {
		return
	}
	if _, ok := c.seen[key]; ok {
		return
	}
	c.seen[key] = struct{}{}
	c.pairs = append(c.pairs, key)
}

func (c *pairCollector) contributions(kind graph.BondKind) []Contribution {
	out := make([]Contribution, len(c.pairs))
	for i, k := range c.pairs {
		out[i] = Contribution{A: k.U, B: k.V, Kinds: graph.NewKindSet(kind)}
	}
	return out
}

// atomPairsWithin maps every atom pair of sub lying in [lo, hi] to its residue
// pair and feeds the pairs accepted by keep into c. An empty sub contributes
// nothing.
func atomPairsWithin(ctx context.Context, sub *structure.AtomTable, lo, hi float64,
	keep func(a, b structure.AtomRecord) bool, c *pairCollector) error {

	if sub.Len() == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	dm, err := geometry.NewDistanceMatrix(sub.Points())
	if err != nil {
		return err
	}
	for _, p := range dm.Within(lo, hi) {
		a, b := sub.At(p.I), sub.At(p.J)
		if keep != nil && !keep(a, b) {
			continue
		}
		c.add(a.NodeID, b.NodeID)
	}
	return nil
}

// crossMatch reports whether one residue is in x and the other in y.
func crossMatch(a, b string, x, y protein.Set) bool {
	return (x.Has(a) && y.Has(b)) || (y.Has(a) && x.Has(b))
}
