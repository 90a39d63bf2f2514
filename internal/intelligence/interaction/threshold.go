package interaction

import (
	"context"

	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/domain/structure"
	"github.com/turtacn/proteingraph/pkg/types/protein"
)

// Distance cutoffs in ångström.
const (
	HydrophobicCutoff     = 5.0
	DisulfideCutoff       = 2.2
	HBondCutoff           = 3.5
	HBondSulphurCutoff    = 4.0
	IonicCutoff           = 6.0
	AromaticSulphurCutoff = 5.3
	CationPiCutoff        = 6.0
)

// pass is one filter-then-threshold query over the R-group atoms.
type pass struct {
	residues protein.Set // empty keeps every residue
	atoms    protein.Set // empty keeps every R-group atom
	cutoff   float64
}

// thresholdDetector runs one or more passes and labels every residue pair
// found with a single bond kind.
type thresholdDetector struct {
	name   string
	kind   graph.BondKind
	passes []pass
	accept func(a, b structure.AtomRecord) bool
}

func (d *thresholdDetector) Name() string { return d.name }

// Kind returns the bond kind the detector assigns.
func (d *thresholdDetector) Kind() graph.BondKind { return d.kind }

func (d *thresholdDetector) Detect(ctx context.Context, in *Input) ([]Contribution, error) {
	c := newPairCollector()
	for _, p := range d.passes {
		sub, err := p.subset(in.RGroup)
		if err != nil {
			return nil, err
		}
		if err := atomPairsWithin(ctx, sub, 0, p.cutoff, d.accept, c); err != nil {
			return nil, err
		}
	}
	return c.contributions(d.kind), nil
}

func (p pass) subset(rgroup *structure.AtomTable) (*structure.AtomTable, error) {
	sub := rgroup
	var err error
	if p.residues.Len() > 0 {
		if sub, err = sub.Filter(structure.ColumnResidueName, p.residues, true); err != nil {
			return nil, err
		}
	}
	if p.atoms.Len() > 0 {
		if sub, err = sub.Filter(structure.ColumnAtomName, p.atoms, true); err != nil {
			return nil, err
		}
	}
	return sub, nil
}

// Hydrophobic links hydrophobic residues whose side chains come within 5 Å.
func Hydrophobic() Detector {
	return &thresholdDetector{
		name:   graph.Hydrophobic.String(),
		kind:   graph.Hydrophobic,
		passes: []pass{{residues: protein.HydrophobicResidues, cutoff: HydrophobicCutoff}},
	}
}

// Disulfide links cysteines whose SG atoms are within 2.2 Å.
func Disulfide() Detector {
	return &thresholdDetector{
		name: graph.Disulfide.String(),
		kind: graph.Disulfide,
		passes: []pass{{
			residues: protein.DisulfideResidues,
			atoms:    protein.DisulfideAtoms,
			cutoff:   DisulfideCutoff,
		}},
	}
}

// HydrogenBond links residues with donor/acceptor heavy atoms within 3.5 Å,
// plus a second pass over sulphur atoms with a 4.0 Å radius. The rule ignores
// donor/acceptor roles and angles.
func HydrogenBond() Detector {
	return &thresholdDetector{
		name: graph.HBond.String(),
		kind: graph.HBond,
		passes: []pass{
			{atoms: protein.HBondAtoms, cutoff: HBondCutoff},
			{atoms: protein.HBondSulphurAtoms, cutoff: HBondSulphurCutoff},
		},
	}
}

// AromaticSulphur links a MET or CYS side chain to a PHE, TYR or TRP side
// chain within 5.3 Å.
func AromaticSulphur() Detector {
	return &thresholdDetector{
		name: graph.AromaticSulphur.String(),
		kind: graph.AromaticSulphur,
		passes: []pass{{
			residues: protein.SulphurResidues.Union(protein.SulphurAromaticResidues),
			cutoff:   AromaticSulphurCutoff,
		}},
		accept: func(a, b structure.AtomRecord) bool {
			return crossMatch(a.ResidueName, b.ResidueName, protein.SulphurResidues, protein.SulphurAromaticResidues)
		},
	}
}

// CationPi links a cation residue to a π residue when their side chains come
// within 6 Å. Empty sets fall back to {LYS, ARG} and {PHE, TYR, TRP}.
func CationPi(cation, pi protein.Set) Detector {
	if cation.Len() == 0 {
		cation = protein.CationResidues
	}
	if pi.Len() == 0 {
		pi = protein.PiResidues
	}
	return &thresholdDetector{
		name:   graph.CationPi.String(),
		kind:   graph.CationPi,
		passes: []pass{{residues: cation.Union(pi), cutoff: CationPiCutoff}},
		accept: func(a, b structure.AtomRecord) bool {
			return crossMatch(a.ResidueName, b.ResidueName, cation, pi)
		},
	}
}
