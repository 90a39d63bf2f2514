package interaction

import (
	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/pkg/errors"
	"github.com/turtacn/proteingraph/pkg/types/protein"
)

// DefaultDetectors lists the detectors run when none are configured. Delaunay
// is opt-in.
var DefaultDetectors = []string{
	graph.Hydrophobic.String(),
	graph.Disulfide.String(),
	graph.HBond.String(),
	graph.Ionic.String(),
	graph.Aromatic.String(),
	graph.AromaticSulphur.String(),
	graph.CationPi.String(),
}

// RegistryOptions parameterises detectors built by name.
type RegistryOptions struct {
	CationResidues []string
	PiResidues     []string
}

// Build returns the detectors named in names, in order. Duplicate names are
// dropped. An empty list yields DefaultDetectors. The backbone label is not a
// detector and is rejected.
func Build(names []string, opts RegistryOptions) ([]Detector, error) {
	if len(names) == 0 {
		names = DefaultDetectors
	}
	seen := make(map[graph.BondKind]bool, len(names))
	out := make([]Detector, 0, len(names))
	for _, name := range names {
		kind, err := graph.ParseBondKind(name)
		if err != nil {
			return nil, err
		}
		if seen[kind] {
			continue
		}
		seen[kind] = true

		var d Detector
		switch kind {
		case graph.Hydrophobic:
			d = Hydrophobic()
		case graph.Disulfide:
			d = Disulfide()
		case graph.HBond:
			d = HydrogenBond()
		case graph.Ionic:
			d = Ionic()
		case graph.Aromatic:
			d = Aromatic()
		case graph.AromaticSulphur:
			d = AromaticSulphur()
		case graph.CationPi:
			d = CationPi(protein.NewSet(opts.CationResidues...), protein.NewSet(opts.PiResidues...))
		case graph.Delaunay:
			d = Delaunay()
		default:
			return nil, errors.New(errors.ErrCodeUnknownBondKind, "bond kind has no detector").WithDetail(name)
		}
		out = append(out, d)
	}
	return out, nil
}
