// Package protein defines the process-wide constant residue and atom tables
// used by every layer of proteingraph: the canonical amino-acid alphabet,
// residue classification sets, atom-name groups and per-residue physicochemical
// descriptors. No domain logic lives here; the tables are built once at package
// initialisation and are only ever exposed through read-only accessors.
package protein

import "sort"

// ─────────────────────────────────────────────────────────────────────────────
// Canonical alphabet
// ─────────────────────────────────────────────────────────────────────────────

// canonical is the 20-letter amino-acid alphabet in alphabetical order. The
// order is the one-hot basis of the node feature vector and must never change.
var canonical = [...]string{
	"ALA", "ARG", "ASN", "ASP", "CYS",
	"GLN", "GLU", "GLY", "HIS", "ILE",
	"LEU", "LYS", "MET", "PHE", "PRO",
	"SER", "THR", "TRP", "TYR", "VAL",
}

var canonicalIndex = func() map[string]int {
	m := make(map[string]int, len(canonical))
	for i, r := range canonical {
		m[r] = i
	}
	return m
}()

// AlphabetSize is the number of canonical residue types.
const AlphabetSize = len(canonical)

// Alphabet returns a copy of the canonical alphabet in encoding order.
func Alphabet() []string {
	out := make([]string, len(canonical))
	copy(out, canonical[:])
	return out
}

// IsCanonical reports whether residue is one of the 20 canonical amino acids.
func IsCanonical(residue string) bool {
	_, ok := canonicalIndex[residue]
	return ok
}

// AlphabetIndex returns the one-hot position of residue, or -1 when residue is
// outside the alphabet.
func AlphabetIndex(residue string) int {
	if i, ok := canonicalIndex[residue]; ok {
		return i
	}
	return -1
}

// ─────────────────────────────────────────────────────────────────────────────
// Residue classification sets
// ─────────────────────────────────────────────────────────────────────────────

// Set is an immutable set of residue or atom names.
type Set struct {
	m map[string]struct{}
}

// NewSet builds a Set from names.
func NewSet(names ...string) Set {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return Set{m: m}
}

// Has reports membership.
func (s Set) Has(name string) bool {
	_, ok := s.m[name]
	return ok
}

// Len returns the number of members.
func (s Set) Len() int { return len(s.m) }

// Members returns the sorted members.
func (s Set) Members() []string {
	out := make([]string, 0, len(s.m))
	for n := range s.m {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

// Union returns a new Set containing the members of s and o.
func (s Set) Union(o Set) Set {
	out := make([]string, 0, s.Len()+o.Len())
	out = append(out, s.Members()...)
	out = append(out, o.Members()...)
	return NewSet(out...)
}

var (
	// HydrophobicResidues take part in hydrophobic contacts.
	HydrophobicResidues = NewSet("ALA", "VAL", "LEU", "ILE", "MET", "PHE", "TRP", "PRO", "TYR")

	// DisulfideResidues can form disulfide bridges.
	DisulfideResidues = NewSet("CYS")

	// IonicResidues carry a charged side chain.
	IonicResidues = NewSet("ARG", "LYS", "HIS", "ASP", "GLU")

	// PositiveResidues are the positively charged subset of IonicResidues.
	PositiveResidues = NewSet("HIS", "LYS", "ARG")

	// NegativeResidues are the negatively charged subset of IonicResidues.
	NegativeResidues = NewSet("GLU", "ASP")

	// AromaticResidues carry an aromatic ring.
	AromaticResidues = NewSet("PHE", "TRP", "HIS", "TYR")

	// SulphurResidues carry a side-chain sulphur atom.
	SulphurResidues = NewSet("MET", "CYS")

	// SulphurAromaticResidues are the ring partners of a sulphur contact.
	SulphurAromaticResidues = NewSet("PHE", "TYR", "TRP")

	// CationResidues are the default cation side of a cation-pi contact.
	CationResidues = NewSet("LYS", "ARG")

	// PiResidues are the default π side of a cation-pi contact.
	PiResidues = NewSet("PHE", "TYR", "TRP")
)

// ─────────────────────────────────────────────────────────────────────────────
// Atom-name groups
// ─────────────────────────────────────────────────────────────────────────────

var (
	// BackboneAtoms are excluded from the R-group subset. OXT is the terminal
	// carboxyl oxygen.
	BackboneAtoms = NewSet("N", "CA", "C", "O", "OXT")

	// DisulfideAtoms are the sulphur atoms that bridge two cysteines.
	DisulfideAtoms = NewSet("SG")

	// HBondAtoms are the nitrogen, oxygen and sulphur heavy atoms that can
	// donate or accept a hydrogen bond.
	HBondAtoms = NewSet(
		"ND1", "ND2", "NE", "NE1", "NE2", "NH1", "NH2", "NZ",
		"OD1", "OD2", "OE1", "OE2", "OG", "OG1", "OH",
		"SD", "SG",
		"N", "O",
	)

	// HBondSulphurAtoms get the longer sulphur hydrogen-bond radius.
	HBondSulphurAtoms = NewSet("SD", "SG")
)

// ringAtoms lists the atoms of the aromatic ring of each aromatic residue. For
// TRP only the six-membered benzene ring is used.
var ringAtoms = map[string]Set{
	"PHE": NewSet("CG", "CD1", "CD2", "CE1", "CE2", "CZ"),
	"TYR": NewSet("CG", "CD1", "CD2", "CE1", "CE2", "CZ"),
	"TRP": NewSet("CD2", "CE2", "CE3", "CZ2", "CZ3", "CH2"),
	"HIS": NewSet("CG", "ND1", "CD2", "CE1", "NE2"),
}

// RingAtoms returns the ring atom names of residue and whether it is aromatic.
func RingAtoms(residue string) (Set, bool) {
	s, ok := ringAtoms[residue]
	return s, ok
}

// ─────────────────────────────────────────────────────────────────────────────
// Physicochemical descriptors
// ─────────────────────────────────────────────────────────────────────────────

// isoelectricPoints are the textbook pI values of the free amino acids.
var isoelectricPoints = map[string]float64{
	"ALA": 6.00, "ARG": 10.76, "ASN": 5.41, "ASP": 2.77, "CYS": 5.07,
	"GLN": 5.65, "GLU": 3.22, "GLY": 5.97, "HIS": 7.59, "ILE": 6.02,
	"LEU": 5.98, "LYS": 9.74, "MET": 5.74, "PHE": 5.48, "PRO": 6.30,
	"SER": 5.68, "THR": 5.60, "TRP": 5.89, "TYR": 5.66, "VAL": 5.96,
}

// molecularWeights are the monoisotopic-average weights of the free amino
// acids in g/mol.
var molecularWeights = map[string]float64{
	"ALA": 89.09, "ARG": 174.20, "ASN": 132.12, "ASP": 133.10, "CYS": 121.16,
	"GLN": 146.15, "GLU": 147.13, "GLY": 75.07, "HIS": 155.16, "ILE": 131.17,
	"LEU": 131.17, "LYS": 146.19, "MET": 149.21, "PHE": 165.19, "PRO": 115.13,
	"SER": 105.09, "THR": 119.12, "TRP": 204.23, "TYR": 181.19, "VAL": 117.15,
}

// IsoelectricPoint returns the pI of residue.
func IsoelectricPoint(residue string) (float64, bool) {
	v, ok := isoelectricPoints[residue]
	return v, ok
}

// MolecularWeight returns the molecular weight of residue.
func MolecularWeight(residue string) (float64, bool) {
	v, ok := molecularWeights[residue]
	return v, ok
}
