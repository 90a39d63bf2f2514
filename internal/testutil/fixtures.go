package testutil

import (
	"fmt"
	"sort"
	"strings"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
	"github.com/turtacn/proteingraph/internal/domain/structure"
)

// StructureBuilder assembles synthetic atom tables for tests.
type StructureBuilder struct {
	atoms []structure.AtomRecord
}

// NewStructure returns an empty builder.
func NewStructure() *StructureBuilder {
	return &StructureBuilder{}
}

// Atom appends one ATOM row.
func (b *StructureBuilder) Atom(chain string, num int, residue, name string, p geometry.Point) *StructureBuilder {
	return b.record(structure.RecordATOM, chain, num, residue, name, p)
}

// Het appends one HETATM row.
func (b *StructureBuilder) Het(chain string, num int, residue, name string, p geometry.Point) *StructureBuilder {
	return b.record(structure.RecordHETATM, chain, num, residue, name, p)
}

func (b *StructureBuilder) record(rec, chain string, num int, residue, name string, p geometry.Point) *StructureBuilder {
	b.atoms = append(b.atoms, structure.AtomRecord{
		RecordType:    rec,
		AtomName:      name,
		ResidueName:   residue,
		ChainID:       chain,
		ResidueNumber: num,
		X:             p.X,
		Y:             p.Y,
		Z:             p.Z,
	})
	return b
}

// Residue appends the backbone N, CA, C and O atoms around ca followed by the
// given side-chain atoms. Backbone atoms sit within 1.5 Å of ca.
func (b *StructureBuilder) Residue(chain string, num int, residue string, ca geometry.Point, side map[string]geometry.Point) *StructureBuilder {
	b.Atom(chain, num, residue, "N", ca.Add(geometry.Point{X: -1.2, Y: 0.6}))
	b.Atom(chain, num, residue, "CA", ca)
	b.Atom(chain, num, residue, "C", ca.Add(geometry.Point{X: 1.2, Y: 0.6}))
	b.Atom(chain, num, residue, "O", ca.Add(geometry.Point{X: 1.3, Y: 1.4}))
	for _, name := range sortedKeys(side) {
		b.Atom(chain, num, residue, name, side[name])
	}
	return b
}

// Records returns the rows added so far.
func (b *StructureBuilder) Records() []structure.AtomRecord {
	out := make([]structure.AtomRecord, len(b.atoms))
	copy(out, b.atoms)
	return out
}

// Table builds the atom table.
func (b *StructureBuilder) Table() *structure.AtomTable {
	return structure.NewAtomTable(b.atoms)
}

// PDB renders the rows as fixed-column PDB text terminated by END.
func (b *StructureBuilder) PDB() string {
	var sb strings.Builder
	for i, a := range b.atoms {
		name := a.AtomName
		if len(name) < 4 {
			name = " " + name
		}
		fmt.Fprintf(&sb, "%-6s%5d %-4s %3s %1s%4d    %8.3f%8.3f%8.3f  1.00  0.00\n",
			a.RecordType, i+1, name, a.ResidueName, a.ChainID, a.ResidueNumber, a.X, a.Y, a.Z)
	}
	sb.WriteString("END\n")
	return sb.String()
}

// Ring returns six points on a regular hexagon of radius 1.39 Å centred on c
// in the plane z = c.Z, keyed by the benzene ring atom names.
func Ring(c geometry.Point) map[string]geometry.Point {
	names := []string{"CG", "CD1", "CE1", "CZ", "CE2", "CD2"}
	offsets := []geometry.Point{
		{X: 1.39}, {X: 0.695, Y: 1.204}, {X: -0.695, Y: 1.204},
		{X: -1.39}, {X: -0.695, Y: -1.204}, {X: 0.695, Y: -1.204},
	}
	out := make(map[string]geometry.Point, len(names))
	for i, n := range names {
		out[n] = c.Add(offsets[i])
	}
	return out
}

func sortedKeys(m map[string]geometry.Point) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
