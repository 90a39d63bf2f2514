// Package structure models the flat atom table a protein structure is read
// into, the column filters the detectors are built from, and the per-chain
// residue index used for backbone adjacency.
package structure

import (
	"strconv"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
	"github.com/turtacn/proteingraph/pkg/errors"
	"github.com/turtacn/proteingraph/pkg/types/protein"
)

// Record types.
const (
	RecordATOM   = "ATOM"
	RecordHETATM = "HETATM"
)

// Column names a string-valued atom attribute.
type Column string

// Filterable columns.
const (
	ColumnRecordType    Column = "record_name"
	ColumnAtomName      Column = "atom_name"
	ColumnResidueName   Column = "residue_name"
	ColumnChainID       Column = "chain_id"
	ColumnResidueNumber Column = "residue_number"
	ColumnNodeID        Column = "node_id"
	ColumnX             Column = "x_coord"
	ColumnY             Column = "y_coord"
	ColumnZ             Column = "z_coord"
)

// RequiredColumns lists the columns every atom table must provide.
var RequiredColumns = []Column{
	ColumnRecordType, ColumnAtomName, ColumnResidueName, ColumnChainID,
	ColumnResidueNumber, ColumnX, ColumnY, ColumnZ,
}

// AtomRecord is one row of the atom table.
type AtomRecord struct {
	RecordType    string  `json:"record_name"`
	AtomName      string  `json:"atom_name"`
	ResidueName   string  `json:"residue_name"`
	ChainID       string  `json:"chain_id"`
	ResidueNumber int     `json:"residue_number"`
	X             float64 `json:"x_coord"`
	Y             float64 `json:"y_coord"`
	Z             float64 `json:"z_coord"`
	NodeID        string  `json:"node_id"`
}

// NodeID derives the residue identifier chain ⧺ number ⧺ residue name, for
// example "A12ARG".
func NodeID(chainID string, residueNumber int, residueName string) string {
	return chainID + strconv.Itoa(residueNumber) + residueName
}

// Position returns the atom coordinates.
func (a AtomRecord) Position() geometry.Point {
	return geometry.Point{X: a.X, Y: a.Y, Z: a.Z}
}

func (a AtomRecord) value(c Column) (string, bool) {
	switch c {
	case ColumnRecordType:
		return a.RecordType, true
	case ColumnAtomName:
		return a.AtomName, true
	case ColumnResidueName:
		return a.ResidueName, true
	case ColumnChainID:
		return a.ChainID, true
	case ColumnResidueNumber:
		return strconv.Itoa(a.ResidueNumber), true
	case ColumnNodeID:
		return a.NodeID, true
	}
	return "", false
}

// AtomTable is an ordered, immutable collection of atom records.
type AtomTable struct {
	atoms []AtomRecord
}

// NewAtomTable copies records into a table, deriving NodeID where absent.
func NewAtomTable(records []AtomRecord) *AtomTable {
	atoms := make([]AtomRecord, len(records))
	copy(atoms, records)
	for i := range atoms {
		if atoms[i].NodeID == "" {
			atoms[i].NodeID = NodeID(atoms[i].ChainID, atoms[i].ResidueNumber, atoms[i].ResidueName)
		}
	}
	return &AtomTable{atoms: atoms}
}

// Len returns the number of rows.
func (t *AtomTable) Len() int { return len(t.atoms) }

// At returns row i.
func (t *AtomTable) At(i int) AtomRecord { return t.atoms[i] }

// Atoms returns a copy of all rows.
func (t *AtomTable) Atoms() []AtomRecord {
	out := make([]AtomRecord, len(t.atoms))
	copy(out, t.atoms)
	return out
}

// Points returns the coordinates of every row, aligned to row indices.
func (t *AtomTable) Points() []geometry.Point {
	out := make([]geometry.Point, len(t.atoms))
	for i, a := range t.atoms {
		out[i] = a.Position()
	}
	return out
}

// Validate checks that the table is non-empty and that every row carries the
// identity columns the detectors key on.
func (t *AtomTable) Validate() error {
	if len(t.atoms) == 0 {
		return errors.New(errors.ErrCodeEmptySubset, "atom table is empty")
	}
	for i, a := range t.atoms {
		var missing Column
		switch {
		case a.RecordType == "":
			missing = ColumnRecordType
		case a.AtomName == "":
			missing = ColumnAtomName
		case a.ResidueName == "":
			missing = ColumnResidueName
		}
		if missing != "" {
			return errors.New(errors.ErrCodeMissingColumn, "atom record is missing a value").
				WithDetailf("row=%d column=%s", i, missing)
		}
	}
	return nil
}

// Filter keeps (keep=true) or drops (keep=false) rows whose column value is in
// values. Only string-valued columns can be filtered; any other column is an
// input-shape error.
func (t *AtomTable) Filter(column Column, values protein.Set, keep bool) (*AtomTable, error) {
	if _, ok := (AtomRecord{}).value(column); !ok {
		return nil, errors.New(errors.ErrCodeMissingColumn, "column cannot be filtered").
			WithDetail(string(column))
	}
	return t.where(func(a AtomRecord) bool {
		v, _ := a.value(column)
		return values.Has(v) == keep
	}), nil
}

func (t *AtomTable) where(pred func(AtomRecord) bool) *AtomTable {
	out := make([]AtomRecord, 0, len(t.atoms))
	for _, a := range t.atoms {
		if pred(a) {
			out = append(out, a)
		}
	}
	return &AtomTable{atoms: out}
}

// OnlyATOM drops HETATM and any other non-ATOM rows.
func (t *AtomTable) OnlyATOM() *AtomTable {
	return t.where(func(a AtomRecord) bool { return a.RecordType == RecordATOM })
}

// RGroup drops the backbone atoms, leaving side chains.
func (t *AtomTable) RGroup() *AtomTable {
	return t.where(func(a AtomRecord) bool { return !protein.BackboneAtoms.Has(a.AtomName) })
}

// DropNonCanonical drops rows whose residue is outside the canonical alphabet.
func (t *AtomTable) DropNonCanonical() *AtomTable {
	return t.where(func(a AtomRecord) bool { return protein.IsCanonical(a.ResidueName) })
}
