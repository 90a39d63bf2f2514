package structure

import (
	"bufio"
	"compress/gzip"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/turtacn/proteingraph/pkg/errors"
)

// ReadPDBFile opens a PDB file and reads its first model. Paths ending in
// ".gz" are decompressed on the fly.
func ReadPDBFile(path string) (*AtomTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePDBParseFailed, "open structure file")
	}
	defer f.Close()

	var r io.Reader = f
	if filepath.Ext(path) == ".gz" {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodePDBParseFailed, "open gzip stream")
		}
		defer gz.Close()
		r = gz
	}
	return ReadPDB(r)
}

// ReadPDB parses the ATOM and HETATM records of the first model in r using the
// fixed PDB column layout. Alternate locations other than blank or "A" are
// skipped.
func ReadPDB(r io.Reader) (*AtomTable, error) {
	var atoms []AtomRecord
	sc := bufio.NewScanner(r)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := sc.Text()
		if len(line) < 6 {
			continue
		}
		record := strings.TrimSpace(line[0:6])
		if record == "ENDMDL" {
			break
		}
		if record != RecordATOM && record != RecordHETATM {
			continue
		}
		atom, skip, err := parseAtomLine(record, line)
		if err != nil {
			return nil, errors.New(errors.ErrCodePDBParseFailed, "parse atom record").
				WithCause(err).WithDetailf("line=%d", lineNo)
		}
		if skip {
			continue
		}
		atoms = append(atoms, atom)
	}
	if err := sc.Err(); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodePDBParseFailed, "read structure")
	}

	t := NewAtomTable(atoms)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

func parseAtomLine(record, line string) (AtomRecord, bool, error) {
	if len(line) < 54 {
		return AtomRecord{}, false, errors.New(errors.ErrCodePDBParseFailed, "atom record is truncated")
	}
	if alt := line[16]; alt != ' ' && alt != 'A' {
		return AtomRecord{}, true, nil
	}

	num, err := strconv.Atoi(strings.TrimSpace(line[22:26]))
	if err != nil {
		return AtomRecord{}, false, errors.Wrap(err, errors.ErrCodePDBParseFailed, "residue number")
	}
	var xyz [3]float64
	for i := range xyz {
		field := strings.TrimSpace(line[30+8*i : 38+8*i])
		xyz[i], err = strconv.ParseFloat(field, 64)
		if err != nil {
			return AtomRecord{}, false, errors.Wrap(err, errors.ErrCodePDBParseFailed, "coordinate")
		}
	}

	return AtomRecord{
		RecordType:    record,
		AtomName:      strings.TrimSpace(line[12:16]),
		ResidueName:   strings.TrimSpace(line[17:20]),
		ChainID:       strings.TrimSpace(line[21:22]),
		ResidueNumber: num,
		X:             xyz[0],
		Y:             xyz[1],
		Z:             xyz[2],
	}, false, nil
}

// ReadCSVFile opens an atom-table CSV file.
func ReadCSVFile(path string) (*AtomTable, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMissingColumn, "open atom table")
	}
	defer f.Close()
	return ReadCSV(f)
}

// ReadCSV reads an atom table from CSV with a header row naming at least the
// RequiredColumns. A node_id column, when present, is taken as is.
func ReadCSV(r io.Reader) (*AtomTable, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeMissingColumn, "read header")
	}

	col := make(map[Column]int, len(header))
	for i, h := range header {
		col[Column(strings.TrimSpace(h))] = i
	}
	for _, c := range RequiredColumns {
		if _, ok := col[c]; !ok {
			return nil, errors.New(errors.ErrCodeMissingColumn, "atom table is missing a required column").
				WithDetail(string(c))
		}
	}
	nodeCol, hasNode := col[ColumnNodeID]

	var atoms []AtomRecord
	for row := 1; ; row++ {
		fields, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodePDBParseFailed, "read row")
		}
		a := AtomRecord{
			RecordType:  fields[col[ColumnRecordType]],
			AtomName:    fields[col[ColumnAtomName]],
			ResidueName: fields[col[ColumnResidueName]],
			ChainID:     fields[col[ColumnChainID]],
		}
		if a.ResidueNumber, err = strconv.Atoi(fields[col[ColumnResidueNumber]]); err != nil {
			return nil, errors.New(errors.ErrCodePDBParseFailed, "residue number").
				WithCause(err).WithDetailf("row=%d", row)
		}
		for c, dst := range map[Column]*float64{ColumnX: &a.X, ColumnY: &a.Y, ColumnZ: &a.Z} {
			if *dst, err = strconv.ParseFloat(fields[col[c]], 64); err != nil {
				return nil, errors.New(errors.ErrCodePDBParseFailed, "coordinate").
					WithCause(err).WithDetailf("row=%d column=%s", row, c)
			}
		}
		if hasNode {
			a.NodeID = fields[nodeCol]
		}
		atoms = append(atoms, a)
	}

	t := NewAtomTable(atoms)
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}
