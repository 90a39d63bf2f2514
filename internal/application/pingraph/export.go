package pingraph

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/pkg/errors"
)

// Format is a document encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(s string) (Format, error) {
	switch s {
	case "json", "":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.InvalidParam("unsupported document format").WithDetail(s)
}

// Export writes doc to w.
func Export(w io.Writer, doc *graph.Document, format Format) error {
	switch format {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encode json document")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(doc); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "encode yaml document")
		}
		return enc.Close()
	}
	return errors.InvalidParam("unsupported document format").WithDetail(string(format))
}

// ExportMatrix writes the node or edge feature matrix of g as CSV. The first
// column holds the node id, or the "u-v" edge key.
func ExportMatrix(w io.Writer, g *graph.Graph, kind string) error {
	m, err := g.FeatureDense(kind)
	if errors.IsCode(err, errors.ErrCodeEmptySubset) {
		return nil
	}
	if err != nil {
		return err
	}
	var ids []string
	if kind == graph.FeatureKindNode {
		for _, n := range g.Nodes() {
			ids = append(ids, n.ID)
		}
	} else {
		for _, e := range g.Edges() {
			ids = append(ids, e.Key.String())
		}
	}

	cw := csv.NewWriter(w)
	rows, _ := m.Dims()
	for i := 0; i < rows; i++ {
		row := m.RawRowView(i)
		rec := make([]string, 0, len(row)+1)
		rec = append(rec, ids[i])
		for _, v := range row {
			rec = append(rec, strconv.FormatFloat(v, 'g', -1, 64))
		}
		if err := cw.Write(rec); err != nil {
			return errors.Wrap(err, errors.ErrCodeSerialization, "write feature row")
		}
	}
	cw.Flush()
	return cw.Error()
}
