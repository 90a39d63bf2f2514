// Package features derives fixed-width numeric vectors for the nodes and edges
// of a finished residue graph.
package features

import (
	"gonum.org/v1/gonum/stat"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/pkg/errors"
	"github.com/turtacn/proteingraph/pkg/types/protein"
)

// Node vector layout.
const (
	identityBins   = protein.AlphabetSize
	descriptorBins = 4 // pI, molecular weight, degree, summed neighbour distance
	bondBins       = graph.VocabularySize

	// NodeWidth is the length of every node feature vector.
	NodeWidth = identityBins + descriptorBins + bondBins

	// EdgeWidth is the length of every edge feature vector.
	EdgeWidth = bondBins
)

// EncodeBonds returns the multi-hot vector of kinds in vocabulary order.
func EncodeBonds(kinds graph.KindSet) []float64 {
	out := make([]float64, bondBins)
	for _, k := range kinds.Kinds() {
		out[k] = 1.0
	}
	return out
}

// Encoder computes node and edge vectors. Isoelectric point and molecular
// weight are z-scored over the canonical alphabet.
type Encoder struct {
	pI     map[string]float64
	weight map[string]float64
	logger logging.Logger
}

// NewEncoder builds the standardised descriptor tables.
func NewEncoder(logger logging.Logger) *Encoder {
	return &Encoder{
		pI:     standardise(protein.IsoelectricPoint),
		weight: standardise(protein.MolecularWeight),
		logger: logging.OrDefault(logger),
	}
}

func standardise(lookup func(string) (float64, bool)) map[string]float64 {
	names := protein.Alphabet()
	raw := make([]float64, len(names))
	for i, n := range names {
		raw[i], _ = lookup(n)
	}
	mean, std := stat.MeanStdDev(raw, nil)
	out := make(map[string]float64, len(names))
	for i, n := range names {
		out[n] = stat.StdScore(raw[i], mean, std)
	}
	return out
}

// PI returns the standardised isoelectric point of residue.
func (e *Encoder) PI(residue string) (float64, bool) {
	v, ok := e.pI[residue]
	return v, ok
}

// Weight returns the standardised molecular weight of residue.
func (e *Encoder) Weight(residue string) (float64, bool) {
	v, ok := e.weight[residue]
	return v, ok
}

// EncodeNode computes the vector of node id without storing it. A residue
// outside the canonical alphabet is a classification error.
func (e *Encoder) EncodeNode(g *graph.Graph, id string) ([]float64, error) {
	n, err := g.Node(id)
	if err != nil {
		return nil, err
	}
	idx := protein.AlphabetIndex(n.ResidueName)
	if idx < 0 {
		return nil, errors.New(errors.ErrCodeNonCanonicalResidue, "residue is outside the canonical alphabet").
			WithDetailf("node=%s residue=%s", id, n.ResidueName)
	}
	neighbours, err := g.Neighbors(id)
	if err != nil {
		return nil, err
	}
	incident, err := g.IncidentKinds(id)
	if err != nil {
		return nil, err
	}

	features := make([]float64, NodeWidth)
	offset := 0

	// Residue identity one-hot
	features[offset+idx] = 1.0
	offset += identityBins

	features[offset] = e.pI[n.ResidueName]
	offset++
	features[offset] = e.weight[n.ResidueName]
	offset++
	features[offset] = float64(len(neighbours))
	offset++

	var sum float64
	for _, nb := range neighbours {
		other, err := g.Node(nb)
		if err != nil {
			return nil, err
		}
		sum += geometry.Euclidean(n.Position, other.Position)
	}
	features[offset] = sum
	offset++

	// Union of incident bond kinds
	copy(features[offset:], EncodeBonds(incident))
	return features, nil
}

// EncodeEdge computes the vector of edge a-b without storing it.
func (e *Encoder) EncodeEdge(g *graph.Graph, a, b string) ([]float64, error) {
	edge, err := g.Edge(a, b)
	if err != nil {
		return nil, err
	}
	return EncodeBonds(edge.Kinds), nil
}

// EncodeAll stores vectors on every edge and every node of g. Nodes that fail
// to encode are skipped and their errors joined; every other node is still
// encoded.
func (e *Encoder) EncodeAll(g *graph.Graph) error {
	for _, edge := range g.Edges() {
		if err := g.SetEdgeFeatures(edge.Key.U, edge.Key.V, EncodeBonds(edge.Kinds)); err != nil {
			return err
		}
	}

	var errs []error
	for _, n := range g.Nodes() {
		v, err := e.EncodeNode(g, n.ID)
		if err != nil {
			e.logger.Warn("node not encoded", logging.Node(n.ID), logging.Err(err))
			errs = append(errs, err)
			continue
		}
		if err := g.SetNodeFeatures(n.ID, v); err != nil {
			return err
		}
	}
	return errors.Join(errs...)
}
