package graph

import (
	"context"
	"time"
)

// Document is the serialisable view of a finished graph. Kind sets are
// emitted as vocabulary-ordered label lists.
type Document struct {
	RunID      string    `json:"run_id" yaml:"run_id"`
	Digest     string    `json:"digest" yaml:"digest"`
	Source     string    `json:"source,omitempty" yaml:"source,omitempty"`
	CreatedAt  time.Time `json:"created_at" yaml:"created_at"`
	Vocabulary []string  `json:"vocabulary" yaml:"vocabulary"`
	Nodes      []Node    `json:"nodes" yaml:"nodes"`
	Edges      []Edge    `json:"edges" yaml:"edges"`
}

// NewDocument snapshots g.
func NewDocument(g *Graph) *Document {
	vocab := make([]string, VocabularySize)
	for i, k := range Vocabulary() {
		vocab[i] = k.String()
	}
	return &Document{
		Vocabulary: vocab,
		Nodes:      g.Nodes(),
		Edges:      g.Edges(),
	}
}

// Graph rebuilds a graph from the document.
func (d *Document) Graph() (*Graph, error) {
	g := New()
	for _, n := range d.Nodes {
		features := n.Features
		if err := g.AddNode(n); err != nil {
			return nil, err
		}
		if features != nil {
			if err := g.SetNodeFeatures(n.ID, features); err != nil {
				return nil, err
			}
		}
	}
	for _, e := range d.Edges {
		if err := g.AddKinds(e.Key.U, e.Key.V, e.Kinds); err != nil {
			return nil, err
		}
		if e.Features != nil {
			if err := g.SetEdgeFeatures(e.Key.U, e.Key.V, e.Features); err != nil {
				return nil, err
			}
		}
	}
	// Edge commits clear endpoint features; restore them once edges are final.
	for _, n := range d.Nodes {
		if n.Features != nil {
			if err := g.SetNodeFeatures(n.ID, n.Features); err != nil {
				return nil, err
			}
		}
	}
	return g, nil
}

// Repository persists residue graphs in a graph store.
type Repository interface {
	Save(ctx context.Context, doc *Document) error
	Delete(ctx context.Context, runID string) error
	CountEdges(ctx context.Context, runID string) (int64, error)
}

// ArtifactStore keeps serialised documents in object storage.
type ArtifactStore interface {
	PutDocument(ctx context.Context, doc *Document) (string, error)
	GetDocument(ctx context.Context, key string) (*Document, error)
}
