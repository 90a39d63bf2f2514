// Package graph holds the residue interaction graph: residue nodes keyed by
// node id and undirected edges carrying a non-empty set of bond kinds.
//
// The graph is not safe for concurrent mutation. Writers must be serialised by
// the caller; the interaction engine funnels every commit through one goroutine.
package graph

import (
	"sort"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
	"github.com/turtacn/proteingraph/pkg/errors"
)

// Node is a residue. Position is the Cα coordinate.
type Node struct {
	ID            string         `json:"id" yaml:"id"`
	ChainID       string         `json:"chain_id" yaml:"chain_id"`
	ResidueNumber int            `json:"residue_number" yaml:"residue_number"`
	ResidueName   string         `json:"residue_name" yaml:"residue_name"`
	Position      geometry.Point `json:"coordinates" yaml:"coordinates"`
	Features      []float64      `json:"features,omitempty" yaml:"features,omitempty"`
}

// EdgeKey is an unordered node pair normalised so that U < V.
type EdgeKey struct {
	U string `json:"u" yaml:"u"`
	V string `json:"v" yaml:"v"`
}

// NewEdgeKey normalises a pair. Self-pairs are rejected.
func NewEdgeKey(a, b string) (EdgeKey, error) {
	if a == b {
		return EdgeKey{}, errors.New(errors.ErrCodeSelfLoop, "self-loop edges are not allowed").WithDetail(a)
	}
	if b < a {
		a, b = b, a
	}
	return EdgeKey{U: a, V: b}, nil
}

// Other returns the endpoint of k that is not id.
func (k EdgeKey) Other(id string) string {
	if k.U == id {
		return k.V
	}
	return k.U
}

func (k EdgeKey) String() string { return k.U + "-" + k.V }

// Edge is an interaction between two residues.
type Edge struct {
	Key      EdgeKey   `json:"key" yaml:"key"`
	Kinds    KindSet   `json:"kind" yaml:"kind"`
	Features []float64 `json:"features,omitempty" yaml:"features,omitempty"`
}

type edgeAttr struct {
	kinds    KindSet
	features []float64
}

// Graph is the residue interaction graph.
type Graph struct {
	nodes map[string]*Node
	adj   map[string]map[string]struct{}
	edges map[EdgeKey]*edgeAttr
}

// New returns an empty graph.
func New() *Graph {
	return &Graph{
		nodes: make(map[string]*Node),
		adj:   make(map[string]map[string]struct{}),
		edges: make(map[EdgeKey]*edgeAttr),
	}
}

// AddNode inserts a residue. Node ids are unique.
func (g *Graph) AddNode(n Node) error {
	if n.ID == "" {
		return errors.InvalidParam("node id is empty")
	}
	if _, ok := g.nodes[n.ID]; ok {
		return errors.New(errors.CodeConflict, "node already exists").WithDetail(n.ID)
	}
	n.Features = nil
	g.nodes[n.ID] = &n
	g.adj[n.ID] = make(map[string]struct{})
	return nil
}

// HasNode reports whether id is a node.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Node returns a copy of node id.
func (g *Graph) Node(id string) (Node, error) {
	n, ok := g.nodes[id]
	if !ok {
		return Node{}, nodeNotFound(id)
	}
	out := *n
	out.Features = cloneFloats(n.Features)
	return out, nil
}

// NumNodes returns the number of nodes.
func (g *Graph) NumNodes() int { return len(g.nodes) }

// NumEdges returns the number of edges.
func (g *Graph) NumEdges() int { return len(g.edges) }

// AddKinds unions kinds into the edge a-b, creating it when absent. Both
// endpoints must exist. Features of the edge and its endpoints are cleared.
func (g *Graph) AddKinds(a, b string, kinds KindSet) error {
	key, err := g.key(a, b)
	if err != nil {
		return err
	}
	if !kinds.IsValid() {
		return errors.New(errors.ErrCodeUnknownBondKind, "kind set holds labels outside the vocabulary").
			WithDetail(key.String())
	}
	if kinds.IsEmpty() {
		return errors.InvalidParam("kind set is empty").WithDetail(key.String())
	}

	attr, ok := g.edges[key]
	if !ok {
		attr = &edgeAttr{}
		g.edges[key] = attr
		g.adj[key.U][key.V] = struct{}{}
		g.adj[key.V][key.U] = struct{}{}
	}
	merged := attr.kinds.Union(kinds)
	if merged != attr.kinds || !ok {
		attr.kinds = merged
		g.invalidate(key)
	}
	return nil
}

// RemoveKind strips kind from the edge a-b. An edge left without kinds is
// deleted. Removing a kind the edge does not carry is a no-op.
func (g *Graph) RemoveKind(a, b string, kind BondKind) error {
	key, err := g.key(a, b)
	if err != nil {
		return err
	}
	attr, ok := g.edges[key]
	if !ok {
		return edgeNotFound(key)
	}
	if !attr.kinds.Has(kind) {
		return nil
	}
	attr.kinds = attr.kinds.Without(kind)
	g.invalidate(key)
	if attr.kinds.IsEmpty() {
		delete(g.edges, key)
		delete(g.adj[key.U], key.V)
		delete(g.adj[key.V], key.U)
	}
	return nil
}

// HasEdge reports whether a-b is an edge.
func (g *Graph) HasEdge(a, b string) bool {
	key, err := NewEdgeKey(a, b)
	if err != nil {
		return false
	}
	_, ok := g.edges[key]
	return ok
}

// Edge returns a copy of the edge a-b.
func (g *Graph) Edge(a, b string) (Edge, error) {
	key, err := g.key(a, b)
	if err != nil {
		return Edge{}, err
	}
	attr, ok := g.edges[key]
	if !ok {
		return Edge{}, edgeNotFound(key)
	}
	return attr.edge(key), nil
}

// Neighbors returns the sorted neighbours of id.
func (g *Graph) Neighbors(id string) ([]string, error) {
	adj, ok := g.adj[id]
	if !ok {
		return nil, nodeNotFound(id)
	}
	out := make([]string, 0, len(adj))
	for n := range adj {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

// Degree returns the number of edges incident to id.
func (g *Graph) Degree(id string) (int, error) {
	adj, ok := g.adj[id]
	if !ok {
		return 0, nodeNotFound(id)
	}
	return len(adj), nil
}

// IncidentKinds returns the union of kinds over all edges incident to id.
func (g *Graph) IncidentKinds(id string) (KindSet, error) {
	adj, ok := g.adj[id]
	if !ok {
		return 0, nodeNotFound(id)
	}
	var s KindSet
	for n := range adj {
		key, _ := NewEdgeKey(id, n)
		s = s.Union(g.edges[key].kinds)
	}
	return s, nil
}

// EdgesByKind returns every edge carrying kind, ordered by key.
func (g *Graph) EdgesByKind(kind BondKind) []Edge {
	var out []Edge
	for key, attr := range g.edges {
		if attr.kinds.Has(kind) {
			out = append(out, attr.edge(key))
		}
	}
	sortEdges(out)
	return out
}

// KindCounts returns the number of edges carrying each kind.
func (g *Graph) KindCounts() map[BondKind]int {
	out := make(map[BondKind]int, VocabularySize)
	for _, attr := range g.edges {
		for _, k := range attr.kinds.Kinds() {
			out[k]++
		}
	}
	return out
}

// Nodes returns every node ordered by chain, residue number and id.
func (g *Graph) Nodes() []Node {
	out := make([]Node, 0, len(g.nodes))
	for _, n := range g.nodes {
		c := *n
		c.Features = cloneFloats(n.Features)
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.ChainID != b.ChainID {
			return a.ChainID < b.ChainID
		}
		if a.ResidueNumber != b.ResidueNumber {
			return a.ResidueNumber < b.ResidueNumber
		}
		return a.ID < b.ID
	})
	return out
}

// Edges returns every edge ordered by key.
func (g *Graph) Edges() []Edge {
	out := make([]Edge, 0, len(g.edges))
	for key, attr := range g.edges {
		out = append(out, attr.edge(key))
	}
	sortEdges(out)
	return out
}

// SetNodeFeatures stores the feature vector of id.
func (g *Graph) SetNodeFeatures(id string, features []float64) error {
	n, ok := g.nodes[id]
	if !ok {
		return nodeNotFound(id)
	}
	n.Features = cloneFloats(features)
	return nil
}

// SetEdgeFeatures stores the feature vector of the edge a-b.
func (g *Graph) SetEdgeFeatures(a, b string, features []float64) error {
	key, err := g.key(a, b)
	if err != nil {
		return err
	}
	attr, ok := g.edges[key]
	if !ok {
		return edgeNotFound(key)
	}
	attr.features = cloneFloats(features)
	return nil
}

// key validates both endpoints and normalises the pair.
func (g *Graph) key(a, b string) (EdgeKey, error) {
	key, err := NewEdgeKey(a, b)
	if err != nil {
		return EdgeKey{}, err
	}
	if !g.HasNode(a) {
		return EdgeKey{}, nodeNotFound(a)
	}
	if !g.HasNode(b) {
		return EdgeKey{}, nodeNotFound(b)
	}
	return key, nil
}

// invalidate drops the features that depend on the edge key.
func (g *Graph) invalidate(key EdgeKey) {
	if attr, ok := g.edges[key]; ok {
		attr.features = nil
	}
	g.nodes[key.U].Features = nil
	g.nodes[key.V].Features = nil
}

func (a *edgeAttr) edge(key EdgeKey) Edge {
	return Edge{Key: key, Kinds: a.kinds, Features: cloneFloats(a.features)}
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Key.U != edges[j].Key.U {
			return edges[i].Key.U < edges[j].Key.U
		}
		return edges[i].Key.V < edges[j].Key.V
	})
}

func cloneFloats(v []float64) []float64 {
	if v == nil {
		return nil
	}
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

func nodeNotFound(id string) error {
	return errors.New(errors.ErrCodeNodeNotFound, "node not found").WithDetail(id)
}

func edgeNotFound(key EdgeKey) error {
	return errors.New(errors.ErrCodeEdgeNotFound, "edge not found").WithDetail(key.String())
}
