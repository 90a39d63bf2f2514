// Package pingraph builds residue interaction graphs from atom tables and
// hands the results to the configured cache and persistence sinks.
package pingraph

import (
	"context"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/domain/structure"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/internal/intelligence/features"
	"github.com/turtacn/proteingraph/internal/intelligence/interaction"
	"github.com/turtacn/proteingraph/pkg/errors"
)

// Cache stores finished documents by key. GetOrBuild runs build on a miss and
// stores its result; concurrent misses on one key share a single build.
type Cache interface {
	GetOrBuild(ctx context.Context, key string, build func(context.Context) (*graph.Document, error)) (*graph.Document, error)
}

// Metrics records build-level measurements. *prometheus.GraphMetrics
// satisfies it.
type Metrics interface {
	interaction.Observer
	RecordGraph(nodes, edges int, counts map[string]int)
	RecordBuild(d time.Duration, err error)
	RecordCacheAccess(cache string, hit bool)
	RecordSink(sink string, d time.Duration, err error)
}

// Config selects the detectors and input handling of a Service.
type Config struct {
	Detectors        []string
	Delaunay         bool
	Parallel         bool
	DropNonCanonical bool
	CationResidues   []string
	PiResidues       []string
}

// Option configures a Service.
type Option func(*Service)

// WithLogger injects a logger.
func WithLogger(l logging.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithMetrics injects a metrics recorder.
func WithMetrics(m Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithCache enables the document cache.
func WithCache(c Cache) Option {
	return func(s *Service) { s.cache = c }
}

// WithRepository enables the graph-store sink.
func WithRepository(r graph.Repository) Option {
	return func(s *Service) { s.repo = r }
}

// WithArtifactStore enables the object-storage sink.
func WithArtifactStore(a graph.ArtifactStore) Option {
	return func(s *Service) { s.artifacts = a }
}

// WithClock overrides the time source used for document timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// Result is the outcome of one build.
type Result struct {
	RunID       string
	Digest      string
	Graph       *graph.Graph
	Document    *graph.Document
	Report      *interaction.Report // nil when served from cache
	ArtifactKey string
	Cached      bool
}

// Service builds residue graphs.
type Service struct {
	cfg       Config
	engine    *interaction.Engine
	encoder   *features.Encoder
	settings  string
	logger    logging.Logger
	metrics   Metrics
	cache     Cache
	repo      graph.Repository
	artifacts graph.ArtifactStore
	now       func() time.Time
}

// NewService resolves the configured detectors and wires the optional
// collaborators.
func NewService(cfg Config, opts ...Option) (*Service, error) {
	s := &Service{
		cfg:    cfg,
		logger: logging.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	names := cfg.Detectors
	if len(names) == 0 {
		names = interaction.DefaultDetectors
	}
	if cfg.Delaunay {
		names = append(append([]string(nil), names...), graph.Delaunay.String())
	}
	detectors, err := interaction.Build(names, interaction.RegistryOptions{
		CationResidues: cfg.CationResidues,
		PiResidues:     cfg.PiResidues,
	})
	if err != nil {
		return nil, err
	}

	engineOpts := []interaction.EngineOption{
		interaction.WithParallel(cfg.Parallel),
		interaction.WithLogger(s.logger.Named("engine")),
	}
	if s.metrics != nil {
		engineOpts = append(engineOpts, interaction.WithObserver(s.metrics))
	}
	s.engine = interaction.NewEngine(detectors, engineOpts...)
	s.encoder = features.NewEncoder(s.logger.Named("features"))
	s.settings = fingerprint(
		strings.Join(s.engine.Detectors(), ","),
		strconv.FormatBool(cfg.DropNonCanonical),
		strings.Join(cfg.CationResidues, ","),
		strings.Join(cfg.PiResidues, ","),
	)
	return s, nil
}

// Detectors returns the detector names in run order.
func (s *Service) Detectors() []string { return s.engine.Detectors() }

// BuildFromFile reads a PDB file (optionally gzipped) or an atom-table CSV
// and builds its graph.
func (s *Service) BuildFromFile(ctx context.Context, path string) (*Result, error) {
	var (
		table *structure.AtomTable
		err   error
	)
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		table, err = structure.ReadCSVFile(path)
	} else {
		table, err = structure.ReadPDBFile(path)
	}
	if err != nil {
		return nil, err
	}
	return s.Build(ctx, table, path)
}

// Build turns table into an encoded residue graph. source is recorded on the
// document only.
func (s *Service) Build(ctx context.Context, table *structure.AtomTable, source string) (res *Result, err error) {
	start := time.Now()
	runID := uuid.NewString()
	log := s.logger.With(logging.RunID(runID))
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordBuild(time.Since(start), err)
		}
	}()

	if err := table.Validate(); err != nil {
		return nil, err
	}
	digest := Digest(table)
	log = log.With(logging.Digest(digest))
	cacheKey := digest + "-" + s.settings

	if s.cache == nil {
		return s.build(ctx, log, table, runID, digest, source, start)
	}

	var fresh *Result
	doc, err := s.cache.GetOrBuild(ctx, cacheKey, func(ctx context.Context) (*graph.Document, error) {
		built, err := s.build(ctx, log, table, runID, digest, source, start)
		if err != nil {
			return nil, err
		}
		fresh = built
		return built.Document, nil
	})
	if err != nil {
		return nil, err
	}
	if s.metrics != nil {
		s.metrics.RecordCacheAccess("graph", fresh == nil)
	}
	if fresh != nil {
		return fresh, nil
	}

	g, err := doc.Graph()
	if err != nil {
		return nil, err
	}
	log.Info("graph served from cache", logging.String("cached_run_id", doc.RunID))
	return &Result{RunID: doc.RunID, Digest: digest, Graph: g, Document: doc, Cached: true}, nil
}

// build runs the detectors and the encoder over table and hands the document
// to the persistence sinks.
func (s *Service) build(ctx context.Context, log logging.Logger, table *structure.AtomTable, runID, digest, source string, start time.Time) (*Result, error) {
	if s.cfg.DropNonCanonical {
		table = table.DropNonCanonical()
	}
	in, err := interaction.NewInput(table)
	if err != nil {
		return nil, err
	}
	g, err := s.nodes(in, log)
	if err != nil {
		return nil, err
	}
	report, err := s.engine.Run(ctx, g, in)
	if err != nil {
		return nil, err
	}
	if err := s.encoder.EncodeAll(g); err != nil {
		return nil, err
	}

	doc := graph.NewDocument(g)
	doc.RunID = runID
	doc.Digest = digest
	doc.Source = source
	doc.CreatedAt = s.now().UTC()

	counts := make(map[string]int)
	for kind, n := range g.KindCounts() {
		counts[kind.String()] = n
	}
	if s.metrics != nil {
		s.metrics.RecordGraph(g.NumNodes(), g.NumEdges(), counts)
	}

	res := &Result{RunID: runID, Digest: digest, Graph: g, Document: doc, Report: report}
	if err := s.sink(ctx, log, res); err != nil {
		return nil, err
	}

	log.Info("graph built",
		logging.Int("nodes", g.NumNodes()),
		logging.Int("edges", g.NumEdges()),
		logging.Int("backbone", report.Backbone),
		logging.Duration("elapsed", time.Since(start)))
	return res, nil
}

// nodes creates one node per residue. Residues without a Cα sit at the mean
// of their atoms.
func (s *Service) nodes(in *interaction.Input, log logging.Logger) (*graph.Graph, error) {
	g := graph.New()
	for _, r := range in.Index.Residues() {
		if !r.HasCA {
			log.Warn("residue has no CA atom, using atom mean",
				logging.Node(r.NodeID), logging.Int("atoms", r.AtomCount))
		}
		if err := g.AddNode(graph.Node{
			ID:            r.NodeID,
			ChainID:       r.ChainID,
			ResidueNumber: r.Number,
			ResidueName:   r.Name,
			Position:      r.Position,
		}); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// sink writes res to the persistence sinks. Sink failures abort the build.
func (s *Service) sink(ctx context.Context, log logging.Logger, res *Result) error {
	if s.repo != nil {
		start := time.Now()
		err := s.repo.Save(ctx, res.Document)
		s.recordSink("neo4j", start, err)
		if err != nil {
			return errors.Wrap(err, errors.CodeUnknown, "save graph")
		}
	}
	if s.artifacts != nil {
		start := time.Now()
		key, err := s.artifacts.PutDocument(ctx, res.Document)
		s.recordSink("minio", start, err)
		if err != nil {
			return errors.Wrap(err, errors.CodeUnknown, "store graph document")
		}
		res.ArtifactKey = key
		log.Debug("graph document stored", logging.String("key", key))
	}
	return nil
}

func (s *Service) recordSink(name string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordSink(name, time.Since(start), err)
	}
}
