package interaction

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/pkg/errors"
)

// Observer receives one call per detector run.
type Observer interface {
	ObserveDetector(name string, d time.Duration, contributions int, err error)
}

// DetectorStat summarises one detector run.
type DetectorStat struct {
	Name          string
	Contributions int
	Duration      time.Duration
}

// Report describes a finished Engine.Run.
type Report struct {
	Backbone  int
	Detectors []DetectorStat
}

type engineConfig struct {
	parallel bool
	logger   logging.Logger
	observer Observer
}

// EngineOption configures an Engine.
type EngineOption func(*engineConfig)

// WithParallel runs detectors concurrently. Commits stay serialised.
func WithParallel(parallel bool) EngineOption {
	return func(c *engineConfig) {
		c.parallel = parallel
	}
}

// WithLogger injects a logger.
func WithLogger(l logging.Logger) EngineOption {
	return func(c *engineConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithObserver injects a per-detector observer, typically metrics.
func WithObserver(o Observer) EngineOption {
	return func(c *engineConfig) {
		c.observer = o
	}
}

// Engine runs a fixed detector list against an Input and merges the results
// into a graph.
type Engine struct {
	detectors []Detector
	cfg       engineConfig
}

// NewEngine returns an engine running detectors in the given order.
func NewEngine(detectors []Detector, opts ...EngineOption) *Engine {
	cfg := engineConfig{logger: logging.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Engine{
		detectors: append([]Detector(nil), detectors...),
		cfg:       cfg,
	}
}

// Detectors returns the detector names in run order.
func (e *Engine) Detectors() []string {
	out := make([]string, len(e.detectors))
	for i, d := range e.detectors {
		out[i] = d.Name()
	}
	return out
}

// Run adds the backbone edges and every detector's contributions to g. The
// graph must already hold a node for every residue of in.Index. Detectors may
// run concurrently, but nothing is written to g until all of them succeed;
// contributions are then committed in detector order and pruners run last.
func (e *Engine) Run(ctx context.Context, g *graph.Graph, in *Input) (*Report, error) {
	if in == nil || in.Atoms == nil || in.Atoms.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEmptySubset, "interaction input is empty")
	}
	if in.RGroup == nil || in.RGroup.Len() == 0 {
		return nil, errors.New(errors.ErrCodeEmptySubset, "interaction input has no side-chain atoms")
	}

	results := make([][]Contribution, len(e.detectors))
	stats := make([]DetectorStat, len(e.detectors))
	run := func(ctx context.Context, i int) error {
		d := e.detectors[i]
		log := e.cfg.logger.With(logging.Detector(d.Name()))
		log.Debug("detector started")
		start := time.Now()
		contribs, err := d.Detect(ctx, in)
		elapsed := time.Since(start)
		if e.cfg.observer != nil {
			e.cfg.observer.ObserveDetector(d.Name(), elapsed, len(contribs), err)
		}
		if err != nil {
			log.Error("detector failed", logging.Err(err))
			return errors.Wrap(err, errors.CodeUnknown, "detector "+d.Name()+" failed")
		}
		log.Debug("detector finished",
			logging.Int("contributions", len(contribs)),
			logging.Duration("elapsed", elapsed))
		results[i] = contribs
		stats[i] = DetectorStat{Name: d.Name(), Contributions: len(contribs), Duration: elapsed}
		return nil
	}

	if e.cfg.parallel {
		eg, egCtx := errgroup.WithContext(ctx)
		for i := range e.detectors {
			i := i
			eg.Go(func() error { return run(egCtx, i) })
		}
		if err := eg.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range e.detectors {
			if err := run(ctx, i); err != nil {
				return nil, err
			}
		}
	}

	backbone := BackboneContributions(in.Index)
	if err := Commit(g, backbone); err != nil {
		return nil, err
	}
	for _, contribs := range results {
		if err := Commit(g, contribs); err != nil {
			return nil, err
		}
	}
	for _, d := range e.detectors {
		if p, ok := d.(Pruner); ok {
			if err := p.Prune(g); err != nil {
				return nil, err
			}
		}
	}
	return &Report{Backbone: len(backbone), Detectors: stats}, nil
}

// Commit unions every contribution into g. It is the only place the engine
// writes edges.
func Commit(g *graph.Graph, contribs []Contribution) error {
	for _, c := range contribs {
		if err := g.AddKinds(c.A, c.B, c.Kinds); err != nil {
			return err
		}
	}
	return nil
}
