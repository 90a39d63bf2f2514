// Package repositories persists residue graphs in Neo4j. Every build becomes
// one (:GraphRun) node linked to its (:Residue) nodes; residue pairs are
// joined by a single [:INTERACTS] relationship that carries the bond labels.
package repositories

import (
	"context"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"

	"github.com/turtacn/proteingraph/internal/domain/graph"
	driver "github.com/turtacn/proteingraph/internal/infrastructure/database/neo4j"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/pkg/errors"
)

const defaultBatchSize = 500

const (
	mergeRunQuery = `
		MERGE (r:GraphRun {run_id: $runId})
		SET r.digest = $digest, r.source = $source, r.created_at = datetime($createdAt),
		    r.vocabulary = $vocabulary, r.nodes = $nodeCount, r.edges = $edgeCount
	`
	mergeResiduesQuery = `
		UNWIND $batch AS row
		MATCH (r:GraphRun {run_id: $runId})
		MERGE (n:Residue {run_id: $runId, node_id: row.id})
		SET n.chain_id = row.chain_id, n.residue_number = row.residue_number,
		    n.residue_name = row.residue_name, n.x = row.x, n.y = row.y, n.z = row.z,
		    n.features = row.features
		MERGE (r)-[:HAS_RESIDUE]->(n)
	`
	mergeInteractionsQuery = `
		UNWIND $batch AS row
		MATCH (a:Residue {run_id: $runId, node_id: row.u})
		MATCH (b:Residue {run_id: $runId, node_id: row.v})
		MERGE (a)-[i:INTERACTS]->(b)
		SET i.kinds = row.kinds, i.features = row.features
	`
	deleteRunQuery = `
		MATCH (r:GraphRun {run_id: $runId})
		OPTIONAL MATCH (r)-[:HAS_RESIDUE]->(n:Residue)
		DETACH DELETE n, r
		RETURN count(DISTINCT r) AS deleted
	`
	countEdgesQuery = `
		MATCH (:Residue {run_id: $runId})-[i:INTERACTS]->(:Residue)
		RETURN count(i) AS edges
	`
	kindCountsQuery = `
		MATCH (:Residue {run_id: $runId})-[i:INTERACTS]->(:Residue)
		UNWIND i.kinds AS kind
		RETURN kind, count(*) AS edges
		ORDER BY kind
	`
)

// ResidueGraphRepo implements graph.Repository on Neo4j.
type ResidueGraphRepo struct {
	driver    driver.Executor
	log       logging.Logger
	batchSize int
}

var _ graph.Repository = (*ResidueGraphRepo)(nil)

type RepoOption func(*ResidueGraphRepo)

// WithBatchSize bounds the number of rows sent per UNWIND statement.
func WithBatchSize(n int) RepoOption {
	return func(r *ResidueGraphRepo) {
		if n > 0 {
			r.batchSize = n
		}
	}
}

func NewResidueGraphRepo(d driver.Executor, log logging.Logger, opts ...RepoOption) *ResidueGraphRepo {
	r := &ResidueGraphRepo{driver: d, log: logging.OrDefault(log), batchSize: defaultBatchSize}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Save writes doc in a single transaction. Saving the same run twice
// overwrites its properties without duplicating nodes or relationships.
func (r *ResidueGraphRepo) Save(ctx context.Context, doc *graph.Document) error {
	if doc == nil || doc.RunID == "" {
		return errors.InvalidParam("graph document needs a run id")
	}
	nodes := residueRows(doc.Nodes)
	edges := interactionRows(doc.Edges)

	_, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		if _, err := tx.Run(ctx, mergeRunQuery, map[string]any{
			"runId":      doc.RunID,
			"digest":     doc.Digest,
			"source":     doc.Source,
			"createdAt":  doc.CreatedAt.UTC().Format(time.RFC3339Nano),
			"vocabulary": doc.Vocabulary,
			"nodeCount":  len(doc.Nodes),
			"edgeCount":  len(doc.Edges),
		}); err != nil {
			return nil, err
		}
		if err := r.runBatches(ctx, tx, mergeResiduesQuery, doc.RunID, nodes); err != nil {
			return nil, err
		}
		return nil, r.runBatches(ctx, tx, mergeInteractionsQuery, doc.RunID, edges)
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to save residue graph")
	}
	r.log.Debug("residue graph saved",
		logging.RunID(doc.RunID),
		logging.Int("nodes", len(nodes)),
		logging.Int("edges", len(edges)))
	return nil
}

func (r *ResidueGraphRepo) runBatches(ctx context.Context, tx driver.Transaction, query, runID string, rows []map[string]any) error {
	for start := 0; start < len(rows); start += r.batchSize {
		end := start + r.batchSize
		if end > len(rows) {
			end = len(rows)
		}
		if _, err := tx.Run(ctx, query, map[string]any{"runId": runID, "batch": rows[start:end]}); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes the run and all of its residues.
func (r *ResidueGraphRepo) Delete(ctx context.Context, runID string) error {
	v, err := r.driver.ExecuteWrite(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, deleteRunQuery, map[string]any{"runId": runID})
		if err != nil {
			return nil, err
		}
		return driver.ExtractSingleRecord(ctx, res, int64Value("deleted"))
	})
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to delete residue graph")
	}
	if v.(int64) == 0 {
		return errors.NotFound("residue graph not found").WithDetail(runID)
	}
	return nil
}

// CountEdges returns the number of residue pairs stored for the run.
func (r *ResidueGraphRepo) CountEdges(ctx context.Context, runID string) (int64, error) {
	v, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, countEdgesQuery, map[string]any{"runId": runID})
		if err != nil {
			return nil, err
		}
		return driver.ExtractSingleRecord(ctx, res, int64Value("edges"))
	})
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count residue graph edges")
	}
	return v.(int64), nil
}

// KindCount is the number of stored edges carrying one bond label.
type KindCount struct {
	Kind  string `json:"kind"`
	Edges int64  `json:"edges"`
}

// KindCounts returns the per-label edge counts of the run, ordered by label.
func (r *ResidueGraphRepo) KindCounts(ctx context.Context, runID string) ([]KindCount, error) {
	v, err := r.driver.ExecuteRead(ctx, func(tx driver.Transaction) (any, error) {
		res, err := tx.Run(ctx, kindCountsQuery, map[string]any{"runId": runID})
		if err != nil {
			return nil, err
		}
		return driver.CollectRecords(ctx, res, func(rec *neo4j.Record) (KindCount, error) {
			kind, _ := rec.Get("kind")
			n, err := int64Value("edges")(rec)
			if err != nil {
				return KindCount{}, err
			}
			s, _ := kind.(string)
			return KindCount{Kind: s, Edges: n}, nil
		})
	})
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeDatabaseError, "failed to count residue graph kinds")
	}
	counts, _ := v.([]KindCount)
	return counts, nil
}

func int64Value(key string) func(*neo4j.Record) (int64, error) {
	return func(rec *neo4j.Record) (int64, error) {
		v, ok := rec.Get(key)
		if !ok {
			return 0, errors.Internal("record has no " + key + " column")
		}
		n, ok := v.(int64)
		if !ok {
			return 0, errors.Internal("record column " + key + " is not an integer")
		}
		return n, nil
	}
}

func residueRows(nodes []graph.Node) []map[string]any {
	rows := make([]map[string]any, 0, len(nodes))
	for _, n := range nodes {
		rows = append(rows, map[string]any{
			"id":             n.ID,
			"chain_id":       n.ChainID,
			"residue_number": int64(n.ResidueNumber),
			"residue_name":   n.ResidueName,
			"x":              n.Position.X,
			"y":              n.Position.Y,
			"z":              n.Position.Z,
			"features":       n.Features,
		})
	}
	return rows
}

func interactionRows(edges []graph.Edge) []map[string]any {
	rows := make([]map[string]any, 0, len(edges))
	for _, e := range edges {
		rows = append(rows, map[string]any{
			"u":        e.Key.U,
			"v":        e.Key.V,
			"kinds":    e.Kinds.Strings(),
			"features": e.Features,
		})
	}
	return rows
}
