package repositories

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
	"github.com/turtacn/proteingraph/internal/domain/graph"
	infraNeo4j "github.com/turtacn/proteingraph/internal/infrastructure/database/neo4j"
	"github.com/turtacn/proteingraph/internal/infrastructure/monitoring/logging"
	"github.com/turtacn/proteingraph/pkg/errors"
)

// MockInfraDriver implements infraNeo4j.Executor by running work against
// a shared mock transaction.
type MockInfraDriver struct {
	mock.Mock
	tx *MockInfraTransaction
}

func (m *MockInfraDriver) ExecuteRead(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
	m.Called(ctx)
	return work(m.tx)
}

func (m *MockInfraDriver) ExecuteWrite(ctx context.Context, work infraNeo4j.TransactionWork) (any, error) {
	m.Called(ctx)
	return work(m.tx)
}

type MockInfraTransaction struct {
	mock.Mock
}

func (m *MockInfraTransaction) Run(ctx context.Context, cypher string, params map[string]any) (infraNeo4j.Result, error) {
	args := m.Called(ctx, cypher, params)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(infraNeo4j.Result), args.Error(1)
}

// MockResult replays a fixed list of records.
type MockResult struct {
	Records []*neo4j.Record
	current *neo4j.Record
}

func (m *MockResult) Next(context.Context) bool {
	if len(m.Records) == 0 {
		return false
	}
	m.current, m.Records = m.Records[0], m.Records[1:]
	return true
}

func (m *MockResult) Record() *neo4j.Record { return m.current }
func (m *MockResult) Err() error            { return nil }

func (m *MockResult) Consume(context.Context) (neo4j.ResultSummary, error) { return nil, nil }

func NewRecord(keys []string, values ...any) *neo4j.Record {
	return &neo4j.Record{Keys: keys, Values: values}
}

type ResidueGraphRepoTestSuite struct {
	suite.Suite
	driver *MockInfraDriver
	tx     *MockInfraTransaction
	repo   *ResidueGraphRepo
}

func (s *ResidueGraphRepoTestSuite) SetupTest() {
	s.tx = new(MockInfraTransaction)
	s.driver = &MockInfraDriver{tx: s.tx}
	s.driver.On("ExecuteRead", mock.Anything)
	s.driver.On("ExecuteWrite", mock.Anything)
	s.repo = NewResidueGraphRepo(s.driver, logging.NewNopLogger(), WithBatchSize(2))
}

func (s *ResidueGraphRepoTestSuite) document() *graph.Document {
	g := graph.New()
	for i, id := range []string{"A1ARG", "A2ASP", "A3PHE"} {
		s.Require().NoError(g.AddNode(graph.Node{
			ID: id, ChainID: "A", ResidueNumber: i + 1, ResidueName: id[2:],
			Position: geometry.Point{X: float64(i)},
		}))
	}
	s.Require().NoError(g.AddKinds("A1ARG", "A2ASP", graph.NewKindSet(graph.Backbone, graph.Ionic)))
	s.Require().NoError(g.AddKinds("A2ASP", "A3PHE", graph.NewKindSet(graph.Backbone)))
	doc := graph.NewDocument(g)
	doc.RunID = "run-1"
	doc.Digest = "d1"
	doc.CreatedAt = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	return doc
}

func (s *ResidueGraphRepoTestSuite) TestSave_BatchesRowsInOneTransaction() {
	s.tx.On("Run", mock.Anything, mergeRunQuery, mock.MatchedBy(func(p map[string]any) bool {
		return p["runId"] == "run-1" && p["createdAt"] == "2024-05-06T07:08:09Z" && p["edgeCount"] == 2
	})).Return(new(MockResult), nil).Once()

	var residueBatches, edgeBatches [][]map[string]any
	s.tx.On("Run", mock.Anything, mergeResiduesQuery, mock.Anything).
		Run(func(args mock.Arguments) {
			residueBatches = append(residueBatches, args.Get(2).(map[string]any)["batch"].([]map[string]any))
		}).Return(new(MockResult), nil)
	s.tx.On("Run", mock.Anything, mergeInteractionsQuery, mock.Anything).
		Run(func(args mock.Arguments) {
			edgeBatches = append(edgeBatches, args.Get(2).(map[string]any)["batch"].([]map[string]any))
		}).Return(new(MockResult), nil)

	s.Require().NoError(s.repo.Save(context.Background(), s.document()))

	s.driver.AssertNumberOfCalls(s.T(), "ExecuteWrite", 1)
	s.Require().Len(residueBatches, 2, "3 residues in batches of 2")
	s.Len(residueBatches[0], 2)
	s.Len(residueBatches[1], 1)
	s.Equal("A3PHE", residueBatches[1][0]["id"])
	s.Equal(int64(3), residueBatches[1][0]["residue_number"])

	s.Require().Len(edgeBatches, 1)
	s.Equal([]string{"backbone", "ionic"}, edgeBatches[0][0]["kinds"])
	s.Equal("A1ARG", edgeBatches[0][0]["u"])
	s.Equal("A2ASP", edgeBatches[0][0]["v"])
}

func (s *ResidueGraphRepoTestSuite) TestSave_RequiresRunID() {
	doc := s.document()
	doc.RunID = ""
	err := s.repo.Save(context.Background(), doc)
	s.True(errors.IsCode(err, errors.CodeInvalidParam))
	s.driver.AssertNotCalled(s.T(), "ExecuteWrite", mock.Anything)
}

func (s *ResidueGraphRepoTestSuite) TestSave_RunFailure() {
	s.tx.On("Run", mock.Anything, mock.Anything, mock.Anything).Return(nil, stderrors.New("syntax error"))

	err := s.repo.Save(context.Background(), s.document())
	s.True(errors.IsCode(err, errors.ErrCodeDatabaseError))
}

func (s *ResidueGraphRepoTestSuite) TestDelete() {
	s.tx.On("Run", mock.Anything, deleteRunQuery, map[string]any{"runId": "run-1"}).
		Return(&MockResult{Records: []*neo4j.Record{NewRecord([]string{"deleted"}, int64(1))}}, nil)

	s.NoError(s.repo.Delete(context.Background(), "run-1"))
}

func (s *ResidueGraphRepoTestSuite) TestDelete_NotFound() {
	s.tx.On("Run", mock.Anything, deleteRunQuery, mock.Anything).
		Return(&MockResult{Records: []*neo4j.Record{NewRecord([]string{"deleted"}, int64(0))}}, nil)

	err := s.repo.Delete(context.Background(), "missing")
	s.True(errors.IsNotFound(err))
}

func (s *ResidueGraphRepoTestSuite) TestCountEdges() {
	s.tx.On("Run", mock.Anything, countEdgesQuery, map[string]any{"runId": "run-1"}).
		Return(&MockResult{Records: []*neo4j.Record{NewRecord([]string{"edges"}, int64(2))}}, nil)

	n, err := s.repo.CountEdges(context.Background(), "run-1")
	s.Require().NoError(err)
	s.Equal(int64(2), n)
	s.driver.AssertNumberOfCalls(s.T(), "ExecuteRead", 1)
}

func (s *ResidueGraphRepoTestSuite) TestCountEdges_BadColumn() {
	s.tx.On("Run", mock.Anything, countEdgesQuery, mock.Anything).
		Return(&MockResult{Records: []*neo4j.Record{NewRecord([]string{"edges"}, "two")}}, nil)

	_, err := s.repo.CountEdges(context.Background(), "run-1")
	s.Error(err)
}

func (s *ResidueGraphRepoTestSuite) TestKindCounts() {
	s.tx.On("Run", mock.Anything, kindCountsQuery, mock.Anything).
		Return(&MockResult{Records: []*neo4j.Record{
			NewRecord([]string{"kind", "edges"}, "backbone", int64(2)),
			NewRecord([]string{"kind", "edges"}, "ionic", int64(1)),
		}}, nil)

	counts, err := s.repo.KindCounts(context.Background(), "run-1")
	s.Require().NoError(err)
	s.Equal([]KindCount{{Kind: "backbone", Edges: 2}, {Kind: "ionic", Edges: 1}}, counts)
}

func TestResidueGraphRepoTestSuite(t *testing.T) {
	suite.Run(t, new(ResidueGraphRepoTestSuite))
}

func TestRows(t *testing.T) {
	rows := interactionRows([]graph.Edge{{
		Key:      graph.EdgeKey{U: "A1ALA", V: "A2GLY"},
		Kinds:    graph.NewKindSet(graph.Hydrophobic),
		Features: []float64{1},
	}})
	assert.Equal(t, []map[string]any{{
		"u": "A1ALA", "v": "A2GLY", "kinds": []string{"hydrophobic"}, "features": []float64{1},
	}}, rows)
}
