package interaction_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/proteingraph/internal/domain/geometry"
	"github.com/turtacn/proteingraph/internal/domain/graph"
	"github.com/turtacn/proteingraph/internal/domain/structure"
	"github.com/turtacn/proteingraph/internal/intelligence/interaction"
	"github.com/turtacn/proteingraph/internal/testutil"
	apperrors "github.com/turtacn/proteingraph/pkg/errors"
	"github.com/turtacn/proteingraph/pkg/types/protein"
)

type p = geometry.Point

// newGraph adds one node per residue of in.
func newGraph(t *testing.T, in *interaction.Input) *graph.Graph {
	t.Helper()
	g := graph.New()
	for _, r := range in.Index.Residues() {
		require.NoError(t, g.AddNode(graph.Node{
			ID:            r.NodeID,
			ChainID:       r.ChainID,
			ResidueNumber: r.Number,
			ResidueName:   r.Name,
			Position:      r.Position,
		}))
	}
	return g
}

func run(t *testing.T, table *structure.AtomTable, dets ...interaction.Detector) *graph.Graph {
	t.Helper()
	in, err := interaction.NewInput(table)
	require.NoError(t, err)
	g := newGraph(t, in)
	_, err = interaction.NewEngine(dets).Run(context.Background(), g, in)
	require.NoError(t, err)
	return g
}

func allDetectors(t *testing.T) []interaction.Detector {
	t.Helper()
	dets, err := interaction.Build(append(interaction.DefaultDetectors, "delaunay"), interaction.RegistryOptions{})
	require.NoError(t, err)
	return dets
}

// argAsp is ARG A1 next to ASP A2 with charged groups 2 Å apart.
func argAsp() *testutil.StructureBuilder {
	return testutil.NewStructure().
		Residue("A", 1, "ARG", p{}, map[string]p{
			"CB": {Y: 1.5}, "CD": {Y: 3}, "CZ": {X: 1, Y: 4},
		}).
		Residue("A", 2, "ASP", p{X: 3.8}, map[string]p{
			"CB": {X: 3.8, Y: 1.5}, "CG": {X: 3.5, Y: 3}, "OD1": {X: 3, Y: 4},
		})
}

func TestRun_BackboneAndIonicMerge(t *testing.T) {
	dets, err := interaction.Build(nil, interaction.RegistryOptions{})
	require.NoError(t, err)
	g := run(t, argAsp().Table(), dets...)

	e, err := g.Edge("A1ARG", "A2ASP")
	require.NoError(t, err)
	assert.True(t, e.Kinds.Has(graph.Backbone))
	assert.True(t, e.Kinds.Has(graph.Ionic))
}

func TestBackboneContributions(t *testing.T) {
	res := func(b *testutil.StructureBuilder, chain string, num int, name string) *testutil.StructureBuilder {
		return b.Residue(chain, num, name, p{X: 3.8 * float64(num)}, nil)
	}

	tests := []struct {
		name      string
		structure *testutil.StructureBuilder
		want      [][2]string
	}{
		{
			name:      "adjacent canonical pair",
			structure: res(res(testutil.NewStructure(), "A", 1, "ARG"), "A", 2, "ASP"),
			want:      [][2]string{{"A1ARG", "A2ASP"}},
		},
		{
			name:      "numbering gap",
			structure: res(res(testutil.NewStructure(), "A", 1, "ALA"), "A", 3, "GLY"),
		},
		{
			name:      "non-canonical neighbour",
			structure: res(res(res(testutil.NewStructure(), "A", 1, "ALA"), "A", 2, "MSE"), "A", 3, "GLY"),
		},
		{
			name: "chains with the same numbering",
			structure: res(res(res(res(testutil.NewStructure(),
				"A", 1, "ALA"), "A", 2, "GLY"), "B", 1, "SER"), "B", 2, "THR"),
			want: [][2]string{{"A1ALA", "A2GLY"}, {"B1SER", "B2THR"}},
		},
		{
			name:      "each neighbour pair once in either input order",
			structure: res(res(res(testutil.NewStructure(), "A", 3, "LEU"), "A", 1, "ALA"), "A", 2, "GLY"),
			want:      [][2]string{{"A1ALA", "A2GLY"}, {"A2GLY", "A3LEU"}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx := structure.NewResidueIndex(tt.structure.Table())
			var got [][2]string
			for _, c := range interaction.BackboneContributions(idx) {
				assert.True(t, c.Kinds.Has(graph.Backbone))
				got = append(got, [2]string{c.A, c.B})
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

func TestAddBackbone_KeepsNonCanonicalNode(t *testing.T) {
	table := testutil.NewStructure().
		Residue("A", 1, "ALA", p{}, map[string]p{"CB": {Y: 1.5}}).
		Residue("A", 2, "MSE", p{X: 3.8}, map[string]p{"CB": {X: 3.8, Y: 1.5}, "SE": {X: 3.8, Y: 3}}).
		Table()
	in, err := interaction.NewInput(table)
	require.NoError(t, err)
	g := newGraph(t, in)

	require.NoError(t, interaction.AddBackbone(g, in.Index))
	assert.True(t, g.HasNode("A2MSE"))
	assert.Equal(t, 2, g.NumNodes())
	assert.Equal(t, 0, g.NumEdges())
}

func TestRun_Disulfide(t *testing.T) {
	cys := func(sg1, sg2 float64) *structure.AtomTable {
		return testutil.NewStructure().
			Residue("A", 1, "CYS", p{}, map[string]p{"CB": {Y: 1.5}, "SG": {Y: sg1}}).
			Residue("A", 10, "CYS", p{Y: 10}, map[string]p{"CB": {Y: 8.5}, "SG": {Y: sg2}}).
			Table()
	}

	g := run(t, cys(4, 6), interaction.Disulfide())
	e, err := g.Edge("A1CYS", "A10CYS")
	require.NoError(t, err)
	assert.True(t, e.Kinds.Has(graph.Disulfide))

	g = run(t, cys(3.5, 6.5), interaction.Disulfide())
	assert.Empty(t, g.EdgesByKind(graph.Disulfide))
	assert.False(t, g.HasEdge("A1CYS", "A10CYS"))
}

func TestRun_IonicPruneRemovesLikeCharges(t *testing.T) {
	table := testutil.NewStructure().
		Residue("A", 1, "LYS", p{}, map[string]p{"CB": {Y: 1.5}, "CG": {Y: 3}, "CD": {Y: 4.5}}).
		Residue("A", 20, "ARG", p{Y: 12}, map[string]p{"CB": {Y: 10.5}, "CG": {Y: 9}, "CZ": {Y: 7.5}}).
		Residue("A", 40, "GLU", p{X: 30}, map[string]p{"CB": {X: 30, Y: 1.5}}).
		Table()

	g := run(t, table, interaction.Ionic())
	assert.Empty(t, g.EdgesByKind(graph.Ionic))
	assert.Equal(t, 0, g.NumEdges())
}

func TestRun_IonicKeepsOtherLabels(t *testing.T) {
	// LYS NZ and ARG NH1 also satisfy the hydrogen-bond radius.
	table := testutil.NewStructure().
		Residue("A", 1, "LYS", p{}, map[string]p{"CB": {Y: 1.5}, "NZ": {Y: 4}}).
		Residue("A", 20, "ARG", p{Y: 10}, map[string]p{"CB": {Y: 8.5}, "NH1": {Y: 7}}).
		Table()

	g := run(t, table, interaction.HydrogenBond(), interaction.Ionic())
	e, err := g.Edge("A1LYS", "A20ARG")
	require.NoError(t, err)
	assert.Equal(t, graph.NewKindSet(graph.HBond), e.Kinds)
}

func TestRun_HydrogenBondPasses(t *testing.T) {
	table := testutil.NewStructure().
		Residue("A", 1, "SER", p{}, map[string]p{"CB": {Y: 1.5}, "OG": {Y: 3}}).
		Residue("A", 10, "THR", p{Y: 8}, map[string]p{"CB": {Y: 7}, "OG1": {Y: 6.2}}).
		Residue("B", 1, "MET", p{X: 30}, map[string]p{"CB": {X: 30, Y: 1.5}, "SD": {X: 30, Y: 3}}).
		Residue("B", 10, "CYS", p{X: 30, Y: 9}, map[string]p{"CB": {X: 30, Y: 8}, "SG": {X: 30, Y: 6.8}}).
		Table()

	g := run(t, table, interaction.HydrogenBond())
	assert.True(t, g.HasEdge("A1SER", "A10THR"))
	// SD-SG at 3.8 Å only passes the sulphur radius.
	e, err := g.Edge("B1MET", "B10CYS")
	require.NoError(t, err)
	assert.True(t, e.Kinds.Has(graph.HBond))
	assert.Equal(t, 2, g.NumEdges())
}

func TestRun_Aromatic(t *testing.T) {
	table := testutil.NewStructure().
		Residue("A", 1, "PHE", p{Y: -3}, testutil.Ring(p{})).
		Residue("A", 5, "PHE", p{X: 5.5, Y: -3}, testutil.Ring(p{X: 5.5})).
		Residue("A", 9, "TYR", p{X: 5.5, Y: 0, Z: 6}, testutil.Ring(p{X: 5.5, Z: 3})).
		Residue("A", 20, "PHE", p{Y: 30}, testutil.Ring(p{Y: 33})).
		Table()

	g := run(t, table, interaction.Aromatic())
	assert.True(t, g.HasEdge("A1PHE", "A5PHE"))
	// Centroids 3 Å apart are too close.
	assert.False(t, g.HasEdge("A5PHE", "A9TYR"))
	assert.False(t, g.HasEdge("A1PHE", "A20PHE"))

	ids, centroids, err := interaction.RingCentroids(table.OnlyATOM())
	require.NoError(t, err)
	pos := make(map[string]geometry.Point, len(ids))
	for i, id := range ids {
		pos[id] = centroids[i]
	}
	for _, e := range g.EdgesByKind(graph.Aromatic) {
		d := geometry.Euclidean(pos[e.Key.U], pos[e.Key.V])
		assert.GreaterOrEqual(t, d, interaction.AromaticMin)
		assert.LessOrEqual(t, d, interaction.AromaticMax)
	}
}

func TestRun_AromaticSulphur(t *testing.T) {
	table := testutil.NewStructure().
		Residue("A", 1, "MET", p{}, map[string]p{"CB": {Y: 1.5}, "SD": {Y: 3}}).
		Residue("A", 10, "PHE", p{Y: 10}, testutil.Ring(p{Y: 7})).
		Residue("A", 20, "MET", p{X: -4}, map[string]p{"CB": {X: -4, Y: 1.5}, "SD": {X: -2, Y: 3}}).
		Table()

	g := run(t, table, interaction.AromaticSulphur())
	assert.True(t, g.HasEdge("A1MET", "A10PHE"))
	assert.False(t, g.HasEdge("A1MET", "A20MET"))
}

func TestRun_CationPi(t *testing.T) {
	table := testutil.NewStructure().
		Residue("A", 1, "LYS", p{}, map[string]p{"CB": {Y: 1.5}, "NZ": {Y: 3}}).
		Residue("A", 10, "PHE", p{Y: 10}, testutil.Ring(p{Y: 7})).
		Table()

	g := run(t, table, interaction.CationPi(protein.NewSet(), protein.NewSet()))
	assert.True(t, g.HasEdge("A1LYS", "A10PHE"))

	dets, err := interaction.Build([]string{"cation_pi"}, interaction.RegistryOptions{CationResidues: []string{"HIS"}})
	require.NoError(t, err)
	g = run(t, table, dets...)
	assert.False(t, g.HasEdge("A1LYS", "A10PHE"))
}

func TestRun_Delaunay(t *testing.T) {
	b := testutil.NewStructure()
	for i, ca := range []p{{}, {X: 10}, {Y: 10}, {Z: 10}, {X: 2, Y: 2, Z: 2}} {
		b.Residue("A", 10*(i+1), "LEU", ca, map[string]p{"CB": ca.Add(p{Z: 1.5})})
	}
	g := run(t, b.Table(), interaction.Delaunay())
	assert.Len(t, g.EdgesByKind(graph.Delaunay), 10)
}

func TestRun_DelaunayTooFewResidues(t *testing.T) {
	table := argAsp().Table()
	in, err := interaction.NewInput(table)
	require.NoError(t, err)
	g := newGraph(t, in)

	_, err = interaction.NewEngine([]interaction.Detector{interaction.Delaunay()}).Run(context.Background(), g, in)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeDegenerateTriangulation))
	assert.Equal(t, 0, g.NumEdges(), "no partial graph on failure")
}

func TestRun_Idempotent(t *testing.T) {
	table := argAsp().
		Residue("A", 3, "PHE", p{X: 7.6, Z: 3}, testutil.Ring(p{X: 7.6, Y: 3, Z: 3})).
		Residue("A", 8, "TYR", p{X: 7.6, Y: 9, Z: -3}, testutil.Ring(p{X: 7.6, Y: 9, Z: -3})).
		Table()
	in, err := interaction.NewInput(table)
	require.NoError(t, err)
	g := newGraph(t, in)
	engine := interaction.NewEngine(allDetectors(t))

	_, err = engine.Run(context.Background(), g, in)
	require.NoError(t, err)
	first := g.Edges()

	_, err = engine.Run(context.Background(), g, in)
	require.NoError(t, err)
	assert.Equal(t, first, g.Edges())

	for _, e := range g.Edges() {
		assert.False(t, e.Kinds.IsEmpty())
		assert.NotEqual(t, e.Key.U, e.Key.V)
	}
}

func TestRun_ParallelMatchesSequential(t *testing.T) {
	table := argAsp().
		Residue("A", 3, "PHE", p{X: 7.6, Z: 3}, testutil.Ring(p{X: 7.6, Y: 3, Z: 3})).
		Residue("A", 4, "CYS", p{X: 11.4, Y: 1, Z: -2}, map[string]p{"CB": {X: 11.4, Y: 2.5, Z: -2}, "SG": {X: 10, Y: 3, Z: -1}}).
		Residue("A", 12, "LYS", p{X: 9, Y: 8, Z: -4}, map[string]p{"CB": {X: 9, Y: 6.5, Z: -3}, "NZ": {X: 8, Y: 5, Z: -1}}).
		Table()
	in, err := interaction.NewInput(table)
	require.NoError(t, err)

	seq := newGraph(t, in)
	_, err = interaction.NewEngine(allDetectors(t)).Run(context.Background(), seq, in)
	require.NoError(t, err)

	par := newGraph(t, in)
	_, err = interaction.NewEngine(allDetectors(t), interaction.WithParallel(true)).Run(context.Background(), par, in)
	require.NoError(t, err)

	assert.Equal(t, seq.Edges(), par.Edges())
}

type mockObserver struct {
	mock.Mock
}

func (m *mockObserver) ObserveDetector(name string, d time.Duration, contributions int, err error) {
	m.Called(name, d, contributions, err)
}

type failingDetector struct{}

func (failingDetector) Name() string { return "failing" }

func (failingDetector) Detect(context.Context, *interaction.Input) ([]interaction.Contribution, error) {
	return nil, apperrors.New(apperrors.ErrCodeEmptySubset, "nothing to do")
}

func TestRun_DetectorFailure(t *testing.T) {
	in, err := interaction.NewInput(argAsp().Table())
	require.NoError(t, err)
	g := newGraph(t, in)

	obs := &mockObserver{}
	obs.On("ObserveDetector", "ionic", mock.Anything, 1, nil).Once()
	obs.On("ObserveDetector", "failing", mock.Anything, 0, mock.Anything).Once()
	log := testutil.NewMockLogger()

	engine := interaction.NewEngine(
		[]interaction.Detector{interaction.Ionic(), failingDetector{}},
		interaction.WithLogger(log),
		interaction.WithObserver(obs),
	)
	_, err = engine.Run(context.Background(), g, in)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmptySubset))
	assert.Equal(t, 0, g.NumEdges())
	assert.True(t, log.HasMessage("error", "detector failed"))
	obs.AssertExpectations(t)
}

func TestRun_ReportAndLogs(t *testing.T) {
	in, err := interaction.NewInput(argAsp().Table())
	require.NoError(t, err)
	g := newGraph(t, in)
	log := testutil.NewMockLogger()

	report, err := interaction.NewEngine([]interaction.Detector{interaction.Ionic()}, interaction.WithLogger(log)).
		Run(context.Background(), g, in)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Backbone)
	require.Len(t, report.Detectors, 1)
	assert.Equal(t, "ionic", report.Detectors[0].Name)
	assert.Equal(t, 1, report.Detectors[0].Contributions)

	v, ok := log.FieldValue("detector finished", "detector")
	require.True(t, ok)
	assert.Equal(t, "ionic", v)
}

func TestRun_EmptyInput(t *testing.T) {
	_, err := interaction.NewEngine(nil).Run(context.Background(), graph.New(), &interaction.Input{})
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmptySubset))
}

func TestNewInput(t *testing.T) {
	_, err := interaction.NewInput(testutil.NewStructure().
		Het("A", 1, "HOH", "O", p{}).Table())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmptySubset))

	_, err = interaction.NewInput(testutil.NewStructure().
		Residue("A", 1, "GLY", p{}, nil).Table())
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeEmptySubset))

	_, err = interaction.NewInput(structure.NewAtomTable([]structure.AtomRecord{{RecordType: "ATOM"}}))
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeMissingColumn))

	in, err := interaction.NewInput(argAsp().Het("A", 100, "HOH", "O", p{X: 50}).Table())
	require.NoError(t, err)
	assert.Equal(t, 2, in.Index.Len())
	assert.Equal(t, 6, in.RGroup.Len())
}

func TestCommit_RejectsUnknownNode(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(graph.Node{ID: "A1ALA"}))
	err := interaction.Commit(g, []interaction.Contribution{
		{A: "A1ALA", B: "A2GLY", Kinds: graph.NewKindSet(graph.Hydrophobic)},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

