package selection

import (
	"testing"

	"github.com/ritzau/campus-nav/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeGraph is a fixed map: A(0,0) B(100,0) C(100,100), paths A-B and B-C
type fakeGraph struct {
	locs  []model.Location
	paths []model.Path
}

func (g *fakeGraph) Locations() []model.Location { return g.locs }
func (g *fakeGraph) Paths() []model.Path         { return g.paths }

func newFakeGraph() *fakeGraph {
	return &fakeGraph{
		locs: []model.Location{
			{Name: "A", X: 0, Y: 0},
			{Name: "B", X: 100, Y: 0},
			{Name: "C", X: 100, Y: 100},
		},
		paths: []model.Path{
			{From: "A", To: "B", Weight: 5},
			{From: "B", To: "C", Weight: 7},
		},
	}
}

func TestClickNodeTogglesSelection(t *testing.T) {
	c := NewController(newFakeGraph(), DefaultOptions())

	res := c.OnPointerEvent(3, 4, false)
	assert.Equal(t, HitNode, res.Hit)
	assert.Equal(t, []string{"A"}, res.State.Nodes)

	res = c.OnPointerEvent(101, 2, false)
	assert.Equal(t, []string{"A", "B"}, res.State.Nodes)

	start, _ := res.State.Start()
	end, _ := res.State.End()
	assert.Equal(t, "A", start)
	assert.Equal(t, "B", end)

	// Clicking a selected node deselects it
	res = c.OnPointerEvent(0, 0, false)
	assert.Equal(t, []string{"B"}, res.State.Nodes)
}

func TestThirdNodeEvictsSecond(t *testing.T) {
	c := NewController(newFakeGraph(), DefaultOptions())

	c.OnPointerEvent(0, 0, false)
	c.OnPointerEvent(100, 0, false)
	res := c.OnPointerEvent(100, 100, false)

	assert.Equal(t, []string{"A", "C"}, res.State.Nodes)
}

func TestNodeRadiusIsExclusive(t *testing.T) {
	c := NewController(newFakeGraph(), DefaultOptions())

	// Exactly on the radius is a miss (and far from any path)
	res := c.OnPointerEvent(-15, 0, false)
	assert.Equal(t, HitNone, res.Hit)
	assert.Empty(t, res.State.Nodes)
}

func TestClickEdgeSelectsAndClearsNodes(t *testing.T) {
	c := NewController(newFakeGraph(), DefaultOptions())
	c.OnPointerEvent(0, 0, false)

	res := c.OnPointerEvent(50, 5, false)
	assert.Equal(t, HitEdge, res.Hit)
	require.NotNil(t, res.State.Edge)
	assert.Equal(t, model.NewEdgeKey("A", "B"), *res.State.Edge)
	assert.Empty(t, res.State.Nodes)

	// Selecting a node clears the path
	res = c.OnPointerEvent(100, 100, false)
	assert.Nil(t, res.State.Edge)
	assert.Equal(t, []string{"C"}, res.State.Nodes)
}

func TestEdgeHitPicksNearest(t *testing.T) {
	g := newFakeGraph()
	// A second path running parallel just below A-B
	g.locs = append(g.locs,
		model.Location{Name: "D", X: 0, Y: 10},
		model.Location{Name: "E", X: 100, Y: 10},
	)
	g.paths = append([]model.Path{{From: "D", To: "E", Weight: 1}}, g.paths...)

	c := NewController(g, DefaultOptions())
	res := c.OnPointerEvent(50, 3, false)
	require.NotNil(t, res.State.Edge)
	assert.Equal(t, model.NewEdgeKey("A", "B"), *res.State.Edge)

	res = c.OnPointerEvent(50, 7, false)
	require.NotNil(t, res.State.Edge)
	assert.Equal(t, model.NewEdgeKey("D", "E"), *res.State.Edge)
}

func TestEmptyClickClearsOnlyEdge(t *testing.T) {
	c := NewController(newFakeGraph(), DefaultOptions())

	c.OnPointerEvent(0, 0, false)
	res := c.OnPointerEvent(40, 60, false)
	assert.Equal(t, HitNone, res.Hit)
	assert.Equal(t, []string{"A"}, res.State.Nodes, "node selection survives a miss")

	c.OnPointerEvent(50, 0, false)
	res = c.OnPointerEvent(40, 60, false)
	assert.Nil(t, res.State.Edge)
}

func TestDoubleClickIsReadOnly(t *testing.T) {
	c := NewController(newFakeGraph(), DefaultOptions())
	c.OnPointerEvent(100, 100, false)
	before := c.State()

	res := c.OnPointerEvent(1, 1, true)
	assert.Equal(t, HitNode, res.Hit)
	require.NotNil(t, res.Location)
	assert.Equal(t, "A", res.Location.Name)
	assert.Equal(t, before, c.State())

	res = c.OnPointerEvent(100, 50, true)
	assert.Equal(t, HitEdge, res.Hit)
	require.NotNil(t, res.Path)
	assert.Equal(t, 7.0, res.Path.Weight)
	assert.Equal(t, before, c.State())
}

func TestFirstMatchVersusNearestNode(t *testing.T) {
	g := &fakeGraph{locs: []model.Location{
		{Name: "far", X: 10, Y: 0},
		{Name: "near", X: 2, Y: 0},
	}}

	first := NewController(g, DefaultOptions())
	res := first.OnPointerEvent(0, 0, false)
	assert.Equal(t, []string{"far"}, res.State.Nodes)

	opts := DefaultOptions()
	opts.NearestNode = true
	nearest := NewController(g, opts)
	res = nearest.OnPointerEvent(0, 0, false)
	assert.Equal(t, []string{"near"}, res.State.Nodes)
}

func TestRenameFollowsSelection(t *testing.T) {
	c := NewController(newFakeGraph(), DefaultOptions())
	c.Select("A", "B")

	c.Rename("B", "Z")
	assert.Equal(t, []string{"A", "Z"}, c.State().Nodes)

	// Midpoint of B-C, too far from either endpoint to hit a location
	res := c.OnPointerEvent(100, 50, false)
	require.Equal(t, HitEdge, res.Hit)
	c.Rename("C", "0")
	assert.Equal(t, model.EdgeKey{A: "0", B: "B"}, *c.State().Edge)
}

func TestStateIsACopy(t *testing.T) {
	c := NewController(newFakeGraph(), DefaultOptions())
	c.Select("A")

	st := c.State()
	st.Nodes[0] = "mutated"
	assert.Equal(t, []string{"A"}, c.State().Nodes)
}
