// Package engine holds the state of one campus map session: the graph, the
// selection, the highlighted route and the edit history.
//
// Every mutating operation follows the same sequence. The store is changed,
// the selection is brought in line with the new graph, a history snapshot is
// committed and a graph_state event is published. A rejected edit changes
// nothing.
//
// The engine is not safe for concurrent use; hosts serialise calls.
package engine

import (
	"errors"
	"fmt"

	"github.com/ritzau/campus-nav/pkg/graph"
	"github.com/ritzau/campus-nav/pkg/history"
	"github.com/ritzau/campus-nav/pkg/importer"
	"github.com/ritzau/campus-nav/pkg/logging"
	"github.com/ritzau/campus-nav/pkg/model"
	"github.com/ritzau/campus-nav/pkg/pathfind"
	"github.com/ritzau/campus-nav/pkg/pubsub"
	"github.com/ritzau/campus-nav/pkg/selection"
)

var (
	// ErrNeedTwoLocations is returned by operations acting on a selected start and end
	ErrNeedTwoLocations = errors.New("select a start and an end location first")

	// ErrNothingSelected is returned by RemoveSelected without a single selected location or path
	ErrNothingSelected = errors.New("select one location or one path first")
)

// Notice messages for requests that had nothing to do
const (
	NothingToUndo = "nothing to undo"
	NothingToRedo = "nothing to redo"
)

// Options configures a new engine
type Options struct {
	HistoryLimit int                   // Undo snapshots kept, including the base state
	Selection    selection.Options     // Hit-test thresholds
	Defaults     []model.Location      // Fallback positions injected by merge imports
	Routes       []pathfind.FixedRoute // Recommended routes offered to the user
	Publisher    pubsub.Publisher      // Receives graph_state and notices events; may be nil
}

// State is everything a host needs to draw the map
type State struct {
	Revision  int              `json:"revision"`
	Locations []model.Location `json:"locations"`
	Paths     []model.Path     `json:"paths"`
	Selection selection.State  `json:"selection"`
	Route     *pathfind.Route  `json:"route,omitempty"` // Highlighted shortest path
	CanUndo   bool             `json:"canUndo"`
	CanRedo   bool             `json:"canRedo"`
}

// Stats summarises the graph and the history
type Stats struct {
	Locations  int        `json:"locations"`
	Paths      int        `json:"paths"`
	Components [][]string `json:"components"` // Largest first
	UndoDepth  int        `json:"undoDepth"`
	RedoDepth  int        `json:"redoDepth"`
	Revision   int        `json:"revision"`
}

// Engine composes the graph store with routing, selection, history and import
type Engine struct {
	store    *graph.Store
	finder   *pathfind.Finder
	sel      *selection.Controller
	history  *history.Manager
	merger   *importer.Merger
	routes   []pathfind.FixedRoute
	pub      pubsub.Publisher
	route    *pathfind.Route
	revision int
}

// New creates an engine whose base history state is initial
func New(initial model.Snapshot, opts Options) (*Engine, error) {
	store, err := graph.FromSnapshot(initial)
	if err != nil {
		return nil, fmt.Errorf("initial graph: %w", err)
	}

	e := &Engine{
		store:   store,
		finder:  pathfind.NewFinder(store),
		sel:     selection.NewController(store, opts.Selection),
		history: history.NewManager(store.Snapshot(), opts.HistoryLimit),
		merger:  importer.NewMerger(opts.Defaults),
		routes:  opts.Routes,
		pub:     opts.Publisher,
	}

	nodes, edges := store.Len()
	logging.Debug("engine ready", "locations", nodes, "paths", edges)
	return e, nil
}

// AddLocation adds a location and makes it the selection
func (e *Engine) AddLocation(name string, x, y float64, intro string) error {
	name = graph.CleanName(name)
	return e.mutate("add_location", func() error {
		if err := e.store.AddNode(name, x, y, intro); err != nil {
			return err
		}
		e.sel.Select(name)
		return nil
	})
}

// RenameLocation renames a location, keeping the selection and route pointed at it
func (e *Engine) RenameLocation(oldName, newName string) error {
	newName = graph.CleanName(newName)
	return e.mutate("rename_location", func() error {
		if err := e.store.RenameNode(oldName, newName); err != nil {
			return err
		}
		e.renameFixups(oldName, newName)
		return nil
	})
}

// MoveLocation changes the position of a location
func (e *Engine) MoveLocation(name string, x, y float64) error {
	return e.mutate("move_location", func() error {
		return e.store.MoveNode(name, x, y)
	})
}

// SetIntroduction replaces the description of a location
func (e *Engine) SetIntroduction(name, intro string) error {
	return e.mutate("set_introduction", func() error {
		return e.store.SetIntroduction(name, intro)
	})
}

// EditLocation renames a location and replaces its introduction as one edit
func (e *Engine) EditLocation(oldName, newName, intro string) error {
	newName = graph.CleanName(newName)
	return e.mutate("edit_location", func() error {
		if err := e.store.RenameNode(oldName, newName); err != nil {
			return err
		}
		// The rename succeeded, so newName exists
		if err := e.store.SetIntroduction(newName, intro); err != nil {
			return err
		}
		e.renameFixups(oldName, newName)
		return nil
	})
}

// RemoveLocation deletes a location and its paths, then clears the selection
// and the highlighted route.
func (e *Engine) RemoveLocation(name string) error {
	return e.mutate("remove_location", func() error {
		if err := e.store.RemoveNode(name); err != nil {
			return err
		}
		e.clearView()
		return nil
	})
}

// AddPath connects two locations
func (e *Engine) AddPath(u, v string, weight float64) error {
	return e.mutate("add_path", func() error {
		if err := e.store.AddEdge(u, v, weight); err != nil {
			return err
		}
		e.route = nil
		return nil
	})
}

// UpdatePath changes the length of an existing path
func (e *Engine) UpdatePath(u, v string, weight float64) error {
	return e.mutate("update_path", func() error {
		if err := e.store.UpdateEdgeWeight(u, v, weight); err != nil {
			return err
		}
		e.route = nil
		return nil
	})
}

// RemovePath deletes a path, then clears the selection and the highlighted route
func (e *Engine) RemovePath(u, v string) error {
	return e.mutate("remove_path", func() error {
		if err := e.store.RemoveEdge(u, v); err != nil {
			return err
		}
		e.clearView()
		return nil
	})
}

// AddPathBetweenSelected connects the selected start and end
func (e *Engine) AddPathBetweenSelected(weight float64) error {
	start, end, err := e.selectedPair()
	if err != nil {
		return err
	}
	return e.AddPath(start, end, weight)
}

// RemoveSelected deletes the selected path, or the single selected location
func (e *Engine) RemoveSelected() error {
	st := e.sel.State()
	switch {
	case st.Edge != nil:
		return e.RemovePath(st.Edge.A, st.Edge.B)
	case len(st.Nodes) == 1:
		return e.RemoveLocation(st.Nodes[0])
	default:
		logging.Warn("edit rejected", "op", "remove_selected", "error", ErrNothingSelected)
		return ErrNothingSelected
	}
}

// Import applies records in the given mode as a single edit
func (e *Engine) Import(nodes []model.NodeRecord, edges []model.EdgeRecord, mode importer.Mode) (importer.Summary, error) {
	var summary importer.Summary
	err := e.mutate("import", func() error {
		var err error
		if summary, err = e.merger.Apply(e.store, nodes, edges, mode); err != nil {
			return err
		}
		e.clearView()
		return nil
	})
	if err != nil {
		return importer.Summary{}, err
	}

	logging.Info("import applied",
		"mode", string(summary.Mode),
		"nodesAdded", summary.NodesAdded,
		"nodesUpdated", summary.NodesUpdated,
		"edgesAdded", summary.EdgesAdded,
		"edgesSkipped", summary.EdgesSkipped,
		"defaultsInjected", summary.DefaultsInjected,
	)
	return summary, nil
}

// Undo restores the state before the last edit. When there is nothing to
// undo it returns a notice and false.
func (e *Engine) Undo() (pubsub.Notice, bool) {
	snap, ok := e.history.Undo()
	if !ok {
		return e.notice(NothingToUndo), false
	}
	e.restore("undo", snap)
	return pubsub.Notice{}, true
}

// Redo re-applies the last undone edit. When there is nothing to redo it
// returns a notice and false.
func (e *Engine) Redo() (pubsub.Notice, bool) {
	snap, ok := e.history.Redo()
	if !ok {
		return e.notice(NothingToRedo), false
	}
	e.restore("redo", snap)
	return pubsub.Notice{}, true
}

// Click applies a pointer event to the selection. Selection changes are not
// recorded in the history.
func (e *Engine) Click(x, y float64, doubleClick bool) selection.Result {
	res := e.sel.OnPointerEvent(x, y, doubleClick)
	logging.Trace("pointer event", "x", x, "y", y, "double", doubleClick, "hit", string(res.Hit))
	return res
}

// ShortestPath computes and highlights the shortest route between two locations
func (e *Engine) ShortestPath(from, to string) (pathfind.Route, error) {
	route, err := e.finder.ShortestPath(from, to)
	if err != nil {
		if errors.Is(err, pathfind.ErrNoPath) {
			err = fmt.Errorf("%w (%d separate parts in the map)", err, len(e.store.Components()))
		}
		logging.Debug("route not found", "from", from, "to", to, "error", err)
		return pathfind.Route{}, err
	}

	highlighted := pathfind.Route{Nodes: append([]string(nil), route.Nodes...), Distance: route.Distance}
	e.route = &highlighted
	logging.Debug("route found", "from", from, "to", to, "distance", route.Distance, "stops", len(route.Nodes))
	return route, nil
}

// ShortestPathSelected routes between the selected start and end
func (e *Engine) ShortestPathSelected() (pathfind.Route, error) {
	start, end, err := e.selectedPair()
	if err != nil {
		return pathfind.Route{}, err
	}
	return e.ShortestPath(start, end)
}

// ValidateRoute returns the length of a fixed sequence of stops
func (e *Engine) ValidateRoute(stops []string) (float64, error) {
	return e.finder.ValidateFixedRoute(stops)
}

// RecommendedRoutes checks every configured route against the current graph
func (e *Engine) RecommendedRoutes() []pathfind.RouteCheck {
	return e.finder.CheckRoutes(e.routes)
}

// Reset clears the selection and the highlighted route. The graph is untouched.
func (e *Engine) Reset() {
	e.clearView()
}

// Export returns the graph as tabular records
func (e *Engine) Export() ([]model.NodeRecord, []model.EdgeRecord) {
	return e.store.Snapshot().Records()
}

// Location returns one location
func (e *Engine) Location(name string) (model.Location, error) {
	return e.store.Location(name)
}

// State returns a copy of the current session state
func (e *Engine) State() State {
	snap := e.store.Snapshot()
	st := State{
		Revision:  e.revision,
		Locations: snap.Locations,
		Paths:     snap.Paths,
		Selection: e.sel.State(),
		CanUndo:   e.history.CanUndo(),
		CanRedo:   e.history.CanRedo(),
	}
	if e.route != nil {
		r := pathfind.Route{Nodes: append([]string(nil), e.route.Nodes...), Distance: e.route.Distance}
		st.Route = &r
	}
	return st
}

// Stats returns graph and history counters
func (e *Engine) Stats() Stats {
	nodes, edges := e.store.Len()
	undo, redo := e.history.Depth()
	return Stats{
		Locations:  nodes,
		Paths:      edges,
		Components: e.store.Components(),
		UndoDepth:  undo,
		RedoDepth:  redo,
		Revision:   e.revision,
	}
}

// mutate runs edit and, when it succeeds, commits and publishes the new state
func (e *Engine) mutate(op string, edit func() error) error {
	if err := edit(); err != nil {
		logging.Warn("edit rejected", "op", op, "error", err)
		return err
	}

	e.history.Commit(e.store.Snapshot())
	e.revision++
	logging.Debug("edit committed", "op", op, "revision", e.revision)
	e.publishState(op)
	return nil
}

func (e *Engine) restore(op string, snap model.Snapshot) {
	if err := e.store.Replace(snap); err != nil {
		// Snapshots are taken from a valid store, so this is a bug
		logging.Error("history snapshot rejected", "op", op, "error", err)
		return
	}
	e.clearView()
	e.revision++
	logging.Info("history restored", "op", op, "revision", e.revision)
	e.publishState(op)
}

func (e *Engine) renameFixups(oldName, newName string) {
	e.sel.Rename(oldName, newName)
	if e.route == nil {
		return
	}
	for i, n := range e.route.Nodes {
		if n == oldName {
			e.route.Nodes[i] = newName
		}
	}
}

func (e *Engine) clearView() {
	e.sel.Reset()
	e.route = nil
}

func (e *Engine) selectedPair() (string, string, error) {
	st := e.sel.State()
	start, ok := st.Start()
	if !ok {
		return "", "", ErrNeedTwoLocations
	}
	end, ok := st.End()
	if !ok {
		return "", "", ErrNeedTwoLocations
	}
	return start, end, nil
}

func (e *Engine) notice(msg string) pubsub.Notice {
	n := pubsub.Notice{Message: msg}
	logging.Info("notice", "message", msg)
	if e.pub != nil {
		if err := e.pub.Publish(pubsub.TopicNotices, "notice", n); err != nil {
			logging.Warn("failed to publish notice", "error", err)
		}
	}
	return n
}

func (e *Engine) publishState(op string) {
	if e.pub == nil {
		return
	}
	nodes, edges := e.store.Len()
	state := pubsub.GraphState{
		Revision:  e.revision,
		Locations: nodes,
		Paths:     edges,
		CanUndo:   e.history.CanUndo(),
		CanRedo:   e.history.CanRedo(),
	}
	if err := e.pub.Publish(pubsub.TopicGraphState, op, state); err != nil {
		logging.Warn("failed to publish graph state", "op", op, "error", err)
	}
}
