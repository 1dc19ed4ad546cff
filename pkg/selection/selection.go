// Package selection turns pointer events on the map into selection changes.
//
// The selection is either up to two locations (start, then end) or a single
// path, never both. Double clicks are read-only queries.
package selection

import (
	"math"

	"github.com/ritzau/campus-nav/pkg/geometry"
	"github.com/ritzau/campus-nav/pkg/model"
)

// Default hit-test thresholds in map pixels
const (
	DefaultNodeRadius    = 15.0
	DefaultEdgeTolerance = 8.0
)

// Graph is the read-only view of the map needed for hit-testing
type Graph interface {
	Locations() []model.Location
	Paths() []model.Path
}

// Options configures hit-testing
type Options struct {
	NodeRadius    float64 // A location is hit when the pointer is closer than this
	EdgeTolerance float64 // A path is hit when the pointer is closer than this
	NearestNode   bool    // Pick the nearest location instead of the first one in iteration order
}

// DefaultOptions returns the thresholds used by the map view
func DefaultOptions() Options {
	return Options{
		NodeRadius:    DefaultNodeRadius,
		EdgeTolerance: DefaultEdgeTolerance,
	}
}

// HitKind describes what a pointer event landed on
type HitKind string

const (
	HitNone HitKind = "none"
	HitNode HitKind = "node"
	HitEdge HitKind = "edge"
)

// State is the current selection
type State struct {
	Nodes []string       `json:"nodes"`          // Start first, end second
	Edge  *model.EdgeKey `json:"edge,omitempty"` // Selected path, exclusive with Nodes
}

// Start returns the first selected location, if any
func (s State) Start() (string, bool) {
	if len(s.Nodes) == 0 {
		return "", false
	}
	return s.Nodes[0], true
}

// End returns the second selected location, if any
func (s State) End() (string, bool) {
	if len(s.Nodes) < 2 {
		return "", false
	}
	return s.Nodes[1], true
}

func (s State) clone() State {
	out := State{Nodes: append([]string{}, s.Nodes...)}
	if s.Edge != nil {
		k := *s.Edge
		out.Edge = &k
	}
	return out
}

// Result is the outcome of a pointer event
type Result struct {
	State    State           `json:"state"`
	Hit      HitKind         `json:"hit"`
	Location *model.Location `json:"location,omitempty"` // Set on a double click on a location
	Path     *model.Path     `json:"path,omitempty"`     // Set on a double click on a path
}

// Controller holds the selection state for one map view
type Controller struct {
	graph Graph
	opts  Options
	state State
}

// NewController creates a controller over graph
func NewController(g Graph, opts Options) *Controller {
	if opts.NodeRadius <= 0 {
		opts.NodeRadius = DefaultNodeRadius
	}
	if opts.EdgeTolerance <= 0 {
		opts.EdgeTolerance = DefaultEdgeTolerance
	}
	return &Controller{graph: g, opts: opts}
}

// State returns a copy of the current selection
func (c *Controller) State() State {
	return c.state.clone()
}

// OnPointerEvent applies a click at (x, y) and returns the resulting selection.
func (c *Controller) OnPointerEvent(x, y float64, doubleClick bool) Result {
	p := geometry.Pt(x, y)

	if loc, ok := c.hitNode(p); ok {
		if doubleClick {
			return Result{State: c.State(), Hit: HitNode, Location: &loc}
		}
		c.toggleNode(loc.Name)
		return Result{State: c.State(), Hit: HitNode}
	}

	if path, ok := c.hitEdge(p); ok {
		if doubleClick {
			return Result{State: c.State(), Hit: HitEdge, Path: &path}
		}
		key := path.Key()
		c.state.Nodes = nil
		c.state.Edge = &key
		return Result{State: c.State(), Hit: HitEdge}
	}

	// Empty space only drops a path selection
	if !doubleClick {
		c.state.Edge = nil
	}
	return Result{State: c.State(), Hit: HitNone}
}

// Select replaces the selection with the given locations (at most two are kept)
func (c *Controller) Select(names ...string) {
	if len(names) > 2 {
		names = names[:2]
	}
	c.state = State{Nodes: append([]string{}, names...)}
}

// Rename follows a location rename
func (c *Controller) Rename(oldName, newName string) {
	for i, n := range c.state.Nodes {
		if n == oldName {
			c.state.Nodes[i] = newName
		}
	}
	if c.state.Edge != nil && c.state.Edge.Has(oldName) {
		k := model.NewEdgeKey(newName, c.state.Edge.Other(oldName))
		c.state.Edge = &k
	}
}

// Reset clears the selection
func (c *Controller) Reset() {
	c.state = State{}
}

// toggleNode adds or removes name. When two locations are already selected the
// second one is replaced; the start stays until it is clicked again.
func (c *Controller) toggleNode(name string) {
	c.state.Edge = nil

	for i, n := range c.state.Nodes {
		if n == name {
			c.state.Nodes = append(c.state.Nodes[:i], c.state.Nodes[i+1:]...)
			return
		}
	}

	if len(c.state.Nodes) >= 2 {
		c.state.Nodes = c.state.Nodes[:1]
	}
	c.state.Nodes = append(c.state.Nodes, name)
}

func (c *Controller) hitNode(p geometry.Point) (model.Location, bool) {
	var (
		best    model.Location
		found   bool
		nearest = math.Inf(1)
	)

	for _, loc := range c.graph.Locations() {
		d := geometry.Distance(p, geometry.Pt(loc.X, loc.Y))
		if d >= c.opts.NodeRadius {
			continue
		}
		if !c.opts.NearestNode {
			return loc, true
		}
		if d < nearest {
			nearest, best, found = d, loc, true
		}
	}
	return best, found
}

func (c *Controller) hitEdge(p geometry.Point) (model.Path, bool) {
	pos := make(map[string]geometry.Point)
	for _, loc := range c.graph.Locations() {
		pos[loc.Name] = geometry.Pt(loc.X, loc.Y)
	}

	var (
		best    model.Path
		found   bool
		nearest = math.Inf(1)
	)
	for _, path := range c.graph.Paths() {
		d := geometry.PointToSegmentDistance(p, pos[path.From], pos[path.To])
		if d < c.opts.EdgeTolerance && d < nearest {
			nearest, best, found = d, path, true
		}
	}
	return best, found
}
