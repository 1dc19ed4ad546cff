// Package pathfind answers routing queries against the live campus graph:
// single-pair shortest paths and validation of pre-authored fixed routes.
package pathfind

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ritzau/campus-nav/pkg/graph"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/iterator"
	"gonum.org/v1/gonum/graph/path"
	"gonum.org/v1/gonum/graph/simple"
)

var (
	// ErrNoPath is returned when the endpoints lie in different components.
	ErrNoPath = errors.New("no path between locations")

	// ErrSameEndpoint is returned when start and end are the same location.
	ErrSameEndpoint = errors.New("start and end must differ")

	// ErrBrokenRoute is matched by every *BrokenRouteError.
	ErrBrokenRoute = errors.New("route is broken")

	// ErrRouteTooShort is returned for a fixed route with fewer than two stops.
	ErrRouteTooShort = errors.New("route needs at least two stops")
)

// BrokenRouteError names the first consecutive pair of a fixed route
// that has no direct path in the current graph.
type BrokenRouteError struct {
	From string
	To   string
}

func (e *BrokenRouteError) Error() string {
	return fmt.Sprintf("route is broken: no path between %s and %s", e.From, e.To)
}

func (e *BrokenRouteError) Unwrap() error {
	return ErrBrokenRoute
}

// Route is an ordered sequence of locations with its total distance
type Route struct {
	Nodes    []string `json:"nodes"`
	Distance float64  `json:"distance"` // Metres
}

func (r Route) String() string {
	return strings.Join(r.Nodes, " -> ")
}

// Finder computes routes over a graph store
type Finder struct {
	store *graph.Store
}

// NewFinder creates a finder reading from store
func NewFinder(store *graph.Store) *Finder {
	return &Finder{store: store}
}

// ShortestPath returns the minimum-weight route from start to end using Dijkstra's algorithm.
// Neighbours are expanded in name order so equal-cost alternatives resolve identically on every run.
func (f *Finder) ShortestPath(start, end string) (Route, error) {
	if start == end {
		return Route{}, fmt.Errorf("%w: %s", ErrSameEndpoint, start)
	}
	sid, ok := f.store.ID(start)
	if !ok {
		return Route{}, fmt.Errorf("location %s: %w", start, graph.ErrNotFound)
	}
	eid, ok := f.store.ID(end)
	if !ok {
		return Route{}, fmt.Errorf("location %s: %w", end, graph.ErrNotFound)
	}

	g := orderedGraph{WeightedUndirectedGraph: f.store.Graph(), store: f.store}
	shortest := path.DijkstraFrom(g.Node(sid), g)

	nodes, weight := shortest.To(eid)
	if len(nodes) == 0 || math.IsInf(weight, 1) {
		return Route{}, fmt.Errorf("%w: %s and %s", ErrNoPath, start, end)
	}

	route := Route{Nodes: make([]string, 0, len(nodes)), Distance: weight}
	for _, n := range nodes {
		route.Nodes = append(route.Nodes, f.store.Name(n))
	}
	return route, nil
}

// ValidateFixedRoute walks consecutive stops and returns the total distance.
// It fails with *BrokenRouteError at the first pair without a direct path.
func (f *Finder) ValidateFixedRoute(stops []string) (float64, error) {
	if len(stops) < 2 {
		return 0, fmt.Errorf("%w: got %d", ErrRouteTooShort, len(stops))
	}

	total := 0.0
	for i := 0; i+1 < len(stops); i++ {
		w, err := f.store.Weight(stops[i], stops[i+1])
		if err != nil {
			return 0, &BrokenRouteError{From: stops[i], To: stops[i+1]}
		}
		total += w
	}
	return total, nil
}

// orderedGraph yields neighbours sorted by location name
type orderedGraph struct {
	*simple.WeightedUndirectedGraph
	store *graph.Store
}

func (g orderedGraph) From(id int64) gonum.Nodes {
	nodes := gonum.NodesOf(g.WeightedUndirectedGraph.From(id))
	sort.Slice(nodes, func(i, j int) bool {
		return g.store.Name(nodes[i]) < g.store.Name(nodes[j])
	})
	return iterator.NewOrderedNodes(nodes)
}
