// Package graph holds the campus graph: named locations connected by
// undirected weighted paths. Store is the single source of truth for the
// engine; every mutation either succeeds completely or leaves it unchanged.
package graph

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ritzau/campus-nav/pkg/model"
	gonum "gonum.org/v1/gonum/graph"
	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// Store represents the campus graph
type Store struct {
	graph  *simple.WeightedUndirectedGraph
	nodes  map[string]*model.Location // Map from name to location
	ids    map[string]int64           // Map from name to graph ID
	names  map[int64]string           // Map from graph ID to name
	order  []string                   // Insertion order, used for hit-testing and listing
	nextID int64
}

// NewStore creates an empty campus graph
func NewStore() *Store {
	return &Store{
		graph: simple.NewWeightedUndirectedGraph(0, math.Inf(1)),
		nodes: make(map[string]*model.Location),
		ids:   make(map[string]int64),
		names: make(map[int64]string),
	}
}

// FromSnapshot builds a new store from a snapshot.
// Paths referencing unknown locations fail with ErrNotFound.
func FromSnapshot(s model.Snapshot) (*Store, error) {
	st := NewStore()
	for _, loc := range s.Locations {
		if err := st.AddNode(loc.Name, loc.X, loc.Y, loc.Introduction); err != nil {
			return nil, err
		}
	}
	for _, p := range s.Paths {
		if err := st.AddEdge(p.From, p.To, p.Weight); err != nil {
			return nil, err
		}
	}
	return st, nil
}

// AddNode adds a location to the graph. Surrounding whitespace is stripped
// from the name and introduction; an empty introduction is replaced by
// model.DefaultIntroduction.
func (s *Store) AddNode(name string, x, y float64, intro string) error {
	name = CleanName(name)
	if name == "" {
		return ErrInvalidName
	}
	if _, exists := s.nodes[name]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, name)
	}
	intro = cleanIntroduction(intro)

	s.nodes[name] = &model.Location{Name: name, X: x, Y: y, Introduction: intro}
	s.ids[name] = s.nextID
	s.names[s.nextID] = name
	s.order = append(s.order, name)

	s.graph.AddNode(simple.Node(s.nextID))
	s.nextID++
	return nil
}

// RenameNode gives a location a new name. Paths, position, introduction and
// iteration order are preserved.
func (s *Store) RenameNode(oldName, newName string) error {
	loc, exists := s.nodes[oldName]
	if !exists {
		return fmt.Errorf("location %s: %w", oldName, ErrNotFound)
	}
	newName = CleanName(newName)
	if newName == "" {
		return ErrInvalidName
	}
	if newName == oldName {
		return nil
	}
	if _, taken := s.nodes[newName]; taken {
		return fmt.Errorf("%w: %s", ErrDuplicateNode, newName)
	}

	// Graph IDs are stable, so edges follow the rename for free
	id := s.ids[oldName]
	delete(s.nodes, oldName)
	delete(s.ids, oldName)
	loc.Name = newName
	s.nodes[newName] = loc
	s.ids[newName] = id
	s.names[id] = newName

	for i, name := range s.order {
		if name == oldName {
			s.order[i] = newName
			break
		}
	}
	return nil
}

// MoveNode updates the position of a location
func (s *Store) MoveNode(name string, x, y float64) error {
	loc, exists := s.nodes[name]
	if !exists {
		return fmt.Errorf("location %s: %w", name, ErrNotFound)
	}
	loc.X, loc.Y = x, y
	return nil
}

// SetIntroduction replaces the description of a location
func (s *Store) SetIntroduction(name, intro string) error {
	loc, exists := s.nodes[name]
	if !exists {
		return fmt.Errorf("location %s: %w", name, ErrNotFound)
	}
	loc.Introduction = cleanIntroduction(intro)
	return nil
}

// CleanName is the stored form of a location name. Record files trim their
// cells, so names are kept trimmed to survive an export and re-import.
func CleanName(name string) string {
	return strings.TrimSpace(name)
}

func cleanIntroduction(intro string) string {
	intro = strings.TrimSpace(intro)
	if intro == "" {
		return model.DefaultIntroduction
	}
	return intro
}

// RemoveNode removes a location together with every path touching it
func (s *Store) RemoveNode(name string) error {
	id, exists := s.ids[name]
	if !exists {
		return fmt.Errorf("location %s: %w", name, ErrNotFound)
	}

	// Removing the gonum node drops all incident edges
	s.graph.RemoveNode(id)

	delete(s.nodes, name)
	delete(s.ids, name)
	delete(s.names, id)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// AddEdge connects two locations with a path of the given weight
func (s *Store) AddEdge(u, v string, weight float64) error {
	uid, vid, err := s.endpoints(u, v)
	if err != nil {
		return err
	}
	if err := checkWeight(weight); err != nil {
		return err
	}
	if u == v {
		return fmt.Errorf("%w: %s", ErrSelfLoop, u)
	}
	if s.graph.HasEdgeBetween(uid, vid) {
		return fmt.Errorf("%w: %s", ErrDuplicateEdge, model.NewEdgeKey(u, v))
	}

	s.graph.SetWeightedEdge(s.graph.NewWeightedEdge(simple.Node(uid), simple.Node(vid), weight))
	return nil
}

// UpdateEdgeWeight changes the weight of an existing path
func (s *Store) UpdateEdgeWeight(u, v string, weight float64) error {
	uid, vid, err := s.edge(u, v)
	if err != nil {
		return err
	}
	if err := checkWeight(weight); err != nil {
		return err
	}

	s.graph.SetWeightedEdge(s.graph.NewWeightedEdge(simple.Node(uid), simple.Node(vid), weight))
	return nil
}

// RemoveEdge removes the path between two locations
func (s *Store) RemoveEdge(u, v string) error {
	uid, vid, err := s.edge(u, v)
	if err != nil {
		return err
	}
	s.graph.RemoveEdge(uid, vid)
	return nil
}

// Replace swaps the whole graph for the contents of a snapshot.
// The snapshot is validated first, so a failure leaves the store untouched.
func (s *Store) Replace(snap model.Snapshot) error {
	fresh, err := FromSnapshot(snap)
	if err != nil {
		return err
	}
	*s = *fresh
	return nil
}

// HasNode reports whether a location exists
func (s *Store) HasNode(name string) bool {
	_, exists := s.nodes[name]
	return exists
}

// Location returns a copy of the named location
func (s *Store) Location(name string) (model.Location, error) {
	loc, exists := s.nodes[name]
	if !exists {
		return model.Location{}, fmt.Errorf("location %s: %w", name, ErrNotFound)
	}
	return *loc, nil
}

// Locations returns all locations in insertion order
func (s *Store) Locations() []model.Location {
	locs := make([]model.Location, 0, len(s.order))
	for _, name := range s.order {
		locs = append(locs, *s.nodes[name])
	}
	return locs
}

// Weight returns the weight of the path between u and v
func (s *Store) Weight(u, v string) (float64, error) {
	uid, vid, err := s.edge(u, v)
	if err != nil {
		return 0, err
	}
	w, _ := s.graph.Weight(uid, vid)
	return w, nil
}

// HasEdge reports whether a path connects u and v
func (s *Store) HasEdge(u, v string) bool {
	_, _, err := s.edge(u, v)
	return err == nil
}

// Paths returns all paths sorted by canonical key
func (s *Store) Paths() []model.Path {
	paths := make([]model.Path, 0, s.graph.Edges().Len())

	iter := s.graph.WeightedEdges()
	for iter.Next() {
		e := iter.WeightedEdge()
		paths = append(paths, model.Path{
			From:   s.names[e.From().ID()],
			To:     s.names[e.To().ID()],
			Weight: e.Weight(),
		})
	}

	model.SortPaths(paths)
	return paths
}

// Len returns the number of locations and paths
func (s *Store) Len() (nodes, edges int) {
	return len(s.nodes), s.graph.Edges().Len()
}

// Snapshot returns an independent copy of the graph
func (s *Store) Snapshot() model.Snapshot {
	return model.Snapshot{
		Locations: s.Locations(),
		Paths:     s.Paths(),
	}
}

// Components returns the connected components as sorted name lists,
// largest component first.
func (s *Store) Components() [][]string {
	var comps [][]string
	for _, cc := range topo.ConnectedComponents(s.graph) {
		names := make([]string, 0, len(cc))
		for _, n := range cc {
			names = append(names, s.names[n.ID()])
		}
		sort.Strings(names)
		comps = append(comps, names)
	}

	sort.Slice(comps, func(i, j int) bool {
		if len(comps[i]) != len(comps[j]) {
			return len(comps[i]) > len(comps[j])
		}
		return comps[i][0] < comps[j][0]
	})
	return comps
}

// Graph returns the underlying weighted undirected graph
func (s *Store) Graph() *simple.WeightedUndirectedGraph {
	return s.graph
}

// ID returns the graph ID of a location
func (s *Store) ID(name string) (int64, bool) {
	id, exists := s.ids[name]
	return id, exists
}

// Name returns the location name for a graph node
func (s *Store) Name(n gonum.Node) string {
	return s.names[n.ID()]
}

// endpoints resolves both names to graph IDs
func (s *Store) endpoints(u, v string) (int64, int64, error) {
	uid, ok := s.ids[u]
	if !ok {
		return 0, 0, fmt.Errorf("location %s: %w", u, ErrNotFound)
	}
	vid, ok := s.ids[v]
	if !ok {
		return 0, 0, fmt.Errorf("location %s: %w", v, ErrNotFound)
	}
	return uid, vid, nil
}

// edge resolves an existing path to its endpoint IDs
func (s *Store) edge(u, v string) (int64, int64, error) {
	uid, vid, err := s.endpoints(u, v)
	if err != nil || u == v || !s.graph.HasEdgeBetween(uid, vid) {
		return 0, 0, fmt.Errorf("path %s: %w", model.NewEdgeKey(u, v), ErrNotFound)
	}
	return uid, vid, nil
}

func checkWeight(w float64) error {
	if math.IsNaN(w) || math.IsInf(w, 0) || w <= 0 {
		return fmt.Errorf("%w: %v", ErrInvalidWeight, w)
	}
	return nil
}
