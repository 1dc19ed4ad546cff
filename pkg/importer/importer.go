// Package importer reconciles externally supplied location and path records
// with the live graph, either replacing it or merging into it.
package importer

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/ritzau/campus-nav/pkg/graph"
	"github.com/ritzau/campus-nav/pkg/logging"
	"github.com/ritzau/campus-nav/pkg/model"
)

// Mode selects how incoming records are applied
type Mode string

const (
	// ModeOverwrite replaces the graph with the incoming records
	ModeOverwrite Mode = "overwrite"
	// ModeMerge upserts locations and adds paths whose key is not yet present
	ModeMerge Mode = "merge"
)

// ParseMode converts a user supplied string into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeOverwrite:
		return ModeOverwrite, nil
	case ModeMerge, "":
		return ModeMerge, nil
	default:
		return "", fmt.Errorf("unknown import mode %q (want %q or %q)", s, ModeOverwrite, ModeMerge)
	}
}

// ErrMissingField is wrapped by a MergeError for a record lacking a required column
var ErrMissingField = errors.New("missing required field")

// MergeError reports why an import was rejected. Nothing is applied when it is returned.
type MergeError struct {
	Record string // "node", "edge" or "graph"
	Index  int    // Position of the offending record, -1 when not tied to one record
	Err    error
}

func (e *MergeError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("import failed: %v", e.Err)
	}
	return fmt.Sprintf("import failed: %s record %d: %v", e.Record, e.Index+1, e.Err)
}

func (e *MergeError) Unwrap() error {
	return e.Err
}

// Summary describes what an import changed
type Summary struct {
	Mode             Mode `json:"mode"`
	NodesAdded       int  `json:"nodesAdded"`
	NodesUpdated     int  `json:"nodesUpdated"`
	EdgesAdded       int  `json:"edgesAdded"`
	EdgesSkipped     int  `json:"edgesSkipped"`     // Duplicate keys, first write wins
	DefaultsInjected int  `json:"defaultsInjected"` // Well-known locations added from the default table
}

// Merger applies record sets to a graph store
type Merger struct {
	defaults []model.Location
	index    map[string]model.Location
}

// NewMerger creates a merger. defaults holds fallback positions for well-known
// locations that fixed routes rely on but a data set may not ship.
func NewMerger(defaults []model.Location) *Merger {
	m := &Merger{
		defaults: append([]model.Location(nil), defaults...),
		index:    make(map[string]model.Location, len(defaults)),
	}
	for _, d := range defaults {
		m.index[d.Name] = d
	}
	return m
}

// Apply imports records into store. On error the store is left untouched.
func (m *Merger) Apply(store *graph.Store, nodes []model.NodeRecord, edges []model.EdgeRecord, mode Mode) (Summary, error) {
	locs, err := m.locations(nodes)
	if err != nil {
		return Summary{}, err
	}
	paths, err := validatePaths(edges)
	if err != nil {
		return Summary{}, err
	}

	var (
		snap    model.Snapshot
		summary Summary
	)
	switch mode {
	case ModeOverwrite:
		snap, summary = overwrite(locs, paths)
	case ModeMerge:
		snap, summary = m.merge(store.Snapshot(), locs, paths)
	default:
		return Summary{}, &MergeError{Record: "graph", Index: -1, Err: fmt.Errorf("unknown import mode %q", mode)}
	}

	if err := store.Replace(snap); err != nil {
		return Summary{}, &MergeError{Record: "graph", Index: -1, Err: err}
	}

	logging.Debug("records imported",
		"mode", string(mode),
		"nodesAdded", summary.NodesAdded,
		"nodesUpdated", summary.NodesUpdated,
		"edgesAdded", summary.EdgesAdded,
		"edgesSkipped", summary.EdgesSkipped,
	)
	return summary, nil
}

// locations validates node records, filling missing coordinates from the default table
func (m *Merger) locations(records []model.NodeRecord) ([]model.Location, error) {
	locs := make([]model.Location, 0, len(records))
	for i, r := range records {
		name := strings.TrimSpace(r.Name)
		if name == "" {
			return nil, &MergeError{Record: "node", Index: i, Err: graph.ErrInvalidName}
		}

		loc := model.Location{Name: name, Introduction: r.Introduction}
		if r.X != nil && r.Y != nil {
			loc.X, loc.Y = *r.X, *r.Y
		} else if d, ok := m.index[name]; ok {
			loc.X, loc.Y = d.X, d.Y
		} else {
			field := "x"
			if r.X != nil {
				field = "y"
			}
			return nil, &MergeError{Record: "node", Index: i, Err: fmt.Errorf("%w: %s of %s", ErrMissingField, field, name)}
		}
		locs = append(locs, loc)
	}
	return locs, nil
}

func validatePaths(records []model.EdgeRecord) ([]model.Path, error) {
	paths := make([]model.Path, 0, len(records))
	for i, r := range records {
		from, to := strings.TrimSpace(r.From), strings.TrimSpace(r.To)

		var err error
		switch {
		case from == "":
			err = fmt.Errorf("%w: u", ErrMissingField)
		case to == "":
			err = fmt.Errorf("%w: v", ErrMissingField)
		case r.Weight == nil:
			err = fmt.Errorf("%w: weight", ErrMissingField)
		case math.IsNaN(*r.Weight) || math.IsInf(*r.Weight, 0) || *r.Weight <= 0:
			err = fmt.Errorf("%w: %v", graph.ErrInvalidWeight, *r.Weight)
		case from == to:
			err = fmt.Errorf("%w: %s", graph.ErrSelfLoop, from)
		}
		if err != nil {
			return nil, &MergeError{Record: "edge", Index: i, Err: err}
		}

		paths = append(paths, model.Path{From: from, To: to, Weight: *r.Weight})
	}
	return paths, nil
}

// overwrite builds a graph from incoming records only.
// Paths are trusted to reference incoming locations; the store rejects them otherwise.
func overwrite(locs []model.Location, paths []model.Path) (model.Snapshot, Summary) {
	summary := Summary{Mode: ModeOverwrite}
	snap := model.Snapshot{}

	pos := make(map[string]int)
	for _, loc := range locs {
		if i, seen := pos[loc.Name]; seen {
			snap.Locations[i] = loc
			continue
		}
		pos[loc.Name] = len(snap.Locations)
		snap.Locations = append(snap.Locations, loc)
		summary.NodesAdded++
	}

	seen := make(map[model.EdgeKey]bool)
	for _, p := range paths {
		if seen[p.Key()] {
			summary.EdgesSkipped++
			continue
		}
		seen[p.Key()] = true
		snap.Paths = append(snap.Paths, p)
		summary.EdgesAdded++
	}
	return snap, summary
}

// merge upserts locations into base and adds paths with unseen keys
func (m *Merger) merge(base model.Snapshot, locs []model.Location, paths []model.Path) (model.Snapshot, Summary) {
	summary := Summary{Mode: ModeMerge}
	snap := base.Clone()

	pos := make(map[string]int, len(snap.Locations))
	for i, loc := range snap.Locations {
		pos[loc.Name] = i
	}
	added := make(map[string]bool)

	for _, loc := range locs {
		if i, exists := pos[loc.Name]; exists {
			snap.Locations[i] = loc
			if !added[loc.Name] {
				summary.NodesUpdated++
			}
			continue
		}
		pos[loc.Name] = len(snap.Locations)
		added[loc.Name] = true
		snap.Locations = append(snap.Locations, loc)
		summary.NodesAdded++
	}

	seen := make(map[model.EdgeKey]bool, len(snap.Paths))
	for _, p := range snap.Paths {
		seen[p.Key()] = true
	}
	for _, p := range paths {
		if seen[p.Key()] {
			summary.EdgesSkipped++
			continue
		}
		seen[p.Key()] = true
		snap.Paths = append(snap.Paths, p)
		summary.EdgesAdded++
	}

	// Well-known locations keep fixed routes resolvable on partial data sets
	for _, d := range m.defaults {
		if _, exists := pos[d.Name]; exists {
			continue
		}
		pos[d.Name] = len(snap.Locations)
		snap.Locations = append(snap.Locations, d)
		summary.DefaultsInjected++
	}

	return snap, summary
}
