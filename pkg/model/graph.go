package model

import "sort"

// Snapshot is a self-contained copy of the campus graph.
// It is the unit stored by the undo history and the input of bulk replacement.
// Locations keep the store's iteration order; paths are sorted by canonical key.
type Snapshot struct {
	Locations []Location `json:"locations"`
	Paths     []Path     `json:"paths"`
}

// Clone returns a deep copy that shares no memory with s.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Locations: make([]Location, len(s.Locations)),
		Paths:     make([]Path, len(s.Paths)),
	}
	copy(out.Locations, s.Locations)
	copy(out.Paths, s.Paths)
	return out
}

// Records converts the snapshot into tabular records for export.
func (s Snapshot) Records() ([]NodeRecord, []EdgeRecord) {
	nodes := make([]NodeRecord, 0, len(s.Locations))
	for _, loc := range s.Locations {
		nodes = append(nodes, NodeRecord{
			Name:         loc.Name,
			X:            Float(loc.X),
			Y:            Float(loc.Y),
			Introduction: loc.Introduction,
		})
	}

	edges := make([]EdgeRecord, 0, len(s.Paths))
	for _, p := range s.Paths {
		edges = append(edges, EdgeRecord{From: p.From, To: p.To, Weight: Float(p.Weight)})
	}
	return nodes, edges
}

// SortPaths orders paths by canonical key and normalises their endpoint order.
func SortPaths(paths []Path) {
	for i := range paths {
		k := paths[i].Key()
		paths[i].From, paths[i].To = k.A, k.B
	}
	sort.Slice(paths, func(i, j int) bool {
		if paths[i].From != paths[j].From {
			return paths[i].From < paths[j].From
		}
		return paths[i].To < paths[j].To
	})
}
