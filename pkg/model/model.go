package model

import "fmt"

// DefaultIntroduction is shown for locations that were created without a description.
const DefaultIntroduction = "无介绍信息"

// Location represents a named point of interest on the campus map.
// Coordinates are in map pixel space (origin top-left).
type Location struct {
	Name         string  `json:"name"`
	X            float64 `json:"x"`
	Y            float64 `json:"y"`
	Introduction string  `json:"introduction"`
}

// Path represents an undirected, positively weighted connection between two locations.
type Path struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Weight float64 `json:"weight"` // Distance in metres
}

// Key returns the canonical key of the path.
func (p Path) Key() EdgeKey {
	return NewEdgeKey(p.From, p.To)
}

// EdgeKey identifies an undirected path independent of endpoint order.
// A is always the lexicographically smaller endpoint.
type EdgeKey struct {
	A string `json:"a"`
	B string `json:"b"`
}

// NewEdgeKey returns the canonical key for the unordered pair (u, v).
func NewEdgeKey(u, v string) EdgeKey {
	if v < u {
		u, v = v, u
	}
	return EdgeKey{A: u, B: v}
}

// Has reports whether name is one of the key's endpoints.
func (k EdgeKey) Has(name string) bool {
	return k.A == name || k.B == name
}

// Other returns the endpoint opposite to name.
func (k EdgeKey) Other(name string) string {
	if k.A == name {
		return k.B
	}
	return k.A
}

func (k EdgeKey) String() string {
	return fmt.Sprintf("%s|%s", k.A, k.B)
}

// NodeRecord is the tabular shape of a location as read from or written to a record file.
// Nil coordinates mark a missing field.
type NodeRecord struct {
	Name         string   `json:"name"`
	X            *float64 `json:"x,omitempty"`
	Y            *float64 `json:"y,omitempty"`
	Introduction string   `json:"introduction,omitempty"`
}

// EdgeRecord is the tabular shape of a path. A nil weight marks a missing field.
type EdgeRecord struct {
	From   string   `json:"u"`
	To     string   `json:"v"`
	Weight *float64 `json:"weight,omitempty"`
}

// Float returns a pointer to v, for building records.
func Float(v float64) *float64 {
	return &v
}
