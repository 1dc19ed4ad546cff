package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Pt(0, 0), Pt(3, 4)), 1e-9)
	assert.InDelta(t, 0.0, Distance(Pt(7, 7), Pt(7, 7)), 1e-9)
}

func TestPointToSegmentDistance(t *testing.T) {
	tests := []struct {
		name string
		p    Point
		a, b Point
		want float64
	}{
		{"perpendicular foot inside segment", Pt(5, 3), Pt(0, 0), Pt(10, 0), 3},
		{"point on segment", Pt(4, 0), Pt(0, 0), Pt(10, 0), 0},
		{"beyond end clamps to b", Pt(13, 4), Pt(0, 0), Pt(10, 0), 5},
		{"before start clamps to a", Pt(-3, -4), Pt(0, 0), Pt(10, 0), 5},
		{"degenerate segment", Pt(3, 4), Pt(0, 0), Pt(0, 0), 5},
		{"diagonal segment", Pt(0, 10), Pt(0, 0), Pt(10, 10), math.Sqrt(50)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, PointToSegmentDistance(tt.p, tt.a, tt.b), 1e-9)
		})
	}
}

func TestPointToSegmentDistanceIsSymmetric(t *testing.T) {
	p := Pt(3, 8)
	a, b := Pt(1, 1), Pt(9, 4)
	assert.InDelta(t, PointToSegmentDistance(p, a, b), PointToSegmentDistance(p, b, a), 1e-9)
}
