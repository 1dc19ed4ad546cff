package history

import (
	"fmt"
	"testing"

	"github.com/ritzau/campus-nav/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func snap(n int) model.Snapshot {
	return model.Snapshot{
		Locations: []model.Location{{Name: fmt.Sprintf("loc%d", n), X: float64(n)}},
		Paths:     []model.Path{},
	}
}

func TestUndoRedoRoundTrip(t *testing.T) {
	m := NewManager(snap(0), DefaultLimit)
	for i := 1; i <= 5; i++ {
		m.Commit(snap(i))
	}

	for i := 4; i >= 0; i-- {
		s, ok := m.Undo()
		require.True(t, ok)
		assert.Equal(t, snap(i), s)
	}

	_, ok := m.Undo()
	assert.False(t, ok, "base snapshot is never undone")
	assert.Equal(t, snap(0), m.Current())

	for i := 1; i <= 5; i++ {
		s, ok := m.Redo()
		require.True(t, ok)
		assert.Equal(t, snap(i), s)
	}

	_, ok = m.Redo()
	assert.False(t, ok)
}

func TestCommitDiscardsRedo(t *testing.T) {
	m := NewManager(snap(0), DefaultLimit)
	m.Commit(snap(1))
	m.Commit(snap(2))

	_, ok := m.Undo()
	require.True(t, ok)
	assert.True(t, m.CanRedo())

	m.Commit(snap(3))
	assert.False(t, m.CanRedo())
	_, ok = m.Redo()
	assert.False(t, ok)

	s, ok := m.Undo()
	require.True(t, ok)
	assert.Equal(t, snap(1), s)
}

func TestLimitEvictsOldest(t *testing.T) {
	m := NewManager(snap(0), DefaultLimit)
	for i := 1; i <= 30; i++ {
		m.Commit(snap(i))
		undo, _ := m.Depth()
		assert.LessOrEqual(t, undo, DefaultLimit)
	}

	undone := 0
	var last model.Snapshot
	for {
		s, ok := m.Undo()
		if !ok {
			break
		}
		last = s
		undone++
	}
	assert.Equal(t, DefaultLimit-1, undone)
	assert.Equal(t, snap(30-DefaultLimit+1), last)
}

func TestSnapshotsAreIndependent(t *testing.T) {
	live := snap(1)
	m := NewManager(snap(0), DefaultLimit)
	m.Commit(live)

	// Mutating the caller's copy must not reach into history
	live.Locations[0].Name = "mutated"
	assert.Equal(t, "loc1", m.Current().Locations[0].Name)

	// Nor may mutating a returned snapshot
	cur := m.Current()
	cur.Locations[0].X = 42
	assert.Equal(t, 1.0, m.Current().Locations[0].X)

	s, ok := m.Undo()
	require.True(t, ok)
	s.Locations[0].Name = "changed"
	redone, ok := m.Redo()
	require.True(t, ok)
	assert.Equal(t, "loc1", redone.Locations[0].Name)
}

func TestReset(t *testing.T) {
	m := NewManager(snap(0), 3)
	m.Commit(snap(1))
	m.Reset(snap(9))

	assert.False(t, m.CanUndo())
	assert.False(t, m.CanRedo())
	assert.Equal(t, snap(9), m.Current())
}
