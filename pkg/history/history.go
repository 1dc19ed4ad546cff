// Package history keeps bounded undo/redo stacks of graph snapshots.
package history

import (
	"github.com/ritzau/campus-nav/pkg/model"
)

// DefaultLimit is the number of undo snapshots kept, including the base state
const DefaultLimit = 20

// Manager stores snapshots taken after each committed edit.
// The top of the undo stack always mirrors the live graph.
type Manager struct {
	limit int
	undo  []model.Snapshot
	redo  []model.Snapshot
}

// NewManager creates a history seeded with the initial graph state
func NewManager(initial model.Snapshot, limit int) *Manager {
	if limit < 1 {
		limit = DefaultLimit
	}
	return &Manager{
		limit: limit,
		undo:  []model.Snapshot{initial.Clone()},
	}
}

// Commit records the state after an edit. The oldest snapshot is evicted once
// the limit is exceeded, and any redo branch is discarded.
func (m *Manager) Commit(s model.Snapshot) {
	m.undo = append(m.undo, s.Clone())
	if len(m.undo) > m.limit {
		m.undo = append([]model.Snapshot(nil), m.undo[len(m.undo)-m.limit:]...)
	}
	m.redo = nil
}

// Undo steps back one edit and returns the state to restore.
// It reports false when only the base snapshot is left.
func (m *Manager) Undo() (model.Snapshot, bool) {
	if len(m.undo) <= 1 {
		return model.Snapshot{}, false
	}

	top := m.undo[len(m.undo)-1]
	m.undo = m.undo[:len(m.undo)-1]
	m.redo = append(m.redo, top)

	return m.undo[len(m.undo)-1].Clone(), true
}

// Redo re-applies the most recently undone edit.
// It reports false when there is nothing to redo.
func (m *Manager) Redo() (model.Snapshot, bool) {
	if len(m.redo) == 0 {
		return model.Snapshot{}, false
	}

	s := m.redo[len(m.redo)-1]
	m.redo = m.redo[:len(m.redo)-1]
	m.undo = append(m.undo, s)

	return s.Clone(), true
}

// Current returns a copy of the snapshot on top of the undo stack
func (m *Manager) Current() model.Snapshot {
	return m.undo[len(m.undo)-1].Clone()
}

// Reset discards all history and starts over from s
func (m *Manager) Reset(s model.Snapshot) {
	m.undo = []model.Snapshot{s.Clone()}
	m.redo = nil
}

func (m *Manager) CanUndo() bool { return len(m.undo) > 1 }
func (m *Manager) CanRedo() bool { return len(m.redo) > 0 }

// Depth returns the sizes of the undo and redo stacks
func (m *Manager) Depth() (undo, redo int) {
	return len(m.undo), len(m.redo)
}
