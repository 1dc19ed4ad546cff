package watcher

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/ritzau/campus-nav/pkg/importer"
	"github.com/ritzau/campus-nav/pkg/logging"
	"github.com/ritzau/campus-nav/pkg/model"
	"github.com/ritzau/campus-nav/pkg/records"
)

// Importer applies records to the live map
type Importer interface {
	Import(nodes []model.NodeRecord, edges []model.EdgeRecord, mode importer.Mode) (importer.Summary, error)
}

// ReloadPlan describes which record files need to be re-read
type ReloadPlan struct {
	Nodes        bool
	Edges        bool
	ChangedFiles []string
}

// PlanReload determines which tables to read for a change. A merge only needs
// the table that changed; an overwrite needs both, or it would drop the other.
func PlanReload(event ChangeEvent, mode importer.Mode) ReloadPlan {
	plan := ReloadPlan{
		ChangedFiles: event.Paths,
	}

	switch event.Type {
	case ChangeTypeNodes:
		plan.Nodes = true
	case ChangeTypeEdges:
		plan.Edges = true
	}

	if mode == importer.ModeOverwrite {
		plan.Nodes = true
		plan.Edges = true
	}

	return plan
}

// Syncer imports changed record files into the live map
type Syncer struct {
	dir    records.Dir
	target Importer
	mode   importer.Mode
}

// NewSyncer creates a syncer reading from dir and importing into target
func NewSyncer(dir records.Dir, target Importer, mode importer.Mode) *Syncer {
	return &Syncer{dir: dir, target: target, mode: mode}
}

// Run applies every event until events is closed or ctx is done.
// Rejected imports are logged and leave the map unchanged.
func (s *Syncer) Run(ctx context.Context, events <-chan ChangeEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			plan := PlanReload(event, s.mode)
			summary, err := s.Apply(plan)
			if err != nil {
				logging.Warn("record files not imported", "files", len(plan.ChangedFiles), "error", err)
				continue
			}
			logging.Info("record files imported",
				"table", event.Type.String(),
				"mode", string(s.mode),
				"nodesAdded", summary.NodesAdded,
				"edgesAdded", summary.EdgesAdded,
			)
		}
	}
}

// Apply reads the planned tables and imports them
func (s *Syncer) Apply(plan ReloadPlan) (importer.Summary, error) {
	var (
		nodes []model.NodeRecord
		edges []model.EdgeRecord
		err   error
	)
	if plan.Nodes {
		if nodes, err = s.dir.LoadNodes(); err != nil {
			return importer.Summary{}, fmt.Errorf("reading locations: %w", err)
		}
	}
	if plan.Edges {
		// A missing edge file means no paths, as when loading at startup
		edges, err = s.dir.LoadEdges()
		if errors.Is(err, os.ErrNotExist) {
			edges, err = nil, nil
		}
		if err != nil {
			return importer.Summary{}, fmt.Errorf("reading paths: %w", err)
		}
	}
	return s.target.Import(nodes, edges, s.mode)
}
