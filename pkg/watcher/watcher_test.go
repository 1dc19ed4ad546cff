package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ritzau/campus-nav/pkg/importer"
	"github.com/ritzau/campus-nav/pkg/model"
	"github.com/ritzau/campus-nav/pkg/records"
)

type importCall struct {
	nodes []model.NodeRecord
	edges []model.EdgeRecord
	mode  importer.Mode
}

type fakeImporter struct {
	calls chan importCall
	err   error
}

func newFakeImporter() *fakeImporter {
	return &fakeImporter{calls: make(chan importCall, 10)}
}

func (f *fakeImporter) Import(nodes []model.NodeRecord, edges []model.EdgeRecord, mode importer.Mode) (importer.Summary, error) {
	f.calls <- importCall{nodes: nodes, edges: edges, mode: mode}
	if f.err != nil {
		return importer.Summary{}, f.err
	}
	return importer.Summary{Mode: mode, NodesAdded: len(nodes), EdgesAdded: len(edges)}, nil
}

func writeRecords(t *testing.T, dir records.Dir) {
	t.Helper()
	require.NoError(t, dir.Save(
		[]model.NodeRecord{
			{Name: "A", X: model.Float(0), Y: model.Float(0)},
			{Name: "B", X: model.Float(1), Y: model.Float(1)},
		},
		[]model.EdgeRecord{{From: "A", To: "B", Weight: model.Float(3)}},
	))
}

func TestPlanReload(t *testing.T) {
	edges := ChangeEvent{Type: ChangeTypeEdges, Paths: []string{"edge.csv"}}

	plan := PlanReload(edges, importer.ModeMerge)
	assert.False(t, plan.Nodes)
	assert.True(t, plan.Edges)
	assert.Equal(t, []string{"edge.csv"}, plan.ChangedFiles)

	plan = PlanReload(edges, importer.ModeOverwrite)
	assert.True(t, plan.Nodes, "overwrite always reads both tables")
	assert.True(t, plan.Edges)
}

func TestSyncerApply(t *testing.T) {
	dir := records.NewDir(t.TempDir())
	writeRecords(t, dir)
	target := newFakeImporter()

	summary, err := NewSyncer(dir, target, importer.ModeMerge).Apply(ReloadPlan{Nodes: true})
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NodesAdded)

	call := <-target.calls
	assert.Len(t, call.nodes, 2)
	assert.Nil(t, call.edges)
	assert.Equal(t, importer.ModeMerge, call.mode)

	require.NoError(t, os.Remove(dir.Nodes))
	_, err = NewSyncer(dir, target, importer.ModeMerge).Apply(ReloadPlan{Nodes: true})
	assert.ErrorIs(t, err, os.ErrNotExist)
	assert.Empty(t, target.calls, "nothing is imported when the locations are unreadable")
}

func TestSyncerOverwriteWithoutEdgeFile(t *testing.T) {
	dir := records.NewDir(t.TempDir())
	writeRecords(t, dir)
	require.NoError(t, os.Remove(dir.Edges))
	target := newFakeImporter()

	syncer := NewSyncer(dir, target, importer.ModeOverwrite)
	summary, err := syncer.Apply(PlanReload(ChangeEvent{Type: ChangeTypeNodes}, importer.ModeOverwrite))
	require.NoError(t, err)
	assert.Equal(t, 2, summary.NodesAdded)

	call := <-target.calls
	assert.Len(t, call.nodes, 2)
	assert.Empty(t, call.edges)
	assert.Equal(t, importer.ModeOverwrite, call.mode)
}

func TestSyncerRunSurvivesRejectedImport(t *testing.T) {
	dir := records.NewDir(t.TempDir())
	writeRecords(t, dir)
	target := newFakeImporter()
	target.err = errors.New("rejected")

	events := make(chan ChangeEvent, 2)
	events <- ChangeEvent{Type: ChangeTypeNodes}
	events <- ChangeEvent{Type: ChangeTypeEdges}
	close(events)

	NewSyncer(dir, target, importer.ModeOverwrite).Run(context.Background(), events)

	require.Len(t, target.calls, 2)
	for i := 0; i < 2; i++ {
		call := <-target.calls
		assert.Len(t, call.nodes, 2)
		assert.Len(t, call.edges, 1)
	}
}

func TestDebouncerBatchesBurst(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	input := make(chan ChangeEvent)
	d := NewDebouncer(input, 50*time.Millisecond, time.Second)
	d.Start(ctx)

	input <- ChangeEvent{Type: ChangeTypeEdges, Paths: []string{"edge.csv"}}
	input <- ChangeEvent{Type: ChangeTypeNodes, Paths: []string{"node.csv"}}
	input <- ChangeEvent{Type: ChangeTypeEdges, Paths: []string{"edge.csv"}}

	var got []ChangeEvent
	timeout := time.After(2 * time.Second)
	for len(got) < 2 {
		select {
		case ev := <-d.Output():
			got = append(got, ev)
		case <-timeout:
			t.Fatalf("timed out, got %d events", len(got))
		}
	}

	// Locations are released before paths, each path listed once
	assert.Equal(t, ChangeTypeNodes, got[0].Type)
	assert.Equal(t, ChangeTypeEdges, got[1].Type)
	assert.Equal(t, []string{"edge.csv"}, got[1].Paths)

	select {
	case ev := <-d.Output():
		t.Fatalf("unexpected extra event %v", ev)
	case <-time.After(150 * time.Millisecond):
	}
}

func TestDebouncerFlushesOnClose(t *testing.T) {
	input := make(chan ChangeEvent, 1)
	d := NewDebouncer(input, time.Hour, time.Hour)
	d.Start(context.Background())

	input <- ChangeEvent{Type: ChangeTypeNodes, Paths: []string{"node.csv"}}
	close(input)

	ev, ok := <-d.Output()
	require.True(t, ok)
	assert.Equal(t, ChangeTypeNodes, ev.Type)

	_, ok = <-d.Output()
	assert.False(t, ok)
}

func TestFileWatcherReportsRecordChanges(t *testing.T) {
	dir := records.NewDir(t.TempDir())
	writeRecords(t, dir)

	fw, err := NewFileWatcher(dir)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, fw.Start(ctx))

	// Unrelated files in the same directory are ignored
	require.NoError(t, os.WriteFile(filepath.Join(filepath.Dir(dir.Nodes), "notes.txt"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(dir.Edges, []byte("u,v,weight\nA,B,4\n"), 0o644))

	select {
	case ev := <-fw.Events():
		assert.Equal(t, ChangeTypeEdges, ev.Type)
		require.NotEmpty(t, ev.Paths)
		assert.Equal(t, filepath.Base(dir.Edges), filepath.Base(ev.Paths[0]))
	case <-time.After(5 * time.Second):
		t.Fatal("no change event")
	}

	cancel()
	select {
	case <-fw.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}

func TestNewFileWatcherNeedsFiles(t *testing.T) {
	_, err := NewFileWatcher(records.Dir{})
	assert.Error(t, err)
}
