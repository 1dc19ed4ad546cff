package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ritzau/campus-nav/pkg/logging"
	"github.com/ritzau/campus-nav/pkg/records"
)

// ChangeType represents the type of file change detected
type ChangeType int

const (
	ChangeTypeNodes ChangeType = iota
	ChangeTypeEdges
)

func (t ChangeType) String() string {
	switch t {
	case ChangeTypeNodes:
		return "nodes"
	case ChangeTypeEdges:
		return "edges"
	default:
		return fmt.Sprintf("ChangeType(%d)", int(t))
	}
}

// ChangeEvent represents a batch of file system changes
type ChangeEvent struct {
	Type      ChangeType
	Paths     []string
	Timestamp time.Time
}

const batchWindow = 100 * time.Millisecond

// FileWatcher watches the record files of a data directory
type FileWatcher struct {
	watcher *fsnotify.Watcher
	files   map[string]ChangeType // cleaned absolute path -> table
	events  chan ChangeEvent
	done    chan struct{}
}

// NewFileWatcher creates a new file system watcher for the files of dir
func NewFileWatcher(dir records.Dir) (*FileWatcher, error) {
	files := make(map[string]ChangeType, 2)
	for path, typ := range map[string]ChangeType{dir.Nodes: ChangeTypeNodes, dir.Edges: ChangeTypeEdges} {
		if path == "" {
			continue
		}
		abs, err := filepath.Abs(path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		files[abs] = typ
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no record files to watch")
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}

	fw := &FileWatcher{
		watcher: watcher,
		files:   files,
		events:  make(chan ChangeEvent, 100),
		done:    make(chan struct{}),
	}

	return fw, nil
}

// Start begins watching for file changes. The parent directories are watched
// rather than the files so that editors replacing a file by rename are seen.
func (fw *FileWatcher) Start(ctx context.Context) error {
	dirs := make(map[string]bool)
	for path := range fw.files {
		dirs[filepath.Dir(path)] = true
	}

	for dir := range dirs {
		if err := fw.watcher.Add(dir); err != nil {
			fw.watcher.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	logging.Info("started watching record files", "files", len(fw.files), "directories", len(dirs))

	// Process events
	go fw.processEvents(ctx)

	return nil
}

// processEvents processes file system events and batches them by table
func (fw *FileWatcher) processEvents(ctx context.Context) {
	defer close(fw.done)
	defer close(fw.events)
	defer fw.watcher.Close()

	// Batch events to avoid sending one event per write
	pending := make(map[ChangeType][]string)

	flushTimer := time.NewTimer(batchWindow)
	flushTimer.Stop()

	flush := func() {
		for _, typ := range []ChangeType{ChangeTypeNodes, ChangeTypeEdges} {
			if paths := pending[typ]; len(paths) > 0 {
				fw.events <- ChangeEvent{
					Type:      typ,
					Paths:     paths,
					Timestamp: time.Now(),
				}
			}
		}
		pending = make(map[ChangeType][]string)
	}

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			// Permission changes do not alter content
			if event.Op == fsnotify.Chmod {
				continue
			}

			typ, watched := fw.files[filepath.Clean(event.Name)]
			if !watched {
				continue
			}
			logging.Trace("record file event", "path", event.Name, "op", event.Op.String())
			if !slices.Contains(pending[typ], event.Name) {
				pending[typ] = append(pending[typ], event.Name)
			}
			flushTimer.Reset(batchWindow)

		case <-flushTimer.C:
			flush()

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			logging.Error("watcher error", "error", err)
		}
	}
}

// Events returns the channel of change events
func (fw *FileWatcher) Events() <-chan ChangeEvent {
	return fw.events
}

// Done is closed once the watcher has stopped
func (fw *FileWatcher) Done() <-chan struct{} {
	return fw.done
}
