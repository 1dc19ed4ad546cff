package watcher

import (
	"context"
	"slices"
	"time"

	"github.com/ritzau/campus-nav/pkg/logging"
)

// Debouncer batches rapid file system events so that a save touching both
// record files triggers one import instead of several
type Debouncer struct {
	input       <-chan ChangeEvent
	output      chan ChangeEvent
	quietPeriod time.Duration
	maxWait     time.Duration
}

// NewDebouncer creates a new event debouncer
func NewDebouncer(input <-chan ChangeEvent, quietPeriod, maxWait time.Duration) *Debouncer {
	return &Debouncer{
		input:       input,
		output:      make(chan ChangeEvent, 10),
		quietPeriod: quietPeriod,
		maxWait:     maxWait,
	}
}

// Start begins processing events with debouncing
func (d *Debouncer) Start(ctx context.Context) {
	go d.run(ctx)
}

// run processes events and applies debouncing logic. Events are released
// after quietPeriod without input, or maxWait after the first held event.
func (d *Debouncer) run(ctx context.Context) {
	var (
		quiet       = time.NewTimer(d.quietPeriod)
		maxWait     = time.NewTimer(d.maxWait)
		waiting     bool
		accumulated = make(map[ChangeType][]string)
		eventCount  int
	)
	quiet.Stop()
	maxWait.Stop()

	flush := func() {
		quiet.Stop()
		maxWait.Stop()
		waiting = false

		if eventCount == 0 {
			return
		}

		logging.Debug("flushing accumulated events", "count", eventCount)

		// Locations first, so paths merged afterwards find their endpoints
		for _, typ := range []ChangeType{ChangeTypeNodes, ChangeTypeEdges} {
			if paths := accumulated[typ]; len(paths) > 0 {
				d.output <- ChangeEvent{
					Type:      typ,
					Paths:     paths,
					Timestamp: time.Now(),
				}
			}
		}

		// Reset accumulators
		accumulated = make(map[ChangeType][]string)
		eventCount = 0
	}

	for {
		select {
		case <-ctx.Done():
			flush()
			close(d.output)
			return

		case event, ok := <-d.input:
			if !ok {
				flush()
				close(d.output)
				return
			}

			// Accumulate event
			for _, p := range event.Paths {
				if !slices.Contains(accumulated[event.Type], p) {
					accumulated[event.Type] = append(accumulated[event.Type], p)
				}
			}
			eventCount++

			// Reset quiet period timer
			quiet.Reset(d.quietPeriod)

			// Start max wait timer on first event
			if !waiting {
				maxWait.Reset(d.maxWait)
				waiting = true
			}

		case <-quiet.C:
			flush()

		case <-maxWait.C:
			flush()
		}
	}
}

// Output returns the channel of debounced events
func (d *Debouncer) Output() <-chan ChangeEvent {
	return d.output
}
