package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/ritzau/campus-nav/pkg/campus"
	"github.com/ritzau/campus-nav/pkg/config"
	"github.com/ritzau/campus-nav/pkg/engine"
	"github.com/ritzau/campus-nav/pkg/graph"
	"github.com/ritzau/campus-nav/pkg/importer"
	"github.com/ritzau/campus-nav/pkg/logging"
	"github.com/ritzau/campus-nav/pkg/model"
	"github.com/ritzau/campus-nav/pkg/output"
	"github.com/ritzau/campus-nav/pkg/pubsub"
	"github.com/ritzau/campus-nav/pkg/records"
	"github.com/ritzau/campus-nav/pkg/selection"
	"github.com/ritzau/campus-nav/pkg/watcher"
	"github.com/ritzau/campus-nav/pkg/web"
)

const (
	quietPeriod = 300 * time.Millisecond
	maxWait     = 2 * time.Second
)

func main() {
	flags := pflag.NewFlagSet("campus-nav", pflag.ExitOnError)
	config.RegisterFlags(flags)
	_ = flags.Parse(os.Args[1:])

	cfg, err := config.Load(flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	level, err := logging.ParseLevel(cfg.Verbosity, cfg.VerboseCnt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logging.Configure(os.Stderr, level, cfg.JSONLogs)

	if err := run(cfg); err != nil {
		logging.Fatal("campus-nav failed", "error", err)
	}
}

func run(cfg *config.Config) error {
	mode, err := importer.ParseMode(cfg.ImportMode)
	if err != nil {
		return err
	}

	initial, loaded, err := loadInitial(cfg.Data)
	if err != nil {
		return err
	}

	routes := cfg.Routes
	if len(routes) == 0 {
		routes = campus.RecommendedRoutes()
	}

	var publisher *pubsub.SSEPublisher
	if cfg.WebMode {
		publisher = web.NewPublisher()
	}

	opts := engine.Options{
		HistoryLimit: cfg.HistoryLimit,
		Selection: selection.Options{
			NodeRadius:    cfg.Selection.NodeRadius,
			EdgeTolerance: cfg.Selection.EdgeTolerance,
			NearestNode:   cfg.Selection.NearestNode,
		},
		Defaults: campus.DefaultPositions(),
		Routes:   routes,
	}
	if publisher != nil {
		opts.Publisher = publisher
	}

	e, err := engine.New(initial, opts)
	if err != nil {
		return fmt.Errorf("building map: %w", err)
	}

	switch {
	case cfg.Export != "":
		return export(e, cfg.Export)
	case cfg.WebMode:
		return serve(cfg, e, publisher, mode)
	default:
		return console(cfg, e, loaded)
	}
}

// loadInitial reads the configured record files, or returns the built-in campus.
// The summary is nil for the built-in campus.
func loadInitial(data config.DataConfig) (model.Snapshot, *importer.Summary, error) {
	if data.Nodes == "" {
		if data.Edges != "" {
			return model.Snapshot{}, nil, errors.New("--edges needs --nodes")
		}
		logging.Debug("using built-in campus map")
		return campus.Seed(), nil, nil
	}

	dir := records.Dir{Nodes: data.Nodes, Edges: data.Edges}
	nodes, edges, err := dir.Load()
	if err != nil {
		return model.Snapshot{}, nil, fmt.Errorf("reading records: %w", err)
	}

	store := graph.NewStore()
	summary, err := importer.NewMerger(campus.DefaultPositions()).Apply(store, nodes, edges, importer.ModeOverwrite)
	if err != nil {
		return model.Snapshot{}, nil, fmt.Errorf("importing %s: %w", data.Nodes, err)
	}
	logging.Info("loaded records",
		"nodes", data.Nodes,
		"locations", summary.NodesAdded,
		"paths", summary.EdgesAdded,
		"duplicates", summary.EdgesSkipped,
	)
	return store.Snapshot(), &summary, nil
}

func export(e *engine.Engine, dir string) error {
	nodes, edges := e.Export()
	target := records.NewDir(dir)
	if err := target.Save(nodes, edges); err != nil {
		return fmt.Errorf("exporting to %s: %w", dir, err)
	}
	logging.Info("exported records", "nodes", target.Nodes, "edges", target.Edges)
	return nil
}

func console(cfg *config.Config, e *engine.Engine, loaded *importer.Summary) error {
	if cfg.From == "" && cfg.To == "" {
		if loaded != nil {
			output.PrintImportSummary(os.Stdout, *loaded)
			fmt.Println()
		}
		output.PrintStats(os.Stdout, e.Stats())
		fmt.Println()
		output.PrintRouteChecks(os.Stdout, e.RecommendedRoutes())
		return nil
	}
	if cfg.From == "" || cfg.To == "" {
		return errors.New("--from and --to must be given together")
	}

	route, err := e.ShortestPath(cfg.From, cfg.To)
	output.PrintRoute(os.Stdout, cfg.From, cfg.To, route, err)
	if err != nil {
		os.Exit(2)
	}
	return nil
}

func serve(cfg *config.Config, e *engine.Engine, publisher *pubsub.SSEPublisher, mode importer.Mode) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := web.NewServer(e, publisher, mode)

	if cfg.Watch {
		if cfg.Data.Nodes == "" {
			return errors.New("--watch needs --nodes")
		}
		if err := startWatcher(ctx, records.Dir{Nodes: cfg.Data.Nodes, Edges: cfg.Data.Edges}, server, mode); err != nil {
			return err
		}
	}

	errs := make(chan error, 1)
	go func() {
		errs <- server.Start(cfg.Port)
	}()

	select {
	case err := <-errs:
		return err
	case <-ctx.Done():
	}

	logging.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// startWatcher imports record files into the live map whenever they change
func startWatcher(ctx context.Context, dir records.Dir, target watcher.Importer, mode importer.Mode) error {
	fw, err := watcher.NewFileWatcher(dir)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		return err
	}

	debouncer := watcher.NewDebouncer(fw.Events(), quietPeriod, maxWait)
	debouncer.Start(ctx)

	go watcher.NewSyncer(dir, target, mode).Run(ctx, debouncer.Output())
	return nil
}
