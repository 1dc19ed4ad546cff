package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/pflag"

	"github.com/ritzau/campus-nav/pkg/pathfind"
)

// FileName is the optional config file read from the working directory
const FileName = "campus-nav.toml"

const envPrefix = "CAMPUS_NAV_"

// Config holds all configuration for the application
type Config struct {
	Data         DataConfig            `koanf:"data"`
	WebMode      bool                  `koanf:"web"`
	Port         int                   `koanf:"port"`
	Watch        bool                  `koanf:"watch"`
	ImportMode   string                `koanf:"import_mode"`
	HistoryLimit int                   `koanf:"history_limit"`
	Selection    SelectionConfig       `koanf:"selection"`
	Verbosity    string                `koanf:"verbosity"`
	VerboseCnt   int                   `koanf:"verbose"`
	JSONLogs     bool                  `koanf:"json_logs"`
	From         string                `koanf:"from"`
	To           string                `koanf:"to"`
	Export       string                `koanf:"export"` // Directory to write records to, then exit
	Routes       []pathfind.FixedRoute `koanf:"routes"` // Replaces the built-in recommended routes
}

// DataConfig locates the record files. Empty paths mean the built-in campus.
type DataConfig struct {
	Nodes string `koanf:"nodes"`
	Edges string `koanf:"edges"`
}

// SelectionConfig holds the hit-test thresholds
type SelectionConfig struct {
	NodeRadius    float64 `koanf:"node_radius"`
	EdgeTolerance float64 `koanf:"edge_tolerance"`
	NearestNode   bool    `koanf:"nearest_node"`
}

// Flag names that differ from their config key
var flagKeys = map[string]string{
	"nodes":          "data.nodes",
	"edges":          "data.edges",
	"import-mode":    "import_mode",
	"history-limit":  "history_limit",
	"node-radius":    "selection.node_radius",
	"edge-tolerance": "selection.edge_tolerance",
	"nearest-node":   "selection.nearest_node",
	"json-logs":      "json_logs",
}

// Config sections whose first env underscore is a level separator
var envSections = []string{"data_", "selection_"}

// RegisterFlags defines the command line flags understood by Load
func RegisterFlags(f *pflag.FlagSet) {
	f.String("nodes", "", "Location records (node.csv); empty uses the built-in campus")
	f.String("edges", "", "Path records (edge.csv)")
	f.Bool("web", false, "Start the web server instead of answering on the console")
	f.Int("port", 8080, "Port for the web server (only used with --web)")
	f.Bool("watch", false, "Merge record files into the live map when they change (only used with --web)")
	f.String("import-mode", "merge", "How watched or uploaded records are applied: merge or overwrite")
	f.Int("history-limit", 20, "Number of undo steps kept")
	f.Float64("node-radius", 15, "Click distance that selects a location")
	f.Float64("edge-tolerance", 8, "Click distance that selects a path")
	f.Bool("nearest-node", false, "Select the nearest location instead of the first one in range")
	f.String("verbosity", "", "Log level: error, warn, info, debug or trace")
	f.CountP("verbose", "v", "Increase log verbosity (repeatable)")
	f.Bool("json-logs", false, "Write logs as JSON")
	f.String("from", "", "Start location for a console route query")
	f.String("to", "", "End location for a console route query")
	f.String("export", "", "Write node.csv and edge.csv to this directory and exit")
}

// Load loads configuration from defaults, config file, environment variables, and flags.
// Priority: Flags > Env > Config File > Defaults
func Load(f *pflag.FlagSet) (*Config, error) {
	k := koanf.New(".")

	// 1. Defaults
	defaults := map[string]interface{}{
		"data.nodes":               "",
		"data.edges":               "",
		"web":                      false,
		"port":                     8080,
		"watch":                    false,
		"import_mode":              "merge",
		"history_limit":            20,
		"selection.node_radius":    15.0,
		"selection.edge_tolerance": 8.0,
		"selection.nearest_node":   false,
		"verbosity":                "",
		"verbose":                  0,
		"json_logs":                false,
		"from":                     "",
		"to":                       "",
		"export":                   "",
	}
	if err := k.Load(makeMapProvider(defaults), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	// 2. Config File (optional) - campus-nav.toml
	if err := k.Load(file.Provider(FileName), toml.Parser()); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load %s: %w", FileName, err)
	}

	// 3. Environment Variables
	// Prefix: CAMPUS_NAV_ (e.g., CAMPUS_NAV_PORT=9090, CAMPUS_NAV_SELECTION_NODE_RADIUS=20)
	if err := k.Load(env.Provider(envPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load env vars: %w", err)
	}

	// 4. Flags
	if f != nil {
		if err := k.Load(posflag.ProviderWithFlag(f, ".", k, flagKey(f)), nil); err != nil {
			return nil, fmt.Errorf("failed to load flags: %w", err)
		}
	}

	// Unmarshal into struct
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &cfg, nil
}

// envKey maps CAMPUS_NAV_SELECTION_NODE_RADIUS to selection.node_radius
func envKey(s string) string {
	key := strings.ToLower(strings.TrimPrefix(s, envPrefix))
	for _, section := range envSections {
		if strings.HasPrefix(key, section) {
			return strings.TrimSuffix(section, "_") + "." + strings.TrimPrefix(key, section)
		}
	}
	return key
}

func flagKey(fs *pflag.FlagSet) func(*pflag.Flag) (string, interface{}) {
	return func(fl *pflag.Flag) (string, interface{}) {
		key := fl.Name
		if mapped, ok := flagKeys[key]; ok {
			key = mapped
		}
		return key, posflag.FlagVal(fs, fl)
	}
}

// Helper to use map as a provider
type mapProvider struct {
	m map[string]interface{}
}

func makeMapProvider(m map[string]interface{}) *mapProvider {
	return &mapProvider{m: m}
}

// Read returns the defaults as a nested map so dotted keys become sections
func (p *mapProvider) Read() (map[string]interface{}, error) {
	out := make(map[string]interface{})
	for key, v := range p.m {
		parent, leaf, nested := strings.Cut(key, ".")
		if !nested {
			out[key] = v
			continue
		}
		section, ok := out[parent].(map[string]interface{})
		if !ok {
			section = make(map[string]interface{})
			out[parent] = section
		}
		section[leaf] = v
	}
	return out, nil
}

func (p *mapProvider) ReadBytes() ([]byte, error) {
	return nil, fmt.Errorf("not implemented")
}
