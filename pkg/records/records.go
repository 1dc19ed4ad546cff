// Package records reads and writes location and path records in the tabular
// CSV layout of node.csv (name,x,y,introduction) and edge.csv (u,v,weight).
//
// Empty cells are returned as missing fields rather than zero values so the
// importer can reject or complete them.
package records

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/ritzau/campus-nav/pkg/model"
)

// Default file names inside a data directory
const (
	NodesFile = "node.csv"
	EdgesFile = "edge.csv"
)

var (
	nodeHeader = []string{"name", "x", "y", "introduction"}
	edgeHeader = []string{"u", "v", "weight"}
)

// ReadNodes parses location records. The header must contain name, x and y;
// introduction is optional.
func ReadNodes(r io.Reader) ([]model.NodeRecord, error) {
	rows, cols, err := readTable(r, "name", "x", "y")
	if err != nil {
		return nil, err
	}

	out := make([]model.NodeRecord, 0, len(rows))
	for i, row := range rows {
		rec := model.NodeRecord{
			Name:         cell(row, cols, "name"),
			Introduction: cell(row, cols, "introduction"),
		}
		if rec.X, err = number(row, cols, "x"); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		if rec.Y, err = number(row, cols, "y"); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// ReadEdges parses path records with columns u, v and weight
func ReadEdges(r io.Reader) ([]model.EdgeRecord, error) {
	rows, cols, err := readTable(r, "u", "v", "weight")
	if err != nil {
		return nil, err
	}

	out := make([]model.EdgeRecord, 0, len(rows))
	for i, row := range rows {
		rec := model.EdgeRecord{
			From: cell(row, cols, "u"),
			To:   cell(row, cols, "v"),
		}
		if rec.Weight, err = number(row, cols, "weight"); err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

// WriteNodes writes location records with a header row
func WriteNodes(w io.Writer, nodes []model.NodeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(nodeHeader); err != nil {
		return err
	}
	for _, n := range nodes {
		if err := cw.Write([]string{n.Name, formatNumber(n.X), formatNumber(n.Y), n.Introduction}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteEdges writes path records with a header row
func WriteEdges(w io.Writer, edges []model.EdgeRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(edgeHeader); err != nil {
		return err
	}
	for _, e := range edges {
		if err := cw.Write([]string{e.From, e.To, formatNumber(e.Weight)}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Dir is a data directory holding a node file and an edge file
type Dir struct {
	Nodes string // Path of the location records
	Edges string // Path of the path records
}

// NewDir returns the default file layout inside dir
func NewDir(dir string) Dir {
	return Dir{
		Nodes: filepath.Join(dir, NodesFile),
		Edges: filepath.Join(dir, EdgesFile),
	}
}

// LoadNodes reads the location file
func (d Dir) LoadNodes() ([]model.NodeRecord, error) {
	return readFile(d.Nodes, ReadNodes)
}

// LoadEdges reads the path file
func (d Dir) LoadEdges() ([]model.EdgeRecord, error) {
	return readFile(d.Edges, ReadEdges)
}

// Load reads both files. A missing edge file yields no paths; a missing node
// file is reported with an error matching fs.ErrNotExist.
func (d Dir) Load() ([]model.NodeRecord, []model.EdgeRecord, error) {
	nodes, err := d.LoadNodes()
	if err != nil {
		return nil, nil, err
	}

	edges, err := d.LoadEdges()
	if errors.Is(err, os.ErrNotExist) {
		return nodes, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}
	return nodes, edges, nil
}

// Save writes both files, creating parent directories as needed
func (d Dir) Save(nodes []model.NodeRecord, edges []model.EdgeRecord) error {
	if err := writeFile(d.Nodes, func(w io.Writer) error { return WriteNodes(w, nodes) }); err != nil {
		return err
	}
	return writeFile(d.Edges, func(w io.Writer) error { return WriteEdges(w, edges) })
}

func readFile[T any](path string, parse func(io.Reader) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	out, err := parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// writeFile writes through a temp file so readers never see a partial file
func writeFile(path string, write func(io.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if err := write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("%s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// readTable returns data rows and a header index, checking required columns
func readTable(r io.Reader, required ...string) ([][]string, map[string]int, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil, errors.New("empty file: missing header row")
	}
	if err != nil {
		return nil, nil, err
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		// Spreadsheet exports often start with a byte order mark
		h = strings.TrimPrefix(h, "\ufeff")
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	rows, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	return rows, cols, nil
}

func cell(row []string, cols map[string]int, name string) string {
	i, ok := cols[name]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

func number(row []string, cols map[string]int, name string) (*float64, error) {
	s := cell(row, cols, name)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("column %s: %q is not a number", name, s)
	}
	return &v, nil
}

func formatNumber(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}
