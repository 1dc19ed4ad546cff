package records

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ritzau/campus-nav/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadNodes(t *testing.T) {
	input := "\ufeffName, x ,y,introduction\n" +
		"静湖,790,730,校园内的人工湖\n" +
		"图书馆,820.5,960\n" +
		"鹅湖湾,,830,\n"

	nodes, err := ReadNodes(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, nodes, 3)

	assert.Equal(t, "静湖", nodes[0].Name)
	assert.Equal(t, 790.0, *nodes[0].X)
	assert.Equal(t, "校园内的人工湖", nodes[0].Introduction)

	assert.Equal(t, 820.5, *nodes[1].X)
	assert.Empty(t, nodes[1].Introduction)

	assert.Nil(t, nodes[2].X, "empty cell is a missing field")
	assert.Equal(t, 830.0, *nodes[2].Y)
}

func TestReadErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		read  func(string) error
	}{
		{"empty node file", "", func(s string) error { _, err := ReadNodes(strings.NewReader(s)); return err }},
		{"missing node column", "name,x\nA,1\n", func(s string) error { _, err := ReadNodes(strings.NewReader(s)); return err }},
		{"bad coordinate", "name,x,y\nA,one,2\n", func(s string) error { _, err := ReadNodes(strings.NewReader(s)); return err }},
		{"missing edge column", "u,v\nA,B\n", func(s string) error { _, err := ReadEdges(strings.NewReader(s)); return err }},
		{"bad weight", "u,v,weight\nA,B,far\n", func(s string) error { _, err := ReadEdges(strings.NewReader(s)); return err }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.read(tt.input))
		})
	}
}

func TestWriteReadRoundTrip(t *testing.T) {
	nodes := []model.NodeRecord{
		{Name: "A", X: model.Float(1.25), Y: model.Float(2), Introduction: "has, a comma"},
		{Name: "B", X: model.Float(3), Y: model.Float(4), Introduction: "line\nbreak"},
	}
	edges := []model.EdgeRecord{{From: "A", To: "B", Weight: model.Float(300)}}

	var nb, eb bytes.Buffer
	require.NoError(t, WriteNodes(&nb, nodes))
	require.NoError(t, WriteEdges(&eb, edges))
	assert.True(t, strings.HasPrefix(eb.String(), "u,v,weight\nA,B,300\n"))

	gotNodes, err := ReadNodes(&nb)
	require.NoError(t, err)
	gotEdges, err := ReadEdges(&eb)
	require.NoError(t, err)

	assert.Equal(t, nodes, gotNodes)
	assert.Equal(t, edges, gotEdges)
}

func TestDirSaveLoad(t *testing.T) {
	dir := NewDir(filepath.Join(t.TempDir(), "data"))

	_, _, err := dir.Load()
	assert.True(t, errors.Is(err, os.ErrNotExist))

	nodes := []model.NodeRecord{{Name: "A", X: model.Float(0), Y: model.Float(0), Introduction: "a"}}
	require.NoError(t, dir.Save(nodes, nil))

	gotNodes, gotEdges, err := dir.Load()
	require.NoError(t, err)
	assert.Equal(t, nodes, gotNodes)
	assert.Empty(t, gotEdges)

	// Without an edge file only locations are loaded
	require.NoError(t, os.Remove(dir.Edges))
	gotNodes, gotEdges, err = dir.Load()
	require.NoError(t, err)
	assert.Len(t, gotNodes, 1)
	assert.Nil(t, gotEdges)
}
