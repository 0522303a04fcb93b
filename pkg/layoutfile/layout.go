// Package layoutfile saves and restores settled node positions as TOML, so
// a graph reopens the way it was left.
package layoutfile

import (
	"bytes"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/ha1tch/relgraph/pkg/forcegraph"
)

// Version is the snapshot format version written by Generate.
const Version = 1

// Layout is a snapshot of node positions in a viewport.
type Layout struct {
	Version int                 `toml:"version"`
	Width   float64             `toml:"width"`
	Height  float64             `toml:"height"`
	Nodes   map[string]Position `toml:"nodes"`
}

// Position is one node's location in logical pixels.
type Position struct {
	X float64 `toml:"x"`
	Y float64 `toml:"y"`
}

// Generate builds a snapshot from engine positions.
func Generate(positions map[string]forcegraph.Point, width, height float64) *Layout {
	l := &Layout{
		Version: Version,
		Width:   width,
		Height:  height,
		Nodes:   make(map[string]Position, len(positions)),
	}
	for id, p := range positions {
		l.Nodes[id] = Position{X: round2(p.X), Y: round2(p.Y)}
	}
	return l
}

// Points converts the snapshot back into engine positions. When the
// snapshot was taken in a different viewport, positions are scaled to fit
// width x height.
func (l *Layout) Points(width, height float64) map[string]forcegraph.Point {
	sx, sy := 1.0, 1.0
	if l.Width > 0 && l.Height > 0 && width > 0 && height > 0 {
		sx, sy = width/l.Width, height/l.Height
	}
	out := make(map[string]forcegraph.Point, len(l.Nodes))
	for id, p := range l.Nodes {
		out[id] = forcegraph.Point{X: p.X * sx, Y: p.Y * sy}
	}
	return out
}

// Parse decodes layout TOML.
func Parse(data []byte) (*Layout, error) {
	l := &Layout{}
	if _, err := toml.Decode(string(data), l); err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}
	if l.Version == 0 {
		l.Version = Version
	}
	if l.Version > Version {
		return nil, fmt.Errorf("parse layout: unsupported version %d", l.Version)
	}
	if l.Nodes == nil {
		l.Nodes = map[string]Position{}
	}
	return l, nil
}

// Marshal encodes the layout as TOML.
func (l *Layout) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("# relgraph layout snapshot\n")
	if err := toml.NewEncoder(&buf).Encode(l); err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}
	return buf.Bytes(), nil
}

// Read loads a layout file.
func Read(path string) (*Layout, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Write saves a layout file, creating parent directories as needed.
func Write(path string, l *Layout) error {
	data, err := l.Marshal()
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// PathFor returns the conventional snapshot path next to a document,
// e.g. graph.json -> graph.layout.toml.
func PathFor(docPath string) string {
	return strings.TrimSuffix(docPath, filepath.Ext(docPath)) + ".layout.toml"
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
