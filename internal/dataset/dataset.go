// Package dataset reads topology files (YAML or JSON) into diagram nodes and
// edges, validates them and watches them for changes.
package dataset

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/errors"
	"github.com/hubastard/netcanvas/engine/geometry"
)

// Dataset is the on-disk topology.
type Dataset struct {
	Nodes []Node `yaml:"nodes" json:"nodes"`
	Edges []Edge `yaml:"edges" json:"edges"`

	mu sync.RWMutex
}

type Node struct {
	ID    string   `yaml:"id" json:"id"`
	Title string   `yaml:"title,omitempty" json:"title,omitempty"`
	Icon  string   `yaml:"icon,omitempty" json:"icon,omitempty"`
	Color string   `yaml:"color,omitempty" json:"color,omitempty"`
	X     float64  `yaml:"x" json:"x"`
	Y     float64  `yaml:"y" json:"y"`
	Slots SlotGrid `yaml:"slots,omitempty" json:"slots"`
}

// SlotGrid is X columns by Y rows; States lists slot states in row-major
// order and may be shorter than the grid.
type SlotGrid struct {
	X      int      `yaml:"x" json:"x"`
	Y      int      `yaml:"y" json:"y"`
	States []string `yaml:"states,omitempty" json:"states,omitempty"`
}

type Edge struct {
	From Endpoint `yaml:"from" json:"from"`
	To   Endpoint `yaml:"to" json:"to"`
}

type Endpoint struct {
	Node string `yaml:"node" json:"node"`
	Slot int    `yaml:"slot" json:"slot"`
}

func (e Endpoint) ref() diagram.SlotRef { return diagram.SlotRef{NodeID: e.Node, Slot: e.Slot} }

// Load reads a dataset file. The format follows the extension; anything that
// is not .json is read as YAML.
func Load(path string) (*Dataset, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "dataset %s", path)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read dataset %s", path)
	}
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return ParseJSON(data)
	}
	return Parse(data)
}

// Parse decodes YAML. Since YAML is a superset of JSON, JSON input works too.
func Parse(data []byte) (*Dataset, error) {
	d := &Dataset{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(d); err != nil && err != io.EOF {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "decode dataset")
	}
	return d, nil
}

// ParseJSON decodes strict JSON.
func ParseJSON(data []byte) (*Dataset, error) {
	d := &Dataset{}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(d); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidDataset, err, "decode dataset")
	}
	return d, nil
}

// MarshalJSON encodes the dataset under its read lock.
func (d *Dataset) MarshalJSON() ([]byte, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return json.Marshal(struct {
		Nodes []Node `json:"nodes"`
		Edges []Edge `json:"edges"`
	}{nonNil(d.Nodes), nonNil(d.Edges)})
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// Diagram converts the dataset into engine nodes and edges. Callers own the
// returned values.
func (d *Dataset) Diagram() ([]*diagram.Node, []diagram.Edge) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	nodes := make([]*diagram.Node, 0, len(d.Nodes))
	for _, n := range d.Nodes {
		dn := &diagram.Node{
			ID:       n.ID,
			Title:    n.Title,
			Icon:     n.Icon,
			Color:    n.Color,
			Position: geometry.Pt(n.X, n.Y),
			Columns:  n.Slots.X,
			Rows:     n.Slots.Y,
		}
		if len(n.Slots.States) > 0 {
			dn.Slots = make([]diagram.Slot, len(n.Slots.States))
			for i, st := range n.Slots.States {
				dn.Slots[i] = diagram.Slot{State: diagram.ParseSlotState(st)}
			}
		}
		nodes = append(nodes, dn)
	}
	edges := make([]diagram.Edge, 0, len(d.Edges))
	for _, e := range d.Edges {
		edges = append(edges, diagram.Edge{From: e.From.ref(), To: e.To.ref()})
	}
	return nodes, edges
}

// MoveNode sets the position of node id. It reports false for unknown ids.
func (d *Dataset) MoveNode(id string, x, y float64) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.Nodes {
		if d.Nodes[i].ID == id {
			d.Nodes[i].X, d.Nodes[i].Y = x, y
			return true
		}
	}
	return false
}

// Len returns the node and edge counts.
func (d *Dataset) Len() (nodes, edges int) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.Nodes), len(d.Edges)
}
