package diagram

import (
	"math"
	"slices"

	"github.com/hubastard/netcanvas/engine/geometry"
)

const (
	MinZoom     = 0.25
	MaxZoom     = 2.0
	DefaultZoom = 1.0
)

// ClampZoom limits z to [MinZoom, MaxZoom]. NaN becomes DefaultZoom.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return DefaultZoom
	}
	if z < MinZoom {
		return MinZoom
	}
	if z > MaxZoom {
		return MaxZoom
	}
	return z
}

// GridMode selects the background grid.
type GridMode string

const (
	GridFull GridMode = "full"
	GridNone GridMode = "none"
)

// ParseGridMode accepts "full" and "none"; anything else is full.
func ParseGridMode(s string) GridMode {
	if GridMode(s) == GridNone {
		return GridNone
	}
	return GridFull
}

// Drag is the active drag. A nil Target is a viewport drag.
type Drag struct {
	Target Object
	// Origin is the viewport (viewport drags) or node position (node drags)
	// when the drag began.
	Origin geometry.Point
	// Start is the canvas-local press point; Delta is the cumulative pointer
	// motion since then in canvas pixels.
	Start geometry.Point
	Delta geometry.Point
	// InProgress is set once the motion exceeded the click threshold.
	InProgress bool
	Edge       *EdgeDraft
}

// Offset is the drag delta in world units.
func (d *Drag) Offset(zoom float64) geometry.Point {
	return d.Delta.Scale(1 / zoom)
}

// EdgeDraft is the edge-creation payload of a drag that began on a slot.
type EdgeDraft struct {
	From SlotRef
	// Pointer is the current canvas-local pointer position.
	Pointer geometry.Point
}

type Debug struct {
	Enabled   bool
	LastClick *geometry.Point // canvas-local
}

// FrameInfo is the logical canvas size of the previous frame.
type FrameInfo struct {
	Width, Height int
	PixelRatio    float64
}

func (f FrameInfo) IsZero() bool { return f.Width == 0 && f.Height == 0 }

// State is the render state of one mounted diagram view.
type State struct {
	Nodes     map[string]*Node
	Edges     map[string][]Edge // by source node id
	Viewport  geometry.Point
	Zoom      float64
	Selection Object
	Dragging  *Drag
	Debug     Debug
	Grid      GridMode
	Frame     FrameInfo
}

// NewState builds a state from upstream data. View fields (viewport, zoom,
// selection, drag, debug, grid, frame) are carried over from prev.
func NewState(nodes []*Node, edges []Edge, prev *State) *State {
	s := &State{
		Nodes: make(map[string]*Node, len(nodes)),
		Edges: make(map[string][]Edge),
		Zoom:  DefaultZoom,
		Grid:  GridFull,
	}
	for _, n := range nodes {
		if n == nil {
			continue
		}
		s.Nodes[n.ID] = n
	}
	for _, e := range edges {
		s.Edges[e.From.NodeID] = append(s.Edges[e.From.NodeID], e)
	}
	if prev != nil {
		s.Viewport = prev.Viewport
		s.Zoom = ClampZoom(prev.Zoom)
		s.Selection = prev.Selection
		s.Dragging = prev.Dragging
		s.Debug = prev.Debug
		s.Grid = prev.Grid
		s.Frame = prev.Frame
	}
	return s
}

// SetZoom applies z clamped to [MinZoom, MaxZoom] and returns the result.
func (s *State) SetZoom(z float64) float64 {
	s.Zoom = ClampZoom(z)
	return s.Zoom
}

// Node returns the node with id, or nil.
func (s *State) Node(id string) *Node { return s.Nodes[id] }

// SortedNodes returns nodes ordered by id.
func (s *State) SortedNodes() []*Node {
	out := make([]*Node, 0, len(s.Nodes))
	for _, n := range s.Nodes {
		out = append(out, n)
	}
	slices.SortFunc(out, func(a, b *Node) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out
}

// AllEdges returns every edge ordered by source node id, then input order.
func (s *State) AllEdges() []Edge {
	keys := make([]string, 0, len(s.Edges))
	for k := range s.Edges {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	var out []Edge
	for _, k := range keys {
		out = append(out, s.Edges[k]...)
	}
	return out
}

// IsDragging reports whether obj is the target of an in-progress drag.
func (s *State) IsDragging(obj Object) bool {
	return s.Dragging != nil && s.Dragging.InProgress && s.Dragging.Target == obj
}

// NodePosition is where a node renders: its committed position, plus any
// pending optimistic offset, plus the live drag offset when it is the drag
// target.
func (s *State) NodePosition(n *Node) geometry.Point {
	p := n.Position
	if n.Drag != nil {
		p = p.Add(*n.Drag)
	}
	if s.IsDragging(NodeRef{ID: n.ID}) {
		p = p.Add(s.Dragging.Offset(s.Zoom))
	}
	return p
}

// SlotRect resolves the world rectangle of a slot reference.
func (s *State) SlotRect(ref SlotRef) (geometry.Rect, bool) {
	n := s.Nodes[ref.NodeID]
	if n == nil {
		return geometry.Rect{}, false
	}
	return geometry.SlotRect(s.NodePosition(n), n.Columns, n.Rows, ref.Slot)
}

// Valid reports whether obj still resolves against the current snapshot.
func (s *State) Valid(obj Object) bool {
	switch v := obj.(type) {
	case NodeRef:
		return s.Nodes[v.ID] != nil
	case SlotRef:
		n := s.Nodes[v.NodeID]
		return n != nil && n.HasSlot(v.Slot)
	case DeleteAction:
		return s.Selection != nil && s.Selection != obj && s.Valid(s.Selection)
	}
	return false
}

// Selected returns the selection if it still resolves, else nil.
func (s *State) Selected() Object {
	if s.Selection == nil || !s.Valid(s.Selection) {
		return nil
	}
	return s.Selection
}
