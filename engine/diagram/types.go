// Package diagram is the world the renderer reads and the gesture controller
// writes: nodes with slot grids, edges between slots, and the view state
// (viewport, zoom, selection, drag) that survives dataset rebuilds.
package diagram

import (
	"fmt"
	"strings"

	"github.com/hubastard/netcanvas/engine/geometry"
)

// SlotState is used only for color coding.
type SlotState int

const (
	SlotUnknown SlotState = iota
	SlotUp
	SlotDown
	SlotEmpty
)

// ParseSlotState maps "up", "down" and "empty"; anything else is SlotUnknown.
func ParseSlotState(s string) SlotState {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "up":
		return SlotUp
	case "down":
		return SlotDown
	case "empty":
		return SlotEmpty
	default:
		return SlotUnknown
	}
}

func (s SlotState) String() string {
	switch s {
	case SlotUp:
		return "up"
	case SlotDown:
		return "down"
	case SlotEmpty:
		return "empty"
	default:
		return "unknown"
	}
}

type Slot struct {
	State SlotState
}

// Node is a positioned diagram entity. Position is the icon center in world
// coordinates.
type Node struct {
	ID       string
	Title    string
	Icon     string
	Color    string
	Position geometry.Point
	Columns  int
	Rows     int
	Slots    []Slot

	// Drag is an optimistic offset kept after a move the host deferred. It is
	// dropped when fresh data replaces the node.
	Drag *geometry.Point
}

// SlotCount is the capacity of the slot grid.
func (n *Node) SlotCount() int {
	if n.Columns <= 0 || n.Rows <= 0 {
		return 0
	}
	return n.Columns * n.Rows
}

// SlotState returns the state of slot id; slots beyond the supplied list are
// EMPTY.
func (n *Node) SlotState(id int) SlotState {
	if id < 0 || id >= len(n.Slots) {
		return SlotEmpty
	}
	return n.Slots[id].State
}

// HasSlot reports whether id addresses a cell of the grid.
func (n *Node) HasSlot(id int) bool { return id >= 0 && id < n.SlotCount() }

// Clone returns a deep copy.
func (n *Node) Clone() *Node {
	c := *n
	c.Slots = append([]Slot(nil), n.Slots...)
	if n.Drag != nil {
		d := *n.Drag
		c.Drag = &d
	}
	return &c
}

// Edge is a directed connection between two slots.
type Edge struct {
	From SlotRef
	To   SlotRef
}

func (e Edge) String() string { return fmt.Sprintf("%s -> %s", e.From, e.To) }

// Object is a reference to something hit-testable. Implementations are
// comparable values so they can key maps and be compared for equality.
type Object interface {
	isObject()
	String() string
}

type NodeRef struct{ ID string }

type SlotRef struct {
	NodeID string
	Slot   int
}

// DeleteAction is the "delete selection" glyph.
type DeleteAction struct{}

func (NodeRef) isObject()      {}
func (SlotRef) isObject()      {}
func (DeleteAction) isObject() {}

func (r NodeRef) String() string    { return "node:" + r.ID }
func (r SlotRef) String() string    { return fmt.Sprintf("slot:%s/%d", r.NodeID, r.Slot) }
func (DeleteAction) String() string { return "action:delete" }

// NodeID returns the node an object belongs to, if any.
func NodeID(o Object) (string, bool) {
	switch v := o.(type) {
	case NodeRef:
		return v.ID, true
	case SlotRef:
		return v.NodeID, true
	}
	return "", false
}
