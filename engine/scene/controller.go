// Package scene holds the viewport camera and the gesture controller, the
// only component that writes interaction state into a diagram.State.
package scene

import (
	"math"

	"github.com/hubastard/netcanvas/engine/core"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/geometry"
)

// DefaultWheelStep is the zoom change per discrete wheel tick.
const DefaultWheelStep = 0.03

// HitTester resolves a canvas-local point to the object drawn there.
type HitTester interface {
	ObjectAt(p geometry.Point) diagram.Object
}

// Scheduler queues a repaint.
type Scheduler interface {
	RequestFrame()
}

// Callbacks notify the host. Any of them may be nil.
type Callbacks struct {
	OnSelectionChanged func(obj diagram.Object)
	// OnMove reports a committed node move. Returning true applies the new
	// position at once; false keeps it as a pending offset until the host
	// supplies fresh data.
	OnMove   func(obj diagram.Object, x, y float64) bool
	OnDrop   func(src, dst diagram.Object)
	OnDelete func(obj diagram.Object)
}

// Mode is the controller's current gesture mode.
type Mode int

const (
	ModeIdle Mode = iota
	ModeViewportDrag
	ModeObjectDrag
	ModeEdgeCreate
)

func (m Mode) String() string {
	switch m {
	case ModeViewportDrag:
		return "viewport-drag"
	case ModeObjectDrag:
		return "object-drag"
	case ModeEdgeCreate:
		return "edge-create"
	default:
		return "idle"
	}
}

// Controller translates pointer, wheel, pinch and key input into State
// mutations and render requests. It never renders.
type Controller struct {
	Callbacks Callbacks
	// DragThreshold is the pointer travel, in canvas pixels, a press must
	// exceed to become a drag. Zero means any motion.
	DragThreshold float64
	WheelStep     float64

	state *diagram.State
	hit   HitTester
	sched Scheduler

	pinching  bool
	pinchBase float64
}

func NewController(s *diagram.State, hit HitTester, sched Scheduler, cb Callbacks) *Controller {
	return &Controller{
		Callbacks: cb,
		WheelStep: DefaultWheelStep,
		state:     s,
		hit:       hit,
		sched:     sched,
	}
}

// SetState swaps in a rebuilt state.
func (c *Controller) SetState(s *diagram.State) { c.state = s }
func (c *Controller) State() *diagram.State     { return c.state }

// Mode reports the active gesture mode.
func (c *Controller) Mode() Mode {
	d := c.state.Dragging
	switch {
	case d == nil:
		return ModeIdle
	case d.Edge != nil:
		return ModeEdgeCreate
	case d.Target != nil:
		return ModeObjectDrag
	default:
		return ModeViewportDrag
	}
}

func (c *Controller) request() {
	if c.sched != nil {
		c.sched.RequestFrame()
	}
}

// DragStart begins a drag at canvas-local p. Presses on a node or slot start
// an object drag (an edge draft for slots); anything else pans.
func (c *Controller) DragStart(p geometry.Point) {
	s := c.state
	d := &diagram.Drag{Start: p, Origin: s.Viewport}
	switch obj := c.hit.ObjectAt(p).(type) {
	case diagram.NodeRef:
		if n := s.Node(obj.ID); n != nil {
			d.Target = obj
			d.Origin = n.Position
		}
	case diagram.SlotRef:
		if s.Valid(obj) {
			d.Target = obj
			d.Origin = s.NodePosition(s.Node(obj.NodeID))
			d.Edge = &diagram.EdgeDraft{From: obj, Pointer: p}
		}
	}
	s.Dragging = d
	c.request()
}

// DragMove updates the active drag with the pointer at canvas-local p.
func (c *Controller) DragMove(p geometry.Point) {
	s := c.state
	d := s.Dragging
	if d == nil {
		return
	}
	d.Delta = p.Sub(d.Start)
	if !d.InProgress && d.Delta.Len() > c.DragThreshold {
		d.InProgress = true
	}
	if !d.InProgress {
		return
	}
	switch {
	case d.Edge != nil:
		d.Edge.Pointer = p
	case d.Target == nil:
		s.Viewport = d.Origin.Add(d.Offset(s.Zoom))
	}
	c.request()
}

// DragEnd finishes the drag at canvas-local p. A press that never moved is
// handled as a click.
func (c *Controller) DragEnd(p geometry.Point) {
	s := c.state
	d := s.Dragging
	if d == nil {
		return
	}
	c.DragMove(p)
	s.Dragging = nil
	c.request()

	if !d.InProgress {
		c.Click(p)
		return
	}
	switch target := d.Target.(type) {
	case diagram.NodeRef:
		c.commitMove(target, d.Offset(s.Zoom))
	case diagram.SlotRef:
		if dst := c.hit.ObjectAt(p); dst != nil && c.Callbacks.OnDrop != nil {
			c.Callbacks.OnDrop(target, dst)
		}
	}
}

func (c *Controller) commitMove(ref diagram.NodeRef, offset geometry.Point) {
	n := c.state.Node(ref.ID)
	if n == nil {
		return
	}
	base := n.Position
	if n.Drag != nil {
		base = base.Add(*n.Drag)
	}
	next := base.Add(offset)

	apply := true
	if c.Callbacks.OnMove != nil {
		apply = c.Callbacks.OnMove(ref, next.X, next.Y)
	}
	if apply {
		n.Position = next
		n.Drag = nil
		return
	}
	pending := next.Sub(n.Position)
	n.Drag = &pending
}

// DragCancel drops the active drag. No callback fires and the viewport of a
// pan goes back to where it started.
func (c *Controller) DragCancel() {
	s := c.state
	d := s.Dragging
	if d == nil {
		return
	}
	if d.Target == nil {
		s.Viewport = d.Origin
	}
	s.Dragging = nil
	c.request()
}

// Click resolves the object under canvas-local p. The delete glyph deletes
// the selection; anything else becomes the selection if it differs from the
// current one.
func (c *Controller) Click(p geometry.Point) {
	s := c.state
	if s.Debug.Enabled {
		at := p
		s.Debug.LastClick = &at
		c.request()
	}
	obj := c.hit.ObjectAt(p)
	if obj == (diagram.DeleteAction{}) {
		c.DeleteSelection()
		return
	}
	if obj == s.Selection {
		return
	}
	s.Selection = obj
	c.request()
	if c.Callbacks.OnSelectionChanged != nil {
		c.Callbacks.OnSelectionChanged(obj)
	}
}

// DeleteSelection asks the host to delete the selected object, if any.
func (c *Controller) DeleteSelection() {
	sel := c.state.Selected()
	if sel == nil || c.Callbacks.OnDelete == nil {
		return
	}
	c.Callbacks.OnDelete(sel)
}

// KeyUp handles a released key. Only Delete does anything.
func (c *Controller) KeyUp(k core.Key) {
	if k == core.KeyDelete {
		c.DeleteSelection()
	}
}

// Wheel applies one wheel tick: scrolling down zooms out.
func (c *Controller) Wheel(deltaY float64) {
	step := c.WheelStep
	if step <= 0 {
		step = DefaultWheelStep
	}
	switch {
	case deltaY > 0:
		c.SetZoom(c.state.Zoom - step)
	case deltaY < 0:
		c.SetZoom(c.state.Zoom + step)
	}
}

// SetZoom applies an absolute zoom, clamped to the allowed range.
func (c *Controller) SetZoom(z float64) {
	c.state.SetZoom(z)
	c.request()
}

func (c *Controller) PinchStart() {
	c.pinching = true
	c.pinchBase = c.state.Zoom
}

// Pinch sets the zoom to the pinch start zoom times scale. A scale that is
// not positive and finite is ignored.
func (c *Controller) Pinch(scale float64) {
	if !(scale > 0) || math.IsInf(scale, 0) {
		return
	}
	if !c.pinching {
		c.PinchStart()
	}
	c.SetZoom(c.pinchBase * scale)
}

func (c *Controller) PinchEnd() { c.pinching = false }

// PinchCancel restores the zoom from before the pinch.
func (c *Controller) PinchCancel() {
	if !c.pinching {
		return
	}
	c.pinching = false
	c.SetZoom(c.pinchBase)
}

// SetSelection replaces the selection from outside without notifying.
func (c *Controller) SetSelection(obj diagram.Object) {
	c.state.Selection = obj
	c.request()
}
