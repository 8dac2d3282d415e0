package core

import "github.com/hubastard/netcanvas/engine/geometry"

// ClientToCanvas converts a client point to canvas-local coordinates by
// subtracting the canvas origin. It is the only place this conversion
// happens; click, drag start and drag move all go through it.
func ClientToCanvas(client geometry.Point, bounds geometry.Rect) geometry.Point {
	return geometry.Point{X: client.X - bounds.X, Y: client.Y - bounds.Y}
}

// Input tracks the latest pointer and key state.
type Input struct {
	keys    map[Key]bool
	pointer geometry.Point // client coordinates
	down    bool
	bounds  geometry.Rect
}

func NewInput() *Input { return &Input{keys: map[Key]bool{}} }

func (in *Input) Handle(ev Event) {
	switch e := ev.(type) {
	case EventKey:
		in.keys[e.Key] = e.Down
	case EventPointerDown:
		in.pointer = geometry.Pt(e.ClientX, e.ClientY)
		in.down = true
	case EventPointerMove:
		in.pointer = geometry.Pt(e.ClientX, e.ClientY)
	case EventPointerUp:
		in.pointer = geometry.Pt(e.ClientX, e.ClientY)
		in.down = false
	case EventPointerCancel:
		in.down = false
	}
}

// SetBounds records the canvas rectangle in client coordinates.
func (in *Input) SetBounds(r geometry.Rect) { in.bounds = r }
func (in *Input) Bounds() geometry.Rect     { return in.bounds }

func (in *Input) IsKeyDown(k Key) bool { return in.keys[k] }
func (in *Input) PointerDown() bool    { return in.down }

// Pointer is the last pointer position in canvas-local coordinates.
func (in *Input) Pointer() geometry.Point { return ClientToCanvas(in.pointer, in.bounds) }

// ToCanvas converts a client point using the recorded bounds.
func (in *Input) ToCanvas(x, y float64) geometry.Point {
	return ClientToCanvas(geometry.Pt(x, y), in.bounds)
}
