// Package view mounts one interactive diagram: it owns the render state and
// pairs the gesture controller (the only writer) with the renderer (the only
// reader). A View implements core.App, so it can run under core.Run on any
// core.Window, and it can also be driven directly by a host that renders on
// its own schedule.
package view

import (
	"image"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"

	"github.com/hubastard/netcanvas/engine/core"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/geometry"
	"github.com/hubastard/netcanvas/engine/render"
	"github.com/hubastard/netcanvas/engine/scene"
)

type Options struct {
	Renderer  render.Options
	Callbacks scene.Callbacks
	// DragThreshold and WheelStep tune the controller; zero keeps defaults.
	DragThreshold float64
	WheelStep     float64
	Grid          diagram.GridMode
	Debug         bool
	Size          render.Size
	Logger        *log.Logger
}

// View is safe for concurrent use: data updates may come from a watcher
// goroutine while events and frames are handled on the loop goroutine.
type View struct {
	mu       sync.Mutex
	state    *diagram.State
	renderer *render.Renderer
	ctrl     *scene.Controller
	sched    *core.Scheduler
	host     atomic.Pointer[core.Scheduler]
	size     render.Size
	bounds   geometry.Rect
	log      *log.Logger
}

func New(opts Options) *View {
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}
	v := &View{
		state:    diagram.NewState(nil, nil, nil),
		renderer: render.New(opts.Renderer),
		sched:    core.NewScheduler(),
		size:     opts.Size,
		log:      logger,
	}
	if opts.Grid != "" {
		v.state.Grid = opts.Grid
	}
	v.state.Debug.Enabled = opts.Debug
	v.ctrl = scene.NewController(v.state, v.renderer, v, opts.Callbacks)
	v.ctrl.DragThreshold = opts.DragThreshold
	if opts.WheelStep > 0 {
		v.ctrl.WheelStep = opts.WheelStep
	}
	v.RequestFrame()
	return v
}

// RequestFrame marks the view dirty and wakes the host loop, if attached.
// It never takes the view lock.
func (v *View) RequestFrame() {
	v.sched.RequestFrame()
	if h := v.host.Load(); h != nil {
		h.RequestFrame()
	}
}

// SetData replaces the dataset. Nodes are copied, so the caller keeps
// ownership of its slice; pending move offsets from earlier data are dropped.
// View fields (viewport, zoom, selection, drag) carry over.
func (v *View) SetData(nodes []*diagram.Node, edges []diagram.Edge) {
	v.mu.Lock()
	defer v.mu.Unlock()
	copies := make([]*diagram.Node, 0, len(nodes))
	for _, n := range nodes {
		if n == nil {
			continue
		}
		c := n.Clone()
		c.Drag = nil
		copies = append(copies, c)
	}
	v.state = diagram.NewState(copies, append([]diagram.Edge(nil), edges...), v.state)
	v.ctrl.SetState(v.state)
	v.renderer.ClearRegions()
	v.RequestFrame()
	v.log.Debug("dataset replaced", "nodes", len(copies), "edges", len(edges))
}

// SetSelected sets the selection from outside; no callback fires.
func (v *View) SetSelected(obj diagram.Object) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ctrl.SetSelection(obj)
}

func (v *View) SetGrid(mode diagram.GridMode) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Grid = mode
	v.RequestFrame()
}

func (v *View) SetDebug(on bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Debug.Enabled = on
	if !on {
		v.state.Debug.LastClick = nil
	}
	v.RequestFrame()
}

func (v *View) SetZoom(z float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.ctrl.SetZoom(z)
}

// SetViewport pans to an absolute viewport.
func (v *View) SetViewport(p geometry.Point) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state.Viewport = p
	v.RequestFrame()
}

// SetBounds records the canvas rectangle in client coordinates.
func (v *View) SetBounds(r geometry.Rect) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bounds = r
}

// Resize sets the logical canvas size. The viewport is re-anchored on the
// next frame.
func (v *View) Resize(w, h int, pixelRatio float64) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.size = render.Size{W: w, H: h, PixelRatio: pixelRatio}
	v.RequestFrame()
}

// HandleEvent applies one input event.
func (v *View) HandleEvent(ev core.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.handle(ev)
}

func (v *View) handle(ev core.Event) {
	before := v.ctrl.Mode()
	switch e := ev.(type) {
	case core.EventPointerDown:
		if e.Button != core.ButtonPrimary {
			return
		}
		v.ctrl.DragStart(v.toCanvas(e.ClientX, e.ClientY))
	case core.EventPointerMove:
		v.ctrl.DragMove(v.toCanvas(e.ClientX, e.ClientY))
	case core.EventPointerUp:
		if e.Button != core.ButtonPrimary {
			return
		}
		v.ctrl.DragEnd(v.toCanvas(e.ClientX, e.ClientY))
	case core.EventPointerCancel:
		v.ctrl.DragCancel()
	case core.EventWheel:
		v.ctrl.Wheel(e.DeltaY)
	case core.EventPinch:
		switch e.Phase {
		case core.PinchBegin:
			v.ctrl.PinchStart()
		case core.PinchChange:
			v.ctrl.Pinch(e.Scale)
		case core.PinchEnd:
			v.ctrl.PinchEnd()
		case core.PinchCancel:
			v.ctrl.PinchCancel()
		}
	case core.EventKey:
		if !e.Down {
			v.ctrl.KeyUp(e.Key)
		}
	case core.EventResize:
		v.size = render.Size{W: e.W, H: e.H, PixelRatio: e.PixelRatio}
		v.RequestFrame()
	}
	if after := v.ctrl.Mode(); after != before {
		v.log.Debug("gesture", "from", before, "to", after)
	}
}

func (v *View) toCanvas(x, y float64) geometry.Point {
	return core.ClientToCanvas(geometry.Pt(x, y), v.bounds)
}

// Frame renders only if something requested a frame since the last one.
func (v *View) Frame() (*image.RGBA, bool, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.sched.Take() {
		return nil, false, nil
	}
	img, err := v.render()
	return img, err == nil, err
}

// Render paints a frame unconditionally.
func (v *View) Render() (*image.RGBA, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.sched.Take()
	return v.render()
}

func (v *View) render() (*image.RGBA, error) {
	if err := v.renderer.Render(v.state, v.size); err != nil {
		return nil, err
	}
	return v.renderer.Image(), nil
}

// ObjectAt hit-tests a canvas-local point against the last frame.
func (v *View) ObjectAt(p geometry.Point) diagram.Object {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renderer.ObjectAt(p)
}

func (v *View) Stats() render.Stats {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.renderer.Stats()
}

// Pending reports whether a frame is waiting to be rendered.
func (v *View) Pending() bool { return v.sched.Pending() }

// Inspect runs f with the current state while holding the view lock. f must
// not retain s.
func (v *View) Inspect(f func(s *diagram.State)) {
	v.mu.Lock()
	defer v.mu.Unlock()
	f(v.state)
}
