package view

import (
	"image"

	"github.com/hubastard/netcanvas/engine/core"
)

// OnStart attaches the view to the run loop and adopts the window size.
func (v *View) OnStart(e *core.Engine) {
	v.host.Store(e.Scheduler)
	w, h, ratio := e.Window.ClientSize()
	v.Resize(w, h, ratio)
	v.SetBounds(e.Window.Bounds())
}

func (v *View) OnEvent(e *core.Engine, ev core.Event) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.bounds = e.Input.Bounds()
	v.handle(ev)
}

func (v *View) OnRender(e *core.Engine) (*image.RGBA, error) {
	img, _, err := v.Frame()
	return img, err
}

func (v *View) OnShutdown(e *core.Engine) {
	v.host.Store(nil)
	st := v.Stats()
	e.Log.Debug("view closed", "frames", st.Frames, "nodes", st.Nodes, "edges", st.Edges)
}
