package scene

import (
	"math"

	"github.com/fogleman/gg"

	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/geometry"
)

// Camera maps between world units and canvas-local pixels for one frame.
// A world point w lands at (w + Viewport) * Zoom + Size/2.
type Camera struct {
	Viewport geometry.Point
	Zoom     float64
	Size     geometry.Point // logical canvas size
}

// CameraOf returns the camera of s for a canvas of the given logical size.
func CameraOf(s *diagram.State, w, h int) Camera {
	return Camera{Viewport: s.Viewport, Zoom: diagram.ClampZoom(s.Zoom), Size: geometry.Pt(float64(w), float64(h))}
}

func (c Camera) WorldToCanvas(w geometry.Point) geometry.Point {
	return w.Add(c.Viewport).Scale(c.Zoom).Add(c.Size.Scale(0.5))
}

func (c Camera) CanvasToWorld(p geometry.Point) geometry.Point {
	return p.Sub(c.Size.Scale(0.5)).Scale(1 / c.Zoom).Sub(c.Viewport)
}

// VisibleWorld is the world rectangle covered by the canvas.
func (c Camera) VisibleWorld() geometry.Rect {
	tl := c.CanvasToWorld(geometry.Point{})
	br := c.CanvasToWorld(c.Size)
	return geometry.Rect{X: tl.X, Y: tl.Y, W: br.X - tl.X, H: br.Y - tl.Y}
}

// Apply resets ctx and installs the frame transform: the device pixel ratio,
// then the canvas center, zoom and viewport.
func (c Camera) Apply(ctx *gg.Context, pixelRatio float64) {
	ctx.Identity()
	ctx.Scale(pixelRatio, pixelRatio)
	ctx.Translate(c.Size.X/2, c.Size.Y/2)
	ctx.Scale(c.Zoom, c.Zoom)
	ctx.Translate(c.Viewport.X, c.Viewport.Y)
}

// Reanchor shifts the viewport after a canvas resize so the previous visual
// center drifts by a quarter of the size change.
func Reanchor(viewport geometry.Point, oldW, oldH, newW, newH int, zoom float64) geometry.Point {
	return geometry.Point{
		X: viewport.X + float64(oldW-newW)/(4*zoom),
		Y: viewport.Y + float64(oldH-newH)/(4*zoom),
	}
}

// BackingSize is the device pixel size of a canvas.
func BackingSize(w, h int, pixelRatio float64) (int, int) {
	if pixelRatio <= 0 {
		pixelRatio = 1
	}
	return int(math.Round(float64(w) * pixelRatio)), int(math.Round(float64(h) * pixelRatio))
}
