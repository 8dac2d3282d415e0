// Package render paints a diagram.State twice per frame: once on the visible
// canvas and once, in flat key colors, on the region canvas used for
// hit-testing. Both canvases share one transform so a hit-test after a frame
// always agrees with what is on screen.
package render

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"time"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/hubastard/netcanvas/engine/colors"
	"github.com/hubastard/netcanvas/engine/core"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/geometry"
	"github.com/hubastard/netcanvas/engine/icons"
	"github.com/hubastard/netcanvas/engine/profiler"
	"github.com/hubastard/netcanvas/engine/region"
	"github.com/hubastard/netcanvas/engine/scene"
)

// Size is the logical canvas size and its device pixel ratio.
type Size struct {
	W, H       int
	PixelRatio float64
}

func (s Size) normalized() Size {
	if s.W < 1 {
		s.W = 1
	}
	if s.H < 1 {
		s.H = 1
	}
	if !(s.PixelRatio > 0) || math.IsInf(s.PixelRatio, 0) {
		s.PixelRatio = 1
	}
	return s
}

// Stats describes the last frame.
type Stats struct {
	Frames       int // total frames rendered
	Nodes        int
	Slots        int
	Edges        int
	SkippedNodes int // nodes at a non-finite position
	SkippedEdges int // edges with a missing or non-finite endpoint
	Regions      int // objects holding a region color
	Duration     time.Duration
}

type Options struct {
	// Face draws titles; nil uses the canvas's built-in bitmap face.
	Face       font.Face
	Icons      *icons.Registry
	Background colors.Color
	// TitleWidth truncates titles wider than this many world units; zero
	// disables truncation.
	TitleWidth float64
}

// Layer paints one pass of a frame. The transform of both canvases is saved
// before and restored after each layer.
type Layer interface {
	Name() string
	Paint(f *Frame) error
}

// Frame is the per-frame context handed to layers.
type Frame struct {
	State  *diagram.State
	Ctx    *gg.Context
	Region *region.Container
	Camera scene.Camera
	Size   Size
	Stats  *Stats
	opts   *Options
}

// Mirror paints obj's hit shape on the region canvas. The rectangle is
// snapped to whole device pixels so anti-aliasing never blends two keys.
func (f *Frame) Mirror(obj diagram.Object, r geometry.Rect) error {
	return f.Region.Render(obj, func(_ color.RGBA, ctx *gg.Context) {
		x0, y0 := ctx.TransformPoint(r.X, r.Y)
		x1, y1 := ctx.TransformPoint(r.X+r.W, r.Y+r.H)
		x0, x1 = snapSpan(x0, x1)
		y0, y1 = snapSpan(y0, y1)
		ctx.Identity()
		ctx.DrawRectangle(x0, y0, x1-x0, y1-y0)
		ctx.Fill()
	})
}

// snapSpan rounds both ends of [a, b] to pixel edges, keeping at least
// one pixel for a non-empty span.
func snapSpan(a, b float64) (float64, float64) {
	if a > b {
		a, b = b, a
	}
	lo, hi := math.Round(a), math.Round(b)
	if hi == lo && b > a {
		hi = lo + 1
	}
	return lo, hi
}

type Renderer struct {
	opts   Options
	ctx    *gg.Context
	region *region.Container
	layers core.LayerStack[Layer]
	size   Size
	stats  Stats
}

// New returns a renderer with the standard layers: grid, nodes, edges,
// edge preview and debug overlay.
func New(opts Options) *Renderer {
	if opts.Icons == nil {
		opts.Icons = icons.NewRegistry()
	}
	if opts.Background == (colors.Color{}) {
		opts.Background = colors.Background
	}
	r := &Renderer{
		opts:   opts,
		ctx:    gg.NewContext(1, 1),
		region: region.New(1, 1),
	}
	r.layers.Push(gridLayer{})
	r.layers.Push(nodeLayer{})
	r.layers.Push(edgeLayer{})
	r.layers.Push(previewLayer{})
	r.layers.Push(debugLayer{})
	return r
}

// PushLayer adds a layer above the standard ones.
func (r *Renderer) PushLayer(l Layer) { r.layers.Push(l) }

// Render paints one frame of s at the given size. It records the frame size
// in s.Frame and, when the size changed since the previous frame, re-anchors
// s.Viewport. A non-finite viewport is reset to the origin. No other field of
// s is touched.
func (r *Renderer) Render(s *diagram.State, size Size) error {
	defer profiler.Start("render")()
	start := time.Now()
	size = size.normalized()
	if !s.Viewport.Finite() {
		s.Viewport = geometry.Point{}
	}
	r.resize(s, size)

	cam := scene.CameraOf(s, size.W, size.H)
	r.ctx.Identity()
	r.ctx.SetColor(r.opts.Background)
	r.ctx.Clear()
	r.region.Erase()
	cam.Apply(r.ctx, size.PixelRatio)
	cam.Apply(r.region.Context(), size.PixelRatio)

	stats := Stats{Frames: r.stats.Frames + 1}
	f := &Frame{
		State:  s,
		Ctx:    r.ctx,
		Region: r.region,
		Camera: cam,
		Size:   size,
		Stats:  &stats,
		opts:   &r.opts,
	}
	err := r.layers.ForEach(func(l Layer) error {
		defer profiler.Start("render." + l.Name())()
		r.ctx.Push()
		r.region.Context().Push()
		defer r.ctx.Pop()
		defer r.region.Context().Pop()
		if err := l.Paint(f); err != nil {
			return fmt.Errorf("%s layer: %w", l.Name(), err)
		}
		return nil
	})
	stats.Regions = r.region.Len()
	stats.Duration = time.Since(start)
	r.stats = stats
	return err
}

func (r *Renderer) resize(s *diagram.State, size Size) {
	if !s.Frame.IsZero() && (s.Frame.Width != size.W || s.Frame.Height != size.H) {
		s.Viewport = scene.Reanchor(s.Viewport, s.Frame.Width, s.Frame.Height, size.W, size.H, diagram.ClampZoom(s.Zoom))
	}
	s.Frame = diagram.FrameInfo{Width: size.W, Height: size.H, PixelRatio: size.PixelRatio}
	r.size = size

	bw, bh := scene.BackingSize(size.W, size.H, size.PixelRatio)
	if r.ctx.Width() != bw || r.ctx.Height() != bh {
		r.ctx = gg.NewContext(bw, bh)
	}
	r.region.Resize(bw, bh)
}

// ObjectAt hit-tests a canvas-local point against the last frame.
func (r *Renderer) ObjectAt(p geometry.Point) diagram.Object {
	ratio := r.size.normalized().PixelRatio
	return r.region.ObjectAt(int(math.Floor(p.X*ratio)), int(math.Floor(p.Y*ratio)))
}

// ClearRegions drops every region color. Call it when the dataset changes.
func (r *Renderer) ClearRegions() { r.region.Clear() }

// Image is the visible frame at device resolution.
func (r *Renderer) Image() *image.RGBA { return r.ctx.Image().(*image.RGBA) }

// Region exposes the hit-test canvas.
func (r *Renderer) Region() *region.Container { return r.region }

func (r *Renderer) Stats() Stats { return r.stats }
func (r *Renderer) Size() Size   { return r.size }
