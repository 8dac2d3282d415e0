// Package region implements hit-testing by color: every hit-testable object is
// painted a second time, in a unique flat color, onto an off-screen canvas
// that shares the visible canvas's transform. A single pixel read then tells
// which object occupies a point.
package region

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/errors"
)

// keySpace is the number of usable 24-bit keys; 0 is reserved for "nothing".
const keySpace = 1<<24 - 1

// mix scatters sequential indices across the RGB cube. It is odd, so
// n -> n*mix mod 2^24 is a bijection and never maps a nonzero n to 0.
const mix = 0x9E3779

// PaintFunc draws an object's hit shape. The fill and stroke color are
// already set to c.
type PaintFunc func(c color.RGBA, ctx *gg.Context)

// Container is the color-keyed spatial index.
type Container struct {
	ctx     *gg.Context
	colors  map[diagram.Object]uint32
	objects map[uint32]diagram.Object
	next    uint32
	limit   uint32
}

func New(w, h int) *Container {
	c := &Container{limit: keySpace}
	c.Resize(w, h)
	c.Clear()
	return c
}

// Resize replaces the backing canvas when the size changes. Pixels are lost;
// color assignments are kept.
func (c *Container) Resize(w, h int) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	if c.ctx != nil && c.ctx.Width() == w && c.ctx.Height() == h {
		return
	}
	c.ctx = gg.NewContext(w, h)
}

// Context is the off-screen canvas. The renderer applies the frame transform
// to it alongside the visible canvas.
func (c *Container) Context() *gg.Context { return c.ctx }

// Image exposes the backing pixels, e.g. for the debug overlay.
func (c *Container) Image() *image.RGBA { return c.ctx.Image().(*image.RGBA) }

// Len is the number of objects holding a color.
func (c *Container) Len() int { return len(c.colors) }

// InsertIfAbsent returns obj's color, allocating the next free one if needed.
// Running out of colors means Clear is not being called and is reported as
// ErrCodePaletteExhausted.
func (c *Container) InsertIfAbsent(obj diagram.Object) (color.RGBA, error) {
	if key, ok := c.colors[obj]; ok {
		return keyColor(key), nil
	}
	if c.next >= c.limit {
		return color.RGBA{}, errors.New(errors.ErrCodePaletteExhausted,
			"region palette exhausted after %d objects", c.next)
	}
	c.next++
	key := (c.next * mix) & 0xFFFFFF
	c.colors[obj] = key
	c.objects[key] = obj
	return keyColor(key), nil
}

// Render paints obj's hit region. paint must mirror the shape drawn on the
// visible canvas. The transform in effect before the call is restored.
func (c *Container) Render(obj diagram.Object, paint PaintFunc) error {
	col, err := c.InsertIfAbsent(obj)
	if err != nil {
		return err
	}
	c.ctx.Push()
	defer c.ctx.Pop()
	c.ctx.SetColor(col)
	paint(col, c.ctx)
	return nil
}

// ObjectAt returns the object painted at backing pixel (x, y), or nil.
// Pixels that are not fully opaque (background, or anti-aliased edges) never
// resolve.
func (c *Container) ObjectAt(x, y int) diagram.Object {
	img := c.Image()
	if !(image.Point{X: x, Y: y}.In(img.Bounds())) {
		return nil
	}
	px := img.RGBAAt(x, y)
	if px.A != 0xff {
		return nil
	}
	return c.objects[uint32(px.R)<<16|uint32(px.G)<<8|uint32(px.B)]
}

// Clear drops every color assignment. Pixels are left for the next frame to
// overwrite.
func (c *Container) Clear() {
	c.colors = make(map[diagram.Object]uint32)
	c.objects = make(map[uint32]diagram.Object)
	c.next = 0
}

// Erase resets every pixel to transparent.
func (c *Container) Erase() {
	c.ctx.Push()
	c.ctx.Identity()
	c.ctx.SetColor(color.Transparent)
	c.ctx.Clear()
	c.ctx.Pop()
}

func keyColor(key uint32) color.RGBA {
	return color.RGBA{R: uint8(key >> 16), G: uint8(key >> 8), B: uint8(key), A: 0xff}
}
