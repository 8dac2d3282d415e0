package colors

import (
	"strings"

	"github.com/cespare/xxhash/v2"
	colorful "github.com/lucasb-eyer/go-colorful"
)

// Color is straight (non-premultiplied) RGBA in [0..1]. It implements
// color.Color so it can be handed to the canvas directly.
type Color [4]float32

var (
	White       = Color{1, 1, 1, 1}
	Black       = Color{0, 0, 0, 1}
	Transparent = Color{0, 0, 0, 0}
	Red         = Color{0.86, 0.21, 0.27, 1}
	Green       = Color{0.16, 0.65, 0.27, 1}
	Gray        = Color{0.55, 0.57, 0.6, 1}
	LightGray   = Color{0.86, 0.87, 0.89, 1}
	Blue        = Color{0.05, 0.43, 0.99, 1}
	Yellow      = Color{1, 0.76, 0.03, 1}
	Magenta     = Color{1, 0, 1, 1}
	DarkGray    = Color{0.08, 0.10, 0.12, 1}

	Background = Color{0.97, 0.97, 0.98, 1}
	GridMinor  = Color{0.91, 0.92, 0.94, 1}
	GridMajor  = Color{0.82, 0.84, 0.87, 1}
	Shadow     = Color{0, 0, 0, 0.25}
	Text       = Color{0.13, 0.15, 0.17, 1}
	Selection  = Blue
	Crosshair  = Magenta

	// SlotDefault strokes edges and slot outlines.
	SlotDefault = Gray
)

func (c Color) WithAlpha(a float32) Color {
	c[3] = a
	return c
}

// RGBA implements color.Color.
func (c Color) RGBA() (r, g, b, a uint32) {
	a = uint32(clamp01(c[3]) * 0xffff)
	r = uint32(clamp01(c[0])*0xffff) * a / 0xffff
	g = uint32(clamp01(c[1])*0xffff) * a / 0xffff
	b = uint32(clamp01(c[2])*0xffff) * a / 0xffff
	return
}

func clamp01(v float32) float32 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func fromColorful(c colorful.Color, alpha float32) Color {
	c = c.Clamped()
	return Color{float32(c.R), float32(c.G), float32(c.B), alpha}
}

func (c Color) colorful() colorful.Color {
	return colorful.Color{R: float64(c[0]), G: float64(c[1]), B: float64(c[2])}
}

// Hex parses "#rrggbb" or "#rgb". The leading '#' is optional.
func Hex(s string) (Color, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Color{}, false
	}
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, false
	}
	return fromColorful(c, 1), true
}

// ToHex formats c as "#rrggbb", dropping alpha.
func (c Color) ToHex() string { return c.colorful().Clamped().Hex() }

// Darken blends c towards black in Lab space by t in [0..1].
func (c Color) Darken(t float64) Color {
	return fromColorful(c.colorful().BlendLab(colorful.Color{}, t), c[3])
}

// Lighten blends c towards white in Lab space by t in [0..1].
func (c Color) Lighten(t float64) Color {
	return fromColorful(c.colorful().BlendLab(colorful.Color{R: 1, G: 1, B: 1}, t), c[3])
}

// ForID derives a stable fill for nodes that carry no color of their own.
func ForID(id string) Color {
	hue := float64(xxhash.Sum64String(id)%360) + 0.5
	return fromColorful(colorful.Hsv(hue, 0.55, 0.78), 1)
}

// NodeFill resolves a node's hex color, falling back to ForID.
func NodeFill(hex, id string) Color {
	if c, ok := Hex(hex); ok {
		return c
	}
	return ForID(id)
}
