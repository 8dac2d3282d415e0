// Package icons resolves a node's icon reference to something drawable:
// either a vector outline parsed from SVG path data, or a raster image.
package icons

import (
	"image"
	"sync"

	"github.com/fogleman/gg"

	"github.com/hubastard/netcanvas/engine/errors"
	"github.com/hubastard/netcanvas/engine/geometry"
)

// Fallback is drawn for unknown icon references.
const Fallback = "device"

// Icon is a vector outline in a W x H box, or a raster image.
type Icon struct {
	Name  string
	W, H  float64
	Path  Path
	Image image.Image
}

// builtins are outlines on a 24x24 box.
var builtins = map[string]string{
	"device":    "M12 2L22 7V17L12 22L2 17V7Z",
	"server":    "M3 2h18v8H3Z M3 13h18v8H3Z",
	"host":      "M2 3h20v13H2Z M9 17h6v4H9Z",
	"router":    "M2 13h20v7H2Z M11 4h2v9h-2Z M6 7h2v6H6Z M16 7h2v6h-2Z",
	"switch":    "M1 8h22v8H1Z",
	"satellite": "M9 9h6v6H9Z M1 10h7v4H1Z M16 10h7v4h-7Z M11 3h2v6h-2Z",
	"cloud":     "M6 19C2 19 1 14 5 13C5 8 11 6 13 10C16 7 21 9 20 13C23 14 23 19 19 19Z",
}

// Registry maps icon references to icons. It is safe for concurrent use.
type Registry struct {
	mu    sync.RWMutex
	icons map[string]*Icon
}

// NewRegistry returns a registry preloaded with the built-in outlines.
func NewRegistry() *Registry {
	r := &Registry{icons: make(map[string]*Icon)}
	for name, d := range builtins {
		if err := r.RegisterPath(name, 24, 24, d); err != nil {
			panic(err) // built-in data is static
		}
	}
	return r
}

// RegisterPath parses d and registers it under name.
func (r *Registry) RegisterPath(name string, w, h float64, d string) error {
	if w <= 0 || h <= 0 {
		return errors.New(errors.ErrCodeInvalidInput, "icon %q: box must be positive, got %vx%v", name, w, h)
	}
	p, err := ParsePath(d)
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidInput, err, "icon %q", name)
	}
	r.put(&Icon{Name: name, W: w, H: h, Path: p})
	return nil
}

// RegisterImage registers a raster icon.
func (r *Registry) RegisterImage(name string, img image.Image) {
	b := img.Bounds()
	r.put(&Icon{Name: name, W: float64(b.Dx()), H: float64(b.Dy()), Image: img})
}

func (r *Registry) put(ic *Icon) {
	r.mu.Lock()
	r.icons[ic.Name] = ic
	r.mu.Unlock()
}

// Lookup returns the icon for name, or the fallback icon.
func (r *Registry) Lookup(name string) *Icon {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if ic, ok := r.icons[name]; ok {
		return ic
	}
	return r.icons[Fallback]
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.icons[name]
	return ok
}

// fit returns the scale and offset that center a w x h box inside dst while
// keeping its aspect ratio.
func fit(w, h float64, dst geometry.Rect) (float64, geometry.Point) {
	s := min(dst.W/w, dst.H/h)
	off := geometry.Point{
		X: dst.X + (dst.W-w*s)/2,
		Y: dst.Y + (dst.H-h*s)/2,
	}
	return s, off
}

// AppendPath adds a vector icon's outline, fitted to dst, to ctx's current
// path. Raster icons contribute their bounding box.
func (ic *Icon) AppendPath(ctx *gg.Context, dst geometry.Rect) {
	s, off := fit(ic.W, ic.H, dst)
	if ic.Image != nil {
		ctx.DrawRectangle(off.X, off.Y, ic.W*s, ic.H*s)
		return
	}
	ic.Path.Append(ctx, s, off)
}

// Draw paints the icon into dst. Vector icons are filled with the current
// color; raster icons are drawn as-is.
func (ic *Icon) Draw(ctx *gg.Context, dst geometry.Rect) {
	if ic.Image == nil {
		ic.AppendPath(ctx, dst)
		ctx.Fill()
		return
	}
	s, off := fit(ic.W, ic.H, dst)
	ctx.Push()
	ctx.Translate(off.X, off.Y)
	ctx.Scale(s, s)
	ctx.DrawImage(ic.Image, 0, 0)
	ctx.Pop()
}
