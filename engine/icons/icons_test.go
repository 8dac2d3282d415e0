package icons

import (
	"image"
	"image/color"
	"testing"

	"github.com/fogleman/gg"

	"github.com/hubastard/netcanvas/engine/errors"
	"github.com/hubastard/netcanvas/engine/geometry"
)

func TestParsePathAbsolute(t *testing.T) {
	p, err := ParsePath("M0 0 L10 0 H20 V5 Z")
	if err != nil {
		t.Fatal(err)
	}
	kinds := ""
	for _, op := range p {
		kinds += string(op.Kind)
	}
	if kinds != "MLLLZ" {
		t.Errorf("kinds = %q, want MLLLZ", kinds)
	}
	if got, want := p[3].Pts[0], geometry.Pt(20, 5); got != want {
		t.Errorf("V endpoint = %+v, want %+v", got, want)
	}
}

func TestParsePathRelativeAndImplicit(t *testing.T) {
	p, err := ParsePath("m1,1 2,0 0,2 h-2z")
	if err != nil {
		t.Fatal(err)
	}
	want := []geometry.Point{{X: 1, Y: 1}, {X: 3, Y: 1}, {X: 3, Y: 3}, {X: 1, Y: 3}}
	for i, w := range want {
		if got := p[i].Pts[0]; got != w {
			t.Errorf("op %d = %+v, want %+v", i, got, w)
		}
	}
	if p[1].Kind != 'L' {
		t.Errorf("implicit coordinates after m should be lines, got %q", p[1].Kind)
	}
}

func TestParsePathCurves(t *testing.T) {
	p, err := ParsePath("M0 0C0 10 10 10 10 0S20-10 20 0Q25 5 30 0T40 0")
	if err != nil {
		t.Fatal(err)
	}
	if len(p) != 5 {
		t.Fatalf("len = %d, want 5", len(p))
	}
	// S reflects the previous second control point (10,10) about (10,0).
	if got, want := p[2].Pts[0], geometry.Pt(10, -10); got != want {
		t.Errorf("S first control = %+v, want %+v", got, want)
	}
	// T reflects (25,5) about (30,0).
	if got, want := p[4].Pts[0], geometry.Pt(35, -5); got != want {
		t.Errorf("T control = %+v, want %+v", got, want)
	}
}

func TestParsePathNumbers(t *testing.T) {
	p, err := ParsePath("M-1.5.5L1e1-2e-1")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := p[0].Pts[0], geometry.Pt(-1.5, 0.5); got != want {
		t.Errorf("M = %+v, want %+v", got, want)
	}
	if got, want := p[1].Pts[0], geometry.Pt(10, -0.2); !got.Eq(want, 1e-12) {
		t.Errorf("L = %+v, want %+v", got, want)
	}
}

func TestParsePathErrors(t *testing.T) {
	for _, d := range []string{"10 10", "M0 0 A5 5 0 0 1 10 10", "M0", "M0 0 Lx"} {
		if _, err := ParsePath(d); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("ParsePath(%q) err = %v, want INVALID_INPUT", d, err)
		}
	}
}

func TestBounds(t *testing.T) {
	p, _ := ParsePath("M2 3L12 3L12 9Z")
	if got, want := p.Bounds(), (geometry.Rect{X: 2, Y: 3, W: 10, H: 6}); got != want {
		t.Errorf("Bounds() = %+v, want %+v", got, want)
	}
}

func TestBuiltinsParse(t *testing.T) {
	r := NewRegistry()
	for name := range builtins {
		if !r.Has(name) {
			t.Errorf("builtin %q not registered", name)
		}
	}
	if got := r.Lookup("no-such-icon"); got == nil || got.Name != Fallback {
		t.Errorf("Lookup(unknown) = %v, want fallback", got)
	}
}

func TestRegisterPathRejectsBadBox(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterPath("x", 0, 24, "M0 0Z"); err == nil {
		t.Error("RegisterPath with zero width should fail")
	}
}

func TestDrawFillsFittedBox(t *testing.T) {
	r := NewRegistry()
	if err := r.RegisterPath("square", 10, 10, "M0 0H10V10H0Z"); err != nil {
		t.Fatal(err)
	}
	ctx := gg.NewContext(60, 60)
	ctx.SetColor(color.Black)
	r.Lookup("square").Draw(ctx, geometry.Rect{X: 10, Y: 10, W: 40, H: 40})

	img := ctx.Image().(*image.RGBA)
	if a := img.RGBAAt(30, 30).A; a != 0xff {
		t.Errorf("center alpha = %d, want 255", a)
	}
	if a := img.RGBAAt(5, 5).A; a != 0 {
		t.Errorf("outside alpha = %d, want 0", a)
	}
}

func TestRasterIcon(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := range src.Pix {
		src.Pix[i] = 0xff
	}
	r := NewRegistry()
	r.RegisterImage("png", src)

	ic := r.Lookup("png")
	if ic.W != 4 || ic.H != 4 || ic.Image == nil {
		t.Fatalf("raster icon = %+v", ic)
	}
	ctx := gg.NewContext(20, 20)
	ic.Draw(ctx, geometry.Rect{X: 0, Y: 0, W: 20, H: 20})
	if a := ctx.Image().(*image.RGBA).RGBAAt(10, 10).A; a == 0 {
		t.Error("raster icon not drawn")
	}
}
