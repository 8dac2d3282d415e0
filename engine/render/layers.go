package render

import (
	"image"
	"image/color"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"

	"github.com/hubastard/netcanvas/engine/colors"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/geometry"
	"github.com/hubastard/netcanvas/engine/text"
)

const (
	edgeWidth   = 1.5
	shadowShift = 2
)

var edgeDash = []float64{4, 3}

// SlotColor is the fill of a slot in state st. Unknown states render like
// DOWN so bad data stays visible.
func SlotColor(st diagram.SlotState) colors.Color {
	switch st {
	case diagram.SlotUp:
		return colors.Green
	case diagram.SlotEmpty:
		return colors.Gray
	default:
		return colors.Red
	}
}

type gridLayer struct{}

func (gridLayer) Name() string { return "grid" }

func (gridLayer) Paint(f *Frame) error {
	if f.State.Grid != diagram.GridFull {
		return nil
	}
	vis := f.Camera.VisibleWorld()
	page := geometry.Rect{X: -geometry.GridExtent, Y: -geometry.GridExtent, W: 2 * geometry.GridExtent, H: 2 * geometry.GridExtent}
	minX, minY := max(vis.X, page.X), max(vis.Y, page.Y)
	maxX, maxY := min(vis.X+vis.W, page.X+page.W), min(vis.Y+vis.H, page.Y+page.H)
	if minX >= maxX || minY >= maxY {
		return nil
	}

	ctx := f.Ctx
	ctx.SetLineWidth(1)
	for _, g := range []struct {
		step float64
		col  colors.Color
	}{
		{geometry.GridMinor, colors.GridMinor},
		{geometry.GridMajor, colors.GridMajor},
	} {
		for x := math.Ceil(minX/g.step) * g.step; x <= maxX; x += g.step {
			ctx.MoveTo(x, minY)
			ctx.LineTo(x, maxY)
		}
		for y := math.Ceil(minY/g.step) * g.step; y <= maxY; y += g.step {
			ctx.MoveTo(minX, y)
			ctx.LineTo(maxX, y)
		}
		ctx.SetColor(g.col)
		ctx.Stroke()
	}
	return nil
}

type nodeLayer struct{}

func (nodeLayer) Name() string { return "nodes" }

func (nodeLayer) Paint(f *Frame) error {
	s := f.State
	sel := s.Selected()
	for _, n := range s.SortedNodes() {
		if !s.NodePosition(n).Finite() {
			f.Stats.SkippedNodes++
			continue
		}
		if err := paintNode(f, n, sel); err != nil {
			return err
		}
		f.Stats.Nodes++
	}
	return nil
}

func paintNode(f *Frame, n *diagram.Node, sel diagram.Object) error {
	ctx := f.Ctx
	ref := diagram.NodeRef{ID: n.ID}
	pos := f.State.NodePosition(n)
	iconRect := geometry.IconRect(pos)
	icon := f.opts.Icons.Lookup(n.Icon)

	ctx.SetColor(colors.Shadow)
	icon.AppendPath(ctx, iconRect.Translate(geometry.Pt(shadowShift, shadowShift)))
	ctx.Fill()
	ctx.SetColor(colors.NodeFill(n.Color, n.ID))
	icon.Draw(ctx, iconRect)
	if err := f.Mirror(ref, iconRect); err != nil {
		return err
	}

	cb := geometry.CheckboxRect(pos)
	drawCheckbox(ctx, cb, sel == ref)
	if err := f.Mirror(ref, cb); err != nil {
		return err
	}
	if sel == ref {
		del := geometry.DeleteRect(pos)
		drawDeleteGlyph(ctx, del)
		if err := f.Mirror(diagram.DeleteAction{}, del); err != nil {
			return err
		}
	}

	for id := 0; id < n.SlotCount(); id++ {
		r, _ := geometry.SlotRect(pos, n.Columns, n.Rows, id)
		slot := diagram.SlotRef{NodeID: n.ID, Slot: id}
		drawSlot(ctx, r, n.SlotState(id))
		if err := f.Mirror(slot, r); err != nil {
			return err
		}
		if sel == slot {
			ctx.SetColor(colors.Selection)
			ctx.SetLineWidth(2)
			ctx.DrawRectangle(r.X-1, r.Y-1, r.W+2, r.H+2)
			ctx.Stroke()
			del := geometry.SlotDeleteRect(r)
			drawDeleteGlyph(ctx, del)
			if err := f.Mirror(diagram.DeleteAction{}, del); err != nil {
				return err
			}
		}
		f.Stats.Slots++
	}

	if n.Title != "" {
		title := n.Title
		if f.opts.Face != nil {
			ctx.SetFontFace(f.opts.Face)
			title = text.Truncate(f.opts.Face, title, f.opts.TitleWidth)
		}
		o := geometry.TitleOrigin(pos, n.Columns, n.Rows)
		ctx.SetColor(colors.Text)
		ctx.DrawStringAnchored(title, o.X, o.Y, 0.5, 1)
	}
	return nil
}

func drawSlot(ctx *gg.Context, r geometry.Rect, st diagram.SlotState) {
	if st == diagram.SlotEmpty {
		ctx.SetColor(colors.LightGray)
		ctx.DrawRectangle(r.X, r.Y, r.W, r.H)
		ctx.Fill()
		ctx.SetColor(colors.Gray)
		ctx.SetLineWidth(1)
		ctx.DrawRectangle(r.X, r.Y, r.W, r.H)
		ctx.MoveTo(r.X, r.Y+r.H)
		ctx.LineTo(r.X+r.W, r.Y)
		ctx.Stroke()
		return
	}
	ctx.SetColor(SlotColor(st))
	ctx.DrawRectangle(r.X, r.Y, r.W, r.H)
	ctx.Fill()
}

func drawCheckbox(ctx *gg.Context, r geometry.Rect, checked bool) {
	ctx.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, 3)
	if checked {
		ctx.SetColor(colors.Selection)
		ctx.Fill()
		ctx.SetColor(colors.White)
		ctx.SetLineWidth(2)
		ctx.MoveTo(r.X+r.W*0.25, r.Y+r.H*0.5)
		ctx.LineTo(r.X+r.W*0.45, r.Y+r.H*0.72)
		ctx.LineTo(r.X+r.W*0.78, r.Y+r.H*0.3)
		ctx.Stroke()
		return
	}
	ctx.SetColor(colors.White)
	ctx.FillPreserve()
	ctx.SetColor(colors.Gray)
	ctx.SetLineWidth(1)
	ctx.Stroke()
}

func drawDeleteGlyph(ctx *gg.Context, r geometry.Rect) {
	ctx.SetColor(colors.Red)
	ctx.DrawRoundedRectangle(r.X, r.Y, r.W, r.H, 3)
	ctx.Fill()
	ctx.SetColor(colors.White)
	ctx.SetLineWidth(2)
	inset := r.W * 0.3
	ctx.DrawLine(r.X+inset, r.Y+inset, r.X+r.W-inset, r.Y+r.H-inset)
	ctx.DrawLine(r.X+r.W-inset, r.Y+inset, r.X+inset, r.Y+r.H-inset)
	ctx.Stroke()
}

type edgeLayer struct{}

func (edgeLayer) Name() string { return "edges" }

func (edgeLayer) Paint(f *Frame) error {
	s := f.State
	ctx := f.Ctx
	for _, e := range s.AllEdges() {
		from, ok1 := s.SlotRect(e.From)
		to, ok2 := s.SlotRect(e.To)
		a, b := from.Center(), to.Center()
		if !ok1 || !ok2 || !a.Finite() || !b.Finite() {
			f.Stats.SkippedEdges++
			continue
		}
		ctx.SetColor(colors.SlotDefault)
		ctx.SetLineWidth(edgeWidth)
		ctx.SetDash(edgeDash...)
		ctx.DrawLine(a.X, a.Y, b.X, b.Y)
		ctx.Stroke()
		ctx.SetDash()

		for _, end := range []struct {
			ref diagram.SlotRef
			r   geometry.Rect
		}{{e.From, from}, {e.To, to}} {
			ctx.SetColor(SlotColor(s.Node(end.ref.NodeID).SlotState(end.ref.Slot)))
			ctx.DrawRectangle(end.r.X, end.r.Y, end.r.W, end.r.H)
			ctx.Fill()
		}
		f.Stats.Edges++
	}
	return nil
}

// previewLayer draws the rubber band of an edge being created. It has no
// region mirror so the drop target under the pointer stays hit-testable.
type previewLayer struct{}

func (previewLayer) Name() string { return "preview" }

func (previewLayer) Paint(f *Frame) error {
	d := f.State.Dragging
	if d == nil || !d.InProgress || d.Edge == nil {
		return nil
	}
	from, ok := f.State.SlotRect(d.Edge.From)
	a := from.Center()
	b := f.Camera.CanvasToWorld(d.Edge.Pointer)
	if !ok || !a.Finite() || !b.Finite() {
		return nil
	}
	ctx := f.Ctx
	ctx.SetColor(colors.Selection)
	ctx.SetLineWidth(edgeWidth)
	ctx.SetDash(edgeDash...)
	ctx.DrawLine(a.X, a.Y, b.X, b.Y)
	ctx.Stroke()
	ctx.SetDash()
	ctx.DrawCircle(b.X, b.Y, 3)
	ctx.Fill()
	return nil
}

// debugLayer blends the region canvas over the frame and marks the last
// click.
type debugLayer struct{}

func (debugLayer) Name() string { return "debug" }

func (debugLayer) Paint(f *Frame) error {
	dbg := f.State.Debug
	if !dbg.Enabled {
		return nil
	}
	dst := f.Ctx.Image().(*image.RGBA)
	half := image.NewUniform(color.Alpha{A: 0x80})
	draw.DrawMask(dst, dst.Bounds(), f.Region.Image(), image.Point{}, half, image.Point{}, draw.Over)

	ctx := f.Ctx
	ctx.Identity()
	if dbg.LastClick != nil {
		p := dbg.LastClick.Scale(f.Size.PixelRatio)
		w, h := float64(ctx.Width()), float64(ctx.Height())
		ctx.SetColor(colors.Crosshair)
		ctx.SetLineWidth(1)
		ctx.DrawLine(0, p.Y, w, p.Y)
		ctx.DrawLine(p.X, 0, p.X, h)
		ctx.Stroke()
	}
	return nil
}
