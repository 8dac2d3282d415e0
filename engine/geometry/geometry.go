// Package geometry holds the fixed design constants of the diagram and the
// layout helpers that derive glyph and slot rectangles from a node position.
// All values are world units; nothing here is configurable per node.
package geometry

import "math"

const (
	IconSize   = 50
	SlotSize   = 12
	SlotGap    = 3 // between slot cells
	SlotMargin = 5 // between icon bottom and slot grid
	SlotPitch  = SlotSize + SlotGap

	GlyphSize   = 17
	GlyphOffset = 4
	TitleGap    = 5

	GridMinor  = 10
	GridMajor  = 100
	GridExtent = 10000
)

type Point struct{ X, Y float64 }

func Pt(x, y float64) Point { return Point{X: x, Y: y} }

func (p Point) Add(q Point) Point     { return Point{p.X + q.X, p.Y + q.Y} }
func (p Point) Sub(q Point) Point     { return Point{p.X - q.X, p.Y - q.Y} }
func (p Point) Scale(f float64) Point { return Point{p.X * f, p.Y * f} }
func (p Point) IsZero() bool          { return p.X == 0 && p.Y == 0 }
func (p Point) Len() float64          { return math.Hypot(p.X, p.Y) }

// Finite reports whether neither coordinate is NaN or infinite.
func (p Point) Finite() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) && !math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// Eq compares within eps on each axis.
func (p Point) Eq(q Point, eps float64) bool {
	return math.Abs(p.X-q.X) <= eps && math.Abs(p.Y-q.Y) <= eps
}

// Rect is an axis-aligned rectangle with its origin at the top-left corner.
type Rect struct{ X, Y, W, H float64 }

func (r Rect) Center() Point { return Point{r.X + r.W/2, r.Y + r.H/2} }
func (r Rect) Max() Point    { return Point{r.X + r.W, r.Y + r.H} }
func (r Rect) Empty() bool   { return r.W <= 0 || r.H <= 0 }

func (r Rect) Translate(d Point) Rect { return Rect{r.X + d.X, r.Y + d.Y, r.W, r.H} }

// Contains reports whether p lies inside r, right and bottom edges excluded.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.X && p.X < r.X+r.W && p.Y >= r.Y && p.Y < r.Y+r.H
}

// IconRect is the icon bounding box; p is the icon center.
func IconRect(p Point) Rect {
	return Rect{p.X - IconSize/2, p.Y - IconSize/2, IconSize, IconSize}
}

// SlotGridRect is the box enclosing every slot cell, centered under the icon.
func SlotGridRect(p Point, cols, rows int) Rect {
	if cols <= 0 || rows <= 0 {
		return Rect{p.X, p.Y + IconSize/2, 0, 0}
	}
	w := float64(cols)*SlotSize + float64(cols-1)*SlotGap
	h := float64(rows)*SlotSize + float64(rows-1)*SlotGap
	return Rect{p.X - w/2, p.Y + IconSize/2 + SlotMargin, w, h}
}

// SlotRect returns the cell of slot id in a cols x rows grid.
func SlotRect(p Point, cols, rows, id int) (Rect, bool) {
	if cols <= 0 || rows <= 0 || id < 0 || id >= cols*rows {
		return Rect{}, false
	}
	grid := SlotGridRect(p, cols, rows)
	row, col := id/cols, id%cols
	return Rect{
		X: grid.X + float64(col)*SlotPitch,
		Y: grid.Y + float64(row)*SlotPitch,
		W: SlotSize,
		H: SlotSize,
	}, true
}

// CheckboxRect is the selection glyph at the icon's top-right corner.
func CheckboxRect(p Point) Rect {
	return Rect{p.X + IconSize/2 + GlyphOffset, p.Y - IconSize/2, GlyphSize, GlyphSize}
}

// DeleteRect is the delete glyph, stacked below the checkbox.
func DeleteRect(p Point) Rect {
	c := CheckboxRect(p)
	return Rect{c.X, c.Y + GlyphSize + GlyphOffset, GlyphSize, GlyphSize}
}

// SlotDeleteRect is the delete glyph shown to the right of a selected slot.
func SlotDeleteRect(slot Rect) Rect {
	return Rect{
		X: slot.X + slot.W + GlyphOffset,
		Y: slot.Center().Y - GlyphSize/2.0,
		W: GlyphSize,
		H: GlyphSize,
	}
}

// TitleOrigin is the top-center anchor of the title text.
func TitleOrigin(p Point, cols, rows int) Point {
	grid := SlotGridRect(p, cols, rows)
	if grid.Empty() {
		return Point{p.X, p.Y + IconSize/2 + TitleGap}
	}
	return Point{p.X, grid.Y + grid.H + TitleGap}
}
