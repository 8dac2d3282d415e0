package render

import (
	"bytes"
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/hubastard/netcanvas/engine/colors"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/geometry"
)

var (
	refA  = diagram.NodeRef{ID: "A"}
	refB  = diagram.NodeRef{ID: "B"}
	slotA = diagram.SlotRef{NodeID: "A", Slot: 0}
	slotB = diagram.SlotRef{NodeID: "B", Slot: 0}
)

// pairState is two 1x1 nodes 100 units apart joined by one edge.
func pairState() *diagram.State {
	nodes := []*diagram.Node{
		{ID: "A", Icon: "server", Position: geometry.Pt(0, 0), Columns: 1, Rows: 1, Slots: []diagram.Slot{{State: diagram.SlotUp}}},
		{ID: "B", Icon: "router", Position: geometry.Pt(100, 0), Columns: 1, Rows: 1, Slots: []diagram.Slot{{State: diagram.SlotDown}}},
	}
	s := diagram.NewState(nodes, []diagram.Edge{{From: slotA, To: slotB}}, nil)
	s.Grid = diagram.GridNone
	return s
}

func rgba(c color.Color) color.RGBA { return color.RGBAModel.Convert(c).(color.RGBA) }

func mustRender(t *testing.T, r *Renderer, s *diagram.State, size Size) *image.RGBA {
	t.Helper()
	if err := r.Render(s, size); err != nil {
		t.Fatal(err)
	}
	return r.Image()
}

func TestNodeAndEdgePlacement(t *testing.T) {
	r := New(Options{})
	s := pairState()
	img := mustRender(t, r, s, Size{W: 800, H: 600, PixelRatio: 1})

	if got := r.ObjectAt(geometry.Pt(400, 300)); got != refA {
		t.Errorf("canvas center hits %v, want %v", got, refA)
	}
	if got := r.ObjectAt(geometry.Pt(500, 300)); got != refB {
		t.Errorf("(500,300) hits %v, want %v", got, refB)
	}

	// Slot grids sit 30 units below the icon center; 1x1 slot centers are at y=36.
	if got := r.ObjectAt(geometry.Pt(400, 336)); got != slotA {
		t.Errorf("slot A hit = %v, want %v", got, slotA)
	}
	if got := img.RGBAAt(400, 336); got != rgba(colors.Green) {
		t.Errorf("slot A pixel = %v, want green", got)
	}
	if got := img.RGBAAt(500, 336); got != rgba(colors.Red) {
		t.Errorf("slot B pixel = %v, want red", got)
	}

	bg := rgba(colors.Background)
	stroked := false
	for x := 440; x < 448; x++ {
		if img.RGBAAt(x, 336) != bg {
			stroked = true
		}
	}
	if !stroked {
		t.Error("no edge pixels between the slot centers")
	}
	if img.RGBAAt(450, 400) != bg {
		t.Error("edge drawn off the slot-center line")
	}

	st := r.Stats()
	if st.Nodes != 2 || st.Slots != 2 || st.Edges != 1 || st.SkippedEdges != 0 || st.Frames != 1 {
		t.Errorf("stats = %+v", st)
	}
}

func TestPixelRatioScalesBacking(t *testing.T) {
	r := New(Options{})
	s := pairState()
	img := mustRender(t, r, s, Size{W: 400, H: 300, PixelRatio: 2})

	if b := img.Bounds(); b.Dx() != 800 || b.Dy() != 600 {
		t.Fatalf("backing = %v, want 800x600", b)
	}
	if got := r.Region().ObjectAt(400, 300); got != refA {
		t.Errorf("backing center = %v, want %v", got, refA)
	}
	if got := r.Region().ObjectAt(600, 300); got != refB {
		t.Errorf("backing (600,300) = %v, want %v", got, refB)
	}
	if got := r.ObjectAt(geometry.Pt(300, 150)); got != refB {
		t.Errorf("logical (300,150) = %v, want %v", got, refB)
	}
}

func TestResizeReanchorsViewport(t *testing.T) {
	r := New(Options{})
	s := pairState()

	mustRender(t, r, s, Size{W: 800, H: 600, PixelRatio: 1})
	if s.Viewport != (geometry.Point{}) {
		t.Fatalf("first frame moved the viewport: %v", s.Viewport)
	}
	mustRender(t, r, s, Size{W: 400, H: 600, PixelRatio: 1})
	if s.Viewport != geometry.Pt(100, 0) {
		t.Errorf("viewport = %v, want (100,0)", s.Viewport)
	}
	mustRender(t, r, s, Size{W: 400, H: 600, PixelRatio: 2})
	if s.Viewport != geometry.Pt(100, 0) {
		t.Errorf("ratio change moved the viewport: %v", s.Viewport)
	}
	if s.Frame != (diagram.FrameInfo{Width: 400, Height: 600, PixelRatio: 2}) {
		t.Errorf("frame info = %+v", s.Frame)
	}
}

func TestRenderIsIdempotent(t *testing.T) {
	r := New(Options{})
	s := pairState()
	s.Grid = diagram.GridFull
	s.Selection = slotB
	size := Size{W: 320, H: 240, PixelRatio: 1}

	first := bytes.Clone(mustRender(t, r, s, size).Pix)
	region := bytes.Clone(r.Region().Image().Pix)
	second := mustRender(t, r, s, size).Pix
	if !bytes.Equal(first, second) {
		t.Error("visible frames differ for an unchanged state")
	}
	if !bytes.Equal(region, r.Region().Image().Pix) {
		t.Error("region frames differ for an unchanged state")
	}
	if r.Stats().Frames != 2 {
		t.Errorf("Frames = %d, want 2", r.Stats().Frames)
	}
}

func TestDanglingEdgeIsSkipped(t *testing.T) {
	r := New(Options{})
	s := pairState()
	s.Edges["A"] = append(s.Edges["A"], diagram.Edge{From: slotA, To: diagram.SlotRef{NodeID: "gone", Slot: 0}})
	s.Edges["B"] = []diagram.Edge{{From: diagram.SlotRef{NodeID: "B", Slot: 7}, To: slotA}}

	mustRender(t, r, s, Size{W: 400, H: 400, PixelRatio: 1})
	if st := r.Stats(); st.Edges != 1 || st.SkippedEdges != 2 {
		t.Errorf("edges=%d skipped=%d, want 1/2", st.Edges, st.SkippedEdges)
	}
}

func TestSlotStateColors(t *testing.T) {
	states := []diagram.SlotState{diagram.SlotUp, diagram.SlotDown, diagram.SlotEmpty, diagram.SlotUnknown}
	n := &diagram.Node{ID: "n", Position: geometry.Pt(0, 0), Columns: 4, Rows: 1}
	for _, st := range states {
		n.Slots = append(n.Slots, diagram.Slot{State: st})
	}
	s := diagram.NewState([]*diagram.Node{n}, nil, nil)
	s.Grid = diagram.GridNone

	r := New(Options{})
	img := mustRender(t, r, s, Size{W: 800, H: 600, PixelRatio: 1})

	// The 4x1 grid is 57 units wide, so slot i is centered at x = -22.5 + 15i.
	want := map[int]colors.Color{0: colors.Green, 1: colors.Red, 3: colors.Red}
	for i, c := range want {
		x := int(400 - 22.5 + 15*float64(i))
		if got := img.RGBAAt(x, 336); got != rgba(c) {
			t.Errorf("slot %d (%v) pixel = %v, want %v", i, states[i], got, rgba(c))
		}
		if got := r.ObjectAt(geometry.Pt(float64(x), 336)); got != (diagram.SlotRef{NodeID: "n", Slot: i}) {
			t.Errorf("slot %d hit = %v", i, got)
		}
	}
	// Empty slots are light with a diagonal; sample away from it.
	if got := img.RGBAAt(404, 333); got != rgba(colors.LightGray) {
		t.Errorf("empty slot pixel = %v, want light gray", got)
	}
}

func TestSelectionGlyphs(t *testing.T) {
	r := New(Options{})
	s := pairState()
	size := Size{W: 800, H: 600, PixelRatio: 1}

	// Checkbox of A is at (29,-25) with size 17; delete glyph sits below it.
	checkbox := geometry.Pt(400+37, 300-16)
	deleteAt := geometry.Pt(400+37, 300+4)

	mustRender(t, r, s, size)
	if got := r.ObjectAt(checkbox); got != refA {
		t.Errorf("checkbox hit = %v, want %v", got, refA)
	}
	if got := r.ObjectAt(deleteAt); got != nil {
		t.Errorf("delete glyph without selection = %v, want nil", got)
	}

	s.Selection = refA
	mustRender(t, r, s, size)
	if got := r.ObjectAt(deleteAt); got != (diagram.DeleteAction{}) {
		t.Errorf("delete glyph hit = %v, want action:delete", got)
	}

	s.Selection = slotB
	mustRender(t, r, s, size)
	del := geometry.SlotDeleteRect(geometry.Rect{X: 94, Y: 30, W: 12, H: 12}).Center()
	if got := r.ObjectAt(geometry.Pt(400+del.X, 300+del.Y)); got != (diagram.DeleteAction{}) {
		t.Errorf("slot delete glyph hit = %v, want action:delete", got)
	}
	if got := r.ObjectAt(deleteAt); got != nil {
		t.Errorf("node delete glyph should hide when a slot is selected, got %v", got)
	}
}

func TestDragMovesHitRegion(t *testing.T) {
	r := New(Options{})
	s := pairState()
	s.Zoom = 2
	s.Dragging = &diagram.Drag{Target: refA, Delta: geometry.Pt(30, 30), InProgress: true}
	mustRender(t, r, s, Size{W: 800, H: 600, PixelRatio: 1})

	// A renders at world (15,15): canvas (400+30, 300+30).
	if got := r.ObjectAt(geometry.Pt(430, 330)); got != refA {
		t.Errorf("dragged node hit = %v, want %v", got, refA)
	}
}

func TestEdgePreviewIsVisibleOnly(t *testing.T) {
	r := New(Options{})
	s := pairState()
	s.Dragging = &diagram.Drag{
		Target:     slotA,
		InProgress: true,
		Edge:       &diagram.EdgeDraft{From: slotA, Pointer: geometry.Pt(600, 100)},
	}
	img := mustRender(t, r, s, Size{W: 800, H: 600, PixelRatio: 1})
	if img.RGBAAt(600, 100) == rgba(colors.Background) {
		t.Error("no preview at the pointer")
	}
	if got := r.ObjectAt(geometry.Pt(600, 100)); got != nil {
		t.Errorf("preview is hit-testable: %v", got)
	}
}

func TestDebugOverlay(t *testing.T) {
	r := New(Options{})
	s := pairState()
	size := Size{W: 400, H: 300, PixelRatio: 1}
	plain := bytes.Clone(mustRender(t, r, s, size).Pix)

	click := geometry.Pt(20, 20)
	s.Debug = diagram.Debug{Enabled: true, LastClick: &click}
	img := mustRender(t, r, s, size)
	if bytes.Equal(plain, img.Pix) {
		t.Fatal("debug overlay changed nothing")
	}
	if img.RGBAAt(300, 20) == rgba(colors.Background) {
		t.Error("no crosshair on the click row")
	}
}

func TestClearRegions(t *testing.T) {
	r := New(Options{})
	s := pairState()
	mustRender(t, r, s, Size{W: 400, H: 300, PixelRatio: 1})
	if r.Region().Len() == 0 {
		t.Fatal("no regions after render")
	}
	r.ClearRegions()
	if r.Region().Len() != 0 || r.ObjectAt(geometry.Pt(200, 150)) != nil {
		t.Error("ClearRegions kept mappings")
	}
}

func TestNonFiniteNodeIsSkipped(t *testing.T) {
	for _, bad := range []geometry.Point{
		geometry.Pt(math.NaN(), 0),
		geometry.Pt(0, math.Inf(1)),
		geometry.Pt(math.Inf(-1), math.NaN()),
	} {
		r := New(Options{})
		s := pairState()
		s.Node("B").Position = bad
		mustRender(t, r, s, Size{W: 400, H: 300, PixelRatio: 1})

		st := r.Stats()
		if st.Nodes != 1 || st.SkippedNodes != 1 || st.Edges != 0 || st.SkippedEdges != 1 {
			t.Errorf("%v: stats = %+v", bad, st)
		}
		if got := r.ObjectAt(geometry.Pt(200, 150)); got != refA {
			t.Errorf("%v: center hit = %v, want %v", bad, got, refA)
		}
	}
}

func TestNonFiniteViewportResets(t *testing.T) {
	r := New(Options{})
	s := pairState()
	s.Viewport = geometry.Pt(math.NaN(), math.Inf(1))
	mustRender(t, r, s, Size{W: 400, H: 300, PixelRatio: math.NaN()})
	if s.Viewport != (geometry.Point{}) {
		t.Errorf("viewport = %v, want origin", s.Viewport)
	}
	if got := r.ObjectAt(geometry.Pt(200, 150)); got != refA {
		t.Errorf("center hit = %v, want %v", got, refA)
	}
}

func TestRegionPixelsAreWholeKeys(t *testing.T) {
	n := &diagram.Node{ID: "n", Position: geometry.Pt(0, 0), Columns: 8, Rows: 4}
	for i := 0; i < 32; i++ {
		n.Slots = append(n.Slots, diagram.Slot{State: diagram.SlotUp})
	}
	s := diagram.NewState([]*diagram.Node{n}, nil, nil)
	s.Grid = diagram.GridNone
	s.Selection = diagram.NodeRef{ID: "n"}

	for _, tc := range []struct {
		zoom  float64
		ratio float64
	}{
		{0.25, 1},
		{0.37, 1},
		{1.3, 1.5},
		{3.7, 2},
	} {
		r := New(Options{})
		s.Zoom = tc.zoom
		s.Viewport = geometry.Pt(0.3, 0.7)
		mustRender(t, r, s, Size{W: 300, H: 200, PixelRatio: tc.ratio})

		img := r.Region().Image()
		b := img.Bounds()
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				px := img.RGBAAt(x, y)
				if px.A == 0 {
					continue
				}
				if px.A != 0xff || r.Region().ObjectAt(x, y) == nil {
					t.Fatalf("zoom %v ratio %v: pixel (%d,%d) = %v is not a known key", tc.zoom, tc.ratio, x, y, px)
				}
			}
		}
	}
}
