package cli

import (
	"context"
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/spf13/cobra"

	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/errors"
	"github.com/hubastard/netcanvas/engine/geometry"
	"github.com/hubastard/netcanvas/engine/view"
	"github.com/hubastard/netcanvas/internal/config"
)

// renderOpts holds the render flags. Zero sizes, ratio and grid fall back to
// the config.
type renderOpts struct {
	out      string
	width    int
	height   int
	ratio    float64
	zoom     float64
	panX     float64
	panY     float64
	grid     string
	debug    bool
	selected string
}

func newRenderCmd(root *rootOpts) *cobra.Command {
	opts := renderOpts{zoom: 1}

	cmd := &cobra.Command{
		Use:   "render [dataset]",
		Short: "Render a dataset to an image",
		Long:  `Render a dataset headlessly. The output format follows the file extension (png, jpg, gif, tif, bmp).`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRender(cmd.Context(), root, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVarP(&opts.out, "out", "o", "", "output file (default <dataset>.png)")
	f.IntVar(&opts.width, "width", 0, "canvas width in logical pixels")
	f.IntVar(&opts.height, "height", 0, "canvas height in logical pixels")
	f.Float64Var(&opts.ratio, "ratio", 0, "device pixel ratio")
	f.Float64Var(&opts.zoom, "zoom", opts.zoom, "zoom factor")
	f.Float64Var(&opts.panX, "pan-x", 0, "viewport x offset in world units")
	f.Float64Var(&opts.panY, "pan-y", 0, "viewport y offset in world units")
	f.StringVar(&opts.grid, "grid", "", "grid mode: full or none")
	f.BoolVar(&opts.debug, "debug", false, "overlay the hit-test canvas")
	f.StringVar(&opts.selected, "select", "", "object to draw selected: node id or node/slot")
	return cmd
}

func (o renderOpts) check() error {
	bad := func(format string, args ...any) error {
		return errors.New(errors.ErrCodeInvalidInput, format, args...)
	}
	if o.width > config.MaxCanvasSize || o.height > config.MaxCanvasSize {
		return bad("size %dx%d exceeds %d per side", o.width, o.height, config.MaxCanvasSize)
	}
	if math.IsNaN(o.ratio) || o.ratio > config.MaxPixelRatio {
		return bad("--ratio %v out of range", o.ratio)
	}
	if !geometry.Pt(o.panX, o.panY).Finite() {
		return bad("--pan-x/--pan-y (%v, %v) must be finite", o.panX, o.panY)
	}
	return nil
}

func runRender(ctx context.Context, root *rootOpts, path string, opts renderOpts) error {
	logger := loggerFromContext(ctx)
	prog := newProgress(logger)
	if err := opts.check(); err != nil {
		return err
	}

	cfg, err := root.loadConfig(ctx)
	if err != nil {
		return err
	}
	d, err := loadDataset(ctx, path)
	if err != nil {
		return err
	}
	vopts, err := viewOptions(cfg, logger)
	if err != nil {
		return err
	}
	if opts.width > 0 {
		vopts.Size.W = opts.width
	}
	if opts.height > 0 {
		vopts.Size.H = opts.height
	}
	if opts.ratio > 0 {
		vopts.Size.PixelRatio = opts.ratio
	}
	if opts.grid != "" {
		vopts.Grid = diagram.ParseGridMode(opts.grid)
	}
	vopts.Debug = vopts.Debug || opts.debug

	v := view.New(vopts)
	v.SetData(d.Diagram())
	v.SetZoom(opts.zoom)
	v.SetViewport(geometry.Pt(opts.panX, opts.panY))
	if opts.selected != "" {
		obj, err := parseSelection(opts.selected)
		if err != nil {
			return err
		}
		v.SetSelected(obj)
	}

	img, err := v.Render()
	if err != nil {
		return err
	}
	out := opts.out
	if out == "" {
		out = strings.TrimSuffix(path, filepath.Ext(path)) + ".png"
	}
	if err := imaging.Save(img, out); err != nil {
		return fmt.Errorf("save %s: %w", out, err)
	}

	st := v.Stats()
	if st.SkippedEdges > 0 {
		logger.Warn("edges skipped", "count", st.SkippedEdges)
	}
	prog.done(fmt.Sprintf("Rendered %d nodes, %d edges to %s", st.Nodes, st.Edges, out))
	return nil
}
