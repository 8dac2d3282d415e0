package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/hubastard/netcanvas/engine/assets"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/errors"
	"github.com/hubastard/netcanvas/engine/icons"
	"github.com/hubastard/netcanvas/engine/render"
	"github.com/hubastard/netcanvas/engine/text"
	"github.com/hubastard/netcanvas/engine/view"
	"github.com/hubastard/netcanvas/internal/config"
	"github.com/hubastard/netcanvas/internal/dataset"
)

func (o *rootOpts) loadConfig(ctx context.Context) (*config.Config, error) {
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return nil, err
	}
	loggerFromContext(ctx).Debug("config", "path", o.path(), "canvas", cfg.Canvas.Width, "grid", cfg.Canvas.Grid)
	return cfg, nil
}

// loadDataset loads and validates path. Warnings are logged; errors fail.
func loadDataset(ctx context.Context, path string) (*dataset.Dataset, error) {
	d, err := dataset.Load(path)
	if err != nil {
		return nil, err
	}
	if err := checkDataset(loggerFromContext(ctx), d); err != nil {
		return nil, err
	}
	nodes, edges := d.Len()
	loggerFromContext(ctx).Debug("dataset loaded", "path", path, "nodes", nodes, "edges", edges)
	return d, nil
}

func checkDataset(logger *log.Logger, d *dataset.Dataset) error {
	rep := d.Validate()
	for _, w := range rep.Warnings {
		logger.Warn(w.Message, "at", w.Where)
	}
	return rep.Err()
}

// viewOptions builds view options from cfg. Every call loads a fresh face,
// so the result can be handed to a view on its own goroutine.
func viewOptions(cfg *config.Config, logger *log.Logger) (view.Options, error) {
	face, err := text.LoadFace(cfg.Fonts.Title, cfg.Fonts.Size)
	if err != nil {
		return view.Options{}, err
	}
	reg := icons.NewRegistry()
	if cfg.Icons.Dir != "" {
		names, err := assets.LoadIconDir(cfg.Icons.Dir, reg)
		if err != nil {
			return view.Options{}, err
		}
		logger.Debug("icons loaded", "dir", cfg.Icons.Dir, "icons", strings.Join(names, ","))
	}
	return view.Options{
		Renderer: render.Options{
			Face:       face,
			Icons:      reg,
			Background: cfg.BackgroundColor(),
		},
		DragThreshold: cfg.Gesture.DragThreshold,
		WheelStep:     cfg.Gesture.WheelStep,
		Grid:          diagram.ParseGridMode(cfg.Canvas.Grid),
		Debug:         cfg.Canvas.Debug,
		Size: render.Size{
			W:          cfg.Canvas.Width,
			H:          cfg.Canvas.Height,
			PixelRatio: cfg.Canvas.PixelRatio,
		},
		Logger: logger,
	}, nil
}

// parseSelection reads "node" as a node id and "node/3" as one of its slots.
func parseSelection(s string) (diagram.Object, error) {
	id, slot, ok := strings.Cut(s, "/")
	if id == "" {
		return nil, errors.New(errors.ErrCodeInvalidInput, "empty selection %q", s)
	}
	if !ok {
		return diagram.NodeRef{ID: id}, nil
	}
	n, err := strconv.Atoi(slot)
	if err != nil || n < 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "bad slot in selection %q", s)
	}
	return diagram.SlotRef{NodeID: id, Slot: n}, nil
}
