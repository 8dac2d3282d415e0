package cli

import (
	"context"
	"path/filepath"
	"sync/atomic"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hubastard/netcanvas/engine/core"
	"github.com/hubastard/netcanvas/engine/diagram"
	"github.com/hubastard/netcanvas/engine/platform"
	"github.com/hubastard/netcanvas/engine/profiler"
	"github.com/hubastard/netcanvas/engine/scene"
	"github.com/hubastard/netcanvas/engine/view"
	"github.com/hubastard/netcanvas/internal/dataset"
)

type viewOpts struct {
	watch   bool
	vsync   bool
	profile string
}

func newViewCmd(root *rootOpts) *cobra.Command {
	opts := viewOpts{watch: true, vsync: true}

	cmd := &cobra.Command{
		Use:   "view [dataset]",
		Short: "Open a dataset in a desktop window",
		Long:  `Open a dataset in a window. Drag the background to pan, drag nodes to move them, drag between slots to connect them, scroll to zoom. The file is reloaded when it changes; moves are kept in memory only.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runView(cmd.Context(), root, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&opts.watch, "watch", opts.watch, "reload the dataset when the file changes")
	f.BoolVar(&opts.vsync, "vsync", opts.vsync, "wait for vertical sync when presenting")
	f.StringVar(&opts.profile, "profile", "", "write a speedscope profile to this file on exit (needs -tags profile)")
	return cmd
}

// liveDataset is the dataset shown by a viewer; the watcher swaps it on
// reload while moves edit it in place.
type liveDataset struct{ p atomic.Pointer[dataset.Dataset] }

func (l *liveDataset) Load() *dataset.Dataset   { return l.p.Load() }
func (l *liveDataset) Store(d *dataset.Dataset) { l.p.Store(d) }

func runView(ctx context.Context, root *rootOpts, path string, opts viewOpts) error {
	logger := loggerFromContext(ctx)

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
	live := &liveDataset{}
	live.Store(d)
	vopts.Callbacks = viewerCallbacks(live, logger)

	v := view.New(vopts)
	v.SetData(d.Diagram())

	if opts.profile != "" {
		profiler.Init(0)
		defer func() {
			if err := profiler.Dump(opts.profile); err != nil {
				logger.Error("profile dump failed", "err", err)
				return
			}
			logger.Info("profile written", "path", opts.profile)
		}()
	}

	ecfg := core.Config{
		Title:     "netcanvas - " + filepath.Base(path),
		Width:     cfg.Canvas.Width,
		Height:    cfg.Canvas.Height,
		FrameRate: cfg.Server.FrameRate,
		Logger:    logger,
	}
	win, err := platform.NewGLFWWindow(platform.Options{
		Config:     ecfg,
		VSync:      opts.vsync,
		Background: cfg.BackgroundColor(),
	})
	if err != nil {
		return err
	}
	defer win.Destroy()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	if opts.watch {
		w := &dataset.Watcher{
			Path: path,
			Log:  logger,
			OnLoad: func(nd *dataset.Dataset) {
				if err := checkDataset(logger, nd); err != nil {
					logger.Error("reload rejected", "err", err)
					return
				}
				live.Store(nd)
				v.SetData(nd.Diagram())
			},
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	runErr := core.Run(ctx, v, win, ecfg)
	cancel()
	if err := g.Wait(); runErr == nil {
		runErr = err
	}
	return runErr
}

// viewerCallbacks logs interactions and applies moves to the live dataset.
func viewerCallbacks(live *liveDataset, logger *log.Logger) scene.Callbacks {
	return scene.Callbacks{
		OnSelectionChanged: func(o diagram.Object) {
			if o == nil {
				logger.Info("selection cleared")
				return
			}
			logger.Info("selected", "object", o)
		},
		OnMove: func(o diagram.Object, x, y float64) bool {
			id, ok := diagram.NodeID(o)
			if !ok {
				return false
			}
			logger.Info("moved", "node", id, "x", x, "y", y)
			return live.Load().MoveNode(id, x, y)
		},
		OnDrop: func(src, dst diagram.Object) {
			logger.Info("link requested", "from", src, "to", dst)
		},
		OnDelete: func(o diagram.Object) {
			logger.Info("delete requested", "object", o)
		},
	}
}
