package cli

import (
	"context"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/hubastard/netcanvas/engine/view"
	"github.com/hubastard/netcanvas/internal/dataset"
	"github.com/hubastard/netcanvas/internal/server"
)

type serveOpts struct {
	addr  string
	watch bool
}

func newServeCmd(root *rootOpts) *cobra.Command {
	opts := serveOpts{watch: true}

	cmd := &cobra.Command{
		Use:   "serve [dataset]",
		Short: "Serve a dataset to the browser",
		Long:  `Serve an interactive view of a dataset over HTTP. Every browser tab gets its own view; moves are shared between tabs and kept in memory only.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), root, args[0], opts)
		},
	}

	f := cmd.Flags()
	f.StringVar(&opts.addr, "addr", "", "listen address (default from config)")
	f.BoolVar(&opts.watch, "watch", opts.watch, "reload the dataset when the file changes")
	return cmd
}

func runServe(ctx context.Context, root *rootOpts, path string, opts serveOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := root.loadConfig(ctx)
	if err != nil {
		return err
	}
	d, err := loadDataset(ctx, path)
	if err != nil {
		return err
	}
	// Fail on a bad font or icon dir now rather than on the first session.
	if _, err := viewOptions(cfg, logger); err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if opts.addr != "" {
		addr = opts.addr
	}
	srv := server.New(d, server.Options{
		Addr:         addr,
		FrameRate:    cfg.Server.FrameRate,
		AllowOrigins: cfg.Server.AllowOrigins,
		Width:        cfg.Canvas.Width,
		Height:       cfg.Canvas.Height,
		NewView: func() (view.Options, error) {
			vopts, err := viewOptions(cfg, logger)
			vopts.Logger = nil
			return vopts, err
		},
		Logger: logger,
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.ListenAndServe(gctx) })
	if opts.watch {
		w := &dataset.Watcher{
			Path: path,
			Log:  logger,
			OnLoad: func(nd *dataset.Dataset) {
				if err := checkDataset(logger, nd); err != nil {
					logger.Error("reload rejected", "err", err)
					return
				}
				srv.SetDataset(nd)
			},
		}
		g.Go(func() error { return w.Run(gctx) })
	}
	return g.Wait()
}
