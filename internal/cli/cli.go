// Package cli implements the netcanvas command-line interface.
//
// # Commands
//
//   - render: rasterize a dataset to an image file
//   - validate: check a dataset and print a colored report
//   - view: open a dataset in a desktop window with hot reload
//   - serve: host a dataset in the browser over websockets
//   - config: write or locate the configuration file
//
// All commands support --verbose (-v) for debug-level logging and --config
// to point at a TOML file other than the default one. Loggers are passed to
// commands through context.Context.
package cli

import (
	"context"
	"fmt"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/hubastard/netcanvas/internal/config"
)

var (
	version string
	commit  string
	date    string
)

// SetVersion sets the version information displayed by --version. It is
// called by main with values injected via ldflags.
func SetVersion(v, c, d string) {
	version = v
	commit = c
	date = d
}

// Execute runs the netcanvas CLI until the selected command returns or ctx
// is cancelled.
func Execute(ctx context.Context) error {
	return newRootCmd().ExecuteContext(ctx)
}

// rootOpts holds the persistent flags shared by every command.
type rootOpts struct {
	verbose    bool
	configPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOpts{}
	root := &cobra.Command{
		Use:           "netcanvas",
		Short:         "netcanvas draws and edits network diagrams",
		Long:          `netcanvas renders network topologies (nodes with port slots, links between ports) to images, a desktop window or the browser, with pan, zoom, drag and drag-to-connect.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := charmlog.InfoLevel
			if opts.verbose {
				level = charmlog.DebugLevel
			}
			cmd.SetContext(withLogger(cmd.Context(), newLogger(cmd.ErrOrStderr(), level)))
		},
	}

	root.SetVersionTemplate(fmt.Sprintf("netcanvas %s\ncommit: %s\nbuilt: %s\n", version, commit, date))
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")
	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "config file (default "+config.DefaultPath()+")")

	root.AddCommand(newRenderCmd(opts))
	root.AddCommand(newValidateCmd())
	root.AddCommand(newViewCmd(opts))
	root.AddCommand(newServeCmd(opts))
	root.AddCommand(newConfigCmd(opts))
	return root
}
