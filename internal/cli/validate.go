package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/hubastard/netcanvas/engine/errors"
	"github.com/hubastard/netcanvas/internal/dataset"
)

var (
	good = color.New(color.FgGreen, color.Bold)
	bad  = color.New(color.FgRed, color.Bold)
	warn = color.New(color.FgYellow)
	dim  = color.New(color.FgHiBlack)
)

func newValidateCmd() *cobra.Command {
	var strict bool

	cmd := &cobra.Command{
		Use:   "validate [dataset]",
		Short: "Check a dataset for structural problems",
		Long:  `Check node ids, slot grids, slot states and edge endpoints. Dangling edges are warnings: they are skipped when drawing.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := dataset.Load(args[0])
			if err != nil {
				return err
			}
			rep := d.Validate()
			printReport(cmd.OutOrStdout(), args[0], d, rep)
			if err := rep.Err(); err != nil {
				return err
			}
			if strict && len(rep.Warnings) > 0 {
				return errors.New(errors.ErrCodeInvalidDataset, "%d warnings in strict mode", len(rep.Warnings))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as errors")
	return cmd
}

func printReport(w io.Writer, path string, d *dataset.Dataset, rep *dataset.Report) {
	for _, is := range rep.Errors {
		fmt.Fprintf(w, "  %s %s %s\n", bad.Sprint("error"), dim.Sprint(is.Where), is.Message)
	}
	for _, is := range rep.Warnings {
		fmt.Fprintf(w, "  %s  %s %s\n", warn.Sprint("warn"), dim.Sprint(is.Where), is.Message)
	}
	status := good.Sprint("ok")
	if !rep.OK() {
		status = bad.Sprint("invalid")
	}
	nodes, edges := d.Len()
	fmt.Fprintf(w, "%s: %s %s\n", path, status,
		dim.Sprintf("(%d nodes, %d edges, %d errors, %d warnings)", nodes, edges, len(rep.Errors), len(rep.Warnings)))
}
