package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/AnyUserName/bambi-editor/internal/report"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect <report.json>",
	Short: "Print and validate a run report written by apply --report",
	Args:  cobra.ExactArgs(1),
	RunE:  runInspect,
}

func init() {
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	r, err := report.ReadJSON(args[0])
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	printReport(w, r)

	errs := report.Validate(r)
	if len(errs) == 0 {
		fmt.Fprintln(w, "  ✓ Report is consistent")
		return nil
	}
	fmt.Fprintf(w, "  ✗ Report has %d problem(s):\n", len(errs))
	for _, e := range errs {
		fmt.Fprintf(w, "    • %s\n", e)
	}
	return fmt.Errorf("validation failed with %d errors", len(errs))
}

func printReport(w io.Writer, r *report.Report) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Report version: %d\n", r.Version)
	fmt.Fprintf(w, "  Generated:      %s\n", r.GeneratedAt)
	if r.Preset != "" {
		fmt.Fprintf(w, "  Preset:         %s\n", r.Preset)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Input:          %s (%s, %dx%d, %s, hash %s)\n",
		r.Input.Path, r.Input.Format, r.Input.Width, r.Input.Height, formatBytes(r.Input.Size), r.Input.Hash)
	if r.Output != nil {
		fmt.Fprintf(w, "  Output:         %s (%s, %dx%d, %s, hash %s)\n",
			r.Output.Path, r.Output.Format, r.Output.Width, r.Output.Height, formatBytes(r.Output.Size), r.Output.Hash)
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "  Operations (%d, %.1f ms):\n", r.Stats.TotalOperations, r.Stats.TotalElapsedMS)
	for i, op := range r.Operations {
		fmt.Fprintf(w, "    %2d. %-12s %-8s %5dx%-5d %8.1f ms  %s\n",
			i+1, op.Kind, op.Display, op.Width, op.Height, op.ElapsedMS, op.Hash)
	}
	if r.Stats.SizeRatio > 0 {
		fmt.Fprintf(w, "  Size ratio:     %.1f%% of input\n", r.Stats.SizeRatio*100)
	}
	fmt.Fprintln(w)
}
