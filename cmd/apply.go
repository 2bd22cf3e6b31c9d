package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/bambi-editor/internal/editor"
	"github.com/AnyUserName/bambi-editor/internal/encoder"
	"github.com/AnyUserName/bambi-editor/internal/eventbus"
	"github.com/AnyUserName/bambi-editor/internal/imageio"
	"github.com/AnyUserName/bambi-editor/internal/preset"
	"github.com/AnyUserName/bambi-editor/internal/report"
)

var (
	applyOut     string
	applyOps     []string
	applyAdjusts []string
	applyPreset  string
	applyReport  string
	applyFormat  string
	applyQuality int
)

var applyCmd = &cobra.Command{
	Use:   "apply <input>",
	Short: "Run a chain of filters over an image and save the result",
	Long: `Loads the input image, submits the preset steps followed by every --op
and --adjust in the order given, waits for the queue to drain and writes
the edited image.

Steps are operation names (see "bambi ops"). Colour adjustments take a
slider value from -10 to 10 (red=3, contrast=-2); scale takes a percent
(scale=50).

Interrupting the run aborts queued steps; the running one finishes and
nothing is written.`,
	Example: `  bambi apply photo.jpg --op rotate-cw --op sepia -o out.jpg
  bambi apply scan.png --preset mono --adjust brightness=2 --report run.json`,
	Args: cobra.ExactArgs(1),
	RunE: runApply,
}

func init() {
	applyCmd.Flags().StringVarP(&applyOut, "out", "o", "", "output file (default <input>_edited.<ext>)")
	applyCmd.Flags().StringArrayVar(&applyOps, "op", nil, "operation step, repeatable")
	applyCmd.Flags().StringArrayVar(&applyAdjusts, "adjust", nil, "colour adjustment kind=slider, repeatable")
	applyCmd.Flags().StringVarP(&applyPreset, "preset", "p", "none", "preset chain to run first")
	applyCmd.Flags().StringVar(&applyReport, "report", "", "write a JSON run report to this path")
	applyCmd.Flags().StringVarP(&applyFormat, "format", "f", "", "output format (default from the output extension)")
	applyCmd.Flags().IntVarP(&applyQuality, "quality", "q", 0, "quality 1-100 (0 = preset default)")
	rootCmd.AddCommand(applyCmd)
}

func runApply(cmd *cobra.Command, args []string) error {
	start := time.Now()
	input := args[0]

	prof, ok := preset.Lookup(applyPreset)
	if !ok {
		logger.WithField("preset", applyPreset).Warn("unknown preset, using none")
		prof = preset.Get(applyPreset)
	}
	steps, err := collectSteps(prof.Steps, applyOps, applyAdjusts)
	if err != nil {
		return err
	}
	quality := prof.Quality
	if applyQuality > 0 {
		quality = applyQuality
	}

	img, inInfo, err := imageio.Load(input)
	if err != nil {
		return err
	}
	outPath := applyOut
	if outPath == "" {
		outPath = defaultOutput(input, applyFormat)
	}

	logger.WithFields(logrus.Fields{
		"input":  input,
		"output": outPath,
		"preset": prof.Name,
		"steps":  len(steps),
	}).Debug("apply")

	reg := eventbus.NewRegistry(logger)
	defer reg.Close()
	if err := reg.Announce("cli"); err != nil {
		return err
	}
	if err := reg.Activate("cli"); err != nil {
		return err
	}
	reg.Subscribe(eventbus.Subscriber{
		Name: "cli-progress",
		OnProgress: func(ev eventbus.ProgressEvent) {
			logger.WithField("percent", ev.Percent).Debug(ev.Formatted())
		},
		OnQueue: func(ev eventbus.QueueEvent) {
			if ev.Aborted {
				logger.WithField("dropped", len(ev.Items)).Warn("queue aborted")
			}
		},
	})

	sess, err := editor.New(editor.Config{Registry: reg, Logger: logger})
	if err != nil {
		return err
	}
	defer sess.Close()

	if err := sess.Load(img); err != nil {
		return fmt.Errorf("load: %w", err)
	}
	if err := preset.Run(sess, steps); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := sess.Wait(ctx); err != nil {
		if abortErr := sess.Abort(); abortErr != nil {
			logger.WithError(abortErr).Error("abort")
		}
		// The in-flight step always completes.
		sess.Wait(context.Background())
		return fmt.Errorf("interrupted: %w", err)
	}

	out, err := sess.Image()
	if err != nil {
		return err
	}
	outInfo, err := imageio.Save(outPath, out, encoder.NewRegistry(), applyFormat, quality)
	if err != nil {
		return err
	}

	rep := buildReport(prof.Name, inInfo, outInfo, sess.History())
	if applyReport != "" {
		if err := report.WriteJSON(rep, applyReport); err != nil {
			return fmt.Errorf("write report: %w", err)
		}
	} else {
		rep.ComputeStats()
	}

	printApplySummary(cmd.OutOrStdout(), rep, time.Since(start))
	return nil
}

// collectSteps concatenates preset steps with command line ones.
func collectSteps(base []preset.Step, ops, adjusts []string) ([]preset.Step, error) {
	steps := append([]preset.Step(nil), base...)
	for _, s := range ops {
		st, err := preset.ParseStep(s)
		if err != nil {
			return nil, fmt.Errorf("--op %s: %w", s, err)
		}
		steps = append(steps, st)
	}
	for _, s := range adjusts {
		st, err := preset.ParseStep(s)
		if err != nil {
			return nil, fmt.Errorf("--adjust %s: %w", s, err)
		}
		if !st.Kind.IsColorAdjust() {
			return nil, fmt.Errorf("--adjust %s: %w", s, errNotAdjustment)
		}
		steps = append(steps, st)
	}
	return steps, nil
}

var errNotAdjustment = errors.New("not a colour adjustment")

// defaultOutput derives <dir>/<name>_edited.<ext>. Inputs the encoder
// registry cannot write (gif, webp) fall back to png.
func defaultOutput(input, format string) string {
	ext := strings.TrimPrefix(filepath.Ext(input), ".")
	reg := encoder.NewRegistry()
	switch {
	case format != "":
		if enc := reg.Get(format); enc != nil {
			ext = enc.Extensions()[0]
		}
	case reg.Get(ext) == nil:
		ext = "png"
	}
	base := strings.TrimSuffix(input, filepath.Ext(input))
	return base + "_edited." + ext
}

func buildReport(presetName string, in, out imageio.Info, history []editor.Record) *report.Report {
	r := report.New(presetName)
	r.Input = reportInfo(in)
	o := reportInfo(out)
	r.Output = &o
	for _, h := range history {
		r.Operations = append(r.Operations, report.Operation{
			Kind:      h.Kind.Name(),
			Display:   h.Display,
			Width:     h.Width,
			Height:    h.Height,
			ElapsedMS: float64(h.Elapsed.Microseconds()) / 1000,
			Hash:      h.Hash,
		})
	}
	return r
}

func reportInfo(i imageio.Info) report.ImageInfo {
	return report.ImageInfo{
		Path:     i.Path,
		Format:   i.Format,
		Width:    i.Width,
		Height:   i.Height,
		Size:     i.Size,
		HasAlpha: i.HasAlpha,
		Hash:     i.Hash,
	}
}

func printApplySummary(w io.Writer, r *report.Report, elapsed time.Duration) {
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Input:       %s  %dx%d %s  %s\n",
		r.Input.Path, r.Input.Width, r.Input.Height, r.Input.Format, formatBytes(r.Input.Size))
	for i, op := range r.Operations {
		label := op.Kind
		if op.Display != "" {
			label += " " + op.Display
		}
		fmt.Fprintf(w, "  %2d. %-24s %dx%d  %.1f ms\n", i+1, label, op.Width, op.Height, op.ElapsedMS)
	}
	if r.Output != nil {
		fmt.Fprintf(w, "  Output:      %s  %dx%d %s  %s\n",
			r.Output.Path, r.Output.Width, r.Output.Height, r.Output.Format, formatBytes(r.Output.Size))
	}
	fmt.Fprintf(w, "  Time:        %s\n", elapsed.Round(time.Millisecond))
	fmt.Fprintln(w)
}

func formatBytes(b int64) string {
	switch {
	case b >= 1<<20:
		return fmt.Sprintf("%.1f MB", float64(b)/(1<<20))
	case b >= 1<<10:
		return fmt.Sprintf("%.1f KB", float64(b)/(1<<10))
	default:
		return fmt.Sprintf("%d B", b)
	}
}
