package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
	logJSON bool

	logger = logrus.New()
)

var rootCmd = &cobra.Command{
	Use:   "bambi",
	Short: "Image filter engine of the bambi editor",
	Long: `bambi runs the editor's filter core without a window: load an image,
queue flips, rotations, colour adjustments and effects, and save the result.

Operations run one at a time through the same queue and event bus the
desktop editor uses, so results match what the editor would produce.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		initLogger(logger, verbose, logJSON)
		logger.SetOutput(cmd.ErrOrStderr())
	},
}

func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log as JSON")
	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"bambi %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// initLogger configures l for the command line: text with full timestamps,
// debug level when verbose, JSON when asked.
func initLogger(l *logrus.Logger, debug, asJSON bool) {
	l.SetOutput(os.Stderr)
	if debug {
		l.SetLevel(logrus.DebugLevel)
	} else {
		l.SetLevel(logrus.InfoLevel)
	}
	if asJSON {
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
		return
	}
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
}
