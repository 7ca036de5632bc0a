package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conneroisu/sitecsp/internal/build"
	"github.com/conneroisu/sitecsp/internal/config"
	"github.com/conneroisu/sitecsp/internal/csp"
	"github.com/conneroisu/sitecsp/internal/errors"
	"github.com/conneroisu/sitecsp/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:   "build [site-dir]",
	Short: "Embed a Content-Security-Policy into every page of a site",
	Long: `Walk a generated site directory and rewrite every HTML page in place so it
carries its own Content-Security-Policy. Pages that are already up to date are
left untouched.

Examples:
  sitecsp build                          # Process build.site_dir (default _site)
  sitecsp build public --workers 8       # Process ./public with 8 workers
  sitecsp build --metrics-file csp.prom  # Also write Prometheus metrics`,
	Aliases: []string{"b"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runBuild,
}

var (
	buildWorkers     int
	buildMetricsFile string
)

func init() {
	rootCmd.AddCommand(buildCmd)

	buildCmd.Flags().IntVarP(&buildWorkers, "workers", "w", 0, "Number of concurrent workers (default build.workers)")
	buildCmd.Flags().StringVar(&buildMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file")

	AddFlagValidation(buildCmd, "workers", ValidateWorkers)
}

func runBuild(cmd *cobra.Command, args []string) error {
	cfg, logger, err := loadRuntime(cmd)
	if err != nil {
		return err
	}
	if err := applyBuildFlags(cfg); err != nil {
		return err
	}

	siteDir := cfg.Build.SiteDir
	if len(args) == 1 {
		siteDir = args[0]
	}

	pipeline := newPipeline(cfg, logger)
	out := cmd.OutOrStdout()

	color.New(color.FgCyan).Fprintf(out, "Processing %s\n", siteDir)

	report, err := pipeline.Run(commandContext(cmd), siteDir)
	if err != nil {
		return err
	}
	printReport(out, report)

	if err := writeMetrics(cfg, pipeline); err != nil {
		return err
	}

	if report.HasFailures() {
		return fmt.Errorf("%d of %d files failed", report.Failed, report.Files)
	}
	return nil
}

func applyBuildFlags(cfg *config.Config) error {
	if buildWorkers != 0 {
		if buildWorkers < 1 || buildWorkers > config.MaxWorkers {
			return errors.NewValidationError(errors.ErrCodeInvalidFlag,
				fmt.Sprintf("--workers must be between 1 and %d", config.MaxWorkers))
		}
		cfg.Build.Workers = buildWorkers
	}
	if buildMetricsFile != "" {
		cfg.Build.MetricsFile = buildMetricsFile
	}
	return nil
}

// newPipeline wires the generator, a hash cache shared by all workers and
// the metrics collector into a build pipeline.
func newPipeline(cfg *config.Config, logger logging.Logger) *build.Pipeline {
	gen := newGenerator(cfg, logger, csp.WithHasher(csp.NewCachedHasher(0)))
	return build.NewPipeline(cfg.Build, gen,
		build.WithLogger(logger),
		build.WithCollector(build.NewCollector()),
	)
}

func writeMetrics(cfg *config.Config, pipeline *build.Pipeline) error {
	if cfg.Build.MetricsFile == "" || pipeline.Collector() == nil {
		return nil
	}
	return pipeline.Collector().WriteTextfile(cfg.Build.MetricsFile)
}

func printReport(w io.Writer, report *build.Report) {
	green := color.New(color.FgGreen)
	yellow := color.New(color.FgYellow)
	red := color.New(color.FgRed)

	green.Fprintf(w, "  rewritten: %d\n", report.Rewritten)
	yellow.Fprintf(w, "  unchanged: %d\n", report.Unchanged)
	if report.Failed > 0 {
		red.Fprintf(w, "  failed:    %d\n", report.Failed)
		for _, fe := range report.Errors {
			red.Fprintf(w, "    %s\n", fe.Error())
		}
	}
	fmt.Fprintf(w, "Processed %d files in %s\n", report.Files, report.Duration.Round(time.Millisecond))
}
