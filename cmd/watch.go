package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conneroisu/sitecsp/internal/build"
	"github.com/conneroisu/sitecsp/internal/config"
	"github.com/conneroisu/sitecsp/internal/logging"
	"github.com/conneroisu/sitecsp/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch [site-dir]",
	Short: "Rewrite pages whenever the site generator updates them",
	Long: `Process the whole site once, then watch the site directory and rewrite
each HTML page again whenever it is created or modified. Pages that are
already up to date are not written, so the watcher does not trigger itself.

Examples:
  sitecsp watch                 # Watch build.site_dir (default _site)
  sitecsp watch public          # Watch ./public`,
	Aliases: []string{"w"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntVarP(&buildWorkers, "workers", "w", 0, "Number of concurrent workers (default build.workers)")
	watchCmd.Flags().StringVar(&buildMetricsFile, "metrics-file", "", "Write Prometheus metrics to this file after every change")

	AddFlagValidation(watchCmd, "workers", ValidateWorkers)
}

func runWatch(cmd *cobra.Command, args []string) error {
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

	ctx, stop := signal.NotifyContext(commandContext(cmd), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pipeline := newPipeline(cfg, logger)
	out := cmd.OutOrStdout()

	report, err := pipeline.Run(ctx, siteDir)
	if err != nil {
		return err
	}
	printReport(out, report)
	if err := writeMetrics(cfg, pipeline); err != nil {
		return err
	}

	fileWatcher, err := watcher.NewFileWatcher(cfg.Watch.Debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	fileWatcher.AddFilter(watcher.NoTempFilter)
	fileWatcher.AddFilter(watcher.NoGitFilter)
	fileWatcher.AddFilter(siteFilter(siteDir, pipeline))
	fileWatcher.AddHandler(rebuildHandler(ctx, cfg, pipeline, out, logger))

	if err := fileWatcher.AddRecursive(siteDir); err != nil {
		return fmt.Errorf("failed to watch %s: %w", siteDir, err)
	}
	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}

	color.New(color.FgCyan).Fprintf(out, "Watching %s for changes (Ctrl+C to stop)\n", siteDir)

	<-ctx.Done()
	fmt.Fprintln(out, "Stopping watcher")
	return nil
}

// siteFilter accepts the files below siteDir that the pipeline processes.
func siteFilter(siteDir string, pipeline *build.Pipeline) watcher.FileFilter {
	return func(path string) bool {
		rel, err := filepath.Rel(siteDir, path)
		if err != nil {
			return false
		}
		return pipeline.Accepts(filepath.ToSlash(rel))
	}
}

// rebuildHandler reprocesses every created or modified file of a batch.
func rebuildHandler(
	ctx context.Context,
	cfg *config.Config,
	pipeline *build.Pipeline,
	out io.Writer,
	logger logging.Logger,
) watcher.ChangeHandler {
	green := color.New(color.FgGreen)
	red := color.New(color.FgRed)

	return func(events []watcher.ChangeEvent) error {
		failed := 0
		for _, event := range events {
			if event.Type == watcher.EventTypeDeleted || event.Type == watcher.EventTypeRenamed {
				continue
			}

			result := pipeline.ProcessFile(ctx, event.Path)
			switch {
			case result.Error != nil:
				failed++
				red.Fprintf(out, "failed    %s: %v\n", event.Path, result.Error)
			case result.Rewritten:
				green.Fprintf(out, "rewritten %s\n", event.Path)
			default:
				logger.Debug(ctx, "Page already up to date", "path", event.Path)
			}
		}

		if err := writeMetrics(cfg, pipeline); err != nil {
			return err
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d changed files failed", failed, len(events))
		}
		return nil
	}
}
