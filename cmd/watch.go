package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/conneroisu/stamp/internal/build"
	"github.com/conneroisu/stamp/internal/config"
	"github.com/conneroisu/stamp/internal/logging"
	"github.com/conneroisu/stamp/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch sources and rerun tasks on change",
	Long: `Watch the configured paths and rerun the watch tasks whenever files
change. Changes are debounced, so a burst of saves triggers one run. The dist
directory is always ignored.

Examples:
  stamp watch                     # Rebuild on change
  stamp watch --task copy         # Only refresh the substituted copy
  stamp watch --verbose           # Print every changed path`,
	Args: cobra.NoArgs,
	RunE: runWatch,
}

var (
	watchVerbose bool
	watchTasks   []string
)

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().BoolVarP(&watchVerbose, "verbose", "v", false, "Verbose output")
	watchCmd.Flags().StringSliceVarP(&watchTasks, "task", "t", nil, "Tasks or aliases to run on change (default from watch.tasks)")
}

func runWatch(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger()
	if err != nil {
		return err
	}
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	tasks := cfg.Watch.Tasks
	if len(watchTasks) > 0 {
		tasks = watchTasks
	}

	runner := build.NewDefaultRunner(logger)
	// Catch unknown task names before watching anything.
	if _, err := runner.Expand(tasks...); err != nil {
		return err
	}

	fileWatcher, err := watcher.NewFileWatcher(cfg.ProjectDir, cfg.Watch.Debounce, logger)
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fileWatcher.Stop()

	ignore := append([]string{path.Clean(filepath.ToSlash(cfg.Dist)) + "/**"}, cfg.Watch.Ignore...)
	fileWatcher.AddFilter(watcher.IgnoreFilter(cfg.ProjectDir, ignore))
	fileWatcher.AddFilter(watcher.NoTempFilter)

	fileWatcher.AddHandler(func(events []watcher.ChangeEvent) error {
		if watchVerbose {
			for _, event := range events {
				logger.Info(ctx, "Changed", "type", event.Type.String(), "path", event.Path)
			}
		} else {
			logger.Info(ctx, "Files changed", "count", len(events))
		}
		rebuild(ctx, cfg, logger, runner, tasks)
		return nil
	})

	for _, p := range cfg.Watch.Paths {
		if err := addWatchPath(fileWatcher, cfg.ProjectDir, p); err != nil {
			logger.Warn(ctx, err, "Cannot watch path", "path", p)
			continue
		}
		logger.Info(ctx, "Watching", "path", p)
	}

	rebuild(ctx, cfg, logger, runner, tasks)

	if err := fileWatcher.Start(ctx); err != nil {
		return fmt.Errorf("failed to start file watcher: %w", err)
	}
	logger.Info(ctx, "Watching for changes (Press Ctrl+C to stop)")

	<-ctx.Done()
	logger.Info(context.Background(), "Stopping file watcher")
	return nil
}

// addWatchPath watches a directory tree, or a single file such as
// bower.json when p names one.
func addWatchPath(fw *watcher.FileWatcher, root, p string) error {
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, p)
	}
	info, err := os.Stat(full)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fw.AddRecursive(p)
	}
	return fw.AddPath(p)
}

// rebuild runs tasks against a fresh project so edits to the metadata
// files are picked up. Failures are logged and the watch continues.
func rebuild(ctx context.Context, cfg *config.Config, logger logging.Logger, runner *build.Runner, tasks []string) {
	project, err := build.NewProject(cfg, logger)
	if err != nil {
		logger.Error(ctx, err, "Cannot prepare project")
		return
	}
	if err := runner.Run(ctx, project, tasks...); err != nil && ctx.Err() == nil {
		logger.Error(ctx, err, "Build failed")
	}
}
