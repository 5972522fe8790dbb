package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/stamp/internal/build"
	"github.com/conneroisu/stamp/internal/logging"
)

var buildCmd = &cobra.Command{
	Use:     "build",
	Aliases: []string{"b"},
	Short:   "Lint, clean, copy and minify",
	Long: `Run the build alias: lint the sources, remove dist, write the
substituted copy of the source into dist and minify it with the license
banner.

Examples:
  stamp build
  stamp build --log-level debug`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd.Context(), "build")
	},
}

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Bump the version, then build",
	Long: `Run the release alias: bump the version in the primary metadata and its
mirrors, then build. Publishing the package is left to your package manager.

Examples:
  stamp release
  stamp release --level minor`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd.Context(), "release")
	},
}

var bumpCmd = &cobra.Command{
	Use:   "bump",
	Short: "Bump the version in the primary and mirror metadata",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runTasks(cmd.Context(), "bump")
	},
}

var runCmd = &cobra.Command{
	Use:   "run [task|alias]...",
	Short: "Run tasks and aliases in order",
	Long: `Run the named tasks and aliases in order, stopping at the first failure.
Without arguments the default alias runs.

Examples:
  stamp run clean copy
  stamp run release versioncheck
  stamp run --list`,
	RunE: runRun,
}

var (
	runList  bool
	runFlags *StandardFlags
)

func init() {
	rootCmd.AddCommand(buildCmd, releaseCmd, bumpCmd, runCmd)

	for _, name := range []string{"lint", "clean", "copy", "minify", "versioncheck"} {
		rootCmd.AddCommand(newTaskCommand(name))
	}

	AddStandardFlags(bumpCmd, "bump")
	AddStandardFlags(releaseCmd, "bump")
	// viper keeps one flag per key, so bind on the command that actually runs.
	bumpCmd.PreRunE = bindBumpLevel
	releaseCmd.PreRunE = bindBumpLevel

	runCmd.Flags().BoolVar(&runList, "list", false, "List tasks and aliases instead of running")
	runFlags = AddStandardFlags(runCmd, "output")
}

func bindBumpLevel(cmd *cobra.Command, args []string) error {
	return SetViperBindings(cmd, map[string]string{"level": "bump.level"})
}

func newTaskCommand(name string) *cobra.Command {
	return &cobra.Command{
		Use:   name,
		Short: "Run the " + name + " task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTasks(cmd.Context(), name)
		},
	}
}

func runRun(cmd *cobra.Command, args []string) error {
	if runList {
		return listTasks(cmd, build.NewDefaultRunner(logging.Discard()).Tasks(), runFlags.OutputFormat)
	}
	return runTasks(cmd.Context(), args...)
}

// runTasks loads the project and runs names with the default runner,
// cancelling on SIGINT or SIGTERM.
func runTasks(ctx context.Context, names ...string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	project, logger, err := loadProject(ctx)
	if err != nil {
		return err
	}

	runner := build.NewDefaultRunner(logger)
	if err := runner.Run(ctx, project, names...); err != nil {
		return err
	}

	snapshot := runner.Metrics().GetSnapshot()
	logger.Info(ctx, "Done", "tasks", snapshot.TotalTasks, "success_rate", runner.Metrics().GetSuccessRate(), "duration", snapshot.TotalDuration.String())
	return nil
}

func listTasks(cmd *cobra.Command, tasks []build.TaskInfo, format string) error {
	out := cmd.OutOrStdout()

	switch format {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(tasks)
	case "yaml":
		return yaml.NewEncoder(out).Encode(tasks)
	default:
		for _, t := range tasks {
			if len(t.Runs) > 0 {
				fmt.Fprintf(out, "%-14s -> %s\n", t.Name, strings.Join(t.Runs, ", "))
			} else {
				fmt.Fprintf(out, "%-14s %s\n", t.Name, t.Description)
			}
		}
		return nil
	}
}
