package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/stamp/internal/version"
)

var (
	versionFlags    *StandardFlags
	versionShort    bool
	versionDetailed bool
)

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long: `Display version information for stamp including:

- Semantic version number
- Git commit hash
- Build timestamp
- Go version used for compilation
- Target platform (OS/architecture)

Examples:
  stamp version                 # Show version
  stamp version --detailed      # Show detailed version info
  stamp version --format json   # Output as JSON`,
	Args: cobra.NoArgs,
	RunE: runVersionCommand,
}

func init() {
	rootCmd.AddCommand(versionCmd)

	versionFlags = AddStandardFlags(versionCmd, "output")
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "Show short version only")
	versionCmd.Flags().BoolVar(&versionDetailed, "detailed", false, "Show detailed version information")
}

func runVersionCommand(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	switch versionFlags.OutputFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(version.GetBuildInfo())
	case "yaml":
		return yaml.NewEncoder(out).Encode(version.GetBuildInfo())
	}

	switch {
	case versionShort:
		fmt.Fprintln(out, version.GetShortVersion())
	case versionDetailed:
		outputVersionDetailed(out)
	default:
		outputVersionDefault(out)
	}
	return nil
}

func outputVersionDefault(out io.Writer) {
	info := version.GetBuildInfo()

	fmt.Fprintf(out, "stamp %s", info.Version)
	if info.GitCommit != "unknown" && len(info.GitCommit) >= 7 {
		fmt.Fprintf(out, " (%s)", info.GitCommit[:7])
	}
	if info.Dirty {
		fmt.Fprint(out, " (dirty)")
	}
	fmt.Fprintln(out)

	if !info.BuildTime.IsZero() {
		fmt.Fprintf(out, "Built: %s\n", info.BuildTime.UTC().Format("2006-01-02 15:04:05 UTC"))
	}
	fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
	fmt.Fprintf(out, "Platform: %s\n", info.Platform)
}

func outputVersionDetailed(out io.Writer) {
	fmt.Fprintln(out, version.GetDetailedVersion())

	if version.IsDirty() {
		fmt.Fprintln(out, "Working directory: dirty")
	}
	if version.IsRelease() {
		fmt.Fprintln(out, "Build type: release")
	} else {
		fmt.Fprintln(out, "Build type: development")
	}
}
