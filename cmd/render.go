package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/conneroisu/stamp/internal/build"
	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/conneroisu/stamp/internal/sources"
	"github.com/conneroisu/stamp/internal/substitute"
)

var renderCmd = &cobra.Command{
	Use:   "render [template]",
	Short: "Substitute %(...)s markers in a template",
	Long: `Render a template against the project metadata and print the result.
The template is read from the named file, or from stdin when the argument is
omitted or "-".

Lookup order, first match wins:
  --set pairs, --source files in order, the environment (with --env),
  then the primary metadata and substitution.sources.

Examples:
  stamp render banner.tmpl
  echo '%(name)s@%(version)s' | stamp render
  stamp render --set channel=beta --source extra.toml notes.tmpl
  stamp render --strict --output dist/NOTICE NOTICE.tmpl`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

var (
	renderSources []string
	renderSet     []string
	renderEnv     bool
	renderStrict  bool
	renderOutput  string
)

func init() {
	rootCmd.AddCommand(renderCmd)

	renderCmd.Flags().StringArrayVarP(&renderSources, "source", "s", nil, "Extra lookup source (json, yaml, toml or .env), repeatable")
	renderCmd.Flags().StringArrayVar(&renderSet, "set", nil, "Lookup value as key=value, dotted keys nest, repeatable")
	renderCmd.Flags().BoolVar(&renderEnv, "env", false, "Resolve markers from environment variables")
	renderCmd.Flags().BoolVar(&renderStrict, "strict", false, "Fail when any marker is left unresolved")
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "", "Write to a file instead of stdout")
}

func runRender(cmd *cobra.Command, args []string) error {
	template, err := readTemplate(cmd.InOrStdin(), args)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	project, _, err := loadProject(ctx)
	if err != nil {
		return err
	}
	project.OptionalPrimary = true

	locals, err := renderLocals()
	if err != nil {
		return err
	}

	text, recorder, err := project.Render(template, locals...)
	if err != nil {
		return err
	}

	if err := writeRendered(cmd.OutOrStdout(), text); err != nil {
		return err
	}

	if renderStrict || project.Config.Substitution.Strict {
		if err := recorder.Err(); err != nil {
			return stamperrors.Wrap(err, stamperrors.ErrorTypeBuild, stamperrors.ErrCodeUnresolvedMarker,
				fmt.Sprintf("%d unresolved marker(s)", recorder.Len()))
		}
	}
	return nil
}

func readTemplate(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return "", stamperrors.NewIOError(stamperrors.ErrCodeReadFailed, "cannot read template from stdin", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", stamperrors.NewIOError(stamperrors.ErrCodeReadFailed, "cannot read template", err).WithFile(args[0])
	}
	return string(data), nil
}

func renderLocals() ([]substitute.Source, error) {
	var locals []substitute.Source

	if len(renderSet) > 0 {
		pairs, err := sources.Pairs(renderSet)
		if err != nil {
			return nil, err
		}
		locals = append(locals, pairs)
	}

	extra, err := sources.LoadAll(renderSources...)
	if err != nil {
		return nil, err
	}
	locals = append(locals, extra...)

	if renderEnv {
		locals = append(locals, sources.Environment())
	}
	return locals, nil
}

func writeRendered(stdout io.Writer, text string) error {
	if renderOutput == "" {
		_, err := io.WriteString(stdout, text)
		return err
	}
	return build.WriteFile(renderOutput, []byte(text))
}
