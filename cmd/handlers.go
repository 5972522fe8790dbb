package cmd

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/conneroisu/stamp/internal/handlers"
	"github.com/conneroisu/stamp/internal/logging"
	"github.com/conneroisu/stamp/internal/substitute"
)

// HandlerInfo describes a registered directive handler.
type HandlerInfo struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Example     string `json:"example" yaml:"example"`
}

var handlersCmd = &cobra.Command{
	Use:   "handlers",
	Short: "List directive handlers",
	Long: `List the handlers available to %(name:argument)s directives. The argument
is a literal: a quoted string, number, boolean, null, array or map.

Examples:
  stamp handlers
  stamp handlers --format json`,
	Args: cobra.NoArgs,
	RunE: runHandlers,
}

var handlersFlags *StandardFlags

var handlerExamples = map[string]string{
	"env":     `%(env:"HOME")s`,
	"date":    `%(date:"2006")s`,
	"include": `%(include:"LICENSE")s`,
	"json":    `%(json:{"a": 1})s`,
	"upper":   `%(upper:"mit")s`,
	"lower":   `%(lower:"MIT")s`,
}

func init() {
	rootCmd.AddCommand(handlersCmd)
	handlersFlags = AddStandardFlags(handlersCmd, "output")
}

func runHandlers(cmd *cobra.Command, args []string) error {
	registry := substitute.NewRegistry()
	handlers.RegisterBuiltins(registry, &handlers.Options{Logger: logging.Discard()})

	infos := handlerInfos(registry)
	out := cmd.OutOrStdout()

	switch handlersFlags.OutputFormat {
	case "json":
		encoder := json.NewEncoder(out)
		encoder.SetEscapeHTML(false)
		encoder.SetIndent("", "  ")
		return encoder.Encode(infos)
	case "yaml":
		return yaml.NewEncoder(out).Encode(infos)
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tEXAMPLE\tDESCRIPTION")
	for _, info := range infos {
		fmt.Fprintf(w, "%s\t%s\t%s\n", info.Name, info.Example, info.Description)
	}
	return w.Flush()
}

func handlerInfos(registry *substitute.Registry) []HandlerInfo {
	names := registry.Names()
	infos := make([]HandlerInfo, 0, len(names))
	for _, name := range names {
		example, ok := handlerExamples[name]
		if !ok {
			example = "%(" + name + `:"")s`
		}
		infos = append(infos, HandlerInfo{
			Name:        name,
			Description: handlers.Describe(name),
			Example:     example,
		})
	}
	return infos
}
