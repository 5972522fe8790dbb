package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/conneroisu/stamp/internal/metadata"
)

var outputFormats = []string{"text", "json", "yaml"}

// StandardFlags provides consistent flag definitions across commands
type StandardFlags struct {
	OutputFormat string
	Level        string
}

// AddStandardFlags adds standard flags to a command
func AddStandardFlags(cmd *cobra.Command, flagTypes ...string) *StandardFlags {
	flags := &StandardFlags{}

	for _, flagType := range flagTypes {
		switch flagType {
		case "output":
			addOutputFlags(cmd.Flags(), flags)
			AddFlagValidation(cmd, "format", ValidateOutputFormat)
		case "bump":
			addBumpFlags(cmd.Flags(), flags)
			AddFlagValidation(cmd, "level", ValidateBumpLevel)
		}
	}

	return flags
}

func addOutputFlags(fs *pflag.FlagSet, flags *StandardFlags) {
	fs.StringVarP(&flags.OutputFormat, "format", "f", "text", "Output format ("+strings.Join(outputFormats, "|")+")")
}

func addBumpFlags(fs *pflag.FlagSet, flags *StandardFlags) {
	fs.StringVar(&flags.Level, "level", "", "Version part to bump (major|minor|patch, default from bump.level)")
}

// SetViperBindings binds flags to viper configuration keys so a flag given
// on the command line overrides the config file.
func SetViperBindings(cmd *cobra.Command, bindings map[string]string) error {
	for flagName, configKey := range bindings {
		flag := cmd.Flags().Lookup(flagName)
		if flag == nil {
			return fmt.Errorf("unknown flag %q", flagName)
		}
		if err := viper.BindPFlag(configKey, flag); err != nil {
			return err
		}
	}
	return nil
}

// AddFlagValidation adds validation for a specific flag
func AddFlagValidation(cmd *cobra.Command, flagName string, validator func(string) error) {
	flag := cmd.Flags().Lookup(flagName)
	if flag == nil {
		return
	}

	flag.Value = &validatingValue{
		Value:     flag.Value,
		validator: validator,
	}
}

type validatingValue struct {
	pflag.Value
	validator func(string) error
}

func (v *validatingValue) Set(val string) error {
	if v.validator != nil {
		if err := v.validator(val); err != nil {
			return err
		}
	}
	return v.Value.Set(val)
}

// ValidateOutputFormat checks a --format value.
func ValidateOutputFormat(format string) error {
	if !slices.Contains(outputFormats, format) {
		return fmt.Errorf("invalid output format %s, must be one of: %s", format, strings.Join(outputFormats, ", "))
	}
	return nil
}

// ValidateBumpLevel checks a --level value.
func ValidateBumpLevel(level string) error {
	_, err := metadata.ParseLevel(level)
	return err
}
