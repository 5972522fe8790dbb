package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ValidationError represents a configuration validation error with suggestions
type ValidationError struct {
	Field       string
	Value       interface{}
	Message     string
	Suggestions []string
}

func (ve *ValidationError) Error() string {
	return fmt.Sprintf("validation error in %s: %s", ve.Field, ve.Message)
}

// ValidationResult holds the result of configuration validation
type ValidationResult struct {
	Valid    bool
	Errors   []ValidationError
	Warnings []ValidationError
}

// HasErrors returns true if there are any validation errors
func (vr *ValidationResult) HasErrors() bool {
	return len(vr.Errors) > 0
}

// HasWarnings returns true if there are any validation warnings
func (vr *ValidationResult) HasWarnings() bool {
	return len(vr.Warnings) > 0
}

// String returns a formatted string of all validation issues
func (vr *ValidationResult) String() string {
	var builder strings.Builder

	write := func(title string, issues []ValidationError) {
		if len(issues) == 0 {
			return
		}
		builder.WriteString(title + ":\n")
		for _, issue := range issues {
			builder.WriteString(fmt.Sprintf("  - %s: %s\n", issue.Field, issue.Message))
			for _, suggestion := range issue.Suggestions {
				builder.WriteString(fmt.Sprintf("    hint: %s\n", suggestion))
			}
		}
	}
	write("Validation errors", vr.Errors)
	write("Validation warnings", vr.Warnings)

	return builder.String()
}

// ValidateConfigWithDetails performs validation with detailed feedback.
// It expects defaults to have been applied.
func ValidateConfigWithDetails(config *Config) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   []ValidationError{},
		Warnings: []ValidationError{},
	}

	if config.Src == "" {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:       "src",
			Message:     "no source file configured; copy, minify and lint have nothing to do",
			Suggestions: []string{"Set src to the library entry point, e.g. src/mylib.js"},
		})
	} else {
		checkPath(result, "src", config.Src)
	}

	checkPath(result, "dist", config.Dist)
	if filepath.Clean(config.Dist) == "." {
		result.Errors = append(result.Errors, ValidationError{
			Field:       "dist",
			Value:       config.Dist,
			Message:     "dist must not be the project directory; clean removes it",
			Suggestions: []string{"Use a dedicated output directory such as dist"},
		})
	}

	checkPath(result, "metadata.primary", config.Metadata.Primary)
	for i, mirror := range config.Metadata.Mirrors {
		checkPath(result, fmt.Sprintf("metadata.mirrors[%d]", i), mirror)
		if filepath.Clean(mirror) == filepath.Clean(config.Metadata.Primary) {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:   fmt.Sprintf("metadata.mirrors[%d]", i),
				Value:   mirror,
				Message: "mirror is the primary metadata file",
			})
		}
	}

	for i, pattern := range config.Lint.Files {
		field := fmt.Sprintf("lint.files[%d]", i)
		checkPath(result, field, pattern)
		if !doublestar.ValidatePattern(pattern) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   field,
				Value:   pattern,
				Message: "invalid glob pattern",
			})
		}
	}

	if config.Minify.Command != "" {
		checkPath(result, "minify.output", config.Minify.Output)
		if !strings.Contains(config.Minify.Command, "%(output)s") {
			result.Warnings = append(result.Warnings, ValidationError{
				Field:       "minify.command",
				Value:       config.Minify.Command,
				Message:     "command does not reference %(output)s",
				Suggestions: []string{"Write the minified file to %(output)s so the banner can be prepended"},
			})
		}
	}

	switch strings.ToLower(config.Bump.Level) {
	case "major", "minor", "patch":
	default:
		result.Errors = append(result.Errors, ValidationError{
			Field:       "bump.level",
			Value:       config.Bump.Level,
			Message:     "unknown bump level",
			Suggestions: []string{"Use one of major, minor, patch"},
		})
	}

	for i, header := range config.VersionCheck.Headers {
		checkPath(result, fmt.Sprintf("versioncheck.headers[%d]", i), header)
	}
	for i, source := range config.Substitution.Sources {
		checkPath(result, fmt.Sprintf("substitution.sources[%d]", i), source)
	}
	checkPath(result, "substitution.base_dir", config.Substitution.BaseDir)

	for i, path := range config.Watch.Paths {
		checkPath(result, fmt.Sprintf("watch.paths[%d]", i), path)
	}
	for i, pattern := range config.Watch.Ignore {
		if !doublestar.ValidatePattern(pattern) {
			result.Errors = append(result.Errors, ValidationError{
				Field:   fmt.Sprintf("watch.ignore[%d]", i),
				Value:   pattern,
				Message: "invalid glob pattern",
			})
		}
	}
	if config.Watch.Debounce > 10*time.Second {
		result.Warnings = append(result.Warnings, ValidationError{
			Field:   "watch.debounce",
			Value:   config.Watch.Debounce,
			Message: "debounce above 10s makes watch mode feel unresponsive",
		})
	}

	result.Valid = !result.HasErrors()

	return result
}

// validateConfig returns the first validation error, if any.
func validateConfig(config *Config) error {
	result := ValidateConfigWithDetails(config)
	if result.HasErrors() {
		first := result.Errors[0]
		return &first
	}

	return nil
}

func checkPath(result *ValidationResult, field, path string) {
	if err := validatePath(path); err != nil {
		result.Errors = append(result.Errors, ValidationError{
			Field:       field,
			Value:       path,
			Message:     err.Error(),
			Suggestions: []string{"Use a path relative to the project directory"},
		})
	}
}

// validatePath validates a project-relative path for security
func validatePath(path string) error {
	if path == "" {
		return fmt.Errorf("empty path")
	}

	if filepath.IsAbs(path) || strings.HasPrefix(path, "/") {
		return fmt.Errorf("path must be relative: %s", path)
	}

	// Reject path traversal attempts
	cleanPath := filepath.ToSlash(filepath.Clean(path))
	if cleanPath == ".." || strings.HasPrefix(cleanPath, "../") {
		return fmt.Errorf("path contains traversal: %s", path)
	}

	// Reject characters that would break out of shell command templates
	dangerousChars := []string{";", "&", "|", "$", "`", "<", ">", "\"", "'", "\x00"}
	for _, char := range dangerousChars {
		if strings.Contains(path, char) {
			return fmt.Errorf("path contains dangerous character: %q", char)
		}
	}

	return nil
}
