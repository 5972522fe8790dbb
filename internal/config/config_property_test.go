//go:build property
// +build property

package config

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestPathValidationProperties checks that accepted paths never leave the
// project directory.
func TestPathValidationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	segment := gen.OneConstOf("src", "dist", "..", ".", "lib.js", "a b", "x;y", "$HOME", "**")

	// Property: an accepted path resolves inside the project root
	properties.Property("accepted paths stay inside the project", prop.ForAll(
		func(segments []string) bool {
			path := strings.Join(segments, "/")
			if validatePath(path) != nil {
				return true
			}
			root := filepath.FromSlash("/project")
			joined := filepath.Join(root, filepath.FromSlash(path))
			rel, err := filepath.Rel(root, joined)
			return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
		},
		gen.SliceOfN(4, segment),
	))

	// Property: shell metacharacters are always rejected
	properties.Property("shell metacharacters rejected", prop.ForAll(
		func(prefix, suffix string, meta string) bool {
			return validatePath(prefix+meta+suffix) != nil
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.OneConstOf(";", "&", "|", "$", "`", "<", ">", "\"", "'"),
	))

	// Property: validation is stable under cleaning
	properties.Property("clean does not change the verdict for relative paths", prop.ForAll(
		func(segments []string) bool {
			path := strings.Join(segments, "/")
			if path == "" {
				return true
			}
			return (validatePath(path) == nil) == (validatePath(filepath.ToSlash(filepath.Clean(path))) == nil)
		},
		gen.SliceOfN(3, gen.OneConstOf("src", "..", ".", "lib")),
	))

	properties.TestingRun(t)
}
