// Package handlers provides the directive handlers stamp registers by
// default: env, date, include, json, upper and lower.
package handlers

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ohler55/ojg/oj"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/conneroisu/stamp/internal/logging"
	"github.com/conneroisu/stamp/internal/substitute"
)

// DefaultDateLayout is used by the date handler when given an empty layout.
const DefaultDateLayout = "2006-01-02"

// Options configures the built-in handlers.
type Options struct {
	// BaseDir anchors relative include paths. Defaults to the working directory.
	BaseDir string
	// Now returns the build time used by the date handler.
	Now func() time.Time
	// Getenv looks up environment variables for the env handler.
	Getenv func(string) string
	Logger logging.Logger
}

func (o *Options) withDefaults() Options {
	out := Options{}
	if o != nil {
		out = *o
	}
	if out.BaseDir == "" {
		out.BaseDir = "."
	}
	if out.Now == nil {
		now := time.Now()
		out.Now = func() time.Time { return now }
	}
	if out.Getenv == nil {
		out.Getenv = os.Getenv
	}
	if out.Logger == nil {
		out.Logger = logging.NewLogger(logging.DefaultConfig())
	}
	out.Logger = out.Logger.WithComponent("handlers")
	return out
}

// RegisterBuiltins registers every built-in handler on r, replacing any
// handler already registered under the same names.
func RegisterBuiltins(r *substitute.Registry, opts *Options) {
	o := opts.withDefaults()

	r.Register("env", Env(o.Getenv))
	r.Register("date", Date(o.Now))
	r.Register("include", Include(o.BaseDir, o.Logger))
	r.Register("json", JSON)
	r.Register("upper", Upper)
	r.Register("lower", Lower)
}

// Env returns a handler that expands its argument as an environment
// variable name. Unset variables expand to the empty string.
func Env(getenv func(string) string) substitute.Handler {
	return func(arg any) string {
		return getenv(substitute.Text(arg))
	}
}

// Date returns a handler that formats the build time with its argument as a
// Go time layout.
func Date(now func() time.Time) substitute.Handler {
	return func(arg any) string {
		layout, _ := arg.(string)
		if layout == "" {
			layout = DefaultDateLayout
		}
		return now().Format(layout)
	}
}

// Include returns a handler that expands to the contents of a file below
// baseDir, without trailing newlines. Unreadable files and paths outside
// baseDir expand to the empty string and are logged.
func Include(baseDir string, logger logging.Logger) substitute.Handler {
	return func(arg any) string {
		name, ok := arg.(string)
		if !ok || name == "" {
			logger.Warn(context.Background(), nil, "include expects a file path", "arg", substitute.Text(arg))
			return ""
		}

		path, err := within(baseDir, name)
		if err != nil {
			logger.Warn(context.Background(), err, "include rejected", "path", name)
			return ""
		}

		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn(context.Background(),
				stamperrors.NewIOError(stamperrors.ErrCodeReadFailed, "cannot read include", err).WithFile(path),
				"include failed")
			return ""
		}
		return strings.TrimRight(string(data), "\r\n")
	}
}

func within(baseDir, name string) (string, error) {
	if filepath.IsAbs(name) {
		return "", stamperrors.ErrPathTraversal(name)
	}
	path := filepath.Join(baseDir, name)
	rel, err := filepath.Rel(baseDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", stamperrors.ErrPathTraversal(name)
	}
	return path, nil
}

var jsonOptions = func() oj.Options {
	opts := oj.DefaultOptions
	opts.Sort = true
	return opts
}()

// JSON expands to the compact JSON encoding of its argument.
func JSON(arg any) string {
	return oj.JSON(arg, &jsonOptions)
}

// Upper expands to its argument in upper case.
func Upper(arg any) string {
	// Casers carry state and must not be shared between goroutines.
	return cases.Upper(language.Und).String(substitute.Text(arg))
}

// Lower expands to its argument in lower case.
func Lower(arg any) string {
	return cases.Lower(language.Und).String(substitute.Text(arg))
}

var descriptions = map[string]string{
	"env":     "Value of an environment variable, empty when unset",
	"date":    "Build time formatted with a Go time layout",
	"include": "Contents of a file relative to the base directory",
	"json":    "Argument encoded as compact JSON",
	"upper":   "Argument in upper case",
	"lower":   "Argument in lower case",
}

// Describe returns a one-line description of a built-in handler, or the
// empty string for handlers registered elsewhere.
func Describe(name string) string {
	return descriptions[name]
}
