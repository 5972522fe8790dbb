// Package build runs the release tasks of a small client-side library:
// linting, cleaning the dist directory, stamping metadata into a copy of
// the source, minifying with a license banner, bumping the version and
// checking that every artifact carries the same version.
package build

import (
	"context"
	"errors"
	"io"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/conneroisu/stamp/internal/config"
	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/conneroisu/stamp/internal/handlers"
	"github.com/conneroisu/stamp/internal/logging"
	"github.com/conneroisu/stamp/internal/metadata"
	"github.com/conneroisu/stamp/internal/sources"
	"github.com/conneroisu/stamp/internal/substitute"
)

// Project is the state shared by the tasks of one run.
type Project struct {
	Config   *config.Config
	Registry *substitute.Registry
	Logger   logging.Logger
	// Output receives the combined output of external commands.
	Output io.Writer
	// OptionalPrimary lets Sources proceed without the primary metadata
	// file when it does not exist. Used by ad-hoc rendering.
	OptionalPrimary bool

	primary *metadata.File
	extra   []substitute.Source
}

// NewProject prepares a project for cfg. Extra lookup sources named in the
// configuration are loaded eagerly; the primary metadata file is read on
// first use so tasks such as clean work without it.
func NewProject(cfg *config.Config, logger logging.Logger) (*Project, error) {
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig())
	}

	paths := make([]string, len(cfg.Substitution.Sources))
	for i, src := range cfg.Substitution.Sources {
		paths[i] = cfg.Path(src)
	}
	extra, err := sources.LoadAll(paths...)
	if err != nil {
		return nil, err
	}

	registry := substitute.NewRegistry()
	handlers.RegisterBuiltins(registry, &handlers.Options{
		BaseDir: cfg.Path(cfg.Substitution.BaseDir),
		Logger:  logger,
	})

	return &Project{
		Config:   cfg,
		Registry: registry,
		Logger:   logger,
		Output:   os.Stderr,
		extra:    extra,
	}, nil
}

// Primary returns the primary metadata file, reading it on first call.
func (p *Project) Primary() (*metadata.File, error) {
	if p.primary != nil {
		return p.primary, nil
	}
	f, err := metadata.Read(p.Config.Path(p.Config.Metadata.Primary))
	if err != nil {
		return nil, err
	}
	p.primary = f
	return f, nil
}

// Sources returns the lookup chain: the primary metadata first, then the
// configured extra sources in order.
func (p *Project) Sources() ([]substitute.Source, error) {
	primary, err := p.Primary()
	if err != nil {
		if !p.OptionalPrimary || !isNotFound(err) {
			return nil, err
		}
		p.Logger.Debug(context.Background(), "No primary metadata, using extra sources only", "path", p.Config.Metadata.Primary)
		return append([]substitute.Source(nil), p.extra...), nil
	}
	chain := make([]substitute.Source, 0, 1+len(p.extra))
	chain = append(chain, primary.Source())
	return append(chain, p.extra...), nil
}

// Render substitutes template against the project sources. Local sources
// are consulted first, in order; nil entries are skipped. Diagnostics are
// logged and also recorded in the returned Recorder.
func (p *Project) Render(template string, locals ...substitute.Source) (string, *substitute.Recorder, error) {
	project, err := p.Sources()
	if err != nil {
		return "", nil, err
	}
	chain := make([]substitute.Source, 0, len(locals)+len(project))
	for _, local := range locals {
		if local != nil {
			chain = append(chain, local)
		}
	}
	chain = append(chain, project...)

	recorder := substitute.NewRecorder()
	engine := substitute.New(p.Registry, substitute.WithSink(substitute.MultiSink{
		substitute.NewLogSink(p.Logger),
		recorder,
	}))
	return engine.Substitute(template, chain...), recorder, nil
}

// checkStrict turns recorded diagnostics into a task failure when
// substitution.strict is enabled.
func (p *Project) checkStrict(task, file string, recorder *substitute.Recorder) error {
	if !p.Config.Substitution.Strict {
		return nil
	}
	if err := recorder.Err(); err != nil {
		return stamperrors.Wrap(err, stamperrors.ErrorTypeBuild, stamperrors.ErrCodeUnresolvedMarker,
			"unresolved markers").WithTask(task).WithFile(file)
	}
	return nil
}

func isNotFound(err error) bool {
	var se *stamperrors.StampError
	return errors.As(err, &se) && se.Code == stamperrors.ErrCodeFileNotFound
}

var trailingSpace = regexp.MustCompile(`(?m)[ \t\r]+$`)

// Banner renders the license banner with trailing whitespace removed from
// every line.
func (p *Project) Banner() (string, *substitute.Recorder, error) {
	text, recorder, err := p.Render(p.Config.Banner.Template)
	if err != nil {
		return "", nil, err
	}
	return trailingSpace.ReplaceAllString(text, ""), recorder, nil
}

// Glob expands project-relative doublestar patterns into a sorted,
// de-duplicated list of files.
func (p *Project) Glob(patterns []string) ([]string, error) {
	fsys := os.DirFS(p.Config.ProjectDir)
	seen := make(map[string]struct{})
	var files []string

	for _, pattern := range patterns {
		matches, err := doublestar.Glob(fsys, path.Clean(filepath.ToSlash(pattern)), doublestar.WithFilesOnly())
		if err != nil {
			return nil, stamperrors.NewConfigError(stamperrors.ErrCodeConfigInvalid, "invalid glob "+pattern)
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	sort.Strings(files)
	return files, nil
}

func (p *Project) logf(ctx context.Context, task, msg string, fields ...interface{}) {
	p.Logger.Info(ctx, msg, append([]interface{}{"task", task}, fields...)...)
}
