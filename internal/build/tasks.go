package build

import (
	"context"
	"os"
	"path/filepath"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/conneroisu/stamp/internal/metadata"
	"github.com/conneroisu/stamp/internal/substitute"
)

// Lint runs the configured lint command over the files matching the lint
// globs. %(files)s in the command expands to the quoted file list.
func Lint(ctx context.Context, p *Project) error {
	cfg := p.Config
	if cfg.Lint.Command == "" {
		p.logf(ctx, "lint", "No lint command configured, skipping")
		return nil
	}

	files, err := p.Glob(cfg.Lint.Files)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		p.logf(ctx, "lint", "No files matched, skipping", "patterns", cfg.Lint.Files)
		return nil
	}

	command, recorder, err := p.Render(cfg.Lint.Command, substitute.Source{"files": quoteAll(files)})
	if err != nil {
		return err
	}
	if err := p.checkStrict("lint", "lint.command", recorder); err != nil {
		return err
	}

	p.logf(ctx, "lint", "Linting", "files", len(files))
	return p.runCommand(ctx, "lint", command)
}

// Clean removes the dist directory.
func Clean(ctx context.Context, p *Project) error {
	dist := p.Config.Path(p.Config.Dist)
	if err := os.RemoveAll(dist); err != nil {
		return stamperrors.NewIOError(stamperrors.ErrCodeWriteFailed, "cannot remove dist", err).WithTask("clean").WithFile(dist)
	}
	p.logf(ctx, "clean", "Removed dist directory", "path", p.Config.Dist)
	return nil
}

// Copy writes the source file into dist with every marker substituted
// from the project sources. In strict mode unresolved markers fail the
// task after the file has been written.
func Copy(ctx context.Context, p *Project) error {
	cfg := p.Config
	if cfg.Src == "" {
		p.logf(ctx, "copy", "No source file configured, skipping")
		return nil
	}

	srcPath := cfg.Path(cfg.Src)
	data, err := os.ReadFile(srcPath)
	if err != nil {
		return stamperrors.NewIOError(stamperrors.ErrCodeReadFailed, "cannot read source", err).WithTask("copy").WithFile(srcPath)
	}

	text, recorder, err := p.Render(string(data))
	if err != nil {
		return err
	}

	dst := cfg.Path(cfg.DistCopy())
	if err := writeFile(dst, []byte(text)); err != nil {
		return err.WithTask("copy")
	}
	p.logf(ctx, "copy", "Wrote substituted copy", "path", cfg.DistCopy(), "unresolved", recorder.Len())

	return p.checkStrict("copy", dst, recorder)
}

// Minify runs the configured minify command and prepends the rendered
// license banner to its output. %(input)s and %(output)s in the command
// expand to the quoted source and output paths.
func Minify(ctx context.Context, p *Project) error {
	cfg := p.Config
	if cfg.Minify.Command == "" {
		p.logf(ctx, "minify", "No minify command configured, skipping")
		return nil
	}
	if cfg.Src == "" {
		p.logf(ctx, "minify", "No source file configured, skipping")
		return nil
	}

	out := cfg.Path(cfg.Minify.Output)
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return stamperrors.NewIOError(stamperrors.ErrCodeWriteFailed, "cannot create output directory", err).WithTask("minify").WithFile(out)
	}

	command, recorder, err := p.Render(cfg.Minify.Command, substitute.Source{
		"input":  shellQuote(cfg.Src),
		"output": shellQuote(cfg.Minify.Output),
	})
	if err != nil {
		return err
	}
	if err := p.checkStrict("minify", "minify.command", recorder); err != nil {
		return err
	}
	if err := p.runCommand(ctx, "minify", command); err != nil {
		return err
	}

	minified, err := os.ReadFile(out)
	if err != nil {
		return stamperrors.NewIOError(stamperrors.ErrCodeReadFailed, "minify command produced no output", err).WithTask("minify").WithFile(out)
	}
	banner, recorder, err := p.Banner()
	if err != nil {
		return err
	}
	if err := writeFile(out, append([]byte(banner), minified...)); err != nil {
		return err.WithTask("minify")
	}
	p.logf(ctx, "minify", "Wrote minified file", "path", cfg.Minify.Output, "bytes", len(banner)+len(minified))

	return p.checkStrict("minify", out, recorder)
}

// Bump increments the primary metadata version at the configured level,
// writes it back and mirrors it into every mirror file. The banner picks
// up the new version because it renders from the same metadata.
func Bump(ctx context.Context, p *Project) error {
	cfg := p.Config
	level, err := metadata.ParseLevel(cfg.Bump.Level)
	if err != nil {
		return err
	}

	primary, err := p.Primary()
	if err != nil {
		return err
	}
	previous := primary.Version()
	next, err := metadata.Bump(previous, level)
	if err != nil {
		return stamperrors.Wrap(err, stamperrors.ErrorTypeBuild, stamperrors.ErrCodeVersionInvalid, "cannot bump version").
			WithTask("bump").WithFile(primary.Path)
	}

	primary.SetVersion(next)
	if err := primary.Write(); err != nil {
		return err
	}

	for _, mirror := range cfg.Metadata.Mirrors {
		f, err := metadata.Read(cfg.Path(mirror))
		if err != nil {
			return err
		}
		f.SetVersion(next)
		if err := f.Write(); err != nil {
			return err
		}
	}

	p.logf(ctx, "bump", "Bumped version", "from", previous, "to", next, "level", string(level), "mirrors", len(cfg.Metadata.Mirrors))
	return nil
}

// VersionCheck verifies that every header artifact and mirror file
// carries the primary metadata version.
func VersionCheck(ctx context.Context, p *Project) error {
	cfg := p.Config
	primary, err := p.Primary()
	if err != nil {
		return err
	}
	expected := primary.Version()

	entries := make([]metadata.Entry, 0, len(cfg.VersionCheck.Headers)+len(cfg.Metadata.Mirrors))
	for _, header := range cfg.VersionCheck.Headers {
		entries = append(entries, metadata.Entry{Path: cfg.Path(header), Kind: metadata.Header})
	}
	for _, mirror := range cfg.Metadata.Mirrors {
		entries = append(entries, metadata.Entry{Path: cfg.Path(mirror), Kind: metadata.Package})
	}

	markersErr := p.checkLeftoverMarkers(ctx)

	mismatches, err := metadata.Check(expected, entries)
	for _, m := range mismatches {
		p.Logger.Error(ctx, nil, "Version mismatch", "task", "versioncheck", "file", m.Path, "expected", m.Expected, "actual", m.Found)
	}
	if err != nil {
		if se, ok := err.(*stamperrors.StampError); ok {
			return se.WithTask("versioncheck")
		}
		return err
	}

	if markersErr != nil {
		return markersErr
	}

	p.logf(ctx, "versioncheck", "All versions match", "version", expected, "checked", len(entries))
	return nil
}

// checkLeftoverMarkers scans the header artifacts for %(...)s markers that
// survived substitution. They are warnings, or errors in strict mode.
// Unreadable headers are left to the version comparison to report.
func (p *Project) checkLeftoverMarkers(ctx context.Context) error {
	cfg := p.Config
	severity := stamperrors.ErrorSeverityWarning
	if cfg.Substitution.Strict {
		severity = stamperrors.ErrorSeverityError
	}

	collector := stamperrors.NewErrorCollector()
	for _, header := range cfg.VersionCheck.Headers {
		data, err := os.ReadFile(cfg.Path(header))
		if err != nil {
			continue
		}
		for _, marker := range substitute.FindMarkers(string(data)) {
			collector.Add(stamperrors.Problem{
				Task:     "versioncheck",
				File:     header,
				Message:  "unresolved marker " + marker,
				Severity: severity,
			})
		}
		for _, problem := range collector.ProblemsByFile(header) {
			p.Logger.Warn(ctx, nil, "Unresolved marker left in artifact", "task", "versioncheck", "file", header, "problem", problem.Message)
		}
	}

	if !collector.HasErrors() {
		return nil
	}
	return stamperrors.Wrap(collector.Err(), stamperrors.ErrorTypeBuild, stamperrors.ErrCodeUnresolvedMarker,
		"unresolved markers in artifacts").WithTask("versioncheck")
}

func writeFile(path string, data []byte) *stamperrors.StampError {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return stamperrors.NewIOError(stamperrors.ErrCodeWriteFailed, "cannot create directory", err).WithFile(path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return stamperrors.NewIOError(stamperrors.ErrCodeWriteFailed, "cannot write file", err).WithFile(path)
	}
	return nil
}

// WriteFile writes data to path, creating parent directories as needed.
func WriteFile(path string, data []byte) error {
	if err := writeFile(path, data); err != nil {
		return err
	}
	return nil
}
