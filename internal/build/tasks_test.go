package build

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stamp/internal/config"
	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/conneroisu/stamp/internal/logging"
	"github.com/conneroisu/stamp/internal/metadata"
)

const librarySource = `/* lib %(version)s */
var VERSION = "%(version)s";
`

func writeProjectFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func readProjectFile(t *testing.T, dir, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(name)))
	require.NoError(t, err)
	return string(data)
}

// newTestProject lays out a small library and loads a project for it.
func newTestProject(t *testing.T, settings map[string]any) (*Project, string) {
	t.Helper()
	dir := t.TempDir()

	writeProjectFile(t, dir, "bower.json", "{\n  \"name\": \"lib\",\n  \"version\": \"1.0.0\",\n  \"license\": \"MIT\"\n}\n")
	writeProjectFile(t, dir, "package.json", "{\n  \"name\": \"lib\",\n  \"version\": \"1.0.0\"\n}\n")
	writeProjectFile(t, dir, "src/lib.js", librarySource)

	v := viper.New()
	v.Set("project_dir", dir)
	v.Set("src", "src/lib.js")
	for k, val := range settings {
		v.Set(k, val)
	}
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)

	p, err := NewProject(cfg, logging.Discard())
	require.NoError(t, err)
	p.Output = io.Discard
	return p, dir
}

func requireShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("command tests use POSIX shell utilities")
	}
}

func TestCopySubstitutesMetadata(t *testing.T) {
	p, dir := newTestProject(t, nil)

	require.NoError(t, Copy(context.Background(), p))

	assert.Equal(t, "/* lib 1.0.0 */\nvar VERSION = \"1.0.0\";\n", readProjectFile(t, dir, "dist/lib.js"))
	assert.Equal(t, librarySource, readProjectFile(t, dir, "src/lib.js"), "source is never modified")
}

func TestCopyStrict(t *testing.T) {
	p, dir := newTestProject(t, map[string]any{"substitution.strict": true})
	writeProjectFile(t, dir, "src/lib.js", "v%(version)s %(missing.key)s\n")

	err := Copy(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, &stamperrors.StampError{Type: stamperrors.ErrorTypeBuild, Code: stamperrors.ErrCodeUnresolvedMarker})
	assert.Equal(t, "v1.0.0 %(missing.key)s\n", readProjectFile(t, dir, "dist/lib.js"), "output is written before failing")
}

func TestCopyLenientKeepsMarkers(t *testing.T) {
	p, dir := newTestProject(t, nil)
	writeProjectFile(t, dir, "src/lib.js", "%(nope)s %(env:\"STAMP_BUILD_TEST_UNSET\")s|\n")

	require.NoError(t, Copy(context.Background(), p))
	assert.Equal(t, "%(nope)s |\n", readProjectFile(t, dir, "dist/lib.js"))
}

func TestCopyExtraSources(t *testing.T) {
	dir := t.TempDir()
	writeProjectFile(t, dir, "bower.json", `{"name": "lib", "version": "2.0.0"}`)
	writeProjectFile(t, dir, "extra.yaml", "version: 9.9.9\nauthor: Gregg\n")
	writeProjectFile(t, dir, "src/lib.js", "%(version)s by %(author)s")

	v := viper.New()
	v.Set("project_dir", dir)
	v.Set("src", "src/lib.js")
	v.Set("metadata.mirrors", []string{})
	v.Set("substitution.sources", []string{"extra.yaml"})
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)
	p, err := NewProject(cfg, logging.Discard())
	require.NoError(t, err)

	require.NoError(t, Copy(context.Background(), p))
	assert.Equal(t, "2.0.0 by Gregg", readProjectFile(t, dir, "dist/lib.js"))
}

func TestNewProjectMissingSource(t *testing.T) {
	v := viper.New()
	v.Set("project_dir", t.TempDir())
	v.Set("substitution.sources", []string{"missing.json"})
	cfg, err := config.LoadFrom(v)
	require.NoError(t, err)

	_, err = NewProject(cfg, logging.Discard())
	assert.Error(t, err)
}

func TestClean(t *testing.T) {
	p, dir := newTestProject(t, nil)
	writeProjectFile(t, dir, "dist/old.js", "stale")

	require.NoError(t, Clean(context.Background(), p))
	_, err := os.Stat(filepath.Join(dir, "dist"))
	assert.True(t, os.IsNotExist(err))

	require.NoError(t, Clean(context.Background(), p), "cleaning twice is fine")
}

func TestCleanWorksWithoutMetadata(t *testing.T) {
	p, dir := newTestProject(t, nil)
	require.NoError(t, os.Remove(filepath.Join(dir, "bower.json")))

	assert.NoError(t, Clean(context.Background(), p))
}

func TestLint(t *testing.T) {
	requireShell(t)
	p, dir := newTestProject(t, map[string]any{
		"lint.command": "echo %(name)s %(files)s > lint.out",
	})
	writeProjectFile(t, dir, "src/other file.js", "var a;")

	require.NoError(t, Lint(context.Background(), p))
	assert.Equal(t, "lib src/lib.js src/other file.js\n", readProjectFile(t, dir, "lint.out"))
}

func TestLintFailure(t *testing.T) {
	requireShell(t)
	p, _ := newTestProject(t, map[string]any{"lint.command": "exit 3"})

	err := Lint(context.Background(), p)
	assert.ErrorIs(t, err, &stamperrors.StampError{Type: stamperrors.ErrorTypeBuild, Code: stamperrors.ErrCodeCommandFailed})
}

func TestLintSkipped(t *testing.T) {
	p, _ := newTestProject(t, nil)
	assert.NoError(t, Lint(context.Background(), p))

	p, _ = newTestProject(t, map[string]any{
		"lint.command": "exit 1",
		"lint.files":   []string{"nothing/**/*.js"},
	})
	assert.NoError(t, Lint(context.Background(), p), "no matching files")
}

func TestMinifyPrependsBanner(t *testing.T) {
	requireShell(t)
	p, dir := newTestProject(t, map[string]any{
		"minify.command":  "tr -d '\\n' < %(input)s > %(output)s",
		"banner.template": "/* %(name)s %(version)s   \n * %(license)s\t\n */\n",
	})

	require.NoError(t, Minify(context.Background(), p))

	out := readProjectFile(t, dir, "dist/lib.min.js")
	assert.Equal(t, "/* lib 1.0.0\n * MIT\n */\n/* lib %(version)s */var VERSION = \"%(version)s\";", out)
}

func TestMinifyMissingOutput(t *testing.T) {
	requireShell(t)
	p, _ := newTestProject(t, map[string]any{"minify.command": "true %(output)s"})

	err := Minify(context.Background(), p)
	assert.ErrorIs(t, err, &stamperrors.StampError{Type: stamperrors.ErrorTypeIO, Code: stamperrors.ErrCodeReadFailed})
}

func TestBump(t *testing.T) {
	p, dir := newTestProject(t, map[string]any{"bump.level": "minor"})

	require.NoError(t, Bump(context.Background(), p))

	bower, err := metadata.Read(filepath.Join(dir, "bower.json"))
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", bower.Version())
	assert.Equal(t, []string{"name", "version", "license"}, bower.Keys())

	pkg, err := metadata.Read(filepath.Join(dir, "package.json"))
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", pkg.Version())

	banner, _, err := p.Banner()
	require.NoError(t, err)
	assert.Contains(t, banner, "lib 1.1.0")
}

func TestBumpMissingMirror(t *testing.T) {
	p, dir := newTestProject(t, nil)
	require.NoError(t, os.Remove(filepath.Join(dir, "package.json")))

	assert.Error(t, Bump(context.Background(), p))
}

func TestVersionCheck(t *testing.T) {
	p, dir := newTestProject(t, nil)
	require.NoError(t, Copy(context.Background(), p))

	require.NoError(t, VersionCheck(context.Background(), p))

	writeProjectFile(t, dir, "package.json", `{"name": "lib", "version": "0.9.0"}`)
	err := VersionCheck(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, &stamperrors.StampError{Type: stamperrors.ErrorTypeBuild, Code: stamperrors.ErrCodeVersionMismatch})
	assert.Contains(t, err.Error(), "task:versioncheck")
}

func TestVersionCheckLeftoverMarkers(t *testing.T) {
	p, dir := newTestProject(t, nil)
	writeProjectFile(t, dir, "dist/lib.js", "/* lib 1.0.0 */\nvar x = \"%(missing)s\";\n")

	assert.NoError(t, VersionCheck(context.Background(), p), "leftover markers only warn by default")

	p.Config.Substitution.Strict = true
	err := VersionCheck(context.Background(), p)
	require.Error(t, err)
	assert.ErrorIs(t, err, &stamperrors.StampError{Type: stamperrors.ErrorTypeBuild, Code: stamperrors.ErrCodeUnresolvedMarker})
	assert.Contains(t, err.Error(), "%(missing)s")
}

func TestSourcesWithoutPrimary(t *testing.T) {
	p, dir := newTestProject(t, nil)
	require.NoError(t, os.Remove(filepath.Join(dir, "bower.json")))

	_, _, err := p.Render("%(a)s")
	require.Error(t, err)

	p.OptionalPrimary = true
	text, recorder, err := p.Render("%(a)s %(name)s", map[string]any{"a": "1"})
	require.NoError(t, err)
	assert.Equal(t, "1 %(name)s", text)
	assert.Equal(t, 1, recorder.Len())
}

func TestSourcesOptionalPrimaryStillReportsBadMetadata(t *testing.T) {
	p, dir := newTestProject(t, nil)
	writeProjectFile(t, dir, "bower.json", "not json")
	p.OptionalPrimary = true

	_, _, err := p.Render("%(a)s")
	assert.Error(t, err)
}

func TestReleaseThenVersionCheck(t *testing.T) {
	requireShell(t)
	p, dir := newTestProject(t, map[string]any{
		"lint.command":   "true %(files)s",
		"minify.command": "cp %(input)s %(output)s",
	})
	writeProjectFile(t, dir, "dist/stale.js", "old")

	r := NewDefaultRunner(logging.Discard())
	require.NoError(t, r.Run(context.Background(), p, "release", "versioncheck"))

	_, err := os.Stat(filepath.Join(dir, "dist", "stale.js"))
	assert.True(t, os.IsNotExist(err), "clean ran")
	assert.True(t, strings.HasPrefix(readProjectFile(t, dir, "dist/lib.js"), "/* lib 1.0.1 */"))
	assert.Contains(t, readProjectFile(t, dir, "dist/lib.min.js"), "@license lib 1.0.1")
	assert.Equal(t, int64(6), r.Metrics().GetSnapshot().SuccessfulTasks)
}

func TestGlob(t *testing.T) {
	p, dir := newTestProject(t, nil)
	writeProjectFile(t, dir, "src/nested/a.js", "")
	writeProjectFile(t, dir, "src/b.css", "")

	files, err := p.Glob([]string{"src/**/*.js", "./src/lib.js"})
	require.NoError(t, err)
	assert.Equal(t, []string{"src/lib.js", "src/nested/a.js"}, files)
}

func TestShellQuote(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("POSIX quoting")
	}
	assert.Equal(t, "src/lib.js", shellQuote("src/lib.js"))
	assert.Equal(t, "'a b'", shellQuote("a b"))
	assert.Equal(t, `'it'\''s'`, shellQuote("it's"))
	assert.Equal(t, "''", shellQuote(""))
	assert.Equal(t, "a 'b c'", quoteAll([]string{"a", "b c"}))
}
