package metadata

import (
	"os"
	"path/filepath"
	"testing"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/conneroisu/stamp/internal/substitute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const bower = `{
  "name": "audiostreamsource",
  "version": "0.0.7",
  "main": "src/audiostreamsource.js",
  "license": "MIT",
  "description": "Streams audio from a URL"
}
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReadAndSource(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bower.json", bower)

	f, err := Read(path)
	require.NoError(t, err)

	assert.Equal(t, path, f.Path)
	assert.Equal(t, "0.0.7", f.Version())
	assert.Equal(t, []string{"name", "version", "main", "license", "description"}, f.Keys())

	engine := substitute.New(nil, substitute.WithSink(substitute.NewRecorder()))
	assert.Equal(t, "audiostreamsource@0.0.7 (MIT)", engine.Substitute("%(name)s@%(version)s (%(license)s)", f.Source()))
}

func TestRoundTripPreservesKeyOrder(t *testing.T) {
	f, err := Parse([]byte(bower))
	require.NoError(t, err)

	out, err := f.Marshal()
	require.NoError(t, err)
	assert.Equal(t, bower, string(out))
}

func TestMarshalKeepsHTMLCharacters(t *testing.T) {
	f, err := Parse([]byte(`{"name":"lib <x> & y","version":"1.0.0","repository":{"url":"http://a?b=1&c=<2>"},"keywords":["a&b"]}`))
	require.NoError(t, err)
	f.SetVersion("1.0.1")

	out, err := f.Marshal()
	require.NoError(t, err)

	expected := `{
  "name": "lib <x> & y",
  "version": "1.0.1",
  "repository": {
    "url": "http://a?b=1&c=<2>"
  },
  "keywords": [
    "a&b"
  ]
}
`
	assert.Equal(t, expected, string(out))
	assert.NotContains(t, string(out), `\u00`)
}

func TestMarshalEmptyObject(t *testing.T) {
	f, err := Parse([]byte(`{}`))
	require.NoError(t, err)

	out, err := f.Marshal()
	require.NoError(t, err)
	assert.Equal(t, "{}\n", string(out))
}

func TestSetVersion(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bower.json", bower)
	f, err := Read(path)
	require.NoError(t, err)

	f.SetVersion("0.0.8")
	require.NoError(t, f.Write())

	again, err := Read(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.8", again.Version())
	assert.Equal(t, f.Keys(), again.Keys(), "version stays in place")
}

func TestSetVersionAppendsWhenMissing(t *testing.T) {
	f, err := Parse([]byte(`{"name": "x"}`))
	require.NoError(t, err)

	assert.Equal(t, "", f.Version())
	f.SetVersion("1.0.0")
	assert.Equal(t, []string{"name", "version"}, f.Keys())
}

func TestReadErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := Read(filepath.Join(dir, "missing.json"))
	assert.ErrorIs(t, err, &stamperrors.StampError{Type: stamperrors.ErrorTypeIO, Code: stamperrors.ErrCodeFileNotFound})

	_, err = Read(writeFile(t, dir, "list.json", `["a"]`))
	assert.ErrorIs(t, err, &stamperrors.StampError{Type: stamperrors.ErrorTypeIO, Code: stamperrors.ErrCodeDecodeFailed})

	_, err = Read(writeFile(t, dir, "broken.json", `{"a":`))
	assert.Error(t, err)
}

func TestBump(t *testing.T) {
	tests := []struct {
		version  string
		level    Level
		expected string
	}{
		{"0.0.7", LevelPatch, "0.0.8"},
		{"0.0.7", LevelMinor, "0.1.0"},
		{"0.9.7", LevelMajor, "1.0.0"},
		{"v1.2.3", LevelPatch, "1.2.4"},
		{"1.2.3-beta.1", LevelPatch, "1.2.4"},
		{"1.2.3", "", "1.2.4"},
	}
	for _, tt := range tests {
		t.Run(tt.version+"/"+string(tt.level), func(t *testing.T) {
			got, err := Bump(tt.version, tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}

	_, err := Bump("not-a-version", LevelPatch)
	assert.ErrorIs(t, err, &stamperrors.StampError{Type: stamperrors.ErrorTypeValidation, Code: stamperrors.ErrCodeVersionInvalid})

	_, err = Bump("1.0.0", Level("huge"))
	assert.Error(t, err)
}

func TestParseLevel(t *testing.T) {
	for in, want := range map[string]Level{"": LevelPatch, "patch": LevelPatch, "Minor": LevelMinor, " major ": LevelMajor} {
		got, err := ParseLevel(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseLevel("prerelease")
	assert.Error(t, err)
}

func TestHeaderVersion(t *testing.T) {
	dir := t.TempDir()

	path := writeFile(t, dir, "lib.min.js", "/* audiostreamsource 0.0.7 (c) 2015 Gregg Tavares, MIT */\nvar a=1;\n")
	v, err := HeaderVersion(path)
	require.NoError(t, err)
	assert.Equal(t, "0.0.7", v)

	_, err = HeaderVersion(writeFile(t, dir, "plain.js", "var a=1.2.3;\n"))
	assert.Error(t, err)

	_, err = HeaderVersion(filepath.Join(dir, "missing.js"))
	assert.Error(t, err)
}

func TestCheck(t *testing.T) {
	dir := t.TempDir()
	header := writeFile(t, dir, "lib.js", "/* lib 1.0.0 */\n")
	pkg := writeFile(t, dir, "package.json", `{"name":"lib","version":"1.0.0"}`)
	stale := writeFile(t, dir, "stale.json", `{"name":"lib","version":"0.9.0"}`)

	t.Run("all agree", func(t *testing.T) {
		mismatches, err := Check("1.0.0", []Entry{{Path: header, Kind: Header}, {Path: pkg, Kind: Package}})
		require.NoError(t, err)
		assert.Empty(t, mismatches)
	})

	t.Run("mismatch", func(t *testing.T) {
		mismatches, err := Check("1.0.0", []Entry{{Path: header, Kind: Header}, {Path: stale, Kind: Package}})
		require.Error(t, err)
		assert.True(t, stamperrors.IsType(err, stamperrors.ErrorTypeBuild))
		require.Len(t, mismatches, 1)
		assert.Equal(t, Mismatch{Path: stale, Found: "0.9.0", Expected: "1.0.0"}, mismatches[0])
		assert.Contains(t, err.Error(), "stale.json has version 0.9.0, expected 1.0.0")
	})

	t.Run("unreadable artifact", func(t *testing.T) {
		mismatches, err := Check("1.0.0", []Entry{{Path: filepath.Join(dir, "gone.js"), Kind: Header}})
		require.Error(t, err)
		assert.Empty(t, mismatches)
	})

	t.Run("missing version field", func(t *testing.T) {
		noVersion := writeFile(t, dir, "noversion.json", `{"name":"lib"}`)
		_, err := Check("1.0.0", []Entry{{Path: noVersion, Kind: Package}})
		assert.Error(t, err)
	})
}
