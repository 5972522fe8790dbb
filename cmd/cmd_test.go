package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conneroisu/stamp/internal/build"
	"github.com/conneroisu/stamp/internal/logging"
	"github.com/conneroisu/stamp/internal/watcher"
)

// useProject points the global viper at a temporary project and restores
// the render flags afterwards.
func useProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bower.json"),
		[]byte("{\n  \"name\": \"lib\",\n  \"version\": \"1.0.0\",\n  \"license\": \"MIT\"\n}\n"), 0o644))

	viper.Reset()
	viper.Set("project_dir", dir)
	viper.Set("log-level", "error")

	t.Cleanup(func() {
		viper.Reset()
		renderSources, renderSet, renderEnv, renderStrict, renderOutput = nil, nil, false, false, ""
	})
	return dir
}

func newTestCommand(stdin string) (*cobra.Command, *bytes.Buffer) {
	cmd := &cobra.Command{}
	out := &bytes.Buffer{}
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(out)
	cmd.SetContext(context.Background())
	return cmd, out
}

func TestValidateOutputFormat(t *testing.T) {
	tests := []struct {
		format  string
		wantErr bool
	}{
		{"text", false},
		{"json", false},
		{"yaml", false},
		{"xml", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			err := ValidateOutputFormat(tt.format)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateBumpLevel(t *testing.T) {
	assert.NoError(t, ValidateBumpLevel("major"))
	assert.NoError(t, ValidateBumpLevel("minor"))
	assert.NoError(t, ValidateBumpLevel("patch"))
	assert.Error(t, ValidateBumpLevel("huge"))
}

func TestAddStandardFlagsValidates(t *testing.T) {
	cmd := &cobra.Command{Use: "test"}
	flags := AddStandardFlags(cmd, "output", "bump")

	require.NoError(t, cmd.Flags().Set("format", "json"))
	assert.Equal(t, "json", flags.OutputFormat)
	assert.Error(t, cmd.Flags().Set("format", "xml"))
	assert.Equal(t, "json", flags.OutputFormat)

	require.NoError(t, cmd.Flags().Set("level", "minor"))
	assert.Equal(t, "minor", flags.Level)
	assert.Error(t, cmd.Flags().Set("level", "huge"))
}

func TestSetViperBindings(t *testing.T) {
	t.Cleanup(viper.Reset)

	cmd := &cobra.Command{Use: "test"}
	AddStandardFlags(cmd, "bump")
	require.NoError(t, SetViperBindings(cmd, map[string]string{"level": "bump.level"}))
	require.NoError(t, cmd.Flags().Set("level", "major"))
	assert.Equal(t, "major", viper.GetString("bump.level"))

	assert.Error(t, SetViperBindings(cmd, map[string]string{"missing": "x"}))
}

func TestListTasks(t *testing.T) {
	tasks := build.NewDefaultRunner(logging.Discard()).Tasks()

	t.Run("text", func(t *testing.T) {
		cmd, out := newTestCommand("")
		require.NoError(t, listTasks(cmd, tasks, "text"))
		assert.Contains(t, out.String(), "release        -> bump, build")
		assert.Contains(t, out.String(), "clean          Remove the dist directory")
	})

	t.Run("json", func(t *testing.T) {
		cmd, out := newTestCommand("")
		require.NoError(t, listTasks(cmd, tasks, "json"))

		var decoded []build.TaskInfo
		require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
		assert.Equal(t, tasks, decoded)
	})

	t.Run("yaml", func(t *testing.T) {
		cmd, out := newTestCommand("")
		require.NoError(t, listTasks(cmd, tasks, "yaml"))
		assert.Contains(t, out.String(), "name: versioncheck")
	})
}

func TestHandlerInfos(t *testing.T) {
	cmd, out := newTestCommand("")
	saved := handlersFlags
	handlersFlags = &StandardFlags{OutputFormat: "json"}
	t.Cleanup(func() { handlersFlags = saved })

	require.NoError(t, runHandlers(cmd, nil))

	var infos []HandlerInfo
	require.NoError(t, json.Unmarshal(out.Bytes(), &infos))
	require.Len(t, infos, 6)
	assert.Equal(t, "date", infos[0].Name)
	assert.Equal(t, `%(date:"2006")s`, infos[0].Example)
	for _, info := range infos {
		assert.NotEmpty(t, info.Description, info.Name)
	}
}

func TestRenderFromStdin(t *testing.T) {
	useProject(t)
	renderSet = []string{"channel=beta", "build.number=7"}

	cmd, out := newTestCommand("%(name)s@%(version)s %(channel)s #%(build.number)s %(upper:\"x\")s")
	require.NoError(t, runRender(cmd, nil))
	assert.Equal(t, "lib@1.0.0 beta #7 X", out.String())
}

func TestRenderSetOverridesMetadata(t *testing.T) {
	useProject(t)
	renderSet = []string{"version=9.9.9"}

	cmd, out := newTestCommand("%(version)s")
	require.NoError(t, runRender(cmd, []string{"-"}))
	assert.Equal(t, "9.9.9", out.String())
}

func TestRenderFileToOutput(t *testing.T) {
	dir := useProject(t)
	tmpl := filepath.Join(dir, "NOTICE.tmpl")
	require.NoError(t, os.WriteFile(tmpl, []byte("%(name)s is %(license)s licensed\n"), 0o644))
	extra := filepath.Join(dir, "extra.toml")
	require.NoError(t, os.WriteFile(extra, []byte("license = \"ISC\"\n"), 0o644))

	renderSources = []string{extra}
	renderOutput = filepath.Join(dir, "out", "NOTICE")

	cmd, out := newTestCommand("")
	require.NoError(t, runRender(cmd, []string{tmpl}))
	assert.Empty(t, out.String())

	data, err := os.ReadFile(renderOutput)
	require.NoError(t, err)
	assert.Equal(t, "lib is ISC licensed\n", string(data))
}

func TestRenderStrict(t *testing.T) {
	useProject(t)

	cmd, out := newTestCommand("%(name)s %(missing)s")
	require.NoError(t, runRender(cmd, nil))
	assert.Equal(t, "lib %(missing)s", out.String())

	renderStrict = true
	cmd, out = newTestCommand("%(name)s %(missing)s")
	err := runRender(cmd, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unresolved")
	assert.Equal(t, "lib %(missing)s", out.String(), "output is written before failing")
}

func TestRenderWithoutPrimaryMetadata(t *testing.T) {
	dir := useProject(t)
	require.NoError(t, os.Remove(filepath.Join(dir, "bower.json")))
	renderSet = []string{"a=1"}

	cmd, out := newTestCommand("%(a)s %(name)s")
	require.NoError(t, runRender(cmd, nil))
	assert.Equal(t, "1 %(name)s", out.String())
}

func TestRenderBadPair(t *testing.T) {
	useProject(t)
	renderSet = []string{"novalue"}

	cmd, _ := newTestCommand("x")
	assert.Error(t, runRender(cmd, nil))
}

func TestReadTemplateMissingFile(t *testing.T) {
	_, err := readTemplate(strings.NewReader(""), []string{filepath.Join(t.TempDir(), "nope")})
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	saved := versionFlags
	t.Cleanup(func() {
		versionFlags = saved
		versionShort, versionDetailed = false, false
	})

	versionFlags = &StandardFlags{OutputFormat: "text"}
	cmd, out := newTestCommand("")
	require.NoError(t, runVersionCommand(cmd, nil))
	assert.True(t, strings.HasPrefix(out.String(), "stamp "))
	assert.Contains(t, out.String(), "Platform: ")

	versionDetailed = true
	cmd, out = newTestCommand("")
	require.NoError(t, runVersionCommand(cmd, nil))
	assert.Contains(t, out.String(), "Build type: ")

	versionFlags = &StandardFlags{OutputFormat: "json"}
	cmd, out = newTestCommand("")
	require.NoError(t, runVersionCommand(cmd, nil))
	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &decoded))
	assert.Contains(t, decoded, "go_version")
}

func TestAddWatchPath(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "src", "nested"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bower.json"), []byte("{}"), 0o644))

	fw, err := watcher.NewFileWatcher(dir, 10*time.Millisecond, logging.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { _ = fw.Stop() })

	assert.NoError(t, addWatchPath(fw, dir, "src"))
	assert.NoError(t, addWatchPath(fw, dir, "bower.json"))
	assert.Error(t, addWatchPath(fw, dir, "missing"))
	assert.Error(t, addWatchPath(fw, dir, ".."), "paths outside the project are rejected")
}

func TestNewLoggerRejectsUnknownFormat(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("log-format", "xml")
	_, err := newLogger()
	assert.Error(t, err)

	viper.Set("log-format", "json")
	viper.Set("log-level", "loud")
	_, err = newLogger()
	assert.Error(t, err)
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"build", "release", "run", "lint", "clean", "copy", "minify", "bump", "versioncheck", "render", "handlers", "watch", "version"} {
		found, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, found.Name())
	}
}
