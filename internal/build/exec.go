package build

import (
	"context"
	"os/exec"
	"regexp"
	"runtime"
	"strings"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
)

// shellCommand wraps command in the platform shell.
func shellCommand(ctx context.Context, command string) *exec.Cmd {
	if runtime.GOOS == "windows" {
		return exec.CommandContext(ctx, "cmd", "/C", command)
	}
	return exec.CommandContext(ctx, "sh", "-c", command)
}

// runCommand runs a rendered command in the project directory, copying its
// combined output to the project output.
func (p *Project) runCommand(ctx context.Context, task, command string) error {
	cmd := shellCommand(ctx, command)
	cmd.Dir = p.Config.ProjectDir

	p.Logger.Debug(ctx, "Running command", "task", task, "command", command)
	output, err := cmd.CombinedOutput()
	if len(output) > 0 && p.Output != nil {
		_, _ = p.Output.Write(output)
	}
	if err != nil {
		// Check if error is due to context cancellation
		if ctx.Err() != nil {
			return stamperrors.NewBuildError(stamperrors.ErrCodeCommandFailed, "command cancelled", ctx.Err()).WithTask(task)
		}
		return stamperrors.NewBuildError(stamperrors.ErrCodeCommandFailed, "command failed", err).
			WithTask(task).
			WithContext("command", command).
			WithContext("output", string(output))
	}
	return nil
}

var shellSafe = regexp.MustCompile(`^[A-Za-z0-9_./:@%+=,-]+$`)

// shellQuote quotes s for the platform shell when it contains anything
// beyond plain path characters.
func shellQuote(s string) string {
	if s != "" && shellSafe.MatchString(s) {
		return s
	}
	if runtime.GOOS == "windows" {
		return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
	}
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func quoteAll(args []string) string {
	quoted := make([]string, len(args))
	for i, a := range args {
		quoted[i] = shellQuote(a)
	}
	return strings.Join(quoted, " ")
}
