package metadata

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/coreos/go-semver/semver"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
)

// Level selects which part of a semantic version Bump increments.
type Level string

const (
	LevelMajor Level = "major"
	LevelMinor Level = "minor"
	LevelPatch Level = "patch"
)

// ParseLevel validates a bump level name. Empty means patch.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(strings.TrimSpace(s))) {
	case "", LevelPatch:
		return LevelPatch, nil
	case LevelMinor:
		return LevelMinor, nil
	case LevelMajor:
		return LevelMajor, nil
	default:
		return "", stamperrors.NewValidationError(
			stamperrors.ErrCodeVersionInvalid,
			fmt.Sprintf("unknown bump level %q (expected major, minor or patch)", s),
		)
	}
}

// Bump returns version incremented at level. Pre-release and build
// metadata are dropped, matching a plain release bump.
func Bump(version string, level Level) (string, error) {
	v, err := semver.NewVersion(strings.TrimPrefix(strings.TrimSpace(version), "v"))
	if err != nil {
		return "", stamperrors.Wrap(err, stamperrors.ErrorTypeValidation, stamperrors.ErrCodeVersionInvalid,
			fmt.Sprintf("invalid version %q", version))
	}

	switch level {
	case LevelMajor:
		v.BumpMajor()
	case LevelMinor:
		v.BumpMinor()
	case LevelPatch, "":
		v.BumpPatch()
	default:
		return "", stamperrors.NewValidationError(stamperrors.ErrCodeVersionInvalid, "unknown bump level "+string(level))
	}
	v.PreRelease = ""
	v.Metadata = ""
	return v.String(), nil
}

var headerVersionPattern = regexp.MustCompile(` (\d+\.\d+\.\d+) `)

// HeaderVersion returns the first space-delimited X.Y.Z token in the file,
// which is where the license banner carries the version.
func HeaderVersion(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", stamperrors.NewIOError(stamperrors.ErrCodeReadFailed, "cannot read artifact", err).WithFile(path)
	}
	m := headerVersionPattern.FindSubmatch(data)
	if m == nil {
		return "", stamperrors.NewValidationError(stamperrors.ErrCodeVersionInvalid, "no version found in header").WithFile(path)
	}
	return string(m[1]), nil
}
