package metadata

import (
	"fmt"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
)

// Kind says how a version is read from an artifact.
type Kind int

const (
	// Header artifacts carry the version in their license banner.
	Header Kind = iota
	// Package artifacts are metadata JSON files with a "version" field.
	Package
)

// Entry is one artifact to verify.
type Entry struct {
	Path string
	Kind Kind
}

// Mismatch records an artifact whose version disagrees with the expected one.
type Mismatch struct {
	Path     string
	Found    string
	Expected string
}

func (m Mismatch) String() string {
	return fmt.Sprintf("%s has version %s, expected %s", m.Path, m.Found, m.Expected)
}

// Check reads the version of every entry and compares it against expected.
// Unreadable artifacts are reported in the returned error alongside
// mismatches; the error is nil only when every entry agrees.
func Check(expected string, entries []Entry) ([]Mismatch, error) {
	collector := stamperrors.NewErrorCollector()
	var mismatches []Mismatch

	for _, entry := range entries {
		found, err := versionOf(entry)
		if err != nil {
			collector.AddError(err)
			continue
		}
		if found != expected {
			m := Mismatch{Path: entry.Path, Found: found, Expected: expected}
			mismatches = append(mismatches, m)
			collector.Add(stamperrors.Problem{
				Task:     "versioncheck",
				File:     entry.Path,
				Message:  m.String(),
				Severity: stamperrors.ErrorSeverityError,
			})
		}
	}

	if !collector.HasErrors() {
		return nil, nil
	}
	return mismatches, stamperrors.Wrap(collector.Err(), stamperrors.ErrorTypeBuild,
		stamperrors.ErrCodeVersionMismatch, "version check failed").WithContext("mismatches", len(mismatches))
}

func versionOf(entry Entry) (string, error) {
	if entry.Kind == Header {
		return HeaderVersion(entry.Path)
	}
	f, err := Read(entry.Path)
	if err != nil {
		return "", err
	}
	if f.Version() == "" {
		return "", stamperrors.NewValidationError(stamperrors.ErrCodeVersionInvalid, "missing version field").WithFile(entry.Path)
	}
	return f.Version(), nil
}
