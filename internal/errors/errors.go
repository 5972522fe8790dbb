package errors

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

// Problem is a file-scoped finding reported by a build task, such as a
// version mismatch or an unresolved marker left in an artifact.
type Problem struct {
	Task      string
	File      string
	Message   string
	Severity  ErrorSeverity
	Timestamp time.Time
}

// ErrorSeverity represents the severity of an error
type ErrorSeverity int

const (
	ErrorSeverityInfo ErrorSeverity = iota
	ErrorSeverityWarning
	ErrorSeverityError
)

// String returns the string representation of the severity
func (s ErrorSeverity) String() string {
	switch s {
	case ErrorSeverityInfo:
		return "info"
	case ErrorSeverityWarning:
		return "warning"
	case ErrorSeverityError:
		return "error"
	default:
		return "unknown"
	}
}

// Error implements the error interface
func (p *Problem) Error() string {
	if p.File == "" {
		return fmt.Sprintf("%s: %s", p.Severity, p.Message)
	}
	return fmt.Sprintf("%s: %s: %s", p.File, p.Severity, p.Message)
}

// ErrorCollector collects problems and general errors. Safe for concurrent use.
type ErrorCollector struct {
	problems []Problem
	errors   []error
	mutex    sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		problems: make([]Problem, 0),
		errors:   make([]error, 0),
	}
}

// Add adds a problem to the collector
func (ec *ErrorCollector) Add(p Problem) {
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	p.Timestamp = time.Now()
	ec.problems = append(ec.problems, p)
}

// AddError adds a general error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// Problems returns a copy of all collected problems
func (ec *ErrorCollector) Problems() []Problem {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]Problem, len(ec.problems))
	copy(result, ec.problems)
	return result
}

// HasErrors reports whether any error, or any problem of error severity, was
// collected.
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	if len(ec.errors) > 0 {
		return true
	}
	for _, p := range ec.problems {
		if p.Severity >= ErrorSeverityError {
			return true
		}
	}
	return false
}

// ProblemsByFile returns problems for a specific file
func (ec *ErrorCollector) ProblemsByFile(file string) []Problem {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	var fileProblems []Problem
	for _, p := range ec.problems {
		if p.File == file {
			fileProblems = append(fileProblems, p)
		}
	}
	return fileProblems
}

// Err joins every error-severity problem and general error into one error,
// or returns nil when there is nothing to report.
func (ec *ErrorCollector) Err() error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	all := make([]error, 0, len(ec.problems)+len(ec.errors))
	for i := range ec.problems {
		if ec.problems[i].Severity >= ErrorSeverityError {
			p := ec.problems[i]
			all = append(all, &p)
		}
	}
	all = append(all, ec.errors...)

	return errors.Join(all...)
}
