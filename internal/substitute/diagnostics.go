package substitute

import (
	"context"
	"fmt"
	"sync"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/conneroisu/stamp/internal/logging"
)

// Kind classifies an unresolved marker.
type Kind int

const (
	// KindBadSubstitution: the directive literal failed to parse or had no keys.
	KindBadSubstitution Kind = iota
	// KindUnknownHandler: the directive names a handler that is not registered.
	KindUnknownHandler
	// KindUnknownKey: no lookup source resolves the dotted path.
	KindUnknownKey
)

// String returns the string representation of the Kind
func (k Kind) String() string {
	switch k {
	case KindBadSubstitution:
		return "bad_substitution"
	case KindUnknownHandler:
		return "unknown_handler"
	case KindUnknownKey:
		return "unknown_key"
	default:
		return "unknown"
	}
}

// Diagnostic describes one marker that was left unresolved.
type Diagnostic struct {
	Kind Kind
	// Expr is the marker expression, or the handler name for KindUnknownHandler.
	Expr    string
	Message string
	Cause   error
}

// Sink receives reports about markers that could not be resolved.
type Sink interface {
	BadSubstitution(expr string, cause error)
	UnknownHandler(name string)
	UnknownKey(expr string)
}

func badSubstitutionMessage(expr string) string {
	return "bad substitution: %(" + expr + ")s"
}

func unknownHandlerMessage(name string) string {
	return "unknown substitution handler: " + name
}

func unknownKeyMessage(expr string) string {
	return "unknown key: " + expr
}

// LogSink reports unresolved markers through a structured logger at error
// level.
type LogSink struct {
	logger logging.Logger
}

// NewLogSink creates a sink that logs through logger. A nil logger logs to
// stderr with the default configuration.
func NewLogSink(logger logging.Logger) *LogSink {
	if logger == nil {
		logger = logging.NewLogger(logging.DefaultConfig())
	}
	return &LogSink{logger: logger.WithComponent("substitute")}
}

func (s *LogSink) BadSubstitution(expr string, cause error) {
	s.logger.Error(context.Background(), cause, badSubstitutionMessage(expr), "kind", KindBadSubstitution.String())
}

func (s *LogSink) UnknownHandler(name string) {
	s.logger.Error(context.Background(), nil, unknownHandlerMessage(name), "kind", KindUnknownHandler.String())
}

func (s *LogSink) UnknownKey(expr string) {
	s.logger.Error(context.Background(), nil, unknownKeyMessage(expr), "kind", KindUnknownKey.String())
}

// Recorder collects diagnostics in memory. Safe for concurrent use.
type Recorder struct {
	diagnostics []Diagnostic
	mutex       sync.Mutex
}

// NewRecorder creates an empty Recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) add(d Diagnostic) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.diagnostics = append(r.diagnostics, d)
}

func (r *Recorder) BadSubstitution(expr string, cause error) {
	r.add(Diagnostic{Kind: KindBadSubstitution, Expr: expr, Message: badSubstitutionMessage(expr), Cause: cause})
}

func (r *Recorder) UnknownHandler(name string) {
	r.add(Diagnostic{Kind: KindUnknownHandler, Expr: name, Message: unknownHandlerMessage(name)})
}

func (r *Recorder) UnknownKey(expr string) {
	r.add(Diagnostic{Kind: KindUnknownKey, Expr: expr, Message: unknownKeyMessage(expr)})
}

// Diagnostics returns a copy of everything recorded so far.
func (r *Recorder) Diagnostics() []Diagnostic {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	out := make([]Diagnostic, len(r.diagnostics))
	copy(out, r.diagnostics)
	return out
}

// Len returns the number of recorded diagnostics.
func (r *Recorder) Len() int {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	return len(r.diagnostics)
}

// Reset drops all recorded diagnostics.
func (r *Recorder) Reset() {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	r.diagnostics = nil
}

// Err returns a validation error summarizing the recorded diagnostics, or
// nil when nothing was recorded.
func (r *Recorder) Err() error {
	diags := r.Diagnostics()
	if len(diags) == 0 {
		return nil
	}

	messages := make([]string, len(diags))
	for i, d := range diags {
		messages[i] = d.Message
	}

	return stamperrors.NewValidationError(
		stamperrors.ErrCodeUnresolvedMarker,
		fmt.Sprintf("%d unresolved marker(s)", len(diags)),
	).WithContext("diagnostics", messages)
}

// MultiSink fans every report out to each of its sinks.
type MultiSink []Sink

func (m MultiSink) BadSubstitution(expr string, cause error) {
	for _, s := range m {
		s.BadSubstitution(expr, cause)
	}
}

func (m MultiSink) UnknownHandler(name string) {
	for _, s := range m {
		s.UnknownHandler(name)
	}
}

func (m MultiSink) UnknownKey(expr string) {
	for _, s := range m {
		s.UnknownKey(expr)
	}
}
