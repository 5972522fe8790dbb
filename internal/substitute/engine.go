package substitute

import (
	"fmt"
	"regexp"
	"strings"
)

var markerPattern = regexp.MustCompile(`%\(([^)]+)\)s`)

// Engine resolves markers in templates against lookup sources and the
// handlers of its Registry.
type Engine struct {
	registry *Registry
	sink     Sink
}

// Option configures an Engine.
type Option func(*Engine)

// WithSink sets where unresolved markers are reported. The default logs
// them to stderr.
func WithSink(sink Sink) Option {
	return func(e *Engine) {
		if sink != nil {
			e.sink = sink
		}
	}
}

// New creates an engine backed by registry. A nil registry means no
// directives can resolve.
func New(registry *Registry, opts ...Option) *Engine {
	if registry == nil {
		registry = NewRegistry()
	}
	e := &Engine{registry: registry}
	for _, opt := range opts {
		opt(e)
	}
	if e.sink == nil {
		e.sink = NewLogSink(nil)
	}
	return e
}

// Registry returns the handler registry the engine reads from.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Substitute returns template with every marker resolved. Sources are
// consulted in order for dotted paths; the first source that resolves a
// path wins. Markers that cannot be resolved are kept verbatim and
// reported to the sink.
func (e *Engine) Substitute(template string, sources ...Source) string {
	if !strings.Contains(template, "%(") {
		return template
	}

	return markerPattern.ReplaceAllStringFunc(template, func(marker string) string {
		expr := marker[2 : len(marker)-2]
		if text, ok := e.resolveMarker(expr, sources); ok {
			return text
		}
		return marker
	})
}

func (e *Engine) resolveMarker(expr string, sources []Source) (string, bool) {
	if strings.Contains(expr, ":") {
		return e.resolveDirective(expr)
	}

	value, ok := resolve(keyPath(expr), sources)
	if !ok {
		e.sink.UnknownKey(expr)
		return "", false
	}
	return Text(value), true
}

func (e *Engine) resolveDirective(expr string) (string, bool) {
	d, err := parseDirective(expr)
	if err != nil {
		e.sink.BadSubstitution(expr, err)
		return "", false
	}

	handler, ok := e.registry.Lookup(d.name)
	if !ok {
		e.sink.UnknownHandler(d.name)
		return "", false
	}

	text, err := callHandler(handler, d.arg)
	if err != nil {
		e.sink.BadSubstitution(expr, err)
		return "", false
	}
	return text, true
}

func callHandler(handler Handler, arg any) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panicked: %v", r)
		}
	}()
	return handler(arg), nil
}

// Substitute resolves template against sources with an engine that has no
// handlers and logs unresolved markers to stderr.
func Substitute(template string, sources ...Source) string {
	return New(nil).Substitute(template, sources...)
}

// FindMarkers returns every marker in text, in order of appearance.
func FindMarkers(text string) []string {
	return markerPattern.FindAllString(text, -1)
}
