//go:build property
// +build property

package substitute

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestSubstitutionProperties checks the engine's structural guarantees over
// generated templates and sources.
func TestSubstitutionProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: text without markers comes back unchanged
	properties.Property("marker-free text is identity", prop.ForAll(
		func(text string) bool {
			if strings.Contains(text, "%(") {
				return true
			}
			engine := New(NewRegistry(), WithSink(NewRecorder()))
			return engine.Substitute(text, Source{"a": 1}) == text
		},
		gen.AnyString(),
	))

	// Property: the first source that defines a key wins
	properties.Property("earlier sources take precedence", prop.ForAll(
		func(key, first, second string) bool {
			engine := New(NewRegistry(), WithSink(NewRecorder()))
			out := engine.Substitute("%("+key+")s", Source{key: first}, Source{key: second})
			return out == first
		},
		gen.Identifier(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	// Property: a key missing from every source leaves the marker and one diagnostic
	properties.Property("unknown keys are preserved", prop.ForAll(
		func(key string) bool {
			recorder := NewRecorder()
			engine := New(NewRegistry(), WithSink(recorder))
			marker := "%(" + key + ")s"
			return engine.Substitute(marker, Source{}) == marker && recorder.Len() == 1
		},
		gen.Identifier(),
	))

	// Property: substituting resolved output again changes nothing
	properties.Property("resolved output is a fixed point", prop.ForAll(
		func(prefix, value, suffix string) bool {
			engine := New(NewRegistry(), WithSink(NewRecorder()))
			src := Source{"v": value}
			once := engine.Substitute(prefix+"%(v)s"+suffix, src)
			return engine.Substitute(once, src) == once
		},
		gen.AlphaString(),
		gen.AlphaString(),
		gen.AlphaString(),
	))

	// Property: directive string arguments reach the handler unchanged
	properties.Property("string directive arguments round trip", prop.ForAll(
		func(arg string) bool {
			registry := NewRegistry()
			registry.Register("echo", func(v any) string { s, _ := v.(string); return s })
			engine := New(registry, WithSink(NewRecorder()))
			return engine.Substitute(`%(echo:"`+arg+`")s`) == arg
		},
		gen.AlphaString(),
	))

	properties.TestingRun(t)
}
