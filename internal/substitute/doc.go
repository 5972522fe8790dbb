// Package substitute implements the %(key)s template substitution engine
// used to stamp version and license information into build artifacts.
//
// # Markers
//
// A marker is the text %( expression )s, where the expression is one or
// more characters other than ')'. Markers never overlap and are resolved
// independently, left to right, in a single pass.
//
// An expression without a colon is a dotted key path such as
// "user.country". The path is walked from each lookup source in turn and
// the first source that resolves every segment wins:
//
//	engine.Substitute("Hello %(user.country)s",
//		substitute.Source{"user": map[string]any{"country": "USA"}})
//	// "Hello USA"
//
// Every segment is a mapping key. Arrays are not indexed, so
// "keywords.0" is an unknown key even when keywords is a list.
//
// An expression containing a colon is a directive. The expression is read
// as the body of an object literal whose first key names a registered
// Handler and whose first value is the handler's argument:
//
//	registry.Register("ver", func(arg any) string { return fmt.Sprint(arg) })
//	engine.Substitute(`%(ver:"1.0.0")s`) // "1.0.0"
//
// Keys may be bare identifiers or quoted strings. A bare handler name may
// be any identifier, including words such as "in" or "not". Values may be
// string, number, boolean or null (or nil) literals, or arrays and objects
// built from them.
// Nothing in a directive is evaluated.
//
// # Failure handling
//
// Substitute never fails. A marker that cannot be resolved is copied to the
// output unchanged and reported to the engine's Sink, so a broken template
// produces visibly broken output instead of a crash or silently missing
// text. The three reports are BadSubstitution (the directive literal did
// not parse or had no keys), UnknownHandler and UnknownKey.
//
// # Concurrency
//
// An Engine is safe for concurrent use. The Registry guards its handlers
// with a read/write lock, so handlers may be registered while other
// goroutines substitute; a substitution sees each handler either before
// or after a concurrent replacement.
package substitute
