package substitute

import (
	"strings"

	"github.com/ohler55/ojg/jp"
	"github.com/ohler55/ojg/oj"
	"github.com/spf13/cast"
)

// Source is one lookup source: a JSON-like tree of maps, slices and
// scalars. Nested mappings must be map[string]any to be walked.
type Source map[string]any

var jsonOptions = func() oj.Options {
	opts := oj.DefaultOptions
	opts.Sort = true
	return opts
}()

// keyPath builds the child-by-child path for a dotted expression. Every
// segment is a literal key, so names containing JSONPath syntax are safe.
func keyPath(expr string) jp.Expr {
	path := jp.R()
	for _, segment := range strings.Split(expr, ".") {
		path = path.C(segment)
	}
	return path
}

// resolve returns the value at path in the first source that has it.
func resolve(path jp.Expr, sources []Source) (any, bool) {
	for _, src := range sources {
		if src == nil {
			continue
		}
		if got := path.Get(map[string]any(src)); len(got) > 0 {
			return got[0], true
		}
	}
	return nil, false
}

// Text converts a resolved value into replacement text: strings verbatim,
// numbers in their shortest form, booleans as true/false, nil as null and
// composite values as compact JSON with sorted keys.
func Text(v any) string {
	switch tv := v.(type) {
	case nil:
		return "null"
	case string:
		return tv
	case Source:
		return oj.JSON(map[string]any(tv), &jsonOptions)
	case map[string]any, []any:
		return oj.JSON(tv, &jsonOptions)
	}
	if s, err := cast.ToStringE(v); err == nil {
		return s
	}
	return oj.JSON(v, &jsonOptions)
}
