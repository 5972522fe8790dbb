// Package sources loads lookup sources for the substitution engine from
// metadata files and the process environment.
package sources

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/ohler55/ojg/oj"
	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/conneroisu/stamp/internal/substitute"
)

// Decoder turns file contents into a lookup source.
type Decoder func(data []byte) (substitute.Source, error)

var decoders = map[string]Decoder{
	".json": DecodeJSON,
	".yml":  DecodeYAML,
	".yaml": DecodeYAML,
	".toml": DecodeTOML,
	".env":  DecodeDotEnv,
}

// Extensions returns the file extensions Load understands.
func Extensions() []string {
	return []string{".env", ".json", ".toml", ".yaml", ".yml"}
}

func decoderFor(path string) (Decoder, bool) {
	base := filepath.Base(path)
	if base == ".env" || strings.HasPrefix(base, ".env.") {
		return DecodeDotEnv, true
	}
	d, ok := decoders[strings.ToLower(filepath.Ext(path))]
	return d, ok
}

// Load reads path and decodes it according to its extension.
func Load(path string) (substitute.Source, error) {
	decode, ok := decoderFor(path)
	if !ok {
		return nil, stamperrors.NewConfigError(
			stamperrors.ErrCodeUnsupportedFile,
			fmt.Sprintf("unsupported source type %q (supported: %s)", filepath.Ext(path), strings.Join(Extensions(), ", ")),
		).WithFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		code := stamperrors.ErrCodeReadFailed
		if os.IsNotExist(err) {
			code = stamperrors.ErrCodeFileNotFound
		}
		return nil, stamperrors.NewIOError(code, "cannot read source", err).WithFile(path)
	}

	src, err := decode(data)
	if err != nil {
		return nil, stamperrors.NewIOError(stamperrors.ErrCodeDecodeFailed, "cannot decode source", err).WithFile(path)
	}
	return src, nil
}

// LoadAll loads every path in order, producing a source chain.
func LoadAll(paths ...string) ([]substitute.Source, error) {
	chain := make([]substitute.Source, 0, len(paths))
	for _, path := range paths {
		src, err := Load(path)
		if err != nil {
			return nil, err
		}
		chain = append(chain, src)
	}
	return chain, nil
}

// DecodeJSON decodes a JSON object.
func DecodeJSON(data []byte) (substitute.Source, error) {
	v, err := oj.Parse(data)
	if err != nil {
		return nil, err
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("top level is %T, want an object", v)
	}
	return substitute.Source(obj), nil
}

// DecodeYAML decodes a YAML mapping.
func DecodeYAML(data []byte) (substitute.Source, error) {
	var obj map[string]any
	if err := yaml.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return substitute.Source(normalize(obj).(map[string]any)), nil
}

// DecodeTOML decodes a TOML document.
func DecodeTOML(data []byte) (substitute.Source, error) {
	var obj map[string]any
	if err := toml.Unmarshal(data, &obj); err != nil {
		return nil, err
	}
	if obj == nil {
		obj = map[string]any{}
	}
	return substitute.Source(normalize(obj).(map[string]any)), nil
}

// DecodeDotEnv decodes KEY=value lines into a flat source.
func DecodeDotEnv(data []byte) (substitute.Source, error) {
	env, err := godotenv.UnmarshalBytes(data)
	if err != nil {
		return nil, err
	}
	return flat(env), nil
}

// Environment returns the process environment as a flat source.
func Environment() substitute.Source {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			env[k] = v
		}
	}
	return flat(env)
}

// Pairs builds a source from KEY=VALUE strings. Dotted keys create nested
// mappings, so "user.country=NZ" resolves %(user.country)s.
func Pairs(pairs []string) (substitute.Source, error) {
	src := substitute.Source{}
	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, stamperrors.NewValidationError(
				stamperrors.ErrCodeConfigInvalid,
				fmt.Sprintf("expected key=value, got %q", pair),
			)
		}
		setPath(src, strings.Split(key, "."), value)
	}
	return src, nil
}

func setPath(obj map[string]any, path []string, value any) {
	for _, segment := range path[:len(path)-1] {
		next, ok := obj[segment].(map[string]any)
		if !ok {
			next = map[string]any{}
			obj[segment] = next
		}
		obj = next
	}
	obj[path[len(path)-1]] = value
}

func flat(env map[string]string) substitute.Source {
	src := make(substitute.Source, len(env))
	for k, v := range env {
		src[k] = v
	}
	return src
}

// normalize rewrites decoder-specific container types into the
// map[string]any / []any shapes the engine walks.
func normalize(v any) any {
	switch tv := v.(type) {
	case map[string]any:
		for k, item := range tv {
			tv[k] = normalize(item)
		}
		return tv
	case map[any]any:
		out := make(map[string]any, len(tv))
		for k, item := range tv {
			out[fmt.Sprint(k)] = normalize(item)
		}
		return out
	case []any:
		for i, item := range tv {
			tv[i] = normalize(item)
		}
		return tv
	case []map[string]any:
		out := make([]any, len(tv))
		for i, item := range tv {
			out[i] = normalize(item)
		}
		return out
	default:
		return v
	}
}
