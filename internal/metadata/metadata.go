// Package metadata reads and rewrites package metadata files such as
// bower.json and package.json, bumps their semantic versions and checks
// that build artifacts agree on the version.
package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	orderedmap "github.com/wk8/go-ordered-map/v2"

	stamperrors "github.com/conneroisu/stamp/internal/errors"
	"github.com/conneroisu/stamp/internal/substitute"
)

// File is a JSON metadata document whose top-level key order survives a
// read/write round trip.
type File struct {
	Path   string
	fields *orderedmap.OrderedMap[string, any]
}

// Read loads a metadata file.
func Read(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		code := stamperrors.ErrCodeReadFailed
		if os.IsNotExist(err) {
			code = stamperrors.ErrCodeFileNotFound
		}
		return nil, stamperrors.NewIOError(code, "cannot read metadata", err).WithFile(path)
	}

	f, err := Parse(data)
	if err != nil {
		return nil, stamperrors.NewIOError(stamperrors.ErrCodeDecodeFailed, "cannot decode metadata", err).WithFile(path)
	}
	f.Path = path
	return f, nil
}

// Parse decodes a metadata document that is not backed by a file yet.
func Parse(data []byte) (*File, error) {
	if !bytes.HasPrefix(bytes.TrimSpace(data), []byte("{")) {
		return nil, fmt.Errorf("metadata must be a JSON object")
	}
	fields := orderedmap.New[string, any]()
	if err := json.Unmarshal(data, fields); err != nil {
		return nil, err
	}
	return &File{fields: fields}, nil
}

// Version returns the "version" field, or "" when it is missing or not a
// string.
func (f *File) Version() string {
	v, _ := f.fields.Get("version")
	s, _ := v.(string)
	return s
}

// SetVersion sets the "version" field, appending it when absent.
func (f *File) SetVersion(version string) {
	f.fields.Set("version", version)
}

// Source exposes the document as a lookup source. The returned map is a
// fresh copy of the top level.
func (f *File) Source() substitute.Source {
	src := make(substitute.Source, f.fields.Len())
	for pair := f.fields.Oldest(); pair != nil; pair = pair.Next() {
		src[pair.Key] = pair.Value
	}
	return src
}

// Keys returns top-level keys in document order.
func (f *File) Keys() []string {
	keys := make([]string, 0, f.fields.Len())
	for pair := f.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Marshal encodes the document with two-space indentation and a trailing
// newline. Characters such as & < > are written as-is.
func (f *File) Marshal() ([]byte, error) {
	var compact bytes.Buffer
	compact.WriteByte('{')
	for pair := f.fields.Oldest(); pair != nil; pair = pair.Next() {
		if compact.Len() > 1 {
			compact.WriteByte(',')
		}
		if err := encodeRaw(&compact, pair.Key); err != nil {
			return nil, err
		}
		compact.WriteByte(':')
		if err := encodeRaw(&compact, pair.Value); err != nil {
			return nil, err
		}
	}
	compact.WriteByte('}')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// encodeRaw writes v as compact JSON without HTML escaping. The ordered
// map's own MarshalJSON always escapes, so pairs are encoded one by one.
func encodeRaw(buf *bytes.Buffer, v any) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}

// Write saves the document back to its path.
func (f *File) Write() error {
	data, err := f.Marshal()
	if err != nil {
		return stamperrors.NewInternalError(stamperrors.ErrCodeWriteFailed, "cannot encode metadata", err).WithFile(f.Path)
	}
	if err := os.WriteFile(f.Path, data, 0o644); err != nil {
		return stamperrors.NewIOError(stamperrors.ErrCodeWriteFailed, "cannot write metadata", err).WithFile(f.Path)
	}
	return nil
}
