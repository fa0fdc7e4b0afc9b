package compdb

import (
	"bytes"
	"encoding/json"
	"fmt"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// FileKey is the attribute holding the source file path of an entry
const FileKey = "file"

// Record is a single compilation database entry.
// Attributes other than "file" are opaque and kept in their original order.
type Record struct {
	fields *orderedmap.OrderedMap[string, json.RawMessage]
	file   string
}

// NewRecord creates a record whose only attribute is file
func NewRecord(file string) *Record {
	r := &Record{fields: orderedmap.New[string, json.RawMessage]()}
	// A string always marshals.
	_ = r.Set(FileKey, file)
	return r
}

// File returns the "file" attribute as written in the database
func (r *Record) File() string {
	return r.file
}

// Get returns the raw JSON value of an attribute
func (r *Record) Get(key string) (json.RawMessage, bool) {
	if r.fields == nil {
		return nil, false
	}
	return r.fields.Get(key)
}

// Set marshals value and stores it under key, appending the key if it is new.
// Setting "file" to anything but a string is rejected.
func (r *Record) Set(key string, value interface{}) error {
	raw, err := marshalValue(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %q: %w", key, err)
	}

	if key == FileKey {
		file, ok := value.(string)
		if !ok {
			return ErrInvalidFile
		}
		r.file = file
	}

	if r.fields == nil {
		r.fields = orderedmap.New[string, json.RawMessage]()
	}
	r.fields.Set(key, raw)
	return nil
}

// Keys returns attribute names in database order
func (r *Record) Keys() []string {
	if r.fields == nil {
		return nil
	}
	keys := make([]string, 0, r.fields.Len())
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		keys = append(keys, pair.Key)
	}
	return keys
}

// Len returns the number of attributes
func (r *Record) Len() int {
	if r.fields == nil {
		return 0
	}
	return r.fields.Len()
}

// MarshalJSON implements json.Marshaler.
// Values are written back from their raw form, so characters such as & and <
// are never escaped.
func (r *Record) MarshalJSON() ([]byte, error) {
	if r.fields == nil {
		return []byte("{}"), nil
	}

	var buf bytes.Buffer
	buf.WriteByte('{')
	for pair := r.fields.Oldest(); pair != nil; pair = pair.Next() {
		if buf.Len() > 1 {
			buf.WriteByte(',')
		}
		key, err := marshalValue(pair.Key)
		if err != nil {
			return nil, fmt.Errorf("failed to encode key %q: %w", pair.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')

		if err := json.Compact(&buf, pair.Value); err != nil {
			return nil, fmt.Errorf("failed to encode %q: %w", pair.Key, err)
		}
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler.
// The entry must be an object carrying a string "file" attribute.
func (r *Record) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return ErrNotObject
	}

	fields := orderedmap.New[string, json.RawMessage]()
	if err := fields.UnmarshalJSON(trimmed); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDatabase, err)
	}

	raw, ok := fields.Get(FileKey)
	if !ok {
		return ErrMissingFile
	}

	// json.Unmarshal accepts null into a string, so check the token first
	var file string
	if len(raw) == 0 || raw[0] != '"' {
		return ErrInvalidFile
	}
	if err := json.Unmarshal(raw, &file); err != nil {
		return ErrInvalidFile
	}

	r.fields = fields
	r.file = file
	return nil
}

// marshalValue is json.Marshal without HTML escaping
func marshalValue(value interface{}) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(value); err != nil {
		return nil, err
	}
	// Encode terminates every value with a newline
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
