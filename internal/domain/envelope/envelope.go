// Package envelope turns the backend's collection payloads into plain ordered
// sequences.
//
// The backend serializes collections with a reference-preserving serializer,
// so a list may arrive as a JSON array, as an object of the form
// {"$id": "1", "$values": [...]}, or as null. Everything downstream consumes
// data only after it went through this package.
package envelope

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// Wrapper field names used by the reference-preserving serializer.
const (
	IDField     = "$id"
	ValuesField = "$values"
)

// Shape is the classification of a top-level payload.
type Shape int

const (
	ShapeAbsent Shape = iota
	ShapeSequence
	ShapeWrapper
	ShapeScalar
)

func (s Shape) String() string {
	switch s {
	case ShapeAbsent:
		return "absent"
	case ShapeSequence:
		return "sequence"
	case ShapeWrapper:
		return "wrapper"
	case ShapeScalar:
		return "scalar"
	default:
		return "unknown"
	}
}

// Normalize converts a dynamically typed value, as produced by decoding JSON
// into any, into an ordered sequence. It never returns nil.
//
// Only the outermost wrapper is unwrapped; wrappers nested inside elements
// are left untouched. A value that is neither absent, a sequence nor a
// wrapper is dropped unless WithForceSequence is given.
func Normalize(v any, opts ...Option) []any {
	s := apply(opts)

	// Wrapper first: a wrapper is an object and must not be boxed as a scalar.
	if values, ok := unwrap(v); ok {
		return values
	}

	if v == nil {
		return []any{}
	}
	if items, ok := sequence(v); ok {
		return items
	}

	rv := reflect.ValueOf(v)
	if (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Map) && rv.IsNil() {
		return []any{}
	}

	if s.forceSequence {
		return []any{v}
	}
	return []any{}
}

// sequence returns the elements of any slice or array kind. A nil slice
// yields an empty, non-nil sequence.
func sequence(v any) ([]any, bool) {
	if t, ok := v.([]any); ok {
		if t == nil {
			return []any{}, true
		}
		return t, true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, true
		}
		out := make([]any, rv.Len())
		for i := range out {
			out[i] = rv.Index(i).Interface()
		}
		return out, true
	default:
		return nil, false
	}
}

func unwrap(v any) ([]any, bool) {
	obj, ok := v.(map[string]any)
	if !ok || obj == nil {
		return nil, false
	}
	if _, ok := obj[IDField]; !ok {
		return nil, false
	}
	return sequence(obj[ValuesField])
}

// Classify reports the shape of a raw JSON payload.
func Classify(data []byte) (Shape, error) {
	shape, _, err := classify(data)
	return shape, err
}

// NormalizeJSON is Normalize over raw JSON bytes. Each returned element is the
// untouched JSON of one item. Invalid JSON yields an empty sequence and an
// error wrapping ErrInvalidJSON.
func NormalizeJSON(data []byte, opts ...Option) ([]json.RawMessage, error) {
	s := apply(opts)

	shape, items, err := classify(data)
	if err != nil {
		return []json.RawMessage{}, err
	}
	if shape == ShapeScalar && !s.forceSequence {
		return []json.RawMessage{}, nil
	}
	if items == nil {
		return []json.RawMessage{}, nil
	}
	return items, nil
}

func classify(data []byte) (Shape, []json.RawMessage, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return ShapeAbsent, nil, nil
	}
	if !json.Valid(trimmed) {
		return ShapeAbsent, nil, fmt.Errorf("%w: %d bytes", ErrInvalidJSON, len(trimmed))
	}

	switch trimmed[0] {
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return ShapeAbsent, nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}
		_, hasID := obj[IDField]
		values, hasValues := obj[ValuesField]
		if hasID && hasValues && isArray(values) {
			var items []json.RawMessage
			if err := json.Unmarshal(values, &items); err != nil {
				return ShapeAbsent, nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
			}
			return ShapeWrapper, items, nil
		}
		return ShapeScalar, []json.RawMessage{json.RawMessage(trimmed)}, nil
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return ShapeAbsent, nil, fmt.Errorf("%w: %w", ErrInvalidJSON, err)
		}
		return ShapeSequence, items, nil
	default:
		return ShapeScalar, []json.RawMessage{json.RawMessage(trimmed)}, nil
	}
}

func isArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '['
}

// Decode normalizes data and decodes every element into T.
//
// Elements that do not decode are skipped; each one contributes an error
// wrapping ErrMalformedItem to the joined error returned alongside the items
// that did decode. The returned slice is never nil.
func Decode[T any](data []byte, opts ...Option) ([]T, error) {
	raw, err := NormalizeJSON(data, opts...)
	if err != nil {
		return []T{}, err
	}

	out := make([]T, 0, len(raw))
	var errs []error
	for i, item := range raw {
		var v T
		if err := json.Unmarshal(item, &v); err != nil {
			errs = append(errs, fmt.Errorf("%w: index %d: %w", ErrMalformedItem, i, err))
			continue
		}
		out = append(out, v)
	}
	return out, errors.Join(errs...)
}

// CountMalformed returns how many skipped elements err reports.
func CountMalformed(err error) int {
	if err == nil {
		return 0
	}
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		n := 0
		for _, e := range joined.Unwrap() {
			n += CountMalformed(e)
		}
		return n
	}
	if errors.Is(err, ErrMalformedItem) {
		return 1
	}
	return 0
}
