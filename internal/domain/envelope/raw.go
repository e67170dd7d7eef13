package envelope

import "encoding/json"

// Raw holds an undecoded collection payload of T in any of the accepted
// shapes. Use it as a struct field to defer normalization to the boundary
// where the items are consumed.
type Raw[T any] struct {
	data json.RawMessage
}

// UnmarshalJSON stores a copy of the payload.
func (r *Raw[T]) UnmarshalJSON(b []byte) error {
	r.data = append(r.data[:0], b...)
	return nil
}

// MarshalJSON emits the stored payload, or null when empty.
func (r Raw[T]) MarshalJSON() ([]byte, error) {
	if len(r.data) == 0 {
		return []byte("null"), nil
	}
	return r.data, nil
}

// Bytes returns the stored payload.
func (r Raw[T]) Bytes() []byte { return r.data }

// Shape classifies the stored payload. Invalid JSON reports ShapeAbsent.
func (r Raw[T]) Shape() Shape {
	s, err := Classify(r.data)
	if err != nil {
		return ShapeAbsent
	}
	return s
}

// Items decodes the payload. See Decode.
func (r Raw[T]) Items(opts ...Option) ([]T, error) {
	return Decode[T](r.data, opts...)
}
