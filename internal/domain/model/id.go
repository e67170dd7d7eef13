package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ID identifies matches, rounds and cards. The backend emits numeric ids in
// some payloads and string ids in others; both decode into the same value.
type ID string

// String returns the id as a string.
func (id ID) String() string { return string(id) }

// Empty reports whether the id is blank.
func (id ID) Empty() bool { return strings.TrimSpace(string(id)) == "" }

// UnmarshalJSON accepts a JSON string, a JSON number or null.
func (id *ID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || bytes.Equal(b, []byte("null")):
		*id = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id = ID(strings.TrimSpace(s))
		return nil
	default:
		var n json.Number
		err := json.Unmarshal(b, &n)
		if err != nil {
			return fmt.Errorf("decode id: %w", err)
		}
		*id, err = numericID(n)
		return err
	}
}

// numericID spells integral numbers in their shortest decimal form so 1,
// 1.0 and 1e0 all name the same record.
func numericID(n json.Number) (ID, error) {
	if i, err := n.Int64(); err == nil {
		return ID(strconv.FormatInt(i, 10)), nil
	}
	f, err := n.Float64()
	if err != nil {
		return "", fmt.Errorf("decode id: %w", err)
	}
	if f == math.Trunc(f) && f >= math.MinInt64 && f < math.MaxInt64 {
		return ID(strconv.FormatInt(int64(f), 10)), nil
	}
	return ID(n.String()), nil
}
