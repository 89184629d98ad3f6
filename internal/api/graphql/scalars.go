package graphql

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
)

// JSON is a custom scalar type for arbitrary JSON data
type JSON json.RawMessage

// Implement graphql.Marshaler interface
func (j JSON) MarshalGQL(w io.Writer) {
	if j == nil {
		_, _ = w.Write([]byte("null"))
		return
	}
	_, _ = w.Write(j)
}

// Uint64 scalar type for unsigned 64-bit integers
type Uint64 uint64

// MarshalGQL implements graphql.Marshaler for Uint64
func (u Uint64) MarshalGQL(w io.Writer) {
	// Write as string to avoid JavaScript number precision issues
	_, _ = io.WriteString(w, strconv.Quote(strconv.FormatUint(uint64(u), 10)))
}

// UnmarshalGQL implements graphql.Unmarshaler for Uint64
func (u *Uint64) UnmarshalGQL(v any) error {
	switch v := v.(type) {
	case string:
		val, err := strconv.ParseUint(v, 10, 64)
		if err != nil {
			return fmt.Errorf("cannot parse %q as uint64: %w", v, err)
		}
		*u = Uint64(val)
		return nil
	case json.Number:
		return u.UnmarshalGQL(v.String())
	case int:
		if v < 0 {
			return fmt.Errorf("uint64 cannot be negative: %d", v)
		}
		*u = Uint64(v)
		return nil
	case int64:
		if v < 0 {
			return fmt.Errorf("uint64 cannot be negative: %d", v)
		}
		*u = Uint64(v)
		return nil
	case uint64:
		*u = Uint64(v)
		return nil
	default:
		return fmt.Errorf("cannot unmarshal %T to Uint64", v)
	}
}

// Int64 scalar type for signed amounts. Written as a string like Uint64.
type Int64 int64

// MarshalGQL implements graphql.Marshaler for Int64
func (i Int64) MarshalGQL(w io.Writer) {
	_, _ = io.WriteString(w, strconv.Quote(strconv.FormatInt(int64(i), 10)))
}

// Int is the built-in Int scalar as read from arguments
type Int int

// UnmarshalGQL implements graphql.Unmarshaler for Int
func (i *Int) UnmarshalGQL(v any) error {
	switch v := v.(type) {
	case int:
		*i = Int(v)
	case int64:
		*i = Int(v)
	case json.Number:
		val, err := strconv.ParseInt(v.String(), 10, 32)
		if err != nil {
			return fmt.Errorf("cannot parse %q as Int: %w", v, err)
		}
		*i = Int(val)
	default:
		return fmt.Errorf("cannot unmarshal %T to Int", v)
	}
	return nil
}
