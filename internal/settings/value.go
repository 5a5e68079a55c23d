package settings

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type Kind int

const (
	KindBool Kind = iota
	KindNumber
	KindString
	// KindRaw holds any other JSON value verbatim.
	KindRaw
)

func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return "raw"
	}
}

// Value is a single settings entry.
type Value struct {
	kind Kind
	b    bool
	n    float64
	s    string
	raw  json.RawMessage
}

func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

func Number(v float64) Value { return Value{kind: KindNumber, n: v} }

func String(v string) Value { return Value{kind: KindString, s: v} }

func (v Value) Kind() Kind { return v.kind }

func (v Value) AsBool() (bool, error) {
	if v.kind != KindBool {
		return false, fmt.Errorf("%w: want bool, have %s", ErrTypeMismatch, v.kind)
	}
	return v.b, nil
}

func (v Value) AsNumber() (float64, error) {
	if v.kind != KindNumber {
		return 0, fmt.Errorf("%w: want number, have %s", ErrTypeMismatch, v.kind)
	}
	return v.n, nil
}

func (v Value) AsString() (string, error) {
	if v.kind != KindString {
		return "", fmt.Errorf("%w: want string, have %s", ErrTypeMismatch, v.kind)
	}
	return v.s, nil
}

func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindBool:
		return v.b == o.b
	case KindNumber:
		return v.n == o.n
	case KindString:
		return v.s == o.s
	default:
		return bytes.Equal(v.raw, o.raw)
	}
}

// String renders the value as it would appear in the document.
func (v Value) String() string {
	raw, err := v.MarshalJSON()
	if err != nil {
		return "<invalid>"
	}
	return string(raw)
}

func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindBool:
		return json.Marshal(v.b)
	case KindNumber:
		return json.Marshal(v.n)
	case KindString:
		return json.Marshal(v.s)
	default:
		if len(v.raw) == 0 {
			return []byte("null"), nil
		}
		return v.raw, nil
	}
}

func (v *Value) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return fmt.Errorf("settings: empty value")
	}
	switch trimmed[0] {
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(trimmed, &b); err != nil {
			return err
		}
		*v = Bool(b)
	case '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*v = String(s)
	case '{', '[', 'n':
		if !json.Valid(trimmed) {
			return fmt.Errorf("settings: invalid value %s", trimmed)
		}
		*v = Value{kind: KindRaw, raw: append(json.RawMessage(nil), trimmed...)}
	default:
		var n float64
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return err
		}
		*v = Number(n)
	}
	return nil
}

// ParseValue reads a command-line value as the given kind.
func ParseValue(kind Kind, raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a bool", ErrTypeMismatch, raw)
		}
		return Bool(b), nil
	case KindNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("%w: %q is not a number", ErrTypeMismatch, raw)
		}
		return Number(n), nil
	case KindString:
		return String(raw), nil
	default:
		var v Value
		if err := v.UnmarshalJSON([]byte(raw)); err != nil {
			return String(raw), nil
		}
		return v, nil
	}
}
