package settings

import (
	"bytes"
	"encoding/json"
	"slices"
)

const (
	KeyShowCompleted = "show_completed"
	KeyWindowWidth   = "window_width"
	KeyWindowHeight  = "window_height"
	KeyMaximized     = "maximized"
)

type entry struct {
	key   string
	value Value
}

// defaults lists the recognised keys in document order.
var defaults = []entry{
	{KeyShowCompleted, Bool(true)},
	{KeyWindowWidth, Number(800)},
	{KeyWindowHeight, Number(600)},
	{KeyMaximized, Bool(false)},
}

// Default returns the default value of a recognised key.
func Default(key string) (Value, bool) {
	for _, e := range defaults {
		if e.key == key {
			return e.value, true
		}
	}
	return Value{}, false
}

// Document is an ordered key/value map. Recognised keys come first in a
// fixed order, followed by unknown keys sorted by name.
type Document struct {
	values map[string]Value
}

func DefaultDocument() Document {
	d := Document{values: make(map[string]Value, len(defaults))}
	for _, e := range defaults {
		d.values[e.key] = e.value
	}
	return d
}

func (d Document) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d Document) set(key string, v Value) {
	d.values[key] = v
}

func (d Document) Keys() []string {
	out := make([]string, 0, len(d.values))
	var extra []string
	for _, e := range defaults {
		if _, ok := d.values[e.key]; ok {
			out = append(out, e.key)
		}
	}
	for k := range d.values {
		if _, known := Default(k); !known {
			extra = append(extra, k)
		}
	}
	slices.Sort(extra)
	return append(out, extra...)
}

func (d Document) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("{\n")
	keys := d.Keys()
	for i, k := range keys {
		name, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		value, err := d.values[k].MarshalJSON()
		if err != nil {
			return nil, err
		}
		buf.WriteString("  ")
		buf.Write(name)
		buf.WriteString(": ")
		buf.Write(value)
		if i < len(keys)-1 {
			buf.WriteByte(',')
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("}\n")
	return buf.Bytes(), nil
}

// parseDocument decodes a settings object without applying defaults.
func parseDocument(data []byte) (Document, error) {
	raw := make(map[string]Value)
	if err := json.Unmarshal(data, &raw); err != nil {
		return Document{}, err
	}
	return Document{values: raw}, nil
}
