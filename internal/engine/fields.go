// Package engine implements the client-side half of the query pipeline:
// the flattened object representation and its dotted-path codec, the
// residual-predicate evaluator, the multi-key sorter, the aggregator and the
// projector. The package never talks to the wire client; it consumes plain
// JSON trees and the engine-owned query plan.
package engine

import (
	"bytes"
	"encoding/json"
)

// missingValue marks a selected path that resolved to nothing. Renderers map
// it to "-" in tables and null in structured output.
type missingValue struct{}

// Missing is the sentinel stored in projection rows for absent paths.
var Missing = missingValue{}

func (missingValue) MarshalJSON() ([]byte, error) { return []byte("null"), nil }

// Fields is an insertion-ordered string-keyed map. Both JSON and YAML output
// must keep first-seen key order, which plain Go maps cannot.
type Fields struct {
	keys []string
	m    map[string]any
}

func NewFields() *Fields {
	return &Fields{m: make(map[string]any)}
}

// Set stores v under k, keeping the position of an existing key.
func (f *Fields) Set(k string, v any) {
	if _, ok := f.m[k]; !ok {
		f.keys = append(f.keys, k)
	}
	f.m[k] = v
}

func (f *Fields) Get(k string) (any, bool) {
	v, ok := f.m[k]
	return v, ok
}

// Keys returns the keys in insertion order. The slice is shared; callers must
// not mutate it.
func (f *Fields) Keys() []string { return f.keys }

func (f *Fields) Len() int { return len(f.keys) }

// MarshalJSON writes the entries in insertion order.
func (f *Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range f.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(f.m[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Plain converts the ordered tree back to plain maps and slices, losing key
// order. Used for canonical comparisons and round-trip checks.
func (f *Fields) Plain() map[string]any {
	out := make(map[string]any, len(f.keys))
	for _, k := range f.keys {
		out[k] = toPlain(f.m[k])
	}
	return out
}

func toPlain(v any) any {
	switch t := v.(type) {
	case *Fields:
		return t.Plain()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = toPlain(e)
		}
		return out
	case missingValue:
		return nil
	default:
		return v
	}
}
