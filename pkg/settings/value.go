package settings

import (
	"bytes"
	"encoding/json"
	"sort"
	"strings"

	"github.com/arthur-debert/confsync/pkg/errors"
)

// Kind discriminates the variants of a settings Value.
type Kind int

const (
	KindNull Kind = iota
	KindString
	KindNumber
	KindBool
	KindList
	KindMap
)

// Value is a tagged representation of a JSON document node. Settings
// documents are manipulated only through this type, never through raw
// interface{} introspection.
type Value struct {
	kind Kind
	str  string
	num  json.Number
	b    bool
	list []Value
	m    map[string]Value
}

// Null returns the null value.
func Null() Value { return Value{kind: KindNull} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// Number returns a numeric value from its literal representation.
// The literal is preserved verbatim so large integers survive a
// parse/encode round trip.
func Number(lit string) Value { return Value{kind: KindNumber, num: json.Number(lit)} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// List returns a list value.
func List(items ...Value) Value { return Value{kind: KindList, list: items} }

// NewMap returns an empty map value.
func NewMap() Value { return Value{kind: KindMap, m: make(map[string]Value)} }

// Kind returns the variant tag of the value.
func (v Value) Kind() Kind { return v.kind }

// Str returns the string payload. Only meaningful for KindString.
func (v Value) Str() string { return v.str }

// Num returns the numeric literal. Only meaningful for KindNumber.
func (v Value) Num() json.Number { return v.num }

// BoolVal returns the boolean payload. Only meaningful for KindBool.
func (v Value) BoolVal() bool { return v.b }

// Items returns the list payload. Only meaningful for KindList.
func (v Value) Items() []Value { return v.list }

// IsMap reports whether the value is a map.
func (v Value) IsMap() bool { return v.kind == KindMap }

// Get returns the value for key in a map value.
func (v Value) Get(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	val, ok := v.m[key]
	return val, ok
}

// Has reports whether a map value contains key.
func (v Value) Has(key string) bool {
	_, ok := v.Get(key)
	return ok
}

// Set stores key in a map value and returns the map for chaining.
func (v Value) Set(key string, val Value) Value {
	if v.kind == KindMap {
		v.m[key] = val
	}
	return v
}

// Keys returns the sorted keys of a map value.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	keys := make([]string, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Len returns the number of entries in a map or list value.
func (v Value) Len() int {
	switch v.kind {
	case KindMap:
		return len(v.m)
	case KindList:
		return len(v.list)
	}
	return 0
}

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	switch v.kind {
	case KindList:
		items := make([]Value, len(v.list))
		for i, item := range v.list {
			items[i] = item.Clone()
		}
		return Value{kind: KindList, list: items}
	case KindMap:
		m := make(map[string]Value, len(v.m))
		for k, val := range v.m {
			m[k] = val.Clone()
		}
		return Value{kind: KindMap, m: m}
	}
	return v
}

// Equal reports deep equality of two values. Numbers compare by literal.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindString:
		return v.str == other.str
	case KindNumber:
		return v.num == other.num
	case KindBool:
		return v.b == other.b
	case KindList:
		if len(v.list) != len(other.list) {
			return false
		}
		for i := range v.list {
			if !v.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	case KindMap:
		if len(v.m) != len(other.m) {
			return false
		}
		for k, val := range v.m {
			otherVal, ok := other.m[k]
			if !ok || !val.Equal(otherVal) {
				return false
			}
		}
		return true
	}
	return false
}

// MarshalJSON encodes the value with map keys sorted, so identical
// documents always encode to identical bytes.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encode(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindString:
		data, err := json.Marshal(v.str)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindNumber:
		if v.num == "" {
			buf.WriteString("0")
		} else {
			buf.WriteString(string(v.num))
		}
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, k := range v.Keys() {
			if i > 0 {
				buf.WriteByte(',')
			}
			keyData, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(keyData)
			buf.WriteByte(':')
			if err := v.m[k].encode(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// Parse decodes a JSON document into a Value. The document must be a
// JSON object at the top level.
func Parse(data []byte) (Value, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" {
		return NewMap(), nil
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var raw interface{}
	if err := dec.Decode(&raw); err != nil {
		return Value{}, errors.Wrap(err, errors.ErrMergeParse, "settings document is not valid JSON")
	}

	v := fromInterface(raw)
	if v.kind != KindMap {
		return Value{}, errors.New(errors.ErrMergeParse, "settings document must be a JSON object")
	}
	return v, nil
}

func fromInterface(raw interface{}) Value {
	switch val := raw.(type) {
	case nil:
		return Null()
	case string:
		return String(val)
	case json.Number:
		return Value{kind: KindNumber, num: val}
	case bool:
		return Bool(val)
	case []interface{}:
		items := make([]Value, len(val))
		for i, item := range val {
			items[i] = fromInterface(item)
		}
		return Value{kind: KindList, list: items}
	case map[string]interface{}:
		m := make(map[string]Value, len(val))
		for k, item := range val {
			m[k] = fromInterface(item)
		}
		return Value{kind: KindMap, m: m}
	}
	return Null()
}

// Encode renders a document as indented JSON with a trailing newline,
// the format settings files are written in.
func Encode(v Value) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrMergeWrite, "failed to encode settings document")
	}
	return append(data, '\n'), nil
}
