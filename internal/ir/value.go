package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// IRValue is a sealed interface over the values a lowered field may hold.
// Only IRNull, IRString, IRInt, IRBool, IRArray, and IRObject implement it.
// There is no float variant: hardware fields are integer-coded.
type IRValue interface {
	irValue()
}

// IRNull is an explicit null, so every IRValue is non-nil.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString is a string field value (normalized enum names, block ids).
type IRString string

func (IRString) irValue() {}

// IRInt is an integer field value.
type IRInt int64

func (IRInt) irValue() {}

// IRBool is a normalized boolean field value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray is an ordered list, e.g. a decomposed compare value.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject maps field names to values. Iterate with SortedKeys.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// IntArray builds an IRArray of IRInt.
func IntArray(vals []int64) IRArray {
	arr := make(IRArray, len(vals))
	for i, v := range vals {
		arr[i] = IRInt(v)
	}
	return arr
}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units, not UTF-8 bytes).
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, func(a, b string) int {
		return slices.Compare(utf16.Encode([]rune(a)), utf16.Encode([]rune(b)))
	})
	return keys
}

// MarshalJSON writes keys in SortedKeys order so artifacts are stable.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Format renders a value for the human-readable artifact.
func Format(v IRValue) string {
	switch val := v.(type) {
	case IRNull:
		return "null"
	case IRString:
		return string(val)
	case IRInt:
		return fmt.Sprintf("%d", int64(val))
	case IRBool:
		if val {
			return "true"
		}
		return "false"
	case IRArray:
		parts := make([]string, len(val))
		for i, elem := range val {
			parts[i] = Format(elem)
		}
		return "[" + strings.Join(parts, " ") + "]"
	case IRObject:
		keys := val.SortedKeys()
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "=" + Format(val[k])
		}
		return "{" + strings.Join(parts, " ") + "}"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// ToIRValue converts any JSON-marshalable Go value to an IRValue tree.
// Nulls and floats are rejected.
func ToIRValue(v any) (IRValue, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %T: %w", v, err)
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return convertToIRValue(raw)
}

func convertToIRValue(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is forbidden in IR")
	case bool:
		return IRBool(val), nil
	case string:
		return IRString(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are forbidden in IR: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return IRInt(n), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := convertToIRValue(elem)
			if err != nil {
				return nil, fmt.Errorf("object[%q]: %w", k, err)
			}
			obj[k] = irElem
		}
		return obj, nil
	default:
		return nil, fmt.Errorf("unsupported type: %T", v)
	}
}
