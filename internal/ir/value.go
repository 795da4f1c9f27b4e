package ir

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"unicode/utf16"
)

// IRValue is a sealed interface for the values a location's state may hold.
// Only IRNull, IRString, IRInt, IRBool, IRArray, and IRObject implement it.
// There is no float type: state must serialize identically on every run.
type IRValue interface {
	irValue()
}

// IRNull is an explicit JSON null.
type IRNull struct{}

func (IRNull) irValue() {}

// MarshalJSON implements json.Marshaler for IRNull.
func (IRNull) MarshalJSON() ([]byte, error) {
	return []byte("null"), nil
}

// IRString is a string value.
type IRString string

func (IRString) irValue() {}

// IRInt is an integer value. Always int64.
type IRInt int64

func (IRInt) irValue() {}

// IRBool is a boolean value.
type IRBool bool

func (IRBool) irValue() {}

// IRArray is an ordered list of values.
type IRArray []IRValue

func (IRArray) irValue() {}

// IRObject maps string keys to values.
// Use SortedKeys() for deterministic iteration.
type IRObject map[string]IRValue

func (IRObject) irValue() {}

// SortedKeys returns keys in RFC 8785 order (UTF-16 code units).
// Go's native string ordering is UTF-8 and differs for astral characters.
func (obj IRObject) SortedKeys() []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))
	return slices.Compare(a16, b16)
}

// Clone returns a deep copy of the object. A nil object clones to nil.
func (obj IRObject) Clone() IRObject {
	if obj == nil {
		return nil
	}
	out := make(IRObject, len(obj))
	for k, v := range obj {
		out[k] = cloneValue(v)
	}
	return out
}

func cloneValue(v IRValue) IRValue {
	switch val := v.(type) {
	case IRObject:
		return val.Clone()
	case IRArray:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			arr[i] = cloneValue(elem)
		}
		return arr
	default:
		return v
	}
}

// UnmarshalJSON implements json.Unmarshaler for IRObject.
func (obj *IRObject) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*obj = make(IRObject, len(raw))
	for k, v := range raw {
		val, err := unmarshalIRValue(v)
		if err != nil {
			return fmt.Errorf("IRObject key %q: %w", k, err)
		}
		(*obj)[k] = val
	}
	return nil
}

// UnmarshalJSON implements json.Unmarshaler for IRArray.
func (arr *IRArray) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*arr = make(IRArray, len(raw))
	for i, v := range raw {
		val, err := unmarshalIRValue(v)
		if err != nil {
			return fmt.Errorf("IRArray index %d: %w", i, err)
		}
		(*arr)[i] = val
	}
	return nil
}

// unmarshalIRValue decodes a JSON value into the matching IRValue.
// null round-trips as IRNull; floats are rejected.
func unmarshalIRValue(data []byte) (IRValue, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return IRString(s), nil

	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return IRBool(b), nil

	case 'n':
		return IRNull{}, nil

	case '[':
		var arr IRArray
		if err := json.Unmarshal(data, &arr); err != nil {
			return nil, err
		}
		return arr, nil

	case '{':
		var obj IRObject
		if err := json.Unmarshal(data, &obj); err != nil {
			return nil, err
		}
		return obj, nil

	default:
		var n json.Number
		if err := json.Unmarshal(data, &n); err != nil {
			return nil, err
		}
		i, err := n.Int64()
		if err != nil {
			return nil, fmt.Errorf("floats not allowed in location state: %s", string(data))
		}
		return IRInt(i), nil
	}
}

// MarshalJSON implements json.Marshaler for IRObject with sorted keys.
// This is NOT canonical marshaling; use MarshalCanonical for fingerprints.
func (obj IRObject) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range obj.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}
		keyBytes, err := json.Marshal(k)
		if err != nil {
			return nil, fmt.Errorf("marshal key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := MarshalIRValue(obj[k])
		if err != nil {
			return nil, fmt.Errorf("marshal value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalJSON implements json.Marshaler for IRArray.
func (arr IRArray) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, elem := range arr {
		if i > 0 {
			buf.WriteByte(',')
		}
		elemBytes, err := MarshalIRValue(elem)
		if err != nil {
			return nil, fmt.Errorf("array[%d]: %w", i, err)
		}
		buf.Write(elemBytes)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// MarshalIRValue marshals an IRValue to JSON bytes.
func MarshalIRValue(v IRValue) ([]byte, error) {
	switch val := v.(type) {
	case IRNull:
		return []byte("null"), nil
	case IRString:
		return json.Marshal(string(val))
	case IRInt:
		return json.Marshal(int64(val))
	case IRBool:
		return json.Marshal(bool(val))
	case IRArray:
		return val.MarshalJSON()
	case IRObject:
		return val.MarshalJSON()
	default:
		return nil, fmt.Errorf("unknown IRValue type: %T", v)
	}
}

// FromAny converts a decoded Go value (from JSON, YAML or CUE) to an IRValue.
// Integral numbers of any Go integer type are accepted; fractional numbers
// and nil are rejected.
func FromAny(v any) (IRValue, error) {
	switch val := v.(type) {
	case nil:
		return nil, fmt.Errorf("null is not allowed in location state")
	case IRValue:
		return val, nil
	case string:
		return IRString(val), nil
	case bool:
		return IRBool(val), nil
	case int:
		return IRInt(val), nil
	case int64:
		return IRInt(val), nil
	case int32:
		return IRInt(val), nil
	case uint64:
		return IRInt(val), nil
	case json.Number:
		s := string(val)
		if strings.ContainsAny(s, ".eE") {
			return nil, fmt.Errorf("floats are not allowed in location state: %s", s)
		}
		n, err := val.Int64()
		if err != nil {
			return nil, fmt.Errorf("number out of int64 range: %s", s)
		}
		return IRInt(n), nil
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("floats are not allowed in location state: %v", val)
		}
		return IRInt(int64(val)), nil
	case []any:
		arr := make(IRArray, len(val))
		for i, elem := range val {
			irElem, err := FromAny(elem)
			if err != nil {
				return nil, fmt.Errorf("array[%d]: %w", i, err)
			}
			arr[i] = irElem
		}
		return arr, nil
	case map[string]any:
		obj := make(IRObject, len(val))
		for k, elem := range val {
			irElem, err := FromAny(elem)
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

// ObjectFromMap converts a decoded map into an IRObject.
// A nil map yields a nil object.
func ObjectFromMap(m map[string]any) (IRObject, error) {
	if m == nil {
		return nil, nil
	}
	v, err := FromAny(m)
	if err != nil {
		return nil, err
	}
	return v.(IRObject), nil
}
