package recordtrail

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"reflect"
	"slices"
	"strconv"
	"strings"
	"time"
)

// Attribute is one named value of a record.
type Attribute struct {
	Name  string
	Value any
}

// Values is an ordered attribute list. Order drives the order of detail rows.
type Values []Attribute

// ValuesOf builds Values from a map with attribute names sorted ascending.
func ValuesOf(m map[string]any) Values {
	if len(m) == 0 {
		return nil
	}
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	slices.Sort(names)
	out := make(Values, len(names))
	for i, name := range names {
		out[i] = Attribute{Name: name, Value: m[name]}
	}
	return out
}

// ParseValues decodes a JSON object into Values sorted by name. Numbers keep
// their literal text as json.Number. Blank input and null yield nil.
func ParseValues(s string) (Values, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, invalid("values", "not a JSON object: %v", err)
	}
	if dec.More() {
		return nil, invalid("values", "trailing data after JSON object")
	}
	return ValuesOf(m), nil
}

// Get returns the value of the named attribute.
func (v Values) Get(name string) (any, bool) {
	for _, a := range v {
		if a.Name == name {
			return a.Value, true
		}
	}
	return nil, false
}

// Map returns the attributes as a map.
func (v Values) Map() map[string]any {
	m := make(map[string]any, len(v))
	for _, a := range v {
		m[a.Name] = a.Value
	}
	return m
}

func (v Values) validate(field string) error {
	seen := make(map[string]struct{}, len(v))
	for _, a := range v {
		if strings.TrimSpace(a.Name) == "" {
			return invalid(field, "attribute name is empty")
		}
		if _, dup := seen[a.Name]; dup {
			return invalid(field, "duplicate attribute %q", a.Name)
		}
		seen[a.Name] = struct{}{}
	}
	return nil
}

// EncodeValue converts v to the text stored in the detail table. A nil result
// stands for SQL NULL.
func EncodeValue(v any) (*string, error) {
	s, ok, err := encode(v, 0)
	if err != nil || !ok {
		return nil, err
	}
	return &s, nil
}

func encode(v any, depth int) (string, bool, error) {
	if depth > 8 {
		return "", false, fmt.Errorf("value of type %T does not resolve to a storable value", v)
	}
	switch t := v.(type) {
	case nil:
		return "", false, nil
	case string:
		return t, true, nil
	case []byte:
		if t == nil {
			return "", false, nil
		}
		return string(t), true, nil
	case bool:
		return strconv.FormatBool(t), true, nil
	case int:
		return strconv.FormatInt(int64(t), 10), true, nil
	case int8:
		return strconv.FormatInt(int64(t), 10), true, nil
	case int16:
		return strconv.FormatInt(int64(t), 10), true, nil
	case int32:
		return strconv.FormatInt(int64(t), 10), true, nil
	case int64:
		return strconv.FormatInt(t, 10), true, nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), true, nil
	case uint8:
		return strconv.FormatUint(uint64(t), 10), true, nil
	case uint16:
		return strconv.FormatUint(uint64(t), 10), true, nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), true, nil
	case uint64:
		return strconv.FormatUint(t, 10), true, nil
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32), true, nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), true, nil
	case json.Number:
		return t.String(), true, nil
	case time.Time:
		return t.Format(time.RFC3339Nano), true, nil
	case driver.Valuer:
		rv := reflect.ValueOf(t)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "", false, nil
		}
		dv, err := t.Value()
		if err != nil {
			return "", false, err
		}
		return encode(dv, depth+1)
	case fmt.Stringer:
		rv := reflect.ValueOf(t)
		if rv.Kind() == reflect.Pointer && rv.IsNil() {
			return "", false, nil
		}
		return t.String(), true, nil
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "", false, nil
		}
		return encode(rv.Elem().Interface(), depth+1)
	case reflect.String:
		return rv.String(), true, nil
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool()), true, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10), true, nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10), true, nil
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, rv.Type().Bits()), true, nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", false, err
	}
	return string(b), true, nil
}
