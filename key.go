package recordtrail

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"
)

// PrimaryKey identifies one record inside a logical table. Values must be
// strings, integers or booleans.
type PrimaryKey map[string]any

var decimalInt = regexp.MustCompile(`^(0|-?[1-9][0-9]*)$`)

// Canonical renders the key as a compact JSON object with sorted attribute
// names. Integers and strings holding a decimal integer without leading zeros
// are written unquoted, so {"id": 7} and {"id": "7"} identify the same record,
// as do {"id": -5} and {"id": "-5"}.
func (k PrimaryKey) Canonical() (string, error) {
	if len(k) == 0 {
		return "", invalid("key", "primary key is empty")
	}
	names := make([]string, 0, len(k))
	for name := range k {
		if strings.TrimSpace(name) == "" {
			return "", invalid("key", "primary key attribute name is empty")
		}
		names = append(names, name)
	}
	slices.Sort(names)

	var b strings.Builder
	b.WriteByte('{')
	for i, name := range names {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(quoteJSON(name))
		b.WriteByte(':')
		v, err := keyValue(k[name])
		if err != nil {
			return "", invalid("key", "attribute %q: %v", name, err)
		}
		b.WriteString(v)
	}
	b.WriteByte('}')
	return b.String(), nil
}

func keyValue(v any) (string, error) {
	switch t := v.(type) {
	case string:
		if decimalInt.MatchString(t) {
			return t, nil
		}
		return quoteJSON(t), nil
	case bool:
		return strconv.FormatBool(t), nil
	case int:
		return strconv.FormatInt(int64(t), 10), nil
	case int8:
		return strconv.FormatInt(int64(t), 10), nil
	case int16:
		return strconv.FormatInt(int64(t), 10), nil
	case int32:
		return strconv.FormatInt(int64(t), 10), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case uint:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(t), 10), nil
	case uint64:
		return strconv.FormatUint(t, 10), nil
	case json.Number:
		if _, err := t.Int64(); err != nil {
			return "", err
		}
		return t.String(), nil
	case nil:
		return "", errors.New("value is null")
	}
	return "", fmt.Errorf("unsupported type %T", v)
}

// ParseKey decodes a JSON object into a PrimaryKey. Numbers must be integers.
func ParseKey(s string) (PrimaryKey, error) {
	dec := json.NewDecoder(strings.NewReader(s))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, invalid("key", "not a JSON object: %v", err)
	}
	if dec.More() {
		return nil, invalid("key", "trailing data after JSON object")
	}
	key := make(PrimaryKey, len(raw))
	for name, v := range raw {
		if n, ok := v.(json.Number); ok {
			i, err := n.Int64()
			if err != nil {
				return nil, invalid("key", "attribute %q is not an integer", name)
			}
			v = i
		}
		key[name] = v
	}
	if _, err := key.Canonical(); err != nil {
		return nil, err
	}
	return key, nil
}

func quoteJSON(s string) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	return strings.TrimSuffix(buf.String(), "\n")
}
