package recordtrail

// Delta is one changed attribute. Old and New are nil when the value is absent or NULL.
type Delta struct {
	Name string  `json:"name"`
	Old  *string `json:"old"`
	New  *string `json:"new"`
}

// Diff returns the attributes that differ between before and after for the
// given kind. Values are compared through their stored text form, so 5 and "5"
// are equal. The result lists attributes of before in order, followed by
// attributes present only in after.
//
// Create only looks at after and Delete only looks at before. Attributes
// whose value is nil on the inspected side are skipped for both.
func Diff(before, after Values, kind Kind) ([]Delta, error) {
	if !kind.Valid() {
		return nil, invalid("kind", "unknown change kind %d", byte(kind))
	}
	if err := before.validate("old"); err != nil {
		return nil, err
	}
	if err := after.validate("new"); err != nil {
		return nil, err
	}

	switch kind {
	case KindCreate:
		return oneSided(after, false)
	case KindDelete:
		return oneSided(before, true)
	}

	var out []Delta
	seen := make(map[string]struct{}, len(before))
	for _, a := range before {
		seen[a.Name] = struct{}{}
		oldText, err := encodeAttr(a)
		if err != nil {
			return nil, err
		}
		var newText *string
		if v, ok := after.Get(a.Name); ok {
			if newText, err = encodeAttr(Attribute{Name: a.Name, Value: v}); err != nil {
				return nil, err
			}
		}
		if !sameText(oldText, newText) {
			out = append(out, Delta{Name: a.Name, Old: oldText, New: newText})
		}
	}
	for _, a := range after {
		if _, ok := seen[a.Name]; ok {
			continue
		}
		newText, err := encodeAttr(a)
		if err != nil {
			return nil, err
		}
		if newText != nil {
			out = append(out, Delta{Name: a.Name, New: newText})
		}
	}
	return out, nil
}

func oneSided(vals Values, old bool) ([]Delta, error) {
	var out []Delta
	for _, a := range vals {
		text, err := encodeAttr(a)
		if err != nil {
			return nil, err
		}
		if text == nil {
			continue
		}
		if old {
			out = append(out, Delta{Name: a.Name, Old: text})
		} else {
			out = append(out, Delta{Name: a.Name, New: text})
		}
	}
	return out, nil
}

// precomputed turns caller supplied changed values into deltas without comparing them.
func precomputed(before, after Values, kind Kind) ([]Delta, error) {
	if err := before.validate("old"); err != nil {
		return nil, err
	}
	if err := after.validate("new"); err != nil {
		return nil, err
	}

	switch kind {
	case KindCreate:
		if len(after) == 0 {
			return nil, invalid("new", "create requires new values")
		}
		out := make([]Delta, 0, len(after))
		for _, a := range after {
			text, err := encodeAttr(a)
			if err != nil {
				return nil, err
			}
			out = append(out, Delta{Name: a.Name, New: text})
		}
		return out, nil
	case KindDelete:
		if len(before) == 0 {
			return nil, invalid("old", "delete requires old values")
		}
		out := make([]Delta, 0, len(before))
		for _, a := range before {
			text, err := encodeAttr(a)
			if err != nil {
				return nil, err
			}
			out = append(out, Delta{Name: a.Name, Old: text})
		}
		return out, nil
	case KindUpdate:
		if len(before) == 0 || len(after) == 0 {
			return nil, invalid("values", "update requires both old and new values")
		}
		out := make([]Delta, 0, len(before))
		for _, a := range before {
			v, ok := after.Get(a.Name)
			if !ok {
				return nil, invalid("new", "attribute %q has an old value but no new value", a.Name)
			}
			oldText, err := encodeAttr(a)
			if err != nil {
				return nil, err
			}
			newText, err := encodeAttr(Attribute{Name: a.Name, Value: v})
			if err != nil {
				return nil, err
			}
			if oldText == nil {
				return nil, invalid("old", "attribute %q has no old value", a.Name)
			}
			if newText == nil {
				return nil, invalid("new", "attribute %q has no new value", a.Name)
			}
			out = append(out, Delta{Name: a.Name, Old: oldText, New: newText})
		}
		for _, a := range after {
			if _, ok := before.Get(a.Name); !ok {
				return nil, invalid("old", "attribute %q has a new value but no old value", a.Name)
			}
		}
		return out, nil
	}
	return nil, invalid("kind", "unknown change kind %d", byte(kind))
}

func encodeAttr(a Attribute) (*string, error) {
	text, err := EncodeValue(a.Value)
	if err != nil {
		return nil, invalid("values", "attribute %q: %v", a.Name, err)
	}
	return text, nil
}

func sameText(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
