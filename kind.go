package recordtrail

import (
	"fmt"
	"strings"
)

// Kind is the type of mutation a change describes.
type Kind byte

const (
	KindCreate Kind = 'C'
	KindUpdate Kind = 'U'
	KindDelete Kind = 'D'
)

// ParseKind accepts the stored single letter codes or the words create, update and delete.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "c", "create":
		return KindCreate, nil
	case "u", "update":
		return KindUpdate, nil
	case "d", "delete":
		return KindDelete, nil
	}
	return 0, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown change kind %q", s)}
}

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	return k == KindCreate || k == KindUpdate || k == KindDelete
}

// Code returns the single letter stored in the rec_type column.
func (k Kind) Code() string {
	return string(rune(k))
}

func (k Kind) String() string {
	switch k {
	case KindCreate:
		return "create"
	case KindUpdate:
		return "update"
	case KindDelete:
		return "delete"
	}
	return fmt.Sprintf("Kind(%d)", byte(k))
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, &ValidationError{Field: "kind", Reason: fmt.Sprintf("unknown change kind %d", byte(k))}
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	v, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = v
	return nil
}
