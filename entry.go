package recordtrail

import (
	"time"
)

// History is the ordered change log of one record.
type History struct {
	Table   string  `json:"table"`
	Key     string  `json:"key"`
	Entries []Entry `json:"entries"`
}

// Entry is one recorded change, i.e. one master log row.
type Entry struct {
	ID         int64             `json:"id"`
	Kind       Kind              `json:"kind"`
	Actor      string            `json:"actor"`
	ChangedAt  time.Time         `json:"changed_at"`
	Attributes []AttributeChange `json:"attributes"`
}

// AttributeChange is one detail row. Nil means absent or NULL.
type AttributeChange struct {
	Name string  `json:"name"`
	Old  *string `json:"old"`
	New  *string `json:"new"`
}

// Attribute returns the change of the named attribute within the entry.
func (e Entry) Attribute(name string) (AttributeChange, bool) {
	for _, a := range e.Attributes {
		if a.Name == name {
			return a, true
		}
	}
	return AttributeChange{}, false
}

// Changes returns the attribute changes keyed by name.
func (e Entry) Changes() map[string]AttributeChange {
	m := make(map[string]AttributeChange, len(e.Attributes))
	for _, a := range e.Attributes {
		m[a.Name] = a
	}
	return m
}
