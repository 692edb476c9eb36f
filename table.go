package recordtrail

import (
	"reflect"
	"strings"
	"unicode"

	"github.com/jinzhu/inflection"

	"github.com/mickamy/recordtrail/internal/ident"
)

// TableNamer provides a custom logical table name for a model.
type TableNamer interface {
	TableName() string
}

var tableNamerType = reflect.TypeOf((*TableNamer)(nil)).Elem()

// TableOf resolves the logical table name of target. Strings are taken as is,
// TableNamer implementations are asked, and other structs map to the snake_case
// plural of their type name (OrderItem becomes order_items).
func TableOf(target any) (string, error) {
	name, err := resolveTableName(target)
	if err != nil {
		return "", err
	}
	if !ident.Valid(name) {
		return "", invalid("table", "%q is not a valid table name", name)
	}
	return name, nil
}

func resolveTableName(target any) (string, error) {
	switch v := target.(type) {
	case nil:
		return "", invalid("table", "nil table target")
	case string:
		return nonEmpty(v, target)
	case TableNamer:
		return nonEmpty(v.TableName(), target)
	}

	val := reflect.ValueOf(target)
	typ := val.Type()
	if typ.Kind() == reflect.Pointer {
		if val.IsNil() {
			return "", invalid("table", "nil pointer target %T", target)
		}
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return "", invalid("table", "unsupported table target %T", target)
	}
	if reflect.PointerTo(typ).Implements(tableNamerType) {
		if namer, ok := reflect.New(typ).Interface().(TableNamer); ok {
			return nonEmpty(namer.TableName(), target)
		}
	}
	if typ.Name() == "" {
		return "", invalid("table", "cannot derive table name for anonymous struct of type %v", typ)
	}
	return inflection.Plural(toSnakeCase(typ.Name())), nil
}

func nonEmpty(name string, target any) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", invalid("table", "empty table name for %T", target)
	}
	return name, nil
}

func toSnakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			if i > 0 && (unicode.IsLower(runes[i-1]) || (i+1 < len(runes) && unicode.IsLower(runes[i+1]))) {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		} else {
			b.WriteRune(r)
		}
	}
	return b.String()
}
