package ident

import (
	"regexp"
	"strings"
)

// tableName accepts an unquoted table name with an optional single schema qualifier.
var tableName = regexp.MustCompile(`^([A-Za-z_]+\.)?[A-Za-z_]+$`)

// Valid reports whether name is a safe logical table identifier.
func Valid(name string) bool {
	return tableName.MatchString(name)
}

// Qualify returns the identifier parts for table, prefixed by schema when it is set.
func Qualify(schema, table string) []string {
	schema = strings.TrimSpace(schema)
	table = strings.TrimSpace(table)
	if table == "" {
		return nil
	}
	if schema == "" {
		return []string{table}
	}
	return []string{schema, table}
}

// QuoteQualified renders qualified identifier parts as an ANSI SQL identifier.
func QuoteQualified(parts []string) string {
	return QuoteQualifiedWith(parts, Quote)
}

// QuoteQualifiedWith renders qualified identifier parts using the given quoting function.
func QuoteQualifiedWith(parts []string, quote func(string) string) string {
	if len(parts) == 0 {
		return ""
	}
	quoted := make([]string, len(parts))
	for i, p := range parts {
		quoted[i] = quote(p)
	}
	return strings.Join(quoted, ".")
}

// Quote safely quotes a single identifier part with double quotes.
func Quote(part string) string {
	return `"` + strings.ReplaceAll(part, `"`, `""`) + `"`
}

// Backtick safely quotes a single identifier part the MySQL way.
func Backtick(part string) string {
	return "`" + strings.ReplaceAll(part, "`", "``") + "`"
}
