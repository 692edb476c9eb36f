package query

import (
	"fmt"
	"strings"
)

// Tables holds the already quoted identifiers of the two log tables.
type Tables struct {
	Master string
	Detail string
}

// InsertMaster returns the INSERT for one master log row using '?' placeholders.
func InsertMaster(t Tables) string {
	return fmt.Sprintf(`
INSERT INTO %s (table_name, rec_id, ts_change, rec_type, by_user)
VALUES (?, ?, ?, ?, ?)`, t.Master)
}

// InsertDetail returns the INSERT for one detail log row using '?' placeholders.
func InsertDetail(t Tables) string {
	return fmt.Sprintf(`
INSERT INTO %s (id_log_record, col_name, old_value, new_value)
VALUES (?, ?, ?, ?)`, t.Detail)
}

// SelectHistory returns the master/detail join for one table name and serialized key.
// Masters without detail rows are kept so that empty changes still show up.
func SelectHistory(t Tables) string {
	return fmt.Sprintf(`
SELECT lr.id, lr.table_name, lr.rec_id, lr.ts_change, lr.rec_type, lr.by_user,
       lrd.id AS detail_id, lrd.col_name, lrd.old_value, lrd.new_value
FROM %s lr
LEFT JOIN %s lrd ON lr.id = lrd.id_log_record
WHERE lr.table_name = ? AND lr.rec_id = ?
ORDER BY lr.ts_change, lr.id, lrd.id`, t.Master, t.Detail)
}

// AppendReturning appends "RETURNING <column>" to the provided statement if non-empty.
// It preserves trailing semicolons by re-attaching them after the RETURNING clause.
func AppendReturning(q, column string) (string, bool) {
	trimmed := strings.TrimSpace(q)
	if trimmed == "" || column == "" {
		return q, false
	}

	hasSemicolon := false
	for strings.HasSuffix(trimmed, ";") {
		hasSemicolon = true
		trimmed = strings.TrimSpace(trimmed[:len(trimmed)-1])
	}
	if trimmed == "" {
		return q, false
	}

	var b strings.Builder
	b.WriteString(trimmed)
	b.WriteString("\nRETURNING ")
	b.WriteString(column)
	if hasSemicolon {
		b.WriteString(";")
	}
	return b.String(), true
}
