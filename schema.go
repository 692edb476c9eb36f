package recordtrail

import (
	"context"
	"fmt"

	"github.com/mickamy/recordtrail/internal/ident"
)

// Migrate creates log_record and log_record_detail, plus their lookup
// indexes, in schema (or the connection's default schema when empty).
// Existing tables are left untouched.
func Migrate(ctx context.Context, db Execer, d Dialect, schema string) error {
	if d == nil {
		d = Postgres{}
	}
	if schema != "" && !ident.Valid(schema) {
		return invalid("schema", "%q is not a valid schema name", schema)
	}
	master := d.Quote(ident.Qualify(schema, masterTable))
	detail := d.Quote(ident.Qualify(schema, detailTable))
	for _, stmt := range d.DDL(master, detail) {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return &StorageError{Op: fmt.Sprintf("migrate %s", d.Name()), Err: err}
		}
	}
	return nil
}
