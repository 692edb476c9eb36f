package recordtrail

import (
	"context"
	"database/sql"
)

// ScanValues consumes exactly one row from rows into Values, in column order.
// []byte columns are converted to strings. It closes rows and returns
// sql.ErrNoRows when there is no row.
func ScanValues(rows *sql.Rows) (Values, error) {
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	cols, err := rows.Columns()
	if err != nil {
		return nil, err
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, sql.ErrNoRows
	}
	vals := make([]any, len(cols))
	ptrs := make([]any, len(cols))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}
	return rowToValues(cols, vals), nil
}

// SnapshotRow runs q and returns its first row as Values, typically the image
// of a record before or after a mutation.
func SnapshotRow(ctx context.Context, db Querier, q string, args ...any) (Values, error) {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	return ScanValues(rows)
}

func rowToValues(cols []string, vals []any) Values {
	out := make(Values, len(cols))
	for i, c := range cols {
		v := vals[i]
		if b, ok := v.([]byte); ok {
			v = string(b)
		}
		out[i] = Attribute{Name: c, Value: v}
	}
	return out
}
