package recordtrail

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mickamy/recordtrail/internal/ident"
	"github.com/mickamy/recordtrail/internal/query"
)

// Reader reconstructs record histories from the log tables.
type Reader struct {
	selectHistory string
	logger        *zap.Logger
	observer      Observer
	tracer        trace.Tracer
}

func newReader(cfg Config, tables query.Tables) *Reader {
	return &Reader{
		selectHistory: cfg.Dialect.Rebind(query.SelectHistory(tables)),
		logger:        cfg.Logger,
		observer:      cfg.Observer,
		tracer:        cfg.Tracer,
	}
}

// historyRow is one row of the master/detail join.
type historyRow struct {
	ID        int64          `db:"id"`
	TableName string         `db:"table_name"`
	RecID     string         `db:"rec_id"`
	TsChange  time.Time      `db:"ts_change"`
	RecType   string         `db:"rec_type"`
	ByUser    string         `db:"by_user"`
	DetailID  sql.NullInt64  `db:"detail_id"`
	ColName   sql.NullString `db:"col_name"`
	OldValue  sql.NullString `db:"old_value"`
	NewValue  sql.NullString `db:"new_value"`
}

// History returns every recorded change of the record identified by table and
// key, oldest first. A record without changes yields an empty History.
func (r *Reader) History(ctx context.Context, db Querier, table string, key PrimaryKey) (h *History, err error) {
	ctx, span := r.tracer.Start(ctx, "recordtrail.History", trace.WithAttributes(
		attribute.String("recordtrail.table", table),
	))
	start := time.Now()
	defer func() {
		n := 0
		if h != nil {
			n = len(h.Entries)
		}
		r.observer.ObserveHistory(table, n, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if !ident.Valid(table) {
		return nil, invalid("table", "%q is not a valid table name", table)
	}
	canonical, err := key.Canonical()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, r.selectHistory, table, canonical)
	if err != nil {
		return nil, &StorageError{Op: "query history", Err: err}
	}
	defer rows.Close()
	var result []historyRow
	if err := sqlx.StructScan(rows, &result); err != nil {
		return nil, &StorageError{Op: "scan history", Err: err}
	}

	return r.fold(table, canonical, result)
}

// fold groups joined rows by master id. Rows must be ordered by change time,
// master id and detail id. Within one entry the first row for an attribute wins.
func (r *Reader) fold(table, key string, rows []historyRow) (*History, error) {
	h := &History{Table: table, Key: key, Entries: []Entry{}}
	var cur *Entry
	var seen map[string]struct{}
	for _, row := range rows {
		if cur == nil || cur.ID != row.ID {
			kind, err := ParseKind(row.RecType)
			if err != nil {
				return nil, &StorageError{Op: "decode history", Err: err}
			}
			h.Entries = append(h.Entries, Entry{
				ID:         row.ID,
				Kind:       kind,
				Actor:      row.ByUser,
				ChangedAt:  row.TsChange.UTC(),
				Attributes: []AttributeChange{},
			})
			cur = &h.Entries[len(h.Entries)-1]
			seen = make(map[string]struct{})
		}
		if !row.DetailID.Valid {
			continue
		}
		if _, dup := seen[row.ColName.String]; dup {
			r.logger.Warn("recordtrail: duplicate attribute in log record",
				zap.Int64("id", row.ID),
				zap.String("attribute", row.ColName.String),
			)
			continue
		}
		seen[row.ColName.String] = struct{}{}
		cur.Attributes = append(cur.Attributes, AttributeChange{
			Name: row.ColName.String,
			Old:  stringPtr(row.OldValue),
			New:  stringPtr(row.NewValue),
		})
	}
	return h, nil
}

func stringPtr(s sql.NullString) *string {
	if !s.Valid {
		return nil
	}
	v := s.String
	return &v
}
