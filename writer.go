package recordtrail

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mickamy/recordtrail/internal/ident"
	"github.com/mickamy/recordtrail/internal/query"
)

// Change describes one mutation of one record.
type Change struct {
	Table string
	Key   PrimaryKey
	Kind  Kind
	Actor string // falls back to WithActor
	Old   Values
	New   Values
	// Precomputed marks Old and New as the already known changed attributes.
	// An update then needs a non-nil old and new value for every attribute.
	Precomputed bool
}

// Receipt maps the stored master id to the ids of its detail rows, in insertion order.
type Receipt struct {
	ID        int64   `json:"id"`
	DetailIDs []int64 `json:"detail_ids"`
}

// Writer persists changes, one transaction per change.
type Writer struct {
	dialect      Dialect
	insertMaster string
	insertDetail string
	redact       RedactMap
	empty        EmptyChange
	txOpts       *sql.TxOptions
	clock        func() time.Time
	logger       *zap.Logger
	observer     Observer
	publisher    Publisher
	tracer       trace.Tracer
}

func newWriter(cfg Config, tables query.Tables) *Writer {
	return &Writer{
		dialect:      cfg.Dialect,
		insertMaster: query.InsertMaster(tables),
		insertDetail: query.InsertDetail(tables),
		redact:       cfg.Redact,
		empty:        cfg.EmptyChange,
		txOpts:       cfg.TxOptions,
		clock:        cfg.Clock,
		logger:       cfg.Logger,
		observer:     cfg.Observer,
		publisher:    cfg.Publisher,
		tracer:       cfg.Tracer,
	}
}

type prepared struct {
	table  string
	key    string
	kind   Kind
	actor  string
	at     time.Time
	deltas []Delta
	meta   meta
}

// Record writes one master row and one detail row per changed attribute in a
// single transaction. Input is validated before the transaction starts. On any
// storage failure the transaction is rolled back and a *StorageError is returned.
func (w *Writer) Record(ctx context.Context, db Beginner, c Change) (rec Receipt, err error) {
	if extractSkip(ctx) {
		return Receipt{}, nil
	}

	ctx, span := w.tracer.Start(ctx, "recordtrail.Record", trace.WithAttributes(
		attribute.String("recordtrail.table", c.Table),
		attribute.String("recordtrail.kind", c.Kind.String()),
	))
	start := time.Now()
	changes := 0
	defer func() {
		w.observer.ObserveRecord(c.Table, c.Kind, changes, time.Since(start), err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	p, err := w.prepare(ctx, c)
	if err != nil {
		return Receipt{}, err
	}
	changes = len(p.deltas)

	if len(p.deltas) == 0 {
		switch w.empty {
		case EmptyReject:
			return Receipt{}, ErrEmptyChange
		case EmptySkip:
			w.logger.Debug("recordtrail: empty change skipped", zap.String("table", p.table), zap.String("key", p.key))
			return Receipt{}, nil
		}
	}

	rec, err = w.write(ctx, db, p)
	if err != nil {
		return Receipt{}, err
	}
	span.SetAttributes(attribute.Int64("recordtrail.log_id", rec.ID))
	w.logger.Debug("recordtrail: change recorded",
		zap.String("table", p.table),
		zap.String("key", p.key),
		zap.Stringer("kind", p.kind),
		zap.Int64("id", rec.ID),
		zap.Int("details", len(rec.DetailIDs)),
	)
	w.publish(ctx, p, rec)
	return rec, nil
}

func (w *Writer) prepare(ctx context.Context, c Change) (prepared, error) {
	if !ident.Valid(c.Table) {
		return prepared{}, invalid("table", "%q is not a valid table name", c.Table)
	}
	key, err := c.Key.Canonical()
	if err != nil {
		return prepared{}, err
	}
	if !c.Kind.Valid() {
		return prepared{}, invalid("kind", "unknown change kind %d", byte(c.Kind))
	}
	m := extractMeta(ctx)
	actor := c.Actor
	if actor == "" {
		actor = m.actor
	}
	if actor == "" {
		return prepared{}, invalid("actor", "actor is empty")
	}

	before := applyRedact(w.redact, c.Old)
	after := applyRedact(w.redact, c.New)
	var deltas []Delta
	if c.Precomputed {
		deltas, err = precomputed(before, after, c.Kind)
	} else {
		deltas, err = Diff(before, after, c.Kind)
	}
	if err != nil {
		return prepared{}, err
	}

	return prepared{
		table:  c.Table,
		key:    key,
		kind:   c.Kind,
		actor:  actor,
		at:     w.clock().UTC().Truncate(time.Microsecond),
		deltas: deltas,
		meta:   m,
	}, nil
}

func (w *Writer) write(ctx context.Context, db Beginner, p prepared) (Receipt, error) {
	tx, err := db.BeginTx(ctx, w.txOpts)
	if err != nil {
		return Receipt{}, &StorageError{Op: "begin transaction", Err: err}
	}

	id, err := w.dialect.InsertID(ctx, tx, w.insertMaster, p.table, p.key, p.at, p.kind.Code(), p.actor)
	if err != nil {
		return Receipt{}, w.rollback(tx, "insert log record", err)
	}

	detailIDs := make([]int64, 0, len(p.deltas))
	for _, d := range p.deltas {
		did, err := w.dialect.InsertID(ctx, tx, w.insertDetail, id, d.Name, nullString(d.Old), nullString(d.New))
		if err != nil {
			return Receipt{}, w.rollback(tx, "insert log record detail", err)
		}
		detailIDs = append(detailIDs, did)
	}

	if err := tx.Commit(); err != nil {
		return Receipt{}, &StorageError{Op: "commit", Err: err}
	}
	return Receipt{ID: id, DetailIDs: detailIDs}, nil
}

func (w *Writer) rollback(tx *sql.Tx, op string, cause error) error {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		w.logger.Warn("recordtrail: rollback failed", zap.String("op", op), zap.Error(err))
	}
	return &StorageError{Op: op, Err: cause}
}

func (w *Writer) publish(ctx context.Context, p prepared, rec Receipt) {
	if w.publisher == nil {
		return
	}
	ev := &Event{
		ID:        uuid.New(),
		LogID:     rec.ID,
		Table:     p.table,
		Key:       p.key,
		Kind:      p.kind,
		Actor:     p.actor,
		ChangedAt: p.at,
		TraceID:   p.meta.traceID,
		Reason:    p.meta.reason,
		Changes:   p.deltas,
	}
	if err := w.publisher.Publish(ctx, ev); err != nil {
		w.logger.Warn("recordtrail: failed to publish change event",
			zap.String("table", p.table),
			zap.Int64("id", rec.ID),
			zap.Error(err),
		)
	}
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
