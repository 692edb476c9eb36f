package recordtrail

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/mickamy/recordtrail/internal/ident"
	"github.com/mickamy/recordtrail/internal/query"
)

const (
	masterTable = "log_record"
	detailTable = "log_record_detail"
)

// RedactFunc defines a function used to sanitize or mask values before logging.
type RedactFunc func(key string, v any) any

// RedactMap maps attribute names to specific redaction functions.
type RedactMap map[string]RedactFunc

// Mask returns a RedactFunc replacing every non-nil value with s.
func Mask(s string) RedactFunc {
	return func(_ string, v any) any {
		if v == nil {
			return nil
		}
		return s
	}
}

// EmptyChange decides what Record does when no attribute changed.
type EmptyChange int

const (
	// EmptyCommit writes a master row without detail rows.
	EmptyCommit EmptyChange = iota
	// EmptyReject fails with ErrEmptyChange.
	EmptyReject
	// EmptySkip writes nothing and returns a zero Receipt.
	EmptySkip
)

// ParseEmptyChange accepts "commit", "reject" or "skip". Empty means commit.
func ParseEmptyChange(s string) (EmptyChange, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "commit":
		return EmptyCommit, nil
	case "reject":
		return EmptyReject, nil
	case "skip":
		return EmptySkip, nil
	}
	return 0, fmt.Errorf("recordtrail: unknown empty change policy %q", s)
}

func (p EmptyChange) String() string {
	switch p {
	case EmptyCommit:
		return "commit"
	case EmptyReject:
		return "reject"
	case EmptySkip:
		return "skip"
	}
	return fmt.Sprintf("EmptyChange(%d)", int(p))
}

// Config defines the main configuration options for recordtrail.
type Config struct {
	Dialect     Dialect         // Postgres{} (default) or MySQL{}
	Schema      string          // optional schema holding log_record and log_record_detail
	Redact      RedactMap       // optional attribute-based redaction
	EmptyChange EmptyChange     // policy for changes without changed attributes
	TxOptions   *sql.TxOptions  // nil uses the driver default isolation
	Clock       func() time.Time
	Logger      *zap.Logger
	Observer    Observer
	Publisher   Publisher // optional, called after commit
	Tracer      trace.Tracer
}

// Handler is the main entry point bundling a Writer and a Reader sharing one Config.
type Handler struct {
	*Writer
	*Reader
	cfg Config
}

// New creates a new Handler instance with sensible defaults.
func New(cfg Config) *Handler {
	if cfg.Dialect == nil {
		cfg.Dialect = Postgres{}
	}
	if cfg.Redact == nil {
		cfg.Redact = RedactMap{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Observer == nil {
		cfg.Observer = NoopObserver{}
	}
	if cfg.Tracer == nil {
		cfg.Tracer = otel.Tracer("github.com/mickamy/recordtrail")
	}
	tables := query.Tables{
		Master: cfg.Dialect.Quote(ident.Qualify(cfg.Schema, masterTable)),
		Detail: cfg.Dialect.Quote(ident.Qualify(cfg.Schema, detailTable)),
	}
	return &Handler{
		Writer: newWriter(cfg, tables),
		Reader: newReader(cfg, tables),
		cfg:    cfg,
	}
}

// Dialect returns the dialect the handler was built with.
func (h *Handler) Dialect() Dialect {
	return h.cfg.Dialect
}

// Migrate creates the log tables in the configured schema.
func (h *Handler) Migrate(ctx context.Context, db Execer) error {
	return Migrate(ctx, db, h.cfg.Dialect, h.cfg.Schema)
}

// applyRedact returns a redacted copy of the given values using cfg.Redact.
func applyRedact(redact RedactMap, vals Values) Values {
	if len(vals) == 0 || len(redact) == 0 {
		return vals
	}
	out := make(Values, len(vals))
	for i, a := range vals {
		if fn, ok := redact[a.Name]; ok && fn != nil {
			a.Value = fn(a.Name, a.Value)
		}
		out[i] = a
	}
	return out
}
