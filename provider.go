package recordtrail

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/mickamy/recordtrail/internal/ident"
	"github.com/mickamy/recordtrail/internal/query"
)

// Beginner starts transactions. *sql.DB, *sql.Conn and *sqlx.DB satisfy it.
type Beginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// Querier runs read queries. *sql.DB, *sql.Conn, *sql.Tx and *sqlx.DB satisfy it.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Execer runs statements without results.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Dialect adapts statements to one database backend.
type Dialect interface {
	// Name is the canonical backend name, e.g. "postgres".
	Name() string
	// Rebind converts '?' placeholders to the backend's bind style.
	Rebind(q string) string
	// Quote renders qualified identifier parts.
	Quote(parts []string) string
	// InsertID executes an INSERT written with '?' placeholders and returns the generated id.
	InsertID(ctx context.Context, tx *sql.Tx, q string, args ...any) (int64, error)
	// DDL returns the statements creating both log tables, given their quoted names.
	DDL(master, detail string) []string
}

// Postgres is the dialect for PostgreSQL, used with the pgx or lib/pq drivers.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) Rebind(q string) string { return sqlx.Rebind(sqlx.DOLLAR, q) }

func (Postgres) Quote(parts []string) string { return ident.QuoteQualified(parts) }

func (d Postgres) InsertID(ctx context.Context, tx *sql.Tx, q string, args ...any) (int64, error) {
	q, _ = query.AppendReturning(q, "id")
	var id int64
	if err := tx.QueryRowContext(ctx, d.Rebind(q), args...).Scan(&id); err != nil {
		return 0, err
	}
	return id, nil
}

func (Postgres) DDL(master, detail string) []string {
	return []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id BIGSERIAL PRIMARY KEY,
    table_name TEXT NOT NULL,
    rec_id TEXT NOT NULL,
    ts_change TIMESTAMP(6) NOT NULL,
    rec_type CHAR(1) NOT NULL CHECK (rec_type IN ('C', 'U', 'D')),
    by_user TEXT NOT NULL
)`, master),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id BIGSERIAL PRIMARY KEY,
    id_log_record BIGINT NOT NULL REFERENCES %s (id) ON DELETE CASCADE,
    col_name TEXT NOT NULL,
    old_value TEXT,
    new_value TEXT
)`, detail, master),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_log_record_lookup ON %s (table_name, rec_id, ts_change, id)`, master),
		fmt.Sprintf(`CREATE INDEX IF NOT EXISTS idx_log_record_detail_master ON %s (id_log_record, id)`, detail),
	}
}

// MySQL is the dialect for MySQL and MariaDB. The connection must use parseTime=true.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) Rebind(q string) string { return sqlx.Rebind(sqlx.QUESTION, q) }

func (MySQL) Quote(parts []string) string { return ident.QuoteQualifiedWith(parts, ident.Backtick) }

func (d MySQL) InsertID(ctx context.Context, tx *sql.Tx, q string, args ...any) (int64, error) {
	res, err := tx.ExecContext(ctx, d.Rebind(q), args...)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (MySQL) DDL(master, detail string) []string {
	return []string{
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    table_name VARCHAR(128) NOT NULL,
    rec_id VARCHAR(255) NOT NULL,
    ts_change DATETIME(6) NOT NULL,
    rec_type CHAR(1) NOT NULL,
    by_user VARCHAR(255) NOT NULL,
    KEY idx_log_record_lookup (table_name, rec_id, ts_change, id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, master),
		fmt.Sprintf(`
CREATE TABLE IF NOT EXISTS %s (
    id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
    id_log_record BIGINT NOT NULL,
    col_name VARCHAR(255) NOT NULL,
    old_value LONGTEXT NULL,
    new_value LONGTEXT NULL,
    KEY idx_log_record_detail_master (id_log_record, id),
    CONSTRAINT fk_log_record_detail_master FOREIGN KEY (id_log_record) REFERENCES %s (id) ON DELETE CASCADE
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`, detail, master),
	}
}

// DialectFor maps a database/sql driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "postgres", "postgresql", "pgx":
		return Postgres{}, nil
	case "mysql", "mariadb":
		return MySQL{}, nil
	}
	return nil, fmt.Errorf("recordtrail: unsupported driver %q", driver)
}
