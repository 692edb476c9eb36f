package database

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/go-sql-driver/mysql" // registers "mysql"
	_ "github.com/jackc/pgx/v5/stdlib" // registers "pgx"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // registers "postgres"

	"github.com/mickamy/recordtrail"
	"github.com/mickamy/recordtrail/internal/config"
)

// DB is the connection holding the log tables, paired with its dialect.
type DB struct {
	*sqlx.DB
	Dialect recordtrail.Dialect
}

// Open connects using cfg and verifies the connection.
func Open(ctx context.Context, cfg config.DatabaseConfig) (*DB, error) {
	dialect, err := cfg.Dialect()
	if err != nil {
		return nil, err
	}
	conn, err := sqlx.Open(cfg.DriverName(), cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open database: %w", config.ErrConfiguration, err)
	}
	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)
	conn.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	if err := conn.PingContext(ctx); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%w: failed to connect to %s:%d: %w", config.ErrConfiguration, cfg.Host, cfg.Port, err)
	}
	return &DB{DB: conn, Dialect: dialect}, nil
}

// Wrap adapts an existing *sql.DB, e.g. one created by sqlmock.
func Wrap(db *sql.DB, driverName string, dialect recordtrail.Dialect) *DB {
	return &DB{DB: sqlx.NewDb(db, driverName), Dialect: dialect}
}

// Healthy pings the database.
func (db *DB) Healthy(ctx context.Context) error {
	return db.PingContext(ctx)
}
