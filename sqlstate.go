package recordtrail

import (
	"errors"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

// SQLState returns the SQLSTATE code of the underlying Postgres error, or the
// error number for MySQL. It is empty when the driver did not report one.
func (e *StorageError) SQLState() string {
	var pgErr *pgconn.PgError
	if errors.As(e.Err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(e.Err, &pqErr) {
		return string(pqErr.Code)
	}
	var myErr *mysql.MySQLError
	if errors.As(e.Err, &myErr) {
		return strconv.Itoa(int(myErr.Number))
	}
	return ""
}

// Temporary reports whether the failure was a serialization failure or a
// deadlock, in which case the whole Record call may be retried as is.
func (e *StorageError) Temporary() bool {
	switch e.SQLState() {
	case "40001", "40P01", // serialization_failure, deadlock_detected
		"1205", "1213": // ER_LOCK_WAIT_TIMEOUT, ER_LOCK_DEADLOCK
		return true
	}
	return false
}
