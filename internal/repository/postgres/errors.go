// internal/repository/postgres/errors.go
package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"wager-market/internal/util"
)

const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
	deadlockDetected     = "40P01"
)

// sqlState extracts the SQLSTATE code from either driver's error type.
func sqlState(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

// isUniqueViolation recognises a unique-constraint failure from either driver.
func isUniqueViolation(err error) bool {
	return sqlState(err) == uniqueViolation
}

// isConcurrencyAbort reports whether Postgres aborted the transaction because
// it lost to a concurrent one.
func isConcurrencyAbort(err error) bool {
	switch sqlState(err) {
	case serializationFailure, deadlockDetected:
		return true
	}
	return false
}

// storageError wraps err with context, reporting a transaction aborted by a
// concurrent writer as util.ErrConflict.
func storageError(err error, format string, args ...interface{}) error {
	msg := fmt.Sprintf(format, args...)
	if isConcurrencyAbort(err) {
		return util.Errorf(util.ErrConflict, "%s: concurrent update, retry the request", msg)
	}
	return fmt.Errorf("%s: %w", msg, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern builds an ILIKE pattern matching s anywhere, with wildcards in s escaped.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}
