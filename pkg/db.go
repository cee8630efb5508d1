package pkg

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// https://www.postgresql.org/docs/current/errcodes-appendix.html

// IsConstraintViolationError reports whether err is an integrity constraint
// violation, either postgres class 23 or a SQLITE_CONSTRAINT result.
func IsConstraintViolationError(err error) bool {
	var pqErr *pgconn.PgError
	if errors.As(err, &pqErr) {
		return len(pqErr.Code) == 5 && pqErr.Code[:2] == "23"
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		// extended result codes keep the primary code in the low byte
		return sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
	}
	return false
}
