package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// CheckNoRows translates sql.ErrNoRows into outErr and passes anything else through
func CheckNoRows(inErr, outErr error) error {
	if IsNoRows(inErr) {
		return outErr
	}
	return inErr
}

func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// CheckSerializationFailure translates transaction conflicts into outErr
func CheckSerializationFailure(inErr, outErr error) error {
	if IsSerializationFailure(inErr) {
		return outErr
	}
	return inErr
}

// IsSerializationFailure reports whether postgres aborted the transaction
// because it conflicted with a concurrent one. Deadlocks count, since the
// victim is chosen the same way.
func IsSerializationFailure(err error) bool {
	return hasCode(err, pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected)
}

func hasCode(err error, codes ...string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}

	for _, code := range codes {
		if pgErr.Code == code {
			return true
		}
	}
	return false
}
