package pg

import (
	"database/sql"
	"testing"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

var errStale = errors.New("stale")

func TestCheckNoRows(t *testing.T) {
	assert.Equal(t, errStale, CheckNoRows(sql.ErrNoRows, errStale))
	assert.Equal(t, errStale, CheckNoRows(errors.Wrap(sql.ErrNoRows, "scan"), errStale))

	other := errors.New("connection reset")
	assert.Equal(t, other, CheckNoRows(other, errStale))
	assert.Nil(t, CheckNoRows(nil, errStale))
}

func TestCheckSerializationFailure(t *testing.T) {
	for _, code := range []string{pgerrcode.SerializationFailure, pgerrcode.DeadlockDetected} {
		err := errors.Wrap(&pgconn.PgError{Code: code}, "commit")
		assert.True(t, IsSerializationFailure(err), code)
		assert.Equal(t, errStale, CheckSerializationFailure(err, errStale))
	}

	unique := &pgconn.PgError{Code: pgerrcode.UniqueViolation}
	assert.False(t, IsSerializationFailure(unique))
	assert.Equal(t, unique, CheckSerializationFailure(unique, errStale))
	assert.False(t, IsSerializationFailure(nil))
}
