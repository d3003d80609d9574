package dberr_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"

	"github.com/teamposts/teamposts/internal/database/dberr"
)

func TestWrap_Nil(t *testing.T) {
	assert.NoError(t, dberr.Wrap("op", nil))
}

func TestWrap_PostgresConstraint(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", Message: "duplicate key value violates unique constraint"}

	err := dberr.Wrap("inserting team", fmt.Errorf("exec: %w", pgErr))

	var ie *dberr.IntegrityError
	assert.True(t, errors.As(err, &ie))
	assert.Equal(t, "inserting team", ie.Op)
	assert.True(t, dberr.IsUniqueViolation(err))
	assert.Equal(t, "duplicate key value violates unique constraint", dberr.Message(err))
}

func TestWrap_PostgresNotNullIsIntegrity(t *testing.T) {
	err := dberr.Wrap("op", &pgconn.PgError{Code: "23502"})

	var ie *dberr.IntegrityError
	assert.True(t, errors.As(err, &ie))
	assert.False(t, dberr.IsUniqueViolation(err))
}

func TestWrap_PostgresOtherError(t *testing.T) {
	err := dberr.Wrap("op", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"})

	var qe *dberr.QueryError
	assert.True(t, errors.As(err, &qe))
	assert.False(t, dberr.IsConstraintViolation(err))
}

func TestWrap_SQLiteConstraint(t *testing.T) {
	liteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}

	err := dberr.Wrap("inserting key", liteErr)

	var ie *dberr.IntegrityError
	assert.True(t, errors.As(err, &ie))
	assert.True(t, dberr.IsUniqueViolation(err))
}

func TestWrap_SQLiteBusyIsQueryError(t *testing.T) {
	err := dberr.Wrap("op", sqlite3.Error{Code: sqlite3.ErrBusy})

	var qe *dberr.QueryError
	assert.True(t, errors.As(err, &qe))
}

func TestWrap_PlainError(t *testing.T) {
	cause := errors.New("connection refused")

	err := dberr.Wrap("listing posts", cause)

	var qe *dberr.QueryError
	assert.True(t, errors.As(err, &qe))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "listing posts: connection refused", err.Error())
	assert.Equal(t, "connection refused", dberr.Message(err))
}
