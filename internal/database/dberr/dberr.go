// Package dberr classifies driver errors from either storage backend so the
// API layer can map them without knowing which database is in use.
package dberr

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

// IntegrityError reports a violated storage constraint (unique, not-null,
// foreign key, check).
type IntegrityError struct {
	Op  string
	Err error
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: constraint violation: %v", e.Op, e.Err)
}

func (e *IntegrityError) Unwrap() error { return e.Err }

// QueryError reports any other failure returned by the database driver.
type QueryError struct {
	Op  string
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }

// Wrap classifies err as an IntegrityError or QueryError. A nil err stays nil.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsConstraintViolation(err) {
		return &IntegrityError{Op: op, Err: err}
	}
	return &QueryError{Op: op, Err: err}
}

// IsConstraintViolation reports whether err is a Postgres class 23 error or
// a SQLite constraint error.
func IsConstraintViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return strings.HasPrefix(pgErr.Code, "23")
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.Code == sqlite3.ErrConstraint
	}
	return false
}

// IsUniqueViolation reports whether err is a unique or primary key violation.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// Message returns the driver's own text for err, for operator diagnostics.
func Message(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Message
	}
	var ie *IntegrityError
	if errors.As(err, &ie) {
		return ie.Err.Error()
	}
	var qe *QueryError
	if errors.As(err, &qe) {
		return qe.Err.Error()
	}
	return err.Error()
}
