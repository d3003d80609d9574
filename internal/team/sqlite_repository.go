package team

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/teamposts/teamposts/internal/database/dberr"
)

// SQLiteRepository implements Repository on a database/sql handle opened
// with the sqlite3 driver.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new Repository backed by db.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new team record, assigning its ID when empty.
func (r *SQLiteRepository) Create(ctx context.Context, t *Team) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx, `INSERT INTO teams (id, name) VALUES (?, ?)`, t.ID, t.Name)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicateTeamName
		}
		return dberr.Wrap("inserting team", err)
	}

	return nil
}

// GetByName retrieves a single team by its unique name.
func (r *SQLiteRepository) GetByName(ctx context.Context, name string) (*Team, error) {
	return r.scanOne(ctx, `SELECT id, name FROM teams WHERE name = ?`, name)
}

// Delete removes the team, its keys and its posts in one transaction.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return dberr.Wrap("starting transaction", err)
	}
	defer func() { _ = tx.Rollback() }()

	var res sql.Result
	for _, stmt := range deleteStatements {
		res, err = tx.ExecContext(ctx, fmt.Sprintf(stmt, "?"), id)
		if err != nil {
			return dberr.Wrap("deleting team", err)
		}
	}
	n, err := res.RowsAffected()
	if err != nil {
		return dberr.Wrap("deleting team", err)
	}
	if n == 0 {
		return ErrTeamNotFound
	}

	if err := tx.Commit(); err != nil {
		return dberr.Wrap("committing team delete", err)
	}
	return nil
}

func (r *SQLiteRepository) scanOne(ctx context.Context, query string, arg any) (*Team, error) {
	var t Team
	err := r.db.QueryRowContext(ctx, query, arg).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, dberr.Wrap("querying team", err)
	}

	return &t, nil
}
