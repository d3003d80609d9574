package team

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamposts/teamposts/internal/database/dberr"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new team record, assigning its ID when empty.
func (r *PostgresRepository) Create(ctx context.Context, t *Team) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx, `INSERT INTO teams (id, name) VALUES ($1, $2)`, t.ID, t.Name)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicateTeamName
		}
		return dberr.Wrap("inserting team", err)
	}

	return nil
}

// GetByName retrieves a single team by its unique name.
func (r *PostgresRepository) GetByName(ctx context.Context, name string) (*Team, error) {
	return r.scanOne(ctx, `SELECT id, name FROM teams WHERE name = $1`, name)
}

// Delete removes the team, its keys and its posts in one transaction.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return dberr.Wrap("starting transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var tag pgconn.CommandTag
	for _, stmt := range deleteStatements {
		tag, err = tx.Exec(ctx, fmt.Sprintf(stmt, "$1"), id)
		if err != nil {
			return dberr.Wrap("deleting team", err)
		}
	}
	if tag.RowsAffected() == 0 {
		return ErrTeamNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return dberr.Wrap("committing team delete", err)
	}
	return nil
}

func (r *PostgresRepository) scanOne(ctx context.Context, query string, arg any) (*Team, error) {
	var t Team
	err := r.pool.QueryRow(ctx, query, arg).Scan(&t.ID, &t.Name)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTeamNotFound
		}
		return nil, dberr.Wrap("querying team", err)
	}

	return &t, nil
}
