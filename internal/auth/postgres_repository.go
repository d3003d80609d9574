package auth

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamposts/teamposts/internal/database/dberr"
)

// PostgresRepository implements KeyRepository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new KeyRepository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) KeyRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts a new API key record.
func (r *PostgresRepository) Create(ctx context.Context, k *APIKey) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}

	_, err := r.pool.Exec(ctx,
		`INSERT INTO api_keys (id, key, team_id) VALUES ($1, $2, $3)`,
		k.ID, k.Key, k.TeamID,
	)
	if err != nil {
		if dberr.IsUniqueViolation(err) {
			return ErrDuplicateKey
		}
		return dberr.Wrap("inserting api key", err)
	}

	return nil
}

// FindIdentity joins api_keys with teams on an exact key match.
func (r *PostgresRepository) FindIdentity(ctx context.Context, key string) (*Identity, error) {
	query := `
		SELECT t.id, t.name, k.key
		FROM api_keys k
		JOIN teams t ON t.id = k.team_id
		WHERE k.key = $1`

	var id Identity
	err := r.pool.QueryRow(ctx, query, key).Scan(&id.TeamID, &id.TeamName, &id.APIKey)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, dberr.Wrap("querying api key", err)
	}

	return &id, nil
}
