package auth

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/teamposts/teamposts/internal/database/dberr"
)

// SQLiteRepository implements KeyRepository on a sqlite3 database/sql handle.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new KeyRepository backed by db.
func NewSQLiteRepository(db *sql.DB) KeyRepository {
	return &SQLiteRepository{db: db}
}

// Create inserts a new API key record.
func (r *SQLiteRepository) Create(ctx context.Context, k *APIKey) error {
	if k.ID == "" {
		k.ID = uuid.NewString()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (id, key, team_id) VALUES (?, ?, ?)`,
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
func (r *SQLiteRepository) FindIdentity(ctx context.Context, key string) (*Identity, error) {
	query := `
		SELECT t.id, t.name, k.key
		FROM api_keys k
		JOIN teams t ON t.id = k.team_id
		WHERE k.key = ?`

	var id Identity
	err := r.db.QueryRowContext(ctx, query, key).Scan(&id.TeamID, &id.TeamName, &id.APIKey)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrKeyNotFound
		}
		return nil, dberr.Wrap("querying api key", err)
	}

	return &id, nil
}
