package post

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/teamposts/teamposts/internal/database/dberr"
)

const sqliteColumns = `
	p.id, p.team_id, t.name, p.author_name, p.content, p.tags,
	p.created_at, p.parent_post_id, p.deleted`

// SQLiteRepository implements Repository on a sqlite3 database/sql handle.
// Tags are stored as a JSON array and created_at as Unix nanoseconds.
type SQLiteRepository struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteRepository creates a new Repository backed by db.
func NewSQLiteRepository(db *sql.DB) Repository {
	return &SQLiteRepository{db: db, now: time.Now}
}

// Create inserts a new post.
func (r *SQLiteRepository) Create(ctx context.Context, p *Post) error {
	p.prepare(uuid.NewString, r.now())

	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return fmt.Errorf("encoding tags: %w", err)
	}

	query := `
		INSERT INTO posts (id, team_id, author_name, content, tags, created_at, parent_post_id, deleted)
		VALUES (?, ?, ?, ?, ?, ?, ?, 0)`

	_, err = r.db.ExecContext(ctx, query,
		p.ID, p.TeamID, p.AuthorName, p.Content, string(tags), p.Timestamp.UnixNano(), p.ParentPostID,
	)
	if err != nil {
		return dberr.Wrap("inserting post", err)
	}

	return nil
}

// GetByID retrieves a single non-deleted post of a team.
func (r *SQLiteRepository) GetByID(ctx context.Context, teamID, id string) (*Post, error) {
	query := `SELECT ` + sqliteColumns + `
		FROM posts p
		JOIN teams t ON t.id = p.team_id
		WHERE p.id = ? AND p.team_id = ? AND p.deleted = 0`

	p, err := scanSQLite(r.db.QueryRowContext(ctx, query, id, teamID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, dberr.Wrap("querying post", err)
	}

	return p, nil
}

// List retrieves one page of a team's non-deleted posts, newest first.
func (r *SQLiteRepository) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM posts WHERE team_id = ? AND deleted = 0`, f.TeamID,
	).Scan(&total)
	if err != nil {
		return nil, dberr.Wrap("counting posts", err)
	}

	// TODO: add p.id as a secondary sort key so equal timestamps paginate
	// deterministically across pages.
	query := `SELECT ` + sqliteColumns + `
		FROM posts p
		JOIN teams t ON t.id = p.team_id
		WHERE p.team_id = ? AND p.deleted = 0
		ORDER BY p.created_at DESC
		LIMIT ? OFFSET ?`

	rows, err := r.db.QueryContext(ctx, query, f.TeamID, f.Limit, f.Offset)
	if err != nil {
		return nil, dberr.Wrap("listing posts", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanSQLite(rows)
		if err != nil {
			return nil, dberr.Wrap("scanning post row", err)
		}
		posts = append(posts, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap("iterating post rows", err)
	}

	return newListResult(posts, total, f), nil
}

// SoftDelete sets deleted on a live post of the team.
func (r *SQLiteRepository) SoftDelete(ctx context.Context, teamID, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE posts SET deleted = 1 WHERE id = ? AND team_id = ? AND deleted = 0`,
		id, teamID,
	)
	if err != nil {
		return dberr.Wrap("deleting post", err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return dberr.Wrap("deleting post", err)
	}
	if n == 0 {
		return ErrNotFound
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLite(row rowScanner) (*Post, error) {
	var (
		p         Post
		tags      string
		createdAt int64
	)
	err := row.Scan(
		&p.ID, &p.TeamID, &p.TeamName, &p.AuthorName, &p.Content, &tags,
		&createdAt, &p.ParentPostID, &p.Deleted,
	)
	if err != nil {
		return nil, err
	}

	p.Timestamp = time.Unix(0, createdAt).UTC()
	if tags != "" {
		if err := json.Unmarshal([]byte(tags), &p.Tags); err != nil {
			return nil, fmt.Errorf("decoding tags: %w", err)
		}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}
