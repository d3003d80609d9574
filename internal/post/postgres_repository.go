package post

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/teamposts/teamposts/internal/database/dberr"
)

const postgresColumns = `
	p.id, p.team_id, t.name, p.author_name, p.content, p.tags,
	p.created_at, p.parent_post_id, p.deleted`

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewPostgresRepository creates a new Repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) Repository {
	return &PostgresRepository{pool: pool, now: time.Now}
}

// Create inserts a new post. Tags are stored as TEXT[] which keeps their order.
func (r *PostgresRepository) Create(ctx context.Context, p *Post) error {
	p.prepare(uuid.NewString, r.now())

	query := `
		INSERT INTO posts (id, team_id, author_name, content, tags, created_at, parent_post_id, deleted)
		VALUES ($1, $2, $3, $4, $5, $6, $7, FALSE)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.TeamID, p.AuthorName, p.Content, p.Tags, p.Timestamp, p.ParentPostID,
	)
	if err != nil {
		return dberr.Wrap("inserting post", err)
	}

	return nil
}

// GetByID retrieves a single non-deleted post of a team.
func (r *PostgresRepository) GetByID(ctx context.Context, teamID, id string) (*Post, error) {
	query := `SELECT ` + postgresColumns + `
		FROM posts p
		JOIN teams t ON t.id = p.team_id
		WHERE p.id = $1 AND p.team_id = $2 AND p.deleted = FALSE`

	p, err := scanPostgres(r.pool.QueryRow(ctx, query, id, teamID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, dberr.Wrap("querying post", err)
	}

	return p, nil
}

// List retrieves one page of a team's non-deleted posts, newest first.
func (r *PostgresRepository) List(ctx context.Context, f ListFilter) (*ListResult, error) {
	var total int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM posts WHERE team_id = $1 AND deleted = FALSE`, f.TeamID,
	).Scan(&total)
	if err != nil {
		return nil, dberr.Wrap("counting posts", err)
	}

	// TODO: add p.id as a secondary sort key so equal timestamps paginate
	// deterministically across pages.
	query := `SELECT ` + postgresColumns + `
		FROM posts p
		JOIN teams t ON t.id = p.team_id
		WHERE p.team_id = $1 AND p.deleted = FALSE
		ORDER BY p.created_at DESC
		LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, f.TeamID, f.Limit, f.Offset)
	if err != nil {
		return nil, dberr.Wrap("listing posts", err)
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		p, err := scanPostgres(rows)
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
func (r *PostgresRepository) SoftDelete(ctx context.Context, teamID, id string) error {
	result, err := r.pool.Exec(ctx,
		`UPDATE posts SET deleted = TRUE WHERE id = $1 AND team_id = $2 AND deleted = FALSE`,
		id, teamID,
	)
	if err != nil {
		return dberr.Wrap("deleting post", err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func scanPostgres(row pgx.Row) (*Post, error) {
	var p Post
	err := row.Scan(
		&p.ID, &p.TeamID, &p.TeamName, &p.AuthorName, &p.Content, &p.Tags,
		&p.Timestamp, &p.ParentPostID, &p.Deleted,
	)
	if err != nil {
		return nil, err
	}
	p.Timestamp = p.Timestamp.UTC()
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return &p, nil
}
