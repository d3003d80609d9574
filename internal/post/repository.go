package post

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a post is missing, soft-deleted or owned by
// another team.
var ErrNotFound = errors.New("post not found")

// Repository provides operations on the posts table. Every read excludes
// soft-deleted rows and is scoped to a single team.
type Repository interface {
	// Create inserts p, assigning its ID and Timestamp.
	Create(ctx context.Context, p *Post) error
	GetByID(ctx context.Context, teamID, id string) (*Post, error)
	List(ctx context.Context, filter ListFilter) (*ListResult, error)
	// SoftDelete marks a live post deleted. A post that is already deleted
	// yields ErrNotFound.
	SoftDelete(ctx context.Context, teamID, id string) error
}
