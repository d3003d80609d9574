package team

import (
	"context"
	"errors"
)

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrDuplicateTeamName is returned when a team with the same name already exists.
var ErrDuplicateTeamName = errors.New("team name already exists")

// Repository provides operations on the teams table. Teams are created by
// seeding only; the HTTP API never mutates them.
type Repository interface {
	Create(ctx context.Context, team *Team) error
	GetByName(ctx context.Context, name string) (*Team, error)
	// Delete removes a team together with its keys and posts in one
	// transaction.
	Delete(ctx context.Context, id string) error
}

// deleteStatements remove a team's rows children first. Each takes the team
// ID as its only argument.
var deleteStatements = []string{
	`DELETE FROM posts WHERE team_id = %s`,
	`DELETE FROM api_keys WHERE team_id = %s`,
	`DELETE FROM teams WHERE id = %s`,
}
