package database

import (
	"github.com/teamposts/teamposts/internal/auth"
	"github.com/teamposts/teamposts/internal/post"
	"github.com/teamposts/teamposts/internal/team"
)

// Repositories bundles the per-table repositories for one backend.
type Repositories struct {
	Teams team.Repository
	Keys  auth.KeyRepository
	Posts post.Repository
}

// Repositories returns repositories bound to db's backend.
func (db *DB) Repositories() Repositories {
	if db.driver == DriverPostgres {
		return Repositories{
			Teams: team.NewPostgresRepository(db.pool),
			Keys:  auth.NewPostgresRepository(db.pool),
			Posts: post.NewPostgresRepository(db.pool),
		}
	}
	return Repositories{
		Teams: team.NewSQLiteRepository(db.sqlDB),
		Keys:  auth.NewSQLiteRepository(db.sqlDB),
		Posts: post.NewSQLiteRepository(db.sqlDB),
	}
}
