// Package seed populates a database with the demo and test teams used for
// local development.
package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/teamposts/teamposts/internal/auth"
	"github.com/teamposts/teamposts/internal/database"
	"github.com/teamposts/teamposts/internal/post"
	"github.com/teamposts/teamposts/internal/team"
)

// TeamSpec describes a team to create along with its key and posts.
type TeamSpec struct {
	Name  string
	Key   string
	Posts []PostSpec
}

// PostSpec describes a post. Replies are created after their parent and
// point at it.
type PostSpec struct {
	Author  string
	Content string
	Tags    []string
	Replies []PostSpec
}

// DefaultTeams returns the "demo" team with four posts (one of them a reply)
// and the empty "test-team".
func DefaultTeams() []TeamSpec {
	return []TeamSpec{
		{
			Name: "demo",
			Key:  "demo-key-12345",
			Posts: []PostSpec{
				{
					Author:  "alice",
					Content: "Welcome to the demo team! This is our first post.",
					Tags:    []string{"welcome", "announcement"},
					Replies: []PostSpec{{
						Author:  "diana",
						Content: "Great to see everyone getting started!",
						Tags:    []string{"reply"},
					}},
				},
				{
					Author:  "bob",
					Content: "Thanks Alice! Excited to be here and collaborate.",
					Tags:    []string{"reply", "thanks"},
				},
				{
					Author:  "charlie",
					Content: "Here's an update on the project status. Everything looks good!",
					Tags:    []string{"update", "project", "status"},
				},
			},
		},
		{
			Name: "test-team",
			Key:  "test-key-67890",
		},
	}
}

// Options controls a seeding run.
type Options struct {
	// GenerateKeys replaces the fixed keys with freshly generated ones.
	GenerateKeys bool
}

// TeamResult reports what happened to one team.
type TeamResult struct {
	Name    string
	Key     string
	Posts   int
	Skipped bool
}

// Seeder creates teams, keys and posts through the repositories.
type Seeder struct {
	teams  team.Repository
	keys   *auth.Service
	posts  post.Repository
	logger *zap.Logger
}

// New creates a Seeder over repos.
func New(repos database.Repositories, logger *zap.Logger) *Seeder {
	return &Seeder{
		teams:  repos.Teams,
		keys:   auth.NewService(repos.Keys),
		posts:  repos.Posts,
		logger: logger,
	}
}

// Run creates every team in specs. Teams that already exist are left
// untouched, so running twice is safe. A team whose key or posts fail to
// insert is deleted again before Run returns the error.
func (s *Seeder) Run(ctx context.Context, specs []TeamSpec, opts Options) ([]TeamResult, error) {
	results := make([]TeamResult, 0, len(specs))
	for _, spec := range specs {
		res, err := s.seedTeam(ctx, spec, opts)
		if err != nil {
			return results, fmt.Errorf("seeding team %q: %w", spec.Name, err)
		}
		results = append(results, res)
	}
	return results, nil
}

func (s *Seeder) seedTeam(ctx context.Context, spec TeamSpec, opts Options) (TeamResult, error) {
	res := TeamResult{Name: spec.Name}

	_, err := s.teams.GetByName(ctx, spec.Name)
	switch {
	case err == nil:
		s.logger.Info("team already exists, skipping", zap.String("team_name", spec.Name))
		res.Skipped = true
		return res, nil
	case !errors.Is(err, team.ErrTeamNotFound):
		return res, fmt.Errorf("looking up team: %w", err)
	}

	t := &team.Team{Name: spec.Name}
	if err := s.teams.Create(ctx, t); err != nil {
		return res, fmt.Errorf("creating team: %w", err)
	}

	key, n, err := s.populate(ctx, t, spec, opts)
	if err != nil {
		s.rollback(ctx, t)
		return res, err
	}
	res.Key = key
	res.Posts = n

	s.logger.Info("seeded team",
		zap.String("team_name", t.Name),
		zap.Int("posts", n),
		zap.Bool("generated_key", opts.GenerateKeys),
	)
	return res, nil
}

// populate issues the team's key and creates its posts.
func (s *Seeder) populate(ctx context.Context, t *team.Team, spec TeamSpec, opts Options) (string, int, error) {
	rawKey := spec.Key
	if opts.GenerateKeys {
		rawKey = ""
	}
	key, err := s.keys.IssueKey(ctx, t.ID, rawKey)
	if err != nil {
		return "", 0, fmt.Errorf("issuing api key: %w", err)
	}

	n, err := s.createPosts(ctx, t, spec.Posts, nil)
	if err != nil {
		return "", n, err
	}
	return key.Key, n, nil
}

// rollback removes a partly seeded team so the next run seeds it again.
func (s *Seeder) rollback(ctx context.Context, t *team.Team) {
	if err := s.teams.Delete(context.WithoutCancel(ctx), t.ID); err != nil {
		s.logger.Error("failed to roll back partly seeded team",
			zap.String("team_name", t.Name),
			zap.Error(err),
		)
		return
	}
	s.logger.Warn("rolled back partly seeded team", zap.String("team_name", t.Name))
}

func (s *Seeder) createPosts(ctx context.Context, t *team.Team, specs []PostSpec, parentID *string) (int, error) {
	created := 0
	for _, ps := range specs {
		p := &post.Post{
			TeamID:       t.ID,
			TeamName:     t.Name,
			AuthorName:   ps.Author,
			Content:      ps.Content,
			Tags:         ps.Tags,
			ParentPostID: parentID,
		}
		if err := s.posts.Create(ctx, p); err != nil {
			return created, fmt.Errorf("creating post by %s: %w", ps.Author, err)
		}
		created++

		n, err := s.createPosts(ctx, t, ps.Replies, &p.ID)
		created += n
		if err != nil {
			return created, err
		}
	}
	return created, nil
}
