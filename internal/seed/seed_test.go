package seed_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/teamposts/teamposts/internal/auth"
	"github.com/teamposts/teamposts/internal/database"
	"github.com/teamposts/teamposts/internal/post"
	"github.com/teamposts/teamposts/internal/seed"
	"github.com/teamposts/teamposts/internal/team"
)

func newRepos(t *testing.T) database.Repositories {
	t.Helper()
	ctx := context.Background()
	db, err := database.New(ctx, "sqlite://:memory:")
	require.NoError(t, err)
	t.Cleanup(db.Close)
	require.NoError(t, db.Migrate(ctx))
	return db.Repositories()
}

func TestRun_DefaultTeams(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)

	results, err := seed.New(repos, zap.NewNop()).Run(ctx, seed.DefaultTeams(), seed.Options{})
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, seed.TeamResult{Name: "demo", Key: "demo-key-12345", Posts: 4}, results[0])
	assert.Equal(t, seed.TeamResult{Name: "test-team", Key: "test-key-67890"}, results[1])

	id, err := auth.NewService(repos.Keys).Authenticate(ctx, "demo-key-12345")
	require.NoError(t, err)
	assert.Equal(t, "demo", id.TeamName)

	list, err := repos.Posts.List(ctx, post.ListFilter{TeamID: id.TeamID, Limit: 10})
	require.NoError(t, err)
	require.Equal(t, 4, list.Total)

	byAuthor := map[string]post.Post{}
	for _, p := range list.Posts {
		byAuthor[p.AuthorName] = p
	}
	require.Contains(t, byAuthor, "diana")
	require.NotNil(t, byAuthor["diana"].ParentPostID)
	assert.Equal(t, byAuthor["alice"].ID, *byAuthor["diana"].ParentPostID)
	assert.Equal(t, []string{"update", "project", "status"}, byAuthor["charlie"].Tags)
}

func TestRun_Idempotent(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)
	s := seed.New(repos, zap.NewNop())

	_, err := s.Run(ctx, seed.DefaultTeams(), seed.Options{})
	require.NoError(t, err)

	results, err := s.Run(ctx, seed.DefaultTeams(), seed.Options{})
	require.NoError(t, err)
	for _, r := range results {
		assert.True(t, r.Skipped, r.Name)
		assert.Empty(t, r.Key)
	}

	demo, err := repos.Teams.GetByName(ctx, "demo")
	require.NoError(t, err)
	list, err := repos.Posts.List(ctx, post.ListFilter{TeamID: demo.ID, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, 4, list.Total, "second run must not duplicate posts")
}

func TestRun_GenerateKeys(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)

	results, err := seed.New(repos, zap.NewNop()).Run(ctx, seed.DefaultTeams(), seed.Options{GenerateKeys: true})
	require.NoError(t, err)

	svc := auth.NewService(repos.Keys)
	for _, r := range results {
		assert.True(t, strings.HasPrefix(r.Key, auth.KeyPrefix), r.Key)

		id, err := svc.Authenticate(ctx, r.Key)
		require.NoError(t, err)
		assert.Equal(t, r.Name, id.TeamName)
	}

	_, err = svc.Authenticate(ctx, "demo-key-12345")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

type failingTeams struct {
	team.Repository
}

func (failingTeams) GetByName(context.Context, string) (*team.Team, error) {
	return nil, errors.New("database is locked")
}

func TestRun_LookupError(t *testing.T) {
	repos := newRepos(t)
	repos.Teams = failingTeams{Repository: repos.Teams}

	results, err := seed.New(repos, zap.NewNop()).Run(context.Background(), seed.DefaultTeams(), seed.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `seeding team "demo"`)
	assert.Empty(t, results)
}

type failingPosts struct {
	post.Repository
	failAfter int
	created   int
}

func (f *failingPosts) Create(ctx context.Context, p *post.Post) error {
	if f.created >= f.failAfter {
		return errors.New("disk full")
	}
	f.created++
	return f.Repository.Create(ctx, p)
}

func TestRun_PostFailureRollsBackTeam(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)
	broken := repos
	broken.Posts = &failingPosts{Repository: repos.Posts, failAfter: 2}

	_, err := seed.New(broken, zap.NewNop()).Run(ctx, seed.DefaultTeams(), seed.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	_, err = repos.Teams.GetByName(ctx, "demo")
	assert.ErrorIs(t, err, team.ErrTeamNotFound)
	_, err = auth.NewService(repos.Keys).Authenticate(ctx, "demo-key-12345")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)

	results, err := seed.New(repos, zap.NewNop()).Run(ctx, seed.DefaultTeams(), seed.Options{})
	require.NoError(t, err)
	assert.Equal(t, seed.TeamResult{Name: "demo", Key: "demo-key-12345", Posts: 4}, results[0])
}

func TestRun_KeyFailureRollsBackTeam(t *testing.T) {
	ctx := context.Background()
	repos := newRepos(t)
	specs := []seed.TeamSpec{
		{Name: "first", Key: "shared-key-12345"},
		{Name: "second", Key: "shared-key-12345"},
	}

	results, err := seed.New(repos, zap.NewNop()).Run(ctx, specs, seed.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `seeding team "second"`)
	require.Len(t, results, 1)

	_, err = repos.Teams.GetByName(ctx, "first")
	assert.NoError(t, err)
	_, err = repos.Teams.GetByName(ctx, "second")
	assert.ErrorIs(t, err, team.ErrTeamNotFound)
}
