package post

import "time"

// Post represents a row in the posts table joined with its team name.
type Post struct {
	ID           string
	TeamID       string
	TeamName     string
	AuthorName   string
	Content      string
	Tags         []string
	Timestamp    time.Time
	ParentPostID *string // nil for top-level posts
	Deleted      bool
}

// ListFilter selects one page of a team's non-deleted posts.
type ListFilter struct {
	TeamID string
	Limit  int
	Offset int
}

// ListResult holds one page of posts plus the team's total non-deleted count.
type ListResult struct {
	Posts   []Post
	Total   int
	HasMore bool
}

func newListResult(posts []Post, total int, f ListFilter) *ListResult {
	if posts == nil {
		posts = []Post{}
	}
	return &ListResult{
		Posts:   posts,
		Total:   total,
		HasMore: f.Limit < total-f.Offset, // offset+limit < total without overflow
	}
}

// prepare fills server-assigned fields before insert. Timestamps are
// truncated to microseconds, the finest precision both backends keep.
func (p *Post) prepare(newID func() string, now time.Time) {
	if p.ID == "" {
		p.ID = newID()
	}
	p.Timestamp = now.UTC().Truncate(time.Microsecond)
	if p.Tags == nil {
		p.Tags = []string{}
	}
	p.Deleted = false
}
