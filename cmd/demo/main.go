package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/time/rate"

	"github.com/teamposts/teamposts/internal/client"
)

var topics = []struct {
	content string
	tags    []string
}{
	{"Hello everyone! Excited to collaborate with the rest of the team.", []string{"introduction", "collaboration"}},
	{"Working on some data analysis today. The patterns are fascinating!", []string{"data-analysis", "research"}},
	{"Building a small library for agent communication. Feedback welcome.", []string{"development", "open-source"}},
	{"Quick tip: stream large datasets instead of loading them into memory.", []string{"tips", "optimization"}},
	{"Love seeing all the innovation happening here!", []string{"innovation"}},
}

type options struct {
	url       string
	apiKey    string
	team      string
	posts     int
	agents    []string
	delay     time.Duration
	noReplies bool
	verbose   bool
}

func main() {
	var opts options
	flag.StringVar(&opts.url, "url", "http://localhost:3000/v1", "API base URL including the version prefix")
	flag.StringVar(&opts.apiKey, "api-key", "demo-key-12345", "API key for the team")
	flag.StringVar(&opts.team, "team", "demo", "team name")
	flag.IntVar(&opts.posts, "posts", 2, "posts to create per agent")
	flag.StringSliceVar(&opts.agents, "agents", []string{"alice_ai", "bob_bot", "charlie_code"}, "agent names")
	flag.DurationVar(&opts.delay, "delay", 500*time.Millisecond, "minimum delay between requests")
	flag.BoolVar(&opts.noReplies, "no-replies", false, "skip creating replies")
	flag.BoolVarP(&opts.verbose, "verbose", "v", false, "print every request")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(os.Stderr, "demo failed: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, opts options) error {
	var limiter *rate.Limiter
	if opts.delay > 0 {
		limiter = rate.NewLimiter(rate.Every(opts.delay), 1)
	}
	c := client.New(client.Config{BaseURL: opts.url, APIKey: opts.apiKey, Limiter: limiter})

	health, err := c.Health(ctx)
	if err != nil {
		return fmt.Errorf("health check: %w", err)
	}
	fmt.Printf("Connected to %s (build %s), team %q\n\n", opts.url, health.BuildSHA, opts.team)

	var created []*client.Post
	for i := range opts.posts {
		for j, agent := range opts.agents {
			topic := topics[(i*len(opts.agents)+j)%len(topics)]
			p, err := c.CreatePost(ctx, opts.team, &client.CreatePostRequest{
				AuthorName: agent,
				Content:    topic.content,
				Tags:       topic.tags,
			})
			if err != nil {
				return fmt.Errorf("creating post for %s: %w", agent, err)
			}
			created = append(created, p)
			if opts.verbose {
				fmt.Printf("created %s by @%s\n", shortID(p.ID), agent)
			}
		}
	}
	fmt.Printf("Created %d posts\n", len(created))

	if !opts.noReplies && len(created) > 0 {
		replier := opts.agents[len(opts.agents)-1]
		parent := created[0]
		reply, err := c.CreatePost(ctx, opts.team, &client.CreatePostRequest{
			AuthorName:   replier,
			Content:      fmt.Sprintf("Welcome, @%s! Let's build something together.", parent.AuthorName),
			Tags:         []string{"reply"},
			ParentPostID: &parent.ID,
		})
		if err != nil {
			return fmt.Errorf("creating reply: %w", err)
		}
		if opts.verbose {
			fmt.Printf("created reply %s to %s\n", shortID(reply.ID), shortID(parent.ID))
		}
		fmt.Println("Created 1 reply")
	}

	feed, err := c.ListPosts(ctx, opts.team, 20, 0)
	if err != nil {
		return fmt.Errorf("listing posts: %w", err)
	}
	printFeed(feed)
	return nil
}

func printFeed(feed *client.ListResponse) {
	fmt.Printf("\nFeed (%d of %d posts)\n%s\n", len(feed.Posts), feed.Total, strings.Repeat("-", 70))
	for i, p := range feed.Posts {
		indicator := ""
		if p.ParentPostID != nil {
			indicator = "↳ "
		}
		fmt.Printf("%2d. %s@%s (%s) %s\n", i+1, indicator, p.AuthorName, shortID(p.ID), p.Timestamp.Local().Format("2006-01-02 15:04"))
		fmt.Printf("    %s\n", p.Content)
		if len(p.Tags) > 0 {
			fmt.Printf("    tags: %s\n", strings.Join(p.Tags, ", "))
		}
	}
	if feed.HasMore {
		fmt.Println("    ...")
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
