// Package client provides a typed HTTP client for the team posts API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Client talks to one team's posts through the API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// Config holds client configuration.
type Config struct {
	// BaseURL includes the version prefix, e.g. http://localhost:3000/v1.
	BaseURL string
	APIKey  string
	Timeout time.Duration
	// Limiter paces outgoing requests when set.
	Limiter *rate.Limiter
}

// New creates a new Client.
func New(cfg Config) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.BaseURL, "/"),
		apiKey:  cfg.APIKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		limiter: cfg.Limiter,
	}
}

// Post is a post as returned by the API.
type Post struct {
	ID           string    `json:"id"`
	AuthorName   string    `json:"author_name"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	Timestamp    time.Time `json:"timestamp"`
	ParentPostID *string   `json:"parent_post_id"`
	Deleted      bool      `json:"deleted"`
	TeamName     string    `json:"team_name"`
}

// CreatePostRequest is the body of a create call.
type CreatePostRequest struct {
	AuthorName   string   `json:"author_name"`
	Content      string   `json:"content"`
	Tags         []string `json:"tags,omitempty"`
	ParentPostID *string  `json:"parent_post_id,omitempty"`
}

// ListResponse is one page of posts.
type ListResponse struct {
	Posts   []Post `json:"posts"`
	Total   int    `json:"total"`
	HasMore bool   `json:"has_more"`
}

// Health is the body of the health endpoint.
type Health struct {
	Status   string `json:"status"`
	BuildSHA string `json:"buildSha"`
}

type postEnvelope struct {
	Post Post `json:"post"`
}

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%d %s: %s", e.StatusCode, e.Code, e.Message)
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// IsRateLimited reports whether err is a 429 from the API.
func IsRateLimited(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusTooManyRequests
}

// Health calls GET /healthz.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var out Health
	if err := c.do(ctx, http.MethodGet, "/healthz", nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreatePost creates a post for team.
func (c *Client) CreatePost(ctx context.Context, team string, req *CreatePostRequest) (*Post, error) {
	var out postEnvelope
	if err := c.do(ctx, http.MethodPost, teamPath(team), req, http.StatusCreated, &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

// ListPosts fetches one page of team's posts, newest first.
func (c *Client) ListPosts(ctx context.Context, team string, limit, offset int) (*ListResponse, error) {
	q := url.Values{}
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		q.Set("offset", strconv.Itoa(offset))
	}
	path := teamPath(team)
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var out ListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPost fetches a single post.
func (c *Client) GetPost(ctx context.Context, team, postID string) (*Post, error) {
	var out postEnvelope
	if err := c.do(ctx, http.MethodGet, teamPath(team)+"/"+url.PathEscape(postID), nil, http.StatusOK, &out); err != nil {
		return nil, err
	}
	return &out.Post, nil
}

// DeletePost soft deletes a post.
func (c *Client) DeletePost(ctx context.Context, team, postID string) error {
	return c.do(ctx, http.MethodDelete, teamPath(team)+"/"+url.PathEscape(postID), nil, http.StatusNoContent, nil)
}

func teamPath(team string) string {
	return "/teams/" + url.PathEscape(team) + "/posts"
}

func (c *Client) do(ctx context.Context, method, path string, in any, want int, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("wait for rate limiter: %w", err)
		}
	}

	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Accept", "application/json")
	if in != nil {
		httpReq.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != want {
		return decodeError(resp, respBody)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response, body []byte) error {
	apiErr := &APIError{StatusCode: resp.StatusCode, Code: http.StatusText(resp.StatusCode)}

	var env struct {
		Detail struct {
			Error   string         `json:"error"`
			Code    string         `json:"code"`
			Details map[string]any `json:"details"`
		} `json:"detail"`
	}
	if err := json.Unmarshal(body, &env); err == nil && env.Detail.Code != "" {
		apiErr.Code = env.Detail.Code
		apiErr.Message = env.Detail.Error
		apiErr.Details = env.Detail.Details
	} else {
		apiErr.Message = strings.TrimSpace(string(body))
	}

	if secs, err := strconv.Atoi(resp.Header.Get("Retry-After")); err == nil {
		apiErr.RetryAfter = time.Duration(secs) * time.Second
	}
	return apiErr
}
