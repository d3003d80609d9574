package handler

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/teamposts/teamposts/internal/api/middleware"
	"github.com/teamposts/teamposts/internal/api/response"
	"github.com/teamposts/teamposts/internal/api/validation"
	"github.com/teamposts/teamposts/internal/post"
)

const maxBodyBytes = 1 << 20

type postResponse struct {
	ID           string    `json:"id"`
	AuthorName   string    `json:"author_name"`
	Content      string    `json:"content"`
	Tags         []string  `json:"tags"`
	Timestamp    time.Time `json:"timestamp"`
	ParentPostID *string   `json:"parent_post_id"`
	Deleted      bool      `json:"deleted"`
	TeamName     string    `json:"team_name"`
}

type postEnvelope struct {
	Post postResponse `json:"post"`
}

type listResponse struct {
	Posts   []postResponse `json:"posts"`
	Total   int            `json:"total"`
	HasMore bool           `json:"has_more"`
}

func toPostResponse(p *post.Post) postResponse {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return postResponse{
		ID:           p.ID,
		AuthorName:   p.AuthorName,
		Content:      p.Content,
		Tags:         tags,
		Timestamp:    p.Timestamp.UTC(),
		ParentPostID: p.ParentPostID,
		Deleted:      p.Deleted,
		TeamName:     p.TeamName,
	}
}

// PostHandler handles the team-scoped post endpoints. Every operation
// validates its input, then authenticates, then queries.
type PostHandler struct {
	posts  post.Repository
	guard  *middleware.Guard
	logger *zap.Logger
}

// NewPostHandler creates a new PostHandler.
func NewPostHandler(posts post.Repository, guard *middleware.Guard, logger *zap.Logger) *PostHandler {
	return &PostHandler{posts: posts, guard: guard, logger: logger}
}

// List handles GET /teams/{team}/posts.
func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	team := chi.URLParam(r, "team")

	q, fieldErrors := validation.ParseListPosts(r.URL.Query())
	if len(fieldErrors) > 0 {
		h.validationFailed(w, r, fieldErrors)
		return
	}

	r, ok := h.guard.RequireTeam(w, r, team)
	if !ok {
		return
	}
	identity := middleware.GetIdentity(r.Context())

	result, err := h.posts.List(r.Context(), post.ListFilter{
		TeamID: identity.TeamID,
		Limit:  q.Limit,
		Offset: q.Offset,
	})
	if err != nil {
		h.storageError(w, r, "failed to list posts", err)
		return
	}

	items := make([]postResponse, 0, len(result.Posts))
	for i := range result.Posts {
		items = append(items, toPostResponse(&result.Posts[i]))
	}

	response.JSON(w, http.StatusOK, listResponse{
		Posts:   items,
		Total:   result.Total,
		HasMore: result.HasMore,
	})
}

// Create handles POST /teams/{team}/posts.
func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	team := chi.URLParam(r, "team")

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Err(w, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE",
				fmt.Sprintf("Request body must be at most %d bytes", maxBodyBytes), requestID)
			return
		}
		h.validationFailed(w, r, []validation.FieldError{{
			Field: "body", Message: "Unable to read request body", Type: validation.TypeJSONInvalid,
		}})
		return
	}

	req, fieldErrors := validation.DecodeCreatePost(body)
	if len(fieldErrors) > 0 {
		h.validationFailed(w, r, fieldErrors)
		return
	}

	r, ok := h.guard.RequireTeam(w, r, team)
	if !ok {
		return
	}
	identity := middleware.GetIdentity(r.Context())

	if req.ParentPostID != nil {
		if _, err := h.posts.GetByID(r.Context(), identity.TeamID, *req.ParentPostID); err != nil {
			if errors.Is(err, post.ErrNotFound) {
				response.NotFound(w, fmt.Sprintf("Parent post '%s' not found", *req.ParentPostID), requestID)
				return
			}
			h.storageError(w, r, "failed to look up parent post", err)
			return
		}
	}

	p := &post.Post{
		TeamID:       identity.TeamID,
		TeamName:     identity.TeamName,
		AuthorName:   req.AuthorName,
		Content:      req.Content,
		Tags:         req.Tags,
		ParentPostID: req.ParentPostID,
	}
	if err := h.posts.Create(r.Context(), p); err != nil {
		h.storageError(w, r, "failed to create post", err)
		return
	}

	h.logger.Info("post created",
		zap.String("post_id", p.ID),
		zap.String("team_name", identity.TeamName),
		zap.Bool("is_reply", p.ParentPostID != nil),
		zap.String("request_id", requestID),
	)
	response.JSON(w, http.StatusCreated, postEnvelope{Post: toPostResponse(p)})
}

// Get handles GET /teams/{team}/posts/{post_id}.
func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	team := chi.URLParam(r, "team")
	postID := chi.URLParam(r, "post_id")

	r, ok := h.guard.RequireTeam(w, r, team)
	if !ok {
		return
	}
	identity := middleware.GetIdentity(r.Context())

	p, err := h.posts.GetByID(r.Context(), identity.TeamID, postID)
	if err != nil {
		if errors.Is(err, post.ErrNotFound) {
			response.NotFound(w, fmt.Sprintf("Post '%s' not found", postID), requestID)
			return
		}
		h.storageError(w, r, "failed to get post", err)
		return
	}

	response.JSON(w, http.StatusOK, postEnvelope{Post: toPostResponse(p)})
}

// Delete handles DELETE /teams/{team}/posts/{post_id}. Deleting a post that
// is already deleted reports 404.
func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())
	team := chi.URLParam(r, "team")
	postID := chi.URLParam(r, "post_id")

	r, ok := h.guard.RequireTeam(w, r, team)
	if !ok {
		return
	}
	identity := middleware.GetIdentity(r.Context())

	if err := h.posts.SoftDelete(r.Context(), identity.TeamID, postID); err != nil {
		if errors.Is(err, post.ErrNotFound) {
			response.NotFound(w, fmt.Sprintf("Post '%s' not found", postID), requestID)
			return
		}
		h.storageError(w, r, "failed to delete post", err)
		return
	}

	h.logger.Info("post deleted",
		zap.String("post_id", postID),
		zap.String("team_name", identity.TeamName),
		zap.String("request_id", requestID),
	)
	response.NoContent(w)
}

func (h *PostHandler) validationFailed(w http.ResponseWriter, r *http.Request, fieldErrors []validation.FieldError) {
	requestID := middleware.GetRequestID(r.Context())
	h.logger.Warn("validation error",
		zap.String("request_path", r.URL.Path),
		zap.String("request_method", r.Method),
		zap.Int("error_count", len(fieldErrors)),
		zap.Any("field_errors", fieldErrors),
		zap.String("request_id", requestID),
	)
	response.ValidationFailed(w, fieldErrors, requestID)
}

func (h *PostHandler) storageError(w http.ResponseWriter, r *http.Request, msg string, err error) {
	requestID := middleware.GetRequestID(r.Context())
	fields := []zap.Field{
		zap.Error(err),
		zap.String("error_type", fmt.Sprintf("%T", err)),
		zap.String("request_path", r.URL.Path),
		zap.String("request_method", r.Method),
		zap.String("request_id", requestID),
	}
	if identity := middleware.GetIdentity(r.Context()); identity != nil {
		fields = append(fields, zap.String("team_name", identity.TeamName))
	}
	h.logger.Error(msg, fields...)
	response.StorageError(w, err, requestID)
}
