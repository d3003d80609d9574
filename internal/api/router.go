package api

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/teamposts/teamposts/internal/api/handler"
	"github.com/teamposts/teamposts/internal/api/middleware"
	"github.com/teamposts/teamposts/internal/api/response"
	"github.com/teamposts/teamposts/internal/config"
	"github.com/teamposts/teamposts/internal/metrics"
	"github.com/teamposts/teamposts/internal/post"
	"github.com/teamposts/teamposts/internal/ratelimit"
)

// Rate limit route classes. Each class has its own buckets.
const (
	ClassHealth      = "health"
	ClassDefault     = "default"
	ClassPostsRead   = "posts_read"
	ClassPostsWrite  = "posts_write"
	ClassPostsDelete = "posts_delete"
	ClassMetrics     = "metrics"
)

// Limits holds the threshold for every route class.
type Limits struct {
	Health      ratelimit.Limit
	Default     ratelimit.Limit
	PostsRead   ratelimit.Limit
	PostsWrite  ratelimit.Limit
	PostsDelete ratelimit.Limit
	Metrics     ratelimit.Limit
}

// DefaultLimits returns the per-minute thresholds used when nothing is
// configured.
func DefaultLimits() Limits {
	return Limits{
		Health:      ratelimit.PerMinute(30),
		Default:     ratelimit.PerMinute(60),
		PostsRead:   ratelimit.PerMinute(100),
		PostsWrite:  ratelimit.PerMinute(30),
		PostsDelete: ratelimit.PerMinute(20),
		Metrics:     ratelimit.PerMinute(60),
	}
}

// LimitsFromConfig builds Limits from the RATE_LIMIT_* settings.
func LimitsFromConfig(cfg *config.Config) Limits {
	return Limits{
		Health:      ratelimit.PerMinute(cfg.RateLimitHealth),
		Default:     ratelimit.PerMinute(cfg.RateLimitDefault),
		PostsRead:   ratelimit.PerMinute(cfg.RateLimitPostsRead),
		PostsWrite:  ratelimit.PerMinute(cfg.RateLimitPostsWrite),
		PostsDelete: ratelimit.PerMinute(cfg.RateLimitPostsDelete),
		Metrics:     ratelimit.PerMinute(cfg.RateLimitMetrics),
	}
}

// RouterDeps holds all dependencies needed by the router.
type RouterDeps struct {
	Logger      *zap.Logger
	Metrics     *metrics.Metrics
	Limiter     *middleware.RateLimiter
	Limits      Limits
	Auth        middleware.Authenticator
	Posts       post.Repository
	OpenAPISpec []byte
	BuildSHA    string
	APIPrefix   string
	CORSOrigins []string
	TrustProxy  bool
}

// NewRouter creates and configures a Chi router with all middleware and routes.
func NewRouter(deps RouterDeps) *chi.Mux {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	prefix := strings.TrimSuffix(deps.APIPrefix, "/")

	r := chi.NewRouter()

	if deps.TrustProxy {
		r.Use(chimiddleware.RealIP)
	}
	r.Use(deps.Metrics.Middleware(prefix + "/metrics"))
	r.Use(middleware.CORS(deps.CORSOrigins))
	r.Use(middleware.RequestID)
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.AccessLog(logger))

	// Set before mounting so sub-routers inherit them.
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.ErrStatus(w, http.StatusNotFound, "Not Found", middleware.GetRequestID(r.Context()))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.ErrStatus(w, http.StatusMethodNotAllowed, "Method Not Allowed", middleware.GetRequestID(r.Context()))
	})

	rl := deps.Limiter
	limits := deps.Limits
	guard := middleware.NewGuard(deps.Auth, logger)
	posts := handler.NewPostHandler(deps.Posts, guard, logger)
	health := handler.NewHealthHandler(deps.BuildSHA)

	routes := func(r chi.Router) {
		r.With(rl.Limit(ClassHealth, limits.Health)).Get("/healthz", health.ServeHTTP)
		r.With(rl.Limit(ClassMetrics, limits.Metrics)).Method(http.MethodGet, "/metrics", deps.Metrics.Handler())

		if len(deps.OpenAPISpec) > 0 {
			openapi := handler.NewOpenAPIHandler(deps.OpenAPISpec, logger)
			r.With(rl.Limit(ClassDefault, limits.Default)).Get("/openapi.json", openapi.ServeHTTP)
		}

		read := rl.Limit(ClassPostsRead, limits.PostsRead)
		r.With(read).Get("/teams/{team}/posts", posts.List)
		r.With(rl.Limit(ClassPostsWrite, limits.PostsWrite)).Post("/teams/{team}/posts", posts.Create)
		r.With(read).Get("/teams/{team}/posts/{post_id}", posts.Get)
		r.With(rl.Limit(ClassPostsDelete, limits.PostsDelete)).Delete("/teams/{team}/posts/{post_id}", posts.Delete)
	}

	if prefix == "" {
		routes(r)
	} else {
		r.Route(prefix, routes)
	}

	return r
}
