package api_test

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"sigs.k8s.io/yaml"

	specpkg "github.com/teamposts/teamposts/api"
	"github.com/teamposts/teamposts/internal/api"
	"github.com/teamposts/teamposts/internal/api/middleware"
	"github.com/teamposts/teamposts/internal/auth"
	"github.com/teamposts/teamposts/internal/metrics"
	"github.com/teamposts/teamposts/internal/post"
	"github.com/teamposts/teamposts/internal/ratelimit"
)

// openAPISpec is the minimal structure needed to extract paths from the OpenAPI document.
type openAPISpec struct {
	Paths map[string]map[string]any `json:"paths"`
}

// --- Noop implementations to satisfy RouterDeps interfaces ---

type noopAuthenticator struct{}

func (noopAuthenticator) Authenticate(context.Context, string) (*auth.Identity, error) {
	return nil, auth.ErrInvalidKey
}

type noopPostRepo struct{}

func (noopPostRepo) Create(context.Context, *post.Post) error { return nil }
func (noopPostRepo) GetByID(context.Context, string, string) (*post.Post, error) {
	return nil, post.ErrNotFound
}
func (noopPostRepo) List(context.Context, post.ListFilter) (*post.ListResult, error) {
	return &post.ListResult{}, nil
}
func (noopPostRepo) SoftDelete(context.Context, string, string) error { return nil }

// --- Test ---

func TestOpenAPISpec_RoutesCoverAllPaths(t *testing.T) {
	t.Parallel()

	specJSON, err := yaml.YAMLToJSON(specpkg.OpenAPISpec)
	require.NoError(t, err, "embedded spec must convert to JSON")

	var spec openAPISpec
	require.NoError(t, yaml.Unmarshal(specJSON, &spec), "spec JSON must unmarshal")

	specRoutes := extractSpecRoutes(spec)
	require.NotEmpty(t, specRoutes, "spec should define at least one route")

	// Paths in the document are relative to the /v1 server URL.
	router := api.NewRouter(api.RouterDeps{
		Logger:      zap.NewNop(),
		Metrics:     metrics.New(),
		Limiter:     middleware.NewRateLimiter(ratelimit.NewMemoryStore(0, time.Minute), zap.NewNop(), true),
		Limits:      api.DefaultLimits(),
		Auth:        noopAuthenticator{},
		Posts:       noopPostRepo{},
		OpenAPISpec: specpkg.OpenAPISpec,
	})

	chiRoutes := extractChiRoutes(t, router)
	require.NotEmpty(t, chiRoutes, "Chi router should have at least one route")

	for _, sr := range specRoutes {
		t.Run(fmt.Sprintf("spec_%s_%s_has_Chi_route", sr.method, sr.path), func(t *testing.T) {
			assert.Contains(t, chiRoutes, sr, "spec route %s %s not found in Chi router", sr.method, sr.path)
		})
	}

	for _, cr := range chiRoutes {
		t.Run(fmt.Sprintf("Chi_%s_%s_has_spec_path", cr.method, cr.path), func(t *testing.T) {
			assert.Contains(t, specRoutes, cr, "Chi route %s %s not found in OpenAPI spec", cr.method, cr.path)
		})
	}
}

type route struct {
	method string
	path   string
}

var openAPIMethods = map[string]bool{
	"get": true, "put": true, "post": true, "delete": true, "patch": true, "options": true, "head": true,
}

func extractSpecRoutes(spec openAPISpec) []route {
	var routes []route
	for path, methods := range spec.Paths {
		for method := range methods {
			// Path items may also hold shared parameters.
			if !openAPIMethods[method] {
				continue
			}
			routes = append(routes, route{method: strings.ToUpper(method), path: path})
		}
	}
	sortRoutes(routes)
	return routes
}

func extractChiRoutes(t *testing.T, r *chi.Mux) []route {
	t.Helper()
	var routes []route
	walkFunc := func(method, routePath string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		routes = append(routes, route{method: method, path: routePath})
		return nil
	}
	require.NoError(t, chi.Walk(r, walkFunc), "chi.Walk should not error")

	sortRoutes(routes)
	return routes
}

func sortRoutes(routes []route) {
	sort.Slice(routes, func(i, j int) bool {
		if routes[i].path == routes[j].path {
			return routes[i].method < routes[j].method
		}
		return routes[i].path < routes[j].path
	})
}
