package metrics_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teamposts/teamposts/internal/metrics"
)

func newRouter(m *metrics.Metrics) http.Handler {
	r := chi.NewRouter()
	r.Use(m.Middleware("/v1/metrics"))
	r.Route("/v1", func(r chi.Router) {
		r.Get("/teams/{team}/posts/{post_id}", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusNotFound)
		})
		r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("ok"))
		})
		r.Method(http.MethodGet, "/metrics", m.Handler())
	})
	return r
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

// requestsTotal returns the http_requests_total sample for the given labels,
// or 0 when the series does not exist.
func requestsTotal(t *testing.T, m *metrics.Metrics, method, endpoint, status string) float64 {
	t.Helper()
	families, err := m.Registry().Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != "http_requests_total" {
			continue
		}
		for _, metric := range mf.GetMetric() {
			labels := map[string]string{}
			for _, lp := range metric.GetLabel() {
				labels[lp.GetName()] = lp.GetValue()
			}
			if labels["method"] == method && labels["endpoint"] == endpoint && labels["status_code"] == status {
				return metric.GetCounter().GetValue()
			}
		}
	}
	return 0
}

func TestMiddleware_LabelsByRoutePattern(t *testing.T) {
	m := metrics.New()
	h := newRouter(m)

	serve(h, http.MethodGet, "/v1/teams/demo/posts/abc")
	serve(h, http.MethodGet, "/v1/teams/other/posts/def?x=1")

	assert.Equal(t, float64(2), requestsTotal(t, m, "GET", "/v1/teams/{team}/posts/{post_id}", "404"))
	assert.Zero(t, requestsTotal(t, m, "GET", "/v1/teams/demo/posts/abc", "404"))
}

func TestMiddleware_ImplicitOKStatus(t *testing.T) {
	m := metrics.New()
	serve(newRouter(m), http.MethodGet, "/v1/healthz")

	assert.Equal(t, float64(1), requestsTotal(t, m, "GET", "/v1/healthz", "200"))
}

func TestMiddleware_UnmatchedRoutesShareOneLabel(t *testing.T) {
	m := metrics.New()
	h := newRouter(m)

	for i := 0; i < 50; i++ {
		serve(h, http.MethodGet, fmt.Sprintf("/v1/junk-%d", i))
	}

	assert.Equal(t, float64(50), requestsTotal(t, m, "GET", metrics.UnmatchedEndpoint, "404"))
	assert.Zero(t, requestsTotal(t, m, "GET", "/v1/junk-0", "404"))
	series, err := testutil.GatherAndCount(m.Registry(), "http_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 1, series)
}

func TestMiddleware_SkipsMetricsEndpoint(t *testing.T) {
	m := metrics.New()
	h := newRouter(m)

	rec := serve(h, http.MethodGet, "/v1/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	rec = serve(h, http.MethodGet, "/v1/metrics")

	assert.NotContains(t, rec.Body.String(), `endpoint="/v1/metrics"`)
	assert.Zero(t, requestsTotal(t, m, "GET", "/v1/metrics", "200"))
}

func TestHandler_ExposesCollectors(t *testing.T) {
	m := metrics.New()
	m.Observe("POST", "/v1/teams/{team}/posts", http.StatusCreated, 15*time.Millisecond)

	rec := serve(m.Handler(), http.MethodGet, "/")
	body := rec.Body.String()

	assert.Contains(t, body, "# HELP http_requests_total Total HTTP requests")
	assert.Contains(t, body, "# HELP http_request_duration_seconds HTTP request duration in seconds")
	assert.Contains(t, body, `http_requests_total{endpoint="/v1/teams/{team}/posts",method="POST",status_code="201"} 1`)
	assert.Contains(t, body, "go_goroutines")
}

func TestObserve_HistogramAndCounter(t *testing.T) {
	m := metrics.New()
	m.Observe("GET", "/v1/healthz", 200, time.Millisecond)
	m.Observe("GET", "/v1/healthz", 200, 2*time.Millisecond)

	n, err := testutil.GatherAndCount(m.Registry(), "http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, n, "one labelled series")

	expected := `
# HELP http_requests_total Total HTTP requests
# TYPE http_requests_total counter
http_requests_total{endpoint="/v1/healthz",method="GET",status_code="200"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "http_requests_total"))
}
