package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace-discovery/internal/common/errors"
	"marketplace-discovery/internal/common/logger"
	"marketplace-discovery/internal/discovery/pipeline"
	"marketplace-discovery/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type mockDiscoverer struct {
	lastQuery   pipeline.Query
	lastLanding string
	lastPage    [2]int
	err         error
}

func (m *mockDiscoverer) Discover(_ context.Context, q pipeline.Query) (*models.ListingPage, error) {
	m.lastQuery = q
	if m.err != nil {
		return nil, m.err
	}
	return &models.ListingPage{
		Kind:     q.Kind(),
		Items:    []models.SupplierCard{{ID: "sup-a", Name: "Northern Light", Badges: []string{}}},
		Page:     1,
		PageSize: 24,
		Total:    1,
	}, nil
}

func (m *mockDiscoverer) DiscoverLanding(_ context.Context, slug string, page, pageSize int) (*models.ListingPage, error) {
	m.lastLanding = slug
	m.lastPage = [2]int{page, pageSize}
	if m.err != nil {
		return nil, m.err
	}
	return &models.ListingPage{Kind: models.QueryKindCategoryLocation, Items: []models.SupplierCard{}}, nil
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func setupRouter(t *testing.T, d Discoverer, checks map[string]Pinger) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	return NewRouter(NewHandler(d, checks, logger.NewTestLogger(t)), logger.NewTestLogger(t), nil)
}

func get(t *testing.T, router *gin.Engine, path string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, path, http.NoBody)
	require.NoError(t, err)
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// ==========================
// Tests
// ==========================

func TestListingRoutes(t *testing.T) {
	tests := []struct {
		name string
		path string
		want pipeline.Query
	}{
		{"category", "/api/v1/categories/photographers/suppliers",
			pipeline.Query{CategorySlug: "photographers"}},
		{"category and location", "/api/v1/categories/photographers/locations/manchester/suppliers?page=2&pageSize=12",
			pipeline.Query{CategorySlug: "photographers", LocationSlug: "manchester", Page: 2, PageSize: 12}},
		{"location", "/api/v1/locations/york/suppliers?page_size=6",
			pipeline.Query{LocationSlug: "york", PageSize: 6}},
		{"search", "/api/v1/suppliers/search?q=cake",
			pipeline.Query{Term: "cake"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := &mockDiscoverer{}
			w := get(t, setupRouter(t, d, nil), tt.path)

			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.Equal(t, tt.want, d.lastQuery)

			var page models.ListingPage
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
			require.Len(t, page.Items, 1)
			assert.Equal(t, "sup-a", page.Items[0].ID)
		})
	}
}

func TestLandingRoute(t *testing.T) {
	d := &mockDiscoverer{}
	w := get(t, setupRouter(t, d, nil), "/api/v1/landing/photographers-in-manchester/suppliers?page=3")

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "photographers-in-manchester", d.lastLanding)
	assert.Equal(t, [2]int{3, 0}, d.lastPage)
}

func TestNonIntegerPagination(t *testing.T) {
	d := &mockDiscoverer{}
	router := setupRouter(t, d, nil)

	for _, path := range []string{
		"/api/v1/categories/djs/suppliers?page=two",
		"/api/v1/suppliers/search?q=cake&pageSize=1.5",
		"/api/v1/landing/djs-in-york/suppliers?page_size=x",
	} {
		w := get(t, router, path)
		assert.Equal(t, http.StatusBadRequest, w.Code, path)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, string(errors.ErrCodeValidationFailed), resp.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   errors.ErrorCode
	}{
		{"category missing", errors.NewCategoryNotFoundError("unicorns"), http.StatusNotFound, errors.ErrCodeCategoryNotFound},
		{"validation", errors.NewValidationError("term too short"), http.StatusBadRequest, errors.ErrCodeValidationFailed},
		{"upstream", errors.NewUpstreamReadError("suppliers", fmt.Errorf("eof")), http.StatusServiceUnavailable, errors.ErrCodeUpstreamReadFailed},
		{"unexpected", fmt.Errorf("boom"), http.StatusInternalServerError, errors.ErrCodeInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := get(t, setupRouter(t, &mockDiscoverer{err: tt.err}, nil), "/api/v1/categories/x/suppliers")
			assert.Equal(t, tt.status, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, string(tt.code), resp.Code)
			assert.NotEmpty(t, resp.RequestID)
		})
	}
}

func TestRequestIDPropagation(t *testing.T) {
	router := setupRouter(t, &mockDiscoverer{}, nil)

	w := get(t, router, "/health", "X-Request-ID", "req-123")
	assert.Equal(t, "req-123", w.Header().Get("X-Request-ID"))

	w = get(t, router, "/health")
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestReadinessCheck(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return fmt.Errorf("dial tcp: refused") })

	w := get(t, setupRouter(t, &mockDiscoverer{}, map[string]Pinger{"postgres": healthy}), "/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	w = get(t, setupRouter(t, &mockDiscoverer{}, map[string]Pinger{"postgres": healthy, "redis": down}), "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status       string            `json:"status"`
		Dependencies map[string]string `json:"dependencies"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "not ready", body.Status)
	assert.Equal(t, "ok", body.Dependencies["postgres"])
	assert.Contains(t, body.Dependencies["redis"], "refused")
}

func TestMetricsEndpoint(t *testing.T) {
	w := get(t, setupRouter(t, &mockDiscoverer{}, nil), "/metrics")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "go_goroutines")
}
