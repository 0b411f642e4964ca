package router

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/user/connections-scraper/internal/delivery/http/handler"
	"github.com/user/connections-scraper/internal/delivery/http/response"
	"github.com/user/connections-scraper/internal/usecase"
	"github.com/user/connections-scraper/pkg/metrics"
)

func TestMain(m *testing.M) {
	metrics.Init()
	os.Exit(m.Run())
}

func serve(t *testing.T, h http.Handler, method, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h := New(handler.NewHandler(usecase.NewProgress()))

	rec := serve(t, h, http.MethodGet, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestProgress_RunningThenFailed(t *testing.T) {
	progress := usecase.NewProgress()
	h := New(handler.NewHandler(progress))

	progress.SetPhase(usecase.PhaseScroll)
	progress.ScrollIteration(4, 14500)

	rec := serve(t, h, http.MethodGet, "/api/progress")
	require.Equal(t, http.StatusOK, rec.Code)
	var resp response.ProgressResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "scroll", resp.Phase)
	assert.Equal(t, 4, resp.ScrollIterations)
	assert.Equal(t, int64(14500), resp.PageHeight)
	assert.Nil(t, resp.FinishedAt)
	assert.GreaterOrEqual(t, resp.ElapsedSeconds, 0.0)

	progress.Finish(errors.New("extract connections: element not found"))
	rec = serve(t, h, http.MethodGet, "/api/progress")
	resp = response.ProgressResponse{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "failed", resp.Phase)
	assert.NotNil(t, resp.FinishedAt)
	assert.Contains(t, resp.Error, "element not found")
}

func TestProgress_RejectsOtherMethods(t *testing.T) {
	h := New(handler.NewHandler(usecase.NewProgress()))

	rec := serve(t, h, http.MethodPost, "/api/progress")
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestMetricsEndpointAndRequestCounter(t *testing.T) {
	h := New(handler.NewHandler(usecase.NewProgress()))
	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/api/health", "200")
	before := testutil.ToFloat64(counter)

	serve(t, h, http.MethodGet, "/api/health")
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	rec := serve(t, h, http.MethodGet, "/metrics")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "http_requests_total"))
}

func TestUnknownPathsShareOneLabel(t *testing.T) {
	h := New(handler.NewHandler(usecase.NewProgress()))
	counter := metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "other", "404")
	before := testutil.ToFloat64(counter)

	serve(t, h, http.MethodGet, "/wp-login.php")
	serve(t, h, http.MethodGet, "/.env")
	assert.Equal(t, before+2, testutil.ToFloat64(counter))
}
