package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AngelCh415/crm-dashboard/internal/config"
	"github.com/AngelCh415/crm-dashboard/internal/models"
	"github.com/AngelCh415/crm-dashboard/internal/store"
	"github.com/AngelCh415/crm-dashboard/internal/telemetry"
)

type fakeETL struct {
	st    *store.MemoryStore
	err   error
	calls []models.DateFilter
	ctxs  []error
}

func (f *fakeETL) Run(ctx context.Context, filter models.DateFilter) (*models.Snapshot, error) {
	f.calls = append(f.calls, filter)
	f.ctxs = append(f.ctxs, ctx.Err())
	gen := f.st.Begin()
	if f.err != nil {
		f.st.Fail(gen, f.err)
		return nil, f.err
	}
	snap := &models.Snapshot{Filter: filter, Records: 3, Goals: models.Goals{RevenueTarget: 10}}
	f.st.Save(gen, snap)
	return snap, nil
}

func newTestRouter(t *testing.T, rate string) (http.Handler, *fakeETL) {
	t.Helper()
	st := store.NewMemoryStore(false)
	etl := &fakeETL{st: st}
	cfg := config.Config{RefreshRate: rate, CORSOrigins: []string{"*"}}
	h, err := NewRouter(slog.New(slog.NewTextHandler(io.Discard, nil)), st, etl, telemetry.NewMetrics(), cfg)
	require.NoError(t, err)
	return h, etl
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, rd))
	return rec
}

func state(t *testing.T, rec *httptest.ResponseRecorder) store.State {
	t.Helper()
	var s store.State
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &s))
	return s
}

func TestRouterRejectsBadRate(t *testing.T) {
	_, err := NewRouter(slog.Default(), store.NewMemoryStore(false), &fakeETL{}, telemetry.NewMetrics(), config.Config{RefreshRate: "often"})
	assert.Error(t, err)
}

func TestHealthAndReadiness(t *testing.T) {
	h, _ := newTestRouter(t, "10-M")

	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/readyz", "").Code)

	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/dashboard", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodGet, "/readyz", "").Code)
}

func TestDashboardRefreshesOnFilterChange(t *testing.T) {
	h, etl := newTestRouter(t, "10-M")

	rec := do(h, http.MethodGet, "/dashboard", "")
	require.Equal(t, http.StatusOK, rec.Code)
	s := state(t, rec)
	assert.Equal(t, store.StatusLive, s.Status)
	require.NotNil(t, s.Snapshot)
	assert.Equal(t, 3, s.Snapshot.Records)
	assert.Equal(t, models.PresetMonth, s.Snapshot.Filter.Preset)

	do(h, http.MethodGet, "/dashboard?preset=month", "")
	assert.Len(t, etl.calls, 1)

	do(h, http.MethodGet, "/dashboard?preset=week", "")
	do(h, http.MethodGet, "/dashboard?preset=week&refresh=true", "")
	require.Len(t, etl.calls, 3)
	assert.Equal(t, models.PresetWeek, etl.calls[2].Preset)

	do(h, http.MethodGet, "/dashboard?start=2024-01-01&end=2024-01-31", "")
	require.Len(t, etl.calls, 4)
	assert.Equal(t, models.DateFilter{Preset: models.PresetCustom, StartDate: "2024-01-01", EndDate: "2024-01-31"}, etl.calls[3])
}

func TestDashboardRejectsBadFilters(t *testing.T) {
	h, etl := newTestRouter(t, "10-M")

	for _, target := range []string{
		"/dashboard?preset=yesterday",
		"/dashboard?preset=custom&start=2024-01-01",
		"/dashboard?start=01/02/2024&end=2024-02-10",
	} {
		rec := do(h, http.MethodGet, target, "")
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)
		assert.Contains(t, rec.Body.String(), "error", target)
	}
	assert.Empty(t, etl.calls)
}

func TestDashboardFailures(t *testing.T) {
	h, etl := newTestRouter(t, "10-M")
	etl.err = errors.New("upstream down")

	assert.Equal(t, http.StatusBadGateway, do(h, http.MethodGet, "/dashboard", "").Code)

	etl.err = nil
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/dashboard", "").Code)

	etl.err = errors.New("upstream down")
	rec := do(h, http.MethodGet, "/dashboard?preset=today", "")
	require.Equal(t, http.StatusOK, rec.Code)
	s := state(t, rec)
	assert.Equal(t, store.StatusError, s.Status)
	assert.Equal(t, "upstream down", s.Error)
	assert.Equal(t, models.PresetMonth, s.Snapshot.Filter.Preset)
}

func TestManualRefreshIsRateLimited(t *testing.T) {
	h, etl := newTestRouter(t, "2-M")

	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/ingest/run", "").Code)
	assert.Equal(t, http.StatusOK, do(h, http.MethodPost, "/ingest/run", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, do(h, http.MethodPost, "/ingest/run", "").Code)
	assert.Len(t, etl.calls, 2)
}

func TestManualRefreshTakesFilter(t *testing.T) {
	h, etl := newTestRouter(t, "10-M")

	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/ingest/run?preset=last_month", "").Code)
	require.Equal(t, http.StatusOK, do(h, http.MethodPost, "/ingest/run", "").Code)
	require.Len(t, etl.calls, 2)
	assert.Equal(t, models.PresetLastMonth, etl.calls[1].Preset)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/ingest/run?preset=never", "").Code)

	etl.err = errors.New("upstream down")
	assert.Equal(t, http.StatusBadGateway, do(h, http.MethodPost, "/ingest/run", "").Code)
}

func TestSetRole(t *testing.T) {
	h, etl := newTestRouter(t, "10-M")

	assert.Equal(t, http.StatusOK, do(h, http.MethodPut, "/team/u1/role", `{"role": "Closer"}`).Code)
	assert.Equal(t, models.RoleCloser, etl.st.RoleOverrides()["u1"])

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPut, "/team/u1/role", `{"role": "Boss"}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPut, "/team/u1/role", `{"role": `).Code)
	assert.Equal(t, models.RoleCloser, etl.st.RoleOverrides()["u1"])
}

func TestGoals(t *testing.T) {
	h, etl := newTestRouter(t, "10-M")

	assert.Equal(t, http.StatusNotFound, do(h, http.MethodGet, "/goals", "").Code)

	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPut, "/goals", `{"revenueTarget": -1}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(h, http.MethodPut, "/goals", `{"revenue": 1}`).Code)

	rec := do(h, http.MethodPut, "/goals", `{"revenueTarget": 90000, "contractsTarget": 12}`)
	require.Equal(t, http.StatusOK, rec.Code)
	g, ok := etl.st.Goals()
	require.True(t, ok)
	assert.Equal(t, 90000.0, g.RevenueTarget)
	assert.Equal(t, 12, g.ContractsTarget)

	var got models.Goals
	require.NoError(t, json.Unmarshal(do(h, http.MethodGet, "/goals", "").Body.Bytes(), &got))
	assert.Equal(t, g, got)
}

func TestMetricsAndCORS(t *testing.T) {
	h, _ := newTestRouter(t, "10-M")

	rec := do(h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")

	req := httptest.NewRequest(http.MethodOptions, "/dashboard", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRefreshSurvivesClientDisconnect(t *testing.T) {
	h, etl := newTestRouter(t, "10-M")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, req := range []*http.Request{
		httptest.NewRequest(http.MethodGet, "/dashboard", nil).WithContext(ctx),
		httptest.NewRequest(http.MethodPost, "/ingest/run", nil).WithContext(ctx),
	} {
		h.ServeHTTP(httptest.NewRecorder(), req)
	}
	require.Len(t, etl.ctxs, 2)
	assert.NoError(t, etl.ctxs[0])
	assert.NoError(t, etl.ctxs[1])
	assert.Equal(t, store.StatusLive, etl.st.State().Status)
}
