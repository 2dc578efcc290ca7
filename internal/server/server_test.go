package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aristath/sentinel/internal/database"
	"github.com/aristath/sentinel/internal/domain"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRunner struct {
	dailyErr    error
	forceErr    error
	corrErr     error
	dailyCalled chan struct{}
}

func (f *fakeRunner) RunDaily(ctx context.Context, triggeredBy string) error {
	if f.dailyCalled != nil {
		close(f.dailyCalled)
	}
	return f.dailyErr
}

func (f *fakeRunner) RunForceRerun(ctx context.Context, start, end time.Time, portfolioID *string, triggeredBy string) error {
	return f.forceErr
}

func (f *fakeRunner) RunCorrelationsOnly(ctx context.Context, portfolioID *string, date time.Time) error {
	return f.corrErr
}

type fakeTracker struct {
	run    domain.BatchRun
	active bool
}

func (f *fakeTracker) Current() (domain.BatchRun, bool) { return f.run, f.active }

type fakeCleaner struct {
	removed int64
	err     error
}

func (f *fakeCleaner) CleanupAbandonedPlaceholders(ctx context.Context) (int64, error) {
	return f.removed, f.err
}

type fakeCache struct {
	errs map[string]error
}

func (f *fakeCache) Prefetch(ctx context.Context, symbols []string, from, to time.Time) map[string]error {
	return f.errs
}

type fakeCalendar struct{ day time.Time }

func (f *fakeCalendar) MostRecentTradingDay() time.Time { return f.day }

type fakeSymbols struct {
	symbols []string
	err     error
}

func (f *fakeSymbols) ActiveSymbols(ctx context.Context) ([]string, error) {
	return f.symbols, f.err
}

type fakeProfiles struct {
	refreshed int
	err       error
}

func (f *fakeProfiles) RefreshAll(ctx context.Context, symbols []string) (int, error) {
	return f.refreshed, f.err
}

type fakeSectors struct {
	restored int
	err      error
}

func (f *fakeSectors) RefreshMissing(ctx context.Context, symbols []string) (int, error) {
	return f.restored, f.err
}

func newTestServer(runner BatchRunner, tracker RunTracker) *Server {
	return New(
		runner,
		tracker,
		&fakeCleaner{removed: 3},
		&fakeCache{},
		&fakeSymbols{symbols: []string{"AAPL", "MSFT"}},
		&fakeCalendar{day: time.Date(2026, 7, 29, 0, 0, 0, 0, time.UTC)},
		&fakeProfiles{refreshed: 2},
		&fakeSectors{restored: 1},
		map[string]*database.DB{},
		nil,
		zerolog.Nop(),
	)
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealthHandler_ReportsOkWhenNoDatabasesConfigured(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeTracker{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decodeBody(t, rec)["status"])
}

func TestRunBatchHandler_StartsDailyRunInBackground(t *testing.T) {
	runner := &fakeRunner{dailyCalled: make(chan struct{})}
	srv := newTestServer(runner, &fakeTracker{active: false})

	req := httptest.NewRequest(http.MethodPost, "/admin/batch/run", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "started", decodeBody(t, rec)["status"])

	select {
	case <-runner.dailyCalled:
	case <-time.After(time.Second):
		t.Fatal("RunDaily was not invoked")
	}
}

func TestRunBatchHandler_RejectsConcurrentRunWithoutForce(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeTracker{active: true})

	req := httptest.NewRequest(http.MethodPost, "/admin/batch/run", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestRunBatchHandler_AllowsConcurrentRunWhenForced(t *testing.T) {
	runner := &fakeRunner{dailyCalled: make(chan struct{})}
	srv := newTestServer(runner, &fakeTracker{active: true})

	req := httptest.NewRequest(http.MethodPost, "/admin/batch/run?force=true", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestRunBatchHandler_ForceRerunRequiresValidDateRange(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeTracker{})

	req := httptest.NewRequest(http.MethodPost, "/admin/batch/run?force_rerun=true", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRunBatchHandler_ForceRerunAcceptsValidDateRange(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeTracker{})

	req := httptest.NewRequest(http.MethodPost, "/admin/batch/run?force_rerun=true&start_date=2026-07-01&end_date=2026-07-15", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestCurrentRunHandler_ReportsIdleWhenNoneActive(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeTracker{active: false})

	req := httptest.NewRequest(http.MethodGet, "/admin/batch/run/current", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, "idle", decodeBody(t, rec)["status"])
}

func TestCurrentRunHandler_ReportsProgressWhenActive(t *testing.T) {
	run := domain.BatchRun{
		BatchRunID: "run-1", StartedAt: time.Now().Add(-time.Minute),
		TotalJobs: 10, CompletedJobs: 4, FailedJobs: 1,
	}
	srv := newTestServer(&fakeRunner{}, &fakeTracker{run: run, active: true})

	req := httptest.NewRequest(http.MethodGet, "/admin/batch/run/current", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	body := decodeBody(t, rec)
	assert.Equal(t, "running", body["status"])
	assert.InDelta(t, 50.0, body["progress_percent"], 1e-9)
}

func TestTriggerMarketDataHandler_ReturnsSymbolCount(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeTracker{})

	req := httptest.NewRequest(http.MethodPost, "/admin/batch/trigger/market-data", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["symbols"])
}

func TestTriggerCompanyProfilesHandler_ReturnsSymbolCount(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeTracker{})

	req := httptest.NewRequest(http.MethodPost, "/admin/batch/trigger/company-profiles", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.EqualValues(t, 2, decodeBody(t, rec)["symbols"])
}

func TestRestoreSectorTagsHandler_AcceptsAndStartsInBackground(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeTracker{})

	req := httptest.NewRequest(http.MethodPost, "/admin/batch/restore-sector-tags", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "started", decodeBody(t, rec)["status"])
}

func TestCleanupIncompleteHandler_ReturnsRemovedCount(t *testing.T) {
	srv := newTestServer(&fakeRunner{}, &fakeTracker{})

	req := httptest.NewRequest(http.MethodPost, "/admin/batch/cleanup-incomplete", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.EqualValues(t, 3, decodeBody(t, rec)["removed"])
}

func TestRequireAdmin_RejectsWhenAuthFails(t *testing.T) {
	srv := New(
		&fakeRunner{}, &fakeTracker{}, &fakeCleaner{}, &fakeCache{},
		&fakeSymbols{}, &fakeCalendar{}, &fakeProfiles{}, &fakeSectors{},
		map[string]*database.DB{},
		func(r *http.Request) bool { return false },
		zerolog.Nop(),
	)

	req := httptest.NewRequest(http.MethodGet, "/admin/batch/run/current", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTriggerCompanyProfilesHandler_PropagatesSymbolSourceError(t *testing.T) {
	srv := New(
		&fakeRunner{}, &fakeTracker{}, &fakeCleaner{}, &fakeCache{},
		&fakeSymbols{err: errors.New("db unavailable")}, &fakeCalendar{}, &fakeProfiles{}, &fakeSectors{},
		map[string]*database.DB{},
		nil, zerolog.Nop(),
	)

	req := httptest.NewRequest(http.MethodPost, "/admin/batch/trigger/company-profiles", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}
