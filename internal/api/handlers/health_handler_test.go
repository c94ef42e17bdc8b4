package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/central-university-dev/go-reward-tracker/internal/api/handlers"
	"github.com/central-university-dev/go-reward-tracker/internal/config"
	"github.com/central-university-dev/go-reward-tracker/internal/domain/models"
	"github.com/central-university-dev/go-reward-tracker/internal/monitor"
	"github.com/central-university-dev/go-reward-tracker/internal/tracker/repository/memory"
	"github.com/central-university-dev/go-reward-tracker/pkg"
)

type sourcesResponse struct {
	Sources []*models.SourceMonitoring `json:"sources"`
}

func newHandler(t *testing.T, sources ...*models.SourceMonitoring) *handlers.HealthHandler {
	t.Helper()

	logger := pkg.NewDiscardLogger()
	cfg := &config.Config{
		FailingThreshold:       3,
		AlertSuppressionWindow: 6 * time.Hour,
		ZeroLinksAlertHour:     12,
		HistoryLimit:           30,
	}

	monRepo := memory.NewMonitoringRepository()
	for _, mon := range sources {
		require.NoError(t, monRepo.Save(context.Background(), mon))
	}

	alerts := monitor.NewAlertManager(memory.NewAlertRepository(), nil, cfg, logger)
	tracker := monitor.NewHealthTracker(monRepo, alerts, monitor.NewDriftDetector(0.20, 0.40, 0.30), cfg, logger)

	return handlers.NewHealthHandler(tracker, logger)
}

func TestGetSourcesHealth_All(t *testing.T) {
	t.Parallel()

	handler := newHandler(t,
		&models.SourceMonitoring{SourceURL: "https://a.example.com", Status: models.StatusHealthy},
		&models.SourceMonitoring{SourceURL: "https://b.example.com", Status: models.StatusFailing, ConsecutiveFailures: 4},
	)

	recorder := httptest.NewRecorder()
	handler.GetSourcesHealth(recorder, httptest.NewRequest(http.MethodGet, "/api/v1/sources/health", nil))

	require.Equal(t, http.StatusOK, recorder.Code)
	assert.Equal(t, "application/json", recorder.Header().Get("Content-Type"))

	var response sourcesResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	assert.Len(t, response.Sources, 2)
}

func TestGetSourcesHealth_SingleSource(t *testing.T) {
	t.Parallel()

	handler := newHandler(t,
		&models.SourceMonitoring{SourceURL: "https://a.example.com", Status: models.StatusWarning, ConsecutiveFailures: 1},
	)

	recorder := httptest.NewRecorder()
	handler.GetSourcesHealth(recorder,
		httptest.NewRequest(http.MethodGet, "/api/v1/sources/health?url=https%3A%2F%2Fa.example.com", nil))

	require.Equal(t, http.StatusOK, recorder.Code)

	var response sourcesResponse
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &response))
	require.Len(t, response.Sources, 1)
	assert.Equal(t, models.StatusWarning, response.Sources[0].Status)
	assert.Equal(t, 1, response.Sources[0].ConsecutiveFailures)
}

func TestGetSourcesHealth_UnknownSource(t *testing.T) {
	t.Parallel()

	handler := newHandler(t)

	recorder := httptest.NewRecorder()
	handler.GetSourcesHealth(recorder,
		httptest.NewRequest(http.MethodGet, "/api/v1/sources/health?url=https%3A%2F%2Fmissing.example.com", nil))

	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestGetSourcesHealth_MethodNotAllowed(t *testing.T) {
	t.Parallel()

	handler := newHandler(t)

	recorder := httptest.NewRecorder()
	handler.GetSourcesHealth(recorder, httptest.NewRequest(http.MethodPost, "/api/v1/sources/health", nil))

	assert.Equal(t, http.StatusMethodNotAllowed, recorder.Code)
}
