package httpapi_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/shift-scheduler/internal/config"
	"github.com/pageza/shift-scheduler/internal/distancematrix"
	"github.com/pageza/shift-scheduler/internal/domain"
	"github.com/pageza/shift-scheduler/internal/httpapi"
)

func testConfig() *config.Config {
	return &config.Config{
		HardMaxRadiusMiles:           5,
		MaxRadiusAcrossBoroughs:      3,
		EnforceBoroughBoundaries:     false,
		TechSpeedMph:                 10,
		ShiftDurationMinutes:         480,
		MaxShiftJobs:                 8,
		MaxTimeSearchMinutes:         90,
		MaxMergeAttempts:             3,
		MergeClosestShifts:           3,
		TechStartTimeVarianceMinutes: 30,
		MinRestHours:                 10,
		TargetRestHours:              16,
		LongServiceThresholdMinutes:  120,
		RateLimitRequestsPerMinute:   120,
	}
}

func newTestHandlers() *httpapi.Handlers {
	dist := distancematrix.NewMatrix(nil, nil, testConfig().HardMaxRadiusMiles)
	return httpapi.NewHandlers(testConfig(), dist, nil)
}

func TestPostScheduleRejectsInvalidBody(t *testing.T) {
	h := newTestHandlers()
	router := h.SetupRoutes()

	req := httptest.NewRequest(http.MethodPost, "/v1/schedule", strings.NewReader("not json"))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPostScheduleAcceptsJobBatch(t *testing.T) {
	h := newTestHandlers()
	router := h.SetupRoutes()

	now := time.Date(2026, 7, 27, 9, 0, 0, 0, time.UTC)
	jobs := []domain.Job{
		{
			ID:         "job-1",
			LocationID: "loc-1",
			Latitude:   40.7128,
			Longitude:  -74.0060,
			Window:     domain.TimeWindow{Earliest: now, Latest: now.Add(2 * time.Hour)},
			Preferred:  now,
			Duration:   30 * time.Minute,
		},
	}
	body, err := json.Marshal(map[string]interface{}{"jobs": jobs})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/v1/schedule", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusAccepted, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["runId"])
}

func TestGetScheduleReturns404ForUnknownRun(t *testing.T) {
	h := newTestHandlers()
	router := h.SetupRoutes()

	req := httptest.NewRequest(http.MethodGet, "/v1/schedule/does-not-exist", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimitMiddlewareRejectsBurstsPastLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimitRequestsPerMinute = 1
	dist := distancematrix.NewMatrix(nil, nil, cfg.HardMaxRadiusMiles)
	h := httpapi.NewHandlers(cfg, dist, nil)
	router := h.SetupRoutes()

	var lastCode int
	for i := 0; i < 5; i++ {
		req := httptest.NewRequest(http.MethodGet, "/v1/schedule/anything", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		lastCode = w.Code
		if lastCode == http.StatusTooManyRequests {
			break
		}
	}

	assert.Equal(t, http.StatusTooManyRequests, lastCode)
}
