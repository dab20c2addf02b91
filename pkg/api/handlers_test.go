package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/athulya-anil/queue-sweeper/pkg/models"
	"github.com/athulya-anil/queue-sweeper/pkg/scheduler"
)

func newTestAPI(t *testing.T) *API {
	t.Helper()
	gin.SetMode(gin.TestMode)

	reg := scheduler.NewReportRegistry()
	reg.Record(models.CycleReport{Service: "sonarr", Fetched: true, Attempted: 2, Deleted: 2})
	reg.Record(models.CycleReport{Service: "radarr", Fetched: false})
	return NewAPI(reg, 10*time.Minute)
}

func TestHealthCheck(t *testing.T) {
	a := newTestAPI(t)
	router := a.NewRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())
}

func TestGetStatus(t *testing.T) {
	a := newTestAPI(t)
	router := a.NewRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		IntervalSeconds int64                `json:"interval_seconds"`
		Count           int                  `json:"count"`
		Services        []models.CycleReport `json:"services"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, int64(600), body.IntervalSeconds)
	assert.Equal(t, 2, body.Count)
	require.Len(t, body.Services, 2)
	assert.Equal(t, "sonarr", body.Services[0].Service)
	assert.Equal(t, 2, body.Services[0].Deleted)
	assert.False(t, body.Services[1].Fetched)
}

func TestGetServiceStatus(t *testing.T) {
	a := newTestAPI(t)
	router := a.NewRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/sonarr", nil))
	require.Equal(t, http.StatusOK, w.Code)

	var report models.CycleReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 2, report.Attempted)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/status/lidarr", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStatusSSE(t *testing.T) {
	a := newTestAPI(t)
	a.sseInterval = 20 * time.Millisecond

	server := httptest.NewServer(a.NewRouter())
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/events/status", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	reader := bufio.NewReader(resp.Body)
	event, err := reader.ReadString('\n')
	require.NoError(t, err)
	assert.Equal(t, "event: status\n", event)

	data, err := reader.ReadString('\n')
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(data, "data: "))

	var status map[string]any
	require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(strings.TrimSpace(data), "data: ")), &status))
	assert.EqualValues(t, 2, status["count"])
}
