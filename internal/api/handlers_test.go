package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"prism-alert-service/internal/actions"
	"prism-alert-service/internal/alerts"
	"prism-alert-service/internal/config"
	"prism-alert-service/internal/dedup"
	"prism-alert-service/internal/escalation"
	"prism-alert-service/internal/logging"
	"prism-alert-service/internal/models"
	"prism-alert-service/internal/notify"
	"prism-alert-service/internal/providers"
	"prism-alert-service/internal/store"
)

// memStore backs the router tests without a database.
type memStore struct {
	mu     sync.Mutex
	alerts map[string]models.Alert
}

func (m *memStore) Create(_ context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.alerts[a.ID] = *a
	return nil
}

func (m *memStore) GetByID(_ context.Context, id string) (*models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.alerts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (m *memStore) Update(_ context.Context, a *models.Alert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.alerts[a.ID]; !ok {
		return store.ErrNotFound
	}
	m.alerts[a.ID] = *a
	return nil
}

func (m *memStore) List(_ context.Context, filter store.Filter, _, _ int) ([]models.Alert, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Alert
	for _, a := range m.alerts {
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, a)
	}
	return out, len(out), nil
}

func (m *memStore) GetStats(_ context.Context, _ store.Filter) (store.Stats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	stats := store.Stats{
		ByStatus:   make(map[string]int),
		BySeverity: make(map[string]int),
		ByCategory: make(map[string]int),
	}
	for _, a := range m.alerts {
		stats.Total++
		stats.ByStatus[string(a.Status)]++
	}
	return stats, nil
}

func (m *memStore) Active(_ context.Context) ([]models.Alert, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Alert
	for _, a := range m.alerts {
		if a.Status != models.StatusResolved {
			out = append(out, a)
		}
	}
	return out, nil
}

func testRouter(t *testing.T) (*gin.Engine, *dedup.Deduplicator) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := logging.NewNop()
	clock := func() time.Time { return time.Date(2026, 1, 7, 10, 0, 0, 0, time.UTC) }

	st := &memStore{alerts: make(map[string]models.Alert)}
	templates, fallback := notify.DefaultTemplates()
	dispatcher := notify.New(nil, templates, fallback, notify.Config{MaxRetries: 3}, logger, clock)
	dd := dedup.New(dedup.DefaultRules(), logger, clock)
	ctrl := alerts.NewController(
		st,
		dd,
		actions.New(actions.DefaultTemplates(), 10000, 100, logger, clock),
		escalation.New(escalation.Settings{Enabled: true, MaxLevel: 3, WeekendEscalation: true}, logger, clock),
		dispatcher,
		logger,
		clock,
	)

	var cfg config.Config
	cfg.API.BasePath = "/api/v1"
	h := NewHandler(ctrl, dd, providers.NewPush(logger), logger)
	return NewRouter(logger, cfg, h), dd
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func createTestAlert(t *testing.T, r *gin.Engine, id string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/v1/alerts", models.AlertInput{
		ID:       id,
		Category: models.CategorySensorFailure,
		Severity: models.SeverityWarning,
		Title:    "Sensor offline",
		SourceID: "tilt-" + id,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
}

func TestCreateAlertEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/alerts", models.AlertInput{
		ID:       "a1",
		Category: models.CategoryRisk,
		Severity: models.SeverityWarning,
		Title:    "High displacement",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var alert models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alert))
	assert.Equal(t, "a1", alert.ID)
	assert.Equal(t, models.StatusActive, alert.Status)
}

func TestCreateAlertEndpointRejectsInvalid(t *testing.T) {
	r, _ := testRouter(t)

	// Binding failure: missing required fields.
	w := doJSON(t, r, http.MethodPost, "/api/v1/alerts", map[string]string{"title": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Passes binding, fails domain validation.
	w = doJSON(t, r, http.MethodPost, "/api/v1/alerts", models.AlertInput{
		ID:       "a1",
		Category: "volcano",
		Severity: models.SeverityWarning,
		Title:    "x",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAlertLifecycleEndpoints(t *testing.T) {
	r, _ := testRouter(t)
	createTestAlert(t, r, "a1")

	w := doJSON(t, r, http.MethodPost, "/api/v1/alerts/a1/acknowledge", map[string]string{"acknowledged_by": "operator-1"})
	require.Equal(t, http.StatusOK, w.Code)
	var alert models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alert))
	assert.Equal(t, models.StatusAcknowledged, alert.Status)

	w = doJSON(t, r, http.MethodPost, "/api/v1/alerts/a1/resolve", map[string]string{"resolved_by": "operator-1", "note": "fixed"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alert))
	assert.Equal(t, models.StatusResolved, alert.Status)
}

func TestSuppressEndpoint(t *testing.T) {
	r, _ := testRouter(t)
	createTestAlert(t, r, "a1")

	w := doJSON(t, r, http.MethodPost, "/api/v1/alerts/a1/suppress", map[string]interface{}{
		"suppressed_by": "operator-1",
		"reason":        "maintenance window",
		"minutes":       45,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var alert models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &alert))
	assert.Equal(t, models.StatusSuppressed, alert.Status)
	require.NotNil(t, alert.SuppressedUntil)
}

func TestLifecycleEndpointsNotFound(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodPost, "/api/v1/alerts/nope/acknowledge", map[string]string{"acknowledged_by": "operator-1"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, r, http.MethodPost, "/api/v1/alerts/nope/notifications/retry", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListAndStatsEndpoints(t *testing.T) {
	r, _ := testRouter(t)
	createTestAlert(t, r, "a1")
	createTestAlert(t, r, "a2")

	w := doJSON(t, r, http.MethodGet, "/api/v1/alerts?status=active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var page struct {
		Alerts []models.Alert `json:"alerts"`
		Total  int            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	assert.Equal(t, 2, page.Total)

	w = doJSON(t, r, http.MethodGet, "/api/v1/alerts/stats", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats store.Stats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)

	w = doJSON(t, r, http.MethodGet, "/api/v1/alerts/active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var active []models.Alert
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &active))
	assert.Len(t, active, 2)
}

func TestUpdateDedupRuleEndpoint(t *testing.T) {
	r, dd := testRouter(t)

	w := doJSON(t, r, http.MethodPut, "/api/v1/dedup-rules/volcano", models.DedupRule{WindowMinutes: 10})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doJSON(t, r, http.MethodPut, "/api/v1/dedup-rules/risk", models.DedupRule{
		WindowMinutes: 10,
		RequireSource: true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	rule, ok := dd.Rule(models.CategoryRisk)
	require.True(t, ok)
	assert.Equal(t, 10, rule.WindowMinutes)
	assert.True(t, rule.RequireSource)
}

func TestHealthEndpoint(t *testing.T) {
	r, _ := testRouter(t)

	w := doJSON(t, r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}
