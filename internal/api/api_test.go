package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/dropgate/internal/dispatch"
	"github.com/andresuchdata/dropgate/internal/domain"
	"github.com/andresuchdata/dropgate/internal/journal"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type staticStats struct {
	snap dispatch.Snapshot
}

func (s staticStats) Snapshot() dispatch.Snapshot { return s.snap }

func get(t *testing.T, router http.Handler, target string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHealth(t *testing.T) {
	w, body := get(t, NewRouter(nil, nil), "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])
}

func TestStats(t *testing.T) {
	stats := staticStats{snap: dispatch.Snapshot{
		Outcomes: map[domain.Outcome]int64{domain.OutcomeUploaded: 4, domain.OutcomeQuarantined: 1},
		Received: 6,
	}}
	w, body := get(t, NewRouter(&Services{Stats: stats}, nil), "/api/v1/stats")

	require.Equal(t, http.StatusOK, w.Code)
	data := body["data"].(map[string]any)
	assert.EqualValues(t, 6, data["received"])
	outcomes := data["outcomes"].(map[string]any)
	assert.EqualValues(t, 4, outcomes["uploaded"])
	assert.EqualValues(t, 1, outcomes["quarantined"])
}

func TestOutcomes(t *testing.T) {
	j := journal.NewMemory(10)
	ctx := context.Background()
	require.NoError(t, j.Record(ctx, domain.OutcomeRecord{Path: "/drop/a.pdf", Outcome: domain.OutcomeUploaded}))
	require.NoError(t, j.Record(ctx, domain.OutcomeRecord{Path: "/drop/b.txt", Outcome: domain.OutcomeQuarantined}))
	require.NoError(t, j.Record(ctx, domain.OutcomeRecord{Path: "/drop/c.pdf", Outcome: domain.OutcomeUploaded}))

	router := NewRouter(&Services{Journal: j}, nil)

	w, body := get(t, router, "/api/v1/outcomes")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 3, body["count"])
	first := body["data"].([]any)[0].(map[string]any)
	assert.Equal(t, "/drop/c.pdf", first["path"])

	w, body = get(t, router, "/api/v1/outcomes?outcome=Quarantined")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, body = get(t, router, "/api/v1/outcomes?limit=1")
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, body["count"])

	w, _ = get(t, router, "/api/v1/outcomes?limit=zero")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = get(t, router, "/api/v1/outcomes?outcome=lost")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestOutcomesNotMountedWithoutJournal(t *testing.T) {
	w := httptest.NewRecorder()
	NewRouter(&Services{}, nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/outcomes", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClassify(t *testing.T) {
	router := NewRouter(nil, nil)

	w, body := get(t, router, "/api/v1/classify?name=12-3-a-math.pdf")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "valid", body["classification"])
	assert.Equal(t, "12-3-a-math", body["remote_key"])
	assert.Equal(t, "math", body["fields"].(map[string]any)["subject"])

	_, body = get(t, router, "/api/v1/classify?name=weird_file.txt")
	assert.Equal(t, "invalid", body["classification"])
	assert.NotContains(t, body, "remote_key")

	_, body = get(t, router, "/api/v1/classify?name=7-prep-null-english.pdf")
	assert.Equal(t, "delay-required", body["classification"])

	w, _ = get(t, router, "/api/v1/classify")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{"https://a.example, https://b.example", " "})
	assert.False(t, all)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, origins)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
