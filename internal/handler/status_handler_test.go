package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"devtime/agent/internal/database"
	"devtime/agent/internal/models"
	"devtime/agent/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticStatus map[string]interface{}

func (s staticStatus) Status() map[string]interface{} { return s }

func newTestHandler(t *testing.T) (*StatusHandler, *repository.DiagnosticLogRepository) {
	t.Helper()
	db, err := database.New(filepath.Join(t.TempDir(), "test.db"), zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	diag := repository.NewDiagnosticLogRepository(db.DB)
	source := staticStatus{"token_present": true}
	return NewStatusHandler(source, diag, zap.NewNop()), diag
}

func TestGetStatus(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodGet, "/api/v1/status", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["token_present"])
}

func TestGetStatus_MethodNotAllowed(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetStatus(rec, httptest.NewRequest(http.MethodPost, "/api/v1/status", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestGetLogs(t *testing.T) {
	h, diag := newTestHandler(t)
	require.NoError(t, diag.CreateOrUpdate(models.DiagError, "sync failed", "backend down"))

	rec := httptest.NewRecorder()
	h.GetLogs(rec, httptest.NewRequest(http.MethodGet, "/api/v1/logs", nil))

	assert.Equal(t, http.StatusOK, rec.Code)

	var logs []models.DiagnosticLog
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, "sync failed", logs[0].Message)
}

func TestGetLogs_HoursParameter(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.GetLogs(rec, httptest.NewRequest(http.MethodGet, "/api/v1/logs?hours=48", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	for _, bad := range []string{"0", "-1", "abc"} {
		rec := httptest.NewRecorder()
		h.GetLogs(rec, httptest.NewRequest(http.MethodGet, "/api/v1/logs?hours="+bad, nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	}
}
