package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"devtime/agent/internal/repository"

	"go.uber.org/zap"
)

// StatusSource exposes the sync pipeline's current state.
type StatusSource interface {
	Status() map[string]interface{}
}

// StatusHandler serves the local status API the desktop UI polls.
type StatusHandler struct {
	source StatusSource
	diag   *repository.DiagnosticLogRepository
	logger *zap.Logger
}

func NewStatusHandler(source StatusSource, diag *repository.DiagnosticLogRepository, logger *zap.Logger) *StatusHandler {
	return &StatusHandler{
		source: source,
		diag:   diag,
		logger: logger,
	}
}

func (h *StatusHandler) GetStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.source.Status())
}

// GetLogs returns diagnostics from the last N hours (default 24).
func (h *StatusHandler) GetLogs(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	hours := 24
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		parsed, err := strconv.Atoi(hoursStr)
		if err != nil || parsed <= 0 {
			http.Error(w, "Invalid hours parameter", http.StatusBadRequest)
			return
		}
		hours = parsed
	}

	logs, err := h.diag.List(time.Now().Add(-time.Duration(hours)*time.Hour), time.Now())
	if err != nil {
		h.logger.Error("Failed to list diagnostics", zap.Error(err))
		http.Error(w, "Failed to list diagnostics", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(logs)
}
