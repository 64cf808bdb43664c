package handler

import (
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/store"
)

const banner = "Guardian Care server started"

type HealthHandler struct {
	st  store.Store
	log *zap.Logger
}

func NewHealthHandler(st store.Store, log *zap.Logger) *HealthHandler {
	return &HealthHandler{st: st, log: log}
}

// Root answers the liveness banner.
func (h *HealthHandler) Root(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, banner)
}

// Healthz reports whether the store answers a ping.
func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	if err := h.st.Ping(r.Context()); err != nil {
		h.log.Warn("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
