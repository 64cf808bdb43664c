package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/service"
)

type DashboardHandler struct {
	svc *service.DashboardService
	log *zap.Logger
}

func NewDashboardHandler(svc *service.DashboardService, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, log: log}
}

func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	counts, err := h.svc.Counts(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}
