package handler

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/service"
)

type PaymentHandler struct {
	svc *service.PaymentService
	log *zap.Logger
}

func NewPaymentHandler(svc *service.PaymentService, log *zap.Logger) *PaymentHandler {
	return &PaymentHandler{svc: svc, log: log}
}

func (h *PaymentHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Price float64 `json:"price"`
	}
	if err := readJSON(w, r, &req); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	secret, err := h.svc.CreateIntent(r.Context(), req.Price)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientSecret": secret})
}
