package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/repository"
	"github.com/guardiancare/server/internal/service"
	"github.com/guardiancare/server/internal/store"
)

// SubmissionHandler serves the guarded create of meal requests and reviews.
type SubmissionHandler struct {
	svc  *service.SubmissionService
	coll *repository.Collection
	log  *zap.Logger
}

func NewSubmissionHandler(svc *service.SubmissionService, coll *repository.Collection, log *zap.Logger) *SubmissionHandler {
	return &SubmissionHandler{svc: svc, coll: coll, log: log}
}

func (h *SubmissionHandler) Create(w http.ResponseWriter, r *http.Request) {
	candidate, err := readRecord(w, r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	stored, err := h.svc.Submit(r.Context(), candidate)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, stored)
}

// DeleteOwn removes the submission with id only when it belongs to email.
func (h *SubmissionHandler) DeleteOwn(w http.ResponseWriter, r *http.Request) {
	n, err := h.coll.DeleteWhere(r.Context(), store.Filter{
		store.IDField:          chi.URLParam(r, "id"),
		service.SubmitterField: chi.URLParam(r, "email"),
	})
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deletedCount": n})
}
