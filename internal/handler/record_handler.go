package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/guardiancare/server/internal/repository"
	"github.com/guardiancare/server/internal/store"
)

// RecordHandler serves plain CRUD over one collection. Every method is a
// single store call whose result is returned as the body.
type RecordHandler struct {
	coll *repository.Collection
	log  *zap.Logger
}

func NewRecordHandler(coll *repository.Collection, log *zap.Logger) *RecordHandler {
	return &RecordHandler{coll: coll, log: log}
}

func (h *RecordHandler) List(w http.ResponseWriter, r *http.Request) {
	recs, err := h.coll.All(r.Context())
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, recs)
}

func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, err := h.coll.ByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// GetBy returns the first record whose field equals the URL parameter param.
func (h *RecordHandler) GetBy(field, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := h.coll.OneBy(r.Context(), field, chi.URLParam(r, param))
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

// ListBy returns every record whose field equals the URL parameter param.
func (h *RecordHandler) ListBy(field, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		recs, err := h.coll.AllBy(r.Context(), field, chi.URLParam(r, param))
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, recs)
	}
}

func (h *RecordHandler) Create(w http.ResponseWriter, r *http.Request) {
	rec, err := readRecord(w, r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	created, err := h.coll.Create(r.Context(), rec)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Update overwrites the fields present in the body and returns the record
// after the update.
func (h *RecordHandler) Update(w http.ResponseWriter, r *http.Request) {
	fields, err := readRecord(w, r)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	updated, err := h.coll.Patch(r.Context(), chi.URLParam(r, "id"), fields)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// SetField replaces the single body field named field on the record whose
// filterField equals the URL parameter param. Other body fields are ignored.
func (h *RecordHandler) SetField(field, filterField, param string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := readRecord(w, r)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		value, ok := body[field]
		if !ok {
			writeMessage(w, http.StatusBadRequest, field+" is required")
			return
		}
		updated, err := h.coll.SetField(r.Context(), store.Filter{filterField: chi.URLParam(r, param)}, field, value)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func (h *RecordHandler) Delete(w http.ResponseWriter, r *http.Request) {
	n, err := h.coll.DeleteByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deletedCount": n})
}
