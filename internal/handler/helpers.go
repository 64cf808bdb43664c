package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"

	mw "github.com/guardiancare/server/internal/middleware"
	"github.com/guardiancare/server/internal/service"
	"github.com/guardiancare/server/internal/store"
)

// maxBody bounds request bodies.
const maxBody = 1 << 20

var errBadBody = errors.New("invalid request body")

const duplicateRecordMsg = "a record with the same mealId and email already exists"

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"message": msg})
}

// readJSON decodes a single JSON value body into v. Unknown fields are kept;
// records are schemaless.
func readJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	if err := dec.Decode(v); err != nil {
		return errors.Mark(errors.Wrap(err, "decode body"), errBadBody)
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.Mark(errors.New("trailing data after body"), errBadBody)
	}
	return nil
}

// readRecord decodes a JSON object body.
func readRecord(w http.ResponseWriter, r *http.Request) (store.Record, error) {
	var rec store.Record
	if err := readJSON(w, r, &rec); err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, errBadBody
	}
	return rec, nil
}

// writeError maps an error to its HTTP outcome. Unexpected errors are
// logged and answered with an opaque 500.
func writeError(w http.ResponseWriter, r *http.Request, log *zap.Logger, err error) {
	var dup *service.DuplicateSubmissionError
	switch {
	case errors.As(err, &dup):
		writeMessage(w, http.StatusBadRequest, dup.Message)
	case errors.Is(err, errBadBody):
		writeMessage(w, http.StatusBadRequest, errBadBody.Error())
	case errors.Is(err, service.ErrInvalidSubmission),
		errors.Is(err, service.ErrInvalidAmount):
		writeMessage(w, http.StatusBadRequest, errors.UnwrapAll(err).Error())
	case errors.Is(err, store.ErrDuplicateKey):
		writeMessage(w, http.StatusConflict, duplicateRecordMsg)
	case errors.Is(err, store.ErrInvalidID):
		writeMessage(w, http.StatusBadRequest, "invalid id")
	case errors.Is(err, store.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	default:
		log.Error("request failed",
			zap.String("request_id", mw.RequestID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
