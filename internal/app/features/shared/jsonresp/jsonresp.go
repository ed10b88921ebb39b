// Package jsonresp writes API responses and maps the error taxonomy to
// HTTP status codes. Every operation returns either a success payload
// or a single human-readable message.
package jsonresp

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/GeddesWorks/quotes/internal/app/system/apperr"
)

type errorBody struct {
	Error string `json:"error"`
}

// Write encodes v as JSON with the given status.
func Write(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps an operation error onto a status code and a
// single-message body. Transient and unclassified errors become 502/500
// with a generic message; the detail goes to the log, not the client.
func WriteError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		logger.Error("unclassified handler error", zap.Error(err))
		Write(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
		return
	}

	switch appErr.Kind {
	case apperr.KindValidation:
		Write(w, http.StatusBadRequest, errorBody{Error: appErr.Message})
	case apperr.KindForbidden:
		Write(w, http.StatusForbidden, errorBody{Error: appErr.Message})
	case apperr.KindNotFound:
		Write(w, http.StatusNotFound, errorBody{Error: appErr.Message})
	case apperr.KindConflict:
		Write(w, http.StatusConflict, errorBody{Error: appErr.Message})
	default:
		logger.Error("transient handler error", zap.Error(err))
		Write(w, http.StatusBadGateway, errorBody{Error: "temporarily unavailable, retry the request"})
	}
}

// Decode reads a JSON request body into v.
func Decode(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validation("malformed request body")
	}
	return nil
}
