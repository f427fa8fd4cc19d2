package apperr

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/andrewtheguy/s3browser-sub000/internal/logger"
)

// envelope is the uniform error body every endpoint returns on failure:
// {"error":{"code":"NOT_FOUND","message":"..."}}.
type envelope struct {
	Error envelopeBody `json:"error"`
}

type envelopeBody struct {
	Code    Kind   `json:"code"`
	Message string `json:"message"`
}

// WriteError writes err as the uniform JSON error envelope, mapping its Kind
// to the matching HTTP status. Any error that isn't an *Error is treated as
// InternalError so a stray panic-recovered error never leaks internals.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *Error
	if !errors.As(err, &appErr) {
		appErr = Wrap(InternalError, "internal error", err)
	}

	if appErr.Kind == InternalError || appErr.Kind == S3Error {
		logger.ErrorCtx(r.Context(), "request failed", logger.KeyError, appErr.Error(), logger.KeyStatus, appErr.Status())
	}

	WriteJSON(w, appErr.Status(), envelope{Error: envelopeBody{Code: appErr.Kind, Message: appErr.Message}})
}

// WriteJSON writes data as a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// WriteJSONOK writes a 200 OK JSON response.
func WriteJSONOK(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusOK, data)
}

// WriteJSONCreated writes a 201 Created JSON response.
func WriteJSONCreated(w http.ResponseWriter, data any) {
	WriteJSON(w, http.StatusCreated, data)
}

// WriteNoContent writes a 204 No Content response.
func WriteNoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}
