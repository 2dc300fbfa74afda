package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/nightcity/redsheet/internal/apperr"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func readJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

func writeError(w http.ResponseWriter, status int, code apperr.Code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: string(code)})
}

func writeBadBody(w http.ResponseWriter) {
	writeError(w, http.StatusBadRequest, apperr.CodeInvalidInput, "invalid request body")
}

// writeFailure renders a service error. Coded errors keep their message and
// status; anything else is logged and hidden behind a 500.
func writeFailure(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	var e *apperr.Error
	if errors.As(err, &e) {
		status := e.Code.HTTPStatus()
		if status == http.StatusInternalServerError {
			logger.Error("request failed", "path", r.URL.Path, "error", err,
				"request_id", middleware.GetReqID(r.Context()))
			writeError(w, status, e.Code, "internal error")
			return
		}
		writeError(w, status, e.Code, e.Message)
		return
	}
	logger.Error("request failed", "path", r.URL.Path, "error", err,
		"request_id", middleware.GetReqID(r.Context()))
	writeError(w, http.StatusInternalServerError, "INTERNAL", "internal error")
}
