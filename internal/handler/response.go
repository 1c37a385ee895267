package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"

	"github.com/templui/projectdesk/internal/repository"
	"github.com/templui/projectdesk/internal/service"
	"github.com/templui/projectdesk/internal/validation"
)

const maxBodyBytes = 1 << 20

type messageResponse struct {
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(payload)
	if err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// WriteMessage writes the {"message": ...} envelope every response outside a
// success payload uses, including middleware rejections.
func WriteMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, messageResponse{Message: message})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	WriteMessage(w, http.StatusNotFound, "not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	WriteMessage(w, http.StatusMethodNotAllowed, "method not allowed")
}

// decodeJSON reads a single JSON object of at most 1 MB into dst. Unknown
// fields are an error.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	err := dec.Decode(dst)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return &validation.Error{Field: "body", Message: "request body is too large"}
		}
		if errors.Is(err, io.EOF) {
			return &validation.Error{Field: "body", Message: "request body is required"}
		}
		return &validation.Error{Field: "body", Message: fmt.Sprintf("invalid request body: %v", err)}
	}

	if dec.More() {
		return &validation.Error{Field: "body", Message: "request body must contain a single JSON object"}
	}
	return nil
}

// writeError maps service errors to status codes. Anything unrecognised is
// logged and reported as a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *validation.Error
	switch {
	case errors.As(err, &verr):
		WriteMessage(w, http.StatusBadRequest, verr.Message)
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidCurrentPassword):
		WriteMessage(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrAccountInactive),
		errors.Is(err, service.ErrForbidden):
		WriteMessage(w, http.StatusForbidden, err.Error())
	case errors.Is(err, repository.ErrProjectNotFound):
		WriteMessage(w, http.StatusNotFound, "project not found")
	case errors.Is(err, service.ErrEmailAlreadyExists):
		WriteMessage(w, http.StatusConflict, err.Error())
	case errors.Is(err, service.ErrInvalidResetToken):
		WriteMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrStorageUnavailable):
		WriteMessage(w, http.StatusServiceUnavailable, err.Error())
	default:
		slog.Error("request failed", "error", err, "method", r.Method, "path", r.URL.Path)
		WriteMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
