package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/templui/projectdesk/internal/repository"
	"github.com/templui/projectdesk/internal/service"
	"github.com/templui/projectdesk/internal/validation"
)

func TestWriteError_StatusMapping(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"validation", &validation.Error{Field: "name", Message: "name is required"}, http.StatusBadRequest, "name is required"},
		{"bad credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, service.ErrInvalidCredentials.Error()},
		{"wrong current password", service.ErrInvalidCurrentPassword, http.StatusUnauthorized, service.ErrInvalidCurrentPassword.Error()},
		{"inactive", service.ErrAccountInactive, http.StatusForbidden, service.ErrAccountInactive.Error()},
		{"not owner", service.ErrForbidden, http.StatusForbidden, service.ErrForbidden.Error()},
		{"wrapped not found", fmt.Errorf("load: %w", repository.ErrProjectNotFound), http.StatusNotFound, "project not found"},
		{"duplicate email", service.ErrEmailAlreadyExists, http.StatusConflict, service.ErrEmailAlreadyExists.Error()},
		{"reset token", service.ErrInvalidResetToken, http.StatusBadRequest, service.ErrInvalidResetToken.Error()},
		{"no storage", service.ErrStorageUnavailable, http.StatusServiceUnavailable, service.ErrStorageUnavailable.Error()},
		{"unknown", errors.New("disk on fire"), http.StatusInternalServerError, "internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodGet, "/api/projects", nil)

			writeError(w, r, tt.err)

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var body messageResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.message, body.Message)
		})
	}
}

func TestDecodeJSON(t *testing.T) {
	type payload struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"valid", `{"name":"Ada"}`, ""},
		{"empty", ``, "request body is required"},
		{"unknown field", `{"name":"Ada","isAdmin":true}`, "invalid request body"},
		{"malformed", `{"name":`, "invalid request body"},
		{"trailing object", `{"name":"Ada"}{"name":"Bob"}`, "single JSON object"},
		{"too large", `{"name":"` + strings.Repeat("a", maxBodyBytes) + `"}`, "too large"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tt.body))

			var dst payload
			err := decodeJSON(w, r, &dst)

			if tt.wantErr == "" {
				require.NoError(t, err)
				assert.Equal(t, "Ada", dst.Name)
				return
			}

			var verr *validation.Error
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Message, tt.wantErr)
		})
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.RemoteAddr = "203.0.113.7:5123"
	assert.Equal(t, "203.0.113.7", clientIP(r))

	r.RemoteAddr = "pipe"
	assert.Equal(t, "pipe", clientIP(r))
}
