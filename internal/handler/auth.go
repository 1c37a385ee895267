package handler

import (
	"log/slog"
	"net/http"

	"github.com/templui/projectdesk/internal/ctxkeys"
	"github.com/templui/projectdesk/internal/model"
	"github.com/templui/projectdesk/internal/service"
	"github.com/templui/projectdesk/internal/session"
)

type AuthHandler struct {
	authService    *service.AuthService
	profileService *service.ProfileService
	sessions       *session.Manager
}

func NewAuthHandler(authService *service.AuthService, profileService *service.ProfileService, sessions *session.Manager) *AuthHandler {
	return &AuthHandler{
		authService:    authService,
		profileService: profileService,
		sessions:       sessions,
	}
}

type userSummary struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type authResponse struct {
	Message                string      `json:"message"`
	User                   userSummary `json:"user"`
	IsAuthenticated        bool        `json:"isAuthenticated"`
	RequiresPasswordChange *bool       `json:"requiresPasswordChange,omitempty"`
}

type statusUser struct {
	ID                 string `json:"id"`
	Email              string `json:"email"`
	Name               string `json:"name"`
	Contact            string `json:"contact"`
	Avatar             string `json:"avatar"`
	AvatarURL          string `json:"avatarUrl"`
	IsAdmin            bool   `json:"isAdmin"`
	MustChangePassword bool   `json:"mustChangePassword"`
}

type statusResponse struct {
	IsAuthenticated bool        `json:"isAuthenticated"`
	User            *statusUser `json:"user,omitempty"`
}

func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, profile, err := h.authService.Signup(r.Context(), service.SignupInput{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.startSession(w, r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		Message:         "account created",
		User:            userSummary{ID: user.ID, Email: user.Email, Name: user.DisplayName(profile)},
		IsAuthenticated: true,
	})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.startSession(w, r, user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.profileService.Get(r.Context(), user.ID)
	if err != nil {
		slog.Warn("failed to load profile after login", "error", err, "user_id", user.ID)
	}

	mustChange := user.MustChangePassword
	writeJSON(w, http.StatusOK, authResponse{
		Message:                "login successful",
		User:                   userSummary{ID: user.ID, Email: user.Email, Name: user.DisplayName(profile)},
		IsAuthenticated:        true,
		RequiresPasswordChange: &mustChange,
	})
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := ctxkeys.Session(r.Context())

	err := h.sessions.End(r.Context(), w, sess.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	WriteMessage(w, http.StatusOK, "logout successful")
}

func (h *AuthHandler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())
	if user == nil {
		writeJSON(w, http.StatusOK, statusResponse{IsAuthenticated: false})
		return
	}

	profile, err := h.profileService.Get(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, statusResponse{
		IsAuthenticated: true,
		User: &statusUser{
			ID:                 user.ID,
			Email:              user.Email,
			Name:               user.DisplayName(profile),
			Contact:            profile.Contact,
			Avatar:             profile.Avatar,
			AvatarURL:          h.profileService.AvatarURL(r.Context(), profile.Avatar),
			IsAdmin:            user.IsAdmin,
			MustChangePassword: user.MustChangePassword,
		},
	})
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		CurrentPassword string `json:"currentPassword"`
		NewPassword     string `json:"newPassword"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := ctxkeys.User(r.Context())
	sess := ctxkeys.Session(r.Context())

	err = h.authService.ChangePassword(r.Context(), user.ID, sess.ID, req.CurrentPassword, req.NewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}

	WriteMessage(w, http.StatusOK, "your password has been updated")
}

func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email string `json:"email"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.authService.ForgotPassword(r.Context(), req.Email)
	if err != nil {
		// Same answer as success so the response never reveals whether the account exists
		slog.Error("forgot password failed", "error", err)
	}

	WriteMessage(w, http.StatusOK, "if the email is registered, a reset link will be sent")
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Token              string `json:"token"`
		NewPassword        string `json:"newPassword"`
		ConfirmNewPassword string `json:"confirmNewPassword"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	err = h.authService.ResetPassword(r.Context(), req.Token, req.NewPassword, req.ConfirmNewPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}

	WriteMessage(w, http.StatusOK, "your password has been reset")
}

// startSession replaces any session the request already carries with a new
// one for user.
func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, user *model.User) error {
	if prev := ctxkeys.Session(r.Context()); prev != nil {
		err := h.sessions.End(r.Context(), w, prev.ID)
		if err != nil {
			slog.Warn("failed to end previous session", "error", err, "session_id", prev.ID)
		}
	}

	_, err := h.sessions.Start(r.Context(), w, user.ID, clientIP(r), r.UserAgent())
	return err
}
