package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/templui/projectdesk/internal/ctxkeys"
	"github.com/templui/projectdesk/internal/model"
	"github.com/templui/projectdesk/internal/service"
	"github.com/templui/projectdesk/internal/validation"
)

// Multipart overhead on top of the 5 MB image limit.
const maxAvatarRequestBytes = 6 << 20

type ProfileHandler struct {
	profileService *service.ProfileService
}

func NewProfileHandler(profileService *service.ProfileService) *ProfileHandler {
	return &ProfileHandler{
		profileService: profileService,
	}
}

type profileResponse struct {
	Name      string `json:"name"`
	Contact   string `json:"contact"`
	Avatar    string `json:"avatar"`
	AvatarURL string `json:"avatarUrl"`
}

func (h *ProfileHandler) toResponse(r *http.Request, p *model.Profile) profileResponse {
	return profileResponse{
		Name:      p.Name,
		Contact:   p.Contact,
		Avatar:    p.Avatar,
		AvatarURL: h.profileService.AvatarURL(r.Context(), p.Avatar),
	}
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	profile, err := h.profileService.Get(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, h.toResponse(r, profile))
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    *string `json:"name"`
		Contact *string `json:"contact"`
		Avatar  *string `json:"avatar"`
	}
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := ctxkeys.User(r.Context())
	_, err = h.profileService.Update(r.Context(), user.ID, service.ProfileUpdate{
		Name:    req.Name,
		Contact: req.Contact,
		Avatar:  req.Avatar,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	WriteMessage(w, http.StatusOK, "profile updated")
}

func (h *ProfileHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, maxAvatarRequestBytes)
	err := r.ParseMultipartForm(maxAvatarRequestBytes)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			writeError(w, r, &validation.Error{Field: "avatar", Message: "file too large: maximum size is 5 MB"})
			return
		}
		writeError(w, r, &validation.Error{Field: "avatar", Message: "failed to parse upload"})
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		writeError(w, r, &validation.Error{Field: "avatar", Message: "no file uploaded"})
		return
	}
	defer func() {
		closeErr := file.Close()
		if closeErr != nil {
			slog.Error("failed to close file", "error", closeErr)
		}
	}()

	profile, err := h.profileService.UploadAvatar(r.Context(), user.ID, file, header)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Message string          `json:"message"`
		Profile profileResponse `json:"profile"`
	}{
		Message: "avatar uploaded",
		Profile: h.toResponse(r, profile),
	})
}
