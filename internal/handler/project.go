package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/templui/projectdesk/internal/ctxkeys"
	"github.com/templui/projectdesk/internal/model"
	"github.com/templui/projectdesk/internal/service"
)

type ProjectHandler struct {
	projectService *service.ProjectService
}

func NewProjectHandler(projectService *service.ProjectService) *ProjectHandler {
	return &ProjectHandler{
		projectService: projectService,
	}
}

type projectPayload struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type projectRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Status      *string `json:"status"`
}

func (p projectRequest) input() service.ProjectInput {
	return service.ProjectInput{Name: p.Name, Description: p.Description, Status: p.Status}
}

func toProjectPayload(p *model.Project) projectPayload {
	return projectPayload{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Status:      p.Status,
		CreatedAt:   p.CreatedAt.UTC(),
		UpdatedAt:   p.UpdatedAt.UTC(),
	}
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	projects, err := h.projectService.List(r.Context(), user.ID)
	if err != nil {
		writeError(w, r, err)
		return
	}

	payload := make([]projectPayload, 0, len(projects))
	for _, p := range projects {
		payload = append(payload, toProjectPayload(p))
	}

	writeJSON(w, http.StatusOK, payload)
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := ctxkeys.User(r.Context())
	project, err := h.projectService.Create(r.Context(), user.ID, req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Message string         `json:"message"`
		Project projectPayload `json:"project"`
	}{
		Message: "project created",
		Project: toProjectPayload(project),
	})
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	project, err := h.projectService.Get(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, toProjectPayload(project))
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req projectRequest
	err := decodeJSON(w, r, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	user := ctxkeys.User(r.Context())
	_, err = h.projectService.Update(r.Context(), user.ID, chi.URLParam(r, "id"), req.input())
	if err != nil {
		writeError(w, r, err)
		return
	}

	WriteMessage(w, http.StatusOK, "project updated")
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user := ctxkeys.User(r.Context())

	err := h.projectService.Delete(r.Context(), user.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	WriteMessage(w, http.StatusOK, "project deleted")
}
