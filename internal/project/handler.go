package project

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/leaf/leaf/backend-go/internal/auth"
	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

type Handler struct {
	service *Service
	auth    *auth.Service
}

func NewHandler(service *Service, authSvc *auth.Service) *Handler {
	return &Handler{service: service, auth: authSvc}
}

type createRequest struct {
	Name       string `json:"name" validate:"required,max=100"`
	Background string `json:"background" validate:"omitempty,iscolor"`
	Sample     bool   `json:"sample"`
}

type createResponse struct {
	Project *Project `json:"project"`
	Token   string   `json:"token"`
}

type getResponse struct {
	Project *Project        `json:"project"`
	Scene   *document.Scene `json:"scene"`
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if err := document.Validator().Struct(req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	project, err := h.service.Create(req.Name, req.Background, req.Sample)
	if err != nil {
		slog.Error("create project failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	token, err := h.auth.IssueProjectToken(project.ID)
	if err != nil {
		slog.Error("issue project token failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
		return
	}

	writeJSON(w, http.StatusCreated, createResponse{Project: project, Token: token})
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.service.List())
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	project, err := h.service.Get(projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	scene, err := h.service.Scene(projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, getResponse{Project: project, Scene: scene})
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	if err := h.service.Delete(projectID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Forest returns the layer panel view: ?mode=linked|unlinked|combined.
func (h *Handler) Forest(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	mode, err := tree.ParseMode(r.URL.Query().Get("mode"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	nodes, err := h.service.Forest(projectID, mode)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, nodes)
}

// Export downloads the project as a standalone HTML page.
func (h *Handler) Export(w http.ResponseWriter, r *http.Request) {
	projectID := mux.Vars(r)["projectId"]

	width, err := queryFloat(r, "width")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	height, err := queryFloat(r, "height")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	project, err := h.service.Get(projectID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	html, err := h.service.Export(projectID, width, height)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.html"`, fileName(project.Name)))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

var unsafeFileChars = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

func fileName(name string) string {
	s := unsafeFileChars.ReplaceAllString(name, "-")
	if s == "" || s == "-" {
		return "export"
	}
	return s
}

func queryFloat(r *http.Request, key string) (float64, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, raw)
	}
	return v, nil
}

func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not found"})
	default:
		slog.Error("service error", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal error"})
	}
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
