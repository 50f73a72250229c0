package export

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/leaf/leaf/backend-go/internal/document"
)

const maxSceneSize = 5 << 20 // 5MB

type Handler struct {
	referenceHeight float64
}

func NewHandler(referenceHeight float64) *Handler {
	if referenceHeight <= 0 {
		referenceHeight = DefaultReferenceHeight
	}
	return &Handler{referenceHeight: referenceHeight}
}

// Request is the body of POST /export/html. Width and height default to the
// scene width and the reference height.
type Request struct {
	Scene   *document.Scene `json:"scene" validate:"required"`
	Options DocumentOptions `json:"options"`
}

// ExportHTML compiles a posted scene into a standalone HTML page.
func (h *Handler) ExportHTML(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxSceneSize)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Scene == nil {
		http.Error(w, "missing scene", http.StatusBadRequest)
		return
	}

	opts := req.Options
	if opts.Width == 0 {
		opts.Width = req.Scene.Width
	}
	if opts.Height == 0 {
		opts.Height = h.referenceHeight
	}

	html, err := ExportScene(req.Scene, h.referenceHeight, opts)
	if err != nil {
		slog.Warn("export scene", "error", err)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	name := req.Scene.Name
	if name == "" {
		name = "export"
	}
	// Sanitize filename
	name = strings.Map(func(r rune) rune {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '-' || r == '_' {
			return r
		}
		return '-'
	}, name)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s.html"`, name))
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}
