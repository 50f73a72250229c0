// Package asset stores images placed on the canvas and reports their
// intrinsic size so image objects can be created at natural dimensions.
package asset

import (
	"bytes"
	"encoding/json"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gorilla/mux"

	"github.com/leaf/leaf/backend-go/internal/typeid"
)

const maxUploadSize = 10 << 20 // 10MB

// extensions maps the accepted image types to their stored file extension.
var extensions = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
}

// UploadResponse is returned from the upload endpoint.
type UploadResponse struct {
	ID     string `json:"id"`
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Type   string `json:"type"`
	Name   string `json:"name"`
}

// Handler serves asset upload and retrieval endpoints.
type Handler struct {
	dir string
}

func NewHandler(dir string) *Handler {
	if err := os.MkdirAll(dir, 0755); err != nil {
		slog.Error("create asset dir", "error", err, "dir", dir)
	}
	return &Handler{dir: dir}
}

// Upload handles POST /assets/upload (multipart form with "file" field).
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		http.Error(w, "file too large (max 10MB)", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		http.Error(w, "failed to read file", http.StatusBadRequest)
		return
	}

	resp, err := h.store(data)
	if err != nil {
		slog.Warn("store asset", "error", err, "name", header.Filename)
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	resp.Name = header.Filename

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(resp)
}

// store checks the bytes are a PNG or JPEG image, reads its dimensions and
// writes it under a fresh asset id.
func (h *Handler) store(data []byte) (*UploadResponse, error) {
	mtype := mimetype.Detect(data).String()
	ext, ok := extensions[mtype]
	if !ok {
		return nil, fmt.Errorf("only PNG and JPEG images are supported, got %s", mtype)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("invalid image: %w", err)
	}

	assetID := typeid.NewAssetID()
	filename := assetID + ext
	if err := os.WriteFile(filepath.Join(h.dir, filename), data, 0644); err != nil {
		return nil, fmt.Errorf("save asset: %w", err)
	}

	return &UploadResponse{
		ID:     assetID,
		URL:    "/assets/" + filename,
		Width:  cfg.Width,
		Height: cfg.Height,
		Type:   strings.TrimPrefix(ext, "."),
	}, nil
}

// Serve returns an http.Handler that serves stored asset files with caching headers.
func (h *Handler) Serve() http.Handler {
	fs := http.FileServer(http.Dir(h.dir))
	return http.StripPrefix("/assets/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Asset IDs are unique, so files are immutable
		w.Header().Set("Cache-Control", "public, max-age=31536000, immutable")
		fs.ServeHTTP(w, r)
	}))
}

// Delete removes an asset file from disk.
func (h *Handler) Delete(assetID string) error {
	if err := typeid.Validate(assetID, typeid.PrefixAsset); err != nil {
		return err
	}
	for _, ext := range extensions {
		if err := os.Remove(filepath.Join(h.dir, assetID+ext)); err == nil {
			return nil
		}
	}
	return fmt.Errorf("asset not found: %s", assetID)
}

// Remove handles DELETE /assets/{assetId}.
func (h *Handler) Remove(w http.ResponseWriter, r *http.Request) {
	if err := h.Delete(mux.Vars(r)["assetId"]); err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
