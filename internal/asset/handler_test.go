package asset

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	img.Set(0, 0, color.RGBA{R: 255, A: 255})
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func uploadRequest(t *testing.T, name string, data []byte) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestUploadReportsIntrinsicSize(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir)

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "logo.png", pngBytes(t, 30, 20)))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp UploadResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 30, resp.Width)
	assert.Equal(t, 20, resp.Height)
	assert.Equal(t, "png", resp.Type)
	assert.Equal(t, "logo.png", resp.Name)
	assert.Equal(t, "/assets/"+resp.ID+".png", resp.URL)

	_, err := os.Stat(filepath.Join(dir, resp.ID+".png"))
	assert.NoError(t, err)
}

func TestUploadRejectsNonImages(t *testing.T) {
	h := NewHandler(t.TempDir())

	rec := httptest.NewRecorder()
	h.Upload(rec, uploadRequest(t, "notes.png", []byte("just some text")))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "only PNG and JPEG")
}

func TestUploadRequiresFileField(t *testing.T) {
	h := NewHandler(t.TempDir())

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	require.NoError(t, mw.WriteField("other", "x"))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/assets/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	rec := httptest.NewRecorder()
	h.Upload(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServeSetsCacheHeaders(t *testing.T) {
	dir := t.TempDir()
	h := NewHandler(dir)
	resp, err := h.store(pngBytes(t, 2, 2))
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	h.Serve().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, resp.URL, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "public, max-age=31536000, immutable", rec.Header().Get("Cache-Control"))
}

func TestRemove(t *testing.T) {
	h := NewHandler(t.TempDir())
	resp, err := h.store(pngBytes(t, 2, 2))
	require.NoError(t, err)

	r := mux.NewRouter()
	r.HandleFunc("/assets/{assetId}", h.Remove).Methods(http.MethodDelete)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/assets/"+resp.ID, nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/assets/"+resp.ID, nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	assert.Error(t, h.Delete("proj_01h455vb4pex5vsknk084sn02q"), "wrong prefix")
}
