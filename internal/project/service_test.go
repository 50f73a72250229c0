package project

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaf/leaf/backend-go/internal/auth"
	"github.com/leaf/leaf/backend-go/internal/document"
	"github.com/leaf/leaf/backend-go/internal/tree"
)

func TestServiceLifecycle(t *testing.T) {
	svc := NewService(Options{})

	p, err := svc.Create("Landing", "", true)
	require.NoError(t, err)
	assert.Equal(t, "#ffffff", p.Background)
	assert.Equal(t, 1200.0, p.CanvasWidth)

	got, err := svc.Get(p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	forest, err := svc.Forest(p.ID, tree.ModeCombined)
	require.NoError(t, err)
	assert.Len(t, forest, 2, "sample scene has one container and one free shape")

	assert.Len(t, svc.List(), 1)

	require.NoError(t, svc.Delete(p.ID))
	_, err = svc.Get(p.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, svc.Delete(p.ID), ErrNotFound)
}

func TestListIsOrdered(t *testing.T) {
	svc := NewService(Options{})
	first, err := svc.Create("one", "", false)
	require.NoError(t, err)
	time.Sleep(time.Millisecond)
	second, err := svc.Create("two", "", false)
	require.NoError(t, err)

	list := svc.List()
	require.Len(t, list, 2)
	assert.Equal(t, first.ID, list[0].ID)
	assert.Equal(t, second.ID, list[1].ID)
}

func TestExportIsCachedPerRevision(t *testing.T) {
	svc := NewService(Options{})
	p, err := svc.Create("Landing", "", false)
	require.NoError(t, err)
	session, err := svc.Session(p.ID)
	require.NoError(t, err)

	empty, err := svc.Export(p.ID, 0, 0)
	require.NoError(t, err)
	again, err := svc.Export(p.ID, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, empty, again)
	assert.Equal(t, 1, svc.exports.ItemCount())

	obj, err := document.NewObject(document.KindCircle)
	require.NoError(t, err)
	require.NoError(t, session.AddObject(obj))

	updated, err := svc.Export(p.ID, 0, 0)
	require.NoError(t, err)
	assert.Contains(t, updated, obj.ID)
	assert.Equal(t, 2, svc.exports.ItemCount())

	require.NoError(t, svc.Delete(p.ID))
	assert.Equal(t, 0, svc.exports.ItemCount())
}

func newRouter(t *testing.T) (*mux.Router, *Service, *auth.Service) {
	t.Helper()
	svc := NewService(Options{})
	authSvc := auth.NewService("secret", time.Hour)
	h := NewHandler(svc, authSvc)

	r := mux.NewRouter()
	r.HandleFunc("/api/projects", h.Create).Methods("POST")
	r.HandleFunc("/api/projects", h.List).Methods("GET")
	p := r.PathPrefix("/api/projects/{projectId}").Subrouter()
	p.Use(authSvc.ProjectAccess)
	p.HandleFunc("", h.Get).Methods("GET")
	p.HandleFunc("", h.Delete).Methods("DELETE")
	p.HandleFunc("/forest", h.Forest).Methods("GET")
	p.HandleFunc("/export", h.Export).Methods("GET")
	return r, svc, authSvc
}

func do(r http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestHandlerFlow(t *testing.T) {
	r, _, _ := newRouter(t)

	rec := do(r, http.MethodPost, "/api/projects", "", `{"name":"My page","sample":true}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created createResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	require.NotEmpty(t, created.Token)
	base := "/api/projects/" + created.Project.ID

	rec = do(r, http.MethodGet, base, created.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var got getResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Scene.Objects, 4)
	assert.Len(t, got.Scene.Links, 2)

	rec = do(r, http.MethodGet, base+"/forest?mode=unlinked", created.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	var nodes []*tree.Node
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &nodes))
	assert.Len(t, nodes, 1)

	rec = do(r, http.MethodGet, base+"/forest?mode=sideways", created.Token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodGet, base+"/export?width=600", created.Token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="My-page.html"`, rec.Header().Get("Content-Disposition"))
	assert.Contains(t, rec.Body.String(), "<!DOCTYPE html>")

	rec = do(r, http.MethodGet, base+"/export?width=-1", created.Token, "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(r, http.MethodDelete, base, created.Token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = do(r, http.MethodGet, base, created.Token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandlerCreateValidation(t *testing.T) {
	r, _, _ := newRouter(t)

	for name, body := range map[string]string{
		"bad json":       `{`,
		"missing name":   `{"name":""}`,
		"bad background": `{"name":"x","background":"url(evil)"}`,
	} {
		t.Run(name, func(t *testing.T) {
			rec := do(r, http.MethodPost, "/api/projects", "", body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}

func TestHandlerRequiresProjectToken(t *testing.T) {
	r, svc, authSvc := newRouter(t)
	a, err := svc.Create("a", "", false)
	require.NoError(t, err)
	b, err := svc.Create("b", "", false)
	require.NoError(t, err)
	tokenB, err := authSvc.IssueProjectToken(b.ID)
	require.NoError(t, err)

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/api/projects/"+a.ID, "", "").Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/api/projects/"+a.ID, tokenB, "").Code)
}
