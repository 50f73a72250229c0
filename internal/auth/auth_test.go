package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTokenRoundTrip(t *testing.T) {
	svc := NewService("secret", time.Hour)

	token, err := svc.IssueProjectToken("proj_1")
	require.NoError(t, err)

	projectID, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "proj_1", projectID)
}

func TestValidateTokenRejects(t *testing.T) {
	svc := NewService("secret", time.Hour)
	other := NewService("other", time.Hour)
	foreign, err := other.IssueProjectToken("proj_1")
	require.NoError(t, err)

	expired := NewService("secret", time.Minute)
	expired.now = func() time.Time { return time.Now().Add(-time.Hour) }
	stale, err := expired.IssueProjectToken("proj_1")
	require.NoError(t, err)

	for name, token := range map[string]string{
		"garbage":      "not-a-token",
		"wrong secret": foreign,
		"expired":      stale,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := svc.ValidateToken(token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestProjectAccess(t *testing.T) {
	svc := NewService("secret", time.Hour)
	token, err := svc.IssueProjectToken("proj_1")
	require.NoError(t, err)

	r := mux.NewRouter()
	r.Handle("/projects/{projectId}", svc.ProjectAccess(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(ProjectIDFromContext(r.Context())))
	})))

	tests := []struct {
		name       string
		path       string
		header     string
		wantStatus int
	}{
		{"ok", "/projects/proj_1", "Bearer " + token, http.StatusOK},
		{"missing header", "/projects/proj_1", "", http.StatusUnauthorized},
		{"bad scheme", "/projects/proj_1", "Basic " + token, http.StatusUnauthorized},
		{"bad token", "/projects/proj_1", "Bearer nope", http.StatusUnauthorized},
		{"other project", "/projects/proj_2", "Bearer " + token, http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, "proj_1", rec.Body.String())
			}
		})
	}
}
