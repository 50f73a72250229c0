package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaf/leaf/backend-go/internal/config"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 1200.0, cfg.CanvasWidth)
	assert.Equal(t, 670.0, cfg.ExportReferenceHeight)
	assert.Equal(t, 2*time.Second, cfg.ConfirmTimeout)
	assert.Equal(t, 24*time.Hour, cfg.ProjectTTL)
	assert.Equal(t, 30*time.Second, cfg.WSPingInterval)
	assert.Equal(t, int64(64*1024), cfg.WSReadLimit)
	assert.Equal(t, []string{"http://localhost:5173", "http://localhost:3000"}, cfg.Origins())
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("CONFIRM_TIMEOUT=500ms\nCANVAS_WIDTH=1440\n"), 0o600))
	t.Setenv("PORT", "9090")
	t.Setenv("CANVAS_WIDTH", "1000")
	t.Cleanup(func() { os.Unsetenv("CONFIRM_TIMEOUT") })

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 500*time.Millisecond, cfg.ConfirmTimeout)
	assert.Equal(t, 1000.0, cfg.CanvasWidth, "environment wins over the file")
}

func TestLoadRejectsBadValue(t *testing.T) {
	t.Setenv("CONFIRM_TIMEOUT", "soon")

	_, err := config.Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}
