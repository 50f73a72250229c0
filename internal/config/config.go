package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port           int    `envconfig:"PORT" default:"8080"`
	JWTSecret      string `envconfig:"JWT_SECRET" default:"dev-secret-change-in-production"`
	AssetDir       string `envconfig:"ASSET_DIR" default:"./data/assets"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`

	LogFile  string `envconfig:"LOG_FILE"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	CanvasWidth           float64       `envconfig:"CANVAS_WIDTH" default:"1200"`
	CanvasHeight          float64       `envconfig:"CANVAS_HEIGHT" default:"800"`
	ExportReferenceHeight float64       `envconfig:"EXPORT_REFERENCE_HEIGHT" default:"670"`
	ConfirmTimeout        time.Duration `envconfig:"CONFIRM_TIMEOUT" default:"2s"`
	ProjectTTL            time.Duration `envconfig:"PROJECT_TTL" default:"24h"`

	WSWriteTimeout time.Duration `envconfig:"WS_WRITE_TIMEOUT" default:"10s"`
	WSPingInterval time.Duration `envconfig:"WS_PING_INTERVAL" default:"30s"`
	WSReadLimit    int64         `envconfig:"WS_READ_LIMIT" default:"65536"`
}

// Load reads an optional .env file, then the environment. Variables already
// set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Origins splits AllowedOrigins into host patterns.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	return out
}
