package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// Server
	Port        int    `envconfig:"PORT" default:"3000"`
	Environment string `envconfig:"ENV" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL"`

	// Provider
	FaceProvider  string `envconfig:"FACE_PROVIDER" default:"mock"`
	DeepFaceURL   string `envconfig:"DEEPFACE_URL" default:"http://localhost:5005"`
	ModelsBaseURL string `envconfig:"MODELS_BASE_URL" default:"http://localhost:3000"`
	ModelsDir     string `envconfig:"MODELS_DIR" default:"./models"`

	// Capture
	CaptureSource      string        `envconfig:"CAPTURE_SOURCE" default:"push"`
	CameraDevice       int           `envconfig:"CAMERA_DEVICE" default:"0"`
	CaptureWidth       int           `envconfig:"CAPTURE_WIDTH" default:"320"`
	CaptureHeight      int           `envconfig:"CAPTURE_HEIGHT" default:"240"`
	CaptureMaxFrameAge time.Duration `envconfig:"CAPTURE_MAX_FRAME_AGE" default:"10s"`

	// Detection and matching
	DetectorInputSize      int           `envconfig:"DETECTOR_INPUT_SIZE" default:"128"`
	DetectorScoreThreshold float64       `envconfig:"DETECTOR_SCORE_THRESHOLD" default:"0.3"`
	MatchThreshold         float64       `envconfig:"MATCH_THRESHOLD" default:"0.6"`
	FlowTimeout            time.Duration `envconfig:"FLOW_TIMEOUT" default:"30s"`

	// Rate limiting on flow endpoints, per client IP per minute
	RateLimitMax int `envconfig:"RATE_LIMIT_MAX" default:"60"`

	// Journal (optional)
	DatabaseURL string `envconfig:"DATABASE_URL"`

	// Event forwarding (optional)
	WebhookURL    string   `envconfig:"WEBHOOK_URL"`
	WebhookSecret string   `envconfig:"WEBHOOK_SECRET"`
	WebhookEvents []string `envconfig:"WEBHOOK_EVENTS" default:"face.registered,face.recognized"`
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	// .env is optional
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return &cfg, nil
}

// Validate rejects values the flows cannot work with.
func (c *Config) Validate() error {
	if c.MatchThreshold <= 0 {
		return fmt.Errorf("MATCH_THRESHOLD must be positive, got %v", c.MatchThreshold)
	}
	if c.DetectorScoreThreshold < 0 || c.DetectorScoreThreshold > 1 {
		return fmt.Errorf("DETECTOR_SCORE_THRESHOLD must be between 0 and 1, got %v", c.DetectorScoreThreshold)
	}
	if c.CaptureWidth <= 0 || c.CaptureHeight <= 0 {
		return fmt.Errorf("capture resolution must be positive, got %dx%d", c.CaptureWidth, c.CaptureHeight)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.FlowTimeout <= 0 {
		return fmt.Errorf("FLOW_TIMEOUT must be positive, got %v", c.FlowTimeout)
	}
	return nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// WebhookEnabled reports whether session events are forwarded over HTTP.
func (c *Config) WebhookEnabled() bool {
	return c.WebhookURL != ""
}

// JournalEnabled reports whether flow events are written to Postgres.
func (c *Config) JournalEnabled() bool {
	return c.DatabaseURL != ""
}
