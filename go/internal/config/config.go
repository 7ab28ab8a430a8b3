// Package config loads gavel settings from an optional YAML file and the
// environment (with a .env file honoured).
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/mcdev12/gavel/go/internal/listing"
	"github.com/mcdev12/gavel/go/internal/staging"
)

const (
	TransportWebSocket = "websocket"
	TransportNATS      = "nats"
)

var ErrInvalidConfig = errors.New("invalid config")

type Config struct {
	Site struct {
		URL           string `yaml:"url"`
		SessionCookie string `yaml:"session_cookie"`
	} `yaml:"site"`

	Cloudinary struct {
		CloudName    string `yaml:"cloud_name"`
		UploadPreset string `yaml:"upload_preset"`
		Folder       string `yaml:"folder"`
	} `yaml:"cloudinary"`

	S3 struct {
		Bucket string `yaml:"bucket"`
		Region string `yaml:"region"`
		Folder string `yaml:"folder"`
	} `yaml:"s3"`

	Push struct {
		Transport     string `yaml:"transport"`
		URL           string `yaml:"url"`
		NATSURL       string `yaml:"nats_url"`
		SubjectPrefix string `yaml:"subject_prefix"`
	} `yaml:"push"`

	Staging struct {
		MaxFiles   int  `yaml:"max_files"`
		MaxFileMB  int  `yaml:"max_file_mb"`
		Permissive bool `yaml:"permissive"`
	} `yaml:"staging"`

	Log LogConfig `yaml:"log"`
}

// LogConfig controls the zerolog setup
type LogConfig struct {
	Level      string `yaml:"level"`
	Path       string `yaml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
}

// Default returns the settings used when nothing is configured
func Default() Config {
	var c Config
	c.Site.URL = "http://localhost:5000"
	c.Cloudinary.Folder = "auction_app/images"
	c.S3.Region = "us-east-1"
	c.S3.Folder = "auction_app/images"
	c.Push.Transport = TransportWebSocket
	c.Push.NATSURL = "nats://localhost:4222"
	c.Push.SubjectPrefix = "auction"
	c.Staging.MaxFiles = staging.DefaultMaxFiles
	c.Staging.MaxFileMB = int(staging.DefaultMaxBytes >> 20)
	c.Log.Level = "info"
	c.Log.MaxSizeMB = 10
	c.Log.MaxBackups = 3
	c.Log.MaxAgeDays = 28
	return c
}

// Load reads .env, then the YAML file named by GAVEL_CONFIG, then environment
// overrides.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Err(err).Msg("could not load .env file")
	}

	cfg := Default()
	if path := os.Getenv("GAVEL_CONFIG"); path != "" {
		if err := LoadFile(path, &cfg); err != nil {
			return cfg, err
		}
	}
	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadFile merges a YAML file into cfg
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config: %w", err)
	}
	return nil
}

func applyEnv(c *Config) {
	c.Site.URL = getEnv("GAVEL_SITE_URL", c.Site.URL)
	c.Site.SessionCookie = getEnv("GAVEL_SESSION_COOKIE", c.Site.SessionCookie)
	c.Cloudinary.CloudName = getEnv("CLOUDINARY_CLOUD_NAME", c.Cloudinary.CloudName)
	c.Cloudinary.UploadPreset = getEnv("CLOUDINARY_UNSIGNED_PRESET", c.Cloudinary.UploadPreset)
	c.Cloudinary.Folder = getEnv("CLOUDINARY_UPLOAD_FOLDER", c.Cloudinary.Folder)
	c.S3.Bucket = getEnv("S3_BUCKET", c.S3.Bucket)
	c.S3.Region = getEnv("AWS_REGION", c.S3.Region)
	c.Push.Transport = strings.ToLower(getEnv("PUSH_TRANSPORT", c.Push.Transport))
	c.Push.URL = getEnv("PUSH_URL", c.Push.URL)
	c.Push.NATSURL = getEnv("NATS_URL", c.Push.NATSURL)
	c.Staging.MaxFiles = getEnvAsInt("MAX_FILES", c.Staging.MaxFiles)
	c.Staging.MaxFileMB = getEnvAsInt("MAX_FILE_MB", c.Staging.MaxFileMB)
	c.Staging.Permissive = getEnvAsBool("PERMISSIVE_IMAGES", c.Staging.Permissive)
	c.Log.Level = getEnv("LOG_LEVEL", c.Log.Level)
	c.Log.Path = getEnv("LOG_PATH", c.Log.Path)
}

func (c Config) Validate() error {
	switch c.Push.Transport {
	case TransportWebSocket, TransportNATS:
	default:
		return fmt.Errorf("%w: unknown push transport %q", ErrInvalidConfig, c.Push.Transport)
	}
	if c.Site.URL == "" {
		return fmt.Errorf("%w: site url is required", ErrInvalidConfig)
	}
	if c.Staging.MaxFiles <= 0 || c.Staging.MaxFileMB <= 0 {
		return fmt.Errorf("%w: staging limits must be positive", ErrInvalidConfig)
	}
	return nil
}

// StagingPolicy returns the staging limits
func (c Config) StagingPolicy() staging.Policy {
	p := staging.DefaultPolicy()
	p.MaxFiles = c.Staging.MaxFiles
	p.MaxBytes = int64(c.Staging.MaxFileMB) << 20
	p.Permissive = c.Staging.Permissive
	return p
}

// UploadStrategy picks staged uploads when an upload destination is configured
func (c Config) UploadStrategy() listing.Strategy {
	if c.UseCloudinary() || c.S3.Bucket != "" {
		return listing.StrategyStagedUpload
	}
	return listing.StrategyLocalPreview
}

func (c Config) UseCloudinary() bool {
	return c.Cloudinary.CloudName != "" && c.Cloudinary.UploadPreset != ""
}

// PushURL is the WebSocket endpoint, derived from the site URL when unset
func (c Config) PushURL() string {
	if c.Push.URL != "" {
		return c.Push.URL
	}
	u := strings.TrimRight(c.Site.URL, "/")
	switch {
	case strings.HasPrefix(u, "https://"):
		u = "wss://" + strings.TrimPrefix(u, "https://")
	case strings.HasPrefix(u, "http://"):
		u = "ws://" + strings.TrimPrefix(u, "http://")
	}
	return u + "/ws"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}
