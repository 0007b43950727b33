package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultAdminPass is used when no admin password is configured.
const DefaultAdminPass = "admin123"

type Config struct {
	Port               string        `yaml:"port"`
	DataDir            string        `yaml:"data_dir"`
	PublicDir          string        `yaml:"public_dir"`
	PrivateDir         string        `yaml:"private_dir"`
	UploadsDir         string        `yaml:"uploads_dir"`
	AdminPass          string        `yaml:"admin_pass"`
	CorsAllowedOrigins []string      `yaml:"cors_allowed_origins"`
	MaxBodyBytes       int64         `yaml:"max_body_bytes"`
	MaxUploadBytes     int64         `yaml:"max_upload_bytes"`
	VisitorWriteLimit  int           `yaml:"visitor_write_limit"`
	VisitorWriteWindow time.Duration `yaml:"visitor_write_window"`
	LogLevel           string        `yaml:"log_level"`
}

func Default() Config {
	return Config{
		Port:               "3000",
		DataDir:            "data",
		PublicDir:          "public",
		PrivateDir:         "private",
		UploadsDir:         "public/uploads",
		AdminPass:          DefaultAdminPass,
		CorsAllowedOrigins: []string{"*"},
		MaxBodyBytes:       5 << 20,
		MaxUploadBytes:     32 << 20,
		VisitorWriteLimit:  0,
		VisitorWriteWindow: time.Minute,
		LogLevel:           "info",
	}
}

// Load builds the configuration from the defaults, the optional YAML file
// at path, and finally .env and the process environment.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(b, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	_ = godotenv.Load()

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.DataDir = getEnv("DATA_DIR", cfg.DataDir)
	cfg.PublicDir = getEnv("PUBLIC_DIR", cfg.PublicDir)
	cfg.PrivateDir = getEnv("PRIVATE_DIR", cfg.PrivateDir)
	cfg.UploadsDir = getEnv("UPLOADS_DIR", cfg.UploadsDir)
	cfg.AdminPass = getEnv("ADMIN_PASS", cfg.AdminPass)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		cfg.CorsAllowedOrigins = splitCSV(origins)
	}

	var err error
	if cfg.MaxBodyBytes, err = getEnvInt64("MAX_BODY_BYTES", cfg.MaxBodyBytes); err != nil {
		return err
	}
	if cfg.MaxUploadBytes, err = getEnvInt64("MAX_UPLOAD_BYTES", cfg.MaxUploadBytes); err != nil {
		return err
	}
	limit, err := getEnvInt64("VISITOR_WRITE_LIMIT", int64(cfg.VisitorWriteLimit))
	if err != nil {
		return err
	}
	cfg.VisitorWriteLimit = int(limit)
	if v := getEnv("VISITOR_WRITE_WINDOW", ""); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("VISITOR_WRITE_WINDOW: %w", err)
		}
		cfg.VisitorWriteWindow = d
	}
	return nil
}

func (c Config) validate() error {
	if c.AdminPass == "" {
		return errors.New("admin password is required")
	}
	if c.DataDir == "" {
		return errors.New("data dir is required")
	}
	if c.UploadsDir == "" {
		return errors.New("uploads dir is required")
	}
	if c.MaxBodyBytes <= 0 || c.MaxUploadBytes <= 0 {
		return errors.New("body size limits must be positive")
	}
	if c.VisitorWriteLimit > 0 && c.VisitorWriteWindow <= 0 {
		return errors.New("visitor write window must be positive")
	}
	if len(c.CorsAllowedOrigins) == 0 {
		return errors.New("at least one CORS origin is required")
	}
	return nil
}

func getEnv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func getEnvInt64(key string, fallback int64) (int64, error) {
	value := getEnv(key, "")
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return parsed, nil
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		item := strings.TrimSpace(part)
		if item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
