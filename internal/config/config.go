// Package config provides YAML-based configuration with environment overrides.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/diversityiq/backend/internal/client"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up next to the executable.
const DefaultFileName = "diversityiq.yaml"

// AppConfig is the root configuration document.
type AppConfig struct {
	Server   ServerConfig   `yaml:"server"`
	Analysis AnalysisConfig `yaml:"analysis"`
	Sessions SessionsConfig `yaml:"sessions"`
	Charts   ChartsConfig   `yaml:"charts"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port                 int    `yaml:"port"`
	BindAddress          string `yaml:"bindAddress"`
	EnableCORS           bool   `yaml:"enableCORS"`
	AllowOrigins         string `yaml:"allowOrigins"`
	ReadTimeout          int    `yaml:"readTimeoutSeconds"`
	WriteTimeout         int    `yaml:"writeTimeoutSeconds"`
	IdleTimeout          int    `yaml:"idleTimeoutSeconds"`
	BodyLimit            string `yaml:"bodyLimit"`
	EnableRequestLogging bool   `yaml:"enableRequestLogging"`
	ExposeErrorDetails   bool   `yaml:"exposeErrorDetails"`
}

// AnalysisConfig points at the remote analysis service.
type AnalysisConfig struct {
	Endpoint       string `yaml:"analysisEndpoint"`
	TimeoutSeconds int    `yaml:"timeoutSeconds"`
	MaxUploadSize  string `yaml:"maxUploadSize"`
}

// SessionsConfig bounds the in-memory browser sessions.
type SessionsConfig struct {
	TimeoutMinutes         int `yaml:"timeoutMinutes"`
	CleanupIntervalMinutes int `yaml:"cleanupIntervalMinutes"`
	MaxSessions            int `yaml:"maxSessions"`
}

// ChartsConfig sets the rendered chart size in pixels.
type ChartsConfig struct {
	Width  int `yaml:"width"`
	Height int `yaml:"height"`
}

// DefaultConfig returns the default configuration
func DefaultConfig() *AppConfig {
	return &AppConfig{
		Server: ServerConfig{
			Port:                 8090,
			BindAddress:          "0.0.0.0",
			EnableCORS:           true,
			AllowOrigins:         "*",
			ReadTimeout:          30,
			WriteTimeout:         120,
			IdleTimeout:          120,
			BodyLimit:            "64M",
			EnableRequestLogging: true,
			ExposeErrorDetails:   true,
		},
		Analysis: AnalysisConfig{
			Endpoint:       client.DefaultEndpoint,
			TimeoutSeconds: 60,
			MaxUploadSize:  "50M",
		},
		Sessions: SessionsConfig{
			TimeoutMinutes:         30,
			CleanupIntervalMinutes: 5,
			MaxSessions:            100,
		},
		Charts: ChartsConfig{
			Width:  512,
			Height: 512,
		},
	}
}

// LoadConfig reads the YAML file at configPath, writing the defaults there
// first if it does not exist. Missing keys keep their default values.
func LoadConfig(configPath string) (*AppConfig, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(configPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		if err := cfg.Save(configPath); err != nil {
			return nil, fmt.Errorf("failed to create default config: %w", err)
		}
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the configuration as YAML.
func (c *AppConfig) Save(configPath string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	header := []byte("# DiversityIQ configuration\n# This file is auto-generated on first run\n\n")
	if err := os.WriteFile(configPath, append(header, out...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// applyEnvironmentOverrides allows environment variables to override config values
func (c *AppConfig) applyEnvironmentOverrides() {
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}
	if endpoint := os.Getenv("DIVERSITYIQ_ANALYSIS_ENDPOINT"); endpoint != "" {
		c.Analysis.Endpoint = endpoint
	}
	if timeout := os.Getenv("DIVERSITYIQ_ANALYSIS_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			c.Analysis.TimeoutSeconds = t
		}
	}
}

// Validate rejects settings the server cannot run with.
func (c *AppConfig) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	if strings.TrimSpace(c.Analysis.Endpoint) == "" {
		return errors.New("analysis endpoint must not be empty")
	}
	if c.Analysis.TimeoutSeconds <= 0 {
		return fmt.Errorf("invalid analysis timeout %d", c.Analysis.TimeoutSeconds)
	}
	// The upload response is written after the analysis call returns.
	if c.Server.WriteTimeout > 0 && c.Analysis.TimeoutSeconds >= c.Server.WriteTimeout {
		return fmt.Errorf("analysis timeout %ds must be shorter than server write timeout %ds",
			c.Analysis.TimeoutSeconds, c.Server.WriteTimeout)
	}
	if _, err := ParseSize(c.Analysis.MaxUploadSize); err != nil {
		return fmt.Errorf("invalid maxUploadSize: %w", err)
	}
	return nil
}

// GetServerAddr returns the server bind address
func (c *AppConfig) GetServerAddr() string {
	return fmt.Sprintf("%s:%d", c.Server.BindAddress, c.Server.Port)
}

// AnalysisTimeout returns the per-request timeout for the analysis call.
func (c *AppConfig) AnalysisTimeout() time.Duration {
	return time.Duration(c.Analysis.TimeoutSeconds) * time.Second
}

// MaxUploadBytes returns the upload limit in bytes, 0 meaning unlimited.
func (c *AppConfig) MaxUploadBytes() int64 {
	n, _ := ParseSize(c.Analysis.MaxUploadSize)
	return n
}

// SessionTimeout is how long an untouched session is kept.
func (c *AppConfig) SessionTimeout() time.Duration {
	return time.Duration(c.Sessions.TimeoutMinutes) * time.Minute
}

// CleanupInterval is how often expired sessions are swept.
func (c *AppConfig) CleanupInterval() time.Duration {
	return time.Duration(c.Sessions.CleanupIntervalMinutes) * time.Minute
}

// ParseSize parses sizes in the same form echo's BodyLimit accepts
// ("512K", "50M", "2G"); an empty string is 0.
func ParseSize(s string) (int64, error) {
	s = strings.TrimSpace(strings.ToUpper(s))
	if s == "" {
		return 0, nil
	}
	s = strings.TrimSuffix(s, "B")

	mult := int64(1)
	switch {
	case strings.HasSuffix(s, "K"):
		mult = 1 << 10
	case strings.HasSuffix(s, "M"):
		mult = 1 << 20
	case strings.HasSuffix(s, "G"):
		mult = 1 << 30
	}
	if mult > 1 {
		s = s[:len(s)-1]
	}

	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid size %q", s)
	}
	return n * mult, nil
}
