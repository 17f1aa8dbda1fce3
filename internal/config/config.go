// Package config loads bridge configuration from an optional YAML file with
// environment variable overrides.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Defaults mirror the ports the bridge and n8n historically run on.
const (
	DefaultHost       = "127.0.0.1"
	DefaultPort       = 3002
	DefaultN8NBaseURL = "http://localhost:5678/api/v1"
)

// Config holds the process-scoped settings for the bridge. It is constructed
// once at startup and passed explicitly into each component.
type Config struct {
	// Host and Port are where the bridge itself listens (SSE transport and
	// ops endpoints).
	Host string `yaml:"host"`
	Port int    `yaml:"port"`

	// N8NBaseURL is the root of the n8n REST API, including the version
	// prefix (e.g. http://localhost:5678/api/v1).
	N8NBaseURL string `yaml:"n8n_base_url"`

	// MessagesURL is the absolute URL of the messages endpoint. Empty means
	// derive it from Host/Port as http://host:port/messages.
	MessagesURL string `yaml:"messages_url"`

	// UpstreamSSEURL is the event stream the relay subscribes to. Empty means
	// derive it from Host/Port as http://host:port/sse.
	UpstreamSSEURL string `yaml:"upstream_sse_url"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level"`
}

// Default returns a Config populated with the stock localhost layout.
func Default() Config {
	return Config{
		Host:       DefaultHost,
		Port:       DefaultPort,
		N8NBaseURL: DefaultN8NBaseURL,
		LogLevel:   "info",
	}
}

// Load reads the YAML file at path on top of the defaults, then applies
// environment overrides. A missing file is not an error: it means "no file
// configured", and defaults plus environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			// fall through to env overrides
		case err != nil:
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return cfg, fmt.Errorf("failed to parse %s: %w", path, err)
			}
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("BRIDGE_HOST"); v != "" {
		c.Host = v
	}
	if v := os.Getenv("BRIDGE_PORT"); v != "" {
		var port int
		if _, err := fmt.Sscanf(v, "%d", &port); err == nil && port > 0 {
			c.Port = port
		}
	}
	if v := os.Getenv("N8N_BASE_URL"); v != "" {
		c.N8NBaseURL = v
	}
	if v := os.Getenv("N8N_MESSAGES_URL"); v != "" {
		c.MessagesURL = v
	}
	if v := os.Getenv("BRIDGE_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// FillDerived computes the endpoints that default to the bridge's own
// address, matching the layout where n8n posts back through the bridge.
// Explicitly configured values are left alone, so it is safe to call after
// flag overrides.
func (c *Config) FillDerived() {
	base := fmt.Sprintf("http://%s:%d", c.Host, c.Port)
	if c.MessagesURL == "" {
		c.MessagesURL = base + "/messages"
	}
	if c.UpstreamSSEURL == "" {
		c.UpstreamSSEURL = base + "/sse"
	}
}

// ListenAddr renders the host:port pair for net/http.
func (c Config) ListenAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
