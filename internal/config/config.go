// Package config provides configuration management for the Responses API
// proxy server. It handles loading and parsing YAML configuration files and
// provides structured access to application settings including the server
// port, upstream endpoint, debug settings, and request logging.
package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// Config represents the application's configuration, loaded from a YAML file.
type Config struct {
	// Port is the network port on which the API server will listen.
	Port int `yaml:"port"`

	// Debug enables or disables debug-level logging.
	Debug bool `yaml:"debug"`

	// LoggingToFile controls whether application logs are written to files or stdout.
	LoggingToFile bool `yaml:"logging-to-file"`

	// RequestLog enables writing per-request payload logs to RequestLogsDir.
	RequestLog bool `yaml:"request-log"`

	// RequestLogsDir is where request logs are stored; relative paths are
	// resolved against the configuration file directory.
	RequestLogsDir string `yaml:"request-logs-dir"`

	// APIKeys lists inbound API keys accepted by the server. Entries may be
	// plaintext or bcrypt hashed. An empty list disables inbound auth.
	APIKeys []string `yaml:"api-keys"`

	// Remote configures the upstream chat completions service.
	Remote RemoteConfig `yaml:"remote"`
}

// RemoteConfig holds upstream chat completions endpoint settings.
type RemoteConfig struct {
	// BaseURL is the base URL of the remote OpenAI-compatible service.
	BaseURL string `yaml:"base-url"`

	// APIKey authenticates against the remote service. The
	// REMOTE_API_KEY environment variable overrides this value.
	APIKey string `yaml:"api-key"`

	// ProxyURL optionally routes upstream calls through a socks5:// proxy.
	ProxyURL string `yaml:"proxy-url"`

	// TimeoutSeconds bounds non-streaming upstream calls; zero disables the
	// client timeout. Streaming calls are bounded by the request context.
	TimeoutSeconds int `yaml:"timeout-seconds"`
}

// LoadConfig reads and parses the YAML configuration file, applies defaults,
// and resolves environment overrides.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg := &Config{}
	if err = yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	cfg.applyDefaults()
	cfg.applyEnvOverrides()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Port == 0 {
		c.Port = 8317
	}
	if c.RequestLogsDir == "" {
		c.RequestLogsDir = "logs"
	}
}

func (c *Config) applyEnvOverrides() {
	if v := strings.TrimSpace(os.Getenv("REMOTE_API_KEY")); v != "" {
		c.Remote.APIKey = v
	}
	if v := strings.TrimSpace(os.Getenv("REMOTE_BASE_URL")); v != "" {
		c.Remote.BaseURL = v
	}
}

// MatchAPIKey reports whether candidate matches any configured inbound API
// key. Keys beginning with a bcrypt prefix are compared as hashes, others as
// plaintext.
func (c *Config) MatchAPIKey(candidate string) bool {
	for _, key := range c.APIKeys {
		if strings.HasPrefix(key, "$2") {
			if bcrypt.CompareHashAndPassword([]byte(key), []byte(candidate)) == nil {
				return true
			}
			continue
		}
		if key != "" && key == candidate {
			return true
		}
	}
	return false
}
