// Package config loads floret's declarative startup configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	projectConfigName = "floret.yaml"
	homeConfigDir     = ".floret"
	homeConfigName    = "config.yaml"
)

// Config is the full floret.yaml shape.
type Config struct {
	Server ServerConfig `yaml:"server"`
	HTTP   HTTPConfig   `yaml:"http"`
	Client ClientConfig `yaml:"client"`
}

// ServerConfig describes the tool-server subprocess for stream mode.
type ServerConfig struct {
	Command       string            `yaml:"command"`
	Args          []string          `yaml:"args,omitempty"`
	Env           map[string]string `yaml:"env,omitempty"`
	GracePeriodMS int               `yaml:"grace_period_ms,omitempty"`
}

// GracePeriod returns the configured shutdown grace period.
func (c ServerConfig) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodMS) * time.Millisecond
}

// HTTPConfig configures the HTTP transport daemon.
type HTTPConfig struct {
	Addr           string `yaml:"addr"`
	ReadTimeoutMS  int    `yaml:"read_timeout_ms,omitempty"`
	WriteTimeoutMS int    `yaml:"write_timeout_ms,omitempty"`
	MaxBody        int64  `yaml:"max_body,omitempty"`
}

// ReadTimeout returns the configured server read timeout.
func (c HTTPConfig) ReadTimeout() time.Duration {
	return time.Duration(c.ReadTimeoutMS) * time.Millisecond
}

// WriteTimeout returns the configured server write timeout.
func (c HTTPConfig) WriteTimeout() time.Duration {
	return time.Duration(c.WriteTimeoutMS) * time.Millisecond
}

// ClientConfig selects the client proxy's transport binding.
type ClientConfig struct {
	// Transport is "stdio" or "http".
	Transport string `yaml:"transport"`

	// Endpoint is the server base URL for the http transport.
	Endpoint string `yaml:"endpoint,omitempty"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:           ":8080",
			ReadTimeoutMS:  30_000,
			WriteTimeoutMS: 60_000,
			MaxBody:        1 << 20,
		},
		Client: ClientConfig{
			Transport: "stdio",
		},
	}
}

// Load reads and parses a config file, filling unset fields with defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: reading %q: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, fmt.Errorf("config: %q: %w", path, err)
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch c.Client.Transport {
	case "stdio", "http":
	default:
		return fmt.Errorf("client.transport must be \"stdio\" or \"http\", got %q", c.Client.Transport)
	}
	if c.Client.Transport == "http" && strings.TrimSpace(c.Client.Endpoint) == "" {
		return errors.New("client.endpoint is required for the http transport")
	}
	return nil
}

// Discover resolves the config file location with first-match semantics:
// explicit path, ./floret.yaml, then ~/.floret/config.yaml.
func Discover(explicitPath string) (string, bool, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", false, fmt.Errorf("config: resolve working directory: %w", err)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", false, fmt.Errorf("config: resolve user home: %w", err)
	}
	return DiscoverFrom(explicitPath, cwd, homeDir)
}

// DiscoverFrom is a testable variant of Discover.
func DiscoverFrom(explicitPath, cwd, homeDir string) (string, bool, error) {
	candidates := make([]string, 0, 2)
	if clean := strings.TrimSpace(explicitPath); clean != "" {
		candidates = append(candidates, filepath.Clean(clean))
	} else {
		candidates = append(candidates, filepath.Join(cwd, projectConfigName))
		candidates = append(candidates, filepath.Join(homeDir, homeConfigDir, homeConfigName))
	}

	explicit := strings.TrimSpace(explicitPath) != ""
	for i, candidate := range candidates {
		info, err := os.Stat(candidate)
		if err == nil {
			if !info.IsDir() {
				return candidate, true, nil
			}
			// An explicit path must name a file, not a directory.
			if i == 0 && explicit {
				return "", false, fmt.Errorf("config: %q is a directory, not a file", candidate)
			}
			continue
		}
		if errors.Is(err, os.ErrNotExist) {
			// An explicit path that is missing is an error, not a fallthrough.
			if i == 0 && explicit {
				return "", false, fmt.Errorf("config: file %q not found", candidate)
			}
			continue
		}
		return "", false, fmt.Errorf("config: checking %q: %w", candidate, err)
	}
	return "", false, nil
}
