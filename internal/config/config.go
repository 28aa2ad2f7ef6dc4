// Package config loads and validates the server's YAML configuration and
// the JSON tree-config files a config-driven Driver is built from.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config is the top-level server configuration.
type Config struct {
	Transport TransportConfig `yaml:"transport"`
	Protocol  ProtocolConfig  `yaml:"protocol"`
	Logging   LoggingConfig   `yaml:"logging"`
}

// TransportConfig selects and configures how the server accepts
// connections.
type TransportConfig struct {
	Kind    string `yaml:"kind"` // "tcp", "stdio", or "serial"
	Addr    string `yaml:"addr"`
	Device  string `yaml:"device"`
	BaudStr string `yaml:"baud"`
	HexFrame *bool `yaml:"hex_framing"`
}

// ProtocolConfig bounds what the session engine will negotiate and serve.
type ProtocolConfig struct {
	MaxMsize *int   `yaml:"max_msize"`
	IOSize   *int   `yaml:"io_size"`
	TreeFile string `yaml:"tree_file"`
}

// LoggingConfig picks the slog setup, matching the -v/-log-format flag
// pair the teacher's ro command uses, but sourced from file here instead.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug" or "info"
	Format string `yaml:"format"` // "json" or "text"
}

// Load reads and validates the YAML config at path.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)

	var cfg Config
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("parse config yaml: %w", err)
	}
	cfg.resolvePaths(path)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Transport.Kind {
	case "tcp":
		if strings.TrimSpace(c.Transport.Addr) == "" {
			return fmt.Errorf("config.transport.addr is required for kind=tcp")
		}
	case "serial":
		if strings.TrimSpace(c.Transport.Device) == "" {
			return fmt.Errorf("config.transport.device is required for kind=serial")
		}
	case "stdio":
		// nothing further required
	default:
		return fmt.Errorf("config.transport.kind must be one of tcp, stdio, serial, got %q", c.Transport.Kind)
	}

	if c.Protocol.MaxMsize != nil && *c.Protocol.MaxMsize <= 0 {
		return fmt.Errorf("config.protocol.max_msize must be > 0")
	}
	if c.Protocol.IOSize != nil && *c.Protocol.IOSize <= 0 {
		return fmt.Errorf("config.protocol.io_size must be > 0")
	}
	if c.Protocol.TreeFile != "" {
		if err := validateReadableFile(c.Protocol.TreeFile, "config.protocol.tree_file"); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) resolvePaths(configPath string) {
	dir := filepath.Dir(configPath)
	c.Protocol.TreeFile = resolvePath(dir, c.Protocol.TreeFile)
}

func resolvePath(baseDir, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" || filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Clean(filepath.Join(baseDir, trimmed))
}

func validateReadableFile(path, field string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%s: %w", field, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s must point to a file, got directory", field)
	}
	return nil
}
