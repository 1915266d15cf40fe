// Package config loads server configuration from a YAML file with sane
// defaults for local development.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the full server configuration.
type Config struct {
	Server      Server      `yaml:"server"`
	Log         Log         `yaml:"log"`
	Blob        Blob        `yaml:"blob"`
	Persistence Persistence `yaml:"persistence"`
	Monitoring  Monitoring  `yaml:"monitoring"`
}

// Server holds the HTTP listener settings.
type Server struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// Addr returns the host:port listen address.
func (s Server) Addr() string { return fmt.Sprintf("%s:%d", s.Host, s.Port) }

// Log holds logging settings.
type Log struct {
	Level string `yaml:"level"`
}

// Blob selects and parameterizes artifact storage.
type Blob struct {
	Driver    string `yaml:"driver"`
	Root      string `yaml:"root"`
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// Persistence selects the checkpoint store. Driver is one of none, sqlite,
// postgres.
type Persistence struct {
	Driver string `yaml:"driver"`
	// Path is the database file for sqlite; DSN is the connection string
	// for postgres.
	Path string `yaml:"path"`
	DSN  string `yaml:"dsn"`
}

// Monitoring toggles the metrics endpoint.
type Monitoring struct {
	Enabled bool `yaml:"enabled"`
}

// Default returns the configuration used when no file is provided.
func Default() Config {
	return Config{
		Server:      Server{Host: "0.0.0.0", Port: 8080},
		Log:         Log{Level: "info"},
		Blob:        Blob{Driver: "fs", Root: "./blobdata"},
		Persistence: Persistence{Driver: "none", Path: "simcore.db"},
		Monitoring:  Monitoring{Enabled: true},
	}
}

// Load reads path and merges it over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port %d", c.Server.Port)
	}
	switch c.Persistence.Driver {
	case "", "none", "sqlite", "postgres":
	default:
		return fmt.Errorf("unknown persistence driver %q", c.Persistence.Driver)
	}
	switch c.Blob.Driver {
	case "", "fs", "s3", "memory":
	default:
		return fmt.Errorf("unknown blob driver %q", c.Blob.Driver)
	}
	return nil
}
