package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/zeusync/listsync/internal/core/observability/log"
)

var (
	ErrInvalidConfig       = errors.New("invalid configuration")
	ErrDuplicateCollection = errors.New("duplicate collection name")
)

// Order names how a collection keeps its elements.
type Order string

const (
	OrderNone Order = "none"
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// Less returns the comparator for o, or nil for free ordering.
func (o Order) Less() func(a, b string) bool {
	switch o {
	case OrderAsc:
		return func(a, b string) bool { return a < b }
	case OrderDesc:
		return func(a, b string) bool { return a > b }
	default:
		return nil
	}
}

func (o Order) valid() bool {
	switch o {
	case "", OrderNone, OrderAsc, OrderDesc:
		return true
	default:
		return false
	}
}

type Config struct {
	LogLevel    string             `yaml:"log_level"`
	Server      ServerConfig       `yaml:"server"`
	Collections []CollectionConfig `yaml:"collections"`
}

type ServerConfig struct {
	ListenAddr string `yaml:"listen_addr"`
	// SendBuffer is the number of messages queued per websocket client before
	// the client is considered too slow and dropped.
	SendBuffer int `yaml:"send_buffer"`
}

type CollectionConfig struct {
	Name   string   `yaml:"name"`
	Order  Order    `yaml:"order"`
	Values []string `yaml:"values"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		Server: ServerConfig{
			ListenAddr: "127.0.0.1:8080",
			SendBuffer: 64,
		},
	}
}

// Load reads a YAML file on top of Default and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem found, joined.
func (c *Config) Validate() error {
	var errs []error
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, fmt.Errorf("%w: %v", ErrInvalidConfig, err))
	}
	if c.Server.ListenAddr == "" {
		errs = append(errs, fmt.Errorf("%w: server.listen_addr is empty", ErrInvalidConfig))
	}
	if c.Server.SendBuffer <= 0 {
		errs = append(errs, fmt.Errorf("%w: server.send_buffer must be positive", ErrInvalidConfig))
	}

	seen := make(map[string]bool, len(c.Collections))
	for i, col := range c.Collections {
		if col.Name == "" {
			errs = append(errs, fmt.Errorf("%w: collections[%d] has no name", ErrInvalidConfig, i))
			continue
		}
		if seen[col.Name] {
			errs = append(errs, fmt.Errorf("%w: %q", ErrDuplicateCollection, col.Name))
		}
		seen[col.Name] = true
		if !col.Order.valid() {
			errs = append(errs, fmt.Errorf("%w: collection %q: unknown order %q", ErrInvalidConfig, col.Name, col.Order))
		}
	}
	return errors.Join(errs...)
}

// Level returns the parsed log level, defaulting to info.
func (c *Config) Level() log.Level {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		return log.LevelInfo
	}
	return lvl
}
