package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/mabhi256/livetree/internal/logger"
	"github.com/mabhi256/livetree/internal/protocol"
	"github.com/mabhi256/livetree/internal/render"
	"github.com/mabhi256/livetree/internal/snapshot"
	"gopkg.in/yaml.v3"
)

var ErrInvalid = errors.New("invalid config")

const (
	DefaultAddr     = "127.0.0.1:7321"
	DefaultInterval = 500 // ms
)

type Config struct {
	// Server address, listened on by serve and dialed by view
	Addr string `yaml:"addr"`

	BufferSize       int `yaml:"bufferSize"`
	MaxChildCount    int `yaml:"maxChildCount"`
	DetailChildCount int `yaml:"detailChildCount"`
	DetailTextLimit  int `yaml:"detailTextLimit"` // 0 = bounded by the buffer only

	Interval int `yaml:"interval"` // ms

	SourceDirs []string `yaml:"sourceDirs,omitempty"`
	LogPath    string   `yaml:"logPath"` // debuggee log is saved here on terminate
	Metrics    bool     `yaml:"metrics"`

	// Debug configuration
	Debug        bool   `yaml:"debug"`
	DebugLogFile string `yaml:"debugLogFile"`

	Log logger.Config `yaml:"log"`
}

func Default() *Config {
	return &Config{
		Addr:             DefaultAddr,
		BufferSize:       protocol.DefaultBufferSize,
		MaxChildCount:    snapshot.MaxChildCount,
		DetailChildCount: render.DetailChildLimit,
		Interval:         DefaultInterval,
		Log: logger.Config{
			DefaultLevel: "info",
			Format:       logger.PlaintextOutput,
		},
	}
}

// Load reads a yaml file over the defaults
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch {
	case c.Addr == "":
		return fmt.Errorf("%w: addr is empty", ErrInvalid)
	case c.BufferSize < 2:
		return fmt.Errorf("%w: bufferSize %d", ErrInvalid, c.BufferSize)
	case c.MaxChildCount < 1:
		return fmt.Errorf("%w: maxChildCount %d", ErrInvalid, c.MaxChildCount)
	case c.DetailChildCount < 1:
		return fmt.Errorf("%w: detailChildCount %d", ErrInvalid, c.DetailChildCount)
	case c.DetailTextLimit < 0:
		return fmt.Errorf("%w: detailTextLimit %d", ErrInvalid, c.DetailTextLimit)
	case c.Interval < 10:
		return fmt.Errorf("%w: interval %dms is below 10ms", ErrInvalid, c.Interval)
	}
	return nil
}

func (c *Config) GetInterval() time.Duration {
	return time.Duration(c.Interval) * time.Millisecond
}

// TextLimit is the detail text limit, never beyond what one message can carry
func (c *Config) TextLimit() int {
	limit := c.BufferSize - 1
	if c.DetailTextLimit > 0 && c.DetailTextLimit < limit {
		limit = c.DetailTextLimit
	}
	return limit
}

func (c *Config) String() string {
	return fmt.Sprintf("%s (interval %v, buffer %d bytes)", c.Addr, c.GetInterval(), c.BufferSize)
}

// Marshal renders the config as yaml
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}
