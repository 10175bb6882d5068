package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap/zapcore"

	"github.com/PixPMusic/nkonfig/internal/scene"
)

const (
	DefaultPortHint     = "nanokontrol"
	DefaultLogLevel     = "info"
	DefaultPollInterval = 10 * time.Millisecond
	DefaultReplyTimeout = 2 * time.Second
)

// Config holds application configuration
type Config struct {
	// InstanceID identifies this editor. The device search echo id is
	// derived from it so that replies to other editors are ignored.
	InstanceID string `json:"instance_id"`

	InPort   string `json:"in_port"`  // MIDI input port name, empty to use PortHint
	OutPort  string `json:"out_port"` // MIDI output port name, empty to use PortHint
	PortHint string `json:"port_hint"`

	// Variant skips device search when set ("nanokontrol" or "nanokontrol2").
	Variant string `json:"variant"`
	Channel int    `json:"channel"` // 0-15

	LogLevel       string `json:"log_level"`
	TracePath      string `json:"trace_path,omitempty"`
	PollIntervalMS int    `json:"poll_interval_ms"`
	ReplyTimeoutMS int    `json:"reply_timeout_ms"`

	created bool
}

// Default returns a config with a fresh instance id.
func Default() *Config {
	return &Config{
		InstanceID:     uuid.New().String(),
		PortHint:       DefaultPortHint,
		LogLevel:       DefaultLogLevel,
		PollIntervalMS: int(DefaultPollInterval / time.Millisecond),
		ReplyTimeoutMS: int(DefaultReplyTimeout / time.Millisecond),
	}
}

// configDir returns the platform-appropriate config directory
func configDir() (string, error) {
	configHome, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configHome, "nkonfig"), nil
}

// ConfigPath returns the full path to the config file
func ConfigPath() (string, error) {
	dir, err := configDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// Load reads the config from disk, returning defaults if not found
func Load() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(configPath)
}

// LoadFrom reads the config at path, returning defaults if not found.
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		cfg := Default()
		cfg.created = true
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	cfg := Default()
	cfg.InstanceID = ""
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if _, err := uuid.Parse(cfg.InstanceID); err != nil {
		cfg.InstanceID = uuid.New().String()
		cfg.created = true
	}
	if cfg.PollIntervalMS <= 0 {
		cfg.PollIntervalMS = int(DefaultPollInterval / time.Millisecond)
	}
	if cfg.ReplyTimeoutMS <= 0 {
		cfg.ReplyTimeoutMS = int(DefaultReplyTimeout / time.Millisecond)
	}
	return cfg, nil
}

// IsNew reports whether Load had to create values that are not on disk yet.
func (c *Config) IsNew() bool {
	return c.created
}

// Save writes the config to disk
func (c *Config) Save() error {
	configPath, err := ConfigPath()
	if err != nil {
		return err
	}
	return c.SaveTo(configPath)
}

// SaveTo writes the config to path, creating its directory.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return err
	}
	c.created = false
	return nil
}

// Validate checks the fields that have a fixed range.
func (c *Config) Validate() error {
	if c.Channel < 0 || c.Channel > 15 {
		return fmt.Errorf("channel must be 0-15, got %d", c.Channel)
	}
	if c.Variant != "" {
		if _, ok := scene.ParseVariant(c.Variant); !ok {
			return fmt.Errorf("unknown variant %q", c.Variant)
		}
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// EchoID is the device search tag derived from the instance id.
func (c *Config) EchoID() uint8 {
	id, err := uuid.Parse(c.InstanceID)
	if err != nil {
		return 0
	}
	return id[0] & 0x7F
}

// SessionEchoID mixes EchoID with a random byte so that two processes
// sharing one config do not answer to each other's device searches.
func (c *Config) SessionEchoID() uint8 {
	salt := uuid.New()
	return (c.EchoID() ^ salt[0]) & 0x7F
}

// SceneVariant returns the configured variant, or VariantNone.
func (c *Config) SceneVariant() scene.Variant {
	v, _ := scene.ParseVariant(c.Variant)
	return v
}

// Level parses LogLevel, defaulting to info.
func (c *Config) Level() (zapcore.Level, error) {
	if c.LogLevel == "" {
		return zapcore.InfoLevel, nil
	}
	lvl, err := zapcore.ParseLevel(c.LogLevel)
	if err != nil {
		return zapcore.InfoLevel, fmt.Errorf("invalid log level: %w", err)
	}
	return lvl, nil
}

// PollInterval is how often the outbox is drained in interactive modes.
func (c *Config) PollInterval() time.Duration {
	if c.PollIntervalMS <= 0 {
		return DefaultPollInterval
	}
	return time.Duration(c.PollIntervalMS) * time.Millisecond
}

// ReplyTimeout bounds each wait for a device reply.
func (c *Config) ReplyTimeout() time.Duration {
	if c.ReplyTimeoutMS <= 0 {
		return DefaultReplyTimeout
	}
	return time.Duration(c.ReplyTimeoutMS) * time.Millisecond
}
