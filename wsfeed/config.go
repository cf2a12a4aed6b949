package wsfeed

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/c360/feedbridge/errors"
)

// Config holds configuration for the WebSocket feed engine
type Config struct {
	// URL is the gateway WebSocket URL, ws:// or wss://
	URL string `json:"url"`

	// APIKeyEnv names the environment variable holding the API key.
	// Empty means the gateway is unauthenticated.
	APIKeyEnv string `json:"api_key_env,omitempty"`

	// HandshakeTimeout bounds the WebSocket handshake
	HandshakeTimeout time.Duration `json:"handshake_timeout,omitempty"`

	// HeartbeatInterval is the expected gap between server heartbeats.
	// The read deadline is set to twice this; zero disables deadlines.
	HeartbeatInterval time.Duration `json:"heartbeat_interval,omitempty"`

	// ReadBufferSize is the WebSocket read buffer size in bytes
	ReadBufferSize int `json:"read_buffer_size,omitempty"`

	// WriteBufferSize is the WebSocket write buffer size in bytes
	WriteBufferSize int `json:"write_buffer_size,omitempty"`

	// EnableCompression enables per-message compression
	EnableCompression bool `json:"enable_compression,omitempty"`

	// TsOut asks the gateway to append send timestamps to records
	TsOut bool `json:"ts_out,omitempty"`
}

// applyDefaults fills zero fields with production defaults.
func (c *Config) applyDefaults() {
	if c.HandshakeTimeout == 0 {
		c.HandshakeTimeout = 45 * time.Second
	}
	if c.ReadBufferSize == 0 {
		c.ReadBufferSize = 64 * 1024
	}
	if c.WriteBufferSize == 0 {
		c.WriteBufferSize = 4 * 1024
	}
}

// Validate checks the configuration before any connection attempt.
func (c *Config) Validate() error {
	if c.URL == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: url", errors.ErrMissingConfig),
			"wsfeed.Config", "Validate", "validate config")
	}
	if !strings.HasPrefix(c.URL, "ws://") && !strings.HasPrefix(c.URL, "wss://") {
		return errors.WrapInvalid(
			fmt.Errorf("%w: url scheme must be ws or wss", errors.ErrInvalidConfig),
			"wsfeed.Config", "Validate", "validate config")
	}
	if c.APIKeyEnv != "" && os.Getenv(c.APIKeyEnv) == "" {
		return errors.WrapInvalid(
			fmt.Errorf("%w: %s is not set", errors.ErrMissingConfig, c.APIKeyEnv),
			"wsfeed.Config", "Validate", "validate config")
	}
	if c.HeartbeatInterval < 0 || c.HandshakeTimeout < 0 {
		return errors.WrapInvalid(
			fmt.Errorf("%w: negative interval", errors.ErrInvalidConfig),
			"wsfeed.Config", "Validate", "validate config")
	}
	return nil
}

// apiKey resolves the configured key, empty when auth is disabled.
func (c *Config) apiKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
