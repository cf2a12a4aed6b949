package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/c360/feedbridge/market"
	"github.com/c360/feedbridge/relay"
	"github.com/c360/feedbridge/wsfeed"
)

// Config is the daemon configuration file layout.
type Config struct {
	// Feed is the upstream WebSocket gateway configuration.
	Feed wsfeed.Config `json:"feed"`

	// NATS is the downstream publisher.
	NATS struct {
		URL string `json:"url"`
	} `json:"nats"`

	// Relay controls subject layout and error publishing.
	Relay relay.Config `json:"relay"`

	// Subscriptions are submitted in order at startup.
	Subscriptions []market.Subscription `json:"subscriptions"`
}

func loadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return &cfg, cfg.validate()
}

func (c *Config) validate() error {
	if err := c.Feed.Validate(); err != nil {
		return err
	}
	if c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required")
	}
	if err := c.Relay.Validate(); err != nil {
		return err
	}
	if len(c.Subscriptions) == 0 {
		return fmt.Errorf("at least one subscription is required")
	}
	for i, sub := range c.Subscriptions {
		if err := sub.Validate(); err != nil {
			return fmt.Errorf("subscription %d: %w", i, err)
		}
	}
	return nil
}
