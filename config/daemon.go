package config

import (
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"
)

// DaemonConfig controls the scheduled planning loop.
type DaemonConfig struct {
	// Cron is a standard five-field expression evaluated in the feed time zone.
	Cron       string `json:"cron"`
	RunOnStart bool   `json:"run_on_start"`
}

// SetDefaults applies sane defaults.
func (c *DaemonConfig) SetDefaults() {
	if c.Cron == "" {
		c.Cron = "15 18 * * *"
	}
}

// Validate parses the cron expression.
func (c DaemonConfig) Validate() error {
	if _, err := cron.ParseStandard(c.Cron); err != nil {
		return fmt.Errorf("cron %q: %w", c.Cron, err)
	}
	return nil
}

// APIConfig controls the HTTP status API served by the daemon.
type APIConfig struct {
	Address string `json:"address"`
	// Token, when set, is required as a bearer token on /api routes.
	Token          string   `json:"token"`
	AllowedOrigins []string `json:"allowed_origins"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8080"
	}
}

// Validate checks mandatory fields.
func (c APIConfig) Validate() error {
	if !strings.Contains(c.Address, ":") {
		return fmt.Errorf("address must be host:port, got %q", c.Address)
	}
	return nil
}
