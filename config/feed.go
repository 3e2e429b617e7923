package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/chargewindow/connectors/clients/comed"
	"github.com/kilianp07/chargewindow/core/rates"
)

// FeedConfig selects the hourly price feed and the planning horizon.
type FeedConfig struct {
	// Connector names a registered price feed.
	Connector string `json:"connector"`
	// BaseURL overrides the connector's default endpoint.
	BaseURL string `json:"base_url"`
	// Timezone is the IANA zone the feed's wall-clock timestamps are in.
	Timezone string `json:"timezone"`
	// Cutover is the "HH:MM" time of day splitting two planning horizons.
	Cutover        string `json:"cutover"`
	TimeoutSeconds int    `json:"timeout_seconds"`
}

// SetDefaults applies sane defaults.
func (c *FeedConfig) SetDefaults() {
	if c.Connector == "" {
		c.Connector = comed.ID
	}
	if c.Timezone == "" {
		c.Timezone = "America/Chicago"
	}
	if c.Cutover == "" {
		c.Cutover = "18:00"
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 15
	}
}

// Validate checks mandatory fields.
func (c FeedConfig) Validate() error {
	if c.Connector == "" {
		return fmt.Errorf("connector is required")
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := c.CutoverOffset(); err != nil {
		return err
	}
	return nil
}

// Location loads the configured time zone.
func (c FeedConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// CutoverOffset returns the cutover as an offset from midnight.
func (c FeedConfig) CutoverOffset() (time.Duration, error) {
	return rates.ParseTimeOfDay(c.Cutover)
}
