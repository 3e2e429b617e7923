package config

import (
	"fmt"
	"time"

	"github.com/kilianp07/chargewindow/core/rates"
	"github.com/kilianp07/chargewindow/core/window"
)

// WindowConfig tunes the window search.
type WindowConfig struct {
	ChargeHours float64 `json:"charge_hours"`
	// PaddingMinutes is trimmed from both ends of the window. Nil means one minute.
	PaddingMinutes *int    `json:"padding_minutes"`
	Scale          float64 `json:"scale"`
	// AwakeUntil is an "HH:MM" floor for the window end. Empty disables it.
	AwakeUntil string `json:"awake_until"`
	// AllowChargePrice extends the window over adjacent minutes cheaper than it.
	AllowChargePrice *float64 `json:"allow_charge_price"`
}

// SetDefaults applies sane defaults.
func (c *WindowConfig) SetDefaults() {
	if c.ChargeHours == 0 {
		c.ChargeHours = 4
	}
	if c.PaddingMinutes == nil {
		p := int(window.DefaultPadding / time.Minute)
		c.PaddingMinutes = &p
	}
	if c.Scale == 0 {
		c.Scale = window.DefaultScale
	}
}

// Validate checks mandatory fields.
func (c WindowConfig) Validate() error {
	if window.ChargeMinutes(c.ChargeHours) <= 0 {
		return fmt.Errorf("charge_hours must be at least one minute, got %v", c.ChargeHours)
	}
	if c.PaddingMinutes != nil && *c.PaddingMinutes < 0 {
		return fmt.Errorf("padding_minutes must not be negative")
	}
	if c.Scale < 0 {
		return fmt.Errorf("scale must be positive")
	}
	if c.AwakeUntil != "" {
		if _, err := rates.ParseTimeOfDay(c.AwakeUntil); err != nil {
			return fmt.Errorf("awake_until: %w", err)
		}
	}
	return nil
}

// Options converts the configuration into search options.
func (c WindowConfig) Options() (window.Options, error) {
	opts := window.Options{
		ChargeHours: c.ChargeHours,
		Padding:     window.DefaultPadding,
		Scale:       c.Scale,
		AllowPrice:  c.AllowChargePrice,
	}
	if c.PaddingMinutes != nil {
		opts.Padding = time.Duration(*c.PaddingMinutes) * time.Minute
	}
	if c.AwakeUntil != "" {
		tod, err := rates.ParseTimeOfDay(c.AwakeUntil)
		if err != nil {
			return window.Options{}, fmt.Errorf("awake_until: %w", err)
		}
		opts.AwakeUntil = &tod
	}
	return opts, nil
}
