package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"github.com/kilianp07/chargewindow/core/history"
	"github.com/kilianp07/chargewindow/core/metrics"
	"github.com/kilianp07/chargewindow/infra/monitoring"
	"github.com/kilianp07/chargewindow/infra/mqtt"
	"github.com/kilianp07/chargewindow/infra/openevse"
)

// EnvPrefix marks environment variables that override file settings.
// Nested keys are separated by a double underscore, e.g. CW_WINDOW__CHARGE_HOURS.
const EnvPrefix = "CW_"

type Config struct {
	Feed    FeedConfig        `json:"feed"`
	Window  WindowConfig      `json:"window"`
	Charger openevse.Config   `json:"charger"`
	History history.Config    `json:"history"`
	Metrics metrics.Config    `json:"metrics"`
	MQTT    mqtt.Config       `json:"mqtt"`
	Sentry  monitoring.Config `json:"sentry"`
	Daemon  DaemonConfig      `json:"daemon"`
	API     APIConfig         `json:"api"`
}

// Load reads the file at path, applies environment overrides, fills defaults
// and validates every section. An empty path loads defaults and environment
// overrides only.
func Load(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		ext := strings.ToLower(filepath.Ext(path))
		var parser koanf.Parser
		switch ext {
		case ".yaml", ".yml":
			parser = yaml.Parser()
		case ".json":
			parser = json.Parser()
		default:
			return nil, fmt.Errorf("unsupported config format: %s", ext)
		}
		if err := k.Load(file.Provider(path), parser); err != nil {
			return nil, err
		}
	}
	// Optional environment overrides
	if err := k.Load(env.Provider(EnvPrefix, "__", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), strings.ToLower(EnvPrefix))
		return strings.ReplaceAll(s, "__", ".")
	}), nil); err != nil {
		return nil, err
	}
	var cfg Config
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "json"}); err != nil {
		return nil, err
	}
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// SetDefaults fills every section.
func (c *Config) SetDefaults() {
	c.Feed.SetDefaults()
	c.Window.SetDefaults()
	c.Charger.SetDefaults()
	c.History.SetDefaults()
	c.MQTT.SetDefaults()
	c.Daemon.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section and names the failing one.
func (c Config) Validate() error {
	checks := []struct {
		name string
		fn   func() error
	}{
		{"feed", c.Feed.Validate},
		{"window", c.Window.Validate},
		{"charger", c.Charger.Validate},
		{"history", c.History.Validate},
		{"mqtt", c.MQTT.Validate},
		{"daemon", c.Daemon.Validate},
		{"api", c.API.Validate},
	}
	for _, chk := range checks {
		if err := chk.fn(); err != nil {
			return fmt.Errorf("%s: %w", chk.name, err)
		}
	}
	return nil
}
