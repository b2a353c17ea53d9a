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

	"github.com/kilianp07/powermatch/core/metrics"
	"github.com/kilianp07/powermatch/core/optimize"
	"github.com/kilianp07/powermatch/core/powermatch"
	"github.com/kilianp07/powermatch/infra/mqtt"
)

// EnvPrefix prefixes environment overrides, e.g. PM_OPTIMISE__SEED=7.
const EnvPrefix = "PM_"

type Config struct {
	Inputs     InputsConfig      `json:"inputs"`
	Powermatch powermatch.Params `json:"powermatch"`
	Optimise   optimize.Config   `json:"optimise"`
	Metrics    metrics.Config    `json:"metrics"`
	MQTT       mqtt.Config       `json:"mqtt"`
	Store      StoreConfig       `json:"store"`
	Logging    LoggingConfig     `json:"logging"`
	Sentry     SentryConfig      `json:"sentry"`
	API        APIConfig         `json:"api"`
}

// Load reads the YAML or JSON file at path, applies PM_ environment
// overrides, fills defaults and validates. An empty path loads defaults and
// environment only.
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
	prefix := strings.ToLower(EnvPrefix)
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(strings.ToLower(s), prefix)
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

// SetDefaults fills every section's zero values.
func (c *Config) SetDefaults() {
	c.Powermatch.SetDefaults()
	c.Optimise.SetDefaults()
	c.Metrics.SetDefaults()
	c.MQTT.SetDefaults()
	c.Store.SetDefaults()
	c.Logging.SetDefaults()
	c.Sentry.SetDefaults()
	c.API.SetDefaults()
}

// Validate checks every section.
func (c Config) Validate() error {
	if err := c.Powermatch.Validate(); err != nil {
		return fmt.Errorf("powermatch: %w", err)
	}
	if err := c.Optimise.Validate(); err != nil {
		return fmt.Errorf("optimise: %w", err)
	}
	if err := c.MQTT.Validate(); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}
	if err := c.Store.Validate(); err != nil {
		return fmt.Errorf("store: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if err := c.Sentry.Validate(); err != nil {
		return fmt.Errorf("sentry: %w", err)
	}
	return nil
}
