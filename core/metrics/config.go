package metrics

import "github.com/kilianp07/powermatch/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks"`
	// PrometheusAddr serves /metrics when set, e.g. ":9100".
	PrometheusAddr string `json:"prometheus_addr"`
}

// SetDefaults leaves an empty sink list as a no-op sink.
func (c *Config) SetDefaults() {
	for i := range c.Sinks {
		if c.Sinks[i].Conf == nil {
			c.Sinks[i].Conf = map[string]any{}
		}
	}
}
