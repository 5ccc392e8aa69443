package metrics

import "github.com/kilianp07/dayplan/core/factory"

// Config defines settings for metrics sinks.
type Config struct {
	Sinks []factory.ModuleConfig `json:"sinks" yaml:"sinks"`
	// PrometheusAddr enables the /metrics endpoint when non-empty.
	PrometheusAddr string `json:"prometheus_addr" yaml:"prometheus_addr"`
}
