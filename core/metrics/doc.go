// Package metrics defines the sinks that observe scheduling passes. Sinks
// are built from configuration through a factory registry; implementations
// such as the Prometheus and InfluxDB sinks live in infra/metrics and
// register themselves on import. Several configured sinks are combined into
// a MultiSink.
package metrics
