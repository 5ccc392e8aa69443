// Package infra contains technical adapters: the zerolog logger, the MQTT
// plan publisher and the Prometheus and InfluxDB metrics sinks. These
// packages depend only on the interfaces defined in the core packages.
package infra
