// Package infra holds the adapters behind the core interfaces: input file
// readers, the zerolog logger, Prometheus and InfluxDB sinks, the MQTT
// publisher and Sentry error reporting.
package infra
