// Package metrics defines the events recorded for every planning run and the
// sink interfaces that consume them. Implementations (Prometheus, InfluxDB)
// live in infra/metrics and register themselves with the factory so sinks can
// be selected from configuration. Several configured sinks are combined in a
// MultiSink.
package metrics
