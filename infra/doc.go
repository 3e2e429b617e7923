// Package infra contains technical adapters: the OpenEVSE HTTP transport,
// MQTT publication, metrics exporters, Sentry monitoring and logging. These
// packages depend only on the interfaces defined in the core packages.
package infra
