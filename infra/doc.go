// Package infra contains the technical adapters of the pricing engine: data
// sources, persistent cache stores, metrics sinks, MQTT invalidation and
// Sentry monitoring. These packages depend only on the interfaces defined in
// the core packages.
package infra
