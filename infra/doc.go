// Package infra contains technical adapters: CSV inputs, MQTT publication,
// metrics exporters, error monitoring and logging. These packages depend
// only on the interfaces defined in the core packages.
package infra
