// Package infra contains technical adapters such as metrics exporters,
// tracing, audit logging and MQTT notifications. These packages depend only
// on the interfaces defined in the core and config packages.
package infra
