// Package metrics defines the sinks recording what the serving process does
// with its configuration: the configuration loaded at startup and every
// registry refresh. Sinks are selected by type in the metrics section of the
// configuration; implementations register themselves from infra/metrics and
// several sinks are combined with NewMultiSink.
package metrics
