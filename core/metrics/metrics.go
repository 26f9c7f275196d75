package metrics

import "time"

// ConfigInfo describes the configuration a process started with.
type ConfigInfo struct {
	Version     string
	Registry    string
	ActiveStore string
	StoreType   string
	Stores      int
	Time        time.Time
}

// RefreshEvent is the outcome of one registry refresh.
type RefreshEvent struct {
	ID       string
	Location string
	Checksum string
	Changed  bool
	Size     int
	Duration time.Duration
	// Err is set when the registry document could not be fetched.
	Err  error
	Time time.Time
}

// Success reports whether the refresh fetched a document.
func (e RefreshEvent) Success() bool { return e.Err == nil }

// MetricsSink records configuration and registry events.
type MetricsSink interface {
	RecordConfigLoaded(info ConfigInfo) error
	RecordRegistryRefresh(ev RefreshEvent) error
}

// NopSink implements MetricsSink with no-op methods.
type NopSink struct{}

func (NopSink) RecordConfigLoaded(ConfigInfo) error      { return nil }
func (NopSink) RecordRegistryRefresh(RefreshEvent) error { return nil }
