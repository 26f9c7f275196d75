package metrics

import "errors"

// MultiSink fans events out to multiple sinks.
type MultiSink struct {
	Sinks []MetricsSink
}

// NewMultiSink creates a MultiSink with the provided sinks.
func NewMultiSink(sinks ...MetricsSink) *MultiSink {
	return &MultiSink{Sinks: sinks}
}

// RecordConfigLoaded forwards the record to every sink and joins their errors.
func (m *MultiSink) RecordConfigLoaded(info ConfigInfo) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordConfigLoaded(info))
	}
	return errors.Join(errs...)
}

// RecordRegistryRefresh forwards the event to every sink and joins their errors.
func (m *MultiSink) RecordRegistryRefresh(ev RefreshEvent) error {
	var errs []error
	for _, s := range m.Sinks {
		errs = append(errs, s.RecordRegistryRefresh(ev))
	}
	return errors.Join(errs...)
}
