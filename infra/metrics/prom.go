package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	coremetrics "github.com/kilianp07/featserve/core/metrics"
)

// PromSink records configuration and registry events in Prometheus metrics.
type PromSink struct {
	configInfo  *prometheus.GaugeVec
	refreshes   *prometheus.CounterVec
	duration    prometheus.Histogram
	lastSuccess prometheus.Gauge
	docBytes    prometheus.Gauge
	changes     prometheus.Counter
}

// NewPromSink registers metrics on the default Prometheus registerer.
// Metrics are exposed by Server.
func NewPromSink() (coremetrics.MetricsSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (coremetrics.MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	s := &PromSink{
		configInfo: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "featserve_config_info",
			Help: "Loaded serving configuration, value is always 1",
		}, []string{"version", "active_store", "store_type"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "featserve_registry_refresh_total",
			Help: "Registry refresh attempts by outcome",
		}, []string{"success", "changed"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "featserve_registry_refresh_duration_seconds",
			Help:    "Time spent fetching the registry document",
			Buckets: prometheus.DefBuckets,
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "featserve_registry_last_success_timestamp_seconds",
			Help: "Unix time of the last successful registry refresh",
		}),
		docBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "featserve_registry_document_bytes",
			Help: "Size of the current registry document",
		}),
		changes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "featserve_registry_changes_total",
			Help: "Number of registry refreshes that found a new document",
		}),
	}

	var err error
	if s.configInfo, err = register(reg, s.configInfo); err != nil {
		return nil, err
	}
	if s.refreshes, err = register(reg, s.refreshes); err != nil {
		return nil, err
	}
	if s.duration, err = register(reg, s.duration); err != nil {
		return nil, err
	}
	if s.lastSuccess, err = register(reg, s.lastSuccess); err != nil {
		return nil, err
	}
	if s.docBytes, err = register(reg, s.docBytes); err != nil {
		return nil, err
	}
	if s.changes, err = register(reg, s.changes); err != nil {
		return nil, err
	}
	return s, nil
}

// register returns the collector already registered under the same
// descriptor when there is one.
func register[C prometheus.Collector](reg prometheus.Registerer, c C) (C, error) {
	if err := reg.Register(c); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			if existing, ok := are.ExistingCollector.(C); ok {
				return existing, nil
			}
		}
		return c, err
	}
	return c, nil
}

// RecordConfigLoaded publishes the loaded configuration as an info metric.
func (s *PromSink) RecordConfigLoaded(info coremetrics.ConfigInfo) error {
	s.configInfo.Reset()
	s.configInfo.WithLabelValues(info.Version, info.ActiveStore, info.StoreType).Set(1)
	return nil
}

// RecordRegistryRefresh counts the refresh and, on success, updates the
// document gauges.
func (s *PromSink) RecordRegistryRefresh(ev coremetrics.RefreshEvent) error {
	s.refreshes.WithLabelValues(strconv.FormatBool(ev.Success()), strconv.FormatBool(ev.Changed)).Inc()
	s.duration.Observe(ev.Duration.Seconds())
	if !ev.Success() {
		return nil
	}
	s.lastSuccess.Set(float64(ev.Time.Unix()))
	s.docBytes.Set(float64(ev.Size))
	if ev.Changed {
		s.changes.Inc()
	}
	return nil
}
