package config

import (
	"maps"
	"time"

	"github.com/kilianp07/featserve/core/factory"
)

// ServingConfig is the validated, immutable configuration of a serving
// process. It is safe for concurrent use; accessors return copies.
type ServingConfig struct {
	version                       string
	registry                      string
	registryRefreshInterval       int
	gcpProject                    string
	awsRegion                     string
	transformationServiceEndpoint string
	activeStore                   string
	stores                        []StoreSpec
	tracing                       *TracingConfig
	logging                       LoggingConfig
	registryAuth                  OAuth2Config
	metrics                       MetricsConfig
	notifications                 NotificationsConfig
	sentry                        SentryConfig
}

// New validates p and builds the immutable configuration. When validation
// fails a *ValidationError listing every violation is returned and no
// configuration is built.
func New(p Properties) (*ServingConfig, error) {
	if vs := Validate(p); len(vs) > 0 {
		return nil, &ValidationError{Violations: vs}
	}
	return build(p), nil
}

// FromTree decodes and validates a raw tree in one step. Decoding and
// structural violations are reported together.
func FromTree(t Tree) (*ServingConfig, error) {
	p, vs := Decode(t)
	vs = append(vs, Validate(p)...)
	if len(vs) > 0 {
		return nil, &ValidationError{Violations: vs}
	}
	return build(p), nil
}

func build(p Properties) *ServingConfig {
	c := &ServingConfig{
		version:                       p.Version,
		registry:                      p.Registry,
		registryRefreshInterval:       p.RegistryRefreshInterval,
		gcpProject:                    p.GCPProject,
		awsRegion:                     p.AWSRegion,
		transformationServiceEndpoint: p.TransformationServiceEndpoint,
		activeStore:                   p.ActiveStore,
		stores:                        make([]StoreSpec, len(p.Stores)),
		logging:                       *p.Logging,
		registryAuth:                  p.RegistryAuth.clone(),
		metrics:                       copyMetrics(p.Metrics),
		notifications:                 p.Notifications,
		sentry:                        p.Sentry,
	}
	for i, s := range p.Stores {
		c.stores[i] = NewStoreSpec(s.Name, s.Type, s.Config)
	}
	if p.Tracing != nil {
		t := *p.Tracing
		c.tracing = &t
	}
	return c
}

func (c *ServingConfig) Version() string  { return c.version }
func (c *ServingConfig) Registry() string { return c.registry }

// RegistryRefreshInterval is the registry polling period. Zero disables polling.
func (c *ServingConfig) RegistryRefreshInterval() time.Duration {
	return time.Duration(c.registryRefreshInterval) * time.Second
}

func (c *ServingConfig) GCPProject() string { return c.gcpProject }
func (c *ServingConfig) AWSRegion() string  { return c.awsRegion }
func (c *ServingConfig) TransformationServiceEndpoint() string {
	return c.transformationServiceEndpoint
}
func (c *ServingConfig) ActiveStoreName() string            { return c.activeStore }
func (c *ServingConfig) Logging() LoggingConfig             { return c.logging }
func (c *ServingConfig) RegistryAuth() OAuth2Config         { return c.registryAuth.clone() }
func (c *ServingConfig) Metrics() MetricsConfig             { return copyMetrics(c.metrics) }
func (c *ServingConfig) Notifications() NotificationsConfig { return c.notifications }
func (c *ServingConfig) Sentry() SentryConfig               { return c.sentry }

// Stores returns the configured stores in declared order.
func (c *ServingConfig) Stores() []StoreSpec {
	out := make([]StoreSpec, len(c.stores))
	copy(out, c.stores)
	return out
}

// Tracing returns the tracing section and whether it was configured.
func (c *ServingConfig) Tracing() (TracingConfig, bool) {
	if c.tracing == nil {
		return TracingConfig{}, false
	}
	return *c.tracing, true
}

// ActiveStore returns the first store, in declared order, whose name equals
// the active store name. It fails with ErrActiveStoreNotFound otherwise.
func (c *ServingConfig) ActiveStore() (StoreSpec, error) {
	for _, s := range c.stores {
		if s.name == c.activeStore {
			return s, nil
		}
	}
	return StoreSpec{}, &ConfigurationError{Kind: KindActiveStoreNotFound, Name: c.activeStore}
}

// Properties returns a draft copy of the configuration, e.g. for rendering.
func (c *ServingConfig) Properties() Properties {
	p := Properties{
		Version:                       c.version,
		Registry:                      c.registry,
		RegistryRefreshInterval:       c.registryRefreshInterval,
		GCPProject:                    c.gcpProject,
		AWSRegion:                     c.awsRegion,
		TransformationServiceEndpoint: c.transformationServiceEndpoint,
		ActiveStore:                   c.activeStore,
		Stores:                        make([]StoreProperties, len(c.stores)),
		RegistryAuth:                  c.registryAuth.clone(),
		Metrics:                       copyMetrics(c.metrics),
		Notifications:                 c.notifications,
		Sentry:                        c.sentry,
	}
	for i, s := range c.stores {
		p.Stores[i] = StoreProperties{Name: s.name, Type: s.typ, Config: s.Settings()}
	}
	if c.tracing != nil {
		t := *c.tracing
		p.Tracing = &t
	}
	l := c.logging
	p.Logging = &l
	return p
}

func copyMetrics(m MetricsConfig) MetricsConfig {
	out := MetricsConfig{Address: m.Address}
	if m.Sinks != nil {
		out.Sinks = make([]factory.ModuleConfig, len(m.Sinks))
		for i, s := range m.Sinks {
			out.Sinks[i] = factory.ModuleConfig{Type: s.Type, Conf: maps.Clone(s.Conf)}
		}
	}
	return out
}

// StoreSpec is a named, typed store configuration with an open settings map.
// The settings are decoded lazily by a store type registry.
type StoreSpec struct {
	name     string
	typ      string
	settings map[string]string
}

// NewStoreSpec builds a StoreSpec holding a copy of settings.
func NewStoreSpec(name, typ string, settings map[string]string) StoreSpec {
	s := maps.Clone(settings)
	if s == nil {
		s = map[string]string{}
	}
	return StoreSpec{name: name, typ: typ, settings: s}
}

// Name is unique among the configured stores.
func (s StoreSpec) Name() string { return s.name }

// Type is the store type tag, e.g. "REDIS" or "REDIS_CLUSTER".
func (s StoreSpec) Type() string { return s.typ }

// Settings returns a copy of the store settings.
func (s StoreSpec) Settings() map[string]string { return maps.Clone(s.settings) }

// Setting returns a single settings value.
func (s StoreSpec) Setting(key string) (string, bool) {
	v, ok := s.settings[key]
	return v, ok
}
