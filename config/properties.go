package config

import (
	"errors"
	"fmt"
	"sort"

	"github.com/kilianp07/featserve/core/factory"
)

// BuildVersion is the serving build version, set at link time with
// -ldflags "-X github.com/kilianp07/featserve/config.BuildVersion=<version>".
var BuildVersion = "unknown"

// TracerJaeger is the only recognized tracer name, matched case-insensitively.
const TracerJaeger = "jaeger"

// Properties is the mutable draft of a serving configuration. It is filled by
// Decode (or by hand in tests) and turned into an immutable ServingConfig by New.
type Properties struct {
	Version                       string            `yaml:"version"`
	Registry                      string            `yaml:"registry"`
	RegistryRefreshInterval       int               `yaml:"registryRefreshInterval"`
	GCPProject                    string            `yaml:"gcpProject,omitempty"`
	AWSRegion                     string            `yaml:"awsRegion,omitempty"`
	TransformationServiceEndpoint string            `yaml:"transformationServiceEndpoint,omitempty"`
	ActiveStore                   string            `yaml:"activeStore"`
	Stores                        []StoreProperties `yaml:"stores"`
	Tracing                       *TracingConfig    `yaml:"tracing,omitempty"`
	Logging                       *LoggingConfig    `yaml:"logging"`
	RegistryAuth                  OAuth2Config      `yaml:"registryAuth,omitempty"`

	Metrics       MetricsConfig       `yaml:"metrics,omitempty"`
	Notifications NotificationsConfig `yaml:"notifications,omitempty"`
	Sentry        SentryConfig        `yaml:"sentry,omitempty"`
}

// StoreProperties is the draft form of a StoreSpec.
type StoreProperties struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`

	// malformed holds the reason an entry of the tree could not be read as a
	// store. The entry keeps its position so later paths stay accurate.
	malformed string
}

// TracingConfig holds metric tracing properties.
type TracingConfig struct {
	Enabled bool `yaml:"enabled"`
	// TracerName selects the tracer; only "jaeger" is recognized.
	TracerName string `yaml:"tracerName,omitempty"`
	// ServiceName uniquely identifies this serving deployment.
	ServiceName string `yaml:"serviceName,omitempty"`
}

// Decode turns a raw tree into Properties using explicit, ordered field
// extraction. Malformed values do not abort decoding: they are returned as
// violations so that they can be reported together with the structural ones.
func Decode(t Tree) (Properties, []Violation) {
	d := &treeDecoder{}
	root := map[string]any(t)

	p := Properties{Version: BuildVersion}
	if v, ok := lookup(root, "version"); ok && v != nil {
		p.Version = d.str(root, "version", "version")
	}
	p.Registry = d.str(root, "registry", "registry")
	p.RegistryRefreshInterval = d.integer(root, "registryRefreshInterval", "registryRefreshInterval")
	p.GCPProject = d.str(root, "gcpProject", "gcpProject")
	p.AWSRegion = d.str(root, "awsRegion", "awsRegion")
	p.TransformationServiceEndpoint = d.str(root, "transformationServiceEndpoint", "transformationServiceEndpoint")
	p.ActiveStore = d.str(root, "activeStore", "activeStore")
	p.Stores = d.stores(root)
	p.Tracing = d.tracing(root)
	p.Logging = d.logging(root)

	d.section(root, "registryAuth", &p.RegistryAuth)
	d.section(root, "metrics", &p.Metrics)
	d.section(root, "notifications", &p.Notifications)
	d.section(root, "sentry", &p.Sentry)

	return p, d.violations
}

type treeDecoder struct {
	violations []Violation
}

func (d *treeDecoder) fail(field string, err error) {
	d.violations = append(d.violations, Violation{Field: field, Kind: KindStructuralViolation, Message: err.Error()})
}

func (d *treeDecoder) str(m map[string]any, key, field string) string {
	v, ok := lookup(m, key)
	if !ok {
		return ""
	}
	s, err := asString(v)
	if err != nil {
		d.fail(field, err)
	}
	return s
}

func (d *treeDecoder) integer(m map[string]any, key, field string) int {
	v, ok := lookup(m, key)
	if !ok || v == nil {
		return 0
	}
	n, err := asInt(v)
	if err != nil {
		d.fail(field, err)
	}
	return n
}

func (d *treeDecoder) boolean(m map[string]any, key, field string) bool {
	v, ok := lookup(m, key)
	if !ok || v == nil {
		return false
	}
	b, err := asBool(v)
	if err != nil {
		d.fail(field, err)
	}
	return b
}

func (d *treeDecoder) stores(root map[string]any) []StoreProperties {
	v, ok := lookup(root, "stores")
	if !ok {
		return nil
	}
	items, err := asSlice(v)
	if err != nil {
		d.fail("stores", err)
		return nil
	}
	out := make([]StoreProperties, 0, len(items))
	for i, item := range items {
		field := fmt.Sprintf("stores[%d]", i)
		m, err := asMap(item)
		if err != nil || m == nil {
			if err == nil {
				err = errors.New("expected a mapping, got null")
			}
			out = append(out, StoreProperties{malformed: err.Error()})
			continue
		}
		out = append(out, StoreProperties{
			Name:   d.str(m, "name", field+".name"),
			Type:   d.str(m, "type", field+".type"),
			Config: d.settings(m, field+".config"),
		})
	}
	return out
}

// settings copies the store settings map. Keys are taken verbatim.
func (d *treeDecoder) settings(m map[string]any, field string) map[string]string {
	out := map[string]string{}
	v, ok := lookup(m, "config")
	if !ok {
		return out
	}
	raw, err := asMap(v)
	if err != nil {
		d.fail(field, err)
		return out
	}
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		s, err := asString(raw[k])
		if err != nil {
			d.fail(field+"."+k, err)
			continue
		}
		out[k] = s
	}
	return out
}

func (d *treeDecoder) tracing(root map[string]any) *TracingConfig {
	v, ok := lookup(root, "tracing")
	if !ok || v == nil {
		return nil
	}
	m, err := asMap(v)
	if err != nil {
		d.fail("tracing", err)
		return nil
	}
	return &TracingConfig{
		Enabled:     d.boolean(m, "enabled", "tracing.enabled"),
		TracerName:  d.str(m, "tracerName", "tracing.tracerName"),
		ServiceName: d.str(m, "serviceName", "tracing.serviceName"),
	}
}

// logging returns nil only when the section is absent or null. A malformed
// section yields an empty config so that it is reported once.
func (d *treeDecoder) logging(root map[string]any) *LoggingConfig {
	v, ok := lookup(root, "logging")
	if !ok || v == nil {
		return nil
	}
	lc := &LoggingConfig{}
	m, err := asMap(v)
	if err != nil {
		d.fail("logging", err)
		return lc
	}
	if err := factory.Decode(m, lc); err != nil {
		d.fail("logging", err)
		return &LoggingConfig{}
	}
	lc.SetDefaults()
	return lc
}

func (d *treeDecoder) section(root map[string]any, key string, out any) {
	v, ok := lookup(root, key)
	if !ok || v == nil {
		return
	}
	m, err := asMap(v)
	if err != nil {
		d.fail(key, err)
		return
	}
	if err := factory.Decode(m, out); err != nil {
		d.fail(key, err)
	}
}
