package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fields(vs []Violation) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = v.Field
	}
	return out
}

func TestValidateValid(t *testing.T) {
	assert.Empty(t, Validate(validProperties()))
}

func TestValidateBlankFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Properties)
		want   []string
	}{
		{"version", func(p *Properties) { p.Version = "" }, []string{"version"}},
		{"registry", func(p *Properties) { p.Registry = "  " }, []string{"registry"}},
		{"activeStore", func(p *Properties) { p.ActiveStore = "" }, []string{"activeStore"}},
		{"all three", func(p *Properties) {
			p.Version, p.Registry, p.ActiveStore = "", "", "\t"
		}, []string{"version", "registry", "activeStore"}},
		{"logging", func(p *Properties) { p.Logging = nil }, []string{"logging"}},
		{"refresh interval", func(p *Properties) { p.RegistryRefreshInterval = -1 }, []string{"registryRefreshInterval"}},
		{"store name", func(p *Properties) { p.Stores[0].Name = "" }, []string{"stores[0].name"}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			p := validProperties()
			c.mutate(&p)
			vs := Validate(p)
			assert.Equal(t, c.want, fields(vs))
			for _, v := range vs {
				assert.Equal(t, KindStructuralViolation, v.Kind)
			}
		})
	}
}

func TestValidateDuplicateNames(t *testing.T) {
	p := validProperties()
	p.Stores = append(p.Stores,
		StoreProperties{Name: "offline", Type: "REDIS"},
		StoreProperties{Name: "online", Type: "REDIS"},
	)
	vs := Validate(p)
	require.Len(t, vs, 2)
	for _, v := range vs {
		assert.Equal(t, KindDuplicateStoreName, v.Kind)
	}
	assert.Equal(t, []string{"stores[2].name", "stores[3].name"}, fields(vs))
	assert.Contains(t, vs[0].Message, "stores[0]")
}

func TestValidateTracing(t *testing.T) {
	p := validProperties()
	p.Tracing = &TracingConfig{Enabled: false, TracerName: "zipkin"}
	assert.Empty(t, Validate(p), "disabled tracing is not checked")

	p.Tracing = &TracingConfig{Enabled: true, TracerName: "zipkin"}
	assert.Equal(t, []string{"tracing.tracerName", "tracing.serviceName"}, fields(Validate(p)))

	p.Tracing = &TracingConfig{Enabled: true, TracerName: TracerJaeger, ServiceName: "svc"}
	assert.Empty(t, Validate(p))

	p.Tracing = &TracingConfig{Enabled: true, TracerName: "Jaeger", ServiceName: "svc"}
	assert.Empty(t, Validate(p), "tracer name is case-insensitive")
}

func TestValidateMessageLogging(t *testing.T) {
	p := validProperties()
	p.Logging.Audit.MessageLogging = MessageLoggingConfig{Enabled: true, Destination: DestinationFluentd}
	assert.Equal(t, []string{
		"logging.audit.messageLogging.fluentdHost",
		"logging.audit.messageLogging.fluentdPort",
	}, fields(Validate(p)))

	p.Logging.Audit.MessageLogging = MessageLoggingConfig{Enabled: true, Destination: "kafka"}
	assert.Equal(t, []string{"logging.audit.messageLogging.destination"}, fields(Validate(p)))

	p.Logging.Audit.MessageLogging = MessageLoggingConfig{
		Enabled: true, Destination: DestinationFluentd, FluentdHost: "fluentd", FluentdPort: 24224,
	}
	assert.Empty(t, Validate(p))
}

func TestValidationErrorReportsEverything(t *testing.T) {
	p := validProperties()
	p.Version, p.Registry, p.ActiveStore = "", "", ""
	_, err := New(p)
	require.Error(t, err)
	ve, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Len(t, ve.Violations, 3)
	assert.Contains(t, err.Error(), "3 violations")
	for _, f := range []string{"version", "registry", "activeStore"} {
		assert.True(t, ve.HasField(f), f)
	}
}

func TestValidateRegistryAuth(t *testing.T) {
	p := validProperties()
	p.RegistryAuth = OAuth2Config{TokenURL: "https://auth.example/token"}
	assert.Equal(t, []string{"registryAuth.clientId"}, fields(Validate(p)))

	p.RegistryAuth.ClientID = "serving"
	assert.Empty(t, Validate(p))
}
