package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleYAML = `version: "0.40.0"
registry: data/registry.db
registryRefreshInterval: 10
activeStore: online
stores:
  - name: online
    type: REDIS
    config:
      host: localhost
      port: 6379
  - name: cluster
    type: REDIS_CLUSTER
    config:
      connection_string: "n1:6379,n2:6379"
      read_from: nearest
      timeout: PT5S
tracing:
  enabled: false
logging:
  audit:
    enabled: true
    messageLogging:
      enabled: true
      destination: console
notifications:
  mqtt:
    broker: tcp://localhost:1883
    topic: feast/registry
`

func writeConfig(t *testing.T, name, data string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(data), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	cfg, err := Load(writeConfig(t, "feature_server.yaml", sampleYAML))
	require.NoError(t, err)

	checks := []struct {
		name string
		got  any
		want any
	}{
		{"version", cfg.Version(), "0.40.0"},
		{"registry", cfg.Registry(), "data/registry.db"},
		{"activeStore", cfg.ActiveStoreName(), "online"},
		{"stores", len(cfg.Stores()), 2},
		{"message logging", cfg.Logging().Audit.MessageLogging.Enabled, true},
		{"mqtt topic", cfg.Notifications().MQTT.Topic, "feast/registry"},
	}
	for _, c := range checks {
		assert.Equal(t, c.want, c.got, c.name)
	}

	active, err := cfg.ActiveStore()
	require.NoError(t, err)
	port, _ := active.Setting("port")
	assert.Equal(t, "6379", port)
}

func TestLoadJSON(t *testing.T) {
	data := `{"registry": "r", "activeStore": "a", "logging": {},
  "stores": [{"name": "a", "type": "REDIS", "config": {"host": "h", "port": "1"}}]}`
	cfg, err := Load(writeConfig(t, "c.json", data))
	require.NoError(t, err)
	assert.Equal(t, BuildVersion, cfg.Version())
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("FEAST_ACTIVE_STORE", "cluster")
	t.Setenv("FEAST_REGISTRY_REFRESH_INTERVAL", "0")
	t.Setenv("FEAST_TRACING__ENABLED", "true")
	t.Setenv("FEAST_TRACING__TRACER_NAME", "jaeger")
	t.Setenv("FEAST_TRACING__SERVICE_NAME", "serving")

	cfg, err := Load(writeConfig(t, "feature_server.yaml", sampleYAML))
	require.NoError(t, err)
	assert.Equal(t, "cluster", cfg.ActiveStoreName())
	assert.Zero(t, cfg.RegistryRefreshInterval())
	tc, ok := cfg.Tracing()
	require.True(t, ok)
	assert.Equal(t, "serving", tc.ServiceName)
	assert.True(t, tc.Enabled)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeConfig(t, "c.toml", "a = 1"))
	assert.ErrorContains(t, err, "unsupported config format")

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = Load(writeConfig(t, "c.yaml", "registry: r\n"))
	assert.ErrorIs(t, err, ErrStructuralViolation)
}

func TestEnvKey(t *testing.T) {
	cases := map[string]string{
		"FEAST_ACTIVE_STORE":          "activeStore",
		"FEAST_REGISTRY":              "registry",
		"FEAST_GCP_PROJECT":           "gcpProject",
		"FEAST_TRACING__SERVICE_NAME": "tracing.serviceName",
		"FEAST_LOGGING__AUDIT__MESSAGE_LOGGING__FLUENTD_HOST": "logging.audit.messageLogging.fluentdHost",
		"FEAST_NOTIFICATIONS__MQTT__CLIENT_ID":                "notifications.mqtt.clientId",
		"FEAST_SOMETHING_ELSE":                                "something_else",
		"FEAST_":                                              "",
	}
	for in, want := range cases {
		assert.Equal(t, want, envKey(in), in)
	}
}
