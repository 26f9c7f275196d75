package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTree() Tree {
	return Tree{
		"version":                 "0.40.0",
		"registry":                "s3://bucket/registry.db",
		"registryRefreshInterval": 30,
		"awsRegion":               "eu-west-1",
		"activeStore":             "online",
		"stores": []any{
			map[string]any{
				"name":   "online",
				"type":   "REDIS",
				"config": map[string]any{"host": "localhost", "port": 6379, "ssl": false},
			},
		},
		"tracing": map[string]any{"enabled": true, "tracerName": "jaeger", "serviceName": "serving"},
		"logging": map[string]any{
			"audit": map[string]any{"enabled": true},
		},
		"metrics": map[string]any{
			"address": ":9102",
			"sinks":   []any{map[string]any{"type": "prometheus"}},
		},
		"sentry": map[string]any{"dsn": "https://key@sentry.invalid/1", "tracesSampleRate": 0.5},
	}
}

func TestFromTree(t *testing.T) {
	cfg, err := FromTree(sampleTree())
	require.NoError(t, err)
	assert.Equal(t, "0.40.0", cfg.Version())
	assert.Equal(t, 30*time.Second, cfg.RegistryRefreshInterval())
	assert.Equal(t, "eu-west-1", cfg.AWSRegion())

	active, err := cfg.ActiveStore()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"host": "localhost", "port": "6379", "ssl": "false"}, active.Settings())

	tc, ok := cfg.Tracing()
	require.True(t, ok)
	assert.Equal(t, TracingConfig{Enabled: true, TracerName: "jaeger", ServiceName: "serving"}, tc)

	assert.True(t, cfg.Logging().Audit.Enabled)
	assert.Equal(t, DestinationConsole, cfg.Logging().Audit.MessageLogging.Destination)
	require.Len(t, cfg.Metrics().Sinks, 1)
	assert.Equal(t, "prometheus", cfg.Metrics().Sinks[0].Type)
	assert.Equal(t, 0.5, cfg.Sentry().TracesSampleRate)
	assert.False(t, cfg.Notifications().MQTT.Enabled())
}

func TestDecodeRelaxedKeys(t *testing.T) {
	p, vs := Decode(Tree{
		"registry":                  "r",
		"active_store":              "a",
		"REGISTRY-REFRESH-INTERVAL": "15",
		"logging":                   map[string]any{},
	})
	assert.Empty(t, vs)
	assert.Equal(t, "a", p.ActiveStore)
	assert.Equal(t, 15, p.RegistryRefreshInterval)
}

func TestDecodeExactKeyWins(t *testing.T) {
	p, _ := Decode(Tree{"activeStore": "exact", "active_store": "relaxed"})
	assert.Equal(t, "exact", p.ActiveStore)
}

func TestDecodeVersionDefaultsToBuildVersion(t *testing.T) {
	p, _ := Decode(Tree{})
	assert.Equal(t, BuildVersion, p.Version)
	assert.Nil(t, p.Logging)
	assert.Nil(t, p.Tracing)

	p, _ = Decode(Tree{"version": nil})
	assert.Equal(t, BuildVersion, p.Version)

	p, _ = Decode(Tree{"version": ""})
	assert.Equal(t, "", p.Version)
}

func TestFromTreeNullVersion(t *testing.T) {
	tree := sampleTree()
	tree["version"] = nil
	cfg, err := FromTree(tree)
	require.NoError(t, err)
	assert.Equal(t, BuildVersion, cfg.Version())
}

func TestDecodeKeepsStorePositions(t *testing.T) {
	_, err := FromTree(Tree{
		"registry":    "r",
		"activeStore": "a",
		"stores": []any{
			"not-a-map",
			map[string]any{"name": "", "type": "REDIS"},
			nil,
			map[string]any{"name": "a", "type": "REDIS"},
		},
		"logging": map[string]any{},
	})
	require.Error(t, err)
	ve, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, []string{"stores[0]", "stores[1].name", "stores[2]"}, fields(ve.Violations))
	assert.Contains(t, ve.Violations[0].Message, "expected a mapping")
}

func TestDecodeMalformedValues(t *testing.T) {
	_, err := FromTree(Tree{
		"version":                 "1",
		"registry":                "r",
		"activeStore":             "a",
		"registryRefreshInterval": "abc",
		"stores":                  "not a list",
		"logging":                 map[string]any{},
	})
	require.Error(t, err)
	ve, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, []string{"registryRefreshInterval", "stores"}, fields(ve.Violations))
}

func TestDecodeEmptyStoreConfig(t *testing.T) {
	cfg, err := FromTree(Tree{
		"registry":    "r",
		"activeStore": "a",
		"stores":      []any{map[string]any{"name": "a", "type": "REDIS"}},
		"logging":     map[string]any{},
	})
	require.NoError(t, err)
	active, err := cfg.ActiveStore()
	require.NoError(t, err)
	assert.Empty(t, active.Settings())
	assert.NotNil(t, active.Settings())
}

func TestDecodeReportsJointProblems(t *testing.T) {
	_, err := FromTree(Tree{"version": " "})
	require.Error(t, err)
	ve := err.(*ValidationError)
	assert.Equal(t, []string{"version", "registry", "activeStore", "logging"}, fields(ve.Violations))
}

func TestDecodeRegistryAuth(t *testing.T) {
	tree := sampleTree()
	tree["registryAuth"] = map[string]any{
		"clientId":     "serving",
		"clientSecret": "s3cr3t",
		"tokenUrl":     "https://auth.example/token",
		"scopes":       []any{"registry.read"},
	}
	cfg, err := FromTree(tree)
	require.NoError(t, err)
	ra := cfg.RegistryAuth()
	assert.True(t, ra.Enabled())
	assert.Equal(t, "serving", ra.ClientID)
	assert.Equal(t, []string{"registry.read"}, ra.Scopes)

	ra.Scopes[0] = "changed"
	assert.Equal(t, []string{"registry.read"}, cfg.RegistryAuth().Scopes)
}
