package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// EnvPrefix marks environment variables overriding file values. Nesting levels
// are separated by a double underscore: FEAST_TRACING__SERVICE_NAME.
const EnvPrefix = "FEAST_"

// knownKeys lists the camelCase keys under each section so that environment
// variable names can be mapped back onto them.
var knownKeys = map[string][]string{
	"": {
		"version", "registry", "registryRefreshInterval", "gcpProject", "awsRegion",
		"transformationServiceEndpoint", "activeStore", "stores", "tracing", "logging",
		"registryAuth", "metrics", "notifications", "sentry",
	},
	"tracing":                      {"enabled", "tracerName", "serviceName"},
	"logging":                      {"audit"},
	"logging.audit":                {"enabled", "messageLogging"},
	"logging.audit.messageLogging": {"enabled", "destination", "fluentdHost", "fluentdPort"},
	"metrics":                      {"address", "sinks"},
	"notifications":                {"mqtt"},
	"notifications.mqtt":           {"broker", "clientId", "topic", "username", "password", "qos", "retain"},
	"sentry":                       {"dsn", "environment", "tracesSampleRate"},
}

// envKey maps FEAST_ACTIVE_STORE to activeStore and
// FEAST_LOGGING__AUDIT__ENABLED to logging.audit.enabled.
func envKey(s string) string {
	s = strings.TrimPrefix(s, EnvPrefix)
	if s == "" {
		return ""
	}
	parts := strings.Split(s, "__")
	path := make([]string, 0, len(parts))
	for _, part := range parts {
		parent := strings.Join(path, ".")
		key := strings.ToLower(part)
		for _, known := range knownKeys[parent] {
			if normalizeKey(known) == normalizeKey(part) {
				key = known
				break
			}
		}
		path = append(path, key)
	}
	return strings.Join(path, ".")
}

// LoadTree reads the configuration file at path (YAML or JSON, chosen by
// extension) and applies FEAST_ environment overrides on top of it.
func LoadTree(path string) (Tree, error) {
	k := koanf.New(".")
	var parser koanf.Parser
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		parser = yaml.Parser()
	case ".json":
		parser = json.Parser()
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err := k.Load(file.Provider(path), parser); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	return Tree(k.Raw()), nil
}

// Load reads, decodes and validates the configuration at path.
func Load(path string) (*ServingConfig, error) {
	t, err := LoadTree(path)
	if err != nil {
		return nil, err
	}
	return FromTree(t)
}
