package config

import (
	"slices"

	"github.com/kilianp07/featserve/core/factory"
)

// MetricsConfig selects the metrics sinks and the address of the HTTP
// endpoint serving /metrics and /healthz. An empty address disables it.
type MetricsConfig struct {
	Address string                 `json:"address" yaml:"address,omitempty"`
	Sinks   []factory.ModuleConfig `json:"sinks" yaml:"sinks,omitempty"`
}

// NotificationsConfig groups outbound registry change notifications.
type NotificationsConfig struct {
	MQTT MQTTConfig `json:"mqtt" yaml:"mqtt,omitempty"`
}

// MQTTConfig configures the registry change publisher. It is disabled when
// Broker is empty.
type MQTTConfig struct {
	Broker   string `json:"broker" yaml:"broker,omitempty"`
	ClientID string `json:"clientId" yaml:"clientId,omitempty"`
	Topic    string `json:"topic" yaml:"topic,omitempty"`
	Username string `json:"username" yaml:"username,omitempty"`
	Password string `json:"password" yaml:"password,omitempty"`
	QoS      byte   `json:"qos" yaml:"qos,omitempty"`
	Retain   bool   `json:"retain" yaml:"retain,omitempty"`
}

// Enabled reports whether a broker is configured.
func (c MQTTConfig) Enabled() bool { return c.Broker != "" }

// OAuth2Config enables client-credentials authentication against an HTTP
// registry. It is disabled when TokenURL is empty.
type OAuth2Config struct {
	ClientID     string   `json:"clientId" yaml:"clientId,omitempty"`
	ClientSecret string   `json:"clientSecret" yaml:"clientSecret,omitempty"`
	TokenURL     string   `json:"tokenUrl" yaml:"tokenUrl,omitempty"`
	Scopes       []string `json:"scopes" yaml:"scopes,omitempty"`
}

func (c OAuth2Config) Enabled() bool { return c.TokenURL != "" }

func (c OAuth2Config) clone() OAuth2Config {
	c.Scopes = slices.Clone(c.Scopes)
	return c
}
