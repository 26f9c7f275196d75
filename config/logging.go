package config

import (
	"fmt"
	"strings"
)

// Audit message destinations.
const (
	DestinationConsole = "console"
	DestinationFluentd = "fluentd"
)

// LoggingConfig holds the audit logging properties of the serving process.
type LoggingConfig struct {
	Audit AuditLoggingConfig `json:"audit" yaml:"audit"`
}

// AuditLoggingConfig toggles audit events and where message logs are shipped.
type AuditLoggingConfig struct {
	Enabled        bool                 `json:"enabled" yaml:"enabled"`
	MessageLogging MessageLoggingConfig `json:"messageLogging" yaml:"messageLogging"`
}

// MessageLoggingConfig describes the destination of audit message logs.
type MessageLoggingConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`
	// Destination is either "console" or "fluentd".
	Destination string `json:"destination" yaml:"destination"`
	FluentdHost string `json:"fluentdHost" yaml:"fluentdHost,omitempty"`
	FluentdPort int    `json:"fluentdPort" yaml:"fluentdPort,omitempty"`
}

// SetDefaults applies the console destination when none is set.
func (c *LoggingConfig) SetDefaults() {
	if c.Audit.MessageLogging.Destination == "" {
		c.Audit.MessageLogging.Destination = DestinationConsole
	}
}

func (c LoggingConfig) violations() []Violation {
	ml := c.Audit.MessageLogging
	if !ml.Enabled {
		return nil
	}
	const prefix = "logging.audit.messageLogging."
	var vs []Violation
	switch ml.Destination {
	case DestinationConsole:
	case DestinationFluentd:
		if strings.TrimSpace(ml.FluentdHost) == "" {
			vs = append(vs, structural(prefix+"fluentdHost", "must not be blank when destination is fluentd"))
		}
		if ml.FluentdPort <= 0 || ml.FluentdPort > 65535 {
			vs = append(vs, structural(prefix+"fluentdPort", fmt.Sprintf("must be a port number, got %d", ml.FluentdPort)))
		}
	default:
		vs = append(vs, structural(prefix+"destination",
			fmt.Sprintf("must be %q or %q, got %q", DestinationConsole, DestinationFluentd, ml.Destination)))
	}
	return vs
}
