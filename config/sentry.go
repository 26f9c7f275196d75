package config

// SentryConfig defines settings for Sentry error monitoring. Monitoring is
// disabled when DSN is empty and SENTRY_DSN is unset.
type SentryConfig struct {
	DSN              string  `json:"dsn" yaml:"dsn,omitempty"`
	Environment      string  `json:"environment" yaml:"environment,omitempty"`
	TracesSampleRate float64 `json:"tracesSampleRate" yaml:"tracesSampleRate,omitempty"`
}
