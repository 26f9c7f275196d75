// Package audit writes audit events about the serving configuration and the
// registry as JSON lines, either to the console or to a fluentd TCP input.
package audit

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/kilianp07/featserve/config"
	"github.com/kilianp07/featserve/infra/logger"
	"github.com/kilianp07/featserve/registry"
)

// Tag is the fluentd tag carried by every audit entry.
const Tag = "featserve.audit"

// Logger records audit events. The zero value discards everything.
type Logger struct {
	z      zerolog.Logger
	on     bool
	closer io.Closer
}

// New builds the audit logger described by cfg. Console output goes to
// stdout; a nil stdout selects os.Stdout.
func New(cfg config.AuditLoggingConfig, stdout io.Writer) (*Logger, error) {
	if !cfg.Enabled {
		return &Logger{z: zerolog.Nop()}, nil
	}
	if stdout == nil {
		stdout = os.Stdout
	}
	var (
		w      io.Writer = stdout
		closer io.Closer
	)
	ml := cfg.MessageLogging
	if ml.Enabled && ml.Destination == config.DestinationFluentd {
		fw := newFluentdWriter(ml.FluentdHost, ml.FluentdPort, 5*time.Second)
		w, closer = fw, fw
	}
	z := zerolog.New(w).Level(logger.LevelFromEnv()).With().Timestamp().Str("tag", Tag).Logger()
	return &Logger{z: z, on: true, closer: closer}, nil
}

// Enabled reports whether events are written.
func (l *Logger) Enabled() bool { return l.on }

// ConfigLoaded records the configuration the process serves with.
func (l *Logger) ConfigLoaded(cfg *config.ServingConfig, active config.StoreSpec) {
	if !l.on {
		return
	}
	names := make([]string, 0, len(cfg.Stores()))
	for _, s := range cfg.Stores() {
		names = append(names, s.Name())
	}
	l.z.Info().
		Str("event", "config_loaded").
		Str("version", cfg.Version()).
		Str("registry", cfg.Registry()).
		Str("active_store", active.Name()).
		Str("store_type", active.Type()).
		Strs("stores", names).
		Msg("serving configuration loaded")
}

// RegistryRefreshed records a registry refresh. Unchanged documents are
// recorded at debug level and only written when LOG_LEVEL is debug.
func (l *Logger) RegistryRefreshed(ev registry.Event) {
	if !l.on {
		return
	}
	e := l.z.Info()
	if ev.Err != nil {
		e = l.z.Error().Err(ev.Err)
	} else if !ev.Changed {
		e = l.z.Debug()
	}
	e.Str("event", "registry_refresh").
		Str("refresh_id", ev.ID).
		Str("location", ev.Location).
		Str("checksum", ev.Checksum).
		Str("previous_checksum", ev.PreviousChecksum).
		Bool("changed", ev.Changed).
		Int("size", ev.Size).
		Dur("duration", ev.Duration).
		Msg("registry refreshed")
}

// Close releases the fluentd connection, if any.
func (l *Logger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}
