// Package app wires the serving configuration to the components that run
// alongside it: metrics, tracing, audit logging, registry refresh and
// notifications.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/kilianp07/featserve/auth"
	"github.com/kilianp07/featserve/config"
	coremetrics "github.com/kilianp07/featserve/core/metrics"
	"github.com/kilianp07/featserve/infra/audit"
	"github.com/kilianp07/featserve/infra/logger"
	"github.com/kilianp07/featserve/infra/metrics"
	"github.com/kilianp07/featserve/infra/mqtt"
	"github.com/kilianp07/featserve/infra/tracing"
	"github.com/kilianp07/featserve/registry"
	"github.com/kilianp07/featserve/store"
)

// Options overrides the defaults used by New.
type Options struct {
	// Stores decodes the active store; nil selects store.NewDefaultRegistry.
	Stores *store.Registry
	// Source replaces the source derived from the registry setting.
	Source registry.Source
	// AuditOut receives console audit entries; nil selects stdout.
	AuditOut io.Writer
	// HTTPClient fetches http(s) registries, with a bearer token added when
	// registryAuth is set; nil selects registry.NewHTTPClient.
	HTTPClient *http.Client
}

// Service holds the resolved configuration and the components running
// next to it.
type Service struct {
	Config *config.ServingConfig
	// Store is the active store and Connection its decoded settings.
	Store      config.StoreSpec
	Connection store.ConnectionConfig
	Refresher  *registry.Refresher

	log      logger.Logger
	audit    *audit.Logger
	tracing  *tracing.Provider
	sink     coremetrics.MetricsSink
	server   *metrics.Server
	notifier *mqtt.Notifier
}

// New resolves and decodes the active store, so that a misconfigured store
// fails startup, then builds the supporting components.
func New(ctx context.Context, cfg *config.ServingConfig, opts Options) (*Service, error) {
	log := logger.New("service")
	stores := opts.Stores
	if stores == nil {
		stores = store.NewDefaultRegistry()
	}

	active, err := cfg.ActiveStore()
	if err != nil {
		return nil, err
	}
	conn, err := stores.Decode(active)
	if err != nil {
		return nil, err
	}
	log.Infof("active store %s (%s)", active.Name(), active.Type())

	svc := &Service{Config: cfg, Store: active, Connection: conn, log: log}
	ok := false
	defer func() {
		if !ok {
			_ = svc.Close()
		}
	}()

	tc, _ := cfg.Tracing()
	if svc.tracing, err = tracing.NewProvider(ctx, tc, cfg.Version()); err != nil {
		return nil, fmt.Errorf("tracing: %w", err)
	}

	if svc.sink, err = coremetrics.NewMetricsSink(cfg.Metrics().Sinks); err != nil {
		return nil, fmt.Errorf("metrics: %w", err)
	}
	if err := svc.sink.RecordConfigLoaded(coremetrics.ConfigInfo{
		Version:     cfg.Version(),
		Registry:    cfg.Registry(),
		ActiveStore: active.Name(),
		StoreType:   active.Type(),
		Stores:      len(cfg.Stores()),
		Time:        time.Now(),
	}); err != nil {
		log.Warnf("record config: %v", err)
	}
	if addr := cfg.Metrics().Address; addr != "" {
		svc.server = metrics.NewServer(addr, nil)
	}

	if svc.audit, err = audit.New(cfg.Logging().Audit, opts.AuditOut); err != nil {
		return nil, fmt.Errorf("audit: %w", err)
	}
	svc.audit.ConfigLoaded(cfg, active)

	src := opts.Source
	if src == nil {
		so := registry.SourceOptions{
			AWSRegion:  cfg.AWSRegion(),
			GCPProject: cfg.GCPProject(),
			HTTPClient: opts.HTTPClient,
		}
		if so.HTTPClient == nil {
			so.HTTPClient = registry.NewHTTPClient()
		}
		if ra := cfg.RegistryAuth(); ra.Enabled() {
			so.HTTPClient = auth.NewClientCred(ctx, ra).Client(so.HTTPClient)
		}
		src, err = registry.NewSource(ctx, cfg.Registry(), so)
		if err != nil {
			return nil, fmt.Errorf("registry: %w", err)
		}
	}
	svc.Refresher = registry.NewRefresher(src, cfg.RegistryRefreshInterval(),
		registry.WithLogger(logger.New("registry")),
		registry.WithMetrics(svc.sink),
		registry.WithTracer(svc.tracing.Tracer()),
	)

	if mc := cfg.Notifications().MQTT; mc.Enabled() {
		if svc.notifier, err = mqtt.NewNotifier(mc); err != nil {
			return nil, fmt.Errorf("mqtt notifier: %w", err)
		}
	}
	ok = true
	return svc, nil
}

// Run loads the registry once, failing if it cannot be read, then keeps it
// fresh until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	events := s.Refresher.Subscribe()
	var notify <-chan registry.Event
	if s.notifier != nil {
		notify = s.Refresher.Subscribe()
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-events:
				if !ok {
					return
				}
				s.audit.RegistryRefreshed(ev)
			}
		}
	}()
	if notify != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.notifier.Run(ctx, notify)
		}()
	}

	if _, err := s.Refresher.Refresh(ctx); err != nil {
		s.Refresher.Unsubscribe(events)
		if notify != nil {
			s.Refresher.Unsubscribe(notify)
		}
		wg.Wait()
		return fmt.Errorf("initial registry load: %w", err)
	}

	if s.server != nil {
		s.server.SetReady(true)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.server.Serve(ctx); err != nil {
				s.log.Errorf("metrics server: %v", err)
			}
		}()
	}

	if s.Config.RegistryRefreshInterval() > 0 {
		s.log.Infof("refreshing registry every %s", s.Config.RegistryRefreshInterval())
	}
	err := s.Refresher.Run(ctx)
	<-ctx.Done()
	wg.Wait()
	return err
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	var errs []error
	if s.Refresher != nil {
		errs = append(errs, s.Refresher.Close())
	}
	if s.notifier != nil {
		s.notifier.Close()
	}
	if s.audit != nil {
		errs = append(errs, s.audit.Close())
	}
	if s.tracing != nil {
		errs = append(errs, s.tracing.Shutdown(context.Background()))
	}
	return errors.Join(errs...)
}
