package registry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	coremetrics "github.com/kilianp07/featserve/core/metrics"
	"github.com/kilianp07/featserve/infra/logger"
	"github.com/kilianp07/featserve/internal/eventbus"
)

// Document is a fetched registry document.
type Document struct {
	Location string
	// Checksum is the hex SHA-256 of Data.
	Checksum  string
	Data      []byte
	FetchedAt time.Time
}

// Event reports the outcome of one refresh.
type Event struct {
	ID               string        `json:"id"`
	Location         string        `json:"location"`
	Checksum         string        `json:"checksum,omitempty"`
	PreviousChecksum string        `json:"previousChecksum,omitempty"`
	Changed          bool          `json:"changed"`
	Size             int           `json:"size"`
	Duration         time.Duration `json:"duration"`
	Err              error         `json:"-"`
	Time             time.Time     `json:"time"`
}

// Refresher periodically re-reads the registry document. Only the registry
// document is reloaded; the serving configuration itself never changes.
type Refresher struct {
	src      Source
	interval time.Duration
	log      logger.Logger
	sink     coremetrics.MetricsSink
	tracer   trace.Tracer
	now      func() time.Time

	mu      sync.Mutex // serializes refreshes
	current atomic.Pointer[Document]
	bus     *eventbus.Bus[Event]
}

// Option configures a Refresher.
type Option func(*Refresher)

func WithLogger(l logger.Logger) Option { return func(r *Refresher) { r.log = l } }

func WithMetrics(s coremetrics.MetricsSink) Option { return func(r *Refresher) { r.sink = s } }

func WithTracer(t trace.Tracer) Option { return func(r *Refresher) { r.tracer = t } }

// NewRefresher creates a refresher polling src every interval. A zero
// interval loads the document once and never polls.
func NewRefresher(src Source, interval time.Duration, opts ...Option) *Refresher {
	r := &Refresher{
		src:      src,
		interval: interval,
		log:      logger.NopLogger{},
		sink:     coremetrics.NopSink{},
		tracer:   noop.NewTracerProvider().Tracer("registry"),
		now:      time.Now,
		bus:      eventbus.New[Event](0),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

// Current returns the last successfully fetched document.
func (r *Refresher) Current() (Document, bool) {
	d := r.current.Load()
	if d == nil {
		return Document{}, false
	}
	return *d, true
}

// Refresh fetches the document once. The current document is replaced only
// on success; the returned error is also carried by the event.
func (r *Refresher) Refresh(ctx context.Context) (Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	ctx, span := r.tracer.Start(ctx, "registry.refresh",
		trace.WithAttributes(attribute.String("registry.location", r.src.Location())))
	defer span.End()

	start := r.now()
	ev := Event{ID: uuid.NewString(), Location: r.src.Location(), Time: start}
	if prev := r.current.Load(); prev != nil {
		ev.PreviousChecksum = prev.Checksum
	}

	data, err := r.src.Fetch(ctx)
	ev.Duration = r.now().Sub(start)
	if err != nil {
		ev.Err = err
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.log.Errorf("registry refresh %s failed: %v", ev.Location, err)
		r.publish(ev)
		return ev, err
	}

	sum := sha256.Sum256(data)
	ev.Checksum = hex.EncodeToString(sum[:])
	ev.Size = len(data)
	ev.Changed = ev.Checksum != ev.PreviousChecksum
	if ev.Changed {
		r.current.Store(&Document{Location: ev.Location, Checksum: ev.Checksum, Data: data, FetchedAt: start})
		r.log.Infof("registry %s loaded (%d bytes, sha256 %s)", ev.Location, ev.Size, ev.Checksum[:12])
	} else {
		r.log.Debugf("registry %s unchanged", ev.Location)
	}
	span.SetAttributes(
		attribute.Bool("registry.changed", ev.Changed),
		attribute.Int("registry.size", ev.Size),
	)
	r.publish(ev)
	return ev, nil
}

func (r *Refresher) publish(ev Event) {
	if err := r.sink.RecordRegistryRefresh(coremetrics.RefreshEvent{
		ID:       ev.ID,
		Location: ev.Location,
		Checksum: ev.Checksum,
		Changed:  ev.Changed,
		Size:     ev.Size,
		Duration: ev.Duration,
		Err:      ev.Err,
		Time:     ev.Time,
	}); err != nil {
		r.log.Warnf("record registry refresh: %v", err)
	}
	r.bus.Publish(ev)
}

// Run polls the registry every interval until ctx is canceled. Refresh
// errors are logged and do not stop the loop. Run returns immediately when
// the interval is zero.
func (r *Refresher) Run(ctx context.Context) error {
	if r.interval <= 0 {
		return nil
	}
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			_, _ = r.Refresh(ctx)
		}
	}
}

// Subscribe returns a channel receiving every refresh event. Slow
// subscribers miss events rather than block refreshes.
func (r *Refresher) Subscribe() <-chan Event { return r.bus.Subscribe() }

func (r *Refresher) Unsubscribe(ch <-chan Event) { r.bus.Unsubscribe(ch) }

// Close closes subscriber channels and the source when it holds resources.
func (r *Refresher) Close() error {
	r.bus.Close()
	if c, ok := r.src.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
