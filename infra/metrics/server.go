package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kilianp07/featserve/infra/logger"
)

// Server exposes Prometheus metrics on /metrics and readiness on /healthz.
// /healthz answers 503 until SetReady(true) is called.
type Server struct {
	srv   *http.Server
	ready atomic.Bool
	log   logger.Logger
}

// NewServer builds a server for addr gathering from g. A nil gatherer
// selects the default Prometheus registry.
func NewServer(addr string, g prometheus.Gatherer) *Server {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	s := &Server{log: logger.New("metrics-server")}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", s.healthz)
	s.srv = &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	return s
}

// Handler returns the HTTP handler, mostly useful in tests.
func (s *Server) Handler() http.Handler { return s.srv.Handler }

// SetReady toggles the /healthz answer.
func (s *Server) SetReady(ready bool) { s.ready.Store(ready) }

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	if !s.ready.Load() {
		http.Error(w, "not ready", http.StatusServiceUnavailable)
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// Serve listens on the configured address until ctx is canceled.
func (s *Server) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return err
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.log.Warnf("metrics server shutdown: %v", err)
		}
		cancel()
	}()
	s.log.Infof("serving metrics on %s", ln.Addr())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
