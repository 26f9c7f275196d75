package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	coremetrics "github.com/kilianp07/featserve/core/metrics"
)

func TestServerEndpoints(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := newTestPromSink(t, reg)
	require.NoError(t, sink.RecordConfigLoaded(coremetrics.ConfigInfo{Version: "1", ActiveStore: "a", StoreType: "REDIS"}))

	s := NewServer(":0", reg)
	srv := httptest.NewServer(s.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	s.SetReady(true)
	resp, err = http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestBuiltinSinksRegistered(t *testing.T) {
	assert.Subset(t, coremetrics.SinkTypes(), []string{"nop", "prometheus", "influx"})
}
