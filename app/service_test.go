package app

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/featserve/config"
	"github.com/kilianp07/featserve/store"
)

func newConfig(t *testing.T, registryPath string, stores ...config.StoreProperties) *config.ServingConfig {
	t.Helper()
	cfg, err := config.New(config.Properties{
		Version:     "test",
		Registry:    registryPath,
		ActiveStore: "online",
		Stores:      stores,
		Logging:     &config.LoggingConfig{Audit: config.AuditLoggingConfig{Enabled: true}},
	})
	require.NoError(t, err)
	return cfg
}

func writeRegistry(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "registry.db")
	require.NoError(t, os.WriteFile(path, []byte("registry"), 0o644))
	return path
}

var onlineRedis = config.StoreProperties{
	Name: "online", Type: store.TypeRedis,
	Config: map[string]string{"host": "localhost", "port": "6379"},
}

func TestNewResolvesActiveStore(t *testing.T) {
	var out bytes.Buffer
	cfg := newConfig(t, writeRegistry(t), onlineRedis)
	svc, err := New(context.Background(), cfg, Options{AuditOut: &out})
	require.NoError(t, err)
	defer svc.Close()

	assert.Equal(t, "online", svc.Store.Name())
	rc, ok := svc.Connection.(store.RedisConfig)
	require.True(t, ok)
	assert.Equal(t, "localhost:6379", rc.Addr())
	assert.Contains(t, out.String(), `"event":"config_loaded"`)
}

func TestNewFailsFast(t *testing.T) {
	path := writeRegistry(t)
	cases := []struct {
		name   string
		stores []config.StoreProperties
		want   error
	}{
		{"no active store", []config.StoreProperties{{Name: "other", Type: store.TypeRedis}}, config.ErrActiveStoreNotFound},
		{"unknown type", []config.StoreProperties{{Name: "online", Type: "CASSANDRA"}}, config.ErrUnknownStoreType},
		{"bad settings", []config.StoreProperties{{Name: "online", Type: store.TypeRedis,
			Config: map[string]string{"host": "h", "port": "abc"}}}, config.ErrDecodeFailure},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := New(context.Background(), newConfig(t, path, c.stores...), Options{AuditOut: &bytes.Buffer{}})
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestRunLoadsRegistry(t *testing.T) {
	var out bytes.Buffer
	cfg := newConfig(t, writeRegistry(t), onlineRedis)
	svc, err := New(context.Background(), cfg, Options{AuditOut: &out})
	require.NoError(t, err)
	defer svc.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Run(ctx) }()

	require.Eventually(t, func() bool {
		_, ok := svc.Refresher.Current()
		return ok
	}, 2*time.Second, 10*time.Millisecond)
	doc, _ := svc.Refresher.Current()
	assert.Equal(t, []byte("registry"), doc.Data)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return")
	}
}

func TestRunFailsWhenRegistryMissing(t *testing.T) {
	cfg := newConfig(t, filepath.Join(t.TempDir(), "missing.db"), onlineRedis)
	svc, err := New(context.Background(), cfg, Options{AuditOut: &bytes.Buffer{}})
	require.NoError(t, err)
	defer svc.Close()

	err = svc.Run(context.Background())
	assert.ErrorContains(t, err, "initial registry load")
}

func TestRunTimesOutOnHungAuthenticatedRegistry(t *testing.T) {
	tokens := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_token":"t","token_type":"bearer","expires_in":3600}`))
	}))
	defer tokens.Close()
	release := make(chan struct{})
	hung := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer t", r.Header.Get("Authorization"))
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}))
	defer hung.Close()
	defer close(release)

	p := config.Properties{
		Version:      "test",
		Registry:     hung.URL + "/registry.db",
		ActiveStore:  "online",
		Stores:       []config.StoreProperties{onlineRedis},
		Logging:      &config.LoggingConfig{},
		RegistryAuth: config.OAuth2Config{ClientID: "serving", TokenURL: tokens.URL},
	}
	cfg, err := config.New(p)
	require.NoError(t, err)
	svc, err := New(context.Background(), cfg, Options{
		AuditOut:   &bytes.Buffer{},
		HTTPClient: &http.Client{Timeout: 100 * time.Millisecond},
	})
	require.NoError(t, err)
	defer svc.Close()

	done := make(chan error, 1)
	go func() { done <- svc.Run(context.Background()) }()
	select {
	case err := <-done:
		assert.ErrorContains(t, err, "initial registry load")
	case <-time.After(5 * time.Second):
		t.Fatal("authenticated registry fetch has no timeout")
	}
}
