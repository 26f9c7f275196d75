package store

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kilianp07/featserve/config"
)

func redisSpec(settings map[string]string) config.StoreSpec {
	return config.NewStoreSpec("online", TypeRedis, settings)
}

func requireDecodeFailure(t *testing.T, err error, key string) {
	t.Helper()
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrDecodeFailure)
	var ce *config.ConfigurationError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, config.KindDecodeFailure, ce.Kind)
	assert.Equal(t, key, ce.Key)
	assert.Contains(t, err.Error(), key)
}

func TestRedisDefaults(t *testing.T) {
	reg := NewDefaultRegistry()
	c, err := reg.Redis(redisSpec(map[string]string{"host": "h", "port": "6379"}))
	require.NoError(t, err)
	assert.Equal(t, RedisConfig{Host: "h", Port: 6379}, c)
	assert.False(t, c.SSL)
	assert.Equal(t, "", c.Password)
	assert.Equal(t, "h:6379", c.Addr())
}

func TestRedisRoundTrip(t *testing.T) {
	reg := NewDefaultRegistry()
	for _, settings := range []map[string]string{
		{"host": "h", "port": "6379"},
		{"host": "cache.internal", "port": "6380", "ssl": "true", "password": "s3cret"},
	} {
		first, err := reg.Redis(redisSpec(settings))
		require.NoError(t, err)
		second, err := reg.Redis(redisSpec(first.Settings()))
		require.NoError(t, err)
		assert.Equal(t, first, second)
	}
}

func TestRedisFailures(t *testing.T) {
	reg := NewDefaultRegistry()
	cases := []struct {
		name     string
		settings map[string]string
		key      string
	}{
		{"port not numeric", map[string]string{"host": "h", "port": "abc"}, "port"},
		{"port zero", map[string]string{"host": "h", "port": "0"}, "port"},
		{"port negative", map[string]string{"host": "h", "port": "-1"}, "port"},
		{"port padded", map[string]string{"host": "h", "port": " 6379"}, "port"},
		{"host missing", map[string]string{"port": "6379"}, "host"},
		{"host blank", map[string]string{"host": "  ", "port": "6379"}, "host"},
		{"port missing", map[string]string{"host": "h"}, "port"},
		{"ssl malformed", map[string]string{"host": "h", "port": "6379", "ssl": "yes please"}, "ssl"},
		// required presence is checked before any value is parsed
		{"missing before malformed", map[string]string{"port": "abc"}, "host"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := reg.Redis(redisSpec(c.settings))
			requireDecodeFailure(t, err, c.key)
		})
	}
}

func TestDecodeDoesNotMutateSettings(t *testing.T) {
	settings := map[string]string{"host": "h", "port": "6379"}
	spec := redisSpec(settings)
	_, err := NewDefaultRegistry().Redis(spec)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"host": "h", "port": "6379"}, spec.Settings())
	assert.Len(t, settings, 2)
}
