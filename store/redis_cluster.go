package store

import (
	"strings"
	"time"

	"github.com/kilianp07/featserve/internal/isoduration"
)

// Redis cluster settings keys.
const (
	KeyConnectionString = "connection_string"
	KeyReadFrom         = "read_from"
	KeyTimeout          = "timeout"
)

// RedisClusterConfig is the connection configuration of a Redis cluster.
type RedisClusterConfig struct {
	// ConnectionString lists seed nodes as comma separated host:port pairs.
	ConnectionString string
	ReadFrom         ReadFrom
	Timeout          time.Duration
}

// RedisClusterVariant decodes REDIS_CLUSTER stores.
func RedisClusterVariant() Variant {
	return Variant{
		Tag:      TypeRedisCluster,
		Required: []string{KeyConnectionString, KeyReadFrom, KeyTimeout},
		Decode: func(s Settings) (ConnectionConfig, error) {
			return decodeRedisCluster(s)
		},
	}
}

func decodeRedisCluster(s Settings) (RedisClusterConfig, error) {
	var c RedisClusterConfig
	var err error
	if c.ConnectionString, err = s.RequireNonBlank(KeyConnectionString); err != nil {
		return RedisClusterConfig{}, err
	}
	raw, err := s.Require(KeyReadFrom)
	if err != nil {
		return RedisClusterConfig{}, err
	}
	if c.ReadFrom, err = ParseReadFrom(raw); err != nil {
		return RedisClusterConfig{}, s.fail(KeyReadFrom, err.Error(), err)
	}
	if c.Timeout, err = s.ISODuration(KeyTimeout); err != nil {
		return RedisClusterConfig{}, err
	}
	return c, nil
}

func (RedisClusterConfig) StoreType() string { return TypeRedisCluster }

// Nodes splits the connection string into its seed addresses.
func (c RedisClusterConfig) Nodes() []string {
	var out []string
	for _, n := range strings.Split(c.ConnectionString, ",") {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func (c RedisClusterConfig) Settings() map[string]string {
	return map[string]string{
		KeyConnectionString: c.ConnectionString,
		KeyReadFrom:         string(c.ReadFrom),
		KeyTimeout:          isoduration.Format(c.Timeout),
	}
}
