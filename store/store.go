// Package store turns a configured store's open settings map into a typed
// connection configuration. Each store type is a Variant registered under its
// type tag; decoding never touches the network.
package store

import (
	"github.com/kilianp07/featserve/config"
)

// Built-in store type tags.
const (
	TypeRedis        = "REDIS"
	TypeRedisCluster = "REDIS_CLUSTER"
)

// ConnectionConfig is a decoded, typed store configuration.
type ConnectionConfig interface {
	// StoreType is the tag the configuration was decoded for.
	StoreType() string
	// Settings re-encodes the configuration into a settings map that decodes
	// back to an equal value.
	Settings() map[string]string
}

// Decoder builds a typed configuration from the settings of a store. The
// required keys of the variant are known to be present when it is called.
type Decoder func(Settings) (ConnectionConfig, error)

// Variant describes one store type: its tag, its key schema and its decoder.
type Variant struct {
	Tag string
	// Required keys, checked for presence in order before Decode runs.
	Required []string
	Optional []string
	Decode   Decoder
}

// Keys returns the schema keys in check order.
func (v Variant) Keys() []string {
	out := make([]string, 0, len(v.Required)+len(v.Optional))
	out = append(out, v.Required...)
	return append(out, v.Optional...)
}

func typeMismatch(spec config.StoreSpec, want string) error {
	return config.NewDecodeFailure(spec.Name(), "type",
		"store type "+spec.Type()+" does not decode into "+want, nil)
}
