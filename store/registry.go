package store

import (
	"fmt"

	"github.com/kilianp07/featserve/config"
	"github.com/kilianp07/featserve/core/factory"
)

// Registry maps store type tags to their variants. It is safe for
// concurrent use.
type Registry struct {
	variants *factory.Registry[Variant]
}

// NewRegistry returns a registry with no store types.
func NewRegistry() *Registry {
	return &Registry{variants: factory.NewRegistry[Variant]()}
}

// NewDefaultRegistry returns a registry holding the built-in REDIS and
// REDIS_CLUSTER types.
func NewDefaultRegistry() *Registry {
	r := NewRegistry()
	for _, v := range []Variant{RedisVariant(), RedisClusterVariant()} {
		if err := r.Register(v); err != nil {
			panic(err)
		}
	}
	return r
}

// Register adds a store type. Tags are matched exactly.
func (r *Registry) Register(v Variant) error {
	if v.Decode == nil {
		return fmt.Errorf("store type %q: nil decoder", v.Tag)
	}
	if err := r.variants.Register(v.Tag, v); err != nil {
		return fmt.Errorf("store type %q: %w", v.Tag, err)
	}
	return nil
}

// Lookup returns the variant registered for tag.
func (r *Registry) Lookup(tag string) (Variant, bool) {
	return r.variants.Lookup(tag)
}

// Variants lists the registered store types in registration order.
func (r *Registry) Variants() []Variant {
	names := r.variants.Names()
	out := make([]Variant, 0, len(names))
	for _, n := range names {
		if v, ok := r.variants.Lookup(n); ok {
			out = append(out, v)
		}
	}
	return out
}

// Decode decodes the settings of spec with the variant registered for its
// type. Required keys are first checked for presence in schema order, then
// the decoder parses keys in schema order; the first failure is returned.
func (r *Registry) Decode(spec config.StoreSpec) (ConnectionConfig, error) {
	v, ok := r.Lookup(spec.Type())
	if !ok {
		return nil, config.NewUnknownStoreType(spec.Name(), spec.Type())
	}
	s := NewSettings(spec.Name(), spec.Settings())
	for _, k := range v.Required {
		if _, err := s.Require(k); err != nil {
			return nil, err
		}
	}
	return v.Decode(s)
}

// DecodeAs decodes spec and requires the result to be a T. A store whose
// type decodes into another configuration fails with a DecodeFailure on
// the "type" key.
func DecodeAs[T ConnectionConfig](r *Registry, spec config.StoreSpec) (T, error) {
	var zero T
	cc, err := r.Decode(spec)
	if err != nil {
		return zero, err
	}
	c, ok := cc.(T)
	if !ok {
		return zero, typeMismatch(spec, fmt.Sprintf("%T", zero))
	}
	return c, nil
}

// Redis decodes spec as a single-node Redis store.
func (r *Registry) Redis(spec config.StoreSpec) (RedisConfig, error) {
	return DecodeAs[RedisConfig](r, spec)
}

// RedisCluster decodes spec as a Redis cluster store.
func (r *Registry) RedisCluster(spec config.StoreSpec) (RedisClusterConfig, error) {
	return DecodeAs[RedisClusterConfig](r, spec)
}
