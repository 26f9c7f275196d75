package factory

import (
	"fmt"
	"sync"

	"github.com/mitchellh/mapstructure"
)

// ModuleConfig contains the type name and raw configuration for a module.
type ModuleConfig struct {
	Type string         `json:"type" yaml:"type"`
	Conf map[string]any `json:"conf" yaml:"conf,omitempty"`
}

// Factory constructs an implementation of T using the provided raw config.
type Factory[T any] func(map[string]any) (T, error)

// Registry stores entries keyed by name, in registration order.
type Registry[T any] struct {
	mu      sync.RWMutex
	entries map[string]T
	order   []string
}

// NewRegistry returns an empty registry.
func NewRegistry[T any]() *Registry[T] {
	return &Registry[T]{entries: make(map[string]T)}
}

// Register adds an entry for the given name.
func (r *Registry[T]) Register(name string, v T) error {
	if name == "" {
		return fmt.Errorf("registry: empty name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[name]; ok {
		return fmt.Errorf("registry: %s already registered", name)
	}
	r.entries[name] = v
	r.order = append(r.order, name)
	return nil
}

// Lookup returns the entry registered under name.
func (r *Registry[T]) Lookup(name string) (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[name]
	return v, ok
}

// Names lists the registered names in registration order.
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Build instantiates a module from its configuration using the factory
// registered for cfg.Type.
func Build[T any](r *Registry[Factory[T]], cfg ModuleConfig) (T, error) {
	var zero T
	f, ok := r.Lookup(cfg.Type)
	if !ok {
		return zero, fmt.Errorf("unknown module type %s", cfg.Type)
	}
	if f == nil {
		return zero, fmt.Errorf("factory nil for %s", cfg.Type)
	}
	return f(cfg.Conf)
}

// Decode fills out the provided struct using json tags. Scalar strings are
// converted to the field types, so values coming from environment variables
// decode like their YAML counterparts.
func Decode(data map[string]any, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return err
	}
	return dec.Decode(data)
}
