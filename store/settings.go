package store

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kilianp07/featserve/config"
	"github.com/kilianp07/featserve/internal/isoduration"
)

var errMissing = errors.New("missing")

// Settings is a read-only view over a store's settings map. Every parse
// failure is returned as a DecodeFailure naming the store and the key.
type Settings struct {
	store string
	m     map[string]string
}

// NewSettings wraps the settings of the named store. The map is not copied
// and is never written to.
func NewSettings(store string, m map[string]string) Settings {
	return Settings{store: store, m: m}
}

// Store is the name of the store the settings belong to.
func (s Settings) Store() string { return s.store }

func (s Settings) fail(key, reason string, err error) error {
	return config.NewDecodeFailure(s.store, key, reason, err)
}

// Get returns the raw value of key.
func (s Settings) Get(key string) (string, bool) {
	v, ok := s.m[key]
	return v, ok
}

// Require returns the value of key or a DecodeFailure if it is absent.
func (s Settings) Require(key string) (string, error) {
	v, ok := s.m[key]
	if !ok {
		return "", s.fail(key, "required key is missing", errMissing)
	}
	return v, nil
}

// RequireNonBlank is Require that also rejects whitespace-only values.
func (s Settings) RequireNonBlank(key string) (string, error) {
	v, err := s.Require(key)
	if err != nil {
		return "", err
	}
	if strings.TrimSpace(v) == "" {
		return "", s.fail(key, "must not be blank", nil)
	}
	return v, nil
}

// PositiveInt parses a required key as a base-10 integer greater than zero.
func (s Settings) PositiveInt(key string) (int, error) {
	v, err := s.Require(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, s.fail(key, fmt.Sprintf("%q is not an integer", v), err)
	}
	if n <= 0 {
		return 0, s.fail(key, fmt.Sprintf("must be positive, got %d", n), nil)
	}
	return n, nil
}

// Bool parses an optional boolean key. An absent key yields def; a present
// but malformed value is an error.
func (s Settings) Bool(key string, def bool) (bool, error) {
	v, ok := s.m[key]
	if !ok {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, s.fail(key, fmt.Sprintf("%q is not a boolean", v), err)
	}
	return b, nil
}

// String returns an optional key, or def when absent.
func (s Settings) String(key, def string) string {
	if v, ok := s.m[key]; ok {
		return v
	}
	return def
}

// ISODuration parses a required key as an ISO-8601 duration such as "PT5S".
func (s Settings) ISODuration(key string) (time.Duration, error) {
	v, err := s.Require(key)
	if err != nil {
		return 0, err
	}
	d, err := isoduration.Parse(v)
	if err != nil {
		return 0, s.fail(key, fmt.Sprintf("%q is not an ISO-8601 duration", v), err)
	}
	return d, nil
}
