// Package registry keeps the registry document referenced by the serving
// configuration up to date. The document is opaque: it is fetched, hashed
// and handed to subscribers, never parsed.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrNotFound is returned when the registry document does not exist.
var ErrNotFound = errors.New("registry document not found")

// DefaultHTTPTimeout bounds a single HTTP registry request.
const DefaultHTTPTimeout = 10 * time.Second

// NewHTTPClient returns the client used for http(s) registries when none is
// given.
func NewHTTPClient() *http.Client {
	return &http.Client{Timeout: DefaultHTTPTimeout}
}

// Source fetches the raw registry document.
type Source interface {
	Fetch(ctx context.Context) ([]byte, error)
	// Location is the registry reference the source was built from.
	Location() string
}

// SourceOptions carries the cloud settings of the serving configuration.
type SourceOptions struct {
	AWSRegion  string
	GCPProject string
	// HTTPClient is used for http(s) registries; nil selects NewHTTPClient.
	HTTPClient *http.Client
}

// NewSource picks the source for location by scheme: s3://, gs://, http://,
// https://, file:// or a plain filesystem path.
func NewSource(ctx context.Context, location string, opts SourceOptions) (Source, error) {
	if strings.TrimSpace(location) == "" {
		return nil, errors.New("empty registry location")
	}
	u, err := url.Parse(location)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// plain paths, including windows drive letters
		return NewFileSource(location), nil
	}
	switch u.Scheme {
	case "file":
		return NewFileSource(u.Path), nil
	case "http", "https":
		client := opts.HTTPClient
		if client == nil {
			client = NewHTTPClient()
		}
		return NewHTTPSource(location, client), nil
	case "s3":
		bucket, key, err := splitObjectURL(u)
		if err != nil {
			return nil, err
		}
		return NewS3Source(ctx, bucket, key, opts.AWSRegion)
	case "gs":
		bucket, object, err := splitObjectURL(u)
		if err != nil {
			return nil, err
		}
		return NewGCSSource(ctx, bucket, object, opts.GCPProject)
	default:
		return nil, fmt.Errorf("unsupported registry scheme %q", u.Scheme)
	}
}

func splitObjectURL(u *url.URL) (bucket, key string, err error) {
	bucket = u.Host
	key = strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return "", "", fmt.Errorf("registry %q: expected %s://bucket/key", u.String(), u.Scheme)
	}
	return bucket, key, nil
}
