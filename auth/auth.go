// Package auth obtains OAuth2 client-credentials tokens for registries served
// over HTTP.
package auth

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/kilianp07/featserve/config"
)

// DefaultTokenTimeout bounds token requests when ctx carries no
// oauth2.HTTPClient.
const DefaultTokenTimeout = 10 * time.Second

// ClientCred caches a client-credentials token and renews it once expired.
// It is safe for concurrent use.
type ClientCred struct {
	ctx  context.Context
	conf clientcredentials.Config

	mu    sync.Mutex
	token *oauth2.Token
}

// NewClientCred builds a token source from cfg. ctx is used for token
// requests; a context carrying oauth2.HTTPClient selects the client used for
// them.
func NewClientCred(ctx context.Context, cfg config.OAuth2Config) *ClientCred {
	if _, ok := ctx.Value(oauth2.HTTPClient).(*http.Client); !ok {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, &http.Client{Timeout: DefaultTokenTimeout})
	}
	return &ClientCred{
		ctx: ctx,
		conf: clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
			Scopes:       cfg.Scopes,
		},
	}
}

// GetToken returns the cached access token while it is valid and requests a
// new one otherwise.
func (c *ClientCred) GetToken() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Valid() {
		return c.token.AccessToken, nil
	}
	return c.fetch()
}

// ForceRefresh discards the cached token and requests a new one.
func (c *ClientCred) ForceRefresh() (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.fetch()
}

func (c *ClientCred) fetch() (string, error) {
	t, err := c.conf.Token(c.ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get token: %w", err)
	}
	c.token = t
	return t.AccessToken, nil
}

// SetAuthHeader sets the bearer token of r.
func (c *ClientCred) SetAuthHeader(r *http.Request) error {
	tok, err := c.GetToken()
	if err != nil {
		return err
	}
	r.Header.Set("Authorization", "Bearer "+tok)
	return nil
}

// Client returns an HTTP client adding the bearer token to every request.
// A 401 answer discards the token and the request is sent once more with a
// fresh one. The transport and timeout of base are kept; nil selects
// http.DefaultClient.
func (c *ClientCred) Client(base *http.Client) *http.Client {
	if base == nil {
		base = http.DefaultClient
	}
	next := base.Transport
	if next == nil {
		next = http.DefaultTransport
	}
	return &http.Client{
		Transport: &transport{cred: c, next: next},
		Timeout:   base.Timeout,
	}
}

type transport struct {
	cred *ClientCred
	next http.RoundTripper
}

func (t *transport) RoundTrip(req *http.Request) (*http.Response, error) {
	r := req.Clone(req.Context())
	if err := t.cred.SetAuthHeader(r); err != nil {
		return nil, err
	}
	resp, err := t.next.RoundTrip(r)
	if err != nil || resp.StatusCode != http.StatusUnauthorized || (req.Body != nil && req.GetBody == nil) {
		return resp, err
	}
	resp.Body.Close()

	tok, err := t.cred.ForceRefresh()
	if err != nil {
		return nil, err
	}
	r = req.Clone(req.Context())
	if req.GetBody != nil {
		if r.Body, err = req.GetBody(); err != nil {
			return nil, err
		}
	}
	r.Header.Set("Authorization", "Bearer "+tok)
	return t.next.RoundTrip(r)
}
