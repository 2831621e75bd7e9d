// Package api is the HTTP client for the Kisaragi Press labs API.
//
// All calls take a context and go through a shared rate limiter. Identical
// in-flight GETs are deduplicated and responses are memoized for the life of
// the client: one run of the tool sees each aggregate, content piece and
// image at most once over the wire, however many commands touch it.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	// WebBase is the public website origin.
	WebBase = "https://kisaragi.press"

	// APIBase is the labs API origin, including the version prefix.
	APIBase = "https://api.kisaragi.press/v2"

	// CDNBase is the image CDN origin. Image URLs in content and covers
	// point there; the client fetches them verbatim.
	CDNBase = "https://cdn.kisaragi.press"
)

const defaultUserAgent = "fascicle"

// Config carries the knobs for a Client. Zero values get defaults: APIBase,
// a plain fascicle user agent, http.DefaultClient and a 10 req/s limiter.
type Config struct {
	BaseURL    string
	UserAgent  string
	HTTPClient *http.Client
	Limiter    *rate.Limiter
}

// Client talks to the labs API. It is safe for concurrent use.
type Client struct {
	base      *url.URL
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter

	mu    sync.Mutex
	token string

	group  singleflight.Group
	memoMu sync.RWMutex
	memo   map[string][]byte
}

// New validates cfg and builds a Client.
func New(cfg Config) (*Client, error) {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = APIBase
	}
	base, err := url.Parse(baseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("api: invalid base URL %q", baseURL)
	}

	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	limiter := cfg.Limiter
	if limiter == nil {
		limiter = rate.NewLimiter(10, 10)
	}

	return &Client{
		base:      base,
		userAgent: userAgent,
		http:      httpClient,
		limiter:   limiter,
		memo:      make(map[string][]byte),
	}, nil
}

// Authenticated reports whether a login token is held.
func (c *Client) Authenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token != ""
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}

func (c *Client) setToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

// endpoint joins path elements onto the API base.
func (c *Client) endpoint(elems ...string) *url.URL {
	return c.base.JoinPath(elems...)
}

// fetch performs one HTTP round trip and returns the response body.
// Non-2xx statuses come back as *Error.
func (c *Client) fetch(ctx context.Context, method string, u *url.URL, query url.Values, body []byte, bearer bool) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	if len(query) > 0 {
		u = cloneURL(u)
		u.RawQuery = query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		reqBody = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u.String(), reqBody)
	if err != nil {
		return nil, fmt.Errorf("api: build %s %s: %w", method, u.Path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-Id", uuid.NewString())
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer {
		if token := c.currentToken(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api: %s %s: %w", method, u.Path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, newError(resp, u.Path)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("api: read %s: %w", u.Path, err)
	}
	return data, nil
}

// cached wraps fetch with in-flight deduplication and run-scoped
// memoization. The tracked-series update path hits the same aggregates
// repeatedly; only the first call reaches the network.
func (c *Client) cached(ctx context.Context, key string, fetch func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	c.memoMu.RLock()
	data, ok := c.memo[key]
	c.memoMu.RUnlock()
	if ok {
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		data, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.memoMu.Lock()
		c.memo[key] = data
		c.memoMu.Unlock()
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]byte), nil
}

// getJSON fetches an API endpoint through the cache and decodes it.
func (c *Client) getJSON(ctx context.Context, u *url.URL, query url.Values, out any) error {
	key := u.Path
	if len(query) > 0 {
		key += "?" + query.Encode()
	}
	data, err := c.cached(ctx, key, func(ctx context.Context) ([]byte, error) {
		return c.fetch(ctx, http.MethodGet, u, query, nil, true)
	})
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("api: decode %s: %w", u.Path, err)
	}
	return nil
}

func cloneURL(u *url.URL) *url.URL {
	clone := *u
	return &clone
}
