// Package supabase talks to the hosted backend: the GoTrue identity API
// under /auth/v1 and the PostgREST table API under /rest/v1.
package supabase

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

const maxResponseBytes = 1 << 20

type Config struct {
	URL        string
	Key        string
	UsersTable string
	Timeout    time.Duration
}

// Client holds the service URL and key. It is safe for concurrent use and is
// built once at startup.
type Client struct {
	baseURL    *url.URL
	key        string
	httpClient *http.Client
	logger     *logrus.Logger

	auth  *AuthAPI
	users *UserTable
}

func NewClient(cfg Config, logger *logrus.Logger) (*Client, error) {
	if cfg.URL == "" || cfg.Key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}
	u, err := url.Parse(strings.TrimRight(cfg.URL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse supabase url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("supabase url must be http(s), got %q", cfg.URL)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UsersTable == "" {
		cfg.UsersTable = "users"
	}
	hc := &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			MaxIdleConnsPerHost:   20,
			ResponseHeaderTimeout: cfg.Timeout,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	}
	return newClient(u, cfg.Key, cfg.UsersTable, hc, logger), nil
}

func newClient(u *url.URL, key, table string, hc *http.Client, logger *logrus.Logger) *Client {
	c := &Client{baseURL: u, key: key, httpClient: hc, logger: logger}
	c.auth = &AuthAPI{c: c}
	c.users = &UserTable{c: c, name: table}
	return c
}

// Auth returns the identity provider API.
func (c *Client) Auth() *AuthAPI { return c.auth }

// Users returns the profile table API.
func (c *Client) Users() *UserTable { return c.users }

type call struct {
	method  string
	path    string
	query   url.Values
	bearer  string // defaults to the service key
	headers map[string]string
	body    any
}

type reply struct {
	status int
	body   []byte
}

// do performs the call. Errors returned here never reached the backend or
// could not be read back, and are not collaborator errors.
func (c *Client) do(ctx context.Context, in call) (*reply, error) {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + in.path
	if in.query != nil {
		u.RawQuery = in.query.Encode()
	}

	var body io.Reader
	if in.body != nil {
		b, err := json.Marshal(in.body)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s body: %w", in.method, in.path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, in.method, u.String(), body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", in.method, in.path, err)
	}
	bearer := in.bearer
	if bearer == "" {
		bearer = c.key
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+bearer)
	req.Header.Set("Accept", "application/json")
	if in.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range in.headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", in.method, in.path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read %s %s response: %w", in.method, in.path, err)
	}
	if c.logger != nil {
		c.logger.WithFields(logrus.Fields{
			"method":  in.method,
			"path":    in.path,
			"status":  resp.StatusCode,
			"latency": time.Since(start).String(),
		}).Debug("supabase call")
	}
	return &reply{status: resp.StatusCode, body: b}, nil
}

func (r *reply) ok() bool { return r.status >= 200 && r.status < 300 }
