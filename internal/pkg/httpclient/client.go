// Package httpclient is the GET client shared by the HTTP based sources.
package httpclient

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/andybalholm/brotli"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const defaultTimeout = 15 * time.Second

// Options configure a Client. Zero values get defaults.
type Options struct {
	UserAgent   string
	Timeout     time.Duration
	MinDelay    time.Duration // minimum spacing between requests of this client
	InsecureTLS bool
	Accept      string
}

// Client fetches pages and JSON documents from one upstream.
type Client struct {
	userAgent string
	accept    string
	minDelay  time.Duration
	client    *http.Client

	reqMu   sync.Mutex
	lastReq time.Time
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: status %d", e.URL, e.StatusCode)
}

// New creates a Client.
func New(opts Options) *Client {
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultTimeout
	}
	if opts.Accept == "" {
		opts.Accept = "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8"
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true // we send Accept-Encoding and decode in readBodyDecode
	if transport.TLSClientConfig == nil {
		transport.TLSClientConfig = &tls.Config{}
	}
	if opts.InsecureTLS {
		transport.TLSClientConfig.InsecureSkipVerify = true
	}
	transport.Proxy = http.ProxyFromEnvironment

	return &Client{
		userAgent: opts.UserAgent,
		accept:    opts.Accept,
		minDelay:  opts.MinDelay,
		client:    &http.Client{Timeout: opts.Timeout, Transport: transport},
	}
}

// Get fetches url and returns the decoded body. Any non-2xx status is a
// *StatusError.
func (c *Client) Get(ctx context.Context, url string) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	c.setHeaders(req)

	resp, err := c.client.Do(req)
	c.markRequest()
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		preview, _ := io.ReadAll(io.LimitReader(resp.Body, 500))
		slog.Warn("HTTP error response", "url", url, "status", resp.StatusCode, "body_preview", string(preview))
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	body, err := readBodyDecode(resp)
	if err != nil {
		return nil, fmt.Errorf("read body %s: %w", url, err)
	}
	return body, nil
}

// wait blocks until minDelay has passed since the previous request.
func (c *Client) wait(ctx context.Context) error {
	if c.minDelay <= 0 {
		return nil
	}
	c.reqMu.Lock()
	sinceLastReq := time.Since(c.lastReq)
	c.reqMu.Unlock()
	if sinceLastReq >= c.minDelay {
		return nil
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(c.minDelay - sinceLastReq):
		return nil
	}
}

func (c *Client) markRequest() {
	c.reqMu.Lock()
	c.lastReq = time.Now()
	c.reqMu.Unlock()
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", c.accept)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip, br, zstd")
}

// readBodyDecode reads response body and decompresses it based on Content-Encoding (gzip, br, zstd).
func readBodyDecode(resp *http.Response) ([]byte, error) {
	enc := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	switch {
	case strings.Contains(enc, "br"):
		return io.ReadAll(brotli.NewReader(resp.Body))
	case strings.Contains(enc, "zstd"):
		r, err := zstd.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	case strings.Contains(enc, "gzip"):
		r, err := gzip.NewReader(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer r.Close()
		return io.ReadAll(r)
	default:
		return io.ReadAll(resp.Body)
	}
}
