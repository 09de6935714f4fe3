package fetch

import (
	"context"
	"io"
	"net/http"

	"golang.org/x/net/html/charset"
)

const (
	// DefaultUserAgent is sent when no user agent is configured.
	DefaultUserAgent = "sitecrawler/1.0 (+https://github.com/nao1215/sitecrawler)"

	// DefaultMaxBodySize caps how much of a response body is read.
	DefaultMaxBodySize int64 = 5 * 1024 * 1024
)

// HTTP fetches pages with an *http.Client.
type HTTP struct {
	client      *http.Client
	userAgent   string
	maxBodySize int64
}

// HTTPOption configures an HTTP fetcher.
type HTTPOption func(*HTTP)

// WithUserAgent sets the User-Agent header. Empty keeps the default.
func WithUserAgent(ua string) HTTPOption {
	return func(h *HTTP) {
		if ua != "" {
			h.userAgent = ua
		}
	}
}

// WithMaxBodySize limits the number of body bytes read per page.
// Non-positive values keep the default.
func WithMaxBodySize(size int64) HTTPOption {
	return func(h *HTTP) {
		if size > 0 {
			h.maxBodySize = size
		}
	}
}

// NewHTTP creates a fetcher. A nil client means http.DefaultClient.
// Proxying, timeouts and injected headers belong to the client's transport.
func NewHTTP(client *http.Client, opts ...HTTPOption) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}

	h := &HTTP{
		client:      client,
		userAgent:   DefaultUserAgent,
		maxBodySize: DefaultMaxBodySize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Fetch performs a GET request and returns the body decoded to UTF-8.
func (h *HTTP) Fetch(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}

	req.Header.Set("User-Agent", h.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")

	resp, err := h.client.Do(req)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return "", &Error{URL: url, Err: &StatusError{StatusCode: resp.StatusCode}}
	}

	body := io.LimitReader(resp.Body, h.maxBodySize)
	reader, err := charset.NewReader(body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}

	data, err := io.ReadAll(reader)
	if err != nil {
		return "", &Error{URL: url, Err: err}
	}
	return string(data), nil
}
