package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/cookiejar"
	"os"
	"strconv"
	"time"

	"golang.org/x/net/proxy"
	"golang.org/x/net/publicsuffix"
)

const (
	// DefaultTimeout bounds a whole request including reading the body.
	DefaultTimeout = 30 * time.Second

	// maxRedirects stops redirect loops.
	maxRedirects = 10

	// probeTimeout bounds CheckProxy.
	probeTimeout = 2 * time.Second
)

const (
	socks5Version      = 0x05
	socks5AuthNone     = 0x00
	socks5AuthNoAccept = 0xFF
)

// Option configures NewHTTPClient.
type Option func(*clientConfig)

type clientConfig struct {
	timeout  time.Duration
	proxy    string
	cookie   string
	headers  map[string]string
	insecure bool
}

// WithTimeout sets the per-request timeout. Zero keeps DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithSOCKS5 routes all connections through the SOCKS5 proxy at address.
// An empty address means dial directly.
func WithSOCKS5(address string) Option {
	return func(c *clientConfig) {
		c.proxy = address
	}
}

// WithCookie sends the raw cookie string with every request.
func WithCookie(cookie string) Option {
	return func(c *clientConfig) {
		c.cookie = cookie
	}
}

// WithHeaders sets extra headers on every request.
func WithHeaders(headers map[string]string) Option {
	return func(c *clientConfig) {
		c.headers = headers
	}
}

// WithInsecureTLS disables certificate verification.
func WithInsecureTLS(insecure bool) Option {
	return func(c *clientConfig) {
		c.insecure = insecure
	}
}

// NewHTTPClient creates an HTTP client for crawling.
// The client keeps cookies across requests and follows up to ten redirects.
func NewHTTPClient(opts ...Option) (*http.Client, error) {
	cfg := clientConfig{timeout: DefaultTimeout}
	for _, opt := range opts {
		opt(&cfg)
	}

	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return nil, errors.New("default transport is not *http.Transport")
	}
	transport := base.Clone()

	if cfg.insecure {
		if transport.TLSClientConfig == nil {
			transport.TLSClientConfig = &tls.Config{} //nolint:gosec // MinVersion left to the runtime default
		}
		transport.TLSClientConfig.InsecureSkipVerify = true //nolint:gosec // opt-in via config
	}

	if cfg.proxy != "" {
		if !isValidProxyAddress(cfg.proxy) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidProxyAddress, cfg.proxy)
		}
		dialer, err := proxy.SOCKS5("tcp", cfg.proxy, nil, proxy.Direct)
		if err != nil {
			return nil, fmt.Errorf("failed to create SOCKS5 dialer: %w", err)
		}
		transport.Proxy = nil
		transport.DialContext = contextDialer(dialer)
		// Proxied connections are expensive; keep the pool small.
		transport.MaxIdleConns = 10
		transport.MaxIdleConnsPerHost = 2
		transport.IdleConnTimeout = 30 * time.Second
	}

	var rt http.RoundTripper = transport
	if cfg.cookie != "" || len(cfg.headers) > 0 {
		rt = &headerInjectingTransport{
			base:    transport,
			cookie:  cfg.cookie,
			headers: cfg.headers,
		}
	}

	jar, _ := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List}) //nolint:errcheck // never fails

	return &http.Client{
		Transport: rt,
		Timeout:   cfg.timeout,
		Jar:       jar,
		CheckRedirect: func(_ *http.Request, via []*http.Request) error {
			if len(via) >= maxRedirects {
				return http.ErrUseLastResponse
			}
			return nil
		},
	}, nil
}

// contextDialer adapts a proxy.Dialer to http.Transport.DialContext.
func contextDialer(d proxy.Dialer) func(ctx context.Context, network, addr string) (net.Conn, error) {
	if cd, ok := d.(proxy.ContextDialer); ok {
		return cd.DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		type result struct {
			conn net.Conn
			err  error
		}
		ch := make(chan result, 1)
		go func() {
			conn, err := d.Dial(network, addr)
			ch <- result{conn, err}
		}()

		select {
		case r := <-ch:
			return r.conn, r.err
		case <-ctx.Done():
			go func() {
				if r := <-ch; r.conn != nil {
					_ = r.conn.Close()
				}
			}()
			return nil, ctx.Err()
		}
	}
}

// isValidProxyAddress reports whether address is "host:port" with a
// non-empty host and a port in 1-65535.
func isValidProxyAddress(address string) bool {
	host, port, err := net.SplitHostPort(address)
	if err != nil || host == "" {
		return false
	}
	n, err := strconv.Atoi(port)
	return err == nil && n >= 1 && n <= 65535
}

// CheckProxy performs the SOCKS5 method negotiation against address and
// reports whether the proxy accepts unauthenticated clients.
func CheckProxy(ctx context.Context, address string) ProxyStatus {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusCannotConnect
	}
	defer conn.Close()

	deadline, _ := ctx.Deadline()
	if err := conn.SetDeadline(deadline); err != nil {
		return ProxyStatusCannotConnect
	}

	if _, err := conn.Write([]byte{socks5Version, 0x01, socks5AuthNone}); err != nil {
		return ProxyStatusCannotConnect
	}

	resp := make([]byte, 2)
	if _, err := io.ReadFull(conn, resp); err != nil {
		if errors.Is(err, os.ErrDeadlineExceeded) {
			return ProxyStatusTimeout
		}
		return ProxyStatusWrongType
	}

	if resp[0] != socks5Version || resp[1] == socks5AuthNoAccept || resp[1] != socks5AuthNone {
		return ProxyStatusWrongType
	}
	return ProxyStatusOK
}

// headerInjectingTransport adds a cookie and fixed headers to every request.
type headerInjectingTransport struct {
	base    http.RoundTripper
	cookie  string
	headers map[string]string
}

// RoundTrip implements http.RoundTripper.
func (t *headerInjectingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	clone := req.Clone(req.Context())

	if t.cookie != "" {
		if existing := clone.Header.Get("Cookie"); existing != "" {
			clone.Header.Set("Cookie", existing+"; "+t.cookie)
		} else {
			clone.Header.Set("Cookie", t.cookie)
		}
	}

	for key, value := range t.headers {
		clone.Header.Set(key, value)
	}

	return t.base.RoundTrip(clone)
}
