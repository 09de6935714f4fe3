package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestNewHTTPClient(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Timeout != DefaultTimeout {
			t.Errorf("Timeout = %v, expected %v", client.Timeout, DefaultTimeout)
		}
		if client.Jar == nil {
			t.Error("expected non-nil cookie jar")
		}
		if _, ok := client.Transport.(*http.Transport); !ok {
			t.Errorf("expected *http.Transport, got %T", client.Transport)
		}
	})

	t.Run("applies timeout", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(WithTimeout(5 * time.Second))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if client.Timeout != 5*time.Second {
			t.Errorf("Timeout = %v, expected 5s", client.Timeout)
		}
	})

	t.Run("valid proxy address", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(WithSOCKS5("127.0.0.1:9050"))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tr, ok := client.Transport.(*http.Transport)
		if !ok {
			t.Fatalf("expected *http.Transport, got %T", client.Transport)
		}
		if tr.DialContext == nil {
			t.Error("expected proxy dialer to be installed")
		}
	})

	t.Run("invalid proxy address", func(t *testing.T) {
		t.Parallel()

		_, err := NewHTTPClient(WithSOCKS5("127.0.0.1"))
		if !errors.Is(err, ErrInvalidProxyAddress) {
			t.Errorf("expected ErrInvalidProxyAddress, got %v", err)
		}
	})

	t.Run("insecure TLS", func(t *testing.T) {
		t.Parallel()

		client, err := NewHTTPClient(WithInsecureTLS(true))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		tr := client.Transport.(*http.Transport)
		if tr.TLSClientConfig == nil || !tr.TLSClientConfig.InsecureSkipVerify {
			t.Error("expected InsecureSkipVerify")
		}
	})
}

func TestIsValidProxyAddress(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name     string
		address  string
		expected bool
	}{
		{"valid IPv4 with port", "127.0.0.1:9050", true},
		{"valid localhost with port", "localhost:1080", true},
		{"valid IPv6 with port", "[::1]:9050", true},
		{"empty string", "", false},
		{"no port", "127.0.0.1", false},
		{"empty host", ":9050", false},
		{"empty port", "127.0.0.1:", false},
		{"port out of range", "127.0.0.1:70000", false},
		{"port zero", "127.0.0.1:0", false},
		{"multiple colons", "127.0.0.1:9050:extra", false},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := isValidProxyAddress(tc.address); got != tc.expected {
				t.Errorf("isValidProxyAddress(%q) = %v, expected %v", tc.address, got, tc.expected)
			}
		})
	}
}

func TestHeaderInjection(t *testing.T) {
	t.Parallel()

	type seen struct {
		cookie string
		token  string
	}
	got := make(chan seen, 1)
	server := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		got <- seen{cookie: r.Header.Get("Cookie"), token: r.Header.Get("X-Token")}
	}))
	defer server.Close()

	client, err := NewHTTPClient(
		WithCookie("session=abc"),
		WithHeaders(map[string]string{"X-Token": "secret"}),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, server.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Cookie", "lang=en")

	resp, err := client.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	_ = resp.Body.Close()

	s := <-got
	if s.cookie != "lang=en; session=abc" {
		t.Errorf("unexpected cookie header %q", s.cookie)
	}
	if s.token != "secret" {
		t.Errorf("unexpected X-Token header %q", s.token)
	}
	if req.Header.Get("X-Token") != "" {
		t.Error("original request must not be modified")
	}
}

// serveOnce accepts one connection and hands it to handle.
func serveOnce(t *testing.T, handle func(net.Conn)) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	t.Cleanup(func() { _ = ln.Close() })

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		handle(conn)
	}()
	return ln.Addr().String()
}

func TestCheckProxy(t *testing.T) {
	t.Parallel()

	t.Run("SOCKS5 greeting accepted", func(t *testing.T) {
		t.Parallel()

		addr := serveOnce(t, func(c net.Conn) {
			buf := make([]byte, 3)
			if _, err := io.ReadFull(c, buf); err != nil {
				return
			}
			_, _ = c.Write([]byte{socks5Version, socks5AuthNone})
		})

		if got := CheckProxy(context.Background(), addr); got != ProxyStatusOK {
			t.Errorf("expected OK, got %v", got)
		}
	})

	t.Run("authentication required", func(t *testing.T) {
		t.Parallel()

		addr := serveOnce(t, func(c net.Conn) {
			buf := make([]byte, 3)
			if _, err := io.ReadFull(c, buf); err != nil {
				return
			}
			_, _ = c.Write([]byte{socks5Version, socks5AuthNoAccept})
		})

		if got := CheckProxy(context.Background(), addr); got != ProxyStatusWrongType {
			t.Errorf("expected wrong type, got %v", got)
		}
	})

	t.Run("not SOCKS5", func(t *testing.T) {
		t.Parallel()

		addr := serveOnce(t, func(c net.Conn) {
			buf := make([]byte, 3)
			if _, err := io.ReadFull(c, buf); err != nil {
				return
			}
			_, _ = c.Write([]byte("HTTP/1.1 400 Bad Request\r\n\r\n"))
		})

		if got := CheckProxy(context.Background(), addr); got != ProxyStatusWrongType {
			t.Errorf("expected wrong type, got %v", got)
		}
	})

	t.Run("nothing listening", func(t *testing.T) {
		t.Parallel()

		ln, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatalf("listen: %v", err)
		}
		addr := ln.Addr().String()
		_ = ln.Close()

		if got := CheckProxy(context.Background(), addr); got != ProxyStatusCannotConnect {
			t.Errorf("expected cannot connect, got %v", got)
		}
	})
}

func TestProxyStatus(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		status ProxyStatus
		str    string
		err    error
	}{
		{ProxyStatusOK, "OK", nil},
		{ProxyStatusWrongType, "wrong type (not SOCKS5)", ErrProxyNotSOCKS5},
		{ProxyStatusCannotConnect, "cannot connect", ErrProxyCannotConnect},
		{ProxyStatusTimeout, "timeout", ErrProxyTimeout},
	}

	for _, tc := range testCases {
		if tc.status.String() != tc.str {
			t.Errorf("ProxyStatus(%d).String() = %q, expected %q", tc.status, tc.status.String(), tc.str)
		}
		if err := tc.status.Err(); !errors.Is(err, tc.err) {
			t.Errorf("ProxyStatus(%d).Err() = %v, expected %v", tc.status, err, tc.err)
		}
	}

	if ProxyStatus(99).String() != "unknown" {
		t.Error("expected unknown string for unknown status")
	}
	if ProxyStatus(99).Err() == nil {
		t.Error("expected error for unknown status")
	}
}
