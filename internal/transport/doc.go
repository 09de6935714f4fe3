// Package transport builds the HTTP clients the crawler fetches with.
//
// A client either dials directly or routes every connection through a
// SOCKS5 proxy (golang.org/x/net/proxy). The proxy may be an external one
// or a Tor daemon started in-process with tornago. Site-specific cookies and
// headers are injected by a RoundTripper so redirects carry them too.
package transport
