// Package scope decides which URLs belong to a crawl.
//
// A crawl is bounded by the domain identity of its seed URL: the pair of
// subdomain label and registrable root domain. A link is in scope only when
// its identity is exactly equal to the seed's. Hosts without an explicit
// subdomain are treated as "www", so https://example.com and
// https://www.example.com are the same site while https://blog.example.com
// is not.
//
// Root domains are derived from the public suffix list shipped with
// golang.org/x/net/publicsuffix.
package scope
