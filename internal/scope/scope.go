package scope

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"strings"

	"golang.org/x/net/publicsuffix"
)

// DefaultSubdomain is the label assumed when a host has no subdomain.
const DefaultSubdomain = "www"

// ErrMalformed is returned when a string is not an absolute URL.
var ErrMalformed = errors.New("malformed url")

// Identity is the domain identity of a URL.
// The zero value is the identity of a URL without a host component.
type Identity struct {
	Subdomain  string `json:"subdomain"`
	RootDomain string `json:"root_domain"`
}

// String returns the identity as a host name, e.g. "www.example.com".
func (i Identity) String() string {
	switch {
	case i.Subdomain == "" && i.RootDomain == "":
		return ""
	case i.Subdomain == "":
		return i.RootDomain
	case i.RootDomain == "":
		return i.Subdomain
	default:
		return i.Subdomain + "." + i.RootDomain
	}
}

// Identify computes the domain identity of rawURL.
//
// It fails with ErrMalformed when rawURL does not parse as an absolute URL.
// A URL that parses but carries no host (for example "unix:/run/foo.sock")
// yields the zero Identity and no error.
func Identify(rawURL string) (Identity, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Identity{}, fmt.Errorf("%w: %q: %v", ErrMalformed, rawURL, err)
	}
	if !u.IsAbs() {
		return Identity{}, fmt.Errorf("%w: %q: relative url without base", ErrMalformed, rawURL)
	}

	host := u.Hostname()
	if host == "" {
		return Identity{}, nil
	}

	sub, root := Split(host)
	if sub == "" {
		sub = DefaultSubdomain
	}
	return Identity{Subdomain: sub, RootDomain: root}, nil
}

// Split divides a host name into its subdomain and registrable root domain.
// Either part may be empty: "example.com" has no subdomain, and a bare
// public suffix such as "co.uk" has no root domain. IP literals and
// single-label hosts that are not public suffixes ("localhost") are their
// own root domain.
func Split(host string) (subdomain, root string) {
	host = strings.TrimSuffix(strings.ToLower(host), ".")
	if host == "" {
		return "", ""
	}
	if net.ParseIP(host) != nil {
		return "", host
	}

	root, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		if suffix, icann := publicsuffix.PublicSuffix(host); icann && suffix == host {
			return "", ""
		}
		return "", host
	}
	if root == host {
		return "", root
	}
	return strings.TrimSuffix(host, "."+root), root
}

// Resolve turns candidate into an absolute URL using base.
//
// candidate is cleaned first: leading and trailing spaces and control
// characters are trimmed and embedded tabs and newlines removed, as
// browsers do with href values. An absolute candidate is then returned
// as is and a relative one is joined against base. Anything else,
// including a candidate or base that does not parse, passes through.
func Resolve(candidate, base string) string {
	candidate = cleanHref(candidate)

	ref, err := url.Parse(candidate)
	if err != nil || ref.IsAbs() {
		return candidate
	}

	b, err := url.Parse(base)
	if err != nil || !b.IsAbs() {
		return candidate
	}
	return b.ResolveReference(ref).String()
}

// hrefNoise removes the characters the URL parsers of browsers ignore
// inside a URL.
var hrefNoise = strings.NewReplacer("\t", "", "\n", "", "\r", "")

// cleanHref trims C0 controls and spaces from both ends of href and drops
// embedded tabs and newlines.
func cleanHref(href string) string {
	href = strings.TrimFunc(href, func(r rune) bool { return r <= ' ' })
	return hrefNoise.Replace(href)
}

// InScope reports whether candidate is the same site as seed.
func InScope(candidate, seed Identity) bool {
	return candidate == seed
}
