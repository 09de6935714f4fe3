package scope

import (
	"errors"
	"testing"
)

func TestIdentify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		url  string
		want Identity
	}{
		{"www host", "https://www.github.com", Identity{Subdomain: "www", RootDomain: "github.com"}},
		{"bare host defaults to www", "https://github.com", Identity{Subdomain: "www", RootDomain: "github.com"}},
		{"explicit subdomain", "https://blog.example.com/post", Identity{Subdomain: "blog", RootDomain: "example.com"}},
		{"nested subdomain", "https://a.b.example.com", Identity{Subdomain: "a.b", RootDomain: "example.com"}},
		{"multi-label suffix", "https://shop.example.co.uk", Identity{Subdomain: "shop", RootDomain: "example.co.uk"}},
		{"host is case-insensitive", "https://WWW.Example.COM", Identity{Subdomain: "www", RootDomain: "example.com"}},
		{"port is ignored", "http://example.com:8080/x", Identity{Subdomain: "www", RootDomain: "example.com"}},
		{"ip literal", "http://127.0.0.1:9000/", Identity{Subdomain: "www", RootDomain: "127.0.0.1"}},
		{"localhost", "http://localhost:3000", Identity{Subdomain: "www", RootDomain: "localhost"}},
		{"no host component", "urlunix:/run/foo.socket", Identity{}},
		{"mailto has no host", "mailto:someone@example.com", Identity{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := Identify(tt.url)
			if err != nil {
				t.Fatalf("Identify(%q) returned error: %v", tt.url, err)
			}
			if got != tt.want {
				t.Errorf("Identify(%q) = %+v, want %+v", tt.url, got, tt.want)
			}
		})
	}
}

func TestIdentifyMalformed(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"@.,~", "/about", "example.com/path", "http://[::1", ""} {
		t.Run(raw, func(t *testing.T) {
			t.Parallel()

			_, err := Identify(raw)
			if !errors.Is(err, ErrMalformed) {
				t.Errorf("Identify(%q) error = %v, want ErrMalformed", raw, err)
			}
		})
	}
}

func TestIdentifyNormalization(t *testing.T) {
	t.Parallel()

	bare, err := Identify("https://example.com")
	if err != nil {
		t.Fatal(err)
	}
	www, err := Identify("https://www.example.com")
	if err != nil {
		t.Fatal(err)
	}
	blog, err := Identify("https://blog.example.com")
	if err != nil {
		t.Fatal(err)
	}

	if bare != www {
		t.Errorf("expected %+v to equal %+v", bare, www)
	}
	if blog == bare || blog == www {
		t.Errorf("expected blog identity %+v to differ from %+v", blog, bare)
	}
}

func TestSplit(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host, sub, root string
	}{
		{"example.com", "", "example.com"},
		{"www.example.com", "www", "example.com"},
		{"example.com.", "", "example.com"},
		{"co.uk", "", ""},
		{"com", "", ""},
		{"localhost", "", "localhost"},
		{"::1", "", "::1"},
		{"", "", ""},
	}

	for _, tt := range tests {
		sub, root := Split(tt.host)
		if sub != tt.sub || root != tt.root {
			t.Errorf("Split(%q) = (%q, %q), want (%q, %q)", tt.host, sub, root, tt.sub, tt.root)
		}
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		candidate string
		base      string
		want      string
	}{
		{"relative path against bare host", "/about", "https://example.com", "https://example.com/about"},
		{"relative path against page", "contact", "https://example.com/team/index.html", "https://example.com/team/contact"},
		{"parent directory", "../up", "https://example.com/a/b/", "https://example.com/a/up"},
		{"scheme-relative", "//cdn.example.com/x.js", "https://example.com", "https://cdn.example.com/x.js"},
		{"absolute stays", "https://other.com/x", "https://example.com", "https://other.com/x"},
		{"non-http absolute stays", "mailto:me@example.com", "https://example.com", "mailto:me@example.com"},
		{"fragment", "#top", "https://example.com/page", "https://example.com/page#top"},
		{"unparseable candidate passes through", "http://[::1", "https://example.com", "http://[::1"},
		{"unusable base passes through", "/about", "not a url", "/about"},
		{"trailing newline trimmed", "/about\n", "https://example.com", "https://example.com/about"},
		{"leading space trimmed", " /about", "https://example.com", "https://example.com/about"},
		{"surrounding whitespace trimmed", "\t\n  /about  \r\n", "https://example.com", "https://example.com/about"},
		{"embedded newline removed", "/ab\nout", "https://example.com", "https://example.com/about"},
		{"padded absolute cleaned", "https://example.com/x\n", "https://example.com", "https://example.com/x"},
		{"inner space kept", "/a b", "https://example.com", "https://example.com/a%20b"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if got := Resolve(tt.candidate, tt.base); got != tt.want {
				t.Errorf("Resolve(%q, %q) = %q, want %q", tt.candidate, tt.base, got, tt.want)
			}
		})
	}
}

func TestResolvePaddedHrefIsInScope(t *testing.T) {
	t.Parallel()

	seed, err := Identify("https://www.example.com/")
	if err != nil {
		t.Fatal(err)
	}

	for _, href := range []string{"/about\n", " /about", "https://www.example.com/x\n"} {
		resolved := Resolve(href, "https://www.example.com/")
		id, err := Identify(resolved)
		if err != nil {
			t.Errorf("Identify(Resolve(%q)) error = %v", href, err)
			continue
		}
		if !InScope(id, seed) {
			t.Errorf("expected %q to be in scope", resolved)
		}
	}
}

func TestInScope(t *testing.T) {
	t.Parallel()

	seed := Identity{Subdomain: "www", RootDomain: "google.com"}

	if !InScope(Identity{Subdomain: "www", RootDomain: "google.com"}, seed) {
		t.Error("expected identical identity to be in scope")
	}
	if InScope(Identity{Subdomain: "www", RootDomain: "stackoverflow.com"}, seed) {
		t.Error("expected other root domain to be out of scope")
	}
	if InScope(Identity{Subdomain: "mail", RootDomain: "google.com"}, seed) {
		t.Error("expected other subdomain to be out of scope")
	}
	if InScope(Identity{}, seed) {
		t.Error("expected hostless identity to be out of scope")
	}
}

func TestIdentityString(t *testing.T) {
	t.Parallel()

	if got := (Identity{Subdomain: "www", RootDomain: "example.com"}).String(); got != "www.example.com" {
		t.Errorf("got %q", got)
	}
	if got := (Identity{}).String(); got != "" {
		t.Errorf("expected empty string, got %q", got)
	}
}
