package crawler

import (
	"net/url"
	"path"
	"strings"
)

// Filter restricts which in-scope URLs are enqueued by their path.
// A nil *Filter allows everything.
type Filter struct {
	// Ignore lists path globs that are never enqueued.
	Ignore []string

	// Follow, when non-empty, lists the only path globs that are enqueued.
	Follow []string
}

// NewFilter returns a Filter, or nil when both pattern lists are empty.
func NewFilter(ignore, follow []string) *Filter {
	if len(ignore) == 0 && len(follow) == 0 {
		return nil
	}
	return &Filter{Ignore: ignore, Follow: follow}
}

// Allow reports whether rawURL passes the filter. Ignore patterns are
// checked first; then, if Follow is set, one of them must match.
func (f *Filter) Allow(rawURL string) bool {
	if f == nil {
		return true
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	urlPath := u.Path
	if urlPath == "" {
		urlPath = "/"
	}

	for _, pattern := range f.Ignore {
		if matchPattern(pattern, urlPath) {
			return false
		}
	}

	if len(f.Follow) == 0 {
		return true
	}
	for _, pattern := range f.Follow {
		if matchPattern(pattern, urlPath) {
			return true
		}
	}
	return false
}

// matchPattern matches a URL path against a glob:
//   - "/admin/*" matches "/admin" and everything below it
//   - "*.pdf" matches any path ending in ".pdf"
//   - otherwise path.Match rules apply ("?" and single-segment "*")
func matchPattern(pattern, urlPath string) bool {
	if prefix, ok := strings.CutSuffix(pattern, "/*"); ok {
		if urlPath == prefix || strings.HasPrefix(urlPath, prefix+"/") {
			return true
		}
	}

	if ext, ok := strings.CutPrefix(pattern, "*"); ok && strings.HasPrefix(ext, ".") {
		if strings.HasSuffix(urlPath, ext) {
			return true
		}
	}

	if matched, err := path.Match(pattern, urlPath); err == nil && matched {
		return true
	}

	// Slash-free globs like "report-*" apply to the last segment.
	if strings.Contains(pattern, "*") && !strings.Contains(pattern, "/") {
		if matched, err := path.Match(pattern, path.Base(urlPath)); err == nil && matched {
			return true
		}
	}

	return false
}
