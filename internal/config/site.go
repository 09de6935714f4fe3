package config

import (
	"maps"
	"strings"
	"time"
)

// SiteConfig customizes how one site is crawled.
type SiteConfig struct {
	// Cookie is sent with every request, e.g. "session=abc; lang=en".
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra request headers.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Delay overrides the politeness delay, e.g. "500ms". Unset keeps the global one.
	Delay *time.Duration `yaml:"delay,omitempty"`

	// IgnorePatterns are path globs never enqueued.
	IgnorePatterns []string `yaml:"ignorePatterns,omitempty"`

	// FollowPatterns, when set, are the only path globs enqueued.
	FollowPatterns []string `yaml:"followPatterns,omitempty"`

	// InsecureTLS disables certificate verification.
	InsecureTLS bool `yaml:"insecureTLS,omitempty"`
}

// File is the structure of the .sitecrawler file.
type File struct {
	// Sites maps a host name (e.g. "www.example.com") to its settings.
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults apply to every site unless overridden.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// GetSiteConfig merges the settings for host over the defaults.
// Host matching ignores case and a leading "www.".
func (cf *File) GetSiteConfig(host string) SiteConfig {
	result := cf.Defaults
	result.Headers = maps.Clone(cf.Defaults.Headers)

	site, ok := cf.lookup(host)
	if !ok {
		return result
	}

	if site.Cookie != "" {
		result.Cookie = site.Cookie
	}
	if len(site.Headers) > 0 {
		if result.Headers == nil {
			result.Headers = make(map[string]string, len(site.Headers))
		}
		maps.Copy(result.Headers, site.Headers)
	}
	if site.Delay != nil {
		result.Delay = site.Delay
	}
	if len(site.IgnorePatterns) > 0 {
		result.IgnorePatterns = site.IgnorePatterns
	}
	if len(site.FollowPatterns) > 0 {
		result.FollowPatterns = site.FollowPatterns
	}
	if site.InsecureTLS {
		result.InsecureTLS = true
	}
	return result
}

func (cf *File) lookup(host string) (SiteConfig, bool) {
	host = strings.ToLower(strings.TrimSuffix(host, "."))
	candidates := []string{host}
	if bare, ok := strings.CutPrefix(host, "www."); ok {
		candidates = append(candidates, bare)
	} else {
		candidates = append(candidates, "www."+host)
	}

	for _, c := range candidates {
		for key, site := range cf.Sites {
			if strings.EqualFold(key, c) {
				return site, true
			}
		}
	}
	return SiteConfig{}, false
}
