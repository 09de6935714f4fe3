package config

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
const (
	// AppName is used for XDG directory paths.
	AppName = "sitecrawler"

	// DefaultWorkers is the number of concurrent workers after the seed pass.
	DefaultWorkers = 1

	// DefaultDelay is waited before every dequeue from the frontier.
	DefaultDelay = 2 * time.Second

	// DefaultTimeout bounds a single page request.
	DefaultTimeout = 30 * time.Second

	// DefaultUserAgent identifies the crawler in server logs.
	DefaultUserAgent = "sitecrawler/1.0 (+https://github.com/nao1215/sitecrawler)"

	// DefaultMaxBodySize caps how much of a page is read.
	DefaultMaxBodySize = 5 * 1024 * 1024

	// DefaultTorStartupTimeout bounds the embedded Tor bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute
)

// Config holds every option of a crawl run. It is filled from CLI flags and
// the optional config file, then passed down explicitly.
type Config struct {
	// Seed is the URL the crawl starts from. Its domain identity bounds the crawl.
	Seed string

	// Workers is the number of concurrent workers.
	Workers int

	// Delay is the politeness delay before each dequeue. 0 disables it.
	Delay time.Duration

	// Timeout bounds each HTTP request.
	Timeout time.Duration

	// UserAgent is sent with every request.
	UserAgent string

	// MaxBodySize caps the bytes read per page. 0 means the default.
	MaxBodySize int64

	// Print writes the visited store to stdout when the crawl finishes.
	Print bool

	// JSONReport selects JSON output. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport selects Markdown output.
	MarkdownReport bool

	// ReportFile writes the report to a file instead of stdout.
	ReportFile string

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is an explicit path to the YAML config file.
	ConfigFilePath string

	// Sites holds the loaded config file, if any.
	Sites *File

	// ProxyAddress routes requests through a SOCKS5 proxy ("host:port").
	ProxyAddress string

	// UseTor starts an embedded Tor daemon and routes requests through it.
	UseTor bool

	// TorStartupTimeout bounds the embedded Tor bootstrap.
	TorStartupTimeout time.Duration

	// RedisAddr selects the Redis backend for the frontier and visited store.
	// Empty means in-memory.
	RedisAddr string

	// RedisDB is the Redis logical database number.
	RedisDB int

	// SaveToDB archives the run in SQLite.
	SaveToDB bool

	// DBDir is the SQLite directory. Defaults to XDGDataDir.
	DBDir string
}

// NewConfig returns a Config populated with defaults.
func NewConfig() *Config {
	return &Config{
		Workers:           DefaultWorkers,
		Delay:             DefaultDelay,
		Timeout:           DefaultTimeout,
		UserAgent:         DefaultUserAgent,
		MaxBodySize:       DefaultMaxBodySize,
		TorStartupTimeout: DefaultTorStartupTimeout,
	}
}

// XDGDataDir returns the data directory, e.g. ~/.local/share/sitecrawler.
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the config directory, e.g. ~/.config/sitecrawler.
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// DatabaseDir returns DBDir, falling back to XDGDataDir.
func (c *Config) DatabaseDir() string {
	if c.DBDir != "" {
		return c.DBDir
	}
	return XDGDataDir()
}

// Validate returns the first problem found in c.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Seed) == "" {
		return ErrNoSeed
	}
	if c.Workers < 1 {
		return ErrInvalidWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.Delay < 0 {
		return ErrInvalidDelay
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	if c.UseTor && c.ProxyAddress != "" {
		return ErrConflictingProxies
	}
	return nil
}

// Site returns the merged site configuration for host. Without a config
// file it returns the zero SiteConfig.
func (c *Config) Site(host string) SiteConfig {
	if c.Sites == nil {
		return SiteConfig{}
	}
	return c.Sites.GetSiteConfig(host)
}

// EffectiveDelay returns the site's delay override if set, else c.Delay.
func (c *Config) EffectiveDelay(site SiteConfig) time.Duration {
	if site.Delay != nil {
		return *site.Delay
	}
	return c.Delay
}
