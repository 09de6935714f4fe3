package model

import (
	"slices"
	"strings"
	"time"
)

// CrawlReport is the result of one crawl run.
type CrawlReport struct {
	// RunID identifies the run in the archive and in shared backends.
	RunID string `json:"run_id"`

	// Seed is the URL the crawl started from.
	Seed string `json:"seed"`

	// Subdomain and RootDomain form the domain identity bounding the crawl.
	Subdomain  string `json:"subdomain"`
	RootDomain string `json:"root_domain"`

	// Workers is the number of concurrent workers used.
	Workers int `json:"workers"`

	// Delay is the politeness delay before each dequeue.
	Delay time.Duration `json:"delay"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	// Pages is the final visited store, sorted by URL.
	Pages []PageRecord `json:"pages"`

	// Failures lists pages whose fetch failed, in the order they failed.
	Failures []Failure `json:"failures,omitempty"`

	// Stats are the counters collected while crawling.
	Stats Stats `json:"stats"`

	// Canceled is true when the run was interrupted before the frontier drained.
	Canceled bool `json:"canceled"`

	// Errors are run-level errors (backend failures, persistence errors).
	Errors []string `json:"errors,omitempty"`
}

// Failure records a page that could not be fetched.
type Failure struct {
	URL string `json:"url"`

	// StatusCode is set when the server answered with a non-2xx status.
	StatusCode int `json:"status_code,omitempty"`

	Error string `json:"error"`
}

// Stats are crawl counters.
type Stats struct {
	// Fetched counts successful fetches.
	Fetched int64 `json:"fetched"`

	// Failed counts failed fetches.
	Failed int64 `json:"failed"`

	// Skipped counts dequeued URLs that were already visited.
	Skipped int64 `json:"skipped"`

	// Enqueued counts URLs pushed to the frontier, the seed included.
	Enqueued int64 `json:"enqueued"`

	// Edges counts discovered links recorded in the store.
	Edges int64 `json:"edges"`

	// Dropped counts links whose domain identity could not be computed.
	Dropped int64 `json:"dropped"`
}

// NewCrawlReport creates an empty report for seed.
func NewCrawlReport(runID, seed string) *CrawlReport {
	return &CrawlReport{
		RunID:     runID,
		Seed:      seed,
		StartedAt: time.Now(),
		Pages:     make([]PageRecord, 0),
	}
}

// Duration is the wall-clock time of the run. Zero while still running.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Scope returns the domain identity as "subdomain.root".
func (r *CrawlReport) Scope() string {
	if r.RootDomain == "" {
		return r.Subdomain
	}
	return r.Subdomain + "." + r.RootDomain
}

// SetPages replaces the page list and sorts it by URL.
func (r *CrawlReport) SetPages(pages []PageRecord) {
	slices.SortFunc(pages, func(a, b PageRecord) int {
		return strings.Compare(a.URL, b.URL)
	})
	r.Pages = pages
}

// Page returns the record for url.
func (r *CrawlReport) Page(url string) (PageRecord, bool) {
	i, found := slices.BinarySearchFunc(r.Pages, url, func(p PageRecord, target string) int {
		return strings.Compare(p.URL, target)
	})
	if !found {
		return PageRecord{}, false
	}
	return r.Pages[i], true
}

// AddError records a run-level error. Nil errors are ignored.
func (r *CrawlReport) AddError(err error) {
	if err == nil {
		return
	}
	r.Errors = append(r.Errors, err.Error())
}

// HasErrors reports whether any run-level error was recorded.
func (r *CrawlReport) HasErrors() bool {
	return len(r.Errors) > 0
}
