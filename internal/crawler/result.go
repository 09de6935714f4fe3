package crawler

import (
	"time"

	"github.com/nao1215/sitecrawler/internal/model"
	"github.com/nao1215/sitecrawler/internal/scope"
	"github.com/nao1215/sitecrawler/internal/store"
)

// Result is the outcome of Crawler.Crawl.
type Result struct {
	RunID    string
	Seed     string
	Identity scope.Identity
	Workers  int

	// Store is the final content of the visited store.
	Store map[string]store.Entry

	// Failures lists pages that could not be fetched.
	Failures []model.Failure

	Stats      model.Stats
	StartedAt  time.Time
	FinishedAt time.Time

	// Canceled is true when the context ended the run early.
	Canceled bool
}

// Report converts r into the model used by report writers and the archive.
func (r *Result) Report() *model.CrawlReport {
	report := model.NewCrawlReport(r.RunID, r.Seed)
	report.Subdomain = r.Identity.Subdomain
	report.RootDomain = r.Identity.RootDomain
	report.Workers = r.Workers
	report.StartedAt = r.StartedAt
	report.FinishedAt = r.FinishedAt
	report.Failures = r.Failures
	report.Stats = r.Stats
	report.Canceled = r.Canceled

	pages := make([]model.PageRecord, 0, len(r.Store))
	for url, entry := range r.Store {
		outbound := entry.Outbound
		if outbound == nil {
			outbound = []string{}
		}
		pages = append(pages, model.PageRecord{
			URL:      url,
			Visited:  entry.Visited,
			Outbound: outbound,
		})
	}
	report.SetPages(pages)
	return report
}
