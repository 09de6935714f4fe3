package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/sitecrawler/internal/crawler"
	"github.com/nao1215/sitecrawler/internal/model"
	"github.com/nao1215/sitecrawler/internal/report"
)

// Crawler runs one crawl. *crawler.Crawler implements it.
type Crawler interface {
	Crawl(ctx context.Context) (*crawler.Result, error)
}

// CrawlStep runs the crawl and copies its result into the report.
type CrawlStep struct {
	crawler Crawler

	// logger for structured logging.
	logger *slog.Logger
}

// CrawlStepOption configures a CrawlStep.
type CrawlStepOption func(*CrawlStep)

// WithCrawlLogger sets a custom logger for the crawl step.
func WithCrawlLogger(logger *slog.Logger) CrawlStepOption {
	return func(s *CrawlStep) {
		s.logger = logger
	}
}

// NewCrawlStep creates a step that runs c.
func NewCrawlStep(c Crawler, opts ...CrawlStepOption) *CrawlStep {
	s := &CrawlStep{
		crawler: c,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *CrawlStep) Name() string {
	return "crawl"
}

// Do executes the crawl step. Partial results of an interrupted or failed
// crawl are kept in the report.
func (s *CrawlStep) Do(ctx context.Context, r *model.CrawlReport) error {
	result, err := s.crawler.Crawl(ctx)
	if result != nil {
		merge(r, result.Report())
		s.logger.Info("crawl completed",
			"pages", len(r.Pages),
			"fetched", r.Stats.Fetched,
			"failed", r.Stats.Failed,
		)
	}
	return err
}

// merge copies the crawl outcome from src into dst, keeping the run
// settings already present in dst.
func merge(dst, src *model.CrawlReport) {
	if dst.RunID == "" {
		dst.RunID = src.RunID
	}
	dst.Subdomain = src.Subdomain
	dst.RootDomain = src.RootDomain
	if src.Workers != 0 {
		dst.Workers = src.Workers
	}
	dst.StartedAt = src.StartedAt
	dst.FinishedAt = src.FinishedAt
	dst.Pages = src.Pages
	dst.Failures = src.Failures
	dst.Stats = src.Stats
	dst.Canceled = dst.Canceled || src.Canceled
}

// RunSaver archives crawl reports. *database.CrawlDB implements it.
type RunSaver interface {
	SaveCrawlReport(ctx context.Context, report *model.CrawlReport) error
}

// PersistStep saves the report to the run archive.
type PersistStep struct {
	saver  RunSaver
	logger *slog.Logger
}

// NewPersistStep creates a step that saves reports through saver.
func NewPersistStep(saver RunSaver, logger *slog.Logger) *PersistStep {
	if logger == nil {
		logger = slog.Default()
	}
	return &PersistStep{
		saver:  saver,
		logger: logger,
	}
}

// Name returns the step name.
func (s *PersistStep) Name() string {
	return "persist"
}

// Do saves r. A report without a finish time is stamped with the current time.
func (s *PersistStep) Do(ctx context.Context, r *model.CrawlReport) error {
	if r.FinishedAt.IsZero() {
		r.FinishedAt = time.Now()
	}
	if err := s.saver.SaveCrawlReport(ctx, r); err != nil {
		return fmt.Errorf("failed to save run %s: %w", r.RunID, err)
	}
	s.logger.Info("run saved", "run_id", r.RunID)
	return nil
}

// ReportStep renders the report with a report.Writer.
type ReportStep struct {
	writer report.Writer
}

// NewReportStep creates a step that writes reports with w.
func NewReportStep(w report.Writer) *ReportStep {
	return &ReportStep{writer: w}
}

// Name returns the step name.
func (s *ReportStep) Name() string {
	return "report"
}

// Do writes r.
func (s *ReportStep) Do(_ context.Context, r *model.CrawlReport) error {
	if _, err := s.writer.Write(r); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
