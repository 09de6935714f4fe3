package crawler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitecrawler/internal/fetch"
	"github.com/nao1215/sitecrawler/internal/frontier"
	"github.com/nao1215/sitecrawler/internal/model"
	"github.com/nao1215/sitecrawler/internal/parser"
	"github.com/nao1215/sitecrawler/internal/scope"
	"github.com/nao1215/sitecrawler/internal/store"
)

// Config is everything a Crawler needs.
type Config struct {
	// Seed is the start URL. Its domain identity bounds the crawl.
	Seed string

	// Workers is the number of concurrent workers after the seed pass.
	Workers int

	// Frontier holds pending URLs. Its delay is the politeness delay.
	Frontier frontier.Frontier

	// Store records visit state and discovered links.
	Store store.Store

	// Fetcher retrieves page bodies.
	Fetcher fetch.Fetcher

	// Extractor finds links in a page. Nil means parser.HTML.
	Extractor parser.Extractor

	// Logger receives crawl logs. Nil means slog.Default().
	Logger *slog.Logger

	// Filter further restricts which in-scope links are enqueued. Optional.
	Filter *Filter

	// RunID labels the run. Generated when empty.
	RunID string
}

// Crawler crawls one site. Create it with New.
type Crawler struct {
	cfg      Config
	identity scope.Identity
	logger   *slog.Logger

	fetched  atomic.Int64
	failed   atomic.Int64
	skipped  atomic.Int64
	enqueued atomic.Int64
	edges    atomic.Int64
	dropped  atomic.Int64

	mu       sync.Mutex
	failures []model.Failure
}

// New validates cfg and computes the seed's domain identity.
func New(cfg Config) (*Crawler, error) {
	cfg.Seed = strings.TrimSpace(cfg.Seed)
	if cfg.Seed == "" {
		return nil, ErrNoSeed
	}
	if cfg.Workers < 1 {
		return nil, ErrInvalidWorkers
	}
	if cfg.Frontier == nil {
		return nil, ErrNoFrontier
	}
	if cfg.Store == nil {
		return nil, ErrNoStore
	}
	if cfg.Fetcher == nil {
		return nil, ErrNoFetcher
	}
	if cfg.Extractor == nil {
		cfg.Extractor = parser.HTML{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.RunID == "" {
		cfg.RunID = uuid.NewString()
	}

	identity, err := scope.Identify(cfg.Seed)
	if err != nil {
		return nil, fmt.Errorf("invalid seed URL: %w", err)
	}

	return &Crawler{
		cfg:      cfg,
		identity: identity,
		logger:   cfg.Logger.With("run_id", cfg.RunID),
	}, nil
}

// Identity returns the seed's domain identity.
func (c *Crawler) Identity() scope.Identity {
	return c.identity
}

// RunID returns the run identifier.
func (c *Crawler) RunID() string {
	return c.cfg.RunID
}

// Crawl runs the crawl until every worker has seen an empty frontier.
//
// The returned Result is non-nil whenever the final store could be read,
// even if err is non-nil. err wraps ctx.Err() when the run was cancelled,
// or the first frontier/store error.
func (c *Crawler) Crawl(ctx context.Context) (*Result, error) {
	started := time.Now()

	c.logger.Info("starting crawl",
		"seed", c.cfg.Seed,
		"scope", c.identity.String(),
		"workers", c.cfg.Workers)

	runErr := c.run(ctx)

	// Read the store even after cancellation so partial results survive.
	snapshot, err := c.cfg.Store.Snapshot(context.WithoutCancel(ctx))
	if err != nil {
		return nil, errors.Join(runErr, fmt.Errorf("failed to read visited store: %w", err))
	}

	result := &Result{
		RunID:      c.cfg.RunID,
		Seed:       c.cfg.Seed,
		Identity:   c.identity,
		Workers:    c.cfg.Workers,
		Store:      snapshot,
		Failures:   c.Failures(),
		Stats:      c.Stats(),
		StartedAt:  started,
		FinishedAt: time.Now(),
		Canceled:   ctx.Err() != nil,
	}

	c.logger.Info("crawl finished",
		"pages", len(snapshot),
		"fetched", result.Stats.Fetched,
		"failed", result.Stats.Failed,
		"duration", result.FinishedAt.Sub(started))

	return result, runErr
}

func (c *Crawler) run(ctx context.Context) error {
	if err := c.enqueue(ctx, c.cfg.Seed); err != nil {
		return err
	}

	// Seed pass: process the seed alone before fanning out.
	if err := c.work(ctx, 1); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := range c.cfg.Workers {
		g.Go(func() error {
			c.logger.Debug("worker started", "worker", i)
			err := c.work(gctx, 0)
			c.logger.Debug("worker stopped", "worker", i, "error", err)
			return err
		})
	}
	return g.Wait()
}

// work runs the worker loop. limit bounds the number of dequeued URLs;
// 0 means until the frontier is observed empty.
func (c *Crawler) work(ctx context.Context, limit int) error {
	for n := 0; limit == 0 || n < limit; n++ {
		current, ok, err := c.cfg.Frontier.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("failed to dequeue: %w", err)
		}
		if !ok {
			return nil
		}

		if err := c.process(ctx, current); err != nil {
			return err
		}
	}
	return nil
}

// process handles one dequeued URL.
func (c *Crawler) process(ctx context.Context, current string) error {
	visited, err := c.cfg.Store.HasVisited(ctx, current)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", current, err)
	}
	if visited {
		c.skipped.Add(1)
		c.logger.Debug("skipping visited page", "url", current)
		return nil
	}

	document, err := c.cfg.Fetcher.Fetch(ctx, current)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.recordFailure(current, err)
		c.logger.Warn("failed to fetch page", "url", current, "error", err)
		return nil
	}
	c.fetched.Add(1)

	if err := c.cfg.Store.Add(ctx, current); err != nil {
		return fmt.Errorf("failed to record %s: %w", current, err)
	}
	if err := c.cfg.Store.MarkVisited(ctx, current); err != nil {
		return fmt.Errorf("failed to mark %s visited: %w", current, err)
	}

	links := c.cfg.Extractor.ExtractLinks(document)
	c.logger.Debug("fetched page", "url", current, "links", len(links))

	for _, href := range links {
		if err := c.follow(ctx, current, href); err != nil {
			return err
		}
	}
	return nil
}

// follow records the edge current -> href and enqueues the target when it
// is in scope, allowed by the filter and not yet visited.
func (c *Crawler) follow(ctx context.Context, current, href string) error {
	resolved := scope.Resolve(href, current)

	if err := c.cfg.Store.Add(ctx, current, resolved); err != nil {
		return fmt.Errorf("failed to record link from %s: %w", current, err)
	}
	c.edges.Add(1)

	identity, err := scope.Identify(resolved)
	if err != nil {
		c.dropped.Add(1)
		c.logger.Debug("dropping malformed link", "url", resolved, "page", current, "error", err)
		return nil
	}
	if !scope.InScope(identity, c.identity) || !c.cfg.Filter.Allow(resolved) {
		return nil
	}

	visited, err := c.cfg.Store.HasVisited(ctx, resolved)
	if err != nil {
		return fmt.Errorf("failed to check %s: %w", resolved, err)
	}
	if visited {
		return nil
	}
	return c.enqueue(ctx, resolved)
}

func (c *Crawler) enqueue(ctx context.Context, url string) error {
	if err := c.cfg.Frontier.Enqueue(ctx, url); err != nil {
		return fmt.Errorf("failed to enqueue %s: %w", url, err)
	}
	c.enqueued.Add(1)
	return nil
}

func (c *Crawler) recordFailure(url string, err error) {
	c.failed.Add(1)

	f := model.Failure{URL: url, Error: err.Error()}
	var statusErr *fetch.StatusError
	if errors.As(err, &statusErr) {
		f.StatusCode = statusErr.StatusCode
	}

	c.mu.Lock()
	c.failures = append(c.failures, f)
	c.mu.Unlock()
}

// Failures returns a copy of the fetch failures recorded so far.
func (c *Crawler) Failures() []model.Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]model.Failure, len(c.failures))
	copy(out, c.failures)
	return out
}

// Stats returns the current counters.
func (c *Crawler) Stats() model.Stats {
	return model.Stats{
		Fetched:  c.fetched.Load(),
		Failed:   c.failed.Load(),
		Skipped:  c.skipped.Load(),
		Enqueued: c.enqueued.Load(),
		Edges:    c.edges.Load(),
		Dropped:  c.dropped.Load(),
	}
}
