package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitecrawler/internal/config"
	"github.com/nao1215/sitecrawler/internal/crawler"
	"github.com/nao1215/sitecrawler/internal/database"
	"github.com/nao1215/sitecrawler/internal/fetch"
	"github.com/nao1215/sitecrawler/internal/frontier"
	"github.com/nao1215/sitecrawler/internal/log"
	"github.com/nao1215/sitecrawler/internal/model"
	"github.com/nao1215/sitecrawler/internal/pipeline"
	"github.com/nao1215/sitecrawler/internal/report"
	"github.com/nao1215/sitecrawler/internal/store"
	"github.com/nao1215/sitecrawler/internal/transport"
)

// redisKeyPrefix namespaces shared-backend keys; the run ID follows it.
const redisKeyPrefix = "sitecrawler:"

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed-url>",
		Short: "Crawl every in-scope page reachable from a seed URL",
		Long: `Crawl visits the seed URL and, breadth-first, every page it links to that
shares the seed's subdomain and registrable domain. Links to other hosts are
recorded but never fetched.

Before each dequeue every worker waits for the politeness delay. Pages that
fail to load are reported and skipped; the crawl goes on.

Examples:
  # Crawl a site with the defaults (1 worker, 2s delay)
  sitecrawler crawl https://www.example.com/

  # Four workers, no delay, dump the visited store at the end
  sitecrawler crawl -w 4 -d 0 -p https://www.example.com/

  # Write a Markdown report and archive the run
  sitecrawler crawl --markdown -o report.md --save https://www.example.com/

  # Crawl through Tor
  sitecrawler crawl --tor http://exampleonion.onion/

Configuration file (.sitecrawler) example:
  defaults:
    headers:
      Accept-Language: "en"
  sites:
    www.example.com:
      cookie: "session=abc123"
      delay: 500ms
      ignorePatterns:
        - "/logout"`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl behavior flags
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent workers")
	cmd.Flags().Float64P("delay", "d", config.DefaultDelay.Seconds(),
		"Politeness delay in seconds before each dequeue (0 disables)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with requests")
	cmd.Flags().Int64("max-body-size", config.DefaultMaxBodySize,
		"Maximum bytes read from each response")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitecrawler in current or home directory)")

	// Transport flags
	cmd.Flags().String("socks", "",
		"Route requests through a SOCKS5 proxy (e.g., 127.0.0.1:9050)")
	cmd.Flags().Bool("tor", false,
		"Route requests through an embedded Tor daemon")
	cmd.Flags().Duration("tor-timeout", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Backend flags
	cmd.Flags().String("redis", "",
		"Keep the frontier and visited store in Redis at this address")
	cmd.Flags().Int("redis-db", 0,
		"Redis database number")

	// Report flags
	cmd.Flags().BoolP("print", "p", false,
		"Print the visited store at the end of the crawl")
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// Archive flags
	cmd.Flags().Bool("save", false,
		"Save the run to the local archive (see 'sitecrawler history')")
	cmd.Flags().String("db-dir", "",
		"Archive directory (default: XDG data directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go func() {
		select {
		case <-sigCh:
			logger.Warn("received shutdown signal, stopping crawl")
			cancel()
		case <-ctx.Done():
		}
	}()

	return runCrawl(ctx, cfg, cmd.OutOrStdout(), cmd.ErrOrStderr(), logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	flags := cmd.Flags()

	if len(args) > 0 {
		cfg.Seed = args[0]
	}
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	if cfg.Workers, err = flags.GetInt("workers"); err != nil {
		return nil, err
	}
	delay, err := flags.GetFloat64("delay")
	if err != nil {
		return nil, err
	}
	cfg.Delay = time.Duration(delay * float64(time.Second))
	if cfg.Timeout, err = flags.GetDuration("timeout"); err != nil {
		return nil, err
	}
	if cfg.UserAgent, err = flags.GetString("user-agent"); err != nil {
		return nil, err
	}
	if cfg.MaxBodySize, err = flags.GetInt64("max-body-size"); err != nil {
		return nil, err
	}

	if cfg.ProxyAddress, err = flags.GetString("socks"); err != nil {
		return nil, err
	}
	if cfg.UseTor, err = flags.GetBool("tor"); err != nil {
		return nil, err
	}
	if cfg.TorStartupTimeout, err = flags.GetDuration("tor-timeout"); err != nil {
		return nil, err
	}

	if cfg.RedisAddr, err = flags.GetString("redis"); err != nil {
		return nil, err
	}
	if cfg.RedisDB, err = flags.GetInt("redis-db"); err != nil {
		return nil, err
	}

	if cfg.Print, err = flags.GetBool("print"); err != nil {
		return nil, err
	}
	if cfg.JSONReport, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if cfg.MarkdownReport, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}
	if cfg.ReportFile, err = flags.GetString("output"); err != nil {
		return nil, err
	}

	if cfg.SaveToDB, err = flags.GetBool("save"); err != nil {
		return nil, err
	}
	if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
		return nil, err
	}

	if cfg.ConfigFilePath, err = flags.GetString("config"); err != nil {
		return nil, err
	}
	if cfg.Sites, err = loadSites(cfg.ConfigFilePath); err != nil {
		return nil, err
	}

	return cfg, nil
}

// loadSites loads the site configuration file. An explicitly requested file
// must exist; otherwise a missing file yields an empty configuration.
func loadSites(explicitPath string) (*config.File, error) {
	path := config.FindConfigFile(explicitPath)
	if path == "" {
		if explicitPath != "" {
			return nil, fmt.Errorf("configuration file not found: %s", explicitPath)
		}
		return &config.File{Sites: make(map[string]config.SiteConfig)}, nil
	}

	sites, err := config.LoadConfigFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
	}
	return sites, nil
}

// runCrawl wires the crawl from cfg and runs it through the pipeline.
// The report goes to stdout or cfg.ReportFile; progress notes go to stderr.
func runCrawl(ctx context.Context, cfg *config.Config, stdout, stderr io.Writer, logger *slog.Logger) error {
	site := cfg.Site(seedHost(cfg.Seed))
	runID := uuid.NewString()
	delay := cfg.EffectiveDelay(site)

	client, cleanupClient, err := newHTTPClient(ctx, cfg, site, stderr, logger)
	if err != nil {
		return err
	}
	defer cleanupClient()

	fr, st, cleanupBackend, err := newBackend(ctx, cfg, runID, delay, logger)
	if err != nil {
		return err
	}
	defer cleanupBackend()

	c, err := crawler.New(crawler.Config{
		Seed:     cfg.Seed,
		Workers:  cfg.Workers,
		Frontier: fr,
		Store:    st,
		Fetcher: fetch.NewHTTP(client,
			fetch.WithUserAgent(cfg.UserAgent),
			fetch.WithMaxBodySize(cfg.MaxBodySize),
		),
		Logger: logger,
		Filter: crawler.NewFilter(site.IgnorePatterns, site.FollowPatterns),
		RunID:  runID,
	})
	if err != nil {
		return err
	}

	output, closeOutput, err := openOutput(cfg.ReportFile, stdout)
	if err != nil {
		return err
	}
	defer closeOutput()

	p := pipeline.New(
		pipeline.WithLogger(logger),
		pipeline.WithContinueOnError(true),
	)
	p.AddStep(pipeline.NewCrawlStep(c, pipeline.WithCrawlLogger(logger)))

	var db *database.CrawlDB
	if cfg.SaveToDB {
		db, err = database.Open(cfg.DatabaseDir(), database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		defer db.Close()
		p.AddFinalStep(pipeline.NewPersistStep(db, logger))
	}
	p.AddFinalStep(pipeline.NewReportStep(newReportWriter(cfg, output)))

	crawlReport := model.NewCrawlReport(runID, cfg.Seed)
	crawlReport.Workers = cfg.Workers
	crawlReport.Delay = delay

	fmt.Fprintf(stderr, "Crawling %s (run %s)...\n", cfg.Seed, runID)

	err = p.Execute(ctx, crawlReport)

	if db != nil {
		if run, getErr := db.GetRun(context.WithoutCancel(ctx), runID); getErr == nil && run != nil {
			fmt.Fprintf(stderr, "Run %s saved. Use 'sitecrawler history %s' to view it.\n", runID, runID)
		}
	}

	switch {
	case err == nil:
		return nil
	case errors.Is(err, context.Canceled):
		return errors.New("crawl interrupted, partial results reported")
	default:
		return fmt.Errorf("crawl failed: %w", err)
	}
}

// seedHost returns the host of seed, or "" when it cannot be parsed.
func seedHost(seed string) string {
	u, err := url.Parse(seed)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

// newHTTPClient builds the HTTP client for the configured transport.
// The returned cleanup stops an embedded Tor daemon if one was started.
func newHTTPClient(ctx context.Context, cfg *config.Config, site config.SiteConfig, stderr io.Writer, logger *slog.Logger) (*http.Client, func(), error) {
	opts := []transport.Option{
		transport.WithTimeout(cfg.Timeout),
		transport.WithCookie(site.Cookie),
		transport.WithHeaders(site.Headers),
		transport.WithInsecureTLS(site.InsecureTLS),
	}
	noop := func() {}

	switch {
	case cfg.UseTor:
		fmt.Fprintln(stderr, "Starting embedded Tor daemon...")
		fmt.Fprint(stderr, "This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

		tor := transport.NewEmbeddedTor(transport.WithStartupTimeout(cfg.TorStartupTimeout))
		if err := tor.Start(ctx); err != nil {
			return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
		}
		stop := func() {
			logger.Info("stopping embedded Tor daemon")
			if err := tor.Stop(); err != nil {
				logger.Error("failed to stop embedded Tor", "error", err)
			}
		}

		if status := transport.CheckProxy(ctx, tor.SocksAddr()); status != transport.ProxyStatusOK {
			stop()
			return nil, nil, fmt.Errorf("embedded Tor proxy check failed: %w", status.Err())
		}

		client, err := tor.NewHTTPClient(opts...)
		if err != nil {
			stop()
			return nil, nil, fmt.Errorf("failed to create HTTP client: %w", err)
		}
		fmt.Fprintf(stderr, "Embedded Tor daemon started. SOCKS proxy: %s\n\n", tor.SocksAddr())
		return client, stop, nil

	case cfg.ProxyAddress != "":
		if status := transport.CheckProxy(ctx, cfg.ProxyAddress); status != transport.ProxyStatusOK {
			return nil, nil, fmt.Errorf("SOCKS5 proxy check failed for %s: %w", cfg.ProxyAddress, status.Err())
		}
		logger.Info("SOCKS5 proxy verified", "address", cfg.ProxyAddress)
		opts = append(opts, transport.WithSOCKS5(cfg.ProxyAddress))
	}

	client, err := transport.NewHTTPClient(opts...)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}
	return client, noop, nil
}

// newBackend returns the frontier and store for the run: in memory by
// default, or in Redis under a run-scoped prefix when cfg.RedisAddr is set.
// The returned cleanup removes the run's Redis keys.
func newBackend(ctx context.Context, cfg *config.Config, runID string, delay time.Duration, logger *slog.Logger) (frontier.Frontier, store.Store, func(), error) {
	if cfg.RedisAddr == "" {
		return frontier.NewMemory(frontier.WithDelay(delay)), store.NewMemory(), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
		DB:   cfg.RedisDB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.RedisAddr, err)
	}

	prefix := redisKeyPrefix + runID + ":"
	fr := frontier.NewRedis(rdb, prefix, frontier.WithDelay(delay))
	st := store.NewRedis(rdb, prefix)
	logger.Info("using redis backend", "address", cfg.RedisAddr, "prefix", prefix)

	cleanup := func() {
		clearCtx := context.WithoutCancel(ctx)
		if err := fr.Clear(clearCtx); err != nil {
			logger.Warn("failed to clear redis frontier", "error", err)
		}
		if err := st.Clear(clearCtx); err != nil {
			logger.Warn("failed to clear redis store", "error", err)
		}
		_ = rdb.Close()
	}
	return fr, st, cleanup, nil
}

// openOutput returns the report destination: stdout, or path created with
// owner-only permissions.
func openOutput(path string, stdout io.Writer) (io.Writer, func(), error) {
	if path == "" {
		return stdout, func() {}, nil
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-provided path
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil
}

// newReportWriter selects the report format requested in cfg.
func newReportWriter(cfg *config.Config, output io.Writer) report.Writer {
	switch {
	case cfg.JSONReport:
		return report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		return report.NewMarkdownWriter(output)
	default:
		return report.NewSimpleWriter(output,
			report.WithPrintStore(cfg.Print),
			report.WithVerbose(cfg.Verbose),
		)
	}
}
