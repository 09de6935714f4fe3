package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitecrawler/internal/config"
	"github.com/nao1215/sitecrawler/internal/database"
	"github.com/nao1215/sitecrawler/internal/model"
	"github.com/nao1215/sitecrawler/internal/report"
)

// historyTimeFormat is the timestamp layout of the run list.
const historyTimeFormat = "2006-01-02 15:04:05"

// NewHistoryCmd creates the history command.
// This command inspects crawl runs saved with 'sitecrawler crawl --save'.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Inspect saved crawl runs",
		Long: `History reads the runs archived with 'sitecrawler crawl --save'.

Without arguments it lists every saved run, newest first. Given a run ID it
prints that run's report in the requested format.

Examples:
  # List all saved runs
  sitecrawler history

  # List runs of one seed
  sitecrawler history --seed https://www.example.com/

  # Show a run with its full visited store
  sitecrawler history -p 2f1c7a9e-1b7d-4d0b-9c55-1c3f5bb8f0aa

  # Show the latest run of a seed as Markdown
  sitecrawler history --latest --seed https://www.example.com/ --markdown

  # Which pages of a run link to a URL?
  sitecrawler history --links-to https://www.example.com/about 2f1c7a9e-...

  # Delete a run
  sitecrawler history --delete 2f1c7a9e-...`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	// Selection flags
	cmd.Flags().StringP("seed", "s", "",
		"Restrict the list (or --latest) to runs of this seed URL")
	cmd.Flags().BoolP("latest", "l", false,
		"Show the most recent run instead of a run ID")

	// Query flags
	cmd.Flags().String("links-to", "",
		"List the pages of the run that link to this URL")
	cmd.Flags().Bool("delete", false,
		"Delete the run from the archive")

	// Output format flags
	cmd.Flags().BoolP("print", "p", false,
		"Include the visited store in the text report")
	cmd.Flags().BoolP("json", "j", false,
		"Output report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output report in Markdown format")

	cmd.Flags().String("db-dir", "",
		"Archive directory (default: XDG data directory)")

	return cmd
}

// historyOptions holds the parsed flags of the history command.
type historyOptions struct {
	runID    string
	seed     string
	latest   bool
	linksTo  string
	delete   bool
	print    bool
	json     bool
	markdown bool
	verbose  bool
	dbDir    string
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	opts, err := parseHistoryOptions(cmd, args)
	if err != nil {
		return err
	}

	// Validate before opening the database so a bad invocation never
	// creates an empty archive.
	if err := opts.validate(); err != nil {
		return err
	}

	db, err := database.Open(opts.dbDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	switch {
	case opts.delete:
		return deleteRun(ctx, db, out, opts.runID)
	case opts.linksTo != "":
		return listInboundLinks(ctx, db, out, opts.runID, opts.linksTo)
	case opts.latest:
		return showLatestRun(ctx, db, out, opts)
	case opts.runID != "":
		return showRun(ctx, db, out, opts)
	default:
		return listRuns(ctx, db, out, opts.seed)
	}
}

// parseHistoryOptions reads the history flags.
func parseHistoryOptions(cmd *cobra.Command, args []string) (*historyOptions, error) {
	opts := &historyOptions{verbose: getVerboseFlag(cmd)}
	if len(args) > 0 {
		opts.runID = strings.TrimSpace(args[0])
	}

	flags := cmd.Flags()
	var err error
	if opts.seed, err = flags.GetString("seed"); err != nil {
		return nil, err
	}
	if opts.latest, err = flags.GetBool("latest"); err != nil {
		return nil, err
	}
	if opts.linksTo, err = flags.GetString("links-to"); err != nil {
		return nil, err
	}
	if opts.delete, err = flags.GetBool("delete"); err != nil {
		return nil, err
	}
	if opts.print, err = flags.GetBool("print"); err != nil {
		return nil, err
	}
	if opts.json, err = flags.GetBool("json"); err != nil {
		return nil, err
	}
	if opts.markdown, err = flags.GetBool("markdown"); err != nil {
		return nil, err
	}

	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return nil, err
	}
	cfg := config.NewConfig()
	cfg.DBDir = dbDir
	opts.dbDir = cfg.DatabaseDir()

	return opts, nil
}

// validate rejects flag combinations that cannot be served.
func (o *historyOptions) validate() error {
	if o.json && o.markdown {
		return config.ErrConflictingReportFormats
	}
	if o.latest && o.runID != "" {
		return errors.New("--latest cannot be combined with a run ID")
	}
	if o.delete && o.runID == "" {
		return errors.New("--delete requires a run ID")
	}
	if o.linksTo != "" && o.runID == "" {
		return errors.New("--links-to requires a run ID")
	}
	if o.delete && o.linksTo != "" {
		return errors.New("--delete cannot be combined with --links-to")
	}
	return nil
}

// listRuns prints the saved runs, optionally restricted to seed.
func listRuns(ctx context.Context, db *database.CrawlDB, out io.Writer, seed string) error {
	runs, err := db.ListRuns(ctx, seed)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		if seed != "" {
			fmt.Fprintf(out, "No saved runs found for %s\n", seed)
		} else {
			fmt.Fprintln(out, "No saved runs found in the database.")
		}
		fmt.Fprintln(out, "\nUse 'sitecrawler crawl --save <seed-url>' to archive a crawl.")
		return nil
	}

	fmt.Fprintf(out, "Saved runs (%d):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %-9s  %5s  %7s  %8s  %s\n",
		"Run ID", "Started", "Duration", "Pages", "Visited", "Failures", "Seed")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 110))

	for _, run := range runs {
		seedLabel := run.Seed
		if run.Canceled {
			seedLabel += " (canceled)"
		}
		fmt.Fprintf(out, "  %-36s  %-19s  %-9s  %5d  %7d  %8d  %s\n",
			run.RunID,
			run.StartedAt.Local().Format(historyTimeFormat),
			formatRunDuration(run),
			run.Pages,
			run.Visited,
			run.Failures,
			seedLabel,
		)
	}

	fmt.Fprintln(out, "\nUse 'sitecrawler history <run-id>' to show a run.")
	return nil
}

// formatRunDuration returns the wall time of run, or "-" if unfinished.
func formatRunDuration(run database.RunMetadata) string {
	if run.FinishedAt.IsZero() || run.FinishedAt.Before(run.StartedAt) {
		return "-"
	}
	return run.FinishedAt.Sub(run.StartedAt).Round(time.Millisecond).String()
}

// showRun prints the report of opts.runID.
func showRun(ctx context.Context, db *database.CrawlDB, out io.Writer, opts *historyOptions) error {
	crawlReport, err := db.GetRun(ctx, opts.runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if crawlReport == nil {
		return fmt.Errorf("run not found: %s", opts.runID)
	}
	return writeStoredReport(out, crawlReport, opts)
}

// showLatestRun prints the newest report, optionally restricted to opts.seed.
func showLatestRun(ctx context.Context, db *database.CrawlDB, out io.Writer, opts *historyOptions) error {
	crawlReport, err := db.GetLatestRun(ctx, opts.seed)
	if err != nil {
		return fmt.Errorf("failed to load latest run: %w", err)
	}
	if crawlReport == nil {
		if opts.seed != "" {
			return fmt.Errorf("no saved runs for %s", opts.seed)
		}
		return errors.New("no saved runs")
	}
	return writeStoredReport(out, crawlReport, opts)
}

// writeStoredReport renders a stored report with the writer opts select.
func writeStoredReport(out io.Writer, crawlReport *model.CrawlReport, opts *historyOptions) error {
	var w report.Writer
	switch {
	case opts.json:
		w = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case opts.markdown:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out,
			report.WithPrintStore(opts.print),
			report.WithVerbose(opts.verbose),
		)
	}

	if _, err := w.Write(crawlReport); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}

// listInboundLinks prints the pages of runID that link to target.
func listInboundLinks(ctx context.Context, db *database.CrawlDB, out io.Writer, runID, target string) error {
	crawlReport, err := db.GetRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to load run: %w", err)
	}
	if crawlReport == nil {
		return fmt.Errorf("run not found: %s", runID)
	}

	sources, err := db.InboundLinks(ctx, runID, target)
	if err != nil {
		return err
	}

	if len(sources) == 0 {
		fmt.Fprintf(out, "No page in run %s links to %s\n", runID, target)
		return nil
	}

	fmt.Fprintf(out, "Pages linking to %s (%d):\n\n", target, len(sources))
	for _, src := range sources {
		fmt.Fprintf(out, "  • %s\n", src)
	}
	return nil
}

// deleteRun removes runID from the archive.
func deleteRun(ctx context.Context, db *database.CrawlDB, out io.Writer, runID string) error {
	deleted, err := db.DeleteRun(ctx, runID)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if !deleted {
		return fmt.Errorf("run not found: %s", runID)
	}
	fmt.Fprintf(out, "Deleted run %s\n", runID)
	return nil
}
