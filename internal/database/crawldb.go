package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/sitecrawler/internal/model"
)

// FileName is the database file created inside the database directory.
const FileName = "sitecrawler.db"

// CrawlDB stores crawl runs in a single SQLite file.
type CrawlDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures CrawlDB behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging.
	EnableWAL bool
}

// DefaultOptions returns the default database options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// Open opens or creates a CrawlDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*CrawlDB, error) {
	dbPath := filepath.Join(dbDir, FileName)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s (use CreateIfNotExists option to create)", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports one writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	cdb := &CrawlDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := cdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return cdb, nil
}

// Close closes the database connection.
func (cdb *CrawlDB) Close() error {
	return cdb.db.Close()
}

// Path returns the database file path.
func (cdb *CrawlDB) Path() string {
	return cdb.dbPath
}

// createTables creates the database schema if it doesn't exist.
func (cdb *CrawlDB) createTables() error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL UNIQUE,
		seed TEXT NOT NULL,
		scope TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT,
		workers INTEGER NOT NULL,
		delay_ms INTEGER NOT NULL,
		canceled INTEGER NOT NULL DEFAULT 0,
		pages INTEGER NOT NULL DEFAULT 0,
		visited INTEGER NOT NULL DEFAULT 0,
		failures INTEGER NOT NULL DEFAULT 0,
		report_json TEXT NOT NULL,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_runs_seed ON runs(seed);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- Store entries of a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		url TEXT NOT NULL,
		visited INTEGER NOT NULL,
		outbound_count INTEGER NOT NULL,
		UNIQUE(run_id, url)
	);

	-- Discovered links, one row per occurrence, in discovery order
	CREATE TABLE IF NOT EXISTS edges (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id TEXT NOT NULL,
		from_url TEXT NOT NULL,
		to_url TEXT NOT NULL,
		position INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_edges_to ON edges(run_id, to_url);
	CREATE INDEX IF NOT EXISTS idx_edges_from ON edges(run_id, from_url);
	`

	_, err := cdb.db.ExecContext(context.Background(), schema)
	return err
}

// SaveCrawlReport stores report, replacing any earlier save of the same run.
func (cdb *CrawlDB) SaveCrawlReport(ctx context.Context, report *model.CrawlReport) (err error) {
	if report.RunID == "" {
		return errors.New("failed to save crawl report: empty run ID")
	}

	reportJSON, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("failed to serialize report: %w", err)
	}
	summary := model.NewSummary(report)

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = deleteRunRows(ctx, tx, report.RunID); err != nil {
		return err
	}

	var finished any
	if !report.FinishedAt.IsZero() {
		finished = formatTimestamp(report.FinishedAt)
	}

	_, err = tx.ExecContext(ctx, `
	INSERT INTO runs (run_id, seed, scope, started_at, finished_at, workers, delay_ms, canceled, pages, visited, failures, report_json)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		report.RunID,
		report.Seed,
		report.Scope(),
		formatTimestamp(report.StartedAt),
		finished,
		report.Workers,
		report.Delay.Milliseconds(),
		report.Canceled,
		summary.Pages,
		summary.Visited,
		summary.Failures,
		string(reportJSON),
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}

	pageStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, url, visited, outbound_count) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer pageStmt.Close()

	edgeStmt, err := tx.PrepareContext(ctx, `
	INSERT INTO edges (run_id, from_url, to_url, position) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare edge insert: %w", err)
	}
	defer edgeStmt.Close()

	for _, p := range report.Pages {
		if _, err = pageStmt.ExecContext(ctx, report.RunID, p.URL, p.Visited, len(p.Outbound)); err != nil {
			return fmt.Errorf("failed to save page %s: %w", p.URL, err)
		}
		for i, to := range p.Outbound {
			if _, err = edgeStmt.ExecContext(ctx, report.RunID, p.URL, to, i); err != nil {
				return fmt.Errorf("failed to save edge %s -> %s: %w", p.URL, to, err)
			}
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// deleteRunRows removes every row of runID.
func deleteRunRows(ctx context.Context, tx *sql.Tx, runID string) error {
	for _, table := range []string{"edges", "pages", "runs"} {
		// Table names come from the fixed list above.
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE run_id = ?", runID); err != nil { //nolint:gosec
			return fmt.Errorf("failed to clear %s for run %s: %w", table, runID, err)
		}
	}
	return nil
}

// GetRun retrieves the report of runID. Returns nil when the run is unknown.
func (cdb *CrawlDB) GetRun(ctx context.Context, runID string) (*model.CrawlReport, error) {
	query := `SELECT report_json FROM runs WHERE run_id = ?`

	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, runID).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	return decodeReport(reportJSON)
}

// GetLatestRun retrieves the most recent run, restricted to seed when it
// is non-empty. Returns nil when no run matches.
func (cdb *CrawlDB) GetLatestRun(ctx context.Context, seed string) (*model.CrawlReport, error) {
	query := `SELECT report_json FROM runs`
	args := make([]any, 0, 1)
	if seed != "" {
		query += " WHERE seed = ?"
		args = append(args, seed)
	}
	query += " ORDER BY started_at DESC, id DESC LIMIT 1"

	var reportJSON string
	err := cdb.db.QueryRowContext(ctx, query, args...).Scan(&reportJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest run: %w", err)
	}

	return decodeReport(reportJSON)
}

// decodeReport parses a stored report.
func decodeReport(reportJSON string) (*model.CrawlReport, error) {
	var report model.CrawlReport
	if err := json.Unmarshal([]byte(reportJSON), &report); err != nil {
		return nil, fmt.Errorf("failed to parse report: %w", err)
	}
	return &report, nil
}

// RunMetadata summarizes a stored run without loading its report.
type RunMetadata struct {
	RunID      string
	Seed       string
	Scope      string
	StartedAt  time.Time
	FinishedAt time.Time
	Workers    int
	Delay      time.Duration
	Canceled   bool
	Pages      int
	Visited    int
	Failures   int
}

// ListRuns returns stored runs, newest first. A non-empty seed restricts
// the list to runs of that seed.
func (cdb *CrawlDB) ListRuns(ctx context.Context, seed string) ([]RunMetadata, error) {
	query := `
	SELECT run_id, seed, scope, started_at, finished_at, workers, delay_ms, canceled, pages, visited, failures
	FROM runs
	`
	args := make([]any, 0, 1)
	if seed != "" {
		query += " WHERE seed = ?"
		args = append(args, seed)
	}
	query += " ORDER BY started_at DESC, id DESC"

	rows, err := cdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var results []RunMetadata
	for rows.Next() {
		var meta RunMetadata
		var started string
		var finished sql.NullString
		var delayMS int64

		if err := rows.Scan(
			&meta.RunID,
			&meta.Seed,
			&meta.Scope,
			&started,
			&finished,
			&meta.Workers,
			&delayMS,
			&meta.Canceled,
			&meta.Pages,
			&meta.Visited,
			&meta.Failures,
		); err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}

		meta.StartedAt = parseTimestamp(started)
		if finished.Valid {
			meta.FinishedAt = parseTimestamp(finished.String)
		}
		meta.Delay = time.Duration(delayMS) * time.Millisecond
		results = append(results, meta)
	}

	return results, rows.Err()
}

// InboundLinks returns the distinct pages of runID that link to url.
func (cdb *CrawlDB) InboundLinks(ctx context.Context, runID, url string) ([]string, error) {
	query := `
	SELECT DISTINCT from_url FROM edges
	WHERE run_id = ? AND to_url = ?
	ORDER BY from_url
	`

	rows, err := cdb.db.QueryContext(ctx, query, runID, url)
	if err != nil {
		return nil, fmt.Errorf("failed to query inbound links: %w", err)
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var from string
		if err := rows.Scan(&from); err != nil {
			return nil, fmt.Errorf("failed to scan inbound link: %w", err)
		}
		sources = append(sources, from)
	}

	return sources, rows.Err()
}

// DeleteRun removes runID from the archive. It reports whether the run existed.
func (cdb *CrawlDB) DeleteRun(ctx context.Context, runID string) (bool, error) {
	var exists int
	if err := cdb.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM runs WHERE run_id = ?`, runID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check run: %w", err)
	}
	if exists == 0 {
		return false, nil
	}

	tx, err := cdb.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := deleteRunRows(ctx, tx, runID); err != nil {
		_ = tx.Rollback()
		return false, err
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit delete: %w", err)
	}
	return true, nil
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	storedTimeFormat,          // formatTimestamp output
	time.RFC3339Nano,          // RFC3339 with nanoseconds
	"2006-01-02 15:04:05",     // SQLite default datetime format
	"2006-01-02T15:04:05Z",    // ISO 8601 with Z suffix
	"2006-01-02T15:04:05",     // ISO 8601 without timezone
	"2006-01-02 15:04:05.999", // SQLite with milliseconds
}

// storedTimeFormat has a fixed width so stored timestamps sort lexically.
const storedTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// formatTimestamp formats t for storage.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(storedTimeFormat)
}

// parseTimestamp attempts to parse a timestamp string using multiple formats.
// If parsing fails with all formats, returns zero time.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
