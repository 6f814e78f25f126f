package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/nao1215/docs2md/internal/model"
)

// DBFilename is the history database file name inside its directory.
const DBFilename = "docs2md.db"

// ErrRunNotFound is returned when a run ID does not exist.
var ErrRunNotFound = errors.New("run not found")

// HistoryDB stores crawl runs and their page results in SQLite.
// One database file holds the history of every site crawled.
type HistoryDB struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures HistoryDB behavior.
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

// Open opens or creates a HistoryDB in dbDir.
// If CreateIfNotExists is false and the database doesn't exist, an error is returned.
func Open(dbDir string, opts Options) (*HistoryDB, error) {
	dbPath := filepath.Join(dbDir, DBFilename)

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("history database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// mode=rw refuses to create a missing file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite only supports one writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	hdb := &HistoryDB{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := hdb.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return hdb, nil
}

// Path returns the database file path.
func (hdb *HistoryDB) Path() string {
	return hdb.dbPath
}

// Close closes the database connection.
func (hdb *HistoryDB) Close() error {
	return hdb.db.Close()
}

func (hdb *HistoryDB) createTables() error {
	schema := `
	-- One row per crawl run
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		entry_url TEXT NOT NULL,
		output_dir TEXT NOT NULL,
		started_at TEXT NOT NULL,
		finished_at TEXT NOT NULL,
		discovered INTEGER NOT NULL DEFAULT 0,
		indexed INTEGER NOT NULL DEFAULT 0,
		failed INTEGER NOT NULL DEFAULT 0,
		manifest_path TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_runs_entry ON runs(entry_url);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);

	-- One row per page result of a run
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		run_id INTEGER NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
		url TEXT NOT NULL,
		outcome TEXT NOT NULL,
		filename TEXT,
		title TEXT,
		content_hash TEXT,
		byte_size INTEGER NOT NULL DEFAULT 0,
		duration_ms INTEGER NOT NULL DEFAULT 0,
		degraded INTEGER NOT NULL DEFAULT 0,
		error TEXT,
		UNIQUE(run_id, url)
	);

	CREATE INDEX IF NOT EXISTS idx_pages_run ON pages(run_id);
	CREATE INDEX IF NOT EXISTS idx_pages_url ON pages(url);
	`

	_, err := hdb.db.ExecContext(context.Background(), schema)
	return err
}

// RunRecord is a stored crawl run.
type RunRecord struct {
	ID           int64
	EntryURL     string
	OutputDir    string
	StartedAt    time.Time
	FinishedAt   time.Time
	Discovered   int
	Indexed      int
	Failed       int
	ManifestPath string

	// Error is the fatal error that aborted the run, if any.
	Error string
}

// Elapsed returns the run duration.
func (r RunRecord) Elapsed() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// PageRecord is a stored page result.
type PageRecord struct {
	ID          int64
	RunID       int64
	URL         string
	Outcome     model.Outcome
	Filename    string
	Title       string
	ContentHash string
	ByteSize    int
	Duration    time.Duration
	Error       string

	// Degraded is set when the page was saved as plain text.
	Degraded bool
}

// SaveRun stores run and all its page results in one transaction and
// returns the new run ID. runErr is the fatal error of the run, if any.
func (hdb *HistoryDB) SaveRun(ctx context.Context, run *model.CrawlRun, runErr error) (id int64, err error) {
	tx, err := hdb.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	var discovered, indexed, failed int
	var results []*model.PageResult
	if run.Summary != nil {
		discovered = run.Summary.TotalDiscovered
		indexed = run.Summary.IndexedCount()
		failed = run.Summary.FailedCount()
		results = run.Summary.Results()
	}

	res, err := tx.ExecContext(ctx, `
	INSERT INTO runs (entry_url, output_dir, started_at, finished_at, discovered, indexed, failed, manifest_path, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.EntryURL,
		run.OutputDir,
		formatTimestamp(run.StartedAt),
		formatTimestamp(run.FinishedAt),
		discovered,
		indexed,
		failed,
		run.ManifestPath,
		errorText(runErr),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert run: %w", err)
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("failed to read run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
	INSERT INTO pages (run_id, url, outcome, filename, title, content_hash, byte_size, duration_ms, degraded, error)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(run_id, url) DO UPDATE SET
		outcome = excluded.outcome,
		filename = excluded.filename,
		title = excluded.title,
		content_hash = excluded.content_hash,
		byte_size = excluded.byte_size,
		duration_ms = excluded.duration_ms,
		degraded = excluded.degraded,
		error = excluded.error
	`)
	if err != nil {
		return 0, fmt.Errorf("failed to prepare page insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err = stmt.ExecContext(ctx,
			id,
			r.SourceURL,
			r.Outcome.String(),
			r.Filename,
			r.Title,
			r.ContentHash(),
			len(r.Markdown),
			r.Duration.Milliseconds(),
			r.Degraded,
			errorText(r.Err),
		); err != nil {
			return 0, fmt.Errorf("failed to insert page %s: %w", r.SourceURL, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit run: %w", err)
	}
	return id, nil
}

const runColumns = `id, entry_url, output_dir, started_at, finished_at, discovered, indexed, failed, manifest_path, error`

// ListRuns returns stored runs, newest first. An empty entryURL matches
// every site; a non-positive limit returns all runs.
func (hdb *HistoryDB) ListRuns(ctx context.Context, entryURL string, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs WHERE 1=1`
	args := make([]any, 0, 2)

	if entryURL != "" {
		query += " AND entry_url = ?"
		args = append(args, entryURL)
	}
	query += " ORDER BY id DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := hdb.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, rows.Err()
}

// GetRun returns one run. It returns ErrRunNotFound for an unknown ID.
func (hdb *HistoryDB) GetRun(ctx context.Context, id int64) (*RunRecord, error) {
	row := hdb.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	return r, err
}

// GetRunPages returns the page results of a run sorted by URL.
func (hdb *HistoryDB) GetRunPages(ctx context.Context, runID int64) ([]PageRecord, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT id, run_id, url, outcome, filename, title, content_hash, byte_size, duration_ms, degraded, error
	FROM pages
	WHERE run_id = ?
	ORDER BY url
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get run pages: %w", err)
	}
	defer rows.Close()

	var pages []PageRecord
	for rows.Next() {
		var p PageRecord
		var outcome string
		var filename, title, hash, errText sql.NullString
		var durationMS int64

		if err := rows.Scan(&p.ID, &p.RunID, &p.URL, &outcome, &filename, &title,
			&hash, &p.ByteSize, &durationMS, &p.Degraded, &errText); err != nil {
			return nil, fmt.Errorf("failed to scan page: %w", err)
		}
		p.Outcome, _ = model.ParseOutcome(outcome)
		p.Filename = filename.String
		p.Title = title.String
		p.ContentHash = hash.String
		p.Duration = time.Duration(durationMS) * time.Millisecond
		p.Error = errText.String
		pages = append(pages, p)
	}
	return pages, rows.Err()
}

// ChangedPages compares the content hashes of run with the previous run of
// the same entry URL and returns the URLs whose saved content differs or
// that were not saved before. All saved URLs count as changed when there is
// no previous run.
func (hdb *HistoryDB) ChangedPages(ctx context.Context, runID int64) ([]string, error) {
	rows, err := hdb.db.QueryContext(ctx, `
	SELECT cur.url
	FROM pages cur
	JOIN runs r ON r.id = cur.run_id
	LEFT JOIN pages prev ON prev.url = cur.url AND prev.run_id = (
		SELECT MAX(p.id) FROM runs p
		WHERE p.entry_url = r.entry_url AND p.id < r.id
	)
	WHERE cur.run_id = ?
	  AND cur.content_hash <> ''
	  AND (prev.content_hash IS NULL OR prev.content_hash <> cur.content_hash)
	ORDER BY cur.url
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to compare runs: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// rowScanner is implemented by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var r RunRecord
	var started, finished string
	var manifest, errText sql.NullString

	err := row.Scan(&r.ID, &r.EntryURL, &r.OutputDir, &started, &finished,
		&r.Discovered, &r.Indexed, &r.Failed, &manifest, &errText)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan run: %w", err)
	}

	r.StartedAt = parseTimestamp(started)
	r.FinishedAt = parseTimestamp(finished)
	r.ManifestPath = manifest.String
	r.Error = errText.String
	return &r, nil
}

func errorText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// timestampFormats contains the timestamp formats that SQLite may return.
// The order matters: more specific formats should come first.
var timestampFormats = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
}

// parseTimestamp parses s using each known format and returns the zero time
// when none matches.
func parseTimestamp(s string) time.Time {
	for _, format := range timestampFormats {
		if t, err := time.Parse(format, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
