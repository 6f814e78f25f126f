package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/nao1215/docs2md/internal/config"
	"github.com/nao1215/docs2md/internal/database"
	applog "github.com/nao1215/docs2md/internal/log"
	"github.com/nao1215/docs2md/internal/model"
	"github.com/nao1215/docs2md/internal/pipeline"
	"github.com/nao1215/docs2md/internal/report"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [entry-url]",
		Short: "Crawl a documentation site and convert it to Markdown",
		Long: `Crawl fetches the entry page, collects the documentation links of its
navigation and converts every linked page to a Markdown file. An index file
listing each file with its page title is written at the end.

Settings are read from defaults, then the configuration file, then flags.
When an entry URL is given and --base-url is not, the base URL is the entry
URL's scheme and host.

Examples:
  # Crawl the PocketBase documentation (the default site)
  docs2md crawl

  # Crawl another site
  docs2md crawl https://example.com/docs/ -o example_docs

  # Slow down and write a Markdown report
  docs2md crawl --workers 2 --rate-limit 1 --report report.md

  # Print the summary as JSON
  docs2md crawl --format json`,
		Args: cobra.MaximumNArgs(1),
		RunE: runCrawlCmd,
	}

	f := cmd.Flags()
	f.StringP("config", "c", "",
		"Configuration file path (default: .docs2md in current or home directory)")

	// Site flags
	f.String("base-url", config.DefaultBaseURL, "Site root; only links on this host are followed")
	f.StringP("prefix", "p", config.DefaultDocsPrefix, "URL path prefix of documentation pages")
	f.String("site-name", "", "Site name used in the index header (default: derived from base URL)")
	f.String("title-suffix", "", `Suffix removed from <title> text (default: "| <site name>")`)
	f.String("content-class", config.DefaultContentClassPattern,
		"Regular expression matched against class names to find the main content")

	// Output flags
	f.StringP("output", "o", config.DefaultOutputDir, "Output directory")
	f.String("index", config.DefaultIndexFilename, "Index file name")
	f.String("collision", config.CollisionReport,
		"Policy for URLs sharing a file name: report or overwrite")

	// Request flags
	f.IntP("workers", "w", config.DefaultWorkers, "Number of pages processed concurrently")
	f.Duration("delay", config.DefaultRequestDelay, "Pause before each completed page is collected")
	f.Float64("rate-limit", 0, "Maximum requests per second (0 = unlimited)")
	f.DurationP("timeout", "t", config.DefaultTimeout, "Timeout of each HTTP request")
	f.String("user-agent", config.DefaultUserAgent, "User-Agent header")
	f.StringToStringP("header", "H", nil, "Extra request header (key=value, repeatable)")
	f.String("proxy", "", "Proxy URL (socks5://, socks5h://, http://, https://)")
	f.Int64("max-body-size", config.DefaultMaxBodySize, "Maximum response body size in bytes")

	// Report flags
	f.StringP("format", "f", report.FormatText, "Summary format: text, json or markdown")
	f.StringP("report", "r", "", "Write a Markdown report to this file")
	f.Bool("no-history", false, "Do not record the run in the history database")
	f.String("history-dir", "", "History database directory (default: XDG data directory)")
	f.Bool("log-json", false, "Write logs as JSON")

	return cmd
}

func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	if err := report.CheckFormat(format); err != nil {
		return err
	}

	logger := setupLogger(cmd.ErrOrStderr(), cfg.Verbose, cfg.JSONLog)
	slog.SetDefault(logger)

	return runCrawl(context.Background(), cfg, format, cmd.OutOrStdout(), logger)
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

// buildConfig layers defaults, the configuration file and the flags the
// user actually set.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	f := cmd.Flags()

	var err error
	cfg.ConfigFilePath, err = f.GetString("config")
	if err != nil {
		return nil, err
	}

	// An explicitly named config file must exist; the default ones are optional.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.ApplyTo(cfg)
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	}

	if len(args) == 1 {
		cfg.EntryURL = args[0]
		if !f.Changed("base-url") {
			if u, err := url.Parse(args[0]); err == nil && u.Host != "" {
				cfg.BaseURL = (&url.URL{Scheme: u.Scheme, Host: u.Host}).String()
			}
		}
	}

	stringFlags := map[string]*string{
		"base-url":      &cfg.BaseURL,
		"prefix":        &cfg.DocsPrefix,
		"site-name":     &cfg.SiteName,
		"title-suffix":  &cfg.TitleSuffix,
		"content-class": &cfg.ContentClassPattern,
		"output":        &cfg.OutputDir,
		"index":         &cfg.IndexFilename,
		"collision":     &cfg.CollisionPolicy,
		"user-agent":    &cfg.UserAgent,
		"proxy":         &cfg.ProxyURL,
		"report":        &cfg.ReportFile,
		"history-dir":   &cfg.HistoryDir,
	}
	for name, dst := range stringFlags {
		if !f.Changed(name) {
			continue
		}
		if *dst, err = f.GetString(name); err != nil {
			return nil, err
		}
	}

	if f.Changed("workers") {
		if cfg.Workers, err = f.GetInt("workers"); err != nil {
			return nil, err
		}
	}
	if f.Changed("delay") {
		if cfg.RequestDelay, err = f.GetDuration("delay"); err != nil {
			return nil, err
		}
	}
	if f.Changed("rate-limit") {
		if cfg.RateLimit, err = f.GetFloat64("rate-limit"); err != nil {
			return nil, err
		}
	}
	if f.Changed("timeout") {
		if cfg.Timeout, err = f.GetDuration("timeout"); err != nil {
			return nil, err
		}
	}
	if f.Changed("max-body-size") {
		if cfg.MaxBodySize, err = f.GetInt64("max-body-size"); err != nil {
			return nil, err
		}
	}
	if f.Changed("header") {
		headers, err := f.GetStringToString("header")
		if err != nil {
			return nil, err
		}
		for k, v := range headers {
			cfg.Headers[k] = v
		}
	}

	noHistory, err := f.GetBool("no-history")
	if err != nil {
		return nil, err
	}
	if noHistory {
		cfg.SaveHistory = false
	}

	if cfg.JSONLog, err = f.GetBool("log-json"); err != nil {
		return nil, err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	return cfg, nil
}

// setupLogger creates the redacting logger for a run.
func setupLogger(w io.Writer, verbose, jsonLog bool) *slog.Logger {
	if jsonLog {
		return applog.NewJSONLogger(w, verbose)
	}
	return applog.NewLogger(w, verbose)
}

// runCrawl executes one crawl, records it and prints the summary.
// The returned error is non-nil only when the crawl was aborted.
func runCrawl(ctx context.Context, cfg *config.Config, format string, out io.Writer, logger *slog.Logger) error {
	orchestrator, err := pipeline.FromConfig(cfg, logger)
	if err != nil {
		return err
	}

	run, runErr := orchestrator.Run(ctx)
	summary := report.NewRunSummary(run, runErr)

	if cfg.SaveHistory {
		recordHistory(ctx, cfg.HistoryDir, run, runErr, summary, logger)
	}

	if _, err := report.NewWriter(format, out, cfg.Verbose).Write(summary); err != nil {
		logger.Error("failed to write summary", "error", err)
	}

	if cfg.ReportFile != "" {
		if err := writeReportFile(cfg.ReportFile, summary); err != nil {
			logger.Error("failed to write report", "path", cfg.ReportFile, "error", err)
		} else {
			logger.Info("report written", "path", cfg.ReportFile)
		}
	}

	if runErr != nil {
		return fmt.Errorf("crawl aborted: %w", runErr)
	}
	return nil
}

// recordHistory saves the run and fills the summary with its ID and the
// pages that changed since the previous run. Failures are only logged.
func recordHistory(ctx context.Context, dir string, run *model.CrawlRun, runErr error, summary *report.RunSummary, logger *slog.Logger) {
	db, err := database.Open(dir, database.DefaultOptions())
	if err != nil {
		logger.Error("failed to open history database", "dir", dir, "error", err)
		return
	}
	defer db.Close()

	id, err := db.SaveRun(ctx, run, runErr)
	if err != nil {
		logger.Error("failed to save run history", "error", err)
		return
	}
	summary.RunID = id
	logger.Debug("run recorded", "id", id, "db", db.Path())

	if run.Summary == nil {
		return
	}
	changed, err := db.ChangedPages(ctx, id)
	if err != nil {
		logger.Warn("failed to compare with previous run", "error", err)
		return
	}
	if changed == nil {
		changed = []string{}
	}
	summary.ChangedURLs = changed
}

// writeReportFile writes the Markdown report to path, creating parent directories.
func writeReportFile(path string, summary *report.RunSummary) (err error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}

	file, err := os.Create(path) //nolint:gosec // user-provided report path is intentional
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}()

	_, err = report.NewMarkdownWriter(file).Write(summary)
	return err
}
