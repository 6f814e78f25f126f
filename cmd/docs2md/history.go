package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/nao1215/docs2md/internal/config"
	"github.com/nao1215/docs2md/internal/database"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show previous crawl runs",
		Long: `History lists the crawl runs recorded in the history database, newest first.
With a run ID it lists the outcome of every page of that run.

Examples:
  # List recent runs
  docs2md history

  # List runs of one site
  docs2md history --entry https://pocketbase.io/docs/

  # Show the pages of run 3
  docs2md history 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .docs2md in current or home directory)")
	cmd.Flags().String("history-dir", "", "History database directory (default: historyDir of the config file, else XDG data directory)")
	cmd.Flags().StringP("entry", "e", "", "Only list runs of this entry URL")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list (0 = all)")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, args []string) error {
	var runID int64
	if len(args) == 1 {
		id, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("invalid run ID: %q", args[0])
		}
		runID = id
	}

	dir, err := resolveHistoryDir(cmd)
	if err != nil {
		return err
	}

	db, err := database.Open(dir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No crawl history found.")
		fmt.Fprintln(cmd.OutOrStdout(), "\nUse 'docs2md crawl' to crawl a documentation site.")
		return nil //nolint:nilerr // a missing database just means no history yet
	}
	defer db.Close()

	ctx := context.Background()
	if runID > 0 {
		return showRun(ctx, cmd.OutOrStdout(), db, runID)
	}

	entry, err := cmd.Flags().GetString("entry")
	if err != nil {
		return err
	}
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	return listRuns(ctx, cmd.OutOrStdout(), db, entry, limit)
}

// resolveHistoryDir returns --history-dir when set, else the historyDir of
// the configuration file, else the default data directory.
func resolveHistoryDir(cmd *cobra.Command) (string, error) {
	f := cmd.Flags()
	if f.Changed("history-dir") {
		return f.GetString("history-dir")
	}

	configFlag, err := f.GetString("config")
	if err != nil {
		return "", err
	}
	cfg := config.NewConfig()
	configPath := config.FindConfigFile(configFlag)
	switch {
	case configPath != "":
		file, err := config.LoadConfigFile(configPath)
		if err != nil {
			return "", fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		file.ApplyTo(cfg)
	case configFlag != "":
		return "", fmt.Errorf("%w: %s", config.ErrConfigNotFound, configFlag)
	}
	return cfg.HistoryDir, nil
}

func listRuns(ctx context.Context, out io.Writer, db *database.HistoryDB, entry string, limit int) error {
	runs, err := db.ListRuns(ctx, entry, limit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	if len(runs) == 0 {
		fmt.Fprintln(out, "No crawl history found.")
		return nil
	}

	fmt.Fprintf(out, "Crawl history (%d runs):\n\n", len(runs))
	fmt.Fprintf(out, "  %-6s  %-20s  %-10s  %7s  %7s  %7s  %s\n",
		"ID", "Date", "Elapsed", "Found", "Indexed", "Failed", "Entry URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))

	for _, r := range runs {
		entryURL := r.EntryURL
		if r.Error != "" {
			entryURL += "  (aborted)"
		}
		fmt.Fprintf(out, "  %-6d  %-20s  %-10s  %7d  %7d  %7d  %s\n",
			r.ID,
			r.StartedAt.Local().Format("2006-01-02 15:04:05"),
			r.Elapsed().Round(time.Millisecond),
			r.Discovered,
			r.Indexed,
			r.Failed,
			entryURL,
		)
	}
	fmt.Fprintln(out, "\nUse 'docs2md history <id>' to see the pages of a run.")
	return nil
}

func showRun(ctx context.Context, out io.Writer, db *database.HistoryDB, id int64) error {
	run, err := db.GetRun(ctx, id)
	if err != nil {
		return err
	}
	pages, err := db.GetRunPages(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %d: %s\n", run.ID, run.EntryURL)
	fmt.Fprintf(out, "  Started:  %s\n", run.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(out, "  Elapsed:  %s\n", run.Elapsed().Round(time.Millisecond))
	fmt.Fprintf(out, "  Output:   %s\n", run.OutputDir)
	fmt.Fprintf(out, "  Pages:    %d found, %d indexed, %d failed\n", run.Discovered, run.Indexed, run.Failed)
	if run.Error != "" {
		fmt.Fprintf(out, "  Error:    %s\n", run.Error)
	}
	fmt.Fprintln(out)

	if len(pages) == 0 {
		fmt.Fprintln(out, "No pages recorded.")
		return nil
	}

	fmt.Fprintf(out, "  %-18s  %-30s  %s\n", "Outcome", "File", "URL")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 90))
	for _, p := range pages {
		file := p.Filename
		if file == "" {
			file = "-"
		}
		outcome := p.Outcome.String()
		if p.Degraded {
			outcome += " (text)"
		}
		fmt.Fprintf(out, "  %-18s  %-30s  %s\n", outcome, file, p.URL)
		if p.Error != "" {
			fmt.Fprintf(out, "  %-18s  %s\n", "", p.Error)
		}
	}
	return nil
}
