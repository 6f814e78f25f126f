package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/nao1215/docs2md/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *HistoryDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// sampleRun builds a finished run with one indexed and one failed page.
func sampleRun(entry, introBody string) *model.CrawlRun {
	run := model.NewCrawlRun(entry, "out")
	run.StartedAt = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	run.FinishedAt = run.StartedAt.Add(3 * time.Second)
	run.ManifestPath = "out/llms.txt"
	run.Summary = model.NewCrawlSummary(2)

	ok := &model.PageResult{
		SourceURL: entry + "intro",
		Markdown:  introBody,
		Title:     "Intro",
		Filename:  "intro.md",
		Outcome:   model.OutcomeFetched,
		Duration:  120 * time.Millisecond,
		Degraded:  true,
	}
	bad := &model.PageResult{
		SourceURL: entry + "api",
		Outcome:   model.OutcomeFetchFailed,
		Err:       errors.New("request timed out"),
	}
	run.Summary.AddResult(ok)
	run.Summary.AddIndexed(model.IndexEntry{Filename: ok.Filename, Title: ok.Title})
	run.Summary.AddResult(bad)
	run.Summary.AddFailed(bad.SourceURL, bad.Err)
	return run
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, DBFilename)); err != nil {
			t.Errorf("database file was not created: %v", err)
		}
		if db.Path() != filepath.Join(dbDir, DBFilename) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		_, err := Open(filepath.Join(t.TempDir(), "missing"), Options{CreateIfNotExists: false})
		if err == nil {
			t.Fatal("expected error for missing database")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		db, err := Open(dir, DefaultOptions())
		if err != nil {
			t.Fatal(err)
		}
		_ = db.Close()

		db, err = Open(dir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		_ = db.Close()
	})
}

func TestSaveRunRoundTrip(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	run := sampleRun("https://example.com/docs/", "# Intro\n\nHello")

	id, err := db.SaveRun(ctx, run, nil)
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if id <= 0 {
		t.Fatalf("unexpected run id %d", id)
	}

	got, err := db.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("GetRun() error = %v", err)
	}
	if got.EntryURL != run.EntryURL || got.OutputDir != "out" {
		t.Errorf("got run %+v", got)
	}
	if got.Discovered != 2 || got.Indexed != 1 || got.Failed != 1 {
		t.Errorf("counts = %d/%d/%d, want 2/1/1", got.Discovered, got.Indexed, got.Failed)
	}
	if !got.StartedAt.Equal(run.StartedAt) || got.Elapsed() != 3*time.Second {
		t.Errorf("timing = %v, %v", got.StartedAt, got.Elapsed())
	}
	if got.ManifestPath != "out/llms.txt" || got.Error != "" {
		t.Errorf("manifest %q error %q", got.ManifestPath, got.Error)
	}

	pages, err := db.GetRunPages(ctx, id)
	if err != nil {
		t.Fatalf("GetRunPages() error = %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	// sorted by URL: api before intro
	api, intro := pages[0], pages[1]
	if api.Outcome != model.OutcomeFetchFailed || api.Error != "request timed out" || api.ContentHash != "" {
		t.Errorf("api page = %+v", api)
	}
	if intro.Outcome != model.OutcomeFetched || intro.Filename != "intro.md" || intro.Title != "Intro" {
		t.Errorf("intro page = %+v", intro)
	}
	if intro.ContentHash == "" || intro.ByteSize != len("# Intro\n\nHello") {
		t.Errorf("intro hash %q size %d", intro.ContentHash, intro.ByteSize)
	}
	if intro.Duration != 120*time.Millisecond {
		t.Errorf("intro duration = %v", intro.Duration)
	}
	if !intro.Degraded || api.Degraded {
		t.Errorf("degraded intro %v api %v, want true false", intro.Degraded, api.Degraded)
	}
}

func TestSaveRunWithFatalError(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	run := model.NewCrawlRun("https://example.com/docs/", "out")
	run.FinishedAt = run.StartedAt

	id, err := db.SaveRun(ctx, run, errors.New("failed to fetch entry page"))
	if err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	got, err := db.GetRun(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if got.Error != "failed to fetch entry page" || got.Discovered != 0 {
		t.Errorf("got %+v", got)
	}
}

func TestGetRunNotFound(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	if _, err := db.GetRun(context.Background(), 42); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()

	var ids []int64
	for _, entry := range []string{
		"https://a.example/docs/",
		"https://b.example/docs/",
		"https://a.example/docs/",
	} {
		id, err := db.SaveRun(ctx, sampleRun(entry, "body"), nil)
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, id)
	}

	t.Run("all runs newest first", func(t *testing.T) {
		runs, err := db.ListRuns(ctx, "", 0)
		if err != nil {
			t.Fatal(err)
		}
		got := make([]int64, len(runs))
		for i, r := range runs {
			got[i] = r.ID
		}
		want := []int64{ids[2], ids[1], ids[0]}
		if !slices.Equal(got, want) {
			t.Errorf("ids = %v, want %v", got, want)
		}
	})

	t.Run("filter by entry url", func(t *testing.T) {
		runs, err := db.ListRuns(ctx, "https://a.example/docs/", 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 2 {
			t.Errorf("got %d runs, want 2", len(runs))
		}
	})

	t.Run("limit", func(t *testing.T) {
		runs, err := db.ListRuns(ctx, "", 1)
		if err != nil {
			t.Fatal(err)
		}
		if len(runs) != 1 || runs[0].ID != ids[2] {
			t.Errorf("got %+v", runs)
		}
	})
}

func TestChangedPages(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	const entry = "https://example.com/docs/"

	first, err := db.SaveRun(ctx, sampleRun(entry, "version one"), nil)
	if err != nil {
		t.Fatal(err)
	}
	changed, err := db.ChangedPages(ctx, first)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(changed, []string{entry + "intro"}) {
		t.Errorf("first run changed = %v", changed)
	}

	same, err := db.SaveRun(ctx, sampleRun(entry, "version one"), nil)
	if err != nil {
		t.Fatal(err)
	}
	changed, err = db.ChangedPages(ctx, same)
	if err != nil {
		t.Fatal(err)
	}
	if len(changed) != 0 {
		t.Errorf("unchanged run reported %v", changed)
	}

	edited, err := db.SaveRun(ctx, sampleRun(entry, "version two"), nil)
	if err != nil {
		t.Fatal(err)
	}
	changed, err = db.ChangedPages(ctx, edited)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(changed, []string{entry + "intro"}) {
		t.Errorf("edited run changed = %v", changed)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want time.Time
	}{
		{"2026-03-01T10:00:00.5Z", time.Date(2026, 3, 1, 10, 0, 0, 500000000, time.UTC)},
		{"2026-03-01 10:00:00", time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)},
		{"garbage", time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.in); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}
