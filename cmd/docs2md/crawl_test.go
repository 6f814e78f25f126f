package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/docs2md/internal/config"
	"github.com/nao1215/docs2md/internal/pipeline"
	"github.com/nao1215/docs2md/internal/report"
)

func newDocsSite(t *testing.T, entryStatus int) *httptest.Server {
	t.Helper()
	pages := map[string]string{
		"/docs/": `<html><head><title>Docs | Example</title></head><body>
<ul><li><a href="/docs/intro">Intro</a></li><li><a href="/docs/api">API</a></li></ul>
<div class="pb_content"><h1>Overview</h1><p>Everything you need to know about Example.</p></div>
</body></html>`,
		"/docs/intro": `<html><body><main><h1>Intro</h1><p>Install Example and start it.</p></main></body></html>`,
		"/docs/api":   `<html><body><main><h1>API</h1><p>Every endpoint is documented here.</p></main></body></html>`,
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/docs/" && entryStatus != http.StatusOK {
			w.WriteHeader(entryStatus)
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

// execute runs the root command and returns stdout, stderr and the error.
func execute(args ...string) (string, string, error) {
	var out, errOut bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestCrawlCmd(t *testing.T) {
	t.Parallel()

	t.Run("crawls, records history and writes report", func(t *testing.T) {
		t.Parallel()

		srv := newDocsSite(t, http.StatusOK)
		dir := t.TempDir()
		outDir := filepath.Join(dir, "out")
		historyDir := filepath.Join(dir, "history")
		reportPath := filepath.Join(dir, "reports", "run.md")

		stdout, _, err := execute("crawl", srv.URL+"/docs/",
			"-o", outDir,
			"--history-dir", historyDir,
			"--delay", "0s",
			"--format", "json",
			"--report", reportPath,
			"--site-name", "Example",
		)
		if err != nil {
			t.Fatalf("crawl failed: %v", err)
		}

		var summary struct {
			Discovered  int      `json:"discovered"`
			Indexed     int      `json:"indexed"`
			Failed      int      `json:"failed"`
			RunID       int64    `json:"run_id"`
			ChangedURLs []string `json:"changed_urls"`
		}
		if err := json.Unmarshal([]byte(stdout), &summary); err != nil {
			t.Fatalf("summary is not JSON: %v\n%s", err, stdout)
		}
		if summary.Discovered != 3 || summary.Indexed != 3 || summary.Failed != 0 {
			t.Errorf("summary = %+v", summary)
		}
		if summary.RunID != 1 {
			t.Errorf("run id = %d, want 1", summary.RunID)
		}
		if len(summary.ChangedURLs) != 3 {
			t.Errorf("changed = %v, want all 3 pages on first run", summary.ChangedURLs)
		}

		manifest, err := os.ReadFile(filepath.Join(outDir, config.DefaultIndexFilename)) //nolint:gosec // test file
		if err != nil {
			t.Fatal(err)
		}
		want := "# Example Documentation Index for LLM\n" +
			"# Format: filename.md: Page Title/Description\n\n" +
			"api.md: API\n" +
			"index.md: Overview\n" +
			"intro.md: Intro\n"
		if string(manifest) != want {
			t.Errorf("manifest =\n%s\nwant\n%s", manifest, want)
		}

		reportData, err := os.ReadFile(reportPath) //nolint:gosec // test file
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if !strings.Contains(string(reportData), "# Documentation Crawl Report") {
			t.Error("unexpected report content")
		}

		// history lists the run and its pages
		stdout, _, err = execute("history", "--history-dir", historyDir)
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(stdout, srv.URL+"/docs/") || !strings.Contains(stdout, "1 runs") {
			t.Errorf("history output = %q", stdout)
		}

		stdout, _, err = execute("history", "1", "--history-dir", historyDir)
		if err != nil {
			t.Fatalf("history 1 failed: %v", err)
		}
		for _, wantLine := range []string{"intro.md", "api.md", "fetched", "3 found, 3 indexed, 0 failed"} {
			if !strings.Contains(stdout, wantLine) {
				t.Errorf("history 1 output missing %q:\n%s", wantLine, stdout)
			}
		}
	})

	t.Run("entry failure exits with error", func(t *testing.T) {
		t.Parallel()

		srv := newDocsSite(t, http.StatusInternalServerError)
		dir := t.TempDir()
		outDir := filepath.Join(dir, "out")

		stdout, _, err := execute("crawl", srv.URL+"/docs/", "-o", outDir, "--no-history", "--delay", "0s")

		var entryErr *pipeline.EntryFetchError
		if !errors.As(err, &entryErr) {
			t.Fatalf("expected *EntryFetchError, got %v", err)
		}
		if !strings.Contains(stdout, "ERROR - ") {
			t.Errorf("summary should report the error: %q", stdout)
		}
		if _, statErr := os.Stat(outDir); !os.IsNotExist(statErr) {
			t.Error("output directory must not exist")
		}
	})

	t.Run("invalid configuration", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute("crawl", "https://example.com/docs/", "--workers", "0", "--no-history")
		if !errors.Is(err, config.ErrInvalidWorkers) {
			t.Errorf("expected ErrInvalidWorkers, got %v", err)
		}
	})

	t.Run("unknown output format", func(t *testing.T) {
		t.Parallel()

		outDir := filepath.Join(t.TempDir(), "out")
		_, _, err := execute("crawl", "https://example.com/docs/", "-o", outDir, "--format", "yaml", "--no-history")
		if !errors.Is(err, report.ErrUnknownFormat) {
			t.Errorf("expected ErrUnknownFormat, got %v", err)
		}
		if _, statErr := os.Stat(outDir); !os.IsNotExist(statErr) {
			t.Error("nothing should be crawled with an unknown format")
		}
	})

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute("crawl", "-c", filepath.Join(t.TempDir(), "missing.yaml"))
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	configPath := filepath.Join(t.TempDir(), "docs2md.yaml")
	content := `entryURL: https://file.example/docs/
baseURL: https://file.example
workers: 4
timeout: 5s
outputDir: from_file
headers:
  X-From: file
`
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatal(err)
	}

	t.Run("file overrides defaults", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", configPath}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, nil)
		if err != nil {
			t.Fatal(err)
		}
		if cfg.EntryURL != "https://file.example/docs/" || cfg.Workers != 4 || cfg.Timeout != 5*time.Second {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.OutputDir != "from_file" || cfg.Headers["X-From"] != "file" {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.Workers == config.DefaultWorkers {
			t.Error("unset flag default must not override the file")
		}
	})

	t.Run("flags override file", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{
			"-c", configPath,
			"-w", "2",
			"-o", "from_flag",
			"-H", "X-Token=abc",
			"--collision", config.CollisionOverwrite,
			"--no-history",
		}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"https://arg.example/guide/"})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.Workers != 2 || cfg.OutputDir != "from_flag" {
			t.Errorf("cfg = %+v", cfg)
		}
		if cfg.EntryURL != "https://arg.example/guide/" || cfg.BaseURL != "https://arg.example" {
			t.Errorf("entry %q base %q", cfg.EntryURL, cfg.BaseURL)
		}
		if cfg.Headers["X-Token"] != "abc" || cfg.Headers["X-From"] != "file" {
			t.Errorf("headers = %v", cfg.Headers)
		}
		if cfg.CollisionPolicy != config.CollisionOverwrite || cfg.SaveHistory {
			t.Errorf("collision %q history %v", cfg.CollisionPolicy, cfg.SaveHistory)
		}
	})

	t.Run("explicit base url wins over entry argument", func(t *testing.T) {
		t.Parallel()

		cmd := NewCrawlCmd()
		if err := cmd.ParseFlags([]string{"-c", configPath, "--base-url", "https://other.example"}); err != nil {
			t.Fatal(err)
		}
		cfg, err := buildConfig(cmd, []string{"https://arg.example/docs/"})
		if err != nil {
			t.Fatal(err)
		}
		if cfg.BaseURL != "https://other.example" {
			t.Errorf("base = %q", cfg.BaseURL)
		}
	})
}
