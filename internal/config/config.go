package config

import (
	"net/url"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The reference values target the PocketBase documentation site.
const (
	// DefaultEntryURL is the documentation page whose navigation seeds the crawl.
	DefaultEntryURL = "https://pocketbase.io/docs/"

	// DefaultBaseURL is the site root used to resolve links and match hosts.
	DefaultBaseURL = "https://pocketbase.io"

	// DefaultDocsPrefix scopes which URL paths count as documentation.
	DefaultDocsPrefix = "/docs"

	// DefaultOutputDir receives the Markdown files and the manifest.
	DefaultOutputDir = "pocketbase_docs_llm"

	// DefaultIndexFilename is the manifest file name.
	DefaultIndexFilename = "llms.txt"

	// DefaultWorkers is the width of the page worker pool.
	DefaultWorkers = 10

	// DefaultRequestDelay is the pause applied before consuming each completed result.
	DefaultRequestDelay = 100 * time.Millisecond

	// DefaultTimeout is the hard per-request timeout.
	DefaultTimeout = 20 * time.Second

	// DefaultUserAgent is a browser identification string.
	// Some documentation hosts reject Go's default client identifier.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

	// DefaultMaxBodySize limits how much of a response body is read.
	DefaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultContentClassPattern matches class names of common documentation
	// content containers. The first element carrying a matching class wins.
	DefaultContentClassPattern = `pb_content|markdown-body|theme-doc-markdown|md-content|docs-content|rst-content`

	// AppName is the application name used for XDG directory paths.
	AppName = "docs2md"
)

// Filename collision policies.
const (
	// CollisionReport keeps the first URL (in sorted order) for a filename and
	// fails the others before they are fetched.
	CollisionReport = "report"

	// CollisionOverwrite lets every page write its file; the last writer wins.
	CollisionOverwrite = "overwrite"
)

// Config holds all configuration options for a crawl.
// It is populated from defaults, then the config file, then CLI flags, and
// passed explicitly to the components that need it.
type Config struct {
	// EntryURL is the page fetched first; its navigation defines the page set.
	EntryURL string

	// BaseURL is the site root. Only links on its host are kept.
	BaseURL string

	// DocsPrefix is the URL path prefix that scopes documentation pages (e.g. "/docs").
	DocsPrefix string

	// OutputDir is the directory the Markdown files and manifest are written to.
	// It is created when the entry page has been fetched and links were found.
	OutputDir string

	// IndexFilename is the manifest file name inside OutputDir.
	IndexFilename string

	// SiteName is used in the manifest header. Derived from BaseURL when empty.
	SiteName string

	// TitleSuffix is stripped from <title> text when it is used as page title,
	// e.g. "| PocketBase". Derived from SiteName when empty.
	TitleSuffix string

	// ContentClassPattern is a regular expression matched against each class
	// name to find the main content region.
	ContentClassPattern string

	// Workers is the number of pages processed concurrently.
	Workers int

	// RequestDelay is the pacing delay applied before consuming each completed page.
	RequestDelay time.Duration

	// RateLimit caps outgoing requests per second. Zero disables the limit.
	RateLimit float64

	// Timeout is the per-request timeout.
	Timeout time.Duration

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// Headers are additional request headers.
	Headers map[string]string

	// ProxyURL routes requests through a proxy (socks5://, http://, https://).
	// Empty means a direct connection.
	ProxyURL string

	// MaxBodySize is the maximum response body size in bytes.
	MaxBodySize int64

	// CollisionPolicy decides what happens when two URLs map to the same file.
	CollisionPolicy string

	// Verbose enables debug logging.
	Verbose bool

	// JSONLog switches log output to JSON.
	JSONLog bool

	// SaveHistory records the run in the history database.
	SaveHistory bool

	// HistoryDir is the directory holding the history database.
	HistoryDir string

	// ReportFile, when set, receives a Markdown report of the run.
	ReportFile string

	// ConfigFilePath is the path of the YAML config file, if any.
	ConfigFilePath string

	contentClassRegexp *regexp.Regexp
}

// NewConfig creates a Config with default values.
func NewConfig() *Config {
	return &Config{
		EntryURL:            DefaultEntryURL,
		BaseURL:             DefaultBaseURL,
		DocsPrefix:          DefaultDocsPrefix,
		OutputDir:           DefaultOutputDir,
		IndexFilename:       DefaultIndexFilename,
		ContentClassPattern: DefaultContentClassPattern,
		Workers:             DefaultWorkers,
		RequestDelay:        DefaultRequestDelay,
		Timeout:             DefaultTimeout,
		UserAgent:           DefaultUserAgent,
		MaxBodySize:         DefaultMaxBodySize,
		CollisionPolicy:     CollisionReport,
		SaveHistory:         true,
		HistoryDir:          XDGDataDir(),
		Headers:             make(map[string]string),
	}
}

// XDGDataDir returns the XDG data directory for docs2md.
// On Linux: ~/.local/share/docs2md
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for docs2md.
// On Linux: ~/.config/docs2md
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// On success the content class pattern is compiled and available through
// ContentClassRegexp.
func (c *Config) Validate() error {
	if !isAbsoluteHTTPURL(c.EntryURL) {
		return ErrInvalidEntryURL
	}
	if !isAbsoluteHTTPURL(c.BaseURL) {
		return ErrInvalidBaseURL
	}
	if !strings.HasPrefix(c.DocsPrefix, "/") {
		return ErrInvalidDocsPrefix
	}
	if strings.TrimSpace(c.OutputDir) == "" {
		return ErrNoOutputDir
	}
	if c.IndexFilename == "" || strings.ContainsAny(c.IndexFilename, `/\`) {
		return ErrInvalidIndexFilename
	}
	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.RequestDelay < 0 {
		return ErrInvalidRequestDelay
	}
	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}
	if c.MaxBodySize < 0 {
		return ErrInvalidMaxBodySize
	}
	if c.CollisionPolicy != CollisionReport && c.CollisionPolicy != CollisionOverwrite {
		return ErrInvalidCollisionPolicy
	}
	if c.ProxyURL != "" {
		u, err := url.Parse(c.ProxyURL)
		if err != nil || u.Host == "" {
			return ErrInvalidProxyURL
		}
		switch u.Scheme {
		case "socks5", "socks5h", "http", "https":
		default:
			return ErrInvalidProxyURL
		}
	}

	re, err := regexp.Compile(c.ContentClassPattern)
	if err != nil || c.ContentClassPattern == "" {
		return ErrInvalidContentPattern
	}
	c.contentClassRegexp = re

	return nil
}

// ContentClassRegexp returns the compiled content class pattern.
// It is nil until Validate succeeds.
func (c *Config) ContentClassRegexp() *regexp.Regexp {
	return c.contentClassRegexp
}

// isAbsoluteHTTPURL reports whether raw is an absolute http(s) URL with a host.
func isAbsoluteHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
