package config

import (
	"errors"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".docs2md"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File represents the structure of the .docs2md configuration file.
// Zero values mean "not set" and leave the current configuration untouched.
type File struct {
	EntryURL            string            `yaml:"entryURL,omitempty"`
	BaseURL             string            `yaml:"baseURL,omitempty"`
	DocsPrefix          string            `yaml:"docsPrefix,omitempty"`
	OutputDir           string            `yaml:"outputDir,omitempty"`
	IndexFilename       string            `yaml:"indexFilename,omitempty"`
	SiteName            string            `yaml:"siteName,omitempty"`
	TitleSuffix         string            `yaml:"titleSuffix,omitempty"`
	ContentClassPattern string            `yaml:"contentClassPattern,omitempty"`
	Workers             int               `yaml:"workers,omitempty"`
	RequestDelay        time.Duration     `yaml:"requestDelay,omitempty"`
	RateLimit           float64           `yaml:"rateLimit,omitempty"`
	Timeout             time.Duration     `yaml:"timeout,omitempty"`
	UserAgent           string            `yaml:"userAgent,omitempty"`
	Headers             map[string]string `yaml:"headers,omitempty"`
	ProxyURL            string            `yaml:"proxy,omitempty"`
	MaxBodySize         int64             `yaml:"maxBodySize,omitempty"`
	CollisionPolicy     string            `yaml:"collisionPolicy,omitempty"`
	SaveHistory         *bool             `yaml:"saveHistory,omitempty"`
	HistoryDir          string            `yaml:"historyDir,omitempty"`
	ReportFile          string            `yaml:"report,omitempty"`
}

// LoadConfigFile loads a configuration file.
// If the file does not exist, it returns ErrConfigNotFound.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .docs2md in the current directory
// 3. Look for config.yaml in the XDG config directory
// 4. Look for .docs2md in the user's home directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	candidates := make([]string, 0, 3)
	if cwd, err := os.Getwd(); err == nil {
		candidates = append(candidates, filepath.Join(cwd, DefaultConfigFile))
	}
	candidates = append(candidates, filepath.Join(XDGConfigDir(), "config.yaml"))
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, DefaultConfigFile))
	}

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c
		}
	}
	return ""
}

// ApplyTo overlays every value set in the file onto cfg.
func (cf *File) ApplyTo(cfg *Config) {
	setString(&cfg.EntryURL, cf.EntryURL)
	setString(&cfg.BaseURL, cf.BaseURL)
	setString(&cfg.DocsPrefix, cf.DocsPrefix)
	setString(&cfg.OutputDir, ExpandHome(cf.OutputDir))
	setString(&cfg.IndexFilename, cf.IndexFilename)
	setString(&cfg.SiteName, cf.SiteName)
	setString(&cfg.TitleSuffix, cf.TitleSuffix)
	setString(&cfg.ContentClassPattern, cf.ContentClassPattern)
	setString(&cfg.UserAgent, cf.UserAgent)
	setString(&cfg.ProxyURL, cf.ProxyURL)
	setString(&cfg.CollisionPolicy, cf.CollisionPolicy)
	setString(&cfg.HistoryDir, ExpandHome(cf.HistoryDir))
	setString(&cfg.ReportFile, ExpandHome(cf.ReportFile))

	if cf.Workers != 0 {
		cfg.Workers = cf.Workers
	}
	if cf.RequestDelay != 0 {
		cfg.RequestDelay = cf.RequestDelay
	}
	if cf.RateLimit != 0 {
		cfg.RateLimit = cf.RateLimit
	}
	if cf.Timeout != 0 {
		cfg.Timeout = cf.Timeout
	}
	if cf.MaxBodySize != 0 {
		cfg.MaxBodySize = cf.MaxBodySize
	}
	if cf.SaveHistory != nil {
		cfg.SaveHistory = *cf.SaveHistory
	}
	if len(cf.Headers) > 0 {
		if cfg.Headers == nil {
			cfg.Headers = make(map[string]string, len(cf.Headers))
		}
		for k, v := range cf.Headers {
			cfg.Headers[k] = v
		}
	}
}

// ExpandHome replaces a leading "~" or "~/" in path with the user's home
// directory. Other paths, and paths it cannot expand, are returned unchanged.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// ResolvedSiteName returns SiteName, or a name derived from the base URL host
// ("https://docs.example.com" -> "Example").
func (c *Config) ResolvedSiteName() string {
	if c.SiteName != "" {
		return c.SiteName
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Hostname() == "" {
		return "Documentation"
	}

	labels := strings.Split(strings.TrimPrefix(u.Hostname(), "www."), ".")
	name := labels[0]
	if len(labels) > 2 && (name == "docs" || name == "doc") {
		name = labels[1]
	}
	return cases.Title(language.English).String(name)
}

// ResolvedTitleSuffix returns TitleSuffix, or "| <site name>" when unset.
func (c *Config) ResolvedTitleSuffix() string {
	if c.TitleSuffix != "" {
		return c.TitleSuffix
	}
	return "| " + c.ResolvedSiteName()
}
