package model

import "time"

// Config holds all runtime settings. Field tags serve both viper (mapstructure)
// and the YAML written by `config init`.
type Config struct {
	HTTP         HTTPConfig         `mapstructure:"http" yaml:"http"`
	Catalog      CatalogConfig      `mapstructure:"catalog" yaml:"catalog"`
	Cache        CacheConfig        `mapstructure:"cache" yaml:"cache"`
	RateLimiting RateLimitingConfig `mapstructure:"rate_limiting" yaml:"rate_limiting"`
	Bot          BotConfig          `mapstructure:"bot" yaml:"bot"`
	Twitter      TwitterConfig      `mapstructure:"twitter" yaml:"twitter"`
	Log          LogConfig          `mapstructure:"log" yaml:"log"`
}

type HTTPConfig struct {
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout"`
	UserAgent     string        `mapstructure:"user_agent" yaml:"user_agent"`
	MaxBodyBytes  int64         `mapstructure:"max_body_bytes" yaml:"max_body_bytes"`
	HTTPProxy     string        `mapstructure:"http_proxy" yaml:"http_proxy,omitempty"`
	HTTPSProxy    string        `mapstructure:"https_proxy" yaml:"https_proxy,omitempty"`
	NoProxy       string        `mapstructure:"no_proxy" yaml:"no_proxy,omitempty"`
	RespectRobots bool          `mapstructure:"respect_robots" yaml:"respect_robots"`
}

type CatalogConfig struct {
	OpenLibraryURL string `mapstructure:"openlibrary_url" yaml:"openlibrary_url"`
	ArchiveURL     string `mapstructure:"archive_url" yaml:"archive_url"`
	SearchRows     int    `mapstructure:"search_rows" yaml:"search_rows"`
}

type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir       string        `mapstructure:"dir" yaml:"dir"`
	MemoryTTL time.Duration `mapstructure:"memory_ttl" yaml:"memory_ttl"`
	DiskTTL   time.Duration `mapstructure:"disk_ttl" yaml:"disk_ttl"`
}

type RateLimitingConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	BurstSize         int     `mapstructure:"burst_size" yaml:"burst_size"`
}

type BotConfig struct {
	CursorFile   string        `mapstructure:"cursor_file" yaml:"cursor_file"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval"`
	MentionLimit int           `mapstructure:"mention_limit" yaml:"mention_limit"`
	Concurrency  int           `mapstructure:"concurrency" yaml:"concurrency"`
	DryRun       bool          `mapstructure:"dry_run" yaml:"dry_run"`
	HelpURL      string        `mapstructure:"help_url" yaml:"help_url"`
}

type TwitterConfig struct {
	APIURL      string `mapstructure:"api_url" yaml:"api_url"`
	BearerToken string `mapstructure:"bearer_token" yaml:"-"` // env only, never written to disk
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"` // text or json
}

// DefaultConfig returns the built-in defaults
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "BorrowBot/0.1 (+https://github.com/ppiankov/borrowbot)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Catalog: CatalogConfig{
			OpenLibraryURL: "https://openlibrary.org",
			ArchiveURL:     "https://archive.org",
			SearchRows:     50,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".borrowbot-cache",
			MemoryTTL: 1 * time.Hour,
			DiskTTL:   7 * 24 * time.Hour,
		},
		RateLimiting: RateLimitingConfig{
			RequestsPerSecond: 2,
			BurstSize:         5,
		},
		Bot: BotConfig{
			CursorFile:   "last_seen_id.txt",
			PollInterval: 15 * time.Second,
			MentionLimit: 128,
			Concurrency:  4,
			HelpURL:      "https://github.com/internetarchive/openlibrary-bots",
		},
		Twitter: TwitterConfig{
			APIURL: "https://api.twitter.com",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}
