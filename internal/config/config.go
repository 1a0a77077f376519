// Package config defines the validated configuration structures the
// rest of the crawler consumes. Parsing from disk (TOML) lives in
// load.go; this file defines the shapes and their validation rules.
package config

import "fmt"

// Config is the crawler's operational configuration.
type Config struct {
	Crawler   CrawlerConfig   `toml:"crawler"`
	Discovery DiscoveryConfig `toml:"discovery"`
	Cleaning  CleaningConfig  `toml:"cleaning"`
}

// CrawlerConfig controls the HTTP fetcher and bounded fan-out stages.
type CrawlerConfig struct {
	UserAgent            string `toml:"user_agent"`
	TimeoutSecs          int    `toml:"timeout_secs"`
	SitemapTimeoutSecs   int    `toml:"sitemap_timeout_secs"`
	RequestDelayMs       int    `toml:"request_delay_ms"`
	MaxConcurrent        int    `toml:"max_concurrent"`
}

// DiscoveryConfig controls board discovery (C4).
type DiscoveryConfig struct {
	MaxBoardNameLength int      `toml:"max_board_name_length"`
	BlacklistPatterns  []string `toml:"blacklist_patterns"`
}

// DateReplacement is a from/to pair applied during date cleaning.
type DateReplacement struct {
	From string `toml:"from"`
	To   string `toml:"to"`
}

// CleaningConfig controls notice title/date cleaning (C6).
type CleaningConfig struct {
	TitleRemovePatterns []string          `toml:"title_remove_patterns"`
	DateRemovePatterns  []string          `toml:"date_remove_patterns"`
	DateReplacements    []DateReplacement `toml:"date_replacements"`
}

// Validate checks the configuration per spec.md §6: non-empty user
// agent, all numeric fields > 0.
func (c Config) Validate() error {
	if c.Crawler.UserAgent == "" {
		return fmt.Errorf("config: crawler.user_agent must not be empty")
	}
	if c.Crawler.TimeoutSecs <= 0 {
		return fmt.Errorf("config: crawler.timeout_secs must be > 0")
	}
	if c.Crawler.SitemapTimeoutSecs <= 0 {
		return fmt.Errorf("config: crawler.sitemap_timeout_secs must be > 0")
	}
	if c.Crawler.RequestDelayMs <= 0 {
		return fmt.Errorf("config: crawler.request_delay_ms must be > 0")
	}
	if c.Crawler.MaxConcurrent <= 0 {
		return fmt.Errorf("config: crawler.max_concurrent must be > 0")
	}
	if c.Discovery.MaxBoardNameLength <= 0 {
		return fmt.Errorf("config: discovery.max_board_name_length must be > 0")
	}
	return nil
}

// ClampedConcurrency returns MaxConcurrent clamped to at least 1, per
// spec.md §4.5 ("clamped to >= 1").
func (c Config) ClampedConcurrency() int {
	if c.Crawler.MaxConcurrent < 1 {
		return 1
	}
	return c.Crawler.MaxConcurrent
}
