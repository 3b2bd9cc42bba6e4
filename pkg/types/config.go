// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "citegraph/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// OpenAlexConfig holds settings for the OpenAlex adapter.
type OpenAlexConfig struct {
	HTTPConfig `yaml:",inline"`

	// Email is sent as the mailto parameter for polite pool access.
	Email string `json:"email,omitempty" yaml:"email,omitempty"`

	// PerPage is the page size for paginated listings (default 200,
	// the OpenAlex maximum).
	PerPage int `json:"per_page" yaml:"per_page"`

	// BatchSize is the number of ids per batched filter request
	// (default 50, the OpenAlex filter limit).
	BatchSize int `json:"batch_size" yaml:"batch_size"`

	// MaxPagesPerChunk caps cursor pagination per request chunk so a
	// very large citing set cannot stall a phase (default 10). Hitting
	// the cap logs degradation and proceeds with partial results.
	MaxPagesPerChunk int `json:"max_pages_per_chunk" yaml:"max_pages_per_chunk"`

	// RequestsPerSecond throttles outbound requests (default 8).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// CacheTTL is how long fetched work records stay in the in-memory
	// cache (default 15m). Zero disables caching.
	CacheTTL time.Duration `json:"cache_ttl" yaml:"cache_ttl"`
}

// SemanticScholarConfig holds settings for the Semantic Scholar adapter.
type SemanticScholarConfig struct {
	HTTPConfig `yaml:",inline"`

	// APIKey is an optional API key for higher rate limits.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// PageLimit is the per-request limit for citations/references
	// (default 1000, the provider maximum).
	PageLimit int `json:"page_limit" yaml:"page_limit"`

	// RequestsPerSecond throttles outbound requests (default 1; the
	// unauthenticated pool is rate-limit sensitive).
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`
}

// GraphConfig holds settings for graph assembly.
type GraphConfig struct {
	// StubCreationThreshold is the minimum number of first-degree papers
	// that must share a referenced/related work before it is promoted to
	// a stub entity (default 3). Works below the threshold are dropped.
	StubCreationThreshold int `json:"stub_creation_threshold" yaml:"stub_creation_threshold"`

	// FlushInterval is the delta-coalescing window for the consumer
	// stream (default 250ms).
	FlushInterval time.Duration `json:"flush_interval" yaml:"flush_interval"`
}

// ExportConfig holds settings for snapshot export.
type ExportConfig struct {
	// Path is the sqlite database file to write (default "citegraph.db").
	Path string `json:"path" yaml:"path"`
}

// SessionConfig groups all stage configurations for one analysis session.
type SessionConfig struct {
	OpenAlex        OpenAlexConfig        `json:"openalex" yaml:"openalex"`
	SemanticScholar SemanticScholarConfig `json:"semantic_scholar" yaml:"semantic_scholar"`
	Graph           GraphConfig           `json:"graph" yaml:"graph"`
	Export          ExportConfig          `json:"export" yaml:"export"`
}

// Defaults fills zero-valued fields with their documented defaults.
func (c *SessionConfig) Defaults() {
	if c.OpenAlex.Timeout == 0 {
		c.OpenAlex.Timeout = 30 * time.Second
	}
	if c.OpenAlex.UserAgent == "" {
		c.OpenAlex.UserAgent = "citegraph/0.1"
	}
	if c.OpenAlex.PerPage <= 0 {
		c.OpenAlex.PerPage = 200
	}
	if c.OpenAlex.BatchSize <= 0 {
		c.OpenAlex.BatchSize = 50
	}
	if c.OpenAlex.MaxPagesPerChunk <= 0 {
		c.OpenAlex.MaxPagesPerChunk = 10
	}
	if c.OpenAlex.RequestsPerSecond <= 0 {
		c.OpenAlex.RequestsPerSecond = 8
	}
	if c.OpenAlex.CacheTTL == 0 {
		c.OpenAlex.CacheTTL = 15 * time.Minute
	}
	if c.SemanticScholar.Timeout == 0 {
		c.SemanticScholar.Timeout = 30 * time.Second
	}
	if c.SemanticScholar.UserAgent == "" {
		c.SemanticScholar.UserAgent = "citegraph/0.1"
	}
	if c.SemanticScholar.PageLimit <= 0 {
		c.SemanticScholar.PageLimit = 1000
	}
	if c.SemanticScholar.RequestsPerSecond <= 0 {
		c.SemanticScholar.RequestsPerSecond = 1
	}
	if c.Graph.StubCreationThreshold <= 0 {
		c.Graph.StubCreationThreshold = 3
	}
	if c.Graph.FlushInterval <= 0 {
		c.Graph.FlushInterval = 250 * time.Millisecond
	}
	if c.Export.Path == "" {
		c.Export.Path = "citegraph.db"
	}
}
