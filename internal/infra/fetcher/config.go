package fetcher

import (
	"fmt"
	"time"
)

// ContentFetchConfig holds the configuration for content fetching.
type ContentFetchConfig struct {
	// Enabled controls whether full-text fetching runs at all. When false
	// entries keep whatever content scraping produced.
	Enabled bool

	// Threshold is the minimum scraped content length (in bytes) before
	// fetching. Entries at or above it are left alone.
	Threshold int

	// Timeout bounds a single HTTP request.
	Timeout time.Duration

	// MaxBodySize is the maximum HTTP response body size in bytes,
	// enforced while reading rather than from the Content-Length header.
	MaxBodySize int64

	// MaxRedirects is the maximum number of HTTP redirects to follow.
	// Every redirect target is validated like the original URL.
	MaxRedirects int

	// DenyPrivateIPs rejects URLs that resolve to private, loopback or
	// link-local addresses. Disable only in tests.
	DenyPrivateIPs bool
}

// DefaultConfig returns the default content fetching configuration.
func DefaultConfig() ContentFetchConfig {
	return ContentFetchConfig{
		Enabled:        true,
		Threshold:      200,
		Timeout:        10 * time.Second,
		MaxBodySize:    10 * 1024 * 1024, // 10MB
		MaxRedirects:   5,
		DenyPrivateIPs: true,
	}
}

// Validate checks the configuration values.
func (c *ContentFetchConfig) Validate() error {
	if c.Threshold < 0 {
		return fmt.Errorf("threshold must be non-negative, got %d", c.Threshold)
	}

	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}

	minBodySize := int64(1024)              // 1KB
	maxBodySize := int64(100 * 1024 * 1024) // 100MB
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		return fmt.Errorf("max body size must be between %d and %d bytes, got %d", minBodySize, maxBodySize, c.MaxBodySize)
	}

	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		return fmt.Errorf("max redirects must be between 0 and 10, got %d", c.MaxRedirects)
	}

	return nil
}
