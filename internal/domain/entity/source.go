package entity

import (
	"errors"
	"fmt"
	"time"
)

// DefaultMaxEntries is applied when a source does not limit its entry count.
const DefaultMaxEntries = 10

// Source represents one configured BIP site to scrape.
// A source is fetched either through its RSS/Atom feed (when RSSURL is set)
// or by scraping the HTML page at ListURL. ChangeRegistry marks list pages
// that use the registry-of-changes layout (tables or "recently added"
// blocks) rather than a plain announcement listing.
type Source struct {
	Name           string        `yaml:"name"`
	ListURL        string        `yaml:"list_url"`
	RSSURL         string        `yaml:"rss_url"`
	ChangeRegistry bool          `yaml:"change_registry"`
	MaxEntries     int           `yaml:"max_entries"`
	Timeout        time.Duration `yaml:"-"`
}

// Validate validates the Source fields and normalizes defaults.
// A source needs a display name and at least one of RSSURL or ListURL.
func (s *Source) Validate() error {
	if s.Name == "" {
		return &ValidationError{Field: "name", Message: "source name cannot be empty"}
	}

	if s.RSSURL == "" && s.ListURL == "" {
		return &ValidationError{
			Field:   "list_url",
			Message: fmt.Sprintf("source %q needs rss_url or list_url", s.Name),
		}
	}

	if s.RSSURL != "" {
		if err := validateHTTPURL(s.RSSURL); err != nil {
			return fmt.Errorf("source %q rss_url: %w", s.Name, err)
		}
	}
	if s.ListURL != "" {
		if err := validateHTTPURL(s.ListURL); err != nil {
			return fmt.Errorf("source %q list_url: %w", s.Name, err)
		}
	}

	if s.MaxEntries < 0 {
		return &ValidationError{
			Field:   "max_entries",
			Message: fmt.Sprintf("source %q max_entries must not be negative", s.Name),
		}
	}
	if s.MaxEntries == 0 {
		s.MaxEntries = DefaultMaxEntries
	}

	return nil
}

// UsesFeed reports whether the source is fetched through its RSS/Atom feed.
// When a feed URL is configured the feed is used exclusively, even if a
// list URL is also present.
func (s *Source) UsesFeed() bool {
	return s.RSSURL != ""
}

// ErrNoSources indicates that the configuration contains no sources at all.
var ErrNoSources = errors.New("no sources configured")
