package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"bip-digest/internal/domain/entity"
)

// HTMLFetcher fetches entries by scraping a BIP listing page with goquery.
// No layout is assumed beyond "entries are repeated sibling elements
// containing a link and a text label"; the concrete shapes are covered by
// the matcher sequence.
type HTMLFetcher struct {
	client    *http.Client
	userAgent string
}

// NewHTMLFetcher creates a new HTMLFetcher with the given HTTP client.
// An empty userAgent falls back to DefaultUserAgent.
func NewHTMLFetcher(client *http.Client, userAgent string) *HTMLFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &HTMLFetcher{client: client, userAgent: userAgent}
}

// Fetch retrieves the source's listing page and extracts entry candidates.
// Matchers are tried in sequence and the first one yielding entries wins.
// A page where no matcher finds anything is a genuinely empty registry:
// zero entries, no error.
func (f *HTMLFetcher) Fetch(ctx context.Context, src entity.Source) ([]entity.Entry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src.ListURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", f.userAgent)

	doc, pageURL, err := fetchDocument(f.client, req)
	if err != nil {
		return nil, fmt.Errorf("fetch listing page: %w", err)
	}

	for _, match := range matchersFor(src) {
		if entries := match(doc, pageURL, src.MaxEntries); len(entries) > 0 {
			return entries, nil
		}
	}

	slog.Debug("no matcher extracted entries",
		slog.String("source", src.Name),
		slog.String("list_url", src.ListURL),
		slog.Bool("change_registry", src.ChangeRegistry))
	return nil, nil
}

// matchersFor returns the matcher sequence for a source. Change-registry
// pages get the table and "recently added" layouts plus a main-content
// fallback; plain listings get the common announcement shapes.
func matchersFor(src entity.Source) []matcher {
	if src.ChangeRegistry {
		return []matcher{registryTableMatcher, recentBlocksMatcher, mainContentMatcher}
	}
	return []matcher{listingMatcher}
}
