package scraper

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/mmcdole/gofeed"

	"bip-digest/internal/domain/entity"
)

// summaryLimit caps the summary excerpt taken from a feed item description.
const summaryLimit = 500

// RSSFetcher fetches entries from a source's RSS/Atom feed using gofeed.
// When a source configures a feed URL, the feed is used exclusively and the
// HTML listing is never scraped.
type RSSFetcher struct {
	client    *http.Client
	userAgent string
}

// NewRSSFetcher creates a new RSSFetcher with the given HTTP client.
func NewRSSFetcher(client *http.Client, userAgent string) *RSSFetcher {
	if userAgent == "" {
		userAgent = DefaultUserAgent
	}
	return &RSSFetcher{client: client, userAgent: userAgent}
}

// Fetch retrieves and parses the source's feed. Each feed item maps to one
// entry; items lacking a title or link are discarded and relative links are
// resolved against the feed's own link (falling back to the feed URL).
func (f *RSSFetcher) Fetch(ctx context.Context, src entity.Source) ([]entity.Entry, error) {
	fp := gofeed.NewParser()
	fp.UserAgent = f.userAgent
	fp.Client = f.client

	feed, err := fp.ParseURLWithContext(src.RSSURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed: %w", err)
	}

	base, err := url.Parse(feed.Link)
	if err != nil || feed.Link == "" {
		base, err = url.Parse(src.RSSURL)
		if err != nil {
			return nil, fmt.Errorf("parse feed URL: %w", err)
		}
	}

	entries := make([]entity.Entry, 0, len(feed.Items))
	for _, it := range feed.Items {
		if len(entries) >= src.MaxEntries {
			break
		}
		if it.Title == "" || it.Link == "" {
			continue
		}

		link := resolveLink(base, it.Link)
		if link == "" {
			continue
		}

		// Feeds without a content element carry the body in the description.
		content := it.Content
		if content == "" {
			content = it.Description
		}

		entry := entity.Entry{
			Title:   it.Title,
			URL:     link,
			Summary: truncateRunes(it.Description, summaryLimit),
			Content: content,
		}
		if it.PublishedParsed != nil {
			published := *it.PublishedParsed
			entry.Published = &published
		} else if it.UpdatedParsed != nil {
			published := *it.UpdatedParsed
			entry.Published = &published
		}

		entries = append(entries, entry)
	}

	return entries, nil
}
