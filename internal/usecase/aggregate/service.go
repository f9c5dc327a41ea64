package aggregate

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"bip-digest/internal/domain/entity"
	"bip-digest/internal/observability/metrics"
)

// defaultSourceTimeout bounds a single source scrape when neither the source
// nor the service configures one.
const defaultSourceTimeout = 30 * time.Second

// EntryFetcher is an interface for fetching entries from a single source.
// The RSS fetcher and the HTML scraper both implement it.
type EntryFetcher interface {
	Fetch(ctx context.Context, src entity.Source) ([]entity.Entry, error)
}

// ContentFetchConfig holds configuration for content enhancement behavior.
type ContentFetchConfig struct {
	// Threshold is the minimum content length (in bytes) below which the
	// full text is fetched from the entry URL.
	Threshold int
}

// Service collects entries from all configured sources. Sources are scraped
// sequentially and a failing source never aborts the run; it is logged,
// counted and skipped.
type Service struct {
	RSSFetcher     EntryFetcher
	HTMLFetcher    EntryFetcher
	ContentFetcher ContentFetcher // nil disables content enhancement
	Sources        []entity.Source
	SourceTimeout  time.Duration
	contentConfig  ContentFetchConfig
}

// NewService creates a new aggregation Service.
//
// rssFetcher handles sources with a feed URL, htmlFetcher everything else.
// contentFetcher may be nil to disable full-text enhancement.
func NewService(
	rssFetcher EntryFetcher,
	htmlFetcher EntryFetcher,
	contentFetcher ContentFetcher,
	sources []entity.Source,
	sourceTimeout time.Duration,
	contentConfig ContentFetchConfig,
) Service {
	return Service{
		RSSFetcher:     rssFetcher,
		HTMLFetcher:    htmlFetcher,
		ContentFetcher: contentFetcher,
		Sources:        sources,
		SourceTimeout:  sourceTimeout,
		contentConfig:  contentConfig,
	}
}

// CollectStats contains statistics about a collection run.
type CollectStats struct {
	Sources    int
	Failed     int
	Entries    int
	Duplicated int
	Undated    int
	Duration   time.Duration
}

// Collect scrapes every configured source in order and returns the combined
// entry list:
//  1. Each source is fetched with its own timeout; failures are logged and
//     the remaining sources are still scraped.
//  2. Entries are stamped with their source name.
//  3. Entries whose URL was already produced by an earlier source are
//     dropped (first occurrence wins).
//  4. Dated entries come first, newest to oldest; undated entries follow in
//     the order they were scraped.
//
// Collect returns ErrNoEntries when every source yielded nothing; a run with
// an empty registry day across the board has nothing to analyze.
func (s *Service) Collect(ctx context.Context) ([]entity.Entry, *CollectStats, error) {
	logger := slog.Default()
	start := time.Now()
	stats := &CollectStats{Sources: len(s.Sources)}
	// Every exit carries the elapsed time, error paths included.
	defer func() { stats.Duration = time.Since(start) }()

	if len(s.Sources) == 0 {
		return nil, stats, entity.ErrNoSources
	}
	metrics.UpdateSourcesConfigured(len(s.Sources))

	var collected []entity.Entry
	seen := make(map[string]bool)

	for _, src := range s.Sources {
		if err := ctx.Err(); err != nil {
			return nil, stats, err
		}

		entries, err := s.fetchSource(ctx, src)
		if err != nil {
			// Run-level cancellation is not a source failure.
			if errors.Is(err, context.Canceled) && ctx.Err() != nil {
				return nil, stats, err
			}
			stats.Failed++
			errorType := "fetch_failed"
			if errors.Is(err, context.DeadlineExceeded) {
				errorType = "timeout"
			}
			metrics.RecordSourceScrapeError(src.Name, errorType)
			logger.Warn("source scrape failed",
				slog.String("source", src.Name),
				slog.Any("error", err))
			continue
		}

		if len(entries) == 0 {
			logger.Info("source yielded no entries",
				slog.String("source", src.Name))
			continue
		}

		duplicated := 0
		for _, e := range entries {
			e.SourceName = src.Name
			if seen[e.URL] {
				duplicated++
				continue
			}
			seen[e.URL] = true
			collected = append(collected, e)
		}
		stats.Duplicated += duplicated
		metrics.RecordEntriesDeduplicated(duplicated)
	}

	if len(collected) == 0 {
		return nil, stats, ErrNoEntries
	}

	s.enhanceContent(ctx, collected)
	orderEntries(collected)

	for _, e := range collected {
		if !e.Dated() {
			stats.Undated++
		}
	}
	stats.Entries = len(collected)
	stats.Duration = time.Since(start)

	logger.Info("collection completed",
		slog.Int("sources", stats.Sources),
		slog.Int("failed", stats.Failed),
		slog.Int("entries", stats.Entries),
		slog.Int("duplicated", stats.Duplicated),
		slog.Int("undated", stats.Undated),
		slog.Duration("duration", stats.Duration),
	)

	return collected, stats, nil
}

// fetchSource scrapes a single source with its own timeout and records the
// per-source metrics.
func (s *Service) fetchSource(ctx context.Context, src entity.Source) ([]entity.Entry, error) {
	timeout := src.Timeout
	if timeout <= 0 {
		timeout = s.SourceTimeout
	}
	if timeout <= 0 {
		timeout = defaultSourceTimeout
	}
	srcCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	fetcher := s.selectFetcher(src)

	sourceStart := time.Now()
	entries, err := fetcher.Fetch(srcCtx, src)
	if err != nil {
		return nil, err
	}

	sourceDuration := time.Since(sourceStart)
	metrics.RecordSourceScrape(src.Name, sourceDuration, len(entries))
	slog.Default().Info("source scrape completed",
		slog.String("source", src.Name),
		slog.Int("entries", len(entries)),
		slog.Duration("duration", sourceDuration),
	)
	return entries, nil
}

// selectFetcher chooses the fetcher for a source. A source with a feed URL
// is fetched from the feed exclusively; its HTML listing is never scraped.
func (s *Service) selectFetcher(src entity.Source) EntryFetcher {
	if src.UsesFeed() {
		return s.RSSFetcher
	}
	return s.HTMLFetcher
}

// enhanceContent fetches full text for entries whose content is shorter than
// the configured threshold. Failures never break the run; the entry keeps
// whatever content it already has.
func (s *Service) enhanceContent(ctx context.Context, entries []entity.Entry) {
	if s.ContentFetcher == nil {
		return
	}
	logger := slog.Default()

	for i := range entries {
		if ctx.Err() != nil {
			return
		}
		if len(entries[i].Content) >= s.contentConfig.Threshold {
			metrics.RecordContentFetchSkipped()
			continue
		}

		fetchStart := time.Now()
		fullContent, err := s.ContentFetcher.FetchContent(ctx, entries[i].URL)
		fetchDuration := time.Since(fetchStart)

		if err != nil {
			metrics.RecordContentFetchFailed(fetchDuration)
			logger.Warn("content fetch failed, keeping scraped content",
				slog.String("url", entries[i].URL),
				slog.Any("error", err),
				slog.Duration("fetch_duration", fetchDuration))
			continue
		}
		metrics.RecordContentFetchSuccess(fetchDuration, len(fullContent))

		// A shorter extraction than what scraping already produced is
		// likely boilerplate; keep the original.
		if len(fullContent) > len(entries[i].Content) {
			entries[i].Content = fullContent
		}
	}
}

// orderEntries sorts entries newest first, with undated entries after all
// dated ones. The sort is stable so undated entries keep the order their
// sources were configured in.
func orderEntries(entries []entity.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ei, ej := entries[i], entries[j]
		switch {
		case ei.Dated() && ej.Dated():
			return ei.Published.After(*ej.Published)
		case ei.Dated():
			return true
		default:
			return false
		}
	})
}
