// Package aggregate provides the use case for collecting entries from all
// configured BIP sources into a single normalized list: scraping each source
// in turn, deduplicating by URL and ordering by publication date.
package aggregate

import "errors"

// Sentinel errors for aggregation.
var (
	// ErrNoEntries indicates that every configured source yielded zero
	// entries. A run with nothing to analyze is treated as failed.
	ErrNoEntries = errors.New("no entries collected from any source")
)
