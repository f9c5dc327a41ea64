// Package entity defines the core domain entities and validation logic for the application.
// It contains the fundamental business objects such as Entry and Source, along with
// their validation rules and domain-specific errors.
package entity

import "time"

// Entry represents one normalized item from a BIP change registry.
// It is built once by a scraper from a single raw fragment (one RSS item
// or one HTML list row) and is immutable afterwards, except for SourceName
// which is stamped by the aggregator from source configuration.
type Entry struct {
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Summary    string     `json:"summary"`
	Content    string     `json:"content"`
	Published  *time.Time `json:"published"`
	SourceName string     `json:"source_name"`
}

// Dated reports whether the entry carries a parseable publication time.
// Entries without one sort after all dated entries.
func (e *Entry) Dated() bool {
	return e.Published != nil
}
