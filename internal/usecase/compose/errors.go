package compose

import "errors"

// Sentinel errors for article composition.
var (
	// ErrNoAgent indicates the service has neither a local agent nor a
	// remote webhook configured.
	ErrNoAgent = errors.New("no agent configured")

	// ErrNothingRelevant indicates the analyzer rejected every entry, so
	// there is nothing to write an article about.
	ErrNothingRelevant = errors.New("analyzer kept no entries")
)
