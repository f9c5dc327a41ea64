package aggregate

import (
	"context"
	"errors"
)

// ContentFetcher is an interface for fetching the full text of an entry from
// its URL. Registry rows and listing links carry only a title, so the body
// has to be pulled from the linked page when the analyzer needs it.
//
// Implementations should extract clean article text (no HTML tags or
// navigation) and must enforce size limits and timeouts. Callers handle
// errors gracefully and keep whatever content the entry already has.
type ContentFetcher interface {
	FetchContent(ctx context.Context, url string) (string, error)
}

// Sentinel errors for content fetching operations. These let callers
// distinguish failure modes; all of them are non-fatal for a run.
var (
	// ErrInvalidURL indicates the URL format is invalid or uses an
	// unsupported scheme. Only http:// and https:// are fetched.
	ErrInvalidURL = errors.New("invalid URL or unsupported scheme")

	// ErrPrivateIP indicates the URL resolves to a private IP address and
	// private access is denied.
	ErrPrivateIP = errors.New("private IP access denied")

	// ErrTooManyRedirects indicates the redirect chain exceeded the
	// configured maximum.
	ErrTooManyRedirects = errors.New("too many redirects")

	// ErrBodyTooLarge indicates the response body exceeded the size limit.
	ErrBodyTooLarge = errors.New("response body too large")

	// ErrTimeout indicates the request exceeded the configured timeout.
	ErrTimeout = errors.New("request timeout")

	// ErrExtractionFailed indicates readability extraction found no usable
	// text in the page.
	ErrExtractionFailed = errors.New("content extraction failed")
)
