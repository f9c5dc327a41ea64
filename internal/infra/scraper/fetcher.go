// Package scraper provides implementations for fetching BIP change-registry
// entries from RSS/Atom feeds and from HTML listing pages.
package scraper

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	maxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultUserAgent identifies the scraper to BIP sites unless overridden
	// in the scraper configuration.
	DefaultUserAgent = "BIPDigestBot/1.0"
)

// fetchDocument fetches a listing page and parses it into a goquery document.
// It returns the final request URL so relative links can be resolved against
// the page the entries were actually served from, redirects included.
func fetchDocument(client *http.Client, req *http.Request) (*goquery.Document, *url.URL, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("HTTP request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("unexpected status: %s", resp.Status)
	}

	// Limit body size to prevent memory exhaustion
	doc, err := goquery.NewDocumentFromReader(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, nil, fmt.Errorf("parse HTML: %w", err)
	}

	return doc, resp.Request.URL, nil
}

// resolveLink resolves an href against the page URL and returns an absolute
// http(s) URL, or "" for fragments, javascript:/mailto: pseudo-links and
// anything that does not parse.
func resolveLink(pageURL *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") {
		return ""
	}
	lower := strings.ToLower(href)
	if strings.HasPrefix(lower, "javascript:") || strings.HasPrefix(lower, "mailto:") {
		return ""
	}

	ref, err := url.Parse(href)
	if err != nil {
		return ""
	}
	abs := pageURL.ResolveReference(ref)
	if abs.Scheme != "http" && abs.Scheme != "https" {
		return ""
	}
	return abs.String()
}

// truncateRunes shortens s to at most n runes.
func truncateRunes(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
