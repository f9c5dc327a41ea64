package scraper

import (
	"net/url"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"bip-digest/internal/domain/entity"
)

// A matcher extracts entry candidates from one parsed listing page.
// The layouts of the configured BIP sites differ, so extraction is a small
// set of independent matchers tried in sequence per source; the first one
// that yields entries wins. Supporting a new site means adding a matcher,
// not touching the others.
type matcher func(doc *goquery.Document, pageURL *url.URL, max int) []entity.Entry

// Minimum title lengths per matcher. Shorter link texts are pagination
// arrows, icons and similar boilerplate.
const (
	minRegistryTitleLen = 5
	minListingTitleLen  = 3
	minFallbackTitleLen = 10
)

var digitsOnly = regexp.MustCompile(`^\d+$`)

// usableTitle trims a candidate title and rejects whitespace-only and
// navigational boilerplate such as pagination controls.
func usableTitle(raw string, minLen int) (string, bool) {
	title := strings.Join(strings.Fields(raw), " ")
	if utf8.RuneCountInString(title) < minLen {
		return "", false
	}
	if digitsOnly.MatchString(title) {
		return "", false
	}
	switch strings.ToLower(title) {
	case "następna", "poprzednia", "dalej", "wstecz", "ostatnia", "pierwsza", "więcej", "»", "«":
		return "", false
	}
	return title, true
}

// registryTableMatcher handles change registries rendered as a table
// (Zmieniono | Tytuł | Użytkownik | Informacja). The date is taken from the
// first non-link cell whose text parses as a date.
func registryTableMatcher(doc *goquery.Document, pageURL *url.URL, max int) []entity.Entry {
	var entries []entity.Entry
	seen := make(map[string]bool)

	doc.Find("table tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		link := row.Find("a[href]").First()
		if link.Length() == 0 {
			return true
		}

		href, _ := link.Attr("href")
		entryURL := resolveLink(pageURL, href)
		if entryURL == "" || seen[entryURL] {
			return true
		}

		title, ok := usableTitle(link.Text(), minRegistryTitleLen)
		if !ok {
			return true
		}

		var published *time.Time
		row.Find("td, th").EachWithBreak(func(_ int, cell *goquery.Selection) bool {
			if cell.Find("a[href]").Length() > 0 {
				return true // the link cell holds the title, not the date
			}
			if t := ParseEntryDate(cell.Text()); t != nil {
				published = t
				return false
			}
			return true
		})

		seen[entryURL] = true
		entries = append(entries, entity.Entry{Title: title, URL: entryURL, Published: published})
		return len(entries) < max
	})

	return entries
}

// recentBlocksMatcher handles "Ostatnio dodane" style registries built from
// repeated sibling blocks, each with a heading link and a dated line
// somewhere in its text.
func recentBlocksMatcher(doc *goquery.Document, pageURL *url.URL, max int) []entity.Entry {
	var entries []entity.Entry
	seen := make(map[string]bool)

	selector := ".view-content .views-row, .node, .aktualnosc, [class*='last-added'], article, .item"
	doc.Find(selector).EachWithBreak(func(_ int, block *goquery.Selection) bool {
		link := block.Find("a[href]").First()
		if link.Length() == 0 {
			return true
		}

		href, _ := link.Attr("href")
		entryURL := resolveLink(pageURL, href)
		if entryURL == "" || seen[entryURL] {
			return true
		}

		title, ok := usableTitle(link.Text(), minRegistryTitleLen)
		if !ok {
			return true
		}

		seen[entryURL] = true
		entries = append(entries, entity.Entry{
			Title:     title,
			URL:       entryURL,
			Published: findBlockDate(block.Text()),
		})
		return len(entries) < max
	})

	return entries
}

// listingSelectors are the element shapes announcements take on plain BIP
// listing pages.
var listingSelectors = []string{
	"article",
	".news-item",
	".ogloszenie",
	".aktualnosc",
	".komunikat",
	"[class*='news']",
	"[class*='ogloszen']",
	".list-item",
	"li a",
}

// listingMatcher handles plain announcement listings: any of the common
// listing element shapes carrying a link and a label. These pages rarely
// expose a machine-readable date, so entries come back undated.
func listingMatcher(doc *goquery.Document, pageURL *url.URL, max int) []entity.Entry {
	var entries []entity.Entry
	seen := make(map[string]bool)

	for _, selector := range listingSelectors {
		doc.Find(selector).EachWithBreak(func(_ int, el *goquery.Selection) bool {
			link := el
			if !el.Is("a") {
				link = el.Find("a[href]").First()
			}
			if link.Length() == 0 {
				return true
			}

			href, exists := link.Attr("href")
			if !exists {
				return true
			}
			entryURL := resolveLink(pageURL, href)
			if entryURL == "" || seen[entryURL] {
				return true
			}

			title, ok := usableTitle(link.Text(), minListingTitleLen)
			if !ok {
				return true
			}

			seen[entryURL] = true
			entries = append(entries, entity.Entry{Title: title, URL: entryURL})
			return len(entries) < max
		})
		if len(entries) >= max {
			break
		}
	}

	return entries
}

// mainContentMatcher is the last resort for change-registry pages whose
// markup matches nothing above: any sufficiently labeled link in the main
// content area. The higher title threshold keeps navigation out, and links
// back to the registry itself are skipped.
func mainContentMatcher(doc *goquery.Document, pageURL *url.URL, max int) []entity.Entry {
	main := doc.Find("main").First()
	if main.Length() == 0 {
		main = doc.Find("article").First()
	}
	if main.Length() == 0 {
		main = doc.Find("#content").First()
	}
	if main.Length() == 0 {
		main = doc.Find("body").First()
	}

	var entries []entity.Entry
	seen := make(map[string]bool)

	main.Find("a[href]").EachWithBreak(func(_ int, link *goquery.Selection) bool {
		href, _ := link.Attr("href")
		entryURL := resolveLink(pageURL, href)
		if entryURL == "" || seen[entryURL] || strings.Contains(strings.ToLower(entryURL), "rejestr-zmian") {
			return true
		}

		title, ok := usableTitle(link.Text(), minFallbackTitleLen)
		if !ok {
			return true
		}

		seen[entryURL] = true
		entries = append(entries, entity.Entry{Title: title, URL: entryURL})
		return len(entries) < max
	})

	return entries
}
