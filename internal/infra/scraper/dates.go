package scraper

import (
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/araddon/dateparse"
)

// The registries are not uniform in date format: the same column holds
// "śr., 11/02/2026 - 14:42" on one site and "10 lut 2026, 12:34" on the
// next. Known patterns are tried in sequence and parsing gives up rather
// than guess.
var (
	numericDatePattern = regexp.MustCompile(`(\d{1,2})[/.\-](\d{1,2})[/.\-](\d{4})(?:\D{1,5}(\d{1,2}):(\d{2}))?`)

	polishDatePattern = regexp.MustCompile(`(?i)(\d{1,2})\s+(sty|lut|mar|kwi|maj|cze|lip|sie|wrz|paź|paz|lis|gru)[a-ząćęłńóśźż]*\s+(\d{4})(?:\s*,?\s*(\d{1,2}):(\d{2}))?`)

	// blockDatePattern is used when searching the full text of a listing
	// block. The time part is mandatory there to avoid picking up case
	// numbers and other stray digits.
	blockDatePattern = regexp.MustCompile(`(?i)\d{1,2}\s+(sty|lut|mar|kwi|maj|cze|lip|sie|wrz|paź|paz|lis|gru)[a-ząćęłńóśźż]*\s+\d{4}\s*,?\s*\d{1,2}:\d{2}`)
)

var polishMonths = map[string]time.Month{
	"sty": time.January,
	"lut": time.February,
	"mar": time.March,
	"kwi": time.April,
	"maj": time.May,
	"cze": time.June,
	"lip": time.July,
	"sie": time.August,
	"wrz": time.September,
	"paź": time.October,
	"paz": time.October,
	"lis": time.November,
	"gru": time.December,
}

// Date cells longer than this are prose, not dates.
const maxDateTextLen = 60

// ParseEntryDate extracts a publication time from free-form registry date
// text. It returns nil when no known pattern matches; a date is never
// guessed for an entry.
func ParseEntryDate(text string) *time.Time {
	text = strings.TrimSpace(text)
	if text == "" || utf8.RuneCountInString(text) > maxDateTextLen {
		return nil
	}

	if m := numericDatePattern.FindStringSubmatch(text); m != nil {
		// Registries write numeric dates day-first.
		if t, ok := buildDate(m[3], m[2], m[1], m[4], m[5]); ok {
			return &t
		}
	}

	if m := polishDatePattern.FindStringSubmatch(text); m != nil {
		month, ok := polishMonths[strings.ToLower(m[2])]
		if ok {
			if t, okDate := buildDate(m[3], strconv.Itoa(int(month)), m[1], m[4], m[5]); okDate {
				return &t
			}
		}
	}

	// dateparse covers RSS and ISO shaped strings, but handed a bare
	// number it guesses a year ("2751" becomes 2751-01-01). Registry
	// tables carry ID and count columns, so only text with a date
	// separator goes through it.
	if strings.ContainsAny(text, "-/.:") {
		if t, err := dateparse.ParseAny(text); err == nil {
			return &t
		}
	}
	return nil
}

func buildDate(yearStr, monthStr, dayStr, hourStr, minStr string) (time.Time, bool) {
	year, _ := strconv.Atoi(yearStr)
	month, _ := strconv.Atoi(monthStr)
	day, _ := strconv.Atoi(dayStr)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return time.Time{}, false
	}

	var hour, min int
	if hourStr != "" {
		hour, _ = strconv.Atoi(hourStr)
		min, _ = strconv.Atoi(minStr)
		if hour > 23 || min > 59 {
			hour, min = 0, 0
		}
	}

	return time.Date(year, time.Month(month), day, hour, min, 0, 0, time.Local), true
}

// findBlockDate searches the full text of a listing block for a dated
// fragment and parses it. Used by the "recently added" block matcher where
// the date is not in a dedicated element.
func findBlockDate(blockText string) *time.Time {
	fragment := blockDatePattern.FindString(blockText)
	if fragment == "" {
		return nil
	}
	return ParseEntryDate(fragment)
}
