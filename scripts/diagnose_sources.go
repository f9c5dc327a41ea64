// Diagnostic tool for the configured BIP sources. It scrapes every source
// from the YAML configuration once and reports which ones work, how many
// entries they yield and how stale they are. Run it after editing the
// configuration or when a registry changes its markup.
//
// Usage: go run scripts/diagnose_sources.go [-config config.yaml]
package main

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"time"

	"bip-digest/internal/domain/entity"
	"bip-digest/internal/infra/scraper"
	"bip-digest/internal/pkg/config"
)

// SourceDiagnostic is the diagnostic result for a single source.
type SourceDiagnostic struct {
	Name         string `json:"name"`
	URL          string `json:"url"`
	Method       string `json:"method"` // "RSS" or "HTML"
	Status       string `json:"status"` // "OK", "FETCH_ERROR", "EMPTY", "TIMEOUT"
	EntryCount   int    `json:"entry_count"`
	DatedCount   int    `json:"dated_count"`
	LatestDate   string `json:"latest_date,omitempty"`
	ErrorMessage string `json:"error_message,omitempty"`
	ResponseTime int64  `json:"response_time_ms"`
}

type entryFetcher interface {
	Fetch(ctx context.Context, src entity.Source) ([]entity.Entry, error)
}

func main() {
	configPath := flag.String("config", config.DefaultPath, "path to the YAML configuration")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	client := &http.Client{
		Timeout: cfg.RequestTimeout(),
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{MinVersion: tls.VersionTLS12},
		},
	}
	rssFetcher := scraper.NewRSSFetcher(client, cfg.Scraper.UserAgent)
	htmlFetcher := scraper.NewHTMLFetcher(client, cfg.Scraper.UserAgent)

	log.Printf("Diagnosing %d sources...", len(cfg.Sources))

	diagnostics := make([]SourceDiagnostic, 0, len(cfg.Sources))
	for i, src := range cfg.Sources {
		log.Printf("[%d/%d] %s", i+1, len(cfg.Sources), src.Name)

		var fetcher entryFetcher = htmlFetcher
		if src.UsesFeed() {
			fetcher = rssFetcher
		}
		diag := diagnoseSource(fetcher, src, cfg.RequestTimeout())
		diagnostics = append(diagnostics, diag)

		// Be nice to the registries.
		time.Sleep(500 * time.Millisecond)
	}

	generateReport(diagnostics)
	generateJSONReport(diagnostics)
}

func diagnoseSource(fetcher entryFetcher, src entity.Source, timeout time.Duration) SourceDiagnostic {
	diag := SourceDiagnostic{
		Name:   src.Name,
		URL:    src.ListURL,
		Method: "HTML",
	}
	if src.UsesFeed() {
		diag.URL = src.RSSURL
		diag.Method = "RSS"
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	start := time.Now()
	entries, err := fetcher.Fetch(ctx, src)
	diag.ResponseTime = time.Since(start).Milliseconds()

	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			diag.Status = "TIMEOUT"
			diag.ErrorMessage = fmt.Sprintf("fetch timeout after %v", timeout)
		} else {
			diag.Status = "FETCH_ERROR"
			diag.ErrorMessage = err.Error()
		}
		return diag
	}

	diag.EntryCount = len(entries)
	var latest *time.Time
	for i := range entries {
		if !entries[i].Dated() {
			continue
		}
		diag.DatedCount++
		if latest == nil || entries[i].Published.After(*latest) {
			latest = entries[i].Published
		}
	}
	if latest != nil {
		diag.LatestDate = latest.Format("2006-01-02")
	}

	if diag.EntryCount == 0 {
		diag.Status = "EMPTY"
		diag.ErrorMessage = "source yielded no entries"
		return diag
	}

	diag.Status = "OK"
	return diag
}

// writef is a helper to write to file and handle errors
func writef(f *os.File, format string, args ...interface{}) error {
	_, err := fmt.Fprintf(f, format, args...)
	return err
}

func generateReport(diagnostics []SourceDiagnostic) {
	f, err := os.Create("source_diagnostic_report.txt")
	if err != nil {
		log.Printf("Failed to create report file: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close report file: %v", err)
		}
	}()

	writeErr := func(err error) bool {
		if err != nil {
			log.Printf("Failed to write to report: %v", err)
			return true
		}
		return false
	}

	if writeErr(writef(f, "===============================================\n")) {
		return
	}
	if writeErr(writef(f, "BIP Source Diagnostic Report\n")) {
		return
	}
	if writeErr(writef(f, "Generated: %s\n", time.Now().Format(time.RFC3339))) {
		return
	}
	if writeErr(writef(f, "Total Sources: %d\n", len(diagnostics))) {
		return
	}
	if writeErr(writef(f, "===============================================\n\n")) {
		return
	}

	statusCount := make(map[string]int)
	var okCount, errorCount int
	for _, d := range diagnostics {
		statusCount[d.Status]++
		if d.Status == "OK" {
			okCount++
		} else {
			errorCount++
		}
	}

	_ = writef(f, "SUMMARY:\n")
	_ = writef(f, "  Working: %d (%.1f%%)\n", okCount, float64(okCount)/float64(len(diagnostics))*100)
	_ = writef(f, "  Broken: %d (%.1f%%)\n", errorCount, float64(errorCount)/float64(len(diagnostics))*100)
	_ = writef(f, "\nSTATUS BREAKDOWN:\n")
	for status, count := range statusCount {
		_ = writef(f, "  %s: %d\n", status, count)
	}
	_ = writef(f, "\n")

	_ = writef(f, "DETAILED RESULTS:\n")
	_ = writef(f, "===============================================\n\n")

	_ = writef(f, "WORKING SOURCES (%d):\n", statusCount["OK"])
	_ = writef(f, "-------------------------------------------\n")
	for _, d := range diagnostics {
		if d.Status == "OK" {
			_ = writef(f, "Name: %s\n", d.Name)
			_ = writef(f, "  URL: %s\n", d.URL)
			_ = writef(f, "  Method: %s | Entries: %d | Dated: %d | Latest: %s\n",
				d.Method, d.EntryCount, d.DatedCount, d.LatestDate)
			_ = writef(f, "  Response: %dms\n", d.ResponseTime)
			_ = writef(f, "\n")
		}
	}

	_ = writef(f, "\nBROKEN SOURCES (%d):\n", errorCount)
	_ = writef(f, "-------------------------------------------\n")
	for _, d := range diagnostics {
		if d.Status != "OK" {
			_ = writef(f, "Name: %s\n", d.Name)
			_ = writef(f, "  URL: %s\n", d.URL)
			_ = writef(f, "  Method: %s | Status: %s\n", d.Method, d.Status)
			_ = writef(f, "  Error: %s\n", d.ErrorMessage)
			_ = writef(f, "  Response: %dms\n", d.ResponseTime)
			_ = writef(f, "\n")
		}
	}

	log.Println("Text report generated: source_diagnostic_report.txt")
}

func generateJSONReport(diagnostics []SourceDiagnostic) {
	f, err := os.Create("source_diagnostic_report.json")
	if err != nil {
		log.Printf("Failed to create JSON report: %v", err)
		return
	}
	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Failed to close JSON report file: %v", err)
		}
	}()

	encoder := json.NewEncoder(f)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(diagnostics); err != nil {
		log.Printf("Failed to write JSON report: %v", err)
		return
	}

	log.Println("JSON report generated: source_diagnostic_report.json")
}
