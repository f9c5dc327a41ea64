package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRecordSourceScrape(t *testing.T) {
	tests := []struct {
		name         string
		sourceName   string
		duration     time.Duration
		entriesFound int
	}{
		{
			name:         "successful scrape",
			sourceName:   "Gmina Wolin",
			duration:     2 * time.Second,
			entriesFound: 10,
		},
		{
			name:         "empty scrape",
			sourceName:   "Powiat Kamieński",
			duration:     500 * time.Millisecond,
			entriesFound: 0,
		},
		{
			name:         "empty source name",
			sourceName:   "",
			duration:     time.Second,
			entriesFound: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordSourceScrape(tt.sourceName, tt.duration, tt.entriesFound)
			})
		})
	}
}

func TestRecordSourceScrapeError(t *testing.T) {
	tests := []struct {
		name       string
		sourceName string
		errorType  string
	}{
		{
			name:       "fetch failed",
			sourceName: "Gmina Wolin",
			errorType:  "fetch_failed",
		},
		{
			name:       "timeout",
			sourceName: "Powiat Kamieński",
			errorType:  "timeout",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordSourceScrapeError(tt.sourceName, tt.errorType)
			})
		})
	}
}

func TestRecordAgentCall(t *testing.T) {
	tests := []struct {
		name      string
		operation string
		success   bool
		duration  time.Duration
	}{
		{
			name:      "filter success",
			operation: "filter",
			success:   true,
			duration:  3 * time.Second,
		},
		{
			name:      "draft failure",
			operation: "draft",
			success:   false,
			duration:  10 * time.Second,
		},
		{
			name:      "webhook success",
			operation: "webhook",
			success:   true,
			duration:  time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordAgentCall(tt.operation, tt.success, tt.duration)
			})
		})
	}
}

func TestRecordRun(t *testing.T) {
	tests := []struct {
		name     string
		success  bool
		duration time.Duration
	}{
		{
			name:     "successful run",
			success:  true,
			duration: 30 * time.Second,
		},
		{
			name:     "failed run",
			success:  false,
			duration: 5 * time.Second,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotPanics(t, func() {
				RecordRun(tt.success, tt.duration)
			})
		})
	}
}

func TestMetricsFunctions_AllCallable(t *testing.T) {
	// Test that all functions can be called in sequence without panic
	assert.NotPanics(t, func() {
		RecordSourceScrape("Gmina Wolin", 2*time.Second, 10)
		RecordSourceScrapeError("Gmina Wolin", "fetch_failed")
		RecordEntriesDeduplicated(2)
		UpdateSourcesConfigured(3)
		RecordContentFetchSuccess(time.Second, 4096)
		RecordContentFetchFailed(time.Second)
		RecordContentFetchSkipped()
		RecordAgentCall("filter", true, 3*time.Second)
		RecordArticleGenerated(true)
		RecordRun(true, 30*time.Second)
	})
}
