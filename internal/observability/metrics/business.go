package metrics

import (
	"time"
)

// RecordSourceScrape records metrics for a completed source scrape.
func RecordSourceScrape(sourceName string, duration time.Duration, entriesFound int) {
	SourceScrapeDuration.WithLabelValues(sourceName).Observe(duration.Seconds())
	if entriesFound > 0 {
		EntriesScrapedTotal.WithLabelValues(sourceName).Add(float64(entriesFound))
	}
}

// RecordSourceScrapeError records an error during source scraping.
func RecordSourceScrapeError(sourceName, errorType string) {
	SourceScrapeErrors.WithLabelValues(sourceName, errorType).Inc()
}

// RecordEntriesDeduplicated records entries dropped because an earlier source
// already produced the same URL.
func RecordEntriesDeduplicated(count int) {
	if count > 0 {
		EntriesDeduplicatedTotal.Add(float64(count))
	}
}

// UpdateSourcesConfigured updates the configured-source gauge. Called once per
// run after the configuration is loaded.
func UpdateSourcesConfigured(count int) {
	SourcesConfigured.Set(float64(count))
}

// RecordContentFetchSuccess records a successful content fetch operation,
// tracking both the duration and size of fetched content.
func RecordContentFetchSuccess(duration time.Duration, size int) {
	ContentFetchAttemptsTotal.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
	ContentFetchSize.Observe(float64(size))
}

// RecordContentFetchFailed records a failed content fetch operation.
func RecordContentFetchFailed(duration time.Duration) {
	ContentFetchAttemptsTotal.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentFetchSkipped records a skipped content fetch. This occurs when
// the scraped content is already long enough and fetching is unnecessary.
func RecordContentFetchSkipped() {
	ContentFetchAttemptsTotal.WithLabelValues("skipped").Inc()
}

// RecordAgentCall records the result of an analyzer or generator call.
// Operation is one of "filter", "draft" or "webhook".
func RecordAgentCall(operation string, success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	AgentCallsTotal.WithLabelValues(operation, status).Inc()
	AgentCallDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// RecordArticleGenerated records the result of an article draft generation.
func RecordArticleGenerated(success bool) {
	status := "success"
	if !success {
		status = "failure"
	}
	ArticlesGeneratedTotal.WithLabelValues(status).Inc()
}

// RecordRun records an end-to-end digest run.
func RecordRun(success bool, duration time.Duration) {
	status := "success"
	if !success {
		status = "failure"
	}
	RunsTotal.WithLabelValues(status).Inc()
	RunDuration.Observe(duration.Seconds())
}
