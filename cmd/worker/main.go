// Command worker runs the digest pipeline on a cron schedule. Each run
// scrapes the configured BIP registries, composes an article and writes
// it into the output directory. Liveness, readiness and Prometheus
// metrics are served over HTTP.
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"

	"bip-digest/internal/infra/fetcher"
	"bip-digest/internal/infra/llm"
	"bip-digest/internal/infra/scraper"
	"bip-digest/internal/infra/webhook"
	workerPkg "bip-digest/internal/infra/worker"
	"bip-digest/internal/observability/logging"
	"bip-digest/internal/observability/tracing"
	"bip-digest/internal/pkg/config"
	"bip-digest/internal/pkg/runid"
	"bip-digest/internal/usecase/aggregate"
	"bip-digest/internal/usecase/compose"
)

func main() {
	logger := logging.NewLogger()
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Setup(ctx)
	if err != nil {
		logger.Error("failed to set up tracing", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracing", slog.Any("error", err))
		}
	}()

	// Worker configuration is fail-open: invalid env values fall back to
	// defaults with a warning and a metric.
	workerMetrics := workerPkg.NewMetrics()
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		logger.Error("failed to load worker configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker configuration loaded",
		slog.String("config_path", workerConfig.ConfigPath),
		slog.String("cron_schedule", workerConfig.CronSchedule),
		slog.String("timezone", workerConfig.Timezone),
		slog.Duration("run_timeout", workerConfig.RunTimeout),
		slog.String("output_dir", workerConfig.OutputDir),
		slog.Int("health_port", workerConfig.HealthPort))

	// Fail fast on a broken digest configuration instead of discovering
	// it at five in the morning.
	if _, err := config.Load(workerConfig.ConfigPath); err != nil {
		logger.Error("failed to load digest configuration", slog.Any("error", err))
		os.Exit(1)
	}

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return startMetricsServer(groupCtx, logger)
	})

	group.Go(func() error {
		logger.Info("health check server starting", slog.String("addr", healthAddr))
		if err := healthServer.Start(groupCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("health server: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		return runScheduler(groupCtx, logger, workerConfig, workerMetrics, healthServer)
	})

	if err := group.Wait(); err != nil {
		logger.Error("worker failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("worker stopped")
}

// runScheduler starts the cron scheduler and blocks until the context is
// canceled. Jobs already running when shutdown begins are allowed to
// finish.
func runScheduler(ctx context.Context, logger *slog.Logger, cfg *workerPkg.Config, metrics *workerPkg.Metrics, healthServer *workerPkg.HealthServer) error {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		logger.Error("invalid timezone, using UTC", slog.String("timezone", cfg.Timezone), slog.Any("error", err))
		loc = time.UTC
	}

	c := cron.New(cron.WithLocation(loc))
	_, err = c.AddFunc(cfg.CronSchedule, func() {
		runDigestJob(ctx, logger, cfg, metrics)
	})
	if err != nil {
		return fmt.Errorf("add cron job: %w", err)
	}
	c.Start()

	healthServer.SetReady(true)
	logger.Info("worker started",
		slog.String("schedule", cfg.CronSchedule),
		slog.String("timezone", cfg.Timezone))

	<-ctx.Done()
	healthServer.SetReady(false)

	stopCtx := c.Stop()
	<-stopCtx.Done()
	return nil
}

// runDigestJob executes a single scrape-and-compose run with a timeout.
func runDigestJob(ctx context.Context, logger *slog.Logger, cfg *workerPkg.Config, metrics *workerPkg.Metrics) {
	start := time.Now()
	metrics.RecordRun("started")

	ctx, cancel := context.WithTimeout(ctx, cfg.RunTimeout)
	defer cancel()

	ctx = runid.WithRunID(ctx, runid.New())
	logger = logging.WithRunID(ctx, logger)

	ctx, span := tracing.StartSpan(ctx, "worker.digest_run")
	defer span.End()

	logger.Info("digest run started")
	if err := digest(ctx, logger, cfg, metrics); err != nil {
		logger.Error("digest run failed", slog.Any("error", err))
		metrics.RecordRun("failure")
		metrics.RecordRunDuration(time.Since(start).Seconds())
		return
	}

	metrics.RecordRun("success")
	metrics.RecordRunDuration(time.Since(start).Seconds())
	metrics.RecordLastSuccess()
	logger.Info("digest run completed", slog.Duration("duration", time.Since(start)))
}

// digest performs one full pipeline run: collect, compose, write.
//
// The YAML configuration is re-read on every run so source edits are
// picked up without a restart.
func digest(ctx context.Context, logger *slog.Logger, cfg *workerPkg.Config, metrics *workerPkg.Metrics) error {
	appConfig, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return fmt.Errorf("load configuration: %w", err)
	}

	collectCtx, collectSpan := tracing.StartSpan(ctx, "worker.collect")
	svc := buildAggregator(logger, appConfig)
	entries, stats, err := svc.Collect(collectCtx)
	collectSpan.End()
	if err != nil {
		return fmt.Errorf("collect entries: %w", err)
	}
	metrics.RecordEntriesProcessed(stats.Entries)
	logger.Info("entries collected",
		slog.Int("entries", stats.Entries),
		slog.Int("sources", stats.Sources),
		slog.Int("failed", stats.Failed),
		slog.Duration("duration", stats.Duration))

	composer, err := buildComposer(logger, appConfig)
	if err != nil {
		return fmt.Errorf("configure agent: %w", err)
	}

	composeCtx, composeSpan := tracing.StartSpan(ctx, "worker.compose")
	article, err := composer.Article(composeCtx, entries)
	composeSpan.End()
	if err != nil {
		if errors.Is(err, compose.ErrNothingRelevant) {
			logger.Info("model kept no entries, skipping article")
			return nil
		}
		// Keep the scraped data of an unattended run when the agent is down.
		if path, saveErr := writePayloadFallback(cfg.OutputDir, compose.BuildPayload(entries, "")); saveErr != nil {
			logger.Warn("failed to preserve payload", slog.Any("error", saveErr))
		} else {
			logger.Info("raw payload preserved", slog.String("path", path))
		}
		return fmt.Errorf("compose article: %w", err)
	}

	path, err := writeArticle(cfg.OutputDir, article)
	if err != nil {
		return fmt.Errorf("write article: %w", err)
	}
	logger.Info("article written",
		slog.String("path", path),
		slog.Int("article_length", len(article)))
	return nil
}

// buildAggregator wires the scrapers and the optional content fetcher
// into the aggregation service.
func buildAggregator(logger *slog.Logger, cfg *config.Config) aggregate.Service {
	client := newHTTPClient(cfg.RequestTimeout())
	rssFetcher := scraper.NewRSSFetcher(client, cfg.Scraper.UserAgent)
	htmlFetcher := scraper.NewHTMLFetcher(client, cfg.Scraper.UserAgent)

	var contentFetcher aggregate.ContentFetcher
	contentConfig := aggregate.ContentFetchConfig{}
	if cfg.Scraper.FetchContent {
		fetchConfig := fetcher.DefaultConfig()
		if cfg.Scraper.ContentThreshold > 0 {
			fetchConfig.Threshold = cfg.Scraper.ContentThreshold
		}
		if err := fetchConfig.Validate(); err != nil {
			logger.Warn("invalid content fetch configuration, enhancement disabled", slog.Any("error", err))
		} else {
			contentFetcher = fetcher.NewReadabilityFetcher(fetchConfig)
			contentConfig.Threshold = fetchConfig.Threshold
		}
	}

	return aggregate.NewService(
		rssFetcher,
		htmlFetcher,
		contentFetcher,
		cfg.Sources,
		cfg.RequestTimeout(),
		contentConfig,
	)
}

// buildComposer picks the analysis path for scheduled runs: the agent
// webhook when one is configured, the local model otherwise.
func buildComposer(logger *slog.Logger, cfg *config.Config) (compose.Service, error) {
	if cfg.UsesWebhook() {
		webhookConfig := webhook.Config{
			URL:          cfg.Agent.WebhookURL,
			APIKey:       cfg.Agent.APIKey,
			APIKeyHeader: cfg.Agent.APIKeyHeader,
		}
		if err := webhookConfig.Validate(); err != nil {
			return compose.Service{}, fmt.Errorf("webhook config: %w", err)
		}
		logger.Info("using agent webhook", slog.String("url", webhookConfig.URL))
		return compose.NewService(nil, webhook.NewAgent(webhookConfig), ""), nil
	}

	llmConfig := llm.DefaultConfig()
	if cfg.Ollama.BaseURL != "" {
		llmConfig.BaseURL = cfg.Ollama.BaseURL
	}
	if cfg.Ollama.Model != "" {
		llmConfig.Model = cfg.Ollama.Model
	}
	if cfg.Ollama.ModelExtractor != "" {
		llmConfig.ExtractorModel = cfg.Ollama.ModelExtractor
	}
	if cfg.OllamaTimeout() > 0 {
		llmConfig.Timeout = cfg.OllamaTimeout()
	}
	if err := llmConfig.Validate(); err != nil {
		return compose.Service{}, fmt.Errorf("ollama config: %w", err)
	}
	logger.Info("using local Ollama agent",
		slog.String("base_url", llmConfig.BaseURL),
		slog.String("model", llmConfig.Model))
	return compose.NewService(llm.NewOllama(llmConfig), nil, ""), nil
}

// writePayloadFallback preserves the aggregated payload in the output
// directory after a failed analysis or delivery and returns its path.
func writePayloadFallback(dir string, payload compose.Payload) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	data, err := payload.Encode()
	if err != nil {
		return "", err
	}
	path := filepath.Join(dir, fmt.Sprintf("bip_entries_%s.entries.json", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// writeArticle stores the article under a timestamped name in the output
// directory and returns its path.
func writeArticle(dir, article string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output directory: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("artykul_%s.html", time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, []byte(article), 0o644); err != nil {
		return "", err
	}
	return path, nil
}

// newHTTPClient creates the scraping HTTP client with connection pooling.
// TLS 1.2+ is enforced.
func newHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
			},
		},
	}
}
