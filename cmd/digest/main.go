// Command digest runs one scrape-and-compose cycle: it collects entries
// from the configured BIP registries and either emits the payload JSON,
// drafts an article through a local model, or posts the payload to a
// remote agent webhook.
//
// Usage:
//
//	digest -local              scrape, filter and draft the article locally
//	digest -local -output a.html
//	digest                     scrape and send to the agent webhook
//	digest -scrape-only        scrape and print the payload JSON to stdout
//	digest -output plik.json   scrape and save the payload (no delivery)
package main

import (
	"context"
	"crypto/tls"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bip-digest/internal/domain/entity"
	"bip-digest/internal/infra/fetcher"
	"bip-digest/internal/infra/llm"
	"bip-digest/internal/infra/scraper"
	"bip-digest/internal/infra/webhook"
	"bip-digest/internal/observability/logging"
	"bip-digest/internal/observability/metrics"
	"bip-digest/internal/observability/tracing"
	"bip-digest/internal/pkg/config"
	"bip-digest/internal/pkg/runid"
	"bip-digest/internal/usecase/aggregate"
	"bip-digest/internal/usecase/compose"
)

// fallbackPayloadPath receives the payload when no webhook is configured
// and no output path was given.
const fallbackPayloadPath = "bip_output.json"

type cliFlags struct {
	configPath     string
	scrapeOnly     bool
	output         string
	instruction    string
	local          bool
	model          string
	modelExtractor string
}

func main() {
	os.Exit(run())
}

func run() int {
	flags := parseFlags()

	logger := logging.NewTextLogger()
	slog.SetDefault(logger)

	cfg, err := config.Load(flags.configPath)
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		return 1
	}
	metrics.UpdateSourcesConfigured(len(cfg.Sources))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx = runid.WithRunID(ctx, runid.New())
	logger = logging.WithRunID(ctx, logger)
	slog.SetDefault(logger)

	start := time.Now()
	ok := runDigest(ctx, logger, cfg, flags)
	metrics.RecordRun(ok, time.Since(start))
	if !ok {
		return 1
	}
	return 0
}

func parseFlags() cliFlags {
	var flags cliFlags
	flag.StringVar(&flags.configPath, "config", config.DefaultPath, "path to the YAML configuration")
	flag.BoolVar(&flags.scrapeOnly, "scrape-only", false, "collect entries and print the payload JSON to stdout")
	flag.StringVar(&flags.output, "output", "", "write the result to this file; - means stdout")
	flag.StringVar(&flags.instruction, "instruction", "", "extra instruction for the agent")
	flag.BoolVar(&flags.local, "local", false, "filter and draft through the local model instead of the webhook")
	flag.StringVar(&flags.model, "model", "", "writer model override for the local path")
	flag.StringVar(&flags.modelExtractor, "model-extractor", "", "fact extraction model for the two-stage local pipeline")
	flag.Parse()
	return flags
}

func runDigest(ctx context.Context, logger *slog.Logger, cfg *config.Config, flags cliFlags) bool {
	collectCtx, span := tracing.StartSpan(ctx, "digest.collect")
	svc := buildAggregator(logger, cfg)
	entries, stats, err := svc.Collect(collectCtx)
	span.End()
	if err != nil {
		if errors.Is(err, aggregate.ErrNoEntries) {
			logger.Error("no entries collected from any source",
				slog.Int("sources", stats.Sources),
				slog.Int("failed", stats.Failed))
		} else {
			logger.Error("collection failed", slog.Any("error", err))
		}
		return false
	}

	logger.Info("entries collected",
		slog.Int("entries", stats.Entries),
		slog.Int("sources", stats.Sources),
		slog.Int("failed", stats.Failed),
		slog.Int("duplicated", stats.Duplicated),
		slog.Duration("duration", stats.Duration))

	payload := compose.BuildPayload(entries, flags.instruction)

	// Local debugging snapshot, best effort.
	if path, err := writeSnapshot(payload); err != nil {
		logger.Warn("failed to write snapshot", slog.Any("error", err))
	} else {
		logger.Info("snapshot written", slog.String("path", path))
	}

	if flags.local {
		return runLocal(ctx, logger, cfg, flags, entries, payload)
	}

	if flags.scrapeOnly {
		return emitPayload(logger, payload, "-")
	}

	if flags.output != "" {
		return emitPayload(logger, payload, flags.output)
	}

	if !cfg.UsesWebhook() {
		logger.Warn("no webhook_url configured, saving payload instead",
			slog.String("path", fallbackPayloadPath))
		return emitPayload(logger, payload, fallbackPayloadPath)
	}

	return deliverToWebhook(ctx, logger, cfg, payload)
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
			logger.Info("content fetching enabled", slog.Int("threshold", fetchConfig.Threshold))
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

// runLocal filters and drafts through the local model and writes the
// article. On failure the raw payload is preserved next to the intended
// output so the scraped data of the run is not lost.
func runLocal(ctx context.Context, logger *slog.Logger, cfg *config.Config, flags cliFlags, entries []entity.Entry, payload compose.Payload) bool {
	agent, err := buildLocalAgent(logger, cfg, flags)
	if err != nil {
		logger.Error("failed to configure local agent", slog.Any("error", err))
		return false
	}

	outPath := flags.output
	if outPath == "" {
		outPath = "artykul.html"
	}

	composer := compose.NewService(agent, nil, flags.instruction)

	composeCtx, span := tracing.StartSpan(ctx, "digest.compose")
	article, err := composer.Article(composeCtx, entries)
	span.End()
	if err != nil {
		if errors.Is(err, compose.ErrNothingRelevant) {
			logger.Info("model kept no entries, nothing to write about")
			return true
		}
		logger.Error("article composition failed", slog.Any("error", err))
		preservePayload(logger, payload, outPath)
		return false
	}

	if err := writeResult(outPath, []byte(article)); err != nil {
		logger.Error("failed to write article", slog.Any("error", err))
		return false
	}
	if outPath != "-" {
		logger.Info("article written", slog.String("path", outPath))
	}
	return true
}

// buildLocalAgent picks the local transport: native Ollama API by
// default, an OpenAI-compatible endpoint when AGENT_TYPE=openai.
func buildLocalAgent(logger *slog.Logger, cfg *config.Config, flags cliFlags) (compose.Agent, error) {
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
	// Flags win over the config file.
	if flags.model != "" {
		llmConfig.Model = flags.model
	}
	if flags.modelExtractor != "" {
		llmConfig.ExtractorModel = flags.modelExtractor
	}

	if err := llmConfig.Validate(); err != nil {
		return nil, err
	}

	agentType := os.Getenv("AGENT_TYPE")
	if agentType == "" {
		agentType = "ollama"
	}

	switch agentType {
	case "ollama":
		logger.Info("using local Ollama agent",
			slog.String("base_url", llmConfig.BaseURL),
			slog.String("model", llmConfig.Model),
			slog.String("model_extractor", llmConfig.ExtractorModel))
		return llm.NewOllama(llmConfig), nil
	case "openai":
		logger.Info("using OpenAI-compatible agent",
			slog.String("base_url", llmConfig.BaseURL),
			slog.String("model", llmConfig.Model))
		return llm.NewOpenAICompat(os.Getenv("OPENAI_API_KEY"), llmConfig), nil
	default:
		return nil, fmt.Errorf("invalid AGENT_TYPE %q, expected ollama or openai", agentType)
	}
}

// deliverToWebhook posts the payload to the configured agent. On failure
// the payload is preserved locally so the run's data survives.
func deliverToWebhook(ctx context.Context, logger *slog.Logger, cfg *config.Config, payload compose.Payload) bool {
	webhookConfig := webhook.Config{
		URL:          cfg.Agent.WebhookURL,
		APIKey:       cfg.Agent.APIKey,
		APIKeyHeader: cfg.Agent.APIKeyHeader,
	}
	if err := webhookConfig.Validate(); err != nil {
		logger.Error("invalid agent configuration", slog.Any("error", err))
		return false
	}

	agent := webhook.NewAgent(webhookConfig)
	composer := compose.NewService(nil, agent, payload.Instruction)

	deliverCtx, span := tracing.StartSpan(ctx, "digest.deliver")
	response, err := composer.Article(deliverCtx, payload.Entries)
	span.End()
	if err != nil {
		logger.Error("delivery to agent failed", slog.Any("error", err))
		preservePayload(logger, payload, fallbackPayloadPath)
		return false
	}

	logger.Info("payload delivered to agent")
	if response != "" {
		fmt.Println(response)
	}
	return true
}

// emitPayload writes the payload JSON to the given path ("-" = stdout).
func emitPayload(logger *slog.Logger, payload compose.Payload, path string) bool {
	data, err := payload.Encode()
	if err != nil {
		logger.Error("failed to encode payload", slog.Any("error", err))
		return false
	}
	if err := writeResult(path, data); err != nil {
		logger.Error("failed to write payload", slog.Any("error", err))
		return false
	}
	if path != "-" {
		logger.Info("payload written", slog.String("path", path))
	}
	return true
}

// preservePayload saves the raw payload next to the intended output
// after a failed analysis or delivery. Best effort.
func preservePayload(logger *slog.Logger, payload compose.Payload, outPath string) {
	path := fallbackPayloadPath
	if outPath != "" && outPath != "-" {
		path = outPath + ".entries.json"
	}

	data, err := payload.Encode()
	if err != nil {
		logger.Warn("failed to encode fallback payload", slog.Any("error", err))
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		logger.Warn("failed to preserve payload", slog.Any("error", err))
		return
	}
	logger.Info("raw payload preserved", slog.String("path", path))
}

// writeSnapshot writes a timestamped payload snapshot into the working
// directory and returns its path.
func writeSnapshot(payload compose.Payload) (string, error) {
	data, err := payload.Encode()
	if err != nil {
		return "", err
	}
	path := fmt.Sprintf("bip_entries_%s.json", time.Now().Format("20060102_150405"))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func writeResult(path string, data []byte) error {
	if path == "-" {
		_, err := os.Stdout.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
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
