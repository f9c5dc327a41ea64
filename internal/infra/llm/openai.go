package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"bip-digest/internal/domain/entity"
)

// OpenAICompat is an agent for OpenAI-compatible chat-completion servers
// (llama.cpp server, LM Studio, vLLM). It speaks the same filter/draft
// protocol as the Ollama agent, just over the /v1/chat/completions API.
type OpenAICompat struct {
	client *openai.Client
	config Config
}

// NewOpenAICompat creates an agent against an OpenAI-compatible base URL.
// The API key may be empty; local servers usually ignore it.
func NewOpenAICompat(apiKey string, config Config) *OpenAICompat {
	clientConfig := openai.DefaultConfig(apiKey)
	clientConfig.BaseURL = strings.TrimRight(config.BaseURL, "/") + "/v1"

	slog.Info("initialized OpenAI-compatible agent",
		slog.String("base_url", clientConfig.BaseURL),
		slog.String("model", config.Model))

	return &OpenAICompat{
		client: openai.NewClientWithConfig(clientConfig),
		config: config,
	}
}

// Filter asks the model which entries matter to residents, batch by batch.
func (o *OpenAICompat) Filter(ctx context.Context, entries []entity.Entry, instruction string) ([]entity.Entry, error) {
	model := o.config.ExtractorModel
	if model == "" {
		model = o.config.Model
	}

	var kept []entity.Entry
	batches := chunkEntries(entries, o.config.ChunkSize)
	for i, batch := range batches {
		response, err := o.complete(ctx, model, systemFilter, buildFilterPrompt(batch, instruction))
		if err != nil {
			return nil, fmt.Errorf("filter batch %d/%d: %w", i+1, len(batches), err)
		}

		numbers, ok := parseKeptNumbers(response)
		if !ok {
			slog.Warn("unparseable filter response, keeping whole batch",
				slog.Int("batch", i+1),
				slog.String("model", model))
			kept = append(kept, batch...)
			continue
		}
		for _, n := range numbers {
			if n >= 1 && n <= len(batch) {
				kept = append(kept, batch[n-1])
			}
		}
	}
	return kept, nil
}

// Draft analyzes the entries batch by batch and composes the article from
// the combined analysis.
func (o *OpenAICompat) Draft(ctx context.Context, entries []entity.Entry, instruction string) (string, error) {
	batches := chunkEntries(entries, o.config.ChunkSize)

	var parts []string
	failed := 0
	for i, batch := range batches {
		var (
			response string
			err      error
		)
		if o.config.ExtractorModel != "" {
			response, err = o.complete(ctx, o.config.ExtractorModel, systemExtraction, buildExtractionPrompt(batch))
		} else {
			response, err = o.complete(ctx, o.config.Model, systemAnalysis, buildAnalysisPrompt(batch, instruction))
		}
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			failed++
			slog.Warn("analysis batch failed",
				slog.Int("batch", i+1),
				slog.Int("batches", len(batches)),
				slog.Any("error", err))
			continue
		}
		parts = append(parts, fmt.Sprintf("--- CZĘŚĆ %d ---\n%s", i+1, response))
	}
	if len(parts) == 0 {
		return "", fmt.Errorf("analysis failed for all %d batches", failed)
	}

	article, err := o.complete(ctx, o.config.Model, systemArticle, buildArticlePrompt(strings.Join(parts, "\n\n"), instruction))
	if err != nil {
		return "", fmt.Errorf("generate article: %w", err)
	}
	return article, nil
}

func (o *OpenAICompat) complete(ctx context.Context, model, system, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, o.config.Timeout)
	defer cancel()

	start := time.Now()
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: system},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	duration := time.Since(start)

	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	slog.Debug("model call completed",
		slog.String("model", model),
		slog.Duration("duration", duration))
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
