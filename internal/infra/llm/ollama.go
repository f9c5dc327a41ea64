// Package llm provides local language model agents: an Ollama client and an
// OpenAI-compatible client. Both implement the compose.Agent interface.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"bip-digest/internal/domain/entity"
)

// maxErrorBodyLen caps the response body carried in error messages.
const maxErrorBodyLen = 500

// Ollama calls a local Ollama server. It tries the classic /api/generate
// endpoint and falls back to /api/chat when the server answers 404 (some
// installations and proxies expose only the chat API).
type Ollama struct {
	config     Config
	httpClient *http.Client
}

// NewOllama creates an Ollama agent. The config should be validated first.
func NewOllama(config Config) *Ollama {
	return &Ollama{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
	}
}

type generateRequest struct {
	Model   string         `json:"model"`
	Prompt  string         `json:"prompt"`
	System  string         `json:"system,omitempty"`
	Stream  bool           `json:"stream"`
	Options requestOptions `json:"options"`
}

type requestOptions struct {
	NumCtx int `json:"num_ctx"`
}

type generateResponse struct {
	Response string `json:"response"`
	Error    string `json:"error"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Options  requestOptions `json:"options"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
	Error   string      `json:"error"`
}

// Filter asks the model which entries matter to residents and returns that
// subset. Entries go out in batches; a batch whose answer cannot be parsed
// is kept whole rather than silently dropped.
func (o *Ollama) Filter(ctx context.Context, entries []entity.Entry, instruction string) ([]entity.Entry, error) {
	model := o.config.ExtractorModel
	if model == "" {
		model = o.config.Model
	}

	var kept []entity.Entry
	batches := chunkEntries(entries, o.config.ChunkSize)
	for i, batch := range batches {
		response, err := o.generate(ctx, model, systemFilter, buildFilterPrompt(batch, instruction))
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

// Draft turns the filtered entries into the final article. The analysis is
// batched (map) and the combined result goes to the writer model (reduce).
// With an extractor model configured the analysis step uses it to pull dry
// facts out first, and the writer model only composes.
func (o *Ollama) Draft(ctx context.Context, entries []entity.Entry, instruction string) (string, error) {
	analysis, err := o.analyze(ctx, entries, instruction)
	if err != nil {
		return "", err
	}

	article, err := o.generate(ctx, o.config.Model, systemArticle, buildArticlePrompt(analysis, instruction))
	if err != nil {
		return "", fmt.Errorf("generate article: %w", err)
	}
	return article, nil
}

func (o *Ollama) analyze(ctx context.Context, entries []entity.Entry, instruction string) (string, error) {
	batches := chunkEntries(entries, o.config.ChunkSize)
	slog.Info("analyzing entries",
		slog.Int("entries", len(entries)),
		slog.Int("batches", len(batches)))

	var parts []string
	failed := 0
	for i, batch := range batches {
		var (
			response string
			err      error
		)
		if o.config.ExtractorModel != "" {
			response, err = o.generate(ctx, o.config.ExtractorModel, systemExtraction, buildExtractionPrompt(batch))
		} else {
			response, err = o.generate(ctx, o.config.Model, systemAnalysis, buildAnalysisPrompt(batch, instruction))
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
	return strings.Join(parts, "\n\n"), nil
}

// generate calls /api/generate, falling back to /api/chat on 404.
func (o *Ollama) generate(ctx context.Context, model, system, prompt string) (string, error) {
	start := time.Now()
	result, err := o.doGenerate(ctx, model, system, prompt)
	if err == nil {
		slog.Debug("model call completed",
			slog.String("model", model),
			slog.Duration("duration", time.Since(start)))
		return result, nil
	}

	var httpErr *httpStatusError
	if errors.As(err, &httpErr) && httpErr.status == http.StatusNotFound {
		slog.Warn("/api/generate returned 404, trying /api/chat fallback",
			slog.String("model", model),
			slog.String("error", httpErr.body))
		return o.doChat(ctx, model, system, prompt)
	}
	return "", err
}

func (o *Ollama) doGenerate(ctx context.Context, model, system, prompt string) (string, error) {
	reqBody := generateRequest{
		Model:   model,
		Prompt:  prompt,
		System:  system,
		Stream:  false,
		Options: requestOptions{NumCtx: o.config.NumCtx},
	}

	var respBody generateResponse
	if err := o.post(ctx, "/api/generate", reqBody, &respBody); err != nil {
		return "", err
	}
	if respBody.Error != "" {
		return "", fmt.Errorf("ollama error: %s", respBody.Error)
	}
	return strings.TrimSpace(respBody.Response), nil
}

func (o *Ollama) doChat(ctx context.Context, model, system, prompt string) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if system != "" {
		messages = append(messages, chatMessage{Role: "system", Content: system})
	}
	messages = append(messages, chatMessage{Role: "user", Content: prompt})

	reqBody := chatRequest{
		Model:    model,
		Messages: messages,
		Stream:   false,
		Options:  requestOptions{NumCtx: o.config.NumCtx},
	}

	var respBody chatResponse
	if err := o.post(ctx, "/api/chat", reqBody, &respBody); err != nil {
		return "", err
	}
	if respBody.Error != "" {
		return "", fmt.Errorf("ollama error: %s", respBody.Error)
	}
	return strings.TrimSpace(respBody.Message.Content), nil
}

// httpStatusError carries the status code so the 404 chat fallback can
// distinguish a missing endpoint from a real failure.
type httpStatusError struct {
	status int
	body   string
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.status, e.body)
}

func (o *Ollama) post(ctx context.Context, path string, reqBody, respBody any) error {
	data, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.config.BaseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call %s: %w", path, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{status: resp.StatusCode, body: truncateText(string(body), maxErrorBodyLen)}
	}

	if err := json.Unmarshal(body, respBody); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
