package compose

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"bip-digest/internal/domain/entity"
	"bip-digest/internal/observability/metrics"
)

// Agent is the capability boundary to the language model. Filter returns the
// subset of entries worth writing about; Draft turns that subset into the
// final article text. The local Ollama client and the OpenAI-compatible
// client both implement it.
type Agent interface {
	Filter(ctx context.Context, entries []entity.Entry, instruction string) ([]entity.Entry, error)
	Draft(ctx context.Context, entries []entity.Entry, instruction string) (string, error)
}

// Remote performs filtering and drafting in a single call, for deployments
// where an external webhook owns the whole analysis step.
type Remote interface {
	Process(ctx context.Context, payload Payload) (string, error)
}

// Service orchestrates article composition. When a Remote is configured it
// takes precedence over the two-step Agent path.
type Service struct {
	Agent       Agent
	Remote      Remote
	Instruction string
}

// NewService creates a compose Service. Either agent or remote may be nil,
// but not both.
func NewService(agent Agent, remote Remote, instruction string) Service {
	return Service{Agent: agent, Remote: remote, Instruction: instruction}
}

// Article produces the final article text for the aggregated entries.
//
// With a Remote configured the full payload goes out in one call and the
// response body is the article. Otherwise the local agent filters the
// entries first and drafts from whatever survived; ErrNothingRelevant is
// returned when the filter keeps nothing.
func (s *Service) Article(ctx context.Context, entries []entity.Entry) (string, error) {
	logger := slog.Default()

	if s.Remote != nil {
		start := time.Now()
		article, err := s.Remote.Process(ctx, BuildPayload(entries, s.Instruction))
		metrics.RecordAgentCall("webhook", err == nil, time.Since(start))
		if err != nil {
			metrics.RecordArticleGenerated(false)
			return "", fmt.Errorf("remote agent: %w", err)
		}
		metrics.RecordArticleGenerated(true)
		return article, nil
	}

	if s.Agent == nil {
		return "", ErrNoAgent
	}

	filterStart := time.Now()
	kept, err := s.Agent.Filter(ctx, entries, s.Instruction)
	metrics.RecordAgentCall("filter", err == nil, time.Since(filterStart))
	if err != nil {
		metrics.RecordArticleGenerated(false)
		return "", fmt.Errorf("filter entries: %w", err)
	}
	logger.Info("entries filtered",
		slog.Int("entries", len(entries)),
		slog.Int("kept", len(kept)),
	)
	if len(kept) == 0 {
		metrics.RecordArticleGenerated(false)
		return "", ErrNothingRelevant
	}

	draftStart := time.Now()
	article, err := s.Agent.Draft(ctx, kept, s.Instruction)
	metrics.RecordAgentCall("draft", err == nil, time.Since(draftStart))
	if err != nil {
		metrics.RecordArticleGenerated(false)
		return "", fmt.Errorf("draft article: %w", err)
	}

	metrics.RecordArticleGenerated(true)
	logger.Info("article drafted",
		slog.Int("entries", len(kept)),
		slog.Int("article_length", len(article)),
	)
	return article, nil
}
