package llm

import (
	"fmt"
	"strings"
	"time"
)

// Defaults for the local Ollama deployment. The writer model is Bielik, a
// Polish instruct model; the context window is raised because a batch of
// entries with content easily exceeds the 2k default.
const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "SpeakLeash/bielik-11b-v2.3-instruct:Q4_K_M"

	defaultTimeout   = 300 * time.Second
	defaultNumCtx    = 16384
	defaultChunkSize = 5
)

// Config holds configuration for the local model agent.
type Config struct {
	// BaseURL is the Ollama server root, without a trailing slash.
	BaseURL string

	// Model is the writer model used for analysis and article drafting.
	Model string

	// ExtractorModel, when set, switches drafting to a two-stage pipeline:
	// a lighter model extracts facts first and the writer model composes
	// the article from them. It is also preferred for filtering.
	ExtractorModel string

	// Timeout bounds a single model call. Local models on CPU are slow;
	// the default is generous.
	Timeout time.Duration

	// NumCtx is the context window requested from the model.
	NumCtx int

	// ChunkSize is how many entries go into one model call. Batching keeps
	// prompts inside the context window (map step); results are joined
	// afterwards (reduce step).
	ChunkSize int
}

// DefaultConfig returns the default local agent configuration.
func DefaultConfig() Config {
	return Config{
		BaseURL:   DefaultBaseURL,
		Model:     DefaultModel,
		Timeout:   defaultTimeout,
		NumCtx:    defaultNumCtx,
		ChunkSize: defaultChunkSize,
	}
}

// Validate checks the configuration and fills derivable defaults.
func (c *Config) Validate() error {
	c.BaseURL = strings.TrimRight(strings.TrimSpace(c.BaseURL), "/")
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}
	if !strings.HasPrefix(c.BaseURL, "http://") && !strings.HasPrefix(c.BaseURL, "https://") {
		return fmt.Errorf("base URL must be http or https, got %q", c.BaseURL)
	}
	if c.Model == "" {
		return fmt.Errorf("model cannot be empty")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive, got %v", c.Timeout)
	}
	if c.NumCtx <= 0 {
		c.NumCtx = defaultNumCtx
	}
	if c.ChunkSize <= 0 {
		c.ChunkSize = defaultChunkSize
	}
	return nil
}
