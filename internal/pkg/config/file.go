package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"bip-digest/internal/domain/entity"
)

// DefaultPath is the config file read when no path is given.
const DefaultPath = "config.yaml"

const defaultRequestTimeoutSeconds = 15

// Config is the YAML configuration file for a digest run.
//
// Example:
//
//	sources:
//	  - name: "Gmina Wolin"
//	    rss_url: "https://bip.gminawolin.pl/rss.xml"
//	  - name: "Gmina Przybiernów"
//	    list_url: "https://bip.przybiernow.pl/rejestr-zmian"
//	    change_registry: true
//	    max_entries: 15
//	scraper:
//	  request_timeout: 15
//	  user_agent: "BIPDigestBot/1.0"
//	ollama:
//	  base_url: "http://localhost:11434"
//	  model: "SpeakLeash/bielik-11b-v2.3-instruct:Q4_K_M"
//	agent:
//	  webhook_url: "https://example.com/hooks/bip"
//	  api_key: "secret"
type Config struct {
	Sources []entity.Source `yaml:"sources"`
	Scraper ScraperConfig   `yaml:"scraper"`
	Ollama  OllamaConfig    `yaml:"ollama"`
	Agent   AgentConfig     `yaml:"agent"`
}

// ScraperConfig controls HTTP fetching of the configured sources.
type ScraperConfig struct {
	// RequestTimeout is the per-source timeout in seconds. Default: 15.
	RequestTimeout int `yaml:"request_timeout"`

	// UserAgent overrides the User-Agent header sent to BIP sites.
	UserAgent string `yaml:"user_agent"`

	// FetchContent enables fetching the full entry page when a scraped
	// entry carries little or no content.
	FetchContent bool `yaml:"fetch_content"`

	// ContentThreshold is the content length (runes) below which the
	// entry page is fetched. Zero means the fetcher default.
	ContentThreshold int `yaml:"content_threshold"`
}

// OllamaConfig selects the local model endpoint and models.
type OllamaConfig struct {
	BaseURL        string `yaml:"base_url"`
	Model          string `yaml:"model"`
	ModelExtractor string `yaml:"model_extractor"`

	// Timeout is the per-request timeout in seconds. Zero means the
	// client default.
	Timeout int `yaml:"timeout"`
}

// AgentConfig points at a remote agent webhook. When WebhookURL is set
// the run delivers the payload there instead of calling a local model.
type AgentConfig struct {
	WebhookURL   string `yaml:"webhook_url"`
	APIKey       string `yaml:"api_key"`
	APIKeyHeader string `yaml:"api_key_header"`
}

// Load reads and validates the YAML configuration at path.
// An empty path falls back to DefaultPath. Each source is validated and
// stamped with the scraper request timeout.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	return &cfg, nil
}

// Validate checks the configuration and normalizes defaults in place.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return entity.ErrNoSources
	}

	if c.Scraper.RequestTimeout < 0 {
		return fmt.Errorf("scraper.request_timeout must not be negative, got %d", c.Scraper.RequestTimeout)
	}
	if c.Scraper.RequestTimeout == 0 {
		c.Scraper.RequestTimeout = defaultRequestTimeoutSeconds
	}
	if c.Scraper.ContentThreshold < 0 {
		return fmt.Errorf("scraper.content_threshold must not be negative, got %d", c.Scraper.ContentThreshold)
	}

	timeout := c.RequestTimeout()
	for i := range c.Sources {
		if err := c.Sources[i].Validate(); err != nil {
			return fmt.Errorf("sources[%d]: %w", i, err)
		}
		c.Sources[i].Timeout = timeout
	}

	if c.Ollama.Timeout < 0 {
		return fmt.Errorf("ollama.timeout must not be negative, got %d", c.Ollama.Timeout)
	}

	return nil
}

// RequestTimeout returns the scraper request timeout as a duration.
func (c *Config) RequestTimeout() time.Duration {
	return time.Duration(c.Scraper.RequestTimeout) * time.Second
}

// OllamaTimeout returns the local model request timeout as a duration,
// zero when unset.
func (c *Config) OllamaTimeout() time.Duration {
	return time.Duration(c.Ollama.Timeout) * time.Second
}

// UsesWebhook reports whether the run should deliver the payload to a
// remote agent instead of calling a local model.
func (c *Config) UsesWebhook() bool {
	return c.Agent.WebhookURL != ""
}
