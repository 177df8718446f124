// Package config provides configuration loading and management for
// tendercheck.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// FailurePolicy controls the status of degraded verdicts synthesized when
// the judge fails or drops a requirement.
type FailurePolicy string

const (
	// FailOpen marks degraded verdicts COMPLIANT with a low score. This
	// matches historical behavior; it understates risk and every degraded
	// verdict is flagged for manual review.
	FailOpen FailurePolicy = "fail-open"

	// FailClosed marks degraded verdicts NON_COMPLIANT.
	FailClosed FailurePolicy = "fail-closed"
)

// Config represents the complete tendercheck configuration.
type Config struct {
	Embedding EmbeddingConfig `yaml:"embedding"`
	Judge     JudgeConfig     `yaml:"judge"`
	Relevance RelevanceConfig `yaml:"relevance"`
	Batch     BatchConfig     `yaml:"batch"`
	Legal     LegalConfig     `yaml:"legal"`
	Rules     RulesConfig     `yaml:"rules"`
	Storage   StorageConfig   `yaml:"storage"`
	NATS      NATSConfig      `yaml:"nats"`
}

// EmbeddingConfig configures the embedding provider.
type EmbeddingConfig struct {
	// Provider selects the embedding backend ("ollama" or "openai").
	Provider string `yaml:"provider"`
	// Model is the embedding model name.
	Model string `yaml:"model"`
	// Endpoint is the provider API endpoint (empty = provider default).
	Endpoint string `yaml:"endpoint"`
	// Dimensions is the vector dimensionality of the model.
	Dimensions int `yaml:"dimensions"`
	// CacheCapacity bounds the in-memory embedding cache entry count.
	CacheCapacity int `yaml:"cache_capacity"`
}

// JudgeConfig configures the compliance judge model.
type JudgeConfig struct {
	// Provider is the LLM provider (anthropic, ollama, openai).
	Provider string `yaml:"provider"`
	// Model is the judge model name.
	Model string `yaml:"model"`
	// Endpoint is the provider API endpoint (empty = provider default).
	Endpoint string `yaml:"endpoint"`
	// Fallback lists backup models tried when the primary fails.
	Fallback []string `yaml:"fallback"`
	// Temperature controls randomness (0 = deterministic).
	Temperature float64 `yaml:"temperature"`
}

// RelevanceConfig configures requirement relevance filtering.
type RelevanceConfig struct {
	// Threshold is the minimum cosine similarity for a requirement to be
	// considered relevant to the proposal.
	Threshold float64 `yaml:"threshold"`
	// Limit caps the number of relevant requirements selected.
	Limit int `yaml:"limit"`
}

// BatchConfig configures judge batching and concurrency.
type BatchConfig struct {
	// Size is the number of requirements per judge call.
	Size int `yaml:"size"`
	// Concurrency bounds simultaneous in-flight judge calls.
	Concurrency int `yaml:"concurrency"`
	// Timeout is the wall-clock budget per judge call.
	Timeout time.Duration `yaml:"timeout"`
	// ProposalBudget truncates proposal text in batch calls (runes).
	ProposalBudget int `yaml:"proposal_budget"`
	// SingleBudget truncates proposal text in single-requirement calls.
	SingleBudget int `yaml:"single_budget"`
	// OnJudgeFailure selects the degraded verdict policy.
	OnJudgeFailure FailurePolicy `yaml:"on_judge_failure"`
}

// LegalConfig configures the legal citation corpus.
type LegalConfig struct {
	// CorpusDir is the directory holding corpus YAML files (empty = no
	// legal context).
	CorpusDir string `yaml:"corpus_dir"`
	// MinRelevance is the similarity floor for citations.
	MinRelevance float64 `yaml:"min_relevance"`
	// MaxCitations caps citations attached per requirement.
	MaxCitations int `yaml:"max_citations"`
	// Watch enables reindexing when corpus files change.
	Watch bool `yaml:"watch"`
}

// RulesConfig configures the deterministic policy rules.
type RulesConfig struct {
	// ScopeInclude lists keywords marking a tender as in-domain. The scope
	// rule only runs when at least one keyword list is non-empty.
	ScopeInclude []string `yaml:"scope_include"`
	// ScopeExclude lists keywords marking a tender as out-of-domain.
	// Exclusion matches take precedence over inclusion matches.
	ScopeExclude []string `yaml:"scope_exclude"`
}

// StorageConfig configures tender persistence.
type StorageConfig struct {
	// Backend selects the store ("sqlite" or "nats").
	Backend string `yaml:"backend"`
	// Path is the sqlite database file path.
	Path string `yaml:"path"`
}

// NATSConfig configures the NATS connection for the NATS-backed store and
// the optional event publisher.
type NATSConfig struct {
	// URL is the NATS server URL (empty = NATS disabled).
	URL string `yaml:"url"`
}

// MinProposalLength is the minimum extracted proposal text length; anything
// shorter is rejected as unreadable before any provider call is made.
const MinProposalLength = 50

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Embedding: EmbeddingConfig{
			Provider:      "ollama",
			Model:         "nomic-embed-text",
			Dimensions:    768,
			CacheCapacity: 4096,
		},
		Judge: JudgeConfig{
			Provider:    "ollama",
			Model:       "qwen2.5:14b",
			Endpoint:    "http://localhost:11434/v1",
			Temperature: 0,
		},
		Relevance: RelevanceConfig{
			Threshold: 0.35,
			Limit:     50,
		},
		Batch: BatchConfig{
			Size:           3,
			Concurrency:    3,
			Timeout:        2 * time.Minute,
			ProposalBudget: 6000,
			SingleBudget:   12000,
			OnJudgeFailure: FailOpen,
		},
		Legal: LegalConfig{
			MinRelevance: 0.5,
			MaxCitations: 3,
		},
		Storage: StorageConfig{
			Backend: "sqlite",
			Path:    "tendercheck.db",
		},
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if c.Embedding.Model == "" {
		return fmt.Errorf("embedding.model is required")
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("embedding.dimensions must be positive")
	}
	if c.Judge.Model == "" {
		return fmt.Errorf("judge.model is required")
	}
	if c.Judge.Temperature < 0 || c.Judge.Temperature > 1 {
		return fmt.Errorf("judge.temperature must be between 0 and 1")
	}
	if c.Relevance.Threshold < 0 || c.Relevance.Threshold > 1 {
		return fmt.Errorf("relevance.threshold must be between 0 and 1")
	}
	if c.Batch.Size <= 0 {
		return fmt.Errorf("batch.size must be positive")
	}
	if c.Batch.Concurrency <= 0 {
		return fmt.Errorf("batch.concurrency must be positive")
	}
	switch c.Batch.OnJudgeFailure {
	case FailOpen, FailClosed:
	default:
		return fmt.Errorf("batch.on_judge_failure must be %q or %q", FailOpen, FailClosed)
	}
	switch c.Storage.Backend {
	case "sqlite", "nats":
	default:
		return fmt.Errorf("storage.backend must be \"sqlite\" or \"nats\"")
	}
	if c.Storage.Backend == "nats" && c.NATS.URL == "" {
		return fmt.Errorf("nats.url is required for the nats storage backend")
	}
	return nil
}

// LoadFromFile loads configuration from a YAML file, layered over defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration to a YAML file.
func (c *Config) SaveToFile(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Merge merges another config into this one (other takes precedence for
// non-zero values).
func (c *Config) Merge(other *Config) {
	if other == nil {
		return
	}

	if other.Embedding.Provider != "" {
		c.Embedding.Provider = other.Embedding.Provider
	}
	if other.Embedding.Model != "" {
		c.Embedding.Model = other.Embedding.Model
	}
	if other.Embedding.Endpoint != "" {
		c.Embedding.Endpoint = other.Embedding.Endpoint
	}
	if other.Embedding.Dimensions != 0 {
		c.Embedding.Dimensions = other.Embedding.Dimensions
	}
	if other.Embedding.CacheCapacity != 0 {
		c.Embedding.CacheCapacity = other.Embedding.CacheCapacity
	}

	if other.Judge.Provider != "" {
		c.Judge.Provider = other.Judge.Provider
	}
	if other.Judge.Model != "" {
		c.Judge.Model = other.Judge.Model
	}
	if other.Judge.Endpoint != "" {
		c.Judge.Endpoint = other.Judge.Endpoint
	}
	if len(other.Judge.Fallback) > 0 {
		c.Judge.Fallback = other.Judge.Fallback
	}
	if other.Judge.Temperature != 0 {
		c.Judge.Temperature = other.Judge.Temperature
	}

	if other.Relevance.Threshold != 0 {
		c.Relevance.Threshold = other.Relevance.Threshold
	}
	if other.Relevance.Limit != 0 {
		c.Relevance.Limit = other.Relevance.Limit
	}

	if other.Batch.Size != 0 {
		c.Batch.Size = other.Batch.Size
	}
	if other.Batch.Concurrency != 0 {
		c.Batch.Concurrency = other.Batch.Concurrency
	}
	if other.Batch.Timeout != 0 {
		c.Batch.Timeout = other.Batch.Timeout
	}
	if other.Batch.ProposalBudget != 0 {
		c.Batch.ProposalBudget = other.Batch.ProposalBudget
	}
	if other.Batch.SingleBudget != 0 {
		c.Batch.SingleBudget = other.Batch.SingleBudget
	}
	if other.Batch.OnJudgeFailure != "" {
		c.Batch.OnJudgeFailure = other.Batch.OnJudgeFailure
	}

	if other.Legal.CorpusDir != "" {
		c.Legal.CorpusDir = other.Legal.CorpusDir
	}
	if other.Legal.MinRelevance != 0 {
		c.Legal.MinRelevance = other.Legal.MinRelevance
	}
	if other.Legal.MaxCitations != 0 {
		c.Legal.MaxCitations = other.Legal.MaxCitations
	}
	if other.Legal.Watch {
		c.Legal.Watch = true
	}

	if len(other.Rules.ScopeInclude) > 0 {
		c.Rules.ScopeInclude = other.Rules.ScopeInclude
	}
	if len(other.Rules.ScopeExclude) > 0 {
		c.Rules.ScopeExclude = other.Rules.ScopeExclude
	}

	if other.Storage.Backend != "" {
		c.Storage.Backend = other.Storage.Backend
	}
	if other.Storage.Path != "" {
		c.Storage.Path = other.Storage.Path
	}

	if other.NATS.URL != "" {
		c.NATS.URL = other.NATS.URL
	}
}
