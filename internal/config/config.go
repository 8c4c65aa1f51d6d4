package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = ".faqbot.yml"

// EnvPrefix prefixes every environment override.
const EnvPrefix = "FAQBOT_"

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (FAQBOT_*). A double underscore separates
// nested keys: FAQBOT_SESSION__TIMEOUT=10m sets session.timeout.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

func envKey(s string) string {
	s = strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	return strings.ReplaceAll(s, "__", ".")
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

var validProviders = map[ProviderType]bool{
	ProviderOpenAI: true,
	ProviderOllama: true,
}

var validDetectors = map[DetectorType]bool{
	DetectorScript: true,
	DetectorLLM:    true,
}

var validLogFormats = map[string]bool{
	"console": true,
	"json":    true,
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Provider == "" {
		return fmt.Errorf("provider is required")
	}
	if !validProviders[c.Provider] {
		return fmt.Errorf("invalid provider %q: must be one of openai, ollama", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.EmbeddingProvider != "" && !validProviders[c.EmbeddingProvider] {
		return fmt.Errorf("invalid embedding_provider %q", c.EmbeddingProvider)
	}
	if c.DataDir == "" {
		return fmt.Errorf("data_dir is required")
	}

	if err := c.Languages.validate(); err != nil {
		return err
	}
	if msg := strings.TrimSpace(c.HandoffMessages[c.Languages.Pivot]); msg == "" {
		return fmt.Errorf("handoff_messages must contain a message for the pivot language %q", c.Languages.Pivot)
	}

	if c.Session.Timeout <= 0 {
		return fmt.Errorf("session.timeout must be positive")
	}
	if c.Session.MaxTurns <= 0 {
		return fmt.Errorf("session.max_turns must be positive")
	}
	if c.Session.SweepInterval <= 0 {
		return fmt.Errorf("session.sweep_interval must be positive")
	}
	if c.Session.MaxSessions < 0 {
		return fmt.Errorf("session.max_sessions must be non-negative")
	}

	if err := unit("intent.threshold", c.Intent.Threshold); err != nil {
		return err
	}
	if err := unit("intent.follow_up_confidence", c.Intent.FollowUpConfidence); err != nil {
		return err
	}
	if err := unit("faq.keyword_weight", c.FAQ.KeywordWeight); err != nil {
		return err
	}
	if err := unit("retrieval.threshold", c.Retrieval.Threshold); err != nil {
		return err
	}
	if c.FAQ.MaxSuggestions < 0 {
		return fmt.Errorf("faq.max_suggestions must be non-negative")
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive")
	}
	if c.Retrieval.ChunkSize <= 0 || c.Retrieval.ChunkOverlap < 0 || c.Retrieval.ChunkOverlap >= c.Retrieval.ChunkSize {
		return fmt.Errorf("retrieval.chunk_overlap must be in [0, chunk_size)")
	}

	// Strategy floors must keep faq >= rag >= generative > handoff (0).
	if c.FAQ.Threshold <= 0 || c.FAQ.Threshold > 1 {
		return fmt.Errorf("faq.threshold must be in (0, 1]")
	}
	if c.Confidence.RAGFloor > c.FAQ.Threshold {
		return fmt.Errorf("confidence.rag_floor (%.2f) must not exceed faq.threshold (%.2f)", c.Confidence.RAGFloor, c.FAQ.Threshold)
	}
	if c.Confidence.Generative > c.Confidence.RAGFloor {
		return fmt.Errorf("confidence.generative (%.2f) must not exceed confidence.rag_floor (%.2f)", c.Confidence.Generative, c.Confidence.RAGFloor)
	}
	if c.Confidence.Generative <= 0 {
		return fmt.Errorf("confidence.generative must be positive")
	}

	if c.Timeouts.Translation <= 0 || c.Timeouts.Retrieval <= 0 || c.Timeouts.Generation <= 0 {
		return fmt.Errorf("timeouts must be positive")
	}
	if c.LLM.RequestsPerMinute < 0 || c.LLM.MaxRetries < 0 {
		return fmt.Errorf("llm.requests_per_minute and llm.max_retries must be non-negative")
	}
	if c.Log.Format != "" && !validLogFormats[c.Log.Format] {
		return fmt.Errorf("invalid log.format %q: must be console or json", c.Log.Format)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server.port %d", c.Server.Port)
	}
	return nil
}

func (l LanguageConfig) validate() error {
	if len(l.Supported) == 0 {
		return fmt.Errorf("languages.supported must not be empty")
	}
	supported := make(map[string]bool, len(l.Supported))
	for _, code := range l.Supported {
		supported[code] = true
	}
	if !supported[l.Default] {
		return fmt.Errorf("languages.default %q is not in languages.supported", l.Default)
	}
	if !supported[l.Pivot] {
		return fmt.Errorf("languages.pivot %q is not in languages.supported", l.Pivot)
	}
	if l.Detector != "" && !validDetectors[l.Detector] {
		return fmt.Errorf("invalid languages.detector %q: must be script or llm", l.Detector)
	}
	return nil
}

func unit(name string, v float64) error {
	if v < 0 || v > 1 {
		return fmt.Errorf("%s must be in [0, 1], got %v", name, v)
	}
	return nil
}

// DBPath returns the SQLite database location inside the data directory.
func (c *Config) DBPath() string {
	return filepath.Join(c.DataDir, "faqbot.db")
}

// VectorDir returns the vector store persistence directory.
func (c *Config) VectorDir() string {
	return filepath.Join(c.DataDir, "vectors")
}

// APIKeyEnvVar returns the conventional environment variable name for
// the API key of the given provider.
func APIKeyEnvVar(provider ProviderType) string {
	switch provider {
	case ProviderOpenAI:
		return "OPENAI_API_KEY"
	default:
		return ""
	}
}
