package config

import "time"

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// DetectorType selects the language detection backend.
type DetectorType string

const (
	// DetectorScript uses the built-in Unicode script heuristic only.
	DetectorScript DetectorType = "script"
	// DetectorLLM asks the generation provider and falls back to the script heuristic.
	DetectorLLM DetectorType = "llm"
)

// Config is the top-level faqbot configuration, corresponding to .faqbot.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	EmbeddingModel    string       `yaml:"embedding_model" koanf:"embedding_model"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`

	Languages  LanguageConfig   `yaml:"languages" koanf:"languages"`
	Session    SessionConfig    `yaml:"session" koanf:"session"`
	Intent     IntentConfig     `yaml:"intent" koanf:"intent"`
	FAQ        FAQConfig        `yaml:"faq" koanf:"faq"`
	Retrieval  RetrievalConfig  `yaml:"retrieval" koanf:"retrieval"`
	Confidence ConfidenceConfig `yaml:"confidence" koanf:"confidence"`
	Timeouts   TimeoutConfig    `yaml:"timeouts" koanf:"timeouts"`
	LLM        LLMConfig        `yaml:"llm" koanf:"llm"`
	Log        LogConfig        `yaml:"log" koanf:"log"`
	Server     ServerConfig     `yaml:"server" koanf:"server"`

	// HandoffMessages maps a language code to the fixed human-handoff text.
	HandoffMessages map[string]string `yaml:"handoff_messages" koanf:"handoff_messages"`

	TranslationCacheSize int `yaml:"translation_cache_size" koanf:"translation_cache_size"`
	LogBuffer            int `yaml:"log_buffer" koanf:"log_buffer"`
}

// LanguageConfig controls which languages are accepted and how they are resolved.
type LanguageConfig struct {
	Supported []string     `yaml:"supported" koanf:"supported"`
	Default   string       `yaml:"default" koanf:"default"`
	Pivot     string       `yaml:"pivot" koanf:"pivot"`
	Detector  DetectorType `yaml:"detector" koanf:"detector"`
}

// SessionConfig holds Context Store limits.
type SessionConfig struct {
	Timeout       time.Duration `yaml:"timeout" koanf:"timeout"`
	MaxTurns      int           `yaml:"max_turns" koanf:"max_turns"`
	SweepInterval time.Duration `yaml:"sweep_interval" koanf:"sweep_interval"`
	MaxSessions   int           `yaml:"max_sessions" koanf:"max_sessions"`
	TombstoneTTL  time.Duration `yaml:"tombstone_ttl" koanf:"tombstone_ttl"`
}

// IntentConfig holds classifier thresholds.
type IntentConfig struct {
	Threshold          float64 `yaml:"threshold" koanf:"threshold"`
	FollowUpConfidence float64 `yaml:"follow_up_confidence" koanf:"follow_up_confidence"`
}

// FAQConfig holds FAQ matching settings.
type FAQConfig struct {
	Threshold      float64 `yaml:"threshold" koanf:"threshold"`
	KeywordWeight  float64 `yaml:"keyword_weight" koanf:"keyword_weight"`
	MaxSuggestions int     `yaml:"max_suggestions" koanf:"max_suggestions"`
	SeedFile       string  `yaml:"seed_file" koanf:"seed_file"`
}

// RetrievalConfig holds document retrieval and ingestion settings.
type RetrievalConfig struct {
	Threshold     float64  `yaml:"threshold" koanf:"threshold"`
	TopK          int      `yaml:"top_k" koanf:"top_k"`
	MinQueryTerms int      `yaml:"min_query_terms" koanf:"min_query_terms"`
	ChunkSize     int      `yaml:"chunk_size" koanf:"chunk_size"`
	ChunkOverlap  int      `yaml:"chunk_overlap" koanf:"chunk_overlap"`
	Include       []string `yaml:"include" koanf:"include"`
	Exclude       []string `yaml:"exclude" koanf:"exclude"`
}

// ConfidenceConfig holds the fixed confidence floors of the non-FAQ strategies.
type ConfidenceConfig struct {
	RAGFloor   float64 `yaml:"rag_floor" koanf:"rag_floor"`
	Generative float64 `yaml:"generative" koanf:"generative"`
}

// TimeoutConfig bounds each external call.
type TimeoutConfig struct {
	Translation time.Duration `yaml:"translation" koanf:"translation"`
	Retrieval   time.Duration `yaml:"retrieval" koanf:"retrieval"`
	Generation  time.Duration `yaml:"generation" koanf:"generation"`
}

// LLMConfig holds generation request settings.
type LLMConfig struct {
	RequestsPerMinute int     `yaml:"requests_per_minute" koanf:"requests_per_minute"`
	MaxRetries        int     `yaml:"max_retries" koanf:"max_retries"`
	Temperature       float64 `yaml:"temperature" koanf:"temperature"`
	MaxTokens         int     `yaml:"max_tokens" koanf:"max_tokens"`
}

// LogConfig configures the zerolog logger.
type LogConfig struct {
	Level  string `yaml:"level" koanf:"level"`
	Format string `yaml:"format" koanf:"format"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" koanf:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" koanf:"allowed_origins"`
}
