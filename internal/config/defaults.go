package config

import "time"

// ProviderPreset describes the default models for a provider.
type ProviderPreset struct {
	Model          string
	EmbeddingModel string
}

var providerPresets = map[ProviderType]ProviderPreset{
	ProviderOpenAI: {Model: "gpt-4o-mini", EmbeddingModel: "text-embedding-3-small"},
	ProviderOllama: {Model: "llama3.2:3b", EmbeddingModel: "nomic-embed-text"},
}

// DefaultHandoffMessages are the fixed human-handoff texts for every supported language.
var DefaultHandoffMessages = map[string]string{
	"en": "Let me connect you with a human agent for better assistance.",
	"hi": "बेहतर सहायता के लिए मैं आपको एक मानव एजेंट से जोड़ता हूं।",
	"ta": "சிறந்த உதவிக்கு நான் உங்களை ஒரு நிபுணரிடம் இணைக்கிறேன்.",
	"te": "మెరుగైన సహాయం కోసం నేను మిమ్మల్ని ఒక నిపుణుడితో అనుసంధానం చేస్తాను.",
	"bn": "আরও ভালো সাহায্যের জন্য আমি আপনাকে একজন বিশেষজ্ঞের সাথে সংযুক্ত করছি।",
	"mr": "अधिक चांगल्या मदतीसाठी मी तुम्हाला तज्ञाशी जोडतो.",
}

// DefaultIncludes are the document globs picked up by ingestion.
var DefaultIncludes = []string{"**/*.md", "**/*.txt"}

// DefaultExcludes are glob patterns skipped by ingestion.
var DefaultExcludes = []string{
	".git/**",
	"node_modules/**",
	"vendor/**",
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	handoff := make(map[string]string, len(DefaultHandoffMessages))
	for k, v := range DefaultHandoffMessages {
		handoff[k] = v
	}
	return &Config{
		Provider:          ProviderOllama,
		Model:             providerPresets[ProviderOllama].Model,
		EmbeddingProvider: ProviderOllama,
		EmbeddingModel:    providerPresets[ProviderOllama].EmbeddingModel,
		DataDir:           "data",
		Languages: LanguageConfig{
			Supported: []string{"en", "hi", "ta", "te", "bn", "mr"},
			Default:   "en",
			Pivot:     "en",
			Detector:  DetectorScript,
		},
		Session: SessionConfig{
			Timeout:       30 * time.Minute,
			MaxTurns:      10,
			SweepInterval: time.Minute,
			MaxSessions:   0,
			TombstoneTTL:  30 * time.Minute,
		},
		Intent: IntentConfig{
			Threshold:          0.3,
			FollowUpConfidence: 0.5,
		},
		FAQ: FAQConfig{
			Threshold:      0.6,
			KeywordWeight:  0.6,
			MaxSuggestions: 3,
		},
		Retrieval: RetrievalConfig{
			Threshold:     0.5,
			TopK:          3,
			MinQueryTerms: 2,
			ChunkSize:     500,
			ChunkOverlap:  50,
			Include:       DefaultIncludes,
			Exclude:       DefaultExcludes,
		},
		Confidence: ConfidenceConfig{
			RAGFloor:   0.45,
			Generative: 0.3,
		},
		Timeouts: TimeoutConfig{
			Translation: 5 * time.Second,
			Retrieval:   5 * time.Second,
			Generation:  30 * time.Second,
		},
		LLM: LLMConfig{
			RequestsPerMinute: 60,
			MaxRetries:        1,
			Temperature:       0.3,
			MaxTokens:         512,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
		Server: ServerConfig{
			Port:           8080,
			AllowedOrigins: []string{"http://localhost:*"},
		},
		HandoffMessages:      handoff,
		TranslationCacheSize: 1024,
		LogBuffer:            256,
	}
}

// GetPreset returns the default models for the given provider.
// Returns the Ollama preset if the provider is unknown.
func GetPreset(provider ProviderType) ProviderPreset {
	if p, ok := providerPresets[provider]; ok {
		return p
	}
	return providerPresets[ProviderOllama]
}
