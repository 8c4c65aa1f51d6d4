package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Provider != ProviderOllama {
		t.Errorf("expected default provider %q, got %q", ProviderOllama, cfg.Provider)
	}
	if cfg.Session.MaxTurns != 10 {
		t.Errorf("expected default max_turns 10, got %d", cfg.Session.MaxTurns)
	}
	if cfg.Session.Timeout != 30*time.Minute {
		t.Errorf("expected default session timeout 30m, got %v", cfg.Session.Timeout)
	}
	if cfg.FAQ.Threshold != 0.6 {
		t.Errorf("expected default faq threshold 0.6, got %v", cfg.FAQ.Threshold)
	}
	if len(cfg.Languages.Supported) != 6 {
		t.Errorf("expected 6 supported languages, got %d", len(cfg.Languages.Supported))
	}
	for _, code := range cfg.Languages.Supported {
		if cfg.HandoffMessages[code] == "" {
			t.Errorf("missing default handoff message for %q", code)
		}
	}
}

func TestDefaultConfigHandoffIsCopy(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HandoffMessages["en"] = "changed"
	if DefaultHandoffMessages["en"] == "changed" {
		t.Error("DefaultConfig must not share the package-level handoff map")
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.faqbot.yml")

	original := DefaultConfig()
	original.Provider = ProviderOpenAI
	original.Model = "gpt-4o"
	original.Languages.Supported = []string{"en", "hi"}
	original.Session.Timeout = 10 * time.Minute
	original.FAQ.Threshold = 0.75
	original.HandoffMessages = map[string]string{"en": "Call the office.", "hi": "कार्यालय से संपर्क करें।"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Provider != original.Provider {
		t.Errorf("provider: got %q, want %q", loaded.Provider, original.Provider)
	}
	if loaded.Model != original.Model {
		t.Errorf("model: got %q, want %q", loaded.Model, original.Model)
	}
	if loaded.Session.Timeout != original.Session.Timeout {
		t.Errorf("session.timeout: got %v, want %v", loaded.Session.Timeout, original.Session.Timeout)
	}
	if loaded.FAQ.Threshold != original.FAQ.Threshold {
		t.Errorf("faq.threshold: got %v, want %v", loaded.FAQ.Threshold, original.FAQ.Threshold)
	}
	if len(loaded.Languages.Supported) != 2 {
		t.Errorf("languages.supported length: got %d, want 2", len(loaded.Languages.Supported))
	}
	if loaded.HandoffMessages["en"] != "Call the office." {
		t.Errorf("handoff_messages.en: got %q", loaded.HandoffMessages["en"])
	}
}

func TestLoadMissingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nonexistent.yml")

	// Loading a missing file should return defaults, not an error.
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load should not fail for missing file: %v", err)
	}
	if cfg.Provider != ProviderOllama {
		t.Errorf("expected default provider, got %q", cfg.Provider)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yml")

	cfg := DefaultConfig()
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	t.Setenv("FAQBOT_PROVIDER", "openai")
	t.Setenv("FAQBOT_SESSION__MAX_TURNS", "4")
	t.Setenv("FAQBOT_TIMEOUTS__GENERATION", "2s")

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if loaded.Provider != ProviderOpenAI {
		t.Errorf("env override failed: got %q, want %q", loaded.Provider, ProviderOpenAI)
	}
	if loaded.Session.MaxTurns != 4 {
		t.Errorf("nested env override failed: got %d, want 4", loaded.Session.MaxTurns)
	}
	if loaded.Timeouts.Generation != 2*time.Second {
		t.Errorf("duration env override failed: got %v, want 2s", loaded.Timeouts.Generation)
	}
}

func TestEnvKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"FAQBOT_PROVIDER", "provider"},
		{"FAQBOT_SESSION__TIMEOUT", "session.timeout"},
		{"FAQBOT_FAQ__MAX_SUGGESTIONS", "faq.max_suggestions"},
	}
	for _, tt := range tests {
		if got := envKey(tt.in); got != tt.want {
			t.Errorf("envKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Errorf("DefaultConfig should be valid, got: %v", err)
	}
}

func TestValidateErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"invalid provider", func(c *Config) { c.Provider = "invalid" }},
		{"empty provider", func(c *Config) { c.Provider = "" }},
		{"empty model", func(c *Config) { c.Model = "" }},
		{"empty data dir", func(c *Config) { c.DataDir = "" }},
		{"no languages", func(c *Config) { c.Languages.Supported = nil }},
		{"pivot unsupported", func(c *Config) { c.Languages.Pivot = "fr" }},
		{"default unsupported", func(c *Config) { c.Languages.Default = "fr" }},
		{"bad detector", func(c *Config) { c.Languages.Detector = "magic" }},
		{"missing pivot handoff", func(c *Config) { delete(c.HandoffMessages, "en") }},
		{"zero session timeout", func(c *Config) { c.Session.Timeout = 0 }},
		{"zero max turns", func(c *Config) { c.Session.MaxTurns = 0 }},
		{"rag floor above faq", func(c *Config) { c.Confidence.RAGFloor = 0.9 }},
		{"generative above rag", func(c *Config) { c.Confidence.Generative = 0.5 }},
		{"generative zero", func(c *Config) { c.Confidence.Generative = 0 }},
		{"faq threshold above one", func(c *Config) { c.FAQ.Threshold = 1.5 }},
		{"overlap too large", func(c *Config) { c.Retrieval.ChunkOverlap = 500 }},
		{"zero top k", func(c *Config) { c.Retrieval.TopK = 0 }},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }},
		{"zero timeout", func(c *Config) { c.Timeouts.Retrieval = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error for %s", tt.name)
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	p := GetPreset(ProviderOpenAI)
	if p.Model != "gpt-4o-mini" {
		t.Errorf("expected gpt-4o-mini, got %q", p.Model)
	}

	// Unknown provider falls back.
	p = GetPreset("unknown")
	if p.Model != "llama3.2:3b" {
		t.Errorf("expected fallback to llama3.2:3b, got %q", p.Model)
	}
}

func TestAPIKeyEnvVar(t *testing.T) {
	tests := []struct {
		provider ProviderType
		want     string
	}{
		{ProviderOpenAI, "OPENAI_API_KEY"},
		{ProviderOllama, ""},
	}
	for _, tt := range tests {
		got := APIKeyEnvVar(tt.provider)
		if got != tt.want {
			t.Errorf("APIKeyEnvVar(%q) = %q, want %q", tt.provider, got, tt.want)
		}
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/var/lib/faqbot"
	if got := cfg.DBPath(); got != filepath.Join("/var/lib/faqbot", "faqbot.db") {
		t.Errorf("DBPath = %q", got)
	}
	if got := cfg.VectorDir(); got != filepath.Join("/var/lib/faqbot", "vectors") {
		t.Errorf("VectorDir = %q", got)
	}
}

func TestSplitAndTrim(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"en,hi,ta", []string{"en", "hi", "ta"}},
		{" en , hi ", []string{"en", "hi"}},
		{"", nil},
		{"  ,  , ", nil},
	}
	for _, tt := range tests {
		got := splitAndTrim(tt.input)
		if len(got) != len(tt.want) {
			t.Errorf("splitAndTrim(%q) len = %d, want %d", tt.input, len(got), len(tt.want))
			continue
		}
		for i, v := range got {
			if v != tt.want[i] {
				t.Errorf("splitAndTrim(%q)[%d] = %q, want %q", tt.input, i, v, tt.want[i])
			}
		}
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yml")
	if err := os.WriteFile(path, []byte("provider: [unterminated"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Error("expected error for malformed YAML")
	}
}
