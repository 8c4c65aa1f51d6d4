package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"

	"github.com/ziadkadry99/faqbot/internal/assistant"
	"github.com/ziadkadry99/faqbot/internal/composer"
	"github.com/ziadkadry99/faqbot/internal/config"
	"github.com/ziadkadry99/faqbot/internal/convlog"
	"github.com/ziadkadry99/faqbot/internal/db"
	"github.com/ziadkadry99/faqbot/internal/embeddings"
	"github.com/ziadkadry99/faqbot/internal/faq"
	"github.com/ziadkadry99/faqbot/internal/ingest"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/llm"
	"github.com/ziadkadry99/faqbot/internal/logging"
	"github.com/ziadkadry99/faqbot/internal/metrics"
	"github.com/ziadkadry99/faqbot/internal/router"
	"github.com/ziadkadry99/faqbot/internal/session"
	"github.com/ziadkadry99/faqbot/internal/translation"
	"github.com/ziadkadry99/faqbot/internal/vectordb"
)

// retryBase is the first backoff of a retried provider call.
const retryBase = 500 * time.Millisecond

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `faqbot init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", cfgFile, err)
	}
	return cfg, nil
}

// newLogger builds the process logger. --verbose forces debug level.
func newLogger(cfg *config.Config) zerolog.Logger {
	level := cfg.Log.Level
	if verbose {
		level = "debug"
	}
	return logging.New(logging.Options{Level: level, Format: cfg.Log.Format})
}

// createEmbedderFromConfig creates an embeddings.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (embeddings.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel
	if model == "" {
		model = config.GetPreset(provider).EmbeddingModel
	}
	return embeddings.New(string(provider), model)
}

// createLLMProviderFromConfig creates the rate-limited, retrying provider
// shared by generation, translation and detection.
func createLLMProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	p, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	p = llm.NewThrottle(p, cfg.LLM.RequestsPerMinute)
	return llm.NewRetrying(p, cfg.LLM.MaxRetries, retryBase), nil
}

// openVectorStore creates the chromem store and loads the persisted index.
// A store that was never ingested is returned empty.
func openVectorStore(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*vectordb.ChromemStore, error) {
	embedder, err := createEmbedderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	store, err := vectordb.NewChromemStore(embedder)
	if err != nil {
		return nil, fmt.Errorf("creating vector store: %w", err)
	}
	if err := store.Load(ctx, cfg.VectorDir()); err != nil {
		if !errors.Is(err, vectordb.ErrNotPersisted) {
			return nil, fmt.Errorf("loading vector store from %s: %w", cfg.VectorDir(), err)
		}
		log.Warn().Str("dir", cfg.VectorDir()).Msg("no documents indexed yet; run `faqbot ingest`")
	}
	return store, nil
}

// ingestOptions maps the retrieval config onto ingestion options.
func ingestOptions(cfg *config.Config, log zerolog.Logger) ingest.Options {
	return ingest.Options{
		Include:         cfg.Retrieval.Include,
		Exclude:         cfg.Retrieval.Exclude,
		ChunkSize:       cfg.Retrieval.ChunkSize,
		ChunkOverlap:    cfg.Retrieval.ChunkOverlap,
		DefaultLanguage: lang.Code(cfg.Languages.Default),
		Logger:          logging.Component(log, "ingest"),
	}
}

// openDB opens the SQLite database inside the data directory.
func openDB(cfg *config.Config) (*db.DB, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}
	database, err := db.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	return database, nil
}

// routerConfig maps the file configuration onto the router's.
func routerConfig(cfg *config.Config) router.Config {
	handoff := make(map[lang.Code]string, len(cfg.HandoffMessages))
	for code, msg := range cfg.HandoffMessages {
		handoff[lang.Code(code)] = msg
	}
	return router.Config{
		FAQThreshold:         cfg.FAQ.Threshold,
		RetrievalThreshold:   cfg.Retrieval.Threshold,
		RAGFloor:             cfg.Confidence.RAGFloor,
		GenerativeConfidence: cfg.Confidence.Generative,
		TopK:                 cfg.Retrieval.TopK,
		MinQueryTerms:        cfg.Retrieval.MinQueryTerms,
		Pivot:                lang.Code(cfg.Languages.Pivot),
		HandoffMessages:      handoff,
		Timeouts: router.Timeouts{
			Translation: cfg.Timeouts.Translation,
			Retrieval:   cfg.Timeouts.Retrieval,
			Generation:  cfg.Timeouts.Generation,
		},
	}
}

// pipeline holds everything HandleMessage needs, plus the resources that
// must be closed on exit.
type pipeline struct {
	cfg       *config.Config
	log       zerolog.Logger
	db        *db.DB
	store     *vectordb.ChromemStore
	faqs      *faq.Store
	catalog   *faq.Catalog
	sessions  *session.Store
	sink      *convlog.SQLiteSink
	metrics   *metrics.Metrics
	assistant *assistant.Assistant
}

// buildPipeline wires the query pipeline from config. The caller runs the
// session sweeper and must call close.
func buildPipeline(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*pipeline, error) {
	p := &pipeline{cfg: cfg, log: log, metrics: metrics.New()}

	supported, err := lang.ParseCodes(cfg.Languages.Supported)
	if err != nil {
		return nil, fmt.Errorf("languages.supported: %w", err)
	}
	pivot := lang.Code(cfg.Languages.Pivot)

	provider, err := createLLMProviderFromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("creating LLM provider: %w", err)
	}
	llmTranslator := translation.NewLLMTranslator(provider, cfg.Model)
	var translator translation.Translator = llmTranslator
	if cfg.TranslationCacheSize > 0 {
		cached, err := translation.NewCached(llmTranslator, cfg.TranslationCacheSize)
		if err != nil {
			return nil, err
		}
		translator = cached
	}

	normOpts := []lang.NormalizerOption{lang.WithLogger(logging.Component(log, "lang"))}
	if cfg.Languages.Detector == config.DetectorLLM {
		normOpts = append(normOpts, lang.WithDetector(llmTranslator, cfg.Timeouts.Translation))
	}
	normalizer := lang.NewNormalizer(supported, lang.Code(cfg.Languages.Default), normOpts...)

	p.store, err = openVectorStore(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	p.db, err = openDB(cfg)
	if err != nil {
		return nil, err
	}
	p.faqs = faq.NewStore(p.db)
	if cfg.FAQ.SeedFile != "" {
		n, err := importSeed(ctx, p.faqs, cfg.FAQ.SeedFile)
		if err != nil {
			p.close(ctx)
			return nil, err
		}
		log.Info().Int("entries", n).Str("file", cfg.FAQ.SeedFile).Msg("faq seed imported")
	}
	p.catalog = faq.NewCatalog(p.faqs, logging.Component(log, "faq"))
	snap, err := p.catalog.Reload(ctx)
	if err != nil {
		p.close(ctx)
		return nil, fmt.Errorf("loading faq catalog: %w", err)
	}
	log.Info().Int("entries", snap.Len()).Uint64("version", snap.Version()).Msg("faq catalog loaded")

	matcher := faq.NewMatcher(p.catalog, cfg.FAQ.Threshold, cfg.FAQ.KeywordWeight)
	generator := llm.NewGenerator(provider, llm.GeneratorOptions{
		Model:       cfg.Model,
		Temperature: cfg.LLM.Temperature,
		MaxTokens:   cfg.LLM.MaxTokens,
	})
	rt, err := router.New(matcher, vectordb.NewRetriever(p.store), generator, translator, routerConfig(cfg),
		router.WithLogger(logging.Component(log, "router")),
		router.WithObserver(p.metrics),
	)
	if err != nil {
		p.close(ctx)
		return nil, err
	}

	p.sessions = session.New(session.Options{
		Timeout:       cfg.Session.Timeout,
		MaxTurns:      cfg.Session.MaxTurns,
		MaxSessions:   cfg.Session.MaxSessions,
		SweepInterval: cfg.Session.SweepInterval,
		TombstoneTTL:  cfg.Session.TombstoneTTL,
		Logger:        logging.Component(log, "session"),
	})
	p.sink = convlog.NewSQLiteSink(p.db, cfg.LogBuffer, logging.Component(log, "convlog"))

	p.assistant, err = assistant.New(assistant.Deps{
		Normalizer: normalizer,
		Sessions:   p.sessions,
		Classifier: intent.NewClassifier(cfg.Intent.Threshold, cfg.Intent.FollowUpConfidence),
		Translator: translator,
		Router:     rt,
		Composer: composer.New(translator, p.catalog, composer.Options{
			Pivot:              pivot,
			MaxSuggestions:     cfg.FAQ.MaxSuggestions,
			TranslationTimeout: cfg.Timeouts.Translation,
			Logger:             logging.Component(log, "composer"),
		}),
		Sink:     p.sink,
		Observer: p.metrics,
	}, assistant.Options{
		Languages:          supported,
		Pivot:              pivot,
		TranslationTimeout: cfg.Timeouts.Translation,
		Logger:             logging.Component(log, "assistant"),
	})
	if err != nil {
		p.close(ctx)
		return nil, err
	}
	return p, nil
}

// close flushes the conversation log and closes the database.
func (p *pipeline) close(ctx context.Context) {
	if p.sink != nil {
		if err := p.sink.Close(ctx); err != nil {
			p.log.Warn().Err(err).Msg("conversation log not fully flushed")
		}
	}
	if p.db != nil {
		p.db.Close()
	}
}

// importSeed upserts the entries of a YAML seed file.
func importSeed(ctx context.Context, store *faq.Store, path string) (int, error) {
	entries, err := faq.LoadSeedFile(path)
	if err != nil {
		return 0, err
	}
	n, err := store.Upsert(ctx, entries)
	if err != nil {
		return 0, fmt.Errorf("importing %s: %w", path, err)
	}
	return n, nil
}
