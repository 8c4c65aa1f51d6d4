package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/ziadkadry99/faqbot/internal/config"
	"github.com/ziadkadry99/faqbot/internal/db"
	"github.com/ziadkadry99/faqbot/internal/faq"
	"github.com/ziadkadry99/faqbot/internal/intent"
	"github.com/ziadkadry99/faqbot/internal/lang"
	"github.com/ziadkadry99/faqbot/internal/logging"
)

func TestRouterConfigFromDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	rc := routerConfig(cfg)
	if err := rc.Validate(); err != nil {
		t.Fatalf("default config does not produce a valid router config: %v", err)
	}
	if rc.Pivot != lang.English {
		t.Errorf("pivot = %q, want en", rc.Pivot)
	}
	if rc.HandoffMessages[lang.English] != cfg.HandoffMessages["en"] {
		t.Errorf("handoff message not carried over")
	}
	if rc.FAQThreshold != cfg.FAQ.Threshold || rc.TopK != cfg.Retrieval.TopK {
		t.Errorf("thresholds not carried over: %+v", rc)
	}
	if rc.Timeouts.Generation != cfg.Timeouts.Generation {
		t.Errorf("generation timeout = %v, want %v", rc.Timeouts.Generation, cfg.Timeouts.Generation)
	}
}

func TestIngestOptionsFromDefaults(t *testing.T) {
	cfg := config.DefaultConfig()
	opts := ingestOptions(cfg, logging.Nop())
	if opts.ChunkSize != 500 || opts.ChunkOverlap != 50 {
		t.Errorf("chunking = %d/%d, want 500/50", opts.ChunkSize, opts.ChunkOverlap)
	}
	if opts.DefaultLanguage != lang.English || len(opts.Include) == 0 {
		t.Errorf("unexpected options %+v", opts)
	}
}

func TestImportSeedFeedsMatcher(t *testing.T) {
	ctx := context.Background()
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	store := faq.NewStore(database)
	n, err := importSeed(ctx, store, filepath.Join("..", "testdata", "faqs.yml"))
	if err != nil {
		t.Fatalf("importSeed: %v", err)
	}
	if n != 8 {
		t.Errorf("imported %d entries, want 8", n)
	}

	// Importing again replaces by id.
	if _, err := importSeed(ctx, store, filepath.Join("..", "testdata", "faqs.yml")); err != nil {
		t.Fatal(err)
	}
	all, err := store.List(ctx, faq.Filter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 8 {
		t.Errorf("after re-import: %d entries, want 8", len(all))
	}

	catalog := faq.NewCatalog(store, logging.Nop())
	if _, err := catalog.Reload(ctx); err != nil {
		t.Fatal(err)
	}
	m, ok := faq.NewMatcher(catalog, 0.6, 0.6).Match("What is the admission fee?", intent.Fees, lang.English)
	if !ok {
		t.Fatal("expected a match for a seeded question")
	}
	if m.Entry.ID != "fee-en-1" {
		t.Errorf("matched %q, want fee-en-1", m.Entry.ID)
	}
}

func TestImportSeedMissingFile(t *testing.T) {
	database, err := db.OpenMemory()
	if err != nil {
		t.Fatal(err)
	}
	defer database.Close()

	if _, err := importSeed(context.Background(), faq.NewStore(database), filepath.Join(t.TempDir(), "none.yml")); err == nil {
		t.Error("expected an error for a missing seed file")
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".faqbot.yml")
	if err := os.WriteFile(path, []byte("provider: carrier-pigeon\n"), 0644); err != nil {
		t.Fatal(err)
	}
	old := cfgFile
	cfgFile = path
	defer func() { cfgFile = old }()

	if _, err := loadConfig(); err == nil {
		t.Error("expected an invalid provider to be rejected")
	}
}

func TestLoadConfigDefaultsWithoutFile(t *testing.T) {
	old := cfgFile
	cfgFile = filepath.Join(t.TempDir(), "missing.yml")
	defer func() { cfgFile = old }()

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Languages.Pivot != "en" {
		t.Errorf("pivot = %q, want en", cfg.Languages.Pivot)
	}
}
