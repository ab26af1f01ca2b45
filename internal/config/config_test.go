package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.FetchTimeout != 4*time.Second {
		t.Fatalf("FetchTimeout = %v", cfg.FetchTimeout)
	}
	if cfg.ScrapeDelay != 250*time.Millisecond {
		t.Fatalf("ScrapeDelay = %v", cfg.ScrapeDelay)
	}
	if cfg.SearchCount != 100 || cfg.SearchMarket != "en-us" {
		t.Fatalf("search defaults = %d %q", cfg.SearchCount, cfg.SearchMarket)
	}
	if len(cfg.Subjects) != 7 {
		t.Fatalf("expected 7 default subjects, got %v", cfg.Subjects)
	}
	if len(cfg.Qualifiers) != 7 || cfg.Qualifiers[0] != "" {
		t.Fatalf("expected empty first qualifier, got %q", cfg.Qualifiers)
	}
	if cfg.ExistingContentPolicy != PolicyMarkDone {
		t.Fatalf("policy = %q", cfg.ExistingContentPolicy)
	}
}

func TestLoadReadsLegacyAPIKeyEnv(t *testing.T) {
	t.Setenv("AzureAPIKey", "secret")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.SearchAPIKey != "secret" {
		t.Fatalf("SearchAPIKey = %q", cfg.SearchAPIKey)
	}
}

func TestLoadConfigFileOverrides(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "newsscrape.yaml")
	content := `
subjects: ["golang", "golang", " rust "]
qualifiers: ["release"]
storage_type: SQLITE
scrape_delay_ms: 0
`
	if err := os.WriteFile(file, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Subjects) != 2 || cfg.Subjects[1] != "rust" {
		t.Fatalf("subjects = %q", cfg.Subjects)
	}
	if len(cfg.Qualifiers) != 1 || cfg.Qualifiers[0] != "release" {
		t.Fatalf("qualifiers = %q", cfg.Qualifiers)
	}
	if cfg.StorageType != "sqlite" {
		t.Fatalf("storage type = %q", cfg.StorageType)
	}
	if cfg.ScrapeDelay != 0 {
		t.Fatalf("expected zero delay, got %v", cfg.ScrapeDelay)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("FETCH_TIMEOUT_SECONDS", "0")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on zero fetch timeout")
	}
}

func TestLoadRejectsUnknownPolicy(t *testing.T) {
	t.Setenv("EXISTING_CONTENT_POLICY", "ignore")
	if _, err := Load(""); err == nil {
		t.Fatalf("expected error on unknown policy")
	}
}
