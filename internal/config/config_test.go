package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATA_DIR", "LOG_DIR", "DEBUG_MODE",
		"PEXELS_API_KEY", "PIXABAY_API_KEY", "UNSPLASH_ACCESS_KEY",
		"GOOGLE_API_KEY", "ANTHROPIC_API_KEY", "OPENAI_API_KEY",
		"AI_ENABLED", "AI_PROVIDER", "AI_MODEL", "AI_TIMEOUT_SECONDS",
		"SEARCH_TIMEOUT_SECONDS", "SEARCH_RATE_PER_SECOND", "BATCH_WORKERS",
		"QUERY_LIMIT", "S3_BUCKET", "S3_REGION", "S3_ENDPOINT",
		"S3_ACCESS_KEY", "S3_SECRET_KEY", "CONFIG_FILE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "8080" || cfg.AIProvider != ProviderGoogle || cfg.QueryLimit != 12 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.AIEnabled {
		t.Fatal("AI should be disabled without any key")
	}
	if cfg.SearchTimeout().Seconds() != 15 {
		t.Fatalf("search timeout = %v", cfg.SearchTimeout())
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "g-key")
	t.Setenv("BATCH_WORKERS", "8")
	t.Setenv("SEARCH_RATE_PER_SECOND", "2.5")
	t.Setenv("AI_PROVIDER", "OpenAI")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.AIEnabled {
		t.Fatal("AI should be enabled when a key is present")
	}
	if cfg.BatchWorkers != 8 || cfg.SearchRatePerSecond != 2.5 || cfg.AIProvider != ProviderOpenAI {
		t.Fatalf("unexpected overrides: %+v", cfg)
	}
	if cfg.AIKey("google") != "g-key" {
		t.Fatalf("AIKey = %q", cfg.AIKey("google"))
	}

	t.Setenv("AI_ENABLED", "false")
	cfg, _ = Load()
	if cfg.AIEnabled {
		t.Fatal("explicit AI_ENABLED=false must win")
	}
}

func TestLoad_YAMLOverlay(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "vmt.yaml")
	content := "port: \"9090\"\nai_enabled: true\nquery_limit: 20\ns3:\n  bucket: shots\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("QUERY_LIMIT", "7")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Port != "9090" || !cfg.AIEnabled || !cfg.S3.Enabled() {
		t.Fatalf("overlay not applied: %+v", cfg)
	}
	if cfg.QueryLimit != 7 {
		t.Fatalf("env should override file, got %d", cfg.QueryLimit)
	}
}

func TestLoad_RejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_PROVIDER", "bogus")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for unknown provider")
	}
}

func TestManager_PersistsSettings(t *testing.T) {
	cfg := Default()
	cfg.DataDir = t.TempDir()
	cfg.AIEnabled = true

	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if !m.Get().ProviderEnabled("Pexels") {
		t.Fatal("providers default to enabled")
	}
	if err := m.SetProviderEnabled("Pexels", false); err != nil {
		t.Fatalf("SetProviderEnabled: %v", err)
	}
	if _, err := m.Update(func(s *Settings) { s.AIProvider = "nope" }); err == nil {
		t.Fatal("expected invalid provider to be rejected")
	}

	reloaded, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	got := reloaded.Get()
	if got.ProviderEnabled("Pexels") || !got.AIEnabled || got.AIProvider != ProviderGoogle {
		t.Fatalf("settings not persisted: %+v", got)
	}
}

func TestMemoryManager_DoesNotWriteFiles(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	m := NewMemoryManager(Settings{AIProvider: ProviderOpenAI})
	if err := m.SetProviderEnabled("Unsplash", false); err != nil {
		t.Fatalf("SetProviderEnabled: %v", err)
	}
	if m.Get().ProviderEnabled("Unsplash") {
		t.Fatal("toggle not applied")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("unexpected files: %v", entries)
	}
}
