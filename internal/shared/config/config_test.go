package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNormalizeLedgerBackend(t *testing.T) {
	tests := []struct {
		raw   string
		dbURL string
		want  string
	}{
		{raw: "", dbURL: "", want: "memory"},
		{raw: "", dbURL: "postgres://x", want: "postgres"},
		{raw: "MongoDB", dbURL: "postgres://x", want: "mongo"},
		{raw: "pg", dbURL: "", want: "postgres"},
		{raw: "memory", dbURL: "postgres://x", want: "memory"},
	}
	for _, tt := range tests {
		if got := normalizeLedgerBackend(tt.raw, tt.dbURL); got != tt.want {
			t.Fatalf("normalizeLedgerBackend(%q, %q) = %q, want %q", tt.raw, tt.dbURL, got, tt.want)
		}
	}
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("ENV", "prod")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("LEDGER_BACKEND", "mongo")
	t.Setenv("STRIPE_PRICE_PRO", "price_pro")
	t.Setenv("CORS_ALLOW_ORIGINS", "https://a.example, ,https://b.example")
	t.Setenv("CHAT_BURST", "not-a-number")
	t.Setenv("ASSET_BASE_URL", "https://cdn.example/assets/")

	cfg := Load()
	if cfg.Env != "production" || cfg.LedgerBackend != "mongo" || cfg.StripePricePro != "price_pro" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(cfg.CORSAllowOrigin) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.CORSAllowOrigin)
	}
	if cfg.ChatBurst != 10 {
		t.Fatalf("expected default burst, got %d", cfg.ChatBurst)
	}
	if cfg.AssetBaseURL != "https://cdn.example/assets" {
		t.Fatalf("unexpected asset base: %q", cfg.AssetBaseURL)
	}
}

func TestLoadEnvFilesDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("CONFIG_TEST_A=from-file\nCONFIG_TEST_B=\"quoted\"\n"), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("CONFIG_TEST_A", "from-env")
	t.Setenv("CONFIG_TEST_B", "")
	_ = os.Unsetenv("CONFIG_TEST_B")

	loadEnvFiles(filepath.Join(dir, "missing.env"), path)

	if got := os.Getenv("CONFIG_TEST_A"); got != "from-env" {
		t.Fatalf("CONFIG_TEST_A = %q, want from-env", got)
	}
	if got := os.Getenv("CONFIG_TEST_B"); got != "quoted" {
		t.Fatalf("CONFIG_TEST_B = %q, want quoted", got)
	}
	_ = os.Unsetenv("CONFIG_TEST_B")
}
