package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/timvw/vlm-bench/internal/vlm"
)

var envKeys = []string{
	"VLM_BENCH_PROVIDER", "VLM_BENCH_MODEL", "VLM_BENCH_BASE_URL", "VLM_BENCH_API_KEY",
	"VLM_BENCH_MAX_TOKENS", "VLM_BENCH_IMAGE_WIDTH", "VLM_BENCH_IMAGE_HEIGHT", "VLM_BENCH_CATEGORY",
	"OPENROUTER_API_KEY", "OPENAI_API_KEY", "ANTHROPIC_API_KEY", "GEMINI_API_KEY", "GOOGLE_API_KEY",
	"AZURE_OPENAI_API_KEY", "AZURE_RESOURCE_NAME",
	"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_EXPORTER_OTLP_HEADERS",
}

// isolate runs the test in an empty directory with a clean environment.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	for _, key := range envKeys {
		t.Setenv(key, "")
	}
	return dir
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Provider != "openai" {
		t.Errorf("Provider: got %q, want %q", cfg.Provider, "openai")
	}
	if cfg.Model != "qwen/qwen3-vl-235b-a22b-instruct" {
		t.Errorf("Model: got %q", cfg.Model)
	}
	if cfg.MaxTokens != 4096 {
		t.Errorf("MaxTokens: got %d, want %d", cfg.MaxTokens, 4096)
	}
	if cfg.ImageWidth != 640 || cfg.ImageHeight != 441 {
		t.Errorf("image size: got %dx%d, want 640x441", cfg.ImageWidth, cfg.ImageHeight)
	}
	if cfg.Category != "with_instruct" {
		t.Errorf("Category: got %q", cfg.Category)
	}
}

func TestLoad_NoSources(t *testing.T) {
	isolate(t)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConfigFile != "" || cfg.EnvFile != "" {
		t.Errorf("expected no files, got config=%q env=%q", cfg.ConfigFile, cfg.EnvFile)
	}
	if cfg.APIKey != "" {
		t.Errorf("APIKey: got %q, want empty", cfg.APIKey)
	}
	if !errors.Is(cfg.Validate(), ErrMissingAPIKey) {
		t.Errorf("Validate: got %v, want ErrMissingAPIKey", cfg.Validate())
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".vlm-bench.yaml"), `
provider: anthropic
model: claude-sonnet-4-5
max_tokens: 1024
image_width: 1280
image_height: 882
category: state_ident
`)

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.ConfigFile != ".vlm-bench.yaml" {
		t.Errorf("ConfigFile: got %q", cfg.ConfigFile)
	}
	if cfg.Provider != "anthropic" || cfg.Model != "claude-sonnet-4-5" {
		t.Errorf("provider/model: got %q/%q", cfg.Provider, cfg.Model)
	}
	if cfg.MaxTokens != 1024 {
		t.Errorf("MaxTokens: got %d", cfg.MaxTokens)
	}
	if cfg.ImageWidth != 1280 || cfg.ImageHeight != 882 {
		t.Errorf("image size: got %dx%d", cfg.ImageWidth, cfg.ImageHeight)
	}
	if cfg.Category != "state_ident" {
		t.Errorf("Category: got %q", cfg.Category)
	}
}

func TestLoadFromHomeConfig(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".config", "vlm-bench", "config.yaml"), "model: home-model\n")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Model != "home-model" {
		t.Errorf("Model: got %q, want home-model", cfg.Model)
	}
}

func TestLoadExplicitPath(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "custom.yaml")
	writeFile(t, path, "provider: gemini\nmodel: gemini-2.5-flash\n")

	cfg, err := Load(path, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "gemini" || cfg.ConfigFile != path {
		t.Errorf("got provider %q from %q", cfg.Provider, cfg.ConfigFile)
	}

	if _, err := Load(filepath.Join(dir, "missing.yaml"), nil); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".vlm-bench.yaml"), "provider: [unclosed\n")

	if _, err := Load("", nil); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestPrecedence(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".vlm-bench.yaml"), "model: file-model\nbase_url: https://file.example\napi_key: file-key\n")
	writeFile(t, filepath.Join(dir, ".env"), "VLM_BENCH_MODEL=dotenv-model\nVLM_BENCH_BASE_URL=https://dotenv.example\n")
	t.Setenv("VLM_BENCH_MODEL", "env-model")

	cfg, err := Load("", &Config{APIKey: "flag-key"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EnvFile != ".env" {
		t.Errorf("EnvFile: got %q", cfg.EnvFile)
	}
	if cfg.Model != "env-model" {
		t.Errorf("Model: got %q, want env over .env over file", cfg.Model)
	}
	if cfg.BaseURL != "https://dotenv.example" {
		t.Errorf("BaseURL: got %q, want .env over file", cfg.BaseURL)
	}
	if cfg.APIKey != "flag-key" {
		t.Errorf("APIKey: got %q, want flag over file", cfg.APIKey)
	}
}

func TestDotEnvDoesNotMutateEnvironment(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "OPENROUTER_API_KEY=sk-or-dotenv\n")

	cfg, err := Load("", nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-or-dotenv" {
		t.Errorf("APIKey: got %q, want value from .env", cfg.APIKey)
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		t.Errorf("process env mutated: OPENROUTER_API_KEY=%q", v)
	}
}

func TestAPIKeyFallbacks(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		env      map[string]string
		want     string
	}{
		{
			name:     "openrouter preferred for openai",
			provider: "openai",
			env:      map[string]string{"OPENROUTER_API_KEY": "or", "OPENAI_API_KEY": "oa"},
			want:     "or",
		},
		{
			name:     "openai key",
			provider: "openai",
			env:      map[string]string{"OPENAI_API_KEY": "oa"},
			want:     "oa",
		},
		{
			name:     "anthropic ignores openrouter",
			provider: "anthropic",
			env:      map[string]string{"OPENROUTER_API_KEY": "or", "ANTHROPIC_API_KEY": "an"},
			want:     "an",
		},
		{
			name:     "gemini google key",
			provider: "gemini",
			env:      map[string]string{"GOOGLE_API_KEY": "gg"},
			want:     "gg",
		},
		{
			name:     "explicit key wins",
			provider: "openai",
			env:      map[string]string{"VLM_BENCH_API_KEY": "mine", "OPENROUTER_API_KEY": "or"},
			want:     "mine",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			cfg, err := Load("", &Config{Provider: tt.provider})
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if cfg.APIKey != tt.want {
				t.Errorf("APIKey: got %q, want %q", cfg.APIKey, tt.want)
			}
		})
	}
}

func TestFlagProviderSelectsFallbackKey(t *testing.T) {
	isolate(t)
	t.Setenv("VLM_BENCH_PROVIDER", "openai")
	t.Setenv("OPENROUTER_API_KEY", "or")
	t.Setenv("GEMINI_API_KEY", "gm")

	cfg, err := Load("", &Config{Provider: "gemini"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Provider != "gemini" || cfg.APIKey != "gm" {
		t.Errorf("got provider %q key %q, want gemini/gm", cfg.Provider, cfg.APIKey)
	}
}

func TestAzureBaseURLFallback(t *testing.T) {
	isolate(t)
	t.Setenv("AZURE_RESOURCE_NAME", "myres")

	cfg, err := Load("", &Config{Provider: "anthropic"})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.BaseURL != "https://myres.services.ai.azure.com/anthropic/" {
		t.Errorf("BaseURL: got %q", cfg.BaseURL)
	}
}

func TestInvalidNumericEnv(t *testing.T) {
	isolate(t)
	t.Setenv("VLM_BENCH_IMAGE_WIDTH", "wide")

	if _, err := Load("", nil); err == nil {
		t.Error("expected error for non-numeric VLM_BENCH_IMAGE_WIDTH")
	}
}

func TestValidate(t *testing.T) {
	valid := func() *Config {
		cfg := Defaults()
		cfg.APIKey = "k"
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*Config) {}},
		{name: "unknown provider", mutate: func(c *Config) { c.Provider = "bedrock" }, wantErr: true},
		{name: "openrouter is not a provider name", mutate: func(c *Config) { c.Provider = "openrouter" }, wantErr: true},
		{name: "empty model", mutate: func(c *Config) { c.Model = "" }, wantErr: true},
		{name: "missing key", mutate: func(c *Config) { c.APIKey = "" }, wantErr: true},
		{name: "zero width", mutate: func(c *Config) { c.ImageWidth = 0 }, wantErr: true},
		{name: "negative max tokens", mutate: func(c *Config) { c.MaxTokens = -1 }, wantErr: true},
		{name: "unknown category", mutate: func(c *Config) { c.Category = "vibes" }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_AcceptsEveryClientProvider(t *testing.T) {
	for _, provider := range vlm.Providers {
		cfg := Defaults()
		cfg.Provider = provider
		cfg.APIKey = "k"
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate() with provider %q = %v", provider, err)
		}
	}
}

func TestIsAzureEndpoint(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://myres.openai.azure.com/openai/v1", true},
		{"https://myres.services.ai.azure.com/anthropic/", true},
		{"https://gov.azure.us/x", true},
		{"https://openrouter.ai/api/v1", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsAzureEndpoint(tt.url); got != tt.want {
			t.Errorf("IsAzureEndpoint(%q) = %v, want %v", tt.url, got, tt.want)
		}
	}
}

func TestIsOpenRouter(t *testing.T) {
	tests := []struct {
		provider, baseURL string
		want              bool
	}{
		{"openai", "", true},
		{"openai", "https://openrouter.ai/api/v1", true},
		{"openai", "http://localhost:8000/v1", false},
		{"anthropic", "", false},
	}
	for _, tt := range tests {
		cfg := &Config{Provider: tt.provider, BaseURL: tt.baseURL}
		if got := cfg.IsOpenRouter(); got != tt.want {
			t.Errorf("IsOpenRouter(%q, %q) = %v, want %v", tt.provider, tt.baseURL, got, tt.want)
		}
	}
}
