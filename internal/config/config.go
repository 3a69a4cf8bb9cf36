// Package config loads vlm-bench configuration from file and environment.
//
// Precedence (highest to lowest):
//  1. Command-line flags (applied by the caller)
//  2. Environment variables (VLM_BENCH_*)
//  3. .env file in the current directory
//  4. Config file
//  5. Built-in defaults
//
// Config file search order, unless a path is given:
//  1. .vlm-bench.yaml in current directory
//  2. ~/.config/vlm-bench/config.yaml
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/timvw/vlm-bench/internal/model"
	"github.com/timvw/vlm-bench/internal/vlm"
)

// ErrMissingAPIKey is returned by Validate when no credential was found.
var ErrMissingAPIKey = errors.New("no API key found")

// DotEnvFile is the credential file read from the current directory.
const DotEnvFile = ".env"

// Config holds all vlm-bench configuration.
type Config struct {
	// LLM settings
	Provider  string `yaml:"provider"`
	Model     string `yaml:"model"`
	BaseURL   string `yaml:"base_url"`
	APIKey    string `yaml:"api_key"`
	MaxTokens int64  `yaml:"max_tokens"`

	// Benchmark settings
	ImageWidth  int    `yaml:"image_width"`
	ImageHeight int    `yaml:"image_height"`
	Category    string `yaml:"category"`

	// OTEL
	OTELEndpoint string `yaml:"otel_endpoint"`
	OTELHeaders  string `yaml:"otel_headers"` // Comma-separated key=value pairs, e.g. "Authorization=Basic abc123"

	// ConfigFile is the path to the config file that was loaded (empty if none).
	ConfigFile string `yaml:"-"`
	// EnvFile is the path to the .env file that was read (empty if none).
	EnvFile string `yaml:"-"`
}

// Defaults returns a Config with all default values.
func Defaults() *Config {
	return &Config{
		Provider:    "openai",
		Model:       "qwen/qwen3-vl-235b-a22b-instruct",
		MaxTokens:   4096,
		ImageWidth:  640,
		ImageHeight: 441,
		Category:    model.CategoryWithInstruct,
	}
}

// Load reads configuration from a config file, the .env file and
// environment variables, then applies the non-zero fields of overrides
// (command-line flags). An empty path searches the default locations; a
// non-empty path must exist. Credential fallbacks are resolved last so they
// follow the final provider.
func Load(path string, overrides *Config) (*Config, error) {
	cfg := Defaults()

	var data []byte
	var err error
	if path != "" {
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	} else {
		path, data, err = findConfigFile()
	}
	if err == nil {
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
		cfg.ConfigFile = path
		mergeFile(cfg, &fileCfg)
	}

	dotenv, err := readDotEnv(DotEnvFile)
	if err != nil {
		return nil, err
	}
	if dotenv != nil {
		cfg.EnvFile = DotEnvFile
	}

	getenv := envLookup(dotenv)
	if err := mergeEnv(cfg, getenv); err != nil {
		return nil, err
	}
	if overrides != nil {
		mergeFile(cfg, overrides)
	}
	applyFallbacks(cfg, getenv)
	return cfg, nil
}

// Validate reports settings that would make an evaluation fail. It runs
// before any client is built so a missing key never reaches the network.
func (c *Config) Validate() error {
	if !slices.Contains(vlm.Providers, c.Provider) {
		return fmt.Errorf("unknown provider %q (supported: %s)", c.Provider, strings.Join(vlm.Providers, ", "))
	}
	if c.Model == "" {
		return fmt.Errorf("no model configured")
	}
	if c.APIKey == "" {
		return fmt.Errorf("%w: set --api-key, VLM_BENCH_API_KEY, or %s", ErrMissingAPIKey, strings.Join(apiKeyEnv(c.Provider), ", "))
	}
	if c.ImageWidth <= 0 || c.ImageHeight <= 0 {
		return fmt.Errorf("invalid image size %dx%d", c.ImageWidth, c.ImageHeight)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("invalid max tokens %d", c.MaxTokens)
	}
	if _, err := model.ParseCategory(c.Category); err != nil {
		return err
	}
	return nil
}

// findConfigFile searches for a config file and returns its path and contents.
func findConfigFile() (string, []byte, error) {
	// 1. Current directory
	if data, err := os.ReadFile(".vlm-bench.yaml"); err == nil {
		return ".vlm-bench.yaml", data, nil
	}

	// 2. XDG config dir / ~/.config
	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, ".config", "vlm-bench", "config.yaml")
		if data, err := os.ReadFile(path); err == nil {
			return path, data, nil
		}
	}

	return "", nil, fmt.Errorf("no config file found")
}

// readDotEnv parses a .env file into a map without touching the process
// environment. A missing file yields a nil map.
func readDotEnv(path string) (map[string]string, error) {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	vars, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return vars, nil
}

// envLookup returns a getter that prefers the process environment over the
// .env values.
func envLookup(dotenv map[string]string) func(string) string {
	return func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return dotenv[key]
	}
}

// mergeFile applies non-zero file (or flag) values onto cfg.
func mergeFile(cfg *Config, file *Config) {
	if file.Provider != "" {
		cfg.Provider = file.Provider
	}
	if file.Model != "" {
		cfg.Model = file.Model
	}
	if file.BaseURL != "" {
		cfg.BaseURL = file.BaseURL
	}
	if file.APIKey != "" {
		cfg.APIKey = file.APIKey
	}
	if file.MaxTokens > 0 {
		cfg.MaxTokens = file.MaxTokens
	}
	if file.ImageWidth > 0 {
		cfg.ImageWidth = file.ImageWidth
	}
	if file.ImageHeight > 0 {
		cfg.ImageHeight = file.ImageHeight
	}
	if file.Category != "" {
		cfg.Category = file.Category
	}
	if file.OTELEndpoint != "" {
		cfg.OTELEndpoint = file.OTELEndpoint
	}
	if file.OTELHeaders != "" {
		cfg.OTELHeaders = file.OTELHeaders
	}
}

// mergeEnv applies environment variables onto cfg. Env always wins.
func mergeEnv(cfg *Config, getenv func(string) string) error {
	if v := getenv("VLM_BENCH_PROVIDER"); v != "" {
		cfg.Provider = v
	}
	if v := getenv("VLM_BENCH_MODEL"); v != "" {
		cfg.Model = v
	}
	if v := getenv("VLM_BENCH_BASE_URL"); v != "" {
		cfg.BaseURL = v
	}
	if v := getenv("VLM_BENCH_API_KEY"); v != "" {
		cfg.APIKey = v
	}
	if v := getenv("VLM_BENCH_CATEGORY"); v != "" {
		cfg.Category = v
	}
	if v := getenv("VLM_BENCH_MAX_TOKENS"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid VLM_BENCH_MAX_TOKENS %q: %w", v, err)
		}
		cfg.MaxTokens = n
	}
	if v := getenv("VLM_BENCH_IMAGE_WIDTH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VLM_BENCH_IMAGE_WIDTH %q: %w", v, err)
		}
		cfg.ImageWidth = n
	}
	if v := getenv("VLM_BENCH_IMAGE_HEIGHT"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid VLM_BENCH_IMAGE_HEIGHT %q: %w", v, err)
		}
		cfg.ImageHeight = n
	}
	if v := getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); v != "" {
		cfg.OTELEndpoint = v
	}
	if v := getenv("OTEL_EXPORTER_OTLP_HEADERS"); v != "" {
		cfg.OTELHeaders = v
	}
	return nil
}

// applyFallbacks fills the API key and base URL from provider-specific
// variables when nothing more specific set them.
func applyFallbacks(cfg *Config, getenv func(string) string) {
	// API key fallbacks, in provider order.
	for _, key := range apiKeyEnv(cfg.Provider) {
		if cfg.APIKey != "" {
			break
		}
		cfg.APIKey = getenv(key)
	}

	// Azure base URL fallback
	if cfg.BaseURL == "" {
		if rn := getenv("AZURE_RESOURCE_NAME"); rn != "" {
			switch cfg.Provider {
			case "anthropic":
				cfg.BaseURL = fmt.Sprintf("https://%s.services.ai.azure.com/anthropic/", rn)
			case "openai":
				cfg.BaseURL = fmt.Sprintf("https://%s.openai.azure.com/openai/v1", rn)
			}
		}
	}
}

// apiKeyEnv returns the provider-specific credential variables, most
// specific first.
func apiKeyEnv(provider string) []string {
	switch provider {
	case "openai":
		return []string{"OPENROUTER_API_KEY", "OPENAI_API_KEY", "AZURE_OPENAI_API_KEY"}
	case "anthropic":
		return []string{"ANTHROPIC_API_KEY", "AZURE_OPENAI_API_KEY"}
	case "gemini":
		return []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"}
	default:
		return nil
	}
}

// IsAzureEndpoint returns true if the URL is an Azure endpoint.
func IsAzureEndpoint(url string) bool {
	return strings.Contains(url, ".azure.com") || strings.Contains(url, ".azure.us")
}

// IsOpenRouter reports whether requests go to OpenRouter. An empty base URL
// with the openai provider selects OpenRouter.
func (c *Config) IsOpenRouter() bool {
	if c.Provider != "openai" {
		return false
	}
	return c.BaseURL == "" || strings.Contains(c.BaseURL, "openrouter.ai")
}
