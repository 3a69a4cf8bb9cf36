package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/timvw/vlm-bench/internal/config"
	"github.com/timvw/vlm-bench/internal/model"
	telem "github.com/timvw/vlm-bench/internal/otel"
	"github.com/timvw/vlm-bench/internal/parser"
	"github.com/timvw/vlm-bench/internal/report"
	"github.com/timvw/vlm-bench/internal/vlm"
)

const (
	formatJSON = "json"
	formatText = "text"
)

var (
	// Global flags.
	flagConfig      string
	flagProvider    string
	flagModel       string
	flagBaseURL     string
	flagAPIKey      string
	flagMaxTokens   int64
	flagImageWidth  int
	flagImageHeight int
	flagTheme       string

	// Shared per-command flags.
	flagBenchmark string
	flagCategory  string
	flagFormat    string
)

var rootCmd = &cobra.Command{
	Use:   "vlm-bench",
	Short: "Benchmark vision-language models on physics-puzzle screenshots",
	Long: `vlm-bench evaluates a vision-language model on one puzzle test case.

A test case is a screenshot (<stem>.png) with its puzzle description
(<stem>.json) and, for the understanding benchmark, a task file (<stem>.py).
The ground truth comes from the description; the model sees only the image
and the prompt. Its answer is parsed and scored:

  recognition    comma-joined part types       exact match
  grounding      labelled bounding box         IoU
  click          GUI-agent click action        pixel distance
  understanding  object matching the task      exact match

Unparseable answers score as "no detection", never as an error.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "config file (default: .vlm-bench.yaml, then ~/.config/vlm-bench/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagProvider, "provider", "", "LLM provider: openai, anthropic, gemini (default: openai via OpenRouter)")
	rootCmd.PersistentFlags().StringVar(&flagModel, "model", "", "model name (default: qwen/qwen3-vl-235b-a22b-instruct)")
	rootCmd.PersistentFlags().StringVar(&flagBaseURL, "base-url", "", "override LLM API base URL")
	rootCmd.PersistentFlags().StringVar(&flagAPIKey, "api-key", "", "override LLM API key")
	rootCmd.PersistentFlags().Int64Var(&flagMaxTokens, "max-tokens", 0, "max completion tokens (default: 4096; increase for reasoning models)")
	rootCmd.PersistentFlags().IntVar(&flagImageWidth, "image-width", 0, "screenshot width in pixels for normalized coordinates (default: 640)")
	rootCmd.PersistentFlags().IntVar(&flagImageHeight, "image-height", 0, "screenshot height in pixels for normalized coordinates (default: 441)")
	rootCmd.PersistentFlags().StringVar(&flagTheme, "theme", "dark", "color theme for text output: dark, light")
}

// addCaseFlags registers the flags every test-case command shares.
func addCaseFlags(cmd *cobra.Command, withCategory bool) {
	cmd.Flags().StringVarP(&flagBenchmark, "benchmark", "b", "", "benchmark: recognition, grounding, click, understanding")
	_ = cmd.MarkFlagRequired("benchmark")
	cmd.Flags().StringVarP(&flagFormat, "format", "f", formatJSON, "output format: json, text")
	if withCategory {
		cmd.Flags().StringVar(&flagCategory, "category", "", "understanding category: with_instruct, without_instruct, state_ident")
	}
}

// loadConfig resolves configuration with command-line flags applied on top.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(flagConfig, &config.Config{
		Provider:    flagProvider,
		Model:       flagModel,
		BaseURL:     flagBaseURL,
		APIKey:      flagAPIKey,
		MaxTokens:   flagMaxTokens,
		ImageWidth:  flagImageWidth,
		ImageHeight: flagImageHeight,
		Category:    flagCategory,
	})
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// parseCaseFlags validates --benchmark and --format.
func parseCaseFlags() (model.Benchmark, error) {
	b, err := model.ParseBenchmark(flagBenchmark)
	if err != nil {
		return "", err
	}
	if flagFormat != formatJSON && flagFormat != formatText {
		return "", fmt.Errorf("unknown format %q (supported: json, text)", flagFormat)
	}
	return b, nil
}

// newLogger returns the diagnostics logger. Diagnostics always go to
// stderr so stdout stays machine-readable.
func newLogger() *log.Logger {
	return log.New(os.Stderr, "vlm-bench: ", 0)
}

// newParsers builds the response parsers for the configured image size.
func newParsers(cfg *config.Config, logger *log.Logger) *parser.Registry {
	return parser.NewRegistry(parser.Options{
		ImageWidth:  cfg.ImageWidth,
		ImageHeight: cfg.ImageHeight,
		Log:         logger,
	})
}

// newClient validates the configuration and creates the model client.
func newClient(ctx context.Context, cfg *config.Config) (vlm.Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	headers := map[string]string{}
	// Azure AI Foundry needs both "api-key" (Azure) and the SDK's own auth header.
	if config.IsAzureEndpoint(cfg.BaseURL) {
		headers["api-key"] = cfg.APIKey
	}
	// OpenRouter app attribution.
	if cfg.IsOpenRouter() {
		headers["X-Title"] = "vlm-bench"
	}

	return vlm.New(ctx, cfg.Provider, vlm.Config{
		BaseURL:      cfg.BaseURL,
		APIKey:       cfg.APIKey,
		Model:        cfg.Model,
		MaxTokens:    cfg.MaxTokens,
		ExtraHeaders: headers,
	})
}

// initTelemetry starts OTEL; failures only produce a warning.
func initTelemetry(ctx context.Context, cfg *config.Config) *telem.Telemetry {
	telem.Version = Version
	tel, err := telem.Init(ctx, telem.Config{
		Endpoint:  cfg.OTELEndpoint,
		Headers:   cfg.OTELHeaders,
		Provider:  cfg.Provider,
		Model:     cfg.Model,
		Benchmark: flagBenchmark,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: otel init failed: %v\n", err)
		return nil
	}
	return tel
}

// interactive reports whether progress can be drawn on stderr.
func interactive() bool {
	fd := os.Stderr.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func theme() report.Theme {
	return report.ThemeByName(flagTheme)
}
