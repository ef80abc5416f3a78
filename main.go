package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"keyword_studio/config"
	"keyword_studio/generator"
)

var (
	configPath string
	verbose    bool

	logger = zap.NewNop()
)

var rootCmd = &cobra.Command{
	Use:   "keyword-studio",
	Short: "Keyword research and SEO article drafting backed by an LLM",
	Long: `keyword-studio walks a niche through four stages: main keywords, a seed
keyword table, keyword expansion (FAQs, core and secondary keywords, products)
and finally a long-form article localized to a country.

Use "serve" for the JSON HTTP API, "run" for the interactive terminal flow and
"render" to preview a markdown article.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg := zap.NewProductionConfig()
		switch {
		case verbose:
			cfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		case cmd.Name() != serveCmd.Name():
			// Interactive commands keep the terminal for their own output.
			cfg.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		}
		l, err := cfg.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ./keyword-studio.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logs")
	rootCmd.AddCommand(serveCmd, runCmd, renderCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newAgent loads the config and builds the stage service on the configured model.
func newAgent(ctx context.Context) (*config.Config, *generator.Agent, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, err
	}
	llm, err := buildLLM(ctx, cfg.LLM)
	if err != nil {
		return nil, nil, err
	}
	logger.Info("llm ready", zap.String("client", llm.Name()))
	agent, err := generator.NewAgent(llm, logger)
	if err != nil {
		return nil, nil, err
	}
	return cfg, agent, nil
}

func buildLLM(ctx context.Context, cfg config.LLMConfig) (generator.LLMClient, error) {
	settings := &generator.LLMSettings{
		Provider: cfg.Provider,
		Model:    cfg.Model,
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
	}
	switch cfg.Provider {
	case "gemini":
		return generator.NewGeminiLLM(ctx, settings)
	case "openai":
		return generator.NewOpenAILLMFromConfig(settings)
	case "deepseek":
		// DeepSeek speaks the OpenAI protocol; base_url selects the endpoint.
		if cfg.BaseURL == "" {
			return nil, fmt.Errorf("llm provider deepseek requires base_url (OpenAI-compatible endpoint)")
		}
		return generator.NewOpenAILLMFromConfig(settings)
	case "mock":
		return generator.MockLLM{}, nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}
