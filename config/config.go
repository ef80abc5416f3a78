// Package config loads application settings from a config file, a .env file
// and KEYWORD_STUDIO_* environment variables.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. KEYWORD_STUDIO_LLM_MODEL.
const EnvPrefix = "KEYWORD_STUDIO"

var (
	// ErrMissingCredential means no API key could be resolved for the configured provider.
	ErrMissingCredential = errors.New("config: no API key configured for llm provider")
	// ErrUnknownProvider means llm.provider names a backend this build does not support.
	ErrUnknownProvider = errors.New("config: unsupported llm provider")
)

// providerKeyEnv lists the well-known credential variables per provider, in lookup order.
var providerKeyEnv = map[string][]string{
	"gemini":   {"GEMINI_API_KEY", "API_KEY"},
	"openai":   {"OPENAI_API_KEY"},
	"deepseek": {"DEEPSEEK_API_KEY"},
	"mock":     nil,
}

// Config holds application settings.
type Config struct {
	LLM        LLMConfig `mapstructure:"llm"`
	ServerAddr string    `mapstructure:"server_addr"`
	ExportDir  string    `mapstructure:"export_dir"`
}

// LLMConfig selects and authenticates the language model backend.
type LLMConfig struct {
	Provider  string `mapstructure:"provider"`
	Model     string `mapstructure:"model"`
	APIKey    string `mapstructure:"api_key"`
	APIKeyEnv string `mapstructure:"api_key_env"`
	BaseURL   string `mapstructure:"base_url"`
}

// Load reads path (yaml, json or toml by extension) when given, otherwise
// ./keyword-studio.yaml if present, then applies environment overrides and
// resolves the API key. A missing credential is reported as ErrMissingCredential.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	v := viper.New()
	v.SetDefault("llm.provider", "gemini")
	v.SetDefault("llm.model", "")
	v.SetDefault("llm.api_key", "")
	v.SetDefault("llm.api_key_env", "")
	v.SetDefault("llm.base_url", "")
	v.SetDefault("server_addr", ":8080")
	v.SetDefault("export_dir", "articles")

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("keyword-studio")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	cfg.LLM.Provider = strings.ToLower(strings.TrimSpace(cfg.LLM.Provider))
	if err := cfg.LLM.resolveKey(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// resolveKey fills APIKey from, in order: the explicit value, the variable
// named by APIKeyEnv, then the provider's well-known variables.
func (c *LLMConfig) resolveKey() error {
	candidates, ok := providerKeyEnv[c.Provider]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownProvider, c.Provider)
	}
	if c.Provider == "mock" {
		return nil
	}
	if strings.TrimSpace(c.APIKey) != "" {
		return nil
	}
	if c.APIKeyEnv != "" {
		candidates = append([]string{c.APIKeyEnv}, candidates...)
	}
	for _, name := range candidates {
		if key := strings.TrimSpace(os.Getenv(name)); key != "" {
			c.APIKey = key
			return nil
		}
	}
	return fmt.Errorf("%w %q (set llm.api_key or one of %s)", ErrMissingCredential, c.Provider, strings.Join(candidates, ", "))
}
