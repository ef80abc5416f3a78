package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate runs the test in an empty directory with no provider credentials set.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	for _, names := range providerKeyEnv {
		for _, name := range names {
			t.Setenv(name, "")
		}
	}
	for _, name := range []string{"LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "LLM_API_KEY_ENV", "LLM_BASE_URL", "SERVER_ADDR", "EXPORT_DIR"} {
		t.Setenv(EnvPrefix+"_"+name, "")
	}
	return dir
}

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
}

func TestLoad_DefaultsWithGeminiKey(t *testing.T) {
	isolate(t)
	t.Setenv("GEMINI_API_KEY", "g-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, ":8080", cfg.ServerAddr)
	assert.Equal(t, "articles", cfg.ExportDir)
}

func TestLoad_FallsBackToAPIKey(t *testing.T) {
	isolate(t)
	t.Setenv("API_KEY", "plain-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "plain-key", cfg.LLM.APIKey)
}

func TestLoad_MissingCredential(t *testing.T) {
	isolate(t)
	_, err := Load("")
	require.ErrorIs(t, err, ErrMissingCredential)
}

func TestLoad_MockNeedsNoKey(t *testing.T) {
	isolate(t)
	t.Setenv("KEYWORD_STUDIO_LLM_PROVIDER", "Mock")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "mock", cfg.LLM.Provider)
	assert.Empty(t, cfg.LLM.APIKey)
}

func TestLoad_UnknownProvider(t *testing.T) {
	isolate(t)
	t.Setenv("KEYWORD_STUDIO_LLM_PROVIDER", "llama")
	_, err := Load("")
	require.ErrorIs(t, err, ErrUnknownProvider)
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	dir := isolate(t)
	path := filepath.Join(dir, "studio.yaml")
	writeFile(t, path, `
llm:
  provider: deepseek
  model: deepseek-chat
  base_url: https://api.deepseek.com/v1
  api_key_env: MY_DS_KEY
server_addr: ":9000"
export_dir: out
`)
	t.Setenv("MY_DS_KEY", "ds-key")
	t.Setenv("DEEPSEEK_API_KEY", "ignored")
	t.Setenv("KEYWORD_STUDIO_SERVER_ADDR", ":9100")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, LLMConfig{
		Provider:  "deepseek",
		Model:     "deepseek-chat",
		APIKey:    "ds-key",
		APIKeyEnv: "MY_DS_KEY",
		BaseURL:   "https://api.deepseek.com/v1",
	}, cfg.LLM)
	assert.Equal(t, ":9100", cfg.ServerAddr)
	assert.Equal(t, "out", cfg.ExportDir)
}

func TestLoad_ExplicitKeyWins(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, "keyword-studio.yaml"), "llm:\n  provider: openai\n  model: gpt-4o-mini\n  api_key: file-key\n")
	t.Setenv("OPENAI_API_KEY", "env-key")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "file-key", cfg.LLM.APIKey)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
}

func TestLoad_DotEnv(t *testing.T) {
	dir := isolate(t)
	writeFile(t, filepath.Join(dir, ".env"), "OPENAI_API_KEY=from-dotenv\nKEYWORD_STUDIO_LLM_PROVIDER=openai\n")
	// godotenv never overrides variables that are already set.
	require.NoError(t, os.Unsetenv("OPENAI_API_KEY"))
	require.NoError(t, os.Unsetenv("KEYWORD_STUDIO_LLM_PROVIDER"))
	t.Cleanup(func() {
		_ = os.Unsetenv("OPENAI_API_KEY")
		_ = os.Unsetenv("KEYWORD_STUDIO_LLM_PROVIDER")
	})

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "from-dotenv", cfg.LLM.APIKey)
}

func TestLoad_MalformedDotEnv(t *testing.T) {
	dir := isolate(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	writeFile(t, filepath.Join(dir, ".env"), "OPENAI_API_KEY=\"never closed\n")

	_, err := Load("")
	require.ErrorContains(t, err, "load .env")
}

func TestLoad_MissingFile(t *testing.T) {
	dir := isolate(t)
	t.Setenv("GEMINI_API_KEY", "g-key")
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
}
