package common

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	for _, k := range []string{"LLM_PROVIDER", "LLM_MODEL", "LLM_API_KEY", "OPENAI_API_KEY", "DB_DRIVER", "DB_URL", "REVIEW_THRESHOLD", "INBOX_DIR"} {
		t.Setenv(k, "")
	}
	cfg := LoadConfig()
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "openai", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, float32(0.5), cfg.Extraction.ReviewThreshold)
	assert.Equal(t, 20*time.Second, cfg.Extraction.ModelTimeout)
	assert.Equal(t, ":8080", cfg.Server.GRPCAddr)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Empty(t, cfg.Inbox.Dir)
}

func TestLoadConfig_Env(t *testing.T) {
	t.Setenv("LLM_PROVIDER", "Gemini")
	t.Setenv("LLM_MODEL", "")
	t.Setenv("LLM_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_URL", "file:ledger.db")
	t.Setenv("QUEUE_WORKERS", "not-a-number")
	t.Setenv("EXTRACTION_MODEL_TIMEOUT", "5s")
	t.Setenv("REVIEW_THRESHOLD", "0.7")

	cfg := LoadConfig()
	assert.Equal(t, "gemini", cfg.LLM.Provider)
	assert.Equal(t, "gemini-2.5-flash", cfg.LLM.Model)
	assert.Equal(t, "g-key", cfg.LLM.APIKey)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, 4, cfg.Queue.Workers)
	assert.Equal(t, 5*time.Second, cfg.Extraction.ModelTimeout)
	assert.InDelta(t, 0.7, cfg.Extraction.ReviewThreshold, 1e-6)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Database:   DatabaseConfig{Driver: "sqlite", DSN: ":memory:"},
			Server:     ServerConfig{GRPCAddr: ":8080"},
			LLM:        LLMConfig{Provider: "none"},
			Extraction: ExtractionConfig{ReviewThreshold: 0.5},
		}
	}
	require.NoError(t, valid().Validate())

	cases := map[string]func(c *Config){
		"driver":          func(c *Config) { c.Database.Driver = "mysql" },
		"dsn":             func(c *Config) { c.Database.DSN = "" },
		"provider":        func(c *Config) { c.LLM.Provider = "llama" },
		"missing api key": func(c *Config) { c.LLM.Provider = "openai" },
		"addr":            func(c *Config) { c.Server.GRPCAddr = "" },
		"threshold":       func(c *Config) { c.Extraction.ReviewThreshold = 1.5 },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := valid()
			mutate(c)
			err := c.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidInput)
		})
	}
}
